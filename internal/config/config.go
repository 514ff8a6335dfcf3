package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultRequestTimeout bounds every HTTP request when a profile does not set one.
const DefaultRequestTimeout = 15 * time.Second

// Config represents the global ~/.chatterm/config.toml.
type Config struct {
	DefaultProfile string             `toml:"default_profile"`
	Profiles       map[string]Profile `toml:"profiles"`
}

// Profile holds the connection settings for one backend account.
type Profile struct {
	ServerURL      string   `toml:"server_url"`
	UserID         int64    `toml:"user_id"`
	Username       string   `toml:"username"`
	SessionCookie  string   `toml:"session_cookie"`
	DownloadDir    string   `toml:"download_dir,omitempty"`
	RequestTimeout Duration `toml:"request_timeout,omitempty"`
}

// Duration is a time.Duration that reads and writes as a toml string ("15s").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Validate checks that the profile carries everything needed to connect.
func (p Profile) Validate() error {
	var errs []error
	if p.ServerURL == "" {
		errs = append(errs, errors.New("server_url is required"))
	} else if u, err := url.Parse(p.ServerURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("server_url %q is not an absolute URL", p.ServerURL))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, fmt.Errorf("server_url scheme %q must be http or https", u.Scheme))
	}
	if p.UserID <= 0 {
		errs = append(errs, errors.New("user_id must be positive"))
	}
	if p.Username == "" {
		errs = append(errs, errors.New("username is required"))
	}
	return errors.Join(errs...)
}

// Timeout returns the request timeout, defaulting when unset.
func (p Profile) Timeout() time.Duration {
	if p.RequestTimeout.Duration <= 0 {
		return DefaultRequestTimeout
	}
	return p.RequestTimeout.Duration
}

// Profile returns the named profile.
func (c *Config) Profile(name string) (Profile, error) {
	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("profile %q not found in config", name)
	}
	return p, nil
}

// Load reads config from the given path. Returns zero config and error if file missing.
func Load(path string) (*Config, error) {
	var cfg Config
	_, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
