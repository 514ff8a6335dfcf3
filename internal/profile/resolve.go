package profile

import "github.com/matheus3301/chatterm/internal/config"

const DefaultName = "main"

// Resolve determines the active profile name using precedence:
// 1. flagOverride (--profile flag)
// 2. config.toml default_profile
// 3. "main"
func Resolve(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	cfg, err := config.Load(ConfigPath())
	if err == nil && cfg.DefaultProfile != "" {
		return cfg.DefaultProfile
	}
	return DefaultName
}

// Load resolves, validates and reads the named profile from the global config.
func Load(flagOverride string) (string, config.Profile, error) {
	name := Resolve(flagOverride)
	if err := ValidateName(name); err != nil {
		return name, config.Profile{}, err
	}
	cfg, err := config.Load(ConfigPath())
	if err != nil {
		return name, config.Profile{}, err
	}
	p, err := cfg.Profile(name)
	if err != nil {
		return name, config.Profile{}, err
	}
	if err := p.Validate(); err != nil {
		return name, config.Profile{}, err
	}
	if p.DownloadDir == "" {
		p.DownloadDir = DownloadDir(name)
	}
	return name, p, nil
}
