package profile

import (
	"os"
	"path/filepath"
)

// baseDirOverride is set by tests and by CHATTERM_HOME.
var baseDirOverride string

// BaseDir returns ~/.chatterm, or $CHATTERM_HOME when set.
func BaseDir() string {
	if baseDirOverride != "" {
		return baseDirOverride
	}
	if env := os.Getenv("CHATTERM_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".chatterm")
}

// ConfigPath returns the global config file path.
func ConfigPath() string {
	return filepath.Join(BaseDir(), "config.toml")
}

// Dir returns the profile-specific directory.
func Dir(name string) string {
	return filepath.Join(BaseDir(), "profiles", name)
}

// LogDir returns the log directory for a profile.
func LogDir(name string) string {
	return filepath.Join(Dir(name), "logs")
}

// LogPath returns the log file path for the named binary ("chatterm", "chatctl").
func LogPath(name, binary string) string {
	return filepath.Join(LogDir(name), binary+".log")
}

// DownloadDir returns the default directory for downloaded attachments.
func DownloadDir(name string) string {
	return filepath.Join(Dir(name), "downloads")
}

// EnsureDir creates the profile directory tree with proper permissions.
func EnsureDir(name string) error {
	for _, d := range []string{Dir(name), LogDir(name)} {
		if err := os.MkdirAll(d, 0700); err != nil {
			return err
		}
	}
	return nil
}
