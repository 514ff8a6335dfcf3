package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matheus3301/chatterm/internal/config"
)

func withBaseDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	baseDirOverride = dir
	t.Cleanup(func() { baseDirOverride = "" })
	return dir
}

func TestDir(t *testing.T) {
	base := withBaseDir(t)
	got := Dir("main")
	want := filepath.Join(base, "profiles", "main")
	if got != want {
		t.Errorf("Dir(main) = %q, want %q", got, want)
	}
}

func TestLogPath(t *testing.T) {
	base := withBaseDir(t)
	got := LogPath("work", "chatterm")
	want := filepath.Join(base, "profiles", "work", "logs", "chatterm.log")
	if got != want {
		t.Errorf("LogPath = %q, want %q", got, want)
	}
}

func TestEnsureDir(t *testing.T) {
	withBaseDir(t)
	if err := EnsureDir("test"); err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}
	info, err := os.Stat(LogDir("test"))
	if err != nil {
		t.Fatalf("log dir not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("log dir is not a directory")
	}
	if perm := info.Mode().Perm(); perm != 0700 {
		t.Errorf("log dir permission = %o, want 0700", perm)
	}
}

func TestResolvePrecedence(t *testing.T) {
	withBaseDir(t)
	if got := Resolve(""); got != DefaultName {
		t.Errorf("Resolve() without config = %q, want %q", got, DefaultName)
	}
	if err := config.Save(ConfigPath(), &config.Config{DefaultProfile: "work"}); err != nil {
		t.Fatal(err)
	}
	if got := Resolve(""); got != "work" {
		t.Errorf("Resolve() = %q, want work", got)
	}
	if got := Resolve("home"); got != "home" {
		t.Errorf("Resolve(home) = %q, want home", got)
	}
}

func TestLoadFillsDownloadDir(t *testing.T) {
	withBaseDir(t)
	cfg := &config.Config{Profiles: map[string]config.Profile{
		"main": {ServerURL: "http://localhost:5000", UserID: 1, Username: "ann"},
	}}
	if err := config.Save(ConfigPath(), cfg); err != nil {
		t.Fatal(err)
	}
	name, p, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if name != "main" {
		t.Errorf("name = %q, want main", name)
	}
	if p.DownloadDir != DownloadDir("main") {
		t.Errorf("DownloadDir = %q, want %q", p.DownloadDir, DownloadDir("main"))
	}
}

func TestLoadRejectsInvalidProfile(t *testing.T) {
	withBaseDir(t)
	cfg := &config.Config{Profiles: map[string]config.Profile{
		"main": {ServerURL: "http://localhost:5000"},
	}}
	if err := config.Save(ConfigPath(), cfg); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Load(""); err == nil {
		t.Error("Load() expected validation error")
	}
}
