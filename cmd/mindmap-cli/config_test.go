package main

import (
	"os"
	"path/filepath"
	"testing"
)

// resetFlags restores global flag state after each test.
func resetFlags(t *testing.T) {
	t.Helper()
	orig := struct{ url, fmt string }{flagURL, flagFmt}
	t.Cleanup(func() {
		flagURL = orig.url
		flagFmt = orig.fmt
	})
}

// writeConfigFile points HOME at a temp dir holding content as the config file.
func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("HOME", tmp)

	if content == "" {
		return tmp
	}

	cfgDir := filepath.Join(tmp, ".mindmap")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return tmp
}

// TestResolveConfigEnvURL verifies that MINDMAP_URL overrides the default URL.
func TestResolveConfigEnvURL(t *testing.T) {
	resetFlags(t)
	t.Setenv("MINDMAP_URL", "http://env-server:9090")
	writeConfigFile(t, "")

	flagURL = defaultURL
	resolveConfig()

	if flagURL != "http://env-server:9090" {
		t.Errorf("flagURL: got %q, want %q", flagURL, "http://env-server:9090")
	}
}

// TestResolveConfigFlagTakesPrecedenceOverEnv verifies that an explicit flag
// value is not overridden by the environment variable.
func TestResolveConfigFlagTakesPrecedenceOverEnv(t *testing.T) {
	resetFlags(t)
	t.Setenv("MINDMAP_URL", "http://env-server:9090")
	writeConfigFile(t, "")

	flagURL = "http://explicit-flag:1234"
	resolveConfig()

	if flagURL != "http://explicit-flag:1234" {
		t.Errorf("explicit flag should win; got %q", flagURL)
	}
}

// TestResolveConfigProfileYAML verifies that profile-based config is resolved
// using the active_profile key.
func TestResolveConfigProfileYAML(t *testing.T) {
	resetFlags(t)
	t.Setenv("MINDMAP_URL", "")
	writeConfigFile(t, `
active_profile: staging
profiles:
  default:
    url: http://default:3030
  staging:
    url: http://staging:4040
`)

	flagURL = defaultURL
	resolveConfig()

	if flagURL != "http://staging:4040" {
		t.Errorf("flagURL from profile: got %q, want %q", flagURL, "http://staging:4040")
	}
}

// TestResolveConfigDefaultProfile verifies that when active_profile is empty
// the "default" profile is used.
func TestResolveConfigDefaultProfile(t *testing.T) {
	resetFlags(t)
	t.Setenv("MINDMAP_URL", "")
	writeConfigFile(t, `
profiles:
  default:
    url: http://default-profile:5050
`)

	flagURL = defaultURL
	resolveConfig()

	if flagURL != "http://default-profile:5050" {
		t.Errorf("flagURL: got %q, want default profile URL", flagURL)
	}
}

// TestResolveConfigEnvBeatsFile verifies the environment wins over the file.
func TestResolveConfigEnvBeatsFile(t *testing.T) {
	resetFlags(t)
	t.Setenv("MINDMAP_URL", "http://env:1111")
	writeConfigFile(t, "profiles:\n  default:\n    url: http://file:2222\n")

	flagURL = defaultURL
	resolveConfig()

	if flagURL != "http://env:1111" {
		t.Errorf("flagURL: got %q, want env value", flagURL)
	}
}

// TestResolveConfigMalformedYAML verifies a broken file leaves the default.
func TestResolveConfigMalformedYAML(t *testing.T) {
	resetFlags(t)
	t.Setenv("MINDMAP_URL", "")
	writeConfigFile(t, "profiles: [not: a map\n")

	flagURL = defaultURL
	resolveConfig()

	if flagURL != defaultURL {
		t.Errorf("flagURL: got %q, want default", flagURL)
	}
}

// TestWriteConfigMergesProfiles verifies init keeps existing profiles.
func TestWriteConfigMergesProfiles(t *testing.T) {
	home := writeConfigFile(t, "profiles:\n  default:\n    url: http://old:1\n")

	path, err := writeConfig("http://new:2", "work")
	if err != nil {
		t.Fatalf("writeConfig() error: %v", err)
	}
	if path != filepath.Join(home, ".mindmap", "config.yaml") {
		t.Errorf("unexpected path %q", path)
	}

	_, cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.ActiveProfile != "work" {
		t.Errorf("active profile = %q, want work", cfg.ActiveProfile)
	}
	if cfg.Profiles["default"].URL != "http://old:1" || cfg.Profiles["work"].URL != "http://new:2" {
		t.Errorf("profiles not merged: %+v", cfg.Profiles)
	}
}
