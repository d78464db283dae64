package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.HookPolicy != HookPolicyFail {
		t.Errorf("HookPolicy = %q, want fail", cfg.HookPolicy)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.EvalTimeout != 5*time.Minute {
		t.Errorf("EvalTimeout = %v", cfg.EvalTimeout)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v", cfg.ShutdownTimeout)
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("missing config file must not be an error: %v", err)
	}
	if cfg.HookPolicy != HookPolicyFail {
		t.Errorf("HookPolicy = %q, want default", cfg.HookPolicy)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
[plugins]
paths = ["/opt/quarry/plugins"]

[hooks]
on_load_error = "skip"

[log]
level = "debug"

[eval]
timeout_seconds = 30
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	found := false
	for _, p := range cfg.PluginPaths {
		if p == "/opt/quarry/plugins" {
			found = true
		}
	}
	if !found {
		t.Errorf("PluginPaths missing configured path: %v", cfg.PluginPaths)
	}
	if cfg.HookPolicy != HookPolicySkip {
		t.Errorf("HookPolicy = %q, want skip", cfg.HookPolicy)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.EvalTimeout != 30*time.Second {
		t.Errorf("EvalTimeout = %v, want 30s", cfg.EvalTimeout)
	}
}

func TestLoadFromMalformedFile(t *testing.T) {
	path := writeConfig(t, `this is not toml [[[`)

	if _, err := LoadFrom(path); err == nil {
		t.Error("malformed config file must be an error")
	}
}

func TestLoadFromBadHookPolicy(t *testing.T) {
	path := writeConfig(t, `
[hooks]
on_load_error = "explode"
`)

	if _, err := LoadFrom(path); err == nil {
		t.Error("unknown hook policy must be an error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("QUARRY_LOG_LEVEL", "error")
	t.Setenv("QUARRY_HOOK_POLICY", "skip")
	t.Setenv("QUARRY_PLUGIN_PATH", "/a"+string(os.PathListSeparator)+"/b")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want error", cfg.LogLevel)
	}
	if cfg.HookPolicy != HookPolicySkip {
		t.Errorf("HookPolicy = %q, want skip", cfg.HookPolicy)
	}

	var found int
	for _, p := range cfg.PluginPaths {
		if p == "/a" || p == "/b" {
			found++
		}
	}
	if found != 2 {
		t.Errorf("PluginPaths missing env-supplied paths: %v", cfg.PluginPaths)
	}
}

func TestEnvBadHookPolicy(t *testing.T) {
	t.Setenv("QUARRY_HOOK_POLICY", "maybe")

	if _, err := LoadFrom(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("unknown env hook policy must be an error")
	}
}

func TestParseHookPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    HookPolicy
		wantErr bool
	}{
		{"", HookPolicyFail, false},
		{"fail", HookPolicyFail, false},
		{"skip", HookPolicySkip, false},
		{"SKIP", HookPolicySkip, false},
		{" fail ", HookPolicyFail, false},
		{"bogus", HookPolicyFail, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHookPolicy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("policy = %q, want %q", got, tt.want)
			}
		})
	}
}
