// Package config loads quarry's tool-level configuration.
//
// Configuration is layered: built-in defaults, then the TOML config file
// (~/.config/quarry/config.toml), then QUARRY_* environment variables. A
// missing config file is not an error. This is the tool's own
// configuration; per-project configuration lives in the project
// descriptor (see the project package).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// HookPolicy decides what happens when a hook plugin declared by the
// project fails to load: fail the invocation, or skip the hook and
// continue.
type HookPolicy string

// Hook load-error policies.
const (
	// HookPolicyFail aborts the invocation. This is the default: a
	// requested behavior modification that cannot load must not be
	// silently ignored.
	HookPolicyFail HookPolicy = "fail"

	// HookPolicySkip reports the failure and runs the task without the
	// hook.
	HookPolicySkip HookPolicy = "skip"
)

// ParseHookPolicy parses a policy string, defaulting to fail.
func ParseHookPolicy(s string) (HookPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(HookPolicyFail):
		return HookPolicyFail, nil
	case string(HookPolicySkip):
		return HookPolicySkip, nil
	default:
		return HookPolicyFail, fmt.Errorf("unknown hook policy %q", s)
	}
}

// Config is the resolved tool configuration.
type Config struct {
	// PluginPaths are the directories searched for plugins, in order.
	PluginPaths []string

	// HookPolicy is the hook load-error policy.
	HookPolicy HookPolicy

	// LogLevel is the minimum log level name (debug/info/warn/error).
	LogLevel string

	// EvalTimeout bounds a single eval-in-project evaluation.
	EvalTimeout time.Duration

	// ShutdownTimeout bounds the dispatcher's best-effort cleanup.
	ShutdownTimeout time.Duration
}

// fileSchema is the TOML shape of the config file.
type fileSchema struct {
	Plugins struct {
		Paths []string `toml:"paths"`
	} `toml:"plugins"`
	Hooks struct {
		OnLoadError string `toml:"on_load_error"`
	} `toml:"hooks"`
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
	Eval struct {
		TimeoutSeconds int `toml:"timeout_seconds"`
	} `toml:"eval"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		PluginPaths:     DefaultPluginPaths(),
		HookPolicy:      HookPolicyFail,
		LogLevel:        "info",
		EvalTimeout:     5 * time.Minute,
		ShutdownTimeout: 5 * time.Second,
	}
}

// DefaultPluginPaths returns the default plugin search paths.
func DefaultPluginPaths() []string {
	paths := make([]string, 0, 3)

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "quarry", "plugins"))
		paths = append(paths, filepath.Join(home, ".local", "share", "quarry", "plugins"))
	}

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".quarry", "plugins"))
	}

	return paths
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "quarry", "config.toml")
}

// Load resolves the configuration from defaults, the default config file
// location, and the environment.
func Load() (*Config, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom resolves the configuration using the given config file path.
// A missing file contributes nothing; a malformed one is an error.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyFile layers the TOML file over cfg.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // absent file is not an error
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	var schema fileSchema
	if err := toml.Unmarshal(data, &schema); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if len(schema.Plugins.Paths) > 0 {
		cfg.PluginPaths = append(cfg.PluginPaths, schema.Plugins.Paths...)
	}
	if schema.Hooks.OnLoadError != "" {
		policy, err := ParseHookPolicy(schema.Hooks.OnLoadError)
		if err != nil {
			return fmt.Errorf("config file %s: %w", path, err)
		}
		cfg.HookPolicy = policy
	}
	if schema.Log.Level != "" {
		cfg.LogLevel = schema.Log.Level
	}
	if schema.Eval.TimeoutSeconds > 0 {
		cfg.EvalTimeout = time.Duration(schema.Eval.TimeoutSeconds) * time.Second
	}

	return nil
}

// applyEnv layers QUARRY_* environment variables over cfg.
func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("QUARRY_LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}

	if v, ok := os.LookupEnv("QUARRY_PLUGIN_PATH"); ok && v != "" {
		for _, p := range filepath.SplitList(v) {
			if p != "" {
				cfg.PluginPaths = append(cfg.PluginPaths, p)
			}
		}
	}

	if v, ok := os.LookupEnv("QUARRY_HOOK_POLICY"); ok && v != "" {
		policy, err := ParseHookPolicy(v)
		if err != nil {
			return err
		}
		cfg.HookPolicy = policy
	}

	return nil
}
