package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Env holds the environment the daemon and CLI consult before the config file.
type Env struct {
	DBPath     string `env:"AGENTOAST_DB"`
	ConfigPath string `env:"AGENTOAST_CONFIG"`
	LogLevel   string `env:"AGENTOAST_LOG_LEVEL"`
	Editor     string `env:"EDITOR"`

	Home          string `env:"HOME"`
	XDGDataHome   string `env:"XDG_DATA_HOME"`
	XDGConfigHome string `env:"XDG_CONFIG_HOME"`
}

// LoadEnv reads Env from the process environment.
func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parsing environment: %w", err)
	}
	return e, nil
}

// LoadEnvFrom reads Env from vars instead of the process environment.
func LoadEnvFrom(vars map[string]string) (Env, error) {
	var e Env
	if err := env.ParseWithOptions(&e, env.Options{Environment: vars}); err != nil {
		return Env{}, fmt.Errorf("parsing environment: %w", err)
	}
	return e, nil
}

// DataDir is $XDG_DATA_HOME/agentoast, falling back to ~/.local/share/agentoast
// on every platform.
func (e Env) DataDir() string {
	if e.XDGDataHome != "" {
		return filepath.Join(e.XDGDataHome, "agentoast")
	}
	return filepath.Join(e.home(), ".local", "share", "agentoast")
}

// ConfigDir is $XDG_CONFIG_HOME/agentoast, falling back to ~/.config/agentoast.
func (e Env) ConfigDir() string {
	if e.XDGConfigHome != "" {
		return filepath.Join(e.XDGConfigHome, "agentoast")
	}
	return filepath.Join(e.home(), ".config", "agentoast")
}

func (e Env) home() string {
	if e.Home != "" {
		return e.Home
	}
	if h, err := os.UserHomeDir(); err == nil {
		return h
	}
	return "."
}

// ConfigFile resolves the config path: AGENTOAST_CONFIG, else config.yaml
// under ConfigDir.
func (e Env) ConfigFile() string {
	if p := strings.TrimSpace(e.ConfigPath); p != "" {
		return e.expand(p)
	}
	return filepath.Join(e.ConfigDir(), "config.yaml")
}

// DBFile resolves the store path: AGENTOAST_DB, then fromConfig, then the default.
func (e Env) DBFile(fromConfig string) string {
	if p := strings.TrimSpace(e.DBPath); p != "" {
		return e.expand(p)
	}
	if p := strings.TrimSpace(fromConfig); p != "" {
		return e.expand(p)
	}
	return filepath.Join(e.DataDir(), "notifications.db")
}

func (e Env) expand(p string) string {
	if p == "~" {
		return e.home()
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(e.home(), p[2:])
	}
	return p
}
