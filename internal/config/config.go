// Package config handles the configuration directory and the API settings.
package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// AppName is the application directory name.
	AppName = "taskboard"

	// EnvFile is the optional settings file inside the config directory.
	EnvFile = "config.env"

	// LogFile receives diagnostics from the interactive page when debugging.
	LogFile = "taskboard.log"

	// DefaultAPIBase is used when no API address is configured.
	DefaultAPIBase = "http://localhost:5001"

	// DefaultTimeout bounds a single API request.
	DefaultTimeout = 10 * time.Second

	// Environment keys, also accepted in config.env.
	EnvAPIBase = "TASKBOARD_API_BASE"
	EnvTimeout = "TASKBOARD_TIMEOUT"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// APIBase is the base address of the task API.
	APIBase string

	// Timeout bounds each API request. Zero disables the bound.
	Timeout time.Duration

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// In supplies answers to interactive prompts.
	In io.Reader
}

// New creates a Config for the given directory (or the default one) and
// loads the API settings from config.env and the environment.
// The environment wins over the file.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{
		Dir:     dir,
		APIBase: DefaultAPIBase,
		Timeout: DefaultTimeout,
		In:      os.Stdin,
	}

	values, err := readEnvFile(cfg.EnvPath())
	if err != nil {
		return nil, err
	}
	for _, key := range []string{EnvAPIBase, EnvTimeout} {
		if v := os.Getenv(key); v != "" {
			values[key] = v
		}
	}

	if v := strings.TrimSpace(values[EnvAPIBase]); v != "" {
		cfg.APIBase = v
	}
	if v := strings.TrimSpace(values[EnvTimeout]); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("invalid %s: %s", EnvTimeout, v)
		}
		cfg.Timeout = d
	}
	return cfg, nil
}

func readEnvFile(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return values, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// EnvPath returns the path to config.env.
func (c *Config) EnvPath() string {
	return filepath.Join(c.Dir, EnvFile)
}

// LogPath returns the path to the debug log of the interactive page.
func (c *Config) LogPath() string {
	return filepath.Join(c.Dir, LogFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// BaseURL validates APIBase and returns it parsed.
func (c *Config) BaseURL() (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(c.APIBase))
	if err != nil {
		return nil, fmt.Errorf("invalid API address: %s", c.APIBase)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid API address: %s", c.APIBase)
	}
	return u, nil
}
