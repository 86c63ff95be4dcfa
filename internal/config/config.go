package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Queue backends selectable per agent.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Give-up policies applied when an item exhausts max_attempts.
const (
	GiveUpDrop       = "drop"
	GiveUpErrorQueue = "error-queue"
)

// DefaultQueueName receives every package no routing rule claims. It is
// always the first queue of an agent.
const DefaultQueueName = "default"

// ErrorQueueName holds given-up items for agents using the error-queue
// policy. The name is reserved; delivery workers never drain it.
const ErrorQueueName = "error"

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// API contains the HTTP control API bind address.
type API struct {
	Bind string `toml:"bind"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Delivery contains timing for the per-queue delivery workers.
// All durations are seconds.
type Delivery struct {
	PollInterval   int `toml:"poll_interval"`
	RetryDelay     int `toml:"retry_delay"`
	RequestTimeout int `toml:"request_timeout"`
	ItemListCap    int `toml:"item_list_cap"`
}

// Notifications contains webhook notification settings.
type Notifications struct {
	WebhookURL     string `toml:"webhook_url"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Agent describes one distribution agent and its queue topology.
type Agent struct {
	Name        string              `toml:"name"`
	Endpoint    string              `toml:"endpoint"`
	Queues      []string            `toml:"queues"`
	Backend     string              `toml:"backend"`
	Capacity    int                 `toml:"capacity"`
	MaxAttempts int                 `toml:"max_attempts"`
	OnGiveUp    string              `toml:"on_give_up"`
	Paused      bool                `toml:"paused"`
	Routing     map[string][]string `toml:"routing"`
}

// AllQueues returns the agent's queue names in registration order,
// including the reserved error queue when the policy requires one.
func (a Agent) AllQueues() []string {
	names := make([]string, 0, len(a.Queues)+1)
	names = append(names, a.Queues...)
	if a.OnGiveUp == GiveUpErrorQueue {
		names = append(names, ErrorQueueName)
	}
	return names
}

// Config encapsulates all configuration values for Courier.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - API: HTTP control API bind address
//   - Logging: log format and level
//   - Delivery: worker poll/retry timing and projection item cap
//   - Notifications: webhook settings
//   - Agents: distribution agents, their queues, and routing rules
type Config struct {
	Paths         Paths         `toml:"paths"`
	API           API           `toml:"api"`
	Logging       Logging       `toml:"logging"`
	Delivery      Delivery      `toml:"delivery"`
	Notifications Notifications `toml:"notifications"`
	Agents        []Agent       `toml:"agents"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/courier/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("courier.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the durable queue database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "courier.db")
}

// SocketPath returns the location of the daemon control socket.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.DataDir, "courier.sock")
}

// LockPath returns the location of the daemon instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "courierd.lock")
}

// AgentByName returns the agent definition with the given name.
func (c *Config) AgentByName(name string) (Agent, bool) {
	for _, agent := range c.Agents {
		if agent.Name == name {
			return agent, true
		}
	}
	return Agent{}, false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
