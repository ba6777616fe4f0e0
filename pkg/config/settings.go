// Package config holds the persisted daemon settings. Settings live in a
// single YAML file; handlers load, mutate and save through a Store so
// concurrent requests never produce torn writes.
package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// WebhookConfig is one registered inbound webhook. The secret is stored in
// full and redacted at the API boundary.
type WebhookConfig struct {
	Name        string    `yaml:"name"`
	Secret      string    `yaml:"secret"`
	Description string    `yaml:"description,omitempty"`
	CreatedAt   time.Time `yaml:"created_at,omitempty"`
}

// MemorySettings selects and tunes the long-term memory store.
type MemorySettings struct {
	Backend    string `yaml:"backend" json:"backend"` // file | sqlite
	AutoLearn  bool   `yaml:"auto_learn" json:"auto_learn"`
	MaxItems   int    `yaml:"max_items,omitempty" json:"max_items,omitempty"`
	SQLitePath string `yaml:"sqlite_path,omitempty" json:"sqlite_path,omitempty"`
}

// MCPServerConfig describes one configured MCP server.
type MCPServerConfig struct {
	Name      string   `yaml:"name" json:"name"`
	Transport string   `yaml:"transport" json:"transport"` // stdio | sse
	Command   string   `yaml:"command,omitempty" json:"command,omitempty"`
	Args      []string `yaml:"args,omitempty" json:"args,omitempty"`
	URL       string   `yaml:"url,omitempty" json:"url,omitempty"`
	Enabled   bool     `yaml:"enabled" json:"enabled"`
}

// StreamBusSettings configures the event mirror transport.
type StreamBusSettings struct {
	RedisEnabled  bool   `yaml:"redis_enabled"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisGroup    string `yaml:"redis_group"`
	RedisConsumer string `yaml:"redis_consumer"`
}

// Settings is the full persisted configuration.
type Settings struct {
	Addr     string `yaml:"addr"`
	LogLevel string `yaml:"log_level,omitempty"`

	DefaultBackend string `yaml:"default_backend"`
	DefaultModel   string `yaml:"default_model,omitempty"`

	AnthropicAPIKey string `yaml:"anthropic_api_key,omitempty"`
	OpenAIAPIKey    string `yaml:"openai_api_key,omitempty"`

	Channels         map[string]map[string]string `yaml:"channels,omitempty"`
	ChannelAutostart map[string]bool              `yaml:"channel_autostart,omitempty"`
	WhatsAppMode     string                       `yaml:"whatsapp_mode,omitempty"`

	Webhooks           []WebhookConfig `yaml:"webhooks,omitempty"`
	WebhookSyncTimeout int             `yaml:"webhook_sync_timeout,omitempty"`

	Memory MemorySettings `yaml:"memory,omitempty"`

	MCPServers []MCPServerConfig `yaml:"mcp_servers,omitempty"`

	SkillsDir string `yaml:"skills_dir,omitempty"`

	StreamBus StreamBusSettings `yaml:"stream_bus,omitempty"`
}

// Defaults returns the settings used when no file exists yet.
func Defaults() *Settings {
	return &Settings{
		Addr:               ":8889",
		DefaultBackend:     "loopback",
		WhatsAppMode:       "business",
		WebhookSyncTimeout: 30,
		Memory:             MemorySettings{Backend: "file", MaxItems: 1000},
		Channels:           map[string]map[string]string{},
		ChannelAutostart:   map[string]bool{},
		StreamBus: StreamBusSettings{
			RedisAddr:     "localhost:6379",
			RedisGroup:    "wombat-ui",
			RedisConsumer: "ui-1",
		},
	}
}

// AnthropicKey returns the configured key, falling back to the
// conventional environment variable.
func (s *Settings) AnthropicKey() string {
	if s.AnthropicAPIKey != "" {
		return s.AnthropicAPIKey
	}
	return os.Getenv("ANTHROPIC_API_KEY")
}

func (s *Settings) OpenAIKey() string {
	if s.OpenAIAPIKey != "" {
		return s.OpenAIAPIKey
	}
	return os.Getenv("OPENAI_API_KEY")
}

// FindWebhook returns the webhook with the given name, or nil.
func (s *Settings) FindWebhook(name string) *WebhookConfig {
	for i := range s.Webhooks {
		if s.Webhooks[i].Name == name {
			return &s.Webhooks[i]
		}
	}
	return nil
}

// DefaultPath resolves the settings file location: $WOMBAT_CONFIG when
// set, ~/.wombat/config.yaml otherwise.
func DefaultPath() string {
	if p := os.Getenv("WOMBAT_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".wombat", "config.yaml")
}

// Store serializes access to the settings file.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath()
	}
	return &Store{path: path}
}

func (st *Store) Path() string { return st.path }

// Load reads the settings file. A missing file yields defaults.
func (st *Store) Load() (*Settings, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	raw, err := os.ReadFile(st.path)
	if os.IsNotExist(err) {
		return Defaults(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read settings")
	}
	s := Defaults()
	if err := yaml.Unmarshal(raw, s); err != nil {
		return nil, errors.Wrap(err, "parse settings")
	}
	if s.Channels == nil {
		s.Channels = map[string]map[string]string{}
	}
	if s.ChannelAutostart == nil {
		s.ChannelAutostart = map[string]bool{}
	}
	return s, nil
}

// Save writes the settings atomically with owner-only permissions (the
// file carries API keys and webhook secrets).
func (st *Store) Save(s *Settings) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	raw, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encode settings")
	}
	dir := filepath.Dir(st.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "create settings dir")
	}
	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return errors.Wrap(err, "create temp settings")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "write settings")
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "chmod settings")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "close settings")
	}
	if err := os.Rename(tmpName, st.path); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(err, "replace settings")
	}
	return nil
}
