// Package mcp manages the configured MCP (Model Context Protocol) servers.
// The protocol client itself is a collaborator; this package owns the
// configuration table, connection status and the OAuth callback handshake.
package mcp

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/wombatlabs/wombat/pkg/config"
)

// Client connects to one MCP server and reports its tool surface.
type Client interface {
	Connect(ctx context.Context) error
	Close() error
	ToolCount() int
}

// ClientFactory builds a protocol client for a server config.
type ClientFactory func(cfg config.MCPServerConfig) (Client, error)

// ServerStatus is the dashboard view of one server.
type ServerStatus struct {
	Connected bool   `json:"connected"`
	Tools     int    `json:"tools"`
	Transport string `json:"transport"`
	Enabled   bool   `json:"enabled"`
}

// Manager tracks server configs and live connections.
type Manager struct {
	factory ClientFactory

	mu      sync.Mutex
	configs map[string]config.MCPServerConfig
	clients map[string]Client

	oauthMu sync.Mutex
	oauth   map[string]oauthWait
}

type oauthWait struct {
	ch      chan string
	expires time.Time
}

const oauthStateTTL = 5 * time.Minute

func NewManager(factory ClientFactory, configs []config.MCPServerConfig) *Manager {
	m := &Manager{
		factory: factory,
		configs: map[string]config.MCPServerConfig{},
		clients: map[string]Client{},
		oauth:   map[string]oauthWait{},
	}
	for _, cfg := range configs {
		m.configs[cfg.Name] = cfg
	}
	return m
}

// AddServer registers (or replaces) a server config.
func (m *Manager) AddServer(cfg config.MCPServerConfig) error {
	if cfg.Name == "" {
		return errors.New("missing server name")
	}
	switch cfg.Transport {
	case "stdio", "sse":
	default:
		return errors.Errorf("unknown transport %q", cfg.Transport)
	}
	m.mu.Lock()
	m.configs[cfg.Name] = cfg
	m.mu.Unlock()
	return nil
}

// RemoveServer disconnects and forgets a server. Reports whether it was
// known.
func (m *Manager) RemoveServer(name string) bool {
	m.mu.Lock()
	_, known := m.configs[name]
	delete(m.configs, name)
	client := m.clients[name]
	delete(m.clients, name)
	m.mu.Unlock()
	if client != nil {
		if err := client.Close(); err != nil {
			log.Warn().Err(err).Str("component", "mcp").Str("server", name).Msg("close failed")
		}
	}
	return known
}

// StartServer connects a configured server.
func (m *Manager) StartServer(ctx context.Context, name string) error {
	m.mu.Lock()
	cfg, ok := m.configs[name]
	_, connected := m.clients[name]
	m.mu.Unlock()
	if !ok {
		return errors.Errorf("server %q is not configured", name)
	}
	if connected {
		return nil
	}
	if m.factory == nil {
		return errors.New("no MCP client factory configured")
	}
	client, err := m.factory(cfg)
	if err != nil {
		return errors.Wrapf(err, "build client for %s", name)
	}
	if err := client.Connect(ctx); err != nil {
		return errors.Wrapf(err, "connect %s", name)
	}
	m.mu.Lock()
	m.clients[name] = client
	cfg.Enabled = true
	m.configs[name] = cfg
	m.mu.Unlock()
	log.Info().Str("component", "mcp").Str("server", name).Msg("mcp server connected")
	return nil
}

// StopServer disconnects a server, keeping its config.
func (m *Manager) StopServer(name string) {
	m.mu.Lock()
	client := m.clients[name]
	delete(m.clients, name)
	if cfg, ok := m.configs[name]; ok {
		cfg.Enabled = false
		m.configs[name] = cfg
	}
	m.mu.Unlock()
	if client != nil {
		if err := client.Close(); err != nil {
			log.Warn().Err(err).Str("component", "mcp").Str("server", name).Msg("close failed")
		}
	}
}

// Status reports every configured server.
func (m *Manager) Status() map[string]ServerStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]ServerStatus, len(m.configs))
	for name, cfg := range m.configs {
		st := ServerStatus{Transport: cfg.Transport, Enabled: cfg.Enabled}
		if client, ok := m.clients[name]; ok {
			st.Connected = true
			st.Tools = client.ToolCount()
		}
		out[name] = st
	}
	return out
}

// Configs returns the current server configs for persistence.
func (m *Manager) Configs() []config.MCPServerConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]config.MCPServerConfig, 0, len(m.configs))
	for _, cfg := range m.configs {
		out = append(out, cfg)
	}
	return out
}

// BeginOAuth registers a pending OAuth state and returns the channel the
// authorization code will arrive on.
func (m *Manager) BeginOAuth(state string) <-chan string {
	ch := make(chan string, 1)
	m.oauthMu.Lock()
	m.oauth[state] = oauthWait{ch: ch, expires: time.Now().Add(oauthStateTTL)}
	m.oauthMu.Unlock()
	return ch
}

// CompleteOAuth delivers a callback result. Returns false when the state
// is unknown or expired.
func (m *Manager) CompleteOAuth(state, code string) bool {
	m.oauthMu.Lock()
	wait, ok := m.oauth[state]
	if ok {
		delete(m.oauth, state)
	}
	m.oauthMu.Unlock()
	if !ok || time.Now().After(wait.expires) {
		return false
	}
	wait.ch <- code
	return true
}
