// Package webapi exposes the daemon's HTTP surface: the chat endpoints
// backed by the streaming core, the websocket event mirror, and the
// dashboard CRUD for backends, channels, memory, skills, webhooks and MCP
// servers.
package webapi

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wombatlabs/wombat/pkg/channels"
	"github.com/wombatlabs/wombat/pkg/chat"
	"github.com/wombatlabs/wombat/pkg/config"
	"github.com/wombatlabs/wombat/pkg/engine"
	"github.com/wombatlabs/wombat/pkg/mcp"
	"github.com/wombatlabs/wombat/pkg/memory"
	"github.com/wombatlabs/wombat/pkg/skills"
	"github.com/wombatlabs/wombat/pkg/streambus"
)

// Services are the collaborators the server routes requests to. All fields
// are required except Installer, which gates the skills install endpoint.
type Services struct {
	Config   *config.Store
	Catalog  *engine.Catalog
	Streams  *chat.StreamRegistry
	Bus      streambus.Bus
	Memory   *memory.Manager
	Skills   *skills.Loader
	Channels *channels.Supervisor
	MCP      *mcp.Manager

	// Installer fetches a skill from a validated owner/repo source.
	Installer skills.Installer
}

// Server owns the mux and the generation orchestration. Generations run on
// baseCtx so a finished HTTP request does not tear down work that a
// websocket watcher is still observing.
type Server struct {
	baseCtx context.Context
	svc     Services
	mux     *http.ServeMux
	logger  zerolog.Logger
}

func NewServer(baseCtx context.Context, svc Services) *Server {
	s := &Server{
		baseCtx: baseCtx,
		svc:     svc,
		mux:     http.NewServeMux(),
		logger:  log.With().Str("component", "webapi").Logger(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/v1/chat", s.handleChat)
	s.mux.HandleFunc("/api/v1/chat/stream", s.handleChatStream)
	s.mux.HandleFunc("/api/v1/chat/stop", s.handleChatStop)

	s.mux.HandleFunc("/api/v1/backends", s.handleBackends)

	s.mux.HandleFunc("/api/v1/channels", s.handleChannels)
	s.mux.HandleFunc("/api/v1/channels/", s.handleChannelItem)
	s.mux.HandleFunc("/api/v1/extras/check", s.handleExtrasCheck)

	s.mux.HandleFunc("/api/v1/memory/settings", s.handleMemorySettings)
	s.mux.HandleFunc("/api/v1/memory/long_term", s.handleMemoryLongTerm)
	s.mux.HandleFunc("/api/v1/memory/long_term/", s.handleMemoryDelete)
	s.mux.HandleFunc("/api/v1/memory/stats", s.handleMemoryStats)

	s.mux.HandleFunc("/api/v1/skills", s.handleSkillsList)
	s.mux.HandleFunc("/api/v1/skills/search", s.handleSkillsSearch)
	s.mux.HandleFunc("/api/v1/skills/install", s.handleSkillsInstall)
	s.mux.HandleFunc("/api/v1/skills/reload", s.handleSkillsReload)
	s.mux.HandleFunc("/api/v1/skills/", s.handleSkillItem)

	s.mux.HandleFunc("/api/v1/webhooks", s.handleWebhooks)
	s.mux.HandleFunc("/api/v1/webhooks/", s.handleWebhookItem)
	s.mux.HandleFunc("/api/v1/hooks/", s.handleHookTrigger)

	s.mux.HandleFunc("/api/v1/mcp", s.handleMCP)
	s.mux.HandleFunc("/api/v1/mcp/oauth/callback", s.handleMCPOAuthCallback)
	s.mux.HandleFunc("/api/v1/mcp/", s.handleMCPItem)

	s.mux.HandleFunc("/ws", s.handleWS)
}

// Handler returns the full handler chain.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request handled")
	})
}

// settings loads the current configuration, answering 500 on failure.
func (s *Server) settings(w http.ResponseWriter) (*config.Settings, bool) {
	cfg, err := s.svc.Config.Load()
	if err != nil {
		s.logger.Error().Err(err).Msg("loading settings failed")
		writeError(w, http.StatusInternalServerError, "could not load settings")
		return nil, false
	}
	return cfg, true
}

// saveSettings persists mutated configuration, answering 500 on failure.
func (s *Server) saveSettings(w http.ResponseWriter, cfg *config.Settings) bool {
	if err := s.svc.Config.Save(cfg); err != nil {
		s.logger.Error().Err(err).Msg("saving settings failed")
		writeError(w, http.StatusInternalServerError, "could not save settings")
		return false
	}
	return true
}
