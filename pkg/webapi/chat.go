package webapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/wombatlabs/wombat/pkg/chat"
	"github.com/wombatlabs/wombat/pkg/engine"
)

type chatRequest struct {
	Content string `json:"content"`
	Backend string `json:"backend,omitempty"`
	Model   string `json:"model,omitempty"`
	System  string `json:"system,omitempty"`
}

// startGeneration resolves the engine, builds and starts the bridge,
// registers the session and launches the producer goroutine. On success
// the caller owns the returned cleanup and must invoke it on every exit
// path; cleanup is idempotent. On failure nothing was registered and no
// bridge exists.
func (s *Server) startGeneration(req chatRequest) (*chat.SessionBridge, func(), error) {
	cfg, err := s.svc.Config.Load()
	if err != nil {
		return nil, nil, &chat.StartError{Err: err}
	}
	backend := req.Backend
	if backend == "" {
		backend = cfg.DefaultBackend
	}
	eng, err := s.svc.Catalog.Resolve(backend)
	if err != nil {
		return nil, nil, &chat.StartError{Err: err}
	}
	model := req.Model
	if model == "" {
		model = cfg.DefaultModel
	}

	sessionID := uuid.NewString()
	bridge := chat.NewSessionBridge(sessionID)
	bridge.SetMirror(func(e chat.Envelope) {
		if err := s.svc.Bus.Publish(sessionID, e); err != nil {
			s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("bus publish failed")
		}
	})
	if err := bridge.Start(); err != nil {
		return nil, nil, &chat.StartError{Err: err}
	}

	sig := s.svc.Streams.Register(sessionID)
	genCtx, cancelGen := context.WithCancel(s.baseCtx)
	go func() {
		select {
		case <-sig.Done():
			cancelGen()
		case <-genCtx.Done():
		}
	}()

	cleanup := func() {
		cancelGen()
		bridge.Stop()
		s.svc.Streams.Unregister(sessionID)
	}

	go func() {
		defer cleanup()
		genErr := eng.Generate(genCtx, engine.Request{
			SessionID: sessionID,
			Prompt:    req.Content,
			Model:     model,
			System:    req.System,
		}, bridge)
		if genErr != nil && genCtx.Err() == nil {
			s.logger.Warn().Err(genErr).Str("session_id", sessionID).Msg("generation failed")
		}
	}()

	return bridge, cleanup, nil
}

func (s *Server) writeStartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrUnknownBackend):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrBackendUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusUnprocessableEntity, "content must not be empty")
		return
	}

	bridge, cleanup, err := s.startGeneration(req)
	if err != nil {
		s.writeStartError(w, err)
		return
	}
	defer cleanup()

	resp, err := chat.Aggregate(r.Context(), bridge)
	if err != nil {
		var genErr *chat.GenerationError
		if errors.As(err, &genErr) {
			writeError(w, http.StatusBadGateway, genErr.Message)
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusUnprocessableEntity, "content must not be empty")
		return
	}

	bridge, cleanup, err := s.startGeneration(req)
	if err != nil {
		s.writeStartError(w, err)
		return
	}
	defer cleanup()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	enc := chat.NewSSEEncoder(w)
	if err := enc.EncodeStream(r.Context(), bridge); err != nil {
		s.logger.Debug().Err(err).Str("session_id", bridge.SessionID()).Msg("stream ended early")
	}
}

func (s *Server) handleChatStop(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		var body struct {
			SessionID string `json:"session_id"`
		}
		_ = decodeJSON(r, &body)
		sessionID = strings.TrimSpace(body.SessionID)
	}
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session_id")
		return
	}
	if !s.svc.Streams.Cancel(sessionID) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
