package webapi

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/wombatlabs/wombat/pkg/chat"
	"github.com/wombatlabs/wombat/pkg/config"
)

type webhookView struct {
	Name        string    `json:"name"`
	Secret      string    `json:"secret"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

func redactedView(wh config.WebhookConfig) webhookView {
	return webhookView{
		Name:        wh.Name,
		Secret:      config.RedactSecret(wh.Secret),
		Description: wh.Description,
		CreatedAt:   wh.CreatedAt,
	}
}

func (s *Server) handleWebhooks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cfg, ok := s.settings(w)
		if !ok {
			return
		}
		out := make([]webhookView, 0, len(cfg.Webhooks))
		for _, wh := range cfg.Webhooks {
			out = append(out, redactedView(wh))
		}
		writeJSON(w, http.StatusOK, map[string]any{"webhooks": out})
	case http.MethodPost:
		s.addWebhook(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) addWebhook(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing webhook name")
		return
	}
	cfg, ok := s.settings(w)
	if !ok {
		return
	}
	if cfg.FindWebhook(name) != nil {
		writeError(w, http.StatusConflict, "webhook "+name+" already exists")
		return
	}
	wh := config.WebhookConfig{
		Name:        name,
		Secret:      config.NewSecret(),
		Description: strings.TrimSpace(body.Description),
		CreatedAt:   time.Now().UTC(),
	}
	cfg.Webhooks = append(cfg.Webhooks, wh)
	if !s.saveSettings(w, cfg) {
		return
	}
	// The full secret is shown exactly once, at creation.
	writeJSON(w, http.StatusOK, webhookView{
		Name:        wh.Name,
		Secret:      wh.Secret,
		Description: wh.Description,
		CreatedAt:   wh.CreatedAt,
	})
}

// handleWebhookItem serves DELETE /api/v1/webhooks/{name} and
// POST /api/v1/webhooks/{name}/regenerate-secret.
func (s *Server) handleWebhookItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/webhooks/")
	name, action, hasAction := strings.Cut(rest, "/")
	if name == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch {
	case !hasAction && r.Method == http.MethodDelete:
		cfg, ok := s.settings(w)
		if !ok {
			return
		}
		idx := -1
		for i := range cfg.Webhooks {
			if cfg.Webhooks[i].Name == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			writeError(w, http.StatusNotFound, "webhook not found")
			return
		}
		cfg.Webhooks = append(cfg.Webhooks[:idx], cfg.Webhooks[idx+1:]...)
		if !s.saveSettings(w, cfg) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	case hasAction && action == "regenerate-secret" && r.Method == http.MethodPost:
		cfg, ok := s.settings(w)
		if !ok {
			return
		}
		wh := cfg.FindWebhook(name)
		if wh == nil {
			writeError(w, http.StatusNotFound, "webhook not found")
			return
		}
		wh.Secret = config.NewSecret()
		if !s.saveSettings(w, cfg) {
			return
		}
		writeJSON(w, http.StatusOK, webhookView{
			Name:        wh.Name,
			Secret:      wh.Secret,
			Description: wh.Description,
			CreatedAt:   wh.CreatedAt,
		})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleHookTrigger runs a generation on behalf of an inbound webhook.
// Authentication is the webhook's own secret, compared in constant time.
func (s *Server) handleHookTrigger(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/api/v1/hooks/")
	if name == "" || strings.Contains(name, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	cfg, ok := s.settings(w)
	if !ok {
		return
	}
	wh := cfg.FindWebhook(name)
	if wh == nil {
		writeError(w, http.StatusNotFound, "webhook not found")
		return
	}
	token := r.Header.Get("X-Webhook-Token")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(wh.Secret)) != 1 {
		writeError(w, http.StatusUnauthorized, "invalid webhook token")
		return
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		writeError(w, http.StatusUnprocessableEntity, "message must not be empty")
		return
	}

	bridge, cleanup, err := s.startGeneration(chatRequest{Content: body.Message})
	if err != nil {
		s.writeStartError(w, err)
		return
	}
	defer cleanup()

	timeout := time.Duration(cfg.WebhookSyncTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	resp, err := chat.Aggregate(ctx, bridge)
	if err != nil {
		if ctx.Err() != nil {
			writeError(w, http.StatusGatewayTimeout, "generation timed out")
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "response": resp.Content})
}
