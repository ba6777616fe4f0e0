package webapi

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wombatlabs/wombat/pkg/channels"
	"github.com/wombatlabs/wombat/pkg/chat"
	"github.com/wombatlabs/wombat/pkg/config"
	"github.com/wombatlabs/wombat/pkg/engine"
	"github.com/wombatlabs/wombat/pkg/engine/loopback"
	"github.com/wombatlabs/wombat/pkg/mcp"
	"github.com/wombatlabs/wombat/pkg/memory"
	"github.com/wombatlabs/wombat/pkg/skills"
	"github.com/wombatlabs/wombat/pkg/streambus"
)

type fakeConnector struct{ stopped bool }

func (f *fakeConnector) Start(context.Context) error { return nil }
func (f *fakeConnector) Stop() error                 { f.stopped = true; return nil }

type fakeMCPClient struct{}

func (f *fakeMCPClient) Connect(context.Context) error { return nil }
func (f *fakeMCPClient) Close() error                  { return nil }
func (f *fakeMCPClient) ToolCount() int                { return 3 }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	catalog := engine.NewCatalog()
	catalog.Register(engine.Descriptor{
		Name:         "loopback",
		DisplayName:  "Loopback",
		Capabilities: []string{"chat", "streaming"},
		Probe:        func() bool { return true },
		Build:        func() (engine.Engine, error) { return loopback.New(), nil },
	})
	catalog.Register(engine.Descriptor{
		Name:        "anthropic",
		DisplayName: "Anthropic",
		Probe:       func() bool { return false },
	})

	bus, err := streambus.New(config.StreamBusSettings{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })

	mem, err := memory.NewManager(dir, config.MemorySettings{Backend: "file"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mem.Close() })

	srv := NewServer(context.Background(), Services{
		Config:  config.NewStore(filepath.Join(dir, "config.yaml")),
		Catalog: catalog,
		Streams: chat.NewStreamRegistry(),
		Bus:     bus,
		Memory:  mem,
		Skills:  skills.NewLoader(filepath.Join(dir, "skills")),
		Channels: channels.NewSupervisor(context.Background(),
			func(name string, cfg map[string]string) (channels.Connector, error) {
				return &fakeConnector{}, nil
			}),
		MCP: mcp.NewManager(
			func(cfg config.MCPServerConfig) (mcp.Client, error) {
				return &fakeMCPClient{}, nil
			}, nil),
	})
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestChatAggregatesFullResponse(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/chat",
		map[string]string{"content": "hello streaming world"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp chat.AggregatedResponse
	decodeBody(t, rec, &resp)
	require.Equal(t, "hello streaming world", resp.Content)
	require.NotEmpty(t, resp.SessionID)
	require.Equal(t, 0, srv.svc.Streams.Len())
}

func TestChatRejectsEmptyContent(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/chat",
		map[string]string{"content": "   "})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestChatUnknownBackendFailsBeforeStart(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/chat",
		map[string]string{"content": "hi", "backend": "nope"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, 0, srv.svc.Streams.Len())
}

func TestChatUnavailableBackendReturns503(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/chat",
		map[string]string{"content": "hi", "backend": "anthropic"})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestChatStreamFramesEvents(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/chat/stream",
		map[string]string{"content": "alpha beta"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	records := strings.Split(strings.TrimSuffix(rec.Body.String(), "\n\n"), "\n\n")
	require.GreaterOrEqual(t, len(records), 3)
	require.True(t, strings.HasPrefix(records[0], "event: stream_start\n"))
	require.True(t, strings.HasPrefix(records[len(records)-1], "event: stream_end\n"))

	var content strings.Builder
	for _, record := range records[1 : len(records)-1] {
		lines := strings.SplitN(record, "\n", 2)
		require.Equal(t, "event: chunk", lines[0])
		var payload map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(lines[1], "data: ")), &payload))
		content.WriteString(payload["content"].(string))
	}
	require.Equal(t, "alpha beta", content.String())
}

func TestChatStopEndsLiveStreamAndFreesRegistry(t *testing.T) {
	srv := newTestServer(t)
	srv.svc.Catalog.Register(engine.Descriptor{
		Name:        "slow",
		DisplayName: "Slow loopback",
		Probe:       func() bool { return true },
		Build: func() (engine.Engine, error) {
			return &loopback.Engine{ChunkDelay: 20 * time.Millisecond}, nil
		},
	})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	prompt := strings.TrimSpace(strings.Repeat("word ", 400))
	body, err := json.Marshal(map[string]string{"content": prompt, "backend": "slow"})
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+"/api/v1/chat/stream", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	reader := bufio.NewReader(resp.Body)
	readRecord := func() (string, map[string]any, bool) {
		var event string
		var data map[string]any
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return "", nil, false
			}
			line = strings.TrimRight(line, "\n")
			if line == "" {
				return event, data, event != ""
			}
			if v, ok := strings.CutPrefix(line, "event: "); ok {
				event = v
			}
			if v, ok := strings.CutPrefix(line, "data: "); ok {
				require.NoError(t, json.Unmarshal([]byte(v), &data))
			}
		}
	}

	event, payload, ok := readRecord()
	require.True(t, ok)
	require.Equal(t, "stream_start", event)
	sessionID, _ := payload["session_id"].(string)
	require.NotEmpty(t, sessionID)

	// one chunk proves the generation is mid-flight when we stop it
	event, _, ok = readRecord()
	require.True(t, ok)
	require.Equal(t, "chunk", event)

	stopResp, err := http.Post(ts.URL+"/api/v1/chat/stop?session_id="+sessionID, "application/json", nil)
	require.NoError(t, err)
	defer func() { _ = stopResp.Body.Close() }()
	require.Equal(t, http.StatusOK, stopResp.StatusCode)

	terminals := 0
	last := ""
	for {
		event, _, ok := readRecord()
		if !ok {
			break
		}
		last = event
		if event == "stream_end" || event == "error" {
			terminals++
		}
	}
	require.Equal(t, 1, terminals)
	require.Equal(t, "stream_end", last)

	require.Eventually(t, func() bool { return srv.svc.Streams.Len() == 0 },
		2*time.Second, 10*time.Millisecond)
}

func TestChatStopMissingSessionID(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/chat/stop", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatStopUnknownSession(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/chat/stop?session_id=gone", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatStopSignalsRunningSession(t *testing.T) {
	srv := newTestServer(t)
	sig := srv.svc.Streams.Register("sess-live")

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/chat/stop?session_id=sess-live", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	decodeBody(t, rec, &resp)
	require.Equal(t, "ok", resp["status"])
	require.True(t, sig.IsSet())
}

func TestBackendsListsRegistered(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/api/v1/backends", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Backends []engine.Info `json:"backends"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Backends, 2)
	require.Equal(t, "loopback", resp.Backends[0].Name)
	require.Equal(t, "Loopback", resp.Backends[0].DisplayName)
	require.True(t, resp.Backends[0].Available)
	require.False(t, resp.Backends[1].Available)
}

func TestChannelsStatusCoversAll(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/api/v1/channels", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Channels map[string]channels.Status `json:"channels"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Channels, len(channels.Descriptors))
	require.Equal(t, "business", resp.Channels["whatsapp"].Mode)
	require.False(t, resp.Channels["discord"].Configured)
}

func TestChannelSaveAndStart(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/channels/discord/save",
		map[string]any{"config": map[string]string{"bot_token": "tok"}, "autostart": true})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Channel channels.Status `json:"channel"`
	}
	decodeBody(t, rec, &resp)
	require.True(t, resp.Channel.Configured)
	require.True(t, resp.Channel.Autostart)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/channels/discord/start", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, srv.svc.Channels.IsRunning("discord"))

	// second start conflicts
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/channels/discord/start", nil)
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/channels/discord/stop", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, srv.svc.Channels.IsRunning("discord"))
}

func TestChannelStartUnconfigured(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/channels/slack/start", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChannelUnknown(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/channels/irc/save", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWhatsAppModeValidation(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/channels/whatsapp/save",
		map[string]any{"mode": "carrier-pigeon"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/channels/whatsapp/save",
		map[string]any{"mode": "web"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Channel channels.Status `json:"channel"`
	}
	decodeBody(t, rec, &resp)
	require.Equal(t, "web", resp.Channel.Mode)
}

func TestExtrasCheck(t *testing.T) {
	srv := newTestServer(t)
	prev := lookPath
	lookPath = func(file string) (string, error) {
		if file == "wombat-discord" {
			return "/usr/local/bin/wombat-discord", nil
		}
		return "", os.ErrNotExist
	}
	t.Cleanup(func() { lookPath = prev })

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/extras/check", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Extras map[string]bool `json:"extras"`
	}
	decodeBody(t, rec, &resp)
	require.True(t, resp.Extras["discord"])
	require.False(t, resp.Extras["slack"])
}

func TestMemorySettingsRoundtrip(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/memory/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ms config.MemorySettings
	decodeBody(t, rec, &ms)
	require.Equal(t, "file", ms.Backend)

	ms.Backend = "sqlite"
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/memory/settings", ms)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "sqlite", srv.svc.Memory.Backend())

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/memory/settings",
		map[string]string{"backend": "mem0"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMemoryLongTermCRUD(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/memory/long_term",
		map[string]any{"content": "likes short answers", "tags": []string{"style"}})
	require.Equal(t, http.StatusOK, rec.Code)
	var entry memory.Entry
	decodeBody(t, rec, &entry)
	require.NotEmpty(t, entry.ID)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/memory/long_term",
		map[string]string{"content": ""})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/memory/long_term", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Memories []memory.Entry `json:"memories"`
	}
	decodeBody(t, rec, &list)
	require.Len(t, list.Memories, 1)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/memory/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats memory.Stats
	decodeBody(t, rec, &stats)
	require.Equal(t, 1, stats.Count)

	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/memory/long_term/"+entry.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/memory/long_term/"+entry.ID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func writeSkill(t *testing.T, dir, name, description string) {
	t.Helper()
	skillDir := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(skillDir, 0o755))
	content := "---\nname: " + name + "\ndescription: " + description + "\n---\n\nBody.\n"
	require.NoError(t, os.WriteFile(filepath.Join(skillDir, "SKILL.md"), []byte(content), 0o644))
}

func TestSkillsListSearchRemove(t *testing.T) {
	srv := newTestServer(t)
	dir := filepath.Dir(srv.svc.Config.Path())
	skillsDir := filepath.Join(dir, "skills")
	writeSkill(t, skillsDir, "summarize", "Summarize long documents")
	writeSkill(t, skillsDir, "translate", "Translate between languages")

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/skills/reload", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/skills", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Skills []skills.Skill `json:"skills"`
	}
	decodeBody(t, rec, &list)
	require.Len(t, list.Skills, 2)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/skills/search?q=translate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &list)
	require.Len(t, list.Skills, 1)
	require.Equal(t, "translate", list.Skills[0].Name)

	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/skills/translate", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/skills/translate", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/skills/..%2Fescape", nil)
	require.NotEqual(t, http.StatusOK, rec.Code)
}

func TestSkillsInstallValidation(t *testing.T) {
	srv := newTestServer(t)

	for _, source := range []string{"", "../evil/repo", "owner/repo;rm -rf /", "single-part"} {
		rec := doJSON(t, srv, http.MethodPost, "/api/v1/skills/install",
			map[string]string{"source": source})
		require.Equal(t, http.StatusBadRequest, rec.Code, "source %q", source)
	}

	// valid source but no installer wired
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/skills/install",
		map[string]string{"source": "owner/repo"})
	require.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestWebhooksLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/webhooks", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/webhooks",
		map[string]string{"name": "deploys", "description": "CI notifications"})
	require.Equal(t, http.StatusOK, rec.Code)
	var created webhookView
	decodeBody(t, rec, &created)
	require.Len(t, created.Secret, 64)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/webhooks",
		map[string]string{"name": "deploys"})
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/webhooks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Webhooks []webhookView `json:"webhooks"`
	}
	decodeBody(t, rec, &list)
	require.Len(t, list.Webhooks, 1)
	require.Equal(t, "***"+created.Secret[60:], list.Webhooks[0].Secret)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/webhooks/deploys/regenerate-secret", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var regenerated webhookView
	decodeBody(t, rec, &regenerated)
	require.NotEqual(t, created.Secret, regenerated.Secret)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/webhooks/ghost/regenerate-secret", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/webhooks/ghost", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/webhooks/deploys", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHookTrigger(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/webhooks",
		map[string]string{"name": "alerts"})
	require.Equal(t, http.StatusOK, rec.Code)
	var created webhookView
	decodeBody(t, rec, &created)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/hooks/ghost", map[string]string{"message": "hi"})
	require.Equal(t, http.StatusNotFound, rec.Code)

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]string{"message": "ping pong"}))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/hooks/alerts", &buf)
	req.Header.Set("X-Webhook-Token", "wrong")
	wrong := httptest.NewRecorder()
	srv.Handler().ServeHTTP(wrong, req)
	require.Equal(t, http.StatusUnauthorized, wrong.Code)

	buf.Reset()
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]string{"message": "ping pong"}))
	req = httptest.NewRequest(http.MethodPost, "/api/v1/hooks/alerts", &buf)
	req.Header.Set("X-Webhook-Token", created.Secret)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	decodeBody(t, rec, &resp)
	require.Equal(t, "ping pong", resp["response"])
}

func TestMCPLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/mcp",
		map[string]string{"name": "files", "transport": "carrier-pigeon"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/mcp",
		map[string]any{"name": "files", "transport": "stdio", "command": "mcp-files"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/mcp/files/toggle",
		map[string]bool{"enabled": true})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/mcp", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status struct {
		Servers map[string]mcp.ServerStatus `json:"servers"`
	}
	decodeBody(t, rec, &status)
	require.True(t, status.Servers["files"].Connected)
	require.Equal(t, 3, status.Servers["files"].Tools)

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/mcp/files/toggle",
		map[string]bool{"enabled": false})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/mcp/files", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/mcp/files", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMCPOAuthCallback(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/mcp/oauth/callback", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/mcp/oauth/callback?state=unknown&code=abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	ch := srv.svc.MCP.BeginOAuth("state-1")
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/mcp/oauth/callback?state=state-1&code=the-code", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Authenticated")
	require.Equal(t, "the-code", <-ch)
}
