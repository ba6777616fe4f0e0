package webapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The dashboard is served from arbitrary local origins during
	// development; the API carries no cookies, so origin checks add
	// nothing here.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleWS attaches a watcher to a session's event mirror. The socket only
// carries server-to-client traffic; the read loop exists to notice the
// peer going away.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session_id")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithCancel(s.baseCtx)
	defer cancel()

	ch, release, err := s.svc.Bus.Subscribe(ctx, sessionID)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("bus subscribe failed")
		return
	}
	defer release()

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg.Payload); err != nil {
				s.logger.Debug().Err(err).Str("session_id", sessionID).Msg("websocket write failed")
				msg.Nack()
				return
			}
			msg.Ack()
		}
	}
}
