package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/okian/witarcade/internal/play"
	"github.com/okian/witarcade/pkg/logger"
)

// Websocket tuning.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// PlayHandler bridges a websocket to a play session.
type PlayHandler struct {
	sessions Sessions
	log      logger.Logger
}

// NewPlayHandler creates a play handler.
func NewPlayHandler(sessions Sessions, log logger.Logger) *PlayHandler {
	return &PlayHandler{sessions: sessions, log: log}
}

// HandlePlay handles GET /api/play. Each connection gets its own session,
// closed when either pump stops.
func (h *PlayHandler) HandlePlay(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	const op = "api.play"

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "upgrade failed", logger.Error(WrapKind(op, ErrUpgrade, err)))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s := h.sessions.Open()
	go h.writePump(conn, s, cancel)
	h.readPump(ctx, conn, s)
}

func (h *PlayHandler) readPump(ctx context.Context, conn *websocket.Conn, s *play.Session) {
	defer func() {
		h.sessions.Close(s.ID())
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg play.ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		ev, ok := msg.Event()
		if !ok {
			continue
		}
		if err := s.Send(ctx, ev); err != nil {
			return
		}
	}
}

// writePump stops the session when it exits so a client that never reads
// cannot leave readPump blocked on a full event queue.
func (h *PlayHandler) writePump(conn *websocket.Conn, s *play.Session, cancel context.CancelFunc) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		h.sessions.Close(s.ID())
		_ = conn.Close()
	}()

	msgs := s.Messages()
	for {
		select {
		case m, ok := <-msgs:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(m); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
