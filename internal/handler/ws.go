package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/setlisthq/setlist/internal/realtime"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxFrameSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Anonymous attendees connect from arbitrary origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// subscribeFrame is the only inbound frame clients send: it switches the
// connection's event channel.
type subscribeFrame struct {
	Action  string `json:"action"`
	EventID string `json:"event_id"`
}

// ServeWS handles GET /ws?event={id}
//
// Every connection joins the global channel; the optional event query
// parameter additionally joins that event's channel. Clients may switch
// channels later with a {"action":"subscribe","event_id":...} frame.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	connID := uuid.NewString()
	out := h.hub.Register(connID)
	h.hub.Subscribe(connID, realtime.GlobalChannel)
	if eventID := r.URL.Query().Get("event"); eventID != "" {
		h.hub.Subscribe(connID, eventID)
	}
	h.log.Debug().Str("conn_id", connID).Msg("websocket connected")

	go h.writePump(conn, out)
	h.readPump(conn, connID)
}

// writePump drains the hub queue onto the socket and keeps the
// connection alive with pings. It exits when the queue is closed by
// Unsubscribe or when a write fails.
func (h *Handler) writePump(conn *websocket.Conn, out <-chan realtime.Message) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
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

// readPump consumes inbound frames until the connection drops, handling
// channel-switch requests along the way.
func (h *Handler) readPump(conn *websocket.Conn, connID string) {
	defer func() {
		h.hub.Unsubscribe(connID)
		conn.Close()
		h.log.Debug().Str("conn_id", connID).Msg("websocket disconnected")
	}()

	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var frame subscribeFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		if frame.Action == "subscribe" && frame.EventID != "" {
			h.hub.Subscribe(connID, frame.EventID)
		}
	}
}
