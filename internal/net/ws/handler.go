package ws

import (
	"encoding/json"
	nethttp "net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"short-order/server"
	"short-order/server/internal/sim"
	"short-order/server/internal/telemetry"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 32
)

type HandlerConfig struct {
	Logger telemetry.Logger
}

// Handler upgrades websocket connections and bridges them to the hub: state
// broadcasts flow out through a subscriber, commands flow in through the
// read loop.
type Handler struct {
	hub      *server.Hub
	logger   telemetry.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *server.Hub, cfg HandlerConfig) *Handler {
	return &Handler{
		hub:    hub,
		logger: cfg.Logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *nethttp.Request) bool {
				return true
			},
		},
	}
}

// clientMessage is the inbound envelope. Type selects which fields matter.
type clientMessage struct {
	Ver     int    `json:"ver,omitempty"`
	Type    string `json:"type"`
	Food    string `json:"food,omitempty"`
	Enabled *bool  `json:"enabled,omitempty"`
	Stage   string `json:"stage,omitempty"`
	SentAt  int64  `json:"sentAt,omitempty"`
}

func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	playerID := r.URL.Query().Get("id")
	if playerID == "" {
		nethttp.Error(w, "missing id", nethttp.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.printf("upgrade failed for %s: %v", playerID, err)
		return
	}

	sub := newConnSubscriber(conn)
	if !h.hub.Subscribe(playerID, sub) {
		message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown player")
		conn.WriteMessage(websocket.CloseMessage, message)
		conn.Close()
		return
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			h.hub.Disconnect(playerID, "read_error")
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.printf("discarding malformed message from %s: %v", playerID, err)
			continue
		}

		if msg.Type == "heartbeat" {
			if ack, ok := h.hub.UpdateHeartbeat(playerID, msg.SentAt); ok {
				if data, err := json.Marshal(ack); err == nil {
					sub.Send(data)
				}
			}
			continue
		}

		cmd, ok := commandFromMessage(playerID, msg)
		if !ok {
			h.printf("discarding unknown message type %q from %s", msg.Type, playerID)
			continue
		}
		h.hub.EnqueueCommand(cmd)
	}
}

// commandFromMessage maps an inbound envelope to a staged command.
func commandFromMessage(playerID string, msg clientMessage) (sim.Command, bool) {
	cmd := sim.Command{
		ActorID:  playerID,
		IssuedAt: time.Now(),
	}
	switch msg.Type {
	case "place_item":
		cmd.Type = sim.CommandPlaceItem
		cmd.Place = &sim.PlaceItemCommand{Food: msg.Food}
	case "clear_plate":
		cmd.Type = sim.CommandClearPlate
	case "serve":
		cmd.Type = sim.CommandServe
	case "toggle_tray":
		enabled := true
		if msg.Enabled != nil {
			enabled = *msg.Enabled
		}
		cmd.Type = sim.CommandToggleTray
		cmd.Tray = &sim.ToggleTrayCommand{Food: msg.Food, Enabled: enabled}
	case "animation_done":
		cmd.Type = sim.CommandAnimationDone
		cmd.Animation = &sim.AnimationDoneCommand{Stage: msg.Stage}
	default:
		return sim.Command{}, false
	}
	return cmd, true
}

func (h *Handler) printf(format string, args ...any) {
	if h.logger == nil {
		return
	}
	h.logger.Printf(format, args...)
}

// connSubscriber pumps broadcast payloads to one websocket connection. Send
// never blocks the simulation; a full buffer marks the connection dead and
// the hub disconnects it.
type connSubscriber struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
	done chan struct{}
}

func newConnSubscriber(conn *websocket.Conn) *connSubscriber {
	s := &connSubscriber{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
	go s.writeLoop()
	return s
}

func (s *connSubscriber) Send(payload []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- payload:
		return true
	default:
		return false
	}
}

func (s *connSubscriber) Close() {
	s.once.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

func (s *connSubscriber) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case payload := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.Close()
				return
			}
		}
	}
}
