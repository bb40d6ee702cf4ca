package server

import (
	"time"

	"short-order/server/internal/game"
)

// joinResponse is returned from the join endpoint.
type joinResponse struct {
	Ver      int           `json:"ver"`
	ID       string        `json:"id"`
	TickRate int           `json:"tickRate"`
	Snapshot game.Snapshot `json:"snapshot"`
}

// stateMessage is the per-tick broadcast payload.
type stateMessage struct {
	Type     string        `json:"type"`
	Tick     uint64        `json:"t"`
	Snapshot game.Snapshot `json:"snapshot"`
	Events   []game.Event  `json:"events,omitempty"`
}

// heartbeatAck answers a client heartbeat with server timing.
type heartbeatAck struct {
	Type       string `json:"type"`
	Tick       uint64 `json:"t"`
	ClientSent int64  `json:"clientSent,omitempty"`
	ServerTime int64  `json:"serverTime"`
}

// commandReject tells a client its command was dropped and why.
type commandReject struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Reason  string `json:"reason"`
}

// diagnosticsPlayer is one connected player in the diagnostics view.
type diagnosticsPlayer struct {
	ID            string    `json:"id"`
	ConnectedAt   time.Time `json:"connectedAt"`
	LastHeartbeat time.Time `json:"lastHeartbeat"`
	Subscribed    bool      `json:"subscribed"`
}

// diagnosticsSnapshot is the full operational view served over HTTP.
type diagnosticsSnapshot struct {
	Tick            uint64              `json:"tick"`
	Level           int                 `json:"level"`
	CycleState      string              `json:"cycleState"`
	GuardHeld       bool                `json:"guardHeld"`
	PendingCommands int                 `json:"pendingCommands"`
	Players         []diagnosticsPlayer `json:"players"`
	Metrics         map[string]uint64   `json:"metrics,omitempty"`
}
