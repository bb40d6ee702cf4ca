package server

import "time"

const (
	// heartbeatInterval is how often clients are expected to ping.
	heartbeatInterval = 5 * time.Second
	// disconnectAfter is the heartbeat silence after which a player is
	// dropped.
	disconnectAfter = 15 * time.Second
	// protocolVersion gates client compatibility at join time.
	protocolVersion = 1
)
