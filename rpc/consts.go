package rpc

import "time"

const (
	Name = "crank"

	JSONRPCEndpoint   = "/rpc"
	WebSocketEndpoint = "/ws"
	MetricsEndpoint   = "/metrics"
	HealthEndpoint    = "/health"

	readHeaderTimeout = 5 * time.Second
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = pongWait * 9 / 10
	maxMessageSize    = 4 * 1024
	outboundBuffer    = 256
)
