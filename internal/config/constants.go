package config

import "time"

// Timeout constants used across cmd and the server.
const (
	RPCSelectTimeout = 10 * time.Second // endpoint benchmark before a command runs
	ShutdownTimeout  = 5 * time.Second  // graceful HTTP shutdown
)
