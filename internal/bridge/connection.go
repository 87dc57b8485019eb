package bridge

import "sync"

// ConnState tracks the lifecycle of one provider connection.
type ConnState int

const (
	StateUnconnected ConnState = iota
	StateConnecting
	StateConnected
	StateDisconnected
	StateFailed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateFailed:
		return "failed"
	default:
		return "unconnected"
	}
}

// connection owns one provider's live session. Its mutex serializes
// connect and disconnect against in-flight calls for that provider, so
// calls to different providers proceed independently while a provider is
// never torn down under an active call.
type connection struct {
	mu      sync.Mutex
	session Session
	state   ConnState
}

func (c *connection) connected() bool {
	return c.state == StateConnected && c.session != nil
}
