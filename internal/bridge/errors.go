package bridge

import "errors"

// Sentinel errors for the bridge package. Callers distinguish caller
// misuse (unknown tool, dead provider) from transport failures, which are
// returned wrapped.
var (
	// ErrNotRegistered is returned when referencing a provider name that
	// does not exist in the registry.
	ErrNotRegistered = errors.New("bridge: provider not registered")

	// ErrNotConnected is returned when a tool's owning provider has no
	// live session.
	ErrNotConnected = errors.New("bridge: provider not connected")

	// ErrToolNotFound is returned when a composite tool key cannot be
	// resolved in the catalog.
	ErrToolNotFound = errors.New("bridge: tool not found")
)
