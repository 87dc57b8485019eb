package bridge

import (
	"context"
	"sync"
)

// Manager owns a process-wide shared Client, created on first access.
// It is constructed explicitly and handed to whoever needs the shared
// instance rather than living as ambient package state.
type Manager struct {
	mu        sync.Mutex
	client    *Client
	newClient func() *Client
}

// NewManager creates a Manager. newClient builds the shared instance on
// first access; nil means New() with defaults.
func NewManager(newClient func() *Client) *Manager {
	if newClient == nil {
		newClient = func() *Client { return New() }
	}
	return &Manager{newClient: newClient}
}

// Client returns the shared Client, creating it on first access.
func (m *Manager) Client() *Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		m.client = m.newClient()
	}
	return m.client
}

// Reset drains the shared instance (every provider is disconnected and
// the catalog cleared) before the reference is dropped. The drain runs
// to completion before Reset returns, so no provider session or in-flight
// operation is silently orphaned.
func (m *Manager) Reset(ctx context.Context) {
	m.mu.Lock()
	client := m.client
	m.client = nil
	m.mu.Unlock()

	if client != nil {
		client.DisconnectAll(ctx)
	}
}
