package encode

import (
	"sync"

	"github.com/zsiec/lens/internal/config"
	lenserrors "github.com/zsiec/lens/internal/errors"
	"github.com/zsiec/lens/internal/gpu"
	"github.com/zsiec/lens/internal/logger"
)

// Manager tracks live encode sessions by id.
type Manager struct {
	dev gpu.Device
	cfg config.EncodeConfig
	log logger.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates an empty session manager.
func NewManager(dev gpu.Device, cfg config.EncodeConfig, log logger.Logger) *Manager {
	return &Manager{
		dev:      dev,
		cfg:      cfg,
		log:      log,
		sessions: make(map[string]*Session),
	}
}

// Create opens a new encode session for the given frame extent.
func (m *Manager) Create(extent gpu.Extent) (*Session, error) {
	s, err := NewSession(m.dev, m.cfg, extent, m.log)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s, nil
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, lenserrors.NewNotFoundError("encode session " + id)
	}
	return s, nil
}

// Finalize tears down the session with the given id and forgets it.
func (m *Manager) Finalize(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return lenserrors.NewNotFoundError("encode session " + id)
	}
	s.Finalize()
	return nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Shutdown finalizes every live session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Finalize()
	}
}
