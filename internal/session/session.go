// Package session holds per-request sheet state. Every open sheet gets its
// own session: the active cell map, the analyzed metadata, and the pending
// action queue. Sessions are never shared between requests, which keeps one
// user's queued actions out of another's response.
package session

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/sheetpilot/sheetpilot/internal/action"
	"github.com/sheetpilot/sheetpilot/internal/errors"
	"github.com/sheetpilot/sheetpilot/internal/sheet"
)

// Session is the mutable state of one open sheet.
type Session struct {
	ID        string
	SheetName string
	Cells     sheet.CellMap
	Metadata  *sheet.SheetMetadata
	Queue     *action.Queue
	CreatedAt time.Time
}

// Manager owns all live sessions. Safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager returns an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: map[string]*Session{}}
}

// Open creates a session for a sheet, analyzes its cells, and returns it.
func (m *Manager) Open(sheetName string, cells sheet.CellMap, analyzer *sheet.Analyzer) (*Session, error) {
	if sheetName == "" {
		sheetName = "Sheet1"
	}
	if analyzer == nil {
		analyzer = sheet.DefaultAnalyzer()
	}

	id, err := newID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	s := &Session{
		ID:        id,
		SheetName: sheetName,
		Cells:     cells,
		Metadata:  analyzer.Analyze(cells, sheetName),
		Queue:     action.NewQueue(),
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	return s, nil
}

// Get returns a session by ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, errors.NewSessionNotFound(id)
	}
	return s, nil
}

// UpdateCells replaces a session's cells and re-analyzes its metadata.
func (m *Manager) UpdateCells(id string, cells sheet.CellMap, analyzer *sheet.Analyzer) (*Session, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	if analyzer == nil {
		analyzer = sheet.DefaultAnalyzer()
	}

	m.mu.Lock()
	s.Cells = cells
	s.Metadata = analyzer.Analyze(cells, s.SheetName)
	m.mu.Unlock()
	return s, nil
}

// Close removes a session.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return errors.NewSessionNotFound(id)
	}
	delete(m.sessions, id)
	return nil
}

// List returns all live sessions, unordered.
func (m *Manager) List() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// newID generates a ULID.
func newID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
