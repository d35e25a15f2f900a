// Package history records metadata about every artifact the converter
// produces. Table contents are never stored.
package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultRecentLimit is used when Recent is called with a non-positive limit.
const DefaultRecentLimit = 50

// ErrInvalidEntry is returned when an entry lacks a source name or format.
var ErrInvalidEntry = errors.New("invalid history entry")

// Entry describes one produced artifact.
type Entry struct {
	ID               uuid.UUID `json:"id"`
	SourceName       string    `json:"sourceName"`
	OutputName       string    `json:"outputName"`
	Format           string    `json:"format"`
	RowsIn           int       `json:"rowsIn"`
	RowsOut          int       `json:"rowsOut"`
	Columns          int       `json:"columns"`
	RemoveDuplicates bool      `json:"removeDuplicates"`
	FillMissing      bool      `json:"fillMissing"`
	ClientIP         string    `json:"clientIp,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Recorder stores and lists history entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

// prepare fills in the ID and timestamp and checks required fields.
func prepare(e *Entry) error {
	if e.SourceName == "" || e.Format == "" {
		return ErrInvalidEntry
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return nil
}

// Memory is a bounded in-process Recorder used when no database is
// configured. The oldest entries are dropped once max is reached.
type Memory struct {
	mu      sync.RWMutex
	entries []Entry
	max     int
}

// NewMemory returns a Memory that keeps at most max entries.
func NewMemory(max int) *Memory {
	if max <= 0 {
		max = 1000
	}
	return &Memory{max: max}
}

func (m *Memory) Record(_ context.Context, e Entry) error {
	if err := prepare(&e); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	if over := len(m.entries) - m.max; over > 0 {
		m.entries = append([]Entry(nil), m.entries[over:]...)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (m *Memory) Recent(_ context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	n := min(limit, len(m.entries))
	out := make([]Entry, 0, n)
	for i := len(m.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}
