package core

// store.go holds uploaded files in memory between requests.
//
// Only the raw uploaded bytes are kept. Every request re-parses them, so a
// stored file is never mutated and concurrent requests on the same file
// need no coordination beyond the map lock. Entries expire after a period
// of inactivity; reading an entry extends its lifetime.

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/fileconverter/internal/codec"
	"github.com/JonMunkholm/fileconverter/internal/metrics"
)

// ColumnInfo describes one parsed column.
type ColumnInfo struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Missing int    `json:"missing"`
}

// FileInfo describes a stored upload.
type FileInfo struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Format     codec.Format `json:"format"`
	Size       int64        `json:"size"`
	Rows       int          `json:"rows"`
	Columns    []ColumnInfo `json:"columns"`
	UploadedAt time.Time    `json:"uploadedAt"`
	ExpiresAt  time.Time    `json:"expiresAt"`
}

// ColumnNames returns the column names in file order.
func (f FileInfo) ColumnNames() []string {
	names := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		names[i] = c.Name
	}
	return names
}

type storedFile struct {
	info    FileInfo
	session string
	data    []byte
}

type fileStore struct {
	mu            sync.RWMutex
	files         map[string]*storedFile
	ttl           time.Duration
	maxPerSession int
	now           func() time.Time
}

func newFileStore(ttl time.Duration, maxPerSession int) *fileStore {
	return &fileStore{
		files:         make(map[string]*storedFile),
		ttl:           ttl,
		maxPerSession: maxPerSession,
		now:           time.Now,
	}
}

// put stores data under a new ID and returns the completed info.
func (s *fileStore) put(session string, info FileInfo, data []byte) (FileInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.maxPerSession > 0 {
		count := 0
		for _, f := range s.files {
			if f.session == session && now.Before(f.info.ExpiresAt) {
				count++
			}
		}
		if count >= s.maxPerSession {
			return FileInfo{}, ErrSessionFull
		}
	}

	info.ID = uuid.NewString()
	info.Size = int64(len(data))
	info.UploadedAt = now
	info.ExpiresAt = now.Add(s.ttl)

	s.files[info.ID] = &storedFile{info: info, session: session, data: data}
	metrics.StoredFiles.Set(float64(len(s.files)))
	return info, nil
}

// get extends the expiry of a live entry owned by session and returns a
// copy of its info with the stored bytes. The bytes are never written after
// put, so callers may read them without the lock.
func (s *fileStore) get(session, id string) (FileInfo, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[id]
	now := s.now()
	if !ok || f.session != session || !now.Before(f.info.ExpiresAt) {
		return FileInfo{}, nil, ErrFileNotFound
	}
	f.info.ExpiresAt = now.Add(s.ttl)
	return f.info, f.data, nil
}

// list returns the session's live files, oldest first.
func (s *fileStore) list(session string) []FileInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	out := make([]FileInfo, 0)
	for _, f := range s.files {
		if f.session == session && now.Before(f.info.ExpiresAt) {
			out = append(out, f.info)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].UploadedAt.Before(out[j].UploadedAt)
	})
	return out
}

func (s *fileStore) remove(session, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[id]
	if !ok || f.session != session {
		return ErrFileNotFound
	}
	delete(s.files, id)
	metrics.StoredFiles.Set(float64(len(s.files)))
	return nil
}

// sweep drops expired entries and returns how many were removed.
func (s *fileStore) sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, f := range s.files {
		if !now.Before(f.info.ExpiresAt) {
			delete(s.files, id)
			removed++
		}
	}
	metrics.StoredFiles.Set(float64(len(s.files)))
	return removed
}

func (s *fileStore) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
