package storage

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"animator/internal/domain"
)

// BlobScheme prefixes every handle issued by BlobStore.
const BlobScheme = "blob:"

// BlobStore keeps downloaded videos in memory and hands out blob: URLs for
// them. When capacity is reached the oldest entry is evicted.
type BlobStore struct {
	mu       sync.Mutex
	capacity int
	order    []string
	items    map[string]*domain.VideoArtifact
	now      func() time.Time
}

// NewBlobStore creates a store holding at most capacity artifacts. A
// non-positive capacity means unbounded.
func NewBlobStore(capacity int) *BlobStore {
	return &BlobStore{
		capacity: capacity,
		items:    make(map[string]*domain.VideoArtifact),
		now:      time.Now,
	}
}

// Publish registers data and returns the artifact describing it.
func (s *BlobStore) Publish(data []byte, mime string) (*domain.VideoArtifact, error) {
	if len(data) == 0 {
		return nil, errors.New("storage: blob is empty")
	}
	if strings.TrimSpace(mime) == "" {
		mime = "video/mp4"
	}
	id := uuid.NewString()
	artifact := &domain.VideoArtifact{
		ID:        id,
		URL:       BlobScheme + id,
		MIMEType:  mime,
		Data:      data,
		CreatedAt: s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for s.capacity > 0 && len(s.order) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.items, oldest)
	}
	s.items[id] = artifact
	s.order = append(s.order, id)
	return artifact, nil
}

// Get returns the artifact for id or a URL of the form blob:<id>.
func (s *BlobStore) Get(id string) (*domain.VideoArtifact, error) {
	id = IDFromURL(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	artifact, ok := s.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return artifact, nil
}

// Release drops the artifact. Releasing an unknown handle reports ErrNotFound.
func (s *BlobStore) Release(id string) error {
	id = IDFromURL(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.items, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len reports how many artifacts are currently held.
func (s *BlobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// IDFromURL strips the blob: scheme when present.
func IDFromURL(ref string) string {
	return strings.TrimPrefix(strings.TrimSpace(ref), BlobScheme)
}
