package audio

import (
	"fmt"
	"sync"

	"chat-session/domain"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

type blobEntry struct {
	data        []byte
	contentType string
}

// BlobStore holds binary payloads referenced by messages. In this
// local engine it backs both the capture device and the player; a real
// deployment would swap in an upload service behind the same refs.
type BlobStore struct {
	mu    sync.RWMutex
	blobs map[domain.BlobRef]blobEntry
}

func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[domain.BlobRef]blobEntry)}
}

// Put stores the bytes under a fresh ref, sniffing the content type
// from the payload itself.
func (s *BlobStore) Put(data []byte) domain.BlobRef {
	ref := domain.BlobRef(uuid.NewString())
	copied := make([]byte, len(data))
	copy(copied, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[ref] = blobEntry{
		data:        copied,
		contentType: mimetype.Detect(copied).String(),
	}
	return ref
}

// Get returns the payload and its detected content type.
func (s *BlobStore) Get(ref domain.BlobRef) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.blobs[ref]
	if !ok {
		return nil, "", fmt.Errorf("unknown blob %s", ref)
	}
	return entry.data, entry.contentType, nil
}

func (s *BlobStore) Delete(ref domain.BlobRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, ref)
}
