package audio

import (
	"bytes"
	"context"
	"sync"

	"chat-session/contract"
	"chat-session/domain"
	"chat-session/errors"
)

// MemoryDevice is an in-process capture device. Like a real microphone
// it is a single application-wide resource: Open fails while another
// recording holds it, whichever conversation asked.
type MemoryDevice struct {
	mu    sync.Mutex
	busy  bool
	store *BlobStore
}

func NewMemoryDevice(store *BlobStore) *MemoryDevice {
	return &MemoryDevice{store: store}
}

func (d *MemoryDevice) Open(ctx context.Context) (contract.Recording, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.busy {
		return nil, errors.ErrDeviceUnavailable
	}
	d.busy = true
	return &memoryRecording{device: d}, nil
}

func (d *MemoryDevice) release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.busy = false
}

type memoryRecording struct {
	device *MemoryDevice
	buf    bytes.Buffer
	done   bool
}

func (r *memoryRecording) Write(chunk []byte) {
	if r.done {
		return
	}
	r.buf.Write(chunk)
}

func (r *memoryRecording) Finalize() (domain.BlobRef, error) {
	if r.done {
		return "", errors.ErrNotRecording
	}
	r.done = true
	r.device.release()
	return r.device.store.Put(r.buf.Bytes()), nil
}

func (r *memoryRecording) Discard() {
	if r.done {
		return
	}
	r.done = true
	r.device.release()
}
