//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chat-session/domain"
	"chat-session/domain/event"
)

// IdentityProvider resolves the current local user. Consumed, never
// implemented here; authentication lives outside the engine.
type IdentityProvider interface {
	CurrentUser() domain.Participant
}

// CaptureDevice is the application-wide exclusive recording resource.
// Open fails while another recording holds the device.
type CaptureDevice interface {
	Open(ctx context.Context) (Recording, error)
}

// Recording is one device acquisition. Finalize seals the captured
// bytes into a blob and releases the device; Discard releases without
// keeping anything.
type Recording interface {
	Write(chunk []byte)
	Finalize() (domain.BlobRef, error)
	Discard()
}

// AudioPlayer drives the actual audio output for the playback slot.
type AudioPlayer interface {
	Start(ctx context.Context, ref domain.BlobRef) error
	Pause()
	Resume()
	Stop()
}

// Worker doesn't protect itself; supervision wraps it.
type Worker interface {
	Run(ctx context.Context) error
}

type WorkerName string

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// EventSink consumes domain events fanned out by the engine.
type EventSink interface {
	Consume(e event.DomainEvent)
}

// GetWorkerName uses reflection to retrieve the type name of the worker,
// avoiding manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
