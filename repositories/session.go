//go:generate go run go.uber.org/mock/mockgen -source=session.go -destination=../mocks/mock_session_repository.go -package=mocks
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"chat-session/errors"

	"github.com/dgraph-io/badger/v4"
)

// ISessionRepository is the durable conversation-key -> snapshot
// mapping the engine persists through. Load returns (nil, nil) for a
// conversation that was never saved; absence is the terminal state of
// a session.
type ISessionRepository interface {
	Load(ctx context.Context, key string) (*SessionSnapshot, error)
	Save(ctx context.Context, key string, snapshot SessionSnapshot) error
}

// SessionRepository persists session snapshots as JSON in BadgerDB.
// The key is "session:{selfID}:{peerID}", so one user's conversations
// share a scannable prefix.
type SessionRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewSessionRepository(db *badger.DB, log *slog.Logger) SessionRepository {
	return SessionRepository{db: db, log: log}
}

func sessionKey(key string) []byte {
	return []byte(fmt.Sprintf("session:%s", key))
}

func (r SessionRepository) Save(ctx context.Context, key string, snapshot SessionSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bytes, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("%w: encode snapshot %s: %v", errors.ErrPersistence, key, err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sessionKey(key), bytes)
	})
	if err != nil {
		return fmt.Errorf("%w: write %s: %v", errors.ErrPersistence, key, err)
	}
	return nil
}

func (r SessionRepository) Load(ctx context.Context, key string) (*SessionSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var raw []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", errors.ErrPersistence, key, err)
	}

	var snapshot SessionSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", errors.ErrPersistence, key, err)
	}
	return &snapshot, nil
}
