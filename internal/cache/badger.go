package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chess-vn/maia/internal/domains/entities"
	"github.com/dgraph-io/badger/v4"
)

const keyPrefix = "eval/"

// BadgerStore keeps evaluations in a local badger database.
type BadgerStore struct {
	db  *badger.DB
	ttl time.Duration
}

// NewBadgerStore opens the database in dir, or in memory when dir is
// empty. Entries expire after ttl; zero keeps them forever.
func NewBadgerStore(dir string, ttl time.Duration) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", dir, err)
	}
	return &BadgerStore{db: db, ttl: ttl}, nil
}

func (s *BadgerStore) GetEvaluation(_ context.Context, key Key) (entities.PositionEvaluation, error) {
	var eval entities.PositionEvaluation
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key.String()))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &eval)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return entities.PositionEvaluation{}, ErrMiss
	}
	if err != nil {
		return entities.PositionEvaluation{}, fmt.Errorf("failed to read evaluation: %w", err)
	}
	return eval, nil
}

func (s *BadgerStore) PutEvaluation(_ context.Context, eval entities.PositionEvaluation) error {
	data, err := json.Marshal(eval)
	if err != nil {
		return fmt.Errorf("failed to marshal evaluation: %w", err)
	}
	entry := badger.NewEntry([]byte(keyPrefix+KeyOf(eval).String()), data)
	if s.ttl > 0 {
		entry = entry.WithTTL(s.ttl)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	})
}

func (s *BadgerStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
