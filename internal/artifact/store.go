// Attentra - Attention Session Analytics and Coaching Reports
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/attentra

// Package artifact is the BadgerDB-backed blob store for completed report
// documents. Artifacts are opaque byte slices addressed by the key recorded
// in the report metadata.
package artifact

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/attentra/internal/config"
	"github.com/tomtom215/attentra/internal/logging"
)

// ErrNotFound indicates no artifact exists under the given key.
var ErrNotFound = errors.New("artifact not found")

// Store persists report artifacts in BadgerDB.
type Store struct {
	db *badger.DB
}

// New opens the artifact store. With cfg.InMemory the store holds nothing
// across restarts; tests use that mode.
func New(cfg config.ArtifactConfig) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithLogger(badgerLogger{})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact store: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Msg("Artifact store ready")

	return &Store{db: db}, nil
}

// Put writes an artifact under key, replacing any previous value.
func (s *Store) Put(key string, data []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return fmt.Errorf("failed to store artifact %s: %w", key, err)
	}
	return nil
}

// Get returns the artifact stored under key, or ErrNotFound.
func (s *Store) Get(key string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read artifact %s: %w", key, err)
	}
	return data, nil
}

// Delete removes the artifact under key. Deleting a missing key is a no-op;
// callers that need existence semantics check with Get first.
func (s *Store) Delete(key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete artifact %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying Badger database.
func (s *Store) Close() error {
	return s.db.Close()
}

// badgerLogger routes Badger's internal logging through zerolog.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logging.Error().Msgf("badger: "+format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logging.Warn().Msgf("badger: "+format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logging.Debug().Msgf("badger: "+format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logging.Debug().Msgf("badger: "+format, args...)
}
