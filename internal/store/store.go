// Meridian - World Event Intelligence and Geographic Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

// Package store persists world events in an embedded BadgerDB instance.
// Events carry a TTL so the store self-prunes to the configured retention
// window without a background sweeper.
package store

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/meridian/internal/models"
)

// ErrNotFound is returned when an event ID has no stored entry.
var ErrNotFound = errors.New("event not found")

const eventKeyPrefix = "event:"

// Config controls where and how long events are kept.
type Config struct {
	Path      string
	InMemory  bool
	Retention time.Duration
}

// Store is a BadgerDB-backed event store.
type Store struct {
	db        *badger.DB
	retention time.Duration
}

// Open creates or opens the store at cfg.Path. With cfg.InMemory set the
// store lives entirely in memory and Path is ignored.
func Open(cfg Config) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	// Badger's own logger is too chatty for an embedded store.
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open event store: %w", err)
	}
	return &Store{db: db, retention: cfg.Retention}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores a single event, replacing any previous entry with the same ID.
func (s *Store) Put(event models.Event) error {
	return s.PutBatch([]models.Event{event})
}

// PutBatch stores events in one transaction. All-or-nothing: a marshal or
// write failure leaves the store unchanged.
func (s *Store) PutBatch(events []models.Event) error {
	return s.db.Update(func(txn *badger.Txn) error {
		for _, event := range events {
			data, err := json.Marshal(event)
			if err != nil {
				return fmt.Errorf("marshal event %s: %w", event.ID, err)
			}
			entry := badger.NewEntry([]byte(eventKeyPrefix+event.ID), data)
			if s.retention > 0 {
				entry = entry.WithTTL(s.retention)
			}
			if err := txn.SetEntry(entry); err != nil {
				return fmt.Errorf("set event %s: %w", event.ID, err)
			}
		}
		return nil
	})
}

// Get retrieves one event by ID.
func (s *Store) Get(id string) (models.Event, error) {
	var event models.Event
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(eventKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &event)
		})
	})
	return event, err
}

// Snapshot returns every live event, sorted by ID for reproducible
// downstream processing. The returned slice is owned by the caller.
func (s *Store) Snapshot() ([]models.Event, error) {
	var events []models.Event
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(eventKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var event models.Event
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &event)
			})
			if err != nil {
				return fmt.Errorf("decode event %s: %w", it.Item().Key(), err)
			}
			events = append(events, event)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events, nil
}

// Count returns the number of live events without decoding values.
func (s *Store) Count() (int, error) {
	var n int
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(eventKeyPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Delete removes an event by ID. Deleting a missing ID is not an error.
func (s *Store) Delete(id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(eventKeyPrefix + id))
	})
}
