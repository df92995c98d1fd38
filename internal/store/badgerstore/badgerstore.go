// Package badgerstore implements a RouteStore on an embedded Badger database.
//
// Layout: the node index lives under "contains", node records under
// "is_node/<id>", adjacency lists under "connects/<id>" and the build record
// under "build". Values are JSON.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/orienteer/internal/domain"
	"github.com/persistorai/orienteer/internal/models"
)

const (
	containsKey   = "contains"
	buildKey      = "build"
	nodePrefix    = "is_node/"
	connectPrefix = "connects/"
)

var (
	_ domain.RouteStore     = (*Store)(nil)
	_ domain.OriginInserter = (*Store)(nil)
	_ domain.HealthChecker  = (*Store)(nil)
)

// Options configures Open.
type Options struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir      string
	InMemory bool
	Log      *logrus.Logger
}

// Store is a Badger-backed RouteStore. It is safe for concurrent use.
type Store struct {
	db       *badger.DB
	inMemory bool
	log      *logrus.Logger
}

// Open opens (creating if needed) the database described by opts.
func Open(opts Options) (*Store, error) {
	bopts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}

	// logrus satisfies badger.Logger; nil silences badger entirely.
	if opts.Log != nil {
		bopts = bopts.WithLogger(opts.Log)
	} else {
		bopts = bopts.WithLogger(nil)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("opening badger at %q: %w", opts.Dir, err)
	}

	return &Store{db: db, inMemory: opts.InMemory, log: opts.Log}, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func nodeKey(id string) []byte    { return []byte(nodePrefix + id) }
func connectKey(id string) []byte { return []byte(connectPrefix + id) }

// getJSON decodes the value at key into dst. found is false when the key is absent.
func getJSON(txn *badger.Txn, key []byte, dst any) (found bool, err error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, dst)
	})
	if err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}

	return true, nil
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}

	return txn.Set(key, data)
}

// StoreNode upserts a node record.
func (s *Store) StoreNode(_ context.Context, node models.Node) error {
	if err := node.Validate(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, nodeKey(node.ID), node)
	})
	if err != nil {
		return fmt.Errorf("storing node %q: %w", node.ID, err)
	}

	return nil
}

// InsertNode writes a node and its edges in one transaction unless the id exists.
func (s *Store) InsertNode(_ context.Context, node models.Node, edges []models.Edge) error {
	if err := node.Validate(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(nodeKey(node.ID))
		if err == nil {
			return models.ErrDuplicateKey
		}

		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := setJSON(txn, nodeKey(node.ID), node); err != nil {
			return err
		}

		return setJSON(txn, connectKey(node.ID), nonNilEdges(edges))
	})
	if errors.Is(err, models.ErrDuplicateKey) {
		return models.ErrDuplicateKey
	}

	if err != nil {
		return fmt.Errorf("inserting node %q: %w", node.ID, err)
	}

	return nil
}

// GetNode returns the node record for id.
func (s *Store) GetNode(_ context.Context, id string) (*models.Node, error) {
	var n models.Node

	var found bool

	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = getJSON(txn, nodeKey(id), &n)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("getting node %q: %w", id, err)
	}

	if !found {
		return nil, models.ErrNodeNotFound
	}

	return &n, nil
}

// StoreEdges replaces the adjacency list of id.
func (s *Store) StoreEdges(_ context.Context, id string, edges []models.Edge) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, connectKey(id), nonNilEdges(edges))
	})
	if err != nil {
		return fmt.Errorf("storing edges of %q: %w", id, err)
	}

	return nil
}

// GetEdges returns the adjacency list of id, empty when none is stored.
func (s *Store) GetEdges(_ context.Context, id string) ([]models.Edge, error) {
	edges := []models.Edge{}

	err := s.db.View(func(txn *badger.Txn) error {
		_, err := getJSON(txn, connectKey(id), &edges)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("getting edges of %q: %w", id, err)
	}

	return edges, nil
}

// StoreNodeIDs replaces the node index.
func (s *Store) StoreNodeIDs(_ context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, []byte(containsKey), ids)
	})
	if err != nil {
		return fmt.Errorf("storing node index: %w", err)
	}

	return nil
}

// ListNodeIDs returns the node index in stored order.
func (s *Store) ListNodeIDs(_ context.Context) ([]string, error) {
	ids := []string{}

	err := s.db.View(func(txn *badger.Txn) error {
		_, err := getJSON(txn, []byte(containsKey), &ids)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing node ids: %w", err)
	}

	return ids, nil
}

// StoreBuildInfo replaces the build record kept next to the node index.
func (s *Store) StoreBuildInfo(_ context.Context, info models.BuildInfo) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, []byte(buildKey), info)
	})
	if err != nil {
		return fmt.Errorf("storing build info: %w", err)
	}

	return nil
}

// GetBuildInfo returns the build record.
func (s *Store) GetBuildInfo(_ context.Context) (*models.BuildInfo, error) {
	var info models.BuildInfo

	var found bool

	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		found, err = getJSON(txn, []byte(buildKey), &info)

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("getting build info: %w", err)
	}

	if !found {
		return nil, models.ErrBuildInfoNotFound
	}

	return &info, nil
}

// DeleteNode removes the node record and its adjacency list.
func (s *Store) DeleteNode(_ context.Context, id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(nodeKey(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return models.ErrNodeNotFound
			}

			return err
		}

		if err := txn.Delete(nodeKey(id)); err != nil {
			return err
		}

		return txn.Delete(connectKey(id))
	})
	if errors.Is(err, models.ErrNodeNotFound) {
		return models.ErrNodeNotFound
	}

	if err != nil {
		return fmt.Errorf("deleting node %q: %w", id, err)
	}

	return nil
}

// Commit syncs written data to disk. In-memory databases have nothing to sync.
func (s *Store) Commit(_ context.Context) error {
	if s.inMemory {
		return nil
	}

	if err := s.db.Sync(); err != nil {
		return fmt.Errorf("syncing badger: %w", err)
	}

	return nil
}

// HealthCheck reports whether the database is open.
func (s *Store) HealthCheck(_ context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger database is closed")
	}

	return nil
}

// Truncate drops every key. Used before a full rebuild.
func (s *Store) Truncate(_ context.Context) error {
	if err := s.db.DropAll(); err != nil {
		return fmt.Errorf("dropping badger keys: %w", err)
	}

	return nil
}

func nonNilEdges(edges []models.Edge) []models.Edge {
	if edges == nil {
		return []models.Edge{}
	}

	return edges
}
