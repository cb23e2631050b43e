package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/cuemby/drover/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketLifecycle = []byte("lifecycle")
	bucketTopology  = []byte("topology")
	bucketStatus    = []byte("status")

	// Each bucket holds a single record under a fixed key.
	recordKey = []byte("current")
)

// BoltStore implements Store interface using BoltDB
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore creates a new BoltDB-backed store
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "drover.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{
			bucketLifecycle,
			bucketTopology,
			bucketStatus,
		}

		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Lifecycle operations
func (s *BoltStore) SaveLifecycleState(state *types.LifecycleState) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLifecycle)
		data, err := json.Marshal(state)
		if err != nil {
			return err
		}
		return b.Put(recordKey, data)
	})
}

func (s *BoltStore) LoadLifecycleState() (*types.LifecycleState, error) {
	var state *types.LifecycleState
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLifecycle)
		data := b.Get(recordKey)
		if data == nil {
			return nil
		}
		state = &types.LifecycleState{}
		return json.Unmarshal(data, state)
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// Topology operations
func (s *BoltStore) SaveTopology(topology *types.Topology) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTopology)
		data, err := json.Marshal(topology)
		if err != nil {
			return err
		}
		return b.Put(recordKey, data)
	})
}

func (s *BoltStore) LoadTopology() (*types.Topology, error) {
	var topology *types.Topology
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTopology)
		data := b.Get(recordKey)
		if data == nil {
			return nil
		}
		topology = &types.Topology{}
		return json.Unmarshal(data, topology)
	})
	if err != nil {
		return nil, err
	}
	return topology, nil
}

// Status operations
func (s *BoltStore) SaveStatus(status *types.Status) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketStatus)
		data, err := json.Marshal(status)
		if err != nil {
			return err
		}
		return b.Put(recordKey, data)
	})
}

func (s *BoltStore) LoadStatus() (*types.Status, error) {
	var status *types.Status
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketStatus)
		data := b.Get(recordKey)
		if data == nil {
			return nil
		}
		status = &types.Status{}
		return json.Unmarshal(data, status)
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}
