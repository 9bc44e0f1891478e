package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"spotiscience/internal/models"
)

var (
	bucketCollections = []byte("collections")
	bucketSummaries   = []byte("summaries")
)

// SnapshotStore keeps downloaded collections in a local bbolt file so the
// CLI can model them later without calling the platform again
type SnapshotStore struct {
	db *bbolt.DB
}

// NewSnapshotStore opens (creating if needed) the snapshot file at path
func NewSnapshotStore(path string) (*SnapshotStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{bucketCollections, bucketSummaries} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create snapshot buckets: %w", err)
	}

	return &SnapshotStore{db: db}, nil
}

// Save writes the collection and its summary, replacing an earlier snapshot
// with the same id
func (s *SnapshotStore) Save(collection *models.Collection) error {
	data, err := json.Marshal(collection)
	if err != nil {
		return fmt.Errorf("failed to encode collection: %w", err)
	}
	summary, err := json.Marshal(collection.Summary())
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketCollections).Put([]byte(collection.ID), data); err != nil {
			return err
		}
		return tx.Bucket(bucketSummaries).Put([]byte(collection.ID), summary)
	})
}

// Load reads a collection by id. A unique id prefix is accepted too.
func (s *SnapshotStore) Load(id string) (*models.Collection, error) {
	var collection models.Collection
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCollections)
		data := b.Get([]byte(id))
		if data == nil {
			key, err := uniquePrefix(b, id)
			if err != nil {
				return err
			}
			data = b.Get(key)
		}
		return json.Unmarshal(data, &collection)
	})
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

func uniquePrefix(b *bbolt.Bucket, prefix string) ([]byte, error) {
	if prefix == "" {
		return nil, fmt.Errorf("snapshot %q: %w", prefix, models.ErrNotFound)
	}

	var match []byte
	c := b.Cursor()
	for k, _ := c.Seek([]byte(prefix)); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
		if match != nil {
			return nil, fmt.Errorf("snapshot prefix %q is ambiguous: %w", prefix, models.ErrUnrecognizedIdentifier)
		}
		match = append([]byte(nil), k...)
	}
	if match == nil {
		return nil, fmt.Errorf("snapshot %s: %w", prefix, models.ErrNotFound)
	}
	return match, nil
}

// List returns every snapshot summary, newest first
func (s *SnapshotStore) List() ([]models.CollectionSummary, error) {
	summaries := make([]models.CollectionSummary, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSummaries).ForEach(func(k, v []byte) error {
			var summary models.CollectionSummary
			if err := json.Unmarshal(v, &summary); err != nil {
				return fmt.Errorf("corrupt summary %s: %w", k, err)
			}
			summaries = append(summaries, summary)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

// Delete removes a snapshot
func (s *SnapshotStore) Delete(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCollections)
		if b.Get([]byte(id)) == nil {
			return fmt.Errorf("snapshot %s: %w", id, models.ErrNotFound)
		}
		if err := b.Delete([]byte(id)); err != nil {
			return err
		}
		return tx.Bucket(bucketSummaries).Delete([]byte(id))
	})
}

// Close closes the snapshot file
func (s *SnapshotStore) Close() error {
	return s.db.Close()
}
