package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	bolt "go.etcd.io/bbolt"
)

const (
	articlesBktName = "articles"
	indexBktName    = "articles_index"
)

// Bolt is a storage that uses BoltDB as a backend.
// Articles are kept under a big-endian sequence key to preserve the order
// they were put in, the index bucket maps article id to that key.
type Bolt struct {
	db *bolt.DB
}

// NewBolt creates new Bolt storage.
func NewBolt(dir string) (*Bolt, error) {
	db, err := bolt.Open(path.Join(dir, "articles.db"), 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to make boltdb for %s: %w", dir, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{articlesBktName, indexBktName} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create top-level bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("make buckets: %w", err)
	}

	return &Bolt{db: db}, nil
}

// Replace drops the stored articles and puts the given ones.
func (b *Bolt) Replace(_ context.Context, articles []Article) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{articlesBktName, indexBktName} {
			if err := tx.DeleteBucket([]byte(name)); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
				return fmt.Errorf("drop bucket %s: %w", name, err)
			}
		}

		bkt, err := tx.CreateBucket([]byte(articlesBktName))
		if err != nil {
			return fmt.Errorf("create articles bucket: %w", err)
		}

		idx, err := tx.CreateBucket([]byte(indexBktName))
		if err != nil {
			return fmt.Errorf("create index bucket: %w", err)
		}

		for i, a := range articles {
			bts, err := json.Marshal(a)
			if err != nil {
				return fmt.Errorf("marshal article %s: %w", a.ID, err)
			}

			key := seqKey(uint64(i))
			if err := bkt.Put(key, bts); err != nil {
				return fmt.Errorf("put article %s: %w", a.ID, err)
			}

			if err := idx.Put([]byte(a.ID), key); err != nil {
				return fmt.Errorf("put index for %s: %w", a.ID, err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("update storage: %w", err)
	}

	return nil
}

// Get returns article from storage.
func (b *Bolt) Get(_ context.Context, id string) (a Article, err error) {
	err = b.db.View(func(tx *bolt.Tx) error {
		key := tx.Bucket([]byte(indexBktName)).Get([]byte(id))
		if key == nil {
			return ErrNotFound
		}

		bts := tx.Bucket([]byte(articlesBktName)).Get(key)
		if bts == nil {
			return ErrNotFound
		}

		if err := json.Unmarshal(bts, &a); err != nil {
			return fmt.Errorf("unmarshal article: %w", err)
		}

		return nil
	})
	if err != nil {
		return Article{}, fmt.Errorf("view storage: %w", err)
	}

	return a, nil
}

// List returns articles from storage in the order they were put.
func (b *Bolt) List(_ context.Context, req ListRequest) ([]Article, error) {
	var result []Article
	err := b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(articlesBktName))
		err := bkt.ForEach(func(k, v []byte) error {
			var a Article
			if err := json.Unmarshal(v, &a); err != nil {
				return fmt.Errorf("unmarshal article %x: %w", k, err)
			}
			if req.matches(a) {
				result = append(result, a)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("foreach: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("view storage: %w", err)
	}
	return result, nil
}

// Close closes the storage.
func (b *Bolt) Close() error { return b.db.Close() }

func seqKey(i uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, i)
	return key
}
