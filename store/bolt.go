// Copyright (c) 2014 Square, Inc

package store

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

var clustersBucket = []byte("clusters")

// Bolt stores JSON encoded documents in a single bbolt bucket. Scopes map
// directly onto bolt transactions.
type Bolt struct {
	db *bolt.DB
}

func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(clustersBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: %w", err)
	}
	log.Debugf("Using bolt store %s", path)
	return &Bolt{db: db}, nil
}

func (b *Bolt) View(ctx context.Context, key string, fn func(*Document) error) error {
	if err := begin(ctx, key); err != nil {
		return err
	}
	return b.db.View(func(tx *bolt.Tx) error {
		doc, err := decodeJSON(tx.Bucket(clustersBucket).Get([]byte(key)))
		if err != nil {
			return err
		}
		return fn(doc)
	})
}

func (b *Bolt) Update(ctx context.Context, key string, fn func(*Document) error) error {
	if err := begin(ctx, key); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(clustersBucket)
		doc, err := decodeJSON(bucket.Get([]byte(key)))
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
		buf, err := encodeJSON(doc)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), buf)
	})
}

func (b *Bolt) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var keys []string
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(clustersBucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (b *Bolt) Close() error {
	return b.db.Close()
}
