// Package boltdb is a proofstore.Store backed by a bolt database file.
package boltdb

import (
	"context"
	"io"
	"path"

	bolt "go.etcd.io/bbolt"

	"github.com/drand/sigma/log"
	"github.com/drand/sigma/proofstore"
)

// BoltStore implements the Store interface using the kv storage boltdb (native
// golang implementation). Records are stored JSON encoded under their ID.
type BoltStore struct {
	db *bolt.DB

	log log.Logger
}

var proofBucket = []byte("proofs")

// BoltFileName is the name of the file boltdb writes to
const BoltFileName = "proofs.db"

// BoltStoreOpenPerm is the permission we will use to read bolt store file from disk
const BoltStoreOpenPerm = 0660

// NewBoltStore returns a Store implementation using the boltdb storage engine.
func NewBoltStore(ctx context.Context, l log.Logger, folder string, opts *bolt.Options) (*BoltStore, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	dbPath := path.Join(folder, BoltFileName)
	db, err := bolt.Open(dbPath, BoltStoreOpenPerm, opts)
	if err != nil {
		return nil, err
	}
	// create the bucket already
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(proofBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &BoltStore{
		log: l,
		db:  db,
	}, nil
}

func (b *BoltStore) Len(ctx context.Context) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	var length = 0
	err := b.db.View(func(tx *bolt.Tx) error {
		length = tx.Bucket(proofBucket).Stats().KeyN
		return nil
	})
	if err != nil {
		b.log.Warnw("", "boltdb", "error getting length", "err", err)
	}
	return length, err
}

func (b *BoltStore) Close(context.Context) error {
	err := b.db.Close()
	if err != nil {
		b.log.Errorw("", "boltdb", "close", "err", err)
	}
	return err
}

// Put implements the Store interface. Records are content addressed, so
// storing one again overwrites it with the same bytes.
func (b *BoltStore) Put(ctx context.Context, r *proofstore.Record) (proofstore.ID, error) {
	select {
	case <-ctx.Done():
		return proofstore.ID{}, ctx.Err()
	default:
	}

	buff, err := r.Marshal()
	if err != nil {
		return proofstore.ID{}, err
	}
	id, err := r.ID()
	if err != nil {
		return id, err
	}
	err = b.db.Update(func(tx *bolt.Tx) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		return tx.Bucket(proofBucket).Put(id[:], buff)
	})
	if err != nil {
		b.log.Debugw("storing proof", "id", id.String(), "err", err)
	}
	return id, err
}

// Get returns the record saved under id
func (b *BoltStore) Get(ctx context.Context, id proofstore.ID) (*proofstore.Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	r := &proofstore.Record{}
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(proofBucket).Get(id[:])
		if v == nil {
			return proofstore.ErrNotFound
		}
		return r.Unmarshal(v)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (b *BoltStore) Del(ctx context.Context, id proofstore.ID) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(proofBucket).Delete(id[:])
	})
}

// ForEach walks the bucket in key order within a single read transaction.
func (b *BoltStore) ForEach(ctx context.Context, fn func(proofstore.ID, *proofstore.Record) error) error {
	return b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(proofBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			var id proofstore.ID
			copy(id[:], k)
			r := &proofstore.Record{}
			if err := r.Unmarshal(v); err != nil {
				return err
			}
			if err := fn(id, r); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveTo saves the bolt database to an alternate file.
func (b *BoltStore) SaveTo(ctx context.Context, w io.Writer) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	return b.db.View(func(tx *bolt.Tx) error {
		_, err := tx.WriteTo(w)
		return err
	})
}
