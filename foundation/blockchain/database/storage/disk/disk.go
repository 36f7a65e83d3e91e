// Package disk implements the ability to read and write the blockchain to
// disk using LevelDB.
package disk

import (
	"errors"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// Disk represents the storage implementation for reading and storing the
// blockchain in a LevelDB database. This implements the database.Storage
// interface.
type Disk struct {
	db *leveldb.DB
}

// New constructs a Disk value for use, creating the database at the
// specified path if it doesn't exist.
func New(dbPath string) (*Disk, error) {
	db, err := leveldb.OpenFile(dbPath, nil)
	if err != nil {
		return nil, err
	}

	return &Disk{db: db}, nil
}

// NewInMemory constructs a Disk value backed by memory. Nothing is written
// to disk, but the LevelDB semantics are the same.
func NewInMemory() (*Disk, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}

	return &Disk{db: db}, nil
}

// Close closes the LevelDB database.
func (d *Disk) Close() error {
	return d.db.Close()
}

// Get returns the value stored under the key.
func (d *Disk) Get(key []byte) ([]byte, error) {
	value, err := d.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, database.ErrNotFound
	}

	return value, err
}

// Put stores the value under the key.
func (d *Disk) Put(key []byte, value []byte) error {
	return d.db.Put(key, value, &opt.WriteOptions{Sync: true})
}

// Write stores all the entries atomically. Either every entry is written or
// none of them are.
func (d *Disk) Write(entries []database.Entry) error {
	batch := new(leveldb.Batch)
	for _, entry := range entries {
		batch.Put(entry.Key, entry.Value)
	}

	return d.db.Write(batch, &opt.WriteOptions{Sync: true})
}

// Flush in this implementation has nothing to write since every write is
// synced to disk before it returns. It reports a database that has already
// been closed.
func (d *Disk) Flush() error {
	snap, err := d.db.GetSnapshot()
	if err != nil {
		return err
	}
	snap.Release()

	return nil
}
