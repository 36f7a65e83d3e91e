// Package database handles all the lower level support for maintaining the
// blockchain in a key/value store. Blocks are kept under their hash with two
// extra records pointing at the tip of the chain and holding its height.
package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
)

// EventHandler defines a function that is called when events
// occur in the processing of mining and persisting blocks.
type EventHandler func(v string, args ...any)

// Database manages the blocks of the chain held by the storage. It assumes
// it is the only writer of the storage for its lifetime. A Database is not
// safe for concurrent use.
type Database struct {
	storage   Storage
	genesis   genesis.Genesis
	evHandler EventHandler
	tip       string
	height    uint64
}

// New opens the blockchain held by the storage. If the storage has no chain
// yet, the genesis block is mined and written first. This only happens once
// for the lifetime of the storage.
func New(storage Storage, gen genesis.Genesis, evHandler EventHandler) (*Database, error) {
	if gen.Difficulty > MaxDifficulty {
		return nil, ErrInvalidDifficulty
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	db := Database{
		storage:   storage,
		genesis:   gen,
		evHandler: ev,
	}

	tip, height, err := db.readPointers()
	switch {
	case err == nil:
		ev("database: New: reopened: tip[%s]: height[%d]", tip, height)
		db.tip = tip
		db.height = height
		return &db, nil

	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	if err := db.createGenesis(); err != nil {
		return nil, err
	}

	return &db, nil
}

// Close closes the storage underneath.
func (db *Database) Close() error {
	return db.storage.Close()
}

// Tip returns the hash of the latest block.
func (db *Database) Tip() string {
	return db.tip
}

// Height returns the height of the latest block.
func (db *Database) Height() uint64 {
	return db.height
}

// Genesis returns a copy of the genesis information.
func (db *Database) Genesis() genesis.Genesis {
	return db.genesis
}

// AddBlock mines a new block over the specified transactions on top of the
// current tip and writes it to storage. The transactions are rejected when a
// coinbase doesn't commit to the new height or an output value is invalid. The block, the tip and the height
// are written as a single batch so a crash can't leave them out of step.
func (db *Database) AddBlock(ctx context.Context, trans []Tx) (Block, error) {
	tip, height, err := db.readPointers()
	if err != nil {
		return Block{}, fmt.Errorf("reading chain pointers: %w", err)
	}

	if err := checkTrans(trans, height+1); err != nil {
		return Block{}, err
	}

	db.evHandler("database: AddBlock: started: prevBlk[%s]: blk[%d]", tip, height+1)
	defer db.evHandler("database: AddBlock: completed")

	nb := NewBlock(trans, tip, height+1, db.genesis.Difficulty)

	block, err := POW(ctx, nb, db.evHandler)
	if err != nil {
		return Block{}, err
	}

	if err := db.write(block); err != nil {
		return Block{}, err
	}

	return block, nil
}

// GetBlock retrieves the block stored under the specified hash.
func (db *Database) GetBlock(hash string) (Block, error) {
	data, err := db.storage.Get([]byte(hash))
	if err != nil {
		return Block{}, fmt.Errorf("reading block %s: %w", hash, err)
	}

	block, err := decodeBlock(data)
	if err != nil {
		return Block{}, fmt.Errorf("decoding block %s: %w", hash, err)
	}

	return block, nil
}

// ForEach returns an iterator to walk through all the blocks starting
// with the tip of the chain and ending with the genesis block.
func (db *Database) ForEach() *Iterator {
	return &Iterator{
		db:      db,
		current: db.tip,
	}
}

// =============================================================================

// createGenesis mines the genesis block paying the coinbase to the genesis
// beneficiary and records it as the tip of the chain.
func (db *Database) createGenesis() error {
	db.evHandler("database: createGenesis: started: beneficiary[%s]", db.genesis.Beneficiary)
	defer db.evHandler("database: createGenesis: completed")

	coinbase, err := NewCoinbase(db.genesis.Beneficiary, db.genesis.Memo, 0)
	if err != nil {
		return err
	}

	nb := NewBlock([]Tx{coinbase}, "", 0, db.genesis.Difficulty)

	block, err := POW(context.Background(), nb, db.evHandler)
	if err != nil {
		return err
	}

	if err := db.write(block); err != nil {
		return err
	}

	if err := db.storage.Flush(); err != nil {
		return fmt.Errorf("flushing genesis: %w", err)
	}

	return nil
}

// write stores the block and moves the tip and height to it.
func (db *Database) write(block Block) error {
	data, err := encodeBlock(block)
	if err != nil {
		return fmt.Errorf("encoding block: %w", err)
	}

	entries := []Entry{
		{Key: []byte(block.Hash), Value: data},
		{Key: tipKey, Value: []byte(block.Hash)},
		{Key: heightKey, Value: encodeHeight(block.Height)},
	}

	db.evHandler("database: write: blk[%d]: hash[%s]", block.Height, block.Hash)

	if err := db.storage.Write(entries); err != nil {
		return fmt.Errorf("writing block %s: %w", block.Hash, err)
	}

	db.tip = block.Hash
	db.height = block.Height

	return nil
}

// readPointers reads the tip hash and the height from storage. ErrNotFound
// is returned when no chain has been written.
func (db *Database) readPointers() (string, uint64, error) {
	tip, err := db.storage.Get(tipKey)
	if err != nil {
		return "", 0, err
	}

	// A tip without a height means the pointers are out of step.
	data, err := db.storage.Get(heightKey)
	switch {
	case errors.Is(err, ErrNotFound):
		return "", 0, fmt.Errorf("%w: tip %s has no height record", ErrIntegrity, tip)
	case err != nil:
		return "", 0, fmt.Errorf("reading height: %w", err)
	}

	height, err := decodeHeight(data)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrIntegrity, err)
	}

	return string(tip), height, nil
}
