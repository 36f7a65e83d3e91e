package database

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by a Storage when a key does not exist.
var ErrNotFound = errors.New("key not found")

// Keys used for the chain pointers. Blocks are stored under their own hash.
var (
	tipKey    = []byte("LAST")
	heightKey = []byte("HEIGHT")
)

// Storage interface represents the behavior required to be implemented by any
// package providing a durable map of byte keys to byte values for storing the
// blockchain.
type Storage interface {
	Get(key []byte) ([]byte, error)
	Put(key []byte, value []byte) error
	Write(entries []Entry) error
	Flush() error
	Close() error
}

// Entry is a single key/value pair written as part of an atomic batch.
type Entry struct {
	Key   []byte
	Value []byte
}

// =============================================================================

// encodeHeight converts the height into the fixed width form stored on disk.
func encodeHeight(height uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], height)
	return buf[:]
}

// decodeHeight converts the fixed width form stored on disk into a height.
func decodeHeight(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("height record is %d bytes, exp 8", len(data))
	}

	return binary.BigEndian.Uint64(data), nil
}

// encodeBlock marshals the block into the form stored on disk.
func encodeBlock(block Block) ([]byte, error) {
	return json.Marshal(block)
}

// decodeBlock unmarshals a block from the form stored on disk.
func decodeBlock(data []byte) (Block, error) {
	var block Block
	if err := json.Unmarshal(data, &block); err != nil {
		return Block{}, err
	}

	return block, nil
}
