package database

import (
	"errors"
	"fmt"
)

// Set of outcomes for walking the chain other than the next block.
var (
	ErrEndOfChain = errors.New("end of chain")
	ErrIntegrity  = errors.New("chain integrity")
)

// Iterator walks the chain backward from the tip it was created at to the
// genesis block. Reaching the genesis block and failing to read a block are
// reported as different errors.
type Iterator struct {
	db      *Database // Access to the blocks in storage.
	current string    // Hash of the next block to read.
	prev    *Block    // Block returned by the last call to Next.
	eoc     bool      // Represents the iterator is at the end of the chain.
	err     error     // Integrity failure that stopped the iterator.
}

// Next retrieves the next block walking toward genesis. Once the genesis
// block has been returned, Next returns ErrEndOfChain. Any failure to read,
// decode, or verify a block is returned wrapping ErrIntegrity and stops the
// iterator.
func (it *Iterator) Next() (Block, error) {
	if it.err != nil {
		return Block{}, it.err
	}

	if it.eoc {
		return Block{}, ErrEndOfChain
	}

	block, err := it.db.GetBlock(it.current)
	if err != nil {
		return Block{}, it.fail(err)
	}

	if err := it.check(block); err != nil {
		return Block{}, it.fail(err)
	}

	if block.PrevHash == "" {
		it.eoc = true
	}

	it.current = block.PrevHash
	it.prev = &block

	return block, nil
}

// Done returns the end of chain value.
func (it *Iterator) Done() bool {
	return it.eoc || it.err != nil
}

// Err returns the integrity failure that stopped the iterator, if any.
func (it *Iterator) Err() error {
	return it.err
}

// check validates the block read from storage against where it was found and
// against the block that linked to it.
func (it *Iterator) check(block Block) error {
	if block.Hash != it.current {
		return fmt.Errorf("block stored under %s claims hash %s", it.current, block.Hash)
	}

	if err := block.Verify(); err != nil {
		return err
	}

	if block.PrevHash == "" && block.Height != 0 {
		return fmt.Errorf("block %s has no parent at height %d", block.Hash, block.Height)
	}

	if it.prev != nil && it.prev.Height != block.Height+1 {
		return fmt.Errorf("block %s at height %d is not the parent of height %d", block.Hash, block.Height, it.prev.Height)
	}

	return nil
}

// fail records the integrity failure and stops the iterator.
func (it *Iterator) fail(err error) error {
	it.err = fmt.Errorf("%w: %w", ErrIntegrity, err)
	return it.err
}
