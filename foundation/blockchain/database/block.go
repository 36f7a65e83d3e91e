package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
)

// MaxDifficulty is the largest difficulty that can be solved. A SHA-256 hash
// is 64 hex characters long.
const MaxDifficulty = 64

// ErrInvalidDifficulty is returned when a difficulty can never be solved.
var ErrInvalidDifficulty = errors.New("difficulty must be between 0 and 64")

// =============================================================================

// Block represents a group of transactions batched together.
type Block struct {
	TimeStamp  uint64 `json:"timestamp"`  // Bitcoin: Time the block was created in milliseconds.
	Trans      []Tx   `json:"trans"`      // Bitcoin: Transactions recorded by this block.
	PrevHash   string `json:"prev_hash"`  // Bitcoin: Hash of the previous block in the chain.
	Hash       string `json:"hash"`       // Bitcoin: Hash that solved the POW puzzle.
	Height     uint64 `json:"height"`     // Ethereum: Block number in the chain.
	Nonce      uint64 `json:"nonce"`      // Bitcoin: Value identified to solve the hash solution.
	Difficulty uint   `json:"difficulty"` // Ethereum: Number of 0's needed to solve the hash solution.
}

// NewBlock constructs an unmined block. No validation of the transactions is
// performed here.
func NewBlock(trans []Tx, prevHash string, height uint64, difficulty uint) Block {
	return Block{
		TimeStamp:  uint64(time.Now().UTC().UnixMilli()),
		Trans:      trans,
		PrevHash:   prevHash,
		Height:     height,
		Nonce:      0,
		Difficulty: difficulty,
	}
}

// POW performs the work to find the nonce that solves the cryptographic POW
// puzzle for the block and returns the sealed block. The nonce is incremented
// from its current value, so a fresh block is solved with the smallest
// nonce. There is no limit on the number of attempts. The context is the only
// way to bound the work.
func POW(ctx context.Context, b Block, ev EventHandler) (Block, error) {
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	if b.Difficulty > MaxDifficulty {
		return Block{}, ErrInvalidDifficulty
	}

	ev("database: POW: MINING: started: blk[%d]", b.Height)
	defer ev("database: POW: MINING: completed: blk[%d]", b.Height)

	// Log the transactions that are a part of this potential block.
	for _, tx := range b.Trans {
		ev("database: POW: MINING: tx[%s]", tx)
	}

	if ctx.Err() != nil {
		return Block{}, ctx.Err()
	}

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: POW: MINING: attempts[%d]", attempts)

			if ctx.Err() != nil {
				ev("database: POW: MINING: CANCELLED")
				return Block{}, ctx.Err()
			}
		}

		// Hash the block and check if we have solved the puzzle.
		hash, err := b.CalculateHash()
		if err != nil {
			return Block{}, err
		}

		if !isHashSolved(b.Difficulty, hash) {
			b.Nonce++
			continue
		}

		ev("database: POW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: attempts[%d]", b.PrevHash, hash, attempts)

		b.Hash = hash
		return b, nil
	}
}

// CalculateHash returns the canonical hash for the block. The hash covers
// the previous hash, the transactions, the timestamp, the difficulty and the
// nonce, in that order. The stored hash is not part of the preimage.
func (b Block) CalculateHash() (string, error) {
	content := []any{
		b.PrevHash,
		b.Trans,
		b.TimeStamp,
		uint64(b.Difficulty),
		b.Nonce,
	}

	return digest.Hash(content)
}

// Validate recomputes the hash for the current nonce and reports whether it
// solves the POW puzzle. The block is not modified.
func (b Block) Validate() bool {
	hash, err := b.CalculateHash()
	if err != nil {
		return false
	}

	return isHashSolved(b.Difficulty, hash)
}

// Verify checks a sealed block. The stored hash must be the hash of the
// block content and must solve the POW puzzle.
func (b Block) Verify() error {
	hash, err := b.CalculateHash()
	if err != nil {
		return fmt.Errorf("hashing block: %w", err)
	}

	if hash != b.Hash {
		return fmt.Errorf("block hash doesn't match content, got %s, exp %s", b.Hash, hash)
	}

	if !isHashSolved(b.Difficulty, hash) {
		return fmt.Errorf("%s invalid block hash for difficulty %d", hash, b.Difficulty)
	}

	return nil
}

// IsGenesis reports whether this is the first block of the chain.
func (b Block) IsGenesis() bool {
	return b.Height == 0 && b.PrevHash == ""
}

// =============================================================================

// isHashSolved checks the hash to make sure it complies with
// the POW rules. We need to match a difficulty number of 0's.
func isHashSolved(difficulty uint, hash string) bool {
	if len(hash) != 64 || difficulty > MaxDifficulty {
		return false
	}

	return hash[:difficulty] == digest.ZeroHash[:difficulty]
}
