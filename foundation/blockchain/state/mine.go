package state

import (
	"context"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// AddBlock mines a new block holding the specified transactions and appends
// it to the chain.
func (s *State) AddBlock(ctx context.Context, trans []database.Tx) (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: AddBlock: MINING: trans[%d]", len(trans))

	return s.db.AddBlock(ctx, trans)
}

// Send builds a transfer between two addresses and mines it into a new block
// together with a coinbase paying the node's miner.
func (s *State) Send(ctx context.Context, from string, to string, amount int64) (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: Send: from[%s]: to[%s]: amount[%d]", from, to, amount)

	tx, err := s.sheet.Transfer(from, to, amount)
	if err != nil {
		return database.Block{}, err
	}

	coinbase, err := database.NewCoinbase(s.minerAddress, "", s.db.Height()+1)
	if err != nil {
		return database.Block{}, err
	}

	return s.db.AddBlock(ctx, []database.Tx{coinbase, tx})
}
