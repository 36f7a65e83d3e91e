package state

import (
	"errors"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
)

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.db.Genesis()
}

// RetrieveTip returns the hash and height of the latest block.
func (s *State) RetrieveTip() (string, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Tip(), s.db.Height()
}

// RetrieveBlock returns the block stored under the specified hash.
func (s *State) RetrieveBlock(hash string) (database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.GetBlock(hash)
}

// RetrieveBlocks returns every block in the chain starting with the tip.
func (s *State) RetrieveBlocks() ([]database.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var blocks []database.Block

	iter := s.db.ForEach()
	for {
		block, err := iter.Next()
		if errors.Is(err, database.ErrEndOfChain) {
			return blocks, nil
		}
		if err != nil {
			return nil, err
		}

		blocks = append(blocks, block)
	}
}

// Balance is the balance of an address as of the block at the tip.
type Balance struct {
	Address string
	Value   int64
	UTXO    []database.TxOutput
	Tip     string
	Height  uint64
}

// RetrieveBalance returns the balance and unspent outputs of the address
// along with the tip they were derived from.
func (s *State) RetrieveBalance(address string) (Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, err := s.sheet.Balance(address)
	if err != nil {
		return Balance{}, err
	}

	outs, err := s.sheet.UTXO(address)
	if err != nil {
		return Balance{}, err
	}

	bal := Balance{
		Address: address,
		Value:   value,
		UTXO:    outs,
		Tip:     s.db.Tip(),
		Height:  s.db.Height(),
	}

	return bal, nil
}
