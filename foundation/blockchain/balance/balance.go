// Package balance derives the unspent outputs and balances of an address by
// scanning the blockchain. There is no index, every query walks the full
// chain from the tip to the genesis block.
package balance

import (
	"errors"
	"fmt"
	"math"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

// Set of errors returned by the balance sheet.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrOverflow          = errors.New("balance overflows")
)

// Chain interface represents the behavior required to walk the blockchain
// from the tip to the genesis block.
type Chain interface {
	ForEach() *database.Iterator
}

// Sheet represents the support for deriving balances from the chain.
type Sheet struct {
	chain Chain
	auth  database.Authorizer
}

// NewSheet constructs a balance sheet over the chain. If no authorizer is
// provided, the equality authorizer is used.
func NewSheet(chain Chain, auth database.Authorizer) *Sheet {
	if auth == nil {
		auth = database.EqualityAuthorizer{}
	}

	return &Sheet{
		chain: chain,
		auth:  auth,
	}
}

// Unspent is a transaction holding outputs not yet spent by an address
// along with the positions of those outputs.
type Unspent struct {
	Tx      database.Tx
	Indexes []int
}

// Outputs returns the unspent outputs of the transaction.
func (u Unspent) Outputs() []database.TxOutput {
	outs := make([]database.TxOutput, len(u.Indexes))
	for i, idx := range u.Indexes {
		outs[i] = u.Tx.Outputs[idx]
	}

	return outs
}

// =============================================================================

// Scan walks the whole chain and returns every transaction holding an
// unspent output for the address, newest first.
func (s *Sheet) Scan(address string) ([]Unspent, error) {

	// Spent output positions claimed by the address, keyed by transaction id.
	spent := make(map[string]map[int64]bool)

	var unspent []Unspent

	iter := s.chain.ForEach()
	for {
		block, err := iter.Next()
		if errors.Is(err, database.ErrEndOfChain) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scanning chain: %w", err)
		}

		// Walk the transactions of a block last to first so a spend is
		// always seen before the output it consumes.
		for i := len(block.Trans) - 1; i >= 0; i-- {
			tx := block.Trans[i]

			var indexes []int
			for idx, out := range tx.Outputs {
				if spent[tx.ID][int64(idx)] {
					continue
				}

				if s.auth.CanSpend(out, address) {
					indexes = append(indexes, idx)
				}
			}

			if len(indexes) > 0 {
				unspent = append(unspent, Unspent{Tx: tx, Indexes: indexes})
			}

			if tx.IsCoinbase() {
				continue
			}

			for _, in := range tx.Inputs {
				if !s.auth.Claims(in, address) {
					continue
				}

				if spent[in.TxID] == nil {
					spent[in.TxID] = make(map[int64]bool)
				}
				spent[in.TxID][in.OutputIndex] = true
			}
		}
	}

	return unspent, nil
}

// UnspentTransactions returns the set of transactions holding at least one
// unspent output for the address.
func (s *Sheet) UnspentTransactions(address string) ([]database.Tx, error) {
	unspent, err := s.Scan(address)
	if err != nil {
		return nil, err
	}

	trans := make([]database.Tx, len(unspent))
	for i, u := range unspent {
		trans[i] = u.Tx
	}

	return trans, nil
}

// UTXO returns the unspent outputs for the address.
func (s *Sheet) UTXO(address string) ([]database.TxOutput, error) {
	unspent, err := s.Scan(address)
	if err != nil {
		return nil, err
	}

	var outs []database.TxOutput
	for _, u := range unspent {
		outs = append(outs, u.Outputs()...)
	}

	return outs, nil
}

// Balance returns the sum of the unspent outputs for the address.
func (s *Sheet) Balance(address string) (int64, error) {
	outs, err := s.UTXO(address)
	if err != nil {
		return 0, err
	}

	var balance int64
	for _, out := range outs {
		if balance, err = add(balance, out.Value); err != nil {
			return 0, fmt.Errorf("balance of %s: %w", address, err)
		}
	}

	return balance, nil
}

// Transfer builds a transaction moving the amount from one address to
// another. Unspent outputs of the sender are consumed until the amount is
// covered and any remainder is paid back to the sender as change.
func (s *Sheet) Transfer(from string, to string, amount int64) (database.Tx, error) {
	if amount <= 0 {
		return database.Tx{}, fmt.Errorf("transfer amount must be positive, got %d", amount)
	}

	unspent, err := s.Scan(from)
	if err != nil {
		return database.Tx{}, err
	}

	var inputs []database.TxInput
	var accumulated int64

done:
	for _, u := range unspent {
		for _, idx := range u.Indexes {
			inputs = append(inputs, database.TxInput{
				TxID:          u.Tx.ID,
				OutputIndex:   int64(idx),
				UnlockingData: from,
			})

			accumulated, err = add(accumulated, u.Tx.Outputs[idx].Value)
			if err != nil {
				return database.Tx{}, fmt.Errorf("balance of %s: %w", from, err)
			}

			if accumulated >= amount {
				break done
			}
		}
	}

	if accumulated < amount {
		return database.Tx{}, fmt.Errorf("%w: %s holds %d, needs %d", ErrInsufficientFunds, from, accumulated, amount)
	}

	outputs := []database.TxOutput{
		{Value: amount, LockingData: to},
	}
	if accumulated > amount {
		outputs = append(outputs, database.TxOutput{Value: accumulated - amount, LockingData: from})
	}

	return database.NewTx(inputs, outputs)
}

// add sums two output values, failing instead of wrapping around.
func add(a int64, b int64) (int64, error) {
	if b > 0 && a > math.MaxInt64-b {
		return 0, ErrOverflow
	}

	return a + b, nil
}
