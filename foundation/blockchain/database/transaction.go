package database

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ardanlabs/powledger/foundation/blockchain/digest"
	"github.com/ethereum/go-ethereum/rlp"
)

// Subsidy is the value minted by every coinbase transaction.
const Subsidy = 100

// Set of errors returned when the transactions of a block are rejected.
var (
	ErrInvalidCoinbase    = errors.New("invalid coinbase")
	ErrInvalidTransaction = errors.New("invalid transaction")
)

// coinbaseIndex marks the single input of a coinbase transaction as not
// referencing any prior output.
const coinbaseIndex = -1

// =============================================================================

// TxInput references one output of a prior transaction.
type TxInput struct {
	TxID          string `json:"tx_id"`          // Bitcoin: Id of the transaction holding the output being spent.
	OutputIndex   int64  `json:"output_index"`   // Bitcoin: Position of that output, -1 for a coinbase.
	UnlockingData string `json:"unlocking_data"` // Bitcoin: Stands in for the unlocking script.
}

// Unlocks reports whether this input was authored by the specified address.
// Equality is a placeholder for real signature verification.
func (in TxInput) Unlocks(address string) bool {
	return in.UnlockingData == address
}

// EncodeRLP implements the rlp.Encoder interface so the signed output index
// can take part in the canonical hash.
func (in TxInput) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, []any{in.TxID, digest.Signed(in.OutputIndex), in.UnlockingData})
}

// TxOutput represents value locked to an address.
type TxOutput struct {
	Value       int64  `json:"value"`        // Bitcoin: Amount of coin held by this output.
	LockingData string `json:"locking_data"` // Bitcoin: Stands in for the locking script.
}

// LockedTo reports whether this output is locked to the specified address.
func (out TxOutput) LockedTo(address string) bool {
	return out.LockingData == address
}

// EncodeRLP implements the rlp.Encoder interface so the signed value can
// take part in the canonical hash.
func (out TxOutput) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, []any{digest.Signed(out.Value), out.LockingData})
}

// =============================================================================

// Tx is a transfer of value from a set of prior outputs to a set of new
// outputs.
type Tx struct {
	ID      string     `json:"id"`
	Inputs  []TxInput  `json:"inputs"`
	Outputs []TxOutput `json:"outputs"`
}

// NewTx constructs a transaction over the specified inputs and outputs and
// assigns its id.
func NewTx(inputs []TxInput, outputs []TxOutput) (Tx, error) {
	tx := Tx{
		Inputs:  inputs,
		Outputs: outputs,
	}

	if err := tx.setID(); err != nil {
		return Tx{}, err
	}

	return tx, nil
}

// NewCoinbase constructs the reward transaction paying the subsidy to the
// beneficiary of the block at the specified height. When no memo is provided
// one is generated. The unlocking data is the height followed by the memo,
// so two rewards to the same address never share an id.
func NewCoinbase(beneficiary string, memo string, height uint64) (Tx, error) {
	if memo == "" {
		memo = fmt.Sprintf("Reward to '%s'", beneficiary)
	}

	inputs := []TxInput{
		{
			TxID:          "",
			OutputIndex:   coinbaseIndex,
			UnlockingData: strconv.FormatUint(height, 10) + ":" + memo,
		},
	}

	outputs := []TxOutput{
		{
			Value:       Subsidy,
			LockingData: beneficiary,
		},
	}

	return NewTx(inputs, outputs)
}

// IsCoinbase reports whether the transaction mints new value instead of
// spending prior outputs.
func (tx Tx) IsCoinbase() bool {
	return len(tx.Inputs) == 1 && tx.Inputs[0].TxID == "" && tx.Inputs[0].OutputIndex == coinbaseIndex
}

// CoinbaseHeight returns the block height a coinbase commits to.
func (tx Tx) CoinbaseHeight() (uint64, error) {
	if !tx.IsCoinbase() {
		return 0, fmt.Errorf("%w: tx %s is not a coinbase", ErrInvalidCoinbase, tx.ID)
	}

	h, _, ok := strings.Cut(tx.Inputs[0].UnlockingData, ":")
	if !ok {
		return 0, fmt.Errorf("%w: tx %s carries no height", ErrInvalidCoinbase, tx.ID)
	}

	height, err := strconv.ParseUint(h, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: tx %s height %q: %v", ErrInvalidCoinbase, tx.ID, h, err)
	}

	return height, nil
}

// Memo returns the memo of a coinbase without the height prefix.
func (tx Tx) Memo() string {
	if !tx.IsCoinbase() {
		return ""
	}

	_, memo, _ := strings.Cut(tx.Inputs[0].UnlockingData, ":")
	return memo
}

// CalculateID returns the hash of the transaction content. The id field is
// held empty so it is not part of its own preimage.
func (tx Tx) CalculateID() (string, error) {
	tx.ID = ""
	return digest.Hash(tx)
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s:in[%d]:out[%d]", tx.ID, len(tx.Inputs), len(tx.Outputs))
}

// setID computes and assigns the id of the transaction.
func (tx *Tx) setID() error {
	id, err := tx.CalculateID()
	if err != nil {
		return fmt.Errorf("hashing transaction: %w", err)
	}

	tx.ID = id
	return nil
}

// checkTrans validates the transactions going into the block at the
// specified height. A block holds at most one coinbase and it must commit to
// the block height. Every output must hold a positive value and the outputs
// of a transaction must not overflow when summed.
func checkTrans(trans []Tx, height uint64) error {
	var coinbases int
	for _, tx := range trans {
		var total int64
		for i, out := range tx.Outputs {
			if out.Value <= 0 {
				return fmt.Errorf("%w: tx %s output %d has value %d", ErrInvalidTransaction, tx.ID, i, out.Value)
			}

			if total > math.MaxInt64-out.Value {
				return fmt.Errorf("%w: tx %s outputs overflow", ErrInvalidTransaction, tx.ID)
			}
			total += out.Value
		}

		if !tx.IsCoinbase() {
			continue
		}

		coinbases++
		if coinbases > 1 {
			return fmt.Errorf("%w: block %d holds more than one", ErrInvalidCoinbase, height)
		}

		got, err := tx.CoinbaseHeight()
		if err != nil {
			return err
		}

		if got != height {
			return fmt.Errorf("%w: tx %s commits to height %d, block is %d", ErrInvalidCoinbase, tx.ID, got, height)
		}
	}

	return nil
}

// =============================================================================

// Authorizer represents the behavior required to decide who may spend an
// output. The equality check is a placeholder for signature verification.
type Authorizer interface {
	CanSpend(out TxOutput, proof string) bool
	Claims(in TxInput, address string) bool
}

// EqualityAuthorizer implements Authorizer by comparing addresses with the
// locking and unlocking data directly.
type EqualityAuthorizer struct{}

// CanSpend reports whether the output is locked to the proof.
func (EqualityAuthorizer) CanSpend(out TxOutput, proof string) bool {
	return out.LockedTo(proof)
}

// Claims reports whether the input was authored by the address.
func (EqualityAuthorizer) Claims(in TxInput, address string) bool {
	return in.Unlocks(address)
}
