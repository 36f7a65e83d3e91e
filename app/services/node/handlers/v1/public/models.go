package public

import (
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
)

type output struct {
	Value   int64  `json:"value"`
	Address string `json:"address"`
}

type balance struct {
	Address     string   `json:"address"`
	Balance     int64    `json:"balance"`
	UTXO        []output `json:"utxo"`
	LatestBlock string   `json:"latest_block"`
	Height      uint64   `json:"height"`
}

type tip struct {
	Hash   string `json:"hash"`
	Height uint64 `json:"height"`
}

// =============================================================================

type newInput struct {
	TxID          string `json:"tx_id"`
	OutputIndex   int64  `json:"output_index" validate:"gte=-1"`
	UnlockingData string `json:"unlocking_data" validate:"required"`
}

type newOutput struct {
	Value       int64  `json:"value" validate:"gt=0"`
	LockingData string `json:"locking_data" validate:"required"`
}

type newTx struct {
	Inputs  []newInput  `json:"inputs" validate:"min=1,dive"`
	Outputs []newOutput `json:"outputs" validate:"min=1,dive"`
}

type newBlock struct {
	Trans []newTx `json:"trans" validate:"min=1,dive"`
}

// toDatabaseTrans converts the submitted transactions into ledger
// transactions with their ids assigned.
func toDatabaseTrans(nb newBlock) ([]database.Tx, error) {
	trans := make([]database.Tx, len(nb.Trans))
	for i, ntx := range nb.Trans {
		inputs := make([]database.TxInput, len(ntx.Inputs))
		for j, in := range ntx.Inputs {
			inputs[j] = database.TxInput{
				TxID:          in.TxID,
				OutputIndex:   in.OutputIndex,
				UnlockingData: in.UnlockingData,
			}
		}

		outputs := make([]database.TxOutput, len(ntx.Outputs))
		for j, out := range ntx.Outputs {
			outputs[j] = database.TxOutput{
				Value:       out.Value,
				LockingData: out.LockingData,
			}
		}

		tx, err := database.NewTx(inputs, outputs)
		if err != nil {
			return nil, err
		}
		trans[i] = tx
	}

	return trans, nil
}

type send struct {
	From   string `json:"from" validate:"required"`
	To     string `json:"to" validate:"required,nefield=From"`
	Amount int64  `json:"amount" validate:"gt=0"`
}
