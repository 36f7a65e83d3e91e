package database_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage/memory"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_OpenOrCreate(t *testing.T) {
	strg := memory.New()
	gen := genesis.Genesis{Difficulty: 1, Beneficiary: "bill"}

	t.Log("Given the need to open a new blockchain.")
	{
		db, err := database.New(strg, gen, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open the database: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to open the database.", success)

		if db.Height() != 0 {
			t.Fatalf("\t%s\tShould have a height of 0, got %d.", failed, db.Height())
		}
		t.Logf("\t%s\tShould have a height of 0.", success)

		block, err := db.GetBlock(db.Tip())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to read the genesis block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to read the genesis block.", success)

		if block.Height != 0 || block.PrevHash != "" || !block.IsGenesis() {
			t.Fatalf("\t%s\tShould have genesis height 0 and no parent: %d %q", failed, block.Height, block.PrevHash)
		}
		t.Logf("\t%s\tShould have genesis height 0 and no parent.", success)

		if len(block.Trans) != 1 || !block.Trans[0].IsCoinbase() || !block.Trans[0].Outputs[0].LockedTo("bill") {
			t.Fatalf("\t%s\tShould hold a single coinbase paying the beneficiary.", failed)
		}
		t.Logf("\t%s\tShould hold a single coinbase paying the beneficiary.", success)

		if err := block.Verify(); err != nil {
			t.Fatalf("\t%s\tShould have a verified genesis block: %v", failed, err)
		}
		t.Logf("\t%s\tShould have a verified genesis block.", success)

		tip := db.Tip()

		t.Log("\tWhen reopening the same storage.")
		{
			db, err := database.New(strg, gen, nil)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to reopen the database: %v", failed, err)
			}
			t.Logf("\t%s\tShould be able to reopen the database.", success)

			if db.Tip() != tip || db.Height() != 0 {
				t.Logf("\t%s\tgot: %s %d", failed, db.Tip(), db.Height())
				t.Logf("\t%s\texp: %s %d", failed, tip, 0)
				t.Fatalf("\t%s\tShould not create a second genesis block.", failed)
			}
			t.Logf("\t%s\tShould not create a second genesis block.", success)
		}
	}
}

func Test_AddBlock(t *testing.T) {
	const blocks = 3

	t.Log("Given the need to add blocks to the chain.")
	{
		db, err := database.New(memory.New(), genesis.Genesis{Difficulty: 1, Beneficiary: "bill"}, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open the database: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to open the database.", success)

		start := db.Height()

		prev := db.Tip()
		for i := 0; i < blocks; i++ {
			coinbase, err := database.NewCoinbase("jill", "", start+uint64(i)+1)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to build a coinbase: %v", failed, err)
			}

			block, err := db.AddBlock(context.Background(), []database.Tx{coinbase})
			if err != nil {
				t.Fatalf("\t%s\tShould be able to add block %d: %v", failed, i, err)
			}

			if block.PrevHash != prev || block.Height != start+uint64(i)+1 {
				t.Fatalf("\t%s\tShould link block %d to its parent: %q %d", failed, i, block.PrevHash, block.Height)
			}
			prev = block.Hash
		}
		t.Logf("\t%s\tShould be able to add %d linked blocks.", success, blocks)

		if db.Height() != start+blocks {
			t.Fatalf("\t%s\tShould have a height of %d, got %d.", failed, start+blocks, db.Height())
		}
		t.Logf("\t%s\tShould have a height of %d.", success, start+blocks)

		var count uint64
		var last database.Block
		iter := db.ForEach()
		for {
			block, err := iter.Next()
			if errors.Is(err, database.ErrEndOfChain) {
				break
			}
			if err != nil {
				t.Fatalf("\t%s\tShould be able to iterate the chain: %v", failed, err)
			}
			count++
			last = block
		}
		t.Logf("\t%s\tShould be able to iterate the chain.", success)

		if count != start+blocks+1 {
			t.Fatalf("\t%s\tShould iterate %d blocks, got %d.", failed, start+blocks+1, count)
		}
		t.Logf("\t%s\tShould iterate %d blocks.", success, count)

		if !last.IsGenesis() || !iter.Done() || iter.Err() != nil {
			t.Fatalf("\t%s\tShould end the walk at the genesis block.", failed)
		}
		t.Logf("\t%s\tShould end the walk at the genesis block.", success)

		if _, err := iter.Next(); !errors.Is(err, database.ErrEndOfChain) {
			t.Fatalf("\t%s\tShould keep reporting the end of the chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould keep reporting the end of the chain.", success)

		block, err := db.ForEach().Next()
		if err != nil || block.Hash != db.Tip() {
			t.Fatalf("\t%s\tShould start a new walk at the tip: %v", failed, err)
		}
		t.Logf("\t%s\tShould start a new walk at the tip.", success)
	}
}

func Test_Integrity(t *testing.T) {
	gen := genesis.Genesis{Difficulty: 1, Beneficiary: "bill"}

	t.Log("Given the need to detect a damaged chain.")
	{
		t.Log("\tWhen a block is missing from storage.")
		{
			strg := memory.New()
			db := mustChain(t, strg, gen, 2)

			block, err := db.ForEach().Next()
			if err != nil {
				t.Fatalf("\t%s\tShould be able to read the tip: %v", failed, err)
			}
			strg.Delete([]byte(block.PrevHash))

			err = walk(db)
			if !errors.Is(err, database.ErrIntegrity) || errors.Is(err, database.ErrEndOfChain) {
				t.Fatalf("\t%s\tShould get an integrity error, got: %v", failed, err)
			}
			t.Logf("\t%s\tShould get an integrity error.", success)
		}

		t.Log("\tWhen a block record is corrupt.")
		{
			strg := memory.New()
			db := mustChain(t, strg, gen, 1)

			if err := strg.Put([]byte(db.Tip()), []byte("{not json")); err != nil {
				t.Fatalf("\t%s\tShould be able to damage the record: %v", failed, err)
			}

			if err := walk(db); !errors.Is(err, database.ErrIntegrity) {
				t.Fatalf("\t%s\tShould get an integrity error, got: %v", failed, err)
			}
			t.Logf("\t%s\tShould get an integrity error.", success)
		}

		t.Log("\tWhen a block was changed after mining.")
		{
			strg := memory.New()
			db := mustChain(t, strg, gen, 1)

			block, err := db.GetBlock(db.Tip())
			if err != nil {
				t.Fatalf("\t%s\tShould be able to read the tip: %v", failed, err)
			}
			block.TimeStamp++

			data, err := json.Marshal(block)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to marshal the block: %v", failed, err)
			}

			if err := strg.Put([]byte(db.Tip()), data); err != nil {
				t.Fatalf("\t%s\tShould be able to damage the record: %v", failed, err)
			}

			if err := walk(db); !errors.Is(err, database.ErrIntegrity) {
				t.Fatalf("\t%s\tShould get an integrity error, got: %v", failed, err)
			}
			t.Logf("\t%s\tShould get an integrity error.", success)
		}

		t.Log("\tWhen the height record is missing.")
		{
			strg := memory.New()
			mustChain(t, strg, gen, 0)
			strg.Delete([]byte("HEIGHT"))

			if _, err := database.New(strg, gen, nil); !errors.Is(err, database.ErrIntegrity) {
				t.Fatalf("\t%s\tShould refuse to reopen the chain, got: %v", failed, err)
			}
			t.Logf("\t%s\tShould refuse to reopen the chain.", success)
		}
	}
}

func Test_InvalidDifficulty(t *testing.T) {
	t.Log("Given the need to reject a difficulty that can't be solved.")
	{
		_, err := database.New(memory.New(), genesis.Genesis{Difficulty: database.MaxDifficulty + 1}, nil)
		if !errors.Is(err, database.ErrInvalidDifficulty) {
			t.Fatalf("\t%s\tShould get ErrInvalidDifficulty, got: %v", failed, err)
		}
		t.Logf("\t%s\tShould get ErrInvalidDifficulty.", success)
	}
}

func Test_RejectTrans(t *testing.T) {
	db := mustChain(t, memory.New(), genesis.Genesis{Difficulty: 1, Beneficiary: "bill"}, 0)

	coinbase := func(height uint64) database.Tx {
		tx, err := database.NewCoinbase("bill", "", height)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build a coinbase: %v", failed, err)
		}
		return tx
	}

	output := func(value int64) database.Tx {
		tx, err := database.NewTx(
			[]database.TxInput{{TxID: "abc", OutputIndex: 0, UnlockingData: "bill"}},
			[]database.TxOutput{{Value: value, LockingData: "jill"}, {Value: 1, LockingData: "bill"}},
		)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build a transaction: %v", failed, err)
		}
		return tx
	}

	noHeight, err := database.NewTx(
		[]database.TxInput{{TxID: "", OutputIndex: -1, UnlockingData: "Reward to 'bill'"}},
		[]database.TxOutput{{Value: database.Subsidy, LockingData: "bill"}},
	)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to build a transaction: %v", failed, err)
	}

	type table struct {
		name  string
		trans []database.Tx
		exp   error
	}

	tt := []table{
		{name: "genesis-height", trans: []database.Tx{coinbase(0)}, exp: database.ErrInvalidCoinbase},
		{name: "two-coinbases", trans: []database.Tx{coinbase(1), coinbase(1)}, exp: database.ErrInvalidCoinbase},
		{name: "no-height", trans: []database.Tx{noHeight}, exp: database.ErrInvalidCoinbase},
		{name: "zero-value", trans: []database.Tx{output(0)}, exp: database.ErrInvalidTransaction},
		{name: "negative-value", trans: []database.Tx{output(-5)}, exp: database.ErrInvalidTransaction},
		{name: "overflow", trans: []database.Tx{output(math.MaxInt64)}, exp: database.ErrInvalidTransaction},
	}

	t.Log("Given the need to reject invalid transactions before mining.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				_, err := db.AddBlock(context.Background(), tst.trans)
				if !errors.Is(err, tst.exp) {
					t.Fatalf("\t%s\tTest %d:\tShould get %v, got: %v", failed, testID, tst.exp, err)
				}
				t.Logf("\t%s\tTest %d:\tShould get %v.", success, testID, tst.exp)

				if db.Height() != 0 {
					t.Fatalf("\t%s\tTest %d:\tShould leave the chain untouched.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould leave the chain untouched.", success, testID)
			}

			t.Run(tst.name, f)
		}
	}
}

// =============================================================================

func mustChain(t *testing.T, strg database.Storage, gen genesis.Genesis, blocks int) *database.Database {
	t.Helper()

	db, err := database.New(strg, gen, nil)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open the database: %v", failed, err)
	}

	for j := 0; j < blocks; j++ {
		if _, err := db.AddBlock(context.Background(), nil); err != nil {
			t.Fatalf("\t%s\tShould be able to add a block: %v", failed, err)
		}
	}

	return db
}

func walk(db *database.Database) error {
	iter := db.ForEach()
	for {
		_, err := iter.Next()
		if err != nil {
			return err
		}
	}
}
