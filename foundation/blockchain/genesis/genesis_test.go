package genesis_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Load(t *testing.T) {
	const content = `{
		"date": "2026-10-19T00:00:00Z",
		"difficulty": 2,
		"beneficiary": "bill",
		"memo": "The Times 03/Jan/2009"
	}`

	path := filepath.Join(t.TempDir(), "genesis.json")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Should be able to write the genesis file: %s", err)
	}

	t.Log("Given the need to load a genesis file.")
	{
		gen, err := genesis.Load(path)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the genesis file: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to load the genesis file.", success)

		if gen.Difficulty != 2 || gen.Beneficiary != "bill" || gen.Memo != "The Times 03/Jan/2009" {
			t.Fatalf("\t%s\tShould get back the genesis values: %+v", failed, gen)
		}
		t.Logf("\t%s\tShould get back the genesis values.", success)

		if _, err := genesis.Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
			t.Fatalf("\t%s\tShould fail to load a missing file.", failed)
		}
		t.Logf("\t%s\tShould fail to load a missing file.", success)
	}
}
