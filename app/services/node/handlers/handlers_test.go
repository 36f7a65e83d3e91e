package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ardanlabs/powledger/app/services/node/handlers"
	"github.com/ardanlabs/powledger/business/web/errs"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/database/storage/memory"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
	"github.com/ardanlabs/powledger/foundation/events"
	"github.com/ardanlabs/powledger/foundation/logger"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type balanceResp struct {
	Balance int64  `json:"balance"`
	Height  uint64 `json:"height"`
}

func newMux(t *testing.T) http.Handler {
	log, err := logger.New("TEST")
	if err != nil {
		t.Fatalf("constructing logger: %v", err)
	}

	st, err := state.New(state.Config{
		MinerAddress: "miner",
		Storage:      memory.New(),
		Genesis:      genesis.Genesis{Difficulty: 1, Beneficiary: "bill"},
	})
	if err != nil {
		t.Fatalf("constructing state: %v", err)
	}
	t.Cleanup(func() { st.Shutdown() })

	return handlers.PublicMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      log,
		State:    st,
		Evts:     events.New(),
	})
}

func do(mux http.Handler, method string, path string, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func Test_Routes(t *testing.T) {
	mux := newMux(t)

	t.Log("Given the need to use the ledger through the public api.")
	{
		w := do(mux, http.MethodPost, "/v1/tx/send", `{"from":"bill","to":"jill","amount":40}`)
		if w.Code != http.StatusCreated {
			t.Fatalf("\t%s\tShould be able to send value: %d %s", failed, w.Code, w.Body)
		}
		var block database.Block
		if err := json.Unmarshal(w.Body.Bytes(), &block); err != nil || block.Height != 1 {
			t.Fatalf("\t%s\tShould receive the mined block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to send value.", success)

		for address, exp := range map[string]int64{"bill": 60, "jill": 40, "miner": 100} {
			w := do(mux, http.MethodGet, "/v1/balances/"+address, "")
			var resp balanceResp
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || w.Code != http.StatusOK || resp.Balance != exp {
				t.Fatalf("\t%s\tShould have a balance of %d for %s: %d %s", failed, exp, address, w.Code, w.Body)
			}
			t.Logf("\t%s\tShould have a balance of %d for %s.", success, exp, address)
		}

		w = do(mux, http.MethodGet, "/v1/blocks/"+block.Hash, "")
		if w.Code != http.StatusOK {
			t.Fatalf("\t%s\tShould find the block by hash: %d", failed, w.Code)
		}
		t.Logf("\t%s\tShould find the block by hash.", success)

		w = do(mux, http.MethodGet, "/v1/blocks/list", "")
		var blocks []database.Block
		if err := json.Unmarshal(w.Body.Bytes(), &blocks); err != nil || len(blocks) != 2 || blocks[0].Hash != block.Hash {
			t.Fatalf("\t%s\tShould list the chain from the tip: %s", failed, w.Body)
		}
		t.Logf("\t%s\tShould list the chain from the tip.", success)
	}

	t.Log("Given the need to reject bad requests.")
	{
		w := do(mux, http.MethodGet, "/v1/blocks/"+strings.Repeat("f", 64), "")
		if w.Code != http.StatusNotFound {
			t.Fatalf("\t%s\tShould respond 404 for an unknown block: %d", failed, w.Code)
		}
		t.Logf("\t%s\tShould respond 404 for an unknown block.", success)

		w = do(mux, http.MethodPost, "/v1/tx/send", `{"from":"jill","to":"bill","amount":41}`)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("\t%s\tShould respond 400 when overspending: %d", failed, w.Code)
		}
		t.Logf("\t%s\tShould respond 400 when overspending.", success)

		coinbase := `{"trans":[{"inputs":[{"tx_id":"","output_index":-1,"unlocking_data":"0:Reward to 'jill'"}],"outputs":[{"value":100,"locking_data":"jill"}]}]}`
		w = do(mux, http.MethodPost, "/v1/blocks/add", coinbase)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("\t%s\tShould respond 400 for a coinbase at the wrong height: %d %s", failed, w.Code, w.Body)
		}
		t.Logf("\t%s\tShould respond 400 for a coinbase at the wrong height.", success)

		w = do(mux, http.MethodPost, "/v1/tx/send", `{"from":"jill","to":"jill","amount":0}`)
		var er errs.Response
		if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil || w.Code != http.StatusBadRequest || len(er.Fields) != 2 {
			t.Fatalf("\t%s\tShould report each invalid field: %d %s", failed, w.Code, w.Body)
		}
		t.Logf("\t%s\tShould report each invalid field.", success)
	}
}
