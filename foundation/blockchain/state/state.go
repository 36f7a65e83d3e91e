// Package state is the core API for the blockchain and implements all the
// business rules and processing. It serializes every call into the database
// so the chain keeps a single writer when used from many goroutines.
package state

import (
	"sync"

	"github.com/ardanlabs/powledger/foundation/blockchain/balance"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/genesis"
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	MinerAddress string
	Storage      database.Storage
	Genesis      genesis.Genesis
	Authorizer   database.Authorizer
	EvHandler    EventHandler
}

// State manages the blockchain database.
type State struct {
	mu sync.Mutex

	minerAddress string
	evHandler    EventHandler

	db    *database.Database
	sheet *balance.Sheet
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// Open the chain in the storage, mining the genesis block when the
	// storage is empty.
	db, err := database.New(cfg.Storage, cfg.Genesis, database.EventHandler(ev))
	if err != nil {
		return nil, err
	}

	state := State{
		minerAddress: cfg.MinerAddress,
		evHandler:    ev,
		db:           db,
		sheet:        balance.NewSheet(db, cfg.Authorizer),
	}

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	return s.db.Close()
}
