// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"os"
	"time"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date        time.Time `json:"date"`
	Difficulty  uint      `json:"difficulty"`  // How difficult it needs to be to solve the work problem.
	Beneficiary string    `json:"beneficiary"` // Address receiving the coinbase of the genesis block.
	Memo        string    `json:"memo"`        // Unlocking data recorded in the genesis coinbase.
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	err = json.Unmarshal(content, &genesis)
	if err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}
