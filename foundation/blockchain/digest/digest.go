// Package digest provides the canonical hashing used for blocks and
// transactions. Values are RLP encoded, so field order is fixed by the
// struct layout, and then run through SHA-256.
package digest

import (
	"crypto/sha256"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0000000000000000000000000000000000000000000000000000000000000000"

// Hash returns the lowercase hex SHA-256 of the RLP encoding of the value.
func Hash(value any) (string, error) {
	data, err := rlp.EncodeToBytes(value)
	if err != nil {
		return ZeroHash, err
	}

	hash := sha256.Sum256(data)
	return common.Bytes2Hex(hash[:]), nil
}

// Signed converts a signed integer into the two's complement form RLP can
// carry. RLP has no notion of a negative number.
func Signed(v int64) uint64 {
	return uint64(v)
}
