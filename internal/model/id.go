package model

import (
	"crypto/rand"

	"github.com/btcsuite/btcutil/base58"
)

const idEntropyBytes = 20

// NewID returns a random 160-bit identifier in Base58, the scheme shared by
// pull payments and payouts.
func NewID() string {
	buf := make([]byte, idEntropyBytes)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(err)
	}

	return base58.Encode(buf)
}
