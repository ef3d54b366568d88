package market

import (
	"crypto/rand"
	"encoding/hex"
	mrand "math/rand/v2"

	"github.com/google/uuid"
)

// Settlement is the opaque reference an external settlement system would
// attach to a trade. It is never verified here.
type Settlement struct {
	TransactionHash string
	BlockNumber     int64
}

// RefGenerator hands out identifiers and settlement references.
type RefGenerator interface {
	ListingID() string
	TransactionID() string
	Settlement() Settlement
}

// RandomRefs generates UUID identifiers and random placeholder settlement
// references.
type RandomRefs struct{}

func (RandomRefs) ListingID() string {
	return "listing_" + uuid.NewString()
}

func (RandomRefs) TransactionID() string {
	return "tx_" + uuid.NewString()
}

func (RandomRefs) Settlement() Settlement {
	var b [32]byte
	_, _ = rand.Read(b[:])

	return Settlement{
		TransactionHash: "0x" + hex.EncodeToString(b[:]),
		BlockNumber:     1000 + mrand.Int64N(10000),
	}
}
