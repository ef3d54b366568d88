package market

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TxStatus is the settlement state of a ledger entry.
type TxStatus string

const (
	TxPending   TxStatus = "pending"
	TxConfirmed TxStatus = "confirmed"
	TxFailed    TxStatus = "failed"
)

func (s TxStatus) Valid() bool {
	switch s {
	case TxPending, TxConfirmed, TxFailed:
		return true
	}

	return false
}

// Transaction is an immutable ledger entry for one purchase. Party names,
// price and source are copied from the listing at purchase time.
type Transaction struct {
	ID              string          `json:"id"`
	ListingID       string          `json:"listingId"`
	BuyerID         string          `json:"buyerId"`
	BuyerName       string          `json:"buyerName"`
	SellerID        string          `json:"sellerId"`
	SellerName      string          `json:"sellerName"`
	EnergyAmount    decimal.Decimal `json:"energyAmount"`
	PricePerKwh     decimal.Decimal `json:"pricePerKwh"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	TransactionHash string          `json:"transactionHash"`
	BlockNumber     int64           `json:"blockNumber"`
	Status          TxStatus        `json:"status"`
	Timestamp       time.Time       `json:"timestamp"`
	EnergySource    Source          `json:"energySource"`
}

func (t *Transaction) Check() error {
	switch {
	case t.ID == "":
		return errors.New("transaction without id")
	case !t.Status.Valid():
		return fmt.Errorf("transaction %s: unknown status %q", t.ID, t.Status)
	case !t.EnergyAmount.IsPositive():
		return fmt.Errorf("transaction %s: non-positive energy amount", t.ID)
	}

	return nil
}
