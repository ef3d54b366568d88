package transaction

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/gridshare/internal/market"
)

type transactionResponse struct {
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
	Status          market.TxStatus `json:"status"`
	Timestamp       time.Time       `json:"timestamp"`
	EnergySource    market.Source   `json:"energySource"`
}

func toResponse(tx market.Transaction) transactionResponse {
	return transactionResponse{
		ID:              tx.ID,
		ListingID:       tx.ListingID,
		BuyerID:         tx.BuyerID,
		BuyerName:       tx.BuyerName,
		SellerID:        tx.SellerID,
		SellerName:      tx.SellerName,
		EnergyAmount:    tx.EnergyAmount,
		PricePerKwh:     tx.PricePerKwh,
		TotalAmount:     tx.TotalAmount,
		TransactionHash: tx.TransactionHash,
		BlockNumber:     tx.BlockNumber,
		Status:          tx.Status,
		Timestamp:       tx.Timestamp,
		EnergySource:    tx.EnergySource,
	}
}

func toResponseList(txs []market.Transaction) []transactionResponse {
	resp := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		resp[i] = toResponse(tx)
	}

	return resp
}
