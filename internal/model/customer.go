package model

import "time"

// Customer is one row of the retail customers table, read-only to the sync
// engine apart from the Synced flag. Retail Pro exports flags and monetary
// values as strings; they are kept as stored and parsed at transform time.
type Customer struct {
	SID               string
	CustID            string
	LastName          string
	FirstName         string
	Email             string
	MarketingFlag     string // "0" / "1"
	LoyaltyOptIn      string // "0" / "1"
	LoyaltyBalance    string
	TotalTransactions int32
	SaleItemCount     int32
	ReturnItemCount   int32
	YTDSale           string
	CreatedAt         time.Time
	Synced            bool
}
