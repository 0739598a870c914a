package model

import "time"

// Order is one row of the retail documents table together with its line
// items. Monetary amounts and flags arrive as strings from the Retail Pro
// export and are parsed with explicit rules at transform time.
type Order struct {
	SID              string
	DocNo            string
	BillToCUID       string
	BillToEmail      string
	ShipToCUID       string
	ShipToEmail      string
	SaleTotalAmt     string
	SaleSubtotal     string
	SaleTotalTaxAmt  string
	TotalDiscountAmt string
	ShippingAmt      string
	SoldQty          int32
	ReturnQty        int32
	CurrencyName     string
	TenderName       string
	StoreCode        string
	SubsidiaryNo     string
	ShipMethod       string
	HasSale          string // "0" / "1"
	HasReturn        string // "0" / "1"
	PostDate         *time.Time
	CreatedAt        time.Time
	Synced           bool

	Items []OrderItem
}

// OrderItem is one line of an order, joined onto its parent by the extractor.
type OrderItem struct {
	SID         string
	DocSID      string
	ItemPos     int32
	ALU         string
	Description string
	DCSCode     string
	VendorCode  string
	Qty         string
	Price       string
	OrigPrice   string
	DiscountAmt string
	ItemSize    string
	Attribute   string
	InvnItemSID string
}
