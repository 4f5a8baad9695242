package models

import "gorm.io/gorm"

// Opportunity is a persisted arbitrage opportunity from one scan. Amounts are
// stored as floats; persistence is a reporting boundary, exact decimals live
// only in the scan pipeline.
type Opportunity struct {
	gorm.Model
	Route         string  `json:"route"` // pair symbols joined by " -> "
	Anchor        string  `json:"anchor"`
	InitialAmount float64 `json:"initial_amount"`
	FinalAmount   float64 `json:"final_amount"`
	ProfitPct     float64 `json:"profit_percentage"`
	ScanAt        int64   `json:"scan_at"`
	Legs          []TradeLeg
}

// TradeLeg is one simulated trade of a persisted opportunity.
type TradeLeg struct {
	gorm.Model
	OpportunityID   uint    `json:"-"`
	Symbol          string  `json:"pair"`
	Action          string  `json:"action"` // "BUY" or "SELL"
	Price           float64 `json:"price"`
	ResultingAmount float64 `json:"resulting_amount"`
}
