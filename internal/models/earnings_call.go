package models

import "time"

// EarningsCall represents one quarterly earnings event stored for a stock.
// At most one row exists per (stock_id, quarter); the earnings task checks
// for an existing row before inserting.
type EarningsCall struct {
	ID            int64     `json:"id"`
	StockID       int64     `json:"stock_id"`
	Date          time.Time `json:"date"`
	Quarter       string    `json:"quarter"` // e.g. "2025Q4"
	FiscalYear    int       `json:"fiscal_year"`
	FiscalQuarter int       `json:"fiscal_quarter"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	SourceURL     string    `json:"source_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
