package models

import "time"

// MaxTickerLength is the longest ticker symbol accepted at registration.
const MaxTickerLength = 12

// Stock represents a tracked equity ticker
type Stock struct {
	ID        int64     `json:"id"`
	Ticker    string    `json:"ticker"`
	Name      string    `json:"name,omitempty"`
	Exchange  string    `json:"exchange,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
