// Package tasks contains the background job bodies: the stock snapshot
// fetch and the chained earnings-call fetch.
package tasks

import (
	"context"

	"github.com/trogers1052/ticker-watch/internal/models"
	"github.com/trogers1052/ticker-watch/internal/provider"
)

// Job kind names. These are the identifiers stored on job rows and used
// by the chain table.
const (
	JobSnapshot = "stock.snapshot"
	JobEarnings = "stock.earnings"
	JobPing     = "debug.ping"
)

// Chain returns the declarative job chaining table: a successful run of
// the key enqueues the value for the same stock.
func Chain() map[string]string {
	return map[string]string{
		JobSnapshot: JobEarnings,
	}
}

// Store defines the database operations the tasks need
type Store interface {
	GetStockByID(id int64) (*models.Stock, error)
	UpdateStockProfile(id int64, name, exchange string) error
	EarningsCallExists(stockID int64, quarter string) (bool, error)
	CreateEarningsCallBatch(calls []*models.EarningsCall) error
}

// Gateway defines the market data provider operations the tasks need
type Gateway interface {
	GetProfile(ctx context.Context, ticker string) (*provider.Profile, error)
	GetEarningsHistory(ctx context.Context, ticker string) ([]provider.EarningsEvent, error)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
