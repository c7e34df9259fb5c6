package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/trogers1052/ticker-watch/internal/database"
	"github.com/trogers1052/ticker-watch/internal/models"
	"github.com/trogers1052/ticker-watch/internal/provider"
	"github.com/trogers1052/ticker-watch/internal/scheduler"
)

// Snapshot fetches a stock's profile metadata from the provider and
// merges it into the stored row. A success event from this job causes
// the chainer to enqueue the earnings fetch for the same stock.
type Snapshot struct {
	store    Store
	provider Gateway
}

// NewSnapshot creates the snapshot task
func NewSnapshot(store Store, gw Gateway) *Snapshot {
	return &Snapshot{store: store, provider: gw}
}

// Handle executes one snapshot job
func (t *Snapshot) Handle(ctx context.Context, job *models.Job) (scheduler.Result, error) {
	stock, err := t.store.GetStockByID(job.StockID)
	if errors.Is(err, database.ErrStockNotFound) {
		// Existence is re-checked here because jobs may run long after
		// enqueue. A vanished stock is a terminal, non-retried outcome.
		log.Printf("stock %d not found for refresh", job.StockID)
		return scheduler.Result{
			"status":   "not_found",
			"stock_id": job.StockID,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load stock %d: %w", job.StockID, err)
	}

	log.Printf("refreshing ticker %s (#%d)", stock.Ticker, stock.ID)

	profile, err := t.provider.GetProfile(ctx, stock.Ticker)
	if err != nil {
		if provider.IsTransient(err) {
			return nil, scheduler.Retryable(err)
		}
		return nil, fmt.Errorf("profile lookup failed for %s: %w", stock.Ticker, err)
	}

	// Prefer provider values, falling back to what is already stored
	// when the provider omits a field.
	name := firstNonEmpty(profile.LongName, profile.ShortName, stock.Name)
	exchange := firstNonEmpty(profile.Exchange, profile.FullExchangeName, stock.Exchange)

	if err := t.store.UpdateStockProfile(stock.ID, name, exchange); err != nil {
		return nil, fmt.Errorf("failed to update stock %d: %w", stock.ID, err)
	}

	log.Printf("updated ticker %s -> name=%q exchange=%q", stock.Ticker, name, exchange)

	return scheduler.Result{
		"status":   "ok",
		"stock_id": stock.ID,
		"ticker":   stock.Ticker,
		"name":     name,
		"exchange": exchange,
	}, nil
}
