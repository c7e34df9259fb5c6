package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trogers1052/ticker-watch/internal/database"
	"github.com/trogers1052/ticker-watch/internal/models"
	"github.com/trogers1052/ticker-watch/internal/provider"
	"github.com/trogers1052/ticker-watch/internal/scheduler"
)

const periodDateFormat = "2006-01-02"

// Earnings fetches historical earnings events for a stock, maps each to
// a fiscal quarter, and stores the ones not already present.
type Earnings struct {
	store    Store
	provider Gateway
}

// NewEarnings creates the earnings task
func NewEarnings(store Store, gw Gateway) *Earnings {
	return &Earnings{store: store, provider: gw}
}

// Handle executes one earnings job
func (t *Earnings) Handle(ctx context.Context, job *models.Job) (scheduler.Result, error) {
	stock, err := t.store.GetStockByID(job.StockID)
	if errors.Is(err, database.ErrStockNotFound) {
		log.Printf("stock %d not found for earnings fetch", job.StockID)
		return scheduler.Result{
			"status":   "not_found",
			"stock_id": job.StockID,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load stock %d: %w", job.StockID, err)
	}

	log.Printf("fetching earnings calls for %s (#%d)", stock.Ticker, stock.ID)

	events, err := t.provider.GetEarningsHistory(ctx, stock.Ticker)
	if err != nil {
		if provider.IsTransient(err) {
			return nil, scheduler.Retryable(err)
		}
		var fe *provider.FormatError
		if errors.As(err, &fe) {
			// A malformed payload will not improve on retry; report it
			// as a terminal result instead of failing the job.
			return scheduler.Result{
				"status":   "error",
				"stock_id": stock.ID,
				"ticker":   stock.Ticker,
				"error":    fe.Error(),
			}, nil
		}
		return nil, fmt.Errorf("earnings lookup failed for %s: %w", stock.Ticker, err)
	}

	if len(events) == 0 {
		log.Printf("no earnings history found for %s", stock.Ticker)
		return scheduler.Result{
			"status":   "no_data",
			"stock_id": stock.ID,
			"ticker":   stock.Ticker,
		}, nil
	}

	var newCalls []*models.EarningsCall
	queued := make(map[string]bool)
	skipped := 0

	for _, ev := range events {
		reportDate, err := time.Parse(periodDateFormat, ev.Quarter)
		if err != nil {
			// One bad row never aborts the whole job.
			log.Printf("skipping earnings event for %s: bad period %q", stock.Ticker, ev.Quarter)
			skipped++
			continue
		}

		fiscalQuarter := (int(reportDate.Month())-1)/3 + 1
		year := reportDate.Year()
		quarter := fmt.Sprintf("%dQ%d", year, fiscalQuarter)

		// Two provider events can land in the same fiscal quarter; only
		// the first one in this batch is kept.
		if queued[quarter] {
			continue
		}

		exists, err := t.store.EarningsCallExists(stock.ID, quarter)
		if err != nil {
			return nil, scheduler.Retryable(fmt.Errorf("failed to check %s %s: %w", stock.Ticker, quarter, err))
		}
		if exists {
			continue
		}

		queued[quarter] = true
		name := firstNonEmpty(stock.Name, stock.Ticker)
		newCalls = append(newCalls, &models.EarningsCall{
			StockID:       stock.ID,
			Date:          reportDate,
			Quarter:       quarter,
			FiscalYear:    year,
			FiscalQuarter: fiscalQuarter,
			Title:         fmt.Sprintf("%s (%s) Q%d %d Earnings Call", name, stock.Ticker, fiscalQuarter, year),
			Content:       formatContent(ev),
		})
	}

	// Only touch the database when there is something to insert.
	if len(newCalls) > 0 {
		if err := t.store.CreateEarningsCallBatch(newCalls); err != nil {
			return nil, scheduler.Retryable(fmt.Errorf("failed to store earnings calls for %s: %w", stock.Ticker, err))
		}
	}

	log.Printf("added %d earnings calls for %s (%d skipped)", len(newCalls), stock.Ticker, skipped)

	return scheduler.Result{
		"status":         "ok",
		"stock_id":       stock.ID,
		"ticker":         stock.Ticker,
		"earnings_added": len(newCalls),
		"skipped":        skipped,
	}, nil
}

func formatContent(ev provider.EarningsEvent) string {
	return fmt.Sprintf(
		"Earnings Details:\nEPS Estimate: %s\nEPS Actual: %s\nEPS Difference: %s\nSurprise %%: %s%%",
		formatEps(ev.EpsEstimate),
		formatEps(ev.EpsActual),
		formatEps(ev.EpsDifference),
		formatSurprise(ev.SurprisePercent),
	)
}

func formatEps(d decimal.NullDecimal) string {
	if !d.Valid {
		return "N/A"
	}
	return d.Decimal.String()
}

// formatSurprise renders the fractional surprise as a percentage with
// two decimal places, e.g. 0.0537 -> "5.37".
func formatSurprise(d decimal.NullDecimal) string {
	if !d.Valid {
		return "N/A"
	}
	return d.Decimal.Mul(decimal.NewFromInt(100)).StringFixed(2)
}
