package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/trogers1052/ticker-watch/internal/models"
)

// EarningsCallExists reports whether an earnings call is already stored
// for the given stock and fiscal quarter label.
func (db *DB) EarningsCallExists(stockID int64, quarter string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM earnings_calls
			WHERE stock_id = $1 AND quarter = $2
		)
	`
	var exists bool
	if err := db.conn.QueryRow(query, stockID, quarter).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check earnings call existence: %w", err)
	}
	return exists, nil
}

// CreateEarningsCallBatch inserts multiple earnings calls in a single transaction
func (db *DB) CreateEarningsCallBatch(calls []*models.EarningsCall) error {
	if len(calls) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO earnings_calls (
			stock_id, date, quarter, fiscal_year, fiscal_quarter,
			title, content, source_url, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, c := range calls {
		err := stmt.QueryRow(
			c.StockID, c.Date, c.Quarter, c.FiscalYear, c.FiscalQuarter,
			c.Title, c.Content, nullString(c.SourceURL), now, now,
		).Scan(&c.ID)
		if err != nil {
			return fmt.Errorf("failed to insert earnings call for %s: %w", c.Quarter, err)
		}
		c.CreatedAt = now
		c.UpdatedAt = now
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetEarningsCallsByStockID retrieves all earnings calls for a stock,
// newest first
func (db *DB) GetEarningsCallsByStockID(stockID int64) ([]*models.EarningsCall, error) {
	query := `
		SELECT id, stock_id, date, quarter, fiscal_year, fiscal_quarter,
		       title, content, source_url, created_at, updated_at
		FROM earnings_calls
		WHERE stock_id = $1
		ORDER BY date DESC
	`
	rows, err := db.conn.Query(query, stockID)
	if err != nil {
		return nil, fmt.Errorf("failed to list earnings calls: %w", err)
	}
	defer rows.Close()

	var calls []*models.EarningsCall
	for rows.Next() {
		var c models.EarningsCall
		var sourceURL sql.NullString

		err := rows.Scan(
			&c.ID, &c.StockID, &c.Date, &c.Quarter, &c.FiscalYear, &c.FiscalQuarter,
			&c.Title, &c.Content, &sourceURL, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan earnings call: %w", err)
		}
		if sourceURL.Valid {
			c.SourceURL = sourceURL.String
		}
		calls = append(calls, &c)
	}
	return calls, rows.Err()
}
