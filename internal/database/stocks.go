package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/trogers1052/ticker-watch/internal/models"
)

// ErrDuplicateTicker is returned when a ticker is already registered.
var ErrDuplicateTicker = errors.New("ticker already exists")

// ErrStockNotFound is returned when a stock lookup matches no row.
var ErrStockNotFound = errors.New("stock not found")

// CreateStock inserts a new stock row. The ticker must already be
// normalized to uppercase by the caller.
func (db *DB) CreateStock(s *models.Stock) error {
	query := `
		INSERT INTO stocks (ticker, name, exchange, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	now := time.Now()
	err := db.conn.QueryRow(query, s.Ticker, nullString(s.Name), nullString(s.Exchange), now, now).Scan(&s.ID)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicateTicker
	}
	if err != nil {
		return fmt.Errorf("failed to create stock: %w", err)
	}
	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

// GetStockByID retrieves a stock by its surrogate id
func (db *DB) GetStockByID(id int64) (*models.Stock, error) {
	query := `
		SELECT id, ticker, name, exchange, created_at, updated_at
		FROM stocks
		WHERE id = $1
	`
	return db.scanStock(db.conn.QueryRow(query, id))
}

// GetStockByTicker retrieves a stock by ticker symbol
func (db *DB) GetStockByTicker(ticker string) (*models.Stock, error) {
	query := `
		SELECT id, ticker, name, exchange, created_at, updated_at
		FROM stocks
		WHERE ticker = $1
	`
	return db.scanStock(db.conn.QueryRow(query, ticker))
}

// GetAllStocks retrieves all stocks ordered by ticker
func (db *DB) GetAllStocks() ([]*models.Stock, error) {
	query := `
		SELECT id, ticker, name, exchange, created_at, updated_at
		FROM stocks
		ORDER BY ticker ASC
	`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list stocks: %w", err)
	}
	defer rows.Close()

	var stocks []*models.Stock
	for rows.Next() {
		s, err := db.scanStock(rows)
		if err != nil {
			return nil, err
		}
		stocks = append(stocks, s)
	}
	return stocks, rows.Err()
}

// UpdateStockProfile updates the name and exchange fields for a stock
func (db *DB) UpdateStockProfile(id int64, name, exchange string) error {
	query := `
		UPDATE stocks
		SET name = $2, exchange = $3, updated_at = $4
		WHERE id = $1
	`
	res, err := db.conn.Exec(query, id, nullString(name), nullString(exchange), time.Now())
	if err != nil {
		return fmt.Errorf("failed to update stock profile: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrStockNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (db *DB) scanStock(row rowScanner) (*models.Stock, error) {
	var s models.Stock
	var name, exchange sql.NullString

	err := row.Scan(&s.ID, &s.Ticker, &name, &exchange, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrStockNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan stock: %w", err)
	}

	if name.Valid {
		s.Name = name.String
	}
	if exchange.Valid {
		s.Exchange = exchange.String
	}
	return &s, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
