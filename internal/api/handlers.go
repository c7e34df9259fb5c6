package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/trogers1052/ticker-watch/internal/database"
	"github.com/trogers1052/ticker-watch/internal/models"
	"github.com/trogers1052/ticker-watch/internal/tasks"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.\-]{1,12}$`)

// Store defines the database operations the HTTP layer needs
type Store interface {
	CreateStock(s *models.Stock) error
	GetStockByID(id int64) (*models.Stock, error)
	GetAllStocks() ([]*models.Stock, error)
	GetEarningsCallsByStockID(stockID int64) ([]*models.EarningsCall, error)
	GetJob(ctx context.Context, id string) (*models.Job, error)
	ListJobs(ctx context.Context, limit int) ([]*models.Job, error)
}

// Enqueuer schedules background jobs
type Enqueuer interface {
	Enqueue(ctx context.Context, name string, stockID int64) (string, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	store     Store
	scheduler Enqueuer
}

// NewHandler creates a new Handler
func NewHandler(store Store, scheduler Enqueuer) *Handler {
	return &Handler{
		store:     store,
		scheduler: scheduler,
	}
}

// AddStock handles POST /stocks?ticker=SYM. It registers the ticker and
// queues the initial snapshot fetch.
func (h *Handler) AddStock(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("ticker")
	if ticker == "" {
		var req struct {
			Ticker string `json:"ticker"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			ticker = req.Ticker
		}
	}

	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		http.Error(w, "ticker is required", http.StatusBadRequest)
		return
	}
	if !tickerPattern.MatchString(ticker) {
		http.Error(w, "invalid ticker format", http.StatusBadRequest)
		return
	}

	stock := &models.Stock{Ticker: ticker}
	if err := h.store.CreateStock(stock); err != nil {
		if errors.Is(err, database.ErrDuplicateTicker) {
			http.Error(w, "ticker already exists", http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	taskID, err := h.scheduler.Enqueue(r.Context(), tasks.JobSnapshot, stock.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"status":   "queued",
		"ticker":   stock.Ticker,
		"stock_id": stock.ID,
		"task_id":  taskID,
	})
}

// StartRefresh handles POST /stocks/{id}/start. It re-queues the
// snapshot fetch for an existing stock.
func (h *Handler) StartRefresh(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid stock id", http.StatusBadRequest)
		return
	}

	stock, err := h.store.GetStockByID(id)
	if err != nil {
		if errors.Is(err, database.ErrStockNotFound) {
			http.Error(w, "stock not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	taskID, err := h.scheduler.Enqueue(r.Context(), tasks.JobSnapshot, stock.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"status":  "queued",
		"task_id": taskID,
	})
}

// GetAllStocks handles GET /stocks
func (h *Handler) GetAllStocks(w http.ResponseWriter, r *http.Request) {
	stocks, err := h.store.GetAllStocks()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if stocks == nil {
		stocks = []*models.Stock{}
	}

	respondJSON(w, http.StatusOK, stocks)
}

// GetStockEarnings handles GET /stocks/{id}/earnings
func (h *Handler) GetStockEarnings(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "invalid stock id", http.StatusBadRequest)
		return
	}

	if _, err := h.store.GetStockByID(id); err != nil {
		if errors.Is(err, database.ErrStockNotFound) {
			http.Error(w, "stock not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	calls, err := h.store.GetEarningsCallsByStockID(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if calls == nil {
		calls = []*models.EarningsCall{}
	}

	respondJSON(w, http.StatusOK, calls)
}

// GetJob handles GET /jobs/{id} so callers can poll an async operation
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	job, err := h.store.GetJob(r.Context(), vars["id"])
	if err != nil {
		if errors.Is(err, database.ErrJobNotFound) {
			http.Error(w, "job not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /jobs
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.store.ListJobs(r.Context(), 100)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if jobs == nil {
		jobs = []*models.Job{}
	}

	respondJSON(w, http.StatusOK, jobs)
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
