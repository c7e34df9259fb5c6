package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/trogers1052/ticker-watch/internal/database"
	"github.com/trogers1052/ticker-watch/internal/models"
	"github.com/trogers1052/ticker-watch/internal/provider"
)

// mockStore implements Store in memory for testing
type mockStore struct {
	mu       sync.Mutex
	stocks   map[int64]*models.Stock
	earnings map[string]*models.EarningsCall // key: stockID:quarter

	updateErr   error
	existsErr   error
	batchErr    error
	batchCalls  int
	updateCalls int
}

func newMockStore() *mockStore {
	return &mockStore{
		stocks:   make(map[int64]*models.Stock),
		earnings: make(map[string]*models.EarningsCall),
	}
}

func (m *mockStore) addStock(s *models.Stock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stocks[s.ID] = s
}

func (m *mockStore) GetStockByID(id int64) (*models.Stock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stocks[id]
	if !ok {
		return nil, database.ErrStockNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockStore) UpdateStockProfile(id int64, name, exchange string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if m.updateErr != nil {
		return m.updateErr
	}
	s, ok := m.stocks[id]
	if !ok {
		return database.ErrStockNotFound
	}
	s.Name = name
	s.Exchange = exchange
	return nil
}

func (m *mockStore) EarningsCallExists(stockID int64, quarter string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.earnings[earningsKey(stockID, quarter)]
	return ok, nil
}

func (m *mockStore) CreateEarningsCallBatch(calls []*models.EarningsCall) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++
	if m.batchErr != nil {
		return m.batchErr
	}
	for i, c := range calls {
		c.ID = int64(len(m.earnings) + i + 1)
		m.earnings[earningsKey(c.StockID, c.Quarter)] = c
	}
	return nil
}

func (m *mockStore) earningsCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.earnings)
}

func (m *mockStore) earningsFor(stockID int64, quarter string) *models.EarningsCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.earnings[earningsKey(stockID, quarter)]
}

func earningsKey(stockID int64, quarter string) string {
	return fmt.Sprintf("%d:%s", stockID, quarter)
}

// mockGateway implements Gateway with canned responses
type mockGateway struct {
	profile     *provider.Profile
	profileErr  error
	events      []provider.EarningsEvent
	earningsErr error
}

func (m *mockGateway) GetProfile(_ context.Context, _ string) (*provider.Profile, error) {
	if m.profileErr != nil {
		return nil, m.profileErr
	}
	return m.profile, nil
}

func (m *mockGateway) GetEarningsHistory(_ context.Context, _ string) ([]provider.EarningsEvent, error) {
	if m.earningsErr != nil {
		return nil, m.earningsErr
	}
	return m.events, nil
}
