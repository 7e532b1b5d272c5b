package admin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/freshpress/portal-bff-go/internal/domain"
	"github.com/freshpress/portal-bff-go/internal/infra/cache"
)

type staticCreds string

func (s staticCreds) Credential() string { return string(s) }

type mockAdminAPI struct {
	mu         sync.Mutex
	statsCalls int
	revCalls   int
	statsErr   error
}

func (m *mockAdminAPI) Stats(context.Context, string) (*domain.AdminStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statsCalls++
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	return &domain.AdminStats{TotalOrders: 120, PendingOrders: 7, TotalRevenue: 850000, ActiveUsers: 40}, nil
}

func (m *mockAdminAPI) RecentOrders(_ context.Context, _ string, limit int) ([]domain.Order, error) {
	orders := make([]domain.Order, 0, limit)
	for i := 0; i < limit; i++ {
		orders = append(orders, domain.Order{ID: string(rune('a' + i)), Status: domain.StatusPending})
	}
	return orders, nil
}

func (m *mockAdminAPI) Users(context.Context, string, int, int) ([]domain.UserSummary, error) {
	return nil, nil
}

func (m *mockAdminAPI) Inventory(context.Context, string) ([]domain.InventoryItem, error) {
	return nil, nil
}

func (m *mockAdminAPI) AddInventoryItem(_ context.Context, _ string, item *domain.InventoryItem) (*domain.InventoryItem, error) {
	created := *item
	created.ID = "inv-1"
	return &created, nil
}

func (m *mockAdminAPI) DeleteInventoryItem(context.Context, string, string) error { return nil }

func (m *mockAdminAPI) LowStock(context.Context, string, int) ([]domain.InventoryItem, error) {
	return []domain.InventoryItem{{ID: "inv-3", Name: "Detergent", Quantity: 2}}, nil
}

func (m *mockAdminAPI) StaffPerformance(context.Context, string) ([]domain.StaffPerformance, error) {
	return []domain.StaffPerformance{{StaffID: "st-1", Name: "Bisi", OrdersProcessed: 31}}, nil
}

func (m *mockAdminAPI) RecentTransactions(_ context.Context, _ string, limit int) ([]domain.WalletTransaction, error) {
	return make([]domain.WalletTransaction, limit), nil
}

func (m *mockAdminAPI) RevenueAnalytics(context.Context, string, string, string, string) ([]domain.RevenuePoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revCalls++
	return []domain.RevenuePoint{{Period: "2026-08", Revenue: 850000, Orders: 120}}, nil
}

func newService(api *mockAdminAPI) *Service {
	return NewService(api, staticCreds("tok"),
		cache.New[*domain.AdminStats](time.Minute),
		cache.New[[]domain.RevenuePoint](time.Minute),
		nil, zap.NewNop())
}

func TestLoad_AssemblesAllSections(t *testing.T) {
	api := &mockAdminAPI{}
	svc := newService(api)

	dash, err := svc.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if dash.Stats == nil || dash.Stats.TotalOrders != 120 {
		t.Fatalf("stats = %+v", dash.Stats)
	}
	if len(dash.RecentOrders) != recentOrdersLimit {
		t.Fatalf("recent orders = %d, want %d", len(dash.RecentOrders), recentOrdersLimit)
	}
	if len(dash.LowStock) != 1 || dash.LowStock[0].Name != "Detergent" {
		t.Fatalf("low stock = %+v", dash.LowStock)
	}
	if len(dash.StaffPerformance) != 1 {
		t.Fatalf("staff performance = %+v", dash.StaffPerformance)
	}
	if len(dash.RecentTransactions) != recentTransactionsLimit {
		t.Fatalf("recent transactions = %d", len(dash.RecentTransactions))
	}
}

func TestLoad_StatsServedFromCache(t *testing.T) {
	api := &mockAdminAPI{}
	svc := newService(api)

	if _, err := svc.Load(context.Background()); err != nil {
		t.Fatalf("first load: %v", err)
	}
	if _, err := svc.Load(context.Background()); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if api.statsCalls != 1 {
		t.Fatalf("stats fetched %d times, want 1 within the TTL", api.statsCalls)
	}
}

func TestLoad_FailingLegFailsTheLoad(t *testing.T) {
	api := &mockAdminAPI{statsErr: &domain.ErrExternalService{Service: "backend", Err: errors.New("boom")}}
	svc := newService(api)

	if _, err := svc.Load(context.Background()); err == nil {
		t.Fatal("a failed section must fail the dashboard load")
	}
}

func TestRevenue_CachedPerRange(t *testing.T) {
	api := &mockAdminAPI{}
	svc := newService(api)

	for i := 0; i < 3; i++ {
		if _, err := svc.Revenue(context.Background(), "month", "", ""); err != nil {
			t.Fatalf("revenue: %v", err)
		}
	}
	if _, err := svc.Revenue(context.Background(), "week", "", ""); err != nil {
		t.Fatalf("revenue: %v", err)
	}
	if api.revCalls != 2 {
		t.Fatalf("revenue fetched %d times, want once per range", api.revCalls)
	}
}

func TestApplyOrderUpdate_ReplacesOrPrepends(t *testing.T) {
	svc := newService(&mockAdminAPI{})
	if _, err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	known := svc.Current().RecentOrders[2]
	known.Status = domain.StatusProcessing
	svc.ApplyOrderUpdate(known)

	dash := svc.Current()
	if dash.RecentOrders[2].Status != domain.StatusProcessing {
		t.Fatal("known order should be replaced in place")
	}
	if len(dash.RecentOrders) != recentOrdersLimit {
		t.Fatal("replacement must not grow the list")
	}

	svc.ApplyOrderUpdate(domain.Order{ID: "ord-new", Status: domain.StatusPending})
	dash = svc.Current()
	if dash.RecentOrders[0].ID != "ord-new" {
		t.Fatal("unknown order should be prepended")
	}
	if len(dash.RecentOrders) != recentOrdersLimit {
		t.Fatalf("list length = %d, want capped at %d", len(dash.RecentOrders), recentOrdersLimit)
	}
}

func TestApplyStatsUpdate_MergesNonNilFields(t *testing.T) {
	svc := newService(&mockAdminAPI{})
	if _, err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	pending := 9
	svc.ApplyStatsUpdate(domain.StatsPatch{PendingOrders: &pending})

	stats := svc.Current().Stats
	if stats.PendingOrders != 9 {
		t.Fatalf("pending = %d, want patched 9", stats.PendingOrders)
	}
	if stats.TotalOrders != 120 || stats.TotalRevenue != 850000 {
		t.Fatal("untouched fields must survive the patch")
	}
}

func TestApplyInventoryUpdate_FiltersToThreshold(t *testing.T) {
	svc := newService(&mockAdminAPI{})
	if _, err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	svc.ApplyInventoryUpdate([]domain.InventoryItem{
		{ID: "a", Name: "Detergent", Quantity: 1},
		{ID: "b", Name: "Hangers", Quantity: 50},
		{ID: "c", Name: "Starch", Quantity: 5},
	})

	low := svc.Current().LowStock
	if len(low) != 2 {
		t.Fatalf("low stock = %+v, want the two items at or under threshold", low)
	}
}

func TestApplyBeforeLoadIsNoOp(t *testing.T) {
	svc := newService(&mockAdminAPI{})
	svc.ApplyOrderUpdate(domain.Order{ID: "x"})
	pending := 1
	svc.ApplyStatsUpdate(domain.StatsPatch{PendingOrders: &pending})
	svc.ApplyInventoryUpdate(nil)

	if svc.Current() != nil {
		t.Fatal("no dashboard should exist before the first load")
	}
}
