// Package admin aggregates the back-office dashboard: headline stats,
// recent activity, stock alerts and staff throughput, assembled from
// parallel backend reads and kept current by realtime patches.
package admin

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/freshpress/portal-bff-go/internal/domain"
	"github.com/freshpress/portal-bff-go/internal/port"
)

const (
	recentOrdersLimit       = 5
	recentTransactionsLimit = 5
	lowStockThreshold       = 5
)

// Dashboard is the aggregated back-office view.
type Dashboard struct {
	Stats              *domain.AdminStats         `json:"stats"`
	RecentOrders       []domain.Order             `json:"recentOrders"`
	LowStock           []domain.InventoryItem     `json:"lowStock"`
	StaffPerformance   []domain.StaffPerformance  `json:"staffPerformance"`
	RecentTransactions []domain.WalletTransaction `json:"recentTransactions"`
}

// Service builds dashboards and applies realtime patches to the last
// built one. Stats and revenue series pass through a TTL cache so a
// dashboard refresh storm does not hammer the backend.
type Service struct {
	api        port.AdminAPI
	creds      port.CredentialSource
	statsCache port.Cache[*domain.AdminStats]
	revCache   port.Cache[[]domain.RevenuePoint]
	logger     *zap.Logger
	metrics    cacheMetrics

	mu   sync.Mutex
	last *Dashboard
}

// cacheMetrics is the slice of the metrics surface the service needs.
type cacheMetrics interface {
	IncrCacheHit(cache string)
	IncrCacheMiss(cache string)
}

func NewService(api port.AdminAPI, creds port.CredentialSource, statsCache port.Cache[*domain.AdminStats], revCache port.Cache[[]domain.RevenuePoint], metrics cacheMetrics, logger *zap.Logger) *Service {
	return &Service{
		api:        api,
		creds:      creds,
		statsCache: statsCache,
		revCache:   revCache,
		metrics:    metrics,
		logger:     logger,
	}
}

// Load assembles the dashboard with one parallel fan-out. Any failing
// leg fails the load; partial dashboards are worse than a retry.
func (s *Service) Load(ctx context.Context) (*Dashboard, error) {
	cred := s.creds.Credential()
	if cred == "" {
		return nil, &domain.ErrSessionExpired{}
	}

	var dash Dashboard
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats, err := s.stats(gctx, cred)
		if err != nil {
			return err
		}
		dash.Stats = stats
		return nil
	})
	g.Go(func() error {
		orders, err := s.api.RecentOrders(gctx, cred, recentOrdersLimit)
		if err != nil {
			return err
		}
		dash.RecentOrders = orders
		return nil
	})
	g.Go(func() error {
		items, err := s.api.LowStock(gctx, cred, lowStockThreshold)
		if err != nil {
			return err
		}
		dash.LowStock = items
		return nil
	})
	g.Go(func() error {
		perf, err := s.api.StaffPerformance(gctx, cred)
		if err != nil {
			return err
		}
		dash.StaffPerformance = perf
		return nil
	})
	g.Go(func() error {
		txs, err := s.api.RecentTransactions(gctx, cred, recentTransactionsLimit)
		if err != nil {
			return err
		}
		dash.RecentTransactions = txs
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.last = &dash
	snapshot := dash
	s.mu.Unlock()
	return &snapshot, nil
}

func (s *Service) stats(ctx context.Context, cred string) (*domain.AdminStats, error) {
	if cached, ok := s.statsCache.Get("admin:stats"); ok {
		if s.metrics != nil {
			s.metrics.IncrCacheHit("admin_stats")
		}
		return cached, nil
	}
	if s.metrics != nil {
		s.metrics.IncrCacheMiss("admin_stats")
	}
	stats, err := s.api.Stats(ctx, cred)
	if err != nil {
		return nil, err
	}
	s.statsCache.Set("admin:stats", stats)
	return stats, nil
}

// Revenue returns the analytics series for the given range, cached per
// range key.
func (s *Service) Revenue(ctx context.Context, rng, startDate, endDate string) ([]domain.RevenuePoint, error) {
	cred := s.creds.Credential()
	if cred == "" {
		return nil, &domain.ErrSessionExpired{}
	}

	key := "admin:revenue:" + rng + ":" + startDate + ":" + endDate
	if cached, ok := s.revCache.Get(key); ok {
		if s.metrics != nil {
			s.metrics.IncrCacheHit("admin_revenue")
		}
		return cached, nil
	}
	if s.metrics != nil {
		s.metrics.IncrCacheMiss("admin_revenue")
	}

	points, err := s.api.RevenueAnalytics(ctx, cred, rng, startDate, endDate)
	if err != nil {
		return nil, err
	}
	s.revCache.Set(key, points)
	return points, nil
}

// Users proxies the paged user listing.
func (s *Service) Users(ctx context.Context, page, limit int) ([]domain.UserSummary, error) {
	cred := s.creds.Credential()
	if cred == "" {
		return nil, &domain.ErrSessionExpired{}
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.api.Users(ctx, cred, page, limit)
}

// Inventory lists the full stock table.
func (s *Service) Inventory(ctx context.Context) ([]domain.InventoryItem, error) {
	cred := s.creds.Credential()
	if cred == "" {
		return nil, &domain.ErrSessionExpired{}
	}
	return s.api.Inventory(ctx, cred)
}

// AddInventoryItem creates a stock line and invalidates the cached
// stats, whose low-stock count may have shifted.
func (s *Service) AddInventoryItem(ctx context.Context, item *domain.InventoryItem) (*domain.InventoryItem, error) {
	cred := s.creds.Credential()
	if cred == "" {
		return nil, &domain.ErrSessionExpired{}
	}
	if item.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "item name is required"}
	}
	if item.Quantity < 0 {
		return nil, &domain.ErrValidation{Field: "quantity", Message: "quantity cannot be negative"}
	}
	created, err := s.api.AddInventoryItem(ctx, cred, item)
	if err != nil {
		return nil, err
	}
	s.statsCache.Delete("admin:stats")
	return created, nil
}

// DeleteInventoryItem removes a stock line.
func (s *Service) DeleteInventoryItem(ctx context.Context, itemID string) error {
	cred := s.creds.Credential()
	if cred == "" {
		return &domain.ErrSessionExpired{}
	}
	if err := s.api.DeleteInventoryItem(ctx, cred, itemID); err != nil {
		return err
	}
	s.statsCache.Delete("admin:stats")
	return nil
}

// ==================================================================
// Realtime patches
// ==================================================================

// ApplyOrderUpdate folds a pushed order into the last dashboard:
// replace in place when known, otherwise prepend and keep the list at
// its display length.
func (s *Service) ApplyOrderUpdate(order domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return
	}
	for i := range s.last.RecentOrders {
		if s.last.RecentOrders[i].ID == order.ID {
			s.last.RecentOrders[i] = order
			return
		}
	}
	orders := append([]domain.Order{order}, s.last.RecentOrders...)
	if len(orders) > recentOrdersLimit {
		orders = orders[:recentOrdersLimit]
	}
	s.last.RecentOrders = orders
}

// ApplyStatsUpdate merges the non-nil fields of a pushed stats patch
// into both the last dashboard and the stats cache.
func (s *Service) ApplyStatsUpdate(patch domain.StatsPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil || s.last.Stats == nil {
		return
	}
	applyPatch(s.last.Stats, patch)
	merged := *s.last.Stats
	s.statsCache.Set("admin:stats", &merged)
}

func applyPatch(stats *domain.AdminStats, patch domain.StatsPatch) {
	if patch.TotalOrders != nil {
		stats.TotalOrders = *patch.TotalOrders
	}
	if patch.PendingOrders != nil {
		stats.PendingOrders = *patch.PendingOrders
	}
	if patch.TotalRevenue != nil {
		stats.TotalRevenue = *patch.TotalRevenue
	}
	if patch.ActiveUsers != nil {
		stats.ActiveUsers = *patch.ActiveUsers
	}
	if patch.LowStockCount != nil {
		stats.LowStockCount = *patch.LowStockCount
	}
	if patch.CompletedToday != nil {
		stats.CompletedToday = *patch.CompletedToday
	}
}

// ApplyInventoryUpdate replaces the low-stock list with the pushed
// snapshot, filtered to the display threshold.
func (s *Service) ApplyInventoryUpdate(items []domain.InventoryItem) {
	low := make([]domain.InventoryItem, 0, len(items))
	for _, item := range items {
		if item.Quantity <= lowStockThreshold {
			low = append(low, item)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return
	}
	s.last.LowStock = low
}

// Current returns a copy of the last built dashboard, nil before the
// first Load.
func (s *Service) Current() *Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	snapshot := *s.last
	return &snapshot
}
