package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/freshpress/portal-bff-go/internal/domain"
)

// ============================================================
// Admin back-office endpoints (authenticated, admin/staff role)
// ============================================================

func (c *Client) Stats(ctx context.Context, credential string) (*domain.AdminStats, error) {
	ctx, span := tracer.Start(ctx, "Backend.AdminStats")
	defer span.End()

	var stats domain.AdminStats
	if _, err := c.getJSON(ctx, credential, "/api/admin/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) RecentOrders(ctx context.Context, credential string, limit int) ([]domain.Order, error) {
	ctx, span := tracer.Start(ctx, "Backend.AdminOrders")
	defer span.End()

	path := "/api/admin/orders"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}

	var orders []domain.Order
	if _, err := c.getJSON(ctx, credential, path, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) Users(ctx context.Context, credential string, page, limit int) ([]domain.UserSummary, error) {
	ctx, span := tracer.Start(ctx, "Backend.AdminUsers")
	defer span.End()

	path := fmt.Sprintf("/api/admin/users?page=%d&limit=%d", page, limit)

	var users []domain.UserSummary
	if _, err := c.getJSON(ctx, credential, path, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) Inventory(ctx context.Context, credential string) ([]domain.InventoryItem, error) {
	ctx, span := tracer.Start(ctx, "Backend.AdminInventory")
	defer span.End()

	var items []domain.InventoryItem
	if _, err := c.getJSON(ctx, credential, "/api/admin/inventory", &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) AddInventoryItem(ctx context.Context, credential string, item *domain.InventoryItem) (*domain.InventoryItem, error) {
	ctx, span := tracer.Start(ctx, "Backend.AddInventoryItem")
	defer span.End()

	var created domain.InventoryItem
	if _, err := c.sendJSON(ctx, http.MethodPost, credential, "/api/admin/inventory", item, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) DeleteInventoryItem(ctx context.Context, credential, itemID string) error {
	ctx, span := tracer.Start(ctx, "Backend.DeleteInventoryItem")
	defer span.End()

	_, err := c.sendJSON(ctx, http.MethodDelete, credential, "/api/admin/inventory/"+url.PathEscape(itemID), nil, nil)
	return err
}

func (c *Client) LowStock(ctx context.Context, credential string, threshold int) ([]domain.InventoryItem, error) {
	ctx, span := tracer.Start(ctx, "Backend.LowStock")
	defer span.End()

	path := fmt.Sprintf("/api/admin/inventory/low-stock?threshold=%d", threshold)

	var items []domain.InventoryItem
	if _, err := c.getJSON(ctx, credential, path, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) StaffPerformance(ctx context.Context, credential string) ([]domain.StaffPerformance, error) {
	ctx, span := tracer.Start(ctx, "Backend.StaffPerformance")
	defer span.End()

	var perf []domain.StaffPerformance
	if _, err := c.getJSON(ctx, credential, "/api/admin/staff/performance", &perf); err != nil {
		return nil, err
	}
	return perf, nil
}

func (c *Client) RecentTransactions(ctx context.Context, credential string, limit int) ([]domain.WalletTransaction, error) {
	ctx, span := tracer.Start(ctx, "Backend.AdminTransactions")
	defer span.End()

	path := fmt.Sprintf("/api/admin/transactions?limit=%d", limit)

	var txns []domain.WalletTransaction
	if _, err := c.getJSON(ctx, credential, path, &txns); err != nil {
		return nil, err
	}
	return txns, nil
}

func (c *Client) RevenueAnalytics(ctx context.Context, credential, rng, startDate, endDate string) ([]domain.RevenuePoint, error) {
	ctx, span := tracer.Start(ctx, "Backend.RevenueAnalytics")
	defer span.End()

	q := url.Values{}
	if rng != "" {
		q.Set("range", rng)
	}
	if startDate != "" {
		q.Set("startDate", startDate)
	}
	if endDate != "" {
		q.Set("endDate", endDate)
	}
	path := "/api/admin/analytics/revenue"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var points []domain.RevenuePoint
	if _, err := c.getJSON(ctx, credential, path, &points); err != nil {
		return nil, err
	}
	return points, nil
}
