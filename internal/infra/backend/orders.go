package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/freshpress/portal-bff-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Customer order endpoints (authenticated)
// ============================================================

func (c *Client) ListMine(ctx context.Context, credential string) ([]domain.Order, error) {
	ctx, span := tracer.Start(ctx, "Backend.ListMine")
	defer span.End()

	var orders []domain.Order
	if _, err := c.getJSON(ctx, credential, "/api/orders/mine", &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) Create(ctx context.Context, credential string, draft *domain.OrderDraft) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "Backend.CreateOrder")
	defer span.End()
	span.SetAttributes(attribute.Float64("order.total", draft.Total()))

	var order domain.Order
	if _, err := c.sendJSON(ctx, http.MethodPost, credential, "/api/orders", draft, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) Get(ctx context.Context, credential, orderID string) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "Backend.GetOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	var order domain.Order
	if _, err := c.getJSON(ctx, credential, "/api/orders/"+url.PathEscape(orderID), &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Cancel requests cancellation of a pending order. The backend is the
// authority on whether cancellation is still allowed.
func (c *Client) Cancel(ctx context.Context, credential, orderID string) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "Backend.CancelOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	var order domain.Order
	if _, err := c.sendJSON(ctx, http.MethodPatch, credential, "/api/orders/"+url.PathEscape(orderID)+"/cancel", nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
