package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/freshpress/portal-bff-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Wallet endpoints (authenticated)
// ============================================================

func (c *Client) Balance(ctx context.Context, credential string) (float64, error) {
	ctx, span := tracer.Start(ctx, "Backend.Balance")
	defer span.End()

	var payload struct {
		Balance float64 `json:"balance"`
	}
	if _, err := c.getJSON(ctx, credential, "/api/wallet/balance", &payload); err != nil {
		return 0, err
	}
	return payload.Balance, nil
}

func (c *Client) Transactions(ctx context.Context, credential string, page, limit int) (*domain.WalletPage, error) {
	ctx, span := tracer.Start(ctx, "Backend.Transactions")
	defer span.End()

	path := fmt.Sprintf("/api/wallet/transactions?page=%d&limit=%d", page, limit)

	var txns []domain.WalletTransaction
	env, err := c.getJSON(ctx, credential, path, &txns)
	if err != nil {
		return nil, err
	}

	result := &domain.WalletPage{
		Transactions: txns,
		Page:         page,
		Limit:        limit,
	}
	if env.Meta != nil {
		result.Total = env.Meta.Total
		result.HasMore = env.Meta.HasMore
	}
	return result, nil
}

// InitiateTopup asks the backend to create a gateway payment session.
// The returned link is the gateway-hosted page the browser is sent to;
// the gateway later redirects back to the portal's confirmation route.
func (c *Client) InitiateTopup(ctx context.Context, credential string, amount float64, method domain.PaymentMethod) (*domain.TopupInitiation, error) {
	ctx, span := tracer.Start(ctx, "Backend.InitiateTopup")
	defer span.End()
	span.SetAttributes(attribute.Float64("topup.amount", amount))

	body := map[string]any{
		"amount":        amount,
		"paymentMethod": string(method),
	}

	var initiation domain.TopupInitiation
	env, err := c.sendJSON(ctx, http.MethodPost, credential, "/api/wallet/flutterwave/initiate", body, &initiation)
	if err != nil {
		return nil, err
	}
	if initiation.Link == "" {
		return nil, &domain.ErrExternalService{
			Service: "flutterwave",
			Err:     fmt.Errorf("initiation returned no payment link: %s", env.ErrMessage("empty response")),
		}
	}
	return &initiation, nil
}

// VerifyTopup asks the backend to verify a gateway transaction. Keyed
// by the gateway-assigned transaction id, not tx_ref: the gateway id is
// authoritative for idempotent lookup, so reloading the confirmation
// page re-runs this safely.
func (c *Client) VerifyTopup(ctx context.Context, credential, transactionID string) (*domain.PaymentDetails, error) {
	ctx, span := tracer.Start(ctx, "Backend.VerifyTopup")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", transactionID))

	path := "/api/wallet/flutterwave/verify?transaction_id=" + url.QueryEscape(transactionID)

	env, err := c.getJSON(ctx, credential, path, nil)
	if err != nil {
		return nil, err
	}
	if !env.OK() {
		return nil, &domain.ErrBackendRejected{
			Status:  http.StatusOK,
			Message: env.ErrMessage("Payment verification failed"),
		}
	}

	details := &domain.PaymentDetails{
		TransactionID: transactionID,
		Amount:        env.Amount,
		Currency:      env.Currency,
		Message:       env.Message,
	}
	// The verify route spreads extra detail across data and top-level
	// fields; prefer the data block where present.
	if len(env.Data) > 0 {
		var inner domain.PaymentDetails
		if err := env.PayloadInto(&inner); err == nil {
			if inner.TxRef != "" {
				details.TxRef = inner.TxRef
			}
			if inner.Amount != 0 {
				details.Amount = inner.Amount
			}
			if inner.Currency != "" {
				details.Currency = inner.Currency
			}
		}
	}
	if details.Currency == "" {
		details.Currency = "NGN"
	}
	return details, nil
}
