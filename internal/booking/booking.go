// Package booking guards and submits order bookings. Drafts that
// cannot possibly succeed are rejected locally so the backend only
// sees well-formed requests; the backend still re-validates everything
// it accepts.
package booking

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/freshpress/portal-bff-go/internal/domain"
	"github.com/freshpress/portal-bff-go/internal/port"
)

// BalanceSource yields the freshest known wallet balance for the
// wallet-payment guard. The profile store implements it.
type BalanceSource interface {
	WalletBalance() (float64, bool)
}

type Service struct {
	orders   port.OrdersAPI
	creds    port.CredentialSource
	balance  BalanceSource
	notifier port.Notifier
	logger   *zap.Logger
}

func NewService(orders port.OrdersAPI, creds port.CredentialSource, balance BalanceSource, notifier port.Notifier, logger *zap.Logger) *Service {
	return &Service{
		orders:   orders,
		creds:    creds,
		balance:  balance,
		notifier: notifier,
		logger:   logger,
	}
}

// validate applies the local booking guard. A draft that fails here
// produces no backend request.
func (s *Service) validate(draft *domain.OrderDraft) error {
	if len(draft.Services) == 0 {
		return &domain.ErrValidation{Field: "services", Message: "select at least one service"}
	}
	for _, svc := range draft.Services {
		if svc.Quantity <= 0 {
			return &domain.ErrValidation{Field: "services", Message: "service quantities must be positive"}
		}
	}
	if draft.DeliveryAddress == "" {
		return &domain.ErrValidation{Field: "deliveryAddress", Message: "delivery address is required"}
	}
	if draft.DeliveryDate == "" || draft.DeliveryTime == "" {
		return &domain.ErrValidation{Field: "deliveryDate", Message: "delivery date and time are required"}
	}
	switch draft.PaymentMethod {
	case domain.PayWallet, domain.PayCard, domain.PayCash:
	default:
		return &domain.ErrValidation{Field: "paymentMethod", Message: "unknown payment method"}
	}

	if draft.PaymentMethod == domain.PayWallet && s.balance != nil {
		if available, ok := s.balance.WalletBalance(); ok && available < draft.Total() {
			return &domain.ErrInsufficientFunds{Available: available, Required: draft.Total()}
		}
	}
	return nil
}

// Book validates the draft and submits it. Validation failures are
// returned without any network traffic.
func (s *Service) Book(ctx context.Context, draft *domain.OrderDraft) (*domain.Order, error) {
	if err := s.validate(draft); err != nil {
		if s.notifier != nil {
			s.notifier.Error(err.Error())
		}
		return nil, err
	}

	cred := s.creds.Credential()
	if cred == "" {
		return nil, &domain.ErrSessionExpired{}
	}

	order, err := s.orders.Create(ctx, cred, draft)
	if err != nil {
		if s.notifier != nil {
			s.notifier.Error(err.Error())
		}
		return nil, err
	}

	s.logger.Info("order booked",
		zap.String("order_id", order.ID),
		zap.Float64("total", order.TotalAmount),
		zap.String("payment_method", string(order.PaymentMethod)))
	if s.notifier != nil {
		s.notifier.Success("Order placed")
	}
	return order, nil
}

// Mine lists the customer's orders.
func (s *Service) Mine(ctx context.Context) ([]domain.Order, error) {
	cred := s.creds.Credential()
	if cred == "" {
		return nil, &domain.ErrSessionExpired{}
	}
	return s.orders.ListMine(ctx, cred)
}

// Get fetches one of the customer's orders.
func (s *Service) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	cred := s.creds.Credential()
	if cred == "" {
		return nil, &domain.ErrSessionExpired{}
	}
	return s.orders.Get(ctx, cred, orderID)
}

// Cancel requests cancellation. Orders past pending are refused
// locally; the backend enforces the same rule for races.
func (s *Service) Cancel(ctx context.Context, orderID string) (*domain.Order, error) {
	cred := s.creds.Credential()
	if cred == "" {
		return nil, &domain.ErrSessionExpired{}
	}

	current, err := s.orders.Get(ctx, cred, orderID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(current.Status, domain.StatusCancelled) {
		return nil, &domain.ErrInvalidTransition{From: current.Status, To: domain.StatusCancelled}
	}

	order, err := s.orders.Cancel(ctx, cred, orderID)
	if err != nil {
		var invalid *domain.ErrInvalidTransition
		if !errors.As(err, &invalid) && s.notifier != nil {
			s.notifier.Error(err.Error())
		}
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.Success("Order cancelled")
	}
	return order, nil
}
