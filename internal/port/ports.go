// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the stores and
// flows from the concrete backend API client, so each can be tested
// against hand-rolled mocks.
package port

import (
	"context"

	"github.com/freshpress/portal-bff-go/internal/domain"
)

// CredentialSource yields the current bearer credential. Authenticated
// calls read it at call time rather than capturing it in a closure, so
// a logout/login occurring mid-flow is picked up by the next request.
type CredentialSource interface {
	Credential() string
}

// AuthAPI holds the unauthenticated auth endpoints proxied to the backend.
type AuthAPI interface {
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResult, error)
	Signup(ctx context.Context, req *domain.SignupRequest) (string, error)
	VerifyEmail(ctx context.Context, token string) (string, error)
	ResendVerification(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
}

// ProfileAPI reads and updates the authenticated user's profile.
type ProfileAPI interface {
	GetProfile(ctx context.Context, credential string) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, credential string, upd *domain.ProfileUpdate) (*domain.Profile, error)
}

// WalletAPI covers balance, transaction history and topup initiation.
type WalletAPI interface {
	Balance(ctx context.Context, credential string) (float64, error)
	Transactions(ctx context.Context, credential string, page, limit int) (*domain.WalletPage, error)
	InitiateTopup(ctx context.Context, credential string, amount float64, method domain.PaymentMethod) (*domain.TopupInitiation, error)
}

// PaymentVerifier performs the server-side gateway verification, keyed
// by the gateway-assigned transaction id. The call is idempotent: the
// user may reload the confirmation page.
type PaymentVerifier interface {
	VerifyTopup(ctx context.Context, credential, transactionID string) (*domain.PaymentDetails, error)
}

// OrdersAPI covers the customer order operations.
type OrdersAPI interface {
	ListMine(ctx context.Context, credential string) ([]domain.Order, error)
	Create(ctx context.Context, credential string, draft *domain.OrderDraft) (*domain.Order, error)
	Get(ctx context.Context, credential, orderID string) (*domain.Order, error)
	Cancel(ctx context.Context, credential, orderID string) (*domain.Order, error)
}

// AdminAPI covers the back-office reads and inventory CRUD.
type AdminAPI interface {
	Stats(ctx context.Context, credential string) (*domain.AdminStats, error)
	RecentOrders(ctx context.Context, credential string, limit int) ([]domain.Order, error)
	Users(ctx context.Context, credential string, page, limit int) ([]domain.UserSummary, error)
	Inventory(ctx context.Context, credential string) ([]domain.InventoryItem, error)
	AddInventoryItem(ctx context.Context, credential string, item *domain.InventoryItem) (*domain.InventoryItem, error)
	DeleteInventoryItem(ctx context.Context, credential, itemID string) error
	LowStock(ctx context.Context, credential string, threshold int) ([]domain.InventoryItem, error)
	StaffPerformance(ctx context.Context, credential string) ([]domain.StaffPerformance, error)
	RecentTransactions(ctx context.Context, credential string, limit int) ([]domain.WalletTransaction, error)
	RevenueAnalytics(ctx context.Context, credential, rng, startDate, endDate string) ([]domain.RevenuePoint, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// Notifier receives user-facing toast notifications. Implementations
// must be safe for concurrent use.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// ProfileRefresher re-derives the cached profile from the backend.
// The payment flow triggers exactly one refresh on a verified topup.
type ProfileRefresher interface {
	Refresh(ctx context.Context) error
}
