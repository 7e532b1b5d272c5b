// Package domain holds the core data model of the FreshPress portal:
// users, profiles, orders, wallet transactions and the payment
// verification types exchanged with the backend API.
package domain

import "time"

// Role is the coarse access level carried in the user summary.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
	RoleAdmin    Role = "admin"
)

// UserSummary is the slice of user identity the session persists.
// WalletBalance here is a snapshot taken at login and may be stale;
// consumers that display a balance must read it from the profile store.
type UserSummary struct {
	ID            string  `json:"id"`
	FullName      string  `json:"fullName"`
	Email         string  `json:"email"`
	Role          Role    `json:"role"`
	WalletBalance float64 `json:"walletBalance"`
}

// Profile is the mutable profile owned by the profile store.
type Profile struct {
	ID                string  `json:"id"`
	FullName          string  `json:"fullName"`
	Email             string  `json:"email"`
	PhoneNumber       string  `json:"phoneNumber"`
	Address           string  `json:"address"`
	ProfilePictureURL string  `json:"profilePictureUrl"`
	WalletBalance     float64 `json:"walletBalance"`
	Role              Role    `json:"role"`
}

// ProfileUpdate carries the fields a customer may change. Empty fields
// are left untouched by the backend.
type ProfileUpdate struct {
	FullName    string
	PhoneNumber string
	Address     string

	// PictureName/Picture hold an optional replacement profile picture,
	// sent as a multipart file part.
	PictureName string
	Picture     []byte
}

// TransactionType classifies a wallet ledger entry. The amount is signed
// by type on the backend: topups and refunds credit, payments debit.
type TransactionType string

const (
	TxTopup   TransactionType = "topup"
	TxPayment TransactionType = "payment"
	TxRefund  TransactionType = "refund"
)

// WalletTransaction is a backend-owned ledger entry. The portal never
// constructs these, only lists them.
type WalletTransaction struct {
	ID        string          `json:"id"`
	Type      TransactionType `json:"type"`
	Amount    float64         `json:"amount"`
	Status    string          `json:"status"` // pending | completed | failed
	CreatedAt time.Time       `json:"createdAt"`
}

// WalletPage is one page of the transaction history.
type WalletPage struct {
	Transactions []WalletTransaction `json:"transactions"`
	Page         int                 `json:"page"`
	Limit        int                 `json:"limit"`
	Total        int                 `json:"total"`
	HasMore      bool                `json:"hasMore"`
}

// PaymentDetails is what the backend returns from a successful
// gateway verification, carried through to the confirmation view.
type PaymentDetails struct {
	TxRef         string  `json:"txRef"`
	TransactionID string  `json:"transactionId"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Message       string  `json:"message"`
}

// TopupInitiation is the backend's answer to a topup request: the
// gateway-hosted payment page the browser must be sent to.
type TopupInitiation struct {
	Link  string `json:"link"`
	TxRef string `json:"txRef"`
}

// AdminStats is the back-office headline figure block.
type AdminStats struct {
	TotalOrders    int     `json:"totalOrders"`
	PendingOrders  int     `json:"pendingOrders"`
	TotalRevenue   float64 `json:"totalRevenue"`
	ActiveUsers    int     `json:"activeUsers"`
	LowStockCount  int     `json:"lowStockCount"`
	CompletedToday int     `json:"completedToday"`
}

// StatsPatch is a partial stats update pushed over the realtime channel.
// Nil fields were not touched by the event.
type StatsPatch struct {
	TotalOrders    *int     `json:"totalOrders,omitempty"`
	PendingOrders  *int     `json:"pendingOrders,omitempty"`
	TotalRevenue   *float64 `json:"totalRevenue,omitempty"`
	ActiveUsers    *int     `json:"activeUsers,omitempty"`
	LowStockCount  *int     `json:"lowStockCount,omitempty"`
	CompletedToday *int     `json:"completedToday,omitempty"`
}

// InventoryItem is a back-office stock line.
type InventoryItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Unit     string `json:"unit"`
	MinLevel int    `json:"minLevel"`
}

// StaffPerformance aggregates per-staff order throughput for the
// admin dashboard.
type StaffPerformance struct {
	StaffID         string  `json:"staffId"`
	Name            string  `json:"name"`
	OrdersProcessed int     `json:"ordersProcessed"`
	AvgTurnaroundHr float64 `json:"avgTurnaroundHours"`
}

// RevenuePoint is one bucket of the revenue analytics series.
type RevenuePoint struct {
	Period  string  `json:"period"`
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

// ============================================================
// Auth request/response shapes (proxied to the backend)
// ============================================================

type SignupRequest struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the backend's login payload: the bearer credential plus
// the user summary the session persists.
type LoginResult struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResendVerificationRequest struct {
	Email string `json:"email"`
}
