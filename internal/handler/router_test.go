package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/freshpress/portal-bff-go/internal/domain"
	"github.com/freshpress/portal-bff-go/internal/handler"
	"github.com/freshpress/portal-bff-go/internal/infra/cache"
	"github.com/freshpress/portal-bff-go/internal/infra/observability"
	"github.com/freshpress/portal-bff-go/internal/session"
)

// fakeBackend implements every backend port against fixed fixtures.
type fakeBackend struct {
	role        domain.Role
	token       string
	verifyErr   error
	verifyCalls int
	balance     float64
}

func signTestToken(t *testing.T) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func (f *fakeBackend) user() domain.UserSummary {
	return domain.UserSummary{ID: "user-1", FullName: "Ada Obi", Email: "ada@example.com", Role: f.role, WalletBalance: f.balance}
}

func (f *fakeBackend) Login(_ context.Context, req *domain.LoginRequest) (*domain.LoginResult, error) {
	if req.Password != "correct-horse" {
		return nil, &domain.ErrUnauthorized{Message: "Invalid email or password"}
	}
	return &domain.LoginResult{Token: f.token, User: f.user()}, nil
}

func (f *fakeBackend) Signup(context.Context, *domain.SignupRequest) (string, error) {
	return "Account created", nil
}

func (f *fakeBackend) VerifyEmail(context.Context, string) (string, error) { return "Verified", nil }

func (f *fakeBackend) ResendVerification(context.Context, string) error { return nil }

func (f *fakeBackend) ForgotPassword(context.Context, string) error { return nil }

func (f *fakeBackend) GetProfile(context.Context, string) (*domain.Profile, error) {
	u := f.user()
	return &domain.Profile{ID: u.ID, FullName: u.FullName, Email: u.Email, Role: u.Role, WalletBalance: f.balance}, nil
}

func (f *fakeBackend) UpdateProfile(_ context.Context, _ string, upd *domain.ProfileUpdate) (*domain.Profile, error) {
	p, _ := f.GetProfile(context.Background(), "")
	if upd.FullName != "" {
		p.FullName = upd.FullName
	}
	return p, nil
}

func (f *fakeBackend) Balance(context.Context, string) (float64, error) { return f.balance, nil }

func (f *fakeBackend) Transactions(context.Context, string, int, int) (*domain.WalletPage, error) {
	return &domain.WalletPage{Page: 1, Limit: 10}, nil
}

func (f *fakeBackend) InitiateTopup(context.Context, string, float64, domain.PaymentMethod) (*domain.TopupInitiation, error) {
	return &domain.TopupInitiation{Link: "https://checkout.flutterwave.com/pay/x", TxRef: "FP-1"}, nil
}

func (f *fakeBackend) VerifyTopup(context.Context, string, string) (*domain.PaymentDetails, error) {
	f.verifyCalls++
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	f.balance += 5000
	return &domain.PaymentDetails{TxRef: "FP-1", TransactionID: "814203", Amount: 5000, Currency: "NGN", Message: "Wallet funded"}, nil
}

func (f *fakeBackend) ListMine(context.Context, string) ([]domain.Order, error) { return nil, nil }

func (f *fakeBackend) Create(_ context.Context, _ string, draft *domain.OrderDraft) (*domain.Order, error) {
	return &domain.Order{ID: "ord-1", Status: domain.StatusPending, TotalAmount: draft.Total()}, nil
}

func (f *fakeBackend) Get(context.Context, string, string) (*domain.Order, error) {
	return &domain.Order{ID: "ord-1", Status: domain.StatusPending}, nil
}

func (f *fakeBackend) Cancel(context.Context, string, string) (*domain.Order, error) {
	return &domain.Order{ID: "ord-1", Status: domain.StatusCancelled}, nil
}

func (f *fakeBackend) Stats(context.Context, string) (*domain.AdminStats, error) {
	return &domain.AdminStats{TotalOrders: 10}, nil
}

func (f *fakeBackend) RecentOrders(context.Context, string, int) ([]domain.Order, error) {
	return nil, nil
}

func (f *fakeBackend) Users(context.Context, string, int, int) ([]domain.UserSummary, error) {
	return []domain.UserSummary{f.user()}, nil
}

func (f *fakeBackend) Inventory(context.Context, string) ([]domain.InventoryItem, error) {
	return nil, nil
}

func (f *fakeBackend) AddInventoryItem(_ context.Context, _ string, item *domain.InventoryItem) (*domain.InventoryItem, error) {
	created := *item
	created.ID = "inv-1"
	return &created, nil
}

func (f *fakeBackend) DeleteInventoryItem(context.Context, string, string) error { return nil }

func (f *fakeBackend) LowStock(context.Context, string, int) ([]domain.InventoryItem, error) {
	return nil, nil
}

func (f *fakeBackend) StaffPerformance(context.Context, string) ([]domain.StaffPerformance, error) {
	return nil, nil
}

func (f *fakeBackend) RecentTransactions(context.Context, string, int) ([]domain.WalletTransaction, error) {
	return nil, nil
}

func (f *fakeBackend) RevenueAnalytics(context.Context, string, string, string, string) ([]domain.RevenuePoint, error) {
	return nil, nil
}

type fixture struct {
	router  http.Handler
	backend *fakeBackend
}

func newFixture(t *testing.T, role domain.Role) *fixture {
	t.Helper()
	fb := &fakeBackend{role: role, balance: 2500, token: signTestToken(t)}
	mgr := session.NewManager(session.NewMemoryStorage(), time.Hour, zap.NewNop(), nil)
	t.Cleanup(mgr.Close)

	router := handler.NewRouter(handler.Deps{
		Auth:          fb,
		Profile:       fb,
		Wallet:        fb,
		Verifier:      fb,
		Orders:        fb,
		Admin:         fb,
		Sessions:      mgr,
		StatsCache:    cache.New[*domain.AdminStats](time.Minute),
		RevenueCache:  cache.New[[]domain.RevenuePoint](time.Minute),
		EventsClient:  &http.Client{Timeout: time.Second},
		EventsURL:     "http://127.0.0.1:0",
		VerifyTimeout: time.Second,
		AllowedOrigins: []string{"http://localhost:5173"},
		Metrics:       observability.NewMetrics(),
		Logger:        zap.NewNop(),
	})
	return &fixture{router: router, backend: fb}
}

func (fx *fixture) login(t *testing.T) string {
	t.Helper()
	body := bytes.NewBufferString(`{"email":"ada@example.com","password":"correct-horse"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", rec.Code, rec.Body.String())
	}
	var result domain.LoginResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return result.Token
}

func (fx *fixture) do(method, path, token string, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	fx.router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	fx := newFixture(t, domain.RoleCustomer)
	rec := fx.do(http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	fx := newFixture(t, domain.RoleCustomer)
	rec := fx.do(http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestProfileRequiresAuth(t *testing.T) {
	fx := newFixture(t, domain.RoleCustomer)

	if rec := fx.do(http.MethodGet, "/api/profile", "", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: expected 401, got %d", rec.Code)
	}
	if rec := fx.do(http.MethodGet, "/api/profile", "nonsense", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad token: expected 401, got %d", rec.Code)
	}
}

func TestLoginThenProfile(t *testing.T) {
	fx := newFixture(t, domain.RoleCustomer)
	token := fx.login(t)

	rec := fx.do(http.MethodGet, "/api/profile", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("profile returned %d: %s", rec.Code, rec.Body.String())
	}
	var p domain.Profile
	if err := json.NewDecoder(rec.Body).Decode(&p); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if p.Email != "ada@example.com" {
		t.Errorf("profile email = %q", p.Email)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	fx := newFixture(t, domain.RoleCustomer)
	rec := fx.do(http.MethodPost, "/api/auth/login", "", `{"email":"ada@example.com","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	fx := newFixture(t, domain.RoleCustomer)
	token := fx.login(t)

	if rec := fx.do(http.MethodPost, "/api/auth/logout", token, ""); rec.Code != http.StatusOK {
		t.Fatalf("logout returned %d", rec.Code)
	}
	if rec := fx.do(http.MethodGet, "/api/profile", token, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("after logout: expected 401, got %d", rec.Code)
	}
}

func TestOrderBookingRoundTrip(t *testing.T) {
	fx := newFixture(t, domain.RoleCustomer)
	token := fx.login(t)

	draft := `{"services":[{"id":"svc-1","name":"Wash & Fold","pricePerUnit":1500,"quantity":1}],` +
		`"deliveryAddress":"12 Marina Rd","deliveryDate":"2026-09-01","deliveryTime":"10:00","paymentMethod":"cash"}`
	rec := fx.do(http.MethodPost, "/api/orders", token, draft)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create order returned %d: %s", rec.Code, rec.Body.String())
	}

	rec = fx.do(http.MethodPatch, "/api/orders/ord-1/cancel", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel returned %d: %s", rec.Code, rec.Body.String())
	}
}

func TestWalletBookingGuardReturns422(t *testing.T) {
	fx := newFixture(t, domain.RoleCustomer) // balance fixture: 2500
	token := fx.login(t)

	draft := `{"services":[{"id":"svc-1","name":"Wash & Fold","pricePerUnit":1500,"quantity":2}],` +
		`"deliveryAddress":"12 Marina Rd","deliveryDate":"2026-09-01","deliveryTime":"10:00","paymentMethod":"wallet"}`
	rec := fx.do(http.MethodPost, "/api/orders", token, draft)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for underfunded wallet booking, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAdminRoutesRefuseCustomers(t *testing.T) {
	fx := newFixture(t, domain.RoleCustomer)
	token := fx.login(t)

	if rec := fx.do(http.MethodGet, "/api/admin/dashboard", token, ""); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for customer, got %d", rec.Code)
	}
}

func TestAdminDashboardForAdmins(t *testing.T) {
	fx := newFixture(t, domain.RoleAdmin)
	token := fx.login(t)

	rec := fx.do(http.MethodGet, "/api/admin/dashboard", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard returned %d: %s", rec.Code, rec.Body.String())
	}
}

func TestPaymentConfirmationVerified(t *testing.T) {
	fx := newFixture(t, domain.RoleCustomer)
	token := fx.login(t)

	rec := fx.do(http.MethodGet, "/api/payment/confirmation?status=successful&tx_ref=FP-1&transaction_id=814203", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("confirmation returned %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		State   string                 `json:"state"`
		Details *domain.PaymentDetails `json:"details"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode confirmation: %v", err)
	}
	if resp.State != "verified" {
		t.Fatalf("state = %q, want verified", resp.State)
	}
	if resp.Details == nil || resp.Details.Amount != 5000 {
		t.Fatalf("details = %+v", resp.Details)
	}
	if fx.backend.verifyCalls != 1 {
		t.Errorf("verify called %d times, want 1", fx.backend.verifyCalls)
	}
}

func TestPaymentConfirmationGatewayMessage(t *testing.T) {
	fx := newFixture(t, domain.RoleCustomer)
	token := fx.login(t)

	rec := fx.do(http.MethodGet, "/api/payment/confirmation?message=Transaction+was+cancelled", token, "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if fx.backend.verifyCalls != 0 {
		t.Errorf("gateway message must bypass verification, got %d calls", fx.backend.verifyCalls)
	}
}

func TestPaymentConfirmationReachableWithoutSession(t *testing.T) {
	fx := newFixture(t, domain.RoleCustomer)

	// No Authorization header at all: the route must still settle the
	// flow instead of the auth middleware returning a bare 401.
	rec := fx.do(http.MethodGet, "/api/payment/confirmation?status=successful&tx_ref=FP-1&transaction_id=814203", "", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		State   string `json:"state"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode confirmation: %v", err)
	}
	if resp.State != "failed" {
		t.Fatalf("state = %q, want failed", resp.State)
	}
	if resp.Message == "" {
		t.Fatal("sessionless confirmation must carry actionable text")
	}
	if fx.backend.verifyCalls != 0 {
		t.Errorf("no session means no backend verification, got %d calls", fx.backend.verifyCalls)
	}
}

func TestPaymentConfirmationUnrecognizedStatus(t *testing.T) {
	fx := newFixture(t, domain.RoleCustomer)
	token := fx.login(t)

	rec := fx.do(http.MethodGet, "/api/payment/confirmation?status=bogus&tx_ref=FP-1&transaction_id=814203", token, "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var resp struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode confirmation: %v", err)
	}
	if resp.Message != "invalid payment status" {
		t.Fatalf("message = %q, want the contract-drift message", resp.Message)
	}
	if fx.backend.verifyCalls != 0 {
		t.Errorf("unrecognized status must not reach the backend, got %d calls", fx.backend.verifyCalls)
	}
}
