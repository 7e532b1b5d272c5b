package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/freshpress/portal-bff-go/internal/domain"
	"github.com/freshpress/portal-bff-go/internal/infra/observability"
	"github.com/freshpress/portal-bff-go/internal/port"
	"github.com/freshpress/portal-bff-go/internal/session"
)

// Deps wires the router to everything it fronts.
type Deps struct {
	Auth     port.AuthAPI
	Profile  port.ProfileAPI
	Wallet   port.WalletAPI
	Verifier port.PaymentVerifier
	Orders   port.OrdersAPI
	Admin    port.AdminAPI

	Sessions     *session.Manager
	StatsCache   port.Cache[*domain.AdminStats]
	RevenueCache port.Cache[[]domain.RevenuePoint]

	// EventsClient and EventsURL configure the upstream push channel.
	EventsClient *http.Client
	EventsURL    string

	VerifyTimeout  time.Duration
	AllowedOrigins []string

	// Ping reports backend reachability for the readiness probe.
	Ping func(ctx context.Context) error

	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API the FreshPress web portal consumes.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	logger := deps.Logger

	rs := newRuntimes(runtimeDeps{
		profileAPI:   deps.Profile,
		walletAPI:    deps.Wallet,
		verifier:     deps.Verifier,
		orders:       deps.Orders,
		adminAPI:     deps.Admin,
		statsCache:   deps.StatsCache,
		revenueCache: deps.RevenueCache,
		eventsClient: deps.EventsClient,
		eventsURL:    deps.EventsURL,
		verifyWait:   deps.VerifyTimeout,
		metrics:      deps.Metrics,
		logger:       logger,
	})

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler(deps.Ping, logger))
	r.Handle("/metrics", promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {

		// =============================================
		// Auth (public)
		// =============================================
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authSignupHandler(deps.Auth, logger))
			r.Post("/login", authLoginHandler(deps.Auth, deps.Sessions, rs, logger))
			r.Get("/verify/{token}", authVerifyEmailHandler(deps.Auth, logger))
			r.Post("/resend-verification", authResendVerificationHandler(deps.Auth, logger))
			r.Post("/forgot-password", authForgotPasswordHandler(deps.Auth, logger))

			r.Group(func(r chi.Router) {
				r.Use(SessionMiddleware(deps.Sessions, rs, logger))
				r.Post("/logout", authLogoutHandler(logger))
			})
		})

		// Payment confirmation (gateway redirect landing). Public:
		// the external redirect may arrive without a usable bearer,
		// and the flow still has to settle with actionable text.
		r.Get("/payment/confirmation", paymentConfirmationHandler(deps.Sessions, rs, logger))

		// =============================================
		// Authenticated portal surface
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware(deps.Sessions, rs, logger))

			// Profile
			r.Get("/profile", getProfileHandler(logger))
			r.Put("/profile", updateProfileHandler(logger))

			// Wallet
			r.Get("/wallet", walletOverviewHandler(logger))
			r.Get("/wallet/transactions", walletTransactionsHandler(logger))
			r.Post("/wallet/topup", walletTopupHandler(logger))

			// Orders
			r.Get("/orders", listOrdersHandler(logger))
			r.Post("/orders", createOrderHandler(logger))
			r.Get("/orders/{orderId}", getOrderHandler(logger))
			r.Patch("/orders/{orderId}/cancel", cancelOrderHandler(logger))

			// Realtime push + queued toasts
			r.Get("/events", eventsHandler(logger))
			r.Get("/toasts", toastsHandler())

			// =============================================
			// Back office
			// =============================================
			r.Route("/admin", func(r chi.Router) {
				r.Use(AdminOnly(logger))
				r.Get("/dashboard", adminDashboardHandler(logger))
				r.Get("/revenue", adminRevenueHandler(logger))
				r.Get("/users", adminUsersHandler(logger))
				r.Get("/inventory", adminInventoryHandler(logger))
				r.Post("/inventory", adminAddInventoryHandler(logger))
				r.Delete("/inventory/{itemId}", adminDeleteInventoryHandler(logger))
			})
		})
	})

	return r
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func readyzHandler(ping func(ctx context.Context) error, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				logger.Warn("readiness probe failed", zap.Error(err))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "backend unreachable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
