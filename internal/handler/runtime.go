package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/freshpress/portal-bff-go/internal/admin"
	"github.com/freshpress/portal-bff-go/internal/booking"
	"github.com/freshpress/portal-bff-go/internal/domain"
	"github.com/freshpress/portal-bff-go/internal/infra/observability"
	"github.com/freshpress/portal-bff-go/internal/notify"
	"github.com/freshpress/portal-bff-go/internal/payment"
	"github.com/freshpress/portal-bff-go/internal/port"
	"github.com/freshpress/portal-bff-go/internal/profile"
	"github.com/freshpress/portal-bff-go/internal/realtime"
	"github.com/freshpress/portal-bff-go/internal/session"
	"github.com/freshpress/portal-bff-go/internal/wallet"
)

// runtime bundles the per-session services: everything downstream of
// one signed-in credential. It is created on first sight of a session
// and torn down when that session clears.
type runtime struct {
	session   *session.Store
	profile   *profile.Store
	toasts    *notify.Buffer
	booking   *booking.Service
	wallet    *wallet.Service
	admin     *admin.Service
	flow      *payment.Flow
	initiator *payment.Initiator
	channel   *realtime.Channel
}

// runtimeDeps is the shared, session-independent half of a runtime.
type runtimeDeps struct {
	profileAPI   port.ProfileAPI
	walletAPI    port.WalletAPI
	verifier     port.PaymentVerifier
	orders       port.OrdersAPI
	adminAPI     port.AdminAPI
	statsCache   port.Cache[*domain.AdminStats]
	revenueCache port.Cache[[]domain.RevenuePoint]
	eventsClient *http.Client
	eventsURL    string
	verifyWait   time.Duration
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// runtimes tracks the live per-session bundles.
type runtimes struct {
	deps runtimeDeps

	mu      sync.Mutex
	bundles map[*session.Store]*runtime
}

func newRuntimes(deps runtimeDeps) *runtimes {
	return &runtimes{deps: deps, bundles: make(map[*session.Store]*runtime)}
}

// forSession returns the runtime for sess, building it on first use.
func (rs *runtimes) forSession(sess *session.Store) *runtime {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rt, ok := rs.bundles[sess]; ok {
		return rt
	}

	d := rs.deps
	toasts := notify.NewBuffer()
	prof := profile.NewStore(context.Background(), d.profileAPI, sess, toasts, d.logger)

	rt := &runtime{
		session:   sess,
		profile:   prof,
		toasts:    toasts,
		booking:   booking.NewService(d.orders, sess, prof, toasts, d.logger),
		wallet:    wallet.NewService(d.walletAPI, sess, d.logger),
		admin:     admin.NewService(d.adminAPI, sess, d.statsCache, d.revenueCache, d.metrics, d.logger),
		initiator: payment.NewInitiator(d.walletAPI, sess, d.logger),
		channel:   realtime.NewChannel(d.eventsClient, d.eventsURL, sess, d.logger, d.metrics),
	}
	rt.flow = payment.NewFlow(d.verifier, sess, prof, toasts, d.verifyWait, d.logger).
		WithRecorder(d.metrics.IncrVerification)

	rt.wireRealtime(d.logger)
	rt.channel.Connect(context.Background())

	// Tear the bundle down with the session.
	sess.Subscribe(func(st session.State) {
		if st.LoggedIn() {
			return
		}
		rs.mu.Lock()
		delete(rs.bundles, sess)
		rs.mu.Unlock()
		rt.channel.Close()
		rt.profile.Close()
	})

	rs.bundles[sess] = rt
	return rt
}

// noSession is the credential source for confirmation landings whose
// bearer did not survive the gateway round trip.
type noSession struct{}

func (noSession) Credential() string { return "" }

// detachedFlow serves gateway redirects with no resolvable session.
// Local failures (gateway message, missing params, unrecognized
// status) settle exactly as they would in a session; a recognized
// status settles to failed with the session-expired message instead of
// a transport-level 401.
func (rs *runtimes) detachedFlow() *payment.Flow {
	d := rs.deps
	return payment.NewFlow(d.verifier, noSession{}, nil, nil, d.verifyWait, d.logger).
		WithRecorder(d.metrics.IncrVerification)
}

// wireRealtime folds pushed events into the admin dashboard state.
func (rt *runtime) wireRealtime(logger *zap.Logger) {
	rt.channel.Subscribe(realtime.EventOrderUpdate, func(data []byte) {
		var order domain.Order
		if err := json.Unmarshal(data, &order); err != nil {
			logger.Warn("bad order_update payload", zap.Error(err))
			return
		}
		rt.admin.ApplyOrderUpdate(order)
	})
	rt.channel.Subscribe(realtime.EventStatsUpdate, func(data []byte) {
		var patch domain.StatsPatch
		if err := json.Unmarshal(data, &patch); err != nil {
			logger.Warn("bad stats_update payload", zap.Error(err))
			return
		}
		rt.admin.ApplyStatsUpdate(patch)
	})
	rt.channel.Subscribe(realtime.EventInventoryUpdate, func(data []byte) {
		var items []domain.InventoryItem
		if err := json.Unmarshal(data, &items); err != nil {
			logger.Warn("bad inventory_update payload", zap.Error(err))
			return
		}
		rt.admin.ApplyInventoryUpdate(items)
	})
}
