package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/freshpress/portal-bff-go/internal/notify"
	"github.com/freshpress/portal-bff-go/internal/payment"
	"github.com/freshpress/portal-bff-go/internal/session"
)

// confirmationResponse is the settled outcome plus any toasts the run
// produced, so the confirmation page renders in one round trip.
type confirmationResponse struct {
	payment.Outcome
	Toasts []notify.Toast `json:"toasts,omitempty"`
}

// paymentConfirmationHandler runs the verification flow for a gateway
// redirect. The route is public: the browser lands here from an
// external origin and its bearer may not have survived the round trip,
// so a session is resolved when one exists and the flow settles to
// failed rather than the middleware returning a bare 401. Idempotent:
// reloading the confirmation page re-runs the flow against the same
// transaction id.
func paymentConfirmationHandler(mgr *session.Manager, rs *runtimes, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := payment.ParamsFromQuery(r.URL.Query())

		var rt *runtime
		if cred, ok := bearerToken(r); ok {
			if sess, err := mgr.Resolve(r.Context(), cred); err == nil {
				rt = rs.forSession(sess)
			}
		}

		var resp confirmationResponse
		if rt != nil {
			resp.Outcome = rt.flow.Run(r.Context(), params)
			resp.Toasts = rt.toasts.Drain()
		} else {
			resp.Outcome = rs.detachedFlow().Run(r.Context(), params)
		}

		status := http.StatusOK
		if resp.State == payment.StateFailed {
			status = http.StatusUnprocessableEntity
		}
		logger.Info("payment confirmation settled",
			zap.String("state", string(resp.State)),
			zap.String("tx_ref", params.TxRef),
			zap.Bool("session_resolved", rt != nil),
		)
		writeJSON(w, status, resp)
	}
}

func toastsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rt := runtimeFromContext(r.Context())
		toasts := rt.toasts.Drain()
		if toasts == nil {
			toasts = []notify.Toast{}
		}
		writeJSON(w, http.StatusOK, toasts)
	}
}
