// Package payment implements the topup confirmation flow: the portal
// lands on the gateway redirect, verifies the transaction against the
// backend, and settles on exactly one terminal outcome.
package payment

import (
	"context"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/freshpress/portal-bff-go/internal/domain"
	"github.com/freshpress/portal-bff-go/internal/port"
)

// State is the confirmation view state.
type State string

const (
	StateIdle     State = "idle"
	StateLoading  State = "loading"
	StateVerified State = "verified"
	StateFailed   State = "failed"
)

// Params are the gateway redirect query parameters.
type Params struct {
	Status        string
	TxRef         string
	TransactionID string
	Message       string
}

// ParamsFromQuery extracts the redirect parameters from the
// confirmation URL query.
func ParamsFromQuery(q url.Values) Params {
	return Params{
		Status:        q.Get("status"),
		TxRef:         q.Get("tx_ref"),
		TransactionID: q.Get("transaction_id"),
		Message:       q.Get("message"),
	}
}

// Outcome is the settled result of one confirmation run.
type Outcome struct {
	State   State                  `json:"state"`
	Details *domain.PaymentDetails `json:"details,omitempty"`
	Message string                 `json:"message,omitempty"`
}

// result guards the terminal write: whichever of the verification
// response, the timeout, or cancellation arrives first settles the
// outcome, and every later attempt is a no-op.
type result struct {
	mu      sync.Mutex
	settled bool
	label   string
	outcome Outcome
}

func (r *result) settle(state State, details *domain.PaymentDetails, msg, label string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settled {
		return false
	}
	r.settled = true
	r.label = label
	r.outcome = Outcome{State: state, Details: details, Message: msg}
	return true
}

func (r *result) get() (Outcome, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcome, r.label
}

// Flow runs gateway confirmations. Safe for concurrent use; each Run
// is independent.
type Flow struct {
	verifier  port.PaymentVerifier
	creds     port.CredentialSource
	refresher port.ProfileRefresher
	notifier  port.Notifier
	timeout   time.Duration
	logger    *zap.Logger
	recorder  func(outcome string)
}

func NewFlow(verifier port.PaymentVerifier, creds port.CredentialSource, refresher port.ProfileRefresher, notifier port.Notifier, timeout time.Duration, logger *zap.Logger) *Flow {
	return &Flow{
		verifier:  verifier,
		creds:     creds,
		refresher: refresher,
		notifier:  notifier,
		timeout:   timeout,
		logger:    logger,
	}
}

// WithRecorder installs a per-outcome hook, used to feed metrics.
func (f *Flow) WithRecorder(fn func(outcome string)) *Flow {
	f.recorder = fn
	return f
}

// recognizedStatus reports whether the redirect status is part of the
// gateway contract. Recognized values, including "failed" and
// "pending", still go to the backend: it holds the authoritative
// transaction state and a pending redirect may have settled by the
// time we ask. Anything else is contract drift and fails locally.
func recognizedStatus(status string) bool {
	switch status {
	case "successful", "failed", "pending":
		return true
	}
	return false
}

// Run settles the confirmation described by p. It blocks until a
// terminal state is reached: at most the configured timeout when a
// verification call is in flight, immediately for local failures.
// Re-running with the same parameters is safe; verification is keyed
// by the gateway transaction id and the backend treats it as
// idempotent.
func (f *Flow) Run(ctx context.Context, p Params) Outcome {
	res := &result{}

	// A gateway-supplied message means the gateway already rejected the
	// payment; report it verbatim without calling the backend.
	if p.Message != "" {
		res.settle(StateFailed, nil, p.Message, "rejected")
		return f.finish(ctx, res)
	}
	if p.Status == "" || p.TxRef == "" || p.TransactionID == "" {
		res.settle(StateFailed, nil, "Missing payment confirmation details", "invalid_params")
		return f.finish(ctx, res)
	}
	if !recognizedStatus(p.Status) {
		res.settle(StateFailed, nil, "invalid payment status", "invalid_status")
		return f.finish(ctx, res)
	}

	f.logger.Info("verifying topup",
		zap.String("tx_ref", p.TxRef),
		zap.String("transaction_id", p.TransactionID))

	done := make(chan struct{})
	go func() {
		defer close(done)
		// The credential is read here, not captured earlier, so a
		// logout between redirect and verification fails cleanly.
		cred := f.creds.Credential()
		if cred == "" {
			res.settle(StateFailed, nil, (&domain.ErrSessionExpired{}).Error(), "unauthorized")
			return
		}
		details, err := f.verifier.VerifyTopup(ctx, cred, p.TransactionID)
		if err != nil {
			res.settle(StateFailed, nil, err.Error(), "failed")
			return
		}
		res.settle(StateVerified, details, details.Message, "verified")
	}()

	select {
	case <-done:
	case <-time.After(f.timeout):
		res.settle(StateFailed, nil, "Payment verification timed out. Please check your transaction history before retrying.", "timeout")
	case <-ctx.Done():
		res.settle(StateFailed, nil, "Payment verification was cancelled", "cancelled")
	}

	return f.finish(ctx, res)
}

// finish dispatches the side effects of the settled outcome: the
// toast, the metric, and the single profile refresh on success.
func (f *Flow) finish(ctx context.Context, res *result) Outcome {
	out, label := res.get()
	if f.recorder != nil {
		f.recorder(label)
	}

	switch out.State {
	case StateVerified:
		if f.refresher != nil {
			if err := f.refresher.Refresh(ctx); err != nil {
				f.logger.Warn("profile refresh after topup failed", zap.Error(err))
			}
		}
		if f.notifier != nil {
			f.notifier.Success("Top-up complete")
		}
	case StateFailed:
		f.logger.Info("topup confirmation failed", zap.String("reason", out.Message))
		if f.notifier != nil {
			f.notifier.Error(out.Message)
		}
	}
	return out
}
