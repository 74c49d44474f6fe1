package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/lamportlabs/sol402/logger"
	"github.com/lamportlabs/sol402/metrics"
	"github.com/lamportlabs/sol402/types"
	"github.com/lamportlabs/sol402/verify"
)

// contextKey is a private type so the payment context value cannot collide.
type contextKey string

const paymentContextKey = contextKey("sol402_payment")

// Guard is the per-request verification entry point invoked by the HTTP
// framework for protected routes.
type Guard struct {
	builder  *Builder
	verifier verify.ProofVerifier
	log      logger.Logger
	metrics  metrics.Recorder
	now      func() time.Time
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithGuardClock overrides the time source used for deadline checks.
func WithGuardClock(now func() time.Time) GuardOption {
	return func(g *Guard) { g.now = now }
}

// NewGuard wires a guard from a requirements builder and a proof verifier.
func NewGuard(builder *Builder, verifier verify.ProofVerifier, log logger.Logger, rec metrics.Recorder, opts ...GuardOption) *Guard {
	if log == nil {
		log = logger.NoopLogger{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	g := &Guard{builder: builder, verifier: verifier, log: log, metrics: rec, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Middleware wraps a handler so it is only reached by requests carrying a
// verified payment for the given price. Every verification failure produces a
// uniform 402 with fresh requirements; the response never distinguishes why a
// proof was rejected.
func (g *Guard) Middleware(price, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headerValue := r.Header.Get(types.PaymentHeader)
			if headerValue == "" {
				g.challenge(w, r, price, token)
				return
			}

			proof, err := types.DecodeProofHeader(headerValue)
			if err != nil {
				g.log.Warn("malformed payment proof", map[string]any{
					"path": r.URL.Path, "error": err.Error(),
				})
				g.challenge(w, r, price, token)
				return
			}

			req, err := g.builder.Build(price, token)
			if err != nil {
				g.internalFault(w, err)
				return
			}

			// Ledger-free checks run before any RPC is spent on the proof.
			if err := proof.CheckAgainst(req, g.now()); err != nil {
				g.log.Warn("payment proof rejected before verification", map[string]any{
					"path": r.URL.Path, "error": err.Error(),
				})
				g.challenge(w, r, price, token)
				return
			}

			verdict, err := g.verifier.VerifyProof(r.Context(), proof, req)
			if err != nil {
				// A transport fault is not a verdict; the client may retry
				// with the same proof once the ledger answers again.
				g.log.Error("payment verification errored", map[string]any{
					"path": r.URL.Path, "error": err.Error(),
				})
				g.challenge(w, r, price, token)
				return
			}
			if !verdict {
				g.challenge(w, r, price, token)
				return
			}

			payment := &types.VerifiedPayment{
				Proof:        proof,
				Requirements: req,
				VerifiedAt:   g.now(),
			}
			ctx := context.WithValue(r.Context(), paymentContextKey, payment)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// challenge responds 402 with freshly built requirements.
func (g *Guard) challenge(w http.ResponseWriter, r *http.Request, price, token string) {
	req, err := g.builder.Build(price, token)
	if err != nil {
		g.internalFault(w, err)
		return
	}
	g.metrics.IncCounter(metrics.CounterChallengeIssued, map[string]string{
		"network": req.Network.String(),
	})
	g.log.Info("payment challenge issued", map[string]any{
		"path": r.URL.Path, "amount": req.Amount, "token": req.Token, "requestId": req.RequestID,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusPaymentRequired)
	if err := json.NewEncoder(w).Encode(req); err != nil {
		g.log.Error("challenge write failed", map[string]any{"error": err.Error()})
	}
}

// internalFault reports a malformed server configuration. This is the only
// path that produces a 5xx; it carries no payment semantics.
func (g *Guard) internalFault(w http.ResponseWriter, err error) {
	g.log.Error("payment guard misconfigured", map[string]any{"error": err.Error()})
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// PaymentFromContext returns the verified payment attached by the guard, or
// nil when the request did not pass through it.
func PaymentFromContext(ctx context.Context) *types.VerifiedPayment {
	payment, _ := ctx.Value(paymentContextKey).(*types.VerifiedPayment)
	return payment
}
