// Package sol402 implements an application-layer payment protocol that turns
// an HTTP 402 response into a verifiable Solana settlement before a resource
// is served. The root type wires the lifecycle components together: the
// ledger client, the payment verifier with its cache, the requirements
// builder and the server guard, plus a payment-aware HTTP client for the
// paying side.
package sol402

import (
	"context"
	"net/http"
	"time"

	"github.com/lamportlabs/sol402/client"
	"github.com/lamportlabs/sol402/config"
	"github.com/lamportlabs/sol402/ledger"
	"github.com/lamportlabs/sol402/logger"
	"github.com/lamportlabs/sol402/metrics"
	"github.com/lamportlabs/sol402/server"
	"github.com/lamportlabs/sol402/types"
	"github.com/lamportlabs/sol402/verify"
	"github.com/lamportlabs/sol402/wallet"
)

// Sol402 is the assembled protocol instance. One instance per process is the
// expected shape; all state below it is either immutable or internally
// synchronized.
type Sol402 struct {
	cfg      *config.Config
	ledger   ledger.Client
	verifier *verify.Verifier
	cache    *verify.Cache
	service  *verify.Service
	builder  *server.Builder
	guard    *server.Guard
	log      logger.Logger
	metrics  metrics.Recorder
	now      func() time.Time
}

// New assembles a protocol instance from configuration.
func New(cfg *config.Config, opts ...Option) (*Sol402, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Sol402{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if s.log == nil {
		s.log = logger.NewZapLogger(cfg.LogLevel)
	}
	if s.metrics == nil {
		if cfg.EnableMetrics {
			s.metrics = metrics.NewPrometheusRecorder()
		} else {
			s.metrics = metrics.NoopRecorder{}
		}
	}

	if s.ledger == nil {
		attempts := max(1, cfg.MaxRetries)
		lc, err := ledger.NewRPC(cfg.Network, cfg.RPCURL,
			ledger.WithTimeout(cfg.RPCTimeout),
			ledger.WithPolling(cfg.ConfirmTimeout/time.Duration(attempts), uint(attempts)),
		)
		if err != nil {
			return nil, err
		}
		s.ledger = lc
	}

	s.verifier = verify.NewVerifier(s.ledger, s.log, s.metrics)
	if cfg.CacheEnabled {
		s.cache = verify.NewCache(cfg.CacheTTL, s.metrics, cfg.Network.String())
	}
	s.service = verify.NewService(s.verifier, s.cache, cfg.CommitmentLevel())

	if cfg.Recipient != "" {
		builderOpts := []server.BuilderOption{server.WithClock(s.now)}
		if cfg.ChallengeTTL > 0 {
			builderOpts = append(builderOpts, server.WithValidity(cfg.ChallengeTTL))
		}
		builder, err := server.NewBuilder(cfg.Network, cfg.Recipient, builderOpts...)
		if err != nil {
			return nil, err
		}
		s.builder = builder
		s.guard = server.NewGuard(builder, s.service, s.log, s.metrics, server.WithGuardClock(s.now))
	}

	return s, nil
}

// Requirements returns the server-side requirements builder. It is nil when
// no recipient is configured.
func (s *Sol402) Requirements() *server.Builder { return s.builder }

// Middleware returns the guard middleware for a resource priced in decimal
// units of the given token. It panics when no recipient is configured, since
// a server without a payment address cannot issue challenges.
func (s *Sol402) Middleware(price, token string) func(http.Handler) http.Handler {
	if s.guard == nil {
		panic("sol402: middleware requires a configured recipient")
	}
	return s.guard.Middleware(price, token)
}

// VerifyProof applies the ledger-free proof checks and then verifies the
// proof against the ledger through the cache.
func (s *Sol402) VerifyProof(ctx context.Context, proof *types.PaymentProof, req *types.PaymentRequirements) (bool, error) {
	if err := req.Validate(); err != nil {
		return false, err
	}
	if err := proof.CheckAgainst(req, s.now()); err != nil {
		return false, err
	}
	return s.service.VerifyProof(ctx, proof, req)
}

// NewHTTPClient returns an HTTP client that settles 402 challenges with the
// given signer. A nil signer produces a client that surfaces challenges as
// payment_required errors instead of paying them.
func (s *Sol402) NewHTTPClient(signer wallet.Signer) (*client.Client, error) {
	opts := []client.Option{client.WithLogger(s.log)}
	if signer != nil {
		opts = append(opts, client.WithSigner(s.ledger, signer, s.cfg.CommitmentLevel(), s.log, s.metrics))
	}
	return client.New(opts...)
}

// Ledger exposes the underlying ledger client.
func (s *Sol402) Ledger() ledger.Client { return s.ledger }

// Close flushes buffered log output. The ledger client holds no connection
// state that needs tearing down.
func (s *Sol402) Close() error {
	if flusher, ok := s.log.(interface{ Sync() error }); ok {
		return flusher.Sync()
	}
	return nil
}
