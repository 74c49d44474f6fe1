package sol402

import (
	"time"

	"github.com/lamportlabs/sol402/ledger"
	"github.com/lamportlabs/sol402/logger"
	"github.com/lamportlabs/sol402/metrics"
)

// Option customizes a protocol instance at construction.
type Option func(*Sol402)

// WithLogger replaces the default zap logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Sol402) { s.log = l }
}

// WithMetrics replaces the metrics recorder selected by configuration.
func WithMetrics(r metrics.Recorder) Option {
	return func(s *Sol402) { s.metrics = r }
}

// WithLedger injects a ledger client, bypassing the RPC client built from
// configuration. This is how tests substitute a fake cluster.
func WithLedger(lc ledger.Client) Option {
	return func(s *Sol402) { s.ledger = lc }
}

// WithClock overrides the time source used for deadline and skew checks.
func WithClock(now func() time.Time) Option {
	return func(s *Sol402) {
		if now != nil {
			s.now = now
		}
	}
}
