// Package metrics defines the instrumentation surface for sol402. The
// Prometheus recorder is optional; the noop recorder is used when metrics are
// disabled.
package metrics

import "time"

type Recorder interface {
	IncCounter(name string, labels map[string]string)
	ObserveLatency(name string, duration time.Duration, labels map[string]string)
}

// Counter and latency names recorded by the module.
const (
	CounterVerifyAccepted  = "verify_accepted"
	CounterVerifyRejected  = "verify_rejected"
	CounterVerifyErrored   = "verify_errored"
	CounterCacheHit        = "cache_hit"
	CounterCacheMiss       = "cache_miss"
	CounterPaymentAttempt  = "payment_attempt"
	CounterPaymentSettled  = "payment_settled"
	CounterPaymentFailed   = "payment_failed"
	CounterChallengeIssued = "challenge_issued"

	LatencyVerify  = "verify"
	LatencyPayment = "payment"
	LatencyConfirm = "confirm"
)
