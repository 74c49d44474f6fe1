// Package client drives the challenge, pay, retry flow for outbound HTTP
// requests: an http.RoundTripper intercepts 402 responses, settles the
// payment on chain, and replays the request with a payment proof attached.
package client

import (
	"context"
	"time"

	"github.com/lamportlabs/sol402/ledger"
	"github.com/lamportlabs/sol402/logger"
	"github.com/lamportlabs/sol402/metrics"
	"github.com/lamportlabs/sol402/txbuild"
	"github.com/lamportlabs/sol402/types"
	"github.com/lamportlabs/sol402/wallet"
)

// ProofPayer settles a payment challenge and returns the proof to present on
// retry. The transport depends on this interface so tests can stub the
// on-chain leg.
type ProofPayer interface {
	Pay(ctx context.Context, req *types.PaymentRequirements) (*types.PaymentProof, error)
}

// Payer builds, signs, submits and confirms a transfer transaction for a
// payment challenge.
type Payer struct {
	ledger     ledger.Client
	signer     wallet.Signer
	commitment types.Commitment
	log        logger.Logger
	metrics    metrics.Recorder
}

var _ ProofPayer = (*Payer)(nil)

// NewPayer wires a payer from its collaborators. The commitment level is the
// one submissions are confirmed at before a proof is issued.
func NewPayer(lc ledger.Client, signer wallet.Signer, commitment types.Commitment, log logger.Logger, rec metrics.Recorder) *Payer {
	if log == nil {
		log = logger.NoopLogger{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	if commitment.Rank() == 0 {
		commitment = types.CommitmentConfirmed
	}
	return &Payer{ledger: lc, signer: signer, commitment: commitment, log: log, metrics: rec}
}

// Pay settles the challenge: build, sign, submit, confirm, then mint the
// proof. Build and sign failures are terminal; the validity anchor goes stale
// quickly enough that rebuilding from scratch beats retrying a doomed
// submission. A submission whose on-chain effect is unknown is never
// resubmitted here, because that risks a double pay.
func (p *Payer) Pay(ctx context.Context, req *types.PaymentRequirements) (*types.PaymentProof, error) {
	start := time.Now()
	labels := map[string]string{"network": req.Network.String()}
	p.metrics.IncCounter(metrics.CounterPaymentAttempt, labels)

	tx, err := txbuild.BuildTransfer(ctx, p.ledger, req, p.signer.Address())
	if err != nil {
		p.metrics.IncCounter(metrics.CounterPaymentFailed, labels)
		return nil, wrapTransactionFailure("transaction build failed", err)
	}

	signed, err := p.signer.Sign(ctx, tx)
	if err != nil {
		p.metrics.IncCounter(metrics.CounterPaymentFailed, labels)
		return nil, wrapTransactionFailure("transaction signing failed", err)
	}

	sig, err := p.ledger.Submit(ctx, signed)
	if err != nil {
		p.metrics.IncCounter(metrics.CounterPaymentFailed, labels)
		return nil, wrapTransactionFailure("transaction submission failed", err)
	}
	p.log.Info("payment submitted", map[string]any{
		"signature": sig.String(), "requestId": req.RequestID,
	})

	confirmStart := time.Now()
	ok, err := p.ledger.AwaitCommitment(ctx, sig, p.commitment)
	p.metrics.ObserveLatency(metrics.LatencyConfirm, time.Since(confirmStart), labels)
	if err != nil {
		p.metrics.IncCounter(metrics.CounterPaymentFailed, labels)
		return nil, wrapTransactionFailure("confirmation failed", err)
	}
	if !ok {
		p.metrics.IncCounter(metrics.CounterPaymentFailed, labels)
		return nil, types.NewPaymentError(types.ErrTransactionFailed,
			"transaction "+sig.String()+" executed but failed on chain", nil)
	}

	p.metrics.IncCounter(metrics.CounterPaymentSettled, labels)
	p.metrics.ObserveLatency(metrics.LatencyPayment, time.Since(start), labels)
	p.log.Info("payment confirmed", map[string]any{
		"signature": sig.String(), "commitment": string(p.commitment),
	})

	return types.NewPaymentProof(sig.String(), req.Network, req.RequestID), nil
}

// wrapTransactionFailure normalizes any payment-path failure to a
// transaction_failed error while keeping the specific kind reachable through
// the error chain.
func wrapTransactionFailure(message string, err error) error {
	if pe, ok := err.(*types.PaymentError); ok && pe.Kind == types.ErrTransactionFailed {
		return pe
	}
	return types.NewPaymentError(types.ErrTransactionFailed, message, err)
}
