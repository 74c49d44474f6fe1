// Package verify decides whether a transaction signature genuinely satisfies
// a set of payment requirements. Every accepted fact is re-derived from
// ledger-reported state; nothing the client declares is trusted.
package verify

import (
	"context"
	"math/big"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/lamportlabs/sol402/ledger"
	"github.com/lamportlabs/sol402/logger"
	"github.com/lamportlabs/sol402/metrics"
	"github.com/lamportlabs/sol402/types"
)

// Verifier checks payments against the ledger.
type Verifier struct {
	ledger  ledger.Client
	log     logger.Logger
	metrics metrics.Recorder
}

// NewVerifier creates a verifier over the given ledger client.
func NewVerifier(lc ledger.Client, log logger.Logger, rec metrics.Recorder) *Verifier {
	if log == nil {
		log = logger.NoopLogger{}
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Verifier{ledger: lc, log: log, metrics: rec}
}

// Verify re-derives ground truth from the ledger and accepts or rejects the
// payment. The checks run in a fixed order and short-circuit on the first
// failure: existence, execution success, finality depth (finalized only),
// recipient presence, then the balance delta. A false verdict is a rejection;
// an error is a transport fault that must not be treated as a verdict.
func (v *Verifier) Verify(ctx context.Context, sig solana.Signature, req *types.PaymentRequirements, commitment types.Commitment) (bool, error) {
	start := time.Now()
	labels := map[string]string{"network": req.Network.String()}
	defer func() {
		v.metrics.ObserveLatency(metrics.LatencyVerify, time.Since(start), labels)
	}()

	verdict, err := v.verify(ctx, sig, req, commitment)
	switch {
	case err != nil:
		v.metrics.IncCounter(metrics.CounterVerifyErrored, labels)
		v.log.Error("payment verification errored", map[string]any{
			"signature": sig.String(), "error": err.Error(),
		})
	case verdict:
		v.metrics.IncCounter(metrics.CounterVerifyAccepted, labels)
		v.log.Info("payment verified", map[string]any{
			"signature": sig.String(), "requestId": req.RequestID,
		})
	default:
		v.metrics.IncCounter(metrics.CounterVerifyRejected, labels)
		v.log.Warn("payment rejected", map[string]any{
			"signature": sig.String(), "requestId": req.RequestID,
		})
	}
	return verdict, err
}

func (v *Verifier) verify(ctx context.Context, sig solana.Signature, req *types.PaymentRequirements, commitment types.Commitment) (bool, error) {
	rec, err := v.ledger.Transaction(ctx, sig, commitment)
	if err != nil {
		return false, err
	}
	if rec == nil {
		// Unknown signature at this commitment. A well-formed but unseen
		// signature is a rejection, never a fault.
		return false, nil
	}
	if rec.Failed {
		return false, nil
	}

	if commitment == types.CommitmentFinalized {
		head, err := v.ledger.CurrentSlot(ctx, types.CommitmentFinalized)
		if err != nil {
			return false, err
		}
		if head < rec.Slot+types.FinalityDepth {
			// Not yet deep enough; a transient rejection the caller may retry.
			v.log.Debug("transaction below finality depth", map[string]any{
				"slot": rec.Slot, "head": head,
			})
			return false, nil
		}
	}

	required, err := req.BaseAmount()
	if err != nil {
		return false, err
	}

	recipient, err := solana.PublicKeyFromBase58(req.Recipient)
	if err != nil {
		return false, types.NewPaymentError(types.ErrInvalidRequirements, "recipient is not a valid address", err)
	}

	asset, err := types.LookupAsset(req.Network, req.Token)
	if err != nil {
		return false, err
	}

	if asset.Native() {
		return verifyNativeDelta(rec, recipient, required), nil
	}
	return verifyTokenDelta(rec, recipient, asset, required), nil
}

// verifyNativeDelta accepts when the recipient's lamport balance grew by at
// least the required amount. Fees are debited from the payer side, so no
// tolerance is subtracted on the recipient side; an over-payment passes.
func verifyNativeDelta(rec *ledger.TransactionRecord, recipient solana.PublicKey, required *big.Int) bool {
	idx := -1
	for i, key := range rec.AccountKeys {
		if key.Equals(recipient) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	if idx >= len(rec.PreBalances) || idx >= len(rec.PostBalances) {
		return false
	}

	pre := new(big.Int).SetUint64(rec.PreBalances[idx])
	post := new(big.Int).SetUint64(rec.PostBalances[idx])
	delta := new(big.Int).Sub(post, pre)
	return delta.Cmp(required) >= 0
}

// verifyTokenDelta accepts when the recipient's token balance for the asset
// mint grew by at least the required amount. The entries are matched on both
// owner and mint; a missing post entry means the recipient never received the
// asset in this transaction.
func verifyTokenDelta(rec *ledger.TransactionRecord, recipient solana.PublicKey, asset types.AssetDescriptor, required *big.Int) bool {
	mint, err := solana.PublicKeyFromBase58(asset.Mint)
	if err != nil {
		return false
	}

	post := findTokenBalance(rec.PostTokenBalances, recipient, mint)
	if post == nil {
		return false
	}
	postAmount, ok := new(big.Int).SetString(post.Amount, 10)
	if !ok {
		return false
	}

	preAmount := big.NewInt(0)
	if pre := findTokenBalance(rec.PreTokenBalances, recipient, mint); pre != nil {
		preAmount, ok = new(big.Int).SetString(pre.Amount, 10)
		if !ok {
			return false
		}
	}

	delta := new(big.Int).Sub(postAmount, preAmount)
	return delta.Cmp(required) >= 0
}

func findTokenBalance(balances []ledger.TokenBalance, owner, mint solana.PublicKey) *ledger.TokenBalance {
	for i := range balances {
		b := &balances[i]
		if b.Owner != nil && b.Owner.Equals(owner) && b.Mint.Equals(mint) {
			return b
		}
	}
	return nil
}
