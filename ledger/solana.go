package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/lamportlabs/sol402/types"
)

// RPC implements Client over a Solana JSON-RPC endpoint.
type RPC struct {
	network     types.Network
	client      *rpc.Client
	timeout     time.Duration
	pollDelay   time.Duration
	maxAttempts uint
}

var _ Client = (*RPC)(nil)

// RPCOption configures an RPC client.
type RPCOption func(*RPC)

// WithTimeout bounds every single RPC round trip.
func WithTimeout(d time.Duration) RPCOption {
	return func(r *RPC) { r.timeout = d }
}

// WithPolling sets the confirmation polling cadence and attempt bound.
func WithPolling(delay time.Duration, attempts uint) RPCOption {
	return func(r *RPC) {
		r.pollDelay = delay
		r.maxAttempts = attempts
	}
}

// NewRPC creates a ledger client for the given network. An empty rpcURL
// selects the cluster's public endpoint.
func NewRPC(network types.Network, rpcURL string, opts ...RPCOption) (*RPC, error) {
	if rpcURL == "" {
		var err error
		rpcURL, err = DefaultRPCURL(network)
		if err != nil {
			return nil, err
		}
	}
	r := &RPC{
		network:     network,
		client:      rpc.New(rpcURL),
		timeout:     30 * time.Second,
		pollDelay:   2 * time.Second,
		maxAttempts: 30,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// DefaultRPCURL returns the public RPC endpoint for a network.
func DefaultRPCURL(network types.Network) (string, error) {
	switch network {
	case types.NetworkMainnet:
		return rpc.MainNetBeta_RPC, nil
	case types.NetworkDevnet:
		return rpc.DevNet_RPC, nil
	case types.NetworkLocal:
		return rpc.LocalNet_RPC, nil
	}
	return "", types.NewPaymentError(types.ErrInvalidRequirements,
		"no default RPC endpoint for network "+network.String(), nil)
}

// Network returns the cluster this client talks to.
func (r *RPC) Network() types.Network { return r.network }

func (r *RPC) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// LatestBlockhash returns a fresh validity anchor at finalized commitment.
func (r *RPC) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	ctx, cancel := r.withDeadline(ctx)
	defer cancel()

	out, err := r.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, types.NewPaymentError(types.ErrTransactionFailed, "blockhash fetch failed", err)
	}
	return out.Value.Blockhash, nil
}

// CurrentSlot returns the head slot at the given commitment.
func (r *RPC) CurrentSlot(ctx context.Context, commitment types.Commitment) (uint64, error) {
	ctx, cancel := r.withDeadline(ctx)
	defer cancel()

	slot, err := r.client.GetSlot(ctx, ToRPCCommitment(commitment))
	if err != nil {
		return 0, types.NewPaymentError(types.ErrConfirmationFailed, "slot fetch failed", err)
	}
	return slot, nil
}

// Transaction fetches a transaction with pre/post balance metadata. A
// transaction unknown to the cluster returns (nil, nil) rather than an error
// so callers can treat absence as a verification verdict, not a fault.
func (r *RPC) Transaction(ctx context.Context, sig solana.Signature, commitment types.Commitment) (*TransactionRecord, error) {
	ctx, cancel := r.withDeadline(ctx)
	defer cancel()

	maxVersion := uint64(0)
	out, err := r.client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     ToRPCCommitment(commitment),
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, nil
		}
		return nil, types.NewPaymentError(types.ErrConfirmationFailed, "transaction fetch failed", err)
	}
	if out == nil {
		return nil, nil
	}
	return recordFromResult(out)
}

// recordFromResult flattens an RPC transaction result into the record shape
// the verifier consumes.
func recordFromResult(out *rpc.GetTransactionResult) (*TransactionRecord, error) {
	if out.Meta == nil || out.Transaction == nil {
		return nil, types.NewPaymentError(types.ErrConfirmationFailed, "transaction result lacks metadata", nil)
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(out.Transaction.GetBinary()))
	if err != nil {
		return nil, types.NewPaymentError(types.ErrConfirmationFailed, "transaction decode failed", err)
	}

	rec := &TransactionRecord{
		Slot:         out.Slot,
		Failed:       out.Meta.Err != nil,
		AccountKeys:  tx.Message.AccountKeys,
		PreBalances:  out.Meta.PreBalances,
		PostBalances: out.Meta.PostBalances,
	}
	for _, tb := range out.Meta.PreTokenBalances {
		rec.PreTokenBalances = append(rec.PreTokenBalances, tokenBalanceFromRPC(tb))
	}
	for _, tb := range out.Meta.PostTokenBalances {
		rec.PostTokenBalances = append(rec.PostTokenBalances, tokenBalanceFromRPC(tb))
	}
	return rec, nil
}

func tokenBalanceFromRPC(tb rpc.TokenBalance) TokenBalance {
	out := TokenBalance{
		AccountIndex: tb.AccountIndex,
		Mint:         tb.Mint,
		Owner:        tb.Owner,
	}
	if tb.UiTokenAmount != nil {
		out.Amount = tb.UiTokenAmount.Amount
	}
	return out
}

// AccountExists reports whether the account is present on the ledger.
func (r *RPC) AccountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	ctx, cancel := r.withDeadline(ctx)
	defer cancel()

	out, err := r.client.GetAccountInfo(ctx, account)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return false, nil
		}
		return false, types.NewPaymentError(types.ErrTransactionFailed, "account lookup failed", err)
	}
	return out != nil && out.Value != nil, nil
}

// Submit broadcasts a signed transaction.
func (r *RPC) Submit(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	ctx, cancel := r.withDeadline(ctx)
	defer cancel()

	sig, err := r.client.SendTransaction(ctx, tx)
	if err != nil {
		return solana.Signature{}, types.NewPaymentError(types.ErrSubmissionFailed, "broadcast failed", err)
	}
	return sig, nil
}

// errNotYetCommitted drives the polling loop: it marks an attempt where the
// transaction has not yet reached the requested level.
var errNotYetCommitted = errors.New("transaction not yet at requested commitment")

// AwaitCommitment polls signature statuses until the transaction reaches the
// requested level. Executed-but-failed transactions return (false, nil): that
// outcome is a normal verdict the caller must check, not a transport fault.
func (r *RPC) AwaitCommitment(ctx context.Context, sig solana.Signature, commitment types.Commitment) (bool, error) {
	var txErr bool

	err := retry.Do(func() error {
		statusCtx, cancel := r.withDeadline(ctx)
		defer cancel()

		out, err := r.client.GetSignatureStatuses(statusCtx, true, sig)
		if err != nil {
			return retry.Unrecoverable(types.NewPaymentError(types.ErrConfirmationFailed, "status fetch failed", err))
		}
		if len(out.Value) == 0 || out.Value[0] == nil {
			return errNotYetCommitted
		}
		status := out.Value[0]
		if status.Err != nil {
			txErr = true
			return nil
		}
		if statusRank(status.ConfirmationStatus) >= commitment.Rank() {
			return nil
		}
		return errNotYetCommitted
	},
		retry.Context(ctx),
		retry.Attempts(r.maxAttempts),
		retry.Delay(r.pollDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		if errors.Is(err, errNotYetCommitted) {
			return false, types.NewPaymentError(types.ErrConfirmationFailed,
				"transaction did not reach "+string(commitment)+" before the polling budget", err)
		}
		if pe, ok := err.(*types.PaymentError); ok {
			return false, pe
		}
		return false, types.NewPaymentError(types.ErrConfirmationFailed, "confirmation wait aborted", err)
	}
	return !txErr, nil
}
