// Package ledger is the boundary to the Solana RPC node. The Client interface
// carries exactly the queries the payment lifecycle needs, so tests and
// alternative backends can stand in for a live cluster.
package ledger

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/lamportlabs/sol402/types"
)

// Client is the narrow ledger surface consumed by the transaction builder,
// the submission path and the verifier.
type Client interface {
	// LatestBlockhash returns a fresh validity anchor for a new transaction.
	LatestBlockhash(ctx context.Context) (solana.Hash, error)

	// CurrentSlot returns the head slot at the given commitment.
	CurrentSlot(ctx context.Context, commitment types.Commitment) (uint64, error)

	// Transaction fetches a transaction with balance metadata at the given
	// commitment. Absent transactions return (nil, nil).
	Transaction(ctx context.Context, sig solana.Signature, commitment types.Commitment) (*TransactionRecord, error)

	// AccountExists reports whether an account is present on the ledger.
	AccountExists(ctx context.Context, account solana.PublicKey) (bool, error)

	// Submit broadcasts a signed transaction. Transport failures surface as
	// submission_failed errors.
	Submit(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)

	// AwaitCommitment blocks until the transaction reaches the requested
	// commitment level. It returns false, without error, when the ledger
	// reports the transaction as executed but failed. RPC failures surface
	// as confirmation_failed errors.
	AwaitCommitment(ctx context.Context, sig solana.Signature, commitment types.Commitment) (bool, error)
}

// TokenBalance is one pre- or post-transaction token account balance entry.
type TokenBalance struct {
	// AccountIndex points into AccountKeys at the token account.
	AccountIndex uint16

	// Mint is the token mint of the balance entry.
	Mint solana.PublicKey

	// Owner is the wallet owning the token account, when reported.
	Owner *solana.PublicKey

	// Amount is the balance in base units as an integer string.
	Amount string
}

// TransactionRecord is the ledger's report of an executed transaction, the
// ground truth verification is derived from.
type TransactionRecord struct {
	// Slot is the inclusion slot.
	Slot uint64

	// Failed reports an on-chain execution error.
	Failed bool

	// AccountKeys are the accounts involved, in message order.
	AccountKeys []solana.PublicKey

	// PreBalances and PostBalances are lamport balances per account index.
	PreBalances  []uint64
	PostBalances []uint64

	// PreTokenBalances and PostTokenBalances are token balances around the
	// transaction.
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance
}

// ToRPCCommitment maps a protocol commitment level to the RPC enum.
func ToRPCCommitment(c types.Commitment) rpc.CommitmentType {
	switch c {
	case types.CommitmentProcessed:
		return rpc.CommitmentProcessed
	case types.CommitmentFinalized:
		return rpc.CommitmentFinalized
	default:
		return rpc.CommitmentConfirmed
	}
}

// statusRank maps an RPC confirmation status to the protocol ordering.
func statusRank(s rpc.ConfirmationStatusType) int {
	switch s {
	case rpc.ConfirmationStatusProcessed:
		return types.CommitmentProcessed.Rank()
	case rpc.ConfirmationStatusConfirmed:
		return types.CommitmentConfirmed.Rank()
	case rpc.ConfirmationStatusFinalized:
		return types.CommitmentFinalized.Rank()
	}
	return 0
}
