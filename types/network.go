package types

// Network identifies a Solana cluster.
type Network string

const (
	NetworkMainnet Network = "solana-mainnet"
	NetworkDevnet  Network = "solana-devnet" // testnet
	NetworkLocal   Network = "solana-local"
)

// String implements fmt.Stringer.
func (n Network) String() string { return string(n) }

// Known reports whether the network is one this module understands.
func (n Network) Known() bool {
	switch n {
	case NetworkMainnet, NetworkDevnet, NetworkLocal:
		return true
	}
	return false
}

// Commitment is a ledger confidence tier for transaction inclusion.
// The tiers are ordered: processed < confirmed < finalized.
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

// Rank returns the ordering of the commitment level. Unknown levels rank
// below processed so that comparisons against them never succeed.
func (c Commitment) Rank() int {
	switch c {
	case CommitmentProcessed:
		return 1
	case CommitmentConfirmed:
		return 2
	case CommitmentFinalized:
		return 3
	}
	return 0
}

// AtLeast reports whether c provides at least the confidence of other.
func (c Commitment) AtLeast(other Commitment) bool {
	return c.Rank() >= other.Rank() && c.Rank() > 0
}

// ParseCommitment validates a commitment string, defaulting empty input to
// confirmed.
func ParseCommitment(s string) (Commitment, error) {
	switch Commitment(s) {
	case CommitmentProcessed, CommitmentConfirmed, CommitmentFinalized:
		return Commitment(s), nil
	case "":
		return CommitmentConfirmed, nil
	}
	return "", NewPaymentError(ErrInvalidRequirements, "unknown commitment level "+s, nil)
}

// FinalityDepth is the minimum number of slots a transaction must sit behind
// the current head before this module treats it as finalized.
const FinalityDepth = 32
