// Package wallet provides the signing capability used by the payment path.
// Two variants exist: a local signer holding a secret key, and a remote
// signer delegating to an external agent such as a browser wallet. The two
// are distinguished by an explicit kind tag set at construction, never by
// probing the shape of the value.
package wallet

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// Kind tags a signer capability variant.
type Kind string

const (
	// KindLocal holds a secret key and signs synchronously in process.
	KindLocal Kind = "local"

	// KindRemote delegates signing to an external agent and awaits the result.
	KindRemote Kind = "remote"
)

// Signer produces signed transactions. Callers treat both variants
// uniformly: request a signature, await completion, obtain the signed
// transaction.
type Signer interface {
	// Kind returns the capability tag set at construction.
	Kind() Kind

	// Address returns the payer public key this signer signs for.
	Address() solana.PublicKey

	// Sign completes the transaction's signatures. Remote variants block
	// until the external agent responds or ctx is done.
	Sign(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error)
}
