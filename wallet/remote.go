package wallet

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/lamportlabs/sol402/types"
)

// SignFunc asks an external agent to sign the transaction and returns the
// signed result. Implementations typically bridge to a browser wallet or a
// hardware device.
type SignFunc func(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error)

// RemoteSigner delegates signing to an external agent.
type RemoteSigner struct {
	address solana.PublicKey
	sign    SignFunc
}

var _ Signer = (*RemoteSigner)(nil)

// NewRemoteSigner wraps a delegate signing function for the given payer
// address.
func NewRemoteSigner(address solana.PublicKey, sign SignFunc) (*RemoteSigner, error) {
	if sign == nil {
		return nil, types.NewPaymentError(types.ErrTransactionFailed, "remote signer requires a delegate", nil)
	}
	return &RemoteSigner{address: address, sign: sign}, nil
}

func (s *RemoteSigner) Kind() Kind { return KindRemote }

func (s *RemoteSigner) Address() solana.PublicKey { return s.address }

// Sign awaits the delegate under the caller's context.
func (s *RemoteSigner) Sign(ctx context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	type result struct {
		tx  *solana.Transaction
		err error
	}
	done := make(chan result, 1)
	go func() {
		signed, err := s.sign(ctx, tx)
		done <- result{signed, err}
	}()

	select {
	case <-ctx.Done():
		return nil, types.NewPaymentError(types.ErrTransactionFailed, "remote signing abandoned", ctx.Err())
	case r := <-done:
		if r.err != nil {
			return nil, types.NewPaymentError(types.ErrTransactionFailed, "remote signing failed", r.err)
		}
		if r.tx == nil {
			return nil, types.NewPaymentError(types.ErrTransactionFailed, "remote signer returned no transaction", nil)
		}
		return r.tx, nil
	}
}
