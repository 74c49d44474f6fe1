package wallet

import (
	"context"
	"encoding/json"
	"os"

	"github.com/gagliardetto/solana-go"

	"github.com/lamportlabs/sol402/types"
)

// LocalSigner signs with an in-process ed25519 secret key.
type LocalSigner struct {
	key    solana.PrivateKey
	pubkey solana.PublicKey
}

var _ Signer = (*LocalSigner)(nil)

// NewLocalSigner creates a local signer from a base58-encoded secret key.
func NewLocalSigner(privateKeyBase58 string) (*LocalSigner, error) {
	key, err := solana.PrivateKeyFromBase58(privateKeyBase58)
	if err != nil {
		return nil, types.NewPaymentError(types.ErrTransactionFailed, "invalid private key", err)
	}
	return NewLocalSignerFromKey(key), nil
}

// NewLocalSignerFromKey creates a local signer from an existing key.
func NewLocalSignerFromKey(key solana.PrivateKey) *LocalSigner {
	return &LocalSigner{key: key, pubkey: key.PublicKey()}
}

// NewLocalSignerFromKeygenFile loads a solana-keygen JSON key file: an array
// of 64 bytes holding the ed25519 keypair.
func NewLocalSignerFromKeygenFile(path string) (*LocalSigner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.NewPaymentError(types.ErrTransactionFailed, "keygen file unreadable", err)
	}
	var keyBytes []byte
	if err := json.Unmarshal(data, &keyBytes); err != nil {
		return nil, types.NewPaymentError(types.ErrTransactionFailed, "keygen file is not a JSON byte array", err)
	}
	if len(keyBytes) != 64 {
		return nil, types.NewPaymentError(types.ErrTransactionFailed, "keygen file must hold 64 bytes", nil)
	}
	return NewLocalSignerFromKey(solana.PrivateKey(keyBytes)), nil
}

func (s *LocalSigner) Kind() Kind { return KindLocal }

func (s *LocalSigner) Address() solana.PublicKey { return s.pubkey }

// Sign adds this key's signature to the transaction.
func (s *LocalSigner) Sign(_ context.Context, tx *solana.Transaction) (*solana.Transaction, error) {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.pubkey) {
			return &s.key
		}
		return nil
	})
	if err != nil {
		return nil, types.NewPaymentError(types.ErrTransactionFailed, "signing failed", err)
	}
	return tx, nil
}
