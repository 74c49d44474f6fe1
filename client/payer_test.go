package client

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamportlabs/sol402/ledger"
	"github.com/lamportlabs/sol402/types"
	"github.com/lamportlabs/sol402/wallet"
)

// fakeLedger accepts submissions and reports a configurable confirmation
// outcome.
type fakeLedger struct {
	blockhash solana.Hash
	submitted []*solana.Transaction
	submitErr error

	confirmOK  bool
	confirmErr error
}

var _ ledger.Client = (*fakeLedger)(nil)

func (f *fakeLedger) LatestBlockhash(context.Context) (solana.Hash, error) {
	return f.blockhash, nil
}

func (f *fakeLedger) CurrentSlot(context.Context, types.Commitment) (uint64, error) {
	return 0, nil
}

func (f *fakeLedger) Transaction(context.Context, solana.Signature, types.Commitment) (*ledger.TransactionRecord, error) {
	return nil, nil
}

func (f *fakeLedger) AccountExists(context.Context, solana.PublicKey) (bool, error) {
	return true, nil
}

func (f *fakeLedger) Submit(_ context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if f.submitErr != nil {
		return solana.Signature{}, f.submitErr
	}
	f.submitted = append(f.submitted, tx)
	return tx.Signatures[0], nil
}

func (f *fakeLedger) AwaitCommitment(context.Context, solana.Signature, types.Commitment) (bool, error) {
	return f.confirmOK, f.confirmErr
}

func newTestSigner(t *testing.T) *wallet.LocalSigner {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return wallet.NewLocalSignerFromKey(key)
}

func TestPayerSettlesChallenge(t *testing.T) {
	signer := newTestSigner(t)
	lc := &fakeLedger{blockhash: solana.Hash{9}, confirmOK: true}
	payer := NewPayer(lc, signer, types.CommitmentConfirmed, nil, nil)

	challenge := challengeFor(testRecipient(t))
	proof, err := payer.Pay(context.Background(), challenge)
	require.NoError(t, err)

	require.Len(t, lc.submitted, 1)
	signed := lc.submitted[0]
	require.NoError(t, signed.VerifySignatures(), "the submitted transaction must carry the payer's signature")
	assert.Equal(t, signer.Address(), signed.Message.AccountKeys[0])

	assert.Equal(t, signed.Signatures[0].String(), proof.Signature)
	assert.Equal(t, challenge.Network, proof.Network)
	assert.Equal(t, challenge.RequestID, proof.RequestID)
	assert.Positive(t, proof.Timestamp)
	require.NoError(t, proof.Validate())
}

func TestPayerSubmitFailure(t *testing.T) {
	signer := newTestSigner(t)
	lc := &fakeLedger{
		blockhash: solana.Hash{9},
		submitErr: types.NewPaymentError(types.ErrSubmissionFailed, "node rejected transaction", nil),
	}
	payer := NewPayer(lc, signer, types.CommitmentConfirmed, nil, nil)

	_, err := payer.Pay(context.Background(), challengeFor(testRecipient(t)))
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.ErrTransactionFailed))
	assert.True(t, types.IsKind(err, types.ErrSubmissionFailed), "the specific failure stays reachable")
}

func TestPayerOnChainFailure(t *testing.T) {
	signer := newTestSigner(t)
	lc := &fakeLedger{blockhash: solana.Hash{9}, confirmOK: false}
	payer := NewPayer(lc, signer, types.CommitmentConfirmed, nil, nil)

	_, err := payer.Pay(context.Background(), challengeFor(testRecipient(t)))
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.ErrTransactionFailed))
	assert.Contains(t, err.Error(), "failed on chain")
}

func TestPayerConfirmationFault(t *testing.T) {
	signer := newTestSigner(t)
	lc := &fakeLedger{
		blockhash:  solana.Hash{9},
		confirmOK:  false,
		confirmErr: types.NewPaymentError(types.ErrConfirmationFailed, "confirmation budget exhausted", nil),
	}
	payer := NewPayer(lc, signer, types.CommitmentConfirmed, nil, nil)

	_, err := payer.Pay(context.Background(), challengeFor(testRecipient(t)))
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.ErrConfirmationFailed))
}

func TestPayerBuildFailureDoesNotSubmit(t *testing.T) {
	signer := newTestSigner(t)
	lc := &fakeLedger{blockhash: solana.Hash{9}, confirmOK: true}
	payer := NewPayer(lc, signer, types.CommitmentConfirmed, nil, nil)

	challenge := challengeFor(testRecipient(t))
	challenge.Amount = "18446744073709551616"

	_, err := payer.Pay(context.Background(), challenge)
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.ErrAmountOutOfRange))
	assert.Empty(t, lc.submitted, "a doomed transaction never reaches the ledger")
}
