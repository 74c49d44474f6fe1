package verify

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamportlabs/sol402/ledger"
	"github.com/lamportlabs/sol402/types"
)

func TestCacheStoresBothVerdicts(t *testing.T) {
	c := NewCache(time.Minute, nil, "solana-devnet")

	c.Set("sig-accepted", true)
	c.Set("sig-rejected", false)

	verdict, ok := c.Get("sig-accepted")
	require.True(t, ok)
	assert.True(t, verdict)

	verdict, ok = c.Get("sig-rejected")
	require.True(t, ok)
	assert.False(t, verdict)

	_, ok = c.Get("sig-unknown")
	assert.False(t, ok)
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(30*time.Millisecond, nil, "solana-devnet")
	c.Set("sig", true)

	_, ok := c.Get("sig")
	require.True(t, ok)

	time.Sleep(50 * time.Millisecond)
	_, ok = c.Get("sig")
	assert.False(t, ok, "entry must expire after the TTL")
}

func TestServiceCachesVerdicts(t *testing.T) {
	payer, recipient := testPubkey(t), testPubkey(t)
	sig := testSig(11)
	lc := &fakeLedger{records: map[solana.Signature]*ledger.TransactionRecord{
		sig: nativeRecord(payer, recipient, 1_000_000, 100),
	}}
	svc := NewService(NewVerifier(lc, nil, nil), NewCache(time.Minute, nil, "solana-devnet"), types.CommitmentConfirmed)

	req := nativeReq(recipient, "1000000")
	proof := types.NewPaymentProof(sig.String(), types.NetworkDevnet, "req-1")

	verdict, err := svc.VerifyProof(context.Background(), proof, req)
	require.NoError(t, err)
	assert.True(t, verdict)
	assert.Equal(t, 1, lc.lookupCalls)

	// Second verification is served from the cache.
	verdict, err = svc.VerifyProof(context.Background(), proof, req)
	require.NoError(t, err)
	assert.True(t, verdict)
	assert.Equal(t, 1, lc.lookupCalls, "ledger must not be consulted again")
}

func TestServiceDoesNotCacheFaults(t *testing.T) {
	sig := testSig(12)
	lc := &fakeLedger{lookupErr: context.DeadlineExceeded}
	svc := NewService(NewVerifier(lc, nil, nil), NewCache(time.Minute, nil, "solana-devnet"), types.CommitmentConfirmed)

	recipient := testPubkey(t)
	req := nativeReq(recipient, "1000000")
	proof := types.NewPaymentProof(sig.String(), types.NetworkDevnet, "req-1")

	_, err := svc.VerifyProof(context.Background(), proof, req)
	require.Error(t, err)
	assert.Equal(t, 1, lc.lookupCalls)

	// The fault was not cached; the ledger is consulted again.
	_, err = svc.VerifyProof(context.Background(), proof, req)
	require.Error(t, err)
	assert.Equal(t, 2, lc.lookupCalls)
}

func TestServiceWithoutCache(t *testing.T) {
	payer, recipient := testPubkey(t), testPubkey(t)
	sig := testSig(13)
	lc := &fakeLedger{records: map[solana.Signature]*ledger.TransactionRecord{
		sig: nativeRecord(payer, recipient, 1_000_000, 100),
	}}
	svc := NewService(NewVerifier(lc, nil, nil), nil, types.CommitmentConfirmed)

	req := nativeReq(recipient, "1000000")
	proof := types.NewPaymentProof(sig.String(), types.NetworkDevnet, "req-1")

	for i := 0; i < 2; i++ {
		verdict, err := svc.VerifyProof(context.Background(), proof, req)
		require.NoError(t, err)
		assert.True(t, verdict)
	}
	assert.Equal(t, 2, lc.lookupCalls)
}

func TestServiceRejectsMalformedProof(t *testing.T) {
	svc := NewService(NewVerifier(&fakeLedger{}, nil, nil), nil, types.CommitmentConfirmed)
	proof := &types.PaymentProof{Signature: "too-short", Network: types.NetworkDevnet, Timestamp: time.Now().UnixMilli()}

	_, err := svc.VerifyProof(context.Background(), proof, nativeReq(testPubkey(t), "1"))
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.ErrInvalidPaymentProof))
}
