package types

import (
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSignature(t *testing.T) string {
	t.Helper()
	var sig solana.Signature
	for i := range sig {
		sig[i] = byte(i + 1)
	}
	return sig.String()
}

func testRecipient(t *testing.T) string {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key.PublicKey().String()
}

func validRequirements(t *testing.T) *PaymentRequirements {
	t.Helper()
	return &PaymentRequirements{
		Scheme:    SchemeExact,
		Network:   NetworkDevnet,
		Amount:    "1000000",
		Token:     NativeToken,
		Recipient: testRecipient(t),
		RequestID: "req-1",
	}
}

func TestRequirementsValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, validRequirements(t).Validate())
	})

	tests := []struct {
		name   string
		mutate func(*PaymentRequirements)
	}{
		{"unknown scheme", func(r *PaymentRequirements) { r.Scheme = "subscription" }},
		{"missing scheme", func(r *PaymentRequirements) { r.Scheme = "" }},
		{"unknown network", func(r *PaymentRequirements) { r.Network = "solana-testnet" }},
		{"missing amount", func(r *PaymentRequirements) { r.Amount = "" }},
		{"decimal amount", func(r *PaymentRequirements) { r.Amount = "0.001" }},
		{"negative amount", func(r *PaymentRequirements) { r.Amount = "-5" }},
		{"missing token", func(r *PaymentRequirements) { r.Token = "" }},
		{"missing recipient", func(r *PaymentRequirements) { r.Recipient = "" }},
		{"recipient not base58", func(r *PaymentRequirements) { r.Recipient = "0x36b8f54a34af5e6ab0f52d399de79b" }},
		{"recipient too short", func(r *PaymentRequirements) { r.Recipient = "abc" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequirements(t)
			tt.mutate(req)
			err := req.Validate()
			require.Error(t, err)
			assert.True(t, IsKind(err, ErrInvalidRequirements), "expected invalid_requirements, got %v", err)
		})
	}
}

func TestRequirementsBaseAmount(t *testing.T) {
	req := validRequirements(t)
	amount, err := req.BaseAmount()
	require.NoError(t, err)
	assert.Equal(t, "1000000", amount.String())

	req.Amount = "not-a-number"
	_, err = req.BaseAmount()
	assert.True(t, IsKind(err, ErrInvalidRequirements))
}

func TestParseRequirements(t *testing.T) {
	recipient := testRecipient(t)
	body := `{"scheme":"exact","network":"solana-devnet","amount":"1000000","token":"SOL","recipient":"` + recipient + `"}`
	req, err := ParseRequirements([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, SchemeExact, req.Scheme)
	assert.Equal(t, NetworkDevnet, req.Network)
	assert.Equal(t, recipient, req.Recipient)

	_, err = ParseRequirements([]byte(`{"scheme":`))
	assert.True(t, IsKind(err, ErrInvalidRequirements))

	_, err = ParseRequirements([]byte(`{"scheme":"exact"}`))
	assert.True(t, IsKind(err, ErrInvalidRequirements))
}

func TestProofValidate(t *testing.T) {
	proof := NewPaymentProof(testSignature(t), NetworkDevnet, "req-1")
	require.NoError(t, proof.Validate())
	assert.InDelta(t, time.Now().UnixMilli(), proof.Timestamp, float64(5*time.Second/time.Millisecond))

	tests := []struct {
		name   string
		mutate func(*PaymentProof)
	}{
		{"missing signature", func(p *PaymentProof) { p.Signature = "" }},
		{"signature too short", func(p *PaymentProof) { p.Signature = testRecipient(t) }},
		{"signature not base58", func(p *PaymentProof) { p.Signature = "O0Il+" + p.Signature[5:] }},
		{"missing network", func(p *PaymentProof) { p.Network = "" }},
		{"missing timestamp", func(p *PaymentProof) { p.Timestamp = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPaymentProof(testSignature(t), NetworkDevnet, "req-1")
			tt.mutate(p)
			err := p.Validate()
			require.Error(t, err)
			assert.True(t, IsKind(err, ErrInvalidPaymentProof), "expected invalid_payment_proof, got %v", err)
		})
	}
}

func TestProofCheckAgainst(t *testing.T) {
	now := time.Now()
	req := validRequirements(t)

	t.Run("matching", func(t *testing.T) {
		proof := NewPaymentProof(testSignature(t), req.Network, req.RequestID)
		require.NoError(t, proof.CheckAgainst(req, now))
	})

	t.Run("network mismatch", func(t *testing.T) {
		proof := NewPaymentProof(testSignature(t), NetworkMainnet, req.RequestID)
		err := proof.CheckAgainst(req, now)
		assert.True(t, IsKind(err, ErrInvalidPaymentProof))
	})

	t.Run("issued after deadline", func(t *testing.T) {
		expired := validRequirements(t)
		expired.Deadline = now.Add(-time.Hour).Unix()
		proof := NewPaymentProof(testSignature(t), expired.Network, expired.RequestID)
		err := proof.CheckAgainst(expired, now)
		assert.True(t, IsKind(err, ErrInvalidPaymentProof))
	})

	t.Run("dated too far in the future", func(t *testing.T) {
		proof := NewPaymentProof(testSignature(t), req.Network, req.RequestID)
		proof.Timestamp = now.Add(MaxProofClockSkew + time.Minute).UnixMilli()
		err := proof.CheckAgainst(req, now)
		assert.True(t, IsKind(err, ErrInvalidPaymentProof))
	})

	t.Run("small future skew tolerated", func(t *testing.T) {
		proof := NewPaymentProof(testSignature(t), req.Network, req.RequestID)
		proof.Timestamp = now.Add(time.Minute).UnixMilli()
		require.NoError(t, proof.CheckAgainst(req, now))
	})
}

func TestProofHeaderRoundTrip(t *testing.T) {
	proof := NewPaymentProof(testSignature(t), NetworkDevnet, "req-42")
	header, err := EncodeProofHeader(proof)
	require.NoError(t, err)

	decoded, err := DecodeProofHeader(header)
	require.NoError(t, err)
	assert.Equal(t, proof.Signature, decoded.Signature)
	assert.Equal(t, proof.Network, decoded.Network)
	assert.Equal(t, proof.RequestID, decoded.RequestID)
	assert.Equal(t, proof.Timestamp, decoded.Timestamp)
}

func TestDecodeProofHeaderRejectsGarbage(t *testing.T) {
	for _, value := range []string{"", "not base64 ///", "bm90IGpzb24=", "e30="} {
		_, err := DecodeProofHeader(value)
		assert.True(t, IsKind(err, ErrInvalidPaymentProof), "value %q", value)
	}
}

func TestPaymentErrorChain(t *testing.T) {
	inner := NewPaymentError(ErrMissingSourceAccount, "no source token account", nil)
	outer := NewPaymentError(ErrTransactionFailed, "payment failed", inner)

	assert.True(t, IsKind(outer, ErrTransactionFailed))
	assert.True(t, IsKind(outer, ErrMissingSourceAccount))
	assert.False(t, IsKind(outer, ErrConfirmationFailed))
	assert.False(t, IsKind(nil, ErrTransactionFailed))
	assert.False(t, IsKind(errors.New("plain"), ErrTransactionFailed))

	var perr *PaymentError
	require.ErrorAs(t, outer, &perr)
	assert.Equal(t, ErrTransactionFailed, perr.Kind)
	assert.Contains(t, outer.Error(), "payment failed")
}
