package verify

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/lamportlabs/sol402/types"
)

// ProofVerifier is the verification entry point consumed by the server guard.
type ProofVerifier interface {
	VerifyProof(ctx context.Context, proof *types.PaymentProof, req *types.PaymentRequirements) (bool, error)
}

// Service routes verification through the cache. It is safe for concurrent
// use from multiple in-flight verifications; no lock serializes verification
// across signatures.
type Service struct {
	verifier   *Verifier
	cache      *Cache // nil when caching is disabled
	commitment types.Commitment
}

var _ ProofVerifier = (*Service)(nil)

// NewService wires a verifier with an optional cache and a default
// commitment level.
func NewService(verifier *Verifier, cache *Cache, commitment types.Commitment) *Service {
	if commitment.Rank() == 0 {
		commitment = types.CommitmentConfirmed
	}
	return &Service{verifier: verifier, cache: cache, commitment: commitment}
}

// VerifyProof verifies the proof's transaction signature against the
// requirements at the service's commitment level. Verdicts are cached;
// transport errors propagate and are never cached.
func (s *Service) VerifyProof(ctx context.Context, proof *types.PaymentProof, req *types.PaymentRequirements) (bool, error) {
	if err := proof.Validate(); err != nil {
		return false, err
	}

	if s.cache != nil {
		if verdict, ok := s.cache.Get(proof.Signature); ok {
			return verdict, nil
		}
	}

	sig, err := solana.SignatureFromBase58(proof.Signature)
	if err != nil {
		return false, types.NewPaymentError(types.ErrInvalidPaymentProof, "signature is not base58", err)
	}

	verdict, err := s.verifier.Verify(ctx, sig, req, s.commitment)
	if err != nil {
		return false, err
	}

	if s.cache != nil {
		s.cache.Set(proof.Signature, verdict)
	}
	return verdict, nil
}
