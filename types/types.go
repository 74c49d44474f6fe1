// Package types defines the wire types of the sol402 payment protocol: the
// payment requirements issued with a 402 challenge, the payment proof a client
// presents on retry, and the error taxonomy shared by every component.
package types

import (
	"encoding/base64"
	"encoding/json"
	"math/big"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

// SchemeExact is the fixed-amount payment scheme. It is the only scheme this
// module settles; "upto" is accepted on the wire for forward compatibility but
// cannot be paid.
const (
	SchemeExact = "exact"
	SchemeUpto  = "upto"
)

// PaymentHeader is the request header carrying a serialized PaymentProof.
const PaymentHeader = "X-Payment"

// MaxProofClockSkew is how far into the future a proof timestamp may sit
// before it is rejected outright.
const MaxProofClockSkew = 5 * time.Minute

var (
	validate = validator.New()

	// Base58 alphabet, 32-44 chars, the length range of a Solana public key.
	base58AddressRe = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

	// Transaction signatures are 64 bytes, 86-88 chars in base58.
	base58SignatureRe = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{86,88}$`)
)

// PaymentRequirements describes what must be paid before a resource is
// served. It is issued by the server in a 402 response body and is immutable
// once issued.
type PaymentRequirements struct {
	// Scheme is the payment scheme identifier ("exact" or "upto").
	Scheme string `json:"scheme" validate:"required,oneof=exact upto"`

	// Network is the Solana cluster the payment must land on.
	Network Network `json:"network" validate:"required"`

	// Amount is the required payment in base units (lamports for SOL, the
	// token's smallest increment otherwise), as a non-negative integer string.
	// A string is used because amounts are arbitrary-precision integers.
	Amount string `json:"amount" validate:"required"`

	// Token is the asset identifier: "SOL" or a supported token symbol.
	Token string `json:"token" validate:"required"`

	// Recipient is the base58 address the payment must be sent to.
	Recipient string `json:"recipient" validate:"required"`

	// Memo is an optional note attached to the transfer transaction.
	Memo string `json:"memo,omitempty"`

	// Deadline is an optional absolute expiry instant in unix seconds.
	Deadline int64 `json:"deadline,omitempty"`

	// RequestID correlates a challenge with the proof presented for it.
	// Uniqueness is best-effort; correlation is advisory, not a security
	// control.
	RequestID string `json:"requestId,omitempty"`
}

// Validate checks the requirements against the schema. It returns an
// invalid_requirements error on any violation.
func (r *PaymentRequirements) Validate() error {
	if err := validate.Struct(r); err != nil {
		return NewPaymentError(ErrInvalidRequirements, "schema validation failed", err)
	}
	if !r.Network.Known() {
		return NewPaymentError(ErrInvalidRequirements, "unknown network "+r.Network.String(), nil)
	}
	amount, ok := new(big.Int).SetString(r.Amount, 10)
	if !ok {
		return NewPaymentError(ErrInvalidRequirements, "amount is not an integer string: "+r.Amount, nil)
	}
	if amount.Sign() < 0 {
		return NewPaymentError(ErrInvalidRequirements, "amount is negative: "+r.Amount, nil)
	}
	if !base58AddressRe.MatchString(r.Recipient) {
		return NewPaymentError(ErrInvalidRequirements, "recipient is not a base58 address", nil)
	}
	return nil
}

// BaseAmount returns the required amount as an arbitrary-precision integer.
// Validate must have been called first; malformed amounts return an error.
func (r *PaymentRequirements) BaseAmount() (*big.Int, error) {
	amount, ok := new(big.Int).SetString(r.Amount, 10)
	if !ok || amount.Sign() < 0 {
		return nil, NewPaymentError(ErrInvalidRequirements, "amount is not a non-negative integer string", nil)
	}
	return amount, nil
}

// ParseRequirements decodes and validates a payment requirements JSON body.
func ParseRequirements(data []byte) (*PaymentRequirements, error) {
	var req PaymentRequirements
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, NewPaymentError(ErrInvalidRequirements, "malformed requirements body", err)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

// PaymentProof is the client-supplied evidence that a challenge was
// satisfied. It carries no amount or recipient: the verifier re-derives both
// from the ledger instead of trusting the proof body.
type PaymentProof struct {
	// Signature is the ledger-native transaction identifier, base58.
	Signature string `json:"signature" validate:"required"`

	// Network must match the requirements the proof was generated against.
	Network Network `json:"network" validate:"required"`

	// RequestID echoes the correlation identifier from the requirements.
	RequestID string `json:"requestId,omitempty"`

	// Timestamp is the proof creation instant in unix milliseconds.
	Timestamp int64 `json:"timestamp" validate:"required"`
}

// NewPaymentProof builds a proof for a confirmed transaction signature.
func NewPaymentProof(signature string, network Network, requestID string) *PaymentProof {
	return &PaymentProof{
		Signature: signature,
		Network:   network,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
	}
}

// Validate checks the proof against the schema.
func (p *PaymentProof) Validate() error {
	if err := validate.Struct(p); err != nil {
		return NewPaymentError(ErrInvalidPaymentProof, "schema validation failed", err)
	}
	if !base58SignatureRe.MatchString(p.Signature) {
		return NewPaymentError(ErrInvalidPaymentProof, "signature is not a base58 transaction signature", nil)
	}
	return nil
}

// CheckAgainst applies the ledger-free checks a server performs before
// consulting the verifier: network equality, deadline, and an upper bound on
// how far in the future the proof may be dated.
func (p *PaymentProof) CheckAgainst(req *PaymentRequirements, now time.Time) error {
	if p.Network != req.Network {
		return NewPaymentError(ErrInvalidPaymentProof,
			"proof network "+p.Network.String()+" does not match requirements network "+req.Network.String(), nil)
	}
	issued := time.UnixMilli(p.Timestamp)
	if req.Deadline > 0 && issued.After(time.Unix(req.Deadline, 0)) {
		return NewPaymentError(ErrInvalidPaymentProof, "proof issued after deadline", nil)
	}
	if issued.After(now.Add(MaxProofClockSkew)) {
		return NewPaymentError(ErrInvalidPaymentProof, "proof timestamp is in the future", nil)
	}
	return nil
}

// EncodeProofHeader serializes a proof for the X-Payment header as
// base64-encoded JSON.
func EncodeProofHeader(p *PaymentProof) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", NewPaymentError(ErrInvalidPaymentProof, "proof serialization failed", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeProofHeader parses and validates an X-Payment header value.
func DecodeProofHeader(value string) (*PaymentProof, error) {
	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, NewPaymentError(ErrInvalidPaymentProof, "header is not base64", err)
	}
	var proof PaymentProof
	if err := json.Unmarshal(data, &proof); err != nil {
		return nil, NewPaymentError(ErrInvalidPaymentProof, "malformed proof body", err)
	}
	if err := proof.Validate(); err != nil {
		return nil, err
	}
	return &proof, nil
}

// VerifiedPayment is attached to the request context once a proof has been
// verified against the ledger.
type VerifiedPayment struct {
	Proof        *PaymentProof
	Requirements *PaymentRequirements
	VerifiedAt   time.Time
}
