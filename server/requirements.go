// Package server gates HTTP handlers behind a payment challenge: it issues
// 402 responses describing what must be paid and admits requests that carry a
// ledger-verified payment proof.
package server

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lamportlabs/sol402/amount"
	"github.com/lamportlabs/sol402/types"
)

// Builder constructs payment requirements for priced resources from the
// server's configuration.
type Builder struct {
	network     types.Network
	recipient   string
	validFor    time.Duration // zero disables deadlines
	defaultMemo string
	now         func() time.Time
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithValidity stamps an absolute deadline of now+d into each challenge.
func WithValidity(d time.Duration) BuilderOption {
	return func(b *Builder) { b.validFor = d }
}

// WithMemo attaches a memo to every challenge.
func WithMemo(memo string) BuilderOption {
	return func(b *Builder) { b.defaultMemo = memo }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

// NewBuilder creates a requirements builder for a recipient on a network.
func NewBuilder(network types.Network, recipient string, opts ...BuilderOption) (*Builder, error) {
	b := &Builder{
		network:   network,
		recipient: recipient,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}

	// Validate the static configuration once, so Build can't emit challenges
	// nobody could pay.
	probe := &types.PaymentRequirements{
		Scheme:    types.SchemeExact,
		Network:   network,
		Amount:    "0",
		Token:     types.NativeToken,
		Recipient: recipient,
	}
	if err := probe.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Build converts a decimal price into a canonical requirements record. The
// correlation identifier is generated when absent; collisions are tolerated
// because correlation is advisory.
func (b *Builder) Build(price, token string) (*types.PaymentRequirements, error) {
	asset, err := types.LookupAsset(b.network, token)
	if err != nil {
		return nil, err
	}

	baseUnits, err := amount.ToBaseUnits(price, asset.Decimals)
	if err != nil {
		return nil, err
	}

	req := &types.PaymentRequirements{
		Scheme:    types.SchemeExact,
		Network:   b.network,
		Amount:    baseUnits.String(),
		Token:     token,
		Recipient: b.recipient,
		Memo:      b.defaultMemo,
		RequestID: b.newRequestID(),
	}
	if b.validFor > 0 {
		req.Deadline = b.now().Add(b.validFor).Unix()
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// newRequestID produces a time-ordered identifier with a random suffix.
func (b *Builder) newRequestID() string {
	return fmt.Sprintf("req-%d-%s", b.now().UnixMilli(), uuid.NewString()[:8])
}
