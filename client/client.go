package client

import (
	"net/http"

	"github.com/lamportlabs/sol402/ledger"
	"github.com/lamportlabs/sol402/logger"
	"github.com/lamportlabs/sol402/metrics"
	"github.com/lamportlabs/sol402/types"
	"github.com/lamportlabs/sol402/wallet"
)

// Client is an http.Client that pays 402 challenges transparently.
type Client struct {
	*http.Client
}

// Option configures a Client.
type Option func(*Client) error

// New creates a payment-aware HTTP client.
func New(opts ...Option) (*Client, error) {
	c := &Client{Client: &http.Client{}}
	c.Transport = &Transport{Base: http.DefaultTransport}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// transport returns the payment transport, wrapping the current one when a
// caller swapped in a custom base.
func (c *Client) transport() *Transport {
	t, ok := c.Transport.(*Transport)
	if !ok {
		t = &Transport{Base: c.Transport}
		c.Transport = t
	}
	return t
}

// WithHTTPClient sets a custom underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		payer := c.transport().Payer
		log := c.transport().Log
		c.Client = hc
		base := hc.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		c.Transport = &Transport{Base: base, Payer: payer, Log: log}
		return nil
	}
}

// WithPayer sets the challenge settler directly.
func WithPayer(p ProofPayer) Option {
	return func(c *Client) error {
		c.transport().Payer = p
		return nil
	}
}

// WithSigner wires a full on-chain payer from a ledger client and a signer,
// confirming at the given commitment level.
func WithSigner(lc ledger.Client, signer wallet.Signer, commitment types.Commitment, log logger.Logger, rec metrics.Recorder) Option {
	return func(c *Client) error {
		c.transport().Payer = NewPayer(lc, signer, commitment, log, rec)
		return nil
	}
}

// WithLogger sets the payment flow logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) error {
		c.transport().Log = log
		return nil
	}
}
