package client

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/lamportlabs/sol402/logger"
	"github.com/lamportlabs/sol402/types"
)

// Transport is an http.RoundTripper that settles 402 payment challenges.
// It issues the request unmodified first; when the server answers 402 it
// parses the challenge, pays it, and replays the request once with the proof
// attached. A second 402 is returned to the caller as-is, never re-paid.
type Transport struct {
	// Base is the underlying RoundTripper, http.DefaultTransport when nil.
	Base http.RoundTripper

	// Payer settles challenges. When nil, a 402 response surfaces as a
	// payment_required error carrying the parsed requirements so the caller
	// can pay out of band.
	Payer ProofPayer

	// Log receives payment flow events.
	Log logger.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	log := t.Log
	if log == nil {
		log = logger.NoopLogger{}
	}

	// The request may be replayed, so its body must be re-armable.
	if err := armBody(req); err != nil {
		return nil, err
	}

	resp, err := base.RoundTrip(cloneRequest(req))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusPaymentRequired {
		return resp, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	resp.Body.Close()
	if err != nil {
		return nil, types.NewPaymentError(types.ErrInvalidRequirements, "challenge body unreadable", err)
	}

	challenge, err := types.ParseRequirements(body)
	if err != nil {
		return nil, err
	}
	log.Info("payment challenge received", map[string]any{
		"url": req.URL.String(), "amount": challenge.Amount, "token": challenge.Token,
	})

	if t.Payer == nil {
		pe := types.NewPaymentError(types.ErrPaymentRequired,
			"payment required and no signer is configured", nil)
		pe.Requirements = challenge
		return nil, pe
	}

	start := time.Now()
	proof, err := t.Payer.Pay(req.Context(), challenge)
	if err != nil {
		log.Warn("payment failed", map[string]any{
			"url": req.URL.String(), "error": err.Error(),
		})
		return nil, err
	}

	header, err := types.EncodeProofHeader(proof)
	if err != nil {
		return nil, err
	}

	retry := cloneRequest(req)
	retry.Header.Set(types.PaymentHeader, header)

	log.Info("replaying request with payment proof", map[string]any{
		"url": req.URL.String(), "signature": proof.Signature,
		"paymentDuration": time.Since(start).String(),
	})

	// The retried response is returned whatever its status; a second 402 is
	// surfaced, not paid again.
	return base.RoundTrip(retry)
}

// armBody buffers the request body when the request cannot otherwise be
// replayed.
func armBody(req *http.Request) error {
	if req.Body == nil || req.GetBody != nil {
		return nil
	}
	data, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return err
	}
	req.Body = io.NopCloser(bytes.NewReader(data))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return nil
}

// cloneRequest copies the request and re-arms its body, preserving method,
// headers and payload across attempts.
func cloneRequest(req *http.Request) *http.Request {
	clone := req.Clone(req.Context())
	if req.GetBody != nil {
		if body, err := req.GetBody(); err == nil {
			clone.Body = body
		}
	}
	return clone
}
