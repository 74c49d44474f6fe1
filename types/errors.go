package types

import "fmt"

// ErrorKind classifies payment errors for programmatic handling.
type ErrorKind string

const (
	// ErrMalformedAmount indicates a decimal amount that cannot be represented
	// in the asset's base units without loss.
	ErrMalformedAmount ErrorKind = "malformed_amount"

	// ErrInvalidRequirements indicates payment requirements that fail schema
	// validation (unknown scheme, negative amount, malformed address).
	ErrInvalidRequirements ErrorKind = "invalid_requirements"

	// ErrInvalidPaymentProof indicates a payment proof that fails schema validation.
	ErrInvalidPaymentProof ErrorKind = "invalid_payment_proof"

	// ErrMissingSourceAccount indicates the payer holds no token account for
	// the required mint, so there is nothing to transfer from.
	ErrMissingSourceAccount ErrorKind = "missing_source_account"

	// ErrAmountOutOfRange indicates a base-unit amount that exceeds what the
	// ledger instruction encoding can carry.
	ErrAmountOutOfRange ErrorKind = "amount_out_of_range"

	// ErrSubmissionFailed indicates a transport or RPC failure while sending
	// a signed transaction.
	ErrSubmissionFailed ErrorKind = "submission_failed"

	// ErrConfirmationFailed indicates a transport or RPC failure while waiting
	// for a transaction to reach a commitment level.
	ErrConfirmationFailed ErrorKind = "confirmation_failed"

	// ErrPaymentRequired indicates a payment challenge that cannot be satisfied
	// locally. The error carries the parsed requirements so the caller can pay
	// out of band.
	ErrPaymentRequired ErrorKind = "payment_required"

	// ErrTransactionFailed indicates a failure during build, sign, submit or
	// confirm of a payment transaction.
	ErrTransactionFailed ErrorKind = "transaction_failed"
)

// PaymentError is the single error type used across the module. Errors are
// distinguished by Kind rather than by concrete type.
type PaymentError struct {
	Kind    ErrorKind
	Message string

	// Requirements is populated for payment_required errors so the caller
	// can act on the unsatisfied challenge.
	Requirements *PaymentRequirements

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sol402: %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("sol402: %s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *PaymentError) Unwrap() error {
	return e.Err
}

// NewPaymentError creates a PaymentError with the given kind and message,
// optionally wrapping a cause.
func NewPaymentError(kind ErrorKind, message string, err error) *PaymentError {
	return &PaymentError{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// IsKind reports whether err is a PaymentError of the given kind anywhere in
// its chain.
func IsKind(err error, kind ErrorKind) bool {
	for err != nil {
		if pe, ok := err.(*PaymentError); ok && pe.Kind == kind {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
