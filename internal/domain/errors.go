package domain

import "errors"

// Rejection taxonomy for the bet submission pipeline. Every rejected
// submission maps to exactly one of these sentinels; the HTTP layer and the
// metrics use RejectReason to name them.
var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrDestinationMismatch  = errors.New("destination does not match challenge treasury")
	ErrUnverifiableTransfer = errors.New("transfer could not be verified on the ledger")
	ErrDuplicateProof       = errors.New("transaction proof already consumed")
	ErrStorage              = errors.New("storage failure")
)

// RejectReason returns the stable taxonomy name for a pipeline error, or
// "internal" for anything outside the taxonomy.
func RejectReason(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrDestinationMismatch):
		return "destination_mismatch"
	case errors.Is(err, ErrUnverifiableTransfer):
		return "unverifiable_transfer"
	case errors.Is(err, ErrDuplicateProof):
		return "duplicate_proof"
	case errors.Is(err, ErrStorage):
		return "storage_error"
	default:
		return "internal"
	}
}
