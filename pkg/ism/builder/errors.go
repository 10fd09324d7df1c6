package builder

import (
	"errors"

	errorsmod "cosmossdk.io/errors"
)

const Codespace = "ismbuilder"

var (
	ErrInsufficientSignatures = errorsmod.Register(Codespace, 2, "insufficient signatures")
	ErrNoMatchingInsertion    = errorsmod.Register(Codespace, 3, "no matching insertion for message")
	ErrQuorumNotMet           = errorsmod.Register(Codespace, 4, "aggregation quorum not met")
	ErrNoRoute                = errorsmod.Register(Codespace, 5, "no route for origin domain")
	ErrUnsupportedModule      = errorsmod.Register(Codespace, 6, "unsupported module")
	ErrMaxDepthExceeded       = errorsmod.Register(Codespace, 7, "max depth exceeded")
	ErrProofRootMismatch      = errorsmod.Register(Codespace, 8, "merkle proof root does not match checkpoint root")
	ErrInvalidTokenMessage    = errorsmod.Register(Codespace, 9, "invalid token message")
	ErrModulePaused           = errorsmod.Register(Codespace, 10, "module is paused")
	ErrMissingProofProvider   = errorsmod.Register(Codespace, 11, "missing merkle proof provider")
)

// IsPolicyOutcome reports whether err means the message cannot be verified
// yet, as opposed to a structural failure.
func IsPolicyOutcome(err error) bool {
	return errors.Is(err, ErrInsufficientSignatures) ||
		errors.Is(err, ErrNoMatchingInsertion) ||
		errors.Is(err, ErrQuorumNotMet) ||
		errors.Is(err, ErrModulePaused)
}
