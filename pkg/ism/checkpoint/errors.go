package checkpoint

import (
	errorsmod "cosmossdk.io/errors"
)

const Codespace = "ismcheckpoint"

var (
	ErrNotFound         = errorsmod.Register(Codespace, 2, "checkpoint not found")
	ErrInvalidSignature = errorsmod.Register(Codespace, 3, "invalid checkpoint signature")
	ErrSignerMismatch   = errorsmod.Register(Codespace, 4, "checkpoint signer mismatch")
	ErrNoStorage        = errorsmod.Register(Codespace, 5, "no storage location for validator")
	ErrMalformed        = errorsmod.Register(Codespace, 6, "malformed checkpoint")
)
