package config

import (
	errorsmod "cosmossdk.io/errors"
)

// Codespace is the error codespace of the config package.
const Codespace = "ismconfig"

// NOTE: Error code 1 is reserved by cosmos-sdk as internal error / unknown failure

var (
	ErrUnknownKind        = errorsmod.Register(Codespace, 2, "unknown module kind")
	ErrInvalidAddress     = errorsmod.Register(Codespace, 3, "invalid address")
	ErrInvalidThreshold   = errorsmod.Register(Codespace, 4, "invalid threshold")
	ErrDuplicateValidator = errorsmod.Register(Codespace, 5, "duplicate validator")
	ErrUnknownChain       = errorsmod.Register(Codespace, 6, "unknown chain")
	ErrMissingModule      = errorsmod.Register(Codespace, 7, "missing submodule")
	ErrInvalidConfig      = errorsmod.Register(Codespace, 8, "invalid config")
)
