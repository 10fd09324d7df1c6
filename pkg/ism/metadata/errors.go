package metadata

import (
	errorsmod "cosmossdk.io/errors"
)

const Codespace = "ismmetadata"

var (
	ErrInvalidSignatureLength = errorsmod.Register(Codespace, 2, "invalid signature length")
	ErrMetadataTooShort       = errorsmod.Register(Codespace, 3, "metadata too short")
	ErrInvalidRange           = errorsmod.Register(Codespace, 4, "invalid metadata range")
)
