package reader

import (
	"errors"
	"fmt"

	errorsmod "cosmossdk.io/errors"
	"github.com/bcp-innovations/hyperlane-cosmos/util"
)

const Codespace = "ismreader"

// NOTE: code 1 is reserved for internal errors
var (
	ErrProbeFailed               = errorsmod.Register(Codespace, 2, "probe failed")
	ErrUnrecognizedModule        = errorsmod.Register(Codespace, 3, "unrecognized module")
	ErrUnrecognizedRoutingModule = errorsmod.Register(Codespace, 4, "unrecognized routing module")
	ErrUnknownCcipOrigin         = errorsmod.Register(Codespace, 5, "unknown ccip origin selector")
	ErrUnexpectedResult          = errorsmod.Register(Codespace, 6, "unexpected call result")
)

// DerivationError is returned when a module of a known category cannot be
// derived. It identifies the offending module.
type DerivationError struct {
	Address  util.HexAddress
	Category string
	Err      error
}

func (e *DerivationError) Error() string {
	return fmt.Sprintf("deriving %s module %s: %v", e.Category, e.Address, e.Err)
}

func (e *DerivationError) Unwrap() error {
	return e.Err
}

// fail wraps err in a DerivationError unless a nested derivation already did.
func fail(addr util.HexAddress, category string, err error) error {
	var derr *DerivationError
	if errors.As(err, &derr) {
		return err
	}
	return &DerivationError{Address: addr, Category: category, Err: err}
}

func isProbeFailure(err error) bool {
	return errors.Is(err, ErrProbeFailed)
}
