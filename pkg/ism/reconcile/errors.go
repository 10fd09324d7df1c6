package reconcile

import (
	errorsmod "cosmossdk.io/errors"
)

const Codespace = "ismreconcile"

var (
	ErrRedeployRequired = errorsmod.Register(Codespace, 2, "redeploy required")
	ErrNotDerived       = errorsmod.Register(Codespace, 3, "current config has no on-chain address")
)
