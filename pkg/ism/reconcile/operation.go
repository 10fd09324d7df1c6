package reconcile

import (
	"fmt"

	"github.com/bcp-innovations/hyperlane-cosmos/util"

	"github.com/celestiaorg/ismkit/pkg/ism/config"
)

// Operation is one transaction a caller must submit to move a module towards
// its target config.
type Operation interface {
	ModuleAddress() util.HexAddress
	String() string
	isOperation()
}

// EnrollDomain routes Domain to a module deployed from Target.
type EnrollDomain struct {
	Module util.HexAddress
	Domain uint32
	Target config.Config
}

type UnenrollDomain struct {
	Module util.HexAddress
	Domain uint32
}

type TransferOwnership struct {
	Module   util.HexAddress
	NewOwner util.HexAddress
}

type SetPaused struct {
	Module util.HexAddress
	Paused bool
}

func (o EnrollDomain) ModuleAddress() util.HexAddress      { return o.Module }
func (o UnenrollDomain) ModuleAddress() util.HexAddress    { return o.Module }
func (o TransferOwnership) ModuleAddress() util.HexAddress { return o.Module }
func (o SetPaused) ModuleAddress() util.HexAddress         { return o.Module }

func (o EnrollDomain) String() string {
	kind := "null"
	if o.Target != nil {
		kind = string(o.Target.Kind())
	}
	return fmt.Sprintf("enroll domain %d on %s to a %s", o.Domain, o.Module, kind)
}

func (o UnenrollDomain) String() string {
	return fmt.Sprintf("unenroll domain %d on %s", o.Domain, o.Module)
}

func (o TransferOwnership) String() string {
	if o.NewOwner.IsZeroAddress() {
		return fmt.Sprintf("renounce ownership of %s", o.Module)
	}
	return fmt.Sprintf("transfer ownership of %s to %s", o.Module, o.NewOwner)
}

func (o SetPaused) String() string {
	if o.Paused {
		return fmt.Sprintf("pause %s", o.Module)
	}
	return fmt.Sprintf("unpause %s", o.Module)
}

func (EnrollDomain) isOperation()      {}
func (UnenrollDomain) isOperation()    {}
func (TransferOwnership) isOperation() {}
func (SetPaused) isOperation()         {}
