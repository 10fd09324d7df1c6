package builder

import (
	"github.com/bcp-innovations/hyperlane-cosmos/util"
	"github.com/ethereum/go-ethereum/common"

	"github.com/celestiaorg/ismkit/pkg/ism/merkle"
)

// Insertion records that a message id was inserted into the merkle tree hook
// at Index.
type Insertion struct {
	MessageID common.Hash
	Index     uint32
}

// DispatchContext is everything known about a dispatched message that
// metadata builders need.
type DispatchContext struct {
	Message        util.HyperlaneMessage
	MerkleTreeHook util.HexAddress
	Insertions     []Insertion
	// Proofs is required by merkle root multisig modules only.
	Proofs merkle.ProofProvider
}

// MessageID returns the id of the dispatched message.
func (d DispatchContext) MessageID() common.Hash {
	return common.Hash(d.Message.Id())
}

// Insertion returns the insertion of the dispatched message.
func (d DispatchContext) Insertion() (Insertion, bool) {
	id := d.MessageID()
	for _, ins := range d.Insertions {
		if ins.MessageID == id {
			return ins, true
		}
	}
	return Insertion{}, false
}
