package checkpoint

import (
	"encoding/json"

	errorsmod "cosmossdk.io/errors"
	"github.com/bcp-innovations/hyperlane-cosmos/util"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

type checkpointJSON struct {
	MerkleTreeHookAddress string      `json:"merkle_tree_hook_address"`
	MailboxDomain         uint32      `json:"mailbox_domain"`
	Root                  common.Hash `json:"root"`
	Index                 uint32      `json:"index"`
}

type valueJSON struct {
	Checkpoint checkpointJSON `json:"checkpoint"`
	MessageID  common.Hash    `json:"message_id"`
}

type signatureJSON struct {
	R string `json:"r"`
	S string `json:"s"`
	V uint64 `json:"v"`
}

type signedCheckpointJSON struct {
	Value               valueJSON     `json:"value"`
	Signature           signatureJSON `json:"signature"`
	SerializedSignature hexutil.Bytes `json:"serialized_signature,omitempty"`
}

// MarshalJSON writes the layout validators publish to their storage.
func (s SignedCheckpoint) MarshalJSON() ([]byte, error) {
	if len(s.Signature) != SignatureLength {
		return nil, errorsmod.Wrapf(ErrInvalidSignature, "signature length %d", len(s.Signature))
	}
	out := signedCheckpointJSON{
		Value: valueJSON{
			Checkpoint: checkpointJSON{
				MerkleTreeHookAddress: s.Value.MerkleTreeHook.String(),
				MailboxDomain:         s.Value.Origin,
				Root:                  s.Value.Root,
				Index:                 s.Value.Index,
			},
			MessageID: s.Value.MessageID,
		},
		Signature: signatureJSON{
			R: common.BytesToHash(s.Signature[:32]).Hex(),
			S: common.BytesToHash(s.Signature[32:64]).Hex(),
			V: uint64(s.Signature[64]),
		},
		SerializedSignature: s.Signature,
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts both the serialized signature and the r/s/v form,
// preferring the former.
func (s *SignedCheckpoint) UnmarshalJSON(data []byte) error {
	var in signedCheckpointJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return errorsmod.Wrap(ErrMalformed, err.Error())
	}
	hook, err := util.DecodeHexAddress(in.Value.Checkpoint.MerkleTreeHookAddress)
	if err != nil {
		return errorsmod.Wrapf(ErrMalformed, "merkle tree hook address: %s", err)
	}

	sig := []byte(in.SerializedSignature)
	if len(sig) == 0 {
		if in.Signature.V > 0xff {
			return errorsmod.Wrapf(ErrMalformed, "signature v %d", in.Signature.V)
		}
		r := common.HexToHash(in.Signature.R)
		sv := common.HexToHash(in.Signature.S)
		sig = make([]byte, 0, SignatureLength)
		sig = append(sig, r[:]...)
		sig = append(sig, sv[:]...)
		sig = append(sig, byte(in.Signature.V))
	}
	if len(sig) != SignatureLength {
		return errorsmod.Wrapf(ErrInvalidSignature, "signature length %d", len(sig))
	}

	*s = SignedCheckpoint{
		Value: WithMessageID{
			Checkpoint: Checkpoint{
				MerkleTreeHook: hook,
				Origin:         in.Value.Checkpoint.MailboxDomain,
				Root:           in.Value.Checkpoint.Root,
				Index:          in.Value.Checkpoint.Index,
			},
			MessageID: in.Value.MessageID,
		},
		Signature: sig,
	}
	return nil
}
