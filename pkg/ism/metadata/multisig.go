// Package metadata encodes and decodes the metadata relayers attach to a
// message for multisig and aggregation security modules.
package metadata

import (
	"encoding/binary"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/celestiaorg/ismkit/pkg/ism/checkpoint"
	"github.com/celestiaorg/ismkit/pkg/ism/config"
	"github.com/celestiaorg/ismkit/pkg/ism/merkle"
)

const (
	// MessageIDHeaderLength is hook(32) | root(32) | index(4).
	MessageIDHeaderLength = 68
	// MerkleRootHeaderLength is hook(32) | leaf index(4) | message id(32) |
	// branch(32*32) | checkpoint index(4).
	MerkleRootHeaderLength = 1096
)

// MultisigMetadata is the content of a multisig module's metadata.
type MultisigMetadata struct {
	Checkpoint checkpoint.Checkpoint
	// MessageID is the signed leaf; unused by the message id layout.
	MessageID common.Hash
	// Proof is the inclusion proof of MessageID; merkle root layout only.
	Proof      merkle.Proof
	Signatures [][]byte
}

// Encode dispatches on the multisig layout.
func Encode(variant config.MultisigKind, m MultisigMetadata) ([]byte, error) {
	if variant == config.MerkleRoot {
		return EncodeMerkleRootMultisig(m)
	}
	return EncodeMessageIDMultisig(m)
}

// Decode dispatches on the multisig layout.
func Decode(variant config.MultisigKind, data []byte) (MultisigMetadata, error) {
	if variant == config.MerkleRoot {
		return DecodeMerkleRootMultisig(data)
	}
	return DecodeMessageIDMultisig(data)
}

// EncodeMessageIDMultisig encodes the message id layout:
// [0:32]	- merkle tree hook
// [32:64]	- signed checkpoint root
// [64:68]	- signed checkpoint index
// [68:]	- 65 byte signatures
func EncodeMessageIDMultisig(m MultisigMetadata) ([]byte, error) {
	if err := checkSignatures(m.Signatures); err != nil {
		return nil, err
	}
	out := make([]byte, 0, MessageIDHeaderLength+len(m.Signatures)*checkpoint.SignatureLength)
	out = append(out, m.Checkpoint.MerkleTreeHook[:]...)
	out = append(out, m.Checkpoint.Root[:]...)
	out = binary.BigEndian.AppendUint32(out, m.Checkpoint.Index)
	for _, sig := range m.Signatures {
		out = append(out, sig...)
	}
	return out, nil
}

func DecodeMessageIDMultisig(data []byte) (MultisigMetadata, error) {
	if len(data) < MessageIDHeaderLength {
		return MultisigMetadata{}, errorsmod.Wrapf(ErrMetadataTooShort, "message id multisig header: expected %d bytes, got %d", MessageIDHeaderLength, len(data))
	}
	var m MultisigMetadata
	copy(m.Checkpoint.MerkleTreeHook[:], data[0:32])
	copy(m.Checkpoint.Root[:], data[32:64])
	m.Checkpoint.Index = binary.BigEndian.Uint32(data[64:68])
	m.Signatures = splitSignatures(data[MessageIDHeaderLength:])
	return m, nil
}

// EncodeMerkleRootMultisig encodes the merkle root layout:
// [0:32]		- merkle tree hook
// [32:36]		- leaf index of the proven message
// [36:68]		- signed message id
// [68:1092]	- merkle proof branch
// [1092:1096]	- signed checkpoint index
// [1096:]		- 65 byte signatures
func EncodeMerkleRootMultisig(m MultisigMetadata) ([]byte, error) {
	if err := checkSignatures(m.Signatures); err != nil {
		return nil, err
	}
	out := make([]byte, 0, MerkleRootHeaderLength+len(m.Signatures)*checkpoint.SignatureLength)
	out = append(out, m.Checkpoint.MerkleTreeHook[:]...)
	out = binary.BigEndian.AppendUint32(out, m.Proof.Index)
	out = append(out, m.MessageID[:]...)
	for _, node := range m.Proof.Branch {
		out = append(out, node[:]...)
	}
	out = binary.BigEndian.AppendUint32(out, m.Checkpoint.Index)
	for _, sig := range m.Signatures {
		out = append(out, sig...)
	}
	return out, nil
}

// DecodeMerkleRootMultisig decodes the merkle root layout and recomputes the
// checkpoint root from the proof.
func DecodeMerkleRootMultisig(data []byte) (MultisigMetadata, error) {
	if len(data) < MerkleRootHeaderLength {
		return MultisigMetadata{}, errorsmod.Wrapf(ErrMetadataTooShort, "merkle root multisig header: expected %d bytes, got %d", MerkleRootHeaderLength, len(data))
	}
	var m MultisigMetadata
	copy(m.Checkpoint.MerkleTreeHook[:], data[0:32])
	m.Proof.Index = binary.BigEndian.Uint32(data[32:36])
	copy(m.MessageID[:], data[36:68])
	m.Proof.Leaf = m.MessageID
	offset := 68
	for i := range m.Proof.Branch {
		copy(m.Proof.Branch[i][:], data[offset:offset+32])
		offset += 32
	}
	m.Checkpoint.Index = binary.BigEndian.Uint32(data[offset : offset+4])
	m.Checkpoint.Root = m.Proof.Root()
	m.Signatures = splitSignatures(data[MerkleRootHeaderLength:])
	return m, nil
}

// SplitSignature splits a 65 byte signature into r, s and v.
func SplitSignature(sig []byte) (r, s [32]byte, v uint8, err error) {
	if len(sig) != checkpoint.SignatureLength {
		return r, s, 0, errorsmod.Wrapf(ErrInvalidSignatureLength, "expected %d bytes, got %d", checkpoint.SignatureLength, len(sig))
	}
	copy(r[:], sig[0:32])
	copy(s[:], sig[32:64])
	return r, s, sig[64], nil
}

func checkSignatures(sigs [][]byte) error {
	for i, sig := range sigs {
		if len(sig) != checkpoint.SignatureLength {
			return errorsmod.Wrapf(ErrInvalidSignatureLength, "signature %d: expected %d bytes, got %d", i, checkpoint.SignatureLength, len(sig))
		}
	}
	return nil
}

// splitSignatures reads 65 byte chunks; a trailing partial chunk is ignored.
func splitSignatures(data []byte) [][]byte {
	sigs := make([][]byte, 0, len(data)/checkpoint.SignatureLength)
	for len(data) >= checkpoint.SignatureLength {
		sig := make([]byte, checkpoint.SignatureLength)
		copy(sig, data[:checkpoint.SignatureLength])
		sigs = append(sigs, sig)
		data = data[checkpoint.SignatureLength:]
	}
	return sigs
}
