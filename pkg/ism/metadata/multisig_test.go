package metadata_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/celestiaorg/ismkit/pkg/ism/checkpoint"
	"github.com/celestiaorg/ismkit/pkg/ism/config"
	"github.com/celestiaorg/ismkit/pkg/ism/merkle"
	"github.com/celestiaorg/ismkit/pkg/ism/metadata"
)

func signature(b byte) []byte {
	return bytes.Repeat([]byte{b}, checkpoint.SignatureLength)
}

func TestMessageIDMultisigLayout(t *testing.T) {
	m := metadata.MultisigMetadata{
		Checkpoint: checkpoint.Checkpoint{
			MerkleTreeHook: config.MustParseAddress("0x00000000000000000000000000000000000000aa"),
			Root:           common.BytesToHash(bytes.Repeat([]byte{0x11}, 32)),
			Index:          0x01020304,
		},
		Signatures: [][]byte{signature(0x01), signature(0x02)},
	}
	encoded, err := metadata.EncodeMessageIDMultisig(m)
	require.NoError(t, err)
	require.Len(t, encoded, metadata.MessageIDHeaderLength+2*checkpoint.SignatureLength)
	require.Equal(t, byte(0xaa), encoded[31])
	require.Equal(t, bytes.Repeat([]byte{0x11}, 32), encoded[32:64])
	require.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, encoded[64:68])
	require.Equal(t, signature(0x01), encoded[68:133])

	decoded, err := metadata.Decode(config.MessageID, encoded)
	require.NoError(t, err)
	require.Equal(t, m.Checkpoint, decoded.Checkpoint)
	require.Equal(t, m.Signatures, decoded.Signatures)
}

func TestMerkleRootMultisigLayout(t *testing.T) {
	ctx := context.Background()
	tree := merkle.NewTree()
	var leaves []common.Hash
	for i := byte(1); i <= 5; i++ {
		leaf := common.BytesToHash(bytes.Repeat([]byte{i}, 32))
		leaves = append(leaves, leaf)
		_, err := tree.Insert(leaf)
		require.NoError(t, err)
	}
	proof, err := tree.Proof(ctx, 2, 4)
	require.NoError(t, err)

	m := metadata.MultisigMetadata{
		Checkpoint: checkpoint.Checkpoint{
			MerkleTreeHook: config.MustParseAddress("0x00000000000000000000000000000000000000aa"),
			Root:           tree.Root(),
			Index:          4,
		},
		MessageID:  leaves[2],
		Proof:      proof,
		Signatures: [][]byte{signature(0x07)},
	}
	encoded, err := metadata.Encode(config.MerkleRoot, m)
	require.NoError(t, err)
	require.Len(t, encoded, metadata.MerkleRootHeaderLength+checkpoint.SignatureLength)
	require.Equal(t, []byte{0, 0, 0, 2}, encoded[32:36])
	require.Equal(t, leaves[2].Bytes(), encoded[36:68])
	require.Equal(t, proof.Branch[0].Bytes(), encoded[68:100])
	require.Equal(t, []byte{0, 0, 0, 4}, encoded[1092:1096])

	decoded, err := metadata.DecodeMerkleRootMultisig(encoded)
	require.NoError(t, err)
	require.Equal(t, tree.Root(), decoded.Checkpoint.Root)
	require.Equal(t, m.Checkpoint, decoded.Checkpoint)
	require.Equal(t, m.Proof, decoded.Proof)
	require.Equal(t, m.Signatures, decoded.Signatures)
}

func TestMultisigErrors(t *testing.T) {
	_, err := metadata.EncodeMessageIDMultisig(metadata.MultisigMetadata{Signatures: [][]byte{make([]byte, 64)}})
	require.ErrorIs(t, err, metadata.ErrInvalidSignatureLength)

	_, err = metadata.EncodeMerkleRootMultisig(metadata.MultisigMetadata{Signatures: [][]byte{make([]byte, 66)}})
	require.ErrorIs(t, err, metadata.ErrInvalidSignatureLength)

	_, err = metadata.DecodeMessageIDMultisig(make([]byte, metadata.MessageIDHeaderLength-1))
	require.ErrorIs(t, err, metadata.ErrMetadataTooShort)

	_, err = metadata.DecodeMerkleRootMultisig(make([]byte, metadata.MerkleRootHeaderLength-1))
	require.ErrorIs(t, err, metadata.ErrMetadataTooShort)
}

func TestDecodeIgnoresTrailingPartialSignature(t *testing.T) {
	data := make([]byte, metadata.MessageIDHeaderLength)
	data = append(data, signature(0x05)...)
	data = append(data, 0x01, 0x02, 0x03)

	decoded, err := metadata.DecodeMessageIDMultisig(data)
	require.NoError(t, err)
	require.Len(t, decoded.Signatures, 1)
}

func TestSplitSignature(t *testing.T) {
	sig := append(append(bytes.Repeat([]byte{0x0a}, 32), bytes.Repeat([]byte{0x0b}, 32)...), 28)
	r, s, v, err := metadata.SplitSignature(sig)
	require.NoError(t, err)
	require.Equal(t, byte(0x0a), r[0])
	require.Equal(t, byte(0x0b), s[31])
	require.Equal(t, uint8(28), v)

	_, _, _, err = metadata.SplitSignature(sig[:10])
	require.ErrorIs(t, err, metadata.ErrInvalidSignatureLength)
}

func TestMessageIDRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var m metadata.MultisigMetadata
		copy(m.Checkpoint.MerkleTreeHook[:], rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "hook"))
		copy(m.Checkpoint.Root[:], rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "root"))
		m.Checkpoint.Index = rapid.Uint32().Draw(t, "index")
		m.Signatures = rapid.SliceOfN(rapid.SliceOfN(rapid.Byte(), 65, 65), 0, 8).Draw(t, "signatures")

		encoded, err := metadata.EncodeMessageIDMultisig(m)
		if err != nil {
			t.Fatal(err)
		}
		decoded, err := metadata.DecodeMessageIDMultisig(encoded)
		if err != nil {
			t.Fatal(err)
		}
		if decoded.Checkpoint != m.Checkpoint || len(decoded.Signatures) != len(m.Signatures) {
			t.Fatalf("round trip mismatch")
		}
		for i := range m.Signatures {
			if !bytes.Equal(decoded.Signatures[i], m.Signatures[i]) {
				t.Fatalf("signature %d mismatch", i)
			}
		}
	})
}

func TestMerkleRootRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var m metadata.MultisigMetadata
		copy(m.Checkpoint.MerkleTreeHook[:], rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "hook"))
		copy(m.MessageID[:], rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "message id"))
		m.Proof.Leaf = m.MessageID
		m.Proof.Index = rapid.Uint32().Draw(t, "leaf index")
		for i := range m.Proof.Branch {
			copy(m.Proof.Branch[i][:], rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "branch"))
		}
		m.Checkpoint.Index = rapid.Uint32().Draw(t, "index")
		m.Checkpoint.Root = m.Proof.Root()
		m.Signatures = rapid.SliceOfN(rapid.SliceOfN(rapid.Byte(), 65, 65), 0, 8).Draw(t, "signatures")

		encoded, err := metadata.EncodeMerkleRootMultisig(m)
		if err != nil {
			t.Fatal(err)
		}
		decoded, err := metadata.DecodeMerkleRootMultisig(encoded)
		if err != nil {
			t.Fatal(err)
		}
		if decoded.Checkpoint != m.Checkpoint || decoded.Proof != m.Proof || decoded.MessageID != m.MessageID {
			t.Fatalf("round trip mismatch")
		}
		if len(decoded.Signatures) != len(m.Signatures) {
			t.Fatalf("signature count %d != %d", len(decoded.Signatures), len(m.Signatures))
		}
	})
}
