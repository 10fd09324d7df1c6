package merkle_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/celestiaorg/ismkit/pkg/ism/merkle"
)

func leaf(b byte) common.Hash {
	return common.BytesToHash(bytes.Repeat([]byte{b}, 32))
}

func TestEmptyRoot(t *testing.T) {
	tree := merkle.NewTree()
	require.Equal(t, "0x27ae5ba08d7291c96c8cbddcc148bf48a6d68c7974b94356f53754ef6171d757", tree.Root().Hex())
	require.Equal(t, merkle.ZeroHash(merkle.TreeDepth), tree.Root())
}

func TestKnownRoots(t *testing.T) {
	tree := merkle.NewTree()

	_, err := tree.Insert(leaf(1))
	require.NoError(t, err)
	require.Equal(t, "0xbb8f0efcecad856c94b9253d646c8c615d625e213c91521566f7a09f95971f06", tree.Root().Hex())

	_, err = tree.Insert(leaf(2))
	require.NoError(t, err)
	index, err := tree.Insert(leaf(3))
	require.NoError(t, err)
	require.Equal(t, uint32(2), index)
	require.Equal(t, uint32(3), tree.Count())
	require.Equal(t, "0xb358f03f25ba8818ca8bcb192a971f29f023ae4d2b562d77292da2aedc622bae", tree.Root().Hex())
}

func TestProofAgainstHistoricalRoot(t *testing.T) {
	ctx := context.Background()
	tree := merkle.NewTree()
	roots := make([]common.Hash, 0, 9)
	for i := byte(1); i <= 9; i++ {
		_, err := tree.Insert(leaf(i))
		require.NoError(t, err)
		roots = append(roots, tree.Root())
	}

	for checkpoint := uint32(0); checkpoint < 9; checkpoint++ {
		for leafIndex := uint32(0); leafIndex <= checkpoint; leafIndex++ {
			proof, err := tree.Proof(ctx, leafIndex, checkpoint)
			require.NoError(t, err)
			require.Equal(t, leaf(byte(leafIndex+1)), proof.Leaf)
			require.Equal(t, roots[checkpoint], proof.Root(), "leaf %d checkpoint %d", leafIndex, checkpoint)
		}
	}
}

func TestProofOutOfRange(t *testing.T) {
	ctx := context.Background()
	tree := merkle.NewTree()
	_, err := tree.Insert(leaf(1))
	require.NoError(t, err)

	_, err = tree.Proof(ctx, 0, 1)
	require.ErrorIs(t, err, merkle.ErrLeafNotFound)

	_, err = tree.Insert(leaf(2))
	require.NoError(t, err)
	_, err = tree.Proof(ctx, 1, 0)
	require.ErrorIs(t, err, merkle.ErrLeafNotFound)
}

func TestProofRootProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 40).Draw(t, "leaves")
		tree := merkle.NewTree()
		for i := 0; i < n; i++ {
			b := rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "leaf")
			if _, err := tree.Insert(common.BytesToHash(b)); err != nil {
				t.Fatal(err)
			}
		}
		index := uint32(rapid.IntRange(0, n-1).Draw(t, "index"))
		proof, err := tree.Proof(context.Background(), index, uint32(n-1))
		if err != nil {
			t.Fatal(err)
		}
		if proof.Root() != tree.Root() {
			t.Fatalf("proof root %s != tree root %s", proof.Root(), tree.Root())
		}
	})
}
