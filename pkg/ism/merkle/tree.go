// Package merkle implements the depth 32 incremental keccak Merkle tree used by
// merkle tree hooks, together with inclusion proofs against historical roots.
package merkle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// TreeDepth is the fixed depth of the tree.
const TreeDepth = 32

// MaxLeaves is the capacity of the tree.
const MaxLeaves = 1<<TreeDepth - 1

var (
	ErrTreeFull     = errors.New("merkle tree is full")
	ErrLeafNotFound = errors.New("leaf index out of range")
)

// zeroHashes[i] is the root of an empty subtree of height i.
var zeroHashes = func() [TreeDepth + 1]common.Hash {
	var z [TreeDepth + 1]common.Hash
	for i := 0; i < TreeDepth; i++ {
		z[i+1] = hashPair(z[i], z[i])
	}
	return z
}()

func hashPair(left, right common.Hash) common.Hash {
	return crypto.Keccak256Hash(left[:], right[:])
}

// ZeroHash returns the root of an empty subtree of the given height.
func ZeroHash(height int) common.Hash {
	return zeroHashes[height]
}

// Proof is an inclusion proof of Leaf at position Index.
type Proof struct {
	Leaf   common.Hash
	Index  uint32
	Branch [TreeDepth]common.Hash
}

// Root computes the root the proof commits to.
func (p Proof) Root() common.Hash {
	return BranchRoot(p.Leaf, p.Branch, p.Index)
}

// BranchRoot folds leaf up the tree along branch.
func BranchRoot(leaf common.Hash, branch [TreeDepth]common.Hash, index uint32) common.Hash {
	current := leaf
	for i := 0; i < TreeDepth; i++ {
		if (index>>i)&1 == 1 {
			current = hashPair(branch[i], current)
		} else {
			current = hashPair(current, branch[i])
		}
	}
	return current
}

// ProofProvider returns a proof of the leaf at leafIndex against the root of
// the tree as it was after checkpointIndex was inserted.
type ProofProvider interface {
	Proof(ctx context.Context, leafIndex, checkpointIndex uint32) (Proof, error)
}

// Tree is an incremental Merkle tree that also retains its leaves so that
// proofs against any historical root can be produced. It is safe for
// concurrent use.
type Tree struct {
	mu     sync.RWMutex
	branch [TreeDepth]common.Hash
	leaves []common.Hash
}

var _ ProofProvider = (*Tree)(nil)

func NewTree() *Tree {
	return &Tree{}
}

// Insert appends a leaf and returns its index.
func (t *Tree) Insert(leaf common.Hash) (uint32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if uint64(len(t.leaves)) >= MaxLeaves {
		return 0, ErrTreeFull
	}
	index := uint32(len(t.leaves))
	t.leaves = append(t.leaves, leaf)

	size := uint64(len(t.leaves))
	node := leaf
	for i := 0; i < TreeDepth; i++ {
		if size&1 == 1 {
			t.branch[i] = node
			return index, nil
		}
		node = hashPair(t.branch[i], node)
		size >>= 1
	}
	return index, nil
}

// Count returns the number of inserted leaves.
func (t *Tree) Count() uint32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return uint32(len(t.leaves))
}

// Root returns the current root.
func (t *Tree) Root() common.Hash {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var current common.Hash
	size := uint64(len(t.leaves))
	for i := 0; i < TreeDepth; i++ {
		if (size>>i)&1 == 1 {
			current = hashPair(t.branch[i], current)
		} else {
			current = hashPair(current, zeroHashes[i])
		}
	}
	return current
}

// Proof implements ProofProvider.
func (t *Tree) Proof(_ context.Context, leafIndex, checkpointIndex uint32) (Proof, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if uint64(checkpointIndex) >= uint64(len(t.leaves)) {
		return Proof{}, fmt.Errorf("%w: checkpoint %d with %d leaves", ErrLeafNotFound, checkpointIndex, len(t.leaves))
	}
	if leafIndex > checkpointIndex {
		return Proof{}, fmt.Errorf("%w: leaf %d after checkpoint %d", ErrLeafNotFound, leafIndex, checkpointIndex)
	}

	proof := Proof{Leaf: t.leaves[leafIndex], Index: leafIndex}
	nodes := append([]common.Hash(nil), t.leaves[:checkpointIndex+1]...)
	idx := leafIndex
	for i := 0; i < TreeDepth; i++ {
		sibling := idx ^ 1
		if int(sibling) < len(nodes) {
			proof.Branch[i] = nodes[sibling]
		} else {
			proof.Branch[i] = zeroHashes[i]
		}

		next := make([]common.Hash, 0, (len(nodes)+1)/2)
		for j := 0; j < len(nodes); j += 2 {
			right := zeroHashes[i]
			if j+1 < len(nodes) {
				right = nodes[j+1]
			}
			next = append(next, hashPair(nodes[j], right))
		}
		nodes = next
		idx >>= 1
	}
	return proof, nil
}
