package merkle_tree

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"shield/compliance-prover/hasher"
)

func leaves(vals ...int64) []*big.Int {
	out := make([]*big.Int, len(vals))
	for i, v := range vals {
		out[i] = big.NewInt(v)
	}
	return out
}

func TestRootDeterministic(t *testing.T) {
	a, err := NewTree(DefaultDepth, leaves(11111, 12345, 33333, 44444))
	assert.NoError(t, err)
	b, err := NewTree(DefaultDepth, leaves(11111, 12345, 33333, 44444))
	assert.NoError(t, err)
	assert.Equal(t, 0, a.Root().Cmp(b.Root()))
}

func TestRootDependsOnOrder(t *testing.T) {
	a, err := NewTree(DefaultDepth, leaves(1, 2))
	assert.NoError(t, err)
	b, err := NewTree(DefaultDepth, leaves(2, 1))
	assert.NoError(t, err)
	assert.NotEqual(t, 0, a.Root().Cmp(b.Root()))
}

func TestEmptyLeafSetRejected(t *testing.T) {
	_, err := NewTree(DefaultDepth, nil)
	assert.ErrorIs(t, err, ErrEmptyLeafSet)
}

func TestInvalidLeafRejected(t *testing.T) {
	_, err := NewTree(DefaultDepth, []*big.Int{hasher.Modulus()})
	assert.Error(t, err)
}

func TestCapacityBound(t *testing.T) {
	_, err := NewTree(2, leaves(1, 2, 3, 4, 5))
	assert.Error(t, err)

	tree, err := NewTree(2, leaves(1, 2, 3, 4))
	assert.NoError(t, err)
	assert.Equal(t, 4, tree.LeafCount())
}

func TestSingleLeafTree(t *testing.T) {
	tree, err := NewTree(DefaultDepth, leaves(7))
	assert.NoError(t, err)

	proof, err := tree.ProofForLeaf(big.NewInt(7))
	assert.NoError(t, err)
	ok, err := proof.Verify()
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestInclusionProofRoundTrip(t *testing.T) {
	set := leaves(11111, 12345, 33333, 44444)
	tree, err := NewTree(DefaultDepth, set)
	assert.NoError(t, err)

	for _, leaf := range set {
		proof, err := tree.ProofForLeaf(leaf)
		assert.NoError(t, err)
		assert.Len(t, proof.PathElements, DefaultDepth)
		assert.Len(t, proof.PathIndices, DefaultDepth)
		ok, err := proof.Verify()
		assert.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestLeafIndex(t *testing.T) {
	tree, err := NewTree(DefaultDepth, leaves(11111, 12345, 33333, 44444))
	assert.NoError(t, err)

	idx, ok := tree.LeafIndex(big.NewInt(12345))
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = tree.LeafIndex(big.NewInt(99999))
	assert.False(t, ok)
}

func TestProofForMissingLeaf(t *testing.T) {
	tree, err := NewTree(DefaultDepth, leaves(11111, 12345))
	assert.NoError(t, err)

	_, err = tree.ProofForLeaf(big.NewInt(99999))
	assert.ErrorIs(t, err, ErrLeafNotFound)
}

func TestProofIndexOutOfRange(t *testing.T) {
	tree, err := NewTree(4, leaves(1, 2))
	assert.NoError(t, err)

	_, err = tree.Proof(16)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = tree.Proof(-1)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestTamperedProofFailsVerify(t *testing.T) {
	tree, err := NewTree(DefaultDepth, leaves(11111, 12345, 33333))
	assert.NoError(t, err)

	proof, err := tree.ProofForLeaf(big.NewInt(12345))
	assert.NoError(t, err)

	proof.PathElements[3] = big.NewInt(999)
	ok, err := proof.Verify()
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestPaddingIndexRejected(t *testing.T) {
	tree, err := NewTree(4, leaves(5, 6, 7))
	assert.NoError(t, err)

	_, err = tree.Proof(2)
	assert.NoError(t, err)
	_, err = tree.Proof(3)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestPaddingSiblingsAreZeroHashes(t *testing.T) {
	tree, err := NewTree(DefaultDepth, leaves(5))
	assert.NoError(t, err)

	proof, err := tree.Proof(0)
	assert.NoError(t, err)

	// A single-leaf tree's whole witness path runs along padding
	// subtrees, so every sibling must equal the zero-hash chain.
	zero := hasher.Zero()
	for d := 0; d < DefaultDepth; d++ {
		assert.Equal(t, 0, proof.PathElements[d].Cmp(zero), "level %d", d)
		zero, err = hasher.Hash(zero, zero)
		assert.NoError(t, err)
	}

	ok, err := proof.Verify()
	assert.NoError(t, err)
	assert.True(t, ok)
}
