// Package merkle_tree builds fixed-depth Merkle trees over identity sets
// and produces the inclusion proofs consumed by the proving circuits. Trees
// are immutable snapshots: the membership set is hashed once at
// construction and witness paths are read out of the stored levels.
package merkle_tree

import (
	"errors"
	"fmt"
	"math/big"

	"shield/compliance-prover/hasher"
)

// DefaultDepth matches the depth the circuits are compiled for. A proof
// generated from a tree of any other depth will not satisfy the circuit.
const DefaultDepth = 20

var (
	ErrEmptyLeafSet    = errors.New("leaf set is empty")
	ErrIndexOutOfRange = errors.New("leaf index out of range")
	ErrLeafNotFound    = errors.New("leaf not present in tree")
)

// Tree is a complete binary Merkle tree of fixed depth. Only the occupied
// prefix of each level is materialized; a node whose subtree holds nothing
// but padding is represented by the precomputed zero hash of its level, so
// building a tree costs O(leaves * depth) hashes regardless of depth.
// levels[0] holds the supplied leaves, levels[depth] holds the single root.
type Tree struct {
	depth     int
	leafCount int
	levels    [][]*big.Int
	zeroes    []*big.Int
	indexOf   map[string]int
}

// zeroHashes returns the hash of an all-padding subtree for each level:
// zeroes[0] is the zero leaf, zeroes[d] = H(zeroes[d-1], zeroes[d-1]).
func zeroHashes(depth int) ([]*big.Int, error) {
	zeroes := make([]*big.Int, depth+1)
	zeroes[0] = hasher.Zero()
	for d := 1; d <= depth; d++ {
		h, err := hasher.Hash(zeroes[d-1], zeroes[d-1])
		if err != nil {
			return nil, fmt.Errorf("zero hash level %d: %w", d, err)
		}
		zeroes[d] = h
	}
	return zeroes, nil
}

// InclusionProof is the witness path for one leaf. PathIndices[i] is the
// position of the level-i node on the path: 0 when it is a left child,
// 1 when it is a right child. PathElements[i] is its sibling.
type InclusionProof struct {
	Leaf         *big.Int
	LeafIndex    int
	PathElements []*big.Int
	PathIndices  []int
	Root         *big.Int
}

// NewTree hashes the leaf set into a tree of the given depth. Leaves keep
// their input order; the remainder of the leaf level is implicit padding
// with the zero element and is never hashed node by node.
func NewTree(depth int, leaves []*big.Int) (*Tree, error) {
	if depth <= 0 {
		return nil, fmt.Errorf("invalid tree depth %d", depth)
	}
	if len(leaves) == 0 {
		return nil, ErrEmptyLeafSet
	}
	capacity := 1 << depth
	if len(leaves) > capacity {
		return nil, fmt.Errorf("%d leaves exceed capacity %d of a depth-%d tree", len(leaves), capacity, depth)
	}

	zeroes, err := zeroHashes(depth)
	if err != nil {
		return nil, err
	}
	tree := &Tree{
		depth:     depth,
		leafCount: len(leaves),
		levels:    make([][]*big.Int, depth+1),
		zeroes:    zeroes,
		indexOf:   make(map[string]int, len(leaves)),
	}

	level := make([]*big.Int, len(leaves))
	for i, leaf := range leaves {
		if err := hasher.ValidateFieldElement(leaf); err != nil {
			return nil, fmt.Errorf("leaf %d: %w", i, err)
		}
		level[i] = new(big.Int).Set(leaf)
		key := leaf.String()
		if _, seen := tree.indexOf[key]; !seen {
			tree.indexOf[key] = i
		}
	}
	tree.levels[0] = level

	for d := 1; d <= depth; d++ {
		below := tree.levels[d-1]
		level := make([]*big.Int, (len(below)+1)/2)
		for i := range level {
			right := zeroes[d-1]
			if 2*i+1 < len(below) {
				right = below[2*i+1]
			}
			parent, err := hasher.Hash(below[2*i], right)
			if err != nil {
				return nil, fmt.Errorf("level %d node %d: %w", d, i, err)
			}
			level[i] = parent
		}
		tree.levels[d] = level
	}
	return tree, nil
}

func (t *Tree) Depth() int {
	return t.depth
}

// LeafCount is the number of supplied leaves, not counting padding.
func (t *Tree) LeafCount() int {
	return t.leafCount
}

func (t *Tree) Root() *big.Int {
	return new(big.Int).Set(t.levels[t.depth][0])
}

// LeafIndex returns the position of leaf in the tree. For duplicated
// leaves it returns the first occurrence.
func (t *Tree) LeafIndex(leaf *big.Int) (int, bool) {
	idx, ok := t.indexOf[leaf.String()]
	return idx, ok
}

// Proof returns the inclusion proof for the leaf at index. Only supplied
// leaves can be proven; indices in the padding range are rejected.
func (t *Tree) Proof(index int) (*InclusionProof, error) {
	if index < 0 || index >= t.leafCount {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	proof := &InclusionProof{
		Leaf:         new(big.Int).Set(t.levels[0][index]),
		LeafIndex:    index,
		PathElements: make([]*big.Int, t.depth),
		PathIndices:  make([]int, t.depth),
		Root:         t.Root(),
	}
	pos := index
	for d := 0; d < t.depth; d++ {
		proof.PathIndices[d] = pos & 1
		sibling := pos ^ 1
		if sibling < len(t.levels[d]) {
			proof.PathElements[d] = new(big.Int).Set(t.levels[d][sibling])
		} else {
			proof.PathElements[d] = new(big.Int).Set(t.zeroes[d])
		}
		pos >>= 1
	}
	return proof, nil
}

// ProofForLeaf looks the leaf up and returns its inclusion proof.
func (t *Tree) ProofForLeaf(leaf *big.Int) (*InclusionProof, error) {
	index, ok := t.LeafIndex(leaf)
	if !ok {
		return nil, ErrLeafNotFound
	}
	return t.Proof(index)
}

// Verify recomputes the root from the proof path off-circuit. It mirrors
// the circuit gadget and is used by tests and the mock verifier.
func (p *InclusionProof) Verify() (bool, error) {
	if len(p.PathElements) != len(p.PathIndices) {
		return false, fmt.Errorf("path length mismatch: %d elements, %d indices", len(p.PathElements), len(p.PathIndices))
	}
	current := new(big.Int).Set(p.Leaf)
	for i, sibling := range p.PathElements {
		var err error
		switch p.PathIndices[i] {
		case 0:
			current, err = hasher.Hash(current, sibling)
		case 1:
			current, err = hasher.Hash(sibling, current)
		default:
			return false, fmt.Errorf("path index %d is not a bit: %d", i, p.PathIndices[i])
		}
		if err != nil {
			return false, err
		}
	}
	return current.Cmp(p.Root) == 0, nil
}
