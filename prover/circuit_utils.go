package prover

import (
	"math/big"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
)

// TreeDepth is the Merkle depth all membership circuits are compiled for.
const TreeDepth = 20

// scoreBits bounds the range decompositions in the comparison gadgets.
// Levels, scores and weighted sums all fit comfortably in 64 bits.
const scoreBits = 64

type Proof struct {
	Proof groth16.Proof
}

// ProvingSystem bundles the compiled constraint system with its Groth16
// key pair for one circuit.
type ProvingSystem struct {
	CircuitType      CircuitType
	TreeDepth        uint32
	ProvingKey       groth16.ProvingKey
	VerifyingKey     groth16.VerifyingKey
	ConstraintSystem constraint.ConstraintSystem
}

// HashGadget absorbs its inputs into the in-circuit MiMC. The digest
// matches the off-circuit hasher for the same sequence of elements.
type HashGadget struct {
	In []frontend.Variable
}

func (gadget HashGadget) Sum(api frontend.API) (frontend.Variable, error) {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return nil, err
	}
	h.Write(gadget.In...)
	return h.Sum(), nil
}

// MerkleRootGadget recomputes the root from a leaf and its path. Index
// bit i selects whether the level-i node is a right child.
type MerkleRootGadget struct {
	Leaf  frontend.Variable
	Index frontend.Variable
	Path  []frontend.Variable
}

func (gadget MerkleRootGadget) Root(api frontend.API) (frontend.Variable, error) {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return nil, err
	}
	bits := api.ToBinary(gadget.Index, len(gadget.Path))
	current := gadget.Leaf
	for i, sibling := range gadget.Path {
		left := api.Select(bits[i], sibling, current)
		right := api.Select(bits[i], current, sibling)
		h.Reset()
		h.Write(left, right)
		current = h.Sum()
	}
	return current, nil
}

// AssertIsLessOrEqual constrains A <= B for values known to fit in N bits.
// N must stay well below the field bit length so the shifted sum cannot
// wrap, see https://github.com/zkopru-network/zkopru/issues/116.
type AssertIsLessOrEqual struct {
	A frontend.Variable
	B frontend.Variable
	N int
}

func (gadget AssertIsLessOrEqual) Check(api frontend.API) {
	oneShifted := new(big.Int).Lsh(big.NewInt(1), uint(gadget.N))
	num := api.Add(gadget.B, api.Sub(oneShifted, gadget.A))
	bin := api.ToBinary(num, gadget.N+1)
	api.AssertIsEqual(1, bin[gadget.N])
}
