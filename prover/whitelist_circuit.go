package prover

import (
	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// WhitelistCircuit proves membership of a hidden identity in a Merkle
// snapshot and binds the proof to a nullifier so one identity cannot
// present two unlinkable membership proofs for the same snapshot.
type WhitelistCircuit struct {
	// public inputs
	Root          frontend.Variable `gnark:",public"`
	NullifierHash frontend.Variable `gnark:",public"`

	// private inputs
	Identity     frontend.Variable   `gnark:"input"`
	PathIndex    frontend.Variable   `gnark:"input"`
	PathElements []frontend.Variable `gnark:"input"`
}

func (circuit *WhitelistCircuit) Define(api frontend.API) error {
	leaf, err := HashGadget{In: []frontend.Variable{circuit.Identity}}.Sum(api)
	if err != nil {
		return err
	}

	root, err := MerkleRootGadget{
		Leaf:  leaf,
		Index: circuit.PathIndex,
		Path:  circuit.PathElements,
	}.Root(api)
	if err != nil {
		return err
	}
	api.AssertIsEqual(root, circuit.Root)

	nullifier, err := HashGadget{In: []frontend.Variable{circuit.Identity, circuit.Root}}.Sum(api)
	if err != nil {
		return err
	}
	api.AssertIsEqual(nullifier, circuit.NullifierHash)
	return nil
}

func ImportWhitelistSetup(treeDepth uint32, pkPath string, vkPath string) (*ProvingSystem, error) {
	circuit := WhitelistCircuit{
		PathElements: make([]frontend.Variable, treeDepth),
	}

	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
	if err != nil {
		return nil, err
	}

	pk, err := LoadProvingKey(pkPath)
	if err != nil {
		return nil, err
	}

	vk, err := LoadVerifyingKey(vkPath)
	if err != nil {
		return nil, err
	}

	return &ProvingSystem{Whitelist, treeDepth, pk, vk, ccs}, nil
}
