package prover

import (
	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// BlacklistCircuit proves that a committed snapshot leaf is not the
// hidden identity's leaf. The verifier-chosen challenge is folded into
// the nullifier so a proof cannot be replayed across sessions.
type BlacklistCircuit struct {
	// public inputs
	Root          frontend.Variable `gnark:",public"`
	NullifierHash frontend.Variable `gnark:",public"`
	Challenge     frontend.Variable `gnark:",public"`

	// private inputs
	Identity     frontend.Variable   `gnark:"input"`
	ClaimedLeaf  frontend.Variable   `gnark:"input"`
	PathIndex    frontend.Variable   `gnark:"input"`
	PathElements []frontend.Variable `gnark:"input"`
}

func (circuit *BlacklistCircuit) Define(api frontend.API) error {
	root, err := MerkleRootGadget{
		Leaf:  circuit.ClaimedLeaf,
		Index: circuit.PathIndex,
		Path:  circuit.PathElements,
	}.Root(api)
	if err != nil {
		return err
	}
	api.AssertIsEqual(root, circuit.Root)

	identityLeaf, err := HashGadget{In: []frontend.Variable{circuit.Identity}}.Sum(api)
	if err != nil {
		return err
	}
	api.AssertIsDifferent(identityLeaf, circuit.ClaimedLeaf)

	nullifier, err := HashGadget{In: []frontend.Variable{circuit.Identity, circuit.Root, circuit.Challenge}}.Sum(api)
	if err != nil {
		return err
	}
	api.AssertIsEqual(nullifier, circuit.NullifierHash)
	return nil
}

func ImportBlacklistSetup(treeDepth uint32, pkPath string, vkPath string) (*ProvingSystem, error) {
	circuit := BlacklistCircuit{
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

	return &ProvingSystem{Blacklist, treeDepth, pk, vk, ccs}, nil
}
