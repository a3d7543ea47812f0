package prover

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"shield/compliance-prover/logging"
)

type BlacklistParameters struct {
	Root          big.Int
	NullifierHash big.Int
	Challenge     big.Int
	Identity      big.Int
	ClaimedLeaf   big.Int
	PathIndex     uint32
	PathElements  []big.Int
}

func (p *BlacklistParameters) TreeDepth() uint32 {
	return uint32(len(p.PathElements))
}

// PublicSignals lists the circuit's public inputs in witness order.
func (p *BlacklistParameters) PublicSignals() []*big.Int {
	return []*big.Int{&p.Root, &p.NullifierHash, &p.Challenge}
}

func (p *BlacklistParameters) ValidateShape(treeDepth uint32) error {
	if p.TreeDepth() != treeDepth {
		return fmt.Errorf("wrong size of merkle proof: %d", p.TreeDepth())
	}
	return nil
}

func R1CSBlacklist(treeDepth uint32) (constraint.ConstraintSystem, error) {
	circuit := BlacklistCircuit{
		PathElements: make([]frontend.Variable, treeDepth),
	}
	return frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
}

func SetupBlacklist(treeDepth uint32) (*ProvingSystem, error) {
	ccs, err := R1CSBlacklist(treeDepth)
	if err != nil {
		return nil, err
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, err
	}
	return &ProvingSystem{Blacklist, treeDepth, pk, vk, ccs}, nil
}

func (ps *ProvingSystem) ProveBlacklist(params *BlacklistParameters) (*Proof, error) {
	if err := params.ValidateShape(ps.TreeDepth); err != nil {
		return nil, err
	}

	pathElements := make([]frontend.Variable, ps.TreeDepth)
	for i := 0; i < int(ps.TreeDepth); i++ {
		pathElements[i] = params.PathElements[i]
	}

	assignment := BlacklistCircuit{
		Root:          params.Root,
		NullifierHash: params.NullifierHash,
		Challenge:     params.Challenge,
		Identity:      params.Identity,
		ClaimedLeaf:   params.ClaimedLeaf,
		PathIndex:     params.PathIndex,
		PathElements:  pathElements,
	}

	witness, err := frontend.NewWitness(&assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, err
	}

	logging.Logger().Info().Uint32("treeDepth", ps.TreeDepth).Msg("Proving blacklist non-membership")
	proof, err := groth16.Prove(ps.ConstraintSystem, ps.ProvingKey, witness)
	if err != nil {
		return nil, err
	}

	return &Proof{proof}, nil
}

func (ps *ProvingSystem) VerifyBlacklist(root big.Int, nullifierHash big.Int, challenge big.Int, proof *Proof) error {
	publicAssignment := BlacklistCircuit{
		Root:          root,
		NullifierHash: nullifierHash,
		Challenge:     challenge,
	}
	witness, err := frontend.NewWitness(&publicAssignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return err
	}
	return groth16.Verify(proof.Proof, ps.VerifyingKey, witness)
}
