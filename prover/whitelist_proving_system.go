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

type WhitelistParameters struct {
	Root          big.Int
	NullifierHash big.Int
	Identity      big.Int
	PathIndex     uint32
	PathElements  []big.Int
}

func (p *WhitelistParameters) TreeDepth() uint32 {
	return uint32(len(p.PathElements))
}

// PublicSignals lists the circuit's public inputs in witness order.
func (p *WhitelistParameters) PublicSignals() []*big.Int {
	return []*big.Int{&p.Root, &p.NullifierHash}
}

func (p *WhitelistParameters) ValidateShape(treeDepth uint32) error {
	if p.TreeDepth() != treeDepth {
		return fmt.Errorf("wrong size of merkle proof: %d", p.TreeDepth())
	}
	return nil
}

func R1CSWhitelist(treeDepth uint32) (constraint.ConstraintSystem, error) {
	circuit := WhitelistCircuit{
		PathElements: make([]frontend.Variable, treeDepth),
	}
	return frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
}

func SetupWhitelist(treeDepth uint32) (*ProvingSystem, error) {
	ccs, err := R1CSWhitelist(treeDepth)
	if err != nil {
		return nil, err
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, err
	}
	return &ProvingSystem{Whitelist, treeDepth, pk, vk, ccs}, nil
}

func (ps *ProvingSystem) ProveWhitelist(params *WhitelistParameters) (*Proof, error) {
	if err := params.ValidateShape(ps.TreeDepth); err != nil {
		return nil, err
	}

	pathElements := make([]frontend.Variable, ps.TreeDepth)
	for i := 0; i < int(ps.TreeDepth); i++ {
		pathElements[i] = params.PathElements[i]
	}

	assignment := WhitelistCircuit{
		Root:          params.Root,
		NullifierHash: params.NullifierHash,
		Identity:      params.Identity,
		PathIndex:     params.PathIndex,
		PathElements:  pathElements,
	}

	witness, err := frontend.NewWitness(&assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, err
	}

	logging.Logger().Info().Uint32("treeDepth", ps.TreeDepth).Msg("Proving whitelist membership")
	proof, err := groth16.Prove(ps.ConstraintSystem, ps.ProvingKey, witness)
	if err != nil {
		return nil, err
	}

	return &Proof{proof}, nil
}

func (ps *ProvingSystem) VerifyWhitelist(root big.Int, nullifierHash big.Int, proof *Proof) error {
	publicAssignment := WhitelistCircuit{
		Root:          root,
		NullifierHash: nullifierHash,
	}
	witness, err := frontend.NewWitness(&publicAssignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return err
	}
	return groth16.Verify(proof.Proof, ps.VerifyingKey, witness)
}
