package prover

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"shield/compliance-prover/logging"
)

type JurisdictionParameters struct {
	Commitment  big.Int
	AllowedMask big.Int
	Code        big.Int
	Salt        big.Int
}

// PublicSignals lists the circuit's public inputs in witness order.
func (p *JurisdictionParameters) PublicSignals() []*big.Int {
	return []*big.Int{&p.Commitment, &p.AllowedMask}
}

func R1CSJurisdiction() (constraint.ConstraintSystem, error) {
	var circuit JurisdictionCircuit
	return frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
}

func SetupJurisdiction() (*ProvingSystem, error) {
	ccs, err := R1CSJurisdiction()
	if err != nil {
		return nil, err
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, err
	}
	return &ProvingSystem{Jurisdiction, 0, pk, vk, ccs}, nil
}

func (ps *ProvingSystem) ProveJurisdiction(params *JurisdictionParameters) (*Proof, error) {
	assignment := JurisdictionCircuit{
		Commitment:  params.Commitment,
		AllowedMask: params.AllowedMask,
		Code:        params.Code,
		Salt:        params.Salt,
	}

	witness, err := frontend.NewWitness(&assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, err
	}

	logging.Logger().Info().Msg("Proving jurisdiction eligibility")
	proof, err := groth16.Prove(ps.ConstraintSystem, ps.ProvingKey, witness)
	if err != nil {
		return nil, err
	}

	return &Proof{proof}, nil
}

func (ps *ProvingSystem) VerifyJurisdiction(commitment big.Int, allowedMask big.Int, proof *Proof) error {
	publicAssignment := JurisdictionCircuit{
		Commitment:  commitment,
		AllowedMask: allowedMask,
	}
	witness, err := frontend.NewWitness(&publicAssignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return err
	}
	return groth16.Verify(proof.Proof, ps.VerifyingKey, witness)
}
