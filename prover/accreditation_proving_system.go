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

type AccreditationParameters struct {
	MinimumLevel    big.Int
	Commitment      big.Int
	IssuerKey       big.Int
	Level           big.Int
	Salt            big.Int
	AttestationHash big.Int
	IssuerNonce     big.Int
}

// PublicSignals lists the circuit's public inputs in witness order.
func (p *AccreditationParameters) PublicSignals() []*big.Int {
	return []*big.Int{&p.MinimumLevel, &p.Commitment, &p.IssuerKey}
}

func R1CSAccreditation() (constraint.ConstraintSystem, error) {
	var circuit AccreditationCircuit
	return frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
}

func SetupAccreditation() (*ProvingSystem, error) {
	ccs, err := R1CSAccreditation()
	if err != nil {
		return nil, err
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, err
	}
	return &ProvingSystem{Accreditation, 0, pk, vk, ccs}, nil
}

func (ps *ProvingSystem) ProveAccreditation(params *AccreditationParameters) (*Proof, error) {
	assignment := AccreditationCircuit{
		MinimumLevel:    params.MinimumLevel,
		Commitment:      params.Commitment,
		IssuerKey:       params.IssuerKey,
		Level:           params.Level,
		Salt:            params.Salt,
		AttestationHash: params.AttestationHash,
		IssuerNonce:     params.IssuerNonce,
	}

	witness, err := frontend.NewWitness(&assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, err
	}

	logging.Logger().Info().Msg("Proving accreditation level")
	proof, err := groth16.Prove(ps.ConstraintSystem, ps.ProvingKey, witness)
	if err != nil {
		return nil, err
	}

	return &Proof{proof}, nil
}

func (ps *ProvingSystem) VerifyAccreditation(minimumLevel big.Int, commitment big.Int, issuerKey big.Int, proof *Proof) error {
	publicAssignment := AccreditationCircuit{
		MinimumLevel: minimumLevel,
		Commitment:   commitment,
		IssuerKey:    issuerKey,
	}
	witness, err := frontend.NewWitness(&publicAssignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return err
	}
	return groth16.Verify(proof.Proof, ps.VerifyingKey, witness)
}
