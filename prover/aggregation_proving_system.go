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

type AggregationParameters struct {
	ScaledThreshold big.Int
	Commitment      big.Int
	WeightKyc       big.Int
	WeightAml       big.Int
	WeightJur       big.Int
	WeightAcc       big.Int
	ScoreKyc        big.Int
	ScoreAml        big.Int
	ScoreJur        big.Int
	ScoreAcc        big.Int
	Salt            big.Int
}

// PublicSignals lists the circuit's public inputs in witness order.
func (p *AggregationParameters) PublicSignals() []*big.Int {
	return []*big.Int{&p.ScaledThreshold, &p.Commitment, &p.WeightKyc, &p.WeightAml, &p.WeightJur, &p.WeightAcc}
}

func R1CSAggregation() (constraint.ConstraintSystem, error) {
	var circuit AggregationCircuit
	return frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
}

func SetupAggregation() (*ProvingSystem, error) {
	ccs, err := R1CSAggregation()
	if err != nil {
		return nil, err
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, err
	}
	return &ProvingSystem{Aggregation, 0, pk, vk, ccs}, nil
}

func (ps *ProvingSystem) ProveAggregation(params *AggregationParameters) (*Proof, error) {
	assignment := AggregationCircuit{
		ScaledThreshold: params.ScaledThreshold,
		Commitment:      params.Commitment,
		WeightKyc:       params.WeightKyc,
		WeightAml:       params.WeightAml,
		WeightJur:       params.WeightJur,
		WeightAcc:       params.WeightAcc,
		ScoreKyc:        params.ScoreKyc,
		ScoreAml:        params.ScoreAml,
		ScoreJur:        params.ScoreJur,
		ScoreAcc:        params.ScoreAcc,
		Salt:            params.Salt,
	}

	witness, err := frontend.NewWitness(&assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, err
	}

	logging.Logger().Info().Msg("Proving aggregate compliance score")
	proof, err := groth16.Prove(ps.ConstraintSystem, ps.ProvingKey, witness)
	if err != nil {
		return nil, err
	}

	return &Proof{proof}, nil
}

func (ps *ProvingSystem) VerifyAggregation(scaledThreshold big.Int, commitment big.Int, weights [4]big.Int, proof *Proof) error {
	publicAssignment := AggregationCircuit{
		ScaledThreshold: scaledThreshold,
		Commitment:      commitment,
		WeightKyc:       weights[0],
		WeightAml:       weights[1],
		WeightJur:       weights[2],
		WeightAcc:       weights[3],
	}
	witness, err := frontend.NewWitness(&publicAssignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return err
	}
	return groth16.Verify(proof.Proof, ps.VerifyingKey, witness)
}
