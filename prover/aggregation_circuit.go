package prover

import (
	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// AggregationCircuit proves that the weighted sum of four committed
// compliance scores meets a public threshold without revealing any
// individual score. The threshold arrives pre-scaled by 100 so integer
// weights given in percent need no division in-circuit.
type AggregationCircuit struct {
	// public inputs
	ScaledThreshold frontend.Variable `gnark:",public"`
	Commitment      frontend.Variable `gnark:",public"`
	WeightKyc       frontend.Variable `gnark:",public"`
	WeightAml       frontend.Variable `gnark:",public"`
	WeightJur       frontend.Variable `gnark:",public"`
	WeightAcc       frontend.Variable `gnark:",public"`

	// private inputs
	ScoreKyc frontend.Variable `gnark:"input"`
	ScoreAml frontend.Variable `gnark:"input"`
	ScoreJur frontend.Variable `gnark:"input"`
	ScoreAcc frontend.Variable `gnark:"input"`
	Salt     frontend.Variable `gnark:"input"`
}

func (circuit *AggregationCircuit) Define(api frontend.API) error {
	commitment, err := HashGadget{In: []frontend.Variable{
		circuit.ScoreKyc,
		circuit.ScoreAml,
		circuit.ScoreJur,
		circuit.ScoreAcc,
		circuit.Salt,
	}}.Sum(api)
	if err != nil {
		return err
	}
	api.AssertIsEqual(commitment, circuit.Commitment)

	sum := api.Add(
		api.Mul(circuit.ScoreKyc, circuit.WeightKyc),
		api.Mul(circuit.ScoreAml, circuit.WeightAml),
		api.Mul(circuit.ScoreJur, circuit.WeightJur),
		api.Mul(circuit.ScoreAcc, circuit.WeightAcc),
	)
	AssertIsLessOrEqual{A: circuit.ScaledThreshold, B: sum, N: scoreBits}.Check(api)
	return nil
}

func ImportAggregationSetup(pkPath string, vkPath string) (*ProvingSystem, error) {
	var circuit AggregationCircuit

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

	return &ProvingSystem{Aggregation, 0, pk, vk, ccs}, nil
}
