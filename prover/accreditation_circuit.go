package prover

import (
	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// AccreditationCircuit proves that a committed accreditation level meets
// a public minimum and was attested by the holder of a known issuer key.
// The level itself stays hidden.
type AccreditationCircuit struct {
	// public inputs
	MinimumLevel frontend.Variable `gnark:",public"`
	Commitment   frontend.Variable `gnark:",public"`
	IssuerKey    frontend.Variable `gnark:",public"`

	// private inputs
	Level           frontend.Variable `gnark:"input"`
	Salt            frontend.Variable `gnark:"input"`
	AttestationHash frontend.Variable `gnark:"input"`
	IssuerNonce     frontend.Variable `gnark:"input"`
}

func (circuit *AccreditationCircuit) Define(api frontend.API) error {
	commitment, err := HashGadget{In: []frontend.Variable{circuit.Level, circuit.Salt}}.Sum(api)
	if err != nil {
		return err
	}
	api.AssertIsEqual(commitment, circuit.Commitment)

	AssertIsLessOrEqual{A: circuit.MinimumLevel, B: circuit.Level, N: scoreBits}.Check(api)

	attestation, err := HashGadget{In: []frontend.Variable{circuit.Level, circuit.IssuerNonce, circuit.IssuerKey}}.Sum(api)
	if err != nil {
		return err
	}
	api.AssertIsEqual(attestation, circuit.AttestationHash)
	return nil
}

func ImportAccreditationSetup(pkPath string, vkPath string) (*ProvingSystem, error) {
	var circuit AccreditationCircuit

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

	return &ProvingSystem{Accreditation, 0, pk, vk, ccs}, nil
}
