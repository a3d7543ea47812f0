package prover

import (
	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// MaskBits is the width of the allowed-jurisdiction bitmask. Codes are
// indices into the mask and must stay below this bound.
const MaskBits = 64

// JurisdictionCircuit proves that a committed jurisdiction code is one of
// the codes enabled in a public bitmask, without revealing the code.
type JurisdictionCircuit struct {
	// public inputs
	Commitment  frontend.Variable `gnark:",public"`
	AllowedMask frontend.Variable `gnark:",public"`

	// private inputs
	Code frontend.Variable `gnark:"input"`
	Salt frontend.Variable `gnark:"input"`
}

func (circuit *JurisdictionCircuit) Define(api frontend.API) error {
	commitment, err := HashGadget{In: []frontend.Variable{circuit.Code, circuit.Salt}}.Sum(api)
	if err != nil {
		return err
	}
	api.AssertIsEqual(commitment, circuit.Commitment)

	// Decomposing the code to 6 bits also enforces code < 64.
	api.ToBinary(circuit.Code, 6)

	maskBits := api.ToBinary(circuit.AllowedMask, MaskBits)
	selected := frontend.Variable(0)
	for i := 0; i < MaskBits; i++ {
		isCode := api.IsZero(api.Sub(circuit.Code, i))
		selected = api.Add(selected, api.Mul(isCode, maskBits[i]))
	}
	api.AssertIsEqual(selected, 1)
	return nil
}

func ImportJurisdictionSetup(pkPath string, vkPath string) (*ProvingSystem, error) {
	var circuit JurisdictionCircuit

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

	return &ProvingSystem{Jurisdiction, 0, pk, vk, ccs}, nil
}
