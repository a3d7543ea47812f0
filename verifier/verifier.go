// Package verifier is the read side of the proof pipeline. A Gateway
// answers one question per proof type: does this formatted proof verify
// against its public signals. The answer is always a plain boolean; a
// proof that fails to parse, carries the wrong number of signals, or
// fails the pairing check is simply not valid.
package verifier

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"

	"shield/compliance-prover/logging"
	"shield/compliance-prover/prover"
)

const (
	ModeReal = "real"
	ModeMock = "mock"
)

type Gateway interface {
	VerifyWhitelist(p *prover.OnChainProof) bool
	VerifyBlacklist(p *prover.OnChainProof) bool
	VerifyJurisdiction(p *prover.OnChainProof) bool
	VerifyAccreditation(p *prover.OnChainProof) bool
	VerifyAggregation(p *prover.OnChainProof) bool
}

// New builds a gateway for the configured mode. The mode is fixed for
// the gateway's lifetime.
func New(mode string, keys map[prover.CircuitType]groth16.VerifyingKey) (Gateway, error) {
	switch mode {
	case ModeReal:
		return NewRealVerifier(keys), nil
	case ModeMock:
		return NewMockVerifier(), nil
	default:
		return nil, fmt.Errorf("unknown verifier mode: %s", mode)
	}
}

// RealVerifier runs the Groth16 pairing check against the verification
// key of each circuit.
type RealVerifier struct {
	keys map[prover.CircuitType]groth16.VerifyingKey
}

func NewRealVerifier(keys map[prover.CircuitType]groth16.VerifyingKey) *RealVerifier {
	return &RealVerifier{keys: keys}
}

func (v *RealVerifier) VerifyWhitelist(p *prover.OnChainProof) bool {
	return v.verify(prover.Whitelist, p)
}

func (v *RealVerifier) VerifyBlacklist(p *prover.OnChainProof) bool {
	return v.verify(prover.Blacklist, p)
}

func (v *RealVerifier) VerifyJurisdiction(p *prover.OnChainProof) bool {
	return v.verify(prover.Jurisdiction, p)
}

func (v *RealVerifier) VerifyAccreditation(p *prover.OnChainProof) bool {
	return v.verify(prover.Accreditation, p)
}

func (v *RealVerifier) VerifyAggregation(p *prover.OnChainProof) bool {
	return v.verify(prover.Aggregation, p)
}

func (v *RealVerifier) verify(circuit prover.CircuitType, p *prover.OnChainProof) bool {
	vk, ok := v.keys[circuit]
	if !ok {
		logging.Logger().Warn().Str("circuit", string(circuit)).Msg("no verification key loaded")
		return false
	}
	if err := prover.CheckPublicCount(p, vk); err != nil {
		logging.Logger().Debug().Err(err).Str("circuit", string(circuit)).Msg("rejecting proof")
		return false
	}

	proof, err := prover.ReconstructProof(p)
	if err != nil {
		logging.Logger().Debug().Err(err).Str("circuit", string(circuit)).Msg("rejecting proof")
		return false
	}
	publicWitness, err := publicWitnessFromSignals(p)
	if err != nil {
		logging.Logger().Debug().Err(err).Str("circuit", string(circuit)).Msg("rejecting proof")
		return false
	}

	if err := groth16.Verify(proof.Proof, vk, publicWitness); err != nil {
		logging.Logger().Debug().Err(err).Str("circuit", string(circuit)).Msg("proof did not verify")
		return false
	}
	return true
}

func publicWitnessFromSignals(p *prover.OnChainProof) (witness.Witness, error) {
	signals, err := p.PublicSignalValues()
	if err != nil {
		return nil, err
	}
	publicWitness, err := witness.New(ecc.BN254.ScalarField())
	if err != nil {
		return nil, err
	}
	values := make(chan any, len(signals))
	for _, signal := range signals {
		values <- new(big.Int).Set(signal)
	}
	close(values)
	if err := publicWitness.Fill(len(signals), 0, values); err != nil {
		return nil, err
	}
	return publicWitness, nil
}

// MockVerifier accepts any structurally sound proof with the right
// number of signals for its circuit. It exists for environments without
// artifacts, where only the plumbing around verification is under test.
type MockVerifier struct{}

func NewMockVerifier() *MockVerifier {
	return &MockVerifier{}
}

func (v *MockVerifier) VerifyWhitelist(p *prover.OnChainProof) bool {
	return v.verify(prover.Whitelist, p)
}

func (v *MockVerifier) VerifyBlacklist(p *prover.OnChainProof) bool {
	return v.verify(prover.Blacklist, p)
}

func (v *MockVerifier) VerifyJurisdiction(p *prover.OnChainProof) bool {
	return v.verify(prover.Jurisdiction, p)
}

func (v *MockVerifier) VerifyAccreditation(p *prover.OnChainProof) bool {
	return v.verify(prover.Accreditation, p)
}

func (v *MockVerifier) VerifyAggregation(p *prover.OnChainProof) bool {
	return v.verify(prover.Aggregation, p)
}

func (v *MockVerifier) verify(circuit prover.CircuitType, p *prover.OnChainProof) bool {
	if len(p.PublicSignals) != prover.PublicSignalCount(circuit) {
		return false
	}
	return prover.ValidateProofShape(p) == nil
}
