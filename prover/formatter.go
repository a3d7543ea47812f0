package prover

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"github.com/consensys/gnark/backend/groth16"

	"shield/compliance-prover/hasher"
)

// OnChainProof is the calldata-shaped rendering of a Groth16 proof: three
// curve points as hex field elements plus the ordered public signals. The
// b point's inner coordinate pairs are swapped relative to the raw gnark
// serialization, matching the convention of EVM pairing verifiers.
type OnChainProof struct {
	A             [2]string    `json:"a"`
	B             [2][2]string `json:"b"`
	C             [2]string    `json:"c"`
	PublicSignals []string     `json:"publicSignals"`
}

// FormatProof renders a proof and its public signals for on-chain
// submission.
func FormatProof(proof *Proof, publicSignals []*big.Int) (*OnChainProof, error) {
	var buf bytes.Buffer
	if _, err := proof.Proof.WriteRawTo(&buf); err != nil {
		return nil, err
	}
	proofBytes := buf.Bytes()
	if len(proofBytes) < 8*fpSize {
		return nil, fmt.Errorf("truncated proof serialization: %d bytes", len(proofBytes))
	}

	chunks := [8]string{}
	for i := 0; i < 8; i++ {
		chunks[i] = toHex(new(big.Int).SetBytes(proofBytes[i*fpSize : (i+1)*fpSize]))
	}

	formatted := &OnChainProof{
		A: [2]string{chunks[0], chunks[1]},
		B: [2][2]string{
			{chunks[3], chunks[2]},
			{chunks[5], chunks[4]},
		},
		C:             [2]string{chunks[6], chunks[7]},
		PublicSignals: make([]string, len(publicSignals)),
	}
	for i, signal := range publicSignals {
		if err := hasher.ValidateFieldElement(signal); err != nil {
			return nil, fmt.Errorf("public signal %d: %w", i, err)
		}
		formatted.PublicSignals[i] = toHex(signal)
	}
	return formatted, nil
}

// ReconstructProof undoes the formatting, yielding a proof the pairing
// check can consume.
func ReconstructProof(formatted *OnChainProof) (*Proof, error) {
	if err := ValidateProofShape(formatted); err != nil {
		return nil, err
	}
	chunks := [8]string{
		formatted.A[0], formatted.A[1],
		formatted.B[0][1], formatted.B[0][0],
		formatted.B[1][1], formatted.B[1][0],
		formatted.C[0], formatted.C[1],
	}

	proofBytes := make([]byte, 8*fpSize)
	for i, chunk := range chunks {
		var v big.Int
		if err := fromHex(&v, chunk); err != nil {
			return nil, err
		}
		v.FillBytes(proofBytes[i*fpSize : (i+1)*fpSize])
	}
	proofBytes = append(proofBytes, emptyCommitmentTrailer()...)

	proof := &Proof{Proof: groth16.NewProof(ecc.BN254)}
	if _, err := proof.Proof.ReadFrom(bytes.NewReader(proofBytes)); err != nil {
		return nil, err
	}
	return proof, nil
}

// PublicSignalValues parses the hex signals back into field elements.
func (p *OnChainProof) PublicSignalValues() ([]*big.Int, error) {
	values := make([]*big.Int, len(p.PublicSignals))
	for i, signal := range p.PublicSignals {
		values[i] = new(big.Int)
		if err := fromHex(values[i], signal); err != nil {
			return nil, fmt.Errorf("public signal %d: %w", i, err)
		}
		if err := hasher.ValidateFieldElement(values[i]); err != nil {
			return nil, fmt.Errorf("public signal %d: %w", i, err)
		}
	}
	return values, nil
}

// ValidateProofShape checks structure only: every coordinate parses as a
// base field element and every signal as a scalar field element. It says
// nothing about whether the proof verifies.
func ValidateProofShape(p *OnChainProof) error {
	baseModulus := fp.Modulus()
	coords := []string{
		p.A[0], p.A[1],
		p.B[0][0], p.B[0][1], p.B[1][0], p.B[1][1],
		p.C[0], p.C[1],
	}
	for i, coord := range coords {
		var v big.Int
		if err := fromHex(&v, coord); err != nil {
			return fmt.Errorf("proof coordinate %d: %w", i, err)
		}
		if v.Sign() < 0 || v.Cmp(baseModulus) >= 0 {
			return fmt.Errorf("proof coordinate %d out of base field range", i)
		}
	}
	_, err := p.PublicSignalValues()
	return err
}

// CheckPublicCount rejects a signal list whose length does not match the
// verification key's declared public input count.
func CheckPublicCount(p *OnChainProof, vk groth16.VerifyingKey) error {
	expected := vk.NbPublicWitness()
	if len(p.PublicSignals) != expected {
		return fmt.Errorf("expected %d public signals, got %d", expected, len(p.PublicSignals))
	}
	return nil
}
