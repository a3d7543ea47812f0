// Package hasher wraps the two hash functions the proof engine is built on:
// a circuit-friendly algebraic hash (MiMC over the BN254 scalar field, which
// has a bit-for-bit identical in-circuit counterpart in gnark) and Keccak-256
// for off-circuit bookkeeping such as deriving field-element identities from
// external addresses or credentials.
package hasher

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/iden3/go-iden3-crypto/keccak256"
)

// modulus is the BN254 scalar field order. Every value handled by the
// engine lives in [0, modulus).
var modulus = fr.Modulus()

func Modulus() *big.Int {
	return new(big.Int).Set(modulus)
}

// Zero is the canonical zero element used for Merkle tree padding.
func Zero() *big.Int {
	return new(big.Int)
}

// ValidateFieldElement rejects values outside [0, modulus). Callers feed
// these into circuits, where an out-of-range value would only surface as
// an opaque constraint failure much later.
func ValidateFieldElement(x *big.Int) error {
	if x == nil {
		return fmt.Errorf("nil field element")
	}
	if x.Sign() < 0 {
		return fmt.Errorf("negative value %s is not a field element", x)
	}
	if x.Cmp(modulus) >= 0 {
		return fmt.Errorf("value %s exceeds the field modulus", x)
	}
	return nil
}

// Hash absorbs the inputs into MiMC in order and returns the digest as a
// big.Int. The result matches what the in-circuit MiMC gadget computes for
// the same sequence of field elements.
func Hash(inputs ...*big.Int) (*big.Int, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("hash requires at least one input")
	}
	h := mimc.NewMiMC()
	for i, in := range inputs {
		if err := ValidateFieldElement(in); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		var el fr.Element
		el.SetBigInt(in)
		b := el.Bytes()
		if _, err := h.Write(b[:]); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
	}
	return new(big.Int).SetBytes(h.Sum(nil)), nil
}

// Keccak returns the Keccak-256 digest of the concatenated byte slices.
// Used only off-circuit.
func Keccak(data ...[]byte) []byte {
	return keccak256.Hash(data...)
}

// HashIdentity maps an external credential (address bytes, credential
// blob) to an identity field element: Keccak-256 reduced modulo the field
// order. The cleartext credential never leaves this function's caller.
func HashIdentity(credential []byte) *big.Int {
	digest := new(big.Int).SetBytes(keccak256.Hash(credential))
	return digest.Mod(digest, modulus)
}
