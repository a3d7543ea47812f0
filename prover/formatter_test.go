package prover

import (
	"bytes"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	formatterOnce sync.Once
	formatterPS   *ProvingSystem
	formatterErr  error
)

func formatterSystem(t *testing.T) *ProvingSystem {
	formatterOnce.Do(func() {
		formatterPS, formatterErr = SetupJurisdiction()
	})
	require.NoError(t, formatterErr)
	return formatterPS
}

func formatterProof(t *testing.T, ps *ProvingSystem) (*Proof, *JurisdictionParameters) {
	params, err := NewAssembler().AssembleJurisdiction(&JurisdictionRequest{
		Code:        7,
		AllowedMask: 1 << 7,
		Salt:        big.NewInt(31337),
	})
	require.NoError(t, err)

	proof, err := ps.ProveJurisdiction(params)
	require.NoError(t, err)
	return proof, params
}

func TestFormatProofSwapsInnerPairs(t *testing.T) {
	ps := formatterSystem(t)
	proof, params := formatterProof(t, ps)

	var buf bytes.Buffer
	_, err := proof.Proof.WriteRawTo(&buf)
	require.NoError(t, err)
	raw := buf.Bytes()
	chunk := func(i int) string {
		return toHex(new(big.Int).SetBytes(raw[i*fpSize : (i+1)*fpSize]))
	}

	formatted, err := FormatProof(proof, params.PublicSignals())
	require.NoError(t, err)

	assert.Equal(t, [2]string{chunk(0), chunk(1)}, formatted.A)
	assert.Equal(t, [2]string{chunk(6), chunk(7)}, formatted.C)

	// The inner coordinate pairs of b come out swapped relative to the
	// raw serialization.
	assert.Equal(t, [2][2]string{
		{chunk(3), chunk(2)},
		{chunk(5), chunk(4)},
	}, formatted.B)
}

func TestFormatProofPublicSignals(t *testing.T) {
	ps := formatterSystem(t)
	proof, params := formatterProof(t, ps)

	formatted, err := FormatProof(proof, params.PublicSignals())
	require.NoError(t, err)
	require.Len(t, formatted.PublicSignals, 2)

	values, err := formatted.PublicSignalValues()
	require.NoError(t, err)
	assert.Equal(t, 0, values[0].Cmp(&params.Commitment))
	assert.Equal(t, 0, values[1].Cmp(&params.AllowedMask))
}

func TestReconstructProofRoundTrip(t *testing.T) {
	ps := formatterSystem(t)
	proof, params := formatterProof(t, ps)

	formatted, err := FormatProof(proof, params.PublicSignals())
	require.NoError(t, err)

	reconstructed, err := ReconstructProof(formatted)
	require.NoError(t, err)
	assert.NoError(t, ps.VerifyJurisdiction(params.Commitment, params.AllowedMask, reconstructed))
}

func TestValidateProofShape(t *testing.T) {
	valid := &OnChainProof{
		A:             [2]string{"0x1", "0x2"},
		B:             [2][2]string{{"0x3", "0x4"}, {"0x5", "0x6"}},
		C:             [2]string{"0x7", "0x8"},
		PublicSignals: []string{"0x9", "0xa"},
	}
	assert.NoError(t, ValidateProofShape(valid))

	badHex := *valid
	badHex.B[1][0] = "zzz"
	assert.Error(t, ValidateProofShape(&badHex))

	// One above the base field modulus.
	outOfField := *valid
	outOfField.A[0] = "0x30644e72e131a029b85045b68181585d97816a916871ca8d3c208c16d87cfd48"
	assert.Error(t, ValidateProofShape(&outOfField))

	badSignal := *valid
	badSignal.PublicSignals = []string{"0x1", "not-hex"}
	assert.Error(t, ValidateProofShape(&badSignal))
}

func TestCheckPublicCount(t *testing.T) {
	ps := formatterSystem(t)
	proof, params := formatterProof(t, ps)

	formatted, err := FormatProof(proof, params.PublicSignals())
	require.NoError(t, err)
	assert.NoError(t, CheckPublicCount(formatted, ps.VerifyingKey))

	short := *formatted
	short.PublicSignals = formatted.PublicSignals[:1]
	assert.Error(t, CheckPublicCount(&short, ps.VerifyingKey))
}

func TestProofJSONRoundTrip(t *testing.T) {
	ps := formatterSystem(t)
	proof, params := formatterProof(t, ps)

	data, err := proof.MarshalJSON()
	require.NoError(t, err)

	var decoded Proof
	require.NoError(t, decoded.UnmarshalJSON(data))
	assert.NoError(t, ps.VerifyJurisdiction(params.Commitment, params.AllowedMask, &decoded))
}
