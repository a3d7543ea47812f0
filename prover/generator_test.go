package prover

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCircuitType(t *testing.T) {
	cases := []struct {
		body     string
		expected CircuitType
	}{
		{`{"identity":"0x1","members":["0x1"]}`, Whitelist},
		{`{"identity":"0x1","members":["0x2"],"challenge":"0x3"}`, Blacklist},
		{`{"code":5,"allowedMask":32}`, Jurisdiction},
		{`{"level":3,"minimumLevel":2,"issuerKey":"0x1","issuerNonce":"0x2"}`, Accreditation},
		{`{"scoreKyc":90,"weights":[25,25,25,25],"minimumScore":50}`, Aggregation},
	}
	for _, tc := range cases {
		circuit, err := ParseCircuitType([]byte(tc.body))
		assert.NoError(t, err)
		assert.Equal(t, tc.expected, circuit)
	}

	_, err := ParseCircuitType([]byte(`{"something":"else"}`))
	assert.Error(t, err)
}

func TestRegistryMissingArtifact(t *testing.T) {
	registry := NewRegistry(nil)
	_, err := registry.Get(Whitelist)
	assert.ErrorIs(t, err, ErrCircuitArtifactMissing)
}

func TestProveJSONJurisdiction(t *testing.T) {
	ps := formatterSystem(t)
	generator := NewGenerator(NewRegistry([]*ProvingSystem{ps}))

	body := []byte(`{"code":5,"allowedMask":32,"salt":"0x7"}`)
	formatted, err := generator.ProveJSON(context.Background(), body)
	require.NoError(t, err)
	assert.Len(t, formatted.PublicSignals, 2)
	assert.NoError(t, ValidateProofShape(formatted))
}

func TestProveJSONPreCheckBeforeArtifactLookup(t *testing.T) {
	// The domain rejection must surface even when no artifact is loaded.
	generator := NewGenerator(NewRegistry(nil))

	body := []byte(`{"code":6,"allowedMask":32}`)
	_, err := generator.ProveJSON(context.Background(), body)
	assert.ErrorIs(t, err, ErrJurisdictionNotAllowed)
	assert.True(t, IsPreCheckError(err))
}

func TestProveJSONMissingArtifact(t *testing.T) {
	generator := NewGenerator(NewRegistry(nil))

	body := []byte(`{"code":5,"allowedMask":32}`)
	_, err := generator.ProveJSON(context.Background(), body)
	assert.ErrorIs(t, err, ErrCircuitArtifactMissing)
	assert.False(t, IsPreCheckError(err))
}

func TestProveJSONCancelledContext(t *testing.T) {
	ps := formatterSystem(t)
	generator := NewGenerator(NewRegistry([]*ProvingSystem{ps}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	body := []byte(`{"code":5,"allowedMask":32}`)
	_, err := generator.ProveJSON(ctx, body)
	assert.ErrorIs(t, err, ErrProofTimeout)
	assert.NotErrorIs(t, err, ErrProofGenerationFailed)
	assert.False(t, IsPreCheckError(err))
}

func TestProveJSONUnknownSchema(t *testing.T) {
	generator := NewGenerator(NewRegistry(nil))
	_, err := generator.ProveJSON(context.Background(), []byte(`{"foo":1}`))
	assert.Error(t, err)
}
