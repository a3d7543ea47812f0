package prover

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/test"
	"github.com/stretchr/testify/require"

	"shield/compliance-prover/hasher"
	merkletree "shield/compliance-prover/merkle-tree"
)

// depth 4 keeps the test circuits small; the constraints are identical in
// structure to the production depth.
const testDepth = 4

func whitelistAssignment(t *testing.T, identity int64, memberVals ...int64) (*WhitelistParameters, WhitelistCircuit) {
	a := NewAssembler()
	a.treeDepth = testDepth
	params, err := a.AssembleWhitelist(&WhitelistRequest{
		Identity: big.NewInt(identity),
		Members:  members(memberVals...),
	})
	require.NoError(t, err)

	pathElements := make([]frontend.Variable, len(params.PathElements))
	for i := range params.PathElements {
		pathElements[i] = params.PathElements[i]
	}
	return params, WhitelistCircuit{
		Root:          params.Root,
		NullifierHash: params.NullifierHash,
		Identity:      params.Identity,
		PathIndex:     params.PathIndex,
		PathElements:  pathElements,
	}
}

func TestWhitelistCircuit(t *testing.T) {
	assert := test.NewAssert(t)
	circuit := WhitelistCircuit{PathElements: make([]frontend.Variable, testDepth)}

	_, assignment := whitelistAssignment(t, 12345, 11111, 12345, 33333, 44444)
	assert.ProverSucceeded(&circuit, &assignment, test.WithBackends(backend.GROTH16), test.WithCurves(ecc.BN254), test.NoSerializationChecks())

	// Wrong nullifier for the same membership path.
	_, tampered := whitelistAssignment(t, 12345, 11111, 12345, 33333, 44444)
	tampered.NullifierHash = big.NewInt(42)
	assert.ProverFailed(&circuit, &tampered, test.WithBackends(backend.GROTH16), test.WithCurves(ecc.BN254), test.NoSerializationChecks())

	// Path belongs to a different snapshot.
	_, wrongRoot := whitelistAssignment(t, 12345, 11111, 12345, 33333, 44444)
	wrongRoot.Root = big.NewInt(1)
	assert.ProverFailed(&circuit, &wrongRoot, test.WithBackends(backend.GROTH16), test.WithCurves(ecc.BN254), test.NoSerializationChecks())
}

func blacklistAssignment(t *testing.T, identity int64, challenge int64, memberVals ...int64) BlacklistCircuit {
	a := NewAssembler()
	a.treeDepth = testDepth
	params, err := a.AssembleBlacklist(&BlacklistRequest{
		Identity:  big.NewInt(identity),
		Members:   members(memberVals...),
		Challenge: big.NewInt(challenge),
	})
	require.NoError(t, err)

	pathElements := make([]frontend.Variable, len(params.PathElements))
	for i := range params.PathElements {
		pathElements[i] = params.PathElements[i]
	}
	return BlacklistCircuit{
		Root:          params.Root,
		NullifierHash: params.NullifierHash,
		Challenge:     params.Challenge,
		Identity:      params.Identity,
		ClaimedLeaf:   params.ClaimedLeaf,
		PathIndex:     params.PathIndex,
		PathElements:  pathElements,
	}
}

func TestBlacklistCircuit(t *testing.T) {
	assert := test.NewAssert(t)
	circuit := BlacklistCircuit{PathElements: make([]frontend.Variable, testDepth)}

	assignment := blacklistAssignment(t, 55555, 987, 11111, 22222)
	assert.ProverSucceeded(&circuit, &assignment, test.WithBackends(backend.GROTH16), test.WithCurves(ecc.BN254), test.NoSerializationChecks())

	// A listed identity claiming its own leaf has a consistent path but
	// must still fail the leaf inequality.
	identityLeaf := mustHash(t, big.NewInt(55555))
	otherLeaf := mustHash(t, big.NewInt(11111))
	tree, err := merkletree.NewTree(testDepth, []*big.Int{identityLeaf, otherLeaf})
	require.NoError(t, err)
	path, err := tree.Proof(0)
	require.NoError(t, err)
	nullifier, err := BlacklistNullifier(big.NewInt(55555), tree.Root(), big.NewInt(987))
	require.NoError(t, err)

	pathElements := make([]frontend.Variable, testDepth)
	for i, el := range path.PathElements {
		pathElements[i] = el
	}
	inSet := BlacklistCircuit{
		Root:          tree.Root(),
		NullifierHash: nullifier,
		Challenge:     big.NewInt(987),
		Identity:      big.NewInt(55555),
		ClaimedLeaf:   identityLeaf,
		PathIndex:     0,
		PathElements:  pathElements,
	}
	assert.ProverFailed(&circuit, &inSet, test.WithBackends(backend.GROTH16), test.WithCurves(ecc.BN254), test.NoSerializationChecks())

	// Nullifier bound to a different challenge.
	wrongChallenge := blacklistAssignment(t, 55555, 987, 11111, 22222)
	wrongChallenge.Challenge = big.NewInt(988)
	assert.ProverFailed(&circuit, &wrongChallenge, test.WithBackends(backend.GROTH16), test.WithCurves(ecc.BN254), test.NoSerializationChecks())
}

func TestJurisdictionCircuit(t *testing.T) {
	assert := test.NewAssert(t)
	var circuit JurisdictionCircuit

	commitment := mustHash(t, big.NewInt(5), big.NewInt(777))
	assignment := JurisdictionCircuit{
		Commitment:  commitment,
		AllowedMask: big.NewInt(1<<5 | 1<<9),
		Code:        big.NewInt(5),
		Salt:        big.NewInt(777),
	}
	assert.ProverSucceeded(&circuit, &assignment, test.WithBackends(backend.GROTH16), test.WithCurves(ecc.BN254), test.NoSerializationChecks())

	// Code whose mask bit is off.
	denied := assignment
	denied.Commitment = mustHash(t, big.NewInt(6), big.NewInt(777))
	denied.Code = big.NewInt(6)
	assert.ProverFailed(&circuit, &denied, test.WithBackends(backend.GROTH16), test.WithCurves(ecc.BN254), test.NoSerializationChecks())

	// Commitment over a different code.
	mismatch := assignment
	mismatch.Code = big.NewInt(9)
	assert.ProverFailed(&circuit, &mismatch, test.WithBackends(backend.GROTH16), test.WithCurves(ecc.BN254), test.NoSerializationChecks())
}

func TestAccreditationCircuit(t *testing.T) {
	assert := test.NewAssert(t)
	var circuit AccreditationCircuit

	issuerKey := big.NewInt(111222333)
	attestation := mustHash(t, big.NewInt(3), big.NewInt(42), issuerKey)
	assignment := AccreditationCircuit{
		MinimumLevel:    big.NewInt(2),
		Commitment:      mustHash(t, big.NewInt(3), big.NewInt(7)),
		IssuerKey:       issuerKey,
		Level:           big.NewInt(3),
		Salt:            big.NewInt(7),
		AttestationHash: attestation,
		IssuerNonce:     big.NewInt(42),
	}
	assert.ProverSucceeded(&circuit, &assignment, test.WithBackends(backend.GROTH16), test.WithCurves(ecc.BN254), test.NoSerializationChecks())

	// Level below the public minimum.
	below := assignment
	below.MinimumLevel = big.NewInt(4)
	assert.ProverFailed(&circuit, &below, test.WithBackends(backend.GROTH16), test.WithCurves(ecc.BN254), test.NoSerializationChecks())

	// Attestation signed by a different issuer key.
	wrongIssuer := assignment
	wrongIssuer.IssuerKey = big.NewInt(999)
	assert.ProverFailed(&circuit, &wrongIssuer, test.WithBackends(backend.GROTH16), test.WithCurves(ecc.BN254), test.NoSerializationChecks())
}

func TestAggregationCircuit(t *testing.T) {
	assert := test.NewAssert(t)
	var circuit AggregationCircuit

	commitment := mustHash(t, big.NewInt(90), big.NewInt(85), big.NewInt(80), big.NewInt(95), big.NewInt(9))
	assignment := AggregationCircuit{
		ScaledThreshold: big.NewInt(5000),
		Commitment:      commitment,
		WeightKyc:       big.NewInt(25),
		WeightAml:       big.NewInt(25),
		WeightJur:       big.NewInt(25),
		WeightAcc:       big.NewInt(25),
		ScoreKyc:        big.NewInt(90),
		ScoreAml:        big.NewInt(85),
		ScoreJur:        big.NewInt(80),
		ScoreAcc:        big.NewInt(95),
		Salt:            big.NewInt(9),
	}
	assert.ProverSucceeded(&circuit, &assignment, test.WithBackends(backend.GROTH16), test.WithCurves(ecc.BN254), test.NoSerializationChecks())

	// Weighted sum 8750 cannot meet a scaled threshold of 9000.
	demanding := assignment
	demanding.ScaledThreshold = big.NewInt(9000)
	assert.ProverFailed(&circuit, &demanding, test.WithBackends(backend.GROTH16), test.WithCurves(ecc.BN254), test.NoSerializationChecks())

	// Commitment over different scores.
	mismatch := assignment
	mismatch.ScoreKyc = big.NewInt(100)
	mismatch.ScaledThreshold = big.NewInt(5000)
	assert.ProverFailed(&circuit, &mismatch, test.WithBackends(backend.GROTH16), test.WithCurves(ecc.BN254), test.NoSerializationChecks())
}

func mustHash(t *testing.T, inputs ...*big.Int) *big.Int {
	t.Helper()
	h, err := hasher.Hash(inputs...)
	require.NoError(t, err)
	return h
}
