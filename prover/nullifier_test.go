package prover

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhitelistNullifierDeterministic(t *testing.T) {
	a, err := WhitelistNullifier(big.NewInt(12345), big.NewInt(777))
	assert.NoError(t, err)
	b, err := WhitelistNullifier(big.NewInt(12345), big.NewInt(777))
	assert.NoError(t, err)
	assert.Equal(t, 0, a.Cmp(b))
}

func TestWhitelistNullifierBindsIdentityAndRoot(t *testing.T) {
	base, err := WhitelistNullifier(big.NewInt(12345), big.NewInt(777))
	assert.NoError(t, err)

	otherIdentity, err := WhitelistNullifier(big.NewInt(11111), big.NewInt(777))
	assert.NoError(t, err)
	assert.NotEqual(t, 0, base.Cmp(otherIdentity))

	otherRoot, err := WhitelistNullifier(big.NewInt(12345), big.NewInt(778))
	assert.NoError(t, err)
	assert.NotEqual(t, 0, base.Cmp(otherRoot))
}

func TestBlacklistNullifierBindsChallenge(t *testing.T) {
	a, err := BlacklistNullifier(big.NewInt(12345), big.NewInt(777), big.NewInt(1))
	assert.NoError(t, err)
	b, err := BlacklistNullifier(big.NewInt(12345), big.NewInt(777), big.NewInt(2))
	assert.NoError(t, err)
	assert.NotEqual(t, 0, a.Cmp(b))
}

func TestNullifierDomainsDistinct(t *testing.T) {
	// A whitelist tag must never collide with a blacklist tag for the
	// same identity and root.
	w, err := WhitelistNullifier(big.NewInt(12345), big.NewInt(777))
	assert.NoError(t, err)
	b, err := BlacklistNullifier(big.NewInt(12345), big.NewInt(777), big.NewInt(0))
	assert.NoError(t, err)
	assert.NotEqual(t, 0, w.Cmp(b))
}
