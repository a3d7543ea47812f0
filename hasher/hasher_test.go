package hasher

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashDeterministic(t *testing.T) {
	a, err := Hash(big.NewInt(1), big.NewInt(2))
	assert.NoError(t, err)
	b, err := Hash(big.NewInt(1), big.NewInt(2))
	assert.NoError(t, err)
	assert.Equal(t, 0, a.Cmp(b))
}

func TestHashOrderMatters(t *testing.T) {
	a, err := Hash(big.NewInt(1), big.NewInt(2))
	assert.NoError(t, err)
	b, err := Hash(big.NewInt(2), big.NewInt(1))
	assert.NoError(t, err)
	assert.NotEqual(t, 0, a.Cmp(b))
}

func TestHashResultInField(t *testing.T) {
	h, err := Hash(big.NewInt(42))
	assert.NoError(t, err)
	assert.NoError(t, ValidateFieldElement(h))
}

func TestHashRejectsOutOfRange(t *testing.T) {
	_, err := Hash(Modulus())
	assert.Error(t, err)

	_, err = Hash(big.NewInt(-1))
	assert.Error(t, err)

	_, err = Hash(nil)
	assert.Error(t, err)
}

func TestHashNoInputs(t *testing.T) {
	_, err := Hash()
	assert.Error(t, err)
}

func TestValidateFieldElement(t *testing.T) {
	assert.NoError(t, ValidateFieldElement(big.NewInt(0)))
	assert.NoError(t, ValidateFieldElement(new(big.Int).Sub(Modulus(), big.NewInt(1))))
	assert.Error(t, ValidateFieldElement(Modulus()))
}

func TestHashIdentityInField(t *testing.T) {
	id := HashIdentity([]byte("0x1234567890abcdef"))
	assert.NoError(t, ValidateFieldElement(id))
}

func TestHashIdentityDistinct(t *testing.T) {
	a := HashIdentity([]byte("credential-a"))
	b := HashIdentity([]byte("credential-b"))
	assert.NotEqual(t, 0, a.Cmp(b))
}

func TestZeroElement(t *testing.T) {
	assert.Equal(t, 0, Zero().Sign())
	assert.NoError(t, ValidateFieldElement(Zero()))
}
