package prover

import (
	"math/big"

	"shield/compliance-prover/hasher"
)

// WhitelistNullifier derives the replay tag for a membership proof. The
// same identity against the same snapshot always yields the same value,
// so a verifier can detect double-presentation without learning the
// identity.
func WhitelistNullifier(identity, root *big.Int) (*big.Int, error) {
	return hasher.Hash(identity, root)
}

// BlacklistNullifier folds the verifier challenge into the tag so a
// non-membership proof is bound to one session.
func BlacklistNullifier(identity, root, challenge *big.Int) (*big.Int, error) {
	return hasher.Hash(identity, root, challenge)
}
