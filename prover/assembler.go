package prover

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"shield/compliance-prover/hasher"
	merkletree "shield/compliance-prover/merkle-tree"
)

// Domain pre-check failures. These are caught before any proving work
// starts: a witness that cannot satisfy its circuit must be rejected with
// a reason, not burned through the prover for an opaque constraint error.
var (
	ErrIdentityNotInSet            = errors.New("identity is not a member of the whitelist snapshot")
	ErrIdentityBlacklisted         = errors.New("identity is a member of the blacklist snapshot")
	ErrJurisdictionNotAllowed      = errors.New("jurisdiction code is not enabled in the allowed mask")
	ErrAccreditationBelowMinimum   = errors.New("accreditation level is below the required minimum")
	ErrInsufficientComplianceScore = errors.New("weighted compliance score is below the threshold")
	ErrAttestationMismatch         = errors.New("attestation hash does not match the issuer attestation")
)

// ScoreScale converts a caller-facing threshold to the circuit's integer
// domain. Weights are percentages, so a threshold of 50 against weights
// summing to 100 becomes 5000.
const ScoreScale = 100

// MaxScoreValue bounds scores, weights and the threshold. The cap keeps
// the weighted sum far inside uint64 and inside the circuit's range
// decomposition, so the pre-check and the circuit agree on the arithmetic.
const MaxScoreValue = 1 << 30

// Assembler turns proof requests into circuit parameters. Snapshot trees
// are cached by leaf-set digest so repeated requests against one
// membership set only hash it once.
type Assembler struct {
	snapshots *merkletree.SnapshotStore
	treeDepth int
}

func NewAssembler() *Assembler {
	return &Assembler{
		snapshots: merkletree.NewSnapshotStore(),
		treeDepth: TreeDepth,
	}
}

// snapshotTree hashes each member identity into its leaf and builds (or
// fetches) the snapshot tree.
func (a *Assembler) snapshotTree(members []*big.Int) (*merkletree.Tree, error) {
	leaves := make([]*big.Int, len(members))
	for i, member := range members {
		leaf, err := hasher.Hash(member)
		if err != nil {
			return nil, fmt.Errorf("member %d: %w", i, err)
		}
		leaves[i] = leaf
	}
	return a.snapshots.Build(a.treeDepth, leaves)
}

type WhitelistRequest struct {
	Identity *big.Int
	Members  []*big.Int
}

func (a *Assembler) AssembleWhitelist(req *WhitelistRequest) (*WhitelistParameters, error) {
	if err := hasher.ValidateFieldElement(req.Identity); err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}
	tree, err := a.snapshotTree(req.Members)
	if err != nil {
		return nil, err
	}

	leaf, err := hasher.Hash(req.Identity)
	if err != nil {
		return nil, err
	}
	index, ok := tree.LeafIndex(leaf)
	if !ok {
		return nil, ErrIdentityNotInSet
	}
	path, err := tree.Proof(index)
	if err != nil {
		return nil, err
	}

	root := tree.Root()
	nullifier, err := WhitelistNullifier(req.Identity, root)
	if err != nil {
		return nil, err
	}

	params := &WhitelistParameters{
		Root:          *root,
		NullifierHash: *nullifier,
		Identity:      *req.Identity,
		PathIndex:     uint32(index),
		PathElements:  make([]big.Int, len(path.PathElements)),
	}
	for i, el := range path.PathElements {
		params.PathElements[i] = *el
	}
	return params, nil
}

type BlacklistRequest struct {
	Identity  *big.Int
	Members   []*big.Int
	Challenge *big.Int
}

func (a *Assembler) AssembleBlacklist(req *BlacklistRequest) (*BlacklistParameters, error) {
	if err := hasher.ValidateFieldElement(req.Identity); err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}
	if err := hasher.ValidateFieldElement(req.Challenge); err != nil {
		return nil, fmt.Errorf("challenge: %w", err)
	}
	tree, err := a.snapshotTree(req.Members)
	if err != nil {
		return nil, err
	}

	identityLeaf, err := hasher.Hash(req.Identity)
	if err != nil {
		return nil, err
	}
	if _, ok := tree.LeafIndex(identityLeaf); ok {
		return nil, ErrIdentityBlacklisted
	}

	// Any snapshot leaf distinct from the identity's leaf witnesses
	// non-membership; the first one serves.
	path, err := tree.Proof(0)
	if err != nil {
		return nil, err
	}

	root := tree.Root()
	nullifier, err := BlacklistNullifier(req.Identity, root, req.Challenge)
	if err != nil {
		return nil, err
	}

	params := &BlacklistParameters{
		Root:          *root,
		NullifierHash: *nullifier,
		Challenge:     *req.Challenge,
		Identity:      *req.Identity,
		ClaimedLeaf:   *path.Leaf,
		PathIndex:     0,
		PathElements:  make([]big.Int, len(path.PathElements)),
	}
	for i, el := range path.PathElements {
		params.PathElements[i] = *el
	}
	return params, nil
}

type JurisdictionRequest struct {
	Code        uint64
	AllowedMask uint64
	Salt        *big.Int
}

func (a *Assembler) AssembleJurisdiction(req *JurisdictionRequest) (*JurisdictionParameters, error) {
	if req.Code >= MaskBits {
		return nil, fmt.Errorf("%w: code %d out of range", ErrJurisdictionNotAllowed, req.Code)
	}
	if req.AllowedMask&(1<<req.Code) == 0 {
		return nil, fmt.Errorf("%w: code %d", ErrJurisdictionNotAllowed, req.Code)
	}

	salt, err := ensureSalt(req.Salt)
	if err != nil {
		return nil, err
	}
	code := new(big.Int).SetUint64(req.Code)
	commitment, err := hasher.Hash(code, salt)
	if err != nil {
		return nil, err
	}

	return &JurisdictionParameters{
		Commitment:  *commitment,
		AllowedMask: *new(big.Int).SetUint64(req.AllowedMask),
		Code:        *code,
		Salt:        *salt,
	}, nil
}

type AccreditationRequest struct {
	Level           uint64
	MinimumLevel    uint64
	IssuerKey       *big.Int
	IssuerNonce     *big.Int
	AttestationHash *big.Int
	Salt            *big.Int
}

func (a *Assembler) AssembleAccreditation(req *AccreditationRequest) (*AccreditationParameters, error) {
	if req.Level < req.MinimumLevel {
		return nil, fmt.Errorf("%w: level %d, minimum %d", ErrAccreditationBelowMinimum, req.Level, req.MinimumLevel)
	}
	if err := hasher.ValidateFieldElement(req.IssuerKey); err != nil {
		return nil, fmt.Errorf("issuer key: %w", err)
	}
	if err := hasher.ValidateFieldElement(req.IssuerNonce); err != nil {
		return nil, fmt.Errorf("issuer nonce: %w", err)
	}

	level := new(big.Int).SetUint64(req.Level)
	attestation, err := hasher.Hash(level, req.IssuerNonce, req.IssuerKey)
	if err != nil {
		return nil, err
	}
	if req.AttestationHash != nil && req.AttestationHash.Cmp(attestation) != 0 {
		return nil, ErrAttestationMismatch
	}

	salt, err := ensureSalt(req.Salt)
	if err != nil {
		return nil, err
	}
	commitment, err := hasher.Hash(level, salt)
	if err != nil {
		return nil, err
	}

	return &AccreditationParameters{
		MinimumLevel:    *new(big.Int).SetUint64(req.MinimumLevel),
		Commitment:      *commitment,
		IssuerKey:       *req.IssuerKey,
		Level:           *level,
		Salt:            *salt,
		AttestationHash: *attestation,
		IssuerNonce:     *req.IssuerNonce,
	}, nil
}

type AggregationRequest struct {
	ScoreKyc     uint64
	ScoreAml     uint64
	ScoreJur     uint64
	ScoreAcc     uint64
	Weights      [4]uint64
	MinimumScore uint64
	Salt         *big.Int
}

// WeightedScore is the sum the circuit compares against the scaled
// threshold.
func (req *AggregationRequest) WeightedScore() uint64 {
	return req.ScoreKyc*req.Weights[0] +
		req.ScoreAml*req.Weights[1] +
		req.ScoreJur*req.Weights[2] +
		req.ScoreAcc*req.Weights[3]
}

func (a *Assembler) AssembleAggregation(req *AggregationRequest) (*AggregationParameters, error) {
	bounds := map[string]uint64{
		"scoreKyc":     req.ScoreKyc,
		"scoreAml":     req.ScoreAml,
		"scoreJur":     req.ScoreJur,
		"scoreAcc":     req.ScoreAcc,
		"weights[0]":   req.Weights[0],
		"weights[1]":   req.Weights[1],
		"weights[2]":   req.Weights[2],
		"weights[3]":   req.Weights[3],
		"minimumScore": req.MinimumScore,
	}
	for name, v := range bounds {
		if v > MaxScoreValue {
			return nil, fmt.Errorf("%s %d exceeds maximum %d", name, v, uint64(MaxScoreValue))
		}
	}

	scaled := req.MinimumScore * ScoreScale
	computed := req.WeightedScore()
	if computed < scaled {
		return nil, fmt.Errorf("%w: computed %d, required %d", ErrInsufficientComplianceScore, computed, scaled)
	}

	salt, err := ensureSalt(req.Salt)
	if err != nil {
		return nil, err
	}
	scores := [4]*big.Int{
		new(big.Int).SetUint64(req.ScoreKyc),
		new(big.Int).SetUint64(req.ScoreAml),
		new(big.Int).SetUint64(req.ScoreJur),
		new(big.Int).SetUint64(req.ScoreAcc),
	}
	commitment, err := hasher.Hash(scores[0], scores[1], scores[2], scores[3], salt)
	if err != nil {
		return nil, err
	}

	return &AggregationParameters{
		ScaledThreshold: *new(big.Int).SetUint64(scaled),
		Commitment:      *commitment,
		WeightKyc:       *new(big.Int).SetUint64(req.Weights[0]),
		WeightAml:       *new(big.Int).SetUint64(req.Weights[1]),
		WeightJur:       *new(big.Int).SetUint64(req.Weights[2]),
		WeightAcc:       *new(big.Int).SetUint64(req.Weights[3]),
		ScoreKyc:        *scores[0],
		ScoreAml:        *scores[1],
		ScoreJur:        *scores[2],
		ScoreAcc:        *scores[3],
		Salt:            *salt,
	}, nil
}

// ensureSalt returns the caller's salt or draws a fresh random field
// element when none was given.
func ensureSalt(salt *big.Int) (*big.Int, error) {
	if salt != nil {
		if err := hasher.ValidateFieldElement(salt); err != nil {
			return nil, fmt.Errorf("salt: %w", err)
		}
		return salt, nil
	}
	var el fr.Element
	if _, err := el.SetRandom(); err != nil {
		return nil, fmt.Errorf("salt: %w", err)
	}
	out := new(big.Int)
	el.BigInt(out)
	return out, nil
}
