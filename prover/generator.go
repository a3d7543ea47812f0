package prover

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrCircuitArtifactMissing means a proof was requested for a circuit
	// whose keys were never loaded. This is a deployment problem, never a
	// property of the request.
	ErrCircuitArtifactMissing = errors.New("circuit artifact missing")

	// ErrProofGenerationFailed wraps prover failures that are not domain
	// pre-check rejections.
	ErrProofGenerationFailed = errors.New("proof generation failed")

	// ErrProofTimeout means the context deadline expired before the
	// prover finished. Distinct from ErrProofGenerationFailed so a slow
	// constraint system is not reported as a bad witness.
	ErrProofTimeout = errors.New("proof generation timed out")
)

// IsPreCheckError reports whether err is a domain rejection raised before
// proving started.
func IsPreCheckError(err error) bool {
	for _, domainErr := range []error{
		ErrIdentityNotInSet,
		ErrIdentityBlacklisted,
		ErrJurisdictionNotAllowed,
		ErrAccreditationBelowMinimum,
		ErrInsufficientComplianceScore,
		ErrAttestationMismatch,
	} {
		if errors.Is(err, domainErr) {
			return true
		}
	}
	return false
}

// Registry indexes loaded proving systems by circuit type.
type Registry struct {
	systems map[CircuitType]*ProvingSystem
}

func NewRegistry(systems []*ProvingSystem) *Registry {
	r := &Registry{systems: make(map[CircuitType]*ProvingSystem, len(systems))}
	for _, ps := range systems {
		r.systems[ps.CircuitType] = ps
	}
	return r
}

func (r *Registry) Get(circuit CircuitType) (*ProvingSystem, error) {
	ps, ok := r.systems[circuit]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCircuitArtifactMissing, circuit)
	}
	return ps, nil
}

func (r *Registry) Circuits() []CircuitType {
	out := make([]CircuitType, 0, len(r.systems))
	for circuit := range r.systems {
		out = append(out, circuit)
	}
	return out
}

// Generator is the front door of the proving pipeline: it parses a
// request, runs the domain pre-checks, proves, and formats the result.
type Generator struct {
	registry  *Registry
	assembler *Assembler
}

func NewGenerator(registry *Registry) *Generator {
	return &Generator{registry: registry, assembler: NewAssembler()}
}

// ProveJSON handles a raw request body. The circuit is inferred from the
// request schema. Pre-check rejections come back unwrapped so callers can
// surface the domain reason; prover failures are wrapped in
// ErrProofGenerationFailed and deadline expiries in ErrProofTimeout.
func (g *Generator) ProveJSON(ctx context.Context, data []byte) (*OnChainProof, error) {
	circuit, err := ParseCircuitType(data)
	if err != nil {
		return nil, err
	}

	switch circuit {
	case Whitelist:
		var req WhitelistRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, err
		}
		params, err := g.assembler.AssembleWhitelist(&req)
		if err != nil {
			return nil, err
		}
		ps, err := g.registry.Get(Whitelist)
		if err != nil {
			return nil, err
		}
		proof, err := runProver(ctx, func() (*Proof, error) { return ps.ProveWhitelist(params) })
		if err != nil {
			return nil, err
		}
		return FormatProof(proof, params.PublicSignals())

	case Blacklist:
		var req BlacklistRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, err
		}
		params, err := g.assembler.AssembleBlacklist(&req)
		if err != nil {
			return nil, err
		}
		ps, err := g.registry.Get(Blacklist)
		if err != nil {
			return nil, err
		}
		proof, err := runProver(ctx, func() (*Proof, error) { return ps.ProveBlacklist(params) })
		if err != nil {
			return nil, err
		}
		return FormatProof(proof, params.PublicSignals())

	case Jurisdiction:
		var req JurisdictionRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, err
		}
		params, err := g.assembler.AssembleJurisdiction(&req)
		if err != nil {
			return nil, err
		}
		ps, err := g.registry.Get(Jurisdiction)
		if err != nil {
			return nil, err
		}
		proof, err := runProver(ctx, func() (*Proof, error) { return ps.ProveJurisdiction(params) })
		if err != nil {
			return nil, err
		}
		return FormatProof(proof, params.PublicSignals())

	case Accreditation:
		var req AccreditationRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, err
		}
		params, err := g.assembler.AssembleAccreditation(&req)
		if err != nil {
			return nil, err
		}
		ps, err := g.registry.Get(Accreditation)
		if err != nil {
			return nil, err
		}
		proof, err := runProver(ctx, func() (*Proof, error) { return ps.ProveAccreditation(params) })
		if err != nil {
			return nil, err
		}
		return FormatProof(proof, params.PublicSignals())

	case Aggregation:
		var req AggregationRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, err
		}
		params, err := g.assembler.AssembleAggregation(&req)
		if err != nil {
			return nil, err
		}
		ps, err := g.registry.Get(Aggregation)
		if err != nil {
			return nil, err
		}
		proof, err := runProver(ctx, func() (*Proof, error) { return ps.ProveAggregation(params) })
		if err != nil {
			return nil, err
		}
		return FormatProof(proof, params.PublicSignals())

	default:
		return nil, fmt.Errorf("invalid circuit: %s", circuit)
	}
}

// runProver executes a CPU-bound prove call under a context deadline. The
// underlying computation cannot be interrupted; on timeout its result is
// discarded when it eventually finishes.
func runProver(ctx context.Context, prove func() (*Proof, error)) (*Proof, error) {
	type result struct {
		proof *Proof
		err   error
	}
	done := make(chan result, 1)
	go func() {
		proof, err := prove()
		done <- result{proof, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrProofTimeout, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProofGenerationFailed, res.err)
		}
		return res.proof, nil
	}
}
