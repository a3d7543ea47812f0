package prover

import (
	"encoding/json"
	"fmt"
)

type CircuitType string

const (
	Whitelist     CircuitType = "whitelist"
	Blacklist     CircuitType = "blacklist"
	Jurisdiction  CircuitType = "jurisdiction"
	Accreditation CircuitType = "accreditation"
	Aggregation   CircuitType = "aggregation"
)

func AllCircuits() []CircuitType {
	return []CircuitType{Whitelist, Blacklist, Jurisdiction, Accreditation, Aggregation}
}

// PublicSignalCount is the number of public inputs each circuit declares.
func PublicSignalCount(circuit CircuitType) int {
	switch circuit {
	case Whitelist, Jurisdiction:
		return 2
	case Blacklist, Accreditation:
		return 3
	case Aggregation:
		return 6
	default:
		return 0
	}
}

func SetupCircuit(circuit CircuitType, treeDepth uint32) (*ProvingSystem, error) {
	switch circuit {
	case Whitelist:
		return SetupWhitelist(treeDepth)
	case Blacklist:
		return SetupBlacklist(treeDepth)
	case Jurisdiction:
		return SetupJurisdiction()
	case Accreditation:
		return SetupAccreditation()
	case Aggregation:
		return SetupAggregation()
	default:
		return nil, fmt.Errorf("invalid circuit: %s", circuit)
	}
}

// ParseCircuitType infers the circuit from the request schema. Each proof
// type has a field no other request carries.
func ParseCircuitType(data []byte) (CircuitType, error) {
	var inputs map[string]*json.RawMessage
	err := json.Unmarshal(data, &inputs)
	if err != nil {
		return "", err
	}

	if _, ok := inputs["challenge"]; ok {
		return Blacklist, nil
	}
	if _, ok := inputs["members"]; ok {
		return Whitelist, nil
	}
	if _, ok := inputs["allowedMask"]; ok {
		return Jurisdiction, nil
	}
	if _, ok := inputs["issuerKey"]; ok {
		return Accreditation, nil
	}
	if _, ok := inputs["weights"]; ok {
		return Aggregation, nil
	}
	return "", fmt.Errorf("unknown schema")
}

func IsCircuitEnabled(s []CircuitType, e CircuitType) bool {
	for _, a := range s {
		if a == e {
			return true
		}
	}
	return false
}

// GenerateKeyFilePath names the artifact for a circuit. Membership
// circuits carry the tree depth they were compiled for.
func GenerateKeyFilePath(baseDir string, circuit CircuitType, treeDepth uint32) string {
	switch circuit {
	case Whitelist, Blacklist:
		return fmt.Sprintf("%s/%s_%d.key", baseDir, circuit, treeDepth)
	case Jurisdiction, Accreditation, Aggregation:
		return fmt.Sprintf("%s/%s.key", baseDir, circuit)
	default:
		return ""
	}
}
