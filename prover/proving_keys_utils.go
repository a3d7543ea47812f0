package prover

import (
	"bytes"
	"fmt"
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	gnarkio "github.com/consensys/gnark/io"

	"shield/compliance-prover/logging"
)

// Trusted setup utility functions
// Taken from: https://github.com/bnb-chain/zkbnb/blob/master/common/prove/proof_keys.go#L19
func LoadProvingKey(filepath string) (pk groth16.ProvingKey, err error) {
	logging.Logger().Info().Msg("start reading proving key")
	pk = groth16.NewProvingKey(ecc.BN254)
	f, err := os.Open(filepath)
	if err != nil {
		return nil, err
	}
	_, err = pk.ReadFrom(f)
	if err != nil {
		return pk, fmt.Errorf("read file error")
	}
	err = f.Close()
	if err != nil {
		return nil, err
	}
	return pk, nil
}

// Taken from: https://github.com/bnb-chain/zkbnb/blob/master/common/prove/proof_keys.go#L32
func LoadVerifyingKey(filepath string) (verifyingKey groth16.VerifyingKey, err error) {
	logging.Logger().Info().Msg("start reading verifying key")
	verifyingKey = groth16.NewVerifyingKey(ecc.BN254)
	f, err := os.Open(filepath)
	if err != nil {
		return nil, err
	}
	_, err = verifyingKey.ReadFrom(f)
	if err != nil {
		return verifyingKey, fmt.Errorf("read file error")
	}
	err = f.Close()
	if err != nil {
		return nil, err
	}

	return verifyingKey, nil
}

// GetKeys lists the artifact paths for the enabled circuits.
func GetKeys(keysDir string, circuits []CircuitType) []string {
	var keys []string
	for _, circuit := range AllCircuits() {
		if IsCircuitEnabled(circuits, circuit) {
			keys = append(keys, GenerateKeyFilePath(keysDir, circuit, TreeDepth))
		}
	}
	return keys
}

// LoadKeys reads every enabled proving system from the keys directory. A
// missing or unreadable artifact is fatal: a service that silently served
// a subset of its circuits would fail requests much later with a worse
// error.
func LoadKeys(keysDir string, circuits []CircuitType) ([]*ProvingSystem, error) {
	var systems []*ProvingSystem

	for _, key := range GetKeys(keysDir, circuits) {
		logging.Logger().Info().Msg("Reading proving system from file " + key + "...")
		system, err := ReadSystemFromFile(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCircuitArtifactMissing, key, err)
		}
		systems = append(systems, system)
		logging.Logger().Info().
			Str("circuit", string(system.CircuitType)).
			Uint32("treeDepth", system.TreeDepth).
			Msg("Read ProvingSystem")
	}
	return systems, nil
}

func createFileAndWriteBytes(filePath string, data []byte) error {
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer func(file *os.File) {
		err := file.Close()
		if err != nil {
			return
		}
	}(file)

	_, err = file.Write(data)
	if err != nil {
		return err
	}
	logging.Logger().Info().Int("bytes", len(data)).Str("path", filePath).Msg("Wrote verification key")
	return nil
}

// WriteProvingSystem stores a full system at path and, when pathVkey is
// set, the raw verification key next to it for external verifiers.
func WriteProvingSystem(system *ProvingSystem, path string, pathVkey string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	written, err := system.WriteTo(file)
	if err != nil {
		return err
	}

	logging.Logger().Info().Int64("bytesWritten", written).Msg("Proving system written to file")

	if pathVkey == "" {
		return nil
	}

	var buf bytes.Buffer
	_, err = system.VerifyingKey.(gnarkio.WriterRawTo).WriteRawTo(&buf)
	if err != nil {
		return err
	}
	return createFileAndWriteBytes(pathVkey, buf.Bytes())
}

// ExportVerifyingKey writes the raw verification key of a stored system.
func ExportVerifyingKey(system *ProvingSystem, path string) error {
	var buf bytes.Buffer
	_, err := system.VerifyingKey.(gnarkio.WriterRawTo).WriteRawTo(&buf)
	if err != nil {
		return err
	}
	return createFileAndWriteBytes(path, buf.Bytes())
}
