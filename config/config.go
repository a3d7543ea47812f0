package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the service configuration read from a TOML file. Zero values
// fall back to the defaults below so a partial file stays valid.
type Config struct {
	// KeysDir holds the compiled circuit artifacts (.key / .vkey files).
	KeysDir string `toml:"keys-dir"`
	// Circuits lists the enabled circuit names (whitelist, blacklist,
	// jurisdiction, accreditation, aggregation).
	Circuits []string `toml:"circuits"`
	// VerifierMode selects the verification gateway implementation,
	// "real" or "mock". Fixed for the lifetime of the process.
	VerifierMode string `toml:"verifier-mode"`

	ProverAddress  string `toml:"prover-address"`
	MetricsAddress string `toml:"metrics-address"`

	// RedisURL enables the async proof queue when non-empty.
	RedisURL string `toml:"redis-url"`

	// ProofTimeout bounds a single proof generation. Unresolvable
	// constraint failures would otherwise hang the request forever.
	ProofTimeout time.Duration `toml:"proof-timeout"`
}

const (
	DefaultProverAddress  = "0.0.0.0:3001"
	DefaultMetricsAddress = "0.0.0.0:9998"
	DefaultKeysDir        = "./proving-keys/"
	DefaultProofTimeout   = 5 * time.Minute
)

func Default() Config {
	return Config{
		KeysDir:        DefaultKeysDir,
		VerifierMode:   "real",
		ProverAddress:  DefaultProverAddress,
		MetricsAddress: DefaultMetricsAddress,
		ProofTimeout:   DefaultProofTimeout,
	}
}

func (cfg *Config) HasCircuit(name string) bool {
	for _, c := range cfg.Circuits {
		if c == name {
			return true
		}
	}
	return false
}

func (cfg *Config) Validate() error {
	if cfg.VerifierMode != "real" && cfg.VerifierMode != "mock" {
		return fmt.Errorf("invalid verifier-mode %q, must be \"real\" or \"mock\"", cfg.VerifierMode)
	}
	if cfg.ProofTimeout < 0 {
		return fmt.Errorf("proof-timeout must not be negative")
	}
	return nil
}

func ReadConfig(file string) (Config, error) {
	cfg := Default()
	configFileData, err := os.ReadFile(file)
	if err != nil {
		return cfg, err
	}
	err = toml.Unmarshal(configFileData, &cfg)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
