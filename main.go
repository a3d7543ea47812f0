package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"os/signal"
	"path/filepath"

	"shield/compliance-prover/config"
	"shield/compliance-prover/hasher"
	"shield/compliance-prover/logging"
	"shield/compliance-prover/prover"
	"shield/compliance-prover/server"
	"shield/compliance-prover/verifier"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	gnarkLogger "github.com/consensys/gnark/logger"
	"github.com/urfave/cli/v2"
)

func main() {
	runCli()
}

func runCli() {
	gnarkLogger.Set(*logging.Logger())
	app := cli.App{
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			{
				Name: "setup",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "circuit", Usage: "Type of circuit (\"whitelist\" / \"blacklist\" / \"jurisdiction\" / \"accreditation\" / \"aggregation\")", Required: true},
					&cli.StringFlag{Name: "output", Usage: "Output file", Required: true},
					&cli.StringFlag{Name: "output-vkey", Usage: "Output file for the verification key", Required: true},
					&cli.UintFlag{Name: "tree-depth", Usage: "[Whitelist / blacklist]: Merkle tree depth", Value: prover.TreeDepth},
				},
				Action: func(context *cli.Context) error {
					circuit := prover.CircuitType(context.String("circuit"))
					if !prover.IsCircuitEnabled(prover.AllCircuits(), circuit) {
						return fmt.Errorf("invalid circuit type %s", circuit)
					}

					path := context.String("output")
					pathVkey := context.String("output-vkey")
					treeDepth := uint32(context.Uint("tree-depth"))

					logging.Logger().Info().Msg("Running setup")
					system, err := prover.SetupCircuit(circuit, treeDepth)
					if err != nil {
						return err
					}
					err = prover.WriteProvingSystem(system, path, pathVkey)
					if err != nil {
						return err
					}

					logging.Logger().Info().Msg("Setup completed successfully")
					return nil
				},
			},
			{
				Name: "r1cs",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Usage: "Output file", Required: true},
					&cli.StringFlag{Name: "circuit", Usage: "Type of circuit (\"whitelist\" / \"blacklist\" / \"jurisdiction\" / \"accreditation\" / \"aggregation\")", Required: true},
					&cli.UintFlag{Name: "tree-depth", Usage: "[Whitelist / blacklist]: Merkle tree depth", Value: prover.TreeDepth},
				},
				Action: func(context *cli.Context) error {
					circuit := prover.CircuitType(context.String("circuit"))
					path := context.String("output")
					treeDepth := uint32(context.Uint("tree-depth"))

					logging.Logger().Info().Msg("Building R1CS")

					var cs constraint.ConstraintSystem
					var err error

					switch circuit {
					case prover.Whitelist:
						cs, err = prover.R1CSWhitelist(treeDepth)
					case prover.Blacklist:
						cs, err = prover.R1CSBlacklist(treeDepth)
					case prover.Jurisdiction:
						cs, err = prover.R1CSJurisdiction()
					case prover.Accreditation:
						cs, err = prover.R1CSAccreditation()
					case prover.Aggregation:
						cs, err = prover.R1CSAggregation()
					default:
						return fmt.Errorf("invalid circuit type %s", circuit)
					}

					if err != nil {
						return err
					}
					file, err := os.Create(path)
					if err != nil {
						return err
					}
					defer func(file *os.File) {
						err := file.Close()
						if err != nil {
							logging.Logger().Error().Err(err).Msg("error closing file")
						}
					}(file)
					written, err := cs.WriteTo(file)
					if err != nil {
						return err
					}
					logging.Logger().Info().Int64("bytesWritten", written).Msg("R1CS written to file")
					return nil
				},
			},
			{
				Name: "import-setup",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "circuit", Usage: "Type of circuit (\"whitelist\" / \"blacklist\" / \"jurisdiction\" / \"accreditation\" / \"aggregation\")", Required: true},
					&cli.StringFlag{Name: "output", Usage: "Output file", Required: true},
					&cli.StringFlag{Name: "pk", Usage: "Proving key", Required: true},
					&cli.StringFlag{Name: "vk", Usage: "Verifying key", Required: true},
					&cli.UintFlag{Name: "tree-depth", Usage: "[Whitelist / blacklist]: Merkle tree depth", Value: prover.TreeDepth},
				},
				Action: func(context *cli.Context) error {
					circuit := prover.CircuitType(context.String("circuit"))
					path := context.String("output")
					pk := context.String("pk")
					vk := context.String("vk")
					treeDepth := uint32(context.Uint("tree-depth"))

					logging.Logger().Info().Msg("Importing setup")

					var system *prover.ProvingSystem
					var err error

					switch circuit {
					case prover.Whitelist:
						system, err = prover.ImportWhitelistSetup(treeDepth, pk, vk)
					case prover.Blacklist:
						system, err = prover.ImportBlacklistSetup(treeDepth, pk, vk)
					case prover.Jurisdiction:
						system, err = prover.ImportJurisdictionSetup(pk, vk)
					case prover.Accreditation:
						system, err = prover.ImportAccreditationSetup(pk, vk)
					case prover.Aggregation:
						system, err = prover.ImportAggregationSetup(pk, vk)
					default:
						return fmt.Errorf("invalid circuit type %s", circuit)
					}
					if err != nil {
						return err
					}

					err = prover.WriteProvingSystem(system, path, "")
					if err != nil {
						return err
					}

					logging.Logger().Info().Msg("Setup imported successfully")
					return nil
				},
			},
			{
				Name: "export-vk",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "keys-file", Aliases: []string{"k"}, Usage: "proving system file", Required: true},
					&cli.StringFlag{Name: "output", Usage: "output file", Required: true},
				},
				Action: func(context *cli.Context) error {
					keysFile := context.String("keys-file")
					outputFile := context.String("output")

					system, err := prover.ReadSystemFromFile(keysFile)
					if err != nil {
						return fmt.Errorf("failed to read proving system: %v", err)
					}

					err = os.MkdirAll(filepath.Dir(outputFile), 0755)
					if err != nil {
						return fmt.Errorf("failed to create output directory: %v", err)
					}

					return prover.ExportVerifyingKey(system, outputFile)
				},
			},
			{
				Name: "gen-test-params",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "members", Usage: "Number of members in the mock membership set", DefaultText: "4", Value: 4},
				},
				Action: func(context *cli.Context) error {
					members := context.Int("members")
					logging.Logger().Info().Msg("Generating test params for the whitelist circuit")

					request := prover.WhitelistRequest{
						Members: make([]*big.Int, members),
					}
					for i := 0; i < members; i++ {
						request.Members[i] = hasher.HashIdentity([]byte(fmt.Sprintf("member-%d", i)))
					}
					request.Identity = new(big.Int).Set(request.Members[0])

					r, err := json.Marshal(&request)
					if err != nil {
						return err
					}

					fmt.Println(string(r))
					return nil
				},
			},
			{
				Name: "start",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Usage: "TOML config file", Required: false},
					&cli.BoolFlag{Name: "json-logging", Usage: "enable JSON logging", Required: false},
					&cli.StringFlag{Name: "prover-address", Usage: "address for the prover server", Value: config.DefaultProverAddress, Required: false},
					&cli.StringFlag{Name: "metrics-address", Usage: "address for the metrics server", Value: config.DefaultMetricsAddress, Required: false},
					&cli.StringFlag{Name: "keys-dir", Usage: "Directory where key files are stored", Value: config.DefaultKeysDir, Required: false},
					&cli.StringFlag{Name: "redis-url", Usage: "Redis URL for the async proof queue", Required: false},
					&cli.StringFlag{Name: "verifier-mode", Usage: "Verification gateway mode (\"real\" or \"mock\")", Value: verifier.ModeReal, Required: false},
					&cli.BoolFlag{Name: "whitelist", Usage: "Run whitelist circuit", Required: false},
					&cli.BoolFlag{Name: "blacklist", Usage: "Run blacklist circuit", Required: false},
					&cli.BoolFlag{Name: "jurisdiction", Usage: "Run jurisdiction circuit", Required: false},
					&cli.BoolFlag{Name: "accreditation", Usage: "Run accreditation circuit", Required: false},
					&cli.BoolFlag{Name: "aggregation", Usage: "Run aggregation circuit", Required: false},
				},
				Action: func(context *cli.Context) error {
					if context.Bool("json-logging") {
						logging.SetJSONOutput()
					}

					cfg, err := buildConfig(context)
					if err != nil {
						return err
					}

					circuits := enabledCircuits(cfg)
					systems, err := prover.LoadKeys(cfg.KeysDir, circuits)
					if err != nil {
						return err
					}
					if len(systems) == 0 {
						return fmt.Errorf("no proving systems loaded")
					}

					registry := prover.NewRegistry(systems)
					generator := prover.NewGenerator(registry)

					keys := make(map[prover.CircuitType]groth16.VerifyingKey, len(systems))
					for _, system := range systems {
						keys[system.CircuitType] = system.VerifyingKey
					}
					gateway, err := verifier.New(cfg.VerifierMode, keys)
					if err != nil {
						return err
					}

					var queue *server.RedisQueue
					if cfg.RedisURL != "" {
						queue, err = server.NewRedisQueue(cfg.RedisURL)
						if err != nil {
							return err
						}
						defer queue.Close()
					}

					serverCfg := server.Config{
						ProverAddress:  cfg.ProverAddress,
						MetricsAddress: cfg.MetricsAddress,
						ProofTimeout:   cfg.ProofTimeout,
					}
					instance := server.Run(&serverCfg, generator, gateway, queue)
					sigint := make(chan os.Signal, 1)
					signal.Notify(sigint, os.Interrupt)
					<-sigint
					logging.Logger().Info().Msg("Received sigint, shutting down")
					instance.RequestStop()
					logging.Logger().Info().Msg("Waiting for server to close")
					instance.AwaitStop()
					return nil
				},
			},
			{
				Name: "prove",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "keys-dir", Usage: "Directory where circuit key files are stored", Value: config.DefaultKeysDir, Required: false},
					&cli.BoolFlag{Name: "whitelist", Usage: "Run whitelist circuit", Required: false},
					&cli.BoolFlag{Name: "blacklist", Usage: "Run blacklist circuit", Required: false},
					&cli.BoolFlag{Name: "jurisdiction", Usage: "Run jurisdiction circuit", Required: false},
					&cli.BoolFlag{Name: "accreditation", Usage: "Run accreditation circuit", Required: false},
					&cli.BoolFlag{Name: "aggregation", Usage: "Run aggregation circuit", Required: false},
				},
				Action: func(cliCtx *cli.Context) error {
					circuits := circuitFlags(cliCtx)
					if len(circuits) == 0 {
						circuits = prover.AllCircuits()
					}
					systems, err := prover.LoadKeys(cliCtx.String("keys-dir"), circuits)
					if err != nil {
						return err
					}
					if len(systems) == 0 {
						return fmt.Errorf("no proving systems loaded")
					}
					generator := prover.NewGenerator(prover.NewRegistry(systems))

					logging.Logger().Info().Msg("Reading request from stdin")
					inputsBytes, err := io.ReadAll(os.Stdin)
					if err != nil {
						return err
					}

					proof, err := generator.ProveJSON(context.Background(), inputsBytes)
					if err != nil {
						return err
					}
					r, err := json.Marshal(proof)
					if err != nil {
						return err
					}
					fmt.Println(string(r))
					return nil
				},
			},
			{
				Name: "verify",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "keys-file", Aliases: []string{"k"}, Usage: "proving system file", Required: true},
					&cli.StringFlag{Name: "circuit", Usage: "Type of circuit (\"whitelist\" / \"blacklist\" / \"jurisdiction\" / \"accreditation\" / \"aggregation\")", Required: true},
				},
				Action: func(context *cli.Context) error {
					keys := context.String("keys-file")
					circuit := prover.CircuitType(context.String("circuit"))

					system, err := prover.ReadSystemFromFile(keys)
					if err != nil {
						return fmt.Errorf("failed to read proving system: %v", err)
					}
					if system.CircuitType != circuit {
						return fmt.Errorf("artifact holds %s keys, not %s", system.CircuitType, circuit)
					}

					logging.Logger().Info().Msg("Reading proof from stdin")
					proofBytes, err := io.ReadAll(os.Stdin)
					if err != nil {
						return fmt.Errorf("failed to read proof from stdin: %v", err)
					}

					var proof prover.OnChainProof
					err = json.Unmarshal(proofBytes, &proof)
					if err != nil {
						return fmt.Errorf("failed to unmarshal proof: %v", err)
					}

					gateway := verifier.NewRealVerifier(map[prover.CircuitType]groth16.VerifyingKey{
						system.CircuitType: system.VerifyingKey,
					})

					var valid bool
					switch circuit {
					case prover.Whitelist:
						valid = gateway.VerifyWhitelist(&proof)
					case prover.Blacklist:
						valid = gateway.VerifyBlacklist(&proof)
					case prover.Jurisdiction:
						valid = gateway.VerifyJurisdiction(&proof)
					case prover.Accreditation:
						valid = gateway.VerifyAccreditation(&proof)
					case prover.Aggregation:
						valid = gateway.VerifyAggregation(&proof)
					default:
						return fmt.Errorf("invalid circuit type %s", circuit)
					}

					if !valid {
						return fmt.Errorf("verification failed")
					}

					logging.Logger().Info().Msg("Verification completed successfully")
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logging.Logger().Fatal().Err(err).Msg("App failed.")
	}
}

// buildConfig reads the TOML file when --config is set and lets explicit
// command line flags override it either way.
func buildConfig(context *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if configPath := context.String("config"); configPath != "" {
		var err error
		cfg, err = config.ReadConfig(configPath)
		if err != nil {
			return cfg, err
		}
	}

	if context.IsSet("prover-address") {
		cfg.ProverAddress = context.String("prover-address")
	}
	if context.IsSet("metrics-address") {
		cfg.MetricsAddress = context.String("metrics-address")
	}
	if context.IsSet("keys-dir") {
		cfg.KeysDir = context.String("keys-dir")
	}
	if context.IsSet("redis-url") {
		cfg.RedisURL = context.String("redis-url")
	}
	if context.IsSet("verifier-mode") {
		cfg.VerifierMode = context.String("verifier-mode")
	}
	for _, circuit := range circuitFlags(context) {
		if !cfg.HasCircuit(string(circuit)) {
			cfg.Circuits = append(cfg.Circuits, string(circuit))
		}
	}

	return cfg, cfg.Validate()
}

// enabledCircuits maps the configured circuit names to circuit types. An
// empty list enables everything.
func enabledCircuits(cfg config.Config) []prover.CircuitType {
	if len(cfg.Circuits) == 0 {
		return prover.AllCircuits()
	}
	var circuits []prover.CircuitType
	for _, name := range cfg.Circuits {
		circuits = append(circuits, prover.CircuitType(name))
	}
	return circuits
}

func circuitFlags(context *cli.Context) []prover.CircuitType {
	var circuits []prover.CircuitType
	for _, circuit := range prover.AllCircuits() {
		if context.Bool(string(circuit)) {
			circuits = append(circuits, circuit)
		}
	}
	return circuits
}
