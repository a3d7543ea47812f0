package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shield/compliance-prover/logging"
	"shield/compliance-prover/prover"
	"shield/compliance-prover/verifier"
)

type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func malformedBodyError(err error) *Error {
	return &Error{StatusCode: http.StatusBadRequest, Code: "malformed_body", Message: err.Error()}
}

func complianceError(err error) *Error {
	return &Error{StatusCode: http.StatusUnprocessableEntity, Code: "compliance_check_failed", Message: err.Error()}
}

func artifactError(err error) *Error {
	return &Error{StatusCode: http.StatusServiceUnavailable, Code: "artifact_missing", Message: err.Error()}
}

func provingError(err error) *Error {
	return &Error{StatusCode: http.StatusBadRequest, Code: "proving_error", Message: err.Error()}
}

func timeoutError(err error) *Error {
	return &Error{StatusCode: http.StatusGatewayTimeout, Code: "proving_timeout", Message: err.Error()}
}

func unexpectedError(err error) *Error {
	return &Error{StatusCode: http.StatusInternalServerError, Code: "unexpected_error", Message: err.Error()}
}

// proofErrorOf maps the prover's error taxonomy onto the HTTP envelope.
func proofErrorOf(err error) *Error {
	switch {
	case prover.IsPreCheckError(err):
		return complianceError(err)
	case errors.Is(err, prover.ErrCircuitArtifactMissing):
		return artifactError(err)
	case errors.Is(err, prover.ErrProofTimeout):
		return timeoutError(err)
	case errors.Is(err, prover.ErrProofGenerationFailed):
		return provingError(err)
	default:
		return malformedBodyError(err)
	}
}

func errorType(err error) string {
	switch {
	case prover.IsPreCheckError(err):
		return "precheck"
	case errors.Is(err, prover.ErrCircuitArtifactMissing):
		return "artifact_missing"
	case errors.Is(err, prover.ErrProofTimeout):
		return "timeout"
	case errors.Is(err, prover.ErrProofGenerationFailed):
		return "proving"
	default:
		return "malformed"
	}
}

func (error *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"code":    error.Code,
		"message": error.Message,
	})
}

func (error *Error) send(w http.ResponseWriter) {
	w.WriteHeader(error.StatusCode)
	jsonBytes, err := error.MarshalJSON()
	if err != nil {
		jsonBytes = []byte(`{"code": "unexpected_error", "message": "failed to marshal error"}`)
	}
	length, err := w.Write(jsonBytes)
	if err != nil || length != len(jsonBytes) {
		logging.Logger().Error().Err(err).Msg("error writing response")
	}
}

func sendJSON(w http.ResponseWriter, payload any) {
	responseBytes, err := json.Marshal(payload)
	if err != nil {
		unexpectedError(err).send(w)
		return
	}
	w.WriteHeader(http.StatusOK)
	if _, err = w.Write(responseBytes); err != nil {
		logging.Logger().Error().Err(err).Msg("error writing response")
	}
}

type Config struct {
	ProverAddress  string
	MetricsAddress string
	ProofTimeout   time.Duration
}

func spawnServerJob(server *http.Server, label string) RunningJob {
	start := func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("%s failed: %s", label, err))
		}
	}
	shutdown := func() {
		logging.Logger().Info().Msgf("shutting down %s", label)
		err := server.Shutdown(context.Background())
		if err != nil {
			logging.Logger().Error().Err(err).Msgf("error when shutting down %s", label)
		}
		logging.Logger().Info().Msgf("%s shut down", label)
	}
	return SpawnJob(start, shutdown)
}

// Run starts the metrics listener, the proving API and, when a queue is
// configured, the async worker. The returned job stops all of them.
func Run(config *Config, generator *prover.Generator, gateway verifier.Gateway, queue *RedisQueue) RunningJob {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{Addr: config.MetricsAddress, Handler: metricsMux}
	metricsJob := spawnServerJob(metricsServer, "metrics server")
	logging.Logger().Info().Str("addr", config.MetricsAddress).Msg("metrics server started")

	proverMux := http.NewServeMux()
	proverMux.Handle("/prove", proveHandler{generator: generator, timeout: config.ProofTimeout})
	proverMux.Handle("/verify", verifyHandler{gateway: gateway})
	proverMux.Handle("/health", healthHandler{})

	jobs := []RunningJob{metricsJob}
	if queue != nil {
		proverMux.Handle("/prove/async", enqueueHandler{queue: queue})
		proverMux.Handle("/prove/status", statusHandler{queue: queue})
		worker := NewWorker(queue, generator, config.ProofTimeout)
		jobs = append(jobs, worker.Spawn())
	}

	corsHandler := handlers.CORS(
		handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type", "Authorization"}),
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
	)

	proverServer := &http.Server{Addr: config.ProverAddress, Handler: corsHandler(proverMux)}
	jobs = append(jobs, spawnServerJob(proverServer, "prover server"))
	logging.Logger().Info().Str("addr", config.ProverAddress).Msg("app server started")

	return CombineJobs(jobs...)
}

type proveHandler struct {
	generator *prover.Generator
	timeout   time.Duration
}

func (handler proveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	logging.Logger().Info().Msg("received prove request")
	buf, err := io.ReadAll(r.Body)
	if err != nil {
		malformedBodyError(err).send(w)
		return
	}

	circuitType, err := prover.ParseCircuitType(buf)
	if err != nil {
		malformedBodyError(err).send(w)
		return
	}

	ctx := r.Context()
	if handler.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, handler.timeout)
		defer cancel()
	}

	start := time.Now()
	formatted, err := handler.generator.ProveJSON(ctx, buf)
	observeProof(string(circuitType), start, err)
	if err != nil {
		logging.Logger().Warn().Err(err).Str("circuit_type", string(circuitType)).Msg("prove request failed")
		proofErrorOf(err).send(w)
		return
	}

	sendJSON(w, formatted)
}

type verifyRequest struct {
	Circuit string              `json:"circuit"`
	Proof   prover.OnChainProof `json:"proof"`
}

type verifyResponse struct {
	Valid bool `json:"valid"`
}

type verifyHandler struct {
	gateway verifier.Gateway
}

func (handler verifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	buf, err := io.ReadAll(r.Body)
	if err != nil {
		malformedBodyError(err).send(w)
		return
	}

	var req verifyRequest
	if err := json.Unmarshal(buf, &req); err != nil {
		malformedBodyError(err).send(w)
		return
	}

	var valid bool
	switch prover.CircuitType(req.Circuit) {
	case prover.Whitelist:
		valid = handler.gateway.VerifyWhitelist(&req.Proof)
	case prover.Blacklist:
		valid = handler.gateway.VerifyBlacklist(&req.Proof)
	case prover.Jurisdiction:
		valid = handler.gateway.VerifyJurisdiction(&req.Proof)
	case prover.Accreditation:
		valid = handler.gateway.VerifyAccreditation(&req.Proof)
	case prover.Aggregation:
		valid = handler.gateway.VerifyAggregation(&req.Proof)
	default:
		malformedBodyError(fmt.Errorf("unknown circuit: %s", req.Circuit)).send(w)
		return
	}

	result := "invalid"
	if valid {
		result = "valid"
	}
	VerificationsTotal.WithLabelValues(req.Circuit, result).Inc()
	sendJSON(w, verifyResponse{Valid: valid})
}

type enqueueHandler struct {
	queue *RedisQueue
}

func (handler enqueueHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	buf, err := io.ReadAll(r.Body)
	if err != nil {
		malformedBodyError(err).send(w)
		return
	}

	circuitType, err := prover.ParseCircuitType(buf)
	if err != nil {
		malformedBodyError(err).send(w)
		return
	}

	job := NewProofJob(circuitType, buf)
	if err := handler.queue.EnqueueProof(job); err != nil {
		unexpectedError(err).send(w)
		return
	}
	sendJSON(w, map[string]string{"jobId": job.ID})
}

type statusHandler struct {
	queue *RedisQueue
}

func (handler statusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	jobID := r.URL.Query().Get("jobId")
	if jobID == "" {
		malformedBodyError(fmt.Errorf("missing jobId")).send(w)
		return
	}

	result, err := handler.queue.GetResult(jobID)
	if errors.Is(err, ErrJobNotFound) {
		sendJSON(w, map[string]string{"jobId": jobID, "status": "pending"})
		return
	}
	if err != nil {
		unexpectedError(err).send(w)
		return
	}
	sendJSON(w, result)
}

type healthHandler struct {
}

func (handler healthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sendJSON(w, map[string]string{"status": "ok"})
}
