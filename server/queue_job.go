package server

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"shield/compliance-prover/logging"
	"shield/compliance-prover/prover"
)

// ProofJob is one queued proving request. The payload is the same body
// the synchronous endpoint accepts.
type ProofJob struct {
	ID          string          `json:"id"`
	CircuitType string          `json:"circuitType"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ProofResult is what a worker leaves behind for a job: either a
// formatted proof or an error string.
type ProofResult struct {
	JobID      string               `json:"jobId"`
	Proof      *prover.OnChainProof `json:"proof,omitempty"`
	Error      string               `json:"error,omitempty"`
	FinishedAt time.Time            `json:"finishedAt"`
}

func NewProofJob(circuitType prover.CircuitType, payload []byte) *ProofJob {
	return &ProofJob{
		ID:          uuid.New().String(),
		CircuitType: string(circuitType),
		Payload:     payload,
		CreatedAt:   time.Now(),
	}
}

// Worker drains the proof queue through the generator.
type Worker struct {
	queue     *RedisQueue
	generator *prover.Generator
	timeout   time.Duration
}

func NewWorker(queue *RedisQueue, generator *prover.Generator, timeout time.Duration) *Worker {
	return &Worker{queue: queue, generator: generator, timeout: timeout}
}

// Spawn starts the worker loop in the background.
func (w *Worker) Spawn() RunningJob {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	start := func() {
		defer close(done)
		w.run(ctx)
	}
	shutdown := func() {
		cancel()
		<-done
	}
	return SpawnJob(start, shutdown)
}

func (w *Worker) run(ctx context.Context) {
	logging.Logger().Info().Msg("proof worker started")
	for {
		select {
		case <-ctx.Done():
			logging.Logger().Info().Msg("proof worker stopped")
			return
		default:
		}

		job, err := w.queue.DequeueProof(5 * time.Second)
		if err != nil {
			logging.Logger().Warn().Err(err).Msg("dequeue failed")
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			w.queue.UpdateQueueMetrics()
			continue
		}
		w.process(ctx, job)
	}
}

func (w *Worker) process(ctx context.Context, job *ProofJob) {
	ActiveJobs.Inc()
	defer ActiveJobs.Dec()

	start := time.Now()
	proveCtx := ctx
	if w.timeout > 0 {
		var cancel context.CancelFunc
		proveCtx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	formatted, err := w.generator.ProveJSON(proveCtx, job.Payload)
	observeProof(job.CircuitType, start, err)

	result := &ProofResult{JobID: job.ID, FinishedAt: time.Now()}
	if err != nil {
		logging.Logger().Warn().
			Err(err).
			Str("job_id", job.ID).
			Str("circuit_type", job.CircuitType).
			Msg("queued proof failed")
		result.Error = err.Error()
		JobsProcessed.WithLabelValues("failed").Inc()
	} else {
		result.Proof = formatted
		JobsProcessed.WithLabelValues("succeeded").Inc()
	}

	if err := w.queue.StoreResult(job.ID, result); err != nil {
		logging.Logger().Error().Err(err).Str("job_id", job.ID).Msg("failed to store job result")
	}
}
