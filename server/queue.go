package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"shield/compliance-prover/logging"
)

const (
	// ProofQueueKey is the Redis list the async prove endpoint feeds.
	ProofQueueKey = "compliance_proof_queue"

	resultKeyPrefix  = "compliance_proof_result_"
	failureKeyPrefix = "compliance_proof_failure_"

	// resultTTL bounds how long a finished job stays queryable.
	resultTTL = 1 * time.Hour
)

var ErrJobNotFound = errors.New("job not found")

type RedisQueue struct {
	Client *redis.Client
	Ctx    context.Context
}

func NewRedisQueue(redisURL string) (*RedisQueue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opts.DialTimeout = 10 * time.Second
	opts.ReadTimeout = 30 * time.Second
	opts.WriteTimeout = 10 * time.Second
	opts.MaxRetries = 3

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Logger().Info().
		Str("addr", opts.Addr).
		Msg("Redis queue connected")

	return &RedisQueue{Client: client, Ctx: context.Background()}, nil
}

func (rq *RedisQueue) EnqueueProof(job *ProofJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := rq.Client.RPush(rq.Ctx, ProofQueueKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	logging.Logger().Info().
		Str("job_id", job.ID).
		Str("circuit_type", job.CircuitType).
		Msg("Job enqueued")
	return nil
}

// DequeueProof blocks up to timeout for the next job. A nil job with a
// nil error means the wait timed out.
func (rq *RedisQueue) DequeueProof(timeout time.Duration) (*ProofJob, error) {
	result, err := rq.Client.BLPop(rq.Ctx, timeout, ProofQueueKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue job: %w", err)
	}

	var job ProofJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

func (rq *RedisQueue) StoreResult(jobID string, result *ProofResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	key := resultKeyPrefix + jobID
	if result.Error != "" {
		key = failureKeyPrefix + jobID
	}
	if err := rq.Client.Set(rq.Ctx, key, data, resultTTL).Err(); err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}
	return nil
}

// GetResult returns a finished job's outcome, ErrJobNotFound while it is
// still pending or after its TTL lapsed.
func (rq *RedisQueue) GetResult(jobID string) (*ProofResult, error) {
	data, err := rq.Client.Get(rq.Ctx, resultKeyPrefix+jobID).Result()
	if err == redis.Nil {
		data, err = rq.Client.Get(rq.Ctx, failureKeyPrefix+jobID).Result()
	}
	if err == redis.Nil {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read result: %w", err)
	}

	var result ProofResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &result, nil
}

func (rq *RedisQueue) QueueLength() (int64, error) {
	return rq.Client.LLen(rq.Ctx, ProofQueueKey).Result()
}

// UpdateQueueMetrics refreshes the queue depth gauge.
func (rq *RedisQueue) UpdateQueueMetrics() {
	length, err := rq.QueueLength()
	if err != nil {
		logging.Logger().Warn().Err(err).Msg("failed to read queue length")
		return
	}
	QueueDepth.WithLabelValues(ProofQueueKey).Set(float64(length))
}

func (rq *RedisQueue) Close() error {
	return rq.Client.Close()
}
