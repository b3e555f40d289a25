// Package ocrjob runs OCR asynchronously against stored objects. Jobs live in
// redis hashes with a TTL and their ids travel through a redis list that the
// Worker drains.
package ocrjob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/AbilashEG/smart-hr-intake/internal/domain"
	obsctx "github.com/AbilashEG/smart-hr-intake/internal/observability"
)

const (
	defaultQueueKey = "ocr:queue"
	jobKeyPrefix    = "ocr:job:"
)

// Queue implements domain.OCRJobService on redis.
type Queue struct {
	rdb      redis.UniversalClient
	ttl      time.Duration
	queueKey string
	now      func() time.Time
}

// NewQueue builds a Queue. A non-positive ttl defaults to one hour.
func NewQueue(rdb redis.UniversalClient, ttl time.Duration) *Queue {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Queue{rdb: rdb, ttl: ttl, queueKey: defaultQueueKey, now: time.Now}
}

func jobKey(id string) string { return jobKeyPrefix + id }

// StartJob records an IN_PROGRESS job for ref and enqueues it.
func (q *Queue) StartJob(ctx context.Context, ref domain.BlobRef) (string, error) {
	if ref.IsZero() {
		return "", fmt.Errorf("op=ocrjob.start: %w: empty blob ref", domain.ErrInvalidArgument)
	}
	id := uuid.NewString()
	key := jobKey(id)
	_, err := q.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key,
			"status", domain.OCRJobInProgress,
			"bucket", ref.Bucket,
			"key", ref.Key,
			"request_id", obsctx.RequestIDFromContext(ctx),
			"created_at", q.now().UTC().Format(time.RFC3339Nano),
		)
		p.Expire(ctx, key, q.ttl)
		p.LPush(ctx, q.queueKey, id)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("op=ocrjob.start: %w", err)
	}
	return id, nil
}

// PollJob returns the current state of a job, or domain.ErrNotFound once it expired.
func (q *Queue) PollJob(ctx context.Context, jobID string) (domain.OCRJob, error) {
	vals, err := q.rdb.HGetAll(ctx, jobKey(jobID)).Result()
	if err != nil {
		return domain.OCRJob{}, fmt.Errorf("op=ocrjob.poll: %w", err)
	}
	if len(vals) == 0 {
		return domain.OCRJob{}, fmt.Errorf("op=ocrjob.poll: %w: job %s", domain.ErrNotFound, jobID)
	}
	job := domain.OCRJob{ID: jobID, Status: vals["status"], Error: vals["error"]}
	if raw := vals["lines"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &job.Lines); err != nil {
			return domain.OCRJob{}, fmt.Errorf("op=ocrjob.poll: decode lines: %w", err)
		}
	}
	return job, nil
}

// next blocks up to wait for a queued job id. It returns "" when nothing arrived.
func (q *Queue) next(ctx context.Context, wait time.Duration) (string, error) {
	res, err := q.rdb.BRPop(ctx, wait, q.queueKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	// [queueKey, id]
	return res[1], nil
}

// jobSource is what the worker needs to run a job.
type jobSource struct {
	Blob      domain.BlobRef
	RequestID string
}

func (q *Queue) source(ctx context.Context, jobID string) (jobSource, error) {
	vals, err := q.rdb.HMGet(ctx, jobKey(jobID), "bucket", "key", "request_id").Result()
	if err != nil {
		return jobSource{}, err
	}
	key, _ := vals[1].(string)
	if key == "" {
		return jobSource{}, domain.ErrNotFound
	}
	bucket, _ := vals[0].(string)
	rid, _ := vals[2].(string)
	return jobSource{Blob: domain.BlobRef{Bucket: bucket, Key: key}, RequestID: rid}, nil
}

func (q *Queue) complete(ctx context.Context, jobID string, lines []string) error {
	raw, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	return q.finish(ctx, jobID, "status", domain.OCRJobSucceeded, "lines", string(raw))
}

func (q *Queue) fail(ctx context.Context, jobID string, cause error) error {
	return q.finish(ctx, jobID, "status", domain.OCRJobFailed, "error", cause.Error())
}

func (q *Queue) finish(ctx context.Context, jobID string, fields ...any) error {
	key := jobKey(jobID)
	fields = append(fields, "finished_at", q.now().UTC().Format(time.RFC3339Nano))
	_, err := q.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, fields...)
		p.Expire(ctx, key, q.ttl)
		return nil
	})
	return err
}
