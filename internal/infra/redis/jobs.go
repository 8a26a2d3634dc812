package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vietddude/cardgate/internal/core/domain"
	"github.com/vietddude/cardgate/internal/infra/storage"
)

// DefaultJobTTL is how long a job record survives without updates.
const DefaultJobTTL = 7 * 24 * time.Hour

// ImportJobRepo implements storage.ImportJobRepository using Redis.
// Records live under import_job:<id>; the import_jobs sorted set indexes them
// by submission time.
type ImportJobRepo struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewImportJobRepo creates a Redis-backed import job repository.
func NewImportJobRepo(client *Client, ttl time.Duration) *ImportJobRepo {
	if ttl <= 0 {
		ttl = DefaultJobTTL
	}
	return &ImportJobRepo{rdb: client.rdb, ttl: ttl}
}

// Key helpers
func indexKey() string {
	return "import_jobs"
}

func jobKey(id string) string {
	return fmt.Sprintf("import_job:%s", id)
}

// Save stores the job and indexes it.
func (r *ImportJobRepo) Save(ctx context.Context, job *domain.ImportJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal import job: %w", err)
	}

	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, jobKey(job.JobID), data, r.ttl)
	pipe.ZAdd(ctx, indexKey(), redis.Z{
		Score:  float64(job.SubmittedAt.UnixMilli()),
		Member: job.JobID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save import job: %w", err)
	}
	return nil
}

// Get retrieves a job by id.
func (r *ImportJobRepo) Get(ctx context.Context, jobID string) (*domain.ImportJob, error) {
	data, err := r.rdb.Get(ctx, jobKey(jobID)).Bytes()
	if err == redis.Nil {
		return nil, storage.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import job: %w", err)
	}

	var job domain.ImportJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal import job: %w", err)
	}
	return &job, nil
}

// List returns all live jobs, newest first. Index entries whose record
// expired are dropped.
func (r *ImportJobRepo) List(ctx context.Context) ([]*domain.ImportJob, error) {
	ids, err := r.rdb.ZRevRange(ctx, indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrange failed: %w", err)
	}

	jobs := make([]*domain.ImportJob, 0, len(ids))
	for _, id := range ids {
		job, err := r.Get(ctx, id)
		if err == storage.ErrJobNotFound {
			r.rdb.ZRem(ctx, indexKey(), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

var _ storage.ImportJobRepository = (*ImportJobRepo)(nil)
