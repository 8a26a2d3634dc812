package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vietddude/cardgate/internal/core/domain"
	"github.com/vietddude/cardgate/internal/infra/storage"
)

// ImportJobRepo keeps import jobs in process memory.
type ImportJobRepo struct {
	jobs map[string]domain.ImportJob
	mu   sync.RWMutex
}

func NewImportJobRepo() *ImportJobRepo {
	return &ImportJobRepo{
		jobs: make(map[string]domain.ImportJob),
	}
}

func (r *ImportJobRepo) Save(ctx context.Context, job *domain.ImportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.JobID] = *clone(job)
	return nil
}

func (r *ImportJobRepo) Get(ctx context.Context, jobID string) (*domain.ImportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, storage.ErrJobNotFound
	}
	return clone(&job), nil
}

func (r *ImportJobRepo) List(ctx context.Context) ([]*domain.ImportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.ImportJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, clone(&job))
	}
	sort.Slice(out, func(i, k int) bool {
		return out[i].SubmittedAt.After(out[k].SubmittedAt)
	})
	return out, nil
}

// clone copies a job so callers never share the stored Errors array.
func clone(job *domain.ImportJob) *domain.ImportJob {
	cp := *job
	cp.Errors = append([]string(nil), job.Errors...)
	return &cp
}

var _ storage.ImportJobRepository = (*ImportJobRepo)(nil)
