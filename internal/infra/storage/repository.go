package storage

import (
	"context"
	"errors"

	"github.com/vietddude/cardgate/internal/core/domain"
)

var (
	// ErrJobNotFound is returned when an import job was never recorded
	ErrJobNotFound = errors.New("import job not found")
)

// ImportJobRepository remembers import jobs submitted from this client
type ImportJobRepository interface {
	// Save inserts or replaces a job record
	Save(ctx context.Context, job *domain.ImportJob) error

	// Get retrieves a job by id
	Get(ctx context.Context, jobID string) (*domain.ImportJob, error)

	// List returns all recorded jobs, most recently submitted first
	List(ctx context.Context) ([]*domain.ImportJob, error)
}
