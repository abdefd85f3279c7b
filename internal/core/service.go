package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultMaxFileSize bounds the content accepted for one import.
	DefaultMaxFileSize int64 = 10 << 20

	// DefaultProgressInterval is how many rows pass between counter flushes.
	DefaultProgressInterval = 25

	// DefaultPassword is assigned to imported users without a password value.
	DefaultPassword = "ChangeMe123!"

	defaultListLimit = 50
	maxListLimit     = 200
)

// Options tunes a Service. Zero values select the defaults above.
type Options struct {
	MaxFileSize      int64
	MaxConcurrent    int
	MaxWait          time.Duration
	ProgressInterval int
	DefaultPassword  string

	// Sink and Archiver are optional side channels. Their failures are
	// logged and never affect an import.
	Sink     ProgressSink
	Archiver FileArchiver

	Now func() time.Time
}

// Service runs bulk imports and exposes their history.
type Service struct {
	jobs     JobStore
	deps     Deps
	limiter  *ImportLimiter
	hub      *ProgressHub
	sink     ProgressSink
	archiver FileArchiver

	maxFileSize      int64
	progressInterval int
}

// NewService creates a Service over the given stores.
func NewService(jobs JobStore, dir Directory, ids IdentityProvider, opts Options) *Service {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}
	if opts.DefaultPassword == "" {
		opts.DefaultPassword = DefaultPassword
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		jobs: jobs,
		deps: Deps{
			Directory:       dir,
			Identities:      ids,
			DefaultPassword: opts.DefaultPassword,
			Now:             opts.Now,
		},
		limiter:          NewImportLimiter(opts.MaxConcurrent, opts.MaxWait),
		hub:              NewProgressHub(),
		sink:             opts.Sink,
		archiver:         opts.Archiver,
		maxFileSize:      opts.MaxFileSize,
		progressInterval: opts.ProgressInterval,
	}
}

// Kinds returns every registered import kind in dependency order.
func (s *Service) Kinds() []KindInfo {
	defs := All()
	infos := make([]KindInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	return infos
}

// CreateJob registers a pending import.
func (s *Service) CreateJob(ctx context.Context, job NewJob) (ImportJob, error) {
	if _, ok := Lookup(job.Kind); !ok {
		return ImportJob{}, fmt.Errorf("%w: %q", ErrUnknownKind, job.Kind)
	}
	job.FileName = strings.TrimSpace(job.FileName)
	if job.FileName == "" {
		return ImportJob{}, ValidationError{Field: "file_name", Message: "is required"}
	}
	if job.ImportedBy == uuid.Nil {
		job.ImportedBy = ActorFromContext(ctx)
	}
	return s.jobs.CreateJob(ctx, job)
}

// GetJob returns one import job.
func (s *Service) GetJob(ctx context.Context, id uuid.UUID) (ImportJob, error) {
	return s.jobs.GetJob(ctx, id)
}

// ListJobs returns import history, newest first.
func (s *Service) ListJobs(ctx context.Context, filter JobFilter) ([]ImportJob, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.jobs.ListJobs(ctx, filter)
}

// ListRowErrors returns the failed rows of a job ordered by row number.
func (s *Service) ListRowErrors(ctx context.Context, jobID uuid.UUID) ([]RowError, error) {
	if _, err := s.jobs.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	return s.jobs.ListRowErrors(ctx, jobID)
}

// SubscribeProgress streams snapshots of a running or recently finished import.
func (s *Service) SubscribeProgress(jobID uuid.UUID) (<-chan ImportProgress, func(), bool) {
	return s.hub.Subscribe(jobID)
}

// LastProgress returns the latest in-process snapshot of a run.
func (s *Service) LastProgress(jobID uuid.UUID) (ImportProgress, bool) {
	return s.hub.Last(jobID)
}

// LimiterStatus reports import slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until no import is running or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// MaxFileSize is the largest content ProcessImport accepts.
func (s *Service) MaxFileSize() int64 {
	return s.maxFileSize
}
