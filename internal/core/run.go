package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JonMunkholm/academia/internal/logging"
)

// rawLineKey holds the unsplit text of a row whose fields could not be parsed.
const rawLineKey = "_line"

// ProcessImport runs one import job to completion.
//
// The job must be pending and declared with req.Kind. Rows are processed
// strictly in file order, one at a time, because later rows may reference
// entities created by earlier ones. A row failure is recorded as a RowError
// and never stops the run. Only a failure before the first row (empty or
// unreadable content) marks the job failed; it is returned as a
// *PreconditionError.
//
// Once the job is marked processing the run ignores cancellation of ctx.
func (s *Service) ProcessImport(ctx context.Context, req ImportRequest) (ImportResult, error) {
	result := ImportResult{JobID: req.JobID}

	def, ok := Lookup(req.Kind)
	if !ok {
		return result, fmt.Errorf("%w: %q", ErrUnknownKind, req.Kind)
	}

	job, err := s.jobs.GetJob(ctx, req.JobID)
	if err != nil {
		return result, err
	}
	if job.Kind != req.Kind {
		return result, fmt.Errorf("%w: job is %s, request is %s", ErrKindMismatch, job.Kind, req.Kind)
	}
	if job.Status != StatusPending {
		return result, fmt.Errorf("%w: status is %s", ErrJobNotPending, job.Status)
	}
	if req.FileName == "" {
		req.FileName = job.FileName
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return result, err
	}
	defer s.limiter.Release()

	if err := s.jobs.MarkProcessing(ctx, req.JobID); err != nil {
		return result, fmt.Errorf("mark processing: %w", err)
	}

	ctx = context.WithoutCancel(ctx)

	r := &importRun{
		svc:    s,
		def:    def,
		logger: logging.ForJob(ctx, req.JobID, req.Kind),
		progress: ImportProgress{
			JobID: req.JobID,
			Kind:  req.Kind,
		},
	}
	r.logger.Info("import started", "file", req.FileName, "bytes", len(req.Content))
	r.publish(ctx, PhaseStarting)

	file, err := r.prepare(ctx, req)
	if err != nil {
		return result, r.fail(ctx, err)
	}

	counts := r.processRows(ctx, file)
	result.Counts = counts

	if err := s.jobs.Complete(ctx, req.JobID, counts); err != nil {
		r.logger.Error("failed to finalize import", "error", err)
		return result, fmt.Errorf("complete import: %w", err)
	}

	r.publish(ctx, PhaseComplete)
	r.logger.Info("import completed",
		"processed", counts.Processed,
		"successful", counts.Successful,
		"failed", counts.Failed,
	)
	return result, nil
}

// importRun carries the state of one ProcessImport call.
type importRun struct {
	svc      *Service
	def      KindDefinition
	logger   *slog.Logger
	progress ImportProgress
}

// prepare archives, decodes and parses the content. Any error it returns is
// a precondition failure.
func (r *importRun) prepare(ctx context.Context, req ImportRequest) (ParsedFile, error) {
	r.publish(ctx, PhaseParsing)

	if int64(len(req.Content)) > r.svc.maxFileSize {
		return ParsedFile{}, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, len(req.Content), r.svc.maxFileSize)
	}

	if r.svc.archiver != nil && len(req.Content) > 0 {
		loc, err := r.svc.archiver.Archive(ctx, req.JobID, req.FileName, req.Content)
		if err != nil {
			r.logger.Warn("failed to archive import file", "error", err)
		} else {
			r.logger.Debug("archived import file", "location", loc)
		}
	}

	text, err := DecodeContent(req.Content)
	if err != nil {
		return ParsedFile{}, err
	}
	return ParseContent(text)
}

func (r *importRun) fail(ctx context.Context, cause error) error {
	jobID := r.progress.JobID
	r.logger.Warn("import failed before processing rows", "error", cause)

	if err := r.svc.jobs.Fail(ctx, jobID, cause.Error()); err != nil {
		r.logger.Error("failed to mark import failed", "error", err)
	}

	r.progress.Error = cause.Error()
	r.publish(ctx, PhaseFailed)
	return &PreconditionError{Err: cause}
}

func (r *importRun) processRows(ctx context.Context, file ParsedFile) Counts {
	jobID := r.progress.JobID
	total := len(file.Rows)

	if err := r.svc.jobs.SetTotal(ctx, jobID, total); err != nil {
		r.logger.Warn("failed to record total rows", "error", err)
	}
	r.progress.Total = total
	r.publish(ctx, PhaseProcessing)

	var counts Counts
	for _, row := range file.Rows {
		var rowData map[string]string
		err := row.Err
		if err == nil {
			rec := NewRecord(row.Line, file.Headers, row.Fields)
			rowData = rec.Raw()
			err = r.processRow(ctx, rec)
		} else {
			rowData = map[string]string{rawLineKey: row.Text}
		}

		counts.Processed++
		if err != nil {
			counts.Failed++
			r.recordFailure(ctx, row.Line, rowData, err)
		} else {
			counts.Successful++
			r.logger.Debug("row imported", "row", row.Line)
		}

		r.progress.Current = counts.Processed
		r.progress.Successful = counts.Successful
		r.progress.Failed = counts.Failed
		if counts.Processed%r.svc.progressInterval == 0 && counts.Processed < total {
			if err := r.svc.jobs.UpdateCounts(ctx, jobID, counts); err != nil {
				r.logger.Warn("failed to flush progress counters", "error", err)
			}
			r.publish(ctx, PhaseProcessing)
		}
	}
	return counts
}

// processRow isolates a panicking processor to its own row.
func (r *importRun) processRow(ctx context.Context, rec Record) (err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("panic processing row", "row", rec.Line, "panic", p)
			err = fmt.Errorf("internal error: %v", p)
		}
	}()
	return r.def.Process(ctx, r.svc.deps, rec)
}

func (r *importRun) recordFailure(ctx context.Context, line int, rowData map[string]string, cause error) {
	r.logger.Debug("row failed", "row", line, "error", cause)

	rowErr := RowError{
		ID:        uuid.New(),
		JobID:     r.progress.JobID,
		RowNumber: line,
		Message:   cause.Error(),
		RowData:   rowData,
	}
	if err := r.svc.jobs.InsertRowError(ctx, rowErr); err != nil {
		r.logger.Error("failed to record row error", "row", line, "error", err)
	}
}

func (r *importRun) publish(ctx context.Context, phase ImportPhase) {
	r.progress.Phase = phase
	r.svc.hub.Publish(r.progress)

	if r.svc.sink == nil {
		return
	}
	if err := r.svc.sink.Publish(ctx, r.progress); err != nil {
		r.logger.Debug("failed to publish progress", "error", err)
	}
}
