// Package store implements the core persistence ports.
//
// Postgres is the production store backed by the database query layer.
// Memory keeps everything in process and is used by tests and dry runs.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/academia/internal/core"
	db "github.com/JonMunkholm/academia/internal/database"
)

// uniqueViolation is the SQLSTATE of a unique constraint violation.
const uniqueViolation = "23505"

// Postgres implements core.JobStore and core.Directory.
type Postgres struct {
	q *db.Queries
}

var (
	_ core.JobStore  = (*Postgres)(nil)
	_ core.Directory = (*Postgres)(nil)
)

// NewPostgres creates a store over a pool, connection or transaction.
func NewPostgres(dbtx db.DBTX) *Postgres {
	return &Postgres{q: db.New(dbtx)}
}

// asDuplicate converts a unique violation into a *core.DuplicateError.
func asDuplicate(err error, entity, field, value string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &core.DuplicateError{Entity: entity, Field: field, Value: value}
	}
	return err
}

// ============================================================================
// Jobs
// ============================================================================

func (p *Postgres) CreateJob(ctx context.Context, job core.NewJob) (core.ImportJob, error) {
	row, err := p.q.CreateBulkImport(ctx, db.CreateBulkImportParams{
		ImportType: string(job.Kind),
		FileName:   job.FileName,
		ImportedBy: pgNullUUID(job.ImportedBy),
	})
	if err != nil {
		return core.ImportJob{}, fmt.Errorf("create import job: %w", err)
	}
	return toImportJob(row), nil
}

func (p *Postgres) GetJob(ctx context.Context, id uuid.UUID) (core.ImportJob, error) {
	row, err := p.q.GetBulkImport(ctx, pgUUID(id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.ImportJob{}, fmt.Errorf("%w: %s", core.ErrJobNotFound, id)
	}
	if err != nil {
		return core.ImportJob{}, fmt.Errorf("get import job: %w", err)
	}
	return toImportJob(row), nil
}

func (p *Postgres) ListJobs(ctx context.Context, filter core.JobFilter) ([]core.ImportJob, error) {
	rows, err := p.q.ListBulkImports(ctx, db.ListBulkImportsParams{
		ImportType: string(filter.Kind),
		Status:     string(filter.Status),
		Limit:      int32(filter.Limit),
		Offset:     int32(filter.Offset),
	})
	if err != nil {
		return nil, fmt.Errorf("list import jobs: %w", err)
	}

	jobs := make([]core.ImportJob, len(rows))
	for i, row := range rows {
		jobs[i] = toImportJob(row)
	}
	return jobs, nil
}

func (p *Postgres) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	n, err := p.q.MarkBulkImportProcessing(ctx, pgUUID(id))
	if err != nil {
		return fmt.Errorf("mark import processing: %w", err)
	}
	if n == 0 {
		if _, err := p.GetJob(ctx, id); err != nil {
			return err
		}
		return core.ErrJobNotPending
	}
	return nil
}

func (p *Postgres) SetTotal(ctx context.Context, id uuid.UUID, total int) error {
	if err := p.q.SetBulkImportTotal(ctx, pgUUID(id), int32(total)); err != nil {
		return fmt.Errorf("set import total: %w", err)
	}
	return nil
}

func (p *Postgres) UpdateCounts(ctx context.Context, id uuid.UUID, counts core.Counts) error {
	if err := p.q.UpdateBulkImportCounts(ctx, countParams(id, counts)); err != nil {
		return fmt.Errorf("update import counts: %w", err)
	}
	return nil
}

func (p *Postgres) Complete(ctx context.Context, id uuid.UUID, counts core.Counts) error {
	n, err := p.q.CompleteBulkImport(ctx, countParams(id, counts))
	if err != nil {
		return fmt.Errorf("complete import: %w", err)
	}
	if n == 0 {
		return core.ErrInvalidTransition
	}
	return nil
}

func (p *Postgres) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	n, err := p.q.FailBulkImport(ctx, pgUUID(id), pgTextString(reason))
	if err != nil {
		return fmt.Errorf("fail import: %w", err)
	}
	if n == 0 {
		return core.ErrInvalidTransition
	}
	return nil
}

func (p *Postgres) InsertRowError(ctx context.Context, rowErr core.RowError) error {
	data, err := json.Marshal(rowErr.RowData)
	if err != nil {
		return fmt.Errorf("encode row data: %w", err)
	}
	if rowErr.ID == uuid.Nil {
		rowErr.ID = uuid.New()
	}

	err = p.q.InsertImportError(ctx, db.InsertImportErrorParams{
		ID:           pgUUID(rowErr.ID),
		BulkImportID: pgUUID(rowErr.JobID),
		RowNumber:    int32(rowErr.RowNumber),
		ErrorMessage: rowErr.Message,
		RowData:      data,
	})
	if err != nil {
		return fmt.Errorf("insert row error: %w", err)
	}
	return nil
}

func (p *Postgres) ListRowErrors(ctx context.Context, jobID uuid.UUID) ([]core.RowError, error) {
	rows, err := p.q.ListImportErrors(ctx, pgUUID(jobID))
	if err != nil {
		return nil, fmt.Errorf("list row errors: %w", err)
	}

	out := make([]core.RowError, 0, len(rows))
	for _, row := range rows {
		var data map[string]string
		if len(row.RowData) > 0 {
			if err := json.Unmarshal(row.RowData, &data); err != nil {
				return nil, fmt.Errorf("decode row data of row %d: %w", row.RowNumber, err)
			}
		}
		out = append(out, core.RowError{
			ID:        fromPgUUID(row.ID),
			JobID:     fromPgUUID(row.BulkImportID),
			RowNumber: int(row.RowNumber),
			Message:   row.ErrorMessage,
			RowData:   data,
			CreatedAt: fromPgTimestamp(row.CreatedAt),
		})
	}
	return out, nil
}

func countParams(id uuid.UUID, c core.Counts) db.BulkImportCountsParams {
	return db.BulkImportCountsParams{
		ID:                pgUUID(id),
		ProcessedRecords:  int32(c.Processed),
		SuccessfulRecords: int32(c.Successful),
		FailedRecords:     int32(c.Failed),
	}
}

func toImportJob(row db.BulkImport) core.ImportJob {
	return core.ImportJob{
		ID:                fromPgUUID(row.ID),
		Kind:              core.ImportKind(row.ImportType),
		FileName:          row.FileName,
		TotalRecords:      int(row.TotalRecords),
		ProcessedRecords:  int(row.ProcessedRecords),
		SuccessfulRecords: int(row.SuccessfulRecords),
		FailedRecords:     int(row.FailedRecords),
		Status:            core.JobStatus(row.Status),
		ErrorMessage:      row.ErrorMessage.String,
		ImportedBy:        fromPgUUID(row.ImportedBy),
		CreatedAt:         fromPgTimestamp(row.CreatedAt),
		UpdatedAt:         fromPgTimestamp(row.UpdatedAt),
		CompletedAt:       fromPgTimestampPtr(row.CompletedAt),
	}
}

// ============================================================================
// Directory
// ============================================================================

// found maps a single-row lookup error to (found, err).
func found(err error) (bool, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *Postgres) ProfileIDByUsername(ctx context.Context, username string) (uuid.UUID, bool, error) {
	id, err := p.q.GetProfileIDByUsername(ctx, username)
	ok, err := found(err)
	return fromPgUUID(id), ok, err
}

func (p *Postgres) SubjectIDByCode(ctx context.Context, code string) (uuid.UUID, bool, error) {
	id, err := p.q.GetSubjectIDByCode(ctx, code)
	ok, err := found(err)
	return fromPgUUID(id), ok, err
}

func (p *Postgres) GroupIDByCode(ctx context.Context, code string) (uuid.UUID, bool, error) {
	id, err := p.q.GetGroupIDByCode(ctx, code)
	ok, err := found(err)
	return fromPgUUID(id), ok, err
}

func (p *Postgres) InsertProfile(ctx context.Context, pr core.Profile) error {
	err := p.q.InsertProfile(ctx, db.InsertProfileParams{
		ID:       pgUUID(pr.ID),
		Username: pr.Username,
		FullName: pr.FullName,
		Role:     string(pr.Role),
		IsActive: pr.IsActive,
	})
	return asDuplicate(err, "user", "username", pr.Username)
}

func (p *Postgres) InsertSubject(ctx context.Context, s core.Subject) (uuid.UUID, error) {
	id, err := p.q.InsertSubject(ctx, db.InsertSubjectParams{
		Code:        s.Code,
		Name:        s.Name,
		Credits:     int32(s.Credits),
		Description: pgText(s.Description),
	})
	if err != nil {
		return uuid.Nil, asDuplicate(err, "subject", "code", s.Code)
	}
	return fromPgUUID(id), nil
}

func (p *Postgres) InsertGroup(ctx context.Context, g core.Group) (uuid.UUID, error) {
	id, err := p.q.InsertGroup(ctx, db.InsertGroupParams{
		Code:        g.Code,
		Name:        g.Name,
		Semester:    g.Semester,
		Year:        int32(g.Year),
		MaxStudents: int32(g.MaxStudents),
		SubjectID:   pgUUID(g.SubjectID),
	})
	if err != nil {
		return uuid.Nil, asDuplicate(err, "group", "code", g.Code)
	}
	return fromPgUUID(id), nil
}

func (p *Postgres) InsertSchedule(ctx context.Context, s core.Schedule) (uuid.UUID, error) {
	id, err := p.q.InsertSchedule(ctx, db.InsertScheduleParams{
		Fecha:            pgDate(s.Date),
		HoraInicio:       pgTime(s.StartTime),
		HoraFin:          pgTime(s.EndTime),
		TeacherID:        pgUUID(s.TeacherID),
		SubjectID:        pgUUID(s.SubjectID),
		GroupID:          pgUUID(s.GroupID),
		Modalidad:        string(s.Modality),
		Aula:             pgText(s.Room),
		HorasProgramadas: pgNumeric(s.ScheduledHours),
	})
	if err != nil {
		return uuid.Nil, err
	}
	return fromPgUUID(id), nil
}
