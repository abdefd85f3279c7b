package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ImportKind identifies which target entity an import job creates.
type ImportKind string

const (
	KindUsers     ImportKind = "users"
	KindSubjects  ImportKind = "subjects"
	KindGroups    ImportKind = "groups"
	KindSchedules ImportKind = "schedules"
)

// importOrder lists kinds in dependency order: every kind only references
// entities created by kinds before it.
var importOrder = []ImportKind{KindUsers, KindSubjects, KindGroups, KindSchedules}

// ImportKinds returns all kinds in the order they should be imported.
func ImportKinds() []ImportKind {
	out := make([]ImportKind, len(importOrder))
	copy(out, importOrder)
	return out
}

// ParseImportKind converts a user supplied value to an ImportKind.
func ParseImportKind(s string) (ImportKind, error) {
	k := ImportKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range importOrder {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k ImportKind) String() string { return string(k) }

func (k ImportKind) rank() int {
	for i, known := range importOrder {
		if k == known {
			return i
		}
	}
	return len(importOrder)
}

// JobStatus is the lifecycle state of an import job.
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// ParseJobStatus converts a user supplied value to a JobStatus.
func ParseJobStatus(s string) (JobStatus, error) {
	st := JobStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return st, nil
	}
	return "", fmt.Errorf("unknown job status %q", s)
}

// Terminal reports whether no further transitions are allowed.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether moving from s to next is a legal step.
// Status never regresses: pending -> processing -> completed|failed.
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// ImportJob is the persisted record of one bulk import run.
type ImportJob struct {
	ID                uuid.UUID  `json:"id"`
	Kind              ImportKind `json:"import_type"`
	FileName          string     `json:"file_name"`
	TotalRecords      int        `json:"total_records"`
	ProcessedRecords  int        `json:"processed_records"`
	SuccessfulRecords int        `json:"successful_records"`
	FailedRecords     int        `json:"failed_records"`
	Status            JobStatus  `json:"status"`
	ErrorMessage      string     `json:"error_message,omitempty"`
	ImportedBy        uuid.UUID  `json:"imported_by"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

// Counts holds the running tallies of an import.
type Counts struct {
	Processed  int `json:"processed"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// NewJob holds the fields needed to register a pending import.
type NewJob struct {
	Kind       ImportKind
	FileName   string
	ImportedBy uuid.UUID
}

// JobFilter narrows a job history listing. Zero values match everything.
type JobFilter struct {
	Kind   ImportKind
	Status JobStatus
	Limit  int
	Offset int
}

// RowError records one failed data row of an import.
// RowNumber is 1-based over non-blank lines, so the first data row is 2.
type RowError struct {
	ID        uuid.UUID         `json:"id"`
	JobID     uuid.UUID         `json:"bulk_import_id"`
	RowNumber int               `json:"row_number"`
	Message   string            `json:"error_message"`
	RowData   map[string]string `json:"row_data"`
	CreatedAt time.Time         `json:"created_at"`
}

// ImportRequest is the input of a single import run.
type ImportRequest struct {
	JobID    uuid.UUID
	Kind     ImportKind
	FileName string
	Content  []byte
}

// ImportResult is the aggregate outcome returned to the caller.
type ImportResult struct {
	JobID uuid.UUID `json:"import_id"`
	Counts
}

// ImportPhase indicates the current stage of an import run.
type ImportPhase string

const (
	PhaseStarting   ImportPhase = "starting"
	PhaseParsing    ImportPhase = "parsing"
	PhaseProcessing ImportPhase = "processing"
	PhaseComplete   ImportPhase = "complete"
	PhaseFailed     ImportPhase = "failed"
)

// ImportProgress is a point-in-time snapshot of a running import.
type ImportProgress struct {
	JobID      uuid.UUID   `json:"import_id"`
	Kind       ImportKind  `json:"import_type"`
	Phase      ImportPhase `json:"phase"`
	Total      int         `json:"total"`
	Current    int         `json:"current"`
	Successful int         `json:"successful"`
	Failed     int         `json:"failed"`
	Error      string      `json:"error,omitempty"`
}

// Percent returns the progress as a percentage (0-100).
func (p ImportProgress) Percent() int {
	if p.Total > 0 {
		return (p.Current * 100) / p.Total
	}
	if p.Phase == PhaseComplete {
		return 100
	}
	return 0
}

// Done reports whether the run has reached a terminal phase.
func (p ImportProgress) Done() bool {
	return p.Phase == PhaseComplete || p.Phase == PhaseFailed
}
