package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JobStore persists import jobs and their row errors.
//
// Implementations must enforce status monotonicity: MarkProcessing only
// succeeds on a pending job (returning ErrJobNotPending otherwise), and
// Complete/Fail only act on a processing job.
type JobStore interface {
	CreateJob(ctx context.Context, job NewJob) (ImportJob, error)
	GetJob(ctx context.Context, id uuid.UUID) (ImportJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]ImportJob, error)

	MarkProcessing(ctx context.Context, id uuid.UUID) error
	SetTotal(ctx context.Context, id uuid.UUID, total int) error
	UpdateCounts(ctx context.Context, id uuid.UUID, counts Counts) error
	Complete(ctx context.Context, id uuid.UUID, counts Counts) error
	Fail(ctx context.Context, id uuid.UUID, reason string) error

	InsertRowError(ctx context.Context, rowErr RowError) error
	ListRowErrors(ctx context.Context, jobID uuid.UUID) ([]RowError, error)
}

// Directory looks up and creates the target entities of an import.
// Lookups report found=false rather than an error for a missing key.
// Inserts return a *DuplicateError when a natural key is already taken.
type Directory interface {
	ProfileIDByUsername(ctx context.Context, username string) (uuid.UUID, bool, error)
	SubjectIDByCode(ctx context.Context, code string) (uuid.UUID, bool, error)
	GroupIDByCode(ctx context.Context, code string) (uuid.UUID, bool, error)

	InsertProfile(ctx context.Context, p Profile) error
	InsertSubject(ctx context.Context, s Subject) (uuid.UUID, error)
	InsertGroup(ctx context.Context, g Group) (uuid.UUID, error)
	InsertSchedule(ctx context.Context, s Schedule) (uuid.UUID, error)
}

// NewIdentity holds what is needed to create an authentication identity.
type NewIdentity struct {
	Email    string
	Password string
	FullName string
	Username string
}

// IdentityProvider manages authentication identities for imported users.
type IdentityProvider interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateIdentity(ctx context.Context, in NewIdentity) (uuid.UUID, error)
	DeleteIdentity(ctx context.Context, id uuid.UUID) error
}

// ProgressSink receives progress snapshots for delivery outside the process.
type ProgressSink interface {
	Publish(ctx context.Context, p ImportProgress) error
}

// FileArchiver stores the raw content of an import and returns its location.
type FileArchiver interface {
	Archive(ctx context.Context, jobID uuid.UUID, fileName string, content []byte) (string, error)
}

// Role is an application role assigned to a profile.
type Role string

const (
	RoleSuperadmin  Role = "superadmin"
	RoleAdmin       Role = "admin"
	RoleDirector    Role = "director"
	RoleCoordinador Role = "coordinador"
	RoleAsistente   Role = "asistente"
	RoleDocente     Role = "docente"
)

// Roles lists every recognized role.
var Roles = []Role{RoleSuperadmin, RoleAdmin, RoleDirector, RoleCoordinador, RoleAsistente, RoleDocente}

// Modality is how a scheduled class is delivered.
type Modality string

const (
	ModalityPresencial Modality = "presencial"
	ModalityVirtual    Modality = "virtual"
	ModalityHibrida    Modality = "hibrida"
)

// Modalities lists every recognized modality.
var Modalities = []Modality{ModalityPresencial, ModalityVirtual, ModalityHibrida}

// Profile is the application user record linked 1:1 to an identity.
type Profile struct {
	ID       uuid.UUID
	Username string
	FullName string
	Role     Role
	IsActive bool
}

type Subject struct {
	Code        string
	Name        string
	Credits     int
	Description *string
}

type Group struct {
	Code        string
	Name        string
	Semester    string
	Year        int
	MaxStudents int
	SubjectID   uuid.UUID
}

// Schedule is one scheduled class session. StartTime and EndTime are
// offsets from midnight of Date.
type Schedule struct {
	Date           time.Time
	StartTime      time.Duration
	EndTime        time.Duration
	TeacherID      uuid.UUID
	SubjectID      uuid.UUID
	GroupID        uuid.UUID
	Modality       Modality
	Room           *string
	ScheduledHours float64
}
