package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/academia/internal/core"
)

// MemoryIdentity is an identity held by the Memory store.
type MemoryIdentity struct {
	ID       uuid.UUID
	Email    string
	FullName string
	Username string
}

// Memory implements core.JobStore, core.Directory and core.IdentityProvider
// in process with the same uniqueness rules as the database.
//
// The Fail* hooks let tests inject failures into single operations.
type Memory struct {
	mu  sync.Mutex
	now func() time.Time
	seq int

	jobs      map[uuid.UUID]*memJob
	rowErrors map[uuid.UUID][]core.RowError

	profiles   map[string]core.Profile // by username
	subjects   map[string]memRow[core.Subject]
	groups     map[string]memRow[core.Group]
	schedules  []core.Schedule
	identities map[uuid.UUID]MemoryIdentity

	FailInsertProfile  func(core.Profile) error
	FailDeleteIdentity func(uuid.UUID) error
	FailCreateIdentity func(core.NewIdentity) error
}

type memJob struct {
	core.ImportJob
	seq int
}

type memRow[T any] struct {
	id  uuid.UUID
	val T
}

var (
	_ core.JobStore         = (*Memory)(nil)
	_ core.Directory        = (*Memory)(nil)
	_ core.IdentityProvider = (*Memory)(nil)
)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		now:        time.Now,
		jobs:       make(map[uuid.UUID]*memJob),
		rowErrors:  make(map[uuid.UUID][]core.RowError),
		profiles:   make(map[string]core.Profile),
		subjects:   make(map[string]memRow[core.Subject]),
		groups:     make(map[string]memRow[core.Group]),
		identities: make(map[uuid.UUID]MemoryIdentity),
	}
}

// ============================================================================
// Jobs
// ============================================================================

func (m *Memory) CreateJob(_ context.Context, job core.NewJob) (core.ImportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.seq++
	j := &memJob{
		ImportJob: core.ImportJob{
			ID:         uuid.New(),
			Kind:       job.Kind,
			FileName:   job.FileName,
			Status:     core.StatusPending,
			ImportedBy: job.ImportedBy,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		seq: m.seq,
	}
	m.jobs[j.ID] = j
	return j.ImportJob, nil
}

func (m *Memory) GetJob(_ context.Context, id uuid.UUID) (core.ImportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return core.ImportJob{}, fmt.Errorf("%w: %s", core.ErrJobNotFound, id)
	}
	return j.ImportJob, nil
}

func (m *Memory) ListJobs(_ context.Context, filter core.JobFilter) ([]core.ImportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*memJob
	for _, j := range m.jobs {
		if filter.Kind != "" && j.Kind != filter.Kind {
			continue
		}
		if filter.Status != "" && j.Status != filter.Status {
			continue
		}
		matched = append(matched, j)
	}
	sort.Slice(matched, func(a, b int) bool {
		if !matched[a].CreatedAt.Equal(matched[b].CreatedAt) {
			return matched[a].CreatedAt.After(matched[b].CreatedAt)
		}
		return matched[a].seq > matched[b].seq
	})

	if filter.Offset >= len(matched) {
		return []core.ImportJob{}, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	out := make([]core.ImportJob, len(matched))
	for i, j := range matched {
		out[i] = j.ImportJob
	}
	return out, nil
}

// transition moves a job to next, or fails with errOnIllegal.
func (m *Memory) transition(id uuid.UUID, next core.JobStatus, errOnIllegal error, apply func(*memJob)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrJobNotFound, id)
	}
	if !j.Status.CanTransition(next) {
		return errOnIllegal
	}
	j.Status = next
	j.UpdatedAt = m.now()
	if apply != nil {
		apply(j)
	}
	return nil
}

func (m *Memory) MarkProcessing(_ context.Context, id uuid.UUID) error {
	return m.transition(id, core.StatusProcessing, core.ErrJobNotPending, nil)
}

// update changes a processing job in place.
func (m *Memory) update(id uuid.UUID, apply func(*memJob)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrJobNotFound, id)
	}
	if j.Status != core.StatusProcessing {
		return core.ErrInvalidTransition
	}
	apply(j)
	j.UpdatedAt = m.now()
	return nil
}

func (m *Memory) SetTotal(_ context.Context, id uuid.UUID, total int) error {
	return m.update(id, func(j *memJob) { j.TotalRecords = total })
}

func (m *Memory) UpdateCounts(_ context.Context, id uuid.UUID, c core.Counts) error {
	return m.update(id, func(j *memJob) { setCounts(j, c) })
}

func (m *Memory) Complete(_ context.Context, id uuid.UUID, c core.Counts) error {
	return m.transition(id, core.StatusCompleted, core.ErrInvalidTransition, func(j *memJob) {
		setCounts(j, c)
		done := m.now()
		j.CompletedAt = &done
	})
}

func (m *Memory) Fail(_ context.Context, id uuid.UUID, reason string) error {
	return m.transition(id, core.StatusFailed, core.ErrInvalidTransition, func(j *memJob) {
		j.ErrorMessage = reason
		done := m.now()
		j.CompletedAt = &done
	})
}

func setCounts(j *memJob, c core.Counts) {
	j.ProcessedRecords = c.Processed
	j.SuccessfulRecords = c.Successful
	j.FailedRecords = c.Failed
}

func (m *Memory) InsertRowError(_ context.Context, rowErr core.RowError) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[rowErr.JobID]; !ok {
		return fmt.Errorf("%w: %s", core.ErrJobNotFound, rowErr.JobID)
	}
	if rowErr.ID == uuid.Nil {
		rowErr.ID = uuid.New()
	}
	rowErr.CreatedAt = m.now()
	m.rowErrors[rowErr.JobID] = append(m.rowErrors[rowErr.JobID], rowErr)
	return nil
}

func (m *Memory) ListRowErrors(_ context.Context, jobID uuid.UUID) ([]core.RowError, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := append([]core.RowError{}, m.rowErrors[jobID]...)
	sort.SliceStable(out, func(a, b int) bool { return out[a].RowNumber < out[b].RowNumber })
	return out, nil
}

// ============================================================================
// Directory
// ============================================================================

func (m *Memory) ProfileIDByUsername(_ context.Context, username string) (uuid.UUID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[username]
	return p.ID, ok, nil
}

func (m *Memory) SubjectIDByCode(_ context.Context, code string) (uuid.UUID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subjects[code]
	return s.id, ok, nil
}

func (m *Memory) GroupIDByCode(_ context.Context, code string) (uuid.UUID, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[code]
	return g.id, ok, nil
}

func (m *Memory) InsertProfile(_ context.Context, p core.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailInsertProfile != nil {
		if err := m.FailInsertProfile(p); err != nil {
			return err
		}
	}
	if _, taken := m.profiles[p.Username]; taken {
		return &core.DuplicateError{Entity: "user", Field: "username", Value: p.Username}
	}
	m.profiles[p.Username] = p
	return nil
}

func (m *Memory) InsertSubject(_ context.Context, s core.Subject) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.subjects[s.Code]; taken {
		return uuid.Nil, &core.DuplicateError{Entity: "subject", Field: "code", Value: s.Code}
	}
	id := uuid.New()
	m.subjects[s.Code] = memRow[core.Subject]{id: id, val: s}
	return id, nil
}

func (m *Memory) InsertGroup(_ context.Context, g core.Group) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.groups[g.Code]; taken {
		return uuid.Nil, &core.DuplicateError{Entity: "group", Field: "code", Value: g.Code}
	}
	id := uuid.New()
	m.groups[g.Code] = memRow[core.Group]{id: id, val: g}
	return id, nil
}

func (m *Memory) InsertSchedule(_ context.Context, s core.Schedule) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules = append(m.schedules, s)
	return uuid.New(), nil
}

// ============================================================================
// Identities
// ============================================================================

func (m *Memory) EmailExists(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.identities {
		if strings.EqualFold(id.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) CreateIdentity(_ context.Context, in core.NewIdentity) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailCreateIdentity != nil {
		if err := m.FailCreateIdentity(in); err != nil {
			return uuid.Nil, err
		}
	}
	for _, id := range m.identities {
		if strings.EqualFold(id.Email, in.Email) {
			return uuid.Nil, &core.DuplicateError{Entity: "user", Field: "email", Value: in.Email}
		}
	}
	id := uuid.New()
	m.identities[id] = MemoryIdentity{ID: id, Email: in.Email, FullName: in.FullName, Username: in.Username}
	return id, nil
}

func (m *Memory) DeleteIdentity(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailDeleteIdentity != nil {
		if err := m.FailDeleteIdentity(id); err != nil {
			return err
		}
	}
	delete(m.identities, id)
	return nil
}

// ============================================================================
// Inspection
// ============================================================================

// Profile returns the profile stored under username.
func (m *Memory) Profile(username string) (core.Profile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[username]
	return p, ok
}

// Subject returns the subject stored under code.
func (m *Memory) Subject(code string) (core.Subject, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subjects[code]
	return s.val, ok
}

// Group returns the group stored under code.
func (m *Memory) Group(code string) (core.Group, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[code]
	return g.val, ok
}

// Schedules returns every stored schedule in insertion order.
func (m *Memory) Schedules() []core.Schedule {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Schedule{}, m.schedules...)
}

// Identities returns every stored identity.
func (m *Memory) Identities() []MemoryIdentity {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MemoryIdentity, 0, len(m.identities))
	for _, id := range m.identities {
		out = append(out, id)
	}
	return out
}
