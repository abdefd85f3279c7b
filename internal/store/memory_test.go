package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/academia/internal/core"
)

func TestMemory_JobLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	job, err := m.CreateJob(ctx, core.NewJob{Kind: core.KindSubjects, FileName: "materias.csv"})
	require.NoError(t, err)
	assert.Equal(t, core.StatusPending, job.Status)

	// Completing a pending job skips processing and is rejected.
	assert.ErrorIs(t, m.Complete(ctx, job.ID, core.Counts{}), core.ErrInvalidTransition)

	require.NoError(t, m.MarkProcessing(ctx, job.ID))
	assert.ErrorIs(t, m.MarkProcessing(ctx, job.ID), core.ErrJobNotPending)

	require.NoError(t, m.SetTotal(ctx, job.ID, 3))
	require.NoError(t, m.UpdateCounts(ctx, job.ID, core.Counts{Processed: 1, Successful: 1}))
	require.NoError(t, m.Complete(ctx, job.ID, core.Counts{Processed: 3, Successful: 2, Failed: 1}))

	got, err := m.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, got.Status)
	assert.Equal(t, 3, got.TotalRecords)
	assert.Equal(t, 3, got.ProcessedRecords)
	assert.Equal(t, 2, got.SuccessfulRecords)
	assert.Equal(t, 1, got.FailedRecords)
	require.NotNil(t, got.CompletedAt)

	// Terminal jobs never move again.
	assert.ErrorIs(t, m.Fail(ctx, job.ID, "late"), core.ErrInvalidTransition)
	assert.ErrorIs(t, m.UpdateCounts(ctx, job.ID, core.Counts{}), core.ErrInvalidTransition)
}

func TestMemory_GetJobNotFound(t *testing.T) {
	_, err := NewMemory().GetJob(context.Background(), uuid.New())
	assert.ErrorIs(t, err, core.ErrJobNotFound)
}

func TestMemory_ListJobs(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	fixed := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	first, _ := m.CreateJob(ctx, core.NewJob{Kind: core.KindUsers, FileName: "a.csv"})
	second, _ := m.CreateJob(ctx, core.NewJob{Kind: core.KindSubjects, FileName: "b.csv"})
	third, _ := m.CreateJob(ctx, core.NewJob{Kind: core.KindUsers, FileName: "c.csv"})
	require.NoError(t, m.MarkProcessing(ctx, third.ID))

	all, err := m.ListJobs(ctx, core.JobFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uuid.UUID{third.ID, second.ID, first.ID}, []uuid.UUID{all[0].ID, all[1].ID, all[2].ID})

	users, _ := m.ListJobs(ctx, core.JobFilter{Kind: core.KindUsers})
	assert.Len(t, users, 2)

	pending, _ := m.ListJobs(ctx, core.JobFilter{Kind: core.KindUsers, Status: core.StatusPending})
	require.Len(t, pending, 1)
	assert.Equal(t, first.ID, pending[0].ID)

	page, _ := m.ListJobs(ctx, core.JobFilter{Limit: 1, Offset: 1})
	require.Len(t, page, 1)
	assert.Equal(t, second.ID, page[0].ID)

	empty, _ := m.ListJobs(ctx, core.JobFilter{Offset: 10})
	assert.Empty(t, empty)
}

func TestMemory_RowErrorsSortedByRow(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	job, _ := m.CreateJob(ctx, core.NewJob{Kind: core.KindGroups, FileName: "g.csv"})

	require.NoError(t, m.InsertRowError(ctx, core.RowError{JobID: job.ID, RowNumber: 5, Message: "b"}))
	require.NoError(t, m.InsertRowError(ctx, core.RowError{JobID: job.ID, RowNumber: 2, Message: "a"}))

	errs, err := m.ListRowErrors(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, errs, 2)
	assert.Equal(t, 2, errs[0].RowNumber)
	assert.Equal(t, 5, errs[1].RowNumber)
	assert.NotEqual(t, uuid.Nil, errs[0].ID)

	assert.ErrorIs(t, m.InsertRowError(ctx, core.RowError{JobID: uuid.New()}), core.ErrJobNotFound)
}

func TestMemory_DirectoryUniqueness(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.InsertSubject(ctx, core.Subject{Code: "MAT100", Name: "Cálculo", Credits: 4})
	require.NoError(t, err)

	_, err = m.InsertSubject(ctx, core.Subject{Code: "MAT100", Name: "Otra", Credits: 2})
	var dup *core.DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "code", dup.Field)

	id, ok, err := m.SubjectIDByCode(ctx, "MAT100")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEqual(t, uuid.Nil, id)

	_, ok, _ = m.SubjectIDByCode(ctx, "mat100")
	assert.False(t, ok, "codes are case-sensitive")

	require.NoError(t, m.InsertProfile(ctx, core.Profile{ID: uuid.New(), Username: "jperez"}))
	assert.Error(t, m.InsertProfile(ctx, core.Profile{ID: uuid.New(), Username: "jperez"}))
}

func TestMemory_IdentitiesEmailCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	id, err := m.CreateIdentity(ctx, core.NewIdentity{Email: "Ana@Uni.edu", Username: "ana"})
	require.NoError(t, err)

	exists, err := m.EmailExists(ctx, "ana@uni.edu")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = m.CreateIdentity(ctx, core.NewIdentity{Email: "ANA@uni.edu"})
	var dup *core.DuplicateError
	assert.ErrorAs(t, err, &dup)

	require.NoError(t, m.DeleteIdentity(ctx, id))
	assert.Empty(t, m.Identities())
}

func TestMemory_FailureHooks(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	boom := errors.New("boom")

	m.FailInsertProfile = func(core.Profile) error { return boom }
	assert.ErrorIs(t, m.InsertProfile(ctx, core.Profile{Username: "x"}), boom)

	m.FailDeleteIdentity = func(uuid.UUID) error { return boom }
	assert.ErrorIs(t, m.DeleteIdentity(ctx, uuid.New()), boom)
}
