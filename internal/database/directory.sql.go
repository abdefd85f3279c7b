package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getProfileIDByUsername = `-- name: GetProfileIDByUsername :one
SELECT id FROM profiles WHERE username = $1`

func (q *Queries) GetProfileIDByUsername(ctx context.Context, username string) (pgtype.UUID, error) {
	row := q.db.QueryRow(ctx, getProfileIDByUsername, username)
	var id pgtype.UUID
	err := row.Scan(&id)
	return id, err
}

const insertProfile = `-- name: InsertProfile :exec
INSERT INTO profiles (id, username, full_name, role, is_active)
VALUES ($1, $2, $3, $4::user_role, $5)`

type InsertProfileParams struct {
	ID       pgtype.UUID
	Username string
	FullName string
	Role     string
	IsActive bool
}

func (q *Queries) InsertProfile(ctx context.Context, arg InsertProfileParams) error {
	_, err := q.db.Exec(ctx, insertProfile, arg.ID, arg.Username, arg.FullName, arg.Role, arg.IsActive)
	return err
}

const getSubjectIDByCode = `-- name: GetSubjectIDByCode :one
SELECT id FROM subjects WHERE code = $1`

func (q *Queries) GetSubjectIDByCode(ctx context.Context, code string) (pgtype.UUID, error) {
	row := q.db.QueryRow(ctx, getSubjectIDByCode, code)
	var id pgtype.UUID
	err := row.Scan(&id)
	return id, err
}

const insertSubject = `-- name: InsertSubject :one
INSERT INTO subjects (code, name, credits, description, is_active)
VALUES ($1, $2, $3, $4, TRUE)
RETURNING id`

type InsertSubjectParams struct {
	Code        string
	Name        string
	Credits     int32
	Description pgtype.Text
}

func (q *Queries) InsertSubject(ctx context.Context, arg InsertSubjectParams) (pgtype.UUID, error) {
	row := q.db.QueryRow(ctx, insertSubject, arg.Code, arg.Name, arg.Credits, arg.Description)
	var id pgtype.UUID
	err := row.Scan(&id)
	return id, err
}

const getGroupIDByCode = `-- name: GetGroupIDByCode :one
SELECT id FROM groups WHERE code = $1`

func (q *Queries) GetGroupIDByCode(ctx context.Context, code string) (pgtype.UUID, error) {
	row := q.db.QueryRow(ctx, getGroupIDByCode, code)
	var id pgtype.UUID
	err := row.Scan(&id)
	return id, err
}

const insertGroup = `-- name: InsertGroup :one
INSERT INTO groups (code, name, semester, year, max_students, subject_id, is_active)
VALUES ($1, $2, $3, $4, $5, $6, TRUE)
RETURNING id`

type InsertGroupParams struct {
	Code        string
	Name        string
	Semester    string
	Year        int32
	MaxStudents int32
	SubjectID   pgtype.UUID
}

func (q *Queries) InsertGroup(ctx context.Context, arg InsertGroupParams) (pgtype.UUID, error) {
	row := q.db.QueryRow(ctx, insertGroup,
		arg.Code, arg.Name, arg.Semester, arg.Year, arg.MaxStudents, arg.SubjectID)
	var id pgtype.UUID
	err := row.Scan(&id)
	return id, err
}

const insertSchedule = `-- name: InsertSchedule :one
INSERT INTO schedules (
    fecha, hora_inicio, hora_fin, teacher_id, subject_id, group_id,
    modalidad, aula, horas_programadas, estado
) VALUES ($1, $2, $3, $4, $5, $6, $7::modalidad_clase, $8, $9, 'programado')
RETURNING id`

type InsertScheduleParams struct {
	Fecha            pgtype.Date
	HoraInicio       pgtype.Time
	HoraFin          pgtype.Time
	TeacherID        pgtype.UUID
	SubjectID        pgtype.UUID
	GroupID          pgtype.UUID
	Modalidad        string
	Aula             pgtype.Text
	HorasProgramadas pgtype.Numeric
}

func (q *Queries) InsertSchedule(ctx context.Context, arg InsertScheduleParams) (pgtype.UUID, error) {
	row := q.db.QueryRow(ctx, insertSchedule,
		arg.Fecha,
		arg.HoraInicio,
		arg.HoraFin,
		arg.TeacherID,
		arg.SubjectID,
		arg.GroupID,
		arg.Modalidad,
		arg.Aula,
		arg.HorasProgramadas,
	)
	var id pgtype.UUID
	err := row.Scan(&id)
	return id, err
}
