package kinds

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/academia/internal/core"
)

const (
	defaultMaxStudents = 30
	defaultSemester    = "1"
	minYear            = 2020
	maxYear            = 2030
)

func init() {
	core.Register(core.KindDefinition{
		Info: core.KindInfo{
			Kind:          core.KindGroups,
			Label:         "Grupos",
			Columns:       []string{"name", "code", "semester", "year", "max_students", "subject_code"},
			Required:      []string{"subject_code", "name", "code"},
			Example:       []string{"Grupo B", "MAT002-B", "2", "2024", "25", "MAT002"},
			Prerequisites: []core.ImportKind{core.KindSubjects},
		},
		Process: processGroup,
	})
}

func processGroup(ctx context.Context, deps core.Deps, rec core.Record) error {
	if err := core.RequireFields(rec, "subject_code", "name", "code"); err != nil {
		return err
	}

	code := rec.Get("code")
	subjectCode := rec.Get("subject_code")

	maxStudents, err := core.PositiveInt("max_students", rec.Get("max_students"), defaultMaxStudents)
	if err != nil {
		return err
	}
	year, err := core.IntInRange("year", rec.Get("year"), deps.Now().Year(), minYear, maxYear)
	if err != nil {
		return err
	}
	semester := rec.Get("semester")
	if semester == "" {
		semester = defaultSemester
	}

	subjectID, found, err := deps.Directory.SubjectIDByCode(ctx, subjectCode)
	if err != nil {
		return fmt.Errorf("look up subject: %w", err)
	}
	if !found {
		return &core.ReferenceError{Entity: "subject", Field: "code", Value: subjectCode, Prerequisite: core.KindSubjects}
	}

	_, exists, err := deps.Directory.GroupIDByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("look up group: %w", err)
	}
	if exists {
		return &core.DuplicateError{Entity: "group", Field: "code", Value: code}
	}

	_, err = deps.Directory.InsertGroup(ctx, core.Group{
		Code:        code,
		Name:        rec.Get("name"),
		Semester:    semester,
		Year:        year,
		MaxStudents: maxStudents,
		SubjectID:   subjectID,
	})
	if err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}
