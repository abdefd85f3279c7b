package kinds

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/JonMunkholm/academia/internal/core"
)

func init() {
	core.Register(core.KindDefinition{
		Info: core.KindInfo{
			Kind:  core.KindSchedules,
			Label: "Cronogramas",
			Columns: []string{
				"fecha", "hora_inicio", "hora_fin", "teacher_username",
				"subject_code", "group_code", "modalidad", "aula",
			},
			Required: []string{
				"teacher_username", "subject_code", "group_code",
				"fecha", "hora_inicio", "hora_fin",
			},
			Example:       []string{"2024-03-15", "10:00", "12:00", "jperez", "MAT002", "MAT002-B", "presencial", "B201"},
			Prerequisites: []core.ImportKind{core.KindUsers, core.KindSubjects, core.KindGroups},
		},
		Process: processSchedule,
	})
}

func processSchedule(ctx context.Context, deps core.Deps, rec core.Record) error {
	err := core.RequireFields(rec,
		"teacher_username", "subject_code", "group_code",
		"fecha", "hora_inicio", "hora_fin",
	)
	if err != nil {
		return err
	}

	date, err := core.ParseDate("fecha", rec.Get("fecha"))
	if err != nil {
		return err
	}
	start, err := core.ParseClock("hora_inicio", rec.Get("hora_inicio"))
	if err != nil {
		return err
	}
	end, err := core.ParseClock("hora_fin", rec.Get("hora_fin"))
	if err != nil {
		return err
	}
	modality, err := core.OneOf("modalidad", rec.Get("modalidad"), core.ModalityPresencial, core.Modalities)
	if err != nil {
		return err
	}
	if end <= start {
		return core.ValidationError{Field: "hora_fin", Value: rec.Get("hora_fin"), Message: "end time must be after start time"}
	}

	refs, err := resolveScheduleRefs(ctx, deps.Directory, rec)
	if err != nil {
		return err
	}

	_, err = deps.Directory.InsertSchedule(ctx, core.Schedule{
		Date:           date,
		StartTime:      start,
		EndTime:        end,
		TeacherID:      refs.teacher,
		SubjectID:      refs.subject,
		GroupID:        refs.group,
		Modality:       modality,
		Room:           core.Optional(rec.Get("aula")),
		ScheduledHours: (end - start).Hours(),
	})
	if err != nil {
		return fmt.Errorf("create schedule: %w", err)
	}
	return nil
}

type scheduleRefs struct {
	teacher, subject, group uuid.UUID
}

// resolveScheduleRefs looks up all three references and reports every one
// that is missing, not just the first.
func resolveScheduleRefs(ctx context.Context, dir core.Directory, rec core.Record) (scheduleRefs, error) {
	var (
		refs    scheduleRefs
		missing core.ReferenceErrors
	)

	lookups := []struct {
		entity, field, value string
		prereq               core.ImportKind
		find                 func(context.Context, string) (uuid.UUID, bool, error)
		dst                  *uuid.UUID
	}{
		{"teacher", "username", rec.Get("teacher_username"), core.KindUsers, dir.ProfileIDByUsername, &refs.teacher},
		{"subject", "code", rec.Get("subject_code"), core.KindSubjects, dir.SubjectIDByCode, &refs.subject},
		{"group", "code", rec.Get("group_code"), core.KindGroups, dir.GroupIDByCode, &refs.group},
	}

	for _, l := range lookups {
		id, found, err := l.find(ctx, l.value)
		if err != nil {
			return refs, fmt.Errorf("look up %s: %w", l.entity, err)
		}
		if !found {
			missing = append(missing, &core.ReferenceError{
				Entity:       l.entity,
				Field:        l.field,
				Value:        l.value,
				Prerequisite: l.prereq,
			})
			continue
		}
		*l.dst = id
	}

	if len(missing) > 0 {
		return refs, missing
	}
	return refs, nil
}
