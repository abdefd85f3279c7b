package kinds

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/JonMunkholm/academia/internal/core"
)

func init() {
	core.Register(core.KindDefinition{
		Info: core.KindInfo{
			Kind:     core.KindSubjects,
			Label:    "Materias",
			Columns:  []string{"code", "name", "credits", "description"},
			Required: []string{"code", "name"},
			Example:  []string{"MAT002", "Matemáticas II", "4", "Cálculo diferencial e integral"},
		},
		Process: processSubject,
	})
}

func processSubject(ctx context.Context, deps core.Deps, rec core.Record) error {
	if err := core.RequireFields(rec, "code", "name"); err != nil {
		return err
	}

	code := rec.Get("code")
	if strings.ContainsFunc(code, unicode.IsSpace) {
		return core.ValidationError{Field: "code", Value: code, Message: "must not contain spaces"}
	}
	credits, err := core.IntInRange("credits", rec.Get("credits"), 1, 1, 10)
	if err != nil {
		return err
	}

	_, exists, err := deps.Directory.SubjectIDByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("look up subject: %w", err)
	}
	if exists {
		return &core.DuplicateError{Entity: "subject", Field: "code", Value: code}
	}

	_, err = deps.Directory.InsertSubject(ctx, core.Subject{
		Code:        code,
		Name:        rec.Get("name"),
		Credits:     credits,
		Description: core.Optional(rec.Get("description")),
	})
	if err != nil {
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}
