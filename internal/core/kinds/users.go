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
			Kind:     core.KindUsers,
			Label:    "Usuarios",
			Columns:  []string{"username", "full_name", "email", "password", "role", "is_active"},
			Required: []string{"username", "full_name", "email"},
			Example:  []string{"jperez", "Juan Pérez", "juan.perez@email.com", "TempPass123!", "docente", "true"},
		},
		Process: processUser,
	})
}

// processUser creates an identity and the profile linked to it.
func processUser(ctx context.Context, deps core.Deps, rec core.Record) error {
	if err := core.RequireFields(rec, "username", "full_name", "email"); err != nil {
		return err
	}

	username := rec.Get("username")
	fullName := rec.Get("full_name")
	email := rec.Get("email")

	if !core.ValidEmail(email) {
		return core.ValidationError{Field: "email", Value: email, Message: "invalid email address"}
	}
	role, err := core.OneOf("role", rec.Get("role"), core.RoleDocente, core.Roles)
	if err != nil {
		return err
	}
	active := core.ParseActive(rec.Get("is_active"))

	password := rec.Get("password")
	if password == "" {
		password = deps.DefaultPassword
	}

	_, taken, err := deps.Directory.ProfileIDByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("look up username: %w", err)
	}
	if taken {
		return &core.DuplicateError{Entity: "user", Field: "username", Value: username}
	}

	exists, err := deps.Identities.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("look up email: %w", err)
	}
	if exists {
		return &core.DuplicateError{Entity: "user", Field: "email", Value: email}
	}

	identity := core.NewIdentity{
		Email:    email,
		Password: password,
		FullName: fullName,
		Username: username,
	}
	_, err = core.WithIdentity(ctx, deps.Identities, identity, func(ctx context.Context, id uuid.UUID) error {
		err := deps.Directory.InsertProfile(ctx, core.Profile{
			ID:       id,
			Username: username,
			FullName: fullName,
			Role:     role,
			IsActive: active,
		})
		if err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		return nil
	})
	return err
}
