package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/crypto/bcrypt"

	"github.com/JonMunkholm/academia/internal/core"
	db "github.com/JonMunkholm/academia/internal/database"
)

// identityQueries is the part of the query layer Local needs.
type identityQueries interface {
	AuthIdentityExistsByEmail(ctx context.Context, email string) (bool, error)
	InsertAuthIdentity(ctx context.Context, arg db.InsertAuthIdentityParams) (pgtype.UUID, error)
	DeleteAuthIdentity(ctx context.Context, id pgtype.UUID) (int64, error)
}

// Local stores identities in the auth_identities table with bcrypt hashed
// passwords. It serves deployments without a managed auth service.
type Local struct {
	q    identityQueries
	cost int
}

var _ core.IdentityProvider = (*Local)(nil)

// NewLocal creates a provider over dbtx. cost is the bcrypt cost; values
// outside bcrypt's range fall back to bcrypt.DefaultCost.
func NewLocal(dbtx db.DBTX, cost int) *Local {
	return newLocal(db.New(dbtx), cost)
}

func newLocal(q identityQueries, cost int) *Local {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Local{q: q, cost: cost}
}

func (l *Local) EmailExists(ctx context.Context, email string) (bool, error) {
	exists, err := l.q.AuthIdentityExistsByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return exists, nil
}

func (l *Local) CreateIdentity(ctx context.Context, in core.NewIdentity) (uuid.UUID, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), l.cost)
	if err != nil {
		return uuid.Nil, fmt.Errorf("hash password: %w", err)
	}

	meta, err := json.Marshal(map[string]string{
		"full_name": in.FullName,
		"username":  in.Username,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode user metadata: %w", err)
	}

	id, err := l.q.InsertAuthIdentity(ctx, db.InsertAuthIdentityParams{
		Email:             in.Email,
		EncryptedPassword: string(hash),
		UserMetadata:      meta,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return uuid.Nil, &core.DuplicateError{Entity: "user", Field: "email", Value: in.Email}
		}
		return uuid.Nil, fmt.Errorf("insert identity: %w", err)
	}
	return uuid.UUID(id.Bytes), nil
}

func (l *Local) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	if _, err := l.q.DeleteAuthIdentity(ctx, pgtype.UUID{Bytes: id, Valid: true}); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
