package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const authIdentityExistsByEmail = `-- name: AuthIdentityExistsByEmail :one
SELECT EXISTS (SELECT 1 FROM auth_identities WHERE lower(email) = lower($1))`

func (q *Queries) AuthIdentityExistsByEmail(ctx context.Context, email string) (bool, error) {
	row := q.db.QueryRow(ctx, authIdentityExistsByEmail, email)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const insertAuthIdentity = `-- name: InsertAuthIdentity :one
INSERT INTO auth_identities (email, encrypted_password, email_confirmed_at, user_metadata)
VALUES ($1, $2, now(), $3)
RETURNING id`

type InsertAuthIdentityParams struct {
	Email             string
	EncryptedPassword string
	UserMetadata      []byte
}

func (q *Queries) InsertAuthIdentity(ctx context.Context, arg InsertAuthIdentityParams) (pgtype.UUID, error) {
	row := q.db.QueryRow(ctx, insertAuthIdentity, arg.Email, arg.EncryptedPassword, arg.UserMetadata)
	var id pgtype.UUID
	err := row.Scan(&id)
	return id, err
}

const deleteAuthIdentity = `-- name: DeleteAuthIdentity :execrows
DELETE FROM auth_identities WHERE id = $1`

func (q *Queries) DeleteAuthIdentity(ctx context.Context, id pgtype.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, deleteAuthIdentity, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
