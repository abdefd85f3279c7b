package database

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type BulkImport struct {
	ID                pgtype.UUID
	ImportType        string
	FileName          string
	TotalRecords      int32
	ProcessedRecords  int32
	SuccessfulRecords int32
	FailedRecords     int32
	Status            string
	ErrorMessage      pgtype.Text
	ImportedBy        pgtype.UUID
	CreatedAt         pgtype.Timestamptz
	UpdatedAt         pgtype.Timestamptz
	CompletedAt       pgtype.Timestamptz
}

type ImportError struct {
	ID           pgtype.UUID
	BulkImportID pgtype.UUID
	RowNumber    int32
	ErrorMessage string
	RowData      []byte
	CreatedAt    pgtype.Timestamptz
}

type AuthIdentity struct {
	ID                pgtype.UUID
	Email             string
	EncryptedPassword string
	EmailConfirmedAt  pgtype.Timestamptz
	UserMetadata      []byte
	CreatedAt         pgtype.Timestamptz
}
