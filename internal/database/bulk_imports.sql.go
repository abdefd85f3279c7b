package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const bulkImportColumns = `id, import_type, file_name, total_records, processed_records, successful_records,
    failed_records, status, error_message, imported_by, created_at, updated_at, completed_at`

func scanBulkImport(row interface{ Scan(...any) error }) (BulkImport, error) {
	var i BulkImport
	err := row.Scan(
		&i.ID,
		&i.ImportType,
		&i.FileName,
		&i.TotalRecords,
		&i.ProcessedRecords,
		&i.SuccessfulRecords,
		&i.FailedRecords,
		&i.Status,
		&i.ErrorMessage,
		&i.ImportedBy,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.CompletedAt,
	)
	return i, err
}

const createBulkImport = `-- name: CreateBulkImport :one
INSERT INTO bulk_imports (import_type, file_name, imported_by, status, total_records)
VALUES ($1, $2, $3, 'pending', 0)
RETURNING ` + bulkImportColumns

type CreateBulkImportParams struct {
	ImportType string
	FileName   string
	ImportedBy pgtype.UUID
}

func (q *Queries) CreateBulkImport(ctx context.Context, arg CreateBulkImportParams) (BulkImport, error) {
	row := q.db.QueryRow(ctx, createBulkImport, arg.ImportType, arg.FileName, arg.ImportedBy)
	return scanBulkImport(row)
}

const getBulkImport = `-- name: GetBulkImport :one
SELECT ` + bulkImportColumns + `
FROM bulk_imports
WHERE id = $1`

func (q *Queries) GetBulkImport(ctx context.Context, id pgtype.UUID) (BulkImport, error) {
	row := q.db.QueryRow(ctx, getBulkImport, id)
	return scanBulkImport(row)
}

const listBulkImports = `-- name: ListBulkImports :many
SELECT ` + bulkImportColumns + `
FROM bulk_imports
WHERE ($1::text = '' OR import_type = $1)
  AND ($2::text = '' OR status = $2)
ORDER BY created_at DESC, id
LIMIT $3 OFFSET $4`

type ListBulkImportsParams struct {
	ImportType string
	Status     string
	Limit      int32
	Offset     int32
}

func (q *Queries) ListBulkImports(ctx context.Context, arg ListBulkImportsParams) ([]BulkImport, error) {
	rows, err := q.db.Query(ctx, listBulkImports, arg.ImportType, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BulkImport
	for rows.Next() {
		i, err := scanBulkImport(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markBulkImportProcessing = `-- name: MarkBulkImportProcessing :execrows
UPDATE bulk_imports
SET status = 'processing', updated_at = now()
WHERE id = $1 AND status = 'pending'`

func (q *Queries) MarkBulkImportProcessing(ctx context.Context, id pgtype.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, markBulkImportProcessing, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const setBulkImportTotal = `-- name: SetBulkImportTotal :exec
UPDATE bulk_imports
SET total_records = $2, updated_at = now()
WHERE id = $1 AND status = 'processing'`

func (q *Queries) SetBulkImportTotal(ctx context.Context, id pgtype.UUID, total int32) error {
	_, err := q.db.Exec(ctx, setBulkImportTotal, id, total)
	return err
}

const updateBulkImportCounts = `-- name: UpdateBulkImportCounts :exec
UPDATE bulk_imports
SET processed_records = $2, successful_records = $3, failed_records = $4, updated_at = now()
WHERE id = $1 AND status = 'processing'`

type BulkImportCountsParams struct {
	ID                pgtype.UUID
	ProcessedRecords  int32
	SuccessfulRecords int32
	FailedRecords     int32
}

func (q *Queries) UpdateBulkImportCounts(ctx context.Context, arg BulkImportCountsParams) error {
	_, err := q.db.Exec(ctx, updateBulkImportCounts,
		arg.ID, arg.ProcessedRecords, arg.SuccessfulRecords, arg.FailedRecords)
	return err
}

const completeBulkImport = `-- name: CompleteBulkImport :execrows
UPDATE bulk_imports
SET status = 'completed',
    processed_records = $2,
    successful_records = $3,
    failed_records = $4,
    completed_at = now(),
    updated_at = now()
WHERE id = $1 AND status = 'processing'`

func (q *Queries) CompleteBulkImport(ctx context.Context, arg BulkImportCountsParams) (int64, error) {
	result, err := q.db.Exec(ctx, completeBulkImport,
		arg.ID, arg.ProcessedRecords, arg.SuccessfulRecords, arg.FailedRecords)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const failBulkImport = `-- name: FailBulkImport :execrows
UPDATE bulk_imports
SET status = 'failed', error_message = $2, completed_at = now(), updated_at = now()
WHERE id = $1 AND status = 'processing'`

func (q *Queries) FailBulkImport(ctx context.Context, id pgtype.UUID, errorMessage pgtype.Text) (int64, error) {
	result, err := q.db.Exec(ctx, failBulkImport, id, errorMessage)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const insertImportError = `-- name: InsertImportError :exec
INSERT INTO import_errors (id, bulk_import_id, row_number, error_message, row_data)
VALUES ($1, $2, $3, $4, $5)`

type InsertImportErrorParams struct {
	ID           pgtype.UUID
	BulkImportID pgtype.UUID
	RowNumber    int32
	ErrorMessage string
	RowData      []byte
}

func (q *Queries) InsertImportError(ctx context.Context, arg InsertImportErrorParams) error {
	_, err := q.db.Exec(ctx, insertImportError,
		arg.ID, arg.BulkImportID, arg.RowNumber, arg.ErrorMessage, arg.RowData)
	return err
}

const listImportErrors = `-- name: ListImportErrors :many
SELECT id, bulk_import_id, row_number, error_message, row_data, created_at
FROM import_errors
WHERE bulk_import_id = $1
ORDER BY row_number, created_at`

func (q *Queries) ListImportErrors(ctx context.Context, bulkImportID pgtype.UUID) ([]ImportError, error) {
	rows, err := q.db.Query(ctx, listImportErrors, bulkImportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ImportError
	for rows.Next() {
		var i ImportError
		if err := rows.Scan(
			&i.ID,
			&i.BulkImportID,
			&i.RowNumber,
			&i.ErrorMessage,
			&i.RowData,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
