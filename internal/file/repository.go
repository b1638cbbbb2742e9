package file

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ksenchy/filevault/internal/folder"
)

const repoTimeout = 5 * time.Second

const fileColumns = `id, owner_id, folder_id, name, storage_key, content_type, size_bytes, description, tags, is_public, status, download_count, last_accessed_at, created_at, updated_at, is_deleted, deleted_at`

// Repository provides access to file metadata storage. Reads exclude
// soft-deleted rows; listing paths additionally exclude pending placeholders.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a new file repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a fully-populated record. Used by the server-proxied path
// where size and content type are known up front.
func (r *Repository) Create(ctx context.Context, rec FileRecord) (FileRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO files (id, owner_id, folder_id, name, storage_key, content_type, size_bytes, description, tags, is_public, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING ` + fileColumns + `;`

	row := r.pool.QueryRow(ctx, query,
		rec.ID,
		rec.OwnerID,
		rec.FolderID,
		rec.Name,
		rec.StorageKey,
		rec.ContentType,
		rec.SizeBytes,
		rec.Description,
		rec.Tags,
		rec.IsPublic,
		rec.Status,
	)

	stored, err := scanFile(row)
	if err != nil {
		return FileRecord{}, fmt.Errorf("create file metadata: %w", err)
	}
	return stored, nil
}

// CreatePlaceholder inserts a pending row without a storage key. The key is
// assigned in a second step once the generated id is known; it stays NULL here
// so the system-wide uniqueness constraint is not tripped by concurrent
// handshakes.
func (r *Repository) CreatePlaceholder(ctx context.Context, rec FileRecord) (FileRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO files (id, owner_id, folder_id, name, storage_key, content_type, size_bytes, status)
VALUES ($1, $2, $3, $4, NULL, $5, 0, $6)
RETURNING ` + fileColumns + `;`

	row := r.pool.QueryRow(ctx, query,
		rec.ID,
		rec.OwnerID,
		rec.FolderID,
		rec.Name,
		rec.ContentType,
		StatusPending,
	)

	stored, err := scanFile(row)
	if err != nil {
		return FileRecord{}, fmt.Errorf("create placeholder: %w", err)
	}
	return stored, nil
}

// SetStorageKey records the computed storage key on a placeholder row.
func (r *Repository) SetStorageKey(ctx context.Context, fileID uuid.UUID, key string) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `
UPDATE files SET storage_key = $2, updated_at = NOW()
WHERE id = $1 AND is_deleted = FALSE;`, fileID, key)
	if err != nil {
		return fmt.Errorf("set storage key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFileNotFound
	}
	return nil
}

// Get fetches metadata for a single live file ensuring ownership.
func (r *Repository) Get(ctx context.Context, ownerID, fileID uuid.UUID) (FileRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT ` + fileColumns + `
FROM files
WHERE id = $1 AND owner_id = $2 AND is_deleted = FALSE;`

	row := r.pool.QueryRow(ctx, query, fileID, ownerID)
	rec, err := scanFile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FileRecord{}, ErrFileNotFound
		}
		return FileRecord{}, fmt.Errorf("get file metadata: %w", err)
	}
	return rec, nil
}

// ListByFolder returns the folder's confirmed live files, name ascending.
func (r *Repository) ListByFolder(ctx context.Context, ownerID, folderID uuid.UUID) ([]FileRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT ` + fileColumns + `
FROM files
WHERE owner_id = $1 AND folder_id = $2 AND is_deleted = FALSE AND status = $3
ORDER BY name ASC;`

	rows, err := r.pool.Query(ctx, query, ownerID, folderID, StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	return collectFiles(rows)
}

// Confirm finalizes a pending upload, attaching the now-known description and
// tags. Confirming an already-confirmed row only refreshes those fields.
func (r *Repository) Confirm(ctx context.Context, ownerID, fileID uuid.UUID, description, tags *string) (FileRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
UPDATE files
SET status          = $3,
    description     = COALESCE($4, description),
    tags            = COALESCE($5, tags),
    updated_at      = NOW()
WHERE id = $1 AND owner_id = $2 AND is_deleted = FALSE
RETURNING ` + fileColumns + `;`

	row := r.pool.QueryRow(ctx, query, fileID, ownerID, StatusConfirmed, description, tags)
	rec, err := scanFile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FileRecord{}, ErrFileNotFound
		}
		return FileRecord{}, fmt.Errorf("confirm upload: %w", err)
	}
	return rec, nil
}

// UpdateMetadata applies the caller-editable fields only. Name, content type,
// size, storage key, and folder are immutable.
func (r *Repository) UpdateMetadata(ctx context.Context, ownerID, fileID uuid.UUID, description, tags *string, isPublic *bool) (FileRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
UPDATE files
SET description = COALESCE($3, description),
    tags        = COALESCE($4, tags),
    is_public   = COALESCE($5, is_public),
    updated_at  = NOW()
WHERE id = $1 AND owner_id = $2 AND is_deleted = FALSE
RETURNING ` + fileColumns + `;`

	row := r.pool.QueryRow(ctx, query, fileID, ownerID, description, tags, isPublic)
	rec, err := scanFile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FileRecord{}, ErrFileNotFound
		}
		return FileRecord{}, fmt.Errorf("update file metadata: %w", err)
	}
	return rec, nil
}

// SoftDelete marks a live file deleted and returns the prior record. The
// is_deleted guard makes concurrent deletes race safely: exactly one caller
// sees the row, the other gets ErrFileNotFound.
func (r *Repository) SoftDelete(ctx context.Context, ownerID, fileID uuid.UUID) (FileRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
UPDATE files
SET is_deleted = TRUE, deleted_at = NOW(), updated_at = NOW()
WHERE id = $1 AND owner_id = $2 AND is_deleted = FALSE
RETURNING ` + fileColumns + `;`

	row := r.pool.QueryRow(ctx, query, fileID, ownerID)
	rec, err := scanFile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FileRecord{}, ErrFileNotFound
		}
		return FileRecord{}, fmt.Errorf("soft delete file: %w", err)
	}
	return rec, nil
}

// TouchDownload bumps the download counter and access timestamp.
func (r *Repository) TouchDownload(ctx context.Context, fileID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	if _, err := r.pool.Exec(ctx, `
UPDATE files
SET download_count = download_count + 1, last_accessed_at = NOW()
WHERE id = $1;`, fileID); err != nil {
		return fmt.Errorf("touch download: %w", err)
	}
	return nil
}

// Search runs the ANDed filter set, returning one page of records plus the
// total match count.
func (r *Repository) Search(ctx context.Context, ownerID uuid.UUID, params SearchParams) ([]FileRecord, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	builder := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countQuery := builder.Select("COUNT(*)").From("files")
	pageQuery := builder.Select(fileColumns).From("files")
	for _, cond := range params.whereClause(ownerID) {
		countQuery = countQuery.Where(cond)
		pageQuery = pageQuery.Where(cond)
	}

	countSQL, countArgs, err := countQuery.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	var totalCount int64
	if err := r.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("count search results: %w", err)
	}

	offset := uint64(params.PageNumber-1) * uint64(params.PageSize)
	pageSQL, pageArgs, err := pageQuery.
		OrderBy(params.orderBy()).
		Limit(uint64(params.PageSize)).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build search query: %w", err)
	}

	rows, err := r.pool.Query(ctx, pageSQL, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("search files: %w", err)
	}
	defer rows.Close()

	items, err := collectFiles(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, totalCount, nil
}

// ListEntries exposes a folder's confirmed live files as folder tree entries.
func (r *Repository) ListEntries(ctx context.Context, ownerID, folderID uuid.UUID) ([]folder.FileEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
SELECT id, name, content_type, size_bytes, created_at
FROM files
WHERE owner_id = $1 AND folder_id = $2 AND is_deleted = FALSE AND status = $3
ORDER BY name ASC;`, ownerID, folderID, StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("list folder entries: %w", err)
	}
	defer rows.Close()

	var entries []folder.FileEntry
	for rows.Next() {
		var e folder.FileEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.ContentType, &e.SizeBytes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan folder entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folder entries: %w", err)
	}
	return entries, nil
}

// SoftDeleteByFolder marks every live file in the folder deleted, pending
// placeholders included, and reports their storage keys for object cleanup.
func (r *Repository) SoftDeleteByFolder(ctx context.Context, ownerID, folderID uuid.UUID) ([]folder.DeletedFile, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
UPDATE files
SET is_deleted = TRUE, deleted_at = NOW(), updated_at = NOW()
WHERE owner_id = $1 AND folder_id = $2 AND is_deleted = FALSE
RETURNING id, COALESCE(storage_key, '');`, ownerID, folderID)
	if err != nil {
		return nil, fmt.Errorf("soft delete folder files: %w", err)
	}
	defer rows.Close()

	var deleted []folder.DeletedFile
	for rows.Next() {
		var df folder.DeletedFile
		if err := rows.Scan(&df.ID, &df.StorageKey); err != nil {
			return nil, fmt.Errorf("scan deleted file: %w", err)
		}
		deleted = append(deleted, df)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deleted files: %w", err)
	}
	return deleted, nil
}

func collectFiles(rows pgx.Rows) ([]FileRecord, error) {
	var files []FileRecord
	for rows.Next() {
		rec, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file metadata: %w", err)
		}
		files = append(files, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}
	return files, nil
}

func scanFile(row pgx.Row) (FileRecord, error) {
	var rec FileRecord
	var storageKey *string
	err := row.Scan(
		&rec.ID,
		&rec.OwnerID,
		&rec.FolderID,
		&rec.Name,
		&storageKey,
		&rec.ContentType,
		&rec.SizeBytes,
		&rec.Description,
		&rec.Tags,
		&rec.IsPublic,
		&rec.Status,
		&rec.DownloadCount,
		&rec.LastAccessedAt,
		&rec.CreatedAt,
		&rec.UpdatedAt,
		&rec.IsDeleted,
		&rec.DeletedAt,
	)
	if storageKey != nil {
		rec.StorageKey = *storageKey
	}
	return rec, err
}
