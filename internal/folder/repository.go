package folder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repositoryTimeout = 5 * time.Second

const folderColumns = `id, owner_id, parent_folder_id, name, description, color, is_public, is_favorite, created_at, updated_at, is_deleted, deleted_at`

// Repository provides access to folder persistence. Every read excludes
// soft-deleted rows unless stated otherwise.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a folder repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new folder for the owner.
func (r *Repository) Create(ctx context.Context, f Folder) (Folder, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
INSERT INTO folders (id, owner_id, parent_folder_id, name, description, color, is_public, is_favorite)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + folderColumns + `;`

	row := r.pool.QueryRow(ctx, query,
		f.ID,
		f.OwnerID,
		f.ParentFolderID,
		f.Name,
		f.Description,
		f.Color,
		f.IsPublic,
		f.IsFavorite,
	)

	stored, err := scanFolder(row)
	if err != nil {
		return Folder{}, fmt.Errorf("create folder: %w", err)
	}
	return stored, nil
}

// Get fetches a single non-deleted folder ensuring ownership.
func (r *Repository) Get(ctx context.Context, ownerID, folderID uuid.UUID) (Folder, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
SELECT ` + folderColumns + `
FROM folders
WHERE id = $1 AND owner_id = $2 AND is_deleted = FALSE;`

	row := r.pool.QueryRow(ctx, query, folderID, ownerID)
	f, err := scanFolder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Folder{}, ErrFolderNotFound
		}
		return Folder{}, fmt.Errorf("get folder: %w", err)
	}
	return f, nil
}

// ListChildren returns the owner's non-deleted folders under the given parent
// (nil parent lists roots), ordered by name ascending.
func (r *Repository) ListChildren(ctx context.Context, ownerID uuid.UUID, parentID *uuid.UUID) ([]Folder, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
SELECT ` + folderColumns + `
FROM folders
WHERE owner_id = $1
  AND is_deleted = FALSE
  AND (($2::uuid IS NULL AND parent_folder_id IS NULL) OR parent_folder_id = $2)
ORDER BY name ASC;`

	rows, err := r.pool.Query(ctx, query, ownerID, parentID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	var folders []Folder
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}
	return folders, nil
}

// ListNames returns the names of the owner's live folders. Used to enrich
// validation errors on uploads targeting a missing folder.
func (r *Repository) ListNames(ctx context.Context, ownerID uuid.UUID) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
SELECT name FROM folders
WHERE owner_id = $1 AND is_deleted = FALSE
ORDER BY name ASC;`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list folder names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan folder name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folder names: %w", err)
	}
	return names, nil
}

// Update applies only the provided fields to a live folder. Returns
// ErrFolderNotFound when the row is missing, foreign, or already deleted.
func (r *Repository) Update(ctx context.Context, ownerID, folderID uuid.UUID, name, description, color *string) error {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
UPDATE folders
SET name        = COALESCE($3, name),
    description = COALESCE($4, description),
    color       = COALESCE($5, color),
    updated_at  = NOW()
WHERE id = $1 AND owner_id = $2 AND is_deleted = FALSE;`

	tag, err := r.pool.Exec(ctx, query, folderID, ownerID, name, description, color)
	if err != nil {
		return fmt.Errorf("update folder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrFolderNotFound
	}
	return nil
}

// SoftDelete marks a live folder deleted. Reports whether a row changed; an
// already-deleted or missing folder yields false, not an error.
func (r *Repository) SoftDelete(ctx context.Context, ownerID, folderID uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, repositoryTimeout)
	defer cancel()

	query := `
UPDATE folders
SET is_deleted = TRUE, deleted_at = NOW(), updated_at = NOW()
WHERE id = $1 AND owner_id = $2 AND is_deleted = FALSE;`

	tag, err := r.pool.Exec(ctx, query, folderID, ownerID)
	if err != nil {
		return false, fmt.Errorf("soft delete folder: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanFolder(row pgx.Row) (Folder, error) {
	var f Folder
	err := row.Scan(
		&f.ID,
		&f.OwnerID,
		&f.ParentFolderID,
		&f.Name,
		&f.Description,
		&f.Color,
		&f.IsPublic,
		&f.IsFavorite,
		&f.CreatedAt,
		&f.UpdatedAt,
		&f.IsDeleted,
		&f.DeletedAt,
	)
	return f, err
}
