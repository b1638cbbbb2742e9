package file

import (
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

const (
	minPageSize = 1
	maxPageSize = 100

	// SortByCreatedAt is the default sort field.
	SortByCreatedAt = "createdAt"
)

// ErrBadPageParams is returned for page numbers below 1 or page sizes outside
// [1,100].
var ErrBadPageParams = errors.New("bad page params")

// SearchParams filters and pages file metadata. All supplied filters are ANDed.
type SearchParams struct {
	SearchTerm     string
	ContentType    string
	FromDate       *time.Time
	ToDate         *time.Time
	FolderID       *uuid.UUID
	SortBy         string
	SortDescending bool
	PageNumber     int
	PageSize       int
}

// sortColumns whitelists sortable fields; anything else falls back to the
// default createdAt ordering.
var sortColumns = map[string]string{
	"name":        "name",
	"size":        "size_bytes",
	"contenttype": "content_type",
	"createdat":   "created_at",
}

// Validate rejects out-of-range page parameters.
func (p SearchParams) Validate() error {
	if p.PageNumber < 1 {
		return ErrBadPageParams
	}
	if p.PageSize < minPageSize || p.PageSize > maxPageSize {
		return ErrBadPageParams
	}
	return nil
}

func (p SearchParams) sortColumn() string {
	if col, ok := sortColumns[strings.ToLower(p.SortBy)]; ok {
		return col
	}
	return "created_at"
}

func (p SearchParams) orderBy() string {
	direction := "ASC"
	if p.SortDescending {
		direction = "DESC"
	}
	// Secondary id ordering keeps pagination stable across equal sort keys.
	return p.sortColumn() + " " + direction + ", id ASC"
}

// whereClause composes the ANDed filter set shared by the count and page
// queries. Deleted rows and pending placeholders are always excluded.
func (p SearchParams) whereClause(ownerID uuid.UUID) []sq.Sqlizer {
	conds := []sq.Sqlizer{
		sq.Eq{"owner_id": ownerID},
		sq.Eq{"is_deleted": false},
		sq.Eq{"status": string(StatusConfirmed)},
	}

	if term := strings.TrimSpace(p.SearchTerm); term != "" {
		pattern := "%" + term + "%"
		conds = append(conds, sq.Or{
			sq.Like{"name": pattern},
			sq.Like{"description": pattern},
			sq.Like{"tags": pattern},
		})
	}
	if p.ContentType != "" {
		conds = append(conds, sq.Like{"content_type": p.ContentType + "%"})
	}
	if p.FromDate != nil {
		conds = append(conds, sq.GtOrEq{"created_at": *p.FromDate})
	}
	if p.ToDate != nil {
		conds = append(conds, sq.LtOrEq{"created_at": *p.ToDate})
	}
	if p.FolderID != nil {
		conds = append(conds, sq.Eq{"folder_id": *p.FolderID})
	}

	return conds
}

// PaginatedResult is one page of search output.
type PaginatedResult struct {
	Items           []FileRecord `json:"items"`
	TotalCount      int64        `json:"totalCount"`
	PageNumber      int          `json:"pageNumber"`
	PageSize        int          `json:"pageSize"`
	TotalPages      int          `json:"totalPages"`
	HasNextPage     bool         `json:"hasNextPage"`
	HasPreviousPage bool         `json:"hasPreviousPage"`
}

// NewPaginatedResult assembles the page envelope from a page of items and the
// total match count.
func NewPaginatedResult(items []FileRecord, totalCount int64, pageNumber, pageSize int) PaginatedResult {
	if items == nil {
		items = []FileRecord{}
	}
	totalPages := int((totalCount + int64(pageSize) - 1) / int64(pageSize))
	return PaginatedResult{
		Items:           items,
		TotalCount:      totalCount,
		PageNumber:      pageNumber,
		PageSize:        pageSize,
		TotalPages:      totalPages,
		HasNextPage:     pageNumber < totalPages,
		HasPreviousPage: pageNumber > 1 && totalCount > 0,
	}
}
