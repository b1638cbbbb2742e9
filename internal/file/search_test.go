package file

import (
	"strings"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

func TestSearchParamsValidate(t *testing.T) {
	cases := []struct {
		name    string
		params  SearchParams
		wantErr bool
	}{
		{"valid", SearchParams{PageNumber: 1, PageSize: 20}, false},
		{"max page size", SearchParams{PageNumber: 1, PageSize: 100}, false},
		{"page zero", SearchParams{PageNumber: 0, PageSize: 20}, true},
		{"negative page", SearchParams{PageNumber: -1, PageSize: 20}, true},
		{"size zero", SearchParams{PageNumber: 1, PageSize: 0}, true},
		{"size over cap", SearchParams{PageNumber: 1, PageSize: 101}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.params.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSortColumnWhitelist(t *testing.T) {
	cases := map[string]string{
		"name":        "name",
		"Name":        "name",
		"size":        "size_bytes",
		"contentType": "content_type",
		"createdAt":   "created_at",
		"":            "created_at",
		"owner_id":    "created_at", // unknown fields fall back, never pass through
	}

	for input, want := range cases {
		got := SearchParams{SortBy: input}.sortColumn()
		if got != want {
			t.Fatalf("sortColumn(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestOrderByKeepsPaginationStable(t *testing.T) {
	asc := SearchParams{SortBy: "name"}.orderBy()
	if asc != "name ASC, id ASC" {
		t.Fatalf("unexpected ascending order: %q", asc)
	}

	desc := SearchParams{SortBy: "size", SortDescending: true}.orderBy()
	if desc != "size_bytes DESC, id ASC" {
		t.Fatalf("unexpected descending order: %q", desc)
	}
}

func TestWhereClauseAlwaysExcludesDeletedAndPending(t *testing.T) {
	ownerID := uuid.New()
	sql, args, err := sq.And(SearchParams{}.whereClause(ownerID)).ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}

	for _, fragment := range []string{"owner_id", "is_deleted", "status"} {
		if !strings.Contains(sql, fragment) {
			t.Fatalf("expected %q in where clause, got %q", fragment, sql)
		}
	}
	if len(args) != 3 {
		t.Fatalf("expected 3 args for the base clause, got %d", len(args))
	}
}

func TestWhereClauseAndsAllFilters(t *testing.T) {
	ownerID := uuid.New()
	folderID := uuid.New()
	from := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	params := SearchParams{
		SearchTerm:  "report",
		ContentType: "application/pdf",
		FromDate:    &from,
		ToDate:      &to,
		FolderID:    &folderID,
	}

	sql, args, err := sq.And(params.whereClause(ownerID)).ToSql()
	if err != nil {
		t.Fatalf("ToSql: %v", err)
	}

	for _, fragment := range []string{"name LIKE", "description LIKE", "tags LIKE", "content_type LIKE", "created_at >=", "created_at <=", "folder_id"} {
		if !strings.Contains(sql, fragment) {
			t.Fatalf("expected %q in where clause, got %q", fragment, sql)
		}
	}

	var sawTermPattern bool
	for _, arg := range args {
		if s, ok := arg.(string); ok && s == "%report%" {
			sawTermPattern = true
		}
	}
	if !sawTermPattern {
		t.Fatalf("expected substring pattern arg, got %v", args)
	}
}

func TestNewPaginatedResultMath(t *testing.T) {
	cases := []struct {
		name       string
		totalCount int64
		pageNumber int
		pageSize   int
		totalPages int
		hasNext    bool
		hasPrev    bool
	}{
		{"exact fit", 40, 1, 20, 2, true, false},
		{"partial last page", 41, 3, 20, 3, false, true},
		{"middle page", 100, 2, 10, 10, true, true},
		{"empty result", 0, 1, 20, 0, false, false},
		{"single page", 5, 1, 20, 1, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NewPaginatedResult(nil, tc.totalCount, tc.pageNumber, tc.pageSize)
			if got.TotalPages != tc.totalPages {
				t.Fatalf("totalPages = %d, want %d", got.TotalPages, tc.totalPages)
			}
			if got.HasNextPage != tc.hasNext {
				t.Fatalf("hasNextPage = %v, want %v", got.HasNextPage, tc.hasNext)
			}
			if got.HasPreviousPage != tc.hasPrev {
				t.Fatalf("hasPreviousPage = %v, want %v", got.HasPreviousPage, tc.hasPrev)
			}
			if got.Items == nil {
				t.Fatalf("expected non-nil items slice")
			}
		})
	}
}

func TestBuildStorageKeyShape(t *testing.T) {
	ownerID := uuid.New()
	folderID := uuid.New()
	fileID := uuid.New()

	key := BuildStorageKey(ownerID, folderID, fileID, "report.pdf")

	parts := strings.SplitN(key, "/", 3)
	if len(parts) != 3 {
		t.Fatalf("expected three path segments, got %q", key)
	}
	if parts[0] != ownerID.String() || parts[1] != folderID.String() {
		t.Fatalf("expected owner/folder prefix, got %q", key)
	}
	if parts[2] != fileID.String()+"-report.pdf" {
		t.Fatalf("expected id-name leaf, got %q", parts[2])
	}
}

func TestDecorateComputesReadModelFields(t *testing.T) {
	rec := FileRecord{Name: "slides.PPTX", ContentType: "application/vnd.ms-powerpoint", SizeBytes: 2048}.Decorate()

	if rec.Extension != ".pptx" {
		t.Fatalf("extension = %q", rec.Extension)
	}
	if !rec.IsDocument {
		t.Fatalf("expected document classification")
	}
	if rec.HumanSize != "2.0 KB" {
		t.Fatalf("humanSize = %q", rec.HumanSize)
	}

	img := FileRecord{Name: "cat.png", ContentType: "image/png", SizeBytes: 10}.Decorate()
	if !img.IsImage || img.IsVideo || img.HumanSize != "10 B" {
		t.Fatalf("unexpected image decoration: %+v", img)
	}
}
