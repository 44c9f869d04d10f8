// Package option carries composable query modifiers for the generic
// repository.
package option

import (
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/canvass/pkg/db/pagination"
	"gorm.io/gorm"
)

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryOptionFunc func(db *gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

// ApplyPagination applies cursor pagination, fetching one extra row so the
// caller can detect whether more pages exist.
func ApplyPagination(p pagination.Pagination) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		size := p.PageSize
		if size <= 0 {
			size = 10
		}
		if size > 250 {
			size = 250
		}

		if token := strings.TrimSpace(p.PageToken); token != "" {
			cursor, err := pagination.DecodeCursor(token)
			if err == nil && cursor != nil {
				createdAt, timeErr := time.Parse(time.RFC3339, cursor.CreatedAt)
				id, idErr := strconv.ParseInt(cursor.ID, 10, 64)
				if timeErr == nil && idErr == nil {
					db = db.Where(
						"(created_at < ?) OR (created_at = ? AND id < ?)",
						createdAt, createdAt, id,
					)
				}
			}
		}

		return db.Limit(size + 1)
	})
}

// QuerySortBy restricts sortable columns to an allow list. Ordering is
// newest-first unless Asc is set.
type QuerySortBy struct {
	Column string
	Asc    bool
	Allow  map[string]bool
}

func WithSortBy(sort QuerySortBy) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		column := strings.TrimSpace(sort.Column)
		if column == "" || !sort.Allow[column] {
			column = "created_at"
		}
		direction := "desc"
		if sort.Asc {
			direction = "asc"
		}
		return db.Order(column + " " + direction + ", id " + direction)
	})
}
