// Package sql is the gorm backed Repository used with MySQL, PostgreSQL and
// SQLite.
package sql

import (
	"strings"

	"storefront/internal/entity"

	"gorm.io/gorm"
)

type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository expects db to be opened with TranslateError so lookups
// and unique violations surface as gorm sentinel errors.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// paginate is a gorm scope applying the page window of p.
func paginate(p entity.BaseParams) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		_, size := p.Window()
		return db.Offset(p.Offset()).Limit(size)
	}
}

// orderClause maps a client sort key onto a whitelisted column.
func orderClause(sortBy string, desc bool, allowed map[string]string, fallback string) string {
	column, ok := allowed[strings.ToLower(strings.TrimSpace(sortBy))]
	if !ok {
		return fallback
	}
	if desc {
		return column + " DESC"
	}
	return column + " ASC"
}
