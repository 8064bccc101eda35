package option

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// QueryOption mutates a query before it is executed.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryOptionFunc func(db *gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

type Direction string

const (
	ASC  Direction = "ASC"
	DESC Direction = "DESC"
)

func ApplyOrder(column string, direction Direction) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		dir := strings.ToUpper(string(direction))
		if dir != string(DESC) {
			dir = string(ASC)
		}
		return db.Order(fmt.Sprintf("%s %s", column, dir))
	})
}

func ApplyLimit(limit int) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return db
		}
		return db.Limit(limit)
	})
}

func ApplyWhere(query string, args ...any) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Where(query, args...)
	})
}

func ApplyPreload(association string) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Preload(association)
	})
}

// ApplyBefore keeps rows strictly older than the (createdAt, id) keyset
// cursor, matching an ORDER BY column DESC, id DESC scan.
func ApplyBefore(column string, createdAt time.Time, id any) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Where(
			fmt.Sprintf("(%[1]s < ?) OR (%[1]s = ? AND id < ?)", column),
			createdAt, createdAt, id,
		)
	})
}
