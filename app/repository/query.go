package repository

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// orderBy resolves a public sort key to a whitelisted column; unknown keys fall back.
func orderBy(columns map[string]string, sortBy string, desc bool, fallback string) clause.OrderByColumn {
	col, ok := columns[sortBy]
	if !ok {
		col = fallback
	}
	return clause.OrderByColumn{Column: clause.Column{Table: clause.CurrentTable, Name: col}, Desc: desc}
}

func withKeyword(query *gorm.DB, keyword string, columns ...string) *gorm.DB {
	kw := strings.TrimSpace(keyword)
	if kw == "" || len(columns) == 0 {
		return query
	}
	like := "%" + strings.ToLower(kw) + "%"
	conds := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))
	for _, c := range columns {
		conds = append(conds, "LOWER("+c+") LIKE ?")
		args = append(args, like)
	}
	return query.Where(strings.Join(conds, " OR "), args...)
}

func withDeleted(query *gorm.DB, deleted bool) *gorm.DB {
	if deleted {
		return query.Where("deleted_at IS NOT NULL")
	}
	return query.Where("deleted_at IS NULL")
}
