package option

import (
	"fmt"
	"strings"

	"bountyhub/pkg/db/pagination"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QueryOption narrows a repository query.
type QueryOption func(*gorm.DB) *gorm.DB

type QuerySortBy struct {
	SortBy  string
	OrderBy string
	// Allow whitelists sortable columns. SortBy outside it falls back to id.
	Allow map[string]bool
}

func WithSortBy(s QuerySortBy) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		column := s.SortBy
		if column == "" || !s.Allow[column] {
			column = "id"
		}
		desc := strings.EqualFold(s.OrderBy, "desc")
		return db.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc})
	}
}

type Operator string

const (
	EQ  Operator = "="
	NE  Operator = "<>"
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
	IN  Operator = "IN"
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

func ApplyOperator(c Condition) QueryOption {
	return func(db *gorm.DB) *gorm.DB {
		column := clause.Column{Name: c.Field}
		switch c.Operator {
		case EQ:
			return db.Where(clause.Eq{Column: column, Value: c.Value})
		case NE:
			return db.Where(clause.Neq{Column: column, Value: c.Value})
		case GT:
			return db.Where(clause.Gt{Column: column, Value: c.Value})
		case GTE:
			return db.Where(clause.Gte{Column: column, Value: c.Value})
		case LT:
			return db.Where(clause.Lt{Column: column, Value: c.Value})
		case LTE:
			return db.Where(clause.Lte{Column: column, Value: c.Value})
		case IN:
			return db.Where(clause.IN{Column: column, Values: toValues(c.Value)})
		default:
			_ = db.AddError(fmt.Errorf("unsupported operator %q", c.Operator))
			return db
		}
	}
}

// WithIn matches rows whose field is one of values. An empty list matches nothing.
func WithIn[V any](field string, values []V) QueryOption {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return ApplyOperator(Condition{Field: field, Operator: IN, Value: out})
}

func toValues(v any) []any {
	switch vs := v.(type) {
	case []any:
		return vs
	case []string:
		out := make([]any, 0, len(vs))
		for _, s := range vs {
			out = append(out, s)
		}
		return out
	default:
		return []any{v}
	}
}

// ApplyPagination fetches one row past the limit so callers can tell whether
// another page exists. Rows are walked by descending id.
func ApplyPagination(p pagination.Pagination) QueryOption {
	p = p.Normalize()
	return func(db *gorm.DB) *gorm.DB {
		if p.Cursor != "" {
			cursor, err := pagination.DecodeCursor(p.Cursor)
			if err != nil {
				_ = db.AddError(fmt.Errorf("decode cursor: %w", err))
				return db
			}
			db = db.Where(clause.Lt{Column: clause.Column{Name: "id"}, Value: cursor.ID})
		}
		return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true}).Limit(p.Limit + 1)
	}
}

// LockingUpdate is a scope adding SELECT ... FOR UPDATE. Drivers without row
// locks (sqlite) drop the clause.
func LockingUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
}

func WithLockingUpdate() QueryOption {
	return LockingUpdate
}
