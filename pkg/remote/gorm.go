package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errUnscopedWrite = errors.New("remote: refusing write without a filter")

// GormStore reaches the remote Postgres database directly.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an open gorm connection.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, errors.New("gorm db required")
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Select(ctx context.Context, table string, q Query, dest any) error {
	if err := ValidateIdentifier(table); err != nil {
		return err
	}
	if err := q.Validate(); err != nil {
		return err
	}

	tx := s.db.WithContext(ctx).Table(table)
	if where, args := whereSQL(q.Filter); where != "" {
		tx = tx.Where(where, args...)
	}
	for _, o := range q.OrderBy {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: o.Column}, Desc: o.Desc})
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	return tx.Find(dest).Error
}

func (s *GormStore) Insert(ctx context.Context, table string, rows any) error {
	if err := ValidateIdentifier(table); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Table(table).Create(rows).Error
}

func (s *GormStore) Update(ctx context.Context, table string, patch map[string]any, f Filter) error {
	if err := ValidateIdentifier(table); err != nil {
		return err
	}
	if err := f.Validate(); err != nil {
		return err
	}
	if len(f) == 0 {
		return errUnscopedWrite
	}
	for column := range patch {
		if err := ValidateIdentifier(column); err != nil {
			return err
		}
	}

	where, args := whereSQL(f)
	return s.db.WithContext(ctx).Table(table).Where(where, args...).Updates(patch).Error
}

func (s *GormStore) Delete(ctx context.Context, table string, f Filter) error {
	if err := ValidateIdentifier(table); err != nil {
		return err
	}
	if err := f.Validate(); err != nil {
		return err
	}
	if len(f) == 0 {
		return errUnscopedWrite
	}

	where, args := whereSQL(f)
	return s.db.WithContext(ctx).Exec(fmt.Sprintf("DELETE FROM %s WHERE %s", table, where), args...).Error
}

// InTx runs fn against a store bound to one transaction.
func (s *GormStore) InTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &GormStore{db: tx})
	})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike makes term match literally inside a LIKE pattern that uses a
// backslash escape.
func EscapeLike(term string) string {
	return likeEscaper.Replace(term)
}

func whereSQL(f Filter) (string, []any) {
	if len(f) == 0 {
		return "", nil
	}

	clauses := make([]string, 0, len(f))
	args := make([]any, 0, len(f))
	for _, c := range f {
		parts := make([]string, 0, len(c.Any))
		for _, cond := range c.Any {
			switch cond.Op {
			case OpILike:
				parts = append(parts, fmt.Sprintf(`LOWER(%s) LIKE LOWER(?) ESCAPE '\'`, cond.Column))
				args = append(args, "%"+EscapeLike(fmt.Sprint(cond.Value))+"%")
			default:
				parts = append(parts, fmt.Sprintf("%s = ?", cond.Column))
				args = append(args, cond.Value)
			}
		}
		clauses = append(clauses, "("+strings.Join(parts, " OR ")+")")
	}
	return strings.Join(clauses, " AND "), args
}
