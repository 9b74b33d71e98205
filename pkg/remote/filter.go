package remote

import (
	"fmt"
	"regexp"
	"strings"
)

// Op is a comparison understood by every Store implementation.
type Op string

const (
	OpEq    Op = "eq"
	OpILike Op = "ilike"
)

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Condition compares one column against a value.
type Condition struct {
	Column string
	Op     Op
	Value  any
}

// Clause is a disjunction of conditions. A clause with a single condition
// is a plain predicate.
type Clause struct {
	Any []Condition
}

// Filter is the conjunction of its clauses. The zero Filter matches every row.
type Filter []Clause

// Eq matches rows whose column equals value.
func Eq(column string, value any) Clause {
	return Clause{Any: []Condition{{Column: column, Op: OpEq, Value: value}}}
}

// ILike matches rows whose column contains substr, ignoring case.
func ILike(column, substr string) Clause {
	return Clause{Any: []Condition{{Column: column, Op: OpILike, Value: substr}}}
}

// AnyOf merges clauses into one OR-group.
func AnyOf(clauses ...Clause) Clause {
	merged := Clause{}
	for _, c := range clauses {
		merged.Any = append(merged.Any, c.Any...)
	}
	return merged
}

// Where builds a Filter from clauses.
func Where(clauses ...Clause) Filter {
	return Filter(clauses)
}

// And returns a copy of f extended with more clauses.
func (f Filter) And(clauses ...Clause) Filter {
	out := make(Filter, 0, len(f)+len(clauses))
	out = append(out, f...)
	return append(out, clauses...)
}

// Validate rejects unknown operators and column names that are not plain identifiers.
func (f Filter) Validate() error {
	for _, clause := range f {
		if len(clause.Any) == 0 {
			return fmt.Errorf("remote: empty filter clause")
		}
		for _, cond := range clause.Any {
			if err := ValidateIdentifier(cond.Column); err != nil {
				return err
			}
			switch cond.Op {
			case OpEq:
			case OpILike:
				if _, ok := cond.Value.(string); !ok {
					return fmt.Errorf("remote: ilike on %s needs a string, got %T", cond.Column, cond.Value)
				}
			default:
				return fmt.Errorf("remote: unsupported operator %q", cond.Op)
			}
		}
	}
	return nil
}

// Order sorts a Select by one column.
type Order struct {
	Column string
	Desc   bool
}

// Query is a filtered, optionally limited and ordered select.
type Query struct {
	Filter  Filter
	Limit   int
	OrderBy []Order
}

// Validate checks the filter and the ordering columns.
func (q Query) Validate() error {
	if q.Limit < 0 {
		return fmt.Errorf("remote: negative limit %d", q.Limit)
	}
	for _, o := range q.OrderBy {
		if err := ValidateIdentifier(o.Column); err != nil {
			return err
		}
	}
	return q.Filter.Validate()
}

// ValidateIdentifier guards table and column names that end up in SQL or URLs.
func ValidateIdentifier(name string) error {
	if !identifierPattern.MatchString(strings.TrimSpace(name)) {
		return fmt.Errorf("remote: invalid identifier %q", name)
	}
	return nil
}
