package domain

import (
	"cmp"
	"fmt"
	"strings"
	"time"
)

// Operator of a field comparison
type Operator string

const (
	OpEq       Operator = "eq"
	OpIn       Operator = "in"
	OpGte      Operator = "gte"
	OpLte      Operator = "lte"
	OpContains Operator = "contains"
)

// Predicate is a storage-neutral filter tree. A node is either a field
// comparison, a conjunction (And) or a disjunction (Or). The zero value
// matches everything.
type Predicate struct {
	Field string
	Op    Operator
	Value any

	And []Predicate
	Or  []Predicate
}

// Eq matches field == value
func Eq(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpEq, Value: value}
}

// In matches field against any of values
func In(field string, values ...any) Predicate {
	return Predicate{Field: field, Op: OpIn, Value: values}
}

// Gte matches field >= value
func Gte(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpGte, Value: value}
}

// Lte matches field <= value
func Lte(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpLte, Value: value}
}

// Contains matches a case-insensitive substring of a string field
func Contains(field, text string) Predicate {
	return Predicate{Field: field, Op: OpContains, Value: text}
}

// All is the conjunction of ps, dropping empty operands
func All(ps ...Predicate) Predicate {
	return combine(ps, func(kept []Predicate) Predicate { return Predicate{And: kept} })
}

// Any is the disjunction of ps, dropping empty operands
func Any(ps ...Predicate) Predicate {
	return combine(ps, func(kept []Predicate) Predicate { return Predicate{Or: kept} })
}

func combine(ps []Predicate, wrap func([]Predicate) Predicate) Predicate {
	kept := make([]Predicate, 0, len(ps))
	for _, p := range ps {
		if !p.IsEmpty() {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return Predicate{}
	case 1:
		return kept[0]
	default:
		return wrap(kept)
	}
}

// IsEmpty reports whether p matches everything
func (p Predicate) IsEmpty() bool {
	return p.Field == "" && len(p.And) == 0 && len(p.Or) == 0
}

// IsLeaf reports whether p is a field comparison
func (p Predicate) IsLeaf() bool {
	return p.Field != ""
}

// FieldGetter returns a document's value for a field name
type FieldGetter func(field string) any

// Matches evaluates p against a document in memory
func (p Predicate) Matches(get FieldGetter) bool {
	if len(p.And) > 0 {
		for _, sub := range p.And {
			if !sub.Matches(get) {
				return false
			}
		}
		return true
	}
	if len(p.Or) > 0 {
		for _, sub := range p.Or {
			if sub.Matches(get) {
				return true
			}
		}
		return false
	}
	if !p.IsLeaf() {
		return true
	}

	actual := get(p.Field)
	switch p.Op {
	case OpEq:
		return equalValues(actual, p.Value)
	case OpIn:
		for _, v := range p.Value.([]any) {
			if equalValues(actual, v) {
				return true
			}
		}
		return false
	case OpGte, OpLte:
		c, ok := compareValues(actual, p.Value)
		if !ok {
			return false
		}
		if p.Op == OpGte {
			return c >= 0
		}
		return c <= 0
	case OpContains:
		s, ok := actual.(string)
		return ok && strings.Contains(strings.ToLower(s), strings.ToLower(p.Value.(string)))
	default:
		return false
	}
}

func equalValues(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func compareValues(a, b any) (int, bool) {
	switch av := a.(type) {
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	case int64:
		bv, ok := b.(int64)
		if !ok {
			return 0, false
		}
		return cmp.Compare(av, bv), true
	default:
		return 0, false
	}
}
