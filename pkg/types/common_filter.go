package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"gorm.io/gorm/clause"
)

type CommonFilterOperator string

const (
	CommonFilterOperatorEq        CommonFilterOperator = "eq"
	CommonFilterOperatorNotEq     CommonFilterOperator = "not_eq"
	CommonFilterOperatorLt        CommonFilterOperator = "lt"
	CommonFilterOperatorLte       CommonFilterOperator = "lte"
	CommonFilterOperatorGt        CommonFilterOperator = "gt"
	CommonFilterOperatorGte       CommonFilterOperator = "gte"
	CommonFilterOperatorDateRange CommonFilterOperator = "date_range"
	CommonFilterOperatorRange     CommonFilterOperator = "range"
	CommonFilterOperatorIn        CommonFilterOperator = "in"
)

// CommonFilter is the filter shape accepted by admin list endpoints.
type CommonFilter struct {
	Field    string               `json:"field"`
	Operator CommonFilterOperator `json:"operator"`
	Values   []any                `json:"values"`
}

// ValidateCommonFilters rejects filters on columns outside allowed and filters
// whose operator and values would not build a condition. Field names end up in
// SQL verbatim, so every list endpoint must call this first.
func ValidateCommonFilters(filters []*CommonFilter, allowed ...string) error {
	for _, f := range filters {
		if f == nil {
			return fmt.Errorf("nil filter")
		}
		if !lo.Contains(allowed, f.Field) {
			return fmt.Errorf("filter on field %q is not allowed", f.Field)
		}
		if err := f.validateValues(); err != nil {
			return fmt.Errorf("filter on field %q: %w", f.Field, err)
		}
	}
	return nil
}

func (f *CommonFilter) validateValues() error {
	switch f.Operator {
	case CommonFilterOperatorEq, CommonFilterOperatorNotEq,
		CommonFilterOperatorLt, CommonFilterOperatorLte,
		CommonFilterOperatorGt, CommonFilterOperatorGte:
		if len(f.Values) != 1 {
			return fmt.Errorf("operator %s takes one value, got %d", f.Operator, len(f.Values))
		}
	case CommonFilterOperatorRange:
		if len(f.Values) != 2 {
			return fmt.Errorf("operator range takes two values, got %d", len(f.Values))
		}
	case CommonFilterOperatorDateRange:
		if len(f.Values) != 2 {
			return fmt.Errorf("operator date_range takes two values, got %d", len(f.Values))
		}
		for _, v := range f.Values {
			if _, err := time.Parse(time.DateOnly, fmt.Sprint(v)); err != nil {
				return fmt.Errorf("date_range value %v is not YYYY-MM-DD", v)
			}
		}
	case CommonFilterOperatorIn:
		if len(f.Values) == 0 {
			return fmt.Errorf("operator in needs at least one value")
		}
	default:
		return fmt.Errorf("unknown operator %q", f.Operator)
	}
	return nil
}

// CommonFiltersAnd joins validated filters with AND. No filters matches every row.
type CommonFiltersAnd []*CommonFilter

func (fs CommonFiltersAnd) Build(builder clause.Builder) {
	if len(fs) == 0 {
		builder.WriteString("1=1")
		return
	}
	exprs := make([]clause.Expression, 0, len(fs))
	for _, f := range fs {
		exprs = append(exprs, f)
	}
	clause.And(exprs...).Build(builder)
}

// Build constructs a GORM expression.
func (f *CommonFilter) Build(builder clause.Builder) {
	if len(f.Values) == 0 {
		return
	}

	value := f.Values[0]

	switch f.Operator {
	case CommonFilterOperatorEq:
		// jsonb paths (metadata->>'x') cannot be quoted as a column
		if strings.Contains(f.Field, "->") {
			clause.Expr{SQL: fmt.Sprintf("%s = ?", f.Field), Vars: []interface{}{value}}.Build(builder)
		} else {
			clause.Eq{Column: f.Field, Value: value}.Build(builder)
		}
	case CommonFilterOperatorNotEq:
		clause.NotConditions{Exprs: []clause.Expression{clause.Eq{Column: f.Field, Value: value}}}.Build(builder)
	case CommonFilterOperatorLt:
		clause.Lt{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorLte:
		clause.Lte{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorGt:
		clause.Gt{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorGte:
		clause.Gte{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorRange:
		if len(f.Values) < 2 {
			return
		}
		clause.And(clause.Gte{Column: f.Field, Value: f.Values[0]}, clause.Lte{Column: f.Field, Value: f.Values[1]}).Build(builder)
	case CommonFilterOperatorDateRange:
		// values are YYYY-MM-DD, the upper bound is inclusive of the whole day
		if len(f.Values) < 2 {
			return
		}
		from, err1 := time.Parse(time.DateOnly, fmt.Sprint(f.Values[0]))
		to, err2 := time.Parse(time.DateOnly, fmt.Sprint(f.Values[1]))
		if err1 != nil || err2 != nil {
			return
		}
		clause.And(clause.Gte{Column: f.Field, Value: from}, clause.Lt{Column: f.Field, Value: to.AddDate(0, 0, 1)}).Build(builder)
	case CommonFilterOperatorIn:
		clause.IN{Column: f.Field, Values: f.Values}.Build(builder)
	default:
		return
	}
}
