package datatype

import (
	"bytes"
	"strings"
	"time"

	"github.com/sandrolain/metapath/pkg/item"
	"github.com/sandrolain/metapath/pkg/types"
)

// StringComparer orders strings. *collate.Collator implements it.
type StringComparer interface {
	CompareString(a, b string) int
}

// ComparisonOp is a value comparison operator.
type ComparisonOp uint8

const (
	OpEq ComparisonOp = iota + 1
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

// String returns the value comparison keyword.
func (op ComparisonOp) String() string {
	switch op {
	case OpEq:
		return "eq"
	case OpNe:
		return "ne"
	case OpLt:
		return "lt"
	case OpLe:
		return "le"
	case OpGt:
		return "gt"
	case OpGe:
		return "ge"
	default:
		return "?"
	}
}

// Holds reports whether a comparison result c satisfies op.
func (op ComparisonOp) Holds(c int) bool {
	switch op {
	case OpEq:
		return c == 0
	case OpNe:
		return c != 0
	case OpLt:
		return c < 0
	case OpLe:
		return c <= 0
	case OpGt:
		return c > 0
	case OpGe:
		return c >= 0
	}
	return false
}

// Compare orders two atomic items. Strings compare by code point unless a
// collator is given; numerics compare by value; dates and date-times by
// instant; durations only within their own family. Items of incompatible
// categories fail with XPTY0030.
func Compare(a, b item.AtomicItem, coll StringComparer) (int, error) {
	ta, err := AdapterOf(a)
	if err != nil {
		return 0, err
	}
	tb, err := AdapterOf(b)
	if err != nil {
		return 0, err
	}
	if ta.Category() != tb.Category() {
		return 0, types.Errorf(types.ErrIncomparable, "cannot compare %s with %s", ta.Name(), tb.Name())
	}
	switch ta.Category() {
	case CategoryString:
		if coll != nil {
			return coll.CompareString(a.String(), b.String()), nil
		}
		return strings.Compare(a.String(), b.String()), nil
	case CategoryBoolean:
		x, y := raw(a).(bool), raw(b).(bool)
		switch {
		case x == y:
			return 0, nil
		case !x:
			return -1, nil
		default:
			return 1, nil
		}
	case CategoryNumeric:
		x, _ := DecimalOf(a)
		y, _ := DecimalOf(b)
		return x.Cmp(y), nil
	case CategoryDate:
		return raw(a).(Date).Time.Compare(raw(b).(Date).Time), nil
	case CategoryDateTime:
		return raw(a).(DateTime).Time.Compare(raw(b).(DateTime).Time), nil
	case CategoryDayTimeDuration:
		return cmpOrdered(raw(a).(time.Duration), raw(b).(time.Duration)), nil
	case CategoryYearMonthDuration:
		return cmpOrdered(raw(a).(YearMonthDuration), raw(b).(YearMonthDuration)), nil
	case CategoryBinary:
		return bytes.Compare(raw(a).([]byte), raw(b).([]byte)), nil
	}
	return 0, types.Errorf(types.ErrIncomparable, "values of type %s are not comparable", ta.Name())
}

// ValueCompare applies op to two atomic items.
func ValueCompare(op ComparisonOp, a, b item.AtomicItem, coll StringComparer) (bool, error) {
	c, err := Compare(a, b, coll)
	if err != nil {
		return false, err
	}
	return op.Holds(c), nil
}

// Equal reports whether a and b have the same type and value.
func Equal(a, b item.AtomicItem) bool {
	ta, err1 := AdapterOf(a)
	tb, err2 := AdapterOf(b)
	if err1 != nil || err2 != nil || ta != tb {
		return false
	}
	c, err := Compare(a, b, nil)
	return err == nil && c == 0
}

func cmpOrdered[T ~int64](x, y T) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}
