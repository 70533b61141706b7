package datatype

import (
	"errors"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/sandrolain/metapath/pkg/item"
	"github.com/sandrolain/metapath/pkg/types"
)

// IsStringLike reports whether values of t are compared and cast as text.
func IsStringLike(t *Adapter) bool {
	return t.Category() == CategoryString
}

// Cast converts it to the target type.
//
// Casting to a string-like type renders the value canonically and parses the
// text with the target grammar; casting from a string-like type parses the
// trimmed text. Numbers, booleans and temporal values convert among their
// own families. Any other pair fails with MPTY0040; a value that does not fit
// the target fails with FORG0001.
func Cast(it item.AtomicItem, target *Adapter) (item.AtomicItem, error) {
	src, err := AdapterOf(it)
	if err != nil {
		return nil, err
	}
	if src == target {
		return it, nil
	}
	switch {
	case IsStringLike(target):
		return castParse(target, it.String(), it)
	case IsStringLike(src):
		if target == Boolean {
			return castStringToBoolean(it)
		}
		return castParse(target, strings.TrimSpace(it.String()), it)
	}

	switch sc, tc := src.Category(), target.Category(); {
	case sc == CategoryNumeric && tc == CategoryNumeric:
		d, _ := DecimalOf(it)
		if target.DerivesFrom(Integer) {
			var r apd.Decimal
			if err := truncate(&r, d); err != nil {
				return nil, castFailure(it, target, err)
			}
			return castParse(target, formatDecimal(&r), it)
		}
		return NewDecimal(d), nil
	case sc == CategoryNumeric && tc == CategoryBoolean:
		d, _ := DecimalOf(it)
		return Boolean.MustItem(!d.IsZero()), nil
	case sc == CategoryBoolean && tc == CategoryNumeric:
		if raw(it).(bool) {
			return castParse(target, "1", it)
		}
		return castParse(target, "0", it)
	case sc == CategoryDateTime && tc == CategoryDate:
		dt := raw(it).(DateTime)
		y, m, d := dt.Time.Date()
		day := Date{Time: time.Date(y, m, d, 0, 0, 0, 0, dt.Time.Location()), HasTimezone: dt.HasTimezone}
		return castParse(target, formatDate(day), it)
	case sc == CategoryDate && tc == CategoryDateTime:
		day := raw(it).(Date)
		return castParse(target, formatDateTime(DateTime(day)), it)
	case src.Primitive() == target.Primitive():
		return castParse(target, it.String(), it)
	}
	return nil, types.Errorf(types.ErrUnsupportedCast, "cannot cast %s to %s", src.Name(), target.Name())
}

// Castable reports whether Cast would succeed.
func Castable(it item.AtomicItem, target *Adapter) bool {
	_, err := Cast(it, target)
	return err == nil
}

func castParse(target *Adapter, text string, src item.AtomicItem) (item.AtomicItem, error) {
	out, err := target.ParseItem(text)
	if err != nil {
		return nil, castFailure(src, target, err)
	}
	return out, nil
}

func castFailure(src item.AtomicItem, target *Adapter, cause error) error {
	return types.Errorf(types.ErrInvalidValue, "cannot cast %s value %q to %s", src.Type().Name(), src.String(), target.Name()).WithCause(cause)
}

var errNotBoolean = errors.New("not a boolean or numeric literal")

func castStringToBoolean(it item.AtomicItem) (item.AtomicItem, error) {
	s := strings.TrimSpace(it.String())
	switch s {
	case "true", "1":
		return Boolean.MustItem(true), nil
	case "false", "0", "":
		return Boolean.MustItem(false), nil
	}
	if v, err := parseDecimal(s); err == nil {
		return Boolean.MustItem(!v.(*apd.Decimal).IsZero()), nil
	}
	return nil, castFailure(it, Boolean, errNotBoolean)
}
