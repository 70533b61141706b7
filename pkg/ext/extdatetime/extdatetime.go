// Package extdatetime provides calendar arithmetic over date and date-time
// values in the meta namespace.
//
// Arguments may be typed date or date-time items, or strings in their
// lexical forms. Results keep the type and timezone of the input value.
// Calendar fields are read in the timezone of the value; values without a
// timezone are held at UTC.
package extdatetime

import (
	"strings"
	"time"

	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/ext/extutil"
	"github.com/sandrolain/metapath/pkg/functions"
	"github.com/sandrolain/metapath/pkg/item"
)

var (
	optTemporal = functions.Arg("value", functions.AnyAtomic, functions.ZeroOrOne)
	unitArg     = functions.Arg("unit", "string", functions.ExactlyOne)
	atomOpt     = functions.Seq(functions.AnyAtomic, functions.ZeroOrOne)
	intOpt      = functions.Seq("integer", functions.ZeroOrOne)
)

// All returns all date and time functions.
func All() []*functions.Function {
	return []*functions.Function{
		DateAdd(),
		DateDiff(),
		DateComponent(),
		DateStartOf(),
		DateEndOf(),
		ToMillis(),
		FromMillis(),
	}
}

// Provider returns the functions as a functions.Provider.
func Provider() functions.Provider {
	return extutil.Provider(All)
}

// DateAdd returns meta:date-add($value, $amount, $unit): value shifted by
// amount units. Supported units: year, month, day, hour, minute, second,
// millisecond. Dates only accept year, month and day.
func DateAdd() *functions.Function {
	return extutil.Fn("date-add", atomOpt, func(fn *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		v, ok, err := temporalArg(fn, args[0])
		if err != nil || !ok {
			return item.Empty(), err
		}
		n, err := extutil.Int(fn, args[1])
		if err != nil {
			return item.Empty(), err
		}
		unit, err := v.unit(fn, args[2])
		if err != nil {
			return item.Empty(), err
		}
		t := v.t
		switch unit {
		case "year":
			t = t.AddDate(int(n), 0, 0)
		case "month":
			t = t.AddDate(0, int(n), 0)
		case "day":
			t = t.AddDate(0, 0, int(n))
		default:
			t = t.Add(time.Duration(n) * timeUnits[unit])
		}
		return v.result(t)
	}, optTemporal, functions.Arg("amount", "integer", functions.ExactlyOne), unitArg)
}

// DateDiff returns meta:date-diff($from, $to, $unit): the number of whole
// units from $from to $to.
func DateDiff() *functions.Function {
	return extutil.Fn("date-diff", intOpt, func(fn *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		from, ok, err := temporalArg(fn, args[0])
		if err != nil || !ok {
			return item.Empty(), err
		}
		to, ok, err := temporalArg(fn, args[1])
		if err != nil || !ok {
			return item.Empty(), err
		}
		unit, err := from.unit(fn, args[2])
		if err != nil {
			return item.Empty(), err
		}
		switch unit {
		case "year":
			years, _ := diffYearsMonths(from.t, to.t)
			return extutil.Integer(int64(years)), nil
		case "month":
			years, months := diffYearsMonths(from.t, to.t)
			return extutil.Integer(int64(years*12 + months)), nil
		case "day":
			return extutil.Integer(int64(to.t.Sub(from.t) / (24 * time.Hour))), nil
		}
		return extutil.Integer(int64(to.t.Sub(from.t) / timeUnits[unit])), nil
	}, functions.Arg("from", functions.AnyAtomic, functions.ZeroOrOne), functions.Arg("to", functions.AnyAtomic, functions.ZeroOrOne), unitArg)
}

// DateComponent returns meta:date-component($value, $unit): one calendar
// field of the value. Besides the date-add units it accepts weekday, where
// Sunday is 0.
func DateComponent() *functions.Function {
	return extutil.Fn("date-component", intOpt, func(fn *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		v, ok, err := temporalArg(fn, args[0])
		if err != nil || !ok {
			return item.Empty(), err
		}
		name := strings.ToLower(extutil.OptString(args[1]))
		t := v.t
		var n int
		switch name {
		case "year":
			n = t.Year()
		case "month":
			n = int(t.Month())
		case "day":
			n = t.Day()
		case "weekday":
			n = int(t.Weekday())
		default:
			if _, err := v.unit(fn, args[1]); err != nil {
				return item.Empty(), err
			}
			switch name {
			case "hour":
				n = t.Hour()
			case "minute":
				n = t.Minute()
			case "second":
				n = t.Second()
			case "millisecond":
				n = t.Nanosecond() / int(time.Millisecond)
			}
		}
		return extutil.Integer(int64(n)), nil
	}, optTemporal, unitArg)
}

// DateStartOf returns meta:date-start-of($value, $unit): the value truncated
// to the start of the unit.
func DateStartOf() *functions.Function {
	return extutil.Fn("date-start-of", atomOpt, func(fn *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		v, ok, err := temporalArg(fn, args[0])
		if err != nil || !ok {
			return item.Empty(), err
		}
		unit, err := v.unit(fn, args[1])
		if err != nil {
			return item.Empty(), err
		}
		return v.result(startOf(v.t, unit))
	}, optTemporal, unitArg)
}

// DateEndOf returns meta:date-end-of($value, $unit): the last millisecond of
// the unit holding the value, or its last day for dates.
func DateEndOf() *functions.Function {
	return extutil.Fn("date-end-of", atomOpt, func(fn *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		v, ok, err := temporalArg(fn, args[0])
		if err != nil || !ok {
			return item.Empty(), err
		}
		unit, err := v.unit(fn, args[1])
		if err != nil {
			return item.Empty(), err
		}
		start := startOf(v.t, unit)
		var next time.Time
		switch unit {
		case "year":
			next = start.AddDate(1, 0, 0)
		case "month":
			next = start.AddDate(0, 1, 0)
		case "day":
			next = start.AddDate(0, 0, 1)
		default:
			next = start.Add(timeUnits[unit])
		}
		if v.date {
			return v.result(next.AddDate(0, 0, -1))
		}
		return v.result(next.Add(-time.Millisecond))
	}, optTemporal, unitArg)
}

// ToMillis returns meta:to-millis($value): milliseconds since the Unix
// epoch.
func ToMillis() *functions.Function {
	return extutil.Fn("to-millis", intOpt, func(fn *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		v, ok, err := temporalArg(fn, args[0])
		if err != nil || !ok {
			return item.Empty(), err
		}
		return extutil.Integer(v.t.UnixMilli()), nil
	}, optTemporal)
}

// FromMillis returns meta:from-millis($millis): the UTC date-time that many
// milliseconds after the Unix epoch.
func FromMillis() *functions.Function {
	return extutil.Fn("from-millis", functions.Seq("date-time-with-timezone", functions.ZeroOrOne), func(fn *functions.Function, args []item.Sequence, _ functions.DynamicContext, _ item.Item) (item.Sequence, error) {
		if args[0].IsEmpty() {
			return item.Empty(), nil
		}
		ms, err := extutil.Int(fn, args[0])
		if err != nil {
			return item.Empty(), err
		}
		t := time.UnixMilli(ms).UTC()
		return item.Of(datatype.DateTimeWithTimezone.MustItem(datatype.DateTime{Time: t, HasTimezone: true})), nil
	}, functions.Arg("millis", "integer", functions.ZeroOrOne))
}

// ── helpers ────────────────────────────────────────────────────────────────

var timeUnits = map[string]time.Duration{
	"hour":        time.Hour,
	"minute":      time.Minute,
	"second":      time.Second,
	"millisecond": time.Millisecond,
}

// temporal is a date or date-time argument.
type temporal struct {
	t       time.Time
	hasZone bool
	date    bool
	typ     *datatype.Adapter
}

func temporalArg(fn *functions.Function, seq item.Sequence) (temporal, bool, error) {
	a, ok := extutil.OptAtomic(seq)
	if !ok {
		return temporal{}, false, nil
	}
	typ, err := datatype.AdapterOf(a)
	if err != nil {
		return temporal{}, false, err
	}
	switch v := a.Value().(type) {
	case datatype.DateTime:
		return temporal{t: v.Time, hasZone: v.HasTimezone, typ: typ}, true, nil
	case datatype.Date:
		return temporal{t: v.Time, hasZone: v.HasTimezone, date: true, typ: typ}, true, nil
	}
	if datatype.IsStringLike(typ) {
		s := strings.TrimSpace(a.String())
		if v, err := datatype.DateTimeType.Parse(s); err == nil {
			dt := v.(datatype.DateTime)
			return temporal{t: dt.Time, hasZone: dt.HasTimezone, typ: datatype.DateTimeType}, true, nil
		}
		if v, err := datatype.DateType.Parse(s); err == nil {
			d := v.(datatype.Date)
			return temporal{t: d.Time, hasZone: d.HasTimezone, date: true, typ: datatype.DateType}, true, nil
		}
	}
	return temporal{}, false, extutil.Errorf(fn, "%s value %q is not a date or date-time", typ.Name(), a.String())
}

// unit reads a unit argument valid for v.
func (v temporal) unit(fn *functions.Function, seq item.Sequence) (string, error) {
	unit := strings.ToLower(extutil.OptString(seq))
	switch unit {
	case "year", "month", "day":
		return unit, nil
	}
	if _, ok := timeUnits[unit]; !ok {
		return "", extutil.Errorf(fn, "unsupported unit %q", unit)
	}
	if v.date {
		return "", extutil.Errorf(fn, "unit %q does not apply to a date", unit)
	}
	return unit, nil
}

// result wraps t in the type of v.
func (v temporal) result(t time.Time) (item.Sequence, error) {
	var val any = datatype.DateTime{Time: t, HasTimezone: v.hasZone}
	if v.date {
		y, m, d := t.Date()
		val = datatype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, t.Location()), HasTimezone: v.hasZone}
	}
	it, err := v.typ.NewItem(val)
	if err != nil {
		return item.Empty(), err
	}
	return item.Of(it), nil
}

func startOf(t time.Time, unit string) time.Time {
	loc := t.Location()
	switch unit {
	case "year":
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, loc)
	case "month":
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
	case "day":
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	}
	return t.Truncate(timeUnits[unit])
}

// diffYearsMonths returns the whole years and remaining months from from to
// to.
func diffYearsMonths(from, to time.Time) (years, months int) {
	if to.Before(from) {
		y, m := diffYearsMonths(to, from)
		return -y, -m
	}
	y1, m1, d1 := from.Date()
	y2, m2, d2 := to.Date()
	years = y2 - y1
	months = int(m2) - int(m1)
	if d2 < d1 {
		months--
	}
	if months < 0 {
		years--
		months += 12
	}
	return years, months
}
