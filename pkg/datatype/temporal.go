package datatype

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date is a calendar date with an optional timezone. Dates without a
// timezone are held at UTC.
type Date struct {
	Time        time.Time
	HasTimezone bool
}

// DateTime is an instant with an optional timezone. Values without a
// timezone are held at UTC.
type DateTime struct {
	Time        time.Time
	HasTimezone bool
}

// YearMonthDuration is a duration counted in months.
type YearMonthDuration int64

var (
	datePattern     = regexp.MustCompile(`^([0-9]{4})-([0-9]{2})-([0-9]{2})(Z|[+-][0-9]{2}:[0-9]{2})?$`)
	dateTimePattern = regexp.MustCompile(`^([0-9]{4})-([0-9]{2})-([0-9]{2})T([0-9]{2}):([0-9]{2}):([0-9]{2})(\.[0-9]+)?(Z|[+-][0-9]{2}:[0-9]{2})?$`)
	dayTimePattern  = regexp.MustCompile(`^(-)?P(?:([0-9]+)D)?(?:T(?:([0-9]+)H)?(?:([0-9]+)M)?(?:([0-9]+)(?:\.([0-9]+))?S)?)?$`)
	yearMonthRegexp = regexp.MustCompile(`^(-)?P(?:([0-9]+)Y)?(?:([0-9]+)M)?$`)
)

var (
	errTimezoneRequired = errors.New("a timezone is required")
	errInvalidDate      = errors.New("no such calendar date")
	errDurationRange    = errors.New("duration out of range")
)

func parseZone(s string) (*time.Location, bool, error) {
	switch {
	case s == "":
		return time.UTC, false, nil
	case s == "Z":
		return time.UTC, true, nil
	}
	hh, _ := strconv.Atoi(s[1:3])
	mm, _ := strconv.Atoi(s[4:6])
	if hh > 14 || mm > 59 || (hh == 14 && mm > 0) {
		return nil, false, fmt.Errorf("invalid timezone offset %s", s)
	}
	off := hh*3600 + mm*60
	if s[0] == '-' {
		off = -off
	}
	if off == 0 {
		return time.UTC, true, nil
	}
	return time.FixedZone(s, off), true, nil
}

func formatZone(t time.Time, has bool) string {
	if !has {
		return ""
	}
	_, off := t.Zone()
	if off == 0 {
		return "Z"
	}
	sign := '+'
	if off < 0 {
		sign = '-'
		off = -off
	}
	return fmt.Sprintf("%c%02d:%02d", sign, off/3600, (off%3600)/60)
}

func atoi(parts []string) []int {
	out := make([]int, len(parts))
	for i, p := range parts {
		out[i], _ = strconv.Atoi(p)
	}
	return out
}

func parseDate(s string) (any, error) {
	m := datePattern.FindStringSubmatch(s)
	if m == nil {
		return nil, errors.New("expected YYYY-MM-DD with an optional timezone")
	}
	loc, has, err := parseZone(m[4])
	if err != nil {
		return nil, err
	}
	n := atoi(m[1:4])
	t := time.Date(n[0], time.Month(n[1]), n[2], 0, 0, 0, 0, loc)
	if t.Year() != n[0] || int(t.Month()) != n[1] || t.Day() != n[2] {
		return nil, errInvalidDate
	}
	return Date{Time: t, HasTimezone: has}, nil
}

func parseDateWithTimezone(s string) (any, error) {
	v, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	if !v.(Date).HasTimezone {
		return nil, errTimezoneRequired
	}
	return v, nil
}

func formatDate(v any) string {
	d := v.(Date)
	return d.Time.Format("2006-01-02") + formatZone(d.Time, d.HasTimezone)
}

func normalizeDate(v any) (any, bool) {
	switch d := v.(type) {
	case Date:
		return d, true
	default:
		return nil, false
	}
}

func parseDateTime(s string) (any, error) {
	m := dateTimePattern.FindStringSubmatch(s)
	if m == nil {
		return nil, errors.New("expected YYYY-MM-DDThh:mm:ss with optional fraction and timezone")
	}
	loc, has, err := parseZone(m[8])
	if err != nil {
		return nil, err
	}
	n := atoi(m[1:7])
	if n[3] > 23 || n[4] > 59 || n[5] > 59 {
		return nil, errors.New("time of day out of range")
	}
	nsec := 0
	if frac := m[7]; frac != "" {
		digits := frac[1:]
		if len(digits) > 9 {
			digits = digits[:9]
		}
		digits += strings.Repeat("0", 9-len(digits))
		nsec, _ = strconv.Atoi(digits)
	}
	t := time.Date(n[0], time.Month(n[1]), n[2], n[3], n[4], n[5], nsec, loc)
	if t.Year() != n[0] || int(t.Month()) != n[1] || t.Day() != n[2] {
		return nil, errInvalidDate
	}
	return DateTime{Time: t, HasTimezone: has}, nil
}

func parseDateTimeWithTimezone(s string) (any, error) {
	v, err := parseDateTime(s)
	if err != nil {
		return nil, err
	}
	if !v.(DateTime).HasTimezone {
		return nil, errTimezoneRequired
	}
	return v, nil
}

func formatDateTime(v any) string {
	d := v.(DateTime)
	return d.Time.Format("2006-01-02T15:04:05.999999999") + formatZone(d.Time, d.HasTimezone)
}

func normalizeDateTime(v any) (any, bool) {
	switch d := v.(type) {
	case DateTime:
		return d, true
	case time.Time:
		return DateTime{Time: d, HasTimezone: true}, true
	default:
		return nil, false
	}
}

func parseDayTimeDuration(s string) (any, error) {
	m := dayTimePattern.FindStringSubmatch(s)
	if m == nil || s == "P" || s == "-P" || strings.HasSuffix(s, "T") {
		return nil, errors.New("expected an ISO 8601 day-time duration such as P1DT2H")
	}
	var d time.Duration
	units := []time.Duration{24 * time.Hour, time.Hour, time.Minute, time.Second}
	for i, u := range units {
		if m[i+2] == "" {
			continue
		}
		n, err := strconv.ParseInt(m[i+2], 10, 64)
		if err != nil || n > int64(math.MaxInt64/u) {
			return nil, errDurationRange
		}
		part := time.Duration(n) * u
		if d > math.MaxInt64-part {
			return nil, errDurationRange
		}
		d += part
	}
	if m[6] != "" {
		digits := m[6]
		if len(digits) > 9 {
			digits = digits[:9]
		}
		digits += strings.Repeat("0", 9-len(digits))
		ns, _ := strconv.ParseInt(digits, 10, 64)
		if d > math.MaxInt64-time.Duration(ns) {
			return nil, errDurationRange
		}
		d += time.Duration(ns)
	}
	if m[1] == "-" {
		d = -d
	}
	return d, nil
}

func formatDayTimeDuration(v any) string {
	d := v.(time.Duration)
	if d == 0 {
		return "PT0S"
	}
	var sb strings.Builder
	if d < 0 {
		sb.WriteByte('-')
		d = -d
	}
	sb.WriteByte('P')
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	if days > 0 {
		fmt.Fprintf(&sb, "%dD", days)
	}
	if hours > 0 || minutes > 0 || d > 0 {
		sb.WriteByte('T')
		if hours > 0 {
			fmt.Fprintf(&sb, "%dH", hours)
		}
		if minutes > 0 {
			fmt.Fprintf(&sb, "%dM", minutes)
		}
		if d > 0 {
			secs := d / time.Second
			ns := d % time.Second
			if ns == 0 {
				fmt.Fprintf(&sb, "%dS", secs)
			} else {
				frac := strings.TrimRight(fmt.Sprintf("%09d", ns), "0")
				fmt.Fprintf(&sb, "%d.%sS", secs, frac)
			}
		}
	}
	return sb.String()
}

func normalizeDayTimeDuration(v any) (any, bool) {
	d, ok := v.(time.Duration)
	return d, ok
}

func parseYearMonthDuration(s string) (any, error) {
	m := yearMonthRegexp.FindStringSubmatch(s)
	if m == nil || m[2] == "" && m[3] == "" {
		return nil, errors.New("expected an ISO 8601 year-month duration such as P1Y2M")
	}
	var years, months int64
	var err error
	if m[2] != "" {
		if years, err = strconv.ParseInt(m[2], 10, 32); err != nil {
			return nil, errDurationRange
		}
	}
	if m[3] != "" {
		if months, err = strconv.ParseInt(m[3], 10, 32); err != nil {
			return nil, errDurationRange
		}
	}
	total := YearMonthDuration(years*12 + months)
	if m[1] == "-" {
		total = -total
	}
	return total, nil
}

func formatYearMonthDuration(v any) string {
	n := v.(YearMonthDuration)
	if n == 0 {
		return "P0M"
	}
	var sb strings.Builder
	if n < 0 {
		sb.WriteByte('-')
		n = -n
	}
	sb.WriteByte('P')
	if y := n / 12; y > 0 {
		fmt.Fprintf(&sb, "%dY", y)
	}
	if mo := n % 12; mo > 0 {
		fmt.Fprintf(&sb, "%dM", mo)
	}
	return sb.String()
}

func normalizeYearMonthDuration(v any) (any, bool) {
	switch n := v.(type) {
	case YearMonthDuration:
		return n, true
	case int:
		return YearMonthDuration(n), true
	default:
		return nil, false
	}
}
