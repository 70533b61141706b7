package datatype

import (
	"bytes"
	"encoding/base64"
	"errors"
	"net/mail"
	"net/netip"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	tokenPattern    = regexp.MustCompile(`^(\p{L}|_)(\p{L}|\p{N}|[.\-_])*$`)
	ncnamePattern   = regexp.MustCompile(`^(\p{L}|_)(\p{L}|\p{N}|[.\-_]|\p{Mn}|\p{Mc})*$`)
	uuidPattern     = regexp.MustCompile(`^[0-9A-Fa-f]{8}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{12}$`)
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)
	hostnamePattern = regexp.MustCompile(`^(?i)[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)*\.?$`)
	base64Pattern   = regexp.MustCompile(`^[A-Za-z0-9+/]*={0,2}$`)
)

// Built-in data types.
var (
	Boolean = NewAdapter(Spec{
		Name:      "boolean",
		Category:  CategoryBoolean,
		Parse:     parseBoolean,
		Format:    func(v any) string { return formatBoolean(v.(bool)) },
		Normalize: normalizeBool,
	})
	Integer = NewAdapter(Spec{
		Name:      "integer",
		Category:  CategoryNumeric,
		Base:      Decimal,
		Parse:     parseInteger,
		Format:    formatDecimal,
		Normalize: normalizeNumber,
		Copy:      copyDecimal,
	})
	NonNegativeInteger = NewAdapter(Spec{
		Name:      "non-negative-integer",
		Aliases:   []string{"nonNegativeInteger"},
		Category:  CategoryNumeric,
		Base:      Integer,
		Parse:     parseNonNegativeInteger,
		Format:    formatDecimal,
		Normalize: normalizeNumber,
		Copy:      copyDecimal,
	})
	PositiveInteger = NewAdapter(Spec{
		Name:      "positive-integer",
		Aliases:   []string{"positiveInteger"},
		Category:  CategoryNumeric,
		Base:      NonNegativeInteger,
		Parse:     parsePositiveInteger,
		Format:    formatDecimal,
		Normalize: normalizeNumber,
		Copy:      copyDecimal,
	})
	Decimal = NewAdapter(Spec{
		Name:      "decimal",
		Category:  CategoryNumeric,
		Parse:     parseDecimal,
		Format:    formatDecimal,
		Normalize: normalizeNumber,
		Copy:      copyDecimal,
	})
	String = NewAdapter(Spec{
		Name:      "string",
		Category:  CategoryString,
		Parse:     func(s string) (any, error) { return s, nil },
		Format:    formatString,
		Normalize: normalizeString,
	})
	Token = NewAdapter(Spec{
		Name:      "token",
		Category:  CategoryString,
		Base:      String,
		Parse:     patternParser(tokenPattern, "a token"),
		Format:    formatString,
		Normalize: normalizeString,
	})
	NCName = NewAdapter(Spec{
		Name:      "ncname",
		Aliases:   []string{"NCName"},
		Category:  CategoryString,
		Base:      String,
		Parse:     patternParser(ncnamePattern, "a non-colonized name"),
		Format:    formatString,
		Normalize: normalizeString,
	})
	URI = NewAdapter(Spec{
		Name:      "uri",
		Category:  CategoryString,
		Base:      String,
		Parse:     parseURI,
		Format:    formatString,
		Normalize: normalizeURI,
	})
	URIReference = NewAdapter(Spec{
		Name:      "uri-reference",
		Category:  CategoryString,
		Base:      String,
		Parse:     parseURIReference,
		Format:    formatString,
		Normalize: normalizeURI,
	})
	EmailAddress = NewAdapter(Spec{
		Name:      "email-address",
		Aliases:   []string{"email"},
		Category:  CategoryString,
		Base:      String,
		Parse:     parseEmail,
		Format:    formatString,
		Normalize: normalizeString,
	})
	Hostname = NewAdapter(Spec{
		Name:      "hostname",
		Category:  CategoryString,
		Base:      String,
		Parse:     patternParser(hostnamePattern, "a hostname"),
		Format:    formatString,
		Normalize: normalizeString,
	})
	MarkupLineType = NewAdapter(Spec{
		Name:     "markup-line",
		Category: CategoryString,
		Base:     String,
		Parse:    parseMarkupLine,
		Format:   formatString,
		Normalize: func(v any) (any, bool) {
			m, ok := v.(MarkupLine)
			return m, ok
		},
	})
	MarkupMultilineType = NewAdapter(Spec{
		Name:     "markup-multiline",
		Category: CategoryString,
		Base:     String,
		Parse:    parseMarkupMultiline,
		Format:   formatString,
		Normalize: func(v any) (any, bool) {
			m, ok := v.(MarkupMultiline)
			return m, ok
		},
	})
	UUID = NewAdapter(Spec{
		Name:      "uuid",
		Category:  CategoryString,
		Parse:     parseUUID,
		Format:    func(v any) string { return v.(uuid.UUID).String() },
		Normalize: normalizeUUID,
	})
	IPv4Address = NewAdapter(Spec{
		Name:      "ip-v4-address",
		Category:  CategoryString,
		Parse:     ipParser(true),
		Format:    func(v any) string { return v.(netip.Addr).String() },
		Normalize: normalizeIP,
	})
	IPv6Address = NewAdapter(Spec{
		Name:      "ip-v6-address",
		Category:  CategoryString,
		Parse:     ipParser(false),
		Format:    func(v any) string { return v.(netip.Addr).String() },
		Normalize: normalizeIP,
	})
	Base64 = NewAdapter(Spec{
		Name:      "base64",
		Aliases:   []string{"base64Binary"},
		Category:  CategoryBinary,
		Parse:     parseBase64,
		Format:    func(v any) string { return base64.StdEncoding.EncodeToString(v.([]byte)) },
		Normalize: normalizeBytes,
		Copy:      func(v any) any { return bytes.Clone(v.([]byte)) },
	})
	DateType = NewAdapter(Spec{
		Name:      "date",
		Category:  CategoryDate,
		Parse:     parseDate,
		Format:    formatDate,
		Normalize: normalizeDate,
	})
	DateWithTimezone = NewAdapter(Spec{
		Name:      "date-with-timezone",
		Category:  CategoryDate,
		Base:      DateType,
		Parse:     parseDateWithTimezone,
		Format:    formatDate,
		Normalize: normalizeDate,
	})
	DateTimeType = NewAdapter(Spec{
		Name:      "date-time",
		Aliases:   []string{"dateTime"},
		Category:  CategoryDateTime,
		Parse:     parseDateTime,
		Format:    formatDateTime,
		Normalize: normalizeDateTime,
	})
	DateTimeWithTimezone = NewAdapter(Spec{
		Name:      "date-time-with-timezone",
		Aliases:   []string{"dateTime-with-timezone"},
		Category:  CategoryDateTime,
		Base:      DateTimeType,
		Parse:     parseDateTimeWithTimezone,
		Format:    formatDateTime,
		Normalize: normalizeDateTime,
	})
	DayTimeDuration = NewAdapter(Spec{
		Name:      "day-time-duration",
		Aliases:   []string{"dayTimeDuration"},
		Category:  CategoryDayTimeDuration,
		Parse:     parseDayTimeDuration,
		Format:    formatDayTimeDuration,
		Normalize: normalizeDayTimeDuration,
	})
	YearMonthDurationType = NewAdapter(Spec{
		Name:      "year-month-duration",
		Aliases:   []string{"yearMonthDuration"},
		Category:  CategoryYearMonthDuration,
		Parse:     parseYearMonthDuration,
		Format:    formatYearMonthDuration,
		Normalize: normalizeYearMonthDuration,
	})
)

// Builtins returns the built-in adapters in registration order. Among the
// types holding plain Go strings, string comes first.
func Builtins() []*Adapter {
	return []*Adapter{
		Boolean,
		Integer,
		NonNegativeInteger,
		PositiveInteger,
		Decimal,
		String,
		Token,
		NCName,
		URI,
		URIReference,
		EmailAddress,
		Hostname,
		MarkupLineType,
		MarkupMultilineType,
		UUID,
		IPv4Address,
		IPv6Address,
		Base64,
		DateType,
		DateWithTimezone,
		DateTimeType,
		DateTimeWithTimezone,
		DayTimeDuration,
		YearMonthDurationType,
	}
}

func parseBoolean(s string) (any, error) {
	switch s {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	}
	return nil, errors.New("expected true, false, 1 or 0")
}

func formatBoolean(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func normalizeBool(v any) (any, bool) {
	b, ok := v.(bool)
	return b, ok
}

func formatString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case MarkupLine:
		return string(s)
	case MarkupMultiline:
		return string(s)
	}
	return ""
}

func normalizeString(v any) (any, bool) {
	s, ok := v.(string)
	return s, ok
}

func patternParser(re *regexp.Regexp, what string) func(string) (any, error) {
	return func(s string) (any, error) {
		if !re.MatchString(s) {
			return nil, errors.New("not " + what)
		}
		return s, nil
	}
}

func parseURI(s string) (any, error) {
	u, err := parseURIReference(s)
	if err != nil {
		return nil, err
	}
	if parsed, _ := url.Parse(s); !parsed.IsAbs() {
		return nil, errors.New("an absolute URI with a scheme is required")
	}
	return u, nil
}

func parseURIReference(s string) (any, error) {
	if strings.ContainsAny(s, " \t\r\n") {
		return nil, errors.New("URIs cannot contain whitespace")
	}
	if _, err := url.Parse(s); err != nil {
		return nil, err
	}
	return s, nil
}

func normalizeURI(v any) (any, bool) {
	switch u := v.(type) {
	case *url.URL:
		if u == nil {
			return nil, false
		}
		return u.String(), true
	case string:
		return u, true
	}
	return nil, false
}

func parseEmail(s string) (any, error) {
	if !emailPattern.MatchString(s) {
		return nil, errors.New("expected local-part@domain")
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return nil, err
	}
	if addr.Address != s {
		return nil, errors.New("expected a bare address without display name")
	}
	return s, nil
}

func parseUUID(s string) (any, error) {
	if !uuidPattern.MatchString(s) {
		return nil, errors.New("expected 8-4-4-4-12 hexadecimal digits")
	}
	return uuid.Parse(s)
}

func normalizeUUID(v any) (any, bool) {
	switch u := v.(type) {
	case uuid.UUID:
		return u, true
	case [16]byte:
		return uuid.UUID(u), true
	}
	return nil, false
}

func ipParser(v4 bool) func(string) (any, error) {
	return func(s string) (any, error) {
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return nil, err
		}
		if addr.Zone() != "" {
			return nil, errors.New("zoned addresses are not allowed")
		}
		if v4 && !addr.Is4() {
			return nil, errors.New("not an IPv4 address")
		}
		if !v4 && !addr.Is6() {
			return nil, errors.New("not an IPv6 address")
		}
		return addr, nil
	}
}

func normalizeIP(v any) (any, bool) {
	a, ok := v.(netip.Addr)
	return a, ok && a.IsValid()
}

func parseBase64(s string) (any, error) {
	if !base64Pattern.MatchString(s) {
		return nil, errors.New("invalid base64 alphabet")
	}
	return base64.StdEncoding.DecodeString(s)
}

func normalizeBytes(v any) (any, bool) {
	b, ok := v.([]byte)
	if !ok {
		return nil, false
	}
	return bytes.Clone(b), true
}
