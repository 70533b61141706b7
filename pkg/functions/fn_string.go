package functions

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sandrolain/metapath/pkg/datatype"
	"github.com/sandrolain/metapath/pkg/item"
	"github.com/sandrolain/metapath/pkg/types"
)

func fnString(_ *Function, args []item.Sequence, _ DynamicContext, focus item.Item) (item.Sequence, error) {
	seq := focusArgument(args, focus)
	if seq.IsEmpty() {
		return str(""), nil
	}
	v, ok, err := datatype.AtomizeItem(seq.At(0))
	if err != nil {
		return item.Empty(), err
	}
	if !ok {
		return str(""), nil
	}
	return str(v.String()), nil
}

func fnStringLength(_ *Function, args []item.Sequence, dctx DynamicContext, focus item.Item) (item.Sequence, error) {
	s, err := stringArgOrFocus(args, dctx, focus)
	if err != nil {
		return item.Empty(), err
	}
	return integer(int64(utf8.RuneCountInString(s))), nil
}

func fnNormalizeSpace(_ *Function, args []item.Sequence, dctx DynamicContext, focus item.Item) (item.Sequence, error) {
	s, err := stringArgOrFocus(args, dctx, focus)
	if err != nil {
		return item.Empty(), err
	}
	return str(strings.Join(strings.Fields(s), " ")), nil
}

// stringArgOrFocus returns the string argument, or the string value of the
// focus for the zero-argument form.
func stringArgOrFocus(args []item.Sequence, dctx DynamicContext, focus item.Item) (string, error) {
	if len(args) > 0 {
		return optionalString(args[0]), nil
	}
	seq, err := fnString(nil, nil, dctx, focus)
	if err != nil {
		return "", err
	}
	return optionalString(seq), nil
}

func fnConcat(_ *Function, args []item.Sequence, _ DynamicContext, _ item.Item) (item.Sequence, error) {
	var sb strings.Builder
	for _, a := range args {
		sb.WriteString(optionalString(a))
	}
	return str(sb.String()), nil
}

func fnStringJoin(_ *Function, args []item.Sequence, _ DynamicContext, _ item.Item) (item.Sequence, error) {
	sep := ""
	if len(args) > 1 {
		sep = optionalString(args[1])
	}
	parts := make([]string, 0, args[0].Len())
	for it := range args[0].Values() {
		parts = append(parts, it.String())
	}
	return str(strings.Join(parts, sep)), nil
}

func fnContains(_ *Function, args []item.Sequence, _ DynamicContext, _ item.Item) (item.Sequence, error) {
	return boolean(strings.Contains(optionalString(args[0]), optionalString(args[1]))), nil
}

func fnStartsWith(_ *Function, args []item.Sequence, _ DynamicContext, _ item.Item) (item.Sequence, error) {
	return boolean(strings.HasPrefix(optionalString(args[0]), optionalString(args[1]))), nil
}

func fnEndsWith(_ *Function, args []item.Sequence, _ DynamicContext, _ item.Item) (item.Sequence, error) {
	return boolean(strings.HasSuffix(optionalString(args[0]), optionalString(args[1]))), nil
}

func fnSubstringBefore(_ *Function, args []item.Sequence, _ DynamicContext, _ item.Item) (item.Sequence, error) {
	before, _, found := strings.Cut(optionalString(args[0]), optionalString(args[1]))
	if !found {
		return str(""), nil
	}
	return str(before), nil
}

func fnSubstringAfter(_ *Function, args []item.Sequence, _ DynamicContext, _ item.Item) (item.Sequence, error) {
	_, after, found := strings.Cut(optionalString(args[0]), optionalString(args[1]))
	if !found {
		return str(""), nil
	}
	return str(after), nil
}

func fnUpperCase(_ *Function, args []item.Sequence, _ DynamicContext, _ item.Item) (item.Sequence, error) {
	return str(strings.ToUpper(optionalString(args[0]))), nil
}

func fnLowerCase(_ *Function, args []item.Sequence, _ DynamicContext, _ item.Item) (item.Sequence, error) {
	return str(strings.ToLower(optionalString(args[0]))), nil
}

// roundedPosition rounds a numeric argument half up to an int.
func roundedPosition(seq item.Sequence) (int64, error) {
	r, err := datatype.Round(seq.At(0).(item.AtomicItem), 0)
	if err != nil {
		return 0, err
	}
	return datatype.Int64Of(r)
}

// fnSubstring returns the characters at positions p with
// start <= p < start+length, positions counted from 1 after rounding.
func fnSubstring(_ *Function, args []item.Sequence, _ DynamicContext, _ item.Item) (item.Sequence, error) {
	runes := []rune(optionalString(args[0]))
	start, err := roundedPosition(args[1])
	if err != nil {
		return item.Empty(), err
	}
	end := int64(len(runes)) + 1
	if len(args) > 2 {
		length, err := roundedPosition(args[2])
		if err != nil {
			return item.Empty(), err
		}
		end = min(end, start+length)
	}
	from := max(start, 1)
	if from >= end {
		return str(""), nil
	}
	return str(string(runes[from-1 : end-1])), nil
}

func fnCompare(_ *Function, args []item.Sequence, dctx DynamicContext, _ item.Item) (item.Sequence, error) {
	if args[0].IsEmpty() || args[1].IsEmpty() {
		return item.Empty(), nil
	}
	a, b := args[0].At(0).String(), args[1].At(0).String()
	var c int
	if coll := dctx.Collator(); coll != nil {
		c = coll.CompareString(a, b)
	} else {
		c = strings.Compare(a, b)
	}
	return integer(int64(c)), nil
}

// compileRegex translates the XPath flags to Go syntax.
func compileRegex(pattern, flags string) (*regexp.Regexp, error) {
	var prefix string
	for _, f := range flags {
		switch f {
		case 's', 'm', 'i':
			prefix += string(f)
		case 'x':
			pattern = strings.Join(strings.Fields(pattern), "")
		case 'q':
			pattern = regexp.QuoteMeta(pattern)
		default:
			return nil, types.Errorf(types.ErrInvalidRegex, "invalid regular expression flag %q", f)
		}
	}
	if prefix != "" {
		pattern = "(?" + prefix + ")" + pattern
	}
	re, err := getOrCompileRegex(pattern)
	if err != nil {
		return nil, types.Errorf(types.ErrInvalidRegex, "invalid regular expression %q: %v", pattern, err).WithCause(err)
	}
	return re, nil
}

func regexArgs(args []item.Sequence, flagIndex int) (*regexp.Regexp, error) {
	flags := ""
	if len(args) > flagIndex {
		flags = optionalString(args[flagIndex])
	}
	return compileRegex(optionalString(args[1]), flags)
}

func fnMatches(_ *Function, args []item.Sequence, _ DynamicContext, _ item.Item) (item.Sequence, error) {
	re, err := regexArgs(args, 2)
	if err != nil {
		return item.Empty(), err
	}
	return boolean(re.MatchString(optionalString(args[0]))), nil
}

func fnReplace(_ *Function, args []item.Sequence, _ DynamicContext, _ item.Item) (item.Sequence, error) {
	re, err := regexArgs(args, 3)
	if err != nil {
		return item.Empty(), err
	}
	return str(re.ReplaceAllString(optionalString(args[0]), optionalString(args[2]))), nil
}

func fnTokenize(_ *Function, args []item.Sequence, _ DynamicContext, _ item.Item) (item.Sequence, error) {
	input := optionalString(args[0])
	var parts []string
	if len(args) == 1 {
		parts = strings.Fields(input)
	} else {
		if input == "" {
			return item.Empty(), nil
		}
		re, err := regexArgs(args, 2)
		if err != nil {
			return item.Empty(), err
		}
		parts = re.Split(input, -1)
	}
	out := make([]item.Item, len(parts))
	for i, p := range parts {
		out[i] = datatype.String.MustItem(p)
	}
	return item.Of(out...), nil
}
