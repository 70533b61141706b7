package datatype

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
	"github.com/sandrolain/metapath/pkg/item"
	"github.com/sandrolain/metapath/pkg/types"
)

// DecimalPrecision is the number of significant digits kept by decimal
// arithmetic.
const DecimalPrecision = 34

var decimalContext = apd.BaseContext.WithPrecision(DecimalPrecision)

var (
	integerPattern = regexp.MustCompile(`^[+-]?[0-9]+$`)
	decimalPattern = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)$`)
)

// NumericOp is a binary arithmetic operator.
type NumericOp uint8

const (
	OpAdd NumericOp = iota + 1
	OpSubtract
	OpMultiply
	OpDivide
	OpIntegerDivide
	OpMod
)

// String returns the operator keyword.
func (op NumericOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSubtract:
		return "-"
	case OpMultiply:
		return "*"
	case OpDivide:
		return "div"
	case OpIntegerDivide:
		return "idiv"
	case OpMod:
		return "mod"
	default:
		return "?"
	}
}

func parseInteger(s string) (any, error) {
	if !integerPattern.MatchString(s) {
		return nil, fmt.Errorf("not an integer")
	}
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return cleanZero(d), nil
}

func parseNonNegativeInteger(s string) (any, error) {
	v, err := parseInteger(s)
	if err != nil {
		return nil, err
	}
	if v.(*apd.Decimal).Negative {
		return nil, fmt.Errorf("value must not be negative")
	}
	return v, nil
}

func parsePositiveInteger(s string) (any, error) {
	v, err := parseInteger(s)
	if err != nil {
		return nil, err
	}
	if d := v.(*apd.Decimal); d.Negative || d.IsZero() {
		return nil, fmt.Errorf("value must be greater than zero")
	}
	return v, nil
}

func parseDecimal(s string) (any, error) {
	if !decimalPattern.MatchString(s) {
		return nil, fmt.Errorf("not a decimal")
	}
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return cleanZero(d), nil
}

// cleanZero drops the sign of negative zero.
func cleanZero(d *apd.Decimal) *apd.Decimal {
	if d.IsZero() {
		d.Negative = false
	}
	return d
}

// formatDecimal renders d in fixed notation without trailing fractional
// zeros.
func formatDecimal(v any) string {
	d := v.(*apd.Decimal)
	s := d.Text('f')
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}

func copyDecimal(v any) any {
	var d apd.Decimal
	d.Set(v.(*apd.Decimal))
	return &d
}

func normalizeNumber(v any) (any, bool) {
	switch n := v.(type) {
	case *apd.Decimal:
		if n == nil {
			return nil, false
		}
		return n, true
	case apd.Decimal:
		return &n, true
	case int:
		return apd.New(int64(n), 0), true
	case int8:
		return apd.New(int64(n), 0), true
	case int16:
		return apd.New(int64(n), 0), true
	case int32:
		return apd.New(int64(n), 0), true
	case int64:
		return apd.New(n, 0), true
	case uint:
		return uintDecimal(uint64(n)), true
	case uint8:
		return apd.New(int64(n), 0), true
	case uint16:
		return apd.New(int64(n), 0), true
	case uint32:
		return apd.New(int64(n), 0), true
	case uint64:
		return uintDecimal(n), true
	case float32:
		return floatDecimal(float64(n))
	case float64:
		return floatDecimal(n)
	default:
		return nil, false
	}
}

func uintDecimal(u uint64) *apd.Decimal {
	var d apd.Decimal
	d.Coeff.SetUint64(u)
	return &d
}

func floatDecimal(f float64) (any, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, false
	}
	d, _, err := apd.NewFromString(strconv.FormatFloat(f, 'f', -1, 64))
	if err != nil {
		return nil, false
	}
	return d, true
}

// IsNumeric reports whether it belongs to the numeric category.
func IsNumeric(it item.AtomicItem) bool {
	t, err := AdapterOf(it)
	return err == nil && t.Category() == CategoryNumeric
}

// IsIntegral reports whether it is an integer or one of its restrictions.
func IsIntegral(it item.AtomicItem) bool {
	t, err := AdapterOf(it)
	return err == nil && t.DerivesFrom(Integer)
}

// DecimalOf returns the numeric value of it. The result must not be
// modified.
func DecimalOf(it item.AtomicItem) (*apd.Decimal, error) {
	if !IsNumeric(it) {
		return nil, types.Errorf(types.ErrTypeMismatch, "%s value %q is not numeric", it.Type().Name(), it.String())
	}
	d, ok := raw(it).(*apd.Decimal)
	if !ok {
		return nil, types.Errorf(types.ErrTypeMismatch, "%s value %q is not numeric", it.Type().Name(), it.String())
	}
	return d, nil
}

// Int64Of returns the value of an integral item as int64.
func Int64Of(it item.AtomicItem) (int64, error) {
	d, err := DecimalOf(it)
	if err != nil {
		return 0, err
	}
	var r apd.Decimal
	if err := truncate(&r, d); err != nil {
		return 0, err
	}
	n, err := r.Int64()
	if err != nil {
		return 0, types.Errorf(types.ErrNumericOverflow, "value %s does not fit a 64-bit integer", formatDecimal(d))
	}
	return n, nil
}

// NewDecimal returns a decimal item holding d.
func NewDecimal(d *apd.Decimal) item.AtomicItem {
	var c apd.Decimal
	c.Set(d)
	return atomic{t: Decimal, v: cleanZero(&c)}
}

// NewInteger returns an integer item holding n.
func NewInteger(n int64) item.AtomicItem {
	return atomic{t: Integer, v: apd.New(n, 0)}
}

// numericItem builds an item of type t from an integral or decimal value.
func numericItem(t *Adapter, d *apd.Decimal) (item.AtomicItem, error) {
	if t.DerivesFrom(Integer) {
		return t.ParseItem(formatDecimal(d))
	}
	return NewDecimal(d), nil
}

func arithError(op NumericOp, err error) error {
	return types.Errorf(types.ErrNumericOverflow, "numeric operation %s failed: %v", op, err).WithCause(err)
}

// Arithmetic applies op to two numeric items. The result is an integer when
// both operands are integral, except for div which always yields a decimal.
func Arithmetic(op NumericOp, a, b item.AtomicItem) (item.AtomicItem, error) {
	x, err := DecimalOf(a)
	if err != nil {
		return nil, err
	}
	y, err := DecimalOf(b)
	if err != nil {
		return nil, err
	}
	integral := IsIntegral(a) && IsIntegral(b)
	var r apd.Decimal
	switch op {
	case OpAdd:
		_, err = decimalContext.Add(&r, x, y)
	case OpSubtract:
		_, err = decimalContext.Sub(&r, x, y)
	case OpMultiply:
		_, err = decimalContext.Mul(&r, x, y)
	case OpDivide:
		if y.IsZero() {
			return nil, types.NewError(types.ErrDivisionByZero, "division by zero")
		}
		_, err = decimalContext.Quo(&r, x, y)
		integral = false
	case OpIntegerDivide:
		if y.IsZero() {
			return nil, types.NewError(types.ErrDivisionByZero, "integer division by zero")
		}
		_, err = decimalContext.QuoInteger(&r, x, y)
		integral = true
	case OpMod:
		if y.IsZero() {
			return nil, types.NewError(types.ErrDivisionByZero, "modulus by zero")
		}
		_, err = decimalContext.Rem(&r, x, y)
	default:
		return nil, types.Errorf(types.ErrTypeMismatch, "unknown numeric operator %d", op)
	}
	if err != nil {
		return nil, arithError(op, err)
	}
	if integral {
		return numericItem(Integer, &r)
	}
	return NewDecimal(&r), nil
}

// Negate returns -it. Restricted integer types widen to integer.
func Negate(it item.AtomicItem) (item.AtomicItem, error) {
	x, err := DecimalOf(it)
	if err != nil {
		return nil, err
	}
	var r apd.Decimal
	r.Neg(x)
	if IsIntegral(it) {
		return numericItem(Integer, &r)
	}
	return NewDecimal(&r), nil
}

// Abs returns the absolute value of it with the same type.
func Abs(it item.AtomicItem) (item.AtomicItem, error) {
	x, err := DecimalOf(it)
	if err != nil {
		return nil, err
	}
	t, _ := AdapterOf(it)
	var r apd.Decimal
	r.Abs(x)
	return numericItem(t, &r)
}

// Ceiling rounds it toward positive infinity.
func Ceiling(it item.AtomicItem) (item.AtomicItem, error) {
	return roundWith(it, apd.RoundCeiling, 0)
}

// Floor rounds it toward negative infinity.
func Floor(it item.AtomicItem) (item.AtomicItem, error) {
	return roundWith(it, apd.RoundFloor, 0)
}

// Round rounds it to precision digits after the decimal point, halves going
// toward positive infinity. A negative precision rounds to the left of the
// decimal point.
func Round(it item.AtomicItem, precision int64) (item.AtomicItem, error) {
	x, err := DecimalOf(it)
	if err != nil {
		return nil, err
	}
	mode := apd.RoundHalfUp
	if x.Negative {
		mode = apd.RoundHalfDown
	}
	return roundWith(it, mode, precision)
}

func roundWith(it item.AtomicItem, mode apd.Rounder, precision int64) (item.AtomicItem, error) {
	x, err := DecimalOf(it)
	if err != nil {
		return nil, err
	}
	t, _ := AdapterOf(it)
	if precision >= -int64(x.Exponent) {
		return it, nil
	}
	// Any position beyond the one above the leading digit rounds to zero,
	// so the exponent is clamped there.
	lead := int64(x.NumDigits()) + int64(x.Exponent)
	exp := int32(lead + 1)
	if precision > -(lead + 1) {
		exp = int32(-precision)
	}
	c := decimalContext.WithPrecision(DecimalPrecision)
	c.Rounding = mode
	var r apd.Decimal
	if _, err := c.Quantize(&r, x, exp); err != nil {
		return nil, arithError(OpMultiply, err)
	}
	if exp > 0 {
		// Back to a plain integer coefficient so the result renders without
		// an exponent.
		if _, err := c.Quantize(&r, &r, 0); err != nil {
			return nil, arithError(OpMultiply, err)
		}
	}
	cleanZero(&r)
	return numericItem(t, &r)
}

// truncate sets r to x rounded toward zero.
func truncate(r, x *apd.Decimal) error {
	if x.Exponent >= 0 {
		r.Set(x)
		return nil
	}
	c := decimalContext.WithPrecision(DecimalPrecision)
	c.Rounding = apd.RoundDown
	_, err := c.Quantize(r, x, 0)
	cleanZero(r)
	return err
}
