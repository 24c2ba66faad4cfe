package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Number is a numeric feed field that upstreams send either as a JSON number
// or as a decimal string, and sometimes as null. Parsing is deferred so that
// a bad value rejects only the item that carries it.
type Number struct {
	raw      string
	set      bool
	isString bool
}

// NumberOf builds a Number from its textual form; used by tests and fetchers.
func NumberOf(s string) Number {
	return Number{raw: s, set: s != ""}
}

// UnmarshalJSON accepts numbers, strings and null. Booleans, lists and
// objects are rejected.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*n = Number{}
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		*n = Number{raw: s, set: s != "", isString: true}
	case b[0] == '-' || (b[0] >= '0' && b[0] <= '9'):
		*n = Number{raw: string(b), set: true}
	default:
		return fmt.Errorf("expected number or numeric string, got %s", b)
	}
	return nil
}

// MarshalJSON writes the number back in its original textual form.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.set {
		return []byte("null"), nil
	}
	if n.isString {
		return json.Marshal(n.raw)
	}
	return []byte(n.raw), nil
}

// IsSet reports whether the field carried a non-empty value.
func (n Number) IsSet() bool { return n.set }

// String returns the raw text of the value.
func (n Number) String() string { return n.raw }

// Decimal parses the value. Unset values are zero.
func (n Number) Decimal() (decimal.Decimal, error) {
	if !n.set {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(n.raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid number %q", n.raw)
	}
	return d, nil
}

var maxInt = decimal.NewFromInt(math.MaxInt32)

// Int parses the value as a non-negative count such as a token limit. JSON
// numbers with a fractional part are truncated; fractional strings are
// rejected, as are negative values and values above math.MaxInt32.
func (n Number) Int() (int, error) {
	d, err := n.Decimal()
	if err != nil {
		return 0, err
	}
	if n.isString && !d.IsInteger() {
		return 0, fmt.Errorf("invalid integer %q", n.raw)
	}
	d = d.Truncate(0)
	if d.IsNegative() || d.GreaterThan(maxInt) {
		return 0, fmt.Errorf("integer %s out of range", n.raw)
	}
	return int(d.IntPart()), nil
}
