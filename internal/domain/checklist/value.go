package checklist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int

// Value variants.
const (
	KindNone Kind = iota
	KindBool
	KindNumber
	KindText
	KindChoice
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindChoice:
		return "choice"
	default:
		return "none"
	}
}

// ErrUnsupportedValue is returned when a JSON value has no Value variant.
var ErrUnsupportedValue = errors.New("unsupported response value")

// Value is a response or target value. Exactly one variant is set, chosen by
// Kind; the zero Value is KindNone and stands for "no value recorded".
type Value struct {
	kind    Kind
	b       bool
	n       float64
	s       string
	choices []string
}

// Bool builds a yes/no value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number builds a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Text builds a free-text value.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Choice builds a selection from a dropdown or multiple-choice list.
func Choice(selected ...string) Value {
	return Value{kind: KindChoice, choices: slices.Clone(selected)}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsZero reports whether no value was recorded.
func (v Value) IsZero() bool { return v.kind == KindNone }

// Bool returns the boolean variant.
func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Number returns the value as a float64. Text that parses as a number is
// accepted since numeric answers often arrive as strings from form inputs.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.n, true
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Text returns the text variant. A single-selection Choice reads as text too.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case KindText:
		return v.s, true
	case KindChoice:
		if len(v.choices) == 1 {
			return v.choices[0], true
		}
	}
	return "", false
}

// Choices returns the selected options. Text counts as a single selection.
func (v Value) Choices() []string {
	switch v.kind {
	case KindChoice:
		return slices.Clone(v.choices)
	case KindText:
		return []string{v.s}
	default:
		return nil
	}
}

// Equal reports exact value equality. Text and single-element Choice compare
// as the same selection; multi-selections compare order-insensitively. No
// other cross-variant coercion happens.
func (v Value) Equal(o Value) bool {
	if isSelection(v.kind) && isSelection(o.kind) {
		a, b := v.Choices(), o.Choices()
		if len(a) != len(b) {
			return false
		}
		slices.Sort(a)
		slices.Sort(b)
		return slices.Equal(a, b)
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	default:
		return true
	}
}

func isSelection(k Kind) bool { return k == KindText || k == KindChoice }

// String renders the value for reports.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindText:
		return v.s
	case KindChoice:
		return strings.Join(v.choices, ", ")
	default:
		return ""
	}
}

// MarshalJSON encodes the value as its natural JSON type.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			return json.Marshal(v.String())
		}
		return json.Marshal(v.n)
	case KindText:
		return json.Marshal(v.s)
	case KindChoice:
		return json.Marshal(v.choices)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON maps JSON booleans, numbers, strings and string arrays onto
// the Bool, Number, Text and Choice variants. null leaves the value empty.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = Value{}
		return nil
	}
	switch data[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("decode bool value: %w", err)
		}
		*v = Bool(b)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode text value: %w", err)
		}
		*v = Text(s)
	case '[':
		var sel []string
		if err := json.Unmarshal(data, &sel); err != nil {
			return fmt.Errorf("decode choice value: %w", err)
		}
		*v = Choice(sel...)
	case '{':
		return fmt.Errorf("%w: object", ErrUnsupportedValue)
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("decode number value: %w", err)
		}
		*v = Number(n)
	}
	return nil
}
