package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Ref is an id or foreign key exactly as the backend sent it. Endpoints disagree on the
// shape (number, "ORD-00042", nested {"id": ...}), so the raw value is kept and
// normalized by the join layer.
type Ref struct {
	value any
}

func NewRef(v any) Ref {
	return Ref{value: v}
}

func (r Ref) Value() any {
	return r.value
}

func (r Ref) IsZero() bool {
	return r.value == nil
}

func (r *Ref) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("ref: decode: %w", err)
	}
	r.value = v
	return nil
}

func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.value)
}

// Text is a display string that tolerates numbers and null on the wire.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	s := string(bytes.TrimSpace(b))
	switch {
	case s == "null":
		*t = ""
	case strings.HasPrefix(s, `"`):
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*t = Text(v)
	case s == "true" || s == "false":
		*t = Text(s)
	default:
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return fmt.Errorf("text: unsupported value %s", s)
		}
		*t = Text(s)
	}
	return nil
}

func (t Text) String() string {
	return string(t)
}

// Amount is a nullable decimal. Empty strings decode as null. The text the backend
// sent is kept so "100.50" renders and re-encodes as "100.50".
type Amount struct {
	decimal.NullDecimal
	text string
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{NullDecimal: decimal.NewNullDecimal(d)}
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := string(bytes.TrimSpace(b))
	if s == "null" || s == `""` {
		a.Valid = false
		a.Decimal = decimal.Zero
		a.text = ""
		return nil
	}
	if err := a.NullDecimal.UnmarshalJSON(b); err != nil {
		return err
	}
	a.text = strings.TrimSpace(strings.Trim(s, `"`))
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if a.Valid && a.text != "" {
		return json.Marshal(a.text)
	}
	return a.NullDecimal.MarshalJSON()
}

func (a Amount) String() string {
	if !a.Valid {
		return ""
	}
	if a.text != "" {
		return a.text
	}
	return a.Decimal.String()
}
