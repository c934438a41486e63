package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number is a nullable numeric value. The results backend sends scores and
// ranks as numbers, numeric strings, null, or placeholders such as "-",
// "N/A" or "ABS"; all of them decode here so the rest of the code never
// inspects JSON shapes. Placeholders decode as absent.
type Number struct {
	Value float64
	Valid bool

	unparsed string
}

// Num builds a present Number.
func Num(v float64) Number {
	return Number{Value: v, Valid: true}
}

// Float returns the value, or 0 when absent.
func (n Number) Float() float64 {
	if !n.Valid {
		return 0
	}
	return n.Value
}

// Unparsed returns the text of a non-numeric string the backend sent in
// place of a number.
func (n Number) Unparsed() (string, bool) {
	return n.unparsed, n.unparsed != ""
}

// Rank reads the value as a position. Absent and zero ranks are unranked.
func (n Number) Rank() (int, bool) {
	if !n.Valid || n.Value == 0 {
		return 0, false
	}
	return n.Int(), true
}

// Int returns the value rounded half away from zero, or 0 when absent.
func (n Number) Int() int {
	return int(math.Round(n.Float()))
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" || raw == "-" {
			*n = Number{}
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			*n = Number{unparsed: raw}
			return nil
		}
		*n = Num(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid number %s", string(data))
	}
	*n = Num(v)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// ID is an identifier or short label the backend may send either as a JSON
// string or as a number.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*id = ID(raw)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("invalid identifier %s", string(data))
	}
	*id = ID(num.String())
	return nil
}

// String returns the identifier text.
func (id ID) String() string {
	return string(id)
}
