package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// FlexInt is an integer field that web forms may send as a JSON number or as
// a decimal string. Decoding never fails on the value itself; callers decide
// what an unparseable or missing value means.
type FlexInt struct {
	// Raw is the textual value with surrounding whitespace and quotes removed
	Raw string

	// Present is false when the field was omitted or null
	Present bool
}

// IntValue returns a FlexInt carrying n.
func IntValue(n int64) FlexInt {
	return FlexInt{Raw: strconv.FormatInt(n, 10), Present: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = FlexInt{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexInt{Raw: strings.TrimSpace(s), Present: true}
		return nil
	}
	*f = FlexInt{Raw: string(b), Present: true}
	return nil
}

// MarshalJSON implements json.Marshaler. Integers are written as numbers,
// anything else as a string so it round-trips to the server unchanged.
func (f FlexInt) MarshalJSON() ([]byte, error) {
	if !f.Present {
		return []byte("null"), nil
	}
	if n, ok := f.Int(); ok {
		return []byte(strconv.FormatInt(n, 10)), nil
	}
	return json.Marshal(f.Raw)
}

// Empty reports whether the field is missing, null or an empty string.
func (f FlexInt) Empty() bool {
	return !f.Present || f.Raw == ""
}

// Int parses the value as a base-10 integer. Fractions, exponents and
// trailing garbage are rejected.
func (f FlexInt) Int() (int64, bool) {
	if f.Empty() {
		return 0, false
	}
	n, err := strconv.ParseInt(f.Raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
