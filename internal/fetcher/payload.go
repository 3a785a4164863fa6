package fetcher

import (
	"errors"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned by ParsePayload for a body that is not JSON.
var ErrInvalidJSON = errors.New("response is not valid JSON")

// Payload is a decoded JSON response body. Object fields keep the order in
// which the remote API sent them.
type Payload struct {
	raw gjson.Result
}

// ParsePayload validates and wraps a JSON body.
func ParsePayload(body []byte) (Payload, error) {
	if !gjson.ValidBytes(body) {
		return Payload{}, ErrInvalidJSON
	}
	return Payload{raw: gjson.ParseBytes(body)}, nil
}

// MustParsePayload is ParsePayload for literals known to be valid, mainly in tests.
func MustParsePayload(body string) Payload {
	p, err := ParsePayload([]byte(body))
	if err != nil {
		panic(err)
	}
	return p
}

// Exists reports whether the payload holds a value.
func (p Payload) Exists() bool { return p.raw.Exists() }

// IsObject reports whether the payload is a JSON object.
func (p Payload) IsObject() bool { return p.raw.IsObject() }

// IsArray reports whether the payload is a JSON array.
func (p Payload) IsArray() bool { return p.raw.IsArray() }

// Raw returns the payload as JSON text.
func (p Payload) Raw() string { return p.raw.Raw }

// Keys returns the field names of an object in document order.
func (p Payload) Keys() []string {
	if !p.raw.IsObject() {
		return nil
	}
	var keys []string
	p.raw.ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return keys
}

// Len returns the number of fields of an object or elements of an array.
func (p Payload) Len() int {
	switch {
	case p.raw.IsObject():
		n := 0
		p.raw.ForEach(func(_, _ gjson.Result) bool {
			n++
			return true
		})
		return n
	case p.raw.IsArray():
		return len(p.raw.Array())
	}
	return 0
}

// Field returns the value of an object field. Field names are matched
// literally; no path syntax is interpreted.
func (p Payload) Field(key string) (Payload, bool) {
	if !p.raw.IsObject() {
		return Payload{}, false
	}
	var out gjson.Result
	found := false
	p.raw.ForEach(func(k, v gjson.Result) bool {
		if k.String() == key {
			out = v
			found = true
			return false
		}
		return true
	})
	return Payload{raw: out}, found
}

// Index returns the i-th element of an array.
func (p Payload) Index(i int) (Payload, bool) {
	if !p.raw.IsArray() || i < 0 {
		return Payload{}, false
	}
	elems := p.raw.Array()
	if i >= len(elems) {
		return Payload{}, false
	}
	return Payload{raw: elems[i]}, true
}

// Elements returns the elements of an array.
func (p Payload) Elements() []Payload {
	if !p.raw.IsArray() {
		return nil
	}
	elems := p.raw.Array()
	out := make([]Payload, len(elems))
	for i, e := range elems {
		out[i] = Payload{raw: e}
	}
	return out
}

// String returns the value as a string.
func (p Payload) String() string { return p.raw.String() }

// Float returns a numeric value. Numeric strings are accepted.
func (p Payload) Float() (float64, bool) {
	switch p.raw.Type {
	case gjson.Number:
		return p.raw.Num, true
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(p.raw.Str), 64)
		return f, err == nil
	}
	return 0, false
}

// Truthy reports whether the value is non-empty: not null, false, zero or "".
func (p Payload) Truthy() bool {
	switch p.raw.Type {
	case gjson.Null:
		return false
	case gjson.False:
		return false
	case gjson.Number:
		return p.raw.Num != 0
	case gjson.String:
		return p.raw.Str != ""
	case gjson.True:
		return true
	}
	// objects and arrays
	return p.Len() > 0
}

// Value converts the payload to a plain Go value: string, int64 (for integer
// literals that fit), float64, bool or nil. Objects and arrays are returned as
// their JSON text.
func (p Payload) Value() any {
	switch p.raw.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.String:
		return p.raw.Str
	case gjson.Number:
		if isIntegerLiteral(p.raw.Raw) {
			if n, err := strconv.ParseInt(p.raw.Raw, 10, 64); err == nil {
				return n
			}
		}
		return p.raw.Num
	}
	return p.raw.Raw
}

func isIntegerLiteral(raw string) bool {
	if raw == "" {
		return false
	}
	return !strings.ContainsAny(raw, ".eE")
}
