package querycache

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Key identifies a cached query. The first element is the domain
// ("courses", "enrollments", ...); the rest are parameters.
type Key []string

const keySep = "\x1f"

// NewKey builds a key from a domain and parameters. Strings and Stringers
// are used as is; anything else is JSON encoded so filter structs produce
// stable keys.
func NewKey(domain string, params ...any) Key {
	k := make(Key, 0, len(params)+1)
	k = append(k, domain)
	for _, p := range params {
		k = append(k, encodeParam(p))
	}
	return k
}

func encodeParam(p any) string {
	switch v := p.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case nil:
		return ""
	}
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Sprint(p)
	}
	return string(b)
}

// Domain returns the first element or "".
func (k Key) Domain() string {
	if len(k) == 0 {
		return ""
	}
	return k[0]
}

func (k Key) Hash() string {
	return strings.Join(k, keySep)
}

// HasPrefix reports whether prefix matches k element by element.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

func (k Key) String() string {
	return "[" + strings.Join(k, " ") + "]"
}
