// Package params decomposes a URL query into an ordered parameter map and
// rebuilds queries with one parameter substituted.
//
// Unlike url.Values the map remembers first-occurrence order, so a
// rebuilt query keeps the parameter order of the page it came from.
package params

import (
	"net/url"
	"strings"
)

// Map is an ordered mapping from parameter name to its values.
// Repeated names collapse into one entry whose values keep their order.
// The zero value is an empty map.
type Map struct {
	names  []string
	values map[string][]string
}

// Extract parses the query component of rawURL. Unparseable input and
// URLs without a query yield an empty map. Blank values are kept.
func Extract(rawURL string) Map {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Map{}
	}
	return ParseQuery(u.RawQuery)
}

// ParseQuery parses a raw query string. Pairs that fail to unescape are
// kept with their raw text so nothing the server saw is dropped.
func ParseQuery(rawQuery string) Map {
	var m Map
	for rawQuery != "" {
		var pair string
		pair, rawQuery, _ = strings.Cut(rawQuery, "&")
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		m.add(unescape(key), unescape(value))
	}
	return m
}

func unescape(s string) string {
	if u, err := url.QueryUnescape(s); err == nil {
		return u
	}
	return s
}

func (m *Map) add(name, value string) {
	if m.values == nil {
		m.values = make(map[string][]string)
	}
	if _, ok := m.values[name]; !ok {
		m.names = append(m.names, name)
	}
	m.values[name] = append(m.values[name], value)
}

// Len returns the number of distinct parameter names.
func (m Map) Len() int { return len(m.names) }

// IsEmpty reports whether the map holds no parameters.
func (m Map) IsEmpty() bool { return len(m.names) == 0 }

// Names returns the parameter names in first-occurrence order.
func (m Map) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Values returns a copy of the values recorded for name.
func (m Map) Values(name string) []string {
	v := m.values[name]
	out := make([]string, len(v))
	copy(out, v)
	return out
}

// First returns the first value of name and whether name is present.
func (m Map) First(name string) (string, bool) {
	v, ok := m.values[name]
	if !ok || len(v) == 0 {
		return "", ok
	}
	return v[0], true
}

// Has reports whether name is present.
func (m Map) Has(name string) bool {
	_, ok := m.values[name]
	return ok
}

// Substitute returns a new map in which name holds only value and every
// other parameter holds only its first value. Order is unchanged. If name
// is absent it is appended.
func (m Map) Substitute(name, value string) Map {
	var out Map
	for _, n := range m.names {
		if n == name {
			out.add(n, value)
			continue
		}
		first, _ := m.First(n)
		out.add(n, first)
	}
	if !m.Has(name) {
		out.add(name, value)
	}
	return out
}

// Encode renders the map as a query string in insertion order.
func (m Map) Encode() string {
	var b strings.Builder
	for _, n := range m.names {
		key := url.QueryEscape(n)
		for _, v := range m.values[n] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(key)
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// WithQuery returns u rendered with its query replaced by m and its
// fragment removed. u is not modified.
func WithQuery(u *url.URL, m Map) string {
	c := *u
	c.RawQuery = m.Encode()
	c.ForceQuery = false
	c.Fragment = ""
	c.RawFragment = ""
	return c.String()
}
