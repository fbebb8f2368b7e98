// SPDX-License-Identifier: MPL-2.0

package layout

import "strings"

// Lookup resolves the name inside a ${name} token.
type Lookup func(name string) (string, bool)

// Vars is a Lookup backed by a map.
type Vars map[string]string

// Lookup implements the Lookup signature for a Vars map.
func (v Vars) Lookup(name string) (string, bool) {
	s, ok := v[name]
	return s, ok
}

// With returns a copy of v with extra entries added. Entries in extra win.
func (v Vars) With(extra map[string]string) Vars {
	out := make(Vars, len(v)+len(extra))
	for k, s := range v {
		out[k] = s
	}
	for k, s := range extra {
		out[k] = s
	}
	return out
}

// Expand replaces every ${name} token in s with lookup(name). A '$' that
// does not open a token, or a token with no closing brace, is kept as is.
// The first token lookup cannot resolve is reported as an
// *UndefinedReferenceError.
func Expand(s string, lookup Lookup) (string, error) {
	if !strings.Contains(s, "${") {
		return s, nil
	}

	var out strings.Builder
	rest := s
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			out.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			out.WriteString(rest)
			break
		}
		name := rest[start+2 : start+end]
		value, ok := lookup(name)
		if !ok {
			return "", &UndefinedReferenceError{Reference: name}
		}
		out.WriteString(rest[:start])
		out.WriteString(value)
		rest = rest[start+end+1:]
	}
	return out.String(), nil
}

// References returns the names of every ${name} token in s, in order of
// appearance and without duplicates.
func References(s string) []string {
	var refs []string
	rest := s
	for {
		start := strings.Index(rest, "${")
		if start < 0 {
			return refs
		}
		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			return refs
		}
		name := rest[start+2 : start+end]
		seen := false
		for _, r := range refs {
			if r == name {
				seen = true
				break
			}
		}
		if !seen {
			refs = append(refs, name)
		}
		rest = rest[start+end+1:]
	}
}

// HasTokens reports whether s still contains a complete ${name} token.
func HasTokens(s string) bool {
	return len(References(s)) > 0
}
