package importer

import "strings"

// Row is a single spreadsheet row keyed by slugged header name
// (lowercased, spaces replaced with underscores).
type Row map[string]string

// SlugHeader turns a raw header cell into the canonical row key.
func SlugHeader(header string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(header)), " ", "_")
}

// foldKey strips spaces, hyphens and underscores so that "source_file",
// "source-file" and "sourcefile" all collide onto one lookup key.
func foldKey(key string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(key) {
		switch r {
		case ' ', '-', '_':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isNullLiteral(value string) bool {
	return value == "" || strings.EqualFold(value, "NULL")
}

// Resolve returns the first usable value among the candidate keys.
// Candidate order is authoritative: for each candidate an exact key match
// is tried, then a relaxed match ignoring separator differences, before
// the next candidate is considered. Empty cells and the literal string
// NULL are treated as absent.
func (r Row) Resolve(candidates ...string) string {
	var folded map[string]string
	for _, key := range candidates {
		if value, ok := r[key]; ok {
			cleaned := strings.TrimSpace(value)
			if !isNullLiteral(cleaned) {
				return cleaned
			}
		}
		if folded == nil {
			folded = make(map[string]string, len(r))
			for k, v := range r {
				folded[foldKey(k)] = v
			}
		}
		if value, ok := folded[foldKey(key)]; ok {
			cleaned := strings.TrimSpace(value)
			if !isNullLiteral(cleaned) {
				return cleaned
			}
		}
	}
	return ""
}

// IsEmpty reports whether every cell of the row is blank or NULL.
func (r Row) IsEmpty() bool {
	for _, value := range r {
		if !isNullLiteral(strings.TrimSpace(value)) {
			return false
		}
	}
	return true
}
