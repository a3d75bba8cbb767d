package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// NormalizeKey folds case, trims, and joins words with underscores so that
// "Bharathi Enclave", " bharathi-enclave " and "BHARATHI_ENCLAVE" all map to
// "bharathi_enclave".
func NormalizeKey(s string) string {
	folded := cases.Fold().String(strings.TrimSpace(s))
	parts := strings.FieldsFunc(folded, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '_'
	})
	return strings.Join(parts, "_")
}
