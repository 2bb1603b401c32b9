// Package textutil provides text normalization helpers shared by the
// reconciliation engine and the correction store.
//
// Track identity matching is case-insensitive and whitespace-trimmed;
// NormalizeKey is the single definition of that rule so dedup grouping and
// correction lookups can never disagree.
package textutil

import (
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeKey lowercases (Unicode case folding) and trims the supplied
// value for use as a lookup key component. A fresh caser per call keeps
// this safe under concurrent use; cases.Caser is stateful.
func NormalizeKey(value string) string {
	return cases.Fold().String(strings.TrimSpace(value))
}
