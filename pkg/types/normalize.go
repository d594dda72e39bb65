package types

import "strings"

// NormalizeAlias folds a name or alias into its lookup form: lowercase,
// hyphens treated as spaces, internal whitespace collapsed to single
// spaces, leading/trailing whitespace removed. Two strings that fold to
// the same value are considered the same alias key.
func NormalizeAlias(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}
