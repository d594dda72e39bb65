package extract

// minFuzzyLen disables fuzzy matching for short strings: single-edit
// matches on short codes ("ML", "TS", "RAG") are almost always false
// positives.
const minFuzzyLen = 4

// minPartialLen is the shortest token the partial pass considers.
const minPartialLen = 3

// fuzzyKey returns the unique catalog key within edit distance one of
// the normalized token. Ambiguity across distinct keys means no match:
// a typo that could resolve to two different keys is not trustworthy.
func (x *Extractor) fuzzyKey(normalized string) (string, bool) {
	found := ""
	for _, key := range x.keysByLen[len(normalized)] {
		if !withinOneEdit(normalized, key) {
			continue
		}
		if found != "" && found != key {
			return "", false
		}
		found = key
	}
	return found, found != ""
}

// withinOneEdit reports whether a and b differ by exactly one
// substitution or one adjacent transposition. Equal-length inputs only;
// identical strings return false (those are exact matches, handled
// earlier).
func withinOneEdit(a, b string) bool {
	if len(a) != len(b) || a == b {
		return false
	}

	// First mismatch position.
	i := 0
	for i < len(a) && a[i] == b[i] {
		i++
	}

	// Single substitution: everything after position i matches.
	if a[i+1:] == b[i+1:] {
		return true
	}

	// Adjacent transposition: a[i]==b[i+1], a[i+1]==b[i], rest matches.
	if i+1 < len(a) && a[i] == b[i+1] && a[i+1] == b[i] && a[i+2:] == b[i+2:] {
		return true
	}

	return false
}

// fuzzyQuality scales the match-quality of a distance-one match by
// token length: a single edit in a long string is stronger evidence
// than in a short one. Bounded to [0.6, 0.8].
func fuzzyQuality(length int) float64 {
	q := 0.8 - 0.8/float64(length)
	if q < 0.6 {
		q = 0.6
	}
	if q > 0.8 {
		q = 0.8
	}
	return q
}
