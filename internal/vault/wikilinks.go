package vault

import (
	"regexp"
	"strings"

	"github.com/velvetmonkey/notelink/pkg/types"
)

// wikilinkRe matches [[link]] and [[link|alias]] patterns.
var wikilinkRe = regexp.MustCompile(`\[\[([^\[\]|]+?)(?:\|([^\[\]]+?))?\]\]`)

// ParseLinkSpans finds all [[wiki-link]] patterns in content and returns
// them with their byte offsets, ordered by position. Offsets index into
// content exactly as given, so callers must pass the same string they
// will later slice.
func ParseLinkSpans(content string) []types.LinkSpan {
	matches := wikilinkRe.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return nil
	}

	spans := make([]types.LinkSpan, 0, len(matches))
	for _, m := range matches {
		target := strings.TrimSpace(content[m[2]:m[3]])
		if target == "" {
			continue
		}
		spans = append(spans, types.LinkSpan{
			Start:  m[0],
			End:    m[1],
			Target: target,
		})
	}
	return spans
}
