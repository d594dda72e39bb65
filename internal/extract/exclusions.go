package extract

import (
	"sort"
	"strings"

	"github.com/velvetmonkey/notelink/pkg/types"
)

// span is a half-open byte range [start, end).
type span struct {
	start, end int
}

// excludedRanges merges the spans no mention may overlap: existing
// [[wikilinks]] and code (fenced blocks and inline backticks).
func excludedRanges(content string, linked []types.LinkSpan) []span {
	spans := make([]span, 0, len(linked))
	for _, l := range linked {
		spans = append(spans, span{start: l.Start, end: l.End})
	}
	spans = append(spans, codeSpans(content)...)
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	return spans
}

// codeSpans finds fenced code blocks (``` ... ```) and inline code
// (`...`) byte ranges. An unterminated fence extends to the end of the
// content.
func codeSpans(content string) []span {
	var spans []span

	// Fenced blocks first; inline backticks inside them are irrelevant.
	inFence := false
	fenceStart := 0
	offset := 0
	var fenced []span
	for _, line := range strings.SplitAfter(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			if inFence {
				fenced = append(fenced, span{start: fenceStart, end: offset + len(line)})
				inFence = false
			} else {
				inFence = true
				fenceStart = offset
			}
		}
		offset += len(line)
	}
	if inFence {
		fenced = append(fenced, span{start: fenceStart, end: len(content)})
	}
	spans = append(spans, fenced...)

	// Inline code outside fences.
	inlineStart := -1
	for i := 0; i < len(content); i++ {
		if content[i] != '`' {
			continue
		}
		if overlapsAny(i, i+1, fenced) {
			continue
		}
		if inlineStart < 0 {
			inlineStart = i
		} else {
			spans = append(spans, span{start: inlineStart, end: i + 1})
			inlineStart = -1
		}
	}

	return spans
}

// overlapsAny reports whether [start, end) intersects any span.
func overlapsAny(start, end int, spans []span) bool {
	for _, s := range spans {
		if start < s.end && end > s.start {
			return true
		}
	}
	return false
}
