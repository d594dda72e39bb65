// Package vault reads a directory of Markdown notes and turns it into
// the document slice the index core consumes. It owns all filesystem and
// frontmatter concerns; nothing downstream touches files.
package vault

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/velvetmonkey/notelink/pkg/types"
)

// ParseNote parses one Markdown file's content into a Document.
// relativePath identifies the note within the vault and doubles as the
// entity key for the catalog.
//
// Malformed frontmatter is tolerated: the note still participates as a
// document (its outgoing links count toward popularity) but carries no
// frontmatter, so it contributes no entity.
func ParseNote(content []byte, relativePath string) types.Document {
	text := string(content)

	fm, body, err := splitFrontmatter(text)
	if err != nil {
		fm = map[string]interface{}{}
	}

	title := titleFromFrontmatter(fm)
	if title == "" {
		title = titleFromPath(relativePath)
	}

	return types.Document{
		Path:              relativePath,
		Title:             title,
		Frontmatter:       fm,
		RawContent:        body,
		OutgoingLinkSpans: ParseLinkSpans(body),
	}
}

// splitFrontmatter separates YAML frontmatter (between --- delimiters)
// from the Markdown body. Returns an empty map and the full text when no
// frontmatter is found.
func splitFrontmatter(text string) (map[string]interface{}, string, error) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}

	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return map[string]interface{}{}, text, nil
	}

	closeIdx := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			closeIdx = i
			break
		}
	}
	if closeIdx == -1 {
		// No closing delimiter, treat the entire file as body.
		return map[string]interface{}{}, text, nil
	}

	fmText := strings.Join(lines[1:closeIdx], "\n")
	fm := make(map[string]interface{})
	if err := yaml.Unmarshal([]byte(fmText), &fm); err != nil {
		return map[string]interface{}{}, text, fmt.Errorf("invalid YAML: %w", err)
	}

	body := strings.Join(lines[closeIdx+1:], "\n")
	return fm, body, nil
}

func titleFromFrontmatter(fm map[string]interface{}) string {
	if v, ok := fm["title"].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// titleFromPath derives a title from the file name without extension.
func titleFromPath(rel string) string {
	base := filepath.Base(rel)
	return strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
}
