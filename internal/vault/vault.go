package vault

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/velvetmonkey/notelink/pkg/types"
)

// Load walks the vault root, parses every Markdown note, and returns the
// documents with inbound-link popularity filled in. Hidden directories
// (".obsidian" and friends) are skipped. Results are ordered by path so
// repeated loads of an unchanged vault are byte-for-byte identical.
func Load(root string) ([]types.Document, error) {
	var docs []types.Document

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(d.Name()), ".md") {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			log.Printf("vault: skipping unreadable file %s: %v", path, err)
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to relativise %s: %w", path, err)
		}
		docs = append(docs, ParseNote(content, filepath.ToSlash(rel)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk vault %s: %w", root, err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	ComputePopularity(docs)
	return docs, nil
}

// ComputePopularity fills in InboundLinks for each document by resolving
// every outgoing wikilink target against note titles and file names.
// Each (source, target) pairing counts once regardless of how many times
// the source repeats the link, and self-links never count.
func ComputePopularity(docs []types.Document) {
	// A target can resolve by display title or by file name; both are
	// indexed. Name collisions credit every matching document.
	byName := make(map[string][]int)
	addName := func(name string, i int) {
		key := types.NormalizeAlias(name)
		if key == "" {
			return
		}
		for _, existing := range byName[key] {
			if existing == i {
				return
			}
		}
		byName[key] = append(byName[key], i)
	}

	for i := range docs {
		docs[i].InboundLinks = 0
		addName(docs[i].Title, i)
		addName(titleFromPath(docs[i].Path), i)
	}

	for i := range docs {
		seen := make(map[string]bool)
		for _, span := range docs[i].OutgoingLinkSpans {
			key := types.NormalizeAlias(span.Target)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			for _, j := range byName[key] {
				if j != i {
					docs[j].InboundLinks++
				}
			}
		}
	}
}
