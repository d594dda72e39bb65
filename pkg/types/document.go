package types

// LinkSpan marks a byte range of a document's raw content that is
// already inside a [[wikilink]], together with the link target.
type LinkSpan struct {
	// Start is the byte offset of the opening "[[".
	Start int `json:"start"`

	// End is the byte offset just past the closing "]]".
	End int `json:"end"`

	// Target is the linked note/page name (alias stripped).
	Target string `json:"target"`
}

// Document is a parsed note as supplied by the vault collaborator.
// Parsing (frontmatter, link spans) happens upstream; the index core
// consumes documents as-is and never touches the filesystem.
type Document struct {
	// Path identifies the document within the vault (relative path).
	Path string `json:"path"`

	// Title is the display title (frontmatter title or file name).
	Title string `json:"title"`

	// Frontmatter holds the raw YAML frontmatter key/value pairs.
	// The "type" and "aliases" keys drive entity extraction; everything
	// else is carried opaquely.
	Frontmatter map[string]interface{} `json:"frontmatter,omitempty"`

	// RawContent is the Markdown body with frontmatter stripped.
	RawContent string `json:"raw_content"`

	// OutgoingLinkSpans are the [[...]] spans already present in
	// RawContent. Suggestions never overlap these.
	OutgoingLinkSpans []LinkSpan `json:"outgoing_link_spans,omitempty"`

	// InboundLinks counts how many other documents link here. It is the
	// popularity signal for the entity this document owns.
	InboundLinks int `json:"inbound_links"`
}
