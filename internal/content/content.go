// Package content models the rich-text document format produced by the
// editor: a typed tree of block nodes with inline text leaves.
package content

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Block type names. The extractor treats this as a closed set; unknown types
// are carried through unmarshalling but ignored for indexing.
const (
	TypeDoc         = "doc"
	TypeHeading     = "heading"
	TypeParagraph   = "paragraph"
	TypeBulletList  = "bulletList"
	TypeOrderedList = "orderedList"
	TypeListItem    = "listItem"
	TypeCodeBlock   = "codeBlock"
	TypeTable       = "table"
	TypeImage       = "image"
	TypeAudio       = "audio"
	TypeText        = "text"
)

// Attrs holds the per-type attributes a block may carry.
type Attrs struct {
	Level        int    `json:"level,omitempty"`        // heading depth, 1-6
	Language     string `json:"language,omitempty"`     // codeBlock language hint
	AttachmentID string `json:"attachmentId,omitempty"` // image/audio blob reference
}

// Block is one node of the document tree. Leaves carry Text; branches carry
// ordered Content children.
type Block struct {
	Type    string  `json:"type"`
	Attrs   *Attrs  `json:"attrs,omitempty"`
	Content []Block `json:"content,omitempty"`
	Text    string  `json:"text,omitempty"`
}

// Document is the root of a note's rich-text content.
type Document struct {
	Type    string  `json:"type"`
	Content []Block `json:"content,omitempty"`
}

// Parse decodes raw JSON into a Document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("content: parse document: %w", err)
	}
	return &doc, nil
}

// PlainText flattens a block and all its descendants into a single string,
// discarding inline structure. Text leaves are concatenated in order.
func (b *Block) PlainText() string {
	var sb strings.Builder
	b.collectText(&sb)
	return sb.String()
}

func (b *Block) collectText(sb *strings.Builder) {
	if b.Text != "" {
		sb.WriteString(b.Text)
	}
	for i := range b.Content {
		b.Content[i].collectText(sb)
	}
}

// AttachmentIDs walks the whole tree and returns the deduplicated attachment
// references carried by image and audio blocks, in document order.
func (d *Document) AttachmentIDs() []string {
	if d == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	var walk func(blocks []Block)
	walk = func(blocks []Block) {
		for i := range blocks {
			b := &blocks[i]
			if (b.Type == TypeImage || b.Type == TypeAudio) && b.Attrs != nil && b.Attrs.AttachmentID != "" {
				if _, dup := seen[b.Attrs.AttachmentID]; !dup {
					seen[b.Attrs.AttachmentID] = struct{}{}
					out = append(out, b.Attrs.AttachmentID)
				}
			}
			walk(b.Content)
		}
	}
	walk(d.Content)
	return out
}

// LeadingHeadingText returns the trimmed text of the document's first block
// if it is a level-1 heading, or "" otherwise. Content updates use it to
// derive the note title.
func (d *Document) LeadingHeadingText() string {
	if d == nil || len(d.Content) == 0 {
		return ""
	}
	first := &d.Content[0]
	if first.Type != TypeHeading {
		return ""
	}
	level := 1
	if first.Attrs != nil && first.Attrs.Level > 0 {
		level = first.Attrs.Level
	}
	if level != 1 {
		return ""
	}
	return strings.TrimSpace(first.PlainText())
}
