// Package extract flattens a rich-text document into ordered, path-addressed
// index fragments. It is a pure function over the block tree: only top-level
// block siblings are visited, inline formatting is collapsed to plain text.
package extract

import (
	"strings"

	"github.com/evandr/foliant/internal/content"
	"github.com/evandr/foliant/internal/models"
)

// Truncation limits, in characters. Text beyond a limit is cut, not
// summarized; callers depend on the exact cut points.
const (
	maxPathSegment = 100
	maxHeadingText = 500
	maxParagraph   = 200
	maxListItem    = 100
	maxListText    = 500
	maxCodeText    = 200
)

const pathSep = " > "

// Fragment is an IndexNode draft: no owner, item id, or timestamp yet.
type Fragment struct {
	Kind       models.NodeKind
	Level      int
	Text       string
	Path       string
	ParentPath string
	Position   int
}

// Extract walks the document's top-level blocks and emits fragments in
// source order. The first fragment is always the synthetic level-0 title
// node; an empty or missing document produces only that node.
func Extract(title string, doc *content.Document) []Fragment {
	stack := []string{truncate(title, maxPathSegment)}
	currentLevel := 0

	frags := []Fragment{{
		Kind:  models.NodeTitle,
		Level: 0,
		Text:  truncate(title, maxPathSegment),
		Path:  stack[0],
	}}

	if doc == nil {
		return frags
	}

	for i := range doc.Content {
		block := &doc.Content[i]
		switch block.Type {
		case content.TypeHeading:
			level := 1
			if block.Attrs != nil && block.Attrs.Level > 0 {
				level = block.Attrs.Level
			}
			text := strings.TrimSpace(block.PlainText())
			// Regressing to a shallower (or equal) heading pops the deeper
			// entries; the title entry is never popped.
			for currentLevel >= level && len(stack) > 1 {
				stack = stack[:len(stack)-1]
				currentLevel--
			}
			stack = append(stack, truncate(text, maxPathSegment))
			currentLevel = level
			frags = append(frags, Fragment{
				Kind:       models.NodeHeading,
				Level:      level,
				Text:       truncate(text, maxHeadingText),
				Path:       strings.Join(stack, pathSep),
				ParentPath: strings.Join(stack[:len(stack)-1], pathSep),
				Position:   len(frags),
			})

		case content.TypeParagraph:
			text := strings.TrimSpace(block.PlainText())
			if text == "" {
				continue
			}
			base := strings.Join(stack, pathSep)
			frags = append(frags, Fragment{
				Kind:       models.NodeParagraph,
				Level:      currentLevel + 1,
				Text:       truncate(text, maxParagraph),
				Path:       base + pathSep + "[paragraph]",
				ParentPath: base,
				Position:   len(frags),
			})

		case content.TypeBulletList, content.TypeOrderedList:
			var items []string
			for j := range block.Content {
				text := strings.TrimSpace(block.Content[j].PlainText())
				if text == "" {
					continue
				}
				items = append(items, truncate(text, maxListItem))
			}
			if len(items) == 0 {
				continue
			}
			base := strings.Join(stack, pathSep)
			frags = append(frags, Fragment{
				Kind:       models.NodeList,
				Level:      currentLevel + 1,
				Text:       truncate(strings.Join(items, "; "), maxListText),
				Path:       base + pathSep + "[list]",
				ParentPath: base,
				Position:   len(frags),
			})

		case content.TypeCodeBlock:
			lang := "code"
			if block.Attrs != nil && block.Attrs.Language != "" {
				lang = block.Attrs.Language
			}
			base := strings.Join(stack, pathSep)
			frags = append(frags, Fragment{
				Kind:       models.NodeCodeBlock,
				Level:      currentLevel + 1,
				Text:       "[" + lang + "]: " + truncate(block.PlainText(), maxCodeText),
				Path:       base + pathSep + "[code]",
				ParentPath: base,
				Position:   len(frags),
			})

		default:
			// Decorative or unknown blocks are not traversed; this bounds
			// the index size.
		}
	}

	return frags
}

// truncate cuts s after limit characters (runes, not bytes).
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
