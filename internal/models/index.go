package models

import "time"

// NodeKind classifies one flattened fragment of a note's structure.
type NodeKind string

const (
	NodeTitle     NodeKind = "title"
	NodeHeading   NodeKind = "heading"
	NodeParagraph NodeKind = "paragraph"
	NodeList      NodeKind = "list"
	NodeCodeBlock NodeKind = "codeBlock"
)

// IndexNode is one searchable fragment of a note, produced by the structure
// extractor and fully replaced on every content rebuild. Exactly one title
// node exists per indexed note, at level 0.
type IndexNode struct {
	OwnerID    string    `json:"-"`
	ItemID     string    `json:"itemId"`
	Kind       NodeKind  `json:"nodeType"`
	Level      int       `json:"level"`
	Text       string    `json:"text"`
	Path       string    `json:"path"`
	ParentPath string    `json:"parentPath,omitempty"`
	Position   int       `json:"position"`
	IndexedAt  time.Time `json:"indexedAt"`
}

// MatchedNode is one contributing fragment inside a search hit.
type MatchedNode struct {
	NodeType NodeKind `json:"nodeType"`
	Path     string   `json:"path"`
	Text     string   `json:"text"`
}

// SearchHit aggregates an item's matching index nodes into one scored result.
type SearchHit struct {
	ItemID       string        `json:"itemId"`
	Title        string        `json:"title"`
	Score        int           `json:"score"`
	MatchedNodes []MatchedNode `json:"matchedNodes"`
}

// StructureSummary is the indexed outline of one note, as returned to the
// assistant layer.
type StructureSummary struct {
	ItemID string      `json:"itemId"`
	Title  string      `json:"title"`
	Nodes  []IndexNode `json:"nodes"`
}

// FolderTree is the rendered hierarchy for one owner: an indented text tree
// plus the ids of folders with zero direct children.
type FolderTree struct {
	Tree           string   `json:"tree"`
	EmptyFolderIDs []string `json:"emptyFolderIds"`
}
