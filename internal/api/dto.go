package api

import (
	"encoding/json"

	"github.com/evandr/foliant/internal/models"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Title    string          `json:"title" example:"Meeting Notes"`
	ParentID *string         `json:"parentId,omitempty"`
	Content  json.RawMessage `json:"content,omitempty"`
}

// CreateFolderRequest is the request body for creating a folder.
type CreateFolderRequest struct {
	Title    string  `json:"title" example:"Projects" validate:"required"`
	ParentID *string `json:"parentId,omitempty"`
}

// RenameRequest is the request body for renaming an item.
type RenameRequest struct {
	Title string `json:"title" example:"Renamed" validate:"required"`
}

// UpdateContentRequest is the request body for replacing a note's content.
// Version, when present, is the expected current version for the
// optimistic-concurrency check.
type UpdateContentRequest struct {
	Content json.RawMessage `json:"content" validate:"required"`
	Version *int64          `json:"version,omitempty" example:"3"`
}

// MoveRequest is the request body for reparenting an item. A null or absent
// parentId moves the item to the root.
type MoveRequest struct {
	ParentID *string `json:"parentId"`
}

// TagRequest is the request body for assigning or unassigning a tag.
type TagRequest struct {
	Tag string `json:"tag" example:"work" validate:"required"`
}

// ItemResponse is an item payload (aliased from the domain layer).
type ItemResponse = models.Item

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []models.SearchHit `json:"results" validate:"required"`
}

// StructureResponse wraps a note's ordered index nodes.
type StructureResponse struct {
	Nodes []models.IndexNode `json:"nodes" validate:"required"`
}

// StructuresResponse wraps recent structure summaries.
type StructuresResponse struct {
	Structures []models.StructureSummary `json:"structures" validate:"required"`
}

// AttachmentUploadResponse is returned after a successful attachment upload.
type AttachmentUploadResponse struct {
	ID   string `json:"id" validate:"required"`
	Size int64  `json:"size" example:"12345" validate:"required"`
	URL  string `json:"url" example:"/api/attachments/8f14e45f" validate:"required"`
}
