// Package models defines the domain types for Foliant.
package models

import (
	"time"

	"github.com/evandr/foliant/internal/content"
)

// ItemKind distinguishes folders from notes. The two kinds are mutually
// exclusive: folders never carry content, version, or attachments.
type ItemKind string

const (
	KindFolder ItemKind = "folder"
	KindNote   ItemKind = "note"
)

// Item is a node in an owner's organizational tree.
type Item struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"-"`
	Kind        ItemKind          `json:"kind"`
	Title       string            `json:"title"`
	ParentID    *string           `json:"parentId,omitempty"`
	Content     *content.Document `json:"content,omitempty"`
	Attachments []string          `json:"attachments,omitempty"`
	Tags        []string          `json:"tags"`
	Version     int64             `json:"version"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// IsFolder reports whether the item is a folder.
func (i *Item) IsFolder() bool { return i.Kind == KindFolder }
