// Package index maintains the flattened structure index and answers search
// queries over it.
package index

import (
	"errors"
	"log/slog"
	"time"

	"github.com/evandr/foliant/internal/apperr"
	"github.com/evandr/foliant/internal/extract"
	"github.com/evandr/foliant/internal/models"
	"github.com/evandr/foliant/internal/store"
)

// Rebuilder regenerates the index batch for one item. A rebuild is a full
// replace, so it is idempotent and safe to run out of order relative to
// other rebuilds of the same item.
type Rebuilder struct {
	store  store.Store
	logger *slog.Logger
}

// NewRebuilder creates a Rebuilder.
func NewRebuilder(st store.Store, logger *slog.Logger) *Rebuilder {
	return &Rebuilder{store: st, logger: logger}
}

// Rebuild clears the item's existing index nodes and, if the item is a note
// with content, extracts and inserts a fresh batch. Items that vanished
// between enqueue and execution just have their nodes cleared.
func (r *Rebuilder) Rebuild(ownerID, itemID string) error {
	item, err := r.store.GetItem(ownerID, itemID)
	if errors.Is(err, apperr.ErrNotFound) {
		return r.store.ReplaceNodes(ownerID, itemID, nil)
	}
	if err != nil {
		return err
	}

	// Folders and contentless notes are never indexed; their batch is
	// cleared and nothing is inserted.
	if item.Kind != models.KindNote || item.Content == nil {
		return r.store.ReplaceNodes(ownerID, itemID, nil)
	}

	frags := extract.Extract(item.Title, item.Content)
	now := time.Now()
	nodes := make([]models.IndexNode, len(frags))
	for i, f := range frags {
		nodes[i] = models.IndexNode{
			OwnerID:    ownerID,
			ItemID:     itemID,
			Kind:       f.Kind,
			Level:      f.Level,
			Text:       f.Text,
			Path:       f.Path,
			ParentPath: f.ParentPath,
			Position:   f.Position,
			IndexedAt:  now,
		}
	}

	if err := r.store.ReplaceNodes(ownerID, itemID, nodes); err != nil {
		return err
	}
	r.logger.Debug("index rebuilt", slog.String("item_id", itemID), slog.Int("nodes", len(nodes)))
	return nil
}
