package store

import (
	"github.com/evandr/foliant/internal/content"
	"github.com/evandr/foliant/internal/models"
)

// Store is the owner-scoped persistence interface for items and index nodes.
// Consumers depend on this interface rather than the concrete *DB type so the
// tree and index logic can be tested against any implementation.
//
// Every method takes the owner id; reads on items the owner does not hold
// return apperr.ErrNotFound, never another owner's data.
type Store interface {
	CreateItem(item *models.Item) error
	GetItem(ownerID, id string) (*models.Item, error)
	ListItems(ownerID string) ([]models.Item, error)
	ListChildren(ownerID string, parentID *string) ([]models.Item, error)
	ListRecent(ownerID string, limit int) ([]models.Item, error)
	UpdateTitle(ownerID, id, title string) error
	UpdateTags(ownerID, id string, tags []string) error
	SetParent(ownerID, id string, parentID *string) error
	UpdateContent(ownerID, id string, doc *content.Document, title string, attachments []string, expectedVersion *int64) (int64, error)
	DeleteItem(ownerID, id string) error

	ReplaceNodes(ownerID, itemID string, nodes []models.IndexNode) error
	NodesByItem(ownerID, itemID string) ([]models.IndexNode, error)
	NodesByOwner(ownerID string) ([]models.IndexNode, error)

	Close() error
}

// Verify *DB satisfies Store at compile time.
var _ Store = (*DB)(nil)
