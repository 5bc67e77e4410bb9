// Package workspace is the orchestration layer: it validates input, applies
// item mutations through the store and tree manager, and schedules index
// rebuilds and attachment cleanup on the queue.
package workspace

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/evandr/foliant/internal/apperr"
	"github.com/evandr/foliant/internal/content"
	"github.com/evandr/foliant/internal/index"
	"github.com/evandr/foliant/internal/models"
	"github.com/evandr/foliant/internal/store"
	"github.com/evandr/foliant/internal/tree"
)

// DefaultTitle is used when a note is created without one.
const DefaultTitle = "Untitled"

// Scheduler is the asynchronous side of a content mutation.
type Scheduler interface {
	EnqueueRebuild(ownerID, itemID string)
}

// Service coordinates store, tree, search, and background indexing.
type Service struct {
	store     store.Store
	trees     *tree.Manager
	searcher  *index.Searcher
	scheduler Scheduler
}

// NewService creates a workspace Service.
func NewService(st store.Store, trees *tree.Manager, searcher *index.Searcher, scheduler Scheduler) *Service {
	return &Service{store: st, trees: trees, searcher: searcher, scheduler: scheduler}
}

func validateTitle(title string) error {
	return validation.Validate(title,
		validation.Required,
		validation.Length(1, 500),
	)
}

func validateTag(tag string) error {
	return validation.Validate(tag,
		validation.Required,
		validation.Length(1, 100),
		validation.By(func(v any) error {
			if strings.TrimSpace(v.(string)) == "" {
				return fmt.Errorf("must not be blank")
			}
			return nil
		}),
	)
}

// resolveParent checks that a requested parent exists, belongs to the owner,
// and is a folder.
func (s *Service) resolveParent(ownerID string, parentID *string) error {
	if parentID == nil {
		return nil
	}
	parent, err := s.store.GetItem(ownerID, *parentID)
	if err != nil {
		return err
	}
	if !parent.IsFolder() {
		return fmt.Errorf("%w: parent is not a folder", apperr.ErrInvalidOperation)
	}
	return nil
}

// CreateNote creates a note, optionally with initial content, and schedules
// its first index build.
func (s *Service) CreateNote(_ context.Context, ownerID, title string, parentID *string, doc *content.Document) (*models.Item, error) {
	if title == "" {
		title = DefaultTitle
	}
	if err := validateTitle(title); err != nil {
		return nil, fmt.Errorf("%w: title: %s", apperr.ErrInvalidOperation, err)
	}
	if err := s.resolveParent(ownerID, parentID); err != nil {
		return nil, err
	}

	now := time.Now()
	item := &models.Item{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Kind:        models.KindNote,
		Title:       title,
		ParentID:    parentID,
		Content:     doc,
		Attachments: doc.AttachmentIDs(),
		Tags:        []string{},
		Version:     0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateItem(item); err != nil {
		return nil, err
	}
	if doc != nil {
		s.scheduler.EnqueueRebuild(ownerID, item.ID)
	}
	return item, nil
}

// CreateFolder creates a folder. Folders carry no content and are never
// indexed.
func (s *Service) CreateFolder(_ context.Context, ownerID, title string, parentID *string) (*models.Item, error) {
	if err := validateTitle(title); err != nil {
		return nil, fmt.Errorf("%w: title: %s", apperr.ErrInvalidOperation, err)
	}
	if err := s.resolveParent(ownerID, parentID); err != nil {
		return nil, err
	}

	now := time.Now()
	item := &models.Item{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Kind:      models.KindFolder,
		Title:     title,
		ParentID:  parentID,
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

// GetDocument returns one item with its full content.
func (s *Service) GetDocument(_ context.Context, ownerID, itemID string) (*models.Item, error) {
	return s.store.GetItem(ownerID, itemID)
}

// ListRecent returns the owner's most recently updated notes.
func (s *Service) ListRecent(_ context.Context, ownerID string, limit int) ([]models.Item, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.ListRecent(ownerID, limit)
}

// Rename changes an item's title. Renaming a note re-indexes it, since the
// title node and every path in its batch embed the title.
func (s *Service) Rename(_ context.Context, ownerID, itemID, title string) (*models.Item, error) {
	if err := validateTitle(title); err != nil {
		return nil, fmt.Errorf("%w: title: %s", apperr.ErrInvalidOperation, err)
	}
	item, err := s.store.GetItem(ownerID, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateTitle(ownerID, itemID, title); err != nil {
		return nil, err
	}
	if item.Kind == models.KindNote {
		s.scheduler.EnqueueRebuild(ownerID, itemID)
	}
	return s.store.GetItem(ownerID, itemID)
}

// UpdateContent replaces a note's content under optimistic concurrency and
// schedules a rebuild. When expectedVersion is non-nil and does not match the
// stored version, the write fails with a version conflict and the note is
// left untouched. The title is re-derived from a leading level-1 heading if
// the document has one.
func (s *Service) UpdateContent(_ context.Context, ownerID, itemID string, doc *content.Document, expectedVersion *int64) (*models.Item, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: content document is required", apperr.ErrInvalidOperation)
	}
	item, err := s.store.GetItem(ownerID, itemID)
	if err != nil {
		return nil, err
	}
	if item.Kind != models.KindNote {
		return nil, fmt.Errorf("%w: folders have no content", apperr.ErrInvalidOperation)
	}

	title := item.Title
	if derived := doc.LeadingHeadingText(); derived != "" {
		title = derived
	}

	if _, err := s.store.UpdateContent(ownerID, itemID, doc, title, doc.AttachmentIDs(), expectedVersion); err != nil {
		return nil, err
	}
	s.scheduler.EnqueueRebuild(ownerID, itemID)
	return s.store.GetItem(ownerID, itemID)
}

// Move reparents an item.
func (s *Service) Move(_ context.Context, ownerID, itemID string, newParentID *string) error {
	return s.trees.Move(ownerID, itemID, newParentID)
}

// Remove deletes an item, cascading or promoting children per the recursive
// flag.
func (s *Service) Remove(_ context.Context, ownerID, itemID string, recursive bool) error {
	return s.trees.Remove(ownerID, itemID, recursive)
}

// AssignTag adds a tag to an item. Assigning a tag the item already carries
// is an idempotent no-op.
func (s *Service) AssignTag(_ context.Context, ownerID, itemID, tag string) (*models.Item, error) {
	if err := validateTag(tag); err != nil {
		return nil, fmt.Errorf("%w: tag: %s", apperr.ErrInvalidOperation, err)
	}
	item, err := s.store.GetItem(ownerID, itemID)
	if err != nil {
		return nil, err
	}
	if slices.Contains(item.Tags, tag) {
		return item, nil
	}
	tags := append(slices.Clone(item.Tags), tag)
	if err := s.store.UpdateTags(ownerID, itemID, tags); err != nil {
		return nil, err
	}
	return s.store.GetItem(ownerID, itemID)
}

// UnassignTag removes a tag from an item. Removing a tag the item does not
// carry is an error, unlike the idempotent assign.
func (s *Service) UnassignTag(_ context.Context, ownerID, itemID, tag string) (*models.Item, error) {
	item, err := s.store.GetItem(ownerID, itemID)
	if err != nil {
		return nil, err
	}
	idx := slices.Index(item.Tags, tag)
	if idx < 0 {
		return nil, fmt.Errorf("tag %q: %w", tag, apperr.ErrNotFound)
	}
	tags := slices.Delete(slices.Clone(item.Tags), idx, idx+1)
	if err := s.store.UpdateTags(ownerID, itemID, tags); err != nil {
		return nil, err
	}
	return s.store.GetItem(ownerID, itemID)
}

// ListByTag returns the owner's items carrying the tag, most recently
// updated first. Tag filtering happens in memory; workspaces are small
// enough that a tag column index would be premature.
func (s *Service) ListByTag(_ context.Context, ownerID, tag string) ([]models.Item, error) {
	items, err := s.store.ListItems(ownerID)
	if err != nil {
		return nil, err
	}
	matched := make([]models.Item, 0)
	for _, item := range items {
		if slices.Contains(item.Tags, tag) {
			matched = append(matched, item)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	return matched, nil
}

// Search runs a relevance-ranked query over the owner's index.
func (s *Service) Search(_ context.Context, ownerID, query string, limit int) ([]models.SearchHit, error) {
	return s.searcher.Search(ownerID, query, limit)
}

// Structure returns the ordered index nodes of one note.
func (s *Service) Structure(_ context.Context, ownerID, itemID string) ([]models.IndexNode, error) {
	if _, err := s.store.GetItem(ownerID, itemID); err != nil {
		return nil, err
	}
	nodes, err := s.store.NodesByItem(ownerID, itemID)
	if err != nil {
		return nil, err
	}
	if nodes == nil {
		nodes = []models.IndexNode{}
	}
	return nodes, nil
}

// StructureSummaries returns the indexed outlines of the owner's most
// recently updated notes, for the assistant's workspace overview.
func (s *Service) StructureSummaries(_ context.Context, ownerID string, limit int) ([]models.StructureSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	items, err := s.store.ListRecent(ownerID, limit)
	if err != nil {
		return nil, err
	}
	summaries := make([]models.StructureSummary, 0, len(items))
	for _, item := range items {
		nodes, err := s.store.NodesByItem(ownerID, item.ID)
		if err != nil {
			return nil, err
		}
		if len(nodes) == 0 {
			continue
		}
		summaries = append(summaries, models.StructureSummary{
			ItemID: item.ID,
			Title:  item.Title,
			Nodes:  nodes,
		})
	}
	return summaries, nil
}

// FolderTree renders the owner's hierarchy.
func (s *Service) FolderTree(_ context.Context, ownerID string) (*models.FolderTree, error) {
	return s.trees.Render(ownerID)
}
