// Package tree maintains the folder/note hierarchy: moves with cycle
// prevention, the two delete semantics (cascade and promote), and the
// rendered folder tree.
package tree

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/evandr/foliant/internal/apperr"
	"github.com/evandr/foliant/internal/models"
	"github.com/evandr/foliant/internal/store"
)

// DefaultMaxDepth bounds ancestor walks and tree rendering. Hitting the
// bound means the parent chain is corrupted.
const DefaultMaxDepth = 100

// AttachmentCleanup schedules best-effort asynchronous deletion of
// attachment blobs after their owning note is removed.
type AttachmentCleanup interface {
	ScheduleDelete(ownerID string, attachmentIDs []string)
}

// Manager implements move, remove, and tree rendering over a Store.
//
// No cross-operation locks are taken: the ancestor walk during a move reads
// a chain that a concurrent move may be mutating.
type Manager struct {
	store    store.Store
	cleanup  AttachmentCleanup
	maxDepth int
}

// NewManager creates a Manager. cleanup may be nil in tests.
func NewManager(st store.Store, cleanup AttachmentCleanup, maxDepth int) *Manager {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Manager{store: st, cleanup: cleanup, maxDepth: maxDepth}
}

// Move reparents an item. A nil newParentID moves it to the root. Moving an
// item to its current parent is an idempotent no-op that does not touch
// updated_at.
func (m *Manager) Move(ownerID, itemID string, newParentID *string) error {
	if newParentID != nil && *newParentID == itemID {
		return fmt.Errorf("%w: an item cannot be its own parent", apperr.ErrInvalidOperation)
	}

	item, err := m.store.GetItem(ownerID, itemID)
	if err != nil {
		return err
	}

	if newParentID != nil {
		parent, err := m.store.GetItem(ownerID, *newParentID)
		if err != nil {
			return err
		}
		if parent.Kind != models.KindFolder {
			return fmt.Errorf("%w: target parent is not a folder", apperr.ErrInvalidOperation)
		}
		// Moving a folder into its own descendant would create a cycle.
		if item.Kind == models.KindFolder {
			inSubtree, err := m.ancestorChainContains(ownerID, parent, itemID)
			if err != nil {
				return err
			}
			if inSubtree {
				return fmt.Errorf("%w: cannot move a folder into its own descendant", apperr.ErrInvalidOperation)
			}
		}
	}

	if sameParent(item.ParentID, newParentID) {
		return nil
	}
	return m.store.SetParent(ownerID, itemID, newParentID)
}

// ancestorChainContains walks from start toward the root and reports whether
// itemID appears in the chain. The walk terminates at the root, on an item
// the caller does not own, or at the depth bound.
func (m *Manager) ancestorChainContains(ownerID string, start *models.Item, itemID string) (bool, error) {
	cur := start
	for depth := 0; ; depth++ {
		if depth >= m.maxDepth {
			return false, fmt.Errorf("%w: parent chain exceeds depth %d", apperr.ErrInvalidOperation, m.maxDepth)
		}
		if cur.ID == itemID {
			return true, nil
		}
		if cur.ParentID == nil {
			return false, nil
		}
		next, err := m.store.GetItem(ownerID, *cur.ParentID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		cur = next
	}
}

// Remove deletes an item. For folders, recursive=true cascades depth-first
// (children before the folder itself); recursive=false promotes every direct
// child to the folder's own parent before deleting the folder. Grandchildren
// move with their direct parent either way. Attachment references of deleted
// notes are handed to the cleanup scheduler.
func (m *Manager) Remove(ownerID, itemID string, recursive bool) error {
	item, err := m.store.GetItem(ownerID, itemID)
	if err != nil {
		return err
	}

	if item.Kind == models.KindFolder {
		children, err := m.store.ListChildren(ownerID, &itemID)
		if err != nil {
			return err
		}
		for i := range children {
			child := &children[i]
			if recursive {
				if err := m.Remove(ownerID, child.ID, true); err != nil {
					return err
				}
			} else {
				if err := m.store.SetParent(ownerID, child.ID, item.ParentID); err != nil {
					return err
				}
			}
		}
	}

	if err := m.store.DeleteItem(ownerID, itemID); err != nil {
		return err
	}
	if len(item.Attachments) > 0 && m.cleanup != nil {
		m.cleanup.ScheduleDelete(ownerID, item.Attachments)
	}
	return nil
}

// Render builds the indented text tree and the set of empty folder ids from
// the owner's full flat item list. One traversal serves both the human
// display and the assistant tree summary; the two must stay in sync.
func (m *Manager) Render(ownerID string) (*models.FolderTree, error) {
	items, err := m.store.ListItems(ownerID)
	if err != nil {
		return nil, err
	}

	byParent := make(map[string][]models.Item)
	for _, item := range items {
		key := ""
		if item.ParentID != nil {
			key = *item.ParentID
		}
		byParent[key] = append(byParent[key], item)
	}
	for key := range byParent {
		bucket := byParent[key]
		sort.Slice(bucket, func(i, j int) bool {
			// Folders before notes, alphabetical within kind.
			if bucket[i].Kind != bucket[j].Kind {
				return bucket[i].Kind == models.KindFolder
			}
			ti, tj := strings.ToLower(bucket[i].Title), strings.ToLower(bucket[j].Title)
			if ti != tj {
				return ti < tj
			}
			return bucket[i].ID < bucket[j].ID
		})
	}

	var (
		sb       strings.Builder
		emptyIDs []string
	)
	var render func(parentKey string, depth int)
	render = func(parentKey string, depth int) {
		if depth >= m.maxDepth {
			return
		}
		for _, item := range byParent[parentKey] {
			sb.WriteString(strings.Repeat("  ", depth))
			if item.Kind == models.KindFolder {
				sb.WriteString("📁 ")
				sb.WriteString(item.Title)
				if len(byParent[item.ID]) == 0 {
					sb.WriteString(" (empty)")
					emptyIDs = append(emptyIDs, item.ID)
				}
			} else {
				sb.WriteString("📄 ")
				sb.WriteString(item.Title)
			}
			sb.WriteString("\n")
			render(item.ID, depth+1)
		}
	}
	render("", 0)

	if emptyIDs == nil {
		emptyIDs = []string{}
	}
	return &models.FolderTree{Tree: sb.String(), EmptyFolderIDs: emptyIDs}, nil
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
