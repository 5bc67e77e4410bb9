package store

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/evandr/foliant/internal/apperr"
	"github.com/evandr/foliant/internal/content"
	"github.com/evandr/foliant/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "foliant-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newNote(id, owner, title string, parentID *string) *models.Item {
	now := time.Now()
	return &models.Item{
		ID:        id,
		OwnerID:   owner,
		Kind:      models.KindNote,
		Title:     title,
		ParentID:  parentID,
		Tags:      []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newFolder(id, owner, title string, parentID *string) *models.Item {
	item := newNote(id, owner, title, parentID)
	item.Kind = models.KindFolder
	return item
}

func simpleDoc(text string) *content.Document {
	return &content.Document{Type: content.TypeDoc, Content: []content.Block{
		{Type: content.TypeParagraph, Content: []content.Block{
			{Type: content.TypeText, Text: text},
		}},
	}}
}

func TestCreateAndGetItem(t *testing.T) {
	db := testDB(t)
	note := newNote("n1", "alice", "Hello", nil)
	note.Content = simpleDoc("body")
	if err := db.CreateItem(note); err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	got, err := db.GetItem("alice", "n1")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.Title != "Hello" || got.Kind != models.KindNote || got.Version != 0 {
		t.Errorf("item = %+v", got)
	}
	if got.Content == nil || len(got.Content.Content) != 1 {
		t.Errorf("content not round-tripped: %+v", got.Content)
	}
}

func TestGetItem_OwnerScoping(t *testing.T) {
	db := testDB(t)
	if err := db.CreateItem(newNote("n1", "alice", "Private", nil)); err != nil {
		t.Fatal(err)
	}
	if _, err := db.GetItem("bob", "n1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("cross-owner read = %v, want ErrNotFound", err)
	}
}

func TestListChildren_RootVsParent(t *testing.T) {
	db := testDB(t)
	_ = db.CreateItem(newFolder("f1", "alice", "Folder", nil))
	parent := "f1"
	_ = db.CreateItem(newNote("n1", "alice", "Child", &parent))
	_ = db.CreateItem(newNote("n2", "alice", "Root note", nil))

	kids, err := db.ListChildren("alice", &parent)
	if err != nil {
		t.Fatalf("ListChildren: %v", err)
	}
	if len(kids) != 1 || kids[0].ID != "n1" {
		t.Errorf("children = %+v", kids)
	}

	roots, err := db.ListChildren("alice", nil)
	if err != nil {
		t.Fatalf("ListChildren(root): %v", err)
	}
	if len(roots) != 2 {
		t.Errorf("root items = %d, want 2 (folder + root note)", len(roots))
	}
}

func TestListRecent_NotesOnlyNewestFirst(t *testing.T) {
	db := testDB(t)
	old := newNote("n1", "alice", "Old", nil)
	old.UpdatedAt = time.Now().Add(-time.Hour)
	_ = db.CreateItem(old)
	_ = db.CreateItem(newNote("n2", "alice", "New", nil))
	_ = db.CreateItem(newFolder("f1", "alice", "Folder", nil))

	recent, err := db.ListRecent("alice", 10)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent = %d items, want 2 (folders excluded)", len(recent))
	}
	if recent[0].ID != "n2" {
		t.Errorf("first recent = %s, want n2", recent[0].ID)
	}
}

func TestUpdateContent_IncrementsVersion(t *testing.T) {
	db := testDB(t)
	_ = db.CreateItem(newNote("n1", "alice", "Note", nil))

	v, err := db.UpdateContent("alice", "n1", simpleDoc("first"), "Note", nil, nil)
	if err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}
	if v != 1 {
		t.Errorf("version = %d, want 1", v)
	}

	expected := int64(1)
	v, err = db.UpdateContent("alice", "n1", simpleDoc("second"), "Note", nil, &expected)
	if err != nil {
		t.Fatalf("UpdateContent with match: %v", err)
	}
	if v != 2 {
		t.Errorf("version = %d, want 2", v)
	}
}

func TestUpdateContent_VersionConflictLeavesRowUnchanged(t *testing.T) {
	db := testDB(t)
	_ = db.CreateItem(newNote("n1", "alice", "Note", nil))
	if _, err := db.UpdateContent("alice", "n1", simpleDoc("v1"), "Note", nil, nil); err != nil {
		t.Fatal(err)
	}

	stale := int64(0)
	_, err := db.UpdateContent("alice", "n1", simpleDoc("clobber"), "Clobbered", nil, &stale)
	if !errors.Is(err, apperr.ErrVersionConflict) {
		t.Fatalf("stale write = %v, want ErrVersionConflict", err)
	}

	got, err := db.GetItem("alice", "n1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != 1 || got.Title != "Note" {
		t.Errorf("row changed after conflict: version=%d title=%q", got.Version, got.Title)
	}
	if got.Content.Content[0].Content[0].Text != "v1" {
		t.Errorf("content changed after conflict")
	}
}

func TestUpdateContent_FolderRejected(t *testing.T) {
	db := testDB(t)
	_ = db.CreateItem(newFolder("f1", "alice", "Folder", nil))
	_, err := db.UpdateContent("alice", "f1", simpleDoc("x"), "Folder", nil, nil)
	if !errors.Is(err, apperr.ErrInvalidOperation) {
		t.Errorf("folder content write = %v, want ErrInvalidOperation", err)
	}
}

func TestUpdateContent_MissingItem(t *testing.T) {
	db := testDB(t)
	_, err := db.UpdateContent("alice", "ghost", simpleDoc("x"), "X", nil, nil)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing item = %v, want ErrNotFound", err)
	}
}

func TestDeleteItem_RemovesIndexNodes(t *testing.T) {
	db := testDB(t)
	_ = db.CreateItem(newNote("n1", "alice", "Note", nil))
	_ = db.ReplaceNodes("alice", "n1", []models.IndexNode{
		{OwnerID: "alice", ItemID: "n1", Kind: models.NodeTitle, Text: "Note", Path: "Note", IndexedAt: time.Now()},
	})

	if err := db.DeleteItem("alice", "n1"); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	nodes, err := db.NodesByItem("alice", "n1")
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 0 {
		t.Errorf("index nodes survived delete: %d", len(nodes))
	}
	if err := db.DeleteItem("alice", "n1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("double delete = %v, want ErrNotFound", err)
	}
}

func TestReplaceNodes_FullSwapAndOrdering(t *testing.T) {
	db := testDB(t)
	_ = db.CreateItem(newNote("n1", "alice", "Note", nil))

	now := time.Now()
	first := []models.IndexNode{
		{OwnerID: "alice", ItemID: "n1", Kind: models.NodeTitle, Text: "Old", Path: "Old", Position: 0, IndexedAt: now},
		{OwnerID: "alice", ItemID: "n1", Kind: models.NodeHeading, Level: 1, Text: "H", Path: "Old > H", Position: 1, IndexedAt: now},
	}
	if err := db.ReplaceNodes("alice", "n1", first); err != nil {
		t.Fatalf("ReplaceNodes: %v", err)
	}

	second := []models.IndexNode{
		{OwnerID: "alice", ItemID: "n1", Kind: models.NodeTitle, Text: "New", Path: "New", Position: 0, IndexedAt: now},
	}
	if err := db.ReplaceNodes("alice", "n1", second); err != nil {
		t.Fatalf("ReplaceNodes (swap): %v", err)
	}

	nodes, err := db.NodesByItem("alice", "n1")
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 1 || nodes[0].Text != "New" {
		t.Errorf("nodes after swap = %+v", nodes)
	}

	// Empty batch clears.
	if err := db.ReplaceNodes("alice", "n1", nil); err != nil {
		t.Fatalf("ReplaceNodes(nil): %v", err)
	}
	nodes, _ = db.NodesByItem("alice", "n1")
	if len(nodes) != 0 {
		t.Errorf("nodes after clear = %d", len(nodes))
	}
}

func TestNodesByItem_OrderedByPosition(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	batch := []models.IndexNode{
		{OwnerID: "alice", ItemID: "n1", Kind: models.NodeParagraph, Text: "second", Position: 1, IndexedAt: now},
		{OwnerID: "alice", ItemID: "n1", Kind: models.NodeTitle, Text: "first", Position: 0, IndexedAt: now},
	}
	if err := db.ReplaceNodes("alice", "n1", batch); err != nil {
		t.Fatal(err)
	}
	nodes, err := db.NodesByItem("alice", "n1")
	if err != nil {
		t.Fatal(err)
	}
	if nodes[0].Text != "first" || nodes[1].Text != "second" {
		t.Errorf("nodes out of order: %+v", nodes)
	}
}

func TestNodesByOwner_ScopedToOwner(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.ReplaceNodes("alice", "n1", []models.IndexNode{
		{OwnerID: "alice", ItemID: "n1", Kind: models.NodeTitle, Text: "mine", IndexedAt: now},
	})
	_ = db.ReplaceNodes("bob", "n2", []models.IndexNode{
		{OwnerID: "bob", ItemID: "n2", Kind: models.NodeTitle, Text: "his", IndexedAt: now},
	})

	nodes, err := db.NodesByOwner("alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 1 || nodes[0].Text != "mine" {
		t.Errorf("owner scoping leaked: %+v", nodes)
	}
}

func TestUpdateTitleAndTags(t *testing.T) {
	db := testDB(t)
	_ = db.CreateItem(newNote("n1", "alice", "Before", nil))

	if err := db.UpdateTitle("alice", "n1", "After"); err != nil {
		t.Fatalf("UpdateTitle: %v", err)
	}
	if err := db.UpdateTags("alice", "n1", []string{"work"}); err != nil {
		t.Fatalf("UpdateTags: %v", err)
	}
	got, _ := db.GetItem("alice", "n1")
	if got.Title != "After" || len(got.Tags) != 1 || got.Tags[0] != "work" {
		t.Errorf("item = %+v", got)
	}

	if err := db.UpdateTitle("alice", "ghost", "X"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("rename missing = %v, want ErrNotFound", err)
	}
}
