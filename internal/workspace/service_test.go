package workspace

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/evandr/foliant/internal/apperr"
	"github.com/evandr/foliant/internal/content"
	"github.com/evandr/foliant/internal/index"
	"github.com/evandr/foliant/internal/store"
	"github.com/evandr/foliant/internal/testutil"
	"github.com/evandr/foliant/internal/tree"
)

// syncScheduler runs rebuilds inline so tests observe index state without
// waiting on a worker.
type syncScheduler struct {
	rebuilder *index.Rebuilder
	count     int
}

func (s *syncScheduler) EnqueueRebuild(ownerID, itemID string) {
	s.count++
	_ = s.rebuilder.Rebuild(ownerID, itemID)
}

func newService(t *testing.T) (*Service, *store.DB, *syncScheduler) {
	t.Helper()
	db := testutil.TestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sched := &syncScheduler{rebuilder: index.NewRebuilder(db, logger)}
	svc := NewService(db, tree.NewManager(db, nil, 0), index.NewSearcher(db), sched)
	return svc, db, sched
}

func docWithHeading(title, body string) *content.Document {
	return &content.Document{Type: content.TypeDoc, Content: []content.Block{
		{Type: content.TypeHeading, Attrs: &content.Attrs{Level: 1}, Content: []content.Block{
			{Type: content.TypeText, Text: title},
		}},
		{Type: content.TypeParagraph, Content: []content.Block{
			{Type: content.TypeText, Text: body},
		}},
	}}
}

func plainDoc(body string) *content.Document {
	return &content.Document{Type: content.TypeDoc, Content: []content.Block{
		{Type: content.TypeParagraph, Content: []content.Block{
			{Type: content.TypeText, Text: body},
		}},
	}}
}

func TestCreateNote_Defaults(t *testing.T) {
	svc, _, sched := newService(t)
	ctx := context.Background()

	item, err := svc.CreateNote(ctx, "alice", "", nil, nil)
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if item.Title != "Untitled" {
		t.Errorf("title = %q, want Untitled", item.Title)
	}
	if item.Version != 0 {
		t.Errorf("version = %d, want 0", item.Version)
	}
	if sched.count != 0 {
		t.Errorf("contentless create scheduled %d rebuilds", sched.count)
	}
}

func TestCreateNote_WithContentSchedulesRebuild(t *testing.T) {
	svc, db, sched := newService(t)
	ctx := context.Background()

	item, err := svc.CreateNote(ctx, "alice", "Plans", nil, plainDoc("do things"))
	if err != nil {
		t.Fatal(err)
	}
	if sched.count != 1 {
		t.Errorf("rebuilds = %d, want 1", sched.count)
	}
	nodes, _ := db.NodesByItem("alice", item.ID)
	if len(nodes) != 2 {
		t.Errorf("indexed nodes = %d, want 2", len(nodes))
	}
}

func TestCreateNote_ParentMustBeOwnedFolder(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	note, _ := svc.CreateNote(ctx, "alice", "Note", nil, nil)
	if _, err := svc.CreateNote(ctx, "alice", "Child", &note.ID, nil); !errors.Is(err, apperr.ErrInvalidOperation) {
		t.Errorf("note parent = %v, want ErrInvalidOperation", err)
	}

	folder, _ := svc.CreateFolder(ctx, "alice", "F", nil)
	if _, err := svc.CreateNote(ctx, "bob", "Sneaky", &folder.ID, nil); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("cross-owner parent = %v, want ErrNotFound", err)
	}
}

func TestUpdateContent_DerivesTitleFromLeadingHeading(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	note, _ := svc.CreateNote(ctx, "alice", "Original", nil, nil)

	updated, err := svc.UpdateContent(ctx, "alice", note.ID, docWithHeading("Derived Title", "body"), nil)
	if err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}
	if updated.Title != "Derived Title" {
		t.Errorf("title = %q, want Derived Title", updated.Title)
	}
	if updated.Version != 1 {
		t.Errorf("version = %d, want 1", updated.Version)
	}

	// No leading heading keeps the current title.
	updated, err = svc.UpdateContent(ctx, "alice", note.ID, plainDoc("just text"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Title != "Derived Title" {
		t.Errorf("title after headingless update = %q", updated.Title)
	}
}

func TestUpdateContent_VersionConflict(t *testing.T) {
	svc, _, sched := newService(t)
	ctx := context.Background()

	note, _ := svc.CreateNote(ctx, "alice", "Note", nil, nil)
	if _, err := svc.UpdateContent(ctx, "alice", note.ID, plainDoc("v1"), nil); err != nil {
		t.Fatal(err)
	}
	rebuildsBefore := sched.count

	stale := int64(0)
	_, err := svc.UpdateContent(ctx, "alice", note.ID, plainDoc("clobber"), &stale)
	if !errors.Is(err, apperr.ErrVersionConflict) {
		t.Fatalf("stale update = %v, want ErrVersionConflict", err)
	}
	if sched.count != rebuildsBefore {
		t.Errorf("conflicting update scheduled a rebuild")
	}
}

func TestUpdateContent_TracksAttachments(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	note, _ := svc.CreateNote(ctx, "alice", "Note", nil, nil)
	doc := &content.Document{Type: content.TypeDoc, Content: []content.Block{
		{Type: content.TypeImage, Attrs: &content.Attrs{AttachmentID: "img-1"}},
	}}
	updated, err := svc.UpdateContent(ctx, "alice", note.ID, doc, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(updated.Attachments) != 1 || updated.Attachments[0] != "img-1" {
		t.Errorf("attachments = %v", updated.Attachments)
	}
}

func TestUpdateContent_FolderRejected(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	folder, _ := svc.CreateFolder(ctx, "alice", "F", nil)
	_, err := svc.UpdateContent(ctx, "alice", folder.ID, plainDoc("x"), nil)
	if !errors.Is(err, apperr.ErrInvalidOperation) {
		t.Errorf("folder content = %v, want ErrInvalidOperation", err)
	}
}

func TestRename_ReindexesNotes(t *testing.T) {
	svc, db, _ := newService(t)
	ctx := context.Background()

	note, _ := svc.CreateNote(ctx, "alice", "Before", nil, plainDoc("body"))
	if _, err := svc.Rename(ctx, "alice", note.ID, "After"); err != nil {
		t.Fatalf("Rename: %v", err)
	}

	nodes, _ := db.NodesByItem("alice", note.ID)
	if len(nodes) == 0 || nodes[0].Text != "After" {
		t.Errorf("title node after rename = %+v", nodes)
	}

	if _, err := svc.Rename(ctx, "alice", note.ID, ""); !errors.Is(err, apperr.ErrInvalidOperation) {
		t.Errorf("empty title = %v, want ErrInvalidOperation", err)
	}
}

func TestTags_AssignIdempotentUnassignStrict(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	note, _ := svc.CreateNote(ctx, "alice", "Note", nil, nil)

	item, err := svc.AssignTag(ctx, "alice", note.ID, "work")
	if err != nil {
		t.Fatalf("AssignTag: %v", err)
	}
	item, err = svc.AssignTag(ctx, "alice", note.ID, "work")
	if err != nil {
		t.Fatalf("repeat AssignTag: %v", err)
	}
	if len(item.Tags) != 1 {
		t.Errorf("tags = %v, want exactly one", item.Tags)
	}

	item, err = svc.UnassignTag(ctx, "alice", note.ID, "work")
	if err != nil {
		t.Fatalf("UnassignTag: %v", err)
	}
	if len(item.Tags) != 0 {
		t.Errorf("tags after unassign = %v", item.Tags)
	}

	if _, err := svc.UnassignTag(ctx, "alice", note.ID, "work"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("unassign absent tag = %v, want ErrNotFound", err)
	}
}

func TestStructure_RequiresOwnedItem(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	note, _ := svc.CreateNote(ctx, "alice", "Note", nil, plainDoc("body"))

	nodes, err := svc.Structure(ctx, "alice", note.ID)
	if err != nil {
		t.Fatalf("Structure: %v", err)
	}
	if len(nodes) != 2 {
		t.Errorf("nodes = %d, want 2", len(nodes))
	}

	if _, err := svc.Structure(ctx, "bob", note.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("cross-owner structure = %v, want ErrNotFound", err)
	}
}

func TestStructureSummaries_SkipsUnindexedItems(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, _ = svc.CreateNote(ctx, "alice", "Indexed", nil, plainDoc("body"))
	_, _ = svc.CreateNote(ctx, "alice", "Bare", nil, nil)

	summaries, err := svc.StructureSummaries(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("StructureSummaries: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Title != "Indexed" {
		t.Errorf("summaries = %+v", summaries)
	}
	if len(summaries[0].Nodes) != 2 {
		t.Errorf("summary nodes = %d", len(summaries[0].Nodes))
	}
}

func TestSearchAndRemove_EndToEnd(t *testing.T) {
	svc, db, _ := newService(t)
	ctx := context.Background()

	note, _ := svc.CreateNote(ctx, "alice", "Quarterly Plan", nil, plainDoc("budget review"))

	hits, err := svc.Search(ctx, "alice", "budget", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].ItemID != note.ID {
		t.Fatalf("hits = %+v", hits)
	}

	if err := svc.Remove(ctx, "alice", note.ID, false); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	nodes, _ := db.NodesByItem("alice", note.ID)
	if len(nodes) != 0 {
		t.Errorf("index nodes survived remove: %d", len(nodes))
	}
}
