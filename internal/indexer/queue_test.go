package indexer

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/evandr/foliant/internal/content"
	"github.com/evandr/foliant/internal/index"
	"github.com/evandr/foliant/internal/models"
	"github.com/evandr/foliant/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestQueue_CloseDrainsPendingRebuilds(t *testing.T) {
	db := testutil.TestDB(t)
	now := time.Now()
	err := db.CreateItem(&models.Item{
		ID: "n1", OwnerID: "alice", Kind: models.KindNote, Title: "Note",
		Content: &content.Document{Type: content.TypeDoc, Content: []content.Block{
			{Type: content.TypeParagraph, Content: []content.Block{
				{Type: content.TypeText, Text: "body"},
			}},
		}},
		Tags: []string{}, CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatal(err)
	}

	q := New(index.NewRebuilder(db, discardLogger()), nil, discardLogger(), 16)
	q.EnqueueRebuild("alice", "n1")
	q.Close()

	nodes, err := db.NodesByItem("alice", "n1")
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 2 {
		t.Errorf("nodes after Close = %d, want 2", len(nodes))
	}
}

func TestQueue_EnqueueAfterCloseIsNoOp(t *testing.T) {
	db := testutil.TestDB(t)
	q := New(index.NewRebuilder(db, discardLogger()), nil, discardLogger(), 16)
	q.Close()

	// Must not panic or block.
	q.EnqueueRebuild("alice", "n1")
	q.ScheduleDelete("alice", []string{"a1"})
}

func TestQueue_CloseIdempotent(t *testing.T) {
	db := testutil.TestDB(t)
	q := New(index.NewRebuilder(db, discardLogger()), nil, discardLogger(), 1)
	q.Close()
	q.Close()
}

func TestQueue_CleanupDeletesBlobs(t *testing.T) {
	db := testutil.TestDB(t)
	blobs := testutil.TestBlobs(t)

	id, err := blobs.Save("alice", []byte("payload"))
	if err != nil {
		t.Fatal(err)
	}

	q := New(index.NewRebuilder(db, discardLogger()), blobs, discardLogger(), 16)
	q.ScheduleDelete("alice", []string{id})
	q.Close()

	if _, err := blobs.Read("alice", id); err == nil {
		t.Error("blob survived scheduled delete")
	}
}

func TestQueue_RebuildFailureDoesNotStopWorker(t *testing.T) {
	db := testutil.TestDB(t)
	q := New(index.NewRebuilder(db, discardLogger()), nil, discardLogger(), 16)

	// Rebuilding a missing item clears its (absent) batch and succeeds; a
	// second real task afterwards must still run.
	q.EnqueueRebuild("alice", "ghost")

	now := time.Now()
	_ = db.CreateItem(&models.Item{
		ID: "n1", OwnerID: "alice", Kind: models.KindNote, Title: "Real",
		Content: &content.Document{Type: content.TypeDoc, Content: []content.Block{
			{Type: content.TypeParagraph, Content: []content.Block{
				{Type: content.TypeText, Text: "x"},
			}},
		}},
		Tags: []string{}, CreatedAt: now, UpdatedAt: now,
	})
	q.EnqueueRebuild("alice", "n1")
	q.Close()

	nodes, _ := db.NodesByItem("alice", "n1")
	if len(nodes) == 0 {
		t.Error("second task did not run")
	}
}
