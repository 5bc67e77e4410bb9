// Package indexer runs the asynchronous work that content mutations schedule:
// index rebuilds and best-effort attachment cleanup.
package indexer

import (
	"log/slog"
	"sync/atomic"

	"github.com/evandr/foliant/internal/blob"
	"github.com/evandr/foliant/internal/index"
)

type taskKind int

const (
	taskRebuild taskKind = iota
	taskCleanup
)

type task struct {
	kind        taskKind
	ownerID     string
	itemID      string
	attachments []string
}

// Queue is the in-process task queue behind fire-and-forget scheduling.
//
// Concurrency model: a single worker goroutine owns all task execution;
// producers communicate with it through a buffered channel, so no mutexes
// are required. FIFO execution within the single worker gives per-item
// rebuild ordering under normal operation, but rebuilds do not rely on it:
// each one fully replaces the item's index batch, so they are idempotent and
// safe to run out of order.
//
// A content write returns before its rebuild runs; readers can observe a
// note whose index has not caught up yet. That eventual-consistency window
// is part of the contract, not a bug.
type Queue struct {
	tasks     chan task
	rebuilder *index.Rebuilder
	blobs     *blob.Store
	logger    *slog.Logger

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// New creates a Queue and starts its worker. blobs may be nil when
// attachment cleanup is not wired (tests).
func New(rebuilder *index.Rebuilder, blobs *blob.Store, logger *slog.Logger, buffer int) *Queue {
	if buffer <= 0 {
		buffer = 256
	}
	q := &Queue{
		tasks:     make(chan task, buffer),
		rebuilder: rebuilder,
		blobs:     blobs,
		logger:    logger,
		stopCh:    make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.stopped)
	for {
		select {
		case <-q.stopCh:
			// Drain whatever is already enqueued before exiting so pending
			// rebuilds are not lost on shutdown.
			for {
				select {
				case t := <-q.tasks:
					q.process(t)
				default:
					return
				}
			}
		case t := <-q.tasks:
			q.process(t)
		}
	}
}

func (q *Queue) process(t task) {
	switch t.kind {
	case taskRebuild:
		// A failed rebuild never surfaces to the write that scheduled it;
		// the write is already durable. The item's previous batch has been
		// cleared or retained whole, never left half-written.
		if err := q.rebuilder.Rebuild(t.ownerID, t.itemID); err != nil {
			q.logger.Warn("index rebuild failed",
				slog.String("item_id", t.itemID),
				slog.String("error", err.Error()))
		}
	case taskCleanup:
		if q.blobs == nil {
			return
		}
		for _, id := range t.attachments {
			if err := q.blobs.Delete(t.ownerID, id); err != nil {
				q.logger.Warn("attachment cleanup failed",
					slog.String("attachment_id", id),
					slog.String("error", err.Error()))
			}
		}
	}
}

// EnqueueRebuild schedules an index rebuild for the item. Blocks only when
// the buffer is full; no-ops after Close.
func (q *Queue) EnqueueRebuild(ownerID, itemID string) {
	q.enqueue(task{kind: taskRebuild, ownerID: ownerID, itemID: itemID})
}

// ScheduleDelete schedules best-effort deletion of attachment blobs.
func (q *Queue) ScheduleDelete(ownerID string, attachmentIDs []string) {
	if len(attachmentIDs) == 0 {
		return
	}
	q.enqueue(task{kind: taskCleanup, ownerID: ownerID, attachments: attachmentIDs})
}

func (q *Queue) enqueue(t task) {
	if q.closed.Load() {
		return
	}
	select {
	case q.tasks <- t:
	case <-q.stopped:
	}
}

// Close stops the worker after draining already-enqueued tasks.
func (q *Queue) Close() {
	if q.closed.CompareAndSwap(false, true) {
		close(q.stopCh)
	}
	<-q.stopped
}
