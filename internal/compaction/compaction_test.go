package compaction

import (
	"testing"

	"github.com/iamNilotpal/ignitedb/internal/index"
	"github.com/iamNilotpal/ignitedb/internal/storage"
	"github.com/iamNilotpal/ignitedb/pkg/logger"
	"github.com/iamNilotpal/ignitedb/pkg/options"
)

func newTestCompaction(t *testing.T) (*Compaction, *storage.Storage, *index.Index) {
	t.Helper()

	opts := options.Apply(
		options.WithMaxFileSize(1<<20),
		options.WithFragmentationTrigger(0.5),
		options.WithDeadBytesTrigger(100),
		options.WithFragmentationThreshold(0.2),
		options.WithDeadBytesThreshold(10),
		options.WithSmallFileThreshold(0),
	)

	store, err := storage.Open(&storage.Config{Dir: t.TempDir(), Options: &opts, Logger: logger.NewNop()})
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	idx, err := index.New(&index.Config{Logger: logger.NewNop()})
	if err != nil {
		t.Fatalf("index.New: %v", err)
	}

	c := New(&Config{Options: &opts, Logger: logger.NewNop(), Storage: store, Index: idx})
	return c, store, idx
}

func TestSelectFilesSkipsActiveSegment(t *testing.T) {
	c, store, idx := newTestCompaction(t)

	active := store.ActiveFileID()
	idx.Insert([]byte("k"), index.Entry{FileID: active, EntrySize: 10, Sequence: 1})
	idx.Remove([]byte("k")) // makes the only entry on the active segment fully dead

	files, triggered := c.selectFiles(active, idx.FileStats())
	if triggered {
		t.Errorf("selectFiles triggered on the active segment's own dead entries, want it always skipped")
	}
	if len(files) != 0 {
		t.Errorf("selectFiles returned %v, want none (active segment excluded)", files)
	}
}

func TestSelectFilesTriggersOnOwnFragmentation(t *testing.T) {
	c, _, idx := newTestCompaction(t)

	// File 1 gets two entries for the same key; the second retires the first.
	idx.Insert([]byte("a"), index.Entry{FileID: 1, EntrySize: 5, Sequence: 1})
	idx.Insert([]byte("a"), index.Entry{FileID: 1, EntrySize: 5, Sequence: 2}) // retires the first copy, 1 dead of 2

	files, triggered := c.selectFiles(99, idx.FileStats())
	if !triggered {
		// File 1 holds 2 entries, 1 of them dead, so its fragmentation
		// (0.5) meets the 0.5 trigger on its own: this is the expected
		// triggering case.
		t.Fatalf("selectFiles did not trigger; files=%v", files)
	}

	found := false
	for _, f := range files {
		if f == 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("selectFiles = %v, want file 1 included once triggered", files)
	}
}

func TestRunNoopWhenNothingTriggers(t *testing.T) {
	c, _, idx := newTestCompaction(t)
	idx.Insert([]byte("k"), index.Entry{FileID: 1, EntrySize: 10, Sequence: 1})

	if err := c.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// File id 1 is the fresh store's active segment, and its stats (no dead
	// entries) cross no trigger. A Run that proceeded to compact it would
	// fail in SwapFiles, which rejects the active id as unknown; Run
	// succeeding confirms it treated this as a no-op.
}
