// Package compaction implements ignitedb's background log compaction: the
// process that reclaims space held by dead (overwritten or deleted) entries
// by rewriting the live contents of a batch of segments into fresh ones and
// discarding the originals.
//
// Selection, rewrite, and publish all run under a single compaction mutex,
// so only one compaction pass is ever in flight. Only the publish step
// needs the index's write lock; everything else only reads.
package compaction

import (
	"sort"
	"sync"

	"github.com/iamNilotpal/ignitedb/internal/codec"
	"github.com/iamNilotpal/ignitedb/internal/index"
	"github.com/iamNilotpal/ignitedb/internal/storage"
	"github.com/iamNilotpal/ignitedb/pkg/options"
	"go.uber.org/zap"
)

// Compaction owns the compaction mutex and holds the dependencies it needs
// to select, rewrite, and publish a compaction batch.
type Compaction struct {
	options *options.Options
	log     *zap.SugaredLogger
	storage *storage.Storage
	index   *index.Index

	mu sync.Mutex
}

// Config holds the dependencies a Compaction needs.
type Config struct {
	Options *options.Options
	Logger  *zap.SugaredLogger
	Storage *storage.Storage
	Index   *index.Index
}

// New builds a Compaction coordinator. The returned value runs no
// background work on its own; callers (the engine's compaction goroutine)
// call Run on whatever schedule the configured options describe.
func New(config *Config) *Compaction {
	return &Compaction{
		options: config.Options,
		log:     config.Logger,
		storage: config.Storage,
		index:   config.Index,
	}
}

// Run selects a compaction batch using the trigger/inclusion tests and, if
// any segment meets the trigger threshold, rewrites and publishes the
// selected batch. Run is a no-op if nothing triggers, even if some segments
// independently cross the lower inclusion threshold.
func (c *Compaction) Run() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	activeID := c.storage.ActiveFileID()
	fileStats := c.index.FileStats()

	selected, triggered := c.selectFiles(activeID, fileStats)
	if !triggered {
		if len(selected) > 0 {
			c.log.Infow("compaction candidates found but none met the trigger threshold", "files", selected)
		} else {
			c.log.Infow("no files eligible for compaction")
		}
		return nil
	}

	return c.compactFiles(selected)
}

// selectFiles applies the trigger and inclusion tests described by the
// store's options to every non-active segment's current stats. A batch is
// only worth compacting if at least one file independently crosses the
// (higher) trigger threshold; files crossing only the (lower) inclusion
// threshold ride along in that batch but never cause one on their own.
func (c *Compaction) selectFiles(activeID uint32, stats []index.FileStat) (files []uint32, triggered bool) {
	set := make(map[uint32]struct{})

	for _, stat := range stats {
		if stat.FileID == activeID {
			continue
		}

		if !triggered {
			switch {
			case stat.Fragmentation >= c.options.FragmentationTrigger:
				c.log.Infow("file triggered compaction by fragmentation",
					"fileID", stat.FileID, "fragmentation", stat.Fragmentation)
				triggered = true
				set[stat.FileID] = struct{}{}
			case stat.DeadBytes >= c.options.DeadBytesTrigger:
				c.log.Infow("file triggered compaction by dead bytes",
					"fileID", stat.FileID, "deadBytes", stat.DeadBytes)
				triggered = true
				set[stat.FileID] = struct{}{}
			}
		}

		if _, already := set[stat.FileID]; already {
			continue
		}

		switch {
		case stat.Fragmentation >= c.options.FragmentationThreshold:
			set[stat.FileID] = struct{}{}
		case stat.DeadBytes >= c.options.DeadBytesThreshold:
			set[stat.FileID] = struct{}{}
		default:
			if size, err := c.storage.FileSize(stat.FileID); err == nil && uint64(size) <= c.options.SmallFileThreshold {
				set[stat.FileID] = struct{}{}
			}
		}
	}

	files = make([]uint32, 0, len(set))
	for id := range set {
		files = append(files, id)
	}
	sort.Slice(files, func(i, j int) bool { return files[i] < files[j] })

	return files, triggered
}

// compactFiles rewrites the live contents of files into fresh segments and
// publishes the result: the new segments' hints are folded into the index,
// the old segments' stats are dropped, and the old segment files are
// removed from disk.
func (c *Compaction) compactFiles(files []uint32) error {
	c.log.Infow("compacting segment files", "files", files)

	writer, err := c.storage.NewCompactionWriter()
	if err != nil {
		return err
	}

	// deletes carries forward tombstones for keys that have no current
	// index entry: the key was already fully deleted, but an even older,
	// non-compacted segment might still hold a stale live copy. Writing the
	// tombstone into the new segment ensures that older copy still loses.
	deletes := make(map[string]uint64)

	for _, fileID := range files {
		hints, ok, err := c.storage.Hints(fileID)
		if !ok && err == nil {
			hints, err = c.storage.RecreateHints(fileID)
		}
		if err != nil {
			return err
		}

		var inserts []*codec.Hint
		for _, hint := range hints {
			entry, exists := c.index.Get(hint.Key)

			switch {
			case hint.Deleted:
				if !exists {
					key := string(hint.Key)
					if seq, ok := deletes[key]; !ok || seq < hint.Sequence {
						deletes[key] = hint.Sequence
					}
				}
			case exists && entry.Sequence == hint.Sequence:
				inserts = append(inserts, hint)
			}
		}

		for _, hint := range inserts {
			rec, err := c.storage.ReadEntry(fileID, hint.EntryPos)
			if err != nil {
				return err
			}
			if _, _, err := writer.Append(rec); err != nil {
				return err
			}
		}
	}

	for key, sequence := range deletes {
		if _, _, err := writer.Append(codec.NewTombstone(sequence, []byte(key))); err != nil {
			return err
		}
	}

	if err := writer.Close(); err != nil {
		return err
	}

	newFiles := writer.NewFileIDs()
	if err := c.publish(files, newFiles); err != nil {
		return err
	}

	c.log.Infow("finished compacting segment files", "compacted", files, "rewrittenInto", newFiles)
	return nil
}

// publish is the only step of a compaction pass that mutates shared state:
// it folds every hint the rewrite produced into the index, drops the old
// segments' stats, and removes the old segment files from disk, in that
// order, so a crash mid-publish never leaves the index pointing at a
// segment file that's already gone.
func (c *Compaction) publish(oldFiles, newFiles []uint32) error {
	for _, fileID := range newFiles {
		hints, ok, err := c.storage.Hints(fileID)
		if !ok && err == nil {
			hints, err = c.storage.RecreateHints(fileID)
		}
		if err != nil {
			return err
		}
		for _, hint := range hints {
			c.index.UpdateFromHint(hint, fileID)
		}
	}

	c.index.RemoveFiles(oldFiles)

	return c.storage.SwapFiles(oldFiles, newFiles)
}
