// Package engine provides the core database engine implementation for
// ignitedb.
//
// The engine serves as the central coordinator and entry point for all
// database operations. It orchestrates the interaction between three main
// subsystems:
//   - Index: the in-memory key -> location map and its liveness stats
//   - Storage: the append-only log manager and its on-disk segments
//   - Compaction: background maintenance that reclaims dead space
//
// Put and Delete are serialized by a single engine mutex so that the
// sequence number assigned to a write always matches the order it's
// actually appended to the log; Get never needs that mutex since the index
// and storage layers are independently safe for concurrent reads.
package engine

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iamNilotpal/ignitedb/internal/codec"
	"github.com/iamNilotpal/ignitedb/internal/compaction"
	"github.com/iamNilotpal/ignitedb/internal/index"
	"github.com/iamNilotpal/ignitedb/internal/storage"
	"github.com/iamNilotpal/ignitedb/pkg/options"
	"go.uber.org/zap"
)

var (
	// ErrEngineClosed is returned when attempting to perform operations on a closed engine.
	ErrEngineClosed = errors.New("operation failed: cannot access closed engine")

	// ErrKeyNotFound is returned by Get when a key has no live value.
	ErrKeyNotFound = errors.New("key not found")
)

// Engine represents the main database engine that coordinates all
// subsystems. It acts as the primary interface for database operations and
// manages the lifecycle of all internal components.
type Engine struct {
	options *options.Options
	log     *zap.SugaredLogger

	closed atomic.Bool
	done   chan struct{}
	wg     sync.WaitGroup

	// mu serializes Put/Delete so sequence allocation and the corresponding
	// log append happen as one atomic step; Get does not take it.
	mu       sync.Mutex
	sequence uint64

	index      *index.Index
	storage    *storage.Storage
	compaction *compaction.Compaction
}

// Config holds all the parameters needed to initialize a new Engine instance.
type Config struct {
	Dir     string
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// New opens the database directory, recovers the index from whatever
// segments already exist, and starts the configured background sync and
// compaction goroutines.
func New(config *Config) (*Engine, error) {
	idx, err := index.New(&index.Config{Logger: config.Logger})
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(&storage.Config{
		Dir:     config.Dir,
		Logger:  config.Logger,
		Options: config.Options,
	})
	if err != nil {
		return nil, err
	}

	e := &Engine{
		options: config.Options,
		log:     config.Logger,
		index:   idx,
		storage: store,
		done:    make(chan struct{}),
	}

	e.compaction = compaction.New(&compaction.Config{
		Options: config.Options,
		Logger:  config.Logger,
		Storage: store,
		Index:   idx,
	})

	maxSeq, err := e.recover()
	if err != nil {
		store.Close()
		return nil, err
	}
	e.sequence = maxSeq + 1

	if config.Options.Sync == options.SyncInterval {
		e.wg.Add(1)
		go e.runSync(time.Duration(config.Options.SyncIntervalMillis) * time.Millisecond)
	}

	if config.Options.Compaction {
		e.wg.Add(1)
		go e.runCompaction(config.Options.CompactionCheckFrequency)
	}

	return e, nil
}

// recover replays every existing segment's hints (or rebuilds them from the
// data file when no usable hint file exists) into the index, returning the
// highest sequence number observed so new writes continue from there.
func (e *Engine) recover() (uint64, error) {
	files, err := e.storage.Files()
	if err != nil {
		return 0, err
	}

	var maxSeq uint64
	for _, fileID := range files {
		hints, ok, err := e.storage.Hints(fileID)
		if !ok && err == nil {
			e.log.Infow("recreating hint file during recovery", "fileID", fileID)
			hints, err = e.storage.RecreateHints(fileID)
		}
		if err != nil {
			return 0, err
		}

		for _, hint := range hints {
			if hint.Sequence > maxSeq {
				maxSeq = hint.Sequence
			}
			e.index.UpdateFromHint(hint, fileID)
		}
	}

	e.log.Infow("recovery complete", "segments", len(files), "maxSequence", maxSeq)
	return maxSeq, nil
}

// Get returns the current value for key, or ErrKeyNotFound if it has none.
func (e *Engine) Get(key []byte) ([]byte, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}

	entry, ok := e.index.Get(key)
	if !ok {
		return nil, ErrKeyNotFound
	}

	rec, err := e.storage.ReadEntry(entry.FileID, entry.EntryPos)
	if err != nil {
		return nil, err
	}

	if rec.Deleted {
		e.log.Warnw("index pointed to a dead entry", "key", string(key), "fileID", entry.FileID)
		return nil, ErrKeyNotFound
	}

	return rec.Value, nil
}

// Put writes key/value, assigning it the next sequence number.
func (e *Engine) Put(key, value []byte) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}

	rec, err := codec.NewRecord(0, key, value)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	rec.Sequence = e.sequence
	fileID, pos, err := e.storage.AppendEntry(rec)
	if err != nil {
		return err
	}
	e.sequence++

	e.index.Insert(key, index.Entry{
		FileID:    fileID,
		EntryPos:  pos,
		EntrySize: uint64(rec.Size()),
		Sequence:  rec.Sequence,
	})

	return nil
}

// Delete removes key. It's a no-op, without appending anything, if key has
// no live entry.
func (e *Engine) Delete(key []byte) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.index.Get(key); !ok {
		return nil
	}

	tombstone := codec.NewTombstone(e.sequence, key)
	if _, _, err := e.storage.AppendEntry(tombstone); err != nil {
		return err
	}
	e.sequence++

	e.index.Remove(key)
	return nil
}

// Keys returns a snapshot of every live key.
func (e *Engine) Keys() ([][]byte, error) {
	if e.closed.Load() {
		return nil, ErrEngineClosed
	}
	return e.index.Keys(), nil
}

// Compact triggers an immediate, synchronous compaction pass, independent
// of the background compaction schedule.
func (e *Engine) Compact() error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return e.compaction.Run()
}

func (e *Engine) runSync(interval time.Duration) {
	defer e.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
			if err := e.storage.Sync(); err != nil {
				e.log.Warnw("background sync failed", "error", err)
			}
		}
	}
}

func (e *Engine) runCompaction(frequency time.Duration) {
	defer e.wg.Done()

	ticker := time.NewTicker(frequency)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return
		case <-ticker.C:
			hour := time.Now().Hour()
			if !e.options.CompactionWindow.InWindow(hour) {
				e.log.Infow("compaction outside configured window", "hour", hour)
				continue
			}
			if err := e.compaction.Run(); err != nil {
				e.log.Warnw("background compaction failed", "error", err)
			}
		}
	}
}

// Close stops the background goroutines and closes the storage subsystem.
// Subsequent operations return ErrEngineClosed.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrEngineClosed
	}

	close(e.done)
	e.wg.Wait()

	if err := e.storage.Close(); err != nil {
		return err
	}
	return e.index.Close()
}
