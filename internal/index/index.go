// Package index provides the in-memory hash table at the center of ignitedb:
// a map from key to (segment, offset, size, sequence) kept entirely in
// memory, plus per-segment liveness statistics derived from every insert and
// removal. Values themselves always live on disk; the index never holds one.
package index

import (
	stdErrors "errors"

	"github.com/iamNilotpal/ignitedb/internal/codec"
	"github.com/iamNilotpal/ignitedb/pkg/errors"
)

var ErrIndexClosed = stdErrors.New("operation failed: cannot access closed index")

// New creates an empty Index ready for concurrent use.
func New(config *Config) (*Index, error) {
	if config == nil || config.Logger == nil {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "index configuration is required",
		).WithField("config").WithRule("required").WithProvided(config)
	}

	return &Index{
		log:     config.Logger,
		entries: make(map[string]Entry, 2048),
		stats:   newStats(),
	}, nil
}

// Get returns the current location of key, if it has a live entry.
func (idx *Index) Get(key []byte) (Entry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	e, ok := idx.entries[string(key)]
	return e, ok
}

// Insert records key's new location after a successful append, retiring
// whatever entry previously occupied key (if any) from the live-byte count
// of its segment.
func (idx *Index) Insert(key []byte, entry Entry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.stats.addEntry(entry)
	if old, ok := idx.entries[string(key)]; ok {
		idx.stats.removeEntry(old)
	}
	idx.entries[string(key)] = entry
}

// Remove deletes key's live entry (following a tombstone append) and
// returns it, or ok=false if key had no live entry.
func (idx *Index) Remove(key []byte) (Entry, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	old, ok := idx.entries[string(key)]
	if !ok {
		return Entry{}, false
	}
	delete(idx.entries, string(key))
	idx.stats.removeEntry(old)
	return old, true
}

// Keys returns a snapshot of every live key currently in the index.
func (idx *Index) Keys() [][]byte {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	keys := make([][]byte, 0, len(idx.entries))
	for k := range idx.entries {
		keys = append(keys, []byte(k))
	}
	return keys
}

// Len reports the number of live keys in the index.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// UpdateFromHint reconciles a single hint read during recovery or
// post-compaction hint replay against the current index state. It mirrors
// the occupied/vacant and stale/live branching that hint reconciliation
// always needs: a hint only wins over whatever is already indexed for its
// key if its sequence is not older, and a losing hint still needs its
// implied bytes counted as dead so fragmentation stats stay accurate.
func (idx *Index) UpdateFromHint(hint *codec.Hint, fileID uint32) {
	entry := Entry{
		FileID:    fileID,
		EntryPos:  hint.EntryPos,
		EntrySize: hint.EntrySize(),
		Sequence:  hint.Sequence,
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	key := string(hint.Key)
	existing, ok := idx.entries[key]

	switch {
	case ok && existing.Sequence <= hint.Sequence:
		idx.stats.removeEntry(existing)
		if hint.Deleted {
			delete(idx.entries, key)
		} else {
			idx.stats.addEntry(entry)
			idx.entries[key] = entry
		}
	case ok:
		// The indexed entry is newer than this hint; the hint describes a
		// location that's already dead on arrival.
		idx.stats.addEntry(entry)
		idx.stats.removeEntry(entry)
	default:
		if !hint.Deleted {
			idx.stats.addEntry(entry)
			idx.entries[key] = entry
		}
	}
}

// FileStats returns, for every segment the index has seen entries from, its
// current fragmentation ratio (dead/total live-at-write-time entries) and
// dead-byte count. Order is unspecified.
func (idx *Index) FileStats() []FileStat {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.stats.fileStats()
}

// RemoveFiles drops every tracked stat for the given segment ids, called
// once those segments have been compacted away.
func (idx *Index) RemoveFiles(fileIDs []uint32) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.stats.removeFiles(fileIDs)
}

// Close releases the index's memory. The index must not be used afterward.
func (idx *Index) Close() error {
	if !idx.closed.CompareAndSwap(false, true) {
		return ErrIndexClosed
	}

	idx.log.Infow("closing index")

	idx.mu.Lock()
	defer idx.mu.Unlock()

	clear(idx.entries)
	idx.entries = nil
	idx.stats = nil

	return nil
}
