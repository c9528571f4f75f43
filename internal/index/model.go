package index

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Entry is the in-memory record of where a live key's value lives on disk:
// which segment, at what byte offset, how many bytes the whole record
// occupies, and the write sequence number that produced it. Sequence lets
// concurrent hint reconciliation during recovery and compaction tell which
// of two candidate locations for the same key is actually newer.
type Entry struct {
	FileID    uint32
	EntryPos  uint64
	EntrySize uint64
	Sequence  uint64
}

// Index is the in-memory key -> location hash table at the heart of the
// store. It also owns the per-segment liveness Stats that drive compaction
// selection, since every insert/remove that changes the map also changes
// how much of some segment is live versus dead.
type Index struct {
	log     *zap.SugaredLogger
	entries map[string]Entry
	stats   *Stats
	mu      sync.RWMutex
	closed  atomic.Bool
}

// Config encapsulates the configuration parameters required to initialize an Index.
type Config struct {
	Logger *zap.SugaredLogger
}
