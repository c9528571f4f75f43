package options

import "time"

const (
	// DefaultCreate controls whether Open creates the database directory
	// when it doesn't already exist.
	DefaultCreate = true

	// DefaultSyncIntervalMillis is the background fsync period used when
	// Sync is SyncInterval.
	DefaultSyncIntervalMillis int64 = 1000

	// DefaultMaxFileSize is the active-segment rotation threshold (2GiB).
	DefaultMaxFileSize uint64 = 2 * 1024 * 1024 * 1024

	// DefaultFilePoolSize bounds the number of cached read-only file handles.
	DefaultFilePoolSize = 2048

	// DefaultCompaction enables the background compactor.
	DefaultCompaction = true

	// DefaultCompactionCheckFrequency is the sleep duration between
	// compaction attempts made by the background compaction thread.
	DefaultCompactionCheckFrequency = time.Hour

	// DefaultFragmentationTrigger is the dead/total entry ratio that
	// triggers a compaction batch.
	DefaultFragmentationTrigger = 0.6

	// DefaultDeadBytesTrigger is the dead-byte count that triggers a
	// compaction batch (512MiB).
	DefaultDeadBytesTrigger uint64 = 512 * 1024 * 1024

	// DefaultFragmentationThreshold is the dead/total entry ratio that
	// includes a segment in an already-triggered batch.
	DefaultFragmentationThreshold = 0.4

	// DefaultDeadBytesThreshold is the dead-byte count that includes a
	// segment in an already-triggered batch (128MiB).
	DefaultDeadBytesThreshold uint64 = 128 * 1024 * 1024

	// DefaultSmallFileThreshold includes any segment at or below this total
	// size in an already-triggered batch (10MiB).
	DefaultSmallFileThreshold uint64 = 10 * 1024 * 1024
)

// DefaultCompactionWindow spans the entire day, i.e. compaction is never
// window-restricted unless the caller narrows it.
var DefaultCompactionWindow = CompactionWindow{Start: 0, End: 23}

// defaultOptions holds the baseline configuration every ignitedb store
// starts from before functional options are applied.
var defaultOptions = Options{
	Create:                   DefaultCreate,
	Sync:                     SyncInterval,
	SyncIntervalMillis:       DefaultSyncIntervalMillis,
	MaxFileSize:              DefaultMaxFileSize,
	FilePoolSize:             DefaultFilePoolSize,
	Compaction:               DefaultCompaction,
	CompactionCheckFrequency: DefaultCompactionCheckFrequency,
	CompactionWindow:         DefaultCompactionWindow,
	FragmentationTrigger:     DefaultFragmentationTrigger,
	DeadBytesTrigger:         DefaultDeadBytesTrigger,
	FragmentationThreshold:   DefaultFragmentationThreshold,
	DeadBytesThreshold:       DefaultDeadBytesThreshold,
	SmallFileThreshold:       DefaultSmallFileThreshold,
}

// NewDefaultOptions returns the baseline Options, to be refined by
// applying OptionFuncs over it.
func NewDefaultOptions() Options {
	return defaultOptions
}

// Apply builds an Options value by layering opts over NewDefaultOptions().
func Apply(opts ...OptionFunc) Options {
	o := NewDefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
