// Package options provides data structures and functions for configuring
// ignitedb. It defines every parameter that controls the store's durability,
// segment rotation, file-handle caching, and background compaction behavior.
package options

import "time"

// SyncStrategy controls when the active segment's data file is fsync'd.
type SyncStrategy int

const (
	// SyncNever leaves durability entirely to the OS page cache.
	SyncNever SyncStrategy = iota
	// SyncAlways fsyncs the active data file after every record append.
	SyncAlways
	// SyncInterval fsyncs the active data file on a background timer.
	SyncInterval
)

// CompactionWindow is an inclusive hour-of-day range (local time) during
// which the background compactor is allowed to run. If Start > End the
// window wraps past midnight (e.g. {22, 4} means 22:00-23:59 and 00:00-04:00).
type CompactionWindow struct {
	Start int
	End   int
}

// InWindow reports whether hour (0-23, local time) falls inside the window,
// handling the midnight-wrapping case.
func (w CompactionWindow) InWindow(hour int) bool {
	if w.Start <= w.End {
		return hour >= w.Start && hour <= w.End
	}
	return hour >= w.Start || hour <= w.End
}

// Options defines every configurable parameter of an ignitedb store.
type Options struct {
	// Create controls whether Open creates the database directory if it's
	// missing. If false and the directory is missing or not a directory,
	// Open fails with errors.ErrorCodeInvalidPath.
	Create bool `json:"create"`

	// Sync selects the durability policy described by SyncStrategy.
	Sync SyncStrategy `json:"sync"`

	// SyncIntervalMillis is the period between background fsyncs when Sync
	// is SyncInterval. Ignored for the other strategies.
	SyncIntervalMillis int64 `json:"syncIntervalMillis"`

	// MaxFileSize is the size, in bytes, at which the active segment rotates
	// to a new file before accepting the record that would exceed it.
	MaxFileSize uint64 `json:"maxFileSize"`

	// FilePoolSize bounds the number of cached read-only file handles kept
	// open across all non-active segments.
	FilePoolSize int `json:"filePoolSize"`

	// Compaction enables the background compaction thread.
	Compaction bool `json:"compaction"`

	// CompactionCheckFrequency is the sleep duration between compaction
	// attempts made by the background compaction thread.
	CompactionCheckFrequency time.Duration `json:"compactionCheckFrequency"`

	// CompactionWindow restricts compaction cycles to a local-time
	// hour-of-day range.
	CompactionWindow CompactionWindow `json:"compactionWindow"`

	// FragmentationTrigger is the dead/total entry ratio that, once reached
	// by any eligible segment, triggers a compaction batch.
	FragmentationTrigger float64 `json:"fragmentationTrigger"`

	// DeadBytesTrigger is the dead-byte count that, once reached by any
	// eligible segment, triggers a compaction batch.
	DeadBytesTrigger uint64 `json:"deadBytesTrigger"`

	// FragmentationThreshold is the dead/total entry ratio that includes a
	// segment in an already-triggered compaction batch.
	FragmentationThreshold float64 `json:"fragmentationThreshold"`

	// DeadBytesThreshold is the dead-byte count that includes a segment in
	// an already-triggered compaction batch.
	DeadBytesThreshold uint64 `json:"deadBytesThreshold"`

	// SmallFileThreshold includes any eligible segment at or below this
	// total size in an already-triggered compaction batch.
	SmallFileThreshold uint64 `json:"smallFileThreshold"`
}

// OptionFunc mutates an Options value. Functional options are applied in
// order over NewDefaultOptions(), so later options win.
type OptionFunc func(*Options)

// WithCreate controls directory auto-creation on Open. Defaults to true.
func WithCreate(create bool) OptionFunc {
	return func(o *Options) { o.Create = create }
}

// WithSync sets the durability policy. Defaults to SyncInterval(1000ms).
func WithSync(strategy SyncStrategy) OptionFunc {
	return func(o *Options) { o.Sync = strategy }
}

// WithSyncInterval sets SyncInterval's period and switches the strategy to
// SyncInterval.
func WithSyncInterval(interval time.Duration) OptionFunc {
	return func(o *Options) {
		o.Sync = SyncInterval
		o.SyncIntervalMillis = interval.Milliseconds()
	}
}

// WithMaxFileSize sets the active-segment rotation threshold. Defaults to 2GiB.
func WithMaxFileSize(size uint64) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.MaxFileSize = size
		}
	}
}

// WithFilePoolSize sets the bounded read-handle cache capacity. Defaults to 2048.
func WithFilePoolSize(size int) OptionFunc {
	return func(o *Options) {
		if size > 0 {
			o.FilePoolSize = size
		}
	}
}

// WithCompaction enables or disables the background compactor. Defaults to true.
func WithCompaction(enabled bool) OptionFunc {
	return func(o *Options) { o.Compaction = enabled }
}

// WithCompactionCheckFrequency sets the sleep duration between compaction
// attempts. Defaults to 1 hour.
func WithCompactionCheckFrequency(freq time.Duration) OptionFunc {
	return func(o *Options) {
		if freq > 0 {
			o.CompactionCheckFrequency = freq
		}
	}
}

// WithCompactionWindow restricts compaction cycles to the inclusive
// hour-of-day range [start, end] local time. Defaults to (0, 23), i.e.
// always in-window.
func WithCompactionWindow(start, end int) OptionFunc {
	return func(o *Options) { o.CompactionWindow = CompactionWindow{Start: start, End: end} }
}

// WithFragmentationTrigger sets the ratio of dead to total entries in a
// segment that triggers a compaction batch. Defaults to 0.6.
func WithFragmentationTrigger(ratio float64) OptionFunc {
	return func(o *Options) { o.FragmentationTrigger = ratio }
}

// WithDeadBytesTrigger sets the dead-byte count that triggers a compaction
// batch. Defaults to 512MiB.
func WithDeadBytesTrigger(bytes uint64) OptionFunc {
	return func(o *Options) { o.DeadBytesTrigger = bytes }
}

// WithFragmentationThreshold sets the ratio of dead to total entries that
// includes a segment once a batch has triggered. Defaults to 0.4.
func WithFragmentationThreshold(ratio float64) OptionFunc {
	return func(o *Options) { o.FragmentationThreshold = ratio }
}

// WithDeadBytesThreshold sets the dead-byte count that includes a segment
// once a batch has triggered. Defaults to 128MiB.
func WithDeadBytesThreshold(bytes uint64) OptionFunc {
	return func(o *Options) { o.DeadBytesThreshold = bytes }
}

// WithSmallFileThreshold sets the total file size at or below which a
// segment is included in an already-triggered batch. Defaults to 10MiB.
func WithSmallFileThreshold(bytes uint64) OptionFunc {
	return func(o *Options) { o.SmallFileThreshold = bytes }
}
