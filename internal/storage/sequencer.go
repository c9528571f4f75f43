package storage

import "sync/atomic"

// sequencer hands out monotonically increasing segment file ids. It's shared
// between the foreground append writer and any compaction writer so the two
// can allocate new segment files concurrently without ever colliding.
type sequencer struct {
	next atomic.Uint32
}

func newSequencer(startAt uint32) *sequencer {
	s := &sequencer{}
	s.next.Store(startAt)
	return s
}

// nextFileID atomically allocates and returns the next unused segment id.
func (s *sequencer) nextFileID() uint32 {
	return s.next.Add(1)
}
