package index

// statsEntry tracks the live/dead entry and byte counts the compactor needs
// to decide whether a segment is worth rewriting.
type statsEntry struct {
	entries     uint64
	deadEntries uint64
	totalBytes  uint64
	deadBytes   uint64
}

// Stats aggregates statsEntry per segment file id, derived entirely from
// Index.Insert/Remove/UpdateFromHint calls rather than tracked independently,
// so it can never drift from what the index actually holds.
type Stats struct {
	byFile map[uint32]*statsEntry
}

func newStats() *Stats {
	return &Stats{byFile: make(map[uint32]*statsEntry)}
}

func (s *Stats) addEntry(e Entry) {
	se, ok := s.byFile[e.FileID]
	if !ok {
		se = &statsEntry{}
		s.byFile[e.FileID] = se
	}
	se.entries++
	se.totalBytes += e.EntrySize
}

func (s *Stats) removeEntry(e Entry) {
	se, ok := s.byFile[e.FileID]
	if !ok {
		return
	}
	se.deadEntries++
	se.deadBytes += e.EntrySize
}

func (s *Stats) removeFiles(fileIDs []uint32) {
	for _, id := range fileIDs {
		delete(s.byFile, id)
	}
}

// FileStat is a point-in-time liveness snapshot for one segment.
type FileStat struct {
	FileID        uint32
	Fragmentation float64
	DeadBytes     uint64
	TotalBytes    uint64
}

func (s *Stats) fileStats() []FileStat {
	out := make([]FileStat, 0, len(s.byFile))
	for id, se := range s.byFile {
		var fragmentation float64
		if se.entries > 0 {
			fragmentation = float64(se.deadEntries) / float64(se.entries)
		}
		out = append(out, FileStat{
			FileID:        id,
			Fragmentation: fragmentation,
			DeadBytes:     se.deadBytes,
			TotalBytes:    se.totalBytes,
		})
	}
	return out
}
