// Package segment names and discovers ignitedb's on-disk segment files.
//
// # Filename Format
//
// Each segment id maps to two files in the database directory:
//
//	NNNNNNNNNN.cask.data   zero-padded 10-digit decimal id, the append log
//	NNNNNNNNNN.cask.hint   same id, the recovery-acceleration sidecar
//
// Example filenames:
//
//	0000000001.cask.data
//	0000000001.cask.hint
//	0000000002.cask.data
package segment

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/iamNilotpal/ignitedb/pkg/filesys"
)

const (
	dataSuffix = ".cask.data"
	hintSuffix = ".cask.hint"
	idWidth    = 10
)

// DataName returns the data-file name for id, e.g. "0000000001.cask.data".
func DataName(id uint32) string {
	return fmt.Sprintf("%0*d%s", idWidth, id, dataSuffix)
}

// HintName returns the hint-file name for id, e.g. "0000000001.cask.hint".
func HintName(id uint32) string {
	return fmt.Sprintf("%0*d%s", idWidth, id, hintSuffix)
}

// DataPath joins dir with the data-file name for id.
func DataPath(dir string, id uint32) string {
	return filepath.Join(dir, DataName(id))
}

// HintPath joins dir with the hint-file name for id.
func HintPath(dir string, id uint32) string {
	return filepath.Join(dir, HintName(id))
}

// ParseID extracts the segment id from a data or hint filename (path or
// bare name, either suffix).
func ParseID(name string) (uint32, error) {
	_, base := filepath.Split(name)

	var digits string
	switch {
	case strings.HasSuffix(base, dataSuffix):
		digits = strings.TrimSuffix(base, dataSuffix)
	case strings.HasSuffix(base, hintSuffix):
		digits = strings.TrimSuffix(base, hintSuffix)
	default:
		return 0, fmt.Errorf("filename %s does not look like a segment file", base)
	}

	id, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("failed to parse segment id from %s: %w", base, err)
	}
	return uint32(id), nil
}

// DataFileIDs discovers every data segment id present in dir, sorted
// ascending. The zero-padded filename scheme makes lexicographic and
// numeric sort agree, so the search pattern alone determines order.
func DataFileIDs(dir string) ([]uint32, error) {
	pattern := filepath.Join(dir, "*"+dataSuffix)

	matches, err := filesys.ReadDir(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to read segment directory with pattern %s: %w", pattern, err)
	}
	slices.Sort(matches)

	ids := make([]uint32, 0, len(matches))
	for _, m := range matches {
		id, err := ParseID(m)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// LatestDataFileID returns the highest data segment id present in dir, and
// ok=false if the directory has no segments yet.
func LatestDataFileID(dir string) (id uint32, ok bool, err error) {
	ids, err := DataFileIDs(dir)
	if err != nil {
		return 0, false, err
	}
	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[len(ids)-1], true, nil
}

// FileSize returns the current size of the segment file at path.
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
