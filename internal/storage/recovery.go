package storage

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/iamNilotpal/ignitedb/internal/codec"
	"github.com/iamNilotpal/ignitedb/internal/segment"
	"github.com/iamNilotpal/ignitedb/pkg/errors"
	"github.com/iamNilotpal/ignitedb/pkg/filesys"
)

// Hints loads fileID's hint sidecar, verifying its trailing file-level
// digest. ok is false when no hint file exists for fileID; callers should
// fall back to RecreateHints in that case. A present-but-corrupt hint file
// (e.g. the process crashed mid-write) also reports ok=false after logging,
// since a damaged hint file is exactly the "missing" case from the
// reconciliation loop's point of view.
func (s *Storage) Hints(fileID uint32) (hints []*codec.Hint, ok bool, err error) {
	path := segment.HintPath(s.dir, fileID)

	contents, err := filesys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open hint file").
			WithFileName(segment.HintName(fileID)).WithPath(path)
	}

	hints, err = codec.VerifyHintFileDigest(bytes.NewReader(contents))
	if err != nil {
		s.log.Warnw("discarding corrupt hint file, will rebuild from data file",
			"fileID", fileID, "error", err)
		return nil, false, nil
	}

	return hints, true, nil
}

// RecreateHints rebuilds fileID's hint file by replaying its data segment
// from the start, writing each derived hint (and folding it into a fresh
// digest) as it goes. Used when Hints reports no usable hint file.
func (s *Storage) RecreateHints(fileID uint32) ([]*codec.Hint, error) {
	dataPath := segment.DataPath(s.dir, fileID)
	dataFile, err := os.Open(dataPath)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open data file for hint recreation").
			WithFileName(segment.DataName(fileID)).WithPath(dataPath)
	}
	defer dataFile.Close()

	hintPath := segment.HintPath(s.dir, fileID)
	hintFile, err := os.OpenFile(hintPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to create hint file").
			WithFileName(segment.HintName(fileID)).WithPath(hintPath)
	}
	defer hintFile.Close()

	hintWriter := codec.NewHintFileWriter(hintFile)
	reader := bufio.NewReader(dataFile)

	var hints []*codec.Hint
	var pos uint64

	for {
		rec, err := codec.ReadRecordFrom(reader)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		hint := codec.NewHint(rec, pos)
		pos += uint64(rec.Size())

		if err := hintWriter.WriteHint(hint); err != nil {
			return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to write recreated hint").
				WithFileName(segment.HintName(fileID))
		}
		hints = append(hints, hint)
	}

	if err := hintWriter.Finish(); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to finish recreated hint digest").
			WithFileName(segment.HintName(fileID))
	}

	return hints, nil
}
