package storage

import (
	"io"
	"os"

	"github.com/iamNilotpal/ignitedb/internal/codec"
	"github.com/iamNilotpal/ignitedb/internal/segment"
	"github.com/iamNilotpal/ignitedb/pkg/errors"
)

// writer appends records to a data segment and its hint sidecar together,
// rotating to a fresh pair of files once the active segment would exceed
// maxFileSize. It's used both as the store's single foreground writer and,
// independently, as the compactor's rewrite writer — the two never share a
// writer instance, only the sequencer that avoids them colliding on ids.
type Writer struct {
	dir         string
	maxFileSize uint64
	seq         *sequencer

	fileID    uint32
	dataFile  *os.File
	pos       uint64
	hintFile  *os.File
	hintFlush *codec.HintFileWriter

	// newFileIDs accumulates every segment id this writer has rotated into,
	// so callers (in particular compaction) can learn what it produced.
	newFileIDs []uint32
}

// newWriter opens fileID's data and hint files for append and returns a
// writer positioned at the current end of the data file. trackAsNew marks
// fileID itself as one of the writer's NewFileIDs, which the foreground
// active writer's first segment is not (it starts empty, with nothing to
// fold into the index) but a compaction writer's first segment is (its
// entire output is new from the index's perspective).
func newWriter(dir string, fileID uint32, maxFileSize uint64, seq *sequencer, trackAsNew bool) (*Writer, error) {
	w := &Writer{dir: dir, maxFileSize: maxFileSize, seq: seq}
	if err := w.openFiles(fileID, trackAsNew); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) openFiles(fileID uint32, isNew bool) error {
	dataPath := segment.DataPath(w.dir, fileID)
	dataFile, err := os.OpenFile(dataPath, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return errors.ClassifyFileOpenError(err, dataPath, segment.DataName(fileID))
	}

	pos, err := dataFile.Seek(0, io.SeekEnd)
	if err != nil {
		dataFile.Close()
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to seek to end of segment data file").
			WithFileName(segment.DataName(fileID)).WithPath(dataPath)
	}

	hintPath := segment.HintPath(w.dir, fileID)
	hintFile, err := os.OpenFile(hintPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		dataFile.Close()
		return errors.ClassifyFileOpenError(err, hintPath, segment.HintName(fileID))
	}

	w.fileID = fileID
	w.dataFile = dataFile
	w.pos = uint64(pos)
	w.hintFile = hintFile
	w.hintFlush = codec.NewHintFileWriter(hintFile)

	if isNew {
		w.newFileIDs = append(w.newFileIDs, fileID)
	}

	return nil
}

// rotateIfNeeded finishes the current hint file's trailing digest and opens
// a fresh segment pair when appending size bytes would exceed maxFileSize.
func (w *Writer) rotateIfNeeded(size uint64) error {
	if w.pos+size <= w.maxFileSize {
		return nil
	}

	if err := w.closeActive(); err != nil {
		return err
	}

	return w.openFiles(w.seq.nextFileID(), true)
}

func (w *Writer) closeActive() error {
	if err := w.hintFlush.Finish(); err != nil {
		return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to finish hint file digest").
			WithFileName(segment.HintName(w.fileID))
	}
	if err := w.hintFile.Close(); err != nil {
		return err
	}
	return w.dataFile.Close()
}

// Append writes rec to the active segment, rotating first if necessary, and
// returns the segment id and byte offset the record now lives at.
func (w *Writer) Append(rec *codec.Record) (fileID uint32, pos uint64, err error) {
	if err := w.rotateIfNeeded(uint64(rec.Size())); err != nil {
		return 0, 0, err
	}

	entryPos := w.pos
	n, err := rec.WriteTo(w.dataFile)
	if err != nil {
		return 0, 0, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to append record").
			WithFileName(segment.DataName(w.fileID)).WithOffset(int(entryPos))
	}
	w.pos += uint64(n)

	hint := codec.NewHint(rec, entryPos)
	if err := w.hintFlush.WriteHint(hint); err != nil {
		return 0, 0, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to append hint").
			WithFileName(segment.HintName(w.fileID))
	}

	return w.fileID, entryPos, nil
}

// Sync fsyncs the active data file. Hint files are not fsync'd on every
// write; their digest is only written once closeActive/Close run, and
// neither of those fsyncs the hint file.
func (w *Writer) Sync() error {
	if err := w.dataFile.Sync(); err != nil {
		return errors.ClassifySyncError(err, segment.DataName(w.fileID), w.dir, int(w.pos))
	}
	return nil
}

// Close finishes the active segment's hint digest and releases both handles.
func (w *Writer) Close() error {
	return w.closeActive()
}

// NewFileIDs returns every segment id this writer rotated into over its
// lifetime, in rotation order. The first segment a writer opens is included
// only when the writer was created with trackAsNew (as compaction writers
// are); the foreground writer reports only ids produced by rotation.
func (w *Writer) NewFileIDs() []uint32 {
	return w.newFileIDs
}
