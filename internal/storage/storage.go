// Package storage is ignitedb's log manager: it owns every on-disk segment
// file, the single active segment records are appended to, the bounded pool
// of read-only handles used to satisfy point reads from older segments, and
// the directory-level exclusive lock that keeps a second process out.
//
// A Storage never holds the in-memory index; internal/engine and
// internal/compaction read and write through the methods here, treating
// Storage purely as a byte-addressable, segment-aware file layer.
package storage

import (
	stdErrors "errors"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"
	"github.com/iamNilotpal/ignitedb/internal/codec"
	"github.com/iamNilotpal/ignitedb/internal/segment"
	"github.com/iamNilotpal/ignitedb/pkg/errors"
	"github.com/iamNilotpal/ignitedb/pkg/filesys"
	"github.com/iamNilotpal/ignitedb/pkg/options"
	"go.uber.org/zap"
)

var ErrStorageClosed = stdErrors.New("operation failed: cannot access closed storage")

// Storage is the core file-based storage component responsible for managing
// segment files and handling data persistence. It maintains the single
// active segment that accepts new writes and provides random-access reads
// into every other segment through a bounded file-handle pool.
type Storage struct {
	dir     string
	options *options.Options
	log     *zap.SugaredLogger

	lock *flock.Flock
	seq  *sequencer
	pool *filePool

	mu     sync.RWMutex
	active *Writer

	closed atomic.Bool
}

// Config encapsulates all the configuration parameters required to
// initialize a Storage instance.
type Config struct {
	Dir     string
	Options *options.Options
	Logger  *zap.SugaredLogger
}

// Open prepares dir for use, creating it if configured to, acquires the
// directory's exclusive lock, and opens a fresh active segment. Use Hints
// (falling back to RecreateHints) on every id from Files to replay or
// rebuild the index from whatever segments already exist before accepting
// writes.
func Open(config *Config) (*Storage, error) {
	if config == nil || config.Options == nil || config.Logger == nil || config.Dir == "" {
		return nil, errors.NewValidationError(
			nil, errors.ErrorCodeInvalidInput, "storage configuration is required",
		).WithField("config").WithRule("required").WithProvided(config)
	}

	config.Logger.Infow("opening storage", "dir", config.Dir)

	exists, err := filesys.Exists(config.Dir)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to stat database directory").
			WithPath(config.Dir)
	}

	if !exists {
		if !config.Options.Create {
			return nil, errors.NewInvalidPathError(config.Dir)
		}
		if err := filesys.CreateDir(config.Dir, 0755, true); err != nil {
			return nil, errors.ClassifyDirectoryCreationError(err, config.Dir)
		}
	}

	lock, err := acquireLock(config.Dir)
	if err != nil {
		return nil, err
	}

	latestID, found, err := segment.LatestDataFileID(config.Dir)
	if err != nil {
		releaseLock(lock)
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to discover existing segments").
			WithPath(config.Dir)
	}

	startAt := uint32(0)
	if found {
		startAt = latestID
	}

	seq := newSequencer(startAt)
	activeID := seq.nextFileID()

	active, err := newWriter(config.Dir, activeID, config.Options.MaxFileSize, seq, false)
	if err != nil {
		releaseLock(lock)
		return nil, err
	}

	s := &Storage{
		dir:     config.Dir,
		options: config.Options,
		log:     config.Logger,
		lock:    lock,
		seq:     seq,
		pool:    newFilePool(config.Options.FilePoolSize),
		active:  active,
	}

	config.Logger.Infow("storage opened", "dir", config.Dir, "activeFileID", activeID)
	return s, nil
}

func releaseLock(l *flock.Flock) {
	_ = l.Unlock()
}

// ActiveFileID returns the segment id currently accepting writes.
func (s *Storage) ActiveFileID() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active.fileID
}

// Files returns every non-active segment id on disk, ascending.
func (s *Storage) Files() ([]uint32, error) {
	ids, err := segment.DataFileIDs(s.dir)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to list segment files").
			WithPath(s.dir)
	}

	active := s.ActiveFileID()
	out := ids[:0]
	for _, id := range ids {
		if id != active {
			out = append(out, id)
		}
	}
	return out, nil
}

// FileSize returns the current total size of fileID's data file.
func (s *Storage) FileSize(fileID uint32) (int64, error) {
	return segment.FileSize(segment.DataPath(s.dir, fileID))
}

// AppendEntry appends rec to the active segment (rotating to a new one if
// it's full) and returns where it landed.
func (s *Storage) AppendEntry(rec *codec.Record) (fileID uint32, pos uint64, err error) {
	if s.closed.Load() {
		return 0, 0, ErrStorageClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	fileID, pos, err = s.active.Append(rec)
	if err != nil {
		return 0, 0, err
	}

	if s.options.Sync == options.SyncAlways {
		if err := s.active.Sync(); err != nil {
			return 0, 0, err
		}
	}

	return fileID, pos, nil
}

// Sync fsyncs the active segment's data file. Called on a timer by the
// engine for SyncInterval; under SyncAlways, AppendEntry fsyncs the active
// writer itself after each record.
func (s *Storage) Sync() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active.Sync()
}

// ReadEntry reads and decodes the record at (fileID, pos), using a pooled
// handle when one is available and returning it to the pool afterward.
func (s *Storage) ReadEntry(fileID uint32, pos uint64) (*codec.Record, error) {
	f, err := s.openForRead(fileID)
	if err != nil {
		return nil, err
	}
	defer s.pool.put(fileID, f)

	if _, err := f.Seek(int64(pos), io.SeekStart); err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to seek to record").
			WithFileName(segment.DataName(fileID)).WithOffset(int(pos))
	}

	rec, err := codec.ReadRecordFrom(f)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Storage) openForRead(fileID uint32) (*os.File, error) {
	if f, ok := s.pool.get(fileID); ok {
		return f, nil
	}

	path := segment.DataPath(s.dir, fileID)
	f, err := os.OpenFile(path, os.O_RDONLY, 0644)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrorCodeIO, "failed to open segment for read").
			WithFileName(segment.DataName(fileID)).WithPath(path)
	}
	return f, nil
}

// SwapFiles removes the now-redundant segment files identified by oldIDs
// once a compaction pass has rewritten their live entries into newIDs.
// newIDs need no action here: the compaction writer already left them as
// ordinary, closed segment files on disk.
func (s *Storage) SwapFiles(oldIDs, newIDs []uint32) error {
	known, err := s.Files()
	if err != nil {
		return err
	}
	knownSet := make(map[uint32]struct{}, len(known))
	for _, id := range known {
		knownSet[id] = struct{}{}
	}

	for _, id := range oldIDs {
		if _, ok := knownSet[id]; !ok {
			return errors.NewInvalidFileIDError(id)
		}
	}

	for _, id := range oldIDs {
		if err := filesys.DeleteFile(segment.DataPath(s.dir, id)); err != nil && !os.IsNotExist(err) {
			return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to remove compacted data file").
				WithFileName(segment.DataName(id))
		}
		if err := filesys.DeleteFile(segment.HintPath(s.dir, id)); err != nil && !os.IsNotExist(err) {
			return errors.NewStorageError(err, errors.ErrorCodeIO, "failed to remove compacted hint file").
				WithFileName(segment.HintName(id))
		}
	}
	return nil
}

// NewCompactionWriter opens an independent writer sharing this Storage's
// sequencer, so files it rotates into never collide with ids the
// foreground active writer allocates concurrently.
func (s *Storage) NewCompactionWriter() (*Writer, error) {
	return newWriter(s.dir, s.seq.nextFileID(), s.options.MaxFileSize, s.seq, true)
}

// Close finishes the active segment's hint digest, releases pooled read
// handles, and releases the directory lock.
func (s *Storage) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrStorageClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	if err := s.active.Close(); err != nil {
		firstErr = err
	}

	s.pool.closeAll()

	if err := s.lock.Unlock(); err != nil && firstErr == nil {
		firstErr = err
	}

	return firstErr
}
