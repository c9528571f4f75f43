package storage

import (
	"testing"

	"github.com/iamNilotpal/ignitedb/internal/codec"
	"github.com/iamNilotpal/ignitedb/pkg/errors"
	"github.com/iamNilotpal/ignitedb/pkg/logger"
	"github.com/iamNilotpal/ignitedb/pkg/options"
)

func testOptions() *options.Options {
	o := options.Apply(options.WithMaxFileSize(64))
	return &o
}

func openTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(&Config{Dir: t.TempDir(), Options: testOptions(), Logger: logger.NewNop()})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenRejectsMissingDirWithoutCreate(t *testing.T) {
	o := options.Apply(options.WithCreate(false))
	_, err := Open(&Config{Dir: t.TempDir() + "/missing", Options: &o, Logger: logger.NewNop()})
	if err == nil {
		t.Fatal("expected error opening a missing directory with Create disabled, got nil")
	}
}

func TestOpenTwiceFailsOnLock(t *testing.T) {
	dir := t.TempDir()
	o := testOptions()

	s1, err := Open(&Config{Dir: dir, Options: o, Logger: logger.NewNop()})
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	defer s1.Close()

	_, err = Open(&Config{Dir: dir, Options: o, Logger: logger.NewNop()})
	if err == nil {
		t.Fatal("expected second Open of the same directory to fail on the lock, got nil")
	}
}

func TestAppendAndReadEntryRoundTrip(t *testing.T) {
	s := openTestStorage(t)

	rec, err := codec.NewRecord(1, []byte("k"), []byte("v"))
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}

	fileID, pos, err := s.AppendEntry(rec)
	if err != nil {
		t.Fatalf("AppendEntry: %v", err)
	}

	got, err := s.ReadEntry(fileID, pos)
	if err != nil {
		t.Fatalf("ReadEntry: %v", err)
	}
	if string(got.Key) != "k" || string(got.Value) != "v" {
		t.Errorf("ReadEntry = %+v, want key=k value=v", got)
	}
}

func TestAppendEntryRotatesOnMaxFileSize(t *testing.T) {
	s := openTestStorage(t)
	firstID := s.ActiveFileID()

	// Each record is well under 64 bytes, so append enough to force a
	// rotation and confirm the active segment id actually changes.
	var lastID uint32
	for i := 0; i < 20; i++ {
		rec, err := codec.NewRecord(uint64(i), []byte("key"), []byte("value-data"))
		if err != nil {
			t.Fatalf("NewRecord: %v", err)
		}
		id, _, err := s.AppendEntry(rec)
		if err != nil {
			t.Fatalf("AppendEntry: %v", err)
		}
		lastID = id
	}

	if lastID == firstID {
		t.Errorf("active segment never rotated across 20 appends with a 64-byte max file size")
	}
	if s.ActiveFileID() == firstID {
		t.Errorf("ActiveFileID() = %d, want it to have advanced past the original %d", s.ActiveFileID(), firstID)
	}
}

func TestFilesExcludesActiveSegment(t *testing.T) {
	s := openTestStorage(t)

	rec, _ := codec.NewRecord(1, []byte("k"), []byte("v"))
	if _, _, err := s.AppendEntry(rec); err != nil {
		t.Fatalf("AppendEntry: %v", err)
	}

	files, err := s.Files()
	if err != nil {
		t.Fatalf("Files: %v", err)
	}
	for _, id := range files {
		if id == s.ActiveFileID() {
			t.Errorf("Files() includes the active segment id %d", id)
		}
	}
}

func TestRecreateHintsMatchesRecordedHints(t *testing.T) {
	s := openTestStorage(t)
	o := testOptions()
	_ = o

	rec1, _ := codec.NewRecord(1, []byte("a"), []byte("1"))
	rec2, _ := codec.NewRecord(2, []byte("b"), []byte("2"))

	fileID, _, err := s.AppendEntry(rec1)
	if err != nil {
		t.Fatalf("AppendEntry: %v", err)
	}
	if _, _, err := s.AppendEntry(rec2); err != nil {
		t.Fatalf("AppendEntry: %v", err)
	}

	// The active segment has no hint digest written yet (Finish only runs on
	// rotation/close), so RecreateHints must rebuild directly from the data file.
	hints, err := s.RecreateHints(fileID)
	if err != nil {
		t.Fatalf("RecreateHints: %v", err)
	}
	if len(hints) != 2 {
		t.Fatalf("got %d hints, want 2", len(hints))
	}
	if string(hints[0].Key) != "a" || string(hints[1].Key) != "b" {
		t.Errorf("hints = %+v, want keys a then b in append order", hints)
	}
}

func TestSwapFilesRemovesOldSegments(t *testing.T) {
	s := openTestStorage(t)

	rec, _ := codec.NewRecord(1, []byte("k"), []byte("v"))
	fileID, _, err := s.AppendEntry(rec)
	if err != nil {
		t.Fatalf("AppendEntry: %v", err)
	}

	// Force a rotation so fileID is no longer active and its hint digest is finished.
	for i := 0; i < 20; i++ {
		big, _ := codec.NewRecord(uint64(i+2), []byte("key"), []byte("value-data"))
		if _, _, err := s.AppendEntry(big); err != nil {
			t.Fatalf("AppendEntry: %v", err)
		}
	}

	if err := s.SwapFiles([]uint32{fileID}, nil); err != nil {
		t.Fatalf("SwapFiles: %v", err)
	}

	if _, err := s.ReadEntry(fileID, 0); err == nil {
		t.Error("ReadEntry succeeded after SwapFiles removed the segment, want an error")
	}
}

func TestSwapFilesRejectsUnknownFileID(t *testing.T) {
	s := openTestStorage(t)

	rec, _ := codec.NewRecord(1, []byte("k"), []byte("v"))
	fileID, _, err := s.AppendEntry(rec)
	if err != nil {
		t.Fatalf("AppendEntry: %v", err)
	}

	// Force a rotation so fileID is no longer active.
	for i := 0; i < 20; i++ {
		big, _ := codec.NewRecord(uint64(i+2), []byte("key"), []byte("value-data"))
		if _, _, err := s.AppendEntry(big); err != nil {
			t.Fatalf("AppendEntry: %v", err)
		}
	}

	// A stale/duplicate swap naming an id already removed (or never written)
	// must be rejected instead of silently no-oping.
	staleID := fileID + 1000
	err = s.SwapFiles([]uint32{staleID}, nil)
	se, ok := errors.AsStorageError(err)
	if !ok {
		t.Fatalf("expected a *errors.StorageError, got %T (%v)", err, err)
	}
	if se.Code() != errors.ErrorCodeInvalidFileID {
		t.Errorf("Code() = %v, want ErrorCodeInvalidFileID", se.Code())
	}

	// The real, known segment must still be intact since validation happens
	// before any removal.
	if _, err := s.ReadEntry(fileID, 0); err != nil {
		t.Errorf("ReadEntry(fileID) after rejected SwapFiles = %v, want success (nothing removed)", err)
	}
}

func TestLockHeldErrorCode(t *testing.T) {
	dir := t.TempDir()
	o := testOptions()

	s1, err := Open(&Config{Dir: dir, Options: o, Logger: logger.NewNop()})
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	defer s1.Close()

	_, err = Open(&Config{Dir: dir, Options: o, Logger: logger.NewNop()})
	se, ok := errors.AsStorageError(err)
	if !ok {
		t.Fatalf("expected a *errors.StorageError, got %T", err)
	}
	if se.Code() != errors.ErrorCodeLockHeld {
		t.Errorf("Code() = %v, want ErrorCodeLockHeld", se.Code())
	}
}
