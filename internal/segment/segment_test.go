package segment

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDataNameHintNameFormat(t *testing.T) {
	if got, want := DataName(1), "0000000001.cask.data"; got != want {
		t.Errorf("DataName(1) = %q, want %q", got, want)
	}
	if got, want := HintName(42), "0000000042.cask.hint"; got != want {
		t.Errorf("HintName(42) = %q, want %q", got, want)
	}
}

func TestParseIDRoundTrip(t *testing.T) {
	for _, id := range []uint32{0, 1, 42, 4294967295} {
		got, err := ParseID(DataName(id))
		if err != nil {
			t.Fatalf("ParseID(%s): %v", DataName(id), err)
		}
		if got != id {
			t.Errorf("ParseID(DataName(%d)) = %d, want %d", id, got, id)
		}

		got, err = ParseID(HintName(id))
		if err != nil {
			t.Fatalf("ParseID(%s): %v", HintName(id), err)
		}
		if got != id {
			t.Errorf("ParseID(HintName(%d)) = %d, want %d", id, got, id)
		}
	}
}

func TestParseIDRejectsUnrecognizedSuffix(t *testing.T) {
	if _, err := ParseID("0000000001.txt"); err == nil {
		t.Fatal("expected error for unrecognized suffix, got nil")
	}
}

func TestDataFileIDsSortedAscending(t *testing.T) {
	dir := t.TempDir()

	for _, id := range []uint32{3, 1, 2} {
		touch(t, DataPath(dir, id))
		touch(t, HintPath(dir, id))
	}

	ids, err := DataFileIDs(dir)
	if err != nil {
		t.Fatalf("DataFileIDs: %v", err)
	}

	want := []uint32{1, 2, 3}
	if len(ids) != len(want) {
		t.Fatalf("got %d ids, want %d", len(ids), len(want))
	}
	for i, id := range ids {
		if id != want[i] {
			t.Errorf("ids[%d] = %d, want %d", i, id, want[i])
		}
	}
}

func TestLatestDataFileIDEmptyDir(t *testing.T) {
	dir := t.TempDir()

	_, ok, err := LatestDataFileID(dir)
	if err != nil {
		t.Fatalf("LatestDataFileID: %v", err)
	}
	if ok {
		t.Error("ok = true for empty directory, want false")
	}
}

func TestLatestDataFileIDReturnsHighest(t *testing.T) {
	dir := t.TempDir()
	for _, id := range []uint32{1, 5, 3} {
		touch(t, DataPath(dir, id))
	}

	got, ok, err := LatestDataFileID(dir)
	if err != nil {
		t.Fatalf("LatestDataFileID: %v", err)
	}
	if !ok {
		t.Fatal("ok = false, want true")
	}
	if got != 5 {
		t.Errorf("LatestDataFileID = %d, want 5", got)
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}
