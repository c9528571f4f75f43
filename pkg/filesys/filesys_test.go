package filesys

import (
	"os"
	"path/filepath"
	"testing"
)

func createFile(t *testing.T, path string) (*os.File, error) {
	t.Helper()
	return os.Create(path)
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "present")

	if ok, err := Exists(file); err != nil || ok {
		t.Fatalf("Exists(missing) = %v, %v; want false, nil", ok, err)
	}

	if err := DeleteFile(file); err == nil {
		t.Fatalf("DeleteFile(missing) = nil, want an error")
	}

	if ok, err := Exists(dir); err != nil || !ok {
		t.Fatalf("Exists(dir) = %v, %v; want true, nil", ok, err)
	}
}

func TestCreateDirForceVsNoForce(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "store")

	if err := CreateDir(target, 0755, false); err != nil {
		t.Fatalf("first CreateDir: %v", err)
	}
	if err := CreateDir(target, 0755, true); err != nil {
		t.Fatalf("CreateDir with force=true on existing dir: %v", err)
	}
}

func TestCreateDirRejectsExistingFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "notadir")

	f, err := createFile(t, target)
	if err != nil {
		t.Fatalf("createFile: %v", err)
	}
	f.Close()

	if err := CreateDir(target, 0755, true); err != ErrIsNotDir {
		t.Errorf("CreateDir over an existing file = %v, want ErrIsNotDir", err)
	}
}

func TestReadFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "hint.cask.hint")

	f, err := createFile(t, target)
	if err != nil {
		t.Fatalf("createFile: %v", err)
	}
	if _, err := f.Write([]byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f.Close()

	got, err := ReadFile(target)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("ReadFile = %q, want %q", got, "hello")
	}

	if err := DeleteFile(target); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if ok, err := Exists(target); err != nil || ok {
		t.Errorf("Exists after DeleteFile = %v, %v; want false, nil", ok, err)
	}
}

func TestReadDirGlob(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.cask.data", "b.cask.data", "c.cask.hint"} {
		f, err := createFile(t, filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("createFile(%s): %v", name, err)
		}
		f.Close()
	}

	matches, err := ReadDir(filepath.Join(dir, "*.cask.data"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("ReadDir matched %v, want 2 *.cask.data files", matches)
	}
}
