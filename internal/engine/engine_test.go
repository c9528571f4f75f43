package engine

import (
	"testing"

	"github.com/iamNilotpal/ignitedb/pkg/logger"
	"github.com/iamNilotpal/ignitedb/pkg/options"
)

func newTestEngine(t *testing.T, opts ...options.OptionFunc) *Engine {
	t.Helper()

	all := append([]options.OptionFunc{
		options.WithCompaction(false),
		options.WithSync(options.SyncNever),
	}, opts...)
	resolved := options.Apply(all...)

	e, err := New(&Config{Dir: t.TempDir(), Options: &resolved, Logger: logger.NewNop()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestPutThenGet(t *testing.T) {
	e := newTestEngine(t)

	if err := e.Put([]byte("k"), []byte("v1")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := e.Get([]byte("k"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v1" {
		t.Errorf("Get = %q, want %q", got, "v1")
	}
}

func TestPutOverwriteReturnsLatestValue(t *testing.T) {
	e := newTestEngine(t)

	if err := e.Put([]byte("k"), []byte("v1")); err != nil {
		t.Fatalf("Put v1: %v", err)
	}
	if err := e.Put([]byte("k"), []byte("v2")); err != nil {
		t.Fatalf("Put v2: %v", err)
	}

	got, err := e.Get([]byte("k"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v2" {
		t.Errorf("Get = %q, want %q", got, "v2")
	}
}

func TestGetMissingKeyReturnsErrKeyNotFound(t *testing.T) {
	e := newTestEngine(t)

	if _, err := e.Get([]byte("missing")); err != ErrKeyNotFound {
		t.Errorf("Get(missing) error = %v, want ErrKeyNotFound", err)
	}
}

func TestDeleteThenGetReturnsErrKeyNotFound(t *testing.T) {
	e := newTestEngine(t)

	if err := e.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := e.Delete([]byte("k")); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := e.Get([]byte("k")); err != ErrKeyNotFound {
		t.Errorf("Get after Delete = %v, want ErrKeyNotFound", err)
	}
}

func TestDeleteMissingKeyIsNoop(t *testing.T) {
	e := newTestEngine(t)

	if err := e.Delete([]byte("never-existed")); err != nil {
		t.Errorf("Delete of a missing key = %v, want nil", err)
	}
}

func TestKeysReflectsLiveSet(t *testing.T) {
	e := newTestEngine(t)

	for _, k := range []string{"a", "b", "c"} {
		if err := e.Put([]byte(k), []byte("v")); err != nil {
			t.Fatalf("Put(%s): %v", k, err)
		}
	}
	if err := e.Delete([]byte("b")); err != nil {
		t.Fatalf("Delete(b): %v", err)
	}

	keys, err := e.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}

	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		seen[string(k)] = true
	}
	if !seen["a"] || seen["b"] || !seen["c"] {
		t.Errorf("Keys = %v, want {a, c} without b", keys)
	}
}

func TestOperationsAfterCloseReturnErrEngineClosed(t *testing.T) {
	resolved := options.Apply(options.WithCompaction(false), options.WithSync(options.SyncNever))
	e, err := New(&Config{Dir: t.TempDir(), Options: &resolved, Logger: logger.NewNop()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := e.Put([]byte("k"), []byte("v")); err != ErrEngineClosed {
		t.Errorf("Put after Close = %v, want ErrEngineClosed", err)
	}
	if _, err := e.Get([]byte("k")); err != ErrEngineClosed {
		t.Errorf("Get after Close = %v, want ErrEngineClosed", err)
	}
	if err := e.Close(); err != ErrEngineClosed {
		t.Errorf("second Close = %v, want ErrEngineClosed", err)
	}
}

func TestRecoveryReplaysWritesAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	resolved := options.Apply(options.WithCompaction(false), options.WithSync(options.SyncNever))

	e1, err := New(&Config{Dir: dir, Options: &resolved, Logger: logger.NewNop()})
	if err != nil {
		t.Fatalf("first New: %v", err)
	}
	if err := e1.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := e1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	e2, err := New(&Config{Dir: dir, Options: &resolved, Logger: logger.NewNop()})
	if err != nil {
		t.Fatalf("second New (recovery): %v", err)
	}
	defer e2.Close()

	got, err := e2.Get([]byte("k"))
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("Get after reopen = %q, want %q", got, "v")
	}
}

func TestCompactReclaimsOverwrittenKeys(t *testing.T) {
	e := newTestEngine(t, options.WithMaxFileSize(64))

	for i := 0; i < 30; i++ {
		if err := e.Put([]byte("k"), []byte("0123456789")); err != nil {
			t.Fatalf("Put iteration %d: %v", i, err)
		}
	}

	if err := e.Compact(); err != nil {
		t.Fatalf("Compact: %v", err)
	}

	got, err := e.Get([]byte("k"))
	if err != nil {
		t.Fatalf("Get after Compact: %v", err)
	}
	if string(got) != "0123456789" {
		t.Errorf("Get after Compact = %q, want %q", got, "0123456789")
	}
}
