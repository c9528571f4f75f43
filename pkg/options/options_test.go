package options

import "testing"

func TestCompactionWindowInWindow(t *testing.T) {
	cases := []struct {
		name   string
		win    CompactionWindow
		hour   int
		inside bool
	}{
		{"full day", CompactionWindow{Start: 0, End: 23}, 12, true},
		{"simple range inside", CompactionWindow{Start: 9, End: 17}, 12, true},
		{"simple range before", CompactionWindow{Start: 9, End: 17}, 8, false},
		{"simple range after", CompactionWindow{Start: 9, End: 17}, 18, false},
		{"wrap inside evening", CompactionWindow{Start: 22, End: 4}, 23, true},
		{"wrap inside early morning", CompactionWindow{Start: 22, End: 4}, 2, true},
		{"wrap at start boundary", CompactionWindow{Start: 22, End: 4}, 22, true},
		{"wrap at end boundary", CompactionWindow{Start: 22, End: 4}, 4, true},
		{"wrap outside", CompactionWindow{Start: 22, End: 4}, 12, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.win.InWindow(tc.hour); got != tc.inside {
				t.Errorf("InWindow(%d) = %v, want %v", tc.hour, got, tc.inside)
			}
		})
	}
}

func TestApplyLayersOverDefaults(t *testing.T) {
	opts := Apply(WithMaxFileSize(1024), WithCompaction(false))

	if opts.MaxFileSize != 1024 {
		t.Errorf("MaxFileSize = %d, want 1024", opts.MaxFileSize)
	}
	if opts.Compaction {
		t.Errorf("Compaction = true, want false")
	}
	if opts.FilePoolSize != DefaultFilePoolSize {
		t.Errorf("FilePoolSize = %d, want default %d", opts.FilePoolSize, DefaultFilePoolSize)
	}
}

func TestApplyNoOptionsMatchesDefaults(t *testing.T) {
	opts := Apply()
	defaults := NewDefaultOptions()

	if opts != defaults {
		t.Errorf("Apply() with no options = %+v, want %+v", opts, defaults)
	}
}

func TestWithSyncIntervalSwitchesStrategy(t *testing.T) {
	opts := Apply(WithSync(SyncNever), WithSyncInterval(5000*1000*1000))

	if opts.Sync != SyncInterval {
		t.Errorf("Sync = %v, want SyncInterval", opts.Sync)
	}
	if opts.SyncIntervalMillis != 5000 {
		t.Errorf("SyncIntervalMillis = %d, want 5000", opts.SyncIntervalMillis)
	}
}

func TestWithMaxFileSizeIgnoresZero(t *testing.T) {
	opts := Apply(WithMaxFileSize(0))
	if opts.MaxFileSize != DefaultMaxFileSize {
		t.Errorf("MaxFileSize = %d, want default %d unchanged by zero value", opts.MaxFileSize, DefaultMaxFileSize)
	}
}
