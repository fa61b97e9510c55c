package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/eslintrc"
)

func TestNew(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New error = %v", err)
	}

	if w.Events() == nil {
		t.Error("events channel should not be nil")
	}
	if w.Errors() == nil {
		t.Error("errors channel should not be nil")
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}
	// Close again is a no-op.
	if err := w.Close(); err != nil {
		t.Errorf("second Close error = %v", err)
	}
}

func TestWatcherAddRemove(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	defer w.Close()

	tmpDir := t.TempDir()
	cfgFile := filepath.Join(tmpDir, ".eslintrc.json")
	if err := os.WriteFile(cfgFile, []byte("{}"), 0644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}

	if err := w.Add(cfgFile); err != nil {
		t.Fatalf("Add error = %v", err)
	}
	if err := w.Add(cfgFile); !errors.Is(err, ErrAlreadyWatching) {
		t.Errorf("Add again error = %v, want ErrAlreadyWatching", err)
	}

	paths := w.Paths()
	if len(paths) != 1 || paths[0] != cfgFile {
		t.Errorf("Paths() = %v, want [%s]", paths, cfgFile)
	}

	if err := w.Remove(cfgFile); err != nil {
		t.Fatalf("Remove error = %v", err)
	}
	if err := w.Remove(cfgFile); !errors.Is(err, ErrNotWatching) {
		t.Errorf("Remove again error = %v, want ErrNotWatching", err)
	}
	if got := w.Paths(); len(got) != 0 {
		t.Errorf("Paths() after Remove = %v, want empty", got)
	}
}

func TestWatcherAddMissingDirectory(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	defer w.Close()

	err = w.Add(filepath.Join(t.TempDir(), "missing", ".eslintrc.json"))
	if err == nil {
		t.Error("Add with missing parent directory should error")
	}
}

func TestWatcherAddNonexistentFile(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	defer w.Close()

	// The file may appear later; only the directory must exist.
	tmpDir := t.TempDir()
	cfgFile := filepath.Join(tmpDir, ".eslintrc.yml")
	if err := w.Add(cfgFile); err != nil {
		t.Fatalf("Add error = %v", err)
	}

	if err := os.WriteFile(cfgFile, []byte("root: true\n"), 0644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}

	event, ok := waitForEvent(t, w, cfgFile, 2*time.Second)
	if !ok {
		t.Fatal("timeout waiting for create event")
	}
	if !event.Op.Has(OpCreate) && !event.Op.Has(OpWrite) {
		t.Errorf("event op = %v, want CREATE or WRITE", event.Op)
	}
}

func TestWatcherFiltersToRegisteredFiles(t *testing.T) {
	w, err := New(WithDebounce(50 * time.Millisecond))
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	defer w.Close()

	tmpDir := t.TempDir()
	watched := filepath.Join(tmpDir, ".eslintrc.json")
	ignored := filepath.Join(tmpDir, "notes.txt")
	if err := os.WriteFile(watched, []byte("{}"), 0644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}

	if err := w.Add(watched); err != nil {
		t.Fatalf("Add error = %v", err)
	}

	// Touch an unrelated file in the same directory, then the watched one.
	if err := os.WriteFile(ignored, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}
	if err := os.WriteFile(watched, []byte(`{"root":true}`), 0644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case event, ok := <-w.Events():
			if !ok {
				t.Fatal("events channel closed")
			}
			if event.Path != watched {
				t.Fatalf("got event for %s, want only %s", event.Path, watched)
			}
			return
		case <-timeout:
			t.Fatal("timeout waiting for watched file event")
		}
	}
}

func TestWatcherCoalescesBursts(t *testing.T) {
	w, err := New(WithDebounce(150 * time.Millisecond))
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	defer w.Close()

	tmpDir := t.TempDir()
	cfgFile := filepath.Join(tmpDir, ".eslintrc")
	if err := os.WriteFile(cfgFile, []byte("{}"), 0644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}
	if err := w.Add(cfgFile); err != nil {
		t.Fatalf("Add error = %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(cfgFile, []byte(`{"root":true}`), 0644); err != nil {
			t.Fatalf("WriteFile error = %v", err)
		}
	}

	event, ok := waitForEvent(t, w, cfgFile, 2*time.Second)
	if !ok {
		t.Fatal("timeout waiting for coalesced event")
	}
	if !event.Op.Has(OpWrite) {
		t.Errorf("event op = %v, want WRITE included", event.Op)
	}

	// The burst was inside one window, so nothing further arrives.
	select {
	case event := <-w.Events():
		t.Errorf("unexpected second event: %+v", event)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherSeesRenameReplace(t *testing.T) {
	w, err := New(WithDebounce(50 * time.Millisecond))
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	defer w.Close()

	tmpDir := t.TempDir()
	cfgFile := filepath.Join(tmpDir, ".eslintrc.json")
	if err := os.WriteFile(cfgFile, []byte("{}"), 0644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}
	if err := w.Add(cfgFile); err != nil {
		t.Fatalf("Add error = %v", err)
	}

	// Editor-style save: write a scratch file, rename it over the target.
	scratch := filepath.Join(tmpDir, ".eslintrc.json.tmp")
	if err := os.WriteFile(scratch, []byte(`{"root":true}`), 0644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}
	if err := os.Rename(scratch, cfgFile); err != nil {
		t.Fatalf("Rename error = %v", err)
	}

	if _, ok := waitForEvent(t, w, cfgFile, 2*time.Second); !ok {
		t.Fatal("timeout waiting for rename-replace event")
	}
}

func TestWatchSequence(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	defer w.Close()

	tmpDir := t.TempDir()
	fileA := filepath.Join(tmpDir, ".eslintrc.json")
	fileB := filepath.Join(tmpDir, "base.json")
	for _, p := range []string{fileA, fileB} {
		if err := os.WriteFile(p, []byte("{}"), 0644); err != nil {
			t.Fatalf("WriteFile error = %v", err)
		}
	}

	seq := eslintrc.NewSequence(
		&eslintrc.Fragment{Name: "base", FilePath: fileB},
		&eslintrc.Fragment{Name: "cli", FilePath: ""},
		&eslintrc.Fragment{Name: "main", FilePath: fileA},
		&eslintrc.Fragment{Name: "main#overrides[0]", FilePath: fileA},
	)
	if err := w.WatchSequence(seq); err != nil {
		t.Fatalf("WatchSequence error = %v", err)
	}

	paths := w.Paths()
	if len(paths) != 2 {
		t.Fatalf("Paths() = %v, want two entries", paths)
	}
	if paths[0] != fileA && paths[1] != fileA {
		t.Errorf("Paths() = %v, missing %s", paths, fileA)
	}

	// Registering the same sequence again is a no-op.
	if err := w.WatchSequence(seq); err != nil {
		t.Errorf("repeat WatchSequence error = %v", err)
	}
	if err := w.WatchSequence(nil); err != nil {
		t.Errorf("nil WatchSequence error = %v", err)
	}
}

func TestWatcherClose(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatalf("New error = %v", err)
	}

	tmpDir := t.TempDir()
	cfgFile := filepath.Join(tmpDir, ".eslintrc")
	if err := os.WriteFile(cfgFile, []byte("{}"), 0644); err != nil {
		t.Fatalf("WriteFile error = %v", err)
	}
	if err := w.Add(cfgFile); err != nil {
		t.Fatalf("Add error = %v", err)
	}

	if err := w.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}

	if _, ok := <-w.Events(); ok {
		t.Error("events channel should be closed")
	}
	if _, ok := <-w.Errors(); ok {
		t.Error("errors channel should be closed")
	}

	if err := w.Add(cfgFile); !errors.Is(err, ErrClosed) {
		t.Errorf("Add after Close error = %v, want ErrClosed", err)
	}
	if err := w.Remove(cfgFile); !errors.Is(err, ErrClosed) {
		t.Errorf("Remove after Close error = %v, want ErrClosed", err)
	}
}

func TestOpString(t *testing.T) {
	tests := []struct {
		op   Op
		want string
	}{
		{OpCreate, "CREATE"},
		{OpWrite, "WRITE"},
		{OpRemove, "REMOVE"},
		{OpRename, "RENAME"},
		{OpChmod, "CHMOD"},
		{OpCreate | OpWrite, "CREATE|WRITE"},
		{Op(0), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("Op(%d).String() = %q, want %q", tt.op, got, tt.want)
		}
	}
	if !(OpCreate | OpWrite).Has(OpWrite) {
		t.Error("combined op should include WRITE")
	}
	if (OpCreate | OpWrite).Has(OpRemove) {
		t.Error("combined op should not include REMOVE")
	}
}

// waitForEvent drains events until one for path arrives or the timeout
// elapses.
func waitForEvent(t *testing.T, w *Watcher, path string, timeout time.Duration) (Event, bool) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case event, ok := <-w.Events():
			if !ok {
				return Event{}, false
			}
			if event.Path == path {
				return event, true
			}
		case <-deadline:
			return Event{}, false
		}
	}
}
