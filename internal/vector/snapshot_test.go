package vector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func saveSample(t *testing.T, path string) SnapshotMeta {
	t.Helper()
	idx, _ := NewMemoryIndex(2)
	_ = idx.Add(context.Background(), [][]float32{{1, 0}, {0, 1}, {0.6, 0.8}})
	meta := NewSnapshotMeta("model", "fingerprint")
	if err := idx.Save(path, meta); err != nil {
		t.Fatal(err)
	}
	return meta
}

func TestReadSnapshotMeta(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.index")
	meta := saveSample(t, path)

	got, err := ReadSnapshotMeta(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Version != 1 || got.Count != 3 || got.Dimensions != 2 || got.BuildID != meta.BuildID {
		t.Errorf("meta: %+v", got)
	}
	if got.BuildID == "" {
		t.Error("build id should be set")
	}
}

func TestReadSnapshotMeta_Missing(t *testing.T) {
	_, err := ReadSnapshotMeta(filepath.Join(t.TempDir(), "none"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestSnapshot_Truncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.index")
	saveSample(t, path)
	info, _ := os.Stat(path)
	if err := os.Truncate(path, info.Size()-3); err != nil {
		t.Fatal(err)
	}

	idx, _ := NewMemoryIndex(2)
	if _, err := idx.Load(path); !errors.Is(err, ErrSnapshotCorrupt) {
		t.Errorf("expected ErrSnapshotCorrupt, got %v", err)
	}
	if idx.Size() != 0 {
		t.Errorf("failed load should leave the index empty, size=%d", idx.Size())
	}
	// The header is intact, so metadata is still readable.
	if _, err := ReadSnapshotMeta(path); err != nil {
		t.Errorf("header should still parse: %v", err)
	}
}

func TestSnapshot_TrailingBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.index")
	saveSample(t, path)
	f, _ := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	_, _ = f.Write([]byte{0, 0, 0, 0})
	f.Close()

	idx, _ := NewMemoryIndex(2)
	if _, err := idx.Load(path); !errors.Is(err, ErrSnapshotCorrupt) {
		t.Errorf("expected ErrSnapshotCorrupt, got %v", err)
	}
}

func TestSnapshot_ForeignFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v.index")
	if err := os.WriteFile(path, []byte("this is not an index"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSnapshotMeta(path); !errors.Is(err, ErrSnapshotCorrupt) {
		t.Errorf("expected ErrSnapshotCorrupt, got %v", err)
	}
	if err := os.WriteFile(path, []byte("MK"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadSnapshotMeta(path); !errors.Is(err, ErrSnapshotCorrupt) {
		t.Errorf("short file: expected ErrSnapshotCorrupt, got %v", err)
	}
}

func TestSnapshot_SaveReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "v.index")
	first := saveSample(t, path)
	second := saveSample(t, path)
	if first.BuildID == second.BuildID {
		t.Fatal("each build should get a new id")
	}
	got, err := ReadSnapshotMeta(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.BuildID != second.BuildID {
		t.Errorf("snapshot not replaced: %s", got.BuildID)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %v", entries)
	}
}

func TestSnapshotMeta_Check(t *testing.T) {
	meta := SnapshotMeta{Count: 7, Fingerprint: "fp", Dimensions: 384, ModelID: "m"}
	if err := meta.Check(7, "fp", 384, "m"); err != nil {
		t.Errorf("matching meta: %v", err)
	}
	cases := []struct {
		name    string
		count   int
		fp      string
		dims    int
		modelID string
	}{
		{"count", 8, "fp", 384, "m"},
		{"fingerprint", 7, "other", 384, "m"},
		{"dims", 7, "fp", 768, "m"},
		{"model", 7, "fp", 384, "other"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := meta.Check(tc.count, tc.fp, tc.dims, tc.modelID); !errors.Is(err, ErrSnapshotStale) {
				t.Errorf("expected ErrSnapshotStale, got %v", err)
			}
		})
	}
}
