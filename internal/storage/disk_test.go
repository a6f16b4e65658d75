package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()

	f1 := filepath.Join(dir, "vector_store.index")
	if err := os.WriteFile(f1, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	got, ok, err := DiskUsageBytes(f1)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || got != 5 {
		t.Errorf("single file: got %d bytes (exists=%v), want 5", got, ok)
	}

	sub := filepath.Join(dir, "texts")
	if err := os.MkdirAll(filepath.Join(sub, "nested"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "a.jsonl"), []byte("ab"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "nested", "b.jsonl"), []byte("c"), 0644); err != nil {
		t.Fatal(err)
	}
	got, ok, err = DiskUsageBytes(sub)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || got != 3 {
		t.Errorf("dir: got %d bytes, want 3", got)
	}

	got, ok, err = DiskUsageBytes(filepath.Join(dir, "nonexistent"))
	if err != nil {
		t.Fatal(err)
	}
	if ok || got != 0 {
		t.Errorf("missing: got %d bytes (exists=%v), want 0/false", got, ok)
	}
}

func TestMeasure(t *testing.T) {
	dir := t.TempDir()
	snap := filepath.Join(dir, "vector_store.index")
	if err := os.WriteFile(snap, make([]byte, 10), 0644); err != nil {
		t.Fatal(err)
	}
	corpusDir := filepath.Join(dir, "texts")
	if err := os.Mkdir(corpusDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(corpusDir, "kant.jsonl"), make([]byte, 7), 0644); err != nil {
		t.Fatal(err)
	}

	fp, err := Measure(map[string]string{
		"corpus":   corpusDir,
		"snapshot": snap,
		"cache":    filepath.Join(dir, "cache"),
		"unused":   "",
	}, "corpus", "snapshot", "cache", "unused")
	if err != nil {
		t.Fatal(err)
	}
	if len(fp.Entries) != 3 {
		t.Fatalf("entries = %d, want 3 (empty path skipped)", len(fp.Entries))
	}
	if fp.Entries[0].Label != "corpus" || fp.Entries[0].Bytes != 7 {
		t.Errorf("corpus entry = %+v", fp.Entries[0])
	}
	if fp.Entries[2].Exists {
		t.Error("missing cache dir should report Exists=false")
	}
	if fp.Total != 17 {
		t.Errorf("total = %d, want 17", fp.Total)
	}
}
