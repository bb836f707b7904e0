package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mkarlsen/biolens/pkg/graph"
)

func writeExperiments(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "experiments.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileStoreLoad(t *testing.T) {
	path := writeExperiments(t, t.TempDir(), `{
		"experiments": [
			{"id": "exp-1", "title": "Alpha", "category": "microbiology"},
			{"title": "Anonymous", "category": "other"}
		]
	}`)

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	defer s.Close(context.Background())

	records, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].ID != "exp-1" {
		t.Errorf("record id = %q, want exp-1", records[0].ID)
	}
	if records[1].ID == "" {
		t.Error("record without id should get a generated one")
	}
}

func TestFileStoreLoadBareArray(t *testing.T) {
	path := writeExperiments(t, t.TempDir(), `[{"id": "exp-1", "title": "Alpha"}]`)

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	records, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 1 || records[0].ID != "exp-1" {
		t.Errorf("records = %+v", records)
	}
}

func TestFileStoreMissingFile(t *testing.T) {
	if _, err := NewFileStore(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("missing file should fail at open")
	}
}

func TestFileStoreMalformed(t *testing.T) {
	path := writeExperiments(t, t.TempDir(), `{not json`)
	s, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(context.Background()); err == nil {
		t.Error("malformed file should fail to load")
	}
}

func TestFileStoreWatch(t *testing.T) {
	dir := t.TempDir()
	path := writeExperiments(t, dir, `{"experiments": [{"id": "exp-1", "title": "Alpha"}]}`)

	s, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan []graph.Record, 4)
	err = s.Watch(ctx, func(records []graph.Record) {
		updates <- records
	}, nil)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	writeExperiments(t, dir, `{"experiments": [
		{"id": "exp-1", "title": "Alpha"},
		{"id": "exp-2", "title": "Beta"}
	]}`)

	select {
	case records := <-updates:
		if len(records) != 2 {
			t.Errorf("update carried %d records, want 2", len(records))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no update received after file change")
	}
}
