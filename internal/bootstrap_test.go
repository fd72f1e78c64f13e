package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/habitu/internal/storage"
)

func TestExport_FSStore(t *testing.T) {
	dir := t.TempDir()
	habits := `[{"id":"h1","name":"Read","logs":{"2026-03-01":true}}]`
	if err := os.WriteFile(filepath.Join(dir, storage.KeyHabits+".json"), []byte(habits), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	cfg.Storage.Path = dir

	var buf bytes.Buffer
	if err := Export(context.Background(), &buf, WithConfig(cfg), WithLogOutput(&bytes.Buffer{})); err != nil {
		t.Fatalf("Export: %v", err)
	}

	var doc struct {
		Habits []struct {
			ID             string          `json:"id"`
			CompletedDates map[string]bool `json:"completedDates"`
		} `json:"habits"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if doc.Version != "1.0" || len(doc.Habits) != 1 {
		t.Fatalf("unexpected export: %s", buf.String())
	}
	if !doc.Habits[0].CompletedDates["2026-03-01"] {
		t.Errorf("legacy logs not migrated: %s", buf.String())
	}
}

func TestExport_SQLiteStoreEmpty(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Storage.Driver = StorageDriverSQLite
	cfg.Storage.Path = filepath.Join(t.TempDir(), "habitu.db")

	var buf bytes.Buffer
	if err := Export(context.Background(), &buf, WithConfig(cfg), WithLogOutput(&bytes.Buffer{})); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"habits": []`)) {
		t.Errorf("expected empty habits, got %s", buf.String())
	}
}

func TestRunRequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}
