package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/habitu/internal/apperr"
)

func tempStore(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestSaveAndLoad(t *testing.T) {
	s := tempStore(t)
	content := []byte(`[{"id":"a"}]`)
	if err := s.Save(KeyHabits, content); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(KeyHabits)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "habits.json")); err != nil {
		t.Errorf("expected habits.json on disk: %v", err)
	}
}

func TestLoadMissingIsNotFound(t *testing.T) {
	s := tempStore(t)
	_, err := s.Load(KeySettings)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestInvalidKeysRejected(t *testing.T) {
	s := tempStore(t)
	for _, k := range []string{"", "../escape", "/etc/passwd", "a/b", ".hidden"} {
		if err := s.Save(k, []byte("x")); err == nil {
			t.Errorf("expected error for key %q", k)
		}
		if _, err := s.Load(k); err == nil {
			t.Errorf("expected error loading key %q", k)
		}
	}
}

func TestAtomicSaveLeavesNoTempFiles(t *testing.T) {
	s := tempStore(t)
	_ = s.Save(KeyHabits, []byte("original"))
	if err := s.Save(KeyHabits, []byte("updated")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _ := s.Load(KeyHabits)
	if string(got) != "updated" {
		t.Errorf("expected updated content, got %q", got)
	}
	matches, _ := filepath.Glob(filepath.Join(s.Root(), tmpFilePrefix+"*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	if _, err := NewFS(dir); err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("data dir not created: %v", err)
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "habitu-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	if _, err := NewFS(f.Name()); err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestKeyFromFile(t *testing.T) {
	cases := map[string]string{
		"/data/habits.json":          "habits",
		"/data/settings.json":        "settings",
		"/data/.habitu-tmp-123":      "",
		"/data/.habitu-tmp-123.json": "",
		"/data/notes.txt":            "",
		"/data/.hidden.json":         "",
	}
	for in, want := range cases {
		if got := keyFromFile(in); got != want {
			t.Errorf("keyFromFile(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSQLiteSaveAndLoad(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "habitu.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()

	if _, err := s.Load(KeyHabits); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := s.Save(KeyHabits, []byte("[1]")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(KeyHabits, []byte("[2]")); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	got, err := s.Load(KeyHabits)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != "[2]" {
		t.Errorf("got %q, want [2]", got)
	}
}
