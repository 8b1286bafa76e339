package kvstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSaveGet(t *testing.T) {
	s := NewMemory()
	if !s.Save(KeyTheme, "dark") {
		t.Fatal("Save() = false")
	}
	got, ok := s.GetString(KeyTheme)
	if !ok || got != "dark" {
		t.Errorf("GetString() = %q, %v", got, ok)
	}
	if !s.HasKey(KeyTheme) || s.HasKey(KeyDefaultModule) {
		t.Error("HasKey() mismatch")
	}
	var missing string
	if s.Get(KeyDefaultModule, &missing) {
		t.Error("Get() on missing key should be false")
	}
}

func TestSaveUnserializable(t *testing.T) {
	s := NewMemory()
	if s.Save("bad", make(chan int)) {
		t.Error("Save() of a channel should report failure")
	}
	if s.HasKey("bad") {
		t.Error("failed save should not leave the key behind")
	}
}

func TestGetWrongType(t *testing.T) {
	s := NewMemory()
	s.Save(KeyFavoriteStocks, "not a list")
	if got := s.GetStrings(KeyFavoriteStocks); len(got) != 0 {
		t.Errorf("GetStrings() = %v, want empty", got)
	}
}

func TestRemoveClearListKeys(t *testing.T) {
	s := NewMemory()
	s.Save("b", 1)
	s.Save("a", 2)
	if diff := cmp.Diff([]string{"a", "b"}, s.ListKeys()); diff != "" {
		t.Errorf("ListKeys() mismatch (-want +got):\n%s", diff)
	}
	if !s.Remove("a") || !s.Remove("missing") {
		t.Error("Remove() should succeed")
	}
	if !s.Clear() || len(s.ListKeys()) != 0 {
		t.Error("Clear() did not empty the store")
	}
}

func TestUsedSpace(t *testing.T) {
	s := NewMemory()
	s.Save("ab", "c")
	// key "ab" + value `"c"`
	if got := s.UsedSpace(); got != (2+3)*2 {
		t.Errorf("UsedSpace() = %d, want 10", got)
	}
}

func TestFilePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.json")
	s := Open(path)
	s.Save(KeyFavoriteStocks, []string{"600519"})

	reopened := Open(path)
	if diff := cmp.Diff([]string{"600519"}, reopened.GetStrings(KeyFavoriteStocks)); diff != "" {
		t.Errorf("reopened store mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := Open(path)
	if len(s.ListKeys()) != 0 {
		t.Error("corrupt file should load as empty store")
	}
	if !s.Save(KeyTheme, "light") {
		t.Error("Save() after corrupt load should succeed")
	}
}
