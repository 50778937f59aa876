package inference

import (
	"os"
	"path/filepath"
	"testing"
)

// seedModel creates a fake model directory with one weights file of the given size.
func seedModel(t *testing.T, cacheDir, name string, size int) {
	t.Helper()
	dir := filepath.Join(cacheDir, filepath.FromSlash(name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "weights.bin"), make([]byte, size), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestRegistry_EmptyCache(t *testing.T) {
	r := NewRegistry(t.TempDir())

	if len(r.Models()) != 3 {
		t.Fatalf("expected 3 tracked models, got %d", len(r.Models()))
	}
	missing := r.MissingRequired()
	if len(missing) != 3 {
		t.Errorf("expected 3 missing required models, got %v", missing)
	}
	if r.Available("medical_nlp") {
		t.Error("medical_nlp should not be available in empty cache")
	}
}

func TestRegistry_DetectsDownloadedModels(t *testing.T) {
	cache := t.TempDir()
	seedModel(t, cache, "facebook/bart-large-mnli", 1024)
	seedModel(t, cache, "pritamdeka/S-PubMedBert-MS-MARCO", 2048)

	r := NewRegistry(cache)

	if !r.Available("medical_nlp") {
		t.Error("expected medical_nlp to be available")
	}
	if !r.Available("medical_bert") {
		t.Error("expected medical_bert to be available")
	}
	if r.Available("vision") {
		t.Error("vision should not be available")
	}

	missing := r.MissingRequired()
	if len(missing) != 1 || missing[0] != "vision" {
		t.Errorf("expected only vision missing, got %v", missing)
	}
}

func TestRegistry_StorageInfo(t *testing.T) {
	cache := t.TempDir()
	seedModel(t, cache, "facebook/bart-large-mnli", 1024)

	r := NewRegistry(cache)
	info, err := r.StorageInfo()
	if err != nil {
		t.Fatalf("StorageInfo() error: %v", err)
	}

	if info.Models["medical_nlp"] != 1024 {
		t.Errorf("expected medical_nlp size 1024, got %d", info.Models["medical_nlp"])
	}
	if len(info.DownloadedModels) != 1 || info.DownloadedModels[0] != "medical_nlp" {
		t.Errorf("unexpected downloaded models: %v", info.DownloadedModels)
	}
	if len(info.MissingRequired) != 2 {
		t.Errorf("expected 2 missing required, got %v", info.MissingRequired)
	}
	if info.TotalSizeGB <= 0 {
		t.Errorf("expected positive total size, got %v", info.TotalSizeGB)
	}
}

func TestRegistry_ClearCache(t *testing.T) {
	cache := t.TempDir()
	seedModel(t, cache, "facebook/bart-large-mnli", 128)
	seedModel(t, cache, "microsoft/beit-base-patch16-224-pt22k-ft22k", 128)

	r := NewRegistry(cache)
	if err := r.ClearCache("medical_nlp"); err != nil {
		t.Fatalf("ClearCache() error: %v", err)
	}
	if r.Available("medical_nlp") {
		t.Error("medical_nlp should be unavailable after clearing")
	}
	if !r.Available("vision") {
		t.Error("vision should still be available")
	}

	if err := r.ClearCache("nope"); err == nil {
		t.Error("expected error for unknown model id")
	}

	if err := r.ClearCache(""); err != nil {
		t.Fatalf("ClearCache(all) error: %v", err)
	}
	if r.Available("vision") {
		t.Error("vision should be unavailable after clearing all")
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry(t.TempDir())

	m, ok := r.Lookup("vision")
	if !ok {
		t.Fatal("expected vision descriptor")
	}
	if m.Name != "microsoft/beit-base-patch16-224-pt22k-ft22k" {
		t.Errorf("unexpected model name: %s", m.Name)
	}
	if !m.Required {
		t.Error("vision should be required")
	}

	if _, ok := r.Lookup("missing"); ok {
		t.Error("expected lookup miss for unknown id")
	}
}
