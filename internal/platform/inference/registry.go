package inference

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// ModelDescriptor describes one model the platform depends on.
type ModelDescriptor struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Size     string `json:"size"`
	Required bool   `json:"required"`
}

// defaultModels lists the pipeline models the assistant is built around.
// Advertised sizes are approximate download sizes, not on-disk usage.
var defaultModels = []ModelDescriptor{
	{ID: "medical_nlp", Name: "facebook/bart-large-mnli", Size: "1.2GB", Required: true},
	{ID: "vision", Name: "microsoft/beit-base-patch16-224-pt22k-ft22k", Size: "2.0GB", Required: true},
	{ID: "medical_bert", Name: "pritamdeka/S-PubMedBert-MS-MARCO", Size: "1.5GB", Required: true},
}

// StorageInfo summarises local model cache usage.
type StorageInfo struct {
	TotalSizeGB      float64          `json:"total_size_gb"`
	Models           map[string]int64 `json:"models"`
	DownloadedModels []string         `json:"downloaded_models"`
	MissingRequired  []string         `json:"missing_required"`
}

// Registry tracks which models are present in the local cache directory.
// Remote inference does not strictly need local weights, but operators
// staging an on-prem deployment use this to verify model availability
// before cutting traffic over.
type Registry struct {
	mu       sync.RWMutex
	cacheDir string
	models   []ModelDescriptor
	present  map[string]bool
}

// NewRegistry creates a registry over the given cache directory and scans it.
// An empty cacheDir defaults to the conventional hub location under the
// user's home directory.
func NewRegistry(cacheDir string) *Registry {
	if cacheDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cacheDir = filepath.Join(home, ".cache", "huggingface", "hub")
		}
	}
	r := &Registry{
		cacheDir: cacheDir,
		models:   defaultModels,
		present:  make(map[string]bool),
	}
	r.Refresh()
	return r
}

// modelPath maps a model name onto its cache directory.
func (r *Registry) modelPath(name string) string {
	return filepath.Join(r.cacheDir, filepath.FromSlash(name))
}

// Refresh rescans the cache directory for downloaded models.
func (r *Registry) Refresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.models {
		info, err := os.Stat(r.modelPath(m.Name))
		r.present[m.ID] = err == nil && info.IsDir()
	}
}

// Models returns the tracked descriptors in registration order.
func (r *Registry) Models() []ModelDescriptor {
	out := make([]ModelDescriptor, len(r.models))
	copy(out, r.models)
	return out
}

// Lookup returns the descriptor for the given model ID.
func (r *Registry) Lookup(id string) (ModelDescriptor, bool) {
	for _, m := range r.models {
		if m.ID == id {
			return m, true
		}
	}
	return ModelDescriptor{}, false
}

// Available reports whether the model's weights are present locally.
func (r *Registry) Available(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.present[id]
}

// MissingRequired returns the IDs of required models with no local weights.
func (r *Registry) MissingRequired() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var missing []string
	for _, m := range r.models {
		if m.Required && !r.present[m.ID] {
			missing = append(missing, m.ID)
		}
	}
	return missing
}

// StorageInfo walks the cache directory and reports per-model disk usage.
func (r *Registry) StorageInfo() (*StorageInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info := &StorageInfo{
		Models:           make(map[string]int64),
		DownloadedModels: []string{},
		MissingRequired:  []string{},
	}

	var total int64
	for _, m := range r.models {
		if !r.present[m.ID] {
			if m.Required {
				info.MissingRequired = append(info.MissingRequired, m.ID)
			}
			continue
		}
		size, err := dirSize(r.modelPath(m.Name))
		if err != nil {
			return nil, fmt.Errorf("measure %s: %w", m.ID, err)
		}
		info.Models[m.ID] = size
		info.DownloadedModels = append(info.DownloadedModels, m.ID)
		total += size
	}
	info.TotalSizeGB = float64(total) / (1 << 30)
	return info, nil
}

// ClearCache removes the cached weights for one model, or for all tracked
// models when id is empty.
func (r *Registry) ClearCache(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id == "" {
		for _, m := range r.models {
			if err := os.RemoveAll(r.modelPath(m.Name)); err != nil {
				return fmt.Errorf("clear %s: %w", m.ID, err)
			}
			r.present[m.ID] = false
		}
		return nil
	}

	var desc *ModelDescriptor
	for i := range r.models {
		if r.models[i].ID == id {
			desc = &r.models[i]
			break
		}
	}
	if desc == nil {
		return fmt.Errorf("unknown model: %s", id)
	}
	if err := os.RemoveAll(r.modelPath(desc.Name)); err != nil {
		return fmt.Errorf("clear %s: %w", id, err)
	}
	r.present[id] = false
	return nil
}

func dirSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
