package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"stepload/internal/fsutil"
)

// ManifestStep is one declaration as written to a manifest.
type ManifestStep struct {
	Keyword string `json:"keyword"`
	Pattern string `json:"pattern"`
	File    string `json:"file"`
}

// Manifest records what a run loaded.
type Manifest struct {
	RunID       string         `json:"run_id,omitempty"`
	Commit      string         `json:"commit,omitempty"`
	Branch      string         `json:"branch,omitempty"`
	Dirty       bool           `json:"dirty,omitempty"`
	LoadedFiles []string       `json:"loaded_files"`
	Steps       []ManifestStep `json:"steps"`
}

// Manifest returns the current registry contents.
func (r *Registry) Manifest(runID string) Manifest {
	decls := r.Declarations()
	steps := make([]ManifestStep, 0, len(decls))
	for _, d := range decls {
		steps = append(steps, ManifestStep{Keyword: d.Keyword, Pattern: d.Pattern, File: d.File})
	}
	return Manifest{RunID: runID, LoadedFiles: r.LoadedFiles(), Steps: steps}
}

// ReadManifest reads a manifest written by Save.
func ReadManifest(path string) (Manifest, error) {
	if path == "" {
		return Manifest{}, fmt.Errorf("manifest path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	return m, nil
}

// Save writes the registry manifest to path.
func (r *Registry) Save(path, runID string) error {
	return WriteManifest(path, r.Manifest(runID))
}

// WriteManifest writes m to a JSON file using an atomic rename.
func WriteManifest(path string, m Manifest) error {
	if path == "" {
		return fmt.Errorf("manifest path is required")
	}
	payload, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, payload, 0o644)
}
