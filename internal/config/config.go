// Package config manages the project-level factree configuration.
//
// A factree project is marked by a factree/ directory at its root,
// holding factree.json plus the policy documents the validator reads.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// FactreeDir is the project marker directory.
	FactreeDir = "factree"
	// ConfigFile is the project configuration filename.
	ConfigFile = "factree.json"
	// MemoryDir holds the policy documents under factree/.
	MemoryDir = "memory"
	// ConstitutionFile is the policy document the validator enforces.
	ConstitutionFile = "constitution.md"
	// BoundariesFile is the component allowlist document.
	BoundariesFile = "architecture-boundaries.md"
)

// Mode controls how blocking violations gate stage advancement.
type Mode string

const (
	// ModeStrict refuses to advance a run past a stage with blocking
	// violations.
	ModeStrict Mode = "strict"
	// ModeAdvisory reports violations but never blocks advancement.
	ModeAdvisory Mode = "advisory"
)

// ValidateMode checks that a mode string is recognized.
func ValidateMode(m Mode) error {
	switch m {
	case ModeStrict, ModeAdvisory:
		return nil
	}
	return fmt.Errorf("invalid mode %q: must be strict or advisory", m)
}

// ProjectConfig is the persistent project state stored in factree.json.
type ProjectConfig struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`
	Mode        Mode   `json:"mode"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// timeNow is a package-level var to allow test injection.
var timeNow = time.Now

// NewProjectConfig creates a fresh project configuration.
func NewProjectConfig(name, description string, mode Mode) *ProjectConfig {
	now := timeNow().UTC().Format(time.RFC3339)
	return &ProjectConfig{
		Name:        name,
		Description: description,
		Version:     "0.1.0",
		Mode:        mode,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// FactreePath returns the absolute path to the factree/ directory.
func FactreePath(projectRoot string) string {
	return filepath.Join(projectRoot, FactreeDir)
}

// ConfigPath returns the absolute path to factree.json.
func ConfigPath(projectRoot string) string {
	return filepath.Join(projectRoot, FactreeDir, ConfigFile)
}

// ConstitutionPath returns the absolute path to the policy document.
func ConstitutionPath(projectRoot string) string {
	return filepath.Join(projectRoot, FactreeDir, MemoryDir, ConstitutionFile)
}

// BoundariesPath returns the absolute path to the component allowlist.
func BoundariesPath(projectRoot string) string {
	return filepath.Join(projectRoot, FactreeDir, MemoryDir, BoundariesFile)
}

// Store defines the persistence interface for project configuration.
// Abstracted for testability (DIP).
type Store interface {
	Save(projectRoot string, cfg *ProjectConfig) error
	Load(projectRoot string) (*ProjectConfig, error)
	Exists(projectRoot string) bool
}

// FileStore implements Store using the local filesystem.
type FileStore struct{}

// NewFileStore creates a filesystem-backed config store.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// Save writes the project configuration, creating factree/ if needed.
func (fs *FileStore) Save(projectRoot string, cfg *ProjectConfig) error {
	cfg.UpdatedAt = timeNow().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.MkdirAll(FactreePath(projectRoot), 0o755); err != nil {
		return fmt.Errorf("creating factree directory: %w", err)
	}

	return os.WriteFile(ConfigPath(projectRoot), data, 0o644)
}

// Load reads the project configuration.
func (fs *FileStore) Load(projectRoot string) (*ProjectConfig, error) {
	data, err := os.ReadFile(ConfigPath(projectRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no factree project found at %s - run init first", projectRoot)
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg ProjectConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing factree.json: %w", err)
	}
	return &cfg, nil
}

// Exists reports whether a factree project is initialized at the root.
func (fs *FileStore) Exists(projectRoot string) bool {
	_, err := os.Stat(ConfigPath(projectRoot))
	return err == nil
}

// FindProjectRoot walks up from startDir looking for a factree.json
// marker. Returns the directory containing it.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving start directory: %w", err)
	}

	for {
		if _, err := os.Stat(ConfigPath(dir)); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no factree project found above %s", startDir)
		}
		dir = parent
	}
}
