package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cunhaax/dev-gpt/internal/extract"
)

// Versioned candidate store. Each (microservice name, approach) pair owns a
// directory of v1, v2, ... iteration snapshots. Iterations are immutable
// once written: a repair always writes the complete successor version, never
// a diff and never in place.

// VersionPath returns the directory of one candidate version.
func VersionPath(root, name string, packages []string, approach, iteration int) string {
	approachDir := fmt.Sprintf("%s_%d", strings.Join(packages, "_"), approach)
	return filepath.Join(root, name, approachDir, fmt.Sprintf("v%d", iteration))
}

// EnsureVersionDir creates the version directory, parents included.
func EnsureVersionDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create version directory %s: %w", path, err)
	}
	return nil
}

// PersistFile writes one artifact into a version directory.
func PersistFile(dir, fileName, content string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadAll loads the fixed microservice file set from a version directory.
// Missing files are skipped; a repair prompt only carries what exists.
func ReadAll(dir string) (map[string]string, error) {
	files := make(map[string]string)
	for _, kind := range extract.FileKinds {
		path := filepath.Join(dir, kind.Name)
		content, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		files[kind.Name] = string(content)
	}
	return files, nil
}
