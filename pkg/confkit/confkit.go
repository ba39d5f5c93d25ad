// Package confkit holds the small helpers shared by every config loader:
// dotenv bootstrap, project-root discovery and sections that live in their own file.
package confkit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolvePath expands environment variables in file and anchors it at base
// unless it is absolute. A blank file stays blank.
func ResolvePath(base, file string) string {
	file = strings.TrimSpace(os.ExpandEnv(file))
	if file == "" || filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(base, file)
}

// BaseDir returns the directory holding the main config file.
func BaseDir(mainPath string) string {
	return filepath.Dir(mainPath)
}

// Section is a config block kept in its own file, referenced from the main
// config by File. Value is filled by Hydrate.
type Section[T any] struct {
	File  string `json:",optional"`
	Value *T     `json:"-"`
}

// Loaded reports whether Value is available.
func (s Section[T]) Loaded() bool {
	return s.Value != nil
}

// Hydrate resolves File against base and loads it with loader. An empty File
// leaves the section untouched.
func (s *Section[T]) Hydrate(base string, loader func(string) (*T, error)) error {
	if strings.TrimSpace(s.File) == "" {
		return nil
	}
	p := ResolvePath(base, s.File)
	v, err := loader(p)
	if err != nil {
		return fmt.Errorf("section %s: %w", p, err)
	}
	s.File, s.Value = p, v
	return nil
}
