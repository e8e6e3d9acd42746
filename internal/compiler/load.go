package compiler

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Declaration file extensions.
const (
	ExtCUE  = ".cue"
	ExtText = ".dyn"
)

// IsDeclFile reports whether path has a declaration file extension.
func IsDeclFile(path string) bool {
	switch filepath.Ext(path) {
	case ExtCUE, ExtText:
		return true
	}
	return false
}

// LoadFile reads path and compiles it by extension: .cue files through
// CompileCUE, anything else through ParseText.
func LoadFile(path string) ([]*DialectDecl, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read declaration file: %w", err)
	}
	return LoadSource(string(data), path)
}

// LoadSource compiles src, choosing the surface from the extension of
// name.
func LoadSource(src, name string) ([]*DialectDecl, error) {
	if filepath.Ext(name) == ExtCUE {
		return CompileCUE(src, name)
	}
	return ParseText(src, name)
}

// FindDeclFiles walks dir and returns every declaration file, sorted.
func FindDeclFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsDeclFile(path) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}
