// Package fsutil provides file system helpers for locating workspace files.
package fsutil

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// FindFilesByExtension walks rootPath and returns the paths of all regular
// files whose name ends with extension, in lexical walk order. Directories
// whose name starts with a dot are not entered.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		return nil, fmt.Errorf("fsutil: extension must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != rootPath && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fsutil: walking %s: %w", rootPath, err)
	}
	return files, nil
}
