package resolve

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ErrNotFound is returned when a package specifier matches no installed
// package.
var ErrNotFound = errors.New("module not found")

// Default lookup settings.
const (
	DefaultExtension = ".js"
	DefaultIndexFile = "index.js"
)

// Resolver maps import specifiers to module paths.
type Resolver struct {
	Fs               afero.Fs
	DefaultExtension string
	IndexFile        string
}

// NewResolver creates a resolver over fs with the default settings.
func NewResolver(fs afero.Fs) *Resolver {
	return &Resolver{Fs: fs, DefaultExtension: DefaultExtension, IndexFile: DefaultIndexFile}
}

// Resolve returns the path of the module that specifier names when
// imported from a module in dir. Specifiers with a scheme are returned
// unchanged. Relative and absolute specifiers always resolve to a path;
// whether the file can be read is left to the reader, so an unreadable
// module is reported with its path.
func (r *Resolver) Resolve(specifier, dir string) (string, error) {
	if HasScheme(specifier) {
		return specifier, nil
	}

	if isPathSpecifier(specifier) {
		path := specifier
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, filepath.FromSlash(specifier))
		}

		if found, ok := r.locate(path); ok {
			return found, nil
		}

		if filepath.Ext(path) == "" {
			return path + r.extension(), nil
		}

		return filepath.Clean(path), nil
	}

	for d := dir; ; d = filepath.Dir(d) {
		candidate := filepath.Join(d, "node_modules", filepath.FromSlash(specifier))
		if found, ok := r.locate(candidate); ok {
			return found, nil
		}

		if parent := filepath.Dir(d); parent == d {
			break
		}
	}

	return "", fmt.Errorf("%w: %q from %s", ErrNotFound, specifier, dir)
}

// locate finds the file for path: the file itself, the file with the
// default extension, or the index file of a directory.
func (r *Resolver) locate(path string) (string, bool) {
	info, err := r.Fs.Stat(path)

	switch {
	case err == nil && !info.IsDir():
		return filepath.Clean(path), true
	case err == nil:
		index := filepath.Join(path, r.indexFile())
		if r.isFile(index) {
			return index, true
		}
	case !errors.Is(err, os.ErrNotExist):
		return "", false
	}

	if filepath.Ext(path) == "" && r.isFile(path+r.extension()) {
		return filepath.Clean(path + r.extension()), true
	}

	return "", false
}

func (r *Resolver) isFile(path string) bool {
	info, err := r.Fs.Stat(path)

	return err == nil && !info.IsDir()
}

func (r *Resolver) extension() string {
	if r.DefaultExtension == "" {
		return DefaultExtension
	}

	return r.DefaultExtension
}

func (r *Resolver) indexFile() string {
	if r.IndexFile == "" {
		return DefaultIndexFile
	}

	return r.IndexFile
}

func isPathSpecifier(specifier string) bool {
	return specifier == "." || specifier == ".." ||
		strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") ||
		strings.HasPrefix(specifier, "/") || filepath.IsAbs(specifier)
}
