package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrOutsideDirectory is returned for paths that escape the configured directory.
	ErrOutsideDirectory = errors.New("path is outside configured directory")
	// ErrEmptyPath is returned for empty paths.
	ErrEmptyPath = errors.New("path cannot be empty")
)

// PathValidator confines file access to one directory tree. Relative paths
// are taken relative to that directory and symlinks are followed before the
// check.
type PathValidator struct {
	configuredDirectory string
}

// NewPathValidator creates a new path validator for the given directory
func NewPathValidator(configuredDirectory string) (*PathValidator, error) {
	if configuredDirectory == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}

	abs, err := filepath.Abs(configuredDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve configured directory: %w", err)
	}

	// The directory does not need to exist yet.
	return &PathValidator{configuredDirectory: filepath.Clean(abs)}, nil
}

// GetConfiguredDirectory returns the absolute configured directory
func (v *PathValidator) GetConfiguredDirectory() string {
	return v.configuredDirectory
}

// Resolve turns path into a clean absolute path inside the configured
// directory, or reports why it cannot.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", ErrEmptyPath
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.configuredDirectory, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	ok, err := v.IsPathWithinDirectory(abs)
	if err != nil {
		return "", fmt.Errorf("path validation failed: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrOutsideDirectory, path)
	}
	return abs, nil
}

// ValidatePath checks that path lies within the configured directory
func (v *PathValidator) ValidatePath(path string) error {
	_, err := v.Resolve(path)
	return err
}

// IsPathWithinDirectory checks the lexical path and, when it exists, the
// path with symlinks evaluated.
func (v *PathValidator) IsPathWithinDirectory(path string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}
	cleanPath := filepath.Clean(absPath)

	realDir := v.configuredDirectory
	if resolved, err := filepath.EvalSymlinks(realDir); err == nil {
		realDir = resolved
	}

	if !within(cleanPath, v.configuredDirectory) && !within(cleanPath, realDir) {
		return false, nil
	}

	realPath, err := evalExisting(cleanPath)
	if err != nil {
		return false, err
	}
	return within(realPath, v.configuredDirectory) || within(realPath, realDir), nil
}

// ValidateDirectory checks that dirPath is inside the configured directory
// and, when it exists, is a directory.
func (v *PathValidator) ValidateDirectory(dirPath string) error {
	abs, err := v.Resolve(dirPath)
	if err != nil {
		return err
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", dirPath)
	}
	return nil
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// evalExisting evaluates symlinks in the longest existing prefix of path and
// appends the remainder unchanged.
func evalExisting(path string) (string, error) {
	rest := ""
	cur := path
	for {
		if _, err := os.Lstat(cur); err == nil {
			resolved, err := filepath.EvalSymlinks(cur)
			if err != nil {
				return "", fmt.Errorf("failed to evaluate symlinks: %w", err)
			}
			return filepath.Join(resolved, rest), nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return path, nil
		}
		rest = filepath.Join(filepath.Base(cur), rest)
		cur = parent
	}
}
