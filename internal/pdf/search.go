package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/security"
)

// Search handles PDF discovery inside a directory tree
type Search struct {
	validator     *Validator
	pathValidator *security.PathValidator
}

// NewSearch creates a new PDF search handler. A nil pathValidator confines
// the walk to the searched directory only.
func NewSearch(validator *Validator, pathValidator *security.PathValidator) *Search {
	return &Search{
		validator:     validator,
		pathValidator: pathValidator,
	}
}

// FindPDFsInDirectoryLimited walks directory in lexical order and returns up
// to limit PDF files (limit <= 0 means no limit). Hidden directories, files
// failing the quick validation and entries escaping the sandbox are skipped.
func (s *Search) FindPDFsInDirectoryLimited(ctx context.Context, directory string, limit int) ([]FileInfo, error) {
	if directory == "" {
		return nil, fmt.Errorf("directory cannot be empty")
	}

	absDirectory, err := filepath.Abs(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}
	if _, err := os.Stat(absDirectory); os.IsNotExist(err) {
		return nil, fmt.Errorf("directory does not exist: %s", directory)
	}

	bounds := s.pathValidator
	if bounds == nil {
		if bounds, err = security.NewPathValidator(absDirectory); err != nil {
			return nil, err
		}
	}

	pdfFiles := make([]FileInfo, 0)
	err = filepath.WalkDir(absDirectory, func(path string, d os.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// Unreadable entries do not stop the walk.
			return nil
		}

		withinDir, err := bounds.IsPathWithinDirectory(path)
		if err != nil || !withinDir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != absDirectory {
				return filepath.SkipDir
			}
			return nil
		}

		if limit > 0 && len(pdfFiles) >= limit {
			return filepath.SkipAll
		}

		if !isPDFFile(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if err := s.validator.ValidateFileInfo(path, info); err != nil {
			return nil
		}

		pdfFiles = append(pdfFiles, FileInfo{
			Path:         path,
			Name:         info.Name(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking directory: %w", err)
	}

	return pdfFiles, nil
}

func isPDFFile(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}
