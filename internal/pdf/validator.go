package pdf

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// Validator handles PDF file validation operations
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidateFile performs comprehensive validation on a PDF file. A file that
// fails validation is reported in the result, not as an error.
func (v *Validator) ValidateFile(req PDFValidateFileRequest) (*PDFValidateFileResult, error) {
	result := &PDFValidateFileResult{
		Path:  req.Path,
		Valid: false,
	}

	pages, err := v.validatePDFFile(req.Path)
	if err != nil {
		result.Message = err.Error()
		return result, nil //nolint:nilerr // validation failure is part of the result
	}

	result.Valid = true
	result.Pages = pages
	return result, nil
}

// validatePDFFile returns the page count of a readable PDF with at least
// one page.
func (v *Validator) validatePDFFile(filePath string) (pages int, err error) {
	if filePath == "" {
		return 0, fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return 0, fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return 0, fmt.Errorf("cannot access file: %w", err)
	}

	if err := v.ValidateFileInfo(filePath, fileInfo); err != nil {
		return 0, err
	}

	// ledongthuc panics on some malformed page trees
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("invalid PDF file: page tree: %v", r)
		}
	}()

	// The reader parses the header and cross-reference table on open.
	f, reader, err := pdf.Open(filePath)
	if err != nil {
		return 0, fmt.Errorf("invalid PDF file: %w", err)
	}
	defer f.Close()

	pages = reader.NumPage()
	if pages < 1 {
		return 0, fmt.Errorf("PDF has no pages: %s", filePath)
	}
	return pages, nil
}

// IsValidPDF performs a quick check to see if a file is a valid PDF
func (v *Validator) IsValidPDF(filePath string) bool {
	_, err := v.validatePDFFile(filePath)
	return err == nil
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !isPDFFile(filePath) {
		return fmt.Errorf("file is not a PDF: %s", filePath)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}

	if fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	return nil
}
