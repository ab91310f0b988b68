package errors

import (
	"errors"
	"fmt"
	"sync"
)

// PDFError is a classified failure or skip raised while analyzing a document
type PDFError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Context    string    `json:"context,omitempty"`
	ObjectNum  int       `json:"object_num,omitempty"`
	GenNum     int       `json:"generation_num,omitempty"`
	FilePath   string    `json:"file_path,omitempty"`
	PageNumber int       `json:"page_number,omitempty"`
	Err        error     `json:"-"`
}

// ErrorType represents the categories of errors raised by the engine.
//
// ErrorTypeOpen and ErrorTypeSerialization are fatal for a call. The rest
// describe structural skips: the offending unit is dropped and the walk
// continues.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeOpen
	ErrorTypeSerialization
	ErrorTypeMissingObject
	ErrorTypeMalformedPage
	ErrorTypeMalformedAnnotation
	ErrorTypeInvalidRect
	ErrorTypeMalformedOutline
	ErrorTypeCircularReference
	ErrorTypeInvalidEncoding
	ErrorTypeTextLayout
	ErrorTypeInvalidPath
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity int

const (
	SeverityInfo ErrorSeverity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (e *PDFError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
	if e.Context != "" {
		msg += ": " + e.Context
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PDFError) Unwrap() error {
	return e.Err
}

// String returns a string representation of the ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeOpen:
		return "OPEN"
	case ErrorTypeSerialization:
		return "SERIALIZATION"
	case ErrorTypeMissingObject:
		return "MISSING_OBJECT"
	case ErrorTypeMalformedPage:
		return "MALFORMED_PAGE"
	case ErrorTypeMalformedAnnotation:
		return "MALFORMED_ANNOTATION"
	case ErrorTypeInvalidRect:
		return "INVALID_RECT"
	case ErrorTypeMalformedOutline:
		return "MALFORMED_OUTLINE"
	case ErrorTypeCircularReference:
		return "CIRCULAR_REFERENCE"
	case ErrorTypeInvalidEncoding:
		return "INVALID_ENCODING"
	case ErrorTypeTextLayout:
		return "TEXT_LAYOUT"
	case ErrorTypeInvalidPath:
		return "INVALID_PATH"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the type by name.
func (et ErrorType) MarshalText() ([]byte, error) {
	return []byte(et.String()), nil
}

// GetSeverity returns the severity level for a given error type
func (et ErrorType) GetSeverity() ErrorSeverity {
	switch et {
	case ErrorTypeOpen, ErrorTypeSerialization:
		return SeverityFatal
	case ErrorTypeInvalidPath:
		return SeverityError
	case ErrorTypeTextLayout:
		return SeverityInfo
	case ErrorTypeUnknown:
		return SeverityError
	default:
		return SeverityWarning
	}
}

// IsFatal reports whether an error of this type aborts the whole call.
func (et ErrorType) IsFatal() bool {
	return et.GetSeverity() == SeverityFatal
}

// NewPDFError creates a new PDFError
func NewPDFError(errorType ErrorType, message string) *PDFError {
	return &PDFError{Type: errorType, Message: message}
}

// NewPDFErrorWithContext creates a new PDFError with additional context
func NewPDFErrorWithContext(errorType ErrorType, message, context string) *PDFError {
	return &PDFError{Type: errorType, Message: message, Context: context}
}

// WrapError wraps err as a PDFError of the given type. A nil err yields nil.
func WrapError(errorType ErrorType, message string, err error) *PDFError {
	if err == nil {
		return nil
	}
	return &PDFError{Type: errorType, Message: message, Err: err}
}

// WithContext adds context to an existing PDFError
func (e *PDFError) WithContext(context string) *PDFError {
	e.Context = context
	return e
}

// WithObject records the indirect object the error is about
func (e *PDFError) WithObject(objNum, genNum int) *PDFError {
	e.ObjectNum = objNum
	e.GenNum = genNum
	return e
}

// WithFile adds file path information to an existing PDFError
func (e *PDFError) WithFile(filePath string) *PDFError {
	e.FilePath = filePath
	return e
}

// WithPage adds page number information to an existing PDFError
func (e *PDFError) WithPage(pageNumber int) *PDFError {
	e.PageNumber = pageNumber
	return e
}

// GetSeverity returns the severity of this specific error
func (e *PDFError) GetSeverity() ErrorSeverity {
	return e.Type.GetSeverity()
}

// IsType reports whether err wraps a PDFError of type et.
func IsType(err error, et ErrorType) bool {
	var pe *PDFError
	return errors.As(err, &pe) && pe.Type == et
}

// ErrorCollection gathers the skips recorded during one analysis. It is safe
// for concurrent use by page workers.
type ErrorCollection struct {
	mu       sync.Mutex
	Errors   []*PDFError `json:"errors"`
	Warnings []*PDFError `json:"warnings"`
	FilePath string      `json:"file_path,omitempty"`
}

// NewErrorCollection creates a new error collection
func NewErrorCollection(filePath string) *ErrorCollection {
	return &ErrorCollection{
		Errors:   make([]*PDFError, 0),
		Warnings: make([]*PDFError, 0),
		FilePath: filePath,
	}
}

// Add files err by severity. Nil errors are ignored.
func (ec *ErrorCollection) Add(err *PDFError) {
	if err == nil {
		return
	}
	ec.mu.Lock()
	defer ec.mu.Unlock()

	if err.FilePath == "" && ec.FilePath != "" {
		err.FilePath = ec.FilePath
	}

	severity := err.GetSeverity()
	if severity == SeverityWarning || severity == SeverityInfo {
		ec.Warnings = append(ec.Warnings, err)
	} else {
		ec.Errors = append(ec.Errors, err)
	}
}

// ByType returns every recorded entry of type et.
func (ec *ErrorCollection) ByType(et ErrorType) []*PDFError {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	var out []*PDFError
	for _, list := range [][]*PDFError{ec.Errors, ec.Warnings} {
		for _, e := range list {
			if e.Type == et {
				out = append(out, e)
			}
		}
	}
	return out
}

// Count returns the total number of errors and warnings
func (ec *ErrorCollection) Count() (errors, warnings int) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return len(ec.Errors), len(ec.Warnings)
}

// Summary returns a text summary of all errors and warnings
func (ec *ErrorCollection) Summary() string {
	errorCount, warningCount := ec.Count()
	if errorCount == 0 && warningCount == 0 {
		return "No errors or warnings"
	}
	return fmt.Sprintf("Found %d error(s) and %d warning(s)", errorCount, warningCount)
}
