package wrapper

import (
	"errors"
	"fmt"
)

// ObjectGraph exposes the decoded object graph of a single document
type ObjectGraph interface {
	// Resolve follows references until a direct object is reached. Direct
	// objects are returned unchanged. A reference to a missing object yields
	// ErrDanglingReference.
	Resolve(obj Object) (Object, error)

	// Pages returns every page in document order.
	Pages() ([]PageHandle, error)

	// Catalog returns the document catalog dictionary.
	Catalog() (Dict, error)

	Close() error
}

// TextLayout produces positioned text runs for the pages of a document
type TextLayout interface {
	// PageSpans returns the text runs of a 1-based page in layout order.
	PageSpans(page int) ([]TextSpan, error)

	Close() error
}

// PageHandle identifies one page of the document.
type PageHandle struct {
	Number int      `json:"number"` // 1-based position in document order
	ID     ObjectID `json:"id"`
}

// Rect is an axis-aligned box in page space.
type Rect struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Union returns the smallest rectangle containing r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		MinX: min(r.MinX, o.MinX),
		MinY: min(r.MinY, o.MinY),
		MaxX: max(r.MaxX, o.MaxX),
		MaxY: max(r.MaxY, o.MaxY),
	}
}

// TextSpan is a run of text placed on a page. Box is nil when the layout
// engine could not place the run.
type TextSpan struct {
	Text string `json:"text"`
	Box  *Rect  `json:"box,omitempty"`
}

// LibraryType names the library backing an adapter
type LibraryType string

const (
	LibraryPDFCPU     LibraryType = "pdfcpu"
	LibraryLedongthuc LibraryType = "ledongthuc"
	LibraryMemory     LibraryType = "memory"
	LibraryNone       LibraryType = "none"
)

// WrapperError reports a failure inside one of the adapters
type WrapperError struct {
	Library LibraryType `json:"library"`
	Op      string      `json:"operation"`
	Err     error       `json:"error"`
}

func (e *WrapperError) Error() string {
	return fmt.Sprintf("PDF %s library error in %s: %v", e.Library, e.Op, e.Err)
}

func (e *WrapperError) Unwrap() error {
	return e.Err
}

var (
	ErrDanglingReference = errors.New("dangling reference")
	ErrReferenceLoop     = errors.New("reference chain too long")
	ErrInvalidPage       = errors.New("invalid page number")
	ErrClosed            = errors.New("document is closed")
)

// maxReferenceHops bounds Resolve when references point at references.
const maxReferenceHops = 32
