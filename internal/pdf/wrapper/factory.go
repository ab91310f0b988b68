package wrapper

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// FactoryConfig contains configuration options for opening documents
type FactoryConfig struct {
	// MaxFileSize rejects larger files before parsing (bytes, 0 disables)
	MaxFileSize int64 `json:"max_file_size"`

	// DebugMode logs adapter selection and fallbacks
	DebugMode bool `json:"debug_mode"`

	// TextLayout selects the layout adapter: LibraryLedongthuc or LibraryNone
	TextLayout LibraryType `json:"text_layout"`

	// Logger receives DebugMode output; nil uses slog.Default
	Logger *slog.Logger `json:"-"`
}

func (c FactoryConfig) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// DefaultFactoryConfig returns the configuration used by the CLI
func DefaultFactoryConfig() FactoryConfig {
	return FactoryConfig{
		MaxFileSize: 100 * 1024 * 1024, // 100MB
		TextLayout:  LibraryLedongthuc,
	}
}

// Document couples the object graph and the text layout of one file.
type Document struct {
	Path   string
	Graph  ObjectGraph
	Layout TextLayout

	// LayoutErr is set when the layout adapter could not be opened and the
	// document fell back to NoLayout.
	LayoutErr error
}

// ErrFileTooLarge is returned by OpenDocument when MaxFileSize is exceeded.
var ErrFileTooLarge = errors.New("file too large")

// OpenDocument opens path with pdfcpu for the object graph and, unless
// disabled, ledongthuc/pdf for text layout. A failing layout adapter is not
// fatal.
func OpenDocument(path string, config FactoryConfig) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &WrapperError{Library: LibraryPDFCPU, Op: "open_file", Err: err}
	}
	if info.IsDir() {
		return nil, &WrapperError{Library: LibraryPDFCPU, Op: "open_file", Err: fmt.Errorf("%s is a directory", path)}
	}
	if config.MaxFileSize > 0 && info.Size() > config.MaxFileSize {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "open_file",
			Err:     fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, info.Size(), config.MaxFileSize),
		}
	}

	graph, err := OpenPDFCPUGraph(path)
	if err != nil {
		return nil, err
	}

	doc := &Document{Path: path, Graph: graph, Layout: NoLayout{}}

	switch config.TextLayout {
	case LibraryNone:
	case LibraryLedongthuc, "":
		layout, err := OpenLedongthucLayout(path)
		if err != nil {
			doc.LayoutErr = err
			if config.DebugMode {
				config.logger().Debug("text layout unavailable, continuing without text", "path", path, "error", err)
			}
			break
		}
		doc.Layout = layout
		if config.DebugMode {
			config.logger().Debug("opened document", "path", path, "text_layout", LibraryLedongthuc)
		}
	default:
		graph.Close()
		return nil, &WrapperError{
			Library: config.TextLayout,
			Op:      "open_file",
			Err:     fmt.Errorf("unknown text layout library: %s", config.TextLayout),
		}
	}

	return doc, nil
}

// NewDocument wraps already opened adapters, typically the in-memory ones.
func NewDocument(path string, graph ObjectGraph, layout TextLayout) *Document {
	if layout == nil {
		layout = NoLayout{}
	}
	return &Document{Path: path, Graph: graph, Layout: layout}
}

// Close releases both adapters.
func (d *Document) Close() error {
	var errs []error
	if d.Layout != nil {
		errs = append(errs, d.Layout.Close())
	}
	if d.Graph != nil {
		errs = append(errs, d.Graph.Close())
	}
	return errors.Join(errs...)
}
