package extraction

import (
	"fmt"
	"log/slog"

	"github.com/sourcegraph/conc/iter"

	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/wrapper"
)

// Engine extracts links and the outline from documents. An Engine holds no
// per-document state and may analyze several documents concurrently.
type Engine struct {
	config  Config
	factory wrapper.FactoryConfig
	logger  *slog.Logger
}

// NewEngine creates an engine. A nil logger uses slog.Default.
func NewEngine(config Config, factory wrapper.FactoryConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Tolerance < 0 {
		config.Tolerance = 0
	}
	if config.Workers < 1 {
		config.Workers = 1
	}
	if !config.MatchText {
		factory.TextLayout = wrapper.LibraryNone
	}
	if factory.Logger == nil {
		factory.Logger = logger
	}
	return &Engine{config: config, factory: factory, logger: logger}
}

// Config returns the effective engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Analyze opens the document at path and extracts its links and outline.
// Structural problems are skipped and kept in the result's Diagnostics; the
// only error returned is an ErrorTypeOpen PDFError.
func (e *Engine) Analyze(path string) (*AnalysisResult, error) {
	doc, err := wrapper.OpenDocument(path, e.factory)
	if err != nil {
		return nil, errors.WrapError(errors.ErrorTypeOpen, "failed to open document", err).WithFile(path)
	}
	defer doc.Close()

	result, err := e.AnalyzeDocument(doc)
	if err != nil {
		return nil, err
	}
	if doc.LayoutErr != nil {
		result.Diagnostics.Add(errors.WrapError(errors.ErrorTypeTextLayout, "text layout unavailable", doc.LayoutErr))
	}
	return result, nil
}

// AnalyzeDocument runs the extraction over already opened adapters.
func (e *Engine) AnalyzeDocument(doc *wrapper.Document) (*AnalysisResult, error) {
	pages, err := doc.Graph.Pages()
	if err != nil {
		return nil, errors.WrapError(errors.ErrorTypeOpen, "failed to enumerate pages", err).WithFile(doc.Path)
	}

	index := NewPageIndex(pages)
	diagnostics := errors.NewErrorCollection(doc.Path)

	links := e.walkLinks(doc, pages, index, diagnostics)
	toc := e.walkOutline(doc, index, diagnostics)

	errCount, warnCount := diagnostics.Count()
	e.logger.Debug("analysis complete",
		"path", doc.Path,
		"pages", len(pages),
		"links", len(links),
		"toc", len(toc),
		"errors", errCount,
		"warnings", warnCount)

	return &AnalysisResult{
		Links:       links,
		TOC:         toc,
		PageCount:   len(pages),
		Diagnostics: diagnostics,
	}, nil
}

// walkLinks fans pages out to at most Workers goroutines. Results come back
// indexed by page so the output order never depends on scheduling.
func (e *Engine) walkLinks(doc *wrapper.Document, pages []wrapper.PageHandle, index PageIndex, diagnostics *errors.ErrorCollection) []LinkRecord {
	walker := &annotationWalker{
		graph:     doc.Graph,
		layout:    doc.Layout,
		index:     index,
		tolerance: e.config.Tolerance,
		matchText: e.config.MatchText,
	}

	mapper := iter.Mapper[wrapper.PageHandle, pageLinks]{MaxGoroutines: e.config.Workers}
	perPage := mapper.Map(pages, func(page *wrapper.PageHandle) pageLinks {
		return walker.walkPage(*page)
	})

	links := make([]LinkRecord, 0)
	for _, p := range perPage {
		links = append(links, p.links...)
		for _, skip := range p.skips {
			e.logSkip(skip)
			diagnostics.Add(skip)
		}
	}
	return links
}

func (e *Engine) walkOutline(doc *wrapper.Document, index PageIndex, diagnostics *errors.ErrorCollection) []TocEntry {
	catalog, err := doc.Graph.Catalog()
	if err != nil {
		skip := errors.WrapError(errors.ErrorTypeMalformedOutline, "catalog", err)
		e.logSkip(skip)
		diagnostics.Add(skip)
		return make([]TocEntry, 0)
	}

	walker := &outlineWalker{graph: doc.Graph, index: index, maxNodes: e.config.MaxOutlineNodes}
	toc, skips := walker.walk(catalog)
	for _, skip := range skips {
		e.logSkip(skip)
		diagnostics.Add(skip)
	}
	return toc
}

func (e *Engine) logSkip(skip *errors.PDFError) {
	e.logger.Debug("skipped",
		"type", skip.Type.String(),
		"page", skip.PageNumber,
		"object", skip.ObjectNum,
		"detail", skip.Error())
}

// Analyze runs a default engine over path.
func Analyze(path string) (*AnalysisResult, error) {
	return NewEngine(DefaultConfig(), wrapper.DefaultFactoryConfig(), nil).Analyze(path)
}

// String summarizes the result for logs.
func (r *AnalysisResult) String() string {
	return fmt.Sprintf("%d link(s), %d TOC entries, %d page(s)", len(r.Links), len(r.TOC), r.PageCount)
}
