package pdf

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/extraction"
	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/security"
)

const (
	serverInfoFileLimit = 100
	serverInfoScanLimit = 5 * time.Second
)

// ServiceConfig configures a Service
type ServiceConfig struct {
	// MaxFileSize bounds the size of files accepted for validation
	MaxFileSize int64

	// Directory confines every path to one directory tree. Empty means
	// paths are used as given.
	Directory string

	// CheckRemoteFiles enables filesystem lookups for remote (GoToR) links
	CheckRemoteFiles bool
}

// Service orchestrates file validation, link analysis and link checking
type Service struct {
	maxFileSize   int64
	engine        *extraction.Engine
	validator     *Validator
	search        *Search
	checker       *LinkChecker
	scorer        *RiskScorer
	pathValidator *security.PathValidator
}

// NewService creates a new PDF service around engine
func NewService(cfg ServiceConfig, engine *extraction.Engine) (*Service, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}

	var pathValidator *security.PathValidator
	if cfg.Directory != "" {
		var err error
		pathValidator, err = security.NewPathValidator(cfg.Directory)
		if err != nil {
			return nil, fmt.Errorf("failed to create path validator: %w", err)
		}
	}

	validator := NewValidator(cfg.MaxFileSize)
	return &Service{
		maxFileSize:   cfg.MaxFileSize,
		engine:        engine,
		validator:     validator,
		search:        NewSearch(validator, pathValidator),
		checker:       NewLinkChecker(cfg.CheckRemoteFiles),
		scorer:        NewRiskScorer(),
		pathValidator: pathValidator,
	}, nil
}

// resolvePath applies the sandbox, if any, and returns an absolute path.
func (s *Service) resolvePath(path string) (string, error) {
	if s.pathValidator != nil {
		abs, err := s.pathValidator.Resolve(path)
		if err != nil {
			return "", errors.WrapError(errors.ErrorTypeInvalidPath, "security validation failed", err).WithFile(path)
		}
		return abs, nil
	}

	if path == "" {
		return "", errors.NewPDFError(errors.ErrorTypeInvalidPath, "path cannot be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.WrapError(errors.ErrorTypeInvalidPath, "failed to resolve path", err).WithFile(path)
	}
	return abs, nil
}

// PDFAnalyzeLinks extracts the links and outline of a PDF file
func (s *Service) PDFAnalyzeLinks(req PDFAnalyzeLinksRequest) (*extraction.AnalysisResult, error) {
	path, err := s.resolvePath(req.Path)
	if err != nil {
		return nil, err
	}
	return s.engine.Analyze(path)
}

// PDFValidateLinks analyzes a PDF file, checks every link and TOC target and
// rates the external links
func (s *Service) PDFValidateLinks(req PDFValidateLinksRequest) (*LinkCheckSummary, error) {
	path, err := s.resolvePath(req.Path)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.Analyze(path)
	if err != nil {
		return nil, err
	}
	return s.CheckLinks(path, result), nil
}

// CheckLinks classifies and risk scores the links of an existing analysis
// of pdfPath
func (s *Service) CheckLinks(pdfPath string, result *extraction.AnalysisResult) *LinkCheckSummary {
	summary := s.checker.Check(pdfPath, result)
	summary.Risk = s.scorer.Score(result.Links)
	return summary
}

// PDFValidateFile performs validation on a PDF file
func (s *Service) PDFValidateFile(req PDFValidateFileRequest) (*PDFValidateFileResult, error) {
	path, err := s.resolvePath(req.Path)
	if err != nil {
		return nil, err
	}
	result, err := s.validator.ValidateFile(PDFValidateFileRequest{Path: path})
	if err != nil {
		return nil, err
	}
	result.Path = req.Path
	return result, nil
}

// FindPDFs lists PDF files under directory, or under the configured
// directory when directory is empty.
func (s *Service) FindPDFs(ctx context.Context, directory string, limit int) ([]FileInfo, error) {
	if directory == "" {
		if s.pathValidator == nil {
			return nil, fmt.Errorf("directory cannot be empty")
		}
		directory = s.pathValidator.GetConfiguredDirectory()
	}
	if s.pathValidator != nil {
		if err := s.pathValidator.ValidateDirectory(directory); err != nil {
			return nil, fmt.Errorf("security validation failed: %w", err)
		}
	}
	return s.search.FindPDFsInDirectoryLimited(ctx, directory, limit)
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// Engine returns the analysis engine
func (s *Service) Engine() *extraction.Engine {
	return s.engine
}

// IsValidPDF performs a quick validation check on a file
func (s *Service) IsValidPDF(filePath string) bool {
	return s.validator.IsValidPDF(filePath)
}

// PDFServerInfo returns server information and usage guidance. The
// directory listing is capped and abandoned when the scan takes too long.
func (s *Service) PDFServerInfo(ctx context.Context, serverName, version string) (*PDFServerInfoResult, error) {
	directory := ""
	directoryContents := []FileInfo{}
	if s.pathValidator != nil {
		directory = s.pathValidator.GetConfiguredDirectory()

		scanCtx, cancel := context.WithTimeout(ctx, serverInfoScanLimit)
		files, err := s.FindPDFs(scanCtx, directory, serverInfoFileLimit)
		cancel()
		if err == nil {
			directoryContents = files
		}
	}

	config := s.engine.Config()
	return &PDFServerInfoResult{
		ServerName:        serverName,
		Version:           version,
		DefaultDirectory:  directory,
		MaxFileSize:       s.maxFileSize,
		Tolerance:         config.Tolerance,
		MatchText:         config.MatchText,
		AvailableTools:    availableTools(),
		DirectoryContents: directoryContents,
		UsageGuidance:     s.usageGuidance(),
	}, nil
}

func availableTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        "pdf_analyze_links",
			Description: "Extract every hyperlink and the table of contents from a PDF file",
			Usage: "Use this tool to list link annotations with their page, rectangle, anchor text, " +
				"type and target, plus the outline tree with resolved page numbers.",
			Parameters: "path (required): Path to the PDF file",
		},
		{
			Name:        "pdf_validate_links",
			Description: "Check that links and TOC entries point at existing targets",
			Usage: "Use this tool to find broken internal jumps, missing remote files and " +
				"unresolvable TOC entries. Web links are listed but never fetched.",
			Parameters: "path (required): Path to the PDF file",
		},
		{
			Name:        "pdf_validate_file",
			Description: "Check that a file is a readable PDF",
			Usage:       "Use this tool before analyzing files of unknown origin or after an analysis fails to open a file.",
			Parameters:  "path (required): Path to the PDF file",
		},
		{
			Name:        "pdf_server_info",
			Description: "Get server information, configuration and available PDF files",
			Usage:       "Use this tool first to discover the sandbox directory and the PDFs it contains.",
			Parameters:  "none",
		},
	}
}

func (s *Service) usageGuidance() string {
	return `PDF Link Check Server Usage Guide:

1. DISCOVER FILES:
   - Use 'pdf_server_info' to see the configured directory and its PDF files

2. EXTRACT LINKS:
   - Use 'pdf_analyze_links' to get every link annotation and the TOC
   - Link types: "External (URI)", "Internal (GoTo/Dest)", "Internal (GoTo)",
     "Remote (GoToR)" and "Other Action" (target "Unknown")
   - link_text is "Graphic/Empty Link" when no text lies under the link

3. CHECK TARGETS:
   - Use 'pdf_validate_links' for a summary of valid, broken, file-found,
     unknown-web and unknown-other items with the issues found

IMPORTANT NOTES:
- Paths must lie inside the configured directory; relative paths are resolved against it
- The server can handle files up to ` + fmt.Sprintf("%d", s.maxFileSize/(1024*1024)) + `MB
- External URLs are never fetched`
}

// ValidateConfiguration validates the service configuration
func (s *Service) ValidateConfiguration() error {
	if s.maxFileSize <= 0 {
		return fmt.Errorf("maxFileSize must be greater than 0")
	}

	if s.maxFileSize > 1024*1024*1024 { // 1GB limit
		return fmt.Errorf("maxFileSize cannot exceed 1GB")
	}

	return nil
}
