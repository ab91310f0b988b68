package pdf

// FileInfo represents information about a PDF file
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// Request Types

// PDFAnalyzeLinksRequest represents a request to extract links and outline
type PDFAnalyzeLinksRequest struct {
	Path string `json:"path"`
}

// PDFValidateLinksRequest represents a request to check every link target
type PDFValidateLinksRequest struct {
	Path string `json:"path"`
}

// PDFValidateFileRequest represents a request to validate a PDF file
type PDFValidateFileRequest struct {
	Path string `json:"path"`
}

// Response Types

// PDFValidateFileResult represents the result of a PDF validation operation
type PDFValidateFileResult struct {
	Valid   bool   `json:"valid"`
	Path    string `json:"path"`
	Pages   int    `json:"pages,omitempty"`
	Message string `json:"message,omitempty"`
}

// LinkStatus is the outcome of checking one link or TOC entry
type LinkStatus string

const (
	StatusValid        LinkStatus = "valid"
	StatusBroken       LinkStatus = "broken"
	StatusFileFound    LinkStatus = "file-found"
	StatusUnknownWeb   LinkStatus = "unknown-web"
	StatusUnknownOther LinkStatus = "unknown-other"
)

// Statuses lists every status in report order.
var Statuses = []LinkStatus{StatusValid, StatusFileFound, StatusBroken, StatusUnknownWeb, StatusUnknownOther}

// TOCEntryType is the type reported for outline entries in link checks.
const TOCEntryType = "TOC Entry"

// LinkCheck is the verdict for one link or TOC entry
type LinkCheck struct {
	Type   string     `json:"type" yaml:"type"`
	Page   int        `json:"page,omitempty" yaml:"page,omitempty"`
	Text   string     `json:"text" yaml:"text"`
	Target string     `json:"target" yaml:"target"`
	Level  int        `json:"level,omitempty" yaml:"level,omitempty"`
	Status LinkStatus `json:"status" yaml:"status"`
	Reason string     `json:"reason" yaml:"reason"`
}

// LinkCheckSummary aggregates the checks of one document. Issues holds the
// broken links plus every TOC entry that is not valid, in document order.
type LinkCheckSummary struct {
	Path         string             `json:"path" yaml:"path"`
	TotalPages   int                `json:"total_pages" yaml:"total_pages"`
	TotalChecked int                `json:"total_checked" yaml:"total_checked"`
	Counts       map[LinkStatus]int `json:"counts" yaml:"counts"`
	Issues       []LinkCheck        `json:"issues" yaml:"issues"`

	// Risk rates the external links; nil when no scoring ran
	Risk *RiskReport `json:"risk,omitempty" yaml:"risk,omitempty"`
}

// Count returns the number of checks with the given status.
func (s *LinkCheckSummary) Count(status LinkStatus) int {
	return s.Counts[status]
}

// PDFServerInfoResult represents server information and usage guidance
type PDFServerInfoResult struct {
	ServerName        string     `json:"server_name"`
	Version           string     `json:"version"`
	DefaultDirectory  string     `json:"default_directory"`
	MaxFileSize       int64      `json:"max_file_size"`
	Tolerance         float64    `json:"tolerance"`
	MatchText         bool       `json:"match_text"`
	AvailableTools    []ToolInfo `json:"available_tools"`
	DirectoryContents []FileInfo `json:"directory_contents"`
	UsageGuidance     string     `json:"usage_guidance"`
}

// ToolInfo represents information about an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}
