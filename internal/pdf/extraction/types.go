package extraction

import (
	"runtime"

	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/errors"
)

// LinkType classifies the action governing a link annotation
type LinkType string

const (
	LinkTypeURI    LinkType = "External (URI)"
	LinkTypeRemote LinkType = "Remote (GoToR)"
	LinkTypeDest   LinkType = "Internal (GoTo/Dest)"
	LinkTypeGoTo   LinkType = "Internal (GoTo)"
	LinkTypeOther  LinkType = "Other Action"
)

const (
	// UnknownTarget is the target of every LinkTypeOther record
	UnknownTarget = "Unknown"

	// EmptyLinkText marks a link whose rectangle covers no text
	EmptyLinkText = "Graphic/Empty Link"

	DefaultTolerance       = 10.0
	DefaultMaxOutlineNodes = 100000
)

// IsInternal reports whether the link jumps inside the same document.
func (t LinkType) IsInternal() bool {
	return t == LinkTypeDest || t == LinkTypeGoTo
}

// LinkRecord is one link annotation with its classified target and anchor text
type LinkRecord struct {
	Page            int        `json:"page" yaml:"page"`
	Rect            [4]float64 `json:"rect" yaml:"rect"`
	LinkText        string     `json:"link_text" yaml:"link_text"`
	Type            LinkType   `json:"type" yaml:"type"`
	Target          string     `json:"target" yaml:"target"`
	URL             string     `json:"url,omitempty" yaml:"url,omitempty"`
	DestinationPage int        `json:"destination_page,omitempty" yaml:"destination_page,omitempty"`
	RemoteFile      string     `json:"remote_file,omitempty" yaml:"remote_file,omitempty"`
	RemotePage      int        `json:"remote_page,omitempty" yaml:"remote_page,omitempty"`
	ActionKind      string     `json:"action_kind,omitempty" yaml:"action_kind,omitempty"`
	XRef            int        `json:"xref,omitempty" yaml:"xref,omitempty"`
}

// TocEntry is one outline node. TargetPage is nil when the destination could
// not be resolved.
type TocEntry struct {
	Level      int    `json:"level" yaml:"level"`
	Title      string `json:"title" yaml:"title"`
	TargetPage *int   `json:"target_page" yaml:"target_page"`
}

// AnalysisResult is the output of one analysis
type AnalysisResult struct {
	Links []LinkRecord `json:"links" yaml:"links"`
	TOC   []TocEntry   `json:"toc" yaml:"toc"`

	// PageCount is the number of pages in the analyzed document.
	PageCount int `json:"-" yaml:"-"`

	// Diagnostics holds every structural skip, in page order followed by
	// outline order.
	Diagnostics *errors.ErrorCollection `json:"-" yaml:"-"`
}

// Config controls the engine
type Config struct {
	// Tolerance expands link rectangles when matching text spans
	Tolerance float64 `json:"tolerance"`

	// Workers bounds concurrent page processing; values below 1 mean one
	Workers int `json:"workers"`

	// MatchText disables anchor text lookup when false
	MatchText bool `json:"match_text"`

	// MaxOutlineNodes caps the number of outline nodes visited
	MaxOutlineNodes int `json:"max_outline_nodes"`
}

// DefaultConfig returns the default engine configuration
func DefaultConfig() Config {
	return Config{
		Tolerance:       DefaultTolerance,
		Workers:         runtime.NumCPU(),
		MatchText:       true,
		MaxOutlineNodes: DefaultMaxOutlineNodes,
	}
}
