package pdf

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/extraction"
)

// LinkChecker classifies extracted links and TOC entries without network
// access. Remote targets are looked up relative to the analyzed PDF.
type LinkChecker struct {
	checkRemoteFiles bool
}

// NewLinkChecker creates a checker. When checkRemoteFiles is false, remote
// links are reported as unknown instead of touching the filesystem.
func NewLinkChecker(checkRemoteFiles bool) *LinkChecker {
	return &LinkChecker{checkRemoteFiles: checkRemoteFiles}
}

// Check classifies every link and TOC entry of result. pdfPath locates
// remote files; result.PageCount bounds internal targets.
func (c *LinkChecker) Check(pdfPath string, result *extraction.AnalysisResult) *LinkCheckSummary {
	summary := &LinkCheckSummary{
		Path:       pdfPath,
		TotalPages: result.PageCount,
		Counts:     make(map[LinkStatus]int, len(Statuses)),
		Issues:     make([]LinkCheck, 0),
	}
	for _, status := range Statuses {
		summary.Counts[status] = 0
	}

	baseDir := filepath.Dir(pdfPath)

	for _, link := range result.Links {
		check := c.checkLink(baseDir, result.PageCount, link)
		summary.Counts[check.Status]++
		if check.Status == StatusBroken {
			summary.Issues = append(summary.Issues, check)
		}
	}

	for _, entry := range result.TOC {
		check := checkTOCEntry(result.PageCount, entry)
		summary.Counts[check.Status]++
		if check.Status != StatusValid {
			summary.Issues = append(summary.Issues, check)
		}
	}

	summary.TotalChecked = len(result.Links) + len(result.TOC)
	return summary
}

func (c *LinkChecker) checkLink(baseDir string, totalPages int, link extraction.LinkRecord) LinkCheck {
	check := LinkCheck{
		Type:   string(link.Type),
		Page:   link.Page,
		Text:   link.LinkText,
		Target: link.Target,
	}

	switch link.Type {
	case extraction.LinkTypeDest, extraction.LinkTypeGoTo:
		check.Status, check.Reason = checkPage(link.DestinationPage, totalPages)

	case extraction.LinkTypeRemote:
		check.Status, check.Reason = c.checkRemote(baseDir, link.RemoteFile)

	case extraction.LinkTypeURI:
		check.Status = StatusUnknownWeb
		check.Reason = "External link (no network check)"

	default:
		switch link.ActionKind {
		case "Dest", "GoTo":
			check.Status = StatusBroken
			check.Reason = "Destination could not be resolved"
		case "GoToR":
			check.Status = StatusBroken
			check.Reason = "Missing remote file name"
		default:
			check.Status = StatusUnknownOther
			check.Reason = "Other/unsupported link type"
		}
	}
	return check
}

func (c *LinkChecker) checkRemote(baseDir, name string) (LinkStatus, string) {
	if name == "" {
		return StatusBroken, "Missing remote file name"
	}
	if !c.checkRemoteFiles {
		return StatusUnknownOther, "Remote file check disabled"
	}

	target := name
	if !filepath.IsAbs(target) {
		target = filepath.Join(baseDir, target)
	}
	info, err := os.Stat(target)
	if err != nil || !info.Mode().IsRegular() {
		return StatusBroken, fmt.Sprintf("File not found: %s", name)
	}
	return StatusFileFound, fmt.Sprintf("Found: %s", filepath.Base(target))
}

func checkTOCEntry(totalPages int, entry extraction.TocEntry) LinkCheck {
	check := LinkCheck{
		Type:  TOCEntryType,
		Text:  entry.Title,
		Level: entry.Level,
	}

	if entry.TargetPage == nil {
		check.Target = extraction.UnknownTarget
		check.Status = StatusUnknownOther
		check.Reason = "Named or unsupported destination"
		return check
	}

	check.Target = fmt.Sprintf("Page %d", *entry.TargetPage)
	check.Status, check.Reason = checkPage(*entry.TargetPage, totalPages)
	return check
}

func checkPage(page, totalPages int) (LinkStatus, string) {
	switch {
	case page < 1:
		return StatusBroken, fmt.Sprintf("Page %d is not a valid page number", page)
	case page > totalPages:
		return StatusBroken, fmt.Sprintf("Page %d out of range (1-%d)", page, totalPages)
	default:
		return StatusValid, fmt.Sprintf("Page %d within range (1-%d)", page, totalPages)
	}
}
