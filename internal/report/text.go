package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf"
	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/extraction"
)

const (
	ruleWidth       = 70
	anchorWidth     = 40
	issueTextWidth  = 30
	maxListedIssues = 25
)

var (
	heavyRule = strings.Repeat("=", ruleWidth)
	lightRule = strings.Repeat("-", ruleWidth)
)

// Text writes the console report for result. name labels the document;
// maxLinks > 0 caps the rows of each link table.
func Text(w io.Writer, name string, result *extraction.AnalysisResult, maxLinks int) error {
	var internal, external []extraction.LinkRecord
	uriCount := 0
	for _, link := range result.Links {
		if link.Type.IsInternal() {
			internal = append(internal, link)
			continue
		}
		if link.Type == extraction.LinkTypeURI {
			uriCount++
		}
		external = append(external, link)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", heavyRule)
	fmt.Fprintf(&b, "--- Link Analysis Results for %s ---\n", name)
	fmt.Fprintf(&b, "Total active links: %d (External: %d, Internal Jumps: %d, Other: %d)\n",
		len(result.Links), uriCount, len(internal), len(external)-uriCount)
	fmt.Fprintf(&b, "Total structural TOC entries (bookmarks) found: %d\n", len(result.TOC))
	fmt.Fprintf(&b, "%s\n", heavyRule)

	writeTOC(&b, result.TOC)

	fmt.Fprintf(&b, "\n%s\n", heavyRule)
	fmt.Fprintf(&b, "## Active Internal Jumps (GoTo & Dest) - %d found\n", len(internal))
	fmt.Fprintf(&b, "%s\n", heavyRule)
	fmt.Fprintf(&b, "%-5s | %-5s | %-40s | %s\n", "Idx", "Page", "Anchor Text", "Jumps To Page")
	fmt.Fprintf(&b, "%s\n", lightRule)
	if len(internal) == 0 {
		b.WriteString(" No internal GoTo or Dest links found.\n")
	}
	for i, link := range limit(internal, maxLinks) {
		fmt.Fprintf(&b, "%-5d | %-5d | %-40s | %d\n", i+1, link.Page, truncate(link.LinkText, anchorWidth), link.DestinationPage)
	}
	writeMore(&b, len(internal), maxLinks)

	fmt.Fprintf(&b, "\n%s\n", heavyRule)
	fmt.Fprintf(&b, "## Active URI Links (External & Other) - %d found\n", len(external))
	fmt.Fprintf(&b, "%-5s | %-5s | %-40s | %s\n", "Idx", "Page", "Anchor Text", "Target URI/Action")
	fmt.Fprintf(&b, "%s\n", heavyRule)
	if len(external) == 0 {
		b.WriteString(" No external or 'Other' links found.\n")
	}
	for i, link := range limit(external, maxLinks) {
		target := link.Target
		switch {
		case link.URL != "":
			target = link.URL
		case link.RemoteFile != "":
			target = link.RemoteFile
		}
		fmt.Fprintf(&b, "%-5d | %-5d | %-40s | %s\n", i+1, link.Page, truncate(link.LinkText, anchorWidth), target)
	}
	writeMore(&b, len(external), maxLinks)

	_, err := io.WriteString(w, b.String())
	return err
}

// writeTOC indents four spaces per level below the first.
func writeTOC(b *strings.Builder, toc []extraction.TocEntry) {
	fmt.Fprintf(b, "\n%s\n", heavyRule)
	b.WriteString("## Structural Table of Contents (PDF Bookmarks/Outline)\n")
	fmt.Fprintf(b, "%s\n", heavyRule)
	if len(toc) == 0 {
		b.WriteString("No structural TOC (bookmarks/outline) found.\n")
		return
	}

	pageWidth := 1
	for _, entry := range toc {
		if entry.TargetPage != nil {
			pageWidth = max(pageWidth, len(strconv.Itoa(*entry.TargetPage)))
		}
	}

	for _, entry := range toc {
		page := "?"
		if entry.TargetPage != nil {
			page = strconv.Itoa(*entry.TargetPage)
		}
		indent := strings.Repeat(" ", 4*max(entry.Level-1, 0))
		fmt.Fprintf(b, "%s%s . . . page %*s\n", indent, entry.Title, pageWidth, page)
	}
	fmt.Fprintf(b, "%s\n", lightRule)
}

func writeMore(b *strings.Builder, total, maxLinks int) {
	if maxLinks > 0 && total > maxLinks {
		fmt.Fprintf(b, "... and %d more links (use --max-links 0 to show all).\n", total-maxLinks)
	}
}

func limit(links []extraction.LinkRecord, maxLinks int) []extraction.LinkRecord {
	if maxLinks > 0 && len(links) > maxLinks {
		return links[:maxLinks]
	}
	return links
}

// truncate cuts s to n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Validation writes the console report for a link check, listing at most
// the first 25 issues.
func Validation(w io.Writer, summary *pdf.LinkCheckSummary) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", heavyRule)
	b.WriteString("## Validation Results\n")
	fmt.Fprintf(&b, "%s\n", heavyRule)
	fmt.Fprintf(&b, "Total items checked: %d\n", summary.TotalChecked)
	fmt.Fprintf(&b, "Total pages:         %d\n", summary.TotalPages)
	fmt.Fprintf(&b, "Valid:               %d\n", summary.Count(pdf.StatusValid))
	fmt.Fprintf(&b, "File found:          %d\n", summary.Count(pdf.StatusFileFound))
	fmt.Fprintf(&b, "Broken:              %d\n", summary.Count(pdf.StatusBroken))
	fmt.Fprintf(&b, "Unknown web:         %d\n", summary.Count(pdf.StatusUnknownWeb))
	fmt.Fprintf(&b, "Unknown other:       %d\n", summary.Count(pdf.StatusUnknownOther))
	fmt.Fprintf(&b, "%s\n", heavyRule)

	if len(summary.Issues) == 0 {
		b.WriteString("\nNo issues found.\n")
	} else {
		b.WriteString("\n## Issues Found\n")
		fmt.Fprintf(&b, "%-5s | %-20s | %-30s | %s\n", "Idx", "Type", "Text", "Problem")
		fmt.Fprintf(&b, "%s\n", lightRule)
		for i, issue := range summary.Issues {
			if i == maxListedIssues {
				fmt.Fprintf(&b, "... and %d more issues\n", len(summary.Issues)-maxListedIssues)
				break
			}
			text := issue.Text
			if text == "" {
				text = "N/A"
			}
			fmt.Fprintf(&b, "%-5d | %-20s | %-30s | %s\n", i+1, issue.Type, truncate(text, issueTextWidth), issue.Reason)
		}
	}

	if summary.Risk != nil {
		writeRisk(&b, summary.Risk)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// writeRisk lists the medium and high risk links under the level counts.
func writeRisk(b *strings.Builder, risk *pdf.RiskReport) {
	fmt.Fprintf(b, "\n%s\n", heavyRule)
	b.WriteString("## Link Risk (offline heuristics)\n")
	fmt.Fprintf(b, "%s\n", heavyRule)
	fmt.Fprintf(b, "External links:      %d (scored %d)\n", risk.Summary.TotalExternal, risk.Summary.Scored)
	fmt.Fprintf(b, "High risk:           %d\n", risk.Summary.HighRisk)
	fmt.Fprintf(b, "Medium risk:         %d\n", risk.Summary.MediumRisk)
	fmt.Fprintf(b, "Low risk:            %d\n", risk.Summary.LowRisk)

	listed := 0
	for _, d := range risk.Details {
		if d.Level == pdf.RiskLow {
			continue
		}
		if listed == 0 {
			fmt.Fprintf(b, "\n%-5s | %-6s | %-5s | %-40s | %s\n", "Page", "Level", "Score", "URL", "Rules")
			fmt.Fprintf(b, "%s\n", lightRule)
		}
		if listed == maxListedIssues {
			b.WriteString("... more risky links omitted\n")
			break
		}
		rules := make([]string, len(d.Reasons))
		for i, r := range d.Reasons {
			rules[i] = r.RuleID
		}
		fmt.Fprintf(b, "%-5d | %-6s | %-5d | %-40s | %s\n", d.Page, d.Level, d.Score, truncate(d.URL, anchorWidth), strings.Join(rules, ", "))
		listed++
	}
}
