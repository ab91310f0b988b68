package descriptions

// Tool descriptions shown to MCP clients

const (
	PDFAnalyzeLinksDescription = `Extract every hyperlink and the table of contents from a PDF document.

**When to use:** Need to know where a PDF links to, which text each link sits under, or what its bookmark tree looks like.

**What you get:** JSON with two arrays.
• links: one entry per link annotation in page order, with page, rect [x0,y0,x1,y1], link_text, type, target and, depending on type, url, destination_page, remote_file, remote_page, action_kind and xref.
• toc: outline entries in reading order with level (1 = top), title and target_page (null when the destination is named or unsupported).

**Link types:** "External (URI)", "Internal (GoTo/Dest)", "Internal (GoTo)", "Remote (GoToR)", "Other Action" (target "Unknown").

**Examples:**
• Audit outgoing URLs: "List all web links in whitepaper.pdf"
• Check navigation: "Which pages does the TOC of manual.pdf point to?"

**Notes:** link_text is "Graphic/Empty Link" when no text lies under the link rectangle. Malformed annotations and outline nodes are skipped, never fatal.`

	PDFValidateLinksDescription = `Check that the links and TOC entries of a PDF point at existing targets.

**When to use:** Before publishing a document, or to find out why a link in a PDF goes nowhere.

**Statuses:**
• valid: internal jump or TOC entry to a page that exists
• broken: page out of range, unresolvable destination, or missing remote file
• file-found: remote (GoToR) target file exists next to the PDF
• unknown-web: external URL (never fetched)
• unknown-other: unsupported action or named TOC destination

**Examples:**
• "Are there broken links in thesis.pdf?"
• "Check that the appendix files referenced by report.pdf exist"

**Risk:** External URLs also get an offline risk score (low, medium, high) from raw IP hosts, suspicious TLDs, non-standard ports, long URLs, tracking parameters, anchor text naming another host and homoglyphs.

**Notes:** No network access is made. The first 25 issues are listed.`

	PDFValidateFileDescription = `Verify that a file is a readable PDF before analyzing it.

**When to use:** When handling files of unknown origin, or when an analysis fails and you need to know why.

**Checks:** existence, .pdf extension, non-empty, size limit, and that the header and cross-reference table parse.`

	PDFServerInfoDescription = `Get server configuration, available tools and the PDF files in the configured directory.

**When to use:** At the start of a session to discover which files can be analyzed and how the server is configured (size limit, text matching tolerance).`
)
