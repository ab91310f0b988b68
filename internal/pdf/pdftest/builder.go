// Package pdftest writes small, well formed PDF files for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Build serializes objects as a classic PDF with a cross-reference table.
// objects[i] is the body of object i+1; object 1 must be the catalog.
func Build(objects ...string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n%\xE2\xE3\xCF\xD3\n")

	offsets := make([]int, len(objects))
	for i, body := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// Write builds the objects into dir/name and returns the file path.
func Write(t testing.TB, dir, name string, objects ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Build(objects...), 0o644); err != nil {
		t.Fatalf("failed to write test PDF: %v", err)
	}
	return path
}

// LinkDocument writes a two page document with a URI link, an internal jump
// to page 2, a remote link to "other.pdf" and a one entry outline.
func LinkDocument(t testing.TB, dir, name string) string {
	t.Helper()
	return Write(t, dir, name,
		"<< /Type /Catalog /Pages 2 0 R /Outlines 6 0 R >>",
		"<< /Type /Pages /Kids [3 0 R 4 0 R] /Count 2 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Annots [5 0 R 8 0 R 9 0 R] >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>",
		"<< /Type /Annot /Subtype /Link /Rect [72 700 200 720] /A << /S /URI /URI (https://example.com) >> >>",
		"<< /Type /Outlines /First 7 0 R /Last 7 0 R /Count 1 >>",
		"<< /Title (Chapter 1) /Parent 6 0 R /Dest [4 0 R /Fit] >>",
		"<< /Type /Annot /Subtype /Link /Rect [200 620 72 600] /Dest [4 0 R /XYZ 0 792 0] >>",
		"<< /Type /Annot /Subtype /Link /Rect [72 500 200 520] /A << /S /GoToR /F (other.pdf) /D [0 /Fit] >> >>",
	)
}

// Stream returns the body of a stream object carrying data. entries are
// extra dictionary entries; /Length is filled in.
func Stream(entries, data string) string {
	return fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", entries, len(data), data)
}

// TextDocument writes a one page document that shows "Click here" in
// Helvetica 12pt at (72, 705) under a URI link with Rect [100 700 140 720].
// With widths set the font carries a flat 500 unit /Widths array; without,
// it is a bare standard 14 font.
func TextDocument(t testing.TB, dir, name string, widths bool) string {
	t.Helper()
	fontDict := "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>"
	if widths {
		fontDict = fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /FirstChar 32 /LastChar 126 /Widths [%s] >>",
			strings.TrimSpace(strings.Repeat("500 ", 126-32+1)))
	}
	return Write(t, dir, name,
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R /Annots [6 0 R] >>",
		Stream("", "BT /F1 12 Tf 72 705 Td (Click here) Tj ET"),
		fontDict,
		"<< /Type /Annot /Subtype /Link /Rect [100 700 140 720] /A << /S /URI /URI (https://example.com/click) >> >>",
	)
}

// UnreadablePageDocument writes a two page document whose second Kids entry
// points at an integer instead of a page dictionary. Page 1 has a URI link.
func UnreadablePageDocument(t testing.TB, dir, name string) string {
	t.Helper()
	return Write(t, dir, name,
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R 5 0 R] /Count 2 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Annots [4 0 R] >>",
		"<< /Type /Annot /Subtype /Link /Rect [72 700 200 720] /A << /S /URI /URI (https://example.com) >> >>",
		"42",
	)
}
