package extraction

import (
	"strings"

	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/wrapper"
)

// NormalizeRect orders the two corners of a link rectangle so that min <= max
// on both axes. Corners may be given in either diagonal order.
func NormalizeRect(r [4]float64) wrapper.Rect {
	return wrapper.Rect{
		MinX: min(r[0], r[2]),
		MinY: min(r[1], r[3]),
		MaxX: max(r[0], r[2]),
		MaxY: max(r[1], r[3]),
	}
}

// Overlaps reports whether span intersects rect grown by tolerance on every
// side.
func Overlaps(rect, span wrapper.Rect, tolerance float64) bool {
	return rect.MinX-tolerance <= span.MaxX &&
		rect.MaxX+tolerance >= span.MinX &&
		rect.MinY-tolerance <= span.MaxY &&
		rect.MaxY+tolerance >= span.MinY
}

// MatchText joins the trimmed text of every span overlapping rect, in layout
// order. Spans without a box never match. EmptyLinkText is returned when
// nothing matched.
func MatchText(rect wrapper.Rect, spans []wrapper.TextSpan, tolerance float64) string {
	parts := make([]string, 0, 4)
	for _, span := range spans {
		if span.Box == nil || !Overlaps(rect, *span.Box, tolerance) {
			continue
		}
		if txt := strings.TrimSpace(span.Text); txt != "" {
			parts = append(parts, txt)
		}
	}

	text := strings.TrimSpace(strings.Join(parts, " "))
	if text == "" {
		return EmptyLinkText
	}
	return text
}
