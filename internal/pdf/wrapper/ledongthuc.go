package wrapper

import (
	"fmt"
	"math"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/font"
)

// Run grouping thresholds, relative to the font size of the current run.
const (
	baselineSlack = 0.5
	wordGap       = 0.2
	runBreakGap   = 2.0
	fontSizeSlack = 0.5

	// fallbackAdvance is the assumed glyph advance, in em, for fonts
	// without widths or known metrics.
	fallbackAdvance = 0.5
)

// LedongthucLayout implements TextLayout using ledongthuc/pdf. The library
// is not safe for concurrent use, so page walks are serialized.
type LedongthucLayout struct {
	mu     sync.Mutex
	file   *os.File
	reader *pdf.Reader
	closed bool
}

// OpenLedongthucLayout opens the file at path for text layout.
func OpenLedongthucLayout(path string) (l *LedongthucLayout, err error) {
	defer func() {
		if r := recover(); r != nil {
			l, err = nil, &WrapperError{Library: LibraryLedongthuc, Op: "open_file", Err: fmt.Errorf("reader panic: %v", r)}
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryLedongthuc,
			Op:      "open_file",
			Err:     fmt.Errorf("failed to open PDF: %w", err),
		}
	}

	return &LedongthucLayout{file: f, reader: reader}, nil
}

// NumPage returns the page count as seen by the layout reader.
func (l *LedongthucLayout) NumPage() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0
	}
	return l.reader.NumPage()
}

// PageSpans extracts the glyphs of a page and groups them into runs.
func (l *LedongthucLayout) PageSpans(page int) (spans []TextSpan, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, &WrapperError{Library: LibraryLedongthuc, Op: "page_spans", Err: ErrClosed}
	}
	if page < 1 || page > l.reader.NumPage() {
		return nil, &WrapperError{
			Library: LibraryLedongthuc,
			Op:      "page_spans",
			Err:     fmt.Errorf("%w: %d (document has %d pages)", ErrInvalidPage, page, l.reader.NumPage()),
		}
	}

	defer func() {
		if r := recover(); r != nil {
			spans, err = nil, &WrapperError{
				Library: LibraryLedongthuc,
				Op:      "page_spans",
				Err:     fmt.Errorf("panic while reading page %d: %v", page, r),
			}
		}
	}()

	p := l.reader.Page(page)
	if p.V.IsNull() {
		return nil, nil
	}
	return groupGlyphs(p.Content().Text), nil
}

func (l *LedongthucLayout) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	l.reader = nil
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// groupGlyphs merges consecutive glyphs sharing a baseline and font size into
// runs. A run is broken when the pen moves backwards, jumps to another line
// or leaves a gap wider than a couple of em.
func groupGlyphs(glyphs []pdf.Text) []TextSpan {
	var (
		spans []TextSpan
		text  strings.Builder
		box   *Rect
		prev  *placedGlyph
	)

	flush := func() {
		if s := strings.TrimSpace(text.String()); s != "" {
			spans = append(spans, TextSpan{Text: s, Box: box})
		}
		text.Reset()
		box = nil
		prev = nil
	}

	for i := range glyphs {
		g := &glyphs[i]
		if g.S == "" {
			continue
		}

		cur := place(g, prev)
		if prev != nil {
			size := math.Max(prev.size, 1)
			gap := cur.x - (prev.x + prev.w)
			switch {
			case math.Abs(cur.y-prev.y) > size*baselineSlack,
				math.Abs(cur.size-prev.size) > fontSizeSlack,
				gap < -size*wordGap,
				gap > size*runBreakGap:
				flush()
			case gap > size*wordGap && !strings.HasSuffix(text.String(), " ") && !strings.HasPrefix(g.S, " "):
				text.WriteByte(' ')
			}
		}

		text.WriteString(g.S)
		if gb, ok := cur.box(); ok {
			if box == nil {
				box = &gb
			} else {
				u := box.Union(gb)
				box = &u
			}
		}
		prev = &cur
	}
	flush()
	return spans
}

// placedGlyph is a glyph with the position and advance used for grouping.
type placedGlyph struct {
	x, y, w, size float64
	rawX          float64
	estimated     bool
}

// place positions g after prev. ledongthuc only advances the pen by the
// font's Widths entries, so glyphs of a font without widths all report the
// X of the first one; those are laid out with an estimated advance instead.
// An explicit move past the estimated pen keeps the reported X.
func place(g *pdf.Text, prev *placedGlyph) placedGlyph {
	w, estimated := glyphAdvance(g)
	p := placedGlyph{x: g.X, y: g.Y, w: w, size: g.FontSize, rawX: g.X, estimated: estimated}

	if !estimated || prev == nil || !prev.estimated {
		return p
	}
	if math.Abs(g.Y-prev.y) > math.Max(prev.size, 1)*baselineSlack {
		return p
	}
	pen := prev.x + prev.w
	if shift := g.X - prev.rawX; shift >= 0 && g.X < pen {
		p.x = pen + shift
	}
	return p
}

// glyphAdvance returns the width of g and whether it had to be estimated.
// Standard 14 fonts use their built-in metrics; other fonts get a flat
// fallbackAdvance em per rune.
func glyphAdvance(g *pdf.Text) (float64, bool) {
	if g.W > 0 {
		return g.W, false
	}
	if g.FontSize <= 0 {
		return 0, false
	}
	if font.IsCoreFont(g.Font) {
		units := 0
		for _, r := range g.S {
			units += font.CharWidth(g.Font, r)
		}
		return float64(units) / 1000 * g.FontSize, true
	}
	return float64(utf8.RuneCountInString(g.S)) * fallbackAdvance * g.FontSize, true
}

func (p placedGlyph) box() (Rect, bool) {
	if p.size <= 0 && p.w <= 0 {
		return Rect{}, false
	}
	return Rect{MinX: p.x, MinY: p.y, MaxX: p.x + p.w, MaxY: p.y + p.size}, true
}
