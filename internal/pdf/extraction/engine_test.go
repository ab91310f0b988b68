package extraction

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/pdftest"
	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/wrapper"
)

func TestAnalyzeURILinkOverText(t *testing.T) {
	f := newDocFixture(1)
	f.link(1, [4]float64{100, 700, 200, 715}, wrapper.Dict{"A": uriAction("https://example.com/docs")})
	f.layout.Add(1, "Click here", wrapper.Rect{MinX: 102, MinY: 702, MaxX: 160, MaxY: 714})

	result := f.analyze(t, DefaultConfig())

	require.Len(t, result.Links, 1)
	link := result.Links[0]
	assert.Equal(t, 1, link.Page)
	assert.Equal(t, LinkTypeURI, link.Type)
	assert.Equal(t, "https://example.com/docs", link.Target)
	assert.Equal(t, "https://example.com/docs", link.URL)
	assert.Equal(t, "Click here", link.LinkText)
	assert.Equal(t, "URI", link.ActionKind)
	assert.Equal(t, [4]float64{100, 700, 200, 715}, link.Rect)
	assert.NotZero(t, link.XRef)
}

func TestAnalyzeGraphicLink(t *testing.T) {
	f := newDocFixture(1)
	f.link(1, [4]float64{10, 10, 50, 50}, wrapper.Dict{"A": uriAction("https://example.com")})
	f.layout.Add(1, "Far away", wrapper.Rect{MinX: 300, MinY: 600, MaxX: 400, MaxY: 612})

	result := f.analyze(t, DefaultConfig())

	require.Len(t, result.Links, 1)
	assert.Equal(t, EmptyLinkText, result.Links[0].LinkText)
}

func TestAnalyzeRectIsNormalized(t *testing.T) {
	f := newDocFixture(1)
	f.link(1, [4]float64{200, 715, 100, 700}, wrapper.Dict{"A": uriAction("https://example.com")})

	result := f.analyze(t, DefaultConfig())

	require.Len(t, result.Links, 1)
	assert.Equal(t, [4]float64{100, 700, 200, 715}, result.Links[0].Rect)
}

func TestAnalyzeClassification(t *testing.T) {
	tests := []struct {
		name       string
		extra      func(f *docFixture) wrapper.Dict
		wantType   LinkType
		wantTarget string
		check      func(t *testing.T, l LinkRecord)
	}{
		{
			name: "dest array",
			extra: func(f *docFixture) wrapper.Dict {
				return wrapper.Dict{"Dest": wrapper.Array{f.pageRef(3), wrapper.Name("XYZ"), wrapper.Null{}, wrapper.Null{}, wrapper.Null{}}}
			},
			wantType:   LinkTypeDest,
			wantTarget: "Page 3",
			check: func(t *testing.T, l LinkRecord) {
				assert.Equal(t, 3, l.DestinationPage)
				assert.Equal(t, "Dest", l.ActionKind)
			},
		},
		{
			name: "dest wins over action",
			extra: func(f *docFixture) wrapper.Dict {
				return wrapper.Dict{
					"Dest": wrapper.Array{f.pageRef(2)},
					"A":    uriAction("https://example.com"),
				}
			},
			wantType:   LinkTypeDest,
			wantTarget: "Page 2",
		},
		{
			name: "unresolved dest ignores action",
			extra: func(f *docFixture) wrapper.Dict {
				return wrapper.Dict{
					"Dest": wrapper.String("named-dest"),
					"A":    uriAction("https://example.com"),
				}
			},
			wantType:   LinkTypeOther,
			wantTarget: UnknownTarget,
			check: func(t *testing.T, l LinkRecord) {
				assert.Equal(t, "Dest", l.ActionKind)
				assert.Empty(t, l.URL)
			},
		},
		{
			name: "dangling dest ignores goto action",
			extra: func(f *docFixture) wrapper.Dict {
				return wrapper.Dict{
					"Dest": wrapper.Array{wrapper.Ref(555)},
					"A":    wrapper.Dict{"S": wrapper.Name("GoTo"), "D": wrapper.Array{f.pageRef(1)}},
				}
			},
			wantType:   LinkTypeOther,
			wantTarget: UnknownTarget,
			check: func(t *testing.T, l LinkRecord) {
				assert.Zero(t, l.DestinationPage)
			},
		},
		{
			name: "unresolved dest without action",
			extra: func(f *docFixture) wrapper.Dict {
				return wrapper.Dict{"Dest": wrapper.Name("chapter-9")}
			},
			wantType:   LinkTypeOther,
			wantTarget: UnknownTarget,
			check: func(t *testing.T, l LinkRecord) {
				assert.Equal(t, "Dest", l.ActionKind)
				assert.Zero(t, l.DestinationPage)
			},
		},
		{
			name: "goto action",
			extra: func(f *docFixture) wrapper.Dict {
				return wrapper.Dict{"A": wrapper.Dict{"S": wrapper.Name("GoTo"), "D": wrapper.Array{f.pageRef(1), wrapper.Name("Fit")}}}
			},
			wantType:   LinkTypeGoTo,
			wantTarget: "Page 1",
			check: func(t *testing.T, l LinkRecord) {
				assert.Equal(t, "GoTo", l.ActionKind)
				assert.Equal(t, 1, l.DestinationPage)
			},
		},
		{
			name: "goto action to dangling page",
			extra: func(f *docFixture) wrapper.Dict {
				return wrapper.Dict{"A": wrapper.Dict{"S": wrapper.Name("GoTo"), "D": wrapper.Array{wrapper.Ref(555)}}}
			},
			wantType:   LinkTypeOther,
			wantTarget: UnknownTarget,
			check: func(t *testing.T, l LinkRecord) {
				assert.Equal(t, "GoTo", l.ActionKind)
			},
		},
		{
			name: "gotor action",
			extra: func(f *docFixture) wrapper.Dict {
				return wrapper.Dict{"A": wrapper.Dict{
					"S": wrapper.Name("GoToR"),
					"F": wrapper.String("appendix.pdf"),
					"D": wrapper.Array{wrapper.Integer(4), wrapper.Name("Fit")},
				}}
			},
			wantType:   LinkTypeRemote,
			wantTarget: "appendix.pdf",
			check: func(t *testing.T, l LinkRecord) {
				assert.Equal(t, "appendix.pdf", l.RemoteFile)
				assert.Equal(t, 5, l.RemotePage)
				assert.Equal(t, "GoToR", l.ActionKind)
			},
		},
		{
			name: "gotor without file",
			extra: func(f *docFixture) wrapper.Dict {
				return wrapper.Dict{"A": wrapper.Dict{"S": wrapper.Name("GoToR")}}
			},
			wantType:   LinkTypeOther,
			wantTarget: UnknownTarget,
		},
		{
			name: "uri unreadable",
			extra: func(f *docFixture) wrapper.Dict {
				return wrapper.Dict{"A": wrapper.Dict{"S": wrapper.Name("URI"), "URI": wrapper.Integer(7)}}
			},
			wantType:   LinkTypeOther,
			wantTarget: UnknownTarget,
			check: func(t *testing.T, l LinkRecord) {
				assert.Equal(t, "URI", l.ActionKind)
				assert.Empty(t, l.URL)
			},
		},
		{
			name: "javascript action",
			extra: func(f *docFixture) wrapper.Dict {
				return wrapper.Dict{"A": wrapper.Dict{"S": wrapper.Name("JavaScript"), "JS": wrapper.String("app.alert(1)")}}
			},
			wantType:   LinkTypeOther,
			wantTarget: UnknownTarget,
			check: func(t *testing.T, l LinkRecord) {
				assert.Equal(t, "JavaScript", l.ActionKind)
			},
		},
		{
			name:       "no action at all",
			extra:      func(f *docFixture) wrapper.Dict { return nil },
			wantType:   LinkTypeOther,
			wantTarget: UnknownTarget,
			check: func(t *testing.T, l LinkRecord) {
				assert.Empty(t, l.ActionKind)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDocFixture(3)
			f.link(1, [4]float64{0, 0, 10, 10}, tt.extra(f))

			result := f.analyze(t, DefaultConfig())

			require.Len(t, result.Links, 1)
			l := result.Links[0]
			assert.Equal(t, tt.wantType, l.Type)
			assert.Equal(t, tt.wantTarget, l.Target)
			assert.Equal(t, l.Type == LinkTypeOther, l.Target == UnknownTarget)
			if tt.check != nil {
				tt.check(t, l)
			}
		})
	}
}

func TestAnalyzeSkipsMalformedAnnotations(t *testing.T) {
	f := newDocFixture(1)
	f.annotate(1, wrapper.Ref(4242)) // dangling
	f.annotate(1, wrapper.Integer(5))
	f.annotate(1, wrapper.Dict{"Subtype": wrapper.Name("Text"), "Rect": wrapper.Array{wrapper.Integer(0), wrapper.Integer(0), wrapper.Integer(1), wrapper.Integer(1)}})
	f.annotate(1, wrapper.Dict{"Rect": wrapper.Array{}})
	f.annotate(1, wrapper.Dict{"Subtype": wrapper.Name("Link"), "Rect": wrapper.Array{wrapper.Integer(0), wrapper.Integer(0), wrapper.Integer(1)}})
	f.annotate(1, wrapper.Dict{"Subtype": wrapper.Name("Link"), "Rect": wrapper.Array{wrapper.Integer(0), wrapper.Name("x"), wrapper.Integer(1), wrapper.Integer(1)}})
	f.annotate(1, wrapper.Dict{"Subtype": wrapper.Name("Link")})
	good := f.link(1, [4]float64{1, 1, 2, 2}, wrapper.Dict{"A": uriAction("https://ok.example")})

	result := f.analyze(t, DefaultConfig())

	require.Len(t, result.Links, 1)
	assert.Equal(t, good.Number, result.Links[0].XRef)

	assert.Len(t, result.Diagnostics.ByType(errors.ErrorTypeMissingObject), 1)
	assert.Len(t, result.Diagnostics.ByType(errors.ErrorTypeMalformedAnnotation), 2)
	assert.Len(t, result.Diagnostics.ByType(errors.ErrorTypeInvalidRect), 3)
	for _, skip := range result.Diagnostics.ByType(errors.ErrorTypeInvalidRect) {
		assert.Equal(t, 1, skip.PageNumber)
	}
}

func TestAnalyzeDirectAnnotationAndIndirectPieces(t *testing.T) {
	f := newDocFixture(2)
	rect := f.add(wrapper.Array{wrapper.Integer(0), wrapper.Integer(0), f.add(wrapper.Real(20)), wrapper.Integer(20)})
	f.pages[0]["Annots"] = f.add(wrapper.Array{
		wrapper.Dict{"Subtype": wrapper.Name("Link"), "Rect": rect, "A": f.add(uriAction("https://direct.example"))},
	})

	result := f.analyze(t, DefaultConfig())

	require.Len(t, result.Links, 1)
	l := result.Links[0]
	assert.Equal(t, [4]float64{0, 0, 20, 20}, l.Rect)
	assert.Equal(t, LinkTypeURI, l.Type)
	assert.Zero(t, l.XRef)
}

func TestAnalyzeMatchesPerPageOnly(t *testing.T) {
	f := newDocFixture(2)
	f.link(1, [4]float64{100, 100, 200, 120}, wrapper.Dict{"A": uriAction("https://a.example")})
	f.link(2, [4]float64{100, 100, 200, 120}, wrapper.Dict{"A": uriAction("https://b.example")})
	f.layout.Add(2, "page two text", wrapper.Rect{MinX: 110, MinY: 105, MaxX: 180, MaxY: 115})

	result := f.analyze(t, DefaultConfig())

	require.Len(t, result.Links, 2)
	assert.Equal(t, EmptyLinkText, result.Links[0].LinkText)
	assert.Equal(t, "page two text", result.Links[1].LinkText)
}

func TestAnalyzeLinkOrderAcrossPages(t *testing.T) {
	f := newDocFixture(12)
	for page := 12; page >= 1; page-- {
		for i := 0; i < 3; i++ {
			f.link(page, [4]float64{0, float64(i * 20), 10, float64(i*20 + 10)},
				wrapper.Dict{"A": uriAction(fmt.Sprintf("https://example.com/%d/%d", page, i))})
		}
	}

	result := f.analyze(t, Config{Tolerance: DefaultTolerance, Workers: 4, MatchText: true})

	require.Len(t, result.Links, 36)
	for i, l := range result.Links {
		page, n := i/3+1, i%3
		assert.Equal(t, page, l.Page)
		assert.Equal(t, fmt.Sprintf("https://example.com/%d/%d", page, n), l.Target)
	}
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	f := newDocFixture(20)
	for page := 1; page <= 20; page++ {
		f.link(page, [4]float64{10, 10, 90, 30}, wrapper.Dict{"Dest": wrapper.Array{f.pageRef(21 - page)}})
		f.layout.Add(page, fmt.Sprintf("go to %d", 21-page), wrapper.Rect{MinX: 12, MinY: 12, MaxX: 80, MaxY: 24})
	}
	f.setOutline([]outlineItem{{title: "A", page: 1, children: []outlineItem{{title: "A.1", page: 2}}}, {title: "B", page: 3}})

	encode := func(workers int) string {
		cfg := DefaultConfig()
		cfg.Workers = workers
		data, err := json.Marshal(f.analyze(t, cfg))
		require.NoError(t, err)
		return string(data)
	}

	first := encode(8)
	assert.Equal(t, first, encode(8))
	assert.Equal(t, first, encode(1))
}

func TestAnalyzeWithoutTextMatching(t *testing.T) {
	f := newDocFixture(1)
	f.link(1, [4]float64{100, 700, 200, 715}, wrapper.Dict{"A": uriAction("https://example.com")})
	f.layout.Add(1, "Click here", wrapper.Rect{MinX: 102, MinY: 702, MaxX: 160, MaxY: 714})

	cfg := DefaultConfig()
	cfg.MatchText = false
	result := f.analyze(t, cfg)

	require.Len(t, result.Links, 1)
	assert.Equal(t, EmptyLinkText, result.Links[0].LinkText)
}

func TestAnalyzeLayoutFailureIsNotFatal(t *testing.T) {
	f := newDocFixture(1)
	f.link(1, [4]float64{100, 700, 200, 715}, wrapper.Dict{"A": uriAction("https://example.com")})
	f.layout.Fail(1, stderrors.New("content stream garbled"))

	result := f.analyze(t, DefaultConfig())

	require.Len(t, result.Links, 1)
	assert.Equal(t, EmptyLinkText, result.Links[0].LinkText)
	assert.Len(t, result.Diagnostics.ByType(errors.ErrorTypeTextLayout), 1)
}

func TestAnalyzeMalformedPages(t *testing.T) {
	f := newDocFixture(3)
	f.pages[0]["Annots"] = wrapper.Name("oops")
	f.pages[1]["Annots"] = wrapper.Ref(9999)
	f.graph.AddPageRef(wrapper.ObjectID{Number: 7777}) // page 4 points nowhere
	f.link(3, [4]float64{0, 0, 5, 5}, wrapper.Dict{"Dest": wrapper.Array{wrapper.Ref(7777)}})

	result := f.analyze(t, DefaultConfig())

	assert.Equal(t, 4, result.PageCount)
	require.Len(t, result.Links, 1)
	// page 4 exists in the page list even though its object is missing
	assert.Equal(t, "Page 4", result.Links[0].Target)
	assert.Len(t, result.Diagnostics.ByType(errors.ErrorTypeMalformedPage), 1)
	assert.Len(t, result.Diagnostics.ByType(errors.ErrorTypeMissingObject), 2)
}

func TestAnalyzeEmptyDocument(t *testing.T) {
	f := newDocFixture(0)
	result := f.analyze(t, DefaultConfig())

	assert.NotNil(t, result.Links)
	assert.NotNil(t, result.TOC)
	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"links":[],"toc":[]}`, string(data))
}

type failingPages struct {
	*wrapper.MemoryGraph
}

func (failingPages) Pages() ([]wrapper.PageHandle, error) {
	return nil, stderrors.New("page tree is corrupt")
}

func TestAnalyzeDocumentPageTreeFailure(t *testing.T) {
	doc := wrapper.NewDocument("broken.pdf", failingPages{wrapper.NewMemoryGraph()}, nil)

	result, err := testEngine(DefaultConfig()).AnalyzeDocument(doc)

	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeOpen))
}

func TestAnalyzeOpenError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.pdf")

	result, err := testEngine(DefaultConfig()).Analyze(missing)

	assert.Nil(t, result)
	require.Error(t, err)
	var pe *errors.PDFError
	require.True(t, stderrors.As(err, &pe))
	assert.Equal(t, errors.ErrorTypeOpen, pe.Type)
	assert.Equal(t, missing, pe.FilePath)
}

func TestNewEngineNormalizesConfig(t *testing.T) {
	e := NewEngine(Config{Tolerance: -3, Workers: 0}, wrapper.DefaultFactoryConfig(), nil)
	assert.Equal(t, 0.0, e.Config().Tolerance)
	assert.Equal(t, 1, e.Config().Workers)
	assert.NotNil(t, e.factory.Logger)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e = NewEngine(DefaultConfig(), wrapper.DefaultFactoryConfig(), logger)
	assert.Same(t, logger, e.factory.Logger)
}

func TestAnalyzeFileUnreadablePage(t *testing.T) {
	path := pdftest.UnreadablePageDocument(t, t.TempDir(), "bad-kid.pdf")

	result, err := testEngine(DefaultConfig()).Analyze(path)
	require.NoError(t, err)

	assert.Equal(t, 2, result.PageCount)
	require.Len(t, result.Links, 1)
	assert.Equal(t, "https://example.com", result.Links[0].Target)

	skips := result.Diagnostics.ByType(errors.ErrorTypeMalformedPage)
	require.Len(t, skips, 1)
	assert.Equal(t, 2, skips[0].PageNumber)
}

func TestAnalyzeFileAnchorText(t *testing.T) {
	tests := []struct {
		name   string
		widths bool
	}{
		{"font with widths", true},
		{"standard font without widths", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := pdftest.TextDocument(t, t.TempDir(), "text.pdf", tt.widths)

			result, err := testEngine(DefaultConfig()).Analyze(path)
			require.NoError(t, err)
			assert.Empty(t, result.Diagnostics.ByType(errors.ErrorTypeTextLayout))

			require.Len(t, result.Links, 1)
			link := result.Links[0]
			assert.Equal(t, LinkTypeURI, link.Type)
			assert.Equal(t, "https://example.com/click", link.Target)
			assert.Equal(t, "Click here", link.LinkText)
		})
	}
}
