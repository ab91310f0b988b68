package extraction

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/wrapper"
)

// docFixture assembles an in-memory document: pages are objects 100+n,
// the catalog is object 1 and every other object gets the next free number.
type docFixture struct {
	graph  *wrapper.MemoryGraph
	layout *wrapper.MemoryLayout
	pages  []wrapper.Dict
	next   int
}

func newDocFixture(pageCount int) *docFixture {
	f := &docFixture{
		graph:  wrapper.NewMemoryGraph(),
		layout: wrapper.NewMemoryLayout(),
		next:   1000,
	}
	for i := 1; i <= pageCount; i++ {
		d := wrapper.Dict{}
		f.graph.AddPage(100+i, d)
		f.pages = append(f.pages, d)
	}
	f.graph.SetCatalog(f.graph.Set(1, wrapper.Dict{"Type": wrapper.Name("Catalog")}))
	return f
}

func (f *docFixture) pageRef(n int) wrapper.Reference {
	return wrapper.Ref(100 + n)
}

func (f *docFixture) catalog() wrapper.Dict {
	cat, _ := f.graph.Catalog()
	return cat
}

// add stores obj under a fresh object number.
func (f *docFixture) add(obj wrapper.Object) wrapper.Reference {
	f.next++
	return f.graph.Set(f.next, obj)
}

// annotate appends an annotation entry to page n. Dictionaries are stored
// as indirect objects; anything else is appended as is.
func (f *docFixture) annotate(page int, entry wrapper.Object) wrapper.Reference {
	var ref wrapper.Reference
	if d, ok := entry.(wrapper.Dict); ok {
		ref = f.add(d)
		entry = ref
	}
	annots, _ := f.pages[page-1]["Annots"].(wrapper.Array)
	f.pages[page-1]["Annots"] = append(annots, entry)
	return ref
}

func (f *docFixture) link(page int, rect [4]float64, extra wrapper.Dict) wrapper.Reference {
	d := wrapper.Dict{
		"Type":    wrapper.Name("Annot"),
		"Subtype": wrapper.Name("Link"),
		"Rect":    wrapper.Array{wrapper.Real(rect[0]), wrapper.Real(rect[1]), wrapper.Real(rect[2]), wrapper.Real(rect[3])},
	}
	for k, v := range extra {
		d[k] = v
	}
	return f.annotate(page, d)
}

func uriAction(uri string) wrapper.Dict {
	return wrapper.Dict{"S": wrapper.Name("URI"), "URI": wrapper.String(uri)}
}

// outlineItem describes an outline node; page 0 leaves the node without a
// destination.
type outlineItem struct {
	title    string
	page     int
	children []outlineItem
}

// setOutline builds a well formed outline tree and returns the references of
// the nodes in pre-order.
func (f *docFixture) setOutline(items []outlineItem) []wrapper.Reference {
	root := wrapper.Dict{"Type": wrapper.Name("Outlines")}
	rootRef := f.add(root)
	f.catalog()["Outlines"] = rootRef

	var order []wrapper.Reference
	f.buildLevel(root, rootRef, items, &order)
	return order
}

func (f *docFixture) buildLevel(parent wrapper.Dict, parentRef wrapper.Reference, items []outlineItem, order *[]wrapper.Reference) {
	var prev wrapper.Dict
	for i, item := range items {
		node := wrapper.Dict{"Title": wrapper.String(item.title), "Parent": parentRef}
		if item.page > 0 {
			node["Dest"] = wrapper.Array{f.pageRef(item.page), wrapper.Name("Fit")}
		}
		ref := f.add(node)
		*order = append(*order, ref)

		if i == 0 {
			parent["First"] = ref
		} else {
			prev["Next"] = ref
		}
		parent["Last"] = ref
		prev = node

		if len(item.children) > 0 {
			f.buildLevel(node, ref, item.children, order)
		}
	}
}

func (f *docFixture) document() *wrapper.Document {
	return wrapper.NewDocument("fixture.pdf", f.graph, f.layout)
}

func testEngine(config Config) *Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewEngine(config, wrapper.DefaultFactoryConfig(), logger)
}

func (f *docFixture) analyze(t *testing.T, config Config) *AnalysisResult {
	t.Helper()
	result, err := testEngine(config).AnalyzeDocument(f.document())
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func intPtr(v int) *int { return &v }
