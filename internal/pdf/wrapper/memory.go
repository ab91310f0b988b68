package wrapper

import "fmt"

// MemoryGraph is an ObjectGraph over an in-memory object table. It serves
// callers that already hold a decoded graph.
type MemoryGraph struct {
	objects map[ObjectID]Object
	pages   []ObjectID
	root    Object
}

// NewMemoryGraph creates an empty graph
func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{objects: make(map[ObjectID]Object)}
}

// Set stores obj as indirect object num (generation 0) and returns a
// reference to it.
func (g *MemoryGraph) Set(num int, obj Object) Reference {
	id := ObjectID{Number: num}
	g.objects[id] = obj
	return Reference(id)
}

// AddPage stores dict as object num and appends it to the page list.
func (g *MemoryGraph) AddPage(num int, dict Dict) Reference {
	if dict == nil {
		dict = Dict{}
	}
	if _, ok := dict["Type"]; !ok {
		dict["Type"] = Name("Page")
	}
	ref := g.Set(num, dict)
	g.pages = append(g.pages, ref.ID())
	return ref
}

// AddPageRef appends a page whose object may be missing from the table.
func (g *MemoryGraph) AddPageRef(id ObjectID) {
	g.pages = append(g.pages, id)
}

// SetCatalog sets the catalog, either a Dict or a Reference to one.
func (g *MemoryGraph) SetCatalog(root Object) {
	g.root = root
}

func (g *MemoryGraph) Resolve(obj Object) (Object, error) {
	for hop := 0; hop < maxReferenceHops; hop++ {
		ref, ok := obj.(Reference)
		if !ok {
			return obj, nil
		}
		target, found := g.objects[ref.ID()]
		if !found || target == nil {
			return nil, &WrapperError{Library: LibraryMemory, Op: "resolve",
				Err: fmt.Errorf("%w: %s", ErrDanglingReference, ref.ID())}
		}
		obj = target
	}
	return nil, &WrapperError{Library: LibraryMemory, Op: "resolve", Err: ErrReferenceLoop}
}

func (g *MemoryGraph) Pages() ([]PageHandle, error) {
	handles := make([]PageHandle, len(g.pages))
	for i, id := range g.pages {
		handles[i] = PageHandle{Number: i + 1, ID: id}
	}
	return handles, nil
}

func (g *MemoryGraph) Catalog() (Dict, error) {
	if g.root == nil {
		return Dict{}, nil
	}
	obj, err := g.Resolve(g.root)
	if err != nil {
		return nil, err
	}
	d, ok := obj.(Dict)
	if !ok {
		return nil, &WrapperError{Library: LibraryMemory, Op: "catalog",
			Err: fmt.Errorf("catalog is a %s, not a dict", obj.Kind())}
	}
	return d, nil
}

func (g *MemoryGraph) Close() error { return nil }

// MemoryLayout is a TextLayout backed by precomputed spans.
type MemoryLayout struct {
	spans map[int][]TextSpan
	errs  map[int]error
}

// NewMemoryLayout creates an empty layout
func NewMemoryLayout() *MemoryLayout {
	return &MemoryLayout{spans: make(map[int][]TextSpan), errs: make(map[int]error)}
}

// Add appends a placed span to page.
func (l *MemoryLayout) Add(page int, text string, box Rect) *MemoryLayout {
	b := box
	l.spans[page] = append(l.spans[page], TextSpan{Text: text, Box: &b})
	return l
}

// AddUnplaced appends a span without a bounding box to page.
func (l *MemoryLayout) AddUnplaced(page int, text string) *MemoryLayout {
	l.spans[page] = append(l.spans[page], TextSpan{Text: text})
	return l
}

// Fail makes PageSpans return err for page.
func (l *MemoryLayout) Fail(page int, err error) *MemoryLayout {
	l.errs[page] = err
	return l
}

func (l *MemoryLayout) PageSpans(page int) ([]TextSpan, error) {
	if err := l.errs[page]; err != nil {
		return nil, err
	}
	src := l.spans[page]
	out := make([]TextSpan, len(src))
	copy(out, src)
	return out, nil
}

func (l *MemoryLayout) Close() error { return nil }

// NoLayout is a TextLayout without any text.
type NoLayout struct{}

func (NoLayout) PageSpans(int) ([]TextSpan, error) { return nil, nil }
func (NoLayout) Close() error                      { return nil }
