package extraction

import (
	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/wrapper"
)

// PageIndex maps page object identities to 1-based page numbers. It is built
// once per document and never modified afterwards.
type PageIndex struct {
	byID  map[wrapper.ObjectID]int
	count int
}

// NewPageIndex indexes pages in document order. Pages without an object
// identity are counted but cannot be targeted.
func NewPageIndex(pages []wrapper.PageHandle) PageIndex {
	idx := PageIndex{byID: make(map[wrapper.ObjectID]int, len(pages)), count: len(pages)}
	for i, p := range pages {
		if p.ID == (wrapper.ObjectID{}) {
			continue
		}
		if _, dup := idx.byID[p.ID]; !dup {
			idx.byID[p.ID] = i + 1
		}
	}
	return idx
}

// Len returns the number of pages in the document.
func (idx PageIndex) Len() int { return idx.count }

// Lookup returns the page number of the page object id.
func (idx PageIndex) Lookup(id wrapper.ObjectID) (int, bool) {
	n, ok := idx.byID[id]
	return n, ok
}

// DestinationKind tells which form a destination was encoded in
type DestinationKind int

const (
	// DestinationInvalid covers every shape that names no location
	DestinationInvalid DestinationKind = iota
	// DestinationPageRef is an explicit destination pointing at a page object
	DestinationPageRef
	// DestinationPageNumber is an explicit destination holding a 0-based page
	// number, the form used by remote go-to actions
	DestinationPageNumber
	// DestinationNamed is a name or string key into the name tree; these are
	// not resolved
	DestinationNamed
)

// Destination is a decoded destination
type Destination struct {
	Kind       DestinationKind
	Page       wrapper.ObjectID
	PageNumber int
	Name       string
}

// ParseDestination decodes the destination forms found in Dest entries and
// in the D entry of go-to actions: an array whose first element is a page
// reference or page number, a bare page reference, a dictionary carrying the
// array under D, or a name. At most maxDestinationHops references are
// followed to reach an indirect array or dictionary.
func ParseDestination(g wrapper.ObjectGraph, obj wrapper.Object) Destination {
	return parseDestination(g, obj, maxDestinationHops)
}

const maxDestinationHops = 2

func parseDestination(g wrapper.ObjectGraph, obj wrapper.Object, hops int) Destination {
	switch v := obj.(type) {
	case wrapper.Array:
		if len(v) == 0 {
			return Destination{}
		}
		switch first := v[0].(type) {
		case wrapper.Reference:
			return Destination{Kind: DestinationPageRef, Page: first.ID()}
		case wrapper.Integer:
			if first < 0 {
				return Destination{}
			}
			return Destination{Kind: DestinationPageNumber, PageNumber: int(first)}
		}
		return Destination{}
	case wrapper.Reference:
		pageRef := Destination{Kind: DestinationPageRef, Page: v.ID()}
		if hops == 0 {
			return pageRef
		}
		target, err := g.Resolve(v)
		if err != nil {
			return pageRef
		}
		switch target.(type) {
		case wrapper.Array, wrapper.Dict:
			if d := parseDestination(g, target, hops-1); d.Kind != DestinationInvalid {
				return d
			}
		}
		return pageRef
	case wrapper.Dict:
		return parseDestination(g, v.Get("D"), hops)
	case wrapper.Name:
		return Destination{Kind: DestinationNamed, Name: string(v)}
	case wrapper.String:
		name, err := v.Text()
		if err != nil {
			name = string(v)
		}
		return Destination{Kind: DestinationNamed, Name: name}
	default:
		return Destination{}
	}
}

// Resolve returns the page number d points at, if it is a known page.
func (idx PageIndex) Resolve(d Destination) (int, bool) {
	if d.Kind != DestinationPageRef {
		return 0, false
	}
	return idx.Lookup(d.Page)
}

// ResolveDestination decodes dest and maps it to a page number. Unresolved
// destinations are a normal outcome and report false.
func ResolveDestination(g wrapper.ObjectGraph, dest wrapper.Object, idx PageIndex) (int, bool) {
	if wrapper.IsNull(dest) {
		return 0, false
	}
	return idx.Resolve(ParseDestination(g, dest))
}
