package wrapper

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// PDFCPUGraph implements ObjectGraph on top of a pdfcpu context
type PDFCPUGraph struct {
	mu     sync.Mutex
	ctx    *model.Context
	pages  []PageHandle
	closed bool
}

// OpenPDFCPUGraph parses the file at path in relaxed validation mode.
func OpenPDFCPUGraph(path string) (*PDFCPUGraph, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "open_file",
			Err:     fmt.Errorf("failed to open file: %w", err),
		}
	}
	defer file.Close()

	return NewPDFCPUGraph(file)
}

// NewPDFCPUGraph parses a document from rs.
func NewPDFCPUGraph(rs io.ReadSeeker) (g *PDFCPUGraph, err error) {
	defer func() {
		if r := recover(); r != nil {
			g, err = nil, &WrapperError{Library: LibraryPDFCPU, Op: "open", Err: fmt.Errorf("parser panic: %v", r)}
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "open",
			Err:     fmt.Errorf("failed to read PDF context: %w", err),
		}
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "open",
			Err:     fmt.Errorf("failed to ensure page count: %w", err),
		}
	}

	return &PDFCPUGraph{ctx: ctx}, nil
}

// Resolve follows indirect references through the xref table.
func (g *PDFCPUGraph) Resolve(obj Object) (Object, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil, &WrapperError{Library: LibraryPDFCPU, Op: "resolve", Err: ErrClosed}
	}

	for hop := 0; hop < maxReferenceHops; hop++ {
		ref, ok := obj.(Reference)
		if !ok {
			return obj, nil
		}

		target, err := g.dereference(ref.ID())
		if err != nil {
			return nil, err
		}
		obj = target
	}
	return nil, &WrapperError{Library: LibraryPDFCPU, Op: "resolve", Err: ErrReferenceLoop}
}

func (g *PDFCPUGraph) dereference(id ObjectID) (obj Object, err error) {
	defer func() {
		if r := recover(); r != nil {
			obj, err = nil, &WrapperError{Library: LibraryPDFCPU, Op: "resolve", Err: fmt.Errorf("dereference %s panicked: %v", id, r)}
		}
	}()

	raw, err := g.ctx.Dereference(*types.NewIndirectRef(id.Number, id.Generation))
	if err != nil {
		return nil, &WrapperError{Library: LibraryPDFCPU, Op: "resolve", Err: fmt.Errorf("%s: %w", id, err)}
	}
	if raw == nil {
		return nil, &WrapperError{Library: LibraryPDFCPU, Op: "resolve",
			Err: fmt.Errorf("%w: %s", ErrDanglingReference, id)}
	}
	return convertObject(raw), nil
}

// Pages lists the page objects in document order. A page whose dictionary
// cannot be read keeps the reference its parent's Kids entry holds, or a zero
// ID when even that is unknown, so the caller can report it and go on.
func (g *PDFCPUGraph) Pages() ([]PageHandle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil, &WrapperError{Library: LibraryPDFCPU, Op: "pages", Err: ErrClosed}
	}
	if g.pages != nil {
		return g.pages, nil
	}

	var leaves []types.IndirectRef
	pages := make([]PageHandle, 0, g.ctx.PageCount)
	for i := 1; i <= g.ctx.PageCount; i++ {
		h := PageHandle{Number: i}
		ref, err := g.pageRef(i)
		if err != nil {
			if leaves == nil {
				leaves = g.kidRefs()
			}
			if i <= len(leaves) {
				ref = &leaves[i-1]
			}
		}
		if ref != nil {
			h.ID = ObjectID{Number: ref.ObjectNumber.Value(), Generation: ref.GenerationNumber.Value()}
		}
		pages = append(pages, h)
	}
	g.pages = pages
	return pages, nil
}

func (g *PDFCPUGraph) pageRef(page int) (ref *types.IndirectRef, err error) {
	defer func() {
		if r := recover(); r != nil {
			ref, err = nil, fmt.Errorf("page %d panicked: %v", page, r)
		}
	}()
	_, ref, _, err = g.ctx.PageDict(page, false)
	return ref, err
}

// kidRefs flattens the page tree into the leaf references found in Kids
// arrays, whatever those references point at.
func (g *PDFCPUGraph) kidRefs() (leaves []types.IndirectRef) {
	defer func() {
		if r := recover(); r != nil {
			leaves = nil
		}
	}()

	root, err := g.ctx.Pages()
	if err != nil || root == nil {
		return nil
	}

	seen := make(map[int]bool)
	var walk func(ref types.IndirectRef)
	walk = func(ref types.IndirectRef) {
		num := ref.ObjectNumber.Value()
		if seen[num] {
			return
		}
		seen[num] = true

		obj, err := g.ctx.Dereference(ref)
		d, ok := obj.(types.Dict)
		if err != nil || !ok || d.ArrayEntry("Kids") == nil {
			leaves = append(leaves, ref)
			return
		}
		for _, kid := range d.ArrayEntry("Kids") {
			if kidRef, ok := kid.(types.IndirectRef); ok {
				walk(kidRef)
			}
		}
	}

	d, err := g.ctx.DereferenceDict(*root)
	if err != nil {
		return nil
	}
	for _, kid := range d.ArrayEntry("Kids") {
		if kidRef, ok := kid.(types.IndirectRef); ok {
			walk(kidRef)
		}
	}
	return leaves
}

func (g *PDFCPUGraph) Catalog() (Dict, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil, &WrapperError{Library: LibraryPDFCPU, Op: "catalog", Err: ErrClosed}
	}

	root, err := g.ctx.Catalog()
	if err != nil {
		return nil, &WrapperError{Library: LibraryPDFCPU, Op: "catalog", Err: err}
	}
	d, _ := convertObject(root).(Dict)
	return d, nil
}

func (g *PDFCPUGraph) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	g.ctx = nil
	return nil
}

// convertObject maps a pdfcpu object onto the local object model. Nested
// direct objects are converted; references are kept as references.
func convertObject(obj types.Object) Object {
	switch v := obj.(type) {
	case nil:
		return Null{}
	case types.Dict:
		return convertDict(v)
	case types.StreamDict:
		return Stream{Dict: convertDict(v.Dict)}
	case types.Array:
		arr := make(Array, len(v))
		for i, item := range v {
			arr[i] = convertObject(item)
		}
		return arr
	case types.IndirectRef:
		return Reference{Number: v.ObjectNumber.Value(), Generation: v.GenerationNumber.Value()}
	case *types.IndirectRef:
		return Reference{Number: v.ObjectNumber.Value(), Generation: v.GenerationNumber.Value()}
	case types.Name:
		return Name(v.Value())
	case types.StringLiteral:
		b, err := types.Unescape(v.Value())
		if err != nil {
			return String(v.Value())
		}
		return String(b)
	case types.HexLiteral:
		b, err := v.Bytes()
		if err != nil {
			return String(nil)
		}
		return String(b)
	case types.Integer:
		return Integer(v.Value())
	case types.Float:
		return Real(v.Value())
	case types.Boolean:
		return Boolean(v.Value())
	default:
		return Null{}
	}
}

func convertDict(d types.Dict) Dict {
	out := make(Dict, len(d))
	for k, v := range d {
		out[k] = convertObject(v)
	}
	return out
}
