package extraction

import (
	"fmt"

	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/wrapper"
)

type outlineFrame struct {
	node  wrapper.Object
	level int
}

// outlineWalker flattens the outline tree in pre-order. The walk uses an
// explicit stack and never visits an object twice, so cyclic First/Next
// chains terminate.
type outlineWalker struct {
	graph    wrapper.ObjectGraph
	index    PageIndex
	maxNodes int
}

func (w *outlineWalker) walk(catalog wrapper.Dict) ([]TocEntry, []*errors.PDFError) {
	toc := make([]TocEntry, 0)
	var skips []*errors.PDFError

	root := catalog.Get("Outlines")
	if wrapper.IsNull(root) {
		return toc, nil
	}
	resolved, err := w.graph.Resolve(root)
	if err != nil {
		return toc, []*errors.PDFError{errors.WrapError(errors.ErrorTypeMalformedOutline, "outline root", err)}
	}
	rootDict, ok := resolved.(wrapper.Dict)
	if !ok {
		return toc, []*errors.PDFError{
			errors.NewPDFErrorWithContext(errors.ErrorTypeMalformedOutline, "outline root is not a dictionary", resolved.Kind().String()),
		}
	}

	visited := make(map[wrapper.ObjectID]bool)
	if ref, ok := root.(wrapper.Reference); ok {
		visited[ref.ID()] = true
	}

	stack := make([]outlineFrame, 0, 16)
	if first := rootDict.Get("First"); !wrapper.IsNull(first) {
		stack = append(stack, outlineFrame{node: first, level: 1})
	}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var xref, gen int
		if ref, ok := frame.node.(wrapper.Reference); ok {
			if visited[ref.ID()] {
				skips = append(skips, errors.NewPDFError(errors.ErrorTypeCircularReference, "outline node already visited").
					WithObject(ref.Number, ref.Generation))
				continue
			}
			visited[ref.ID()] = true
			xref, gen = ref.Number, ref.Generation
		}

		if w.maxNodes > 0 && len(toc) >= w.maxNodes {
			skips = append(skips, errors.NewPDFError(errors.ErrorTypeMalformedOutline,
				fmt.Sprintf("outline exceeds %d nodes, remaining nodes dropped", w.maxNodes)))
			break
		}

		obj, err := w.graph.Resolve(frame.node)
		if err != nil {
			skips = append(skips, errors.WrapError(errors.ErrorTypeMissingObject, "outline node", err).WithObject(xref, gen))
			continue
		}
		node, ok := obj.(wrapper.Dict)
		if !ok {
			skips = append(skips, errors.NewPDFErrorWithContext(errors.ErrorTypeMalformedOutline,
				"outline node is not a dictionary", obj.Kind().String()).WithObject(xref, gen))
			continue
		}

		entry := TocEntry{Level: frame.level}
		title, skip := w.title(node)
		if skip != nil {
			skips = append(skips, skip.WithObject(xref, gen))
		}
		entry.Title = title
		if page, ok := w.target(node); ok {
			entry.TargetPage = &page
		}
		toc = append(toc, entry)

		// Next is pushed first so the children are emitted before the sibling.
		if next := node.Get("Next"); !wrapper.IsNull(next) {
			stack = append(stack, outlineFrame{node: next, level: frame.level})
		}
		if first := node.Get("First"); !wrapper.IsNull(first) {
			stack = append(stack, outlineFrame{node: first, level: frame.level + 1})
		}
	}

	return toc, skips
}

// title decodes the Title entry. Missing titles are empty; undecodable ones
// are empty and reported.
func (w *outlineWalker) title(node wrapper.Dict) (string, *errors.PDFError) {
	obj := node.Get("Title")
	if wrapper.IsNull(obj) {
		return "", nil
	}
	resolved, err := w.graph.Resolve(obj)
	if err != nil {
		return "", errors.WrapError(errors.ErrorTypeMissingObject, "outline title", err)
	}
	s, ok := resolved.(wrapper.String)
	if !ok {
		return "", errors.NewPDFErrorWithContext(errors.ErrorTypeInvalidEncoding, "outline title is not a string", resolved.Kind().String())
	}
	text, err := s.Text()
	if err != nil {
		return "", errors.WrapError(errors.ErrorTypeInvalidEncoding, "outline title", err)
	}
	return text, nil
}

// target resolves the node's Dest entry, or the D entry of a GoTo action when
// there is no Dest.
func (w *outlineWalker) target(node wrapper.Dict) (int, bool) {
	if dest := node.Get("Dest"); !wrapper.IsNull(dest) {
		return ResolveDestination(w.graph, dest, w.index)
	}
	action := ParseAction(w.graph, node.Get("A"))
	if action.Kind == ActionGoTo {
		return w.index.Resolve(action.Dest)
	}
	return 0, false
}
