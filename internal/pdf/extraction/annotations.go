package extraction

import (
	"fmt"

	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/wrapper"
)

// linkCandidate is a link annotation that passed structural checks and is
// waiting for its anchor text.
type linkCandidate struct {
	record LinkRecord
	rect   wrapper.Rect
}

// pageLinks is the outcome of walking one page
type pageLinks struct {
	links []LinkRecord
	skips []*errors.PDFError
}

func (p *pageLinks) skip(err *errors.PDFError) {
	p.skips = append(p.skips, err)
}

// annotationWalker extracts link records from pages. It only reads shared
// state and may be used from several goroutines.
type annotationWalker struct {
	graph     wrapper.ObjectGraph
	layout    wrapper.TextLayout
	index     PageIndex
	tolerance float64
	matchText bool
}

// walkPage returns the link records of page in annotation order.
func (w *annotationWalker) walkPage(page wrapper.PageHandle) (out pageLinks) {
	defer func() {
		if r := recover(); r != nil {
			out = pageLinks{skips: []*errors.PDFError{
				errors.NewPDFError(errors.ErrorTypeMalformedPage, fmt.Sprintf("page walk panicked: %v", r)).
					WithPage(page.Number),
			}}
		}
	}()

	if page.ID == (wrapper.ObjectID{}) {
		out.skip(errors.NewPDFError(errors.ErrorTypeMalformedPage, "page has no object identity").WithPage(page.Number))
		return out
	}

	obj, err := w.graph.Resolve(wrapper.Reference(page.ID))
	if err != nil {
		out.skip(errors.WrapError(errors.ErrorTypeMissingObject, "page object", err).
			WithPage(page.Number).WithObject(page.ID.Number, page.ID.Generation))
		return out
	}
	pageDict, ok := obj.(wrapper.Dict)
	if !ok {
		out.skip(errors.NewPDFErrorWithContext(errors.ErrorTypeMalformedPage, "page object is not a dictionary", obj.Kind().String()).
			WithPage(page.Number).WithObject(page.ID.Number, page.ID.Generation))
		return out
	}

	annots := pageDict.Get("Annots")
	if wrapper.IsNull(annots) {
		return out
	}
	resolved, err := w.graph.Resolve(annots)
	if err != nil {
		out.skip(errors.WrapError(errors.ErrorTypeMissingObject, "annotation array", err).WithPage(page.Number))
		return out
	}
	entries, ok := resolved.(wrapper.Array)
	if !ok {
		out.skip(errors.NewPDFErrorWithContext(errors.ErrorTypeMalformedPage, "Annots is not an array", resolved.Kind().String()).
			WithPage(page.Number))
		return out
	}

	candidates := make([]linkCandidate, 0, len(entries))
	for _, entry := range entries {
		c, skipErr := w.candidate(page.Number, entry)
		if skipErr != nil {
			out.skip(skipErr.WithPage(page.Number))
			continue
		}
		if c != nil {
			candidates = append(candidates, *c)
		}
	}
	if len(candidates) == 0 {
		return out
	}

	var spans []wrapper.TextSpan
	if w.matchText {
		spans, err = w.layout.PageSpans(page.Number)
		if err != nil {
			out.skip(errors.WrapError(errors.ErrorTypeTextLayout, "text layout", err).WithPage(page.Number))
			spans = nil
		}
	}

	out.links = make([]LinkRecord, len(candidates))
	for i, c := range candidates {
		c.record.LinkText = MatchText(c.rect, spans, w.tolerance)
		out.links[i] = c.record
	}
	return out
}

// candidate builds the record for one Annots entry. It returns nil, nil for
// annotations that are not links.
func (w *annotationWalker) candidate(page int, entry wrapper.Object) (*linkCandidate, *errors.PDFError) {
	var xref, gen int
	if ref, ok := entry.(wrapper.Reference); ok {
		xref, gen = ref.Number, ref.Generation
	}

	obj, err := w.graph.Resolve(entry)
	if err != nil {
		return nil, errors.WrapError(errors.ErrorTypeMissingObject, "annotation", err).WithObject(xref, gen)
	}
	annot, ok := obj.(wrapper.Dict)
	if !ok {
		return nil, errors.NewPDFErrorWithContext(errors.ErrorTypeMalformedAnnotation, "annotation is not a dictionary", obj.Kind().String()).
			WithObject(xref, gen)
	}

	subtype, ok := resolveName(w.graph, annot.Get("Subtype"))
	if !ok {
		return nil, errors.NewPDFError(errors.ErrorTypeMalformedAnnotation, "annotation has no Subtype").WithObject(xref, gen)
	}
	if subtype != "Link" {
		return nil, nil
	}

	raw, perr := w.rect(annot)
	if perr != nil {
		return nil, perr.WithObject(xref, gen)
	}

	rect := NormalizeRect(raw)
	record := LinkRecord{
		Page: page,
		Rect: [4]float64{rect.MinX, rect.MinY, rect.MaxX, rect.MaxY},
		XRef: xref,
	}
	classifyLink(w.graph, annot, w.index, &record)

	return &linkCandidate{record: record, rect: rect}, nil
}

// rect reads the four numbers of the Rect entry. Anything short of four
// numbers rejects the annotation.
func (w *annotationWalker) rect(annot wrapper.Dict) ([4]float64, *errors.PDFError) {
	var out [4]float64

	obj := annot.Get("Rect")
	if wrapper.IsNull(obj) {
		return out, errors.NewPDFError(errors.ErrorTypeInvalidRect, "link has no Rect")
	}
	resolved, err := w.graph.Resolve(obj)
	if err != nil {
		return out, errors.WrapError(errors.ErrorTypeInvalidRect, "Rect", err)
	}
	arr, ok := resolved.(wrapper.Array)
	if !ok {
		return out, errors.NewPDFErrorWithContext(errors.ErrorTypeInvalidRect, "Rect is not an array", resolved.Kind().String())
	}
	if len(arr) != 4 {
		return out, errors.NewPDFError(errors.ErrorTypeInvalidRect, fmt.Sprintf("Rect has %d elements", len(arr)))
	}

	for i, item := range arr {
		v, err := w.graph.Resolve(item)
		if err != nil {
			return out, errors.WrapError(errors.ErrorTypeInvalidRect, fmt.Sprintf("Rect element %d", i), err)
		}
		n, ok := wrapper.Number(v)
		if !ok {
			return out, errors.NewPDFErrorWithContext(errors.ErrorTypeInvalidRect,
				fmt.Sprintf("Rect element %d is not a number", i), v.Kind().String())
		}
		out[i] = n
	}
	return out, nil
}

// classifyLink fills the type, target and action fields of record. An
// explicit Dest entry governs the link whether or not it resolves; the action
// dictionary is only read when there is no Dest.
func classifyLink(g wrapper.ObjectGraph, annot wrapper.Dict, idx PageIndex, record *LinkRecord) {
	if dest := annot.Get("Dest"); !wrapper.IsNull(dest) {
		record.ActionKind = "Dest"
		if page, ok := ResolveDestination(g, dest, idx); ok {
			setInternal(record, LinkTypeDest, page)
			return
		}
		record.Type = LinkTypeOther
		record.Target = UnknownTarget
		return
	}

	action := ParseAction(g, annot.Get("A"))
	if action.Kind != ActionNone {
		record.ActionKind = action.Type
	}

	switch action.Kind {
	case ActionURI:
		if action.URI != "" {
			record.Type = LinkTypeURI
			record.Target = action.URI
			record.URL = action.URI
			return
		}
	case ActionGoToR:
		if action.File != "" {
			record.Type = LinkTypeRemote
			record.Target = action.File
			record.RemoteFile = action.File
			if action.Dest.Kind == DestinationPageNumber {
				record.RemotePage = action.Dest.PageNumber + 1
			}
			return
		}
	case ActionGoTo:
		if page, ok := idx.Resolve(action.Dest); ok {
			setInternal(record, LinkTypeGoTo, page)
			return
		}
	}

	record.Type = LinkTypeOther
	record.Target = UnknownTarget
}

func setInternal(record *LinkRecord, t LinkType, page int) {
	record.Type = t
	record.Target = fmt.Sprintf("Page %d", page)
	record.DestinationPage = page
}
