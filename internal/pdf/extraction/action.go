package extraction

import (
	"strings"
	"unicode/utf8"

	"github.com/a3tai/mcp-pdf-linkcheck/internal/pdf/wrapper"
)

const utf8BOM = "\xEF\xBB\xBF"

// ActionKind is the tag of an Action
type ActionKind int

const (
	// ActionNone means the annotation carries no action dictionary
	ActionNone ActionKind = iota
	ActionURI
	ActionGoTo
	ActionGoToR
	ActionOther
)

// Action is a decoded action dictionary. Only the fields of its kind are set.
type Action struct {
	Kind ActionKind

	// Type is the S entry as written in the document
	Type string

	// URI is set for ActionURI; empty when it was missing or unreadable
	URI string

	// File is set for ActionGoToR; empty when it was missing or unreadable
	File string

	// Dest is set for ActionGoTo and ActionGoToR
	Dest Destination

	// HasDest reports whether a D entry was present
	HasDest bool
}

// ParseAction decodes the action dictionary obj, which may be a reference.
func ParseAction(g wrapper.ObjectGraph, obj wrapper.Object) Action {
	if wrapper.IsNull(obj) {
		return Action{Kind: ActionNone}
	}

	resolved, err := g.Resolve(obj)
	if err != nil {
		return Action{Kind: ActionNone}
	}
	dict, ok := resolved.(wrapper.Dict)
	if !ok {
		return Action{Kind: ActionNone}
	}

	typ, _ := resolveName(g, dict.Get("S"))
	action := Action{Type: typ}

	switch typ {
	case "URI":
		action.Kind = ActionURI
		action.URI, _ = resolveURI(g, dict.Get("URI"))
	case "GoTo":
		action.Kind = ActionGoTo
		action.Dest, action.HasDest = parseActionDest(g, dict)
	case "GoToR":
		action.Kind = ActionGoToR
		action.File = fileSpecName(g, dict.Get("F"))
		action.Dest, action.HasDest = parseActionDest(g, dict)
	default:
		action.Kind = ActionOther
	}
	return action
}

func parseActionDest(g wrapper.ObjectGraph, dict wrapper.Dict) (Destination, bool) {
	d := dict.Get("D")
	if wrapper.IsNull(d) {
		return Destination{}, false
	}
	return ParseDestination(g, d), true
}

// fileSpecName returns the file named by a file specification, which is
// either a string or a dictionary with UF or F entries.
func fileSpecName(g wrapper.ObjectGraph, obj wrapper.Object) string {
	resolved, err := g.Resolve(obj)
	if err != nil || resolved == nil {
		return ""
	}
	switch v := resolved.(type) {
	case wrapper.String:
		name, _ := resolveText(g, v)
		return name
	case wrapper.Dict:
		for _, key := range []string{"UF", "F", "Unix", "DOS", "Mac"} {
			if name, ok := resolveText(g, v.Get(key)); ok && name != "" {
				return name
			}
		}
	}
	return ""
}

func resolveName(g wrapper.ObjectGraph, obj wrapper.Object) (string, bool) {
	if obj == nil {
		return "", false
	}
	resolved, err := g.Resolve(obj)
	if err != nil {
		return "", false
	}
	n, ok := resolved.(wrapper.Name)
	return string(n), ok
}

// resolveURI reads a URI entry. URIs are byte strings, so UTF-8 bytes are
// taken as they are; anything else is decoded as a text string.
func resolveURI(g wrapper.ObjectGraph, obj wrapper.Object) (string, bool) {
	if obj == nil {
		return "", false
	}
	resolved, err := g.Resolve(obj)
	if err != nil {
		return "", false
	}
	s, ok := resolved.(wrapper.String)
	if !ok {
		return "", false
	}
	if raw := string(s); utf8.ValidString(raw) && !strings.HasPrefix(raw, utf8BOM) {
		return raw, true
	}
	text, err := s.Text()
	if err != nil {
		return "", false
	}
	return text, true
}

// resolveText decodes a text string entry. It reports false when the entry is
// missing, is not a string or cannot be decoded.
func resolveText(g wrapper.ObjectGraph, obj wrapper.Object) (string, bool) {
	if obj == nil {
		return "", false
	}
	resolved, err := g.Resolve(obj)
	if err != nil {
		return "", false
	}
	s, ok := resolved.(wrapper.String)
	if !ok {
		return "", false
	}
	text, err := s.Text()
	if err != nil {
		return "", false
	}
	return text, true
}
