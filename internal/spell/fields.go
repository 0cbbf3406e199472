package spell

import (
	"strings"

	"github.com/dgallion1/grimoire/internal/doctree"
)

type sourceState struct{ x *extraction }

func (s sourceState) visit(n *doctree.Node) (step, error) {
	if n.Kind != doctree.KindDocument {
		return unhandled(AwaitSource, n)
	}
	s.x.spell.Source = n.Attributes.Get("source")
	return moveTo(AwaitID), nil
}

func (sourceState) depart(*doctree.Node) (step, error) { return proceed, nil }

type idState struct{ x *extraction }

func (s idState) visit(n *doctree.Node) (step, error) {
	if n.Kind != doctree.KindTarget {
		return unhandled(AwaitID, n)
	}
	id, err := firstName(AwaitID, n)
	if err != nil {
		return proceed, err
	}
	s.x.spell.ID = id
	return moveTo(AwaitName), nil
}

func (idState) depart(*doctree.Node) (step, error) { return proceed, nil }

type nameState struct{ x *extraction }

func (s nameState) visit(n *doctree.Node) (step, error) {
	switch n.Kind {
	case doctree.KindSection, doctree.KindTitle:
		return proceed, nil
	case doctree.KindText:
		s.x.spell.Name = n.Text
		return proceed, nil
	}
	return unhandled(AwaitName, n)
}

func (nameState) depart(n *doctree.Node) (step, error) {
	if n.Kind == doctree.KindTitle {
		return moveTo(AwaitType), nil
	}
	return proceed, nil
}

type typeState struct{ x *extraction }

func (s typeState) visit(n *doctree.Node) (step, error) {
	switch n.Kind {
	case doctree.KindSection:
		category, err := firstName(AwaitType, n)
		if err != nil {
			return proceed, err
		}
		s.x.spell.Category = category
		return proceed, nil
	case doctree.KindTitle, doctree.KindText:
		return proceed, nil
	}
	return unhandled(AwaitType, n)
}

func (typeState) depart(n *doctree.Node) (step, error) {
	if n.Kind == doctree.KindTitle {
		return moveTo(AwaitCastingTime), nil
	}
	return proceed, nil
}

// labelState reads one "**Label:** value" paragraph. The bold run must
// match label exactly; the text after it is trimmed and handed to set.
type labelState struct {
	x     *extraction
	id    State
	label string
	next  State
	set   func(s *Spell, value string)
}

func (s labelState) visit(n *doctree.Node) (step, error) {
	switch n.Kind {
	case doctree.KindParagraph:
		return proceed, nil
	case doctree.KindStrong:
		if got := n.AsText(); got != s.label {
			return proceed, &UnexpectedLabelError{State: s.id, Want: s.label, Got: got}
		}
		return skipChildren, nil
	case doctree.KindText:
		s.set(s.x.spell, strings.TrimSpace(n.Text))
		return proceed, nil
	}
	return unhandled(s.id, n)
}

func (s labelState) depart(n *doctree.Node) (step, error) {
	if n.Kind == doctree.KindParagraph {
		return moveTo(s.next), nil
	}
	return proceed, nil
}

// firstName returns the first entry of the node's names list. Only the
// first counts; later entries are aliases.
func firstName(id State, n *doctree.Node) (string, error) {
	names := n.Attributes.List("names")
	if len(names) == 0 || names[0] == "" {
		return "", &MissingAttributeError{State: id, Kind: n.Kind, Attribute: "names"}
	}
	return names[0], nil
}
