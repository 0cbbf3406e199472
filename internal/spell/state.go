package spell

import (
	"github.com/dgallion1/grimoire/internal/doctree"
)

// State identifies one step of the extraction state machine.
type State int

const (
	AwaitSource State = iota
	AwaitID
	AwaitName
	AwaitType
	AwaitCastingTime
	AwaitRange
	AwaitComponents
	AwaitDuration
	AwaitContent
	InList
	InHeading
	InTable
)

var stateNames = [...]string{
	AwaitSource:      "AwaitSource",
	AwaitID:          "AwaitID",
	AwaitName:        "AwaitName",
	AwaitType:        "AwaitType",
	AwaitCastingTime: "AwaitCastingTime",
	AwaitRange:       "AwaitRange",
	AwaitComponents:  "AwaitComponents",
	AwaitDuration:    "AwaitDuration",
	AwaitContent:     "AwaitContent",
	InList:           "InList",
	InHeading:        "InHeading",
	InTable:          "InTable",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "State(?)"
}

type stepKind int

const (
	stepContinue stepKind = iota
	stepSkipChildren
	stepTransition
)

// step is what a handler asks the dispatcher to do next.
type step struct {
	kind stepKind
	next State
}

var (
	proceed      = step{kind: stepContinue}
	skipChildren = step{kind: stepSkipChildren}
)

func moveTo(s State) step {
	return step{kind: stepTransition, next: s}
}

// handler is the per-state visit/depart pair.
type handler interface {
	visit(n *doctree.Node) (step, error)
	depart(n *doctree.Node) (step, error)
}

// extraction is shared by every state of one walk. Transitions hand the
// same pointer to the next state.
type extraction struct {
	spell *Spell
	opts  options
}

func newHandler(id State, x *extraction) handler {
	switch id {
	case AwaitSource:
		return sourceState{x}
	case AwaitID:
		return idState{x}
	case AwaitName:
		return nameState{x}
	case AwaitType:
		return typeState{x}
	case AwaitCastingTime:
		return labelState{x: x, id: id, label: "Casting Time:", next: AwaitRange,
			set: func(s *Spell, v string) { s.CastingTime = v }}
	case AwaitRange:
		return labelState{x: x, id: id, label: "Range:", next: AwaitComponents,
			set: func(s *Spell, v string) { s.Range = v }}
	case AwaitComponents:
		return labelState{x: x, id: id, label: "Components:", next: AwaitDuration,
			set: func(s *Spell, v string) { s.Components += v }}
	case AwaitDuration:
		return labelState{x: x, id: id, label: "Duration:", next: AwaitContent,
			set: func(s *Spell, v string) { s.Duration = v }}
	case AwaitContent:
		return contentState{x}
	case InList:
		return listState{x}
	case InHeading:
		return headingState{x}
	case InTable:
		return &tableState{x: x}
	}
	panic("spell: unknown state " + id.String())
}

// unhandled is the fallback for a visit no state handles. Parser
// diagnostics are skipped wholesale; anything else aborts.
func unhandled(id State, n *doctree.Node) (step, error) {
	switch n.Kind {
	case doctree.KindProblematic, doctree.KindSystemMessage:
		return skipChildren, nil
	}
	return proceed, &UnsupportedNodeKindError{State: id, Kind: n.Kind}
}
