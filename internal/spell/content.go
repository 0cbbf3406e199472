package spell

import (
	"strings"

	"github.com/dgallion1/grimoire/internal/doctree"
)

// contentState walks the spell body after the four field paragraphs.
type contentState struct{ x *extraction }

func (s contentState) visit(n *doctree.Node) (step, error) {
	switch n.Kind {
	case doctree.KindBulletList:
		return moveTo(InList), nil
	case doctree.KindTable:
		return moveTo(InTable), nil
	case doctree.KindStrong:
		return moveTo(InHeading), nil
	case doctree.KindParagraph:
		return proceed, nil
	case doctree.KindText:
		s.x.appendContent(Paragraph{Text: strings.TrimSpace(n.Text)})
		return proceed, nil
	}
	return unhandled(AwaitContent, n)
}

func (contentState) depart(*doctree.Node) (step, error) { return proceed, nil }

type listState struct{ x *extraction }

func (s listState) visit(n *doctree.Node) (step, error) {
	switch n.Kind {
	case doctree.KindListItem, doctree.KindParagraph:
		return proceed, nil
	case doctree.KindText:
		s.x.appendContent(ListItem{Text: strings.TrimSpace(n.Text)})
		return proceed, nil
	}
	return unhandled(InList, n)
}

func (listState) depart(n *doctree.Node) (step, error) {
	if n.Kind == doctree.KindBulletList {
		return moveTo(AwaitContent), nil
	}
	return proceed, nil
}

// headingState turns a bold run in the body into a heading. Unlike
// labelState it accepts any text.
type headingState struct{ x *extraction }

func (s headingState) visit(n *doctree.Node) (step, error) {
	if n.Kind == doctree.KindText {
		s.x.appendContent(Heading{Text: strings.TrimSpace(n.Text)})
		return proceed, nil
	}
	return unhandled(InHeading, n)
}

func (headingState) depart(n *doctree.Node) (step, error) {
	if n.Kind == doctree.KindStrong {
		return moveTo(AwaitContent), nil
	}
	return proceed, nil
}

// tableState collects heading and row text. The collected table is only
// appended to the content when tables are enabled.
type tableState struct {
	x         *extraction
	inHeading bool
	heading   []string
	rows      [][]string
}

func (s *tableState) visit(n *doctree.Node) (step, error) {
	switch n.Kind {
	case doctree.KindTGroup, doctree.KindColSpec, doctree.KindTBody,
		doctree.KindEntry, doctree.KindParagraph:
		return proceed, nil
	case doctree.KindTHead:
		s.inHeading = true
		return proceed, nil
	case doctree.KindRow:
		if !s.inHeading {
			s.rows = append(s.rows, []string{})
		}
		return proceed, nil
	case doctree.KindText:
		text := strings.TrimSpace(n.Text)
		if s.inHeading {
			s.heading = append(s.heading, text)
			return proceed, nil
		}
		if len(s.rows) == 0 {
			s.rows = append(s.rows, []string{})
		}
		last := len(s.rows) - 1
		s.rows[last] = append(s.rows[last], text)
		return proceed, nil
	}
	return unhandled(InTable, n)
}

func (s *tableState) depart(n *doctree.Node) (step, error) {
	switch n.Kind {
	case doctree.KindTHead:
		s.inHeading = false
	case doctree.KindTable:
		if s.x.opts.tables {
			s.x.appendContent(Table{Heading: s.heading, Rows: s.rows})
		}
		return moveTo(AwaitContent), nil
	}
	return proceed, nil
}

func (x *extraction) appendContent(c ContentBlock) {
	x.spell.Content = append(x.spell.Content, c)
}
