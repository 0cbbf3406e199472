package spell

import (
	"encoding/json"
	"reflect"
)

// tablePlaceholder is what a Table block renders as; tables have no
// element form yet.
const tablePlaceholder = "table not supported, sorry!"

// Spell is the record extracted from one spell document. Fields are
// filled in document order: Source, ID, Name, Category, CastingTime,
// Range, Components, Duration, then Content.
type Spell struct {
	Source      string
	ID          string
	Name        string
	Category    string
	CastingTime string
	Range       string
	Components  string
	Duration    string
	Content     []ContentBlock
}

// Element is the serialized form of a content block. Children holds
// strings and nested Elements.
type Element struct {
	Tag      string `json:"tag" yaml:"tag"`
	Children []any  `json:"children" yaml:"children"`
}

// ContentBlock is one unit of a spell's body. The set of implementations
// is closed: Paragraph, Heading, ListItem and Table.
type ContentBlock interface {
	Element() Element
	contentBlock()
}

// Paragraph is a run of body text.
type Paragraph struct {
	Text string
}

// Heading is a bold run in the body, rendered as a heading.
type Heading struct {
	Text string
}

// ListItem is one bullet. Adjacent items are not merged.
type ListItem struct {
	Text string
}

// Table is a body table. Rows do not include the heading.
type Table struct {
	Heading []string
	Rows    [][]string
}

func (Paragraph) contentBlock() {}
func (Heading) contentBlock()   {}
func (ListItem) contentBlock()  {}
func (Table) contentBlock()     {}

func (p Paragraph) Element() Element {
	return Element{Tag: "p", Children: []any{p.Text}}
}

func (h Heading) Element() Element {
	return Element{Tag: "h1", Children: []any{h.Text}}
}

func (l ListItem) Element() Element {
	return Element{Tag: "ul", Children: []any{
		Element{Tag: "li", Children: []any{l.Text}},
	}}
}

func (Table) Element() Element {
	return Element{Tag: "p", Children: []any{tablePlaceholder}}
}

type attributes struct {
	Type        string `json:"type" yaml:"type"`
	CastingTime string `json:"casting_time" yaml:"casting_time"`
	Range       string `json:"range" yaml:"range"`
	Components  string `json:"components" yaml:"components"`
	Duration    string `json:"duration" yaml:"duration"`
}

// document is the interchange shape shared by the JSON and YAML encodings.
type document struct {
	Type       string     `json:"type" yaml:"type"`
	Source     string     `json:"source" yaml:"source"`
	ID         string     `json:"id" yaml:"id"`
	Name       string     `json:"name" yaml:"name"`
	Attributes attributes `json:"attributes" yaml:"attributes"`
	Content    []Element  `json:"content" yaml:"content"`
}

func (s *Spell) document() document {
	content := make([]Element, 0, len(s.Content))
	for _, c := range s.Content {
		content = append(content, c.Element())
	}
	return document{
		Type:   "spell",
		Source: s.Source,
		ID:     s.ID,
		Name:   s.Name,
		Attributes: attributes{
			Type:        s.Category,
			CastingTime: s.CastingTime,
			Range:       s.Range,
			Components:  s.Components,
			Duration:    s.Duration,
		},
		Content: content,
	}
}

// MarshalJSON renders the spell in its interchange shape.
func (s *Spell) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.document())
}

// MarshalYAML renders the spell in the same shape as MarshalJSON.
func (s *Spell) MarshalYAML() (any, error) {
	return s.document(), nil
}

// Equal reports whether two spells hold the same fields and content.
func (s *Spell) Equal(o *Spell) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.Source != o.Source || s.ID != o.ID || s.Name != o.Name ||
		s.Category != o.Category || s.CastingTime != o.CastingTime ||
		s.Range != o.Range || s.Components != o.Components || s.Duration != o.Duration {
		return false
	}
	if len(s.Content) != len(o.Content) {
		return false
	}
	for i := range s.Content {
		if !reflect.DeepEqual(s.Content[i], o.Content[i]) {
			return false
		}
	}
	return true
}
