package doctree

import "strings"

// Node kinds. The names follow the docutils node classes so that trees
// produced by any front-end look like a raw docutils parse.
const (
	KindDocument       = "document"
	KindTarget         = "target"
	KindSection        = "section"
	KindTitle          = "title"
	KindParagraph      = "paragraph"
	KindStrong         = "strong"
	KindEmphasis       = "emphasis"
	KindLiteral        = "literal"
	KindReference      = "reference"
	KindText           = "text"
	KindBulletList     = "bullet_list"
	KindEnumeratedList = "enumerated_list"
	KindListItem       = "list_item"
	KindTable          = "table"
	KindTGroup         = "tgroup"
	KindColSpec        = "colspec"
	KindTHead          = "thead"
	KindTBody          = "tbody"
	KindRow            = "row"
	KindEntry          = "entry"
	KindBlockQuote     = "block_quote"
	KindLiteralBlock   = "literal_block"
	KindComment        = "comment"
	KindTransition     = "transition"
	KindImage          = "image"
	KindProblematic    = "problematic"
	KindSystemMessage  = "system_message"
	KindRaw            = "raw"
)

// ListAttributes are the attribute names whose values are whitespace
// separated lists in docutils serializations.
var ListAttributes = map[string]bool{
	"ids":      true,
	"names":    true,
	"classes":  true,
	"dupnames": true,
	"backrefs": true,
}

// Attributes maps an attribute name to its values. Single-valued
// attributes hold a one-element slice.
type Attributes map[string][]string

// Get returns the first value of key, or "" when absent.
func (a Attributes) Get(key string) string {
	if v := a[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// List returns all values of key.
func (a Attributes) List(key string) []string {
	return a[key]
}

// Node is one element of a parsed document. Text is only meaningful for
// KindText nodes; every other kind carries Children.
type Node struct {
	Kind       string
	Attributes Attributes
	Text       string
	Children   []*Node
}

// New returns a node of the given kind with the given children.
func New(kind string, children ...*Node) *Node {
	return &Node{Kind: kind, Attributes: Attributes{}, Children: children}
}

// NewText returns a text leaf.
func NewText(s string) *Node {
	return &Node{Kind: KindText, Attributes: Attributes{}, Text: s}
}

// Set assigns values to an attribute and returns n for chaining.
func (n *Node) Set(key string, values ...string) *Node {
	if n.Attributes == nil {
		n.Attributes = Attributes{}
	}
	n.Attributes[key] = values
	return n
}

// Append adds children and returns n.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// AsText returns the concatenated text of n and its descendants in
// document order.
func (n *Node) AsText() string {
	if n.Kind == KindText {
		return n.Text
	}
	var sb strings.Builder
	n.writeText(&sb)
	return sb.String()
}

func (n *Node) writeText(sb *strings.Builder) {
	if n.Kind == KindText {
		sb.WriteString(n.Text)
		return
	}
	for _, c := range n.Children {
		c.writeText(sb)
	}
}

// NormalizeName folds a title into a docutils reference name:
// whitespace collapsed to single spaces, lower-cased.
func NormalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// MakeID derives a docutils-style identifier from a name: lower-case
// ASCII letters and digits, other runs collapsed into single hyphens.
func MakeID(s string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if dash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			dash = false
			sb.WriteRune(r)
		default:
			dash = true
		}
	}
	return sb.String()
}
