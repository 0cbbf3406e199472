package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/grimoire/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
)

// MarkdownParser handles Markdown files using goldmark. Headings nest
// into sections by level; "**label:**" runs become strong nodes, so a
// spell written in Markdown walks exactly like its reStructuredText twin.
// An HTML anchor block (<a name="..."></a>) stands in for a hyperlink
// target.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.Node, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	root := md.Parser().Parse(text.NewReader(src))

	doc := newDocument(filename)
	c := &mdConverter{src: src}
	stack := newSectionStack(doc)

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok {
			title := doctree.New(doctree.KindTitle, c.inlines(h)...)
			stack.push(newSection(title, ""), h.Level)
			continue
		}
		if b := c.block(n); b != nil {
			stack.top().Append(b)
		}
	}
	return doc, nil
}

type mdConverter struct {
	src []byte
}

func (c *mdConverter) blocks(parent ast.Node) []*doctree.Node {
	var out []*doctree.Node
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if b := c.block(n); b != nil {
			out = append(out, b)
		}
	}
	return out
}

func (c *mdConverter) block(n ast.Node) *doctree.Node {
	switch node := n.(type) {
	case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
		// An anchor on a line of its own parses as inline HTML.
		if name := anchorName(c.rawOnly(node)); name != "" {
			return newTarget(name)
		}
		inl := c.inlines(node)
		if len(inl) == 0 {
			return nil
		}
		return doctree.New(doctree.KindParagraph, inl...)

	case *ast.List:
		kind := doctree.KindBulletList
		if node.IsOrdered() {
			kind = doctree.KindEnumeratedList
		}
		list := doctree.New(kind)
		for item := node.FirstChild(); item != nil; item = item.NextSibling() {
			list.Append(doctree.New(doctree.KindListItem, c.blocks(item)...))
		}
		return list

	case *ast.Blockquote:
		return doctree.New(doctree.KindBlockQuote, c.blocks(node)...)

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		code := strings.TrimRight(c.lines(node), "\n")
		return doctree.New(doctree.KindLiteralBlock, doctree.NewText(code))

	case *ast.ThematicBreak:
		return doctree.New(doctree.KindTransition)

	case *ast.HTMLBlock:
		raw := c.lines(node)
		if node.HasClosure() {
			raw += string(node.ClosureLine.Value(c.src))
		}
		if name := anchorName(raw); name != "" {
			return newTarget(name)
		}
		return doctree.New(doctree.KindRaw, doctree.NewText(strings.TrimRight(raw, "\n"))).Set("format", "html")

	case *east.Table:
		return c.table(node)
	}
	return nil
}

func (c *mdConverter) table(t *east.Table) *doctree.Node {
	var header [][]*doctree.Node
	var body [][][]*doctree.Node
	for r := t.FirstChild(); r != nil; r = r.NextSibling() {
		var cells [][]*doctree.Node
		for cell := r.FirstChild(); cell != nil; cell = cell.NextSibling() {
			var content []*doctree.Node
			if inl := c.inlines(cell); len(inl) > 0 {
				content = []*doctree.Node{doctree.New(doctree.KindParagraph, inl...)}
			}
			cells = append(cells, content)
		}
		if _, ok := r.(*east.TableHeader); ok {
			header = cells
		} else {
			body = append(body, cells)
		}
	}
	return tableNode(header, body)
}

// inlines converts the inline children of n. Adjacent text segments are
// merged into a single text node, with line breaks kept as "\n".
func (c *mdConverter) inlines(n ast.Node) []*doctree.Node {
	var out []*doctree.Node
	addText := func(s string) {
		if k := len(out); k > 0 && out[k-1].Kind == doctree.KindText {
			out[k-1].Text += s
			return
		}
		out = append(out, doctree.NewText(s))
	}

	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch node := child.(type) {
		case *ast.Text:
			s := string(node.Segment.Value(c.src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				s += "\n"
			}
			addText(s)
		case *ast.String:
			addText(string(node.Value))
		case *ast.Emphasis:
			kind := doctree.KindEmphasis
			if node.Level >= 2 {
				kind = doctree.KindStrong
			}
			out = append(out, doctree.New(kind, c.inlines(node)...))
		case *ast.CodeSpan:
			out = append(out, doctree.New(doctree.KindLiteral, doctree.NewText(c.plain(node))))
		case *ast.Link:
			ref := doctree.New(doctree.KindReference, c.inlines(node)...)
			out = append(out, ref.Set("refuri", string(node.Destination)))
		case *ast.AutoLink:
			url := string(node.URL(c.src))
			out = append(out, doctree.New(doctree.KindReference, doctree.NewText(url)).Set("refuri", url))
		case *ast.Image:
			out = append(out, doctree.New(doctree.KindImage).
				Set("uri", string(node.Destination)).
				Set("alt", c.plain(node)))
		case *ast.RawHTML:
			var buf bytes.Buffer
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				buf.Write(seg.Value(c.src))
			}
			out = append(out, doctree.New(doctree.KindRaw, doctree.NewText(buf.String())).Set("format", "html"))
		default:
			for _, sub := range c.inlines(node) {
				if sub.Kind == doctree.KindText {
					addText(sub.Text)
				} else {
					out = append(out, sub)
				}
			}
		}
	}
	return out
}

// plain returns the text of n's descendants without markup.
func (c *mdConverter) plain(n ast.Node) string {
	var sb strings.Builder
	for _, sub := range c.inlines(n) {
		sb.WriteString(sub.AsText())
	}
	return sb.String()
}

// rawOnly returns the inline HTML of n when n holds nothing else but
// whitespace, or "".
func (c *mdConverter) rawOnly(n ast.Node) string {
	var buf bytes.Buffer
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch node := child.(type) {
		case *ast.RawHTML:
			for i := 0; i < node.Segments.Len(); i++ {
				seg := node.Segments.At(i)
				buf.Write(seg.Value(c.src))
			}
		case *ast.Text:
			if strings.TrimSpace(string(node.Segment.Value(c.src))) != "" {
				return ""
			}
		default:
			return ""
		}
	}
	return buf.String()
}

func (c *mdConverter) lines(n ast.Node) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(c.src))
	}
	return buf.String()
}

// anchorName returns the name (or id) of an empty anchor that makes up
// the whole of an HTML block, or "".
func anchorName(raw string) string {
	z := html.NewTokenizer(strings.NewReader(raw))
	name := ""
	for {
		switch z.Next() {
		case html.ErrorToken:
			return name
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "a" && tok.Data != "span" {
				return ""
			}
			if name != "" {
				return ""
			}
			name = attr(tok.Attr, "name")
			if name == "" {
				name = attr(tok.Attr, "id")
			}
			if name == "" {
				return ""
			}
		case html.TextToken:
			if strings.TrimSpace(string(z.Text())) != "" {
				return ""
			}
		}
	}
}

func attr(attrs []html.Attribute, key string) string {
	for _, a := range attrs {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
