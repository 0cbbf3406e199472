package parser

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/dgallion1/grimoire/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files, including docutils' own HTML writer
// output. Headings open sections; an empty <span id> or <a name> becomes
// a hyperlink target.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.Node, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := newDocument(filename)
	if title := findTitle(root); title != "" {
		doc.Set("title", title)
	}

	c := &htmlConverter{stack: newSectionStack(doc)}
	add := func(n *doctree.Node) { c.stack.top().Append(n) }

	// Find <body> or use whole document.
	if body := findBody(root); body != nil {
		c.blocks(body, add, true)
	} else {
		c.blocks(root, add, true)
	}
	return doc, nil
}

var skipTags = map[string]bool{
	"script": true, "style": true, "nav": true, "footer": true,
	"header": true, "head": true, "title": true, "noscript": true,
}

// containerTags are walked through as if their children were inline in
// the parent.
var containerTags = map[string]bool{
	"body": true, "div": true, "section": true, "article": true,
	"main": true, "center": true, "form": true, "aside": true,
}

type htmlConverter struct {
	stack *sectionStack
}

// blocks converts the children of n to block nodes passed to add. Loose
// inline content between blocks is gathered into paragraphs. Headings
// open sections only when top is set.
func (c *htmlConverter) blocks(n *html.Node, add func(*doctree.Node), top bool) {
	var pending []*doctree.Node
	flush := func() {
		if para := paragraph(pending); para != nil {
			add(para)
		}
		pending = nil
	}

	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type == html.TextNode {
			pending = appendText(pending, collapseSpace(ch.Data))
			continue
		}
		if ch.Type != html.ElementNode {
			continue
		}
		if name, ok := targetName(ch); ok {
			flush()
			add(newTarget(name))
			continue
		}

		tag := ch.Data
		switch {
		case skipTags[tag]:

		case headingLevel(tag) > 0:
			flush()
			inl := trimInline(c.inlines(ch))
			if !top {
				if len(inl) > 0 {
					add(doctree.New(doctree.KindParagraph, inl...))
				}
				continue
			}
			title := doctree.New(doctree.KindTitle, inl...)
			c.stack.push(newSection(title, sectionID(ch)), headingLevel(tag))

		case containerTags[tag]:
			flush()
			c.blocks(ch, add, top)

		case tag == "p":
			flush()
			if para := paragraph(c.inlines(ch)); para != nil {
				add(para)
			}

		case tag == "ul" || tag == "ol":
			flush()
			kind := doctree.KindBulletList
			if tag == "ol" {
				kind = doctree.KindEnumeratedList
			}
			list := doctree.New(kind)
			for li := ch.FirstChild; li != nil; li = li.NextSibling {
				if li.Type == html.ElementNode && li.Data == "li" {
					item := doctree.New(doctree.KindListItem)
					c.blocks(li, func(b *doctree.Node) { item.Append(b) }, false)
					list.Append(item)
				}
			}
			add(list)

		case tag == "blockquote":
			flush()
			bq := doctree.New(doctree.KindBlockQuote)
			c.blocks(ch, func(b *doctree.Node) { bq.Append(b) }, false)
			add(bq)

		case tag == "pre":
			flush()
			add(doctree.New(doctree.KindLiteralBlock, doctree.NewText(strings.Trim(rawText(ch), "\n"))))

		case tag == "hr":
			flush()
			add(doctree.New(doctree.KindTransition))

		case tag == "table":
			flush()
			add(c.table(ch))

		default:
			pending = append(pending, c.inline(ch)...)
		}
	}
	flush()
}

func (c *htmlConverter) table(t *html.Node) *doctree.Node {
	var header [][]*doctree.Node
	var body [][][]*doctree.Node

	var rows func(n *html.Node, inHead bool)
	rows = func(n *html.Node, inHead bool) {
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			if ch.Type != html.ElementNode {
				continue
			}
			switch ch.Data {
			case "thead":
				rows(ch, true)
			case "tbody", "tfoot":
				rows(ch, false)
			case "tr":
				var cells [][]*doctree.Node
				allHeader := true
				for cell := ch.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.Type != html.ElementNode || (cell.Data != "td" && cell.Data != "th") {
						continue
					}
					if cell.Data == "td" {
						allHeader = false
					}
					entry := doctree.New(doctree.KindEntry)
					c.blocks(cell, func(b *doctree.Node) { entry.Append(b) }, false)
					cells = append(cells, entry.Children)
				}
				if header == nil && body == nil && (inHead || (allHeader && len(cells) > 0)) {
					header = cells
				} else {
					body = append(body, cells)
				}
			}
		}
	}
	rows(t, false)
	return tableNode(header, body)
}

func (c *htmlConverter) inlines(n *html.Node) []*doctree.Node {
	var out []*doctree.Node
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		switch ch.Type {
		case html.TextNode:
			out = appendText(out, collapseSpace(ch.Data))
		case html.ElementNode:
			for _, sub := range c.inline(ch) {
				if sub.Kind == doctree.KindText {
					out = appendText(out, sub.Text)
				} else {
					out = append(out, sub)
				}
			}
		}
	}
	return out
}

func (c *htmlConverter) inline(n *html.Node) []*doctree.Node {
	switch n.Data {
	case "strong", "b":
		return []*doctree.Node{doctree.New(doctree.KindStrong, c.inlines(n)...)}
	case "em", "i", "cite":
		return []*doctree.Node{doctree.New(doctree.KindEmphasis, c.inlines(n)...)}
	case "code", "tt", "kbd", "samp":
		return []*doctree.Node{doctree.New(doctree.KindLiteral, doctree.NewText(rawText(n)))}
	case "br":
		return []*doctree.Node{doctree.NewText("\n")}
	case "img":
		img := doctree.New(doctree.KindImage).Set("uri", attr(n.Attr, "src"))
		if alt := attr(n.Attr, "alt"); alt != "" {
			img.Set("alt", alt)
		}
		return []*doctree.Node{img}
	case "a":
		if href := attr(n.Attr, "href"); href != "" {
			return []*doctree.Node{doctree.New(doctree.KindReference, c.inlines(n)...).Set("refuri", href)}
		}
	}
	if skipTags[n.Data] {
		return nil
	}
	if _, ok := targetName(n); ok {
		return nil
	}
	return c.inlines(n)
}

// voidTags never have content, so being empty says nothing about them.
var voidTags = map[string]bool{
	"img": true, "br": true, "hr": true, "input": true, "wbr": true,
	"col": true, "area": true, "embed": true, "source": true,
}

// targetName reports whether n is an empty element carrying an id or
// name, as docutils writes hyperlink targets. Older writers use <a name>,
// newer ones <span id> or <div id>.
func targetName(n *html.Node) (string, bool) {
	if voidTags[n.Data] || skipTags[n.Data] {
		return "", false
	}
	if attr(n.Attr, "href") != "" || strings.TrimSpace(rawText(n)) != "" {
		return "", false
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type == html.ElementNode {
			return "", false
		}
	}
	if name := attr(n.Attr, "name"); name != "" {
		return name, true
	}
	if id := attr(n.Attr, "id"); id != "" {
		return id, true
	}
	return "", false
}

// sectionID prefers the id of a wrapping section element, as docutils
// writes <div class="section" id="...">, then the heading's own id.
func sectionID(h *html.Node) string {
	if p := h.Parent; p != nil && (p.Data == "section" || p.Data == "div") {
		if first := firstElement(p); first == h {
			if id := attr(p.Attr, "id"); id != "" {
				return id
			}
		}
	}
	return attr(h.Attr, "id")
}

func firstElement(n *html.Node) *html.Node {
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type == html.ElementNode {
			if _, ok := targetName(ch); ok {
				continue
			}
			return ch
		}
	}
	return nil
}

// paragraph wraps inline nodes, trimming outer whitespace. It returns nil
// when nothing but whitespace remains.
func paragraph(inl []*doctree.Node) *doctree.Node {
	inl = trimInline(inl)
	if len(inl) == 0 {
		return nil
	}
	return doctree.New(doctree.KindParagraph, inl...)
}

func trimInline(inl []*doctree.Node) []*doctree.Node {
	if len(inl) > 0 && inl[0].Kind == doctree.KindText {
		inl[0].Text = strings.TrimLeftFunc(inl[0].Text, unicode.IsSpace)
		if inl[0].Text == "" {
			inl = inl[1:]
		}
	}
	if k := len(inl); k > 0 && inl[k-1].Kind == doctree.KindText {
		inl[k-1].Text = strings.TrimRightFunc(inl[k-1].Text, unicode.IsSpace)
		if inl[k-1].Text == "" {
			inl = inl[:k-1]
		}
	}
	return inl
}

func appendText(out []*doctree.Node, s string) []*doctree.Node {
	if s == "" {
		return out
	}
	if k := len(out); k > 0 && out[k-1].Kind == doctree.KindText {
		out[k-1].Text += s
		return out
	}
	return append(out, doctree.NewText(s))
}

// collapseSpace folds runs of HTML whitespace into single spaces.
func collapseSpace(s string) string {
	var sb strings.Builder
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			sb.WriteByte(' ')
			space = false
		}
		sb.WriteRune(r)
	}
	if space {
		sb.WriteByte(' ')
	}
	return sb.String()
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

// rawText returns the unmodified text under n.
func rawText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return strings.TrimSpace(rawText(n))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
