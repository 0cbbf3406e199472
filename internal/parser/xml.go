package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/grimoire/internal/doctree"
)

// XMLParser reads the docutils XML serialization ("rst2xml" output). It
// is the exact tree docutils builds, so it is the reference front-end
// for checking the others.
type XMLParser struct{}

// textElements keep whitespace-only character data; elsewhere it is
// formatting between elements.
var textElements = map[string]bool{
	doctree.KindParagraph:    true,
	doctree.KindTitle:        true,
	doctree.KindStrong:       true,
	doctree.KindEmphasis:     true,
	doctree.KindLiteral:      true,
	doctree.KindLiteralBlock: true,
	doctree.KindReference:    true,
	doctree.KindComment:      true,
	doctree.KindRaw:          true,
	"subtitle":               true,
	"title_reference":        true,
	"inline":                 true,
}

func (p *XMLParser) Parse(r io.Reader, filename string) (*doctree.Node, error) {
	dec := xml.NewDecoder(r)

	var root *doctree.Node
	var stack []*doctree.Node
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := doctree.New(t.Name.Local)
			for _, a := range t.Attr {
				if doctree.ListAttributes[a.Name.Local] {
					n.Set(a.Name.Local, splitListAttribute(a.Value)...)
				} else {
					n.Set(a.Name.Local, a.Value)
				}
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("parse xml: multiple root elements")
				}
				root = n
			} else {
				stack[len(stack)-1].Append(n)
			}
			stack = append(stack, n)

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			parent := stack[len(stack)-1]
			text := string(t)
			if strings.TrimSpace(text) == "" && !textElements[parent.Kind] {
				continue
			}
			if k := len(parent.Children); k > 0 && parent.Children[k-1].Kind == doctree.KindText {
				parent.Children[k-1].Text += text
				continue
			}
			parent.Append(doctree.NewText(text))
		}
	}

	if root == nil {
		return nil, fmt.Errorf("parse xml: empty document")
	}
	if root.Kind != doctree.KindDocument {
		return nil, fmt.Errorf("parse xml: root element is %q, want %q", root.Kind, doctree.KindDocument)
	}
	if root.Attributes.Get("source") == "" {
		root.Set("source", filename)
	}
	return root, nil
}

// splitListAttribute splits on unescaped spaces and unescapes "\ ".
func splitListAttribute(v string) []string {
	var out []string
	var cur strings.Builder
	for i := 0; i < len(v); i++ {
		switch {
		case v[i] == '\\' && i+1 < len(v):
			cur.WriteByte(v[i+1])
			i++
		case v[i] == ' ':
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(v[i])
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}
