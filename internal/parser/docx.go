package parser

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/grimoire/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Word has no hyperlink target that
// survives a round trip, so the document opens with a target named after
// the file. Heading styles open sections, bold runs become strong nodes
// and numbered paragraphs become list items.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*doctree.Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	root := newDocument(filename)
	base := filepath.Base(filename)
	root.Append(newTarget(strings.TrimSuffix(base, filepath.Ext(base))))

	stack := newSectionStack(root)
	var list *doctree.Node

	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			// Check if paragraph has a heading style.
			if level := docxHeadingLevel(it); level > 0 {
				if text := docxParagraphText(it); text != "" {
					list = nil
					title := doctree.New(doctree.KindTitle, doctree.NewText(text))
					stack.push(newSection(title, ""), level)
					continue
				}
			}

			para := docxParagraph(it)
			if para == nil {
				continue
			}
			if it.Properties != nil && it.Properties.NumProperties != nil {
				if list == nil {
					list = doctree.New(doctree.KindBulletList).Set("bullet", "*")
					stack.top().Append(list)
				}
				list.Append(doctree.New(doctree.KindListItem, para))
				continue
			}
			list = nil
			stack.top().Append(para)

		case *docx.Table:
			list = nil
			stack.top().Append(docxTable(it))
		}
	}
	return root, nil
}

func docxTable(t *docx.Table) *doctree.Node {
	var header [][]*doctree.Node
	var body [][][]*doctree.Node
	for i, row := range t.TableRows {
		cells := make([][]*doctree.Node, 0, len(row.TableCells))
		for _, cell := range row.TableCells {
			var content []*doctree.Node
			for _, p := range cell.Paragraphs {
				if para := docxParagraph(p); para != nil {
					content = append(content, para)
				}
			}
			cells = append(cells, content)
		}
		if i == 0 {
			header = cells
		} else {
			body = append(body, cells)
		}
	}
	return tableNode(header, body)
}

// docxParagraph converts the runs of p, merging neighbours with the same
// weight. Returns nil for an empty paragraph.
func docxParagraph(p *docx.Paragraph) *doctree.Node {
	var inl []*doctree.Node
	for _, child := range p.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		text := docxRunText(run)
		if text == "" {
			continue
		}
		bold := run.RunProperties != nil && run.RunProperties.Bold != nil

		last := len(inl) - 1
		switch {
		case bold && last >= 0 && inl[last].Kind == doctree.KindStrong:
			inl[last].Children[0].Text += text
		case bold:
			inl = append(inl, doctree.New(doctree.KindStrong, doctree.NewText(text)))
		case last >= 0 && inl[last].Kind == doctree.KindText:
			inl[last].Text += text
		default:
			inl = append(inl, doctree.NewText(text))
		}
	}
	inl = trimInline(inl)
	if len(inl) == 0 {
		return nil
	}
	return doctree.New(doctree.KindParagraph, inl...)
}

func docxRunText(run *docx.Run) string {
	var buf strings.Builder
	for _, rc := range run.Children {
		switch t := rc.(type) {
		case *docx.Text:
			buf.WriteString(t.Text)
		case *docx.Tab:
			buf.WriteByte('\t')
		}
	}
	return buf.String()
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := para.Properties.Style.Val
	switch {
	case strings.EqualFold(style, "Heading1") || strings.EqualFold(style, "heading 1"):
		return 1
	case strings.EqualFold(style, "Heading2") || strings.EqualFold(style, "heading 2"):
		return 2
	case strings.EqualFold(style, "Heading3") || strings.EqualFold(style, "heading 3"):
		return 3
	case strings.EqualFold(style, "Heading4") || strings.EqualFold(style, "heading 4"):
		return 4
	case strings.EqualFold(style, "Heading5") || strings.EqualFold(style, "heading 5"):
		return 5
	case strings.EqualFold(style, "Heading6") || strings.EqualFold(style, "heading 6"):
		return 6
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		if run, ok := child.(*docx.Run); ok {
			buf.WriteString(docxRunText(run))
		}
	}
	return strings.TrimSpace(buf.String())
}
