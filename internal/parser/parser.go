package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/grimoire/internal/doctree"
)

// Parser converts raw document bytes into a document tree rooted at a
// KindDocument node whose "source" attribute is the filename.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.Node, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".rst":      true,
	".rest":     true,
	".txt":      true,
	".xml":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".rst", ".rest", ".txt":
		return &RSTParser{}, nil
	case ".xml":
		return &XMLParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

func newDocument(filename string) *doctree.Node {
	return doctree.New(doctree.KindDocument).Set("source", filename)
}

// newSection builds a section node with a title, named after the title
// text the way docutils names sections.
func newSection(title *doctree.Node, id string) *doctree.Node {
	name := doctree.NormalizeName(title.AsText())
	if id == "" {
		id = doctree.MakeID(name)
	}
	return doctree.New(doctree.KindSection, title).
		Set("ids", id).
		Set("names", name)
}

// newTarget builds an internal hyperlink target.
func newTarget(name string) *doctree.Node {
	return doctree.New(doctree.KindTarget).
		Set("ids", doctree.MakeID(name)).
		Set("names", doctree.NormalizeName(name))
}

// sectionStack nests sections by heading level. Level 0 is the root.
type sectionStack struct {
	entries []stackEntry
}

type stackEntry struct {
	node  *doctree.Node
	level int
}

func newSectionStack(root *doctree.Node) *sectionStack {
	return &sectionStack{entries: []stackEntry{{node: root, level: 0}}}
}

// push pops every entry at level or deeper, appends section to the
// remaining top, and makes it the new top.
func (s *sectionStack) push(section *doctree.Node, level int) {
	for len(s.entries) > 1 && s.entries[len(s.entries)-1].level >= level {
		s.entries = s.entries[:len(s.entries)-1]
	}
	s.top().Append(section)
	s.entries = append(s.entries, stackEntry{node: section, level: level})
}

func (s *sectionStack) top() *doctree.Node {
	return s.entries[len(s.entries)-1].node
}

// tableNode assembles the docutils table structure from header and body
// cells. Each cell is a list of body nodes.
func tableNode(header [][]*doctree.Node, body [][][]*doctree.Node) *doctree.Node {
	cols := len(header)
	for _, r := range body {
		if len(r) > cols {
			cols = len(r)
		}
	}
	tgroup := doctree.New(doctree.KindTGroup).Set("cols", fmt.Sprint(cols))
	for range cols {
		tgroup.Append(doctree.New(doctree.KindColSpec))
	}
	row := func(cells [][]*doctree.Node) *doctree.Node {
		r := doctree.New(doctree.KindRow)
		for _, c := range cells {
			r.Append(doctree.New(doctree.KindEntry, c...))
		}
		return r
	}
	if header != nil {
		tgroup.Append(doctree.New(doctree.KindTHead, row(header)))
	}
	tbody := doctree.New(doctree.KindTBody)
	for _, r := range body {
		tbody.Append(row(r))
	}
	tgroup.Append(tbody)
	return doctree.New(doctree.KindTable, tgroup)
}
