package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dgallion1/grimoire/internal/doctree"
)

// RSTParser handles the reStructuredText subset spell sources are written
// in: hyperlink targets, comments, sections, paragraphs, bullet lists,
// block quotes, literal blocks, simple and grid tables, and the basic
// inline markup. No transforms run on the result, so a lone top-level
// section stays a section rather than becoming the document title.
type RSTParser struct{}

func (p *RSTParser) Parse(r io.Reader, filename string) (*doctree.Node, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		line := strings.ReplaceAll(scanner.Text(), "\t", "        ")
		lines = append(lines, strings.TrimRightFunc(line, unicode.IsSpace))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse rst: %w", err)
	}

	doc := newDocument(filename)
	rp := &rstParser{}
	rp.parse(lines, doc, newSectionStack(doc))
	return doc, nil
}

type adornment struct {
	char byte
	over bool
}

type rstParser struct {
	// styles holds section adornments in order of first appearance;
	// a style's index is its nesting level minus one.
	styles []adornment
}

func (p *rstParser) level(a adornment) int {
	for i, s := range p.styles {
		if s == a {
			return i + 1
		}
	}
	p.styles = append(p.styles, a)
	return len(p.styles)
}

// parse appends the block nodes of lines to parent. With a non-nil
// sections stack, section titles are recognised and later blocks go to
// the innermost open section.
func (p *rstParser) parse(lines []string, parent *doctree.Node, sections *sectionStack) {
	add := func(n *doctree.Node) {
		if sections != nil {
			sections.top().Append(n)
		} else {
			parent.Append(n)
		}
	}

	for i := 0; i < len(lines); {
		line := lines[i]
		switch {
		case line == "":
			i++

		case indentOf(line) > 0:
			end := indentedEnd(lines, i, 1)
			bq := doctree.New(doctree.KindBlockQuote)
			p.parse(dedent(lines[i:end]), bq, nil)
			add(bq)
			i = end

		case isExplicit(line):
			end := indentedEnd(lines, i+1, 1)
			add(p.explicit(lines[i:end]))
			i = end

		case isGridBorder(line):
			end := i
			for end < len(lines) && (strings.HasPrefix(lines[end], "+") || strings.HasPrefix(lines[end], "|")) {
				end++
			}
			add(p.gridTable(lines[i:end]))
			i = end

		case isSimpleBorder(line):
			end := simpleTableEnd(lines, i)
			add(p.simpleTable(lines[i:end]))
			i = end

		case bulletOf(line) != 0:
			list, end := p.bulletList(lines, i)
			add(list)
			i = end

		default:
			if sections != nil {
				if title, style, n, ok := sectionTitle(lines, i); ok {
					sections.push(newSection(titleNode(title), ""), p.level(style))
					i += n
					continue
				}
			}
			if isAdornment(line) && (i+1 == len(lines) || lines[i+1] == "") && len(line) >= 4 {
				add(doctree.New(doctree.KindTransition))
				i++
				continue
			}

			end := i
			for end < len(lines) && lines[end] != "" && indentOf(lines[end]) == 0 {
				end++
			}
			text := strings.Join(lines[i:end], "\n")
			i = end

			if !strings.HasSuffix(text, "::") {
				add(doctree.New(doctree.KindParagraph, inline(text)...))
				continue
			}
			// "text::" introduces a literal block.
			switch {
			case strings.TrimSpace(text) == "::":
			case strings.HasSuffix(text, " ::"):
				add(doctree.New(doctree.KindParagraph, inline(strings.TrimSuffix(text, " ::"))...))
			default:
				add(doctree.New(doctree.KindParagraph, inline(strings.TrimSuffix(text, ":"))...))
			}
			for i < len(lines) && lines[i] == "" {
				i++
			}
			if i < len(lines) && indentOf(lines[i]) > 0 {
				end := indentedEnd(lines, i, 1)
				literal := strings.Join(dedent(lines[i:end]), "\n")
				add(doctree.New(doctree.KindLiteralBlock, doctree.NewText(strings.TrimRight(literal, "\n"))))
				i = end
			}
		}
	}
}

// explicit handles a ".." block: hyperlink targets, the image directive,
// other directives (reported as errors), and comments.
func (p *rstParser) explicit(block []string) *doctree.Node {
	first := strings.TrimSpace(strings.TrimPrefix(block[0], ".."))

	if strings.HasPrefix(first, "_") {
		name, uri := splitTarget(first[1:])
		target := newTarget(name)
		if uri != "" {
			target.Set("refuri", uri)
		}
		return target
	}

	if idx := strings.Index(first, "::"); idx > 0 && !strings.ContainsAny(first[:idx], " `") {
		directive := first[:idx]
		arg := strings.TrimSpace(first[idx+2:])
		if directive == "image" {
			return doctree.New(doctree.KindImage).Set("uri", arg)
		}
		msg := doctree.New(doctree.KindSystemMessage,
			doctree.New(doctree.KindParagraph, doctree.NewText(fmt.Sprintf("Unknown directive type %q.", directive))),
			doctree.New(doctree.KindLiteralBlock, doctree.NewText(strings.Join(block, "\n"))),
		)
		return msg.Set("level", "3").Set("type", "ERROR")
	}

	body := []string{first}
	body = append(body, dedent(block[1:])...)
	return doctree.New(doctree.KindComment, doctree.NewText(strings.TrimSpace(strings.Join(body, "\n"))))
}

// splitTarget splits "name: uri" and "name:" forms. Names may contain
// colons; only a colon at the end or before whitespace ends the name.
func splitTarget(s string) (name, uri string) {
	if strings.HasPrefix(s, "`") {
		if end := strings.Index(s[1:], "`"); end >= 0 {
			name = s[1 : end+1]
			rest := strings.TrimPrefix(s[end+2:], ":")
			return name, strings.TrimSpace(rest)
		}
	}
	if idx := strings.Index(s, ": "); idx >= 0 {
		return s[:idx], strings.TrimSpace(s[idx+2:])
	}
	return strings.TrimSuffix(s, ":"), ""
}

func (p *rstParser) bulletList(lines []string, i int) (*doctree.Node, int) {
	char := bulletOf(lines[i])
	list := doctree.New(doctree.KindBulletList).Set("bullet", string(char))
	for i < len(lines) && bulletOf(lines[i]) == char {
		body := []string{strings.TrimLeft(lines[i][1:], " ")}
		end := indentedEnd(lines, i+1, 2)
		body = append(body, dedent(lines[i+1:end])...)

		item := doctree.New(doctree.KindListItem)
		p.parse(body, item, nil)
		list.Append(item)

		i = end
		next := i
		for next < len(lines) && lines[next] == "" {
			next++
		}
		if next < len(lines) && bulletOf(lines[next]) == char {
			i = next
		}
	}
	return list, i
}

func (p *rstParser) simpleTable(lines []string) *doctree.Node {
	spans := columnSpans(lines[0])
	var borders []int
	for i, l := range lines {
		if isSimpleBorder(l) {
			borders = append(borders, i)
		}
	}

	var header [][]*doctree.Node
	bodyStart := 1
	if len(borders) >= 3 {
		header = p.simpleRows(lines[1:borders[1]], spans)[0]
		bodyStart = borders[1] + 1
	}
	bodyEnd := len(lines)
	if len(borders) >= 2 {
		bodyEnd = borders[len(borders)-1]
	}
	var body [][][]*doctree.Node
	if bodyStart < bodyEnd {
		body = p.simpleRows(lines[bodyStart:bodyEnd], spans)
	}
	return tableNode(header, body)
}

// simpleRows splits lines into rows; a line whose first column is blank
// continues the previous row.
func (p *rstParser) simpleRows(lines []string, spans [][2]int) [][][]*doctree.Node {
	var texts [][]string
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		cells := make([]string, len(spans))
		for c, s := range spans {
			end := s[1]
			if c == len(spans)-1 || end > len(l) {
				end = len(l)
			}
			if s[0] < len(l) {
				cells[c] = strings.TrimSpace(l[s[0]:end])
			}
		}
		if cells[0] == "" && len(texts) > 0 {
			prev := texts[len(texts)-1]
			for c := range cells {
				if cells[c] != "" {
					prev[c] = strings.TrimSpace(prev[c] + "\n" + cells[c])
				}
			}
			continue
		}
		texts = append(texts, cells)
	}
	if len(texts) == 0 {
		texts = [][]string{make([]string, len(spans))}
	}

	rows := make([][][]*doctree.Node, len(texts))
	for r, cells := range texts {
		rows[r] = make([][]*doctree.Node, len(cells))
		for c, text := range cells {
			rows[r][c] = p.cell([]string{text})
		}
	}
	return rows
}

func (p *rstParser) gridTable(lines []string) *doctree.Node {
	var bounds []int
	for i := 0; i < len(lines[0]); i++ {
		if lines[0][i] == '+' {
			bounds = append(bounds, i)
		}
	}

	var header [][]*doctree.Node
	var body [][][]*doctree.Node
	var current [][]string
	flush := func(isHeader bool) {
		if current == nil {
			return
		}
		row := make([][]*doctree.Node, len(current))
		for c, cellLines := range current {
			row[c] = p.cell(dedent(cellLines))
		}
		if isHeader && header == nil && body == nil {
			header = row
		} else {
			body = append(body, row)
		}
		current = nil
	}

	for _, l := range lines[1:] {
		if strings.HasPrefix(l, "+") {
			flush(strings.Contains(l, "="))
			continue
		}
		if current == nil {
			current = make([][]string, len(bounds)-1)
		}
		for c := 0; c+1 < len(bounds); c++ {
			start, end := bounds[c]+1, bounds[c+1]
			if start >= len(l) {
				continue
			}
			if end > len(l) {
				end = len(l)
			}
			current[c] = append(current[c], strings.TrimRight(l[start:end], " "))
		}
	}
	flush(false)
	return tableNode(header, body)
}

// cell parses the content of a table cell as body elements.
func (p *rstParser) cell(lines []string) []*doctree.Node {
	entry := doctree.New(doctree.KindEntry)
	p.parse(trimBlank(lines), entry, nil)
	return entry.Children
}

func titleNode(text string) *doctree.Node {
	return doctree.New(doctree.KindTitle, inline(text)...)
}

// sectionTitle recognises an underlined or over-and-underlined title at
// lines[i] and reports how many lines it spans.
func sectionTitle(lines []string, i int) (string, adornment, int, bool) {
	line := lines[i]
	if isAdornment(line) && i+2 < len(lines) {
		title := strings.TrimSpace(lines[i+1])
		under := lines[i+2]
		if title != "" && under == line && len(line) >= utf8.RuneCountInString(title) {
			return title, adornment{char: line[0], over: true}, 3, true
		}
	}
	if isAdornment(line) || i+1 >= len(lines) {
		return "", adornment{}, 0, false
	}
	under := lines[i+1]
	if isAdornment(under) && len(under) >= utf8.RuneCountInString(line) &&
		(i+2 == len(lines) || lines[i+2] == "") {
		return line, adornment{char: under[0]}, 2, true
	}
	return "", adornment{}, 0, false
}

const adornmentChars = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

func isAdornment(line string) bool {
	if len(line) < 2 || !strings.ContainsRune(adornmentChars, rune(line[0])) {
		return false
	}
	return strings.Count(line, line[:1]) == len(line)
}

func isExplicit(line string) bool {
	return line == ".." || strings.HasPrefix(line, ".. ")
}

func bulletOf(line string) byte {
	if len(line) == 0 || !strings.ContainsRune("*-+", rune(line[0])) {
		return 0
	}
	if len(line) == 1 || line[1] == ' ' {
		return line[0]
	}
	return 0
}

func isSimpleBorder(line string) bool {
	if !strings.HasPrefix(line, "=") || !strings.Contains(line, " ") {
		return false
	}
	return strings.Trim(line, "= ") == ""
}

func isGridBorder(line string) bool {
	return strings.HasPrefix(line, "+-") || strings.HasPrefix(line, "+=")
}

// simpleTableEnd returns the index after the closing border: the first
// border after the opening one that is followed by a blank line or EOF.
func simpleTableEnd(lines []string, start int) int {
	for i := start + 1; i < len(lines); i++ {
		if isSimpleBorder(lines[i]) && (i+1 == len(lines) || lines[i+1] == "") {
			return i + 1
		}
	}
	return len(lines)
}

func columnSpans(border string) [][2]int {
	var spans [][2]int
	start := -1
	for i := 0; i <= len(border); i++ {
		if i < len(border) && border[i] == '=' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			spans = append(spans, [2]int{start, i})
			start = -1
		}
	}
	return spans
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " "))
}

// indentedEnd returns the end of the block starting at i made of lines
// indented by at least min, allowing blank lines inside it.
func indentedEnd(lines []string, i, min int) int {
	end := i
	for j := i; j < len(lines); j++ {
		if lines[j] == "" {
			continue
		}
		if indentOf(lines[j]) < min {
			break
		}
		end = j + 1
	}
	return end
}

// dedent removes the common leading indentation of non-blank lines.
func dedent(lines []string) []string {
	common := -1
	for _, l := range lines {
		if l == "" {
			continue
		}
		if n := indentOf(l); common < 0 || n < common {
			common = n
		}
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		if len(l) >= common && common > 0 {
			out[i] = l[common:]
		} else {
			out[i] = l
		}
	}
	return out
}

func trimBlank(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// inline parses **strong**, *emphasis*, ``literal``, `text <uri>`_
// references and backslash escapes.
func inline(s string) []*doctree.Node {
	var out []*doctree.Node
	var buf strings.Builder
	flush := func() {
		if buf.Len() > 0 {
			out = append(out, doctree.NewText(buf.String()))
			buf.Reset()
		}
	}
	wrap := func(kind, text string) {
		flush()
		out = append(out, doctree.New(kind, doctree.NewText(text)))
	}

	for i := 0; i < len(s); {
		switch {
		case s[i] == '\\' && i+1 < len(s):
			if s[i+1] != ' ' {
				buf.WriteByte(s[i+1])
			}
			i += 2
			continue

		case strings.HasPrefix(s[i:], "``") && inlineStart(s, i, 2):
			if end := inlineEnd(s, i+2, "``"); end >= 0 {
				wrap(doctree.KindLiteral, s[i+2:end])
				i = end + 2
				continue
			}

		case strings.HasPrefix(s[i:], "**") && inlineStart(s, i, 2):
			if end := inlineEnd(s, i+2, "**"); end >= 0 {
				wrap(doctree.KindStrong, s[i+2:end])
				i = end + 2
				continue
			}

		case s[i] == '*' && inlineStart(s, i, 1):
			if end := inlineEnd(s, i+1, "*"); end >= 0 {
				wrap(doctree.KindEmphasis, s[i+1:end])
				i = end + 1
				continue
			}

		case s[i] == '`' && inlineStart(s, i, 1):
			if end := inlineEnd(s, i+1, "`_"); end >= 0 {
				flush()
				out = append(out, reference(s[i+1:end]))
				i = end + 2
				if i < len(s) && s[i] == '_' {
					i++
				}
				continue
			}
		}
		buf.WriteByte(s[i])
		i++
	}
	flush()
	return out
}

func reference(body string) *doctree.Node {
	ref := doctree.New(doctree.KindReference)
	if lt := strings.LastIndex(body, "<"); lt >= 0 && strings.HasSuffix(body, ">") {
		text := strings.TrimSpace(body[:lt])
		ref.Set("refuri", body[lt+1:len(body)-1])
		ref.Set("name", text)
		return ref.Append(doctree.NewText(text))
	}
	ref.Set("refname", doctree.NormalizeName(body))
	ref.Set("name", body)
	return ref.Append(doctree.NewText(body))
}

func inlineStart(s string, i, width int) bool {
	if i+width >= len(s) || unicode.IsSpace(rune(s[i+width])) {
		return false
	}
	if i == 0 {
		return true
	}
	prev := rune(s[i-1])
	return unicode.IsSpace(prev) || strings.ContainsRune("'\"([{<-/:", prev)
}

func inlineEnd(s string, from int, delim string) int {
	for j := from; j < len(s); j++ {
		if !strings.HasPrefix(s[j:], delim) || j == from || unicode.IsSpace(rune(s[j-1])) {
			continue
		}
		after := j + len(delim)
		if after == len(s) || unicode.IsSpace(rune(s[after])) || strings.ContainsRune("'\")]}>-/:.,;!?\\", rune(s[after])) {
			return j
		}
	}
	return -1
}
