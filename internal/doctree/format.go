package doctree

import (
	"bufio"
	"io"
	"sort"
	"strings"
)

// Format writes an indented pseudo-XML rendering of n, one element per
// line, with text leaves on their own indented lines.
func Format(w io.Writer, n *Node) error {
	bw := bufio.NewWriter(w)
	format(bw, n, 0)
	return bw.Flush()
}

func format(w *bufio.Writer, n *Node, depth int) {
	indent := strings.Repeat("    ", depth)
	if n.Kind == KindText {
		for _, line := range strings.Split(n.Text, "\n") {
			w.WriteString(indent)
			w.WriteString(line)
			w.WriteByte('\n')
		}
		return
	}

	w.WriteString(indent)
	w.WriteByte('<')
	w.WriteString(n.Kind)

	keys := make([]string, 0, len(n.Attributes))
	for k := range n.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		w.WriteByte(' ')
		w.WriteString(k)
		w.WriteString(`="`)
		w.WriteString(attrValue(k, n.Attributes[k]))
		w.WriteByte('"')
	}
	w.WriteString(">\n")

	for _, c := range n.Children {
		format(w, c, depth+1)
	}
}

func attrValue(key string, values []string) string {
	if !ListAttributes[key] {
		return strings.Join(values, " ")
	}
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = strings.ReplaceAll(v, " ", `\ `)
	}
	return strings.Join(escaped, " ")
}
