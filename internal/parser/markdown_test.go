package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/grimoire/internal/doctree"
)

const acidSplashMD = `<a name="srd:acid-splash"></a>

# Acid Splash

## Conjuration cantrip

**Casting Time:** 1 action

**Range:** 60 feet

**Components:** V, S

**Duration:** Instantaneous

You hurl a bubble of acid. Choose one creature within range, or choose
two creatures within range that are within 5 feet of each other.
`

func TestMarkdownParser_Spell(t *testing.T) {
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(acidSplashMD), "acid-splash.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Children[0].Kind != doctree.KindTarget {
		t.Fatalf("expected leading target, got %s", doc.Children[0].Kind)
	}
	body := findAll(doc, doctree.KindParagraph)[4].AsText()
	if !strings.Contains(body, "or choose\ntwo creatures") {
		t.Errorf("expected soft line break kept as newline, got %q", body)
	}
	checkAcidSplash(t, doc, "srd:acid-splash")
}

func TestMarkdownParser_HeadingHierarchy(t *testing.T) {
	input := `# Title

Intro text.

## Section A

Section A content.

### Subsection A1

Subsection A1 content.

## Section B

Section B content.
`
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Top-level: one h1 ("Title")
	if len(doc.Children) != 1 {
		t.Fatalf("expected 1 top-level child (h1), got %d", len(doc.Children))
	}
	h1 := doc.Children[0]
	if got := firstChild(h1, doctree.KindTitle).AsText(); got != "Title" {
		t.Errorf("expected h1 title %q, got %q", "Title", got)
	}
	if got := firstChild(h1, doctree.KindParagraph).AsText(); got != "Intro text." {
		t.Errorf("expected intro paragraph, got %q", got)
	}

	var subs []*doctree.Node
	for _, c := range h1.Children {
		if c.Kind == doctree.KindSection {
			subs = append(subs, c)
		}
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 h2 children, got %d", len(subs))
	}
	if got := subs[0].Attributes.Get("ids"); got != "section-a" {
		t.Errorf("expected id %q, got %q", "section-a", got)
	}
	if sub := firstChild(subs[0], doctree.KindSection); sub == nil || sub.Attributes.Get("names") != "subsection a1" {
		t.Errorf("expected subsection a1 under section a, got %+v", sub)
	}
	if got := subs[1].Attributes.Get("names"); got != "section b" {
		t.Errorf("expected %q, got %q", "section b", got)
	}
}

func TestMarkdownParser_NoHeadings(t *testing.T) {
	input := `Just some plain text.

Another paragraph.
`
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "notes.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Children) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(doc.Children))
	}
	if doc.Children[1].AsText() != "Another paragraph." {
		t.Errorf("unexpected paragraph %q", doc.Children[1].AsText())
	}
}

func TestMarkdownParser_ListsAndInline(t *testing.T) {
	input := `- first *item*
- second ` + "`code`" + `

1. one
2. two

See [the rules](https://example.com).
`
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "x.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Children) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(doc.Children))
	}

	bullets := doc.Children[0]
	if bullets.Kind != doctree.KindBulletList || len(bullets.Children) != 2 {
		t.Fatalf("expected bullet list of 2, got %s of %d", bullets.Kind, len(bullets.Children))
	}
	first := firstChild(bullets.Children[0], doctree.KindParagraph)
	if first == nil || firstChild(first, doctree.KindEmphasis) == nil {
		t.Errorf("expected emphasis inside first item, got %+v", first)
	}
	second := firstChild(bullets.Children[1], doctree.KindParagraph)
	if lit := firstChild(second, doctree.KindLiteral); lit == nil || lit.AsText() != "code" {
		t.Errorf("expected literal code, got %+v", lit)
	}

	if doc.Children[1].Kind != doctree.KindEnumeratedList {
		t.Errorf("expected enumerated list, got %s", doc.Children[1].Kind)
	}

	ref := firstChild(doc.Children[2], doctree.KindReference)
	if ref == nil || ref.Attributes.Get("refuri") != "https://example.com" || ref.AsText() != "the rules" {
		t.Errorf("unexpected reference %+v", ref)
	}
}

func TestMarkdownParser_Table(t *testing.T) {
	input := `| A | B |
|---|---|
| 1 | 2 |
`
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader(input), "x.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checkTable(t, doc, []string{"A", "B"}, [][]string{{"1", "2"}})
}
