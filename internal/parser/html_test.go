package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/grimoire/internal/doctree"
)

const acidSplashHTML = `<!DOCTYPE html>
<html>
<head><title>Acid Splash</title><style>p { color: red; }</style></head>
<body>
<div class="document">
<span id="srd-acid-splash"></span>
<div class="section" id="acid-splash">
<h1>Acid Splash</h1>
<div class="section" id="conjuration-cantrip">
<h2>Conjuration cantrip</h2>
<p><strong>Casting Time:</strong> 1 action</p>
<p><strong>Range:</strong> 60 feet</p>
<p><strong>Components:</strong> V, S</p>
<p><strong>Duration:</strong> Instantaneous</p>
<p>You hurl a bubble of acid. Choose one creature within range, or choose
two creatures within range that are within 5 feet of each other.</p>
</div>
</div>
</div>
</body>
</html>
`

func TestHTMLParser_Spell(t *testing.T) {
	doc, err := (&HTMLParser{}).Parse(strings.NewReader(acidSplashHTML), "acid-splash.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := doc.Attributes.Get("title"); got != "Acid Splash" {
		t.Errorf("expected title attribute, got %q", got)
	}
	if len(doc.Children) != 2 {
		t.Fatalf("expected target and section, got %d children", len(doc.Children))
	}
	sections := findAll(doc, doctree.KindSection)
	if got := sections[1].Attributes.Get("ids"); got != "conjuration-cantrip" {
		t.Errorf("expected section id from the wrapping div, got %q", got)
	}
	checkAcidSplash(t, doc, "srd-acid-splash")
}

func TestHTMLParser_EmptyElementTargets(t *testing.T) {
	for _, anchor := range []string{
		`<a name="srd-acid-splash"></a>`,
		`<span id="srd-acid-splash"></span>`,
		`<div id="srd-acid-splash"></div>`,
		`<p id="srd-acid-splash"> </p>`,
	} {
		input := strings.Replace(acidSplashHTML, `<span id="srd-acid-splash"></span>`, anchor, 1)
		doc, err := (&HTMLParser{}).Parse(strings.NewReader(input), "acid-splash.html")
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", anchor, err)
		}
		if len(doc.Children) != 2 || doc.Children[0].Kind != doctree.KindTarget {
			t.Fatalf("%s: expected target and section, got %+v", anchor, doc.Children)
		}
		checkAcidSplash(t, doc, "srd-acid-splash")
	}
}

func TestHTMLParser_NonEmptyOrVoidElementsAreNotTargets(t *testing.T) {
	input := `<html><body>
<div id="wrapper"><p>Text.</p></div>
<img id="pic" src="a.png">
<a id="link" href="https://example.com"></a>
</body></html>`
	doc, err := (&HTMLParser{}).Parse(strings.NewReader(input), "x.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if targets := findAll(doc, doctree.KindTarget); len(targets) != 0 {
		t.Errorf("expected no targets, got %+v", targets)
	}
}

func TestHTMLParser_HeadingWithoutSectionWrapper(t *testing.T) {
	input := `<html><body>
<h1 id="intro-id">Intro</h1>
<p>Lead text.</p>
<h2>Detail</h2>
loose <b>text</b>
<h1>Next</h1>
</body></html>`
	doc, err := (&HTMLParser{}).Parse(strings.NewReader(input), "x.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Children) != 2 {
		t.Fatalf("expected 2 top sections, got %d", len(doc.Children))
	}
	intro := doc.Children[0]
	if got := intro.Attributes.Get("ids"); got != "intro-id" {
		t.Errorf("expected heading id, got %q", got)
	}
	detail := firstChild(intro, doctree.KindSection)
	if detail == nil {
		t.Fatal("expected detail section under intro")
	}
	loose := firstChild(detail, doctree.KindParagraph)
	if loose == nil || loose.AsText() != "loose text" || firstChild(loose, doctree.KindStrong) == nil {
		t.Errorf("expected loose inline content gathered into a paragraph, got %+v", loose)
	}
}

func TestHTMLParser_ListsTablesAndSkips(t *testing.T) {
	input := `<html><body>
<nav><p>menu</p></nav>
<ul><li>one</li><li><p>two</p></li></ul>
<table>
<tr><th>A</th><th>B</th></tr>
<tr><td>1</td><td>2</td></tr>
</table>
<p>See <a href="https://example.com">the rules</a> and <img src="acid.png" alt="acid"></p>
<script>var x = 1;</script>
</body></html>`
	doc, err := (&HTMLParser{}).Parse(strings.NewReader(input), "x.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var kinds []string
	for _, c := range doc.Children {
		kinds = append(kinds, c.Kind)
	}
	if got := strings.Join(kinds, " "); got != "bullet_list table paragraph" {
		t.Fatalf("unexpected blocks %q", got)
	}

	items := doc.Children[0].Children
	if len(items) != 2 || items[0].AsText() != "one" || items[1].AsText() != "two" {
		t.Errorf("unexpected list items %+v", items)
	}
	checkTable(t, doc, []string{"A", "B"}, [][]string{{"1", "2"}})

	para := doc.Children[2]
	if ref := firstChild(para, doctree.KindReference); ref == nil || ref.Attributes.Get("refuri") != "https://example.com" {
		t.Errorf("expected reference, got %+v", ref)
	}
	if img := firstChild(para, doctree.KindImage); img == nil || img.Attributes.Get("uri") != "acid.png" {
		t.Errorf("expected image, got %+v", img)
	}
}

func TestCollapseSpace(t *testing.T) {
	if got := collapseSpace("  a \n\t b  "); got != " a b " {
		t.Errorf("expected %q, got %q", " a b ", got)
	}
}
