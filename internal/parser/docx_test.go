package parser

import (
	"bytes"
	"testing"

	"github.com/dgallion1/grimoire/internal/doctree"
	"github.com/fumiama/go-docx"
)

func acidSplashDOCX(t *testing.T) []byte {
	t.Helper()
	doc := docx.New().WithDefaultTheme()
	doc.AddParagraph().Style("Heading1").AddText("Acid Splash")
	doc.AddParagraph().Style("Heading2").AddText("Conjuration cantrip")
	for _, field := range [][2]string{
		{"Casting Time:", " 1 action"},
		{"Range:", " 60 feet"},
		{"Components:", " V, S"},
		{"Duration:", " Instantaneous"},
	} {
		p := doc.AddParagraph()
		p.AddText(field[0]).Bold()
		p.AddText(field[1])
	}
	doc.AddParagraph().AddText("You hurl a bubble of acid.")

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		t.Fatalf("write docx: %v", err)
	}
	return buf.Bytes()
}

func TestDOCXParser_Spell(t *testing.T) {
	data := acidSplashDOCX(t)
	doc, err := (&DOCXParser{}).Parse(bytes.NewReader(data), "spells/acid-splash.docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	target := doc.Children[0]
	if target.Kind != doctree.KindTarget || target.Attributes.Get("names") != "acid-splash" {
		t.Errorf("expected target named after the file, got %+v", target)
	}
	checkAcidSplash(t, doc, "acid-splash")
}

func TestDOCXParser_ListItems(t *testing.T) {
	doc := docx.New().WithDefaultTheme()
	doc.AddParagraph().AddText("Intro")
	doc.AddParagraph().NumPr("1", "0").AddText("first")
	doc.AddParagraph().NumPr("1", "0").AddText("second")
	doc.AddParagraph().AddText("Outro")

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		t.Fatalf("write docx: %v", err)
	}
	tree, err := (&DOCXParser{}).Parse(bytes.NewReader(buf.Bytes()), "list.docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var kinds []string
	for _, c := range tree.Children {
		kinds = append(kinds, c.Kind)
	}
	want := []string{doctree.KindTarget, doctree.KindParagraph, doctree.KindBulletList, doctree.KindParagraph}
	if len(kinds) != len(want) {
		t.Fatalf("expected %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("child %d: expected %s, got %s", i, want[i], kinds[i])
		}
	}
	if items := tree.Children[2].Children; len(items) != 2 || items[1].AsText() != "second" {
		t.Errorf("unexpected list items %+v", items)
	}
}

func TestDOCXParser_Invalid(t *testing.T) {
	if _, err := (&DOCXParser{}).Parse(bytes.NewReader([]byte("not a zip")), "bad.docx"); err == nil {
		t.Error("expected error for non-zip input")
	}
}
