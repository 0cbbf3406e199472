package doctree

import (
	"errors"
	"strings"
	"testing"
)

func sampleTree() *Node {
	return New(KindDocument,
		New(KindSection,
			New(KindTitle, NewText("Acid Splash")),
			New(KindParagraph,
				New(KindStrong, NewText("Range:")),
				NewText(" 60 feet"),
			),
		).Set("names", "acid splash"),
	).Set("source", "acid-splash.rst")
}

type event struct {
	kind     string
	entering bool
}

func collect(t *testing.T, root *Node, skip string) []event {
	t.Helper()
	var events []event
	err := Walk(root, func(n *Node, entering bool) (WalkStatus, error) {
		events = append(events, event{n.Kind, entering})
		if entering && n.Kind == skip {
			return WalkSkipChildren, nil
		}
		return WalkContinue, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return events
}

func TestWalk_DocumentOrder(t *testing.T) {
	events := collect(t, sampleTree(), "")
	want := []event{
		{KindDocument, true},
		{KindSection, true},
		{KindTitle, true},
		{KindText, true},
		{KindText, false},
		{KindTitle, false},
		{KindParagraph, true},
		{KindStrong, true},
		{KindText, true},
		{KindText, false},
		{KindStrong, false},
		{KindText, true},
		{KindText, false},
		{KindParagraph, false},
		{KindSection, false},
		{KindDocument, false},
	}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d: %v", len(want), len(events), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event[%d]: expected %v, got %v", i, want[i], events[i])
		}
	}
}

func TestWalk_SkipChildrenStillDeparts(t *testing.T) {
	events := collect(t, sampleTree(), KindStrong)
	for i, e := range events {
		if e.kind == KindStrong && e.entering {
			next := events[i+1]
			if next != (event{KindStrong, false}) {
				t.Errorf("expected strong exit right after skipped entry, got %v", next)
			}
			return
		}
	}
	t.Fatal("strong node never entered")
}

func TestWalk_ErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	visited := 0
	err := Walk(sampleTree(), func(n *Node, entering bool) (WalkStatus, error) {
		if !entering {
			return WalkContinue, nil
		}
		visited++
		if n.Kind == KindTitle {
			return WalkStop, boom
		}
		return WalkContinue, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if visited != 3 {
		t.Errorf("expected walk to stop after 3 entries, got %d", visited)
	}
}

func TestWalk_StopWithoutError(t *testing.T) {
	exits := 0
	err := Walk(sampleTree(), func(n *Node, entering bool) (WalkStatus, error) {
		if !entering {
			exits++
		}
		if entering && n.Kind == KindParagraph {
			return WalkStop, nil
		}
		return WalkContinue, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exits != 2 {
		t.Errorf("expected 2 exits before stop (text, title), got %d", exits)
	}
}

func TestNode_AsText(t *testing.T) {
	para := sampleTree().Children[0].Children[1]
	if got := para.AsText(); got != "Range: 60 feet" {
		t.Errorf("expected %q, got %q", "Range: 60 feet", got)
	}
}

func TestAttributes_GetAndList(t *testing.T) {
	n := New(KindTarget).Set("names", "srd:acid-splash", "alias")
	if got := n.Attributes.Get("names"); got != "srd:acid-splash" {
		t.Errorf("expected first name, got %q", got)
	}
	if got := n.Attributes.List("names"); len(got) != 2 {
		t.Errorf("expected 2 names, got %v", got)
	}
	if got := n.Attributes.Get("missing"); got != "" {
		t.Errorf("expected empty value for missing key, got %q", got)
	}
}

func TestNormalizeNameAndMakeID(t *testing.T) {
	tests := []struct {
		in, name, id string
	}{
		{"Acid Splash", "acid splash", "acid-splash"},
		{"  Conjuration   cantrip ", "conjuration cantrip", "conjuration-cantrip"},
		{"srd:acid-splash", "srd:acid-splash", "srd-acid-splash"},
		{"1st-level Evocation", "1st-level evocation", "1st-level-evocation"},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.name {
			t.Errorf("NormalizeName(%q): expected %q, got %q", tt.in, tt.name, got)
		}
		if got := MakeID(tt.in); got != tt.id {
			t.Errorf("MakeID(%q): expected %q, got %q", tt.in, tt.id, got)
		}
	}
}

func TestFormat(t *testing.T) {
	var sb strings.Builder
	if err := Format(&sb, sampleTree()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `<document source="acid-splash.rst">
    <section names="acid\ splash">
        <title>
            Acid Splash
        <paragraph>
            <strong>
                Range:
             60 feet
`
	if sb.String() != want {
		t.Errorf("unexpected dump:\n%s\nwant:\n%s", sb.String(), want)
	}
}
