package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/grimoire/internal/spell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"
)

const spellDir = "Spellcasting/spells_a-z"

func spellRST(id, name, rangeLabel string) string {
	underline := strings.Repeat("-", len(name))
	return fmt.Sprintf(`.. _srd:%s:

%s
%s

Evocation cantrip
^^^^^^^^^^^^^^^^^

**Casting Time:** 1 action

**%s** 60 feet

**Components:** V, S

**Duration:** Instantaneous

Some body text for %s.
`, id, name, underline, rangeLabel, name)
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func testTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, spellDir+"/a/acid-splash.rst", spellRST("acid-splash", "Acid Splash", "Range:"))
	writeFile(t, root, spellDir+"/a/aid.rst", spellRST("aid", "Aid", "Distance:"))
	writeFile(t, root, spellDir+"/b/bless.rst", spellRST("bless", "Bless", "Range:"))
	writeFile(t, root, spellDir+"/index.rst", "Spells\n======\n\nThe index.\n")
	writeFile(t, root, spellDir+"/notes.csv", "a,b\n")
	writeFile(t, root, "Other/fireball.rst", spellRST("fireball", "Fireball", "Range:"))
	return root
}

func TestCollect_SkipsMalformedDocuments(t *testing.T) {
	root := testTree(t)

	res, err := Collect(context.Background(), root, Options{Dir: spellDir, IndexName: "index"})
	require.NoError(t, err)

	require.Len(t, res.Spells, 2)
	assert.Equal(t, "srd:acid-splash", res.Spells[0].ID)
	assert.Equal(t, "srd:bless", res.Spells[1].ID)
	assert.Equal(t, "60 feet", res.Spells[1].Range)

	require.Len(t, res.Paths, 2)
	assert.Equal(t, filepath.Join(root, filepath.FromSlash(spellDir+"/a/acid-splash.rst")), res.Paths[0])
	assert.Equal(t, filepath.Join(root, filepath.FromSlash(spellDir+"/b/bless.rst")), res.Paths[1])

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "unexpected_label", res.Skipped[0].Kind)
	assert.True(t, strings.HasSuffix(filepath.ToSlash(res.Skipped[0].Path), "a/aid.rst"))

	assert.Equal(t, 6, res.Scanned)
	assert.Equal(t, 3, res.Candidates)
	assert.Equal(t, 3, res.Total())
}

func TestCollect_WholeTreeWithoutDir(t *testing.T) {
	root := testTree(t)

	res, err := Collect(context.Background(), root, Options{IndexName: "index"})
	require.NoError(t, err)

	var ids []string
	for _, sp := range res.Spells {
		ids = append(ids, sp.ID)
	}
	assert.Equal(t, []string{"srd:fireball", "srd:acid-splash", "srd:bless"}, ids)
}

func TestCollect_ParseErrorIsSkipped(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a/acid-splash.rst", spellRST("acid-splash", "Acid Splash", "Range:"))
	writeFile(t, root, "b/broken.xml", "<document><paragraph>")

	res, err := Collect(context.Background(), root, Options{})
	require.NoError(t, err)
	require.Len(t, res.Spells, 1)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "parse", res.Skipped[0].Kind)
}

func TestCollect_Cancelled(t *testing.T) {
	root := testTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Collect(ctx, root, Options{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestCollect_MissingRoot(t *testing.T) {
	_, err := Collect(context.Background(), filepath.Join(t.TempDir(), "nope"), Options{})
	require.Error(t, err)
}

func TestIsCandidate(t *testing.T) {
	opts := Options{Dir: spellDir, IndexName: "index"}
	tests := []struct {
		rel  string
		want bool
	}{
		{spellDir + "/a/acid-splash.rst", true},
		{spellDir + "/a/acid-splash.md", true},
		{spellDir + "/index.rst", false},
		{spellDir + "/a/index.md", false},
		{spellDir + "/a/acid-splash.pdf", false},
		{"Spellcasting/spells_a-zz/a.rst", false},
		{"Other/a.rst", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsCandidate(tt.rel, opts), tt.rel)
	}
	assert.True(t, IsCandidate("x/index.rst", Options{}))
}

func TestExtractFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "aid.rst", spellRST("aid", "Aid", "Distance:"))
	writeFile(t, root, "bless.rst", spellRST("bless", "Bless", "Range:"))

	sp, err := ExtractFile(filepath.Join(root, "bless.rst"))
	require.NoError(t, err)
	assert.Equal(t, "Bless", sp.Name)
	assert.Equal(t, filepath.Join(root, "bless.rst"), sp.Source)

	_, err = ExtractFile(filepath.Join(root, "aid.rst"))
	require.ErrorIs(t, err, spell.ErrUnexpectedLabel)
	assert.False(t, IsParseError(err))

	_, err = ExtractFile(filepath.Join(root, "missing.rst"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = Extract(strings.NewReader("x"), "spell.pdf")
	assert.True(t, IsParseError(err))
}

func TestWrite(t *testing.T) {
	root := testTree(t)
	res, err := Collect(context.Background(), root, Options{Dir: spellDir, IndexName: "index"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, res.Spells, "json"))
	var docs []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &docs))
	require.Len(t, docs, 2)
	assert.Equal(t, "spell", docs[0]["type"])
	assert.Equal(t, "srd:acid-splash", docs[0]["id"])

	buf.Reset()
	require.NoError(t, Write(&buf, res.Spells, "yaml"))
	var ydocs []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &ydocs))
	require.Len(t, ydocs, 2)
	assert.Equal(t, "srd:bless", ydocs[1]["id"])
}

func TestWrite_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil, ""))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	require.NoError(t, Write(&buf, nil, "yaml"))
	assert.Equal(t, "[]\n", buf.String())

	assert.Error(t, Write(&buf, nil, "toml"))
}

func TestWriteSpell(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "bless.rst", spellRST("bless", "Bless", "Range:"))
	sp, err := ExtractFile(filepath.Join(root, "bless.rst"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSpell(&buf, sp, "yaml"))
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "srd:bless", doc["id"])
	attrs, ok := doc["attributes"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "60 feet", attrs["range"])
}
