// Package batch enumerates spell documents under a directory tree,
// extracts each one independently, and drops the ones that fail.
package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dgallion1/grimoire/internal/parser"
	"github.com/dgallion1/grimoire/internal/spell"
	"go.yaml.in/yaml/v3"
)

// Options control which files are candidates and how they are extracted.
type Options struct {
	// Dir restricts candidates to this slash-separated subdirectory of
	// the root. Empty means the whole tree.
	Dir string
	// IndexName excludes directory index files, matched on the base name
	// without extension.
	IndexName string
	Spell     []spell.Option
	Log       *slog.Logger
}

// Skip records a candidate that produced no spell.
type Skip struct {
	Path string `json:"path"`
	// Kind is the extraction error kind, or "parse" for parser failures.
	Kind string `json:"kind"`
	Err  string `json:"error"`
}

// Result holds the outcome of a batch run. Spells are in traversal order.
type Result struct {
	Scanned    int
	Candidates int
	Spells     []*spell.Spell
	// Paths[i] is the file Spells[i] was read from. A spell's Source comes
	// from the document and need not name a file on disk.
	Paths   []string
	Skipped []Skip
}

// Total returns the number of candidates that were processed.
func (r Result) Total() int {
	return len(r.Spells) + len(r.Skipped)
}

// Collect walks root in lexical order and extracts every candidate. A
// document that fails to parse or extract is skipped; the rest of the
// batch is unaffected. Read and walk errors abort the run.
func Collect(ctx context.Context, root string, opts Options) (Result, error) {
	log := opts.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	res := Result{Spells: []*spell.Spell{}, Paths: []string{}}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		res.Scanned++

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if !IsCandidate(rel, opts) {
			return nil
		}
		res.Candidates++

		sp, err := ExtractFile(p, opts.Spell...)
		switch {
		case err == nil:
			res.Spells = append(res.Spells, sp)
			res.Paths = append(res.Paths, p)
		case spell.IsExtractionError(err):
			log.Debug("skipping document", "path", p, "kind", spell.ErrorKind(err), "error", err)
			res.Skipped = append(res.Skipped, Skip{Path: p, Kind: spell.ErrorKind(err), Err: err.Error()})
		case IsParseError(err):
			log.Warn("skipping unparseable document", "path", p, "error", err)
			res.Skipped = append(res.Skipped, Skip{Path: p, Kind: "parse", Err: err.Error()})
		default:
			return err
		}
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("walk %s: %w", root, err)
	}
	return res, nil
}

// IsCandidate reports whether rel, a path relative to the batch root,
// should be extracted.
func IsCandidate(rel string, opts Options) bool {
	rel = filepath.ToSlash(rel)
	if dir := strings.Trim(path.Clean("/"+opts.Dir), "/"); dir != "" {
		if rel != dir && !strings.HasPrefix(rel, dir+"/") {
			return false
		}
	}
	if !parser.IsSupportedExtension(rel) {
		return false
	}
	base := path.Base(rel)
	if opts.IndexName != "" && strings.TrimSuffix(base, path.Ext(base)) == opts.IndexName {
		return false
	}
	return true
}

// parseError marks a failure inside a parser front-end.
type parseError struct {
	err error
}

func (e *parseError) Error() string { return e.err.Error() }
func (e *parseError) Unwrap() error { return e.err }

// ExtractFile parses and extracts a single document. Parser failures are
// returned wrapped so that callers can tell them from read errors.
func ExtractFile(p string, opts ...spell.Option) (*spell.Spell, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Extract(f, p, opts...)
}

// Extract parses r with the front-end chosen by filename and extracts a
// spell from the result.
func Extract(r io.Reader, filename string, opts ...spell.Option) (*spell.Spell, error) {
	ps, err := parser.ForFile(filename)
	if err != nil {
		return nil, &parseError{err: err}
	}
	doc, err := ps.Parse(r, filename)
	if err != nil {
		return nil, &parseError{err: err}
	}
	return spell.Parse(doc, opts...)
}

// IsParseError reports whether err came from a parser front-end.
func IsParseError(err error) bool {
	var pe *parseError
	return errors.As(err, &pe)
}

// Write encodes spells as a JSON (default) or YAML array. An empty or nil
// slice is written as an empty array.
func Write(w io.Writer, spells []*spell.Spell, format string) error {
	if spells == nil {
		spells = []*spell.Spell{}
	}
	return encode(w, spells, format)
}

// WriteSpell encodes a single record as a JSON (default) or YAML document.
func WriteSpell(w io.Writer, sp *spell.Spell, format string) error {
	return encode(w, sp, format)
}

func encode(w io.Writer, v any, format string) error {
	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown format %q", format)
}
