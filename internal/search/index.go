// Package search assembles the site-wide search index.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"git.home.luguber.info/inful/sitepress/internal/content"
	"git.home.luguber.info/inful/sitepress/internal/logfields"
)

// Document is one searchable page: ID is the source-relative path, Body the
// transformed plain text.
type Document struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}

// Context carries shared state handed to the transform collaborator.
type Context struct {
	SourceRoot string
	BaseURL    string
}

// Transform converts raw markdown into plain searchable text. It is
// best-effort: malformed input passes through, it never fails.
type Transform func(raw []byte, absPath string, sctx *Context) string

// IndexBuilder assembles search documents from all discovered pages.
type IndexBuilder struct {
	scanner   *content.Scanner
	transform Transform
}

// NewIndexBuilder creates a search index builder. A nil transform falls back
// to the default markdown-stripping transform.
func NewIndexBuilder(scanner *content.Scanner, transform Transform) *IndexBuilder {
	if transform == nil {
		transform = StripMarkdown
	}
	return &IndexBuilder{scanner: scanner, transform: transform}
}

// Build returns one document per discovered page, IDs unique, sorted
// ascending lexicographically by ID.
func (b *IndexBuilder) Build(ctx context.Context, sctx *Context) ([]Document, error) {
	files, err := b.scanner.Pages()
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(files))
	seen := make(map[string]struct{}, len(files))
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, dup := seen[rel]; dup {
			continue
		}
		seen[rel] = struct{}{}

		abs := b.scanner.Abs(rel)
		raw, err := readFile(abs)
		if err != nil {
			return nil, fmt.Errorf("read page %s: %w", rel, err)
		}

		docs = append(docs, Document{ID: rel, Body: b.transform(raw, abs, sctx)})
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	slog.Debug("Search index built", logfields.Count(len(docs)))
	return docs, nil
}
