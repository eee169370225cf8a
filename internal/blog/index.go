// Package blog assembles the ordered blog-post index.
package blog

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"git.home.luguber.info/inful/sitepress/internal/content"
	"git.home.luguber.info/inful/sitepress/internal/logfields"
)

// Post describes one discovered blog post. Birth is nil when the file has no
// resolvable version-control history.
type Post struct {
	Path  string     `json:"path"`
	Birth *time.Time `json:"birth,omitempty"`
}

// TimestampResolver derives a creation timestamp for a content file.
type TimestampResolver interface {
	BirthTime(ctx context.Context, absPath string) (time.Time, error)
}

// IndexBuilder assembles the blog index from discovered files and their
// version-control history.
type IndexBuilder struct {
	scanner *content.Scanner
	history TimestampResolver
}

// NewIndexBuilder creates an index builder. history may be nil, in which case
// every post is included without a timestamp.
func NewIndexBuilder(scanner *content.Scanner, history TimestampResolver) *IndexBuilder {
	return &IndexBuilder{scanner: scanner, history: history}
}

// Build returns the blog-post index sorted ascending by birth timestamp, or
// nil when no blog content exists (distinct from an empty index: nil signals
// the blog feature is off entirely).
//
// History queries run concurrently per file. A failed query is logged and the
// post is kept without a timestamp; it never aborts the build.
func (b *IndexBuilder) Build(ctx context.Context) ([]Post, error) {
	files, err := b.scanner.BlogPosts()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	posts := make([]Post, len(files))
	var wg sync.WaitGroup
	for i, rel := range files {
		posts[i] = Post{Path: rel}
		if b.history == nil {
			continue
		}
		wg.Add(1)
		go func(i int, rel string) {
			defer wg.Done()
			t, err := b.history.BirthTime(ctx, b.scanner.Abs(rel))
			if err != nil {
				slog.Warn("Blog post history lookup failed", logfields.File(rel), logfields.Error(err))
				return
			}
			posts[i].Birth = &t
		}(i, rel)
	}
	wg.Wait()

	sortPosts(posts)
	slog.Debug("Blog index built", logfields.Count(len(posts)))
	return posts, nil
}

// sortPosts orders posts ascending by birth timestamp. Posts without a
// timestamp sort after timed ones; the sort is stable so discovery order is
// preserved among them.
func sortPosts(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i].Birth, posts[j].Birth
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
}
