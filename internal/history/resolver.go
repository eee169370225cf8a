// Package history derives content timestamps from version-control history.
package history

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Resolver answers "when was this file first committed" against the git
// repository enclosing a source root.
type Resolver struct {
	repo *git.Repository
	root string
}

// Open locates the repository enclosing startDir (searching upward the way
// the git CLI does) and returns a resolver bound to it.
func Open(startDir string) (*Resolver, error) {
	repo, err := git.PlainOpenWithOptions(startDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository enclosing %s: %w", startDir, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("repository worktree: %w", err)
	}

	return &Resolver{repo: repo, root: wt.Filesystem.Root()}, nil
}

// Root returns the worktree root of the resolved repository.
func (r *Resolver) Root() string {
	return r.root
}

// BirthTime returns the author date of the oldest commit touching the file at
// absPath. The log is returned newest-first, so the oldest entry is the last
// one iterated.
func (r *Resolver) BirthTime(ctx context.Context, absPath string) (time.Time, error) {
	rel, err := filepath.Rel(r.root, absPath)
	if err != nil {
		return time.Time{}, fmt.Errorf("path outside repository %s: %w", absPath, err)
	}
	rel = filepath.ToSlash(rel)

	iter, err := r.repo.Log(&git.LogOptions{FileName: &rel})
	if err != nil {
		return time.Time{}, fmt.Errorf("log %s: %w", rel, err)
	}
	defer iter.Close()

	var oldest *object.Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		oldest = c
		return nil
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("walk log %s: %w", rel, err)
	}
	if oldest == nil {
		return time.Time{}, fmt.Errorf("no history for %s", rel)
	}

	return oldest.Author.When, nil
}
