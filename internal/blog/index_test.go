package blog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepress/internal/content"
)

// fakeHistory maps base file names to timestamps; unknown files fail.
type fakeHistory struct {
	births map[string]time.Time
}

func (f *fakeHistory) BirthTime(_ context.Context, absPath string) (time.Time, error) {
	if t, ok := f.births[filepath.Base(absPath)]; ok {
		return t, nil
	}
	return time.Time{}, errors.New("not tracked")
}

func writePost(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("post\n"), 0o644))
}

func TestBuildReturnsNilWhenNoBlogContent(t *testing.T) {
	root := t.TempDir()
	writePost(t, root, "index.md")

	posts, err := NewIndexBuilder(content.NewScanner(root), nil).Build(context.Background())
	require.NoError(t, err)
	assert.Nil(t, posts, "no blog content must yield nil, not an empty index")
}

func TestBuildSortsAscendingByBirth(t *testing.T) {
	root := t.TempDir()
	writePost(t, root, "blog/newest.md")
	writePost(t, root, "blog/oldest.md")
	writePost(t, root, "blog/middle.md")

	history := &fakeHistory{births: map[string]time.Time{
		"oldest.md": time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		"middle.md": time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC),
		"newest.md": time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}}

	posts, err := NewIndexBuilder(content.NewScanner(root), history).Build(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "blog/oldest.md", posts[0].Path)
	assert.Equal(t, "blog/middle.md", posts[1].Path)
	assert.Equal(t, "blog/newest.md", posts[2].Path)
}

func TestBuildKeepsPostsWithoutHistory(t *testing.T) {
	root := t.TempDir()
	writePost(t, root, "blog/tracked.md")
	writePost(t, root, "blog/untracked.md")

	history := &fakeHistory{births: map[string]time.Time{
		"tracked.md": time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
	}}

	posts, err := NewIndexBuilder(content.NewScanner(root), history).Build(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 2, "history failure must not drop the post")

	assert.Equal(t, "blog/tracked.md", posts[0].Path)
	assert.NotNil(t, posts[0].Birth)
	assert.Equal(t, "blog/untracked.md", posts[1].Path)
	assert.Nil(t, posts[1].Birth)
}

func TestBuildWithNilHistoryLeavesAllUntimed(t *testing.T) {
	root := t.TempDir()
	writePost(t, root, "blog/a.md")
	writePost(t, root, "blog/b.md")

	posts, err := NewIndexBuilder(content.NewScanner(root), nil).Build(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 2)
	for _, p := range posts {
		assert.Nil(t, p.Birth)
	}
}

func TestSortPostsUntimedNeverPanics(t *testing.T) {
	older := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(24 * time.Hour)
	posts := []Post{
		{Path: "blog/x.md"},
		{Path: "blog/b.md", Birth: &newer},
		{Path: "blog/y.md"},
		{Path: "blog/a.md", Birth: &older},
	}

	sortPosts(posts)

	assert.Equal(t, "blog/a.md", posts[0].Path)
	assert.Equal(t, "blog/b.md", posts[1].Path)
	// Untimed posts sort after timed ones, original order preserved.
	assert.Equal(t, "blog/x.md", posts[2].Path)
	assert.Equal(t, "blog/y.md", posts[3].Path)
}
