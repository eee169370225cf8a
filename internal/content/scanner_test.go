package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("# "+rel+"\n"), 0o644))
}

func TestPagesDiscoversAllMarkdown(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.md")
	writeFile(t, root, "a.md")
	writeFile(t, root, "guide/setup.md")
	writeFile(t, root, "blog/first.md")
	writeFile(t, root, "assets/logo.png")

	pages, err := NewScanner(root).Pages()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "b.md", "blog/first.md", "guide/setup.md"}, pages)
}

func TestBlogPostsOnlyMatchesBlogDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "index.md")
	writeFile(t, root, "blog/2024/hello.md")
	writeFile(t, root, "blog/post.md")
	writeFile(t, root, "blogroll.md")

	posts, err := NewScanner(root).BlogPosts()
	require.NoError(t, err)
	assert.Equal(t, []string{"blog/2024/hello.md", "blog/post.md"}, posts)
}

func TestScanSkipsHiddenFilesAndDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "visible.md")
	writeFile(t, root, ".hidden.md")
	writeFile(t, root, ".git/objects/readme.md")

	pages, err := NewScanner(root).Pages()
	require.NoError(t, err)
	assert.Equal(t, []string{"visible.md"}, pages)
}

func TestBlogPostsEmptyWhenNoBlogDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "page.md")

	posts, err := NewScanner(root).BlogPosts()
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestAbsResolvesUnderRoot(t *testing.T) {
	root := t.TempDir()
	abs := NewScanner(root).Abs("blog/post.md")
	assert.True(t, filepath.IsAbs(abs))
	assert.Equal(t, filepath.Join(root, "blog", "post.md"), abs)
}
