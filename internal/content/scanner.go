// Package content discovers site content files under a source root.
package content

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitepress/internal/logfields"
)

// BlogDir is the directory (relative to the source root) that holds blog posts.
const BlogDir = "blog"

// Scanner discovers markdown content files under a source root.
type Scanner struct {
	root string
}

// NewScanner creates a scanner rooted at the given source directory.
func NewScanner(root string) *Scanner {
	return &Scanner{root: root}
}

// Root returns the scanner's source root.
func (s *Scanner) Root() string {
	return s.root
}

// Pages returns the relative paths of all markdown files under the source
// root (blog content included), sorted lexicographically.
func (s *Scanner) Pages() ([]string, error) {
	return s.scan(func(string) bool { return true })
}

// BlogPosts returns the relative paths of markdown files under blog/,
// sorted lexicographically. An empty result means the blog feature is off.
func (s *Scanner) BlogPosts() ([]string, error) {
	prefix := BlogDir + "/"
	return s.scan(func(rel string) bool { return strings.HasPrefix(rel, prefix) })
}

// Abs resolves a scanner-relative path to an absolute path.
func (s *Scanner) Abs(rel string) string {
	abs, err := filepath.Abs(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil {
		return filepath.Join(s.root, filepath.FromSlash(rel))
	}
	return abs
}

// scan walks the source root collecting markdown files that pass the filter.
// Relative paths use forward slashes regardless of platform.
func (s *Scanner) scan(keep func(rel string) bool) ([]string, error) {
	var files []string

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip hidden files and directories (.git, editor state, ...)
		if strings.HasPrefix(d.Name(), ".") && path != s.root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		if !isMarkdownFile(path) {
			return nil
		}

		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if keep(rel) {
			files = append(files, rel)
			slog.Debug("Discovered content file", logfields.File(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// isMarkdownFile checks if a file is a markdown file
func isMarkdownFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".md" || ext == ".markdown" || ext == ".mdown" || ext == ".mkd"
}
