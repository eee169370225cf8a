package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindConfigFileWalksUpward(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	cfgPath := filepath.Join(root, "a", "sitepress.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("title: up\n"), 0o644))

	found, ok := FindConfigFile(nested)
	require.True(t, ok)
	assert.Equal(t, cfgPath, found)
}

func TestFindConfigFileNotFound(t *testing.T) {
	_, ok := FindConfigFile(t.TempDir())
	assert.False(t, ok)
}

func TestLoadFilePrecedenceOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sitepress.yaml")
	body := "title: From File\nport: 4000\nnavItems:\n  - name: home\n    target: index.html\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg := Defaults()
	require.NoError(t, LoadFile(path, &cfg))

	assert.Equal(t, "From File", cfg.Title)
	assert.Equal(t, 4000, cfg.Port)
	// Keys absent from the file keep their defaults.
	assert.Equal(t, "_site", cfg.Dst)
	assert.Equal(t, "hugo", cfg.Generator)
	require.Len(t, cfg.NavItems, 1)
	assert.Equal(t, NavItem{Name: "home", Target: "index.html"}, cfg.NavItems[0])
}

func TestLoadFilePassesUnrecognizedKeysThrough(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sitepress.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: x\ncustomKey: custom-value\n"), 0o644))

	cfg := Defaults()
	require.NoError(t, LoadFile(path, &cfg))
	assert.Equal(t, "custom-value", cfg.Extra["customKey"])
}

func TestLoadFileExpandsEnvironment(t *testing.T) {
	t.Setenv("SITE_TITLE", "Env Title")
	dir := t.TempDir()
	path := filepath.Join(dir, "sitepress.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: ${SITE_TITLE}\n"), 0o644))

	cfg := Defaults()
	require.NoError(t, LoadFile(path, &cfg))
	assert.Equal(t, "Env Title", cfg.Title)
}

func TestOptionsWinOverFileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sitepress.yaml")
	require.NoError(t, os.WriteFile(path, []byte("title: From File\nwatch: false\n"), 0o644))

	cfg := Defaults()
	require.NoError(t, LoadFile(path, &cfg))

	title := "From CLI"
	watch := true
	Options{Title: &title, Watch: &watch}.Apply(&cfg)

	assert.Equal(t, "From CLI", cfg.Title)
	assert.True(t, cfg.Watch)
	assert.Equal(t, "_site", cfg.Dst, "unset option leaves merged value alone")
}

func TestOptionsNilFieldsDoNotOverride(t *testing.T) {
	cfg := Defaults()
	cfg.Publish = true
	Options{}.Apply(&cfg)
	assert.True(t, cfg.Publish)
	assert.Equal(t, 3000, cfg.Port)
}
