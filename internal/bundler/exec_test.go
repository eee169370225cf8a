package bundler

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sperrors "git.home.luguber.info/inful/sitepress/internal/errors"
)

func TestCollectWarnings(t *testing.T) {
	output := "Start building sites\nWARN deprecated shortcode 'foo'\ninfo: 12 pages\n  WARN missing alt text\n"
	assert.Equal(t, []string{
		"WARN deprecated shortcode 'foo'",
		"WARN missing alt text",
	}, collectWarnings(output))
}

func TestCollectWarningsNone(t *testing.T) {
	assert.Nil(t, collectWarnings("all good\n"))
}

func TestRunMissingCommandIsBundlerError(t *testing.T) {
	b := NewExecBundler("definitely-not-a-real-generator-binary")
	_, err := b.Run(context.Background(), BuildSpec{Src: ".", Dst: t.TempDir(), BaseURL: "/"})
	require.Error(t, err)
	assert.True(t, sperrors.IsCategory(err, sperrors.CategoryBundler))
}

func TestRunCapturesOutputAndWarnings(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on sh")
	}

	b := NewExecBundler("sh", "-c", `echo "WARN slow template"; echo done; true`, "--")
	stats, err := b.Run(context.Background(), BuildSpec{Src: ".", Dst: t.TempDir(), BaseURL: "/"})
	require.NoError(t, err)

	assert.Equal(t, []string{"WARN slow template"}, stats.Warnings)
	assert.Contains(t, stats.Output, "done")
	assert.False(t, stats.StartedAt.IsZero())
}

func TestRunFailureCarriesOutputDetail(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on sh")
	}

	b := NewExecBundler("sh", "-c", `echo "template error: layout not found"; exit 1`, "--")
	_, err := b.Run(context.Background(), BuildSpec{Src: ".", Dst: t.TempDir(), BaseURL: "/"})
	require.Error(t, err)

	var spe *sperrors.SitePressError
	require.ErrorAs(t, err, &spe)
	assert.Contains(t, spe.Context["output"], "layout not found")
}
