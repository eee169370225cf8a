package plugin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPlugin struct {
	result     any
	initErr    error
	delay      time.Duration
	components map[string]string
	started    *atomic.Int32
	finished   *atomic.Int32
}

func (p *stubPlugin) Init(_ context.Context, _ Options) (any, error) {
	if p.started != nil {
		p.started.Add(1)
	}
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if p.finished != nil {
		p.finished.Add(1)
	}
	return p.result, p.initErr
}

type stubComponentPlugin struct {
	stubPlugin
}

func (p *stubComponentPlugin) ComponentMap(_ Options) (map[string]string, error) {
	return p.components, nil
}

func TestLoadAllAttachesInitResult(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("theme", func(string) (Plugin, error) {
		return &stubPlugin{result: "value-v"}, nil
	}))

	desc := &Descriptor{Kind: "theme", Options: Options{"color": "blue"}}
	NewLoader(reg).LoadAll(context.Background(), []*Descriptor{desc})

	assert.Equal(t, "value-v", desc.Options[ReservedInit])
	assert.Equal(t, "blue", desc.Options["color"], "user options preserved")
}

func TestLoadAllSkipsUnregisteredKindWithoutMutation(t *testing.T) {
	reg := NewRegistry()
	desc := &Descriptor{Kind: "unknown", Options: Options{"keep": 1}}

	NewLoader(reg).LoadAll(context.Background(), []*Descriptor{desc})

	assert.Equal(t, Options{"keep": 1}, desc.Options, "skipped plugin must not gain reserved keys")
}

func TestLoadAllNilOptionsStayNilWhenSkipped(t *testing.T) {
	reg := NewRegistry()
	desc := &Descriptor{Kind: "unknown"}

	NewLoader(reg).LoadAll(context.Background(), []*Descriptor{desc})
	assert.Nil(t, desc.Options)
}

func TestLoadAllAbsorbsInitFailure(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("broken", func(string) (Plugin, error) {
		return &stubPlugin{initErr: errors.New("boom")}, nil
	}))

	desc := &Descriptor{Kind: "broken", Options: Options{}}
	NewLoader(reg).LoadAll(context.Background(), []*Descriptor{desc})

	_, hasInit := desc.Options[ReservedInit]
	assert.False(t, hasInit, "failed init must not attach a result")
}

func TestLoadAllJoinsAllPluginsBeforeReturning(t *testing.T) {
	reg := NewRegistry()
	var started, finished atomic.Int32
	for _, kind := range []string{"p1", "p2", "p3"} {
		require.NoError(t, reg.Register(kind, func(string) (Plugin, error) {
			return &stubPlugin{result: kind, delay: 20 * time.Millisecond, started: &started, finished: &finished}, nil
		}))
	}

	descs := []*Descriptor{
		{Kind: "p1", Options: Options{}},
		{Kind: "p2", Options: Options{}},
		{Kind: "p3", Options: Options{}},
	}
	NewLoader(reg).LoadAll(context.Background(), descs)

	assert.Equal(t, int32(3), started.Load())
	assert.Equal(t, int32(3), finished.Load(), "LoadAll must not return before every Init completed")
	for _, d := range descs {
		assert.Contains(t, d.Options, ReservedInit)
	}
}

func TestLoadAllResolvesComponentPaths(t *testing.T) {
	install := t.TempDir()
	reg := NewRegistry()
	require.NoError(t, reg.Register("components", func(dir string) (Plugin, error) {
		p := &stubComponentPlugin{stubPlugin: stubPlugin{result: true}}
		p.components = map[string]string{"Sidebar": "widgets/sidebar.vue"}
		return p, nil
	}))

	desc := &Descriptor{Kind: "components", Path: install, Options: Options{}}
	NewLoader(reg).LoadAll(context.Background(), []*Descriptor{desc})

	got, ok := desc.Options[ReservedComponents].(map[string]string)
	require.True(t, ok, "component map must be a plain serializable map")
	require.Contains(t, got, "Sidebar")
	assert.True(t, filepath.IsAbs(got["Sidebar"]))
	assert.Equal(t, filepath.Join(install, "widgets", "sidebar.vue"), got["Sidebar"])
}

func TestLoadAllManifestInitOverridesKind(t *testing.T) {
	install := t.TempDir()
	manifest := "name: fancy\ninit: actual-kind\n"
	require.NoError(t, os.WriteFile(filepath.Join(install, "plugin.yaml"), []byte(manifest), 0o644))

	reg := NewRegistry()
	require.NoError(t, reg.Register("actual-kind", func(string) (Plugin, error) {
		return &stubPlugin{result: "from-manifest"}, nil
	}))

	desc := &Descriptor{Kind: "declared-kind", Path: install, Options: Options{}}
	NewLoader(reg).LoadAll(context.Background(), []*Descriptor{desc})

	assert.Equal(t, "from-manifest", desc.Options[ReservedInit])
}
