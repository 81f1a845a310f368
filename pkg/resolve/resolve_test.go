package resolve_test

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/esdown/pkg/resolve"
)

func newFs(t *testing.T, files ...string) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()

	for _, f := range files {
		require.NoError(t, afero.WriteFile(fs, filepath.FromSlash(f), []byte("// "+f), 0o644))
	}

	return fs
}

func TestResolveRelative(t *testing.T) {
	t.Parallel()

	fs := newFs(t,
		"/app/main.js",
		"/app/util.js",
		"/app/lib/index.js",
		"/app/data.json",
	)
	r := resolve.NewResolver(fs)

	tests := []struct {
		name      string
		specifier string
		want      string
	}{
		{"exact file", "./util.js", "/app/util.js"},
		{"default extension", "./util", "/app/util.js"},
		{"directory index", "./lib", "/app/lib/index.js"},
		{"other extension", "./data.json", "/app/data.json"},
		{"parent directory", "../app/util", "/app/util.js"},
		{"absolute", "/app/util", "/app/util.js"},
		{"missing file keeps path", "./missing", "/app/missing.js"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := r.Resolve(tt.specifier, filepath.FromSlash("/app"))
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestResolveCustomSettings(t *testing.T) {
	t.Parallel()

	fs := newFs(t, "/src/a.mjs", "/src/pkg/main.mjs")
	r := &resolve.Resolver{Fs: fs, DefaultExtension: ".mjs", IndexFile: "main.mjs"}

	got, err := r.Resolve("./a", filepath.FromSlash("/src"))
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/src/a.mjs"), got)

	got, err = r.Resolve("./pkg", filepath.FromSlash("/src"))
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/src/pkg/main.mjs"), got)
}

func TestResolvePackage(t *testing.T) {
	t.Parallel()

	fs := newFs(t, "/node_modules/left-pad/index.js", "/app/src/main.js")
	r := resolve.NewResolver(fs)

	got, err := r.Resolve("left-pad", filepath.FromSlash("/app/src"))
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/node_modules/left-pad/index.js"), got)

	_, err = r.Resolve("right-pad", filepath.FromSlash("/app/src"))
	require.ErrorIs(t, err, resolve.ErrNotFound)
}

func TestResolveSchemeUnchanged(t *testing.T) {
	t.Parallel()

	r := resolve.NewResolver(afero.NewMemMapFs())

	got, err := r.Resolve("node:fs", "/app")
	require.NoError(t, err)
	assert.Equal(t, "node:fs", got)
}

func TestSchemes(t *testing.T) {
	t.Parallel()

	assert.True(t, resolve.HasScheme("node:fs"))
	assert.True(t, resolve.HasScheme("https://example.com/x.js"))
	assert.False(t, resolve.HasScheme("./a.js"))
	assert.False(t, resolve.HasScheme(`C:\src\a.js`))

	assert.Equal(t, "node", resolve.Scheme("NODE:fs"))
	assert.Empty(t, resolve.Scheme("fs"))

	var defaults resolve.Schemes

	assert.True(t, defaults.IsLegacy("node:fs"))
	assert.False(t, defaults.IsLegacy("https://example.com/x.js"))
	assert.False(t, defaults.IsLegacy("fs"))
	assert.Equal(t, "fs", defaults.Strip("node:fs"))
	assert.Equal(t, "fs", defaults.Strip("fs"))

	custom := resolve.Schemes{Legacy: []string{"cjs"}}

	assert.True(t, custom.IsLegacy("cjs:lib"))
	assert.False(t, custom.IsLegacy("node:fs"))

	none := resolve.Schemes{Legacy: []string{}}

	assert.False(t, none.IsLegacy("node:fs"))
}
