package commands_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/esdown/cmd/esdown/commands"
	"github.com/Sumatoshi-tech/esdown/pkg/config"
	"github.com/Sumatoshi-tech/esdown/pkg/diag"
)

type result struct {
	stdout string
	stderr string
}

func execute(t *testing.T, fs afero.Fs, stdin string, args ...string) (result, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := commands.NewRootCommand(fs)
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.Execute()

	return result{stdout: stdout.String(), stderr: stderr.String()}, err
}

func files(t *testing.T, entries map[string]string) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	for path, content := range entries {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}

	return fs
}

func TestTranslateFile(t *testing.T) {
	t.Parallel()

	fs := files(t, map[string]string{"/src/a.js": "const x = 1;\n"})

	res, err := execute(t, fs, "", "translate", "/src/a.js")
	require.NoError(t, err)
	assert.Equal(t, "\"use strict\"; var x = 1;\n", res.stdout)
}

func TestTranslateStdinScript(t *testing.T) {
	t.Parallel()

	res, err := execute(t, afero.NewMemMapFs(), "let a = 1;\n", "translate", "--script")
	require.NoError(t, err)
	assert.Equal(t, "var a = 1;\n", res.stdout)
}

func TestTranslateWrapToFile(t *testing.T) {
	t.Parallel()

	fs := files(t, map[string]string{"/src/a.js": "export const x = 1;\n"})

	res, err := execute(t, fs, "", "translate", "/src/a.js", "--wrap", "--global", "lib", "-o", "/dist/a.js")
	require.NoError(t, err)
	assert.Empty(t, res.stdout)

	out, err := afero.ReadFile(fs, "/dist/a.js")
	require.NoError(t, err)

	text := string(out)
	assert.True(t, strings.HasPrefix(text, "(function(fn, name) {"))
	assert.Contains(t, text, "exports.x = x;")
	assert.Contains(t, text, `}, "lib");`)
}

func TestTranslateRuntime(t *testing.T) {
	t.Parallel()

	fs := files(t, map[string]string{"/src/a.js": "var x = 1;\n"})

	res, err := execute(t, fs, "", "translate", "--runtime", "/src/a.js")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.stdout, "var _esdown = "))
	assert.True(t, strings.HasSuffix(res.stdout, "\"use strict\"; var x = 1;\n"))
}

func TestTranslateRejectsOtherLanguages(t *testing.T) {
	t.Parallel()

	fs := files(t, map[string]string{"/src/main.py": "def main():\n    print('hi')\n"})

	_, err := execute(t, fs, "", "translate", "/src/main.py")
	require.ErrorIs(t, err, commands.ErrNotJavaScript)
}

func TestTranslateMissingFile(t *testing.T) {
	t.Parallel()

	_, err := execute(t, afero.NewMemMapFs(), "", "translate", "/src/nope.js")

	var ioErr *diag.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "/src/nope.js", ioErr.Path)
}

func TestTranslateSyntaxErrorCarriesPath(t *testing.T) {
	t.Parallel()

	fs := files(t, map[string]string{"/src/bad.js": "var a;\nclass A extends B {}\n"})

	_, err := execute(t, fs, "", "translate", "/src/bad.js")

	var syntax *diag.SyntaxError
	require.ErrorAs(t, err, &syntax)
	assert.Equal(t, "/src/bad.js", syntax.Path)
	assert.Equal(t, 2, syntax.Line)

	excerpt := diag.Excerpt(err, false)
	assert.Contains(t, excerpt, "at /src/bad.js:2:17")
	assert.Contains(t, excerpt, "class A extends B {}")
}

func TestTranslateDiff(t *testing.T) {
	t.Parallel()

	fs := files(t, map[string]string{"/src/a.js": "const x = 1;\nx;\n"})

	res, err := execute(t, fs, "", "translate", "--diff", "/src/a.js")
	require.NoError(t, err)

	assert.Contains(t, res.stdout, "-const x = 1;")
	assert.Contains(t, res.stdout, "+\"use strict\"; var x = 1;")
	assert.Contains(t, res.stdout, " x;")
}

func TestBundleToFile(t *testing.T) {
	t.Parallel()

	fs := files(t, map[string]string{
		"/app/main.js": "import { dep } from './dep';\nexport const value = dep;\n",
		"/app/dep.js":  "export const dep = 42;\n",
	})

	res, err := execute(t, fs, "", "bundle", "/app/main.js", "-o", "/dist/bundle.js")
	require.NoError(t, err)
	assert.Contains(t, res.stderr, "bundled")
	assert.Contains(t, res.stderr, "2 modules, 0 external")
	assert.Contains(t, res.stderr, "/dist/bundle.js")

	out, err := afero.ReadFile(fs, "/dist/bundle.js")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "(function(fn, name) {"))
	assert.Contains(t, string(out), "var _M2 = {}, _M1 = exports;")
}

func TestBundleUnwrappedToStdout(t *testing.T) {
	t.Parallel()

	fs := files(t, map[string]string{"/app/main.js": "var a = 1;\n"})

	res, err := execute(t, fs, "", "bundle", "--wrap=false", "/app/main.js")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.stdout, "var _M1 = exports;\n"))
	assert.Empty(t, res.stderr)
}

func TestBundleRejectsNegativeReadCap(t *testing.T) {
	t.Parallel()

	fs := files(t, map[string]string{"/app/main.js": "var a = 1;\n"})

	res, err := execute(t, fs, "", "bundle", "--max-concurrent-reads=-1", "/app/main.js")
	require.ErrorIs(t, err, config.ErrInvalidConcurrency)
	assert.Empty(t, res.stdout)
}

func graphFS(t *testing.T) afero.Fs {
	t.Helper()

	return files(t, map[string]string{
		"/app/main.js": "import { dep } from './dep.js';\nimport fs from 'node:fs';\nimport x from 'https://cdn.example.com/x.js';\n",
		"/app/dep.js":  "export var dep = 1;\n",
	})
}

func TestGraphJSON(t *testing.T) {
	t.Parallel()

	res, err := execute(t, graphFS(t), "", "graph", "--format", "json", "/app/main.js")
	require.NoError(t, err)

	var nodes []commands.GraphNode
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &nodes))

	assert.Equal(t, []commands.GraphNode{
		{ID: "_M2", Path: "/app/dep.js", Kind: commands.KindBundled},
		{ID: "_M3", Path: "node:fs", Kind: commands.KindLegacy},
		{ID: "_M4", Path: "https://cdn.example.com/x.js", Kind: commands.KindExternal},
		{ID: "_M1", Path: "/app/main.js", Kind: commands.KindRoot, Edges: []string{"_M2", "_M3", "_M4"}},
	}, nodes)
}

func TestGraphYAML(t *testing.T) {
	t.Parallel()

	res, err := execute(t, graphFS(t), "", "graph", "-f", "yaml", "/app/main.js")
	require.NoError(t, err)

	var nodes []commands.GraphNode
	require.NoError(t, yaml.Unmarshal([]byte(res.stdout), &nodes))
	require.Len(t, nodes, 4)
	assert.Equal(t, commands.KindRoot, nodes[3].Kind)
}

func TestGraphTable(t *testing.T) {
	t.Parallel()

	res, err := execute(t, graphFS(t), "", "graph", "/app/main.js")
	require.NoError(t, err)

	assert.Contains(t, res.stdout, "Total: 4 modules")
	assert.Contains(t, res.stdout, "/app/dep.js")
	assert.Contains(t, res.stdout, "_M2, _M3, _M4")
}

func TestGraphUnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := execute(t, graphFS(t), "", "graph", "-f", "xml", "/app/main.js")
	require.ErrorIs(t, err, commands.ErrUnknownFormat)
}

func TestRuntimeCommand(t *testing.T) {
	t.Parallel()

	res, err := execute(t, afero.NewMemMapFs(), "", "runtime")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.stdout, "var _esdown = "))
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	res, err := execute(t, afero.NewMemMapFs(), "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.stdout, "esdown "))
}

func TestInvalidLogLevel(t *testing.T) {
	t.Parallel()

	_, err := execute(t, afero.NewMemMapFs(), "", "--log-level", "loud", "runtime")
	require.ErrorIs(t, err, config.ErrInvalidLogLevel)
}

func TestDebugLogsGoToStderr(t *testing.T) {
	t.Parallel()

	fs := files(t, map[string]string{"/app/main.js": "var a = 1;\n"})

	res, err := execute(t, fs, "", "--log-level", "debug", "--log-json", "bundle", "--wrap=false", "/app/main.js")
	require.NoError(t, err)
	assert.Contains(t, res.stderr, `"msg":"module translated"`)
	assert.Contains(t, res.stderr, `"service":"esdown"`)
	assert.NotContains(t, res.stdout, "module translated")
}
