package runtime_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/esdown/pkg/runtime"
)

func TestSourceDefinesHelpers(t *testing.T) {
	t.Parallel()

	src := runtime.Source()

	assert.True(t, strings.HasPrefix(src, "var _esdown = "))

	for _, helper := range []string{
		`"class": buildClass`, "computed:", "iter:", "asyncIter:", "asyncDelegate:", "spread:", "async:",
		"asyncGen:", "callSite:", "getPrivate:", "setPrivate:", "objd:", "arrayd:", "objRest:",
	} {
		assert.Contains(t, src, helper)
	}
}

func TestPrepend(t *testing.T) {
	t.Parallel()

	out := runtime.Prepend("var x = 1;")

	assert.True(t, strings.HasPrefix(out, "var _esdown = "))
	assert.True(t, strings.HasSuffix(out, "})();\n\nvar x = 1;"))
}

func TestWrap(t *testing.T) {
	t.Parallel()

	out := runtime.Wrap("exports.a = 1;", "")

	assert.Contains(t, out, "function(__load, exports) {\n\nexports.a = 1;\n\n}, null);\n")
	assert.Contains(t, out, "require(path)")

	named := runtime.Wrap("exports.a = 1;", "myLib")

	assert.True(t, strings.HasSuffix(named, `}, "myLib");`+"\n"))
}

func TestWrapLegacyInterop(t *testing.T) {
	t.Parallel()

	out := runtime.Wrap("var fs = __load(\"fs\", 1);", "")

	assert.Contains(t, out, "function(path, legacy) { return interop(require(path), legacy); }")
	assert.Contains(t, out, "return interop(root[path], legacy);")
	assert.Contains(t, out, "if (!legacy || m == null) return m;")
	assert.Contains(t, out, `ns["default"] = m; return ns;`)
}
