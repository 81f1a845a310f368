// Package runtime holds the helper library that translated code calls
// through the _esdown object, and the loader shim for standalone output.
package runtime

import (
	_ "embed"
	"strconv"
	"strings"
)

//go:embed esdown.js
var source string

// Source returns the runtime helper library.
func Source() string {
	return source
}

// Prepend places the runtime library before text.
func Prepend(text string) string {
	return strings.TrimRight(source, "\n") + "\n\n" + text
}

// Wrap encloses translated module text in a loader shim. The shim supplies
// __load and exports: under CommonJS they come from require and the host
// module; elsewhere exports is a fresh object published as the global
// named by global, and __load reads modules that earlier scripts published
// the same way. A truthy second argument to __load marks a legacy module:
// its exports object becomes the default export of a namespace that also
// carries its own properties.
func Wrap(text, global string) string {
	name := "null"
	if global != "" {
		name = strconv.Quote(global)
	}

	var b strings.Builder

	b.WriteString(`(function(fn, name) { "use strict"; ` +
		`var root = typeof self !== "undefined" ? self : typeof global !== "undefined" ? global : this; ` +
		`function interop(m, legacy) { ` +
		`if (!legacy || m == null) return m; ` +
		`var ns = {}; Object.keys(m).forEach(function(k) { ns[k] = m[k]; }); ` +
		`ns["default"] = m; return ns; } ` +
		`if (typeof exports !== "undefined" && typeof require === "function") { ` +
		`fn.call(root, function(path, legacy) { return interop(require(path), legacy); }, exports); ` +
		`} else { ` +
		`var out = {}; ` +
		`fn.call(root, function(path, legacy) { ` +
		`if (root[path] === void 0) throw new Error("Module not found: " + path); ` +
		`return interop(root[path], legacy); }, out); ` +
		`if (name) root[name] = out; } ` +
		`})(function(__load, exports) {`)
	b.WriteString("\n\n")
	b.WriteString(text)
	b.WriteString("\n\n}, ")
	b.WriteString(name)
	b.WriteString(");\n")

	return b.String()
}
