package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLoaderConfig(t *testing.T) {
	loaders := DefaultLoaderConfig()
	assert.Equal(t, []string{".cts", ".jsx", ".mts", ".ts", ".tsx"}, loaders.Extensions())

	options, ok := loaders.Lookup(".tsx")
	assert.True(t, ok)
	assert.Equal(t, DialectTSX, options.SourceDialect)
	assert.Equal(t, FormatESModule, options.OutputFormat)
	assert.Equal(t, DefaultTargetRuntime, options.TargetRuntime)

	_, ok = loaders.Lookup(".js")
	assert.False(t, ok)
}

func TestLoaderConfigIsImmutable(t *testing.T) {
	base := DefaultLoaderConfig()
	withJS := base.With(".js", TransformOptions{SourceDialect: DialectJSX})
	withoutTS := base.Without(".ts")
	retargeted := base.WithTarget("es2020").WithSourceMap(SourceMapNone)

	_, ok := base.Lookup(".js")
	assert.False(t, ok)
	_, ok = withJS.Lookup(".js")
	assert.True(t, ok)

	_, ok = base.Lookup(".ts")
	assert.True(t, ok)
	_, ok = withoutTS.Lookup(".ts")
	assert.False(t, ok)

	options, _ := base.Lookup(".ts")
	assert.Equal(t, DefaultTargetRuntime, options.TargetRuntime)
	assert.Equal(t, SourceMapInline, options.SourceMapMode)
	options, _ = retargeted.Lookup(".ts")
	assert.Equal(t, "es2020", options.TargetRuntime)
	assert.Equal(t, SourceMapNone, options.SourceMapMode)
}

func TestExtensions(t *testing.T) {
	assert.Equal(t, []string{".mjs", ".cjs", ".js", ".json", ".jsx", ".mts", ".cts", ".ts", ".tsx"}, ResolveExtensions)

	for _, tc := range []struct {
		path string
		ext  string
	}{
		{"./utils", ""},
		{"./utils.js", ".js"},
		{"./lib/v1.2", ""},
		{"./jquery.min", ""},
		{"./types.d.ts", ".ts"},
		{".hidden", ""},
		{"C:\\src\\x.mts", ".mts"},
		{"./dir.js/file", ""},
	} {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.ext, ExtensionOf(tc.path))
			assert.Equal(t, tc.ext != "", HasRecognizedExtension(tc.path))
		})
	}

	assert.True(t, IsDeclarationFile("/src/types.d.ts"))
	assert.True(t, IsDeclarationFile("globals.d.mts"))
	assert.False(t, IsDeclarationFile("/src/types.ts"))
	assert.False(t, IsDeclarationFile("/src/a.d.js"))

	assert.Equal(t, "/dist/x.js", OutputPathFor("/dist/x.ts"))
	assert.Equal(t, "/dist/x.js", OutputPathFor("/dist/x.tsx"))
	assert.Equal(t, "/dist/x.mjs", OutputPathFor("/dist/x.mts"))
	assert.Equal(t, "/dist/x.cjs", OutputPathFor("/dist/x.cts"))
	assert.Equal(t, "/dist/x.jsx", OutputPathFor("/dist/x.jsx"))
}
