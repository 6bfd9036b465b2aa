package api

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTSConfig = `{
  // comments and trailing commas are allowed
  "compilerOptions": {
    "rootDir": "src",
    "outDir": "dist",
    "target": "es2022",
  },
}
`

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	for path, contents := range files {
		abs := filepath.Join(dir, filepath.FromSlash(path))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(contents), 0o644))
	}
	return dir
}

func readFile(t *testing.T, dir string, path string) string {
	t.Helper()
	contents, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(path)))
	require.NoError(t, err)
	return string(contents)
}

func texts(msgs []Message) string {
	var result []string
	for _, msg := range msgs {
		result = append(result, msg.Text)
	}
	return strings.Join(result, "\n")
}

func TestNormalize(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"tsconfig.json":      testTSConfig,
		"dist/index.js":      "import { f } from \"./utils\";\nexport * from './lib';\nconsole.log(f());\n",
		"dist/utils.js":      "export const f = () => 1;\n",
		"dist/lib/index.mjs": "export const g = 2;\n",
	})

	result := Normalize(context.Background(), NormalizeOptions{AbsWorkingDir: dir})
	require.Empty(t, result.Errors, texts(result.Errors))
	assert.Equal(t, 3, result.FilesScanned)
	assert.Equal(t, 1, result.FilesRewritten)
	assert.Equal(t, 2, result.SpecifiersRewritten)
	assert.Equal(t, "import { f } from \"./utils.js\";\nexport * from './lib/index.mjs';\nconsole.log(f());\n", readFile(t, dir, "dist/index.js"))

	again := Normalize(context.Background(), NormalizeOptions{AbsWorkingDir: dir})
	require.Empty(t, again.Errors, texts(again.Errors))
	assert.Equal(t, 0, again.FilesRewritten)
}

func TestNormalizeDryRun(t *testing.T) {
	original := "import { f } from \"./utils\";\n"
	dir := writeProject(t, map[string]string{
		"tsconfig.json": testTSConfig,
		"dist/index.js": original,
		"dist/utils.js": "export const f = () => 1;\n",
	})

	var diff bytes.Buffer
	result := Normalize(context.Background(), NormalizeOptions{
		AbsWorkingDir: dir,
		DryRun:        true,
		DiffOutput:    &diff,
	})
	require.Empty(t, result.Errors, texts(result.Errors))
	assert.Equal(t, original, readFile(t, dir, "dist/index.js"))
	assert.Contains(t, diff.String(), "-import { f } from \"./utils\";\n")
	assert.Contains(t, diff.String(), "+import { f } from \"./utils.js\";\n")
}

func TestNormalizeUnresolved(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"tsconfig.json": testTSConfig,
		"dist/index.js": "import { f } from './missing';\n",
	})

	result := Normalize(context.Background(), NormalizeOptions{AbsWorkingDir: dir})
	require.Len(t, result.Errors, 1)
	assert.Equal(t, `Could not resolve "./missing"`, result.Errors[0].Text)
	require.NotNil(t, result.Errors[0].Location)
	assert.Equal(t, 1, result.Errors[0].Location.Line)
	assert.Equal(t, "dist/index.js", filepath.ToSlash(strings.TrimPrefix(result.Errors[0].Location.File, dir+string(filepath.Separator))))
}

func TestNormalizeUnresolvedSuggestion(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"tsconfig.json":   testTSConfig,
		"dist/index.js":   "import { f } from './utlis';\n",
		"dist/utils.js":   "export const f = 1;\n",
		"dist/types.d.ts": "export {};\n",
	})

	result := Normalize(context.Background(), NormalizeOptions{AbsWorkingDir: dir})
	require.Len(t, result.Errors, 1)
	assert.Equal(t, `Could not resolve "./utlis" (did you mean "./utils"?)`, result.Errors[0].Text)
}

func TestBuild(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"tsconfig.json":    testTSConfig,
		"src/main.ts":      "import { f } from './utils';\nimport { g } from './lib';\nimport { h } from './esm.mjs';\nexport const value: number = f() + g + h;\n",
		"src/utils.ts":     "export const f = (): number => 1;\n",
		"src/lib/index.ts": "export const g: number = 2;\n",
		"src/esm.mts":      "export const h = 3;\n",
		"src/types.d.ts":   "export type T = string;\n",
	})

	result := Build(context.Background(), BuildOptions{AbsWorkingDir: dir, Normalize: true})
	require.Empty(t, result.Errors, texts(result.Errors))
	assert.Equal(t, []string{
		filepath.Join(dir, "dist", "esm.mjs"),
		filepath.Join(dir, "dist", "lib", "index.js"),
		filepath.Join(dir, "dist", "main.js"),
		filepath.Join(dir, "dist", "utils.js"),
	}, result.OutputFiles)

	code := readFile(t, dir, "dist/main.js")
	assert.Contains(t, code, `from "./utils.js"`)
	assert.Contains(t, code, `from "./lib/index.js"`)
	assert.Contains(t, code, `from "./esm.mjs"`)
	assert.NotContains(t, code, "number")
	assert.NoFileExists(t, filepath.Join(dir, "dist", "types.d.js"))

	// Everything was already qualified by the build itself
	assert.Equal(t, 0, result.SpecifiersRewritten)
}

func TestBuildRejectsInvalidLoaders(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"tsconfig.json": testTSConfig,
		"src/main.ts":   "export {};\n",
	})

	result := Build(context.Background(), BuildOptions{
		AbsWorkingDir: dir,
		Loaders:       map[string]string{"ts": "ts"},
	})
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Text, `Invalid file extension: "ts"`)
}

func TestBuildInvalidTarget(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"tsconfig.json": testTSConfig,
		"src/main.ts":   "export {};\n",
	})

	result := Build(context.Background(), BuildOptions{AbsWorkingDir: dir, Target: "chrome"})
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Text, `invalid target "chrome"`)
}

func TestBundle(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"src/main.ts": "import { which } from './x';\nimport { g } from './lib';\nconsole.log(which, g);\n",
		"src/x.js":    "export const which = 'from-js';\n",
		"src/x.ts":    "export const which: string = 'from-ts';\n",
		"src/lib.mts": "export const g = 'from-lib';\n",
	})

	result := Bundle(context.Background(), BundleOptions{
		AbsWorkingDir: dir,
		EntryPoint:    "src/main.ts",
	})
	require.Empty(t, result.Errors, texts(result.Errors))
	code := string(result.Contents)
	assert.Contains(t, code, "from-js")
	assert.NotContains(t, code, "from-ts")
	assert.Contains(t, code, "from-lib")
}

func TestBundleExternalSourceMapNeedsOutfile(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"main.ts": "export {};\n",
	})

	result := Bundle(context.Background(), BundleOptions{
		AbsWorkingDir: dir,
		EntryPoint:    "main.ts",
		Sourcemap:     SourceMapExternal,
	})
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "External source maps need an output file", result.Errors[0].Text)
}

func TestBundleWritesOutfile(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"main.ts": "import chalk from 'chalk';\nconsole.log(chalk);\n",
	})

	result := Bundle(context.Background(), BundleOptions{
		AbsWorkingDir:    dir,
		EntryPoint:       "main.ts",
		ExternalPackages: true,
		Outfile:          "out/main.mjs",
		Sourcemap:        SourceMapExternal,
	})
	require.Empty(t, result.Errors, texts(result.Errors))
	code := readFile(t, dir, "out/main.mjs")
	assert.Contains(t, code, `from "chalk"`)
	assert.Contains(t, code, "sourceMappingURL=main.mjs.map")
	assert.FileExists(t, filepath.Join(dir, "out", "main.mjs.map"))
}

func TestResolve(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"src/main.ts":      "",
		"src/lib/index.ts": "",
		"src/data.json":    "{}",
	})

	t.Run("index", func(t *testing.T) {
		result := Resolve(context.Background(), ResolveOptions{
			AbsWorkingDir: dir,
			Specifier:     "./lib",
			Importer:      "src/main.ts",
		})
		require.Empty(t, result.Errors, texts(result.Errors))
		assert.False(t, result.Deferred)
		assert.Equal(t, filepath.Join(dir, "src", "lib", "index.ts"), result.Path)
		assert.True(t, strings.HasPrefix(result.URL, "file:///"))
		assert.Equal(t, "module", result.Format)
	})

	t.Run("json", func(t *testing.T) {
		result := Resolve(context.Background(), ResolveOptions{
			AbsWorkingDir: dir,
			Specifier:     "./src/data",
		})
		assert.Equal(t, filepath.Join(dir, "src", "data.json"), result.Path)
		assert.Equal(t, "json", result.Format)
	})

	for _, specifier := range []string{"lodash", "node:fs", "fs:something", "./src/missing"} {
		t.Run(specifier, func(t *testing.T) {
			result := Resolve(context.Background(), ResolveOptions{
				AbsWorkingDir: dir,
				Specifier:     specifier,
			})
			assert.Empty(t, result.Errors)
			assert.True(t, result.Deferred)
			assert.Empty(t, result.URL)
		})
	}
}
