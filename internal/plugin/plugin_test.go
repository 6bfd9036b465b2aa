package plugin

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/esmkit/esmkit/internal/config"
	"github.com/esmkit/esmkit/internal/fs"
	"github.com/esmkit/esmkit/internal/loader"
	"github.com/esmkit/esmkit/internal/logger"
	"github.com/esmkit/esmkit/internal/resolver"
	"github.com/esmkit/esmkit/internal/transpiler"
	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, files map[string]string) string {
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

func messages(msgs []api.Message) string {
	var texts []string
	for _, msg := range msgs {
		texts = append(texts, msg.Text)
	}
	return strings.Join(texts, "\n")
}

func hostPlugin(ctx context.Context) api.Plugin {
	fsys := fs.RealFS()
	log := logger.NewDeferLog()
	return Host{
		FS:      fsys,
		Resolve: resolver.NewHook(fsys, log),
		Load:    loader.NewHook(fsys, log, transpiler.NewEsbuild(), config.DefaultLoaderConfig().WithSourceMap(config.SourceMapNone)),
	}.Plugin(ctx)
}

func TestHostPluginPrefersJavaScriptSiblings(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"src/main.ts":      "import { which } from './x';\nimport { f } from './utils.js';\nimport { g } from './lib';\nconsole.log(which, f(), g());\n",
		"src/x.js":         "export const which = 'from-js';\n",
		"src/x.ts":         "export const which: string = 'from-ts';\n",
		"src/utils.ts":     "export const f = (): number => 1;\n",
		"src/lib/index.ts": "export function g(): string { return 'lib'; }\n",
	})

	result := api.Build(api.BuildOptions{
		AbsWorkingDir: dir,
		EntryPoints:   []string{"src/main.ts"},
		Bundle:        true,
		Format:        api.FormatESModule,
		Platform:      api.PlatformNode,
		Write:         false,
		Plugins:       []api.Plugin{hostPlugin(context.Background())},
	})
	require.Empty(t, result.Errors, messages(result.Errors))
	require.Len(t, result.OutputFiles, 1)

	code := string(result.OutputFiles[0].Contents)
	assert.Contains(t, code, "from-js")
	assert.NotContains(t, code, "from-ts")
	assert.Contains(t, code, "'lib'")
}

func TestHostPluginReportsSyntaxErrors(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"src/main.ts":   "import './broken';\n",
		"src/broken.ts": "export const = 1;\n",
	})

	result := api.Build(api.BuildOptions{
		AbsWorkingDir: dir,
		EntryPoints:   []string{"src/main.ts"},
		Bundle:        true,
		Write:         false,
		Plugins:       []api.Plugin{hostPlugin(context.Background())},
	})
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, messages(result.Errors), "broken.ts")
}

func TestHostPluginDefersBareSpecifiers(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"src/main.ts": "import chalk from 'chalk';\nconsole.log(chalk);\n",
	})

	result := api.Build(api.BuildOptions{
		AbsWorkingDir: dir,
		EntryPoints:   []string{"src/main.ts"},
		Bundle:        true,
		Format:        api.FormatESModule,
		External:      []string{"chalk"},
		Write:         false,
		Plugins:       []api.Plugin{hostPlugin(context.Background())},
	})
	require.Empty(t, result.Errors, messages(result.Errors))
	assert.Contains(t, string(result.OutputFiles[0].Contents), `from "chalk"`)
}

func TestChunkRewriteQualifiesRelativeImports(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"src/main.ts":       "import { f } from './utils';\nimport x from './x';\nimport { g } from './lib';\nimport chalk from 'chalk';\nconsole.log(f(), x, g, chalk);\n",
		"src/utils.ts":      "export const f = (): number => 1;\n",
		"src/x.js":          "export default 2;\n",
		"src/lib/index.mts": "export const g = 3;\n",
	})
	fsys := fs.RealFS()
	log := logger.NewDeferLog()

	result := api.Build(api.BuildOptions{
		AbsWorkingDir: dir,
		EntryPoints:   []string{"src/main.ts", "src/utils.ts"},
		Outdir:        "dist",
		Outbase:       "src",
		Format:        api.FormatESModule,
		Sourcemap:     api.SourceMapLinked,
		Write:         true,
		Plugins: []api.Plugin{ChunkRewrite{
			FS:      fsys,
			Log:     log,
			Resolve: resolver.NewHook(fsys, log),
		}.Plugin(context.Background())},
	})
	require.Empty(t, result.Errors, messages(result.Errors))
	assert.Empty(t, result.Warnings, messages(result.Warnings))

	for _, file := range result.OutputFiles {
		assert.False(t, strings.HasSuffix(file.Path, ".map"), file.Path)
	}

	written, err := os.ReadFile(filepath.Join(dir, "dist", "main.js"))
	require.NoError(t, err)
	code := string(written)
	assert.Contains(t, code, `from "./utils.js"`)
	assert.Contains(t, code, `from "./x.js"`)
	assert.Contains(t, code, `from "./lib/index.mjs"`)
	assert.Contains(t, code, `from "chalk"`)
	assert.NotContains(t, code, "sourceMappingURL")

	_, err = os.Stat(filepath.Join(dir, "dist", "main.js.map"))
	assert.True(t, os.IsNotExist(err))
}

func TestChunkRewriteLeavesUnresolvableImports(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"src/main.ts": "import { f } from './missing';\nconsole.log(f);\n",
	})
	fsys := fs.RealFS()
	log := logger.NewDeferLog()

	result := api.Build(api.BuildOptions{
		AbsWorkingDir: dir,
		EntryPoints:   []string{"src/main.ts"},
		Outdir:        "dist",
		Format:        api.FormatESModule,
		Write:         false,
		Plugins: []api.Plugin{ChunkRewrite{
			FS:      fsys,
			Log:     log,
			Resolve: resolver.NewHook(fsys, log),
		}.Plugin(context.Background())},
	})
	require.Empty(t, result.Errors, messages(result.Errors))
	require.Len(t, result.OutputFiles, 1)
	assert.Contains(t, string(result.OutputFiles[0].Contents), `from "./missing"`)
}

func TestChunkRewriteRepeatedSpecifier(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"src/main.ts":  "import { f } from './utils';\nexport { g } from './utils';\nconst lazy = await import('./utils');\nconsole.log(f(), lazy);\n",
		"src/utils.ts": "export const f = (): number => 1;\nexport const g = 2;\n",
	})
	fsys := fs.RealFS()
	log := logger.NewDeferLog()

	result := api.Build(api.BuildOptions{
		AbsWorkingDir: dir,
		EntryPoints:   []string{"src/main.ts"},
		Outdir:        "dist",
		Outbase:       "src",
		Format:        api.FormatESModule,
		Write:         false,
		Plugins: []api.Plugin{ChunkRewrite{
			FS:      fsys,
			Log:     log,
			Resolve: resolver.NewHook(fsys, log),
		}.Plugin(context.Background())},
	})
	require.Empty(t, result.Errors, messages(result.Errors))
	assert.Empty(t, result.Warnings, messages(result.Warnings))
	require.Len(t, result.OutputFiles, 1)

	code := string(result.OutputFiles[0].Contents)
	assert.Equal(t, 3, strings.Count(code, `"./utils.js"`), code)
	assert.NotContains(t, code, `"./utils"`)
}
