package cli

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/esmkit/esmkit/internal/exitcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := NewRootCommand(&stdout, &stderr)
	root.SetArgs(normalizeArgs(args))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

const outputTree = `{"compilerOptions": {"rootDir": "src", "outDir": "dist"}}`

func TestNormalizeArgs(t *testing.T) {
	assert.Equal(t,
		[]string{"bundle", "--loader=.js=jsx", "--external=chalk", "main.ts", "--", "--loader:.x=y"},
		normalizeArgs([]string{"bundle", "--loader:.js=jsx", "--external:chalk", "main.ts", "--", "--loader:.x=y"}))
}

func TestNormalizeCommand(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"tsconfig.json": outputTree,
		"dist/index.js": "import { f } from './utils';\n",
		"dist/utils.js": "export const f = 1;\n",
	})

	_, stderr, err := execute(t, "normalize", "--cwd", dir)
	require.NoError(t, err)
	assert.Equal(t, "Rewrote 1 specifier in 1 file (2 files scanned)\n", stderr)

	contents, err := os.ReadFile(filepath.Join(dir, "dist", "index.js"))
	require.NoError(t, err)
	assert.Equal(t, "import { f } from './utils.js';\n", string(contents))
}

func TestNormalizeCommandDryRun(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"tsconfig.json": outputTree,
		"dist/index.js": "import { f } from './utils';\n",
		"dist/utils.js": "export const f = 1;\n",
	})

	stdout, stderr, err := execute(t, "normalize", "--cwd", dir, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, stdout, "+import { f } from './utils.js';\n")
	assert.Contains(t, stderr, "Would rewrite 1 specifier")

	contents, err := os.ReadFile(filepath.Join(dir, "dist", "index.js"))
	require.NoError(t, err)
	assert.Equal(t, "import { f } from './utils';\n", string(contents))
}

func TestNormalizeCommandUnresolved(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"tsconfig.json": outputTree,
		"dist/index.js": "import { f } from './missing';\n",
	})

	_, stderr, err := execute(t, "normalize", "--cwd", dir, "--color=false")
	assert.ErrorIs(t, err, errReported)
	assert.Equal(t, exitcode.Failure, exitcode.Get(err))
	assert.Contains(t, stderr, "error: Could not resolve \"./missing\"\n")
	assert.Contains(t, stderr, "1 error\n")

	_, stderr, err = execute(t, "normalize", "--cwd", dir, "--log-level=silent")
	assert.ErrorIs(t, err, errReported)
	assert.Empty(t, stderr)
}

func TestResolveCommand(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"src/main.ts":      "",
		"src/lib/index.ts": "",
	})

	stdout, _, err := execute(t, "resolve", "./lib", "--cwd", dir, "--from", "src/main.ts", "--log-level=warning")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "src", "lib", "index.ts")+"\n", stdout)

	stdout, _, err = execute(t, "resolve", "lodash", "--cwd", dir)
	require.NoError(t, err)
	assert.Equal(t, "deferred\n", stdout)
}

func TestBundleCommand(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"main.ts": "import { which } from './x';\nconsole.log(which);\n",
		"x.js":    "export const which = 'from-js';\n",
		"x.ts":    "export const which: string = 'from-ts';\n",
	})

	stdout, _, err := execute(t, "bundle", "main.ts", "--cwd", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "from-js")
	assert.NotContains(t, stdout, "from-ts")
}

func TestBundleCommandLoaderFlag(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"main.js": "export const element = <div />;\n",
	})

	stdout, _, err := execute(t, "bundle", "main.js", "--cwd", dir, "--loader:.js=jsx", "--log-level=silent")
	require.NoError(t, err)
	assert.Contains(t, stdout, "createElement")

	_, _, err = execute(t, "bundle", "main.js", "--cwd", dir, "--loader:.js=css")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `Invalid loader value: "css"`)
}

func TestSettingsFromConfigFile(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"esmkit.yaml": "log-level: silent\nloader:\n  .js: jsx\n",
		"main.js":     "export const element = <div />;\n",
	})

	stdout, _, err := execute(t, "bundle", "main.js", "--cwd", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "createElement")
}

func TestSettingsFromEnvironment(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"tsconfig.json": outputTree,
		"src/main.ts":   "export {};\n",
	})
	t.Setenv("ESMKIT_LOG_LEVEL", "silent")
	t.Setenv("ESMKIT_TARGET", "chrome")

	_, _, err := execute(t, "build", "--cwd", dir)
	assert.ErrorIs(t, err, errReported)

	// Flags win over the environment
	_, _, err = execute(t, "build", "--cwd", dir, "--target", "es2020")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "dist", "main.js"))
}

func TestUsageErrors(t *testing.T) {
	_, _, err := execute(t, "normalize", "--bogus")
	require.Error(t, err)
	assert.Equal(t, exitcode.Usage, exitcode.Get(err))

	_, _, err = execute(t, "normalize", "--log-level=loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `Invalid log level: "loud"`)
}

func TestRunEnvironment(t *testing.T) {
	dir := writeProject(t, map[string]string{
		".env":       "ESMKIT_TEST_NEW=1\nESMKIT_TEST_EXISTING=changed\n",
		".env.local": "ESMKIT_TEST_NEW=2\n",
	})
	t.Setenv("ESMKIT_TEST_EXISTING", "kept")

	env, err := runEnvironment(dir, []string{".env", ".env.local"})
	require.NoError(t, err)
	assert.Contains(t, env, "ESMKIT_TEST_NEW=1")
	assert.NotContains(t, env, "ESMKIT_TEST_NEW=2")
	assert.Contains(t, env, "ESMKIT_TEST_EXISTING=kept")
	assert.NotContains(t, env, "ESMKIT_TEST_EXISTING=changed")

	_, err = runEnvironment(dir, []string{"missing.env"})
	assert.Error(t, err)
}

func TestRunCommand(t *testing.T) {
	if _, err := exec.LookPath("node"); err != nil {
		t.Skip("node is not installed")
	}
	dir := writeProject(t, map[string]string{
		".env":         "GREETING=hello\n",
		"src/main.ts":  "import { name } from './name';\nconst greeting: string = process.env.GREETING ?? '';\nconsole.log(greeting, name(process.argv[2]));\n",
		"src/name.mts": "export const name = (who: string): string => who.toUpperCase();\n",
		"src/fail.ts":  "process.exit(3);\n",
	})

	stdout, _, err := execute(t, "run", "--cwd", dir, "--env-file", ".env", "src/main.ts", "--", "there")
	require.NoError(t, err)
	assert.Equal(t, "hello THERE\n", stdout)

	_, _, err = execute(t, "run", "--cwd", dir, "src/fail.ts")
	assert.ErrorIs(t, err, errReported)
	assert.Equal(t, 3, exitcode.Get(err))
}
