package locator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(statements []Statement) []string {
	var out []string
	for _, s := range statements {
		out = append(out, s.Text)
	}
	return out
}

func TestFindStatementForms(t *testing.T) {
	source := `import a from "./utils";
import { b, c } from './utils';
import * as ns from "./utils"
import "./utils";
const d = await import("./utils");
const e = require( './utils' );
export * from "./utils";
export { f as g } from "./utils";
`
	statements := FindStatements(source, "./utils")
	assert.Equal(t, []string{
		`import a from "./utils"`,
		`import { b, c } from './utils'`,
		`import * as ns from "./utils"`,
		`import "./utils"`,
		`import("./utils")`,
		`require( './utils' )`,
		`export * from "./utils"`,
		`export { f as g } from "./utils"`,
	}, texts(statements))

	for _, s := range statements {
		assert.Equal(t, "./utils", source[s.SpecStart:s.SpecEnd])
		assert.Equal(t, s.Text, source[s.Start:s.End])
	}
}

func TestFindStatementsMultiline(t *testing.T) {
	source := "import {\n  a,\n  b,\n} from \"./x\";\n"
	statements := FindStatements(source, "./x")
	require.Len(t, statements, 1)
	assert.Equal(t, 0, statements[0].Start)
}

func TestFindStatementsExactMatchOnly(t *testing.T) {
	source := `import a from "./utils.js";
import b from "./utilsx";
import c from "./utils/index";
import d from "x/utils";
import e from "./utils";
import f from "./utils-";
`
	assert.Equal(t, []string{`import e from "./utils"`}, texts(FindStatements(source, "./utils")))

	// Regular expression characters in the specifier are literal
	assert.Empty(t, FindStatements(`import a from "./aXb"`, "./a.b"))
	assert.Len(t, FindStatements(`import a from "./a.b"`, "./a.b"), 1)
}

func TestFindStatementsDoesNotCrossStatements(t *testing.T) {
	source := `import a from "./other"; const from = 1; export { x } from "./target"`
	statements := FindStatements(source, "./target")
	require.Len(t, statements, 1)
	assert.Equal(t, `export { x } from "./target"`, statements[0].Text)

	// Mismatched quotes never form a specifier
	assert.Empty(t, FindStatements(`import a from "./target'`, "./target"))
}

func TestFindStatementsSkipsTypeOnly(t *testing.T) {
	source := `import type { A } from "./types";
import type B from "./types";
import type * as C from "./types";
export type { D } from "./types";
import type, { e } from "./types";
import type from "./types";
import { type F, g } from "./types";
`
	assert.Equal(t, []string{
		`import type, { e } from "./types"`,
		`import type from "./types"`,
		`import { type F, g } from "./types"`,
	}, texts(FindStatements(source, "./types")))
}

func TestReplaceAll(t *testing.T) {
	source := "import a from './u';\nimport('./u');\nexport * from \"./u\";\nconst s = './u';\n"

	var seen []string
	updated, count, err := ReplaceAll(source, "./u", "./u.js", func(text string, _ Statement) error {
		seen = append(seen, text)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, "import a from './u.js';\nimport('./u.js');\nexport * from \"./u.js\";\nconst s = './u';\n", updated)

	// Every intermediate buffer is visible to the callback
	require.Len(t, seen, 3)
	assert.Equal(t, "import a from './u.js';\nimport('./u');\nexport * from \"./u\";\nconst s = './u';\n", seen[0])
	assert.Equal(t, updated, seen[2])

	// Running it again is a no-op
	again, count, err := ReplaceAll(updated, "./u", "./u.js", nil)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Equal(t, updated, again)
}

func TestReplaceAllStopsOnError(t *testing.T) {
	source := "import './a';\nimport './a';\n"
	stop := errors.New("stop")
	updated, count, err := ReplaceAll(source, "./a", "./a.js", func(string, Statement) error { return stop })
	assert.Same(t, stop, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, "import './a.js';\nimport './a';\n", updated)
}
