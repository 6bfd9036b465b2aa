package analysis

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

const (
	nodeImportStatement = "import_statement"
	nodeExportStatement = "export_statement"
	nodeString          = "string"
	nodeStringFragment  = "string_fragment"
	tokenType           = "type"
)

// moduleSpecifier is a static import or export found at the top level of a file
type moduleSpecifier struct {
	Text string

	// Byte offsets of the text between the quotes
	Start uint32
	End   uint32
}

func languageFor(ext string) *sitter.Language {
	switch ext {
	case ".tsx", ".jsx":
		return tsx.GetLanguage()
	}
	return typescript.GetLanguage()
}

// parseModuleSpecifiers returns the module specifiers of the top-level import
// and export declarations in declaration order. Type-only declarations,
// exports without a "from" clause, and specifiers that aren't plain string
// literals are left out.
func parseModuleSpecifiers(ctx context.Context, ext string, contents []byte) ([]moduleSpecifier, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(languageFor(ext))

	tree, err := parser.ParseCtx(ctx, nil, contents)
	if err != nil {
		return nil, fmt.Errorf("parse failed: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	var specifiers []moduleSpecifier
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		switch node.Type() {
		case nodeImportStatement, nodeExportStatement:
		default:
			continue
		}
		if isTypeOnly(node) {
			continue
		}
		source := node.ChildByFieldName("source")
		if source == nil || source.Type() != nodeString {
			continue
		}
		if specifier, ok := plainStringLiteral(source, contents); ok {
			specifiers = append(specifiers, specifier)
		}
	}
	return specifiers, nil
}

// "import type { A } from" and "export type { A } from" carry an anonymous
// "type" token directly under the statement. "import { type A }" does not.
func isTypeOnly(node *sitter.Node) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if !child.IsNamed() && child.Type() == tokenType {
			return true
		}
	}
	return false
}

func plainStringLiteral(node *sitter.Node, contents []byte) (moduleSpecifier, bool) {
	start := node.StartByte() + 1
	end := node.EndByte() - 1
	if end < start {
		return moduleSpecifier{}, false
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		// Escape sequences mean the literal text isn't the specifier
		if node.NamedChild(i).Type() != nodeStringFragment {
			return moduleSpecifier{}, false
		}
	}
	return moduleSpecifier{Text: string(contents[start:end]), Start: start, End: end}, true
}
