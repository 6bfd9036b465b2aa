package config

import "strings"

// These are the canonical extension orders shared by the runtime resolution
// hook and the static specifier resolver. JavaScript wins over the dialect so
// that a hand-written ".js" file shadows a ".ts" file with the same base name.
// Do not mutate these slices.
var JSExtensions = []string{".mjs", ".cjs", ".js", ".json", ".jsx"}
var DialectExtensions = []string{".mts", ".cts", ".ts", ".tsx"}

// Every extension the resolvers will try, in priority order
var ResolveExtensions = append(append([]string{}, JSExtensions...), DialectExtensions...)

// TypeScript lets "./foo.js" refer to "./foo.ts" while the output file doesn't
// exist yet. Note that the official compiler code always tries ".ts" before
// ".tsx" even if the original extension was ".jsx".
var RewrittenFileExtensions = map[string][]string{
	".js":  {".ts", ".tsx"},
	".jsx": {".ts", ".tsx"},
	".mjs": {".mts"},
	".cjs": {".cts"},
}

// The extension each dialect file is emitted with
var OutputExtensions = map[string]string{
	".ts":  ".js",
	".tsx": ".js",
	".mts": ".mjs",
	".cts": ".cjs",
}

func IsJSExtension(ext string) bool {
	return contains(JSExtensions, ext)
}

func IsDialectExtension(ext string) bool {
	return contains(DialectExtensions, ext)
}

// Only extensions that a module loader knows how to handle count. A path such
// as "./lib/v1.2" or "./jquery.min" is still extensionless.
func HasRecognizedExtension(path string) bool {
	return ExtensionOf(path) != ""
}

// ExtensionOf returns the recognized extension of "path", or "" if there is
// none. Both "/" and "\" are treated as separators.
func ExtensionOf(path string) string {
	if slash := strings.LastIndexAny(path, "/\\"); slash != -1 {
		path = path[slash+1:]
	}
	dot := strings.LastIndexByte(path, '.')
	if dot <= 0 {
		return ""
	}
	ext := path[dot:]
	if contains(ResolveExtensions, ext) {
		return ext
	}
	return ""
}

// Declaration files describe types only and are never a module target
func IsDeclarationFile(path string) bool {
	if slash := strings.LastIndexAny(path, "/\\"); slash != -1 {
		path = path[slash+1:]
	}
	return strings.Contains(path, ".d.") && (strings.HasSuffix(path, ".ts") ||
		strings.HasSuffix(path, ".mts") || strings.HasSuffix(path, ".cts"))
}

// OutputPathFor swaps a dialect extension for the extension it is emitted
// with. Paths with any other extension are returned unchanged.
func OutputPathFor(path string) string {
	ext := ExtensionOf(path)
	if out, ok := OutputExtensions[ext]; ok {
		return path[:len(path)-len(ext)] + out
	}
	return path
}

func contains(list []string, ext string) bool {
	for _, it := range list {
		if it == ext {
			return true
		}
	}
	return false
}
