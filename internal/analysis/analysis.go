// Package analysis statically finds the relative, extensionless specifiers in
// a compiled file and works out what each one should be rewritten to.
package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/esmkit/esmkit/internal/config"
	"github.com/esmkit/esmkit/internal/fs"
	"github.com/esmkit/esmkit/internal/helpers"
	"github.com/esmkit/esmkit/internal/logger"
	"github.com/esmkit/esmkit/internal/resolver"
)

type SpecifierReplacement struct {
	SpecifierToReplace   string
	SpecifierReplacement string
}

// UnresolvedError means a file imports something that doesn't exist. This is
// a broken import and is never recovered from.
type UnresolvedError struct {
	Specifier string
	File      string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("Could not resolve %q imported by %q", e.Specifier, e.File)
}

type Analyzer struct {
	fs       fs.FS
	log      logger.Log
	project  *config.Project
	resolver ModuleResolver
}

// NewAnalyzer uses the static resolver for "project" when "modules" is nil
func NewAnalyzer(fsys fs.FS, log logger.Log, project *config.Project, modules ModuleResolver) *Analyzer {
	if modules == nil {
		modules = NewModuleResolver(fsys, project)
	}
	return &Analyzer{
		fs:       fsys,
		log:      log,
		project:  project,
		resolver: modules,
	}
}

// GetRewrites returns one replacement per relative extensionless specifier in
// declaration order. The boolean is false when there is nothing to rewrite
// because the file is outside the output tree or can't be read or parsed.
func (a *Analyzer) GetRewrites(ctx context.Context, file string) ([]SpecifierReplacement, bool, error) {
	if a.project != nil && !a.project.InOutDir(a.fs, file) {
		a.note("Skipping %q because it is outside %q", file, a.project.OutDir)
		return nil, false, nil
	}

	contents, err := a.fs.ReadFile(file)
	if err != nil {
		a.note("Skipping %q because it could not be read: %s", file, err.Error())
		return nil, false, nil
	}

	specifiers, err := parseModuleSpecifiers(ctx, a.fs.Ext(file), []byte(contents))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
		a.note("Skipping %q because it could not be parsed: %s", file, err.Error())
		return nil, false, nil
	}

	var replacements []SpecifierReplacement
	for _, specifier := range specifiers {
		if !resolver.IsRelative(specifier.Text) || config.HasRecognizedExtension(specifier.Text) {
			continue
		}
		target, ok := a.resolver.ResolveModule(specifier.Text, file)
		if !ok {
			return nil, false, &UnresolvedError{Specifier: specifier.Text, File: file}
		}
		replacement, err := a.relativeSpecifier(file, target)
		if err != nil {
			return nil, false, err
		}
		replacements = append(replacements, SpecifierReplacement{
			SpecifierToReplace:   specifier.Text,
			SpecifierReplacement: replacement,
		})
	}
	return replacements, true, nil
}

func (a *Analyzer) relativeSpecifier(file string, target string) (string, error) {
	rel, ok := a.fs.Rel(a.fs.Dir(file), target)
	if !ok {
		return "", fmt.Errorf("cannot compute a path from %q to %q", file, target)
	}
	return RelativeSpecifier(rel), nil
}

// RelativeSpecifier turns a relative file path into an import specifier
func RelativeSpecifier(rel string) string {
	rel = helpers.ToPosixPath(rel)
	if !strings.HasPrefix(rel, "./") && !strings.HasPrefix(rel, "../") {
		rel = "./" + rel
	}
	return rel
}

func (a *Analyzer) note(format string, args ...interface{}) {
	if a.log.AddMsg != nil {
		a.log.AddVerbose(fmt.Sprintf(format, args...))
	}
}
