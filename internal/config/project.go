package config

import (
	"encoding/json"
	"fmt"
	"strings"

	fsys "github.com/esmkit/esmkit/internal/fs"
	"github.com/tailscale/hujson"
)

// Project is the part of "tsconfig.json" that affects module resolution. All
// directories are absolute.
type Project struct {
	Dir        string
	ConfigPath string

	RootDir string
	OutDir  string

	Target  string
	AllowJS bool
}

type tsconfigJSON struct {
	Extends         string `json:"extends"`
	CompilerOptions struct {
		RootDir *string `json:"rootDir"`
		OutDir  *string `json:"outDir"`
		Target  *string `json:"target"`
		AllowJS *bool   `json:"allowJs"`
	} `json:"compilerOptions"`
}

// DefaultProject is used when there is no "tsconfig.json". It follows the
// common "src" to "dist" layout.
func DefaultProject(fs fsys.FS, dir string) *Project {
	return &Project{
		Dir:     dir,
		RootDir: fs.Join(dir, "src"),
		OutDir:  fs.Join(dir, "dist"),
		AllowJS: true,
	}
}

// LoadProject reads "tsconfig.json" at "path", following relative "extends"
// chains. Unfortunately "tsconfig.json" isn't actually JSON, so comments and
// trailing commas are standardized away first.
func LoadProject(fs fsys.FS, path string) (*Project, error) {
	absPath, ok := fs.Abs(path)
	if !ok {
		return nil, fmt.Errorf("cannot make %q absolute", path)
	}
	project := DefaultProject(fs, fs.Dir(absPath))
	project.ConfigPath = absPath
	if err := loadTSConfigInto(fs, project, absPath, make(map[string]bool)); err != nil {
		return nil, err
	}
	return project, nil
}

// FindProject walks up from "dir" looking for "tsconfig.json". Without one
// the default layout rooted at "dir" is used.
func FindProject(fs fsys.FS, dir string) (*Project, error) {
	for current := dir; ; {
		candidate := fs.Join(current, "tsconfig.json")
		if fsys.IsFile(fs, candidate) {
			return LoadProject(fs, candidate)
		}
		parent := fs.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	return DefaultProject(fs, dir), nil
}

func loadTSConfigInto(fs fsys.FS, project *Project, path string, visited map[string]bool) error {
	if visited[path] {
		return fmt.Errorf("base config file %q forms a cycle", path)
	}
	visited[path] = true

	contents, err := fs.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %q: %w", path, err)
	}
	standard, err := hujson.Standardize([]byte(contents))
	if err != nil {
		return fmt.Errorf("cannot parse %q: %w", path, err)
	}
	var tsconfig tsconfigJSON
	if err := json.Unmarshal(standard, &tsconfig); err != nil {
		return fmt.Errorf("cannot parse %q: %w", path, err)
	}

	// Base configs are applied first so the extending file overrides them. Only
	// path-like "extends" values are followed; package configs are skipped.
	configDir := fs.Dir(path)
	if extends := tsconfig.Extends; strings.HasPrefix(extends, ".") || fs.IsAbs(extends) {
		base := extends
		if !fs.IsAbs(base) {
			base = fs.Join(configDir, base)
		}
		if !strings.HasSuffix(base, ".json") {
			base += ".json"
		}
		if err := loadTSConfigInto(fs, project, base, visited); err != nil {
			return err
		}
	}

	options := tsconfig.CompilerOptions
	if options.RootDir != nil {
		project.RootDir = joinIfRelative(fs, configDir, *options.RootDir)
	}
	if options.OutDir != nil {
		project.OutDir = joinIfRelative(fs, configDir, *options.OutDir)
	}
	if options.Target != nil {
		project.Target = strings.ToLower(*options.Target)
	}
	if options.AllowJS != nil {
		project.AllowJS = *options.AllowJS
	}
	return nil
}

func joinIfRelative(fs fsys.FS, dir string, path string) string {
	if fs.IsAbs(path) {
		return fs.Join(path)
	}
	return fs.Join(dir, path)
}

// InOutDir reports whether "path" lies inside the compiled output tree
func (p *Project) InOutDir(fs fsys.FS, path string) bool {
	return isInside(fs, p.OutDir, path)
}

func (p *Project) InRootDir(fs fsys.FS, path string) bool {
	return isInside(fs, p.RootDir, path)
}

// OutputPathFor maps a source file under RootDir to the file it is emitted as
// under OutDir, swapping dialect extensions for their output extensions.
func (p *Project) OutputPathFor(fs fsys.FS, sourcePath string) (string, bool) {
	rel, ok := fs.Rel(p.RootDir, sourcePath)
	if !ok || isOutside(rel) {
		return "", false
	}
	return OutputPathFor(fs.Join(p.OutDir, rel)), true
}

func isInside(fs fsys.FS, dir string, path string) bool {
	rel, ok := fs.Rel(dir, path)
	return ok && !isOutside(rel)
}

func isOutside(rel string) bool {
	rel = strings.ReplaceAll(rel, "\\", "/")
	return rel == ".." || strings.HasPrefix(rel, "../")
}
