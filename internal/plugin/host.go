// Package plugin adapts the loader hooks to esbuild's plugin API. esbuild
// plays the part of the host module loader: its own resolver and loader are
// the defaults that a deferred hook falls back to.
package plugin

import (
	"context"
	"fmt"
	"net/url"

	"github.com/esmkit/esmkit/internal/fs"
	"github.com/esmkit/esmkit/internal/helpers"
	"github.com/esmkit/esmkit/internal/hooks"
	"github.com/evanw/esbuild/pkg/api"
)

const HostPluginName = "esmkit-host"

// Host wires a resolution hook and a transform hook into esbuild. Either may
// be nil.
type Host struct {
	FS      fs.FS
	Resolve hooks.ResolveHook
	Load    hooks.LoadHook
}

// Plugin returns the esbuild plugin for "ctx". Callbacks run on esbuild's
// goroutines and never outlive the build.
func (h Host) Plugin(ctx context.Context) api.Plugin {
	isWindows := !h.FS.IsAbs("/")

	return api.Plugin{
		Name: HostPluginName,
		Setup: func(build api.PluginBuild) {
			if h.Resolve != nil {
				build.OnResolve(api.OnResolveOptions{Filter: `.*`}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					rc, ok := resolveContext(args)
					if !ok {
						return api.OnResolveResult{}, nil
					}
					result, err := h.Resolve.Resolve(ctx, args.Path, rc, hooks.DeferResolve)
					if hooks.IsDeferred(err) {
						return api.OnResolveResult{}, nil
					}
					if err != nil {
						return api.OnResolveResult{}, err
					}
					resolved, err := url.Parse(result.URL)
					if err != nil || !helpers.IsFileURL(resolved) {
						return api.OnResolveResult{}, fmt.Errorf("resolved %q to %q, which is not a file URL", args.Path, result.URL)
					}
					return api.OnResolveResult{
						Path:      helpers.FilePathFromFileURL(resolved, isWindows),
						Namespace: "file",
					}, nil
				})
			}

			if h.Load != nil {
				build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: "file"}, func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					moduleURL := helpers.FileURLFromFilePath(args.Path).String()
					result, err := h.Load.Load(ctx, moduleURL, hooks.LoadContext{Format: hooks.FormatModule}, hooks.DeferLoad)
					if hooks.IsDeferred(err) {
						return api.OnLoadResult{}, nil
					}
					if err != nil {
						return api.OnLoadResult{}, err
					}
					contents := result.Source
					return api.OnLoadResult{
						Contents:   &contents,
						Loader:     api.LoaderJS,
						ResolveDir: h.FS.Dir(args.Path),
					}, nil
				})
			}
		},
	}
}

// Only imports from files on disk have a parent URL. Entry points are
// resolved against esbuild's resolve directory instead of the parent.
func resolveContext(args api.OnResolveArgs) (hooks.ResolveContext, bool) {
	rc := hooks.ResolveContext{Conditions: conditionsFor(args.Kind)}
	switch {
	case args.Importer != "" && (args.Namespace == "file" || args.Namespace == ""):
		rc.ParentURL = helpers.FileURLFromFilePath(args.Importer).String()
	case args.Importer == "" && args.ResolveDir != "":
		rc.ParentURL = helpers.DirURLFromFilePath(args.ResolveDir).String()
	case args.Importer != "":
		return hooks.ResolveContext{}, false
	}
	return rc, true
}

func conditionsFor(kind api.ResolveKind) []string {
	switch kind {
	case api.ResolveJSRequireCall, api.ResolveJSRequireResolve:
		return []string{"node", "require"}
	}
	return []string{"node", "import"}
}
