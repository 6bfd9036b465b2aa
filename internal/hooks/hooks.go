// Package hooks defines the protocol between a host module loader and the
// hooks it calls while loading a module graph.
//
// Every hook either produces a result or calls the "next" function it was
// given with exactly the arguments it received. The end of the chain is the
// host's default behavior. A host that has no default behavior of its own
// (such as a bundler plugin) ends the chain with a function that returns
// ErrDeferred, which tells the host to fall back to its built-in handling.
package hooks

import (
	"context"
	"errors"
)

// ErrDeferred is returned from the end of a hook chain to signal "use the
// default behavior". It is not a failure.
var ErrDeferred = errors.New("deferred to the default handler")

const FormatModule = "module"

// ResolveContext is immutable per call. ParentURL is empty for entry points.
type ResolveContext struct {
	ParentURL  string
	Conditions []string
}

type ResolveResult struct {
	URL    string
	Format string
}

type NextResolve func(ctx context.Context, specifier string, rc ResolveContext) (ResolveResult, error)

type ResolveHook interface {
	Resolve(ctx context.Context, specifier string, rc ResolveContext, next NextResolve) (ResolveResult, error)
}

type LoadContext struct {
	Format     string
	Conditions []string
}

type LoadResult struct {
	Format string
	Source string
}

type NextLoad func(ctx context.Context, url string, lc LoadContext) (LoadResult, error)

// These are the two steps of the older loader protocol. Running GetFormat and
// then TransformSource must give the same answer as Load.
type FormatContext struct{}

type FormatResult struct {
	Format string
}

type NextGetFormat func(ctx context.Context, url string, fc FormatContext) (FormatResult, error)

type TransformContext struct {
	URL    string
	Format string
}

type TransformResult struct {
	Source string
}

type NextTransformSource func(ctx context.Context, source string, tc TransformContext) (TransformResult, error)

type LoadHook interface {
	Load(ctx context.Context, url string, lc LoadContext, next NextLoad) (LoadResult, error)
	GetFormat(ctx context.Context, url string, fc FormatContext, next NextGetFormat) (FormatResult, error)
	TransformSource(ctx context.Context, source string, tc TransformContext, next NextTransformSource) (TransformResult, error)
}

// DeferResolve ends a resolve chain in a host without its own resolver
func DeferResolve(context.Context, string, ResolveContext) (ResolveResult, error) {
	return ResolveResult{}, ErrDeferred
}

func DeferLoad(context.Context, string, LoadContext) (LoadResult, error) {
	return LoadResult{}, ErrDeferred
}

func DeferGetFormat(context.Context, string, FormatContext) (FormatResult, error) {
	return FormatResult{}, ErrDeferred
}

func DeferTransformSource(_ context.Context, source string, _ TransformContext) (TransformResult, error) {
	return TransformResult{Source: source}, nil
}

func IsDeferred(err error) bool {
	return errors.Is(err, ErrDeferred)
}
