// Package tabscript implements the core transpilation engine's public
// entry point (spec §6.3): a single `Transpile` function taking TabScript
// source and a set of functional options, returning rendered TS/JS code,
// any collected parse errors, and a source map.
//
// Grounded on the teacher's risor.go/risor_options.go (github.com/risor-io/risor):
// the same pattern of a small top-level package wrapping an internal
// parser behind functional options (risor.Eval(ctx, code, opts...) wraps
// parser.Parse behind risor.Option). Here there is no VM to evaluate
// against, so the wrapped call is internal/engine.Parser.Parse instead.
package tabscript

import (
	"github.com/rs/zerolog"

	"github.com/tabscript-lang/tabscript/internal/engine"
	"github.com/tabscript-lang/tabscript/internal/plugin"
	"github.com/tabscript-lang/tabscript/internal/render"
	"github.com/tabscript-lang/tabscript/perror"
)

// Error is a single collected parse error (re-exported so callers never
// need to import the internal perror package directly).
type Error = perror.Error

// Map is the parallel-array source map spec.md §6.4 describes: In[i]
// is a source byte offset, Out[i] is the corresponding output byte
// offset, both 0-based and non-decreasing.
type Map struct {
	In  []int
	Out []int
}

// Result is what Transpile returns (spec §6.3).
type Result struct {
	Code   string
	Errors []*Error
	Map    Map
}

// Whitespace selects the renderer's whitespace mode (spec §6.3's
// `whitespace` option).
type Whitespace int

const (
	// Preserve keeps the source's line structure and line-start
	// indentation, and puts a single space wherever the source separated
	// two tokens; mid-line column alignment is not reproduced (the
	// default, per spec §6.3).
	Preserve Whitespace = iota
	// Pretty inserts minimal, readable spacing instead.
	Pretty
)

// options mirrors every recognized option in spec.md §6.3.
type options struct {
	filename        string
	debug           zerolog.Logger
	recover         bool
	js              bool
	transformImport func(string) string
	whitespace      Whitespace
	loadPlugin      plugin.Loader
	globalOptions   any
	maxDepth        int
}

// Option configures a Transpile call, mirroring parser.Option in the
// teacher (a function mutating a private options struct before the parse
// runs).
type Option func(*options)

// WithFilename attaches a filename used in error positions. The returned
// source map carries no file name.
func WithFilename(name string) Option {
	return func(o *options) { o.filename = name }
}

// WithDebug installs a zerolog.Logger that receives one debug event per
// read attempt, successful or not (spec.md §6.3 `debug`). Snapshots,
// reverts and plugin dispatch are not logged.
func WithDebug(logger zerolog.Logger) Option {
	return func(o *options) { o.debug = logger }
}

// WithRecover enables error recovery (spec.md §6.3 `recover`): on a
// syntax error, the bad statement is skipped and parsing continues,
// accumulating every error instead of aborting on the first.
func WithRecover(enabled bool) Option {
	return func(o *options) { o.recover = enabled }
}

// WithJS selects JavaScript output mode (spec.md §6.3 `js`): type-level
// tokens are stripped and `"use strict";` is emitted first.
func WithJS(enabled bool) Option {
	return func(o *options) { o.js = enabled }
}

// WithTransformImport installs a URI rewriter applied to string-literal
// import paths (spec.md §6.3 `transformImport`).
func WithTransformImport(fn func(string) string) Option {
	return func(o *options) { o.transformImport = fn }
}

// WithWhitespace selects the renderer's whitespace mode (spec.md §6.3
// `whitespace`); the zero value is Preserve.
func WithWhitespace(mode Whitespace) Option {
	return func(o *options) { o.whitespace = mode }
}

// WithPluginLoader installs the loader `import plugin "path" { ... }`
// uses to resolve a plugin path to its entry point (spec.md §6.3
// `loadPlugin`). How a path becomes a loaded Go function is an external
// collaborator's concern (spec.md §1); the core only needs this callable.
func WithPluginLoader(loader func(path string) (plugin.Entry, error)) Option {
	return func(o *options) { o.loadPlugin = plugin.Loader(loader) }
}

// WithGlobalOptions attaches an arbitrary value passed through to every
// plugin entry point's second argument.
func WithGlobalOptions(v any) Option {
	return func(o *options) { o.globalOptions = v }
}

// WithMaxDepth overrides the recursive-descent recursion guard (default
// internal/pstate.DefaultMaxDepth, mirroring the teacher's
// parser.DefaultMaxDepth).
func WithMaxDepth(n int) Option {
	return func(o *options) { o.maxDepth = n }
}

func renderMode(w Whitespace) render.Mode {
	if w == Pretty {
		return render.Pretty
	}
	return render.Preserve
}

// Transpile converts TabScript source to TypeScript (the default) or
// JavaScript (with WithJS) per spec.md §6.3. It never panics on malformed
// input: every failure is reported through Result.Errors (and, with
// WithRecover(false), by returning immediately after the first one).
func Transpile(input string, opts ...Option) *Result {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	cfg := engine.Config{
		JS:              o.js,
		Recover:         o.recover,
		Whitespace:      renderMode(o.whitespace),
		TransformImport: o.transformImport,
		LoadPlugin:      o.loadPlugin,
		GlobalOptions:   o.globalOptions,
		Debug:           o.debug,
		MaxDepth:        o.maxDepth,
	}

	p := engine.New(input, o.filename, cfg)
	r := p.Parse()
	return &Result{
		Code:   r.Code,
		Errors: r.Errors,
		Map:    Map{In: r.Map.MapIn, Out: r.Map.MapOut},
	}
}
