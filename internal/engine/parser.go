// Package engine implements the Parser Core (spec §4.E): recursive-descent
// methods for every TabScript grammar rule, backtracking via internal/pstate
// snapshots, and the generic parseGroup/must/recoverErrors machinery.
//
// Grounded on parser.Parser in the teacher (parser/parser.go): the same
// mutable-struct-of-cursor-state shape, the same functional-options
// construction (parser.Option / DefaultMaxDepth), and the same
// dispatch-by-keyword statement switch (parser/statements.go) — but every
// method here emits output tokens into internal/pstate.State instead of
// building an *ast.Node, since spec.md §1 excludes AST construction.
package engine

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tabscript-lang/tabscript/internal/pattern"
	"github.com/tabscript-lang/tabscript/internal/plugin"
	"github.com/tabscript-lang/tabscript/internal/pstate"
	"github.com/tabscript-lang/tabscript/internal/render"
	"github.com/tabscript-lang/tabscript/perror"
)

// SupportedMajor/SupportedMinor are the header version this engine accepts
// (spec §6.1): major must match exactly, minor must be <= supported minor.
const (
	SupportedMajor = 1
	SupportedMinor = 0
)

// Config mirrors the recognized options of spec.md §6.3. It is built by the
// root tabscript package from its public functional options and handed to
// New.
type Config struct {
	JS              bool
	Recover         bool
	Whitespace      render.Mode
	TransformImport func(string) string
	LoadPlugin      plugin.Loader
	GlobalOptions   any
	Debug           zerolog.Logger
	MaxDepth        int
}

// Parser is the recursive-descent engine (spec §4.E Parser Core).
type Parser struct {
	st     *pstate.State
	cfg    Config
	table  *plugin.Table

	// headerFlags holds recognized `name=value` feature flags parsed from
	// the `tabscript X.Y` header line (spec §6.1), merged into the global
	// options handed to plugin entry points.
	headerFlags map[string]string

	// fatal holds the non-recoverable header version mismatch error once
	// encountered; Parse returns it immediately. Space-indentation errors do
	// not pass through here: the scanner wrappers return them already
	// marked Fatal.
	fatal error
}

// New constructs a Parser over input, wiring the plugin slot table and
// priming every named parseX method (spec §4.G).
func New(input, filename string, cfg Config) *Parser {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = pstate.DefaultMaxDepth
	}
	p := &Parser{
		st:          pstate.New(input, filename, cfg.Debug),
		cfg:         cfg,
		table:       plugin.NewTable(),
		headerFlags: map[string]string{},
	}
	p.st.MaxDepth = cfg.MaxDepth
	p.registerMethods()
	return p
}

// Table exposes the plugin slot table so a plugin loader can hand it to
// plugin entry points.
func (p *Parser) Table() *plugin.Table { return p.table }

// call invokes the current implementation of a named parse method —
// honoring any plugin replacement — instead of calling the Go method
// directly, so overrides actually take effect (spec §4.G).
func (p *Parser) call(name string) (bool, error) {
	return p.table.Call(name)
}

func (p *Parser) registerMethods() {
	reg := p.table.Register
	reg("parseStatement", p.parseStatement)
	reg("parseExpression", func() (bool, error) { return p.parseExpression(false) })
	reg("parsePrimary", p.parsePrimary)
	reg("parseVarDecl", func() (bool, error) { return p.parseVarDecl(true) })
	reg("parseFor", p.parseFor)
	reg("parseSwitch", p.parseSwitch)
	reg("parseTry", p.parseTry)
	reg("parseFunction", func() (bool, error) { return p.parseFunction(true) })
	reg("parseClass", p.parseClass)
	reg("parseType", p.parseType)
	reg("parseImport", p.parseImport)
	reg("parseExport", p.parseExport)
	reg("parseEnum", p.parseEnum)
	reg("parseDeclare", p.parseDeclare)
	reg("parseReturn", p.parseReturn)
	reg("parseThrow", p.parseThrow)
	reg("parseDoWhile", p.parseDoWhile)
	reg("parseIfWhile", func() (bool, error) { return p.parseIfWhile(true) })
}

// Result is what Parse returns: rendered code, any errors collected, and a
// source map.
type Result struct {
	Code   string
	Errors []*perror.Error
	Map    render.Result
}

// Parse runs parseMain (spec §4.E.2) to completion.
func (p *Parser) Parse() *Result {
	if p.cfg.JS {
		p.st.Emit(`"use strict";`)
	}
	if err := p.parseHeader(); err != nil {
		return p.finish(err)
	}
	if p.fatal != nil {
		return p.finish(p.fatal)
	}

	for !p.st.Scan.AtEOF() {
		ok, err := p.recoverErrors(func() (bool, error) {
			return p.call("parseStatement")
		})
		if err != nil {
			return p.finish(err)
		}
		if !ok {
			// Nothing recognizable starts here; this is not a thrown
			// mid-statement error, so recovery has nothing to skip.
			return p.finish(p.must(false, "statement"))
		}
		if ok2, err2 := p.st.ReadNewline(); err2 != nil {
			return p.finish(err2)
		} else if !ok2 {
			if !p.st.Scan.AtEOF() {
				if err3 := p.must(false, "newline after statement"); err3 != nil {
					if !p.cfg.Recover {
						return p.finish(err3)
					}
					p.addRecoverable(err3)
				}
			}
		}
	}
	return p.finish(nil)
}

func (p *Parser) finish(fatal error) *Result {
	var fatalErr *perror.Error
	if fatal != nil {
		if pe, ok := fatal.(*perror.Error); ok {
			fatalErr = pe
		} else {
			fatalErr = perror.New(perror.CodeSyntax, p.st.Scan.Position(), fatal.Error(), nil, "")
		}
		fatalErr.Fatal = true
		p.st.Errors.Add(fatalErr)
	}
	m := render.Render(p.st.Buf.Elems(), p.cfg.Whitespace, p.st.Scan.Input(), p.st.Scan.PositionAt)
	return &Result{Code: m.Code, Errors: p.st.Errors.Errors, Map: m}
}

// must builds a ParseError (spec §4.D `must`) when ok is false.
func (p *Parser) must(ok bool, what string) error {
	return p.st.Must(ok, what)
}

func (p *Parser) fail(what string) error {
	return p.st.Fail(perror.CodeSyntax, what)
}

// failCode is like fail but with an explicit error code, for failure sites
// that fall into one of perror's more specific categories (spec §4.H)
// rather than the generic "could not parse" case.
func (p *Parser) failCode(code perror.Code, what string) error {
	return p.st.Fail(code, what)
}

func (p *Parser) addRecoverable(err error) {
	if pe, ok := err.(*perror.Error); ok {
		p.st.Errors.Add(pe)
		return
	}
	p.st.Errors.Add(perror.New(perror.CodeSyntax, p.st.Scan.Position(), err.Error(), nil, ""))
}

// recoverErrors wraps a parse attempt (spec §4.E.15): on a ParseError, if
// recovery is enabled, it records the error, skips forward to the next
// newline at the statement's starting indent depth, and reports success so
// the enclosing loop/group continues. Non-recoverable (fatal) errors and
// any error while recovery is disabled propagate unchanged.
func (p *Parser) recoverErrors(fn func() (bool, error)) (bool, error) {
	snap := p.st.Snapshot()
	ok, err := fn()
	if err == nil {
		return ok, nil
	}
	pe, isParseErr := err.(*perror.Error)
	if !isParseErr || pe.Fatal || !p.cfg.Recover {
		return false, err
	}

	p.st.Errors.Add(pe)
	// Discard whatever the failed statement had already emitted before
	// skipping forward; only the scanner cursor carries on from where the
	// failure left it (spec §4.E.15 recovers the statement, not just undoes
	// a sub-parse, so the bad statement contributes no output at all).
	p.st.RevertOutput(snap)
	start := p.st.Scan.Pos()
	depth := 0
	for {
		if p.st.Scan.AtEOF() {
			break
		}
		if okI, errI := p.st.ReadIndent(); errI != nil {
			return false, errI
		} else if okI {
			depth++
			continue
		}
		if okD, errD := p.st.ReadDedent(); errD != nil {
			return false, errD
		} else if okD {
			depth--
			if depth <= 0 {
				break
			}
			continue
		}
		if depth == 0 {
			if okN, errN := p.st.ReadNewline(); errN != nil {
				return false, errN
			} else if okN {
				break
			}
		}
		// Consume one raw byte of input directly; nothing else matched.
		p.skipOneByte()
	}
	pe.RecoverSkip = p.st.Scan.Input()[start:p.st.Scan.Pos()]
	p.st.ClearTarget()
	if !p.st.EndsWith(";") {
		p.st.Emit(";")
	}
	return true, nil
}

// skipOneByte consumes one input character (plus any whitespace after it)
// straight from the scanner, bypassing State.Read so no output target is
// recorded; for use only inside error recovery where no pattern is
// expected to match.
func (p *Parser) skipOneByte() {
	p.st.Scan.Read(pattern.New(`.|\n`, "any character"))
}

// GroupOptions configures the generic delimited/implicit list parser
// (spec §4.E.14).
type GroupOptions struct {
	Open, Close     string
	JSOpen, JSClose string
	Next            string
	JSNext          string
	AllowImplicit   bool
	EndNext         bool // false suppresses the final implicit separator via revert
}

// parseGroup implements spec §4.E.14.
func (p *Parser) parseGroup(opts GroupOptions, item func() (bool, error)) (bool, error) {
	openedByIndent := false
	openedLiteral := false
	if opts.Open != "" {
		if _, ok := p.st.Read(lit(opts.Open)); ok {
			openedLiteral = true
		}
	}
	if !openedLiteral {
		if !opts.AllowImplicit {
			return false, nil
		}
		ok, err := p.st.ReadIndent()
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		openedByIndent = true
	}
	p.st.Emit(opts.JSOpen)

	var lastSepSnap *pstate.Snapshot
	for {
		itemSnap := p.st.Snapshot()
		if err := p.st.Enter(); err != nil {
			return false, err
		}
		ok, err := item()
		p.st.Leave()
		if err != nil {
			return false, err
		}
		if !ok {
			p.st.Revert(itemSnap)
			break
		}
		lastSepSnap = nil

		gotSep := false
		if opts.Next != "" {
			sepPoint := p.st.Snapshot()
			if _, ok2 := p.st.Read(lit(opts.Next)); ok2 {
				gotSep = true
				p.st.Emit(opts.JSNext)
				if openedByIndent {
					if _, err2 := p.st.ReadNewline(); err2 != nil {
						return false, err2
					}
				}
				lastSepSnap = &sepPoint
			}
		}
		if !gotSep && openedByIndent {
			sepPoint := p.st.Snapshot()
			if ok2, err2 := p.st.ReadNewline(); err2 != nil {
				return false, err2
			} else if ok2 {
				gotSep = true
				p.st.Emit(opts.JSNext)
				lastSepSnap = &sepPoint
			}
		}
		if !gotSep {
			break
		}
	}
	if !opts.EndNext && lastSepSnap != nil {
		p.st.Revert(*lastSepSnap)
	}

	if openedByIndent {
		ok, err := p.st.ReadDedent()
		if err != nil {
			return false, err
		}
		if !ok {
			return false, p.fail("dedent to close implicit group")
		}
		// Pretty output puts an implicit group's closer on its own line at
		// the dedented position (spec §8.3 S3); Preserve keeps it on the
		// last statement's line.
		if p.cfg.Whitespace == render.Pretty {
			p.st.EmitNoMapMark(p.st.Scan.Pos())
		}
	} else if opts.Close != "" {
		if _, ok := p.st.Read(lit(opts.Close)); !ok {
			return false, p.fail("'" + opts.Close + "'")
		}
	}
	p.st.Emit(opts.JSClose)
	return true, nil
}

// parseBlockOrStatement parses either an indented block (rendered as
// `{ ... }`) or a single statement on the same line, emitted bare — the
// body form if/while/for use (spec §4.E.3, §8.3 S2).
func (p *Parser) parseBlockOrStatement() (bool, error) {
	ok, err := p.parseGroup(GroupOptions{
		AllowImplicit: true,
		JSOpen:        "{", JSClose: "}",
		EndNext: true,
	}, p.parseBlockStatement)
	if err != nil || ok {
		return ok, err
	}
	if err := p.st.Enter(); err != nil {
		return false, err
	}
	okS, errS := p.recoverErrors(func() (bool, error) { return p.call("parseStatement") })
	p.st.Leave()
	if errS != nil {
		return false, errS
	}
	if !okS {
		return false, p.fail("statement or indented block")
	}
	return true, nil
}

// parseBlock parses a body that must render braced whatever its source
// shape (try/catch/finally, static initializer blocks): an implicit-indent
// group of statements, or a single same-line statement wrapped in `{...}`.
func (p *Parser) parseBlock() (bool, error) {
	ok, err := p.parseGroup(GroupOptions{
		AllowImplicit: true,
		JSOpen:        "{", JSClose: "}",
		EndNext: true,
	}, p.parseBlockStatement)
	if err != nil || ok {
		return ok, err
	}
	p.st.Emit("{")
	if err := p.st.Enter(); err != nil {
		return false, err
	}
	okS, errS := p.recoverErrors(func() (bool, error) { return p.call("parseStatement") })
	p.st.Leave()
	if errS != nil {
		return false, errS
	}
	if !okS {
		return false, p.fail("statement or indented block")
	}
	p.st.Emit("}")
	return true, nil
}

// parseBlockStatement parses one statement followed by its mandatory
// newline terminator, for use as the item function of an implicit block
// group.
func (p *Parser) parseBlockStatement() (bool, error) {
	ok, err := p.recoverErrors(func() (bool, error) { return p.call("parseStatement") })
	if err != nil || !ok {
		return ok, err
	}
	if ok2, err2 := p.st.ReadNewline(); err2 != nil {
		return false, err2
	} else if !ok2 {
		return false, fmt.Errorf("internal: parseBlockStatement without newline")
	}
	return true, nil
}
