// Package pstate implements the State & Snapshot component (spec §4.D): the
// aggregate of scanner cursor, output buffer, pending-indent queue, and
// outTargetPos, with revert/revertOutput/hasOutput and the `must` helper.
//
// Grounded on parser.Parser's own mutable-state shape in the teacher
// (curToken/prevToken/peekToken/errors), generalized from "one token of
// lookahead plus an AST error slice" to "a scan cursor plus an output
// buffer", since TabScript's parser emits text instead of building a tree.
package pstate

import (
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"

	"github.com/tabscript-lang/tabscript/internal/outbuf"
	"github.com/tabscript-lang/tabscript/internal/pattern"
	"github.com/tabscript-lang/tabscript/internal/scan"
	"github.com/tabscript-lang/tabscript/perror"
)

// DefaultMaxDepth bounds recursive-descent nesting, the same recursion
// guard the teacher exposes as parser.DefaultMaxDepth (500).
const DefaultMaxDepth = 500

// State is the single mutable object a parse owns: scanner, output buffer,
// the one-shot outTargetPos, collected errors, and debug tracing.
type State struct {
	Scan *scan.Scanner
	Buf  *outbuf.Buffer

	outTargetPos *int

	Errors *perror.List

	Depth    int
	MaxDepth int

	Logger    zerolog.Logger
	SessionID string
}

// New creates a State over input. If logger is the zero value, tracing is a
// no-op (zerolog.Nop()).
func New(input, filename string, logger zerolog.Logger) *State {
	id, err := uuid.NewV4()
	sessionID := ""
	if err == nil {
		sessionID = id.String()
	}
	return &State{
		Scan:      scan.New(input, filename),
		Buf:       outbuf.New(),
		Errors:    &perror.List{},
		MaxDepth:  DefaultMaxDepth,
		Logger:    logger,
		SessionID: sessionID,
	}
}

// Read delegates to the scanner and implements invariant 3: a successful
// non-empty match sets outTargetPos if none is currently pending.
func (s *State) Read(matchers ...pattern.Matcher) (string, bool) {
	start := s.Scan.Pos()
	txt, ok := s.Scan.Read(matchers...)
	if ok {
		if txt != "" && s.outTargetPos == nil {
			v := start
			s.outTargetPos = &v
		}
		s.trace("read", txt, true)
	} else {
		s.trace("read", "", false)
	}
	return txt, ok
}

// Peek delegates to the scanner without touching outTargetPos, since a
// successful peek never represents a real advance.
func (s *State) Peek(matchers ...pattern.Matcher) (string, bool) {
	return s.Scan.Peek(matchers...)
}

// ReadNewline, ReadIndent, ReadDedent delegate to the scanner, wrapping any
// fatal scanner-level failure (space indentation) into a non-recoverable
// perror.Error positioned at the offending offset, per spec §4.H/§7's
// "space-indentation error ... never recoverable".
func (s *State) ReadNewline() (bool, error) { return s.wrapScanErr(s.Scan.ReadNewline()) }
func (s *State) ReadIndent() (bool, error)  { return s.wrapScanErr(s.Scan.ReadIndent()) }
func (s *State) ReadDedent() (bool, error)  { return s.wrapScanErr(s.Scan.ReadDedent()) }

// wrapScanErr converts a *scan.Error, if present, into a *perror.Error
// carrying the scanner-reported offset's resolved position.
func (s *State) wrapScanErr(ok bool, err error) (bool, error) {
	if err == nil {
		return ok, nil
	}
	if se, isScanErr := err.(*scan.Error); isScanErr {
		pe := perror.New(perror.CodeIndentation, s.Scan.PositionAt(se.Offset), se.Message, nil, "")
		pe.Fatal = true
		return false, pe
	}
	return ok, err
}

// Emit appends literal text to the output, first flushing any pending
// outTargetPos as a MapMark immediately before it (spec §4.C push_text).
// Emitting the empty string is a no-op.
func (s *State) Emit(text string) {
	if text == "" {
		return
	}
	if s.outTargetPos != nil {
		s.Buf.PushMapMark(*s.outTargetPos)
		s.outTargetPos = nil
	}
	s.Buf.PushText(text)
}

// EmitMapMark force-records a (in, out) pair regardless of outTargetPos.
func (s *State) EmitMapMark(offset int) { s.Buf.PushMapMark(offset) }

// EmitNoMapMark repositions the renderer's target without recording a map
// pair, and without clearing on the next token (spec §3.1).
func (s *State) EmitNoMapMark(offset int) { s.Buf.PushNoMapMark(offset) }

// ClearTarget drops any pending outTargetPos without emitting it. Used
// after a pure type-level statement in JS mode so the next statement maps
// to its own start line (spec §4.E.3).
func (s *State) ClearTarget() { s.outTargetPos = nil }

// EndsWith reports whether the most recently emitted Text ends with suffix.
func (s *State) EndsWith(suffix string) bool { return s.Buf.EndsWith(suffix) }

// Enter increments the recursion depth, failing once MaxDepth is exceeded.
// Every grammar method that recurses into a fresh sub-expression/sub-group
// should call Enter/Leave symmetrically (mirrors parser.WithMaxDepth).
func (s *State) Enter() error {
	s.Depth++
	if s.Depth > s.MaxDepth {
		s.Depth--
		return s.Fail(perror.CodeMaxDepth, fmt.Sprintf("maximum nesting depth (%d) exceeded", s.MaxDepth))
	}
	return nil
}

// Leave decrements the recursion depth. Call it exactly once after each
// successful Enter, once the nested call has returned.
func (s *State) Leave() { s.Depth-- }

// Snapshot is an opaque value capturing scanner cursor + outTargetPos +
// output length (spec §3.2 invariant 5).
type Snapshot struct {
	scan         scan.Snapshot
	outTargetPos *int
	outLen       int
}

// Snapshot captures the State's current position for later revert.
func (s *State) Snapshot() Snapshot {
	var tp *int
	if s.outTargetPos != nil {
		v := *s.outTargetPos
		tp = &v
	}
	return Snapshot{scan: s.Scan.Snapshot(), outTargetPos: tp, outLen: s.Buf.Len()}
}

// Revert restores every captured field: scanner cursor, outTargetPos, and
// truncates the output buffer.
func (s *State) Revert(snap Snapshot) {
	s.Scan.Restore(snap.scan)
	s.outTargetPos = snap.outTargetPos
	s.Buf.Truncate(snap.outLen)
}

// RevertOutput restores only output-related fields (outTargetPos, buffer
// length) and returns the truncated elements, for plugins that want to
// inspect speculative output (e.g. to capture a literal's rendered form).
func (s *State) RevertOutput(snap Snapshot) []outbuf.Elem {
	truncated := s.Buf.Slice(snap.outLen, s.Buf.Len())
	s.outTargetPos = snap.outTargetPos
	s.Buf.Truncate(snap.outLen)
	return truncated
}

// HasOutput reports whether any Text was appended since snap was taken.
func (s *State) HasOutput(snap Snapshot) bool {
	return s.Buf.HasTextSince(snap.outLen)
}

// Fail builds a perror.Error from the scanner's current position and
// expected-set, the way `must(false)` does in spec §4.D.
func (s *State) Fail(code perror.Code, what string) *perror.Error {
	pos := s.Scan.Position()
	msg := fmt.Sprintf("Could not parse %s", what)
	return perror.New(code, pos, msg, s.Scan.Expected(), s.Scan.Window(24))
}

// Must returns nil if ok is true, otherwise builds and returns a
// perror.Error describing what failed to parse (spec §4.D `must`).
func (s *State) Must(ok bool, what string) error {
	if ok {
		return nil
	}
	return s.Fail(perror.CodeSyntax, what)
}

func (s *State) trace(op, text string, ok bool) {
	if s.Logger.GetLevel() > zerolog.DebugLevel {
		return
	}
	ev := s.Logger.Debug().Str("session", s.SessionID).Str("op", op).Bool("ok", ok).Int("pos", s.Scan.Pos())
	if text != "" {
		ev = ev.Str("text", text)
	}
	ev.Msg("tabscript parse trace")
}
