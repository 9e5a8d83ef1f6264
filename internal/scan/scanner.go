// Package scan implements the input scanner / indent engine (spec §4.B):
// position tracking, whitespace/comment skipping, and on-demand NEWLINE +
// INDENT/DEDENT synthesis. There is no teacher analog with surviving source
// (internal/lexer's source was filtered out of the retrieval pack, leaving
// only its test file) — this is grounded directly on spec.md §4.B and §6.1.
package scan

import (
	"sort"

	"github.com/tabscript-lang/tabscript/internal/pattern"
	"github.com/tabscript-lang/tabscript/internal/token"
)

// IndentMarker is one queued synthetic token: a deeper or shallower
// indentation level.
type IndentMarker int

const (
	Indent IndentMarker = iota
	Dedent
)

// cacheInterval is the K=100 spacing of the line/column checkpoint cache
// spec.md §3.1 calls for.
const cacheInterval = 100

type lineCacheEntry struct {
	offset, line, col, lineStart int
}

// Error is a fatal scanner-level failure; the only one the scanner
// reports is space indentation. Scanner errors are
// never recoverable; internal/pstate wraps them into a perror.Error that
// the engine surfaces immediately.
type Error struct {
	Offset  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// Scanner holds the input and all of the mutable cursor state spec.md
// §3.1's "Scanner State" entity describes.
type Scanner struct {
	input    string
	filename string

	inPos            int
	indentLevel      int
	indentsPending   []IndentMarker
	inLastNewlinePos int

	checkpoints []lineCacheEntry

	expected map[string]bool
}

// New returns a Scanner positioned at the start of input.
func New(input, filename string) *Scanner {
	return &Scanner{input: input, filename: filename, inLastNewlinePos: -1}
}

// Input returns the full input buffer.
func (s *Scanner) Input() string { return s.input }

// Pos returns the current byte offset.
func (s *Scanner) Pos() int { return s.inPos }

// AtEOF reports whether the scanner has consumed all input.
func (s *Scanner) AtEOF() bool { return s.inPos >= len(s.input) }

// IndentLevel returns the current tab-indentation depth.
func (s *Scanner) IndentLevel() int { return s.indentLevel }

// PendingIndents reports whether indent/dedent markers are queued; while
// true, Read never matches (invariant 2).
func (s *Scanner) PendingIndents() bool { return len(s.indentsPending) > 0 }

// Snapshot is a value capturing everything needed to rewind the scanner.
type Snapshot struct {
	inPos            int
	indentLevel      int
	inLastNewlinePos int
	indentsPending   []IndentMarker
}

// Snapshot captures the scanner's current cursor state.
func (s *Scanner) Snapshot() Snapshot {
	return Snapshot{
		inPos:            s.inPos,
		indentLevel:      s.indentLevel,
		inLastNewlinePos: s.inLastNewlinePos,
		indentsPending:   append([]IndentMarker(nil), s.indentsPending...),
	}
}

// Restore rewinds the scanner to a previously captured Snapshot.
func (s *Scanner) Restore(snap Snapshot) {
	s.inPos = snap.inPos
	s.indentLevel = snap.indentLevel
	s.inLastNewlinePos = snap.inLastNewlinePos
	s.indentsPending = snap.indentsPending
}

// addExpected records a failed pattern/keyword's display name into the
// expected-set.
func (s *Scanner) addExpected(name string) {
	if s.expected == nil {
		s.expected = map[string]bool{}
	}
	s.expected[name] = true
}

// clearExpected resets the expected-set after any successful advance.
func (s *Scanner) clearExpected() {
	s.expected = nil
}

// Expected returns the current expected-set in stable lexicographic order.
func (s *Scanner) Expected() []string {
	out := make([]string, 0, len(s.expected))
	for name := range s.expected {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Read attempts each matcher in order at the current position. On success
// it consumes the match plus any trailing whitespace/comment, clears the
// expected-set, and returns the matched text. On failure it leaves the
// scanner unchanged and records every matcher's display name into the
// expected-set. If indent/dedent markers are queued, Read always fails
// (invariant 2).
func (s *Scanner) Read(matchers ...pattern.Matcher) (string, bool) {
	if len(s.indentsPending) > 0 {
		for _, m := range matchers {
			s.addExpected(m.String())
		}
		return "", false
	}
	for _, m := range matchers {
		if txt, ok := m.MatchAt(s.input, s.inPos); ok {
			s.inPos += len(txt)
			if ws, ok2 := pattern.Whitespace.MatchAt(s.input, s.inPos); ok2 {
				s.inPos += len(ws)
			}
			s.clearExpected()
			return txt, true
		}
	}
	for _, m := range matchers {
		s.addExpected(m.String())
	}
	return "", false
}

// Peek behaves like Read but always restores the scanner's position
// afterward, whether the match succeeded or not.
func (s *Scanner) Peek(matchers ...pattern.Matcher) (string, bool) {
	save := s.inPos
	txt, ok := s.Read(matchers...)
	s.inPos = save
	return txt, ok
}

// PrevByteIsSpace reports whether the byte immediately before the current
// position is a space — used by the parser to distinguish a call `f(x)`
// from a spaced operator form `f (x)` (spec §4.E.8).
func (s *Scanner) PrevByteIsSpace() bool {
	if s.inPos == 0 {
		return false
	}
	b := s.input[s.inPos-1]
	return b == ' ' || b == '\t'
}

// Window returns up to n bytes of upcoming input, for error messages.
func (s *Scanner) Window(n int) string {
	end := s.inPos + n
	if end > len(s.input) {
		end = len(s.input)
	}
	return s.input[s.inPos:end]
}

// PositionAt resolves a byte offset to a line/column Position using the
// periodic checkpoint cache plus a short linear scan, per spec.md §3.1.
func (s *Scanner) PositionAt(offset int) token.Position {
	idx := sort.Search(len(s.checkpoints), func(i int) bool {
		return s.checkpoints[i].offset > offset
	}) - 1
	var from lineCacheEntry
	if idx >= 0 {
		from = s.checkpoints[idx]
	}
	line, col, lineStart := from.line, from.col, from.lineStart
	pos := from.offset
	nextCheckpoint := ((pos / cacheInterval) + 1) * cacheInterval
	for pos < offset && pos < len(s.input) {
		if s.input[pos] == '\n' {
			line++
			col = 0
			lineStart = pos + 1
		} else {
			col++
		}
		pos++
		if pos == nextCheckpoint {
			if len(s.checkpoints) == 0 || s.checkpoints[len(s.checkpoints)-1].offset < pos {
				s.checkpoints = append(s.checkpoints, lineCacheEntry{pos, line, col, lineStart})
			}
			nextCheckpoint += cacheInterval
		}
	}
	return token.Position{Offset: offset, LineStart: lineStart, Line: line, Column: col, File: s.filename}
}

// Position returns the current position resolved to line/column.
func (s *Scanner) Position() token.Position {
	return s.PositionAt(s.inPos)
}

// ReadNewline implements the idempotent newline/indent synthesis described
// in spec.md §4.B. A `;` before the newline forces an extra INDENT; space
// indentation at the start of the next content line is a fatal error;
// end-of-file counts as a newline returning to indent level 0.
func (s *Scanner) ReadNewline() (bool, error) {
	if s.inLastNewlinePos == s.inPos {
		return true, nil
	}
	pos := s.inPos
	forced := false

	for {
		if ws, ok := pattern.Whitespace.MatchAt(s.input, pos); ok {
			pos += len(ws)
		}
		if pos >= len(s.input) {
			break
		}
		switch s.input[pos] {
		case ';':
			forced = true
			pos++
			continue
		case '\r':
			pos++
			continue
		case '\n':
			pos++
			lineStart := pos
			wsEnd := lineStart
			if ws, ok := pattern.Whitespace.MatchAt(s.input, wsEnd); ok {
				wsEnd += len(ws)
			}
			if wsEnd >= len(s.input) || s.input[wsEnd] == '\n' {
				// Blank (or comment-only) line: keep scanning from its start.
				pos = lineStart
				continue
			}
			pos = lineStart
			goto measured
		default:
			// Not positioned at a newline at all.
			return false, nil
		}
	}

measured:
	atEOF := pos >= len(s.input)
	tabCount := 0
	if !atEOF {
		i := pos
		for i < len(s.input) && (s.input[i] == '\t' || s.input[i] == ' ') {
			if s.input[i] == ' ' {
				return false, &Error{Offset: i, Message: "Space indentation is not allowed, use tabs only"}
			}
			tabCount++
			i++
		}
		pos = i
	}

	newLevel := 0
	if !atEOF {
		newLevel = tabCount
	}
	diff := newLevel - s.indentLevel
	switch {
	case diff > 0:
		for k := 0; k < diff; k++ {
			s.indentsPending = append(s.indentsPending, Indent)
		}
	case diff < 0:
		for k := 0; k < -diff; k++ {
			s.indentsPending = append(s.indentsPending, Dedent)
		}
	}
	s.indentLevel = newLevel
	if forced {
		s.indentsPending = append(s.indentsPending, Indent)
		s.indentLevel++
	}
	s.inPos = pos
	s.inLastNewlinePos = pos
	return true, nil
}

// readDirection is the shared implementation of ReadIndent/ReadDedent.
func (s *Scanner) readDirection(want IndentMarker) (bool, error) {
	snap := s.Snapshot()
	if len(s.indentsPending) == 0 {
		ok, err := s.ReadNewline()
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	if len(s.indentsPending) > 0 && s.indentsPending[0] == want {
		s.indentsPending = s.indentsPending[1:]
		return true, nil
	}
	s.Restore(snap)
	return false, nil
}

// ReadIndent consumes a queued INDENT marker, synthesizing one via
// ReadNewline first if the queue is empty.
func (s *Scanner) ReadIndent() (bool, error) { return s.readDirection(Indent) }

// ReadDedent consumes a queued DEDENT marker, synthesizing one via
// ReadNewline first if the queue is empty.
func (s *Scanner) ReadDedent() (bool, error) { return s.readDirection(Dedent) }

// AtTerminal reports whether the scanner has reached end-of-file with a
// fully drained, balanced indent queue (spec.md §3.3's terminal state,
// and the §8.1 indent/dedent balance invariant).
func (s *Scanner) AtTerminal() bool {
	return s.AtEOF() && len(s.indentsPending) == 0 && s.indentLevel == 0
}
