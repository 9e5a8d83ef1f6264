// Package render implements the Renderer (spec §4.F): a single
// left-to-right pass converting the output token stream into final text
// plus a source map, applying one of two whitespace modes.
//
// There is no teacher analog for this component (Risor never renders text,
// it builds an AST for its VM to execute). It is implemented on the
// standard library's strings.Builder; no library in the retrieval pack
// performs token-stream-to-text rendering with source-map emission (see
// DESIGN.md).
package render

import (
	"strings"

	"github.com/tabscript-lang/tabscript/internal/outbuf"
	"github.com/tabscript-lang/tabscript/internal/token"
)

// Mode selects the renderer's whitespace behavior.
type Mode int

const (
	// Preserve keeps the source's line structure and reproduces a single
	// space wherever the source itself separated the marked tokens.
	Preserve Mode = iota
	// Pretty inserts minimal, readable spacing instead.
	Pretty
)

// Resolver resolves a byte offset in the input to a line/column Position.
type Resolver func(offset int) token.Position

// Result is the renderer's output: final code plus two equal-length,
// non-decreasing arrays of (input offset, output offset) basis points.
type Result struct {
	Code   string
	MapIn  []int
	MapOut []int
}

// Render converts elems into a Result under the given whitespace mode.
// input is the original source text; Preserve mode inspects it to decide
// whether two adjacent tokens were separated by whitespace in the source.
func Render(elems []outbuf.Elem, mode Mode, input string, resolve Resolver) Result {
	r := &renderer{mode: mode, input: input, resolve: resolve}
	for _, e := range elems {
		switch e.Kind {
		case outbuf.MapMark:
			pos := resolve(e.Offset)
			r.targetLine = pos.LineNumber()
			r.targetCol = pos.ColumnNumber()
			in := e.Offset
			r.pendingMapIn = &in
			r.marked = true
			r.markOffset = e.Offset
		case outbuf.NoMapMark:
			pos := resolve(e.Offset)
			r.targetLine = pos.LineNumber()
			r.targetCol = pos.ColumnNumber()
			r.marked = true
			r.markOffset = e.Offset
		case outbuf.Text:
			r.writeText(e.Text)
		}
	}
	r.b.WriteByte('\n')
	return Result{Code: r.b.String(), MapIn: r.mapIn, MapOut: r.mapOut}
}

type renderer struct {
	b     strings.Builder
	mode  Mode
	input string

	outLine, outCol       int // 1-based; outCol reset to 1 on every newline
	targetLine, targetCol int

	pendingMapIn *int

	// marked is true when a position mark preceded the next Text with no
	// Text in between; markOffset is that mark's input offset.
	marked     bool
	markOffset int

	mapIn, mapOut []int

	resolve  Resolver
	havePrev bool
	prevByte byte
}

func (r *renderer) writeText(t string) {
	if t == "" {
		return
	}
	if r.outLine == 0 {
		r.outLine, r.outCol = 1, 1
	}
	if r.targetLine > r.outLine {
		for r.outLine < r.targetLine {
			r.b.WriteByte('\n')
			r.outLine++
		}
		r.outCol = 1
	}
	if r.outCol == 1 {
		if r.targetCol > 1 {
			// Preserve reproduces the source's tab indentation; Pretty
			// renders each synthesized indent level as two spaces
			// (spec §8.3 S3).
			indent := strings.Repeat("\t", r.targetCol-1)
			if r.mode == Pretty {
				indent = strings.Repeat("  ", r.targetCol-1)
			}
			r.b.WriteString(indent)
			r.outCol += len(indent)
		}
	} else if sep := r.separator(t[0]); sep != "" {
		r.b.WriteString(sep)
		r.outCol += len(sep)
	}

	if r.pendingMapIn != nil {
		r.mapIn = append(r.mapIn, *r.pendingMapIn)
		r.mapOut = append(r.mapOut, r.b.Len())
		r.pendingMapIn = nil
	}

	r.b.WriteString(t)
	for i := 0; i < len(t); i++ {
		if t[i] == '\n' {
			r.outLine++
			r.outCol = 1
		} else {
			r.outCol++
		}
	}
	r.prevByte = t[len(t)-1]
	r.havePrev = true
	r.marked = false
}

// separator computes the text to insert between the previously emitted
// byte and the next token's first byte. Isolated as a standalone method so
// it is directly unit-testable, per spec.md §9's design note.
func (r *renderer) separator(next byte) string {
	if !r.havePrev {
		return ""
	}
	prev := r.prevByte
	// Explicit whitespace already in the token stream wins; never stack a
	// computed separator next to it.
	if isSpaceByte(prev) || isSpaceByte(next) {
		return ""
	}
	wordAdjacent := isWordByte(prev) && isWordByte(next)
	if wordAdjacent {
		return " "
	}
	if r.mode == Pretty {
		return prettySeparator(prev, next)
	}
	// Preserve: synthesized tokens (no mark since the last Text) hug the
	// previous token; tokens carrying a source position get a space only
	// where the no-space classes permit one and the source itself had a
	// gap before them.
	if !r.marked {
		return ""
	}
	return r.preserveSeparator(prev, next)
}

func prettySeparator(prev, next byte) string {
	if (prev == ':' || prev == '=') && (next == '(' || next == '[') {
		return " "
	}
	if strings.IndexByte("[(.!", prev) >= 0 {
		return ""
	}
	if strings.IndexByte("[](,;):.", next) >= 0 {
		return ""
	}
	return " "
}

func (r *renderer) preserveSeparator(prev, next byte) string {
	if (prev == ':' || prev == '=') && (next == '(' || next == '[') {
		return " "
	}
	if strings.IndexByte("[(.!,~{", prev) >= 0 {
		return ""
	}
	if strings.IndexByte("[](,;):.", next) >= 0 {
		return ""
	}
	if r.sourceGapBefore(r.markOffset) {
		return " "
	}
	return ""
}

// sourceGapBefore reports whether the source byte immediately before
// offset is whitespace — i.e. whether the source separated this token
// from whatever preceded it.
func (r *renderer) sourceGapBefore(offset int) bool {
	if offset <= 0 || offset > len(r.input) {
		return false
	}
	switch r.input[offset-1] {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' || b == '$' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n'
}
