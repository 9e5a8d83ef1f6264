// Package outbuf implements the output token buffer (spec §4.C): an
// append-only sequence of literal text interleaved with source-position
// marks, truncatable for backtracking.
//
// There is no teacher analog for this component — Risor's parser builds an
// AST and never emits text directly. The buffer is implemented as a plain
// slice, the same append-and-occasionally-reslice idiom the teacher itself
// uses for Parser.errors.
package outbuf

import "github.com/davecgh/go-spew/spew"

// Kind identifies the shape of a buffer element.
type Kind int

const (
	// Text is a literal string to emit.
	Text Kind = iota
	// MapMark records a (inOffset -> outputOffset) pair at render time.
	MapMark
	// NoMapMark repositions the renderer's target line/column without
	// recording a map pair; unlike MapMark it is not one-shot.
	NoMapMark
)

// Elem is one element of the output token stream.
type Elem struct {
	Kind   Kind
	Text   string
	Offset int // meaningful for MapMark/NoMapMark
}

// Buffer is the append-only output token stream.
type Buffer struct {
	elems []Elem
}

// New returns an empty Buffer.
func New() *Buffer {
	return &Buffer{}
}

// Len returns the current length, usable as a snapshot boundary.
func (b *Buffer) Len() int {
	return len(b.elems)
}

// Truncate reverts the buffer to a previously recorded length.
func (b *Buffer) Truncate(n int) {
	b.elems = b.elems[:n]
}

// PushText appends a literal Text element. Empty strings are still
// recorded faithfully (the caller, internal/pstate, decides whether to
// skip empty emits before calling this).
func (b *Buffer) PushText(s string) {
	b.elems = append(b.elems, Elem{Kind: Text, Text: s})
}

// PushMapMark appends a positive mark that will contribute a map pair at
// render time.
func (b *Buffer) PushMapMark(offset int) {
	b.elems = append(b.elems, Elem{Kind: MapMark, Offset: offset})
}

// PushNoMapMark appends a negative mark: sets target position only.
func (b *Buffer) PushNoMapMark(offset int) {
	b.elems = append(b.elems, Elem{Kind: NoMapMark, Offset: offset})
}

// EndsWith reports whether the most recently pushed Text element ends with
// suffix, ignoring any Marks that follow it. Used by the engine (through
// internal/pstate) to check whether a statement already ends in `;` or `}`
// without being tripped up by a trailing position mark.
func (b *Buffer) EndsWith(suffix string) bool {
	for i := len(b.elems) - 1; i >= 0; i-- {
		if b.elems[i].Kind != Text {
			continue
		}
		return len(b.elems[i].Text) >= len(suffix) &&
			b.elems[i].Text[len(b.elems[i].Text)-len(suffix):] == suffix
	}
	return false
}

// HasTextSince reports whether any non-empty Text was appended at or after
// index from. Used to implement Snapshot.HasOutput.
func (b *Buffer) HasTextSince(from int) bool {
	for i := from; i < len(b.elems); i++ {
		if b.elems[i].Kind == Text && b.elems[i].Text != "" {
			return true
		}
	}
	return false
}

// Elems returns the full element slice for the renderer to consume. The
// renderer only ever reads this; the engine is the sole mutator.
func (b *Buffer) Elems() []Elem {
	return b.elems
}

// Slice returns the elements appended between two previously recorded
// lengths — used by Snapshot.RevertOutput to hand back the truncated
// tokens for plugin inspection.
func (b *Buffer) Slice(from, to int) []Elem {
	out := make([]Elem, to-from)
	copy(out, b.elems[from:to])
	return out
}

// Dump renders the buffer's contents for test failure messages.
func (b *Buffer) Dump() string {
	return spew.Sdump(b.elems)
}
