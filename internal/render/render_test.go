package render_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tabscript-lang/tabscript/internal/outbuf"
	"github.com/tabscript-lang/tabscript/internal/render"
	"github.com/tabscript-lang/tabscript/internal/token"
)

// identityResolver treats every offset as the same line/column, for tests
// that don't care about real source positions, only relative ordering.
func identityResolver(line, col int) render.Resolver {
	return func(offset int) token.Position {
		return token.Position{Offset: offset, Line: line - 1, Column: col - 1}
	}
}

// columnResolver maps an offset within a single-line input to its column.
func columnResolver(offset int) token.Position {
	return token.Position{Offset: offset, Line: 0, Column: offset}
}

func TestRenderInsertsWordBoundarySpace(t *testing.T) {
	elems := []outbuf.Elem{
		{Kind: outbuf.MapMark, Offset: 0},
		{Kind: outbuf.Text, Text: "const"},
		{Kind: outbuf.MapMark, Offset: 6},
		{Kind: outbuf.Text, Text: "x"},
	}
	res := render.Render(elems, render.Pretty, "", identityResolver(1, 1))
	require.Contains(t, res.Code, "const x")
}

func TestRenderPrettyNoSpaceAroundCallParens(t *testing.T) {
	elems := []outbuf.Elem{
		{Kind: outbuf.Text, Text: "f"},
		{Kind: outbuf.Text, Text: "("},
		{Kind: outbuf.Text, Text: "x"},
		{Kind: outbuf.Text, Text: ")"},
	}
	res := render.Render(elems, render.Pretty, "", identityResolver(1, 1))
	require.Contains(t, res.Code, "f(x)")
}

func TestRenderMapArraysParallelAndOrdered(t *testing.T) {
	elems := []outbuf.Elem{
		{Kind: outbuf.MapMark, Offset: 0},
		{Kind: outbuf.Text, Text: "const"},
		{Kind: outbuf.MapMark, Offset: 10},
		{Kind: outbuf.Text, Text: "y"},
	}
	res := render.Render(elems, render.Preserve, "", identityResolver(1, 1))
	require.Equal(t, len(res.MapIn), len(res.MapOut))
	require.Equal(t, []int{0, 10}, res.MapIn)
	for i := 1; i < len(res.MapOut); i++ {
		require.GreaterOrEqual(t, res.MapOut[i], res.MapOut[i-1])
	}
}

func TestRenderNoMapMarkRepositionsWithoutRecordingPair(t *testing.T) {
	elems := []outbuf.Elem{
		{Kind: outbuf.NoMapMark, Offset: 0},
		{Kind: outbuf.Text, Text: "x"},
	}
	res := render.Render(elems, render.Preserve, "", identityResolver(1, 1))
	require.Empty(t, res.MapIn)
	require.Contains(t, res.Code, "x")
}

func TestRenderAdvancesToTargetLine(t *testing.T) {
	elems := []outbuf.Elem{
		{Kind: outbuf.MapMark, Offset: 0},
		{Kind: outbuf.Text, Text: "a"},
		{Kind: outbuf.MapMark, Offset: 1},
		{Kind: outbuf.Text, Text: "b"},
	}
	res := render.Render(elems, render.Preserve, "ab", identityResolver(2, 1))
	require.Contains(t, res.Code, "\na")
}

// TestRenderPreserveReproducesSourceGaps pins down Preserve mode's core
// rule: a marked token gets a single space exactly when the source had
// whitespace in front of it, and hugs the previous token otherwise.
func TestRenderPreserveReproducesSourceGaps(t *testing.T) {
	input := "x = f(1)"
	elems := []outbuf.Elem{
		{Kind: outbuf.MapMark, Offset: 0},
		{Kind: outbuf.Text, Text: "x"},
		{Kind: outbuf.MapMark, Offset: 2},
		{Kind: outbuf.Text, Text: "="},
		{Kind: outbuf.MapMark, Offset: 4},
		{Kind: outbuf.Text, Text: "f"},
		{Kind: outbuf.MapMark, Offset: 5},
		{Kind: outbuf.Text, Text: "("},
		{Kind: outbuf.MapMark, Offset: 6},
		{Kind: outbuf.Text, Text: "1"},
		{Kind: outbuf.MapMark, Offset: 7},
		{Kind: outbuf.Text, Text: ")"},
	}
	res := render.Render(elems, render.Preserve, input, columnResolver)
	require.Contains(t, res.Code, "x = f(1)")
}

// Synthesized tokens (no mark of their own) hug the previous token in
// Preserve mode; the statement terminator is the everyday case.
func TestRenderPreserveSynthesizedTokenHugs(t *testing.T) {
	elems := []outbuf.Elem{
		{Kind: outbuf.MapMark, Offset: 0},
		{Kind: outbuf.Text, Text: "x"},
		{Kind: outbuf.Text, Text: ";"},
	}
	res := render.Render(elems, render.Preserve, "x ", columnResolver)
	require.Contains(t, res.Code, "x;")
}

func TestRenderEndsWithTrailingNewline(t *testing.T) {
	elems := []outbuf.Elem{{Kind: outbuf.Text, Text: "x"}}
	res := render.Render(elems, render.Preserve, "x", identityResolver(1, 1))
	require.True(t, len(res.Code) > 0 && res.Code[len(res.Code)-1] == '\n')
}
