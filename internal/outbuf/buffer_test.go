package outbuf_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tabscript-lang/tabscript/internal/outbuf"
)

func TestPushTextAndLen(t *testing.T) {
	b := outbuf.New()
	require.Equal(t, 0, b.Len())
	b.PushText("const ")
	b.PushText("x")
	require.Equal(t, 2, b.Len())
	require.Len(t, b.Elems(), 2, b.Dump())
}

func TestTruncateReverts(t *testing.T) {
	b := outbuf.New()
	b.PushText("a")
	mark := b.Len()
	b.PushText("b")
	b.PushText("c")
	require.Equal(t, 3, b.Len())

	b.Truncate(mark)
	require.Equal(t, 1, b.Len())
	require.Equal(t, "a", b.Elems()[0].Text)
}

func TestEndsWithSkipsMarks(t *testing.T) {
	b := outbuf.New()
	b.PushText("const x")
	b.PushMapMark(5)
	require.True(t, b.EndsWith("x"), b.Dump())
	require.False(t, b.EndsWith("y"))
}

func TestEndsWithEmptyBuffer(t *testing.T) {
	b := outbuf.New()
	require.False(t, b.EndsWith(";"))
}

func TestHasTextSince(t *testing.T) {
	b := outbuf.New()
	b.PushText("a")
	from := b.Len()
	require.False(t, b.HasTextSince(from))

	b.PushMapMark(0)
	require.False(t, b.HasTextSince(from), "a mark alone is not text output")

	b.PushText("b")
	require.True(t, b.HasTextSince(from))
}

func TestSliceReturnsACopy(t *testing.T) {
	b := outbuf.New()
	b.PushText("a")
	from := b.Len()
	b.PushText("b")
	b.PushText("c")
	to := b.Len()

	got := b.Slice(from, to)
	require.Len(t, got, 2)
	require.Equal(t, "b", got[0].Text)
	require.Equal(t, "c", got[1].Text)

	got[0].Text = "mutated"
	require.Equal(t, "b", b.Elems()[from].Text, "Slice must return a copy, not a view")
}

func TestDumpIncludesElementContents(t *testing.T) {
	b := outbuf.New()
	b.PushText("const x")
	require.Contains(t, b.Dump(), "const x")
}
