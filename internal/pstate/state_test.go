package pstate_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tabscript-lang/tabscript/internal/pattern"
	"github.com/tabscript-lang/tabscript/internal/pstate"
)

func newState(input string) *pstate.State {
	return pstate.New(input, "t.tab", zerolog.Nop())
}

func TestEmitFlushesPendingMapMark(t *testing.T) {
	s := newState("foo")
	s.Read(pattern.Identifier)
	s.Emit("bar")

	elems := s.Buf.Elems()
	require.Len(t, elems, 2)
	require.Equal(t, "bar", elems[1].Text)
}

func TestEmitEmptyStringIsNoOp(t *testing.T) {
	s := newState("")
	s.Emit("")
	require.Equal(t, 0, s.Buf.Len())
}

func TestEndsWith(t *testing.T) {
	s := newState("")
	s.Emit("const x")
	require.True(t, s.EndsWith("x"))
	require.False(t, s.EndsWith("y"))
}

func TestEnterLeaveDepthGuard(t *testing.T) {
	s := newState("")
	s.MaxDepth = 2
	require.NoError(t, s.Enter())
	require.NoError(t, s.Enter())
	require.Error(t, s.Enter(), "a third Enter beyond MaxDepth must fail")
	s.Leave()
	s.Leave()
}

// TestEnterDoesNotLeakDepthOnFailure pins down that a failed Enter (at
// MaxDepth) leaves Depth exactly as it found it, so a caller that doesn't
// call Leave after a failed Enter (the universal call-site convention:
// "return false, err" with no matching Leave) doesn't permanently consume
// one level of recursion budget per failure. Without this, repeated
// recovered max-depth errors would ratchet the effective budget down for
// the rest of the file.
func TestEnterDoesNotLeakDepthOnFailure(t *testing.T) {
	s := newState("")
	s.MaxDepth = 1
	require.NoError(t, s.Enter())
	require.Error(t, s.Enter())
	s.Leave()
	// A fresh Enter/Leave cycle at the same budget must succeed exactly as
	// many times as it did the first time around.
	require.NoError(t, s.Enter())
	require.Error(t, s.Enter())
	s.Leave()
}

func TestSnapshotRevertRestoresOutputAndCursor(t *testing.T) {
	s := newState("foo bar")
	snap := s.Snapshot()

	s.Read(pattern.Identifier)
	s.Emit("foo")
	require.Equal(t, 1, s.Buf.Len())

	s.Revert(snap)
	require.Equal(t, 0, s.Buf.Len())

	txt, ok := s.Read(pattern.Identifier)
	require.True(t, ok)
	require.Equal(t, "foo", txt)
}

func TestRevertOutputKeepsCursorAdvanced(t *testing.T) {
	s := newState("foo bar")
	s.Read(pattern.Identifier)
	snap := s.Snapshot()
	s.Emit("speculative")

	truncated := s.RevertOutput(snap)
	require.Len(t, truncated, 1)
	require.Equal(t, 0, s.Buf.Len())

	// The scanner cursor (unlike the buffer) is untouched by RevertOutput.
	txt, ok := s.Read(pattern.Identifier)
	require.True(t, ok)
	require.Equal(t, "bar", txt)
}

func TestHasOutputDetectsEmission(t *testing.T) {
	s := newState("")
	snap := s.Snapshot()
	require.False(t, s.HasOutput(snap))
	s.Emit("x")
	require.True(t, s.HasOutput(snap))
}

func TestClearTargetDropsPendingMark(t *testing.T) {
	s := newState("foo")
	s.Read(pattern.Identifier)
	s.ClearTarget()
	s.Emit("bar")

	elems := s.Buf.Elems()
	require.Len(t, elems, 1, "no MapMark should have been flushed once the target was cleared")
	require.Equal(t, "bar", elems[0].Text)
}

func TestMustBuildsErrorWithExpectedSet(t *testing.T) {
	s := newState("123")
	_, ok := s.Read(pattern.Identifier)
	require.False(t, ok)

	err := s.Must(ok, "identifier")
	require.Error(t, err)
	require.Contains(t, err.Error(), "IDENTIFIER")
}

func TestMustReturnsNilOnSuccess(t *testing.T) {
	s := newState("")
	require.NoError(t, s.Must(true, "anything"))
}
