package scan_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tabscript-lang/tabscript/internal/pattern"
	"github.com/tabscript-lang/tabscript/internal/scan"
)

func TestReadSkipsTrailingWhitespace(t *testing.T) {
	s := scan.New("foo   bar", "")
	txt, ok := s.Read(pattern.Identifier)
	require.True(t, ok)
	require.Equal(t, "foo", txt)
	require.Equal(t, 6, s.Pos(), "trailing whitespace/comment run should be consumed with the token")
}

func TestPeekDoesNotAdvance(t *testing.T) {
	s := scan.New("foo bar", "")
	txt, ok := s.Peek(pattern.Identifier)
	require.True(t, ok)
	require.Equal(t, "foo", txt)
	require.Equal(t, 0, s.Pos())
}

func TestReadFailureRecordsExpected(t *testing.T) {
	s := scan.New("123", "")
	_, ok := s.Read(pattern.Identifier)
	require.False(t, ok)
	require.Equal(t, []string{"IDENTIFIER"}, s.Expected())
}

func TestReadNewlineSynthesizesIndent(t *testing.T) {
	s := scan.New("a\n\tb\n", "")
	s.Read(pattern.Identifier) // consume "a"

	ok, err := s.ReadNewline()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, s.IndentLevel())
	require.True(t, s.PendingIndents())

	ok, err = s.ReadIndent()
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, s.PendingIndents())

	txt, ok := s.Read(pattern.Identifier)
	require.True(t, ok)
	require.Equal(t, "b", txt)
}

func TestReadNewlineSynthesizesDedent(t *testing.T) {
	s := scan.New("a\n\tb\nc\n", "")
	s.Read(pattern.Identifier)
	s.ReadIndent()
	s.Read(pattern.Identifier)

	ok, err := s.ReadNewline()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 0, s.IndentLevel())

	ok, err = s.ReadDedent()
	require.NoError(t, err)
	require.True(t, ok)

	txt, ok := s.Read(pattern.Identifier)
	require.True(t, ok)
	require.Equal(t, "c", txt)
}

func TestReadNewlineIsIdempotent(t *testing.T) {
	s := scan.New("a\nb\n", "")
	s.Read(pattern.Identifier)

	ok1, err := s.ReadNewline()
	require.NoError(t, err)
	require.True(t, ok1)
	pos := s.Pos()

	ok2, err := s.ReadNewline()
	require.NoError(t, err)
	require.True(t, ok2)
	require.Equal(t, pos, s.Pos(), "a second ReadNewline at the same position must be a no-op")
}

func TestReadNewlineSkipsBlankLines(t *testing.T) {
	s := scan.New("a\n\n\nb\n", "")
	s.Read(pattern.Identifier)

	ok, err := s.ReadNewline()
	require.NoError(t, err)
	require.True(t, ok)

	txt, ok := s.Read(pattern.Identifier)
	require.True(t, ok)
	require.Equal(t, "b", txt)
}

func TestSemicolonForcesExtraIndent(t *testing.T) {
	s := scan.New("a;\nb\n", "")
	s.Read(pattern.Identifier)

	ok, err := s.ReadNewline()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, s.IndentLevel(), "a ';' before the newline forces one extra INDENT")

	ok, err = s.ReadIndent()
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSpaceIndentationIsFatal(t *testing.T) {
	s := scan.New("a\n    b\n", "")
	s.Read(pattern.Identifier)

	_, err := s.ReadNewline()
	require.Error(t, err)
	var scanErr *scan.Error
	require.ErrorAs(t, err, &scanErr)
}

func TestAtTerminalRequiresBalancedIndent(t *testing.T) {
	s := scan.New("a\n", "")
	s.Read(pattern.Identifier)
	require.False(t, s.AtTerminal())

	s.ReadNewline()
	require.True(t, s.AtEOF())
	require.True(t, s.AtTerminal())
}

func TestSnapshotRestore(t *testing.T) {
	s := scan.New("a b\n", "")
	snap := s.Snapshot()
	s.Read(pattern.Identifier)
	require.NotEqual(t, snap, s.Snapshot())

	s.Restore(snap)
	require.Equal(t, 0, s.Pos())
	txt, ok := s.Read(pattern.Identifier)
	require.True(t, ok)
	require.Equal(t, "a", txt)
}

func TestPositionAtTracksLineColumn(t *testing.T) {
	s := scan.New("ab\ncd\nef", "f.tab")
	pos := s.PositionAt(4) // 'd' on the second line
	require.Equal(t, 2, pos.LineNumber())
	require.Equal(t, 2, pos.ColumnNumber())
	require.Equal(t, "f.tab", pos.File)
}

func TestPendingIndentsBlockRead(t *testing.T) {
	s := scan.New("a\n\tb\n", "")
	s.Read(pattern.Identifier)
	s.ReadNewline()
	require.True(t, s.PendingIndents())

	_, ok := s.Read(pattern.Identifier)
	require.False(t, ok, "Read must fail while indent/dedent markers are queued")
}
