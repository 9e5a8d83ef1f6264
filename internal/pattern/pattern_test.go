package pattern_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tabscript-lang/tabscript/internal/pattern"
)

func TestPatternMatchAtAnchored(t *testing.T) {
	p := pattern.New(`[0-9]+`, "NUMBER")

	txt, ok := p.MatchAt("abc123", 3)
	require.True(t, ok)
	require.Equal(t, "123", txt)

	// The match must be anchored exactly at pos, never scanning ahead to
	// find a later match.
	_, ok = p.MatchAt("abc123", 0)
	require.False(t, ok)
}

func TestPatternMatchAtPastEnd(t *testing.T) {
	p := pattern.New(`x`, "X")
	_, ok := p.MatchAt("abc", 10)
	require.False(t, ok)
}

func TestPatternString(t *testing.T) {
	p := pattern.New(`x`, "'x'")
	require.Equal(t, "'x'", p.String())
}

func TestKeywordRejectsWordContinuation(t *testing.T) {
	kw := pattern.NewKeyword("in")

	_, ok := kw.MatchAt("inward", 0)
	require.False(t, ok, "'in' must not match the prefix of 'inward'")

	txt, ok := kw.MatchAt("in x", 0)
	require.True(t, ok)
	require.Equal(t, "in", txt)
}

func TestKeywordMatchesAtEOF(t *testing.T) {
	kw := pattern.NewKeyword("of")
	txt, ok := kw.MatchAt("of", 0)
	require.True(t, ok)
	require.Equal(t, "of", txt)
}

func TestIdentifierPattern(t *testing.T) {
	txt, ok := pattern.Identifier.MatchAt("$foo_1 bar", 0)
	require.True(t, ok)
	require.Equal(t, "$foo_1", txt)
}

func TestStringPatternBothQuoteStyles(t *testing.T) {
	txt, ok := pattern.String.MatchAt(`"a\"b" rest`, 0)
	require.True(t, ok)
	require.Equal(t, `"a\"b"`, txt)

	txt, ok = pattern.String.MatchAt(`'a\'b' rest`, 0)
	require.True(t, ok)
	require.Equal(t, `'a\'b'`, txt)
}

func TestNumberPattern(t *testing.T) {
	cases := []string{"0", "3.14", "1e10", "0x1F", "0b101", "0o17", ".5"}
	for _, c := range cases {
		c := c
		t.Run(c, func(t *testing.T) {
			txt, ok := pattern.Number.MatchAt(c+" ", 0)
			require.True(t, ok)
			require.Equal(t, c, txt)
		})
	}
}

func TestOperatorPatternPrefersLongestAlternative(t *testing.T) {
	txt, ok := pattern.Operator.MatchAt("===x", 0)
	require.True(t, ok)
	require.Equal(t, "===", txt)
}

func TestOperatorPatternPercentNamed(t *testing.T) {
	txt, ok := pattern.Operator.MatchAt("%bit_and b", 0)
	require.True(t, ok)
	require.Equal(t, "%bit_and", txt)
}

func TestExpressionPrefixPattern(t *testing.T) {
	txt, ok := pattern.ExpressionPrefix.MatchAt("%bit_not a", 0)
	require.True(t, ok)
	require.Equal(t, "%bit_not", txt)
}
