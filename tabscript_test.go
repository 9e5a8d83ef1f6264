package tabscript_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tabscript-lang/tabscript"
)

// header is prepended to every scenario input, per spec.md §8.3 ("Header
// line implicit in each").
const header = "tabscript 1.0\n"

func transpile(t *testing.T, src string, opts ...tabscript.Option) *tabscript.Result {
	t.Helper()
	return tabscript.Transpile(header+src, opts...)
}

// TestGoldenScenarios pins down spec.md §8.3's literal S1-S6 scenarios.
func TestGoldenScenarios(t *testing.T) {
	t.Run("S1 const declaration with type stripping", func(t *testing.T) {
		r := transpile(t, "x : number = 3\n")
		require.Empty(t, r.Errors)
		require.Contains(t, r.Code, "const x: number = 3;")

		rJS := transpile(t, "x : number = 3\n", tabscript.WithJS(true))
		require.Empty(t, rJS.Errors)
		require.Contains(t, rJS.Code, `"use strict";`)
		require.Contains(t, rJS.Code, "const x = 3;")
		require.NotContains(t, rJS.Code, "number")
	})

	t.Run("S2 or/and/strict equality", func(t *testing.T) {
		r := transpile(t, "if a == 1 or b == 2 and c log(c)\n", tabscript.WithWhitespace(tabscript.Pretty))
		require.Empty(t, r.Errors)
		require.Contains(t, r.Code, "if (a === 1 || b === 2 && c)")
		require.Contains(t, r.Code, "log(c);")
	})

	t.Run("S3 for-of with inline const", func(t *testing.T) {
		r := transpile(t, "for x: of arr\n\tlog(x)\n", tabscript.WithWhitespace(tabscript.Pretty))
		require.Empty(t, r.Errors)
		require.Contains(t, r.Code, "for (const x of arr) {\n  log(x);\n}\n")
	})

	t.Run("S4 arrow with object literal body requires parens", func(t *testing.T) {
		r := transpile(t, "f := |x| {a: x}\n", tabscript.WithJS(true))
		require.Empty(t, r.Errors)
		require.Contains(t, r.Code, `"use strict";`)
		require.Contains(t, r.Code, "const f = (x) => ({a: x});")
	})

	t.Run("S5 constructor parameter properties", func(t *testing.T) {
		r := transpile(t, "class P\n\tconstructor|public x, public y|\n", tabscript.WithJS(true))
		require.Empty(t, r.Errors)
		require.Contains(t, r.Code, "class P{")
		require.Contains(t, r.Code, "constructor(x,y){this.x=x;this.y=y;}}")
	})

	t.Run("S6 recovery", func(t *testing.T) {
		r := transpile(t, "x := (\ny := 2\n", tabscript.WithRecover(true))
		require.NotEmpty(t, r.Errors)
		// The broken first statement is skipped; the second, independent
		// statement still parses and renders as a valid declaration (a
		// single ':' before 'y's '=' makes it const per spec.md §4.E.4).
		require.Contains(t, r.Code, "y = 2;")
	})
}

// TestOperatorSubstitutionTable exercises every spec.md §6.2 mapping with a
// program containing exactly that operator (§8.2's round-trip law).
func TestOperatorSubstitutionTable(t *testing.T) {
	cases := []struct {
		op, want string
	}{
		{"or", "||"},
		{"and", "&&"},
		{"==", "==="},
		{"!=", "!=="},
		{"=~", "=="},
		{"!~", "!="},
		{"%mod", "%"},
		{"%bit_or", "|"},
		{"%bit_and", "&"},
		{"%bit_xor", "^"},
		{"%shift_left", "<<"},
		{"%shift_right", ">>"},
		{"%unsigned_shift_right", ">>>"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.op, func(t *testing.T) {
			r := transpile(t, "x := a "+c.op+" b\n")
			require.Empty(t, r.Errors, r.Code)
			require.Contains(t, r.Code, c.want)
		})
	}
}

func TestPrefixBitNotSubstitution(t *testing.T) {
	r := transpile(t, "x := %bit_not a\n")
	require.Empty(t, r.Errors)
	require.Contains(t, r.Code, "~a")
}

// TestHeaderVersionMismatch checks spec.md §7's non-recoverable header
// version error.
func TestHeaderVersionMismatch(t *testing.T) {
	r := tabscript.Transpile("tabscript 2.0\nx := 1\n")
	require.NotEmpty(t, r.Errors)
	require.True(t, r.Errors[0].Fatal)
}

// TestSourceMapMonotonic checks spec.md §8.1's map monotonicity invariant.
func TestSourceMapMonotonic(t *testing.T) {
	r := transpile(t, "x := 1\ny := 2\nz := x + y\n")
	require.Empty(t, r.Errors)
	require.Equal(t, len(r.Map.In), len(r.Map.Out))
	for i := 1; i < len(r.Map.In); i++ {
		require.GreaterOrEqual(t, r.Map.In[i], r.Map.In[i-1])
		require.GreaterOrEqual(t, r.Map.Out[i], r.Map.Out[i-1])
	}
}

// TestWhitespaceModes sanity-checks that both Preserve and Pretty transpile
// the same input without errors, and that Pretty renders the expected
// spacing.
func TestWhitespaceModes(t *testing.T) {
	src := "if a == 1 log(a)\n"
	preserve := transpile(t, src)
	pretty := transpile(t, src, tabscript.WithWhitespace(tabscript.Pretty))
	require.Empty(t, preserve.Errors)
	require.Empty(t, pretty.Errors)
	require.True(t, strings.Contains(pretty.Code, "if (a === 1) log(a);"))
}

// TestTranspileNeverPanics is a light fuzz-adjacent smoke test: a batch of
// malformed inputs must produce errors, not a panic.
func TestTranspileNeverPanics(t *testing.T) {
	bad := []string{
		"tabscript 1.0\n(",
		"tabscript 1.0\nclass\n",
		"tabscript 1.0\nif\n",
		"tabscript 1.0\nx := `unterminated",
		"tabscript 1.0\n\t\t\tfoo\n",
	}
	for _, src := range bad {
		src := src
		t.Run(src, func(t *testing.T) {
			require.NotPanics(t, func() {
				tabscript.Transpile(src, tabscript.WithRecover(true))
			})
		})
	}
}
