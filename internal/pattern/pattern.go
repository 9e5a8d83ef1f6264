// Package pattern implements the sticky pattern registry (spec §4.A): named
// regexes and keyword matchers that only ever match at a caller-supplied
// offset, never by scanning ahead. Every Pattern's Display name doubles as
// the text used in "expecting one of ..." parse error messages, so failures
// read as "IDENTIFIER" or "'{'" instead of a raw regex.
//
// Go's regexp package has no native sticky/"only at this index" mode the
// way some other languages' regex engines do (spec §9 flags this). We
// simulate it by anchoring every pattern with \A and matching against a
// substring view starting at the caller's offset, per the workaround spec.md
// §9 recommends. No regex engine in the example corpus offers an
// explicit-start-offset match, so this is implemented on the standard
// library.
package pattern

import "regexp"

// Pattern is a sticky regex paired with a display name used in error
// messages in place of the raw pattern source.
type Pattern struct {
	name string
	re   *regexp.Regexp
}

// New compiles expr into a Pattern anchored to the start of whatever slice
// it is matched against. name is used in error messages and String().
func New(expr, name string) *Pattern {
	return &Pattern{name: name, re: regexp.MustCompile(`\A(?:` + expr + `)`)}
}

// String returns the pattern's display name.
func (p *Pattern) String() string { return p.name }

// MatchAt attempts to match the pattern starting exactly at pos in input.
// It returns the matched text and true on success, or "", false if nothing
// matches there. It never scans forward looking for a later match.
func (p *Pattern) MatchAt(input string, pos int) (string, bool) {
	if pos > len(input) {
		return "", false
	}
	loc := p.re.FindStringIndex(input[pos:])
	if loc == nil {
		return "", false
	}
	return input[pos : pos+loc[1]], true
}

// Keyword matches a literal word, but only if the character immediately
// following it is not a word character — this stops "in" from matching the
// first two letters of "inward".
type Keyword struct {
	word string
}

// NewKeyword returns a Keyword matcher for the literal word.
func NewKeyword(word string) *Keyword {
	return &Keyword{word: word}
}

// String returns the literal word, used verbatim in "expecting" messages.
func (k *Keyword) String() string { return k.word }

// MatchAt matches the keyword's literal text at pos, rejecting a match
// whose next character continues an identifier.
func (k *Keyword) MatchAt(input string, pos int) (string, bool) {
	end := pos + len(k.word)
	if end > len(input) || input[pos:end] != k.word {
		return "", false
	}
	if end < len(input) && isWordByte(input[end]) {
		return "", false
	}
	return k.word, true
}

func isWordByte(b byte) bool {
	return b == '_' || b == '$' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// Matcher is the shared contract for Pattern and Keyword: attempt a match
// exactly at pos, reporting the matched text and whether it matched.
type Matcher interface {
	String() string
	MatchAt(input string, pos int) (string, bool)
}

// Core patterns (spec §4.A). These are the ones every scanner/parser
// instance shares; additional ad hoc patterns may be built with New/NewKeyword.
var (
	Whitespace           = New(`[ \t\r]*(?:#[^\n]*)?`, "whitespace")
	Identifier           = New(`[A-Za-z_$][0-9A-Za-z_$]*`, "IDENTIFIER")
	String               = New(`"(?:\\.|[^"\\])*"|'(?:\\.|[^'\\])*'`, "STRING")
	Number               = New(`[+-]?(?:0[xX][0-9a-fA-F]+|0[oO][0-7]+|0[bB][01]+|(?:\d+\.\d*|\.\d+|\d+)(?:[eE][+-]?\d+)?)`, "NUMBER")
	Integer              = New(`\d+`, "INTEGER")
	// The `$` branch must exclude a following backtick from the character
	// it consumes, or a trailing `$` immediately before the closing
	// backtick (e.g. `` `a$` ``) swallows the terminator itself; the loop
	// in parseBacktickString handles a bare trailing `$` that this pattern
	// stops short of by consuming it as a lone literal character.
	WithinBacktickString = New("(?:\\\\.|[^`$]|\\$[^{`])*", "backtick string body")
	Regexp               = New(`/(?:\\.|[^/\\\n])+/[a-zA-Z]*`, "REGEXP")
)

// Operator is the multi-character binary-operator pattern, including word
// operators (and, or, in, instanceof, =~, !~) and percent-named binary
// operators (%mod, %bit_or, ...). Its single-char fallback class is
// deliberately narrow — structural punctuation (`,` `;` `(` `)` `{` `}`
// `[` `]` `:` `?` `.`) has its own dedicated Pattern and must never be
// absorbed here, or a bare separator would get mistaken for a binary
// operator in the expression postfix loop.
var Operator = New(
	`===|!==|==|!=|=~|!~|<=|>=|<<|>>>|>>|&&|\|\||\*\*|%[A-Za-z_][A-Za-z0-9_]*|[+\-*/%<>=|&^~]|and\b|or\b|instanceof\b|in\b`,
	"OPERATOR",
)

// ExpressionPrefix matches the unary/prefix operator set.
var ExpressionPrefix = New(
	`\+\+|--|!|\+|-|typeof\b|delete\b|await\b|new\b|%bit_not\b`,
	"prefix operator",
)
