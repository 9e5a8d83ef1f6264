package engine

import (
	"regexp"
	"sync"

	"github.com/tabscript-lang/tabscript/internal/pattern"
)

// Keyword matchers (spec §4.A: literal strings that must fail unless the
// following character is a non-word character).
var (
	kwReturn     = pattern.NewKeyword("return")
	kwYield      = pattern.NewKeyword("yield")
	kwThrow      = pattern.NewKeyword("throw")
	kwType       = pattern.NewKeyword("type")
	kwExport     = pattern.NewKeyword("export")
	kwImport     = pattern.NewKeyword("import")
	kwPlugin     = pattern.NewKeyword("plugin")
	kwDo         = pattern.NewKeyword("do")
	kwWhile      = pattern.NewKeyword("while")
	kwIf         = pattern.NewKeyword("if")
	kwElse       = pattern.NewKeyword("else")
	kwFor        = pattern.NewKeyword("for")
	kwOf         = pattern.NewKeyword("of")
	kwIn         = pattern.NewKeyword("in")
	kwTry        = pattern.NewKeyword("try")
	kwCatch      = pattern.NewKeyword("catch")
	kwFinally    = pattern.NewKeyword("finally")
	kwFunction   = pattern.NewKeyword("function")
	kwAsync      = pattern.NewKeyword("async")
	kwClass      = pattern.NewKeyword("class")
	kwInterface  = pattern.NewKeyword("interface")
	kwAbstract   = pattern.NewKeyword("abstract")
	kwExtends    = pattern.NewKeyword("extends")
	kwImplements = pattern.NewKeyword("implements")
	kwSwitch     = pattern.NewKeyword("switch")
	kwEnum       = pattern.NewKeyword("enum")
	kwDeclare    = pattern.NewKeyword("declare")
	kwStatic     = pattern.NewKeyword("static")
	kwPublic     = pattern.NewKeyword("public")
	kwPrivate    = pattern.NewKeyword("private")
	kwProtected  = pattern.NewKeyword("protected")
	kwGet        = pattern.NewKeyword("get")
	kwSet        = pattern.NewKeyword("set")
	kwNew        = pattern.NewKeyword("new")
	kwDelete     = pattern.NewKeyword("delete")
	kwTypeof     = pattern.NewKeyword("typeof")
	kwInstanceof = pattern.NewKeyword("instanceof")
	kwAwait      = pattern.NewKeyword("await")
	kwAs         = pattern.NewKeyword("as")
	kwKeyof      = pattern.NewKeyword("keyof")
	kwIs         = pattern.NewKeyword("is")
	kwAnd        = pattern.NewKeyword("and")
	kwOr         = pattern.NewKeyword("or")
	kwAsserts    = pattern.NewKeyword("asserts")
	kwTabscript  = pattern.NewKeyword("tabscript")
	kwSuper      = pattern.NewKeyword("super")
	kwDefault    = pattern.NewKeyword("default")
	kwFrom       = pattern.NewKeyword("from")
	kwReadonly   = pattern.NewKeyword("readonly")
)

// Punctuation patterns used across grammar rules.
var (
	pColon       = pattern.New(`:`, "':'")
	pComma       = pattern.New(`,`, "','")
	pSemicolon   = pattern.New(`;`, "';'")
	pLParen      = pattern.New(`\(`, "'('")
	pRParen      = pattern.New(`\)`, "')'")
	pLBrace      = pattern.New(`\{`, "'{'")
	pRBrace      = pattern.New(`\}`, "'}'")
	pLBracket    = pattern.New(`\[`, "'['")
	pRBracket    = pattern.New(`\]`, "']'")
	pPipe        = pattern.New(`\|`, "'|'")
	// pAssign, pQuestion, pDotDot, pDot, and pBang are each one character
	// shorter than another pattern they could be confused with ("==",
	// "?.", "...", "!="); Go's RE2-based regexp engine has no lookahead to
	// rule the longer form out inline, so disambiguation instead relies on
	// every call site trying the longer pattern first (spec §4.E.1's
	// "sequential attempts, first success wins") before ever trying these.
	pAssign      = pattern.New(`=`, "'='")
	pQuestion    = pattern.New(`\?`, "'?'")
	pQuestionDot = pattern.New(`\?\.`, "'?.'")
	pDotDotDot   = pattern.New(`\.\.\.`, "'...'")
	pDotDot      = pattern.New(`\.\.`, "'..'")
	pDot         = pattern.New(`\.`, "'.'")
	pStar        = pattern.New(`\*`, "'*'")
	pLT          = pattern.New(`<`, "'<'")
	pGT          = pattern.New(`>`, "'>'")
	pBacktick    = pattern.New("`", "'`'")
	pDollarBrace = pattern.New(`\$\{`, "'${'")
	pDollar      = pattern.New(`\$`, "'$'")
	pBang        = pattern.New(`!`, "'!'")
	pAt          = pattern.New(`@`, "'@'")
	pPlusPlus    = pattern.New(`\+\+`, "'++'")
	pMinusMinus  = pattern.New(`--`, "'--'")
)

var (
	litCache = map[string]*pattern.Pattern{}
	litMu    sync.Mutex
)

// lit returns (creating and caching on first use) a literal-text Pattern,
// for group delimiters and separators supplied as plain strings.
func lit(s string) *pattern.Pattern {
	litMu.Lock()
	defer litMu.Unlock()
	if p, ok := litCache[s]; ok {
		return p
	}
	p := pattern.New(regexp.QuoteMeta(s), "'"+s+"'")
	litCache[s] = p
	return p
}
