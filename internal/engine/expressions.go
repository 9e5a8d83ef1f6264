package engine

import (
	"github.com/tabscript-lang/tabscript/internal/pattern"
	"github.com/tabscript-lang/tabscript/perror"
)

// parseExpression implements spec §4.E.8's entry point. When allowSeq is
// true, a top-level comma is treated as the JS comma operator and joins
// further expressions (used by the statement fallback and by
// parenthesized sequences); call sites that parse a single argument/item
// pass false and let their own group/list grammar own the comma.
func (p *Parser) parseExpression(allowSeq bool) (bool, error) {
	ok, err := p.parseExprOnce()
	if err != nil || !ok {
		return ok, err
	}
	if allowSeq {
		for {
			if _, ok := p.st.Read(pComma); !ok {
				break
			}
			p.st.Emit(",")
			if err := p.st.Enter(); err != nil {
				return false, err
			}
			okN, err := p.parseExprOnce()
			p.st.Leave()
			if err != nil {
				return false, err
			}
			if err := p.must(okN, "expression after ','"); err != nil {
				return false, err
			}
		}
	}
	return true, nil
}

// parseExprOnce is one prefix/primary/postfix/trailing-question cycle
// (spec §4.E.8 steps 1-4), with no comma handling.
func (p *Parser) parseExprOnce() (bool, error) {
	hadPrefix := p.parsePrefixOps()

	ok, err := p.call("parsePrimary")
	if err != nil {
		return false, err
	}
	if !ok {
		if hadPrefix {
			return false, p.fail("expression after prefix operator")
		}
		return false, nil
	}

	if err := p.parsePostfixLoop(); err != nil {
		return false, err
	}
	if err := p.parseTrailingQuestion(); err != nil {
		return false, err
	}
	return true, nil
}

// parsePrefixOps consumes zero or more prefix operators, emitting each
// (with the one %bit_not -> ~ substitution), and reports whether at least
// one was found.
func (p *Parser) parsePrefixOps() bool {
	found := false
	for {
		word, ok := p.st.Read(pattern.ExpressionPrefix)
		if !ok {
			break
		}
		p.st.Emit(substitute(prefixOpSubstitutions, word))
		found = true
	}
	return found
}

// parsePrimary implements spec §4.E.8 step 2's dispatch order.
func (p *Parser) parsePrimary() (bool, error) {
	switch {
	case p.peekAny(kwClass, kwInterface, kwAbstract):
		return p.parseClass()
	case p.peekAny(kwFunction, kwAsync, pPipe):
		return p.parseFunction(false)
	case p.peekAny(pattern.Identifier):
		name, _ := p.st.Read(pattern.Identifier)
		p.st.Emit(name)
		return true, nil
	case p.peekAny(pLBracket):
		return p.parseArrayLiteral()
	case p.peekAny(pLBrace):
		return p.parseObjectLiteral()
	case p.peekAny(pattern.String):
		s, _ := p.st.Read(pattern.String)
		p.st.Emit(s)
		return true, nil
	case p.peekAny(pBacktick):
		return p.parseBacktickString()
	case p.peekAny(pattern.Number):
		n, _ := p.st.Read(pattern.Number)
		p.st.Emit(n)
		return true, nil
	case p.peekAny(pLParen):
		return p.parseParenSeq()
	case p.peekAny(pattern.Regexp):
		r, _ := p.st.Read(pattern.Regexp)
		p.st.Emit(r)
		return true, nil
	}
	return false, nil
}

func (p *Parser) parseParenSeq() (bool, error) {
	if _, ok := p.st.Read(pLParen); !ok {
		return false, nil
	}
	p.st.Emit("(")
	if err := p.st.Enter(); err != nil {
		return false, err
	}
	okE, err := p.parseExpression(true)
	p.st.Leave()
	if err != nil {
		return false, err
	}
	if err := p.must(okE, "expression inside parentheses"); err != nil {
		return false, err
	}
	if _, ok := p.st.Read(pRParen); !ok {
		return false, p.fail("')' to close parenthesized expression")
	}
	p.st.Emit(")")
	return true, nil
}

// parsePostfixLoop repeatedly applies spec §4.E.8 step 3's postfix forms
// until none apply.
func (p *Parser) parsePostfixLoop() error {
	for {
		matched, err := p.tryPostfixOnce()
		if err != nil {
			return err
		}
		if !matched {
			return nil
		}
	}
}

func (p *Parser) tryPostfixOnce() (bool, error) {
	// Call: only if the preceding character was not a space, distinguishing
	// `f(x)` from a spaced operator form `f (x)`.
	if !p.st.Scan.PrevByteIsSpace() && p.peekAny(pLParen) {
		ok, err := p.parseGroup(GroupOptions{
			Open: "(", Close: ")", JSOpen: "(", JSClose: ")",
			Next: ",", JSNext: ",", EndNext: true,
		}, p.parseCallArg)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, p.fail("call arguments")
		}
		return true, nil
	}

	// Alternative call syntax: `..` ARGS.
	if _, ok := p.st.Read(pDotDot); ok {
		if err := p.parseDotDotArgs(); err != nil {
			return false, err
		}
		return true, nil
	}

	// Backtick-tagged template call.
	if p.peekAny(pBacktick) {
		ok, err := p.parseBacktickString()
		if err != nil {
			return false, err
		}
		return ok, nil
	}

	// Index.
	if p.peekAny(pLBracket) {
		p.st.Read(pLBracket)
		p.st.Emit("[")
		if err := p.st.Enter(); err != nil {
			return false, err
		}
		okE, err := p.parseExpression(false)
		p.st.Leave()
		if err != nil {
			return false, err
		}
		if err := p.must(okE, "index expression"); err != nil {
			return false, err
		}
		if _, ok := p.st.Read(pRBracket); !ok {
			return false, p.fail("']' to close index")
		}
		p.st.Emit("]")
		return true, nil
	}

	// Postfix ++/--.
	if word, ok := p.st.Read(pPlusPlus, pMinusMinus); ok {
		p.st.Emit(word)
		return true, nil
	}

	// `as TYPE` — type-level, stripped.
	if _, ok := p.st.Read(kwAs); ok {
		if err := p.st.Enter(); err != nil {
			return false, err
		}
		okT, err := p.parseType()
		p.st.Leave()
		if err != nil {
			return false, err
		}
		if err := p.must(okT, "type after 'as'"); err != nil {
			return false, err
		}
		return true, nil
	}

	// Optional chaining.
	if _, ok := p.st.Read(pQuestionDot); ok {
		p.st.Emit("?.")
		if p.peekAny(pLBracket) {
			p.st.Read(pLBracket)
			p.st.Emit("[")
			if err := p.st.Enter(); err != nil {
				return false, err
			}
			okE, err := p.parseExpression(false)
			p.st.Leave()
			if err != nil {
				return false, err
			}
			if err := p.must(okE, "index expression"); err != nil {
				return false, err
			}
			if _, ok := p.st.Read(pRBracket); !ok {
				return false, p.fail("']' to close index")
			}
			p.st.Emit("]")
			return true, nil
		}
		name, ok := p.st.Read(pattern.Identifier)
		if !ok {
			return false, p.fail("member name after '?.'")
		}
		p.st.Emit(name)
		return true, nil
	}

	// Member access (`.IDENT`, but not `..` which is the call form above).
	if _, ok := p.st.Read(pDot); ok {
		p.st.Emit(".")
		name, ok := p.st.Read(pattern.Identifier)
		if !ok {
			return false, p.fail("member name after '.'")
		}
		p.st.Emit(name)
		return true, nil
	}

	// Template argument application (spec §4.E.11): try it, but if it
	// declines to commit, fall through to ordinary binary-operator
	// handling below so `<` still works as less-than.
	if p.peekAny(pLT) {
		ok, err := p.tryTemplateArgApplication()
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}

	// Binary operator (including the §6.2 substitution table).
	if word, ok := p.st.Read(pattern.Operator); ok {
		p.st.Emit(substitute(binaryOpSubstitutions, word))
		if err := p.st.Enter(); err != nil {
			return false, err
		}
		okR, err := p.parseExprOnce()
		p.st.Leave()
		if err != nil {
			return false, err
		}
		if err := p.must(okR, "right-hand side of '"+word+"'"); err != nil {
			return false, err
		}
		return true, nil
	}

	// Non-null assertion — type-level, stripped.
	if _, ok := p.st.Read(pBang); ok {
		return true, nil
	}

	return false, nil
}

// parseCallArg parses one call argument, permitting a leading `...` spread.
func (p *Parser) parseCallArg() (bool, error) {
	if _, ok := p.st.Read(pDotDotDot); ok {
		p.st.Emit("...")
	}
	if err := p.st.Enter(); err != nil {
		return false, err
	}
	ok, err := p.parseExprOnce()
	p.st.Leave()
	return ok, err
}

// parseDotDotArgs parses the `..` alternative call syntax: either an
// indented group of arguments, or a same-line whitespace-separated
// sequence, each rendered comma-separated (spec §4.E.8 step 3).
func (p *Parser) parseDotDotArgs() error {
	p.st.Emit("(")
	okGroup, err := p.parseGroup(GroupOptions{
		AllowImplicit: true, Next: ",", JSNext: ",", EndNext: true,
	}, p.parseCallArg)
	if err != nil {
		return err
	}
	if !okGroup {
		first := true
		for {
			if p.st.Scan.AtEOF() {
				break
			}
			if atNL, err := p.peekNewline(); err != nil {
				return err
			} else if atNL {
				break
			}
			sepSnap := p.st.Snapshot()
			if !first {
				p.st.Emit(",")
			}
			if err := p.st.Enter(); err != nil {
				return err
			}
			okE, err := p.parseExprOnce()
			p.st.Leave()
			if err != nil {
				return err
			}
			if !okE {
				p.st.Revert(sepSnap)
				break
			}
			first = false
		}
	}
	p.st.Emit(")")
	return nil
}

// tryTemplateArgApplication implements spec §4.E.11: speculatively parse
// `< TYPE (, TYPE)* >`, committing only if the next observable token is
// `.`, `(`, or a newline; otherwise a full revert lets `<` be read again as
// less-than.
func (p *Parser) tryTemplateArgApplication() (bool, error) {
	snap := p.st.Snapshot()
	if _, ok := p.readType(pLT); !ok {
		return false, nil
	}
	first := true
	for {
		if !first {
			if _, ok := p.readType(pComma); !ok {
				break
			}
		}
		if err := p.st.Enter(); err != nil {
			return false, err
		}
		okT, err := p.parseType()
		p.st.Leave()
		if err != nil {
			return false, err
		}
		if !okT {
			p.st.Revert(snap)
			return false, nil
		}
		first = false
	}
	if _, ok := p.readType(pGT); !ok {
		p.st.Revert(snap)
		return false, nil
	}

	committed := p.peekAny(pDot) || (!p.st.Scan.PrevByteIsSpace() && p.peekAny(pLParen))
	if !committed {
		if atNL, err := p.peekNewline(); err != nil {
			return false, err
		} else if atNL {
			committed = true
		}
	}
	if !committed {
		p.st.Revert(snap)
		return false, nil
	}
	return true, nil
}

// parseTrailingQuestion implements spec §4.E.8 step 4: a trailing `?`
// introduces either a ternary (if followed by an expression) or, absent
// that, a nullish-test shorthand `!=null`.
func (p *Parser) parseTrailingQuestion() error {
	if _, ok := p.st.Read(pQuestion); !ok {
		return nil
	}
	snap := p.st.Snapshot()
	p.st.Emit("?")
	if err := p.st.Enter(); err != nil {
		return err
	}
	okThen, err := p.parseExprOnce()
	p.st.Leave()
	if err != nil {
		return err
	}
	if !okThen {
		p.st.Revert(snap)
		p.st.Emit("!=null")
		return nil
	}
	if _, ok := p.st.Read(pColon); !ok {
		return p.fail("':' in ternary expression")
	}
	p.st.Emit(":")
	if err := p.st.Enter(); err != nil {
		return err
	}
	okElse, err := p.parseExprOnce()
	p.st.Leave()
	if err != nil {
		return err
	}
	return p.must(okElse, "else-branch of ternary expression")
}

// parseBacktickString implements spec §4.E.9: repeatedly consume the body
// segment up to `${` or the closing backtick; `${` opens a nested
// expression, which must close with `}`.
func (p *Parser) parseBacktickString() (bool, error) {
	if _, ok := p.st.Read(pBacktick); !ok {
		return false, nil
	}
	p.st.Emit("`")
	for {
		if body, ok := p.st.Read(pattern.WithinBacktickString); ok && body != "" {
			p.st.Emit(body)
		}
		if _, ok := p.st.Read(pDollarBrace); ok {
			p.st.Emit("${")
			if err := p.st.Enter(); err != nil {
				return false, err
			}
			okE, err := p.parseExpression(false)
			p.st.Leave()
			if err != nil {
				return false, err
			}
			if err := p.must(okE, "expression inside template interpolation"); err != nil {
				return false, err
			}
			if _, ok := p.st.Read(pRBrace); !ok {
				return false, p.fail("'}' to close template interpolation")
			}
			p.st.Emit("}")
			continue
		}
		if _, ok := p.st.Read(pBacktick); ok {
			p.st.Emit("`")
			break
		}
		// A lone `$` not followed by `{` (including one sitting directly
		// against the closing backtick, e.g. `` `a$` ``) isn't part of
		// WithinBacktickString's body match; consume it as a literal
		// character and keep going.
		if _, ok := p.st.Read(pDollar); ok {
			p.st.Emit("$")
			continue
		}
		return false, p.failCode(perror.CodeUnterminated, "unterminated backtick string")
	}
	return true, nil
}

// parseArrayLiteral implements the array half of spec §4.E.10.
func (p *Parser) parseArrayLiteral() (bool, error) {
	return p.parseGroup(GroupOptions{
		Open: "[", Close: "]", JSOpen: "[", JSClose: "]",
		Next: ",", JSNext: ",", EndNext: true,
	}, p.parseArrayElement)
}

func (p *Parser) parseArrayElement() (bool, error) {
	if _, ok := p.st.Read(pDotDotDot); ok {
		p.st.Emit("...")
	}
	if err := p.st.Enter(); err != nil {
		return false, err
	}
	ok, err := p.parseExprOnce()
	p.st.Leave()
	return ok, err
}

// parseObjectLiteral implements the object half of spec §4.E.10: keys may
// be IDENT/NUMBER/STRING/backtick/`[EXPR]`, shorthand (no `:`) and method
// shorthand (`|PARAMS|` with a block or expression body) are accepted, and
// `...EXPR` spread is permitted.
func (p *Parser) parseObjectLiteral() (bool, error) {
	return p.parseGroup(GroupOptions{
		Open: "{", Close: "}", JSOpen: "{", JSClose: "}",
		Next: ",", JSNext: ",", EndNext: true,
	}, p.parseObjectMember)
}

func (p *Parser) parseObjectMember() (bool, error) {
	if _, ok := p.st.Read(pDotDotDot); ok {
		p.st.Emit("...")
		if err := p.st.Enter(); err != nil {
			return false, err
		}
		okE, err := p.parseExprOnce()
		p.st.Leave()
		if err != nil {
			return false, err
		}
		if err := p.must(okE, "spread expression"); err != nil {
			return false, err
		}
		return true, nil
	}

	haveKey := false
	switch {
	case p.peekAny(pLBracket):
		p.st.Read(pLBracket)
		p.st.Emit("[")
		if err := p.st.Enter(); err != nil {
			return false, err
		}
		okE, err := p.parseExpression(false)
		p.st.Leave()
		if err != nil {
			return false, err
		}
		if err := p.must(okE, "computed key expression"); err != nil {
			return false, err
		}
		if _, ok := p.st.Read(pRBracket); !ok {
			return false, p.fail("']' to close computed key")
		}
		p.st.Emit("]")
		haveKey = true
	case p.peekAny(pBacktick):
		ok, err := p.parseBacktickString()
		if err != nil || !ok {
			return ok, err
		}
		haveKey = true
	default:
		if name, ok := p.st.Read(pattern.Identifier); ok {
			p.st.Emit(name)
			haveKey = true
		} else if n, ok := p.st.Read(pattern.Number); ok {
			p.st.Emit(n)
			haveKey = true
		} else if s, ok := p.st.Read(pattern.String); ok {
			p.st.Emit(s)
			haveKey = true
		}
	}
	if !haveKey {
		return false, nil
	}

	// Method shorthand: KEY |PARAMS| BODY, rendered `key(params){...}`.
	if _, ok := p.st.Read(pPipe); ok {
		p.st.Emit("(")
		if _, err := p.parseParams(); err != nil {
			return false, err
		}
		if _, ok := p.st.Read(pPipe); !ok {
			return false, p.fail("'|' to close method parameter list")
		}
		p.st.Emit(")")
		if err := p.parseOptionalReturnType(); err != nil {
			return false, err
		}
		fnSnap := p.st.Snapshot()
		ok, err := p.parseFunctionBody(false, false, fnSnap)
		if err != nil {
			return false, err
		}
		return ok, nil
	}

	if _, ok := p.st.Read(pColon); ok {
		p.st.Emit(":")
		if err := p.st.Enter(); err != nil {
			return false, err
		}
		okE, err := p.parseExprOnce()
		p.st.Leave()
		if err != nil {
			return false, err
		}
		if err := p.must(okE, "value expression"); err != nil {
			return false, err
		}
	}
	return true, nil
}
