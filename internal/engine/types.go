package engine

import (
	"github.com/tabscript-lang/tabscript/internal/pattern"
)

// readType reads via the scanner and, outside JS mode, emits the matched
// text verbatim — the "strip in JS mode" mechanism spec §4.E.12 requires
// of every type-grammar token.
func (p *Parser) readType(matchers ...pattern.Matcher) (string, bool) {
	txt, ok := p.st.Read(matchers...)
	if ok {
		p.emitType(txt)
	}
	return txt, ok
}

// emitType emits text only when not in JS mode.
func (p *Parser) emitType(text string) {
	if !p.cfg.JS {
		p.st.Emit(text)
	}
}

// parseType implements spec §4.E.12: union/intersection of postfix types,
// with an optional trailing `extends ... ? ... : ...` conditional wrapper.
func (p *Parser) parseType() (bool, error) {
	ok, err := p.parseUnionType()
	if err != nil || !ok {
		return ok, err
	}
	if _, ok := p.readType(kwExtends); ok {
		if err := p.st.Enter(); err != nil {
			return false, err
		}
		okE, err := p.parseUnionType()
		p.st.Leave()
		if err != nil {
			return false, err
		}
		if err := p.must(okE, "extends-clause type"); err != nil {
			return false, err
		}
		if _, ok := p.readType(pQuestion); !ok {
			return false, p.fail("'?' in conditional type")
		}
		if err := p.st.Enter(); err != nil {
			return false, err
		}
		okT, err := p.parseType()
		p.st.Leave()
		if err != nil {
			return false, err
		}
		if err := p.must(okT, "true branch of conditional type"); err != nil {
			return false, err
		}
		if _, ok := p.readType(pColon); !ok {
			return false, p.fail("':' in conditional type")
		}
		if err := p.st.Enter(); err != nil {
			return false, err
		}
		okF, err := p.parseType()
		p.st.Leave()
		if err != nil {
			return false, err
		}
		if err := p.must(okF, "false branch of conditional type"); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (p *Parser) parseUnionType() (bool, error) {
	ok, err := p.parseIntersectionType()
	if err != nil || !ok {
		return ok, err
	}
	for {
		if _, ok := p.st.Read(kwOr); ok {
			p.emitType(substitute(typeOpSubstitutions, "or"))
			if err := p.st.Enter(); err != nil {
				return false, err
			}
			okR, err := p.parseIntersectionType()
			p.st.Leave()
			if err != nil {
				return false, err
			}
			if err := p.must(okR, "type after 'or'"); err != nil {
				return false, err
			}
			continue
		}
		break
	}
	return true, nil
}

func (p *Parser) parseIntersectionType() (bool, error) {
	ok, err := p.parsePostfixType()
	if err != nil || !ok {
		return ok, err
	}
	for {
		if _, ok := p.st.Read(kwAnd); ok {
			p.emitType(substitute(typeOpSubstitutions, "and"))
			if err := p.st.Enter(); err != nil {
				return false, err
			}
			okR, err := p.parsePostfixType()
			p.st.Leave()
			if err != nil {
				return false, err
			}
			if err := p.must(okR, "type after 'and'"); err != nil {
				return false, err
			}
			continue
		}
		break
	}
	return true, nil
}

// parsePostfixType handles trailing `[]` array / `[T]` index suffixes and
// the `is TYPE` type-predicate form.
func (p *Parser) parsePostfixType() (bool, error) {
	ok, err := p.parsePrimaryType()
	if err != nil || !ok {
		return ok, err
	}
	for {
		if p.peekAny(pLBracket) {
			snap := p.st.Snapshot()
			p.st.Read(pLBracket)
			if _, ok := p.st.Read(pRBracket); ok {
				p.emitType("[]")
				continue
			}
			p.st.Revert(snap)
			p.st.Read(pLBracket)
			p.emitType("[")
			if err := p.st.Enter(); err != nil {
				return false, err
			}
			okT, err := p.parseType()
			p.st.Leave()
			if err != nil {
				return false, err
			}
			if err := p.must(okT, "index type"); err != nil {
				return false, err
			}
			if _, ok := p.st.Read(pRBracket); !ok {
				return false, p.fail("']' to close index type")
			}
			p.emitType("]")
			continue
		}
		if _, ok := p.st.Read(kwIs); ok {
			p.emitType(" is ")
			if err := p.st.Enter(); err != nil {
				return false, err
			}
			okT, err := p.parseType()
			p.st.Leave()
			if err != nil {
				return false, err
			}
			if err := p.must(okT, "type after 'is'"); err != nil {
				return false, err
			}
			continue
		}
		break
	}
	return true, nil
}

func (p *Parser) parsePrimaryType() (bool, error) {
	switch {
	case p.peekAny(kwTypeof):
		p.readType(kwTypeof)
		exprSnap := p.st.Snapshot()
		if err := p.st.Enter(); err != nil {
			return false, err
		}
		okE, err := p.parseExpression(false)
		p.st.Leave()
		if err != nil {
			return false, err
		}
		if err := p.must(okE, "typeof operand"); err != nil {
			return false, err
		}
		if p.cfg.JS {
			p.st.RevertOutput(exprSnap)
		}
		return true, nil

	case p.peekAny(kwKeyof):
		p.readType(kwKeyof)
		if err := p.st.Enter(); err != nil {
			return false, err
		}
		okT, err := p.parseType()
		p.st.Leave()
		if err != nil {
			return false, err
		}
		return true, p.must(okT, "type after 'keyof'")

	case p.peekAny(pPipe):
		return p.parseFunctionType()

	case p.peekAny(pLParen):
		p.readType(pLParen)
		if err := p.st.Enter(); err != nil {
			return false, err
		}
		okT, err := p.parseType()
		p.st.Leave()
		if err != nil {
			return false, err
		}
		if err := p.must(okT, "type inside parentheses"); err != nil {
			return false, err
		}
		if _, ok := p.readType(pRParen); !ok {
			return false, p.fail("')' to close parenthesized type")
		}
		return true, nil

	case p.peekAny(pLBrace):
		return p.parseObjectType()

	case p.peekAny(pLBracket):
		return p.parseTupleType()

	case p.peekAny(pattern.String):
		s, _ := p.st.Read(pattern.String)
		p.emitType(s)
		return true, nil

	case p.peekAny(pattern.Number):
		n, _ := p.st.Read(pattern.Number)
		p.emitType(n)
		return true, nil
	}

	// "of"/"in" are never valid type names here: declining to match them
	// lets a shared caller like parseVarDecl's optional type annotation
	// (tried on every declaration, including a for-of/for-in head) leave
	// them for the loop keyword that actually owns that position.
	if p.peekAny(kwOf, kwIn) {
		return false, nil
	}
	name, ok := p.st.Read(pattern.Identifier)
	if !ok {
		return false, nil
	}
	p.emitType(name)
	if _, ok := p.st.Read(pDot); ok {
		for {
			p.emitType(".")
			sub, ok := p.st.Read(pattern.Identifier)
			if !ok {
				return false, p.fail("qualified type name segment")
			}
			p.emitType(sub)
			if _, ok := p.st.Read(pDot); !ok {
				break
			}
		}
	}
	if _, ok := p.st.Read(pLT); ok {
		p.emitType("<")
		first := true
		for {
			if p.peekAny(pGT) {
				break
			}
			if !first {
				if _, ok := p.st.Read(pComma); !ok {
					break
				}
				p.emitType(",")
			}
			first = false
			if err := p.st.Enter(); err != nil {
				return false, err
			}
			okT, err := p.parseType()
			p.st.Leave()
			if err != nil {
				return false, err
			}
			if err := p.must(okT, "type argument"); err != nil {
				return false, err
			}
		}
		if _, ok := p.st.Read(pGT); !ok {
			return false, p.fail("'>' to close type argument list")
		}
		p.emitType(">")
	}
	return true, nil
}

// parseFunctionType implements the `|PARAMS|: TYPE` function-type shape,
// rendering it as `(PARAMS)=>TYPE` per spec §6.2. Without the return-type
// colon the pipes are a function value, not a function type (an arrow
// initializer reaching here through parseVarDecl's annotation attempt), so
// that case backtracks cleanly instead of failing.
func (p *Parser) parseFunctionType() (bool, error) {
	fnSnap := p.st.Snapshot()
	p.st.Read(pPipe)
	p.emitType("(")
	first := true
	for {
		if p.peekAny(pPipe) {
			break
		}
		if !first {
			if _, ok := p.st.Read(pComma); !ok {
				break
			}
			p.emitType(",")
		}
		name, ok := p.st.Read(pattern.Identifier)
		if !ok {
			break
		}
		first = false
		p.emitType(name)
		if _, ok := p.readType(pColon); ok {
			if err := p.st.Enter(); err != nil {
				return false, err
			}
			okT, err := p.parseType()
			p.st.Leave()
			if err != nil {
				return false, err
			}
			if err := p.must(okT, "parameter type"); err != nil {
				return false, err
			}
		}
	}
	if _, ok := p.st.Read(pPipe); !ok {
		return false, p.fail("'|' to close function type parameter list")
	}
	p.emitType(")")
	if _, ok := p.st.Read(pColon); !ok {
		p.st.Revert(fnSnap)
		return false, nil
	}
	p.emitType("=>")
	if err := p.st.Enter(); err != nil {
		return false, err
	}
	okT, err := p.parseType()
	p.st.Leave()
	if err != nil {
		return false, err
	}
	return true, p.must(okT, "function type return type")
}

func (p *Parser) parseObjectType() (bool, error) {
	p.st.Read(pLBrace)
	p.emitType("{")
	for {
		var gotKey bool
		switch {
		case p.peekAny(pLBracket):
			p.st.Read(pLBracket)
			p.emitType("[")
			name, ok := p.st.Read(pattern.Identifier)
			if !ok {
				return false, p.fail("computed member name")
			}
			p.emitType(name)
			if _, ok := p.readType(pColon); ok {
				if err := p.st.Enter(); err != nil {
					return false, err
				}
				okT, err := p.parseType()
				p.st.Leave()
				if err != nil {
					return false, err
				}
				if err := p.must(okT, "index signature key type"); err != nil {
					return false, err
				}
			}
			if _, ok := p.st.Read(pRBracket); !ok {
				return false, p.fail("']'")
			}
			p.emitType("]")
			gotKey = true
		default:
			if name, ok := p.st.Read(pattern.Identifier); ok {
				p.emitType(name)
				gotKey = true
			} else if s, ok := p.st.Read(pattern.String); ok {
				p.emitType(s)
				gotKey = true
			} else if n, ok := p.st.Read(pattern.Number); ok {
				p.emitType(n)
				gotKey = true
			}
		}
		if !gotKey {
			break
		}
		if _, ok := p.st.Read(pQuestion); ok {
			p.emitType("?")
		}
		if _, ok := p.st.Read(pColon); !ok {
			return false, p.fail("':' in object type member")
		}
		p.emitType(":")
		if err := p.st.Enter(); err != nil {
			return false, err
		}
		okT, err := p.parseType()
		p.st.Leave()
		if err != nil {
			return false, err
		}
		if err := p.must(okT, "member type"); err != nil {
			return false, err
		}
		if _, ok := p.st.Read(pComma); ok {
			p.emitType(",")
			continue
		}
		if _, ok := p.st.Read(pSemicolon); ok {
			p.emitType(";")
			continue
		}
		if ok, err := p.peekNewline(); err != nil {
			return false, err
		} else if ok {
			if _, err := p.st.ReadNewline(); err != nil {
				return false, err
			}
			p.emitType(";")
			continue
		}
		break
	}
	if _, ok := p.st.Read(pRBrace); !ok {
		return false, p.fail("'}' to close object type")
	}
	p.emitType("}")
	return true, nil
}

func (p *Parser) parseTupleType() (bool, error) {
	p.st.Read(pLBracket)
	p.emitType("[")
	first := true
	for {
		if p.peekAny(pRBracket) {
			break
		}
		if !first {
			if _, ok := p.st.Read(pComma); !ok {
				break
			}
			p.emitType(",")
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
			if !first {
				return false, p.fail("type in tuple")
			}
			break
		}
		first = false
	}
	if _, ok := p.st.Read(pRBracket); !ok {
		return false, p.fail("']' to close tuple type")
	}
	p.emitType("]")
	return true, nil
}
