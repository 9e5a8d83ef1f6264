package engine

import (
	"github.com/tabscript-lang/tabscript/internal/pattern"
)

// parseStatement dispatches to the first matching statement form (spec
// §4.E.3), then applies the uniform post-statement rule: append `;` if any
// text was emitted, otherwise clear the pending output target so a
// type-only statement in JS mode doesn't drag the next statement's map
// marker backward.
func (p *Parser) parseStatement() (bool, error) {
	snap := p.st.Snapshot()

	ok, err := p.dispatchStatement()
	if err != nil || !ok {
		return ok, err
	}

	if p.st.HasOutput(snap) {
		if !p.st.EndsWith(";") && !p.st.EndsWith("}") {
			p.st.Emit(";")
		}
	} else {
		p.st.ClearTarget()
	}
	return true, nil
}

func (p *Parser) dispatchStatement() (bool, error) {
	switch {
	case p.peekAny(kwReturn, kwYield):
		return p.parseReturn()
	case p.peekAny(kwThrow):
		return p.parseThrow()
	case p.peekAny(kwType):
		return p.parseTypeDecl()
	case p.peekAny(kwExport):
		return p.parseExport()
	case p.peekAny(kwImport):
		return p.parseImport()
	case p.peekAny(kwDo):
		return p.parseDoWhile()
	case p.peekAny(kwIf, kwWhile):
		return p.parseIfWhile(true)
	case p.peekAny(kwFor):
		return p.parseFor()
	case p.peekAny(kwTry):
		return p.parseTry()
	case p.peekAny(kwFunction, kwAsync, pPipe):
		return p.parseFunction(true)
	case p.peekAny(kwClass, kwInterface, kwAbstract):
		return p.parseClass()
	case p.peekAny(kwSwitch):
		return p.parseSwitch()
	case p.peekAny(kwEnum):
		return p.parseEnum()
	case p.peekAny(kwDeclare):
		return p.parseDeclare()
	}

	if ok, err := p.parseVarDecl(true); err != nil || ok {
		return ok, err
	}
	return p.parseExpressionSeq()
}

// peekAny reports whether any of the given matchers would match at the
// current position, without consuming anything.
func (p *Parser) peekAny(matchers ...pattern.Matcher) bool {
	_, ok := p.st.Peek(matchers...)
	return ok
}

func (p *Parser) parseReturn() (bool, error) {
	word, ok := p.st.Read(kwReturn, kwYield)
	if !ok {
		return false, nil
	}
	p.st.Emit(word)
	if err := p.st.Enter(); err != nil {
		return false, err
	}
	_, err := p.parseExpression(false)
	p.st.Leave()
	return true, err
}

func (p *Parser) parseThrow() (bool, error) {
	if _, ok := p.st.Read(kwThrow); !ok {
		return false, nil
	}
	p.st.Emit("throw")
	if err := p.st.Enter(); err != nil {
		return false, err
	}
	ok, err := p.parseExpression(false)
	p.st.Leave()
	if err != nil {
		return false, err
	}
	if err := p.must(ok, "expression after 'throw'"); err != nil {
		return false, err
	}
	return true, nil
}

// parseTypeDecl parses `type IDENT <...>? = TYPE` (spec §4.E.3): purely
// type-level, so every token is routed through emitType/readType and
// produces no output at all in JS mode.
func (p *Parser) parseTypeDecl() (bool, error) {
	if _, ok := p.st.Read(kwType); !ok {
		return false, nil
	}
	p.emitType("type")
	name, ok := p.readType(pattern.Identifier)
	if !ok {
		return false, p.fail("type name")
	}
	_ = name
	if err := p.parseOptionalTemplateParams(); err != nil {
		return false, err
	}
	if _, ok := p.readType(pAssign); !ok {
		return false, p.fail("'=' in type declaration")
	}
	if err := p.st.Enter(); err != nil {
		return false, err
	}
	ok, err := p.parseType()
	p.st.Leave()
	if err != nil {
		return false, err
	}
	if err := p.must(ok, "type after '='"); err != nil {
		return false, err
	}
	return true, nil
}

// parseOptionalTemplateParams parses an optional `<T, U extends X>` list,
// entirely type-level (spec §4.E.7/§4.E.12/§4.E.13 all share this shape).
func (p *Parser) parseOptionalTemplateParams() error {
	if _, ok := p.readType(pLT); !ok {
		return nil
	}
	for {
		name, ok := p.readType(pattern.Identifier)
		if !ok {
			return p.fail("template parameter name")
		}
		_ = name
		if _, ok := p.readType(kwExtends); ok {
			if err := p.st.Enter(); err != nil {
				return err
			}
			okT, err := p.parseType()
			p.st.Leave()
			if err != nil {
				return err
			}
			if err := p.must(okT, "constraint type"); err != nil {
				return err
			}
		}
		if _, ok := p.readType(pAssign); ok {
			if err := p.st.Enter(); err != nil {
				return err
			}
			okT, err := p.parseType()
			p.st.Leave()
			if err != nil {
				return err
			}
			if err := p.must(okT, "default type"); err != nil {
				return err
			}
		}
		if _, ok := p.readType(pComma); ok {
			continue
		}
		break
	}
	if _, ok := p.readType(pGT); !ok {
		return p.fail("'>' to close template parameter list")
	}
	return nil
}

func (p *Parser) parseExport() (bool, error) {
	if _, ok := p.st.Read(kwExport); !ok {
		return false, nil
	}
	kwSnap := p.st.Snapshot()
	p.st.Emit("export")
	if p.peekAny(kwDefault) {
		word, _ := p.st.Read(kwDefault)
		p.st.Emit(word)
	}
	bodySnap := p.st.Snapshot()
	ok, err := p.dispatchStatement()
	if err != nil {
		return false, err
	}
	if err := p.must(ok, "declaration after 'export'"); err != nil {
		return false, err
	}
	// An exported type-level declaration emits nothing in JS mode; drop the
	// dangling `export` keyword along with it.
	if !p.st.HasOutput(bodySnap) {
		p.st.RevertOutput(kwSnap)
	}
	return true, nil
}

// parseImport handles both the ordinary `import ... "path"` runtime form
// and the `import plugin "path" { ... }` plugin form (spec §4.G), which is
// fully handled by parsePluginImport before any runtime text is emitted.
func (p *Parser) parseImport() (bool, error) {
	snap := p.st.Snapshot()
	if _, ok := p.st.Read(kwImport); !ok {
		return false, nil
	}
	if p.peekAny(kwPlugin) {
		return p.parsePluginImport(snap)
	}
	p.st.Emit("import")

	// import IDENT "path"  |  import { NAME (, NAME)* } "path"  |  import * as IDENT "path"
	switch {
	case p.peekAny(pLBrace):
		if _, ok := p.st.Read(pLBrace); !ok {
			return false, p.fail("'{'")
		}
		p.st.Emit("{")
		for {
			name, ok := p.st.Read(pattern.Identifier)
			if !ok {
				break
			}
			p.st.Emit(name)
			if _, ok := p.st.Read(kwAs); ok {
				p.st.Emit(" as ")
				alias, ok := p.st.Read(pattern.Identifier)
				if !ok {
					return false, p.fail("alias identifier after 'as'")
				}
				p.st.Emit(alias)
			}
			if _, ok := p.st.Read(pComma); ok {
				p.st.Emit(",")
				continue
			}
			break
		}
		if _, ok := p.st.Read(pRBrace); !ok {
			return false, p.fail("'}'")
		}
		p.st.Emit("}")
	case p.peekAny(pStar):
		p.st.Read(pStar)
		p.st.Emit("*")
		if _, ok := p.st.Read(kwAs); !ok {
			return false, p.fail("'as' after 'import *'")
		}
		p.st.Emit(" as ")
		name, ok := p.st.Read(pattern.Identifier)
		if !ok {
			return false, p.fail("namespace identifier")
		}
		p.st.Emit(name)
	default:
		name, ok := p.st.Read(pattern.Identifier)
		if !ok {
			return false, p.fail("import binding")
		}
		p.st.Emit(name)
	}

	p.st.Read(kwFrom)
	p.st.Emit(" from ")
	path, ok := p.st.Read(pattern.String)
	if !ok {
		return false, p.fail("import path string")
	}
	p.st.Emit(p.transformImportLiteral(path))
	return true, nil
}

// transformImportLiteral applies the configured transformImport option to
// a quoted string-literal import path (spec §6.3).
func (p *Parser) transformImportLiteral(quoted string) string {
	if p.cfg.TransformImport == nil || len(quoted) < 2 {
		return quoted
	}
	quote := quoted[0]
	inner := quoted[1 : len(quoted)-1]
	return string(quote) + p.cfg.TransformImport(inner) + string(quote)
}

func (p *Parser) parseDoWhile() (bool, error) {
	if _, ok := p.st.Read(kwDo); !ok {
		return false, nil
	}
	p.st.Emit("do")
	if err := p.st.Enter(); err != nil {
		return false, err
	}
	_, err := p.parseBlock()
	p.st.Leave()
	if err != nil {
		return false, err
	}
	if _, ok := p.st.Read(kwWhile); !ok {
		return false, p.fail("'while' after do-block")
	}
	p.st.Emit("while(")
	if err := p.st.Enter(); err != nil {
		return false, err
	}
	ok, err := p.parseExpression(false)
	p.st.Leave()
	if err != nil {
		return false, err
	}
	if err := p.must(ok, "condition expression"); err != nil {
		return false, err
	}
	p.st.Emit(")")
	return true, nil
}

// parseIfWhile implements `if`/`while EXPR BODY` with an optional `else`
// for `if` (spec §4.E.3).
func (p *Parser) parseIfWhile(allowElse bool) (bool, error) {
	word, ok := p.st.Read(kwIf, kwWhile)
	if !ok {
		return false, nil
	}
	p.st.Emit(word + " (")
	if err := p.st.Enter(); err != nil {
		return false, err
	}
	okE, err := p.parseExpression(false)
	p.st.Leave()
	if err != nil {
		return false, err
	}
	if err := p.must(okE, "condition expression"); err != nil {
		return false, err
	}
	p.st.Emit(")")
	if err := p.st.Enter(); err != nil {
		return false, err
	}
	_, err = p.parseBlockOrStatement()
	p.st.Leave()
	if err != nil {
		return false, err
	}
	if allowElse && word == "if" {
		if _, ok := p.st.Read(kwElse); ok {
			p.st.Emit("else")
			if p.peekAny(kwIf) {
				if err := p.st.Enter(); err != nil {
					return false, err
				}
				_, err := p.parseIfWhile(true)
				p.st.Leave()
				if err != nil {
					return false, err
				}
			} else {
				if err := p.st.Enter(); err != nil {
					return false, err
				}
				_, err := p.parseBlockOrStatement()
				p.st.Leave()
				if err != nil {
					return false, err
				}
			}
		}
	}
	return true, nil
}

func (p *Parser) parseTry() (bool, error) {
	if _, ok := p.st.Read(kwTry); !ok {
		return false, nil
	}
	p.st.Emit("try")
	if err := p.st.Enter(); err != nil {
		return false, err
	}
	_, err := p.parseBlock()
	p.st.Leave()
	if err != nil {
		return false, err
	}

	haveCatch := false
	if _, ok := p.st.Read(kwCatch); ok {
		haveCatch = true
		p.st.Emit("catch")
		// The binding has no source parentheses (`catch e: Error`); the
		// emitted form parenthesizes it.
		if name, ok := p.st.Read(pattern.Identifier); ok {
			p.st.Emit("(")
			p.st.Emit(name)
			if _, ok := p.st.Read(pColon); ok {
				p.emitType(":")
				if err := p.st.Enter(); err != nil {
					return false, err
				}
				okT, err := p.parseType()
				p.st.Leave()
				if err != nil {
					return false, err
				}
				if err := p.must(okT, "catch binding type"); err != nil {
					return false, err
				}
			}
			p.st.Emit(")")
		}
		if err := p.st.Enter(); err != nil {
			return false, err
		}
		_, err := p.parseBlock()
		p.st.Leave()
		if err != nil {
			return false, err
		}
	}

	haveFinally := false
	if _, ok := p.st.Read(kwFinally); ok {
		haveFinally = true
		p.st.Emit("finally")
		if err := p.st.Enter(); err != nil {
			return false, err
		}
		_, err := p.parseBlock()
		p.st.Leave()
		if err != nil {
			return false, err
		}
	}

	if !haveCatch && !haveFinally {
		p.st.Emit("catch(e){}")
	}
	return true, nil
}

// parseEnum parses `enum IDENT` plus a member group. The construct is
// TypeScript syntax with no JavaScript equivalent the parser could emit
// without evaluating member values, so JS mode discards the whole
// construct's output (see DESIGN.md's Open Question decisions).
func (p *Parser) parseEnum() (bool, error) {
	enumSnap := p.st.Snapshot()
	if _, ok := p.st.Read(kwEnum); !ok {
		return false, nil
	}
	p.st.Emit("enum")
	name, ok := p.st.Read(pattern.Identifier)
	if !ok {
		return false, p.fail("enum name")
	}
	p.st.Emit(name)
	ok, err := p.parseGroup(GroupOptions{
		Open: "{", Close: "}", JSOpen: "{", JSClose: "}",
		Next: ",", JSNext: ",", AllowImplicit: true, EndNext: false,
	}, p.parseEnumMember)
	if err != nil {
		return false, err
	}
	if err := p.must(ok, "enum member group"); err != nil {
		return false, err
	}
	if p.cfg.JS {
		p.st.RevertOutput(enumSnap)
	}
	return true, nil
}

func (p *Parser) parseEnumMember() (bool, error) {
	name, ok := p.st.Read(pattern.Identifier)
	if !ok {
		return false, nil
	}
	p.st.Emit(name)
	if _, ok := p.st.Read(pAssign); ok {
		p.st.Emit("=")
		if err := p.st.Enter(); err != nil {
			return false, err
		}
		okE, err := p.parseExpression(false)
		p.st.Leave()
		if err != nil {
			return false, err
		}
		if err := p.must(okE, "enum member initializer"); err != nil {
			return false, err
		}
	}
	return true, nil
}

// parseDeclare parses `declare STATEMENT`, fully stripped in every output
// mode: the declared statement's shape is still validated by recursing into
// dispatchStatement, but its speculative output is discarded via
// RevertOutput (spec §4.E.3: "declare — fully stripped").
func (p *Parser) parseDeclare() (bool, error) {
	if _, ok := p.st.Read(kwDeclare); !ok {
		return false, nil
	}
	snap := p.st.Snapshot()
	ok, err := p.dispatchStatement()
	if err != nil {
		return false, err
	}
	if err := p.must(ok, "declaration after 'declare'"); err != nil {
		return false, err
	}
	p.st.RevertOutput(snap)
	return true, nil
}

// parseVarDecl implements spec §4.E.4: `IDENT ":"` marks a declaration; a
// second `":"` means `let`, otherwise `const`. An optional type annotation
// follows (type-level only); when allowInit, `=` introduces an initializer.
func (p *Parser) parseVarDecl(allowInit bool) (bool, error) {
	snap := p.st.Snapshot()
	name, ok := p.st.Read(pattern.Identifier)
	if !ok {
		return false, nil
	}
	if _, ok := p.st.Read(pColon); !ok {
		p.st.Revert(snap)
		return false, nil
	}

	kind := "const"
	if _, ok := p.st.Read(pColon); ok {
		kind = "let"
	}
	p.st.Emit(kind + " " + name)

	// An optional type annotation follows directly — it shares the
	// declaration colon(s) already consumed above rather than needing one
	// of its own (spec §4.E.4, §8.3 scenario S1: "x : number = 3" has
	// exactly one colon total). The annotation colon is re-emitted at type
	// level ahead of the attempt and backed out if no type follows (e.g.
	// "x := 3"'s immediate '=', or a for-of head's "of").
	typeSnap := p.st.Snapshot()
	p.emitType(":")
	if err := p.st.Enter(); err != nil {
		return false, err
	}
	okT, errT := p.parseType()
	p.st.Leave()
	if errT != nil {
		return false, errT
	}
	if !okT {
		p.st.Revert(typeSnap)
	}

	if allowInit {
		if _, ok := p.st.Read(pAssign); ok {
			p.st.Emit(" = ")
			if err := p.st.Enter(); err != nil {
				return false, err
			}
			okE, err := p.parseExpression(false)
			p.st.Leave()
			if err != nil {
				return false, err
			}
			if err := p.must(okE, "initializer expression"); err != nil {
				return false, err
			}
		}
	}
	return true, nil
}

// parseExpressionSeq is the statement fallback (spec §4.E.3): a bare
// expression statement.
func (p *Parser) parseExpressionSeq() (bool, error) {
	if err := p.st.Enter(); err != nil {
		return false, err
	}
	ok, err := p.parseExpression(false)
	p.st.Leave()
	return ok, err
}

// parseFor implements spec §4.E.5: for-of/for-in tried first (with
// snapshot rewind on failure), falling back to the C-style three-clause
// form. The head is always parenthesized in the output.
func (p *Parser) parseFor() (bool, error) {
	if _, ok := p.st.Read(kwFor); !ok {
		return false, nil
	}
	snap := p.st.Snapshot()
	p.st.Emit("for (")

	if ok, err := p.tryParseForOfIn(); err != nil {
		return false, err
	} else if ok {
		p.st.Emit(")")
		if err := p.st.Enter(); err != nil {
			return false, err
		}
		_, err := p.parseBlockOrStatement()
		p.st.Leave()
		return err == nil, err
	}
	p.st.Revert(snap)
	p.st.Emit("for (")

	if ok, err := p.parseVarDecl(true); err != nil {
		return false, err
	} else if !ok {
		if err := p.st.Enter(); err != nil {
			return false, err
		}
		_, err := p.parseExpression(false)
		p.st.Leave()
		if err != nil {
			return false, err
		}
	}
	if _, ok := p.st.Read(pSemicolon); !ok {
		return false, p.fail("';' in for-loop head")
	}
	p.st.Emit(";")
	if err := p.st.Enter(); err != nil {
		return false, err
	}
	if _, err := p.parseExpression(false); err != nil {
		p.st.Leave()
		return false, err
	}
	p.st.Leave()
	if _, ok := p.st.Read(pSemicolon); !ok {
		return false, p.fail("second ';' in for-loop head")
	}
	p.st.Emit(";")
	if err := p.st.Enter(); err != nil {
		return false, err
	}
	if _, err := p.parseExpression(false); err != nil {
		p.st.Leave()
		return false, err
	}
	p.st.Leave()
	p.st.Emit(")")

	if err := p.st.Enter(); err != nil {
		return false, err
	}
	_, err := p.parseBlockOrStatement()
	p.st.Leave()
	return err == nil, err
}

func (p *Parser) tryParseForOfIn() (bool, error) {
	if ok, err := p.parseVarDecl(false); err != nil {
		return false, err
	} else if !ok {
		// No declaration colon: this identifier names an existing binding
		// the loop writes into, not a new one (spec §4.E.5's VARDECL|IDENT
		// alternative, spec §1's no-semantic-analysis non-goal) — emit it
		// bare rather than synthesizing a shadowing `let`.
		name, ok := p.st.Read(pattern.Identifier)
		if !ok {
			return false, nil
		}
		p.st.Emit(name)
	}
	word, ok := p.st.Read(kwOf, kwIn)
	if !ok {
		return false, nil
	}
	p.st.Emit(" " + word + " ")
	if err := p.st.Enter(); err != nil {
		return false, err
	}
	okE, err := p.parseExpression(false)
	p.st.Leave()
	if err != nil {
		return false, err
	}
	if !okE {
		return false, nil
	}
	return true, nil
}

func (p *Parser) parseSwitch() (bool, error) {
	if _, ok := p.st.Read(kwSwitch); !ok {
		return false, nil
	}
	p.st.Emit("switch (")
	if err := p.st.Enter(); err != nil {
		return false, err
	}
	okE, err := p.parseExpression(false)
	p.st.Leave()
	if err != nil {
		return false, err
	}
	if err := p.must(okE, "switch discriminant expression"); err != nil {
		return false, err
	}
	p.st.Emit(")")
	_, err = p.parseGroup(GroupOptions{
		AllowImplicit: true,
		JSOpen:        "{", JSClose: "}",
		EndNext: true,
	}, p.parseSwitchCase)
	return err == nil, err
}

// peekCaseExpression emits the literal "case" keyword ahead of a case
// expression's own tokens, then attempts the expression itself (spec
// §4.E.6: "EXPR (optional :) -> emit `case EXPR: {`").
func (p *Parser) peekCaseExpression() (bool, error) {
	p.st.Emit("case")
	return p.parseExpression(false)
}

func (p *Parser) parseSwitchCase() (bool, error) {
	caseSnap := p.st.Snapshot()
	// Reposition the renderer onto the case's own line before the
	// synthesized `case` keyword, which carries no source mark of its own.
	p.st.EmitNoMapMark(p.st.Scan.Pos())
	if _, ok := p.st.Read(pStar); ok {
		p.st.Emit("default:{")
	} else {
		if err := p.st.Enter(); err != nil {
			return false, err
		}
		okE, err := p.peekCaseExpression()
		p.st.Leave()
		if err != nil {
			return false, err
		}
		if !okE {
			p.st.Revert(caseSnap)
			return false, nil
		}
		p.st.Read(pColon)
		p.st.Emit(":{")
	}
	if err := p.st.Enter(); err != nil {
		return false, err
	}
	okBody, err := p.parseGroup(GroupOptions{
		AllowImplicit: true, EndNext: true,
	}, p.parseBlockStatement)
	p.st.Leave()
	if err != nil {
		return false, err
	}
	if !okBody {
		// No indented group: the case body is exactly one statement on the
		// same line (spec §4.E.6).
		if err := p.st.Enter(); err != nil {
			return false, err
		}
		okS, errS := p.recoverErrors(func() (bool, error) { return p.call("parseStatement") })
		p.st.Leave()
		if errS != nil {
			return false, errS
		}
		if err := p.must(okS, "case body statement"); err != nil {
			return false, err
		}
	}
	p.st.Emit("break;}")
	return true, nil
}
