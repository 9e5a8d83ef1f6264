package engine

import (
	"github.com/tabscript-lang/tabscript/internal/pattern"
	"github.com/tabscript-lang/tabscript/internal/pstate"
)

// paramInfo records one parsed parameter's constructor-property modifier
// (if any) and name, so classes.go can synthesize `this.X=X;` assignments
// for constructor parameter properties (spec §4.E.13).
type paramInfo struct {
	Modifier string
	Name     string
}

// parseFunction implements spec §4.E.7. declaration controls whether a
// body-less signature (an overload) is accepted; when accepted, every
// token emitted for the signature is discarded (the whole statement
// produces no output).
func (p *Parser) parseFunction(declaration bool) (bool, error) {
	fnSnap := p.st.Snapshot()

	isAsync := false
	if _, ok := p.st.Read(kwAsync); ok {
		isAsync = true
	}

	if _, ok := p.st.Read(kwFunction); ok {
		ok, err := p.parseClassicFunction(isAsync, declaration, fnSnap)
		if err != nil || ok {
			return ok, err
		}
		p.st.Revert(fnSnap)
		return false, nil
	}

	if p.peekAny(pPipe) {
		ok, err := p.parseArrowFunction(isAsync, declaration, fnSnap)
		if err != nil || ok {
			return ok, err
		}
	}

	p.st.Revert(fnSnap)
	return false, nil
}

func (p *Parser) parseClassicFunction(isAsync, declaration bool, fnSnap pstate.Snapshot) (bool, error) {
	generator := false
	if _, ok := p.st.Read(pStar); ok {
		generator = true
	}
	name, _ := p.st.Read(pattern.Identifier)

	if err := p.parseOptionalTemplateParams(); err != nil {
		return false, err
	}

	prefix := ""
	if isAsync {
		prefix += "async "
	}
	prefix += "function"
	if generator {
		prefix += "*"
	}
	if name != "" {
		prefix += " " + name
	}
	p.st.Emit(prefix)

	if _, ok := p.st.Read(pPipe); !ok {
		return false, p.fail("'|' to open parameter list")
	}
	p.st.Emit("(")
	if _, err := p.parseParams(); err != nil {
		return false, err
	}
	if _, ok := p.st.Read(pPipe); !ok {
		return false, p.fail("'|' to close parameter list")
	}
	p.st.Emit(")")

	if err := p.parseOptionalReturnType(); err != nil {
		return false, err
	}

	return p.parseFunctionBody(declaration, false, fnSnap)
}

func (p *Parser) parseArrowFunction(isAsync, declaration bool, fnSnap pstate.Snapshot) (bool, error) {
	if _, ok := p.st.Read(pPipe); !ok {
		return false, nil
	}
	prefix := ""
	if isAsync {
		prefix = "async "
	}
	p.st.Emit(prefix + "(")
	if _, err := p.parseParams(); err != nil {
		return false, err
	}
	if _, ok := p.st.Read(pPipe); !ok {
		return false, p.fail("'|' to close parameter list")
	}
	p.st.Emit(")")

	if err := p.parseOptionalReturnType(); err != nil {
		return false, err
	}
	p.st.Emit(" => ")

	return p.parseFunctionBody(declaration, true, fnSnap)
}

// parseOptionalReturnType parses `: TYPE`, with an optional leading
// `asserts` predicate keyword, entirely type-level (spec §4.E.7).
func (p *Parser) parseOptionalReturnType() error {
	if _, ok := p.readType(pColon); !ok {
		return nil
	}
	p.readType(kwAsserts)
	if err := p.st.Enter(); err != nil {
		return err
	}
	ok, err := p.parseType()
	p.st.Leave()
	if err != nil {
		return err
	}
	return p.must(ok, "return type")
}

// parseParams parses a comma-separated parameter list up to (but not
// including) the closing `|`.
func (p *Parser) parseParams() ([]paramInfo, error) {
	var params []paramInfo
	first := true
	for {
		if p.peekAny(pPipe) {
			break
		}
		if !first {
			if _, ok := p.st.Read(pComma); !ok {
				break
			}
			p.st.Emit(",")
		}

		mod := ""
		if w, ok := p.st.Read(kwPublic, kwPrivate, kwProtected, kwReadonly); ok {
			mod = w
		}
		if _, ok := p.st.Read(pDotDotDot); ok {
			p.st.Emit("...")
		}
		name, ok := p.st.Read(pattern.Identifier)
		if !ok {
			if !first {
				return nil, p.fail("parameter name")
			}
			break
		}
		first = false
		p.st.Emit(name)

		if _, ok := p.st.Read(pQuestion); ok {
			p.emitType("?")
		}
		if _, ok := p.readType(pColon); ok {
			if err := p.st.Enter(); err != nil {
				return nil, err
			}
			_, err := p.parseType()
			p.st.Leave()
			if err != nil {
				return nil, err
			}
		}
		if _, ok := p.st.Read(pAssign); ok {
			p.st.Emit("=")
			if err := p.st.Enter(); err != nil {
				return nil, err
			}
			okE, err := p.parseExpression(false)
			p.st.Leave()
			if err != nil {
				return nil, err
			}
			if err := p.must(okE, "default parameter value"); err != nil {
				return nil, err
			}
		}
		params = append(params, paramInfo{Modifier: mod, Name: name})
	}
	return params, nil
}

// peekNewline reports whether readNewline would succeed here, without
// consuming it.
func (p *Parser) peekNewline() (bool, error) {
	snap := p.st.Snapshot()
	ok, err := p.st.ReadNewline()
	p.st.Revert(snap)
	return ok, err
}

// parseFunctionBody implements the three body shapes of spec §4.E.7: an
// indented block, a same-line expression (arrows emit it bare unless it's
// an object literal, which needs parens; classic functions wrap it as
// `{return ...}`), or — only in declaration context — no body at all, in
// which case the whole signature's output is discarded via fnSnap.
func (p *Parser) parseFunctionBody(declaration, isArrow bool, fnSnap pstate.Snapshot) (bool, error) {
	okBlock, err := p.parseGroup(GroupOptions{
		AllowImplicit: true,
		JSOpen:        "{", JSClose: "}",
		EndNext: true,
	}, p.parseBlockStatement)
	if err != nil {
		return false, err
	}
	if okBlock {
		return true, nil
	}

	if noBody, err := p.peekNewline(); err != nil {
		return false, err
	} else if noBody || p.st.Scan.AtEOF() {
		if !declaration {
			return false, p.fail("function body")
		}
		p.st.RevertOutput(fnSnap)
		return true, nil
	}

	if isArrow {
		if p.peekAny(pLBrace) {
			p.st.Emit("(")
			if err := p.st.Enter(); err != nil {
				return false, err
			}
			okE, err := p.parseExpression(false)
			p.st.Leave()
			if err != nil {
				return false, err
			}
			if err := p.must(okE, "arrow body expression"); err != nil {
				return false, err
			}
			p.st.Emit(")")
			return true, nil
		}
		if err := p.st.Enter(); err != nil {
			return false, err
		}
		okE, err := p.parseExpression(false)
		p.st.Leave()
		if err != nil {
			return false, err
		}
		if err := p.must(okE, "arrow body expression"); err != nil {
			return false, err
		}
		return true, nil
	}

	p.st.Emit("{return ")
	if err := p.st.Enter(); err != nil {
		return false, err
	}
	okE, err := p.parseExpression(false)
	p.st.Leave()
	if err != nil {
		return false, err
	}
	if err := p.must(okE, "function body expression"); err != nil {
		return false, err
	}
	p.st.Emit(";}")
	return true, nil
}
