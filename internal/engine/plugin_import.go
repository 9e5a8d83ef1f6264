package engine

import (
	"fmt"
	"strings"

	"github.com/tabscript-lang/tabscript/internal/outbuf"
	"github.com/tabscript-lang/tabscript/internal/pattern"
	"github.com/tabscript-lang/tabscript/internal/plugin"
	"github.com/tabscript-lang/tabscript/internal/pstate"
	"github.com/tabscript-lang/tabscript/perror"
)

// mergedGlobalOptions merges the header line's recognized `name=value`
// feature flags (spec §6.1) into the caller-supplied GlobalOptions before
// handing it to a plugin entry point, per spec §6.1's "pushed into plugin
// options" and headerFlags' own documented intent. If no flags were seen,
// the caller's value passes through unchanged.
func (p *Parser) mergedGlobalOptions() any {
	if len(p.headerFlags) == 0 {
		return p.cfg.GlobalOptions
	}
	merged := make(map[string]any, len(p.headerFlags)+1)
	switch v := p.cfg.GlobalOptions.(type) {
	case nil:
		// nothing to merge in
	case map[string]any:
		for k, val := range v {
			merged[k] = val
		}
	default:
		merged["globalOptions"] = v
	}
	for k, v := range p.headerFlags {
		merged[k] = v
	}
	return merged
}

// elemsText concatenates every Text element's literal content, ignoring
// position marks — used to recover the rendered source of a speculatively
// parsed, then reverted, literal (spec §4.G).
func elemsText(elems []outbuf.Elem) string {
	var b strings.Builder
	for _, e := range elems {
		if e.Kind == outbuf.Text {
			b.WriteString(e.Text)
		}
	}
	return b.String()
}

// parsePluginImport implements spec §4.G's `import plugin STRING { ... }`
// form. importSnap is the snapshot taken right before `import` was
// consumed by parseImport; the whole statement's output is reverted here
// since a plugin import never emits a runtime import.
func (p *Parser) parsePluginImport(importSnap pstate.Snapshot) (bool, error) {
	if _, ok := p.st.Read(kwPlugin); !ok {
		return false, nil
	}
	path, ok := p.st.Read(pattern.String)
	if !ok {
		return false, p.fail("plugin import path string")
	}

	var pluginOptions map[string]any
	if p.peekAny(pLBrace) {
		litSnap := p.st.Snapshot()
		ok, err := p.parseObjectLiteral()
		if err != nil {
			return false, err
		}
		if err := p.must(ok, "plugin options object literal"); err != nil {
			return false, err
		}
		elems := p.st.RevertOutput(litSnap)
		rendered := elemsText(elems)
		val, err := plugin.EvalLiteral(rendered)
		if err != nil {
			return false, p.fail(fmt.Sprintf("plugin options literal: %v", err))
		}
		m, ok := val.(map[string]any)
		if !ok {
			return false, p.fail("plugin options literal must be an object")
		}
		pluginOptions = m
	}

	p.st.RevertOutput(importSnap)

	if p.cfg.LoadPlugin == nil {
		return false, p.failCode(perror.CodePlugin, "plugin loader not configured")
	}
	unquoted, err := unquoteString(path)
	if err != nil {
		return false, p.fail("plugin import path: " + err.Error())
	}
	entry, err := p.cfg.LoadPlugin(unquoted)
	if err != nil {
		return false, p.failCode(perror.CodePlugin, fmt.Sprintf("loading plugin %q: %v", unquoted, err))
	}
	if err := entry(p.table, p.mergedGlobalOptions(), pluginOptions); err != nil {
		return false, p.failCode(perror.CodePlugin, fmt.Sprintf("plugin %q: %v", unquoted, err))
	}
	return true, nil
}

// unquoteString strips the surrounding quote characters and unescapes a
// STRING-pattern literal the way the renderer/scanner treat it elsewhere
// (backslash-escape passthrough).
func unquoteString(quoted string) (string, error) {
	if len(quoted) < 2 {
		return "", fmt.Errorf("malformed string literal %q", quoted)
	}
	inner := quoted[1 : len(quoted)-1]
	out := make([]byte, 0, len(inner))
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
			switch inner[i] {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			default:
				out = append(out, inner[i])
			}
			continue
		}
		out = append(out, inner[i])
	}
	return string(out), nil
}
