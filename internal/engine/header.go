package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tabscript-lang/tabscript/internal/pattern"
	"github.com/tabscript-lang/tabscript/perror"
)

// verPattern matches the `X.Y` version number in the header line.
var verPattern = pattern.New(`\d+\.\d+`, "version number")

// parseHeader implements spec §6.1's header line: `tabscript X.Y` followed
// by optional `name=value` feature flags, then a newline. A version
// mismatch is non-recoverable and aborts the parse (spec §4.E.2 step 2).
func (p *Parser) parseHeader() error {
	if _, ok := p.st.Read(kwTabscript); !ok {
		return p.fail("'tabscript' header")
	}
	ver, ok := p.st.Read(verPattern)
	if !ok {
		return p.fail("header version number (X.Y)")
	}
	major, minor, err := splitVersion(ver)
	if err != nil {
		return p.fail("header version number (X.Y)")
	}
	if major != SupportedMajor || minor > SupportedMinor {
		p.fatal = perror.New(
			perror.CodeHeaderVersion,
			p.st.Scan.Position(),
			fmt.Sprintf("unsupported tabscript header version %s (supported: %d.0 through %d.%d)",
				ver, SupportedMajor, SupportedMajor, SupportedMinor),
			nil, "",
		)
		return nil
	}

	for {
		snap := p.st.Snapshot()
		name, ok := p.st.Read(pattern.Identifier)
		if !ok {
			break
		}
		if _, ok := p.st.Read(pAssign); !ok {
			p.st.Revert(snap)
			break
		}
		value, ok := p.st.Read(pattern.Identifier, pattern.Number)
		if !ok {
			return p.fail("header flag value")
		}
		if !isKnownHeaderFlag(name) {
			return p.failCode(perror.CodeUnknownFlag, fmt.Sprintf("known header flag (got %q)", name))
		}
		p.headerFlags[name] = value
	}

	if ok, err := p.st.ReadNewline(); err != nil {
		return err
	} else if !ok {
		return p.fail("newline after header")
	}
	// The header's own reads leave a pending output target behind; drop it
	// so the first statement maps to its own start, not the header line.
	p.st.ClearTarget()
	return nil
}

// isKnownHeaderFlag is the closed set of header feature flags this engine
// recognizes; anything else is rejected per spec §6.1.
func isKnownHeaderFlag(name string) bool {
	switch name {
	case "strict", "jsx":
		return true
	default:
		return false
	}
}

func splitVersion(s string) (major, minor int, err error) {
	parts := strings.SplitN(s, ".", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed version %q", s)
	}
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return major, minor, nil
}
