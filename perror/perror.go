// Package perror implements the error model (spec §4.H / §7): ParseError
// values carrying offset/line/column, a message built from the current
// expected-set, and an optional recovery-skip slice, plus a colorized
// formatter.
//
// Grounded on the teacher's errors/codes.go + errors/format.go, trimmed to
// the parse-only E1xxx band (spec.md's parser performs no semantic analysis,
// so the teacher's E2xxx/E3xxx compile/runtime codes have no referent here),
// with github.com/fatih/color replacing the teacher's own unfetchable
// deepnoodle-ai/wonton/color dependency (see DESIGN.md).
package perror

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"

	"github.com/tabscript-lang/tabscript/internal/token"
)

// Code identifies a category of parse-time error, in the same E1xxx band
// the teacher's ErrorCode enum reserves for parse errors.
type Code string

const (
	CodeSyntax        Code = "E1001" // generic "could not parse X"
	CodeUnterminated   Code = "E1002" // unterminated string/backtick/comment
	CodeHeaderVersion  Code = "E1003" // unsupported/mismatched `tabscript X.Y` header
	CodeIndentation    Code = "E1004" // space used for indentation
	CodeUnknownFlag    Code = "E1005" // unrecognized header feature flag
	CodePlugin         Code = "E1006" // plugin load/execution failure
	CodeMaxDepth       Code = "E1009" // maximum nesting depth exceeded
)

// Error is a single parse error (spec.md §3.1's Parse Error entity).
type Error struct {
	Code       Code
	Position   token.Position
	Message    string
	Expected   []string // sorted "expecting one of" set, may be empty
	Window     string   // short slice of upcoming input
	RecoverSkip string  // set by recovery once the bad statement is skipped
	Fatal      bool     // true if this error can never be recovered from
}

// New constructs a syntax Error from the parser's current position, message,
// expected-set, and input window. The expected-set is sorted so that
// repeated runs over identical input produce byte-identical messages.
func New(code Code, pos token.Position, message string, expected []string, window string) *Error {
	sorted := append([]string(nil), expected...)
	sort.Strings(sorted)
	return &Error{Code: code, Position: pos, Message: message, Expected: sorted, Window: window}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Window != "" {
		fmt.Fprintf(&b, "\n  Input is: %q", e.Window)
	}
	if len(e.Expected) > 0 {
		fmt.Fprintf(&b, "\n  Expecting one of: %s", strings.Join(e.Expected, ", "))
	}
	return b.String()
}

// List aggregates every recoverable Error collected during a parse. Errors
// is kept as a plain slice for positional access (render order, spec §5's
// ordering guarantee); merr mirrors the same errors through
// github.com/hashicorp/go-multierror so a caller that wants a single
// combined error value (e.g. for a CLI exit path) doesn't have to
// reimplement multi-error joining.
type List struct {
	Errors []*Error
	merr   *multierror.Error
}

// Add appends an Error to the list.
func (l *List) Add(err *Error) {
	l.Errors = append(l.Errors, err)
	l.merr = multierror.Append(l.merr, err)
}

// Len reports how many errors have been collected.
func (l *List) Len() int { return len(l.Errors) }

// Combined returns every collected Error joined into one error value, or
// nil if none were collected.
func (l *List) Combined() error {
	return l.merr.ErrorOrNil()
}

// Colors used by the Formatter, matching the severity palette the teacher's
// errors/format.go defines (but via fatih/color instead of wonton/color).
var (
	colorHeader   = color.New(color.FgHiRed, color.Bold)
	colorLocation = color.New(color.FgCyan)
	colorLineNum  = color.New(color.FgHiBlack)
	colorSource   = color.New(color.FgWhite)
	colorCaret    = color.New(color.FgHiRed)
	colorHint     = color.New(color.FgHiYellow)
)

// Formatter renders Errors the way a terminal-facing CLI would: a header
// with the error code, a file:line:column locator, the offending source
// line, and a caret under the failing column.
type Formatter struct {
	UseColor bool
	Filename string
	Source   string // full input, used to extract the offending line
}

// NewFormatter returns a Formatter. useColor should typically come from
// isatty.IsTerminal(os.Stderr.Fd()) at the CLI layer.
func NewFormatter(useColor bool, filename, source string) *Formatter {
	return &Formatter{UseColor: useColor, Filename: filename, Source: source}
}

func (f *Formatter) paint(c *color.Color, s string) string {
	if !f.UseColor {
		return s
	}
	return c.Sprint(s)
}

// Format renders a single Error as a multi-line string.
func (f *Formatter) Format(err *Error) string {
	var b strings.Builder

	header := fmt.Sprintf("syntax error[%s]: %s", err.Code, firstLine(err.Message))
	fmt.Fprintln(&b, f.paint(colorHeader, header))

	loc := fmt.Sprintf("  --> %s:%d:%d", f.Filename, err.Position.LineNumber(), err.Position.ColumnNumber())
	fmt.Fprintln(&b, f.paint(colorLocation, loc))

	line := sourceLine(f.Source, err.Position.Line)
	lineNum := fmt.Sprintf("%4d | ", err.Position.LineNumber())
	fmt.Fprintln(&b, f.paint(colorLineNum, lineNum)+f.paint(colorSource, line))

	pad := strings.Repeat(" ", len(lineNum)+err.Position.Column)
	fmt.Fprintln(&b, pad+f.paint(colorCaret, "^"))

	if len(err.Expected) > 0 {
		hint := fmt.Sprintf("expecting one of: %s", strings.Join(err.Expected, ", "))
		fmt.Fprintln(&b, f.paint(colorHint, hint))
	}
	return b.String()
}

// FormatAll renders every error in a List, separated by blank lines.
func (f *Formatter) FormatAll(l *List) string {
	parts := make([]string, 0, len(l.Errors))
	for _, e := range l.Errors {
		parts = append(parts, f.Format(e))
	}
	return strings.Join(parts, "\n")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func sourceLine(source string, line int) string {
	lines := strings.Split(source, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}
	return lines[line]
}
