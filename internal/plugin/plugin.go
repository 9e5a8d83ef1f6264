// Package plugin implements the plugin dispatch point (spec §4.G): a table
// of named, replaceable parse-method slots, plus the `import plugin "path"
// { ... }` loading contract.
//
// Grounded on parser.Option in the teacher (parser/parser.go): a function
// that mutates the parser before Parse() runs. Spec §9 calls for exactly
// that shape generalized from "set a struct field" to "replace a named
// method slot, optionally capturing the previous slot to delegate to it".
package plugin

// Func is the shared contract every exposed parseX slot has: advance state
// and return true, or leave state untouched and return false, or return a
// non-nil error for a fatal/recoverable ParseError (spec §4.E.1).
type Func func() (bool, error)

// Table holds every parser method that can be overridden, keyed by name
// (e.g. "parseStatement", "parseExpression", "parseClass").
type Table struct {
	slots map[string]Func
}

// NewTable returns an empty slot table.
func NewTable() *Table {
	return &Table{slots: make(map[string]Func)}
}

// Register installs the core implementation of a method under name. Called
// once per method by the engine during setup, before any plugin runs.
func (t *Table) Register(name string, fn Func) {
	t.slots[name] = fn
}

// Get returns the current implementation bound to name, or nil if nothing
// is registered under that name.
func (t *Table) Get(name string) Func {
	return t.slots[name]
}

// Replace installs fn as the new implementation of name and returns
// whatever was previously bound there, so a plugin can capture it and
// conditionally delegate:
//
//	var prev plugin.Func
//	prev = table.Replace("parseExpression", func() (bool, error) {
//		if somethingSpecial() { return true, nil }
//		return prev()
//	})
func (t *Table) Replace(name string, fn Func) Func {
	prev := t.slots[name]
	t.slots[name] = fn
	return prev
}

// Call invokes the current implementation of name. It panics if name was
// never registered, since that indicates an engine wiring bug rather than
// a user-correctable parse failure.
func (t *Table) Call(name string) (bool, error) {
	fn, ok := t.slots[name]
	if !ok {
		panic("plugin: no parser method registered under name " + name)
	}
	return fn()
}

// Names returns every registered slot name, for diagnostics.
func (t *Table) Names() []string {
	out := make([]string, 0, len(t.slots))
	for name := range t.slots {
		out = append(out, name)
	}
	return out
}

// Entry is a plugin's exported entry point, matching spec §4.G's
// `(parser, globalOptions, pluginOptions)` contract. table is the slot
// table the plugin may read from and write into; globalOptions is the
// caller's global-options value, merged with any recognized header flags
// when the header carries some; pluginOptions is the value produced
// by evaluating the plugin import's inline object literal (see literal.go).
type Entry func(table *Table, globalOptions any, pluginOptions map[string]any) error

// Loader resolves a plugin import path to its Entry. The core only
// requires this narrow callable contract; how a path becomes a loaded Go
// (or otherwise) function is an external collaborator's concern (spec §1),
// e.g. a dynamic plugin loader, a build-time registry, or a Go plugin
// object.
type Loader func(path string) (Entry, error)
