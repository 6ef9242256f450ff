// Package ccsprog holds a parsed program: a set of named, parameterized
// process bindings plus the main term to explore.
package ccsprog

import (
	"strings"

	"ccsvp/internal/ccsproc"
)

// Binding is a single "name[params] := body" definition.
type Binding struct {
	Name   string
	Params []string
	Body   ccsproc.Term
}

func (b Binding) String() string {
	var sb strings.Builder
	sb.WriteString(b.Name)
	if len(b.Params) > 0 {
		sb.WriteString("[")
		sb.WriteString(strings.Join(b.Params, ", "))
		sb.WriteString("]")
	}
	sb.WriteString(" := ")
	sb.WriteString(b.Body.String())
	return sb.String()
}

// Program is a full parsed source: its bindings plus the process to run.
type Program struct {
	order    []string
	Bindings map[string]Binding
	Main     ccsproc.Term
}

// New returns an empty Program ready for bindings to be added.
func New() *Program {
	return &Program{Bindings: make(map[string]Binding)}
}

// AddBinding records name's definition, preserving declaration order for
// String's output.
func (p *Program) AddBinding(name string, params []string, body ccsproc.Term) {
	if _, exists := p.Bindings[name]; !exists {
		p.order = append(p.order, name)
	}
	p.Bindings[name] = Binding{Name: name, Params: params, Body: body}
}

// Lookup returns name's binding and whether it exists.
func (p *Program) Lookup(name string) (Binding, bool) {
	b, ok := p.Bindings[name]
	return b, ok
}

// Instantiate substitutes args for name's formal parameters in reverse
// declaration order, matching simultaneous substitution semantics: each
// substitution step only ever replaces occurrences of its own parameter,
// never one introduced by an earlier (later-indexed) substitution.
// Reports ok=false if name is undefined or the argument count mismatches.
func (p *Program) Instantiate(name string, args []int, fold bool) (ccsproc.Term, bool) {
	b, ok := p.Bindings[name]
	if !ok {
		return nil, false
	}
	if len(args) != len(b.Params) {
		return nil, false
	}
	res := b.Body
	for i := len(b.Params) - 1; i >= 0; i-- {
		res = res.Subst(b.Params[i], args[i], fold)
	}
	return res, true
}

// String renders bindings in declaration order, followed by the main term.
func (p *Program) String() string {
	var sb strings.Builder
	for _, name := range p.order {
		sb.WriteString(p.Bindings[name].String())
		sb.WriteString("\n")
	}
	if p.Main != nil {
		sb.WriteString(p.Main.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
