package ccsprog

import (
	"testing"

	"ccsvp/internal/ccsexpr"
	"ccsvp/internal/ccsproc"
	"github.com/stretchr/testify/assert"
)

func TestInstantiateBindsEachParamToItsArg(t *testing.T) {
	p := New()
	// P[x,y] := x_and_y encoded as a Call carrying both idents, so we can
	// check that each formal received the argument at its own position.
	body := &ccsproc.Call{Name: "Q", Args: []ccsexpr.Expr{&ccsexpr.Ident{Name: "x"}, &ccsexpr.Ident{Name: "y"}}}
	p.AddBinding("P", []string{"x", "y"}, body)

	term, ok := p.Instantiate("P", []int{1, 2}, true)
	assert.True(t, ok)
	call := term.(*ccsproc.Call)
	assert.Equal(t, 1, call.Args[0].(*ccsexpr.Const).Val)
	assert.Equal(t, 2, call.Args[1].(*ccsexpr.Const).Val)
}

func TestInstantiateUnknownName(t *testing.T) {
	p := New()
	_, ok := p.Instantiate("Missing", nil, true)
	assert.False(t, ok)
}

func TestInstantiateArityMismatch(t *testing.T) {
	p := New()
	p.AddBinding("P", []string{"x"}, ccsproc.Null{})
	_, ok := p.Instantiate("P", []int{1, 2}, true)
	assert.False(t, ok)
}

func TestStringPreservesDeclarationOrder(t *testing.T) {
	p := New()
	p.AddBinding("B", nil, ccsproc.Null{})
	p.AddBinding("A", nil, ccsproc.Terminated{})
	p.Main = ccsproc.Null{}

	out := p.String()
	bIdx := indexOf(out, "B := 0")
	aIdx := indexOf(out, "A := 1")
	assert.True(t, bIdx >= 0 && aIdx >= 0 && bIdx < aIdx)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
