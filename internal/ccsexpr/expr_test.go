package ccsexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstEval(t *testing.T) {
	v, err := (&Const{Val: 7}).Eval()
	assert.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestIdentTrueFalse(t *testing.T) {
	v, err := (&Ident{Name: "true"}).Eval()
	assert.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = (&Ident{Name: "false"}).Eval()
	assert.NoError(t, err)
	assert.Equal(t, 0, v)
}

func TestIdentUnbound(t *testing.T) {
	_, err := (&Ident{Name: "x"}).Eval()
	assert.Error(t, err)
	var unbound *UnboundError
	assert.ErrorAs(t, err, &unbound)
	assert.Equal(t, "x", unbound.Name)
}

func TestBinaryDivisionByZero(t *testing.T) {
	e := &Binary{Op: Div, Lhs: &Const{Val: 1}, Rhs: &Const{Val: 0}}
	_, err := e.Eval()
	assert.Error(t, err)
	var undef *UndefinedError
	assert.ErrorAs(t, err, &undef)
}

func TestSubstFoldsConstants(t *testing.T) {
	e := &Binary{Op: Add, Lhs: &Ident{Name: "x"}, Rhs: &Const{Val: 3}}
	folded := e.Subst("x", 4, true)
	c, ok := folded.(*Const)
	assert.True(t, ok)
	assert.Equal(t, 7, c.Val)
}

func TestSubstWithoutFoldKeepsShape(t *testing.T) {
	e := &Binary{Op: Add, Lhs: &Ident{Name: "x"}, Rhs: &Const{Val: 3}}
	unfolded := e.Subst("x", 4, false)
	b, ok := unfolded.(*Binary)
	assert.True(t, ok)
	lhs, ok := b.Lhs.(*Const)
	assert.True(t, ok)
	assert.Equal(t, 4, lhs.Val)
}

func TestSubstIdentityWhenUnchanged(t *testing.T) {
	e := &Binary{Op: Add, Lhs: &Ident{Name: "y"}, Rhs: &Const{Val: 3}}
	same := e.Subst("x", 4, false)
	assert.Same(t, e, same)
}

// A fold-time division by zero must not be silently coerced into a wrong
// constant: the residual node is kept so Eval still reports UndefinedError.
func TestSubstFoldDoesNotMaskDivisionByZero(t *testing.T) {
	e := &Binary{Op: Div, Lhs: &Ident{Name: "x"}, Rhs: &Const{Val: 0}}
	folded := e.Subst("x", 1, true)
	_, isConst := folded.(*Const)
	assert.False(t, isConst, "a division by zero must not fold to a constant")
	_, err := folded.Eval()
	assert.Error(t, err)
	var undef *UndefinedError
	assert.ErrorAs(t, err, &undef)
}

func TestUnaryNot(t *testing.T) {
	e := &Unary{Op: Not, Exp: &Const{Val: 0}}
	v, err := e.Eval()
	assert.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestCompareOrdersByKindThenValue(t *testing.T) {
	assert.True(t, (&Const{Val: 1}).Compare(&Ident{Name: "a"}) < 0)
	assert.True(t, (&Const{Val: 1}).Compare(&Const{Val: 2}) < 0)
	assert.Equal(t, 0, (&Const{Val: 5}).Compare(&Const{Val: 5}))
}

func TestStringRendersParenthesized(t *testing.T) {
	e := &Binary{Op: Add, Lhs: &Const{Val: 1}, Rhs: &Const{Val: 2}}
	assert.Equal(t, "(1 + 2)", e.String())
}

func TestErrorRepointsToOutermostExpression(t *testing.T) {
	inner := &Ident{Name: "z"}
	outer := &Unary{Op: Minus, Exp: inner}
	_, err := outer.Eval()
	var unbound *UnboundError
	assert.ErrorAs(t, err, &unbound)
	assert.Same(t, outer, unbound.Exp)
}
