package ccsaction

import (
	"testing"

	"ccsvp/internal/ccsexpr"
	"github.com/stretchr/testify/assert"
)

func TestStringForms(t *testing.T) {
	assert.Equal(t, "i", NewTau().String())
	assert.Equal(t, "e", NewDelta().String())
	assert.Equal(t, "a", NewNone("a").String())

	send := NewSend("ch", nil, &ccsexpr.Const{Val: 3})
	assert.Equal(t, "ch!3", send.String())

	recv := NewRecv("ch", &ccsexpr.Const{Val: 1}, "x", nil)
	assert.Equal(t, "ch(1)?x", recv.String())
}

func TestComplementFlipsSendRecv(t *testing.T) {
	send := NewSend("a", nil, nil)
	recv := send.Complement()
	assert.Equal(t, Recv, recv.Kind)
	assert.Equal(t, send.Complement().Complement().Kind, send.Kind)
}

func TestComplementLeavesTauDeltaNone(t *testing.T) {
	assert.Equal(t, Tau, NewTau().Complement().Kind)
	assert.Equal(t, Delta, NewDelta().Complement().Kind)
	assert.Equal(t, None, NewNone("x").Complement().Kind)
}

func TestSubstRewritesParamAndValue(t *testing.T) {
	a := NewSend("ch", &ccsexpr.Ident{Name: "x"}, &ccsexpr.Ident{Name: "x"})
	a2 := a.Subst("x", 5, true)
	p, ok := a2.Param.(*ccsexpr.Const)
	assert.True(t, ok)
	assert.Equal(t, 5, p.Val)
	v, ok := a2.Value.(*ccsexpr.Const)
	assert.True(t, ok)
	assert.Equal(t, 5, v.Val)
}

func TestNormalizeEvaluatesOperands(t *testing.T) {
	a := NewSend("ch", nil, &ccsexpr.Binary{Op: ccsexpr.Add, Lhs: &ccsexpr.Const{Val: 2}, Rhs: &ccsexpr.Const{Val: 3}})
	n, err := a.Normalize()
	assert.NoError(t, err)
	v := n.Value.(*ccsexpr.Const)
	assert.Equal(t, 5, v.Val)
}

func TestNormalizePropagatesError(t *testing.T) {
	a := NewSend("ch", nil, &ccsexpr.Ident{Name: "unbound"})
	_, err := a.Normalize()
	assert.Error(t, err)
}

func TestBaseDropsInputAndValue(t *testing.T) {
	a := NewRecv("ch", &ccsexpr.Const{Val: 1}, "x", &ccsexpr.Const{Val: 2})
	base := a.Base()
	assert.Equal(t, "", base.Input)
	assert.Nil(t, base.Value)
	assert.NotNil(t, base.Param)
}

func TestCompareOrdersByKindThenName(t *testing.T) {
	assert.True(t, NewTau().Compare(NewDelta()) < 0)
	assert.True(t, NewSend("a", nil, nil).Compare(NewSend("b", nil, nil)) < 0)
	assert.Equal(t, 0, NewTau().Compare(NewTau()))
}

func TestEqualComparesStructurally(t *testing.T) {
	a := NewSend("ch", &ccsexpr.Const{Val: 1}, nil)
	b := NewSend("ch", &ccsexpr.Const{Val: 1}, nil)
	assert.True(t, a.Equal(b))
}
