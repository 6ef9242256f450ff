// Package ccsaction implements transition labels: tau, termination (delta),
// and the value-passing send/receive actions over a named channel.
package ccsaction

import (
	"fmt"

	"ccsvp/internal/ccsexpr"
)

// Kind discriminates the five shapes an Action can take.
type Kind int

const (
	Tau Kind = iota
	Delta
	Send
	Recv
	None
)

// Action labels a single transition. Param, Input and Value are optional
// depending on Kind: Send/Recv may carry a channel Param and a Value
// expression, Recv alone may bind an Input variable.
type Action struct {
	Kind  Kind
	Name  string
	Param ccsexpr.Expr
	Input string
	Value ccsexpr.Expr
}

// NewTau is the silent internal action.
func NewTau() Action { return Action{Kind: Tau} }

// NewDelta is the successful-termination action.
func NewDelta() Action { return Action{Kind: Delta} }

// NewSend builds a SEND action on channel name, with optional param and
// value expressions (either may be nil).
func NewSend(name string, param, value ccsexpr.Expr) Action {
	return Action{Kind: Send, Name: name, Param: param, Value: value}
}

// NewRecv builds a RECV action on channel name, with optional param,
// optional bound input variable, and optional value expression (the value
// a sender must offer for the receive to match, as in `ch?3`).
func NewRecv(name string, param ccsexpr.Expr, input string, value ccsexpr.Expr) Action {
	return Action{Kind: Recv, Name: name, Param: param, Input: input, Value: value}
}

// NewNone builds a NONE action: an action with no direction. As a
// restriction-set member it matches every send, receive or bare action on
// that name, since Restrict compares it against each action's AsNone form.
func NewNone(name string) Action {
	return Action{Kind: None, Name: name}
}

// Base drops Input and Value, keeping only Kind/Name/Param. Restriction
// filtering and handshake matching use Plain instead, which also drops
// Param.
func (a Action) Base() Action {
	return Action{Kind: a.Kind, Name: a.Name, Param: a.Param}
}

// Plain drops Param, Input and Value entirely.
func (a Action) Plain() Action {
	return Action{Kind: a.Kind, Name: a.Name}
}

// AsNone reduces a Send/Recv action to the NONE action with the same name,
// the form restriction sets are specified in.
func (a Action) AsNone() Action {
	return Action{Kind: None, Name: a.Name}
}

// Subst replaces free occurrences of id in Param and Value.
func (a Action) Subst(id string, val int, fold bool) Action {
	a2 := a
	if a.Param != nil {
		a2.Param = a.Param.Subst(id, val, fold)
	}
	if a.Value != nil {
		a2.Value = a.Value.Subst(id, val, fold)
	}
	return a2
}

// Normalize evaluates Param and Value down to constants, the form an
// action must be in once it has been fully resolved against a binding.
func (a Action) Normalize() (Action, error) {
	a2 := a
	if a.Param != nil {
		if c, ok := a.Param.(*ccsexpr.Const); ok {
			a2.Param = c
		} else {
			v, err := a.Param.Eval()
			if err != nil {
				return Action{}, err
			}
			a2.Param = &ccsexpr.Const{Val: v}
		}
	}
	if a.Value != nil {
		if c, ok := a.Value.(*ccsexpr.Const); ok {
			a2.Value = c
		} else {
			v, err := a.Value.Eval()
			if err != nil {
				return Action{}, err
			}
			a2.Value = &ccsexpr.Const{Val: v}
		}
	}
	return a2, nil
}

// Complement flips SEND to RECV and vice versa, leaving Tau/Delta/None
// unchanged. Used to test whether two actions can synchronize.
func (a Action) Complement() Action {
	a2 := a
	switch a.Kind {
	case Send:
		a2.Kind = Recv
	case Recv:
		a2.Kind = Send
	}
	return a2
}

func (a Action) String() string {
	switch a.Kind {
	case Tau:
		return "i"
	case Delta:
		return "e"
	case Send:
		var b string
		b = a.Name
		if a.Param != nil {
			b += "(" + a.Param.String() + ")"
		}
		b += "!"
		if a.Value != nil {
			b += a.Value.String()
		}
		return b
	case Recv:
		b := a.Name
		if a.Param != nil {
			b += "(" + a.Param.String() + ")"
		}
		b += "?"
		b += a.Input
		if a.Value != nil {
			b += a.Value.String()
		}
		return b
	case None:
		return a.Name
	default:
		return "?"
	}
}

// Compare gives a total order over actions, used to dedupe transition
// sets and to order a restriction set deterministically.
func (a Action) Compare(b Action) int {
	if a.Kind < b.Kind {
		return -1
	} else if a.Kind > b.Kind {
		return 1
	}
	if a.Name < b.Name {
		return -1
	} else if a.Name > b.Name {
		return 1
	}
	if c := compareOptExpr(a.Param, b.Param); c != 0 {
		return c
	}
	if a.Input < b.Input {
		return -1
	} else if a.Input > b.Input {
		return 1
	}
	return compareOptExpr(a.Value, b.Value)
}

func compareOptExpr(a, b ccsexpr.Expr) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	return a.Compare(b)
}

// Equal reports whether two actions have identical shape, comparing Param
// and Value structurally when present.
func (a Action) Equal(b Action) bool {
	return a.Compare(b) == 0
}

func (k Kind) String() string {
	switch k {
	case Tau:
		return "TAU"
	case Delta:
		return "DELTA"
	case Send:
		return "SEND"
	case Recv:
		return "RECV"
	case None:
		return "NONE"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}
