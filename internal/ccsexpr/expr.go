// Package ccsexpr implements the value-passing expression sublanguage:
// integer constants, identifiers, and unary/binary operators over them.
package ccsexpr

import "fmt"

// Expr is a value expression. All implementations are immutable; Subst
// returns a new (possibly folded) expression rather than mutating in place.
type Expr interface {
	fmt.Stringer

	// Subst replaces every free occurrence of id with val. When fold is
	// true, subexpressions whose operands have all become constants are
	// evaluated immediately rather than left as a residual operator node.
	Subst(id string, val int, fold bool) Expr

	// Eval reduces the expression to an integer, failing if it still
	// contains a free identifier other than true/false, or if it divides
	// or takes the modulus of zero.
	Eval() (int, error)

	// Compare gives a total order over expressions: negative if e < other,
	// positive if e > other, zero if structurally equal.
	Compare(other Expr) int

	kind() int
}

// kind ordering mirrors the CONST/ID/UNARY/BINARY discriminant used to
// order expressions of different shapes before comparing their contents.
const (
	kindConst = iota
	kindIdent
	kindUnary
	kindBinary
)

func compareKind(a, b Expr) int {
	ka, kb := a.kind(), b.kind()
	switch {
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	default:
		return 0
	}
}

// UnboundError reports a free identifier (other than true/false) reaching
// Eval. Exp names the outermost expression in which the error surfaced,
// letting a caller report a position even though the error originates deep
// inside a nested Unary/Binary tree.
type UnboundError struct {
	Exp  Expr
	Name string
}

func (e *UnboundError) Error() string {
	return fmt.Sprintf("unbound identifier: %s", e.Name)
}

// UndefinedError reports an arithmetic operation with no defined result,
// i.e. division or modulo by zero.
type UndefinedError struct {
	Exp     Expr
	Message string
}

func (e *UndefinedError) Error() string { return e.Message }

// repoint rewrites the Exp field of an UnboundError/UndefinedError to at
// as it propagates up through nested evaluations, so the error always
// names the outermost expression the caller asked to evaluate.
func repoint(err error, at Expr) error {
	switch e := err.(type) {
	case *UnboundError:
		return &UnboundError{Exp: at, Name: e.Name}
	case *UndefinedError:
		return &UndefinedError{Exp: at, Message: e.Message}
	default:
		return err
	}
}

// Const is an integer literal.
type Const struct {
	Val int
}

func (c *Const) kind() int { return kindConst }

func (c *Const) String() string { return fmt.Sprintf("%d", c.Val) }

func (c *Const) Subst(id string, val int, fold bool) Expr { return c }

func (c *Const) Eval() (int, error) { return c.Val, nil }

func (c *Const) Compare(other Expr) int {
	if k := compareKind(c, other); k != 0 {
		return k
	}
	o := other.(*Const)
	switch {
	case c.Val < o.Val:
		return -1
	case c.Val > o.Val:
		return 1
	default:
		return 0
	}
}

// Ident is a free or bound identifier. "true" and "false" evaluate to 1
// and 0 without ever being bound by Subst.
type Ident struct {
	Name string
}

func (i *Ident) kind() int { return kindIdent }

func (i *Ident) String() string { return i.Name }

func (i *Ident) Subst(id string, val int, fold bool) Expr {
	if i.Name == id {
		return &Const{Val: val}
	}
	return i
}

func (i *Ident) Eval() (int, error) {
	switch i.Name {
	case "true":
		return 1, nil
	case "false":
		return 0, nil
	default:
		return 0, &UnboundError{Exp: i, Name: i.Name}
	}
}

func (i *Ident) Compare(other Expr) int {
	if k := compareKind(i, other); k != 0 {
		return k
	}
	o := other.(*Ident)
	switch {
	case i.Name < o.Name:
		return -1
	case i.Name > o.Name:
		return 1
	default:
		return 0
	}
}

// UnaryOp is a prefix operator applied to a single operand.
type UnaryOp int

const (
	Plus UnaryOp = iota
	Minus
	Not
)

func (op UnaryOp) String() string {
	switch op {
	case Plus:
		return "+"
	case Minus:
		return "-"
	case Not:
		return "!"
	default:
		return "?"
	}
}

// Unary is a prefix-operator expression: +e, -e, or !e.
type Unary struct {
	Op  UnaryOp
	Exp Expr
}

func (u *Unary) kind() int { return kindUnary }

func (u *Unary) String() string { return fmt.Sprintf("(%s%s)", u.Op, u.Exp) }

func (u *Unary) Subst(id string, val int, fold bool) Expr {
	exp2 := u.Exp.Subst(id, val, fold)
	if fold {
		if c, ok := exp2.(*Const); ok {
			// Only fold when the operator is actually defined on this
			// operand; otherwise leave the residual node for Eval to
			// report the error instead of silently miscomputing it.
			if v, err := evalUnary(u.Op, c.Val); err == nil {
				return &Const{Val: v}
			}
		}
	}
	if exp2 == u.Exp {
		return u
	}
	return &Unary{Op: u.Op, Exp: exp2}
}

func (u *Unary) Eval() (int, error) {
	val, err := u.Exp.Eval()
	if err != nil {
		return 0, repoint(err, u)
	}
	return evalUnary(u.Op, val)
}

func evalUnary(op UnaryOp, val int) (int, error) {
	switch op {
	case Plus:
		return val, nil
	case Minus:
		return -val, nil
	case Not:
		return boolInt(val == 0), nil
	default:
		return 0, fmt.Errorf("unknown unary operator %v", op)
	}
}

func (u *Unary) Compare(other Expr) int {
	if k := compareKind(u, other); k != 0 {
		return k
	}
	o := other.(*Unary)
	if u.Op < o.Op {
		return -1
	} else if u.Op > o.Op {
		return 1
	}
	return u.Exp.Compare(o.Exp)
}

// BinaryOp is an infix operator over two operands.
type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Mod
	And
	Or
	Eq
	Neq
	Lt
	Leq
	Gt
	Geq
)

func (op BinaryOp) String() string {
	switch op {
	case Add:
		return " + "
	case Sub:
		return " - "
	case Mul:
		return " * "
	case Div:
		return " / "
	case Mod:
		return " % "
	case And:
		return " && "
	case Or:
		return " || "
	case Eq:
		return " == "
	case Neq:
		return " != "
	case Lt:
		return " < "
	case Leq:
		return " <= "
	case Gt:
		return " > "
	case Geq:
		return " >= "
	default:
		return " ? "
	}
}

// Binary is an infix-operator expression: lhs OP rhs.
type Binary struct {
	Op       BinaryOp
	Lhs, Rhs Expr
}

func (b *Binary) kind() int { return kindBinary }

func (b *Binary) String() string { return fmt.Sprintf("(%s%s%s)", b.Lhs, b.Op, b.Rhs) }

func (b *Binary) Subst(id string, val int, fold bool) Expr {
	lhs2 := b.Lhs.Subst(id, val, fold)
	rhs2 := b.Rhs.Subst(id, val, fold)
	if fold {
		lc, lok := lhs2.(*Const)
		rc, rok := rhs2.(*Const)
		if lok && rok {
			// As in Unary.Subst: an undefined fold (division/modulo by
			// zero) is left as a residual node rather than coerced to a
			// wrong constant, so Eval still reports UndefinedError.
			if v, err := evalBinary(b.Op, lc.Val, rc.Val); err == nil {
				return &Const{Val: v}
			}
		}
	}
	if lhs2 == b.Lhs && rhs2 == b.Rhs {
		return b
	}
	return &Binary{Op: b.Op, Lhs: lhs2, Rhs: rhs2}
}

func (b *Binary) Eval() (int, error) {
	lval, err := b.Lhs.Eval()
	if err != nil {
		return 0, repoint(err, b)
	}
	rval, err := b.Rhs.Eval()
	if err != nil {
		return 0, repoint(err, b)
	}
	v, err := evalBinary(b.Op, lval, rval)
	if err != nil {
		return 0, repoint(err, b)
	}
	return v, nil
}

func evalBinary(op BinaryOp, lval, rval int) (int, error) {
	switch op {
	case Add:
		return lval + rval, nil
	case Sub:
		return lval - rval, nil
	case Mul:
		return lval * rval, nil
	case Div:
		if rval == 0 {
			return 0, &UndefinedError{Message: "division by zero"}
		}
		return lval / rval, nil
	case Mod:
		if rval == 0 {
			return 0, &UndefinedError{Message: "division by zero"}
		}
		return lval % rval, nil
	case And:
		return boolInt(lval != 0 && rval != 0), nil
	case Or:
		return boolInt(lval != 0 || rval != 0), nil
	case Eq:
		return boolInt(lval == rval), nil
	case Neq:
		return boolInt(lval != rval), nil
	case Lt:
		return boolInt(lval < rval), nil
	case Leq:
		return boolInt(lval <= rval), nil
	case Gt:
		return boolInt(lval > rval), nil
	case Geq:
		return boolInt(lval >= rval), nil
	default:
		return 0, fmt.Errorf("unknown binary operator %v", op)
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (b *Binary) Compare(other Expr) int {
	if k := compareKind(b, other); k != 0 {
		return k
	}
	o := other.(*Binary)
	if b.Op < o.Op {
		return -1
	} else if b.Op > o.Op {
		return 1
	}
	if c := b.Lhs.Compare(o.Lhs); c != 0 {
		return c
	}
	return b.Rhs.Compare(o.Rhs)
}
