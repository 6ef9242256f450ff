// Package ccsparser turns token streams from ccslexer into the process
// and expression ASTs defined in ccsexpr/ccsproc, assembling them into a
// ccsprog.Program. Expressions and processes are both parsed with a
// precedence-climbing loop over a per-operator level table; every level
// in both tables is configured with equal left/right precedence, which
// makes every binary operator right-associative rather than the more
// usual left-associative reading.
package ccsparser

import (
	"fmt"
	"strconv"

	"ccsvp/internal/ccsaction"
	"ccsvp/internal/ccsdiag"
	"ccsvp/internal/ccsexpr"
	"ccsvp/internal/ccslexer"
	"ccsvp/internal/ccsproc"
	"ccsvp/internal/ccsprog"
)

// ParseError is a positioned syntax error, convertible to a ccsdiag.Diagnostic
// for caret-annotated reporting.
type ParseError struct {
	Position ccsdiag.Position
	Message  string
	Length   int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Position.Line, e.Position.Column, e.Message)
}

// Diagnostic renders the error in the shape ccsdiag.Reporter expects.
func (e *ParseError) Diagnostic() ccsdiag.Diagnostic {
	return ccsdiag.Diagnostic{Level: ccsdiag.Error, Message: e.Message, Position: e.Position, Length: e.Length}
}

// exprPrec is the binary-operator precedence table for the expression
// grammar, lowest-binding first. Unary prefix operators bind tighter than
// every entry here.
var exprPrec = map[ccslexer.TokenType]int{
	ccslexer.OROR:    1,
	ccslexer.ANDAND:  2,
	ccslexer.EQEQ:    3,
	ccslexer.NEQ:     3,
	ccslexer.LT:      4,
	ccslexer.LE:      4,
	ccslexer.GT:      4,
	ccslexer.GE:      4,
	ccslexer.PLUS:    5,
	ccslexer.MINUS:   5,
	ccslexer.STAR:    6,
	ccslexer.SLASH:   6,
	ccslexer.PERCENT: 6,
}

const exprUnaryPrec = 7

var exprBinOp = map[ccslexer.TokenType]ccsexpr.BinaryOp{
	ccslexer.OROR:    ccsexpr.Or,
	ccslexer.ANDAND:  ccsexpr.And,
	ccslexer.EQEQ:    ccsexpr.Eq,
	ccslexer.NEQ:     ccsexpr.Neq,
	ccslexer.LT:      ccsexpr.Lt,
	ccslexer.LE:      ccsexpr.Leq,
	ccslexer.GT:      ccsexpr.Gt,
	ccslexer.GE:      ccsexpr.Geq,
	ccslexer.PLUS:    ccsexpr.Add,
	ccslexer.MINUS:   ccsexpr.Sub,
	ccslexer.STAR:    ccsexpr.Mul,
	ccslexer.SLASH:   ccsexpr.Div,
	ccslexer.PERCENT: ccsexpr.Mod,
}

// procPrec is the process-operator precedence table, lowest-binding first:
// sequential composition binds loosest, then parallel, then choice. Prefix
// continuations and guards parse at procUnaryPrec, tighter than all three.
var procPrec = map[ccslexer.TokenType]int{
	ccslexer.SEMI: 1,
	ccslexer.PIPE: 2,
	ccslexer.PLUS: 3,
}

const procUnaryPrec = 4

// Parser is a single-pass recursive-descent parser over a fixed token
// slice. It supports rewinding via pos, used to back out of a tentative
// binding-header parse that turns out to be the main process instead.
type Parser struct {
	tokens   []ccslexer.Token
	pos      int
	filename string
}

// Parse tokenizes source and parses it into a Program.
func Parse(filename, source string) (*ccsprog.Program, error) {
	toks, err := ccslexer.Tokenize(filename, source)
	if err != nil {
		return nil, err
	}
	p := &Parser{tokens: toks, filename: filename}
	return p.parseProgram()
}

func (p *Parser) peek() ccslexer.Token { return p.tokens[p.pos] }

func (p *Parser) peekAt(n int) ccslexer.Token {
	idx := p.pos + n
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *Parser) advance() ccslexer.Token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) errorAt(t ccslexer.Token, msg string) error {
	return &ParseError{
		Position: ccsdiag.Position{Line: t.Position.Line, Column: t.Position.Column},
		Message:  msg,
		Length:   max(1, len(t.Lexeme)),
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (p *Parser) expect(tt ccslexer.TokenType, what string) (ccslexer.Token, error) {
	t := p.peek()
	if t.Type == ccslexer.EOF {
		return t, p.errorAt(t, "unexpected end of file, expected "+what)
	}
	if t.Type != tt {
		return t, p.errorAt(t, fmt.Sprintf("unexpected `%s`, expected %s", t.Lexeme, what))
	}
	return p.advance(), nil
}

// parseProgram parses a leading run of "name[params] := body" bindings
// followed by the main process term. Each candidate binding header is
// parsed tentatively as a primary process; if it doesn't resolve to a
// bare-identifier argument list followed by `:=`, parsing rewinds and the
// same tokens are reparsed as the start of the main process instead.
func (p *Parser) parseProgram() (*ccsprog.Program, error) {
	prog := ccsprog.New()

	for {
		t := p.peek()
		t2 := p.peekAt(1)
		if !(t.Type == ccslexer.IDENT && (t2.Type == ccslexer.LBRACKET || t2.Type == ccslexer.COLONEQ)) {
			break
		}

		start := p.pos
		prim, err := p.parsePrimaryProcess()
		if err != nil {
			return nil, err
		}
		call, ok := prim.(*ccsproc.Call)
		if !ok {
			break
		}

		allNames := true
		params := make([]string, 0, len(call.Args))
		for _, a := range call.Args {
			id, ok := a.(*ccsexpr.Ident)
			if !ok {
				allNames = false
				break
			}
			params = append(params, id.Name)
		}

		if allNames && p.peek().Type == ccslexer.COLONEQ {
			p.advance()
			body, err := p.parseProcess(0)
			if err != nil {
				return nil, err
			}
			prog.AddBinding(t.Lexeme, params, body)
			continue
		}

		p.pos = start
		main, err := p.parseProcess(0)
		if err != nil {
			return nil, err
		}
		prog.Main = main
		return prog, p.expectEOF()
	}

	if prog.Main == nil {
		main, err := p.parseProcess(0)
		if err != nil {
			return nil, err
		}
		prog.Main = main
	}
	return prog, p.expectEOF()
}

func (p *Parser) expectEOF() error {
	t := p.peek()
	if t.Type != ccslexer.EOF {
		return p.errorAt(t, fmt.Sprintf("unexpected `%s`, expected end of file", t.Lexeme))
	}
	return nil
}

// ParseExpr parses source as a standalone expression, for callers that
// only need the expression sublanguage.
func ParseExpr(filename, source string) (ccsexpr.Expr, error) {
	toks, err := ccslexer.Tokenize(filename, source)
	if err != nil {
		return nil, err
	}
	p := &Parser{tokens: toks, filename: filename}
	e, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	return e, p.expectEOF()
}

// --- expressions ---

func (p *Parser) parseExpr(minPrec int) (ccsexpr.Expr, error) {
	left, err := p.parseUnaryExpr()
	if err != nil {
		return nil, err
	}

	for {
		t := p.peek()
		lvl, ok := exprPrec[t.Type]
		if !ok || lvl < minPrec {
			return left, nil
		}
		p.advance()
		rhs, err := p.parseExpr(lvl)
		if err != nil {
			return nil, err
		}
		left = &ccsexpr.Binary{Op: exprBinOp[t.Type], Lhs: left, Rhs: rhs}
	}
}

func (p *Parser) parseUnaryExpr() (ccsexpr.Expr, error) {
	t := p.peek()
	var op ccsexpr.UnaryOp
	switch t.Type {
	case ccslexer.PLUS:
		op = ccsexpr.Plus
	case ccslexer.MINUS:
		op = ccsexpr.Minus
	case ccslexer.BANG:
		op = ccsexpr.Not
	default:
		return p.parsePrimaryExpr()
	}
	p.advance()
	sub, err := p.parseExpr(exprUnaryPrec)
	if err != nil {
		return nil, err
	}
	return &ccsexpr.Unary{Op: op, Exp: sub}, nil
}

func (p *Parser) parsePrimaryExpr() (ccsexpr.Expr, error) {
	t := p.peek()
	switch t.Type {
	case ccslexer.EOF:
		return nil, p.errorAt(t, "unexpected end of file, expected `(`, identifier or constant")
	case ccslexer.IDENT:
		p.advance()
		return &ccsexpr.Ident{Name: t.Lexeme}, nil
	case ccslexer.INT:
		p.advance()
		v, err := strconv.Atoi(t.Lexeme)
		if err != nil {
			return nil, p.errorAt(t, fmt.Sprintf("invalid number `%s`", t.Lexeme))
		}
		return &ccsexpr.Const{Val: v}, nil
	case ccslexer.LPAREN:
		p.advance()
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(ccslexer.RPAREN, "`)`"); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, p.errorAt(t, fmt.Sprintf("unexpected `%s`, expected `(`, identifier or constant", t.Lexeme))
	}
}

// --- processes ---

func (p *Parser) parseProcess(minPrec int) (ccsproc.Term, error) {
	res, err := p.parseProcessAtom()
	if err != nil {
		return nil, err
	}

	for p.peek().Type == ccslexer.BACKSLASH {
		p.advance()
		if _, err := p.expect(ccslexer.LBRACE, "`{`"); err != nil {
			return nil, err
		}
		set, comp, err := p.parseRestrictionSet()
		if err != nil {
			return nil, err
		}
		res = &ccsproc.Restrict{Next: res, Set: set, Complement: comp}
	}

	for {
		t := p.peek()
		lvl, ok := procPrec[t.Type]
		if !ok || lvl < minPrec {
			return res, nil
		}
		p.advance()
		rhs, err := p.parseProcess(lvl)
		if err != nil {
			return nil, err
		}
		switch t.Type {
		case ccslexer.PLUS:
			res = &ccsproc.Choice{Left: res, Right: rhs}
		case ccslexer.PIPE:
			res = &ccsproc.Parallel{Left: res, Right: rhs}
		case ccslexer.SEMI:
			res = &ccsproc.Sequential{Left: res, Right: rhs}
		}
	}
}

func (p *Parser) parseProcessAtom() (ccsproc.Term, error) {
	t := p.peek()
	t2 := p.peekAt(1)

	if t.Type == ccslexer.WHEN {
		p.advance()
		cond, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		next, err := p.parseProcess(procUnaryPrec)
		if err != nil {
			return nil, err
		}
		return &ccsproc.When{Cond: cond, Next: next}, nil
	}

	if t.Type == ccslexer.IDENT && (t2.Type == ccslexer.DOT || t2.Type == ccslexer.QUESTION || t2.Type == ccslexer.BANG) {
		act, err := p.parseAction()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(ccslexer.DOT, "`.`"); err != nil {
			return nil, err
		}
		next, err := p.parseProcess(procUnaryPrec)
		if err != nil {
			return nil, err
		}
		return &ccsproc.Prefix{Act: act, Next: next}, nil
	}

	return p.parsePrimaryProcess()
}

func (p *Parser) parsePrimaryProcess() (ccsproc.Term, error) {
	t := p.peek()
	switch {
	case t.Type == ccslexer.INT && t.Lexeme == "0":
		p.advance()
		return ccsproc.Null{}, nil
	case t.Type == ccslexer.INT && t.Lexeme == "1":
		p.advance()
		return ccsproc.Terminated{}, nil
	case t.Type == ccslexer.IDENT:
		p.advance()
		name := t.Lexeme
		var args []ccsexpr.Expr
		if p.peek().Type == ccslexer.LBRACKET {
			p.advance()
			arg, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			for p.peek().Type == ccslexer.COMMA {
				p.advance()
				arg, err := p.parseExpr(0)
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
			}
			if _, err := p.expect(ccslexer.RBRACKET, "`]`"); err != nil {
				return nil, err
			}
		}
		return &ccsproc.Call{Name: name, Args: args}, nil
	case t.Type == ccslexer.LPAREN:
		p.advance()
		inner, err := p.parseProcess(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(ccslexer.RPAREN, "`)`"); err != nil {
			return nil, err
		}
		return inner, nil
	case t.Type == ccslexer.EOF:
		return nil, p.errorAt(t, "unexpected end of file, expected `0`, `1`, identifier or `(`")
	default:
		return nil, p.errorAt(t, fmt.Sprintf("unexpected `%s`, expected `0`, `1`, identifier or `(`", t.Lexeme))
	}
}

func (p *Parser) parseRestrictionSet() ([]ccsaction.Action, bool, error) {
	var comp bool
	var set []ccsaction.Action

	t := p.peek()
	if t.Type == ccslexer.STAR {
		comp = true
		p.advance()
		t = p.peek()
	} else if t.Type != ccslexer.RBRACE {
		act, err := p.parseAction()
		if err != nil {
			return nil, false, err
		}
		set = append(set, act)
		t = p.peek()
	}

	for t.Type == ccslexer.COMMA {
		p.advance()
		act, err := p.parseAction()
		if err != nil {
			return nil, false, err
		}
		set = append(set, act)
		t = p.peek()
	}

	if t.Type == ccslexer.EOF {
		return nil, false, p.errorAt(t, "unexpected end of file, expected `}`")
	}
	if t.Type != ccslexer.RBRACE {
		return nil, false, p.errorAt(t, fmt.Sprintf("unexpected `%s`, expected `}`", t.Lexeme))
	}
	p.advance()
	return set, comp, nil
}

// sendValueStart reports whether t can start an expression given as a
// SEND action's value.
func sendValueStart(t ccslexer.Token) bool {
	switch t.Type {
	case ccslexer.IDENT, ccslexer.INT, ccslexer.LPAREN, ccslexer.PLUS, ccslexer.MINUS, ccslexer.BANG:
		return true
	default:
		return false
	}
}

// recvPatternStart are the token types that start a value-pattern
// expression after `?`, once the leading-identifier-as-bound-variable
// case has already been ruled out.
func recvPatternStart(t ccslexer.Token) bool {
	switch t.Type {
	case ccslexer.INT, ccslexer.LPAREN, ccslexer.PLUS, ccslexer.MINUS, ccslexer.BANG:
		return true
	default:
		return false
	}
}

func (p *Parser) parseAction() (ccsaction.Action, error) {
	t := p.peek()
	if t.Type == ccslexer.EOF {
		return ccsaction.Action{}, p.errorAt(t, "unexpected end of file, expected identifier")
	}
	if t.Type != ccslexer.IDENT {
		return ccsaction.Action{}, p.errorAt(t, fmt.Sprintf("unexpected `%s`, expected identifier", t.Lexeme))
	}
	p.advance()

	if t.Lexeme == "i" {
		return ccsaction.NewTau(), nil
	}
	if t.Lexeme == "e" {
		return ccsaction.NewDelta(), nil
	}
	name := t.Lexeme

	switch p.peek().Type {
	case ccslexer.BANG:
		p.advance()
		if sendValueStart(p.peek()) {
			val, err := p.parseExpr(0)
			if err != nil {
				return ccsaction.Action{}, err
			}
			return ccsaction.NewSend(name, nil, val), nil
		}
		return ccsaction.NewSend(name, nil, nil), nil

	case ccslexer.QUESTION:
		p.advance()
		next := p.peek()
		if next.Type == ccslexer.IDENT {
			p.advance()
			return ccsaction.NewRecv(name, nil, next.Lexeme, nil), nil
		}
		if recvPatternStart(next) {
			val, err := p.parseExpr(0)
			if err != nil {
				return ccsaction.Action{}, err
			}
			return ccsaction.NewRecv(name, nil, "", val), nil
		}
		return ccsaction.NewRecv(name, nil, "", nil), nil

	default:
		return ccsaction.NewNone(name), nil
	}
}
