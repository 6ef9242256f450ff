// Package ccsengine computes the operational semantics of process terms:
// given a term and the program it belongs to, it derives the set of
// transitions the term can perform.
package ccsengine

import (
	"fmt"
	"sort"

	"ccsvp/internal/ccsaction"
	"ccsvp/internal/ccsproc"
	"ccsvp/internal/ccsprog"
)

// Transition is a single labelled edge from From to To via Act.
type Transition struct {
	Act  ccsaction.Action
	From ccsproc.Term
	To   ccsproc.Term
}

func (t Transition) String() string {
	return t.From.String() + "   --( " + t.Act.String() + " )->   " + t.To.String()
}

// Compare orders transitions by action, then source, then target, giving
// the deterministic ordering used to dedupe and enumerate a term's edges.
func (t Transition) Compare(o Transition) int {
	if c := t.Act.Compare(o.Act); c != 0 {
		return c
	}
	if c := t.From.Compare(o.From); c != 0 {
		return c
	}
	return t.To.Compare(o.To)
}

// RecursionError reports unguarded recursion: a named process was entered
// a second time along the same derivation without an intervening action.
type RecursionError struct {
	Name string
	Term ccsproc.Term
}

func (e *RecursionError) Error() string {
	return fmt.Sprintf("unguarded recursion in process %q", e.Name)
}

// ProcessError reports any other failure while deriving transitions:
// an unrestricted input variable, or an expression error (unbound
// identifier, division by zero) surfacing from a guard, call argument
// or action value. A call to an undefined process is not an error; it
// has no transitions.
type ProcessError struct {
	Message string
	Term    ccsproc.Term
}

func (e *ProcessError) Error() string { return e.Message }

type seenSet map[string]struct{}

func (s seenSet) with(name string) seenSet {
	next := make(seenSet, len(s)+1)
	for k := range s {
		next[k] = struct{}{}
	}
	next[name] = struct{}{}
	return next
}

// Transitions computes every transition term can perform in prog, folding
// constant subexpressions when fold is true. It is the only entry point
// callers outside this package should use: it additionally rejects any
// resulting transition whose action still carries an unrestricted input
// variable, which internal recursive derivation alone cannot catch.
func Transitions(term ccsproc.Term, prog *ccsprog.Program, fold bool) ([]Transition, error) {
	res, err := transitions(term, prog, fold, seenSet{})
	if err != nil {
		return nil, err
	}
	for _, t := range res {
		if t.Act.Kind == ccsaction.Recv && t.Act.Input != "" {
			return nil, &ProcessError{
				Term:    t.To,
				Message: fmt.Sprintf("unrestricted input variable `%s`", t.Act.Input),
			}
		}
	}
	return res, nil
}

func transitions(term ccsproc.Term, prog *ccsprog.Program, fold bool, seen seenSet) ([]Transition, error) {
	switch p := term.(type) {
	case ccsproc.Null:
		return nil, nil

	case ccsproc.Terminated:
		return []Transition{{Act: ccsaction.NewDelta(), From: p, To: ccsproc.Null{}}}, nil

	case *ccsproc.Call:
		return callTransitions(p, prog, fold, seen)

	case *ccsproc.Prefix:
		return prefixTransitions(p)

	case *ccsproc.Choice:
		return branchTransitions(p, p.Left, p.Right, prog, fold, seen)

	case *ccsproc.Parallel:
		return parallelTransitions(p, prog, fold, seen)

	case *ccsproc.Restrict:
		return restrictTransitions(p, prog, fold, seen)

	case *ccsproc.Sequential:
		return sequentialTransitions(p, prog, fold, seen)

	case *ccsproc.When:
		return whenTransitions(p, prog, fold, seen)

	default:
		return nil, fmt.Errorf("ccsengine: unknown term type %T", term)
	}
}

func callTransitions(p *ccsproc.Call, prog *ccsprog.Program, fold bool, seen seenSet) ([]Transition, error) {
	args := make([]int, len(p.Args))
	for i, a := range p.Args {
		v, err := a.Eval()
		if err != nil {
			return nil, &ProcessError{Term: p, Message: err.Error()}
		}
		args[i] = v
	}

	body, ok := prog.Instantiate(p.Name, args, fold)
	if !ok {
		// Unknown name or arity mismatch: no such process, so it has no
		// transitions rather than aborting the derivation.
		return nil, nil
	}

	if _, already := seen[p.Name]; already {
		return nil, &RecursionError{Name: p.Name, Term: p}
	}

	sub, err := transitions(body, prog, fold, seen.with(p.Name))
	if err != nil {
		return nil, err
	}

	res := make([]Transition, len(sub))
	for i, t := range sub {
		res[i] = Transition{Act: t.Act, From: p, To: t.To}
	}
	return dedupe(res), nil
}

func prefixTransitions(p *ccsproc.Prefix) ([]Transition, error) {
	act := p.Act
	if act.Param != nil || act.Value != nil {
		act2, err := act.Normalize()
		if err != nil {
			return nil, &ProcessError{Term: p, Message: err.Error()}
		}
		act = act2
	}
	return []Transition{{Act: act, From: p, To: p.Next}}, nil
}

func branchTransitions(owner ccsproc.Term, left, right ccsproc.Term, prog *ccsprog.Program, fold bool, seen seenSet) ([]Transition, error) {
	resl, err := transitions(left, prog, fold, seen)
	if err != nil {
		return nil, err
	}
	resr, err := transitions(right, prog, fold, seen)
	if err != nil {
		return nil, err
	}
	res := make([]Transition, 0, len(resl)+len(resr))
	for _, t := range resl {
		res = append(res, Transition{Act: t.Act, From: owner, To: t.To})
	}
	for _, t := range resr {
		res = append(res, Transition{Act: t.Act, From: owner, To: t.To})
	}
	return dedupe(res), nil
}

func parallelTransitions(p *ccsproc.Parallel, prog *ccsprog.Program, fold bool, seen seenSet) ([]Transition, error) {
	resl, err := transitions(p.Left, prog, fold, seen)
	if err != nil {
		return nil, err
	}
	resr, err := transitions(p.Right, prog, fold, seen)
	if err != nil {
		return nil, err
	}

	var res []Transition

	for _, t := range resl {
		if t.Act.Kind == ccsaction.Delta {
			continue
		}
		res = append(res, Transition{Act: t.Act, From: p, To: &ccsproc.Parallel{Left: t.To, Right: p.Right}})
	}

	for _, t := range resr {
		if t.Act.Kind == ccsaction.Delta {
			continue
		}
		res = append(res, Transition{Act: t.Act, From: p, To: &ccsproc.Parallel{Left: p.Left, Right: t.To}})
	}

	for _, t := range resl {
		if t.Act.Kind != ccsaction.Send && t.Act.Kind != ccsaction.Recv {
			continue
		}
		for _, t2 := range resr {
			if t2.Act.Kind != ccsaction.Send && t2.Act.Kind != ccsaction.Recv {
				continue
			}
			if !t.Act.Plain().Equal(t2.Act.Plain().Complement()) {
				continue
			}
			send, recv := &t, &t2
			if t.Act.Kind == ccsaction.Recv {
				send, recv = &t2, &t
			}

			switch {
			case send.Act.Value == nil && recv.Act.Input == "" && recv.Act.Value == nil:
				res = append(res, Transition{
					Act:  ccsaction.NewTau(),
					From: p,
					To:   &ccsproc.Parallel{Left: t.To, Right: t2.To},
				})
			case send.Act.Value != nil && recv.Act.Input != "":
				v, err := send.Act.Value.Eval()
				if err != nil {
					return nil, &ProcessError{Term: p, Message: err.Error()}
				}
				to := recv.To.Subst(recv.Act.Input, v, fold)
				var left, right ccsproc.Term
				if send == &t {
					left, right = t.To, to
				} else {
					left, right = to, t2.To
				}
				res = append(res, Transition{
					Act:  ccsaction.NewTau(),
					From: p,
					To:   &ccsproc.Parallel{Left: left, Right: right},
				})
			case send.Act.Value != nil && recv.Act.Value != nil:
				sv, err := send.Act.Value.Eval()
				if err != nil {
					return nil, &ProcessError{Term: p, Message: err.Error()}
				}
				rv, err := recv.Act.Value.Eval()
				if err != nil {
					return nil, &ProcessError{Term: p, Message: err.Error()}
				}
				if sv == rv {
					res = append(res, Transition{
						Act:  ccsaction.NewTau(),
						From: p,
						To:   &ccsproc.Parallel{Left: t.To, Right: t2.To},
					})
				}
			}
		}
	}

	for _, t := range resl {
		if t.Act.Kind != ccsaction.Delta {
			continue
		}
		for _, t2 := range resr {
			if t2.Act.Kind != ccsaction.Delta {
				continue
			}
			res = append(res, Transition{Act: t.Act, From: p, To: &ccsproc.Parallel{Left: t.To, Right: t2.To}})
			break
		}
		break
	}

	return dedupe(res), nil
}

func restrictTransitions(p *ccsproc.Restrict, prog *ccsprog.Program, fold bool, seen seenSet) ([]Transition, error) {
	sub, err := transitions(p.Next, prog, fold, seen)
	if err != nil {
		return nil, err
	}
	var res []Transition
	for _, t := range sub {
		if t.Act.Kind != ccsaction.Tau && t.Act.Kind != ccsaction.Delta {
			inSet := p.Contains(t.Act.Plain(), t.Act.AsNone())
			if inSet != p.Complement {
				continue
			}
		}
		res = append(res, Transition{
			Act:  t.Act,
			From: p,
			To:   &ccsproc.Restrict{Next: t.To, Set: p.Set, Complement: p.Complement},
		})
	}
	return dedupe(res), nil
}

func sequentialTransitions(p *ccsproc.Sequential, prog *ccsprog.Program, fold bool, seen seenSet) ([]Transition, error) {
	sub, err := transitions(p.Left, prog, fold, seen)
	if err != nil {
		return nil, err
	}
	res := make([]Transition, 0, len(sub))
	for _, t := range sub {
		if t.Act.Kind == ccsaction.Delta {
			res = append(res, Transition{Act: ccsaction.NewTau(), From: p, To: p.Right})
		} else {
			res = append(res, Transition{Act: t.Act, From: p, To: &ccsproc.Sequential{Left: t.To, Right: p.Right}})
		}
	}
	return dedupe(res), nil
}

func whenTransitions(p *ccsproc.When, prog *ccsprog.Program, fold bool, seen seenSet) ([]Transition, error) {
	v, err := p.Cond.Eval()
	if err != nil {
		return nil, &ProcessError{Term: p, Message: err.Error()}
	}
	if v == 0 {
		return nil, nil
	}
	return branchTransitions(p, p.Next, ccsproc.Null{}, prog, fold, seen)
}

// dedupe sorts transitions by Compare and removes consecutive duplicates,
// emulating an std::set<CCSTransition>'s ordered, unique membership.
func dedupe(ts []Transition) []Transition {
	if len(ts) == 0 {
		return ts
	}
	sort.Slice(ts, func(i, j int) bool { return ts[i].Compare(ts[j]) < 0 })
	out := ts[:1]
	for _, t := range ts[1:] {
		if out[len(out)-1].Compare(t) != 0 {
			out = append(out, t)
		}
	}
	return out
}
