// Package ccsexplore drives the five exploration commands (graph, actions,
// dead, random, ttr) over the labelled transition system a process term
// denotes, using ccsengine as the sole source of one-step transitions.
package ccsexplore

import (
	"fmt"
	"math/rand"
	"strings"

	"ccsvp/internal/ccsaction"
	"ccsvp/internal/ccsengine"
	"ccsvp/internal/ccsproc"
	"ccsvp/internal/ccsprog"
	"github.com/tliron/commonlog"
)

// Options controls a single exploration run.
type Options struct {
	Depth       int // negative means unbounded
	IgnoreError bool
	Fold        bool
	OmitNames   bool
}

// Warner receives one message per engine error swallowed under
// IgnoreError; the command layer wires this to a commonlog.Logger.
type Warner func(term ccsproc.Term, err error)

// LoggerWarner adapts a commonlog.Logger into a Warner, logging each
// swallowed engine error at warning level with the offending term.
func LoggerWarner(log commonlog.Logger) Warner {
	if log == nil {
		return nil
	}
	return func(term ccsproc.Term, err error) {
		log.Warningf("%s: %s", term.String(), err)
	}
}

func warn(w Warner, term ccsproc.Term, err error) {
	if w != nil {
		w(term, err)
	}
}

func depthCut(opts Options, depth int) bool {
	return opts.Depth >= 0 && depth >= opts.Depth
}

// Path is a sequence of transitions from a common root, as produced by
// Dead, Random and a single leaf of TTR.
type Path struct {
	Transitions []ccsengine.Transition
}

// String renders the path either compactly ("[a, b] ~> q") or, when full
// is set, as the expanded "p --(a)--> q --(b)--> ..." form.
func (p *Path) String(full bool) string {
	if p == nil || len(p.Transitions) == 0 {
		return ""
	}
	if full {
		var sb strings.Builder
		sb.WriteString(p.Transitions[0].From.String())
		for _, t := range p.Transitions {
			sb.WriteString(" --(")
			sb.WriteString(t.Act.String())
			sb.WriteString(")--> ")
			sb.WriteString(t.To.String())
		}
		return sb.String()
	}
	acts := make([]string, len(p.Transitions))
	for i, t := range p.Transitions {
		acts[i] = t.Act.String()
	}
	last := p.Transitions[len(p.Transitions)-1].To
	return "[" + strings.Join(acts, ", ") + "] ~> " + last.String()
}

// --- actions ---

// Actions performs a breadth-first walk from main and returns every
// distinct action seen, in the order it was first encountered.
func Actions(main ccsproc.Term, prog *ccsprog.Program, opts Options, w Warner) ([]ccsaction.Action, error) {
	type queued struct {
		term  ccsproc.Term
		depth int
	}

	seenTerms := map[string]bool{main.String(): true}
	seenActs := map[string]bool{}
	var acts []ccsaction.Action

	queue := []queued{{main, 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if depthCut(opts, cur.depth) {
			continue
		}

		ts, err := ccsengine.Transitions(cur.term, prog, opts.Fold)
		if err != nil {
			if opts.IgnoreError {
				warn(w, cur.term, err)
				continue
			}
			return nil, err
		}

		for _, t := range ts {
			ak := t.Act.String()
			if !seenActs[ak] {
				seenActs[ak] = true
				acts = append(acts, t.Act)
			}
			tk := t.To.String()
			if !seenTerms[tk] {
				seenTerms[tk] = true
				queue = append(queue, queued{t.To, cur.depth + 1})
			}
		}
	}
	return acts, nil
}

// --- graph ---

type nodeInfo struct {
	term     ccsproc.Term
	terminal bool
	errored  bool
	frontier bool
}

// Graph performs a breadth-first walk from main and renders the reached
// portion of the LTS as DOT source.
func Graph(main ccsproc.Term, prog *ccsprog.Program, opts Options, w Warner) (string, error) {
	type queued struct {
		id    int
		term  ccsproc.Term
		depth int
	}

	ids := map[string]int{}
	var order []*nodeInfo

	getID := func(t ccsproc.Term) (int, bool) {
		k := t.String()
		id, ok := ids[k]
		if ok {
			return id, false
		}
		id = len(order)
		ids[k] = id
		order = append(order, &nodeInfo{term: t})
		return id, true
	}

	var edges []string

	rootID, _ := getID(main)
	queue := []queued{{rootID, main, 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		node := order[cur.id]

		if depthCut(opts, cur.depth) {
			node.frontier = true
			continue
		}

		ts, err := ccsengine.Transitions(cur.term, prog, opts.Fold)
		if err != nil {
			node.errored = true
			if opts.IgnoreError {
				warn(w, cur.term, err)
				continue
			}
			return "", err
		}

		if len(ts) == 0 {
			node.terminal = true
			continue
		}

		for _, t := range ts {
			toID, isNew := getID(t.To)
			edges = append(edges, fmt.Sprintf("  p%d -> p%d [label=%s]", cur.id, toID, dotQuote(t.Act.String())))
			if isNew {
				queue = append(queue, queued{toID, t.To, cur.depth + 1})
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("digraph lts {\n")
	sb.WriteString("  start [shape=point]\n")
	sb.WriteString("  start -> p0\n")
	for i, n := range order {
		var attrs []string
		if !opts.OmitNames {
			attrs = append(attrs, "label="+dotQuote(n.term.String()))
		}
		if n.terminal {
			attrs = append(attrs, "shape=box")
		}
		if n.errored {
			attrs = append(attrs, "color=red")
		}
		if n.frontier {
			attrs = append(attrs, "style=dashed")
		}
		sb.WriteString(fmt.Sprintf("  p%d", i))
		if len(attrs) > 0 {
			sb.WriteString(" [" + strings.Join(attrs, ",") + "]")
		}
		sb.WriteString("\n")
	}
	for _, e := range edges {
		sb.WriteString(e + "\n")
	}
	sb.WriteString("}\n")
	return sb.String(), nil
}

func dotQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// --- dead ---

type predEntry struct {
	from ccsproc.Term
	act  ccsaction.Action
}

// Dead performs a breadth-first walk from main and returns the path to the
// first term reached with no outgoing transitions, or nil if none is found
// within the depth bound.
func Dead(main ccsproc.Term, prog *ccsprog.Program, opts Options, w Warner) (*Path, error) {
	type queued struct {
		term  ccsproc.Term
		depth int
	}

	pred := map[string]predEntry{}
	seen := map[string]bool{main.String(): true}
	queue := []queued{{main, 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if depthCut(opts, cur.depth) {
			continue
		}

		ts, err := ccsengine.Transitions(cur.term, prog, opts.Fold)
		if err != nil {
			if opts.IgnoreError {
				warn(w, cur.term, err)
				continue
			}
			return nil, err
		}

		if len(ts) == 0 {
			return reconstructPath(pred, main, cur.term), nil
		}

		for _, t := range ts {
			tk := t.To.String()
			if !seen[tk] {
				seen[tk] = true
				pred[tk] = predEntry{from: cur.term, act: t.Act}
				queue = append(queue, queued{t.To, cur.depth + 1})
			}
		}
	}
	return nil, nil
}

func reconstructPath(pred map[string]predEntry, root, dead ccsproc.Term) *Path {
	var rev []ccsengine.Transition
	cur := dead
	for cur.String() != root.String() {
		p := pred[cur.String()]
		rev = append(rev, ccsengine.Transition{Act: p.act, From: p.from, To: cur})
		cur = p.from
	}
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return &Path{Transitions: rev}
}

// --- random ---

// Random walks one path from main, choosing uniformly among the current
// term's transitions at each step, until no transitions remain or the
// depth bound is reached.
func Random(main ccsproc.Term, prog *ccsprog.Program, opts Options, rng *rand.Rand, w Warner) (*Path, error) {
	var path []ccsengine.Transition
	cur := main
	depth := 0
	for {
		if depthCut(opts, depth) {
			break
		}
		ts, err := ccsengine.Transitions(cur, prog, opts.Fold)
		if err != nil {
			if opts.IgnoreError {
				warn(w, cur, err)
				break
			}
			return nil, err
		}
		if len(ts) == 0 {
			break
		}
		pick := ts[rng.Intn(len(ts))]
		path = append(path, pick)
		cur = pick.To
		depth++
	}
	return &Path{Transitions: path}, nil
}

// --- ttr ---

// TTR performs iterative-deepening depth-first search for terminating
// traces, calling emit with each newly discovered trace's transitions.
// It stops either when the depth bound given in opts is exhausted or when
// a full round completes with every branch cut by termination or the
// per-branch cycle guard and none by the depth bound — signalling that no
// new traces would appear at any greater depth.
func TTR(main ccsproc.Term, prog *ccsprog.Program, opts Options, emit func([]ccsengine.Transition), w Warner) error {
	printed := map[string]bool{}
	bounded := opts.Depth >= 0

	for d := 0; !bounded || d <= opts.Depth; d++ {
		completed, err := ttrDFS(main, prog, opts.Fold, d, nil, []ccsproc.Term{main}, printed, emit, w, opts.IgnoreError)
		if err != nil {
			return err
		}
		if completed {
			return nil
		}
	}
	return nil
}

func ttrDFS(
	term ccsproc.Term,
	prog *ccsprog.Program,
	fold bool,
	maxDepth int,
	path []ccsengine.Transition,
	visited []ccsproc.Term,
	printed map[string]bool,
	emit func([]ccsengine.Transition),
	w Warner,
	ignoreError bool,
) (bool, error) {
	ts, err := ccsengine.Transitions(term, prog, fold)
	if err != nil {
		if ignoreError {
			warn(w, term, err)
			return true, nil
		}
		return false, err
	}

	if len(ts) == 0 {
		key := traceKey(path)
		if !printed[key] {
			printed[key] = true
			emit(append([]ccsengine.Transition(nil), path...))
		}
		return true, nil
	}

	if len(path) >= maxDepth {
		return false, nil
	}

	completed := true
	for _, t := range ts {
		if containsTerm(visited, t.To) {
			// cut by the cycle guard, not by depth: doesn't cost completeness.
			continue
		}
		childCompleted, err := ttrDFS(
			t.To, prog, fold, maxDepth,
			withTransition(path, t), withTerm(visited, t.To),
			printed, emit, w, ignoreError,
		)
		if err != nil {
			return false, err
		}
		if !childCompleted {
			completed = false
		}
	}
	return completed, nil
}

func traceKey(path []ccsengine.Transition) string {
	var sb strings.Builder
	for _, t := range path {
		sb.WriteString(t.Act.String())
		sb.WriteByte('|')
	}
	return sb.String()
}

func containsTerm(set []ccsproc.Term, t ccsproc.Term) bool {
	for _, v := range set {
		if v.Compare(t) == 0 {
			return true
		}
	}
	return false
}

func withTerm(set []ccsproc.Term, t ccsproc.Term) []ccsproc.Term {
	next := make([]ccsproc.Term, len(set)+1)
	copy(next, set)
	next[len(set)] = t
	return next
}

func withTransition(path []ccsengine.Transition, t ccsengine.Transition) []ccsengine.Transition {
	next := make([]ccsengine.Transition, len(path)+1)
	copy(next, path)
	next[len(path)] = t
	return next
}
