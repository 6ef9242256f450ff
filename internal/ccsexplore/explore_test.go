package ccsexplore

import (
	"math/rand"
	"testing"

	"ccsvp/internal/ccsaction"
	"ccsvp/internal/ccsengine"
	"ccsvp/internal/ccsparser"
	"ccsvp/internal/ccsproc"
	"ccsvp/internal/ccsprog"
	"github.com/stretchr/testify/assert"
)

func mustParse(t *testing.T, src string) (ccsproc.Term, *ccsprog.Program) {
	t.Helper()
	prog, err := ccsparser.Parse("t", src)
	assert.NoError(t, err)
	return prog.Main, prog
}

func TestActionsCollectsHandshakeActions(t *testing.T) {
	main, prog := mustParse(t, "(a!.0 | a?.0)")
	acts, err := Actions(main, prog, Options{Depth: -1, Fold: true}, nil)
	assert.NoError(t, err)
	var names []string
	for _, a := range acts {
		names = append(names, a.String())
	}
	assert.Contains(t, names, "a!")
	assert.Contains(t, names, "a?")
	assert.Contains(t, names, "i")
}

func TestDeadFindsDeadlock(t *testing.T) {
	src := "p := a?x.when (x == 0) 1 + a?x.when (x != 0) 0\n(a!5.0 | p)\\{a}"
	main, prog := mustParse(t, src)
	path, err := Dead(main, prog, Options{Depth: -1, Fold: true}, nil)
	assert.NoError(t, err)
	assert.NotNil(t, path)
	assert.NotEmpty(t, path.Transitions, "the deadlock must be reached by at least one transition from the root")
}

func TestRandomWalksSequentialTermination(t *testing.T) {
	main, prog := mustParse(t, "(1; a.0)")
	path, err := Random(main, prog, Options{Depth: -1, Fold: true}, rand.New(rand.NewSource(1)), nil)
	assert.NoError(t, err)
	assert.Len(t, path.Transitions, 2)
	assert.Equal(t, ccsaction.Tau, path.Transitions[0].Act.Kind)
	assert.Equal(t, "a", path.Transitions[1].Act.Name)
	assert.Equal(t, ccsproc.Null{}, path.Transitions[1].To)
}

func TestTTRFindsTerminatingTraceAndCompletes(t *testing.T) {
	src := "p := a.(p + 1)\np"
	main, prog := mustParse(t, src)

	var traces [][]string
	err := TTR(main, prog, Options{Depth: 10, Fold: true}, func(ts []ccsengine.Transition) {
		var acts []string
		for _, tr := range ts {
			acts = append(acts, tr.Act.String())
		}
		traces = append(traces, acts)
	}, nil)
	assert.NoError(t, err)
	assert.Len(t, traces, 1)
	assert.Equal(t, []string{"a", "e"}, traces[0])
}

func TestGraphRendersDotWithStartAndTerminalNode(t *testing.T) {
	main, prog := mustParse(t, "a.0")
	dot, err := Graph(main, prog, Options{Depth: -1, Fold: true}, nil)
	assert.NoError(t, err)
	assert.Contains(t, dot, "digraph lts {")
	assert.Contains(t, dot, "start -> p0")
	assert.Contains(t, dot, "shape=box")
}

func TestLoggerWarnerNilLoggerIsNilWarner(t *testing.T) {
	assert.Nil(t, LoggerWarner(nil))
}

func TestPathStringCompactAndFullForms(t *testing.T) {
	main, prog := mustParse(t, "a.0")
	path, err := Random(main, prog, Options{Depth: -1, Fold: true}, rand.New(rand.NewSource(1)), nil)
	assert.NoError(t, err)
	assert.Equal(t, "[a] ~> 0", path.String(false))
	assert.Contains(t, path.String(true), "--(a)-->")
}
