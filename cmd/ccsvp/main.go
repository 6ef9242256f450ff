package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"time"

	"ccsvp/internal/ccsdiag"
	"ccsvp/internal/ccsengine"
	"ccsvp/internal/ccsexplore"
	"ccsvp/internal/ccsparser"
	"github.com/fatih/color"
	"github.com/tliron/commonlog"
)

func init() {
	commonlog.Configure(1, nil)
}

const usage = `usage: ccsvp [options] <command> [input-file]

commands:
  graph     print the reachable LTS as DOT
  actions   list every distinct action reachable from the main process
  dead      find and print a path to a deadlocked state
  random    walk one random path through the LTS
  ttr       enumerate terminating traces by iterative deepening
  echo      parse and reprint the program

options:
  -d, --depth N       max exploration depth (negative means unbounded, default -1)
  -i, --ignore-error  turn engine errors into warnings and continue
      --no-fold       disable constant folding during substitution
      --full-paths    print "p --(a)--> q" paths instead of "[a, ...] ~> q"
      --omit-names    omit term labels from graph nodes
  -h, --help          print this message

input-file defaults to standard input when absent or "-".
`

type config struct {
	command   string
	inputPath string
	depth     int
	ignore    bool
	fold      bool
	fullPaths bool
	omitNames bool
}

func main() {
	cfg, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cfg == nil {
		fmt.Print(usage)
		return
	}

	source, err := readInput(cfg.inputPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := run(cfg, source); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseArgs(args []string) (*config, error) {
	cfg := &config{depth: -1, fold: true}

	var positional []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch a {
		case "-h", "--help":
			return nil, nil
		case "-i", "--ignore-error":
			cfg.ignore = true
		case "--no-fold":
			cfg.fold = false
		case "--full-paths":
			cfg.fullPaths = true
		case "--omit-names":
			cfg.omitNames = true
		case "-d", "--depth":
			if i+1 >= len(args) {
				return nil, fmt.Errorf("%s requires an argument", a)
			}
			i++
			d, err := strconv.Atoi(args[i])
			if err != nil {
				return nil, fmt.Errorf("invalid depth %q: not an integer", args[i])
			}
			cfg.depth = d
		default:
			positional = append(positional, a)
		}
	}

	if len(positional) == 0 {
		return nil, fmt.Errorf("missing command")
	}
	cfg.command = positional[0]
	switch cfg.command {
	case "graph", "actions", "dead", "random", "ttr", "echo":
	default:
		return nil, fmt.Errorf("unknown command %q", cfg.command)
	}
	if len(positional) > 1 {
		cfg.inputPath = positional[1]
	}
	if len(positional) > 2 {
		return nil, fmt.Errorf("unexpected argument %q", positional[2])
	}
	return cfg, nil
}

func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading standard input: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(b), nil
}

func run(cfg *config, source string) error {
	filename := cfg.inputPath
	if filename == "" {
		filename = "<stdin>"
	}

	prog, err := ccsparser.Parse(filename, source)
	if err != nil {
		reportError(filename, source, err)
		return fmt.Errorf("parse failed")
	}

	if cfg.command == "echo" {
		fmt.Print(prog.String())
		return nil
	}

	opts := ccsexplore.Options{
		Depth:       cfg.depth,
		IgnoreError: cfg.ignore,
		Fold:        cfg.fold,
		OmitNames:   cfg.omitNames,
	}
	warner := ccsexplore.LoggerWarner(commonlog.GetLogger("ccsvp." + cfg.command))

	switch cfg.command {
	case "graph":
		dot, err := ccsexplore.Graph(prog.Main, prog, opts, warner)
		if err != nil {
			return err
		}
		fmt.Print(dot)

	case "actions":
		acts, err := ccsexplore.Actions(prog.Main, prog, opts, warner)
		if err != nil {
			return err
		}
		for _, a := range acts {
			fmt.Println(a.String())
		}

	case "dead":
		path, err := ccsexplore.Dead(prog.Main, prog, opts, warner)
		if err != nil {
			return err
		}
		if path == nil {
			fmt.Println("no deadlock found")
			return nil
		}
		fmt.Println(path.String(cfg.fullPaths))

	case "random":
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		path, err := ccsexplore.Random(prog.Main, prog, opts, rng, warner)
		if err != nil {
			return err
		}
		fmt.Println(path.String(cfg.fullPaths))

	case "ttr":
		err := ccsexplore.TTR(prog.Main, prog, opts, func(ts []ccsengine.Transition) {
			p := &ccsexplore.Path{Transitions: ts}
			fmt.Println(p.String(cfg.fullPaths))
		}, warner)
		if err != nil {
			return err
		}
	}
	return nil
}

// reportError prints a parse error with caret diagnostics when it carries
// a source position, falling back to a plain message otherwise.
func reportError(filename, source string, err error) {
	type positioned interface {
		Diagnostic() ccsdiag.Diagnostic
	}
	if pe, ok := err.(positioned); ok {
		r := ccsdiag.NewReporter(filename, source)
		fmt.Fprint(os.Stderr, r.Format(pe.Diagnostic()))
		return
	}
	color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "error: %s\n", err)
}
