package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/pkg/errors"
	"github.com/vkngwrapper/memsim/memutils/metadata"
	"github.com/vkngwrapper/memsim/memutils/replacement"
	"github.com/vkngwrapper/memsim/scenario"
	"github.com/vkngwrapper/memsim/sim"
	"golang.org/x/exp/slog"
)

// memsim runs a scenario script against a fresh memory simulation and prints the result of
// every command followed by a memory map.
//
// Usage:
//
//	memsim [flags] [script]
//
// The script is read from stdin when no path (or "-") is given.
// Flags:
//
//	-memory     physical memory in KB (default 100)
//	-page-size  frame size in KB; 0 simulates contiguous memory
//	-strategy   first-fit, best-fit, worst-fit, or next-fit
//	-policy     lru, fifo, or clock
//	-json       print snapshots as json instead of text maps
//	-watch      rerun the script every time it changes
//	-log-level  debug, info, warn, or error
func main() {
	var (
		totalMemory  int
		pageSize     int
		strategyName string
		policyName   string
		jsonOutput   bool
		watch        bool
		logLevel     string
	)
	flag.IntVar(&totalMemory, "memory", sim.DefaultTotalMemory, "physical memory in KB")
	flag.IntVar(&pageSize, "page-size", 0, "frame size in KB, 0 for contiguous memory")
	flag.StringVar(&strategyName, "strategy", sim.DefaultStrategy.String(), "fit strategy: first-fit, best-fit, worst-fit, next-fit")
	flag.StringVar(&policyName, "policy", sim.DefaultPolicy.String(), "replacement policy: lru, fifo, clock")
	flag.BoolVar(&jsonOutput, "json", false, "print snapshots as json")
	flag.BoolVar(&watch, "watch", false, "rerun the script whenever it changes")
	flag.StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flag.Parse()

	logger, err := newLogger(logLevel)
	if err != nil {
		fail(err)
	}

	strategy, err := metadata.ParseFitStrategy(strategyName)
	if err != nil {
		fail(err)
	}

	policy, err := replacement.ParsePolicy(policyName)
	if err != nil {
		fail(err)
	}

	if flag.NArg() > 1 {
		fail(errors.New("at most one script may be given"))
	}
	path := flag.Arg(0)

	cli := &runner{
		logger: logger,
		engineOptions: sim.CreateOptions{
			TotalMemory: totalMemory,
			PageSize:    pageSize,
			Strategy:    strategy,
			Policy:      policy,
			Flags:       sim.EngineCreateExternallySynchronized,
		},
		runnerOptions: scenario.RunnerOptions{
			JSON:     jsonOutput,
			MapWidth: terminalWidth(os.Stdout) - 2,
		},
		out: os.Stdout,
	}

	if !watch {
		err = cli.runPath(path)
		if err != nil {
			fail(err)
		}
		return
	}

	if path == "" || path == "-" {
		fail(errors.New("-watch needs a script path"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = watchScript(ctx, logger, path, func() {
		err := cli.runPath(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	})
	if err != nil {
		fail(err)
	}
}

type runner struct {
	logger        *slog.Logger
	engineOptions sim.CreateOptions
	runnerOptions scenario.RunnerOptions
	out           io.Writer
}

// runPath runs the script at path against a new engine. An empty path or "-" reads stdin.
func (r *runner) runPath(path string) error {
	var input io.Reader = os.Stdin
	if path != "" && path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return errors.Wrap(err, "failed to open script")
		}
		defer file.Close()
		input = file
	}

	script, err := scenario.Parse(input)
	if err != nil {
		return err
	}

	engine, err := sim.New(r.logger, r.engineOptions)
	if err != nil {
		return err
	}

	return scenario.NewRunner(r.logger, engine, r.out, r.runnerOptions).Run(script)
}

func newLogger(level string) (*slog.Logger, error) {
	var leveler slog.Level
	switch strings.ToLower(level) {
	case "debug":
		leveler = slog.LevelDebug
	case "info":
		leveler = slog.LevelInfo
	case "warn":
		leveler = slog.LevelWarn
	case "error":
		leveler = slog.LevelError
	default:
		return nil, errors.Errorf("unknown log level %q", level)
	}

	return slog.New(slog.HandlerOptions{Level: leveler}.NewTextHandler(os.Stderr)), nil
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "memsim:", err)
	os.Exit(1)
}
