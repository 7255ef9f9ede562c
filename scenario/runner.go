package scenario

import (
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/memsim/memutils/defrag"
	"github.com/vkngwrapper/memsim/sim"
	"golang.org/x/exp/slog"
)

const defaultMapWidth = 64

// RunnerOptions contains optional settings for a Runner
type RunnerOptions struct {
	// JSON writes snapshots as json documents instead of text memory maps
	JSON bool
	// MapWidth is the number of columns of the text memory map. 0 uses a default width.
	MapWidth int
}

// Runner applies scenario commands to an engine and writes one line per result, plus a
// snapshot wherever the script asks for one and once at the end
type Runner struct {
	logger  *slog.Logger
	engine  *sim.Engine
	out     io.Writer
	options RunnerOptions
}

// NewRunner creates a Runner that drives engine and writes to out
func NewRunner(logger *slog.Logger, engine *sim.Engine, out io.Writer, options RunnerOptions) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard))
	}

	if options.MapWidth <= 0 {
		options.MapWidth = defaultMapWidth
	}

	return &Runner{
		logger:  logger,
		engine:  engine,
		out:     out,
		options: options,
	}
}

// Run applies every command of script in order. Rejected admissions and operations on unknown
// processes are reported in the output and do not stop the run. A reset or configure command
// the engine refuses ends the run with an error.
func (r *Runner) Run(script *Script) error {
	for _, command := range script.Commands {
		err := r.apply(command)
		if err != nil {
			return errors.Wrapf(err, "line %d", command.Line)
		}
	}

	return r.WriteSnapshot()
}

func (r *Runner) apply(command Command) error {
	r.logger.Debug("Runner::apply", slog.Int("Line", command.Line), slog.String("Op", command.Op.String()))

	switch command.Op {
	case OpReset:
		err := r.engine.Reset(command.TotalMemory, command.PageSize)
		if err != nil {
			return err
		}

		if command.PageSize > 0 {
			return r.printf("reset %d KB, %d KB pages\n", command.TotalMemory, command.PageSize)
		}
		return r.printf("reset %d KB contiguous\n", command.TotalMemory)
	case OpConfigure:
		err := r.engine.Configure(command.Strategy, command.Policy)
		if err != nil {
			return err
		}

		return r.printf("configure %s %s\n", command.Strategy, command.Policy)
	case OpAdmit:
		result, _ := r.engine.AdmitText(command.Name, command.Size)
		return r.printf("%s\n", describeAdmission(command, result))
	case OpRelease:
		return r.report(command, r.engine.Release(command.Name))
	case OpReference:
		return r.report(command, r.engine.Reference(command.Name))
	case OpModify:
		if r.engine.Modify(command.Name) {
			return r.report(command, true)
		}

		state, ok := r.engine.Lookup(command.Name)
		if ok {
			return r.printf("%s %s: process is %s\n", command.Op, command.Name, state)
		}
		return r.report(command, false)
	case OpSnapshot:
		return r.WriteSnapshot()
	case OpCompact:
		result, err := r.engine.Compact(defrag.DefragmentationInfo{Algorithm: command.Algorithm})
		if err != nil {
			return err
		}

		return r.printf("%s\n", describeCompaction(result))
	default:
		return errors.Newf("unknown op %d", command.Op)
	}
}

func (r *Runner) report(command Command, ok bool) error {
	if !ok {
		err := errors.Wrapf(sim.ErrNotFound, "%s %s", command.Op, command.Name)
		return r.printf("%s\n", err)
	}

	state, _ := r.engine.Lookup(command.Name)
	if command.Op == OpRelease {
		state = sim.ProcessReleased
	}

	return r.printf("%s %s: %s\n", command.Op, command.Name, state)
}

func describeAdmission(command Command, result sim.AdmissionResult) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "admit %s %s: %s", command.Name, command.Size, result.Residency)

	if result.Residency != sim.ResidencyResident && result.Reason != nil {
		fmt.Fprintf(&builder, " (%s)", result.Reason)
	}

	if len(result.Evicted) > 0 {
		fmt.Fprintf(&builder, ", evicted %s", strings.Join(result.Evicted, " "))
	}

	if len(result.Promoted) > 0 {
		fmt.Fprintf(&builder, ", promoted %s", strings.Join(result.Promoted, " "))
	}

	return builder.String()
}

func describeCompaction(result sim.CompactionResult) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "compact: moved %d processes (%d KB) in %d passes",
		result.Stats.AllocationsMoved, result.Stats.BytesMoved, result.Stats.PassCount)

	if len(result.Promoted) > 0 {
		fmt.Fprintf(&builder, ", promoted %s", strings.Join(result.Promoted, " "))
	}

	return builder.String()
}

// WriteSnapshot writes the engine's current state as a text memory map or a json document
func (r *Runner) WriteSnapshot() error {
	snapshot := r.engine.Snapshot()

	if r.options.JSON {
		writer := jwriter.NewWriter()
		snapshot.WriteJSON(&writer)
		if writer.Error() != nil {
			return writer.Error()
		}

		_, err := r.out.Write(append(writer.Bytes(), '\n'))
		return err
	}

	_, err := io.WriteString(r.out, RenderMap(snapshot, r.options.MapWidth))
	return err
}

func (r *Runner) printf(format string, args ...any) error {
	_, err := fmt.Fprintf(r.out, format, args...)
	return err
}
