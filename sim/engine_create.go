package sim

import (
	"io"
	"strings"

	"github.com/vkngwrapper/memsim/memutils/metadata"
	"github.com/vkngwrapper/memsim/memutils/replacement"
	"golang.org/x/exp/slog"
)

// CreateFlags indicate specific engine behaviors to activate or deactivate
type CreateFlags int32

var engineCreateFlagsMapping = map[CreateFlags]string{
	EngineCreateExternallySynchronized: "EngineCreateExternallySynchronized",
}

func (f CreateFlags) String() string {
	var names []string
	for flag, name := range engineCreateFlagsMapping {
		if f&flag != 0 {
			names = append(names, name)
		}
	}

	return strings.Join(names, "|")
}

const (
	// EngineCreateExternallySynchronized ensures that the engine will not be synchronized
	// internally. The consumer must guarantee it is used from only one goroutine at a time or is
	// synchronized by some other mechanism.
	EngineCreateExternallySynchronized CreateFlags = 1 << iota
)

const (
	// DefaultTotalMemory is the capacity in KB used when CreateOptions.TotalMemory is 0
	DefaultTotalMemory int = 100
	// DefaultStrategy is the fit strategy used when CreateOptions.Strategy is 0
	DefaultStrategy = metadata.FitFirst
	// DefaultPolicy is the replacement policy used when CreateOptions.Policy is 0
	DefaultPolicy = replacement.PolicyLRU
)

// CreateOptions contains optional settings when creating an engine. It is valid to leave all
// the fields blank.
type CreateOptions struct {
	// Flags indicates specific engine behaviors to activate or deactivate
	Flags CreateFlags

	// TotalMemory is the capacity of physical memory in KB
	TotalMemory int
	// PageSize switches the engine to paged memory with frames of this many KB. It must evenly
	// divide TotalMemory. 0 selects contiguous memory.
	PageSize int

	// Strategy chooses the free region for contiguous placements
	Strategy metadata.FitStrategy
	// Policy chooses eviction victims
	Policy replacement.Policy
}

// New creates a new Engine with empty memory and an empty swap area
//
// logger - Receives debug traces of every operation. nil discards them.
//
// options - Optional parameters: it is valid to leave all the fields blank
func New(logger *slog.Logger, options CreateOptions) (*Engine, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard))
	}

	engine := &Engine{
		logger:   logger,
		strategy: options.Strategy,
		selector: replacement.NewSelector(options.Policy),
	}
	engine.mutex.UseMutex = options.Flags&EngineCreateExternallySynchronized == 0

	if engine.strategy == 0 {
		engine.strategy = DefaultStrategy
	}

	if engine.selector.Policy == 0 {
		engine.selector.Policy = DefaultPolicy
	}

	err := engine.Configure(engine.strategy, engine.selector.Policy)
	if err != nil {
		return nil, err
	}

	totalMemory := options.TotalMemory
	if totalMemory == 0 {
		totalMemory = DefaultTotalMemory
	}

	err = engine.Reset(totalMemory, options.PageSize)
	if err != nil {
		return nil, err
	}

	return engine, nil
}
