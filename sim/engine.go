package sim

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/memsim/memutils"
	"github.com/vkngwrapper/memsim/memutils/metadata"
	"github.com/vkngwrapper/memsim/memutils/replacement"
	"github.com/vkngwrapper/memsim/sim/internal/utils"
	"golang.org/x/exp/slog"
)

// Engine is a single memory simulation. It owns physical memory (contiguous or paged), the
// swap area, the registry of live processes, the logical clock, and the replacement policy's
// state. Independent engines share nothing, so any number of simulations may run side by side.
//
// Every operation runs to completion before it returns and either commits its whole state
// transition or leaves the engine unchanged.
type Engine struct {
	logger *slog.Logger
	mutex  utils.OptionalRWMutex

	strategy metadata.FitStrategy
	selector *replacement.Selector

	totalMemory int
	pageSize    int
	metadata    metadata.BlockMetadata
	registry    processRegistry
	swap        swapArea
	clock       uint64
}

// Configure selects the fit strategy used for contiguous placement and the policy used to
// choose eviction victims. Memory, swap, and the clock are left alone; call Reset to start a
// new run.
func (e *Engine) Configure(strategy metadata.FitStrategy, policy replacement.Policy) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.logger.Debug("Engine::Configure", slog.String("Strategy", strategy.String()), slog.String("Policy", policy.String()))

	if !strategy.Valid() {
		return errors.Wrapf(ErrInvalidInput, "unknown fit strategy %d", strategy)
	}

	if !policy.Valid() {
		return errors.Wrapf(ErrInvalidInput, "unknown replacement policy %d", policy)
	}

	e.strategy = strategy
	e.selector.Policy = policy
	return nil
}

// Reset re-initializes memory with totalMemory KB. A pageSize of 0 selects contiguous memory
// made of a single free region; any other pageSize selects paged memory of
// totalMemory / pageSize free frames and must evenly divide totalMemory. Every process is
// forgotten, and the clock and the Clock hand return to 0.
func (e *Engine) Reset(totalMemory, pageSize int) error {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.logger.Debug("Engine::Reset", slog.Int("TotalMemory", totalMemory), slog.Int("PageSize", pageSize))

	if totalMemory <= 0 {
		return errors.Wrapf(ErrInvalidInput, "memory size must be positive, got %d", totalMemory)
	}

	var md metadata.BlockMetadata
	if pageSize == 0 {
		md = metadata.NewContiguousBlockMetadata()
	} else {
		err := memutils.CheckPageSize(totalMemory, pageSize)
		if err != nil {
			return errors.Mark(err, ErrInvalidInput)
		}

		md = metadata.NewPagedBlockMetadata(pageSize)
	}
	md.Init(totalMemory)

	e.totalMemory = totalMemory
	e.pageSize = pageSize
	e.metadata = md
	e.registry.Init()
	e.swap.clear()
	e.clock = 0
	e.selector.Reset()

	return nil
}

// TotalMemory returns the capacity of physical memory in KB
func (e *Engine) TotalMemory() int {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	return e.totalMemory
}

// PageSize returns the frame size in KB, or 0 for contiguous memory
func (e *Engine) PageSize() int {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	return e.pageSize
}

// Admit registers a new process of size KB and tries to make it resident. Direct placement is
// tried first. If it fails, the configured policy picks victims to move to swap and placement
// is retried. If that fails too, no victim is moved and the new process is parked in swap with
// ErrInsufficientSpace as the result's Reason.
//
// Admit rejects the request, creating no state, and returns an error matching ErrInvalidInput,
// ErrDuplicateName, or ErrExceedsCapacity when the name is empty, the size is not positive, the
// name is already live, or the process could never fit in memory.
func (e *Engine) Admit(name string, size int) (AdmissionResult, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.logger.Debug("Engine::Admit", slog.String("Name", name), slog.Int("Size", size))

	return e.admit(name, size)
}

// AdmitText parses sizeText as a whole number of KB and calls Admit. Text that does not parse
// is rejected with ErrInvalidInput.
func (e *Engine) AdmitText(name string, sizeText string) (AdmissionResult, error) {
	size, err := strconv.Atoi(strings.TrimSpace(sizeText))
	if err != nil {
		err = errors.Wrapf(ErrInvalidInput, "size %q is not a whole number of KB", sizeText)
		return AdmissionResult{Name: name, Residency: ResidencyRejected, Reason: err}, err
	}

	return e.Admit(name, size)
}

func (e *Engine) admit(name string, size int) (AdmissionResult, error) {
	result := AdmissionResult{Name: name}

	err := e.checkAdmission(name, size)
	if err != nil {
		result.Residency = ResidencyRejected
		result.Reason = err
		return result, err
	}

	process := &Process{
		Name: name,
		Size: size,
	}
	if e.pageSize > 0 {
		process.Pages = memutils.PageCount(size, e.pageSize)
	}
	e.registry.Register(process)

	if e.place(process) {
		result.Residency = ResidencyResident
		return result, nil
	}

	evicted, ok := e.evictFor(process)
	if ok {
		result.Residency = ResidencyResident
		result.Evicted = evicted
		return result, nil
	}

	e.swap.park(process)
	e.logger.Debug("Engine::admit parked process", slog.String("Name", name))

	result.Residency = ResidencySwapped
	result.Reason = errors.Wrapf(ErrInsufficientSpace, "process %q of size %d", name, size)
	result.Promoted = e.promoteAll()
	return result, nil
}

func (e *Engine) checkAdmission(name string, size int) error {
	if strings.TrimSpace(name) == "" {
		return errors.Wrap(ErrInvalidInput, "process name is empty")
	}

	if size <= 0 {
		return errors.Wrapf(ErrInvalidInput, "process size must be positive, got %d", size)
	}

	if e.registry.Has(name) {
		return errors.Wrapf(ErrDuplicateName, "process %q", name)
	}

	if size > e.totalMemory {
		return errors.Wrapf(ErrExceedsCapacity, "process %q needs %d KB, memory holds %d KB", name, size, e.totalMemory)
	}

	return nil
}

// tick advances the logical clock and returns the new time
func (e *Engine) tick() uint64 {
	e.clock++
	return e.clock
}

// touch marks process as accessed now
func (e *Engine) touch(process *Process) {
	process.LastAccessed = e.tick()
	process.Referenced = true
}

// markResident stamps a freshly placed process. LoadTime is only ever set once so FIFO order
// stays tied to the first admission.
func (e *Engine) markResident(process *Process) {
	e.touch(process)
	if process.LoadTime == 0 {
		process.LoadTime = process.LastAccessed
	}
	process.State = ProcessResident
}

// place tries to put process into memory without evicting anything
func (e *Engine) place(process *Process) bool {
	if !e.metadata.Place(process.Name, process.Size, e.strategy) {
		return false
	}

	e.markResident(process)
	return true
}

// evictFor plans an eviction on a copy of memory and commits it only if process can be placed
// afterwards. The Clock policy's hand and reference bits move even when the plan is abandoned.
func (e *Engine) evictFor(process *Process) ([]string, bool) {
	if e.metadata.IsEmpty() {
		return nil, false
	}

	plan := e.metadata.Clone()
	units := &unitView{metadata: plan, registry: &e.registry}
	var evicted []string

	if paged, isPaged := plan.(*metadata.PagedBlockMetadata); isPaged {
		needed := paged.PagesFor(process.Size) - paged.FreeFrameCount()
		for _, index := range e.selector.SelectVictims(units, needed) {
			owner := plan.UnitOwner(index)
			// Frames of an owner that was already evicted are free by now
			if owner != "" && plan.Free(owner) {
				evicted = append(evicted, owner)
			}
		}
	} else {
		for !plan.Fits(process.Size) {
			victims := e.selector.SelectVictims(units, 1)
			if len(victims) == 0 {
				break
			}

			owner := plan.UnitOwner(victims[0])
			plan.Free(owner)
			evicted = append(evicted, owner)
		}
	}

	if len(evicted) == 0 || !plan.Place(process.Name, process.Size, e.strategy) {
		e.logger.Debug("Engine::evictFor abandoned eviction",
			slog.String("Name", process.Name),
			slog.Int("Victims", len(evicted)))
		return nil, false
	}

	e.metadata = plan
	for _, name := range evicted {
		victim, _ := e.registry.Lookup(name)
		e.swap.park(victim)
		e.logger.Debug("Engine::evictFor evicted process", slog.String("Name", name), slog.String("For", process.Name))
	}
	e.markResident(process)

	return evicted, true
}

// promoteAll makes one pass over swap in membership order and places every process that fits
// without evicting anything
func (e *Engine) promoteAll() []string {
	var promoted []string
	for _, process := range e.swap.list() {
		if e.place(process) {
			e.swap.remove(process.Name)
			promoted = append(promoted, process.Name)
			e.logger.Debug("Engine::promoteAll promoted process", slog.String("Name", process.Name))
		}
	}

	return promoted
}

// Release frees the named process, whether it is resident or swapped, and removes it from the
// registry. Releasing a resident process is followed by a promotion pass over swap. Release
// returns false if no live process has this name.
func (e *Engine) Release(name string) bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.logger.Debug("Engine::Release", slog.String("Name", name))

	process, ok := e.registry.Lookup(name)
	if !ok {
		return false
	}

	wasResident := process.State == ProcessResident
	if wasResident {
		e.metadata.Free(name)
	} else {
		e.swap.remove(name)
	}

	e.registry.Unregister(name)
	process.State = ProcessReleased

	if wasResident {
		e.promoteAll()
	}

	return true
}

// Reference records an access to the named process: its reference bit is set and its access
// time refreshed. A swapped process is made resident if it fits without evicting anything.
// Reference returns false if no live process has this name.
func (e *Engine) Reference(name string) bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.logger.Debug("Engine::Reference", slog.String("Name", name))

	process, ok := e.registry.Lookup(name)
	if !ok {
		return false
	}

	if process.State == ProcessSwapped && e.place(process) {
		e.swap.remove(name)
		return true
	}

	e.touch(process)
	return true
}

// Modify sets the modification bit of a resident process. It returns false, changing nothing,
// if the process is swapped or does not exist.
func (e *Engine) Modify(name string) bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.logger.Debug("Engine::Modify", slog.String("Name", name))

	process, ok := e.registry.Lookup(name)
	if !ok || process.State != ProcessResident {
		return false
	}

	process.Modified = true
	return true
}

// Lookup returns the state of the named process. Names that are not live report
// ProcessUnregistered and false.
func (e *Engine) Lookup(name string) (ProcessState, bool) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	process, ok := e.registry.Lookup(name)
	if !ok {
		return ProcessUnregistered, false
	}

	return process.State, true
}

// Process returns a copy of the named live process
func (e *Engine) Process(name string) (Process, bool) {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	process, ok := e.registry.Lookup(name)
	if !ok {
		return Process{}, false
	}

	return *process, true
}

// Processes returns copies of every live process ordered by name
func (e *Engine) Processes() []Process {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	return copyProcesses(e.registry.Sorted())
}

// Statistics returns the occupancy and fragmentation figures of physical memory
func (e *Engine) Statistics() memutils.DetailedStatistics {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	var stats memutils.DetailedStatistics
	stats.Clear()
	e.metadata.AddDetailedStatistics(&stats)
	return stats
}

// Validate checks memory's internal consistency and that every live process is either
// resident or swapped, never both and never neither
func (e *Engine) Validate() error {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	err := e.metadata.Validate()
	if err != nil {
		return errors.Wrap(err, "memory layout is inconsistent")
	}

	for _, process := range e.registry.Sorted() {
		resident := e.metadata.Owns(process.Name)
		swapped := e.swap.contains(process.Name)

		switch {
		case resident && swapped:
			return errors.Newf("process %q is both resident and swapped", process.Name)
		case !resident && !swapped:
			return errors.Newf("process %q is registered but neither resident nor swapped", process.Name)
		case resident && process.State != ProcessResident:
			return errors.Newf("process %q is resident but in state %s", process.Name, process.State)
		case swapped && process.State != ProcessSwapped:
			return errors.Newf("process %q is swapped but in state %s", process.Name, process.State)
		}
	}

	if e.registry.Count() != e.metadata.AllocationCount()+e.swap.size() {
		return errors.Newf("%d processes are registered, but %d are resident and %d are swapped",
			e.registry.Count(), e.metadata.AllocationCount(), e.swap.size())
	}

	return nil
}

// DebugLogLayout writes every region or frame of memory to the engine's logger at debug level
func (e *Engine) DebugLogLayout() {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	e.logger.Debug("Engine::DebugLogLayout",
		slog.Int("TotalMemory", e.totalMemory),
		slog.Int("PageSize", e.pageSize),
		slog.Int("Swapped", e.swap.size()))
	metadata.DebugLogAllRegions(e.logger, e.metadata)
}

func copyProcesses(processes []*Process) []Process {
	copies := make([]Process, 0, len(processes))
	for _, process := range processes {
		copies = append(copies, *process)
	}

	return copies
}
