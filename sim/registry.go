package sim

import (
	"github.com/dolthub/swiss"
	"golang.org/x/exp/slices"
)

const registryInitialSize = 16

// processRegistry tracks every live (resident or swapped) process by name
type processRegistry struct {
	processes *swiss.Map[string, *Process]
}

func (r *processRegistry) Init() {
	r.processes = swiss.NewMap[string, *Process](registryInitialSize)
}

func (r *processRegistry) Lookup(name string) (*Process, bool) {
	return r.processes.Get(name)
}

func (r *processRegistry) Has(name string) bool {
	return r.processes.Has(name)
}

func (r *processRegistry) Register(process *Process) {
	r.processes.Put(process.Name, process)
}

func (r *processRegistry) Unregister(name string) bool {
	if !r.processes.Has(name) {
		return false
	}

	r.processes.Delete(name)
	return true
}

func (r *processRegistry) Count() int {
	return r.processes.Count()
}

// Sorted returns every live process ordered by name
func (r *processRegistry) Sorted() []*Process {
	processes := make([]*Process, 0, r.processes.Count())
	r.processes.Iter(func(name string, process *Process) bool {
		processes = append(processes, process)
		return false
	})

	slices.SortFunc(processes, func(left, right *Process) bool {
		return left.Name < right.Name
	})

	return processes
}
