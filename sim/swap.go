package sim

import "golang.org/x/exp/slices"

// swapArea holds processes that are registered but not resident, in the order they were parked
type swapArea struct {
	processes []*Process
}

func (s *swapArea) park(process *Process) {
	process.State = ProcessSwapped
	s.processes = append(s.processes, process)
}

func (s *swapArea) remove(name string) bool {
	index := slices.IndexFunc(s.processes, func(process *Process) bool {
		return process.Name == name
	})
	if index < 0 {
		return false
	}

	s.processes = slices.Delete(s.processes, index, index+1)
	return true
}

func (s *swapArea) contains(name string) bool {
	return slices.IndexFunc(s.processes, func(process *Process) bool {
		return process.Name == name
	}) >= 0
}

func (s *swapArea) list() []*Process {
	return slices.Clone(s.processes)
}

func (s *swapArea) size() int {
	return len(s.processes)
}

func (s *swapArea) clear() {
	s.processes = nil
}
