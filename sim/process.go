package sim

// ProcessState is the position of a process in the admission state machine
type ProcessState uint32

const (
	// ProcessUnregistered is the state of every name the engine has never admitted
	ProcessUnregistered ProcessState = iota
	// ProcessResident processes hold memory
	ProcessResident
	// ProcessSwapped processes wait in the swap area for memory to free up
	ProcessSwapped
	// ProcessReleased processes were freed by name. Released processes are removed from the
	// registry, so the name may be admitted again.
	ProcessReleased
)

var processStateMapping = map[ProcessState]string{
	ProcessUnregistered: "Unregistered",
	ProcessResident:     "Resident",
	ProcessSwapped:      "Swapped",
	ProcessReleased:     "Released",
}

func (s ProcessState) String() string {
	return processStateMapping[s]
}

// Process is a named request for memory along with the bookkeeping the replacement policies
// read. Timestamps come from the engine's logical clock.
type Process struct {
	Name string
	// Size is the requested size in KB
	Size int
	// Pages is the number of frames the process holds when resident. Always 0 for contiguous
	// memory.
	Pages int

	// LastAccessed is refreshed by every placement and every reference
	LastAccessed uint64
	// LoadTime is set by the first placement only. 0 means the process was never resident.
	LoadTime uint64
	// Referenced is set by placement and reference, and cleared by Clock sweeps
	Referenced bool
	// Modified is set by Engine.Modify. No policy reads it.
	Modified bool

	State ProcessState
}
