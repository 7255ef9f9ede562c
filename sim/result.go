package sim

import "github.com/vkngwrapper/memsim/memutils/defrag"

// Residency is the outcome of an admission request
type Residency uint32

const (
	// ResidencyRejected means the request created no state
	ResidencyRejected Residency = iota
	// ResidencyResident means the process now holds memory
	ResidencyResident
	// ResidencySwapped means the process was registered but parked in the swap area
	ResidencySwapped
)

var residencyMapping = map[Residency]string{
	ResidencyRejected: "Rejected",
	ResidencyResident: "Resident",
	ResidencySwapped:  "Swapped",
}

func (r Residency) String() string {
	return residencyMapping[r]
}

// AdmissionResult reports what Engine.Admit did with a process
type AdmissionResult struct {
	Name      string
	Residency Residency
	// Reason is ErrInsufficientSpace for swapped results and the rejection error for rejected
	// results. It is nil for resident results.
	Reason error
	// Evicted lists the processes moved to swap to make room, in eviction order
	Evicted []string
	// Promoted lists the swapped processes that became resident during the admission
	Promoted []string
}

// CompactionResult reports what Engine.Compact moved
type CompactionResult struct {
	Stats defrag.DefragmentationStats
	// Moves lists every relocation in the order it happened
	Moves []defrag.Move
	// Promoted lists the swapped processes that became resident once memory was compacted
	Promoted []string
}
