package memutils

import "math"

// Statistics contains the basic occupancy figures for one or more memory layouts. All sizes
// are in the same unit as the layout's capacity (kilobytes in the simulator).
type Statistics struct {
	// UnitCount is the number of regions (contiguous) or frames (paged) in the layout
	UnitCount int
	// AllocationCount is the number of resident processes
	AllocationCount int
	// CapacitySize is the total size of the layout
	CapacitySize int
	// AllocationSize is the sum of the sizes held by resident processes
	AllocationSize int
}

func (s *Statistics) Clear() {
	s.UnitCount = 0
	s.AllocationCount = 0
	s.CapacitySize = 0
	s.AllocationSize = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.UnitCount += other.UnitCount
	s.AllocationCount += other.AllocationCount
	s.CapacitySize += other.CapacitySize
	s.AllocationSize += other.AllocationSize
}

// FreeSize is the portion of the capacity not held by any resident process
func (s *Statistics) FreeSize() int {
	return s.CapacitySize - s.AllocationSize
}

type DetailedStatistics struct {
	Statistics
	FreeRangeCount    int
	AllocationSizeMin int
	AllocationSizeMax int
	FreeRangeSizeMin  int
	FreeRangeSizeMax  int
	// InternalFragmentation is the space that is occupied but not requested: the unused
	// tail of each process's last page. Always 0 for contiguous layouts.
	InternalFragmentation int
}

func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.FreeRangeCount = 0
	s.AllocationSizeMin = math.MaxInt
	s.AllocationSizeMax = 0
	s.FreeRangeSizeMin = math.MaxInt
	s.FreeRangeSizeMax = 0
	s.InternalFragmentation = 0
}

func (s *DetailedStatistics) AddFreeRange(size int) {
	s.FreeRangeCount++

	if size < s.FreeRangeSizeMin {
		s.FreeRangeSizeMin = size
	}

	if size > s.FreeRangeSizeMax {
		s.FreeRangeSizeMax = size
	}
}

func (s *DetailedStatistics) AddAllocation(size int) {
	s.AllocationCount++
	s.AllocationSize += size

	if size < s.AllocationSizeMin {
		s.AllocationSizeMin = size
	}

	if size > s.AllocationSizeMax {
		s.AllocationSizeMax = size
	}
}

func (s *DetailedStatistics) AddDetailedStatistics(other *DetailedStatistics) {
	s.Statistics.AddStatistics(&other.Statistics)
	s.FreeRangeCount += other.FreeRangeCount
	s.InternalFragmentation += other.InternalFragmentation

	if other.FreeRangeSizeMin < s.FreeRangeSizeMin {
		s.FreeRangeSizeMin = other.FreeRangeSizeMin
	}

	if other.FreeRangeSizeMax > s.FreeRangeSizeMax {
		s.FreeRangeSizeMax = other.FreeRangeSizeMax
	}

	if other.AllocationSizeMin < s.AllocationSizeMin {
		s.AllocationSizeMin = other.AllocationSizeMin
	}

	if other.AllocationSizeMax > s.AllocationSizeMax {
		s.AllocationSizeMax = other.AllocationSizeMax
	}
}

// ExternalFragmentation returns 1 - (largest free range / total free space), or 0 when
// there is no free space at all. A value of 0 means all free space is a single range.
func (s *DetailedStatistics) ExternalFragmentation() float64 {
	free := s.FreeSize()
	if free <= 0 || s.FreeRangeCount == 0 {
		return 0
	}

	return 1 - float64(s.FreeRangeSizeMax)/float64(free)
}
