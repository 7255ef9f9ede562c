package metadata

import (
	"fmt"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/pkg/errors"
	"github.com/vkngwrapper/memsim/memutils"
	"golang.org/x/exp/slices"
)

// ContiguousBlockMetadata is a BlockMetadata implementation that models a single flat address
// space partitioned into variable-size regions. Every process occupies exactly one region.
//
// Regions are kept in a slice ordered by offset. They always form a gapless partition of
// [0, Capacity()), and no two neighbouring regions are both free: freeing a region merges it
// with any free neighbours immediately.
type ContiguousBlockMetadata struct {
	BlockMetadataBase

	sumFreeSize int
	regions     []Region
	// nextFitCursor is the offset immediately after the last FitNext placement
	nextFitCursor int
}

var _ BlockMetadata = &ContiguousBlockMetadata{}

// NewContiguousBlockMetadata creates a new, uninitialized ContiguousBlockMetadata. Init must
// be called before use.
func NewContiguousBlockMetadata() *ContiguousBlockMetadata {
	return &ContiguousBlockMetadata{}
}

// Init prepares the layout as a single free region spanning the whole capacity
func (m *ContiguousBlockMetadata) Init(capacity int) {
	m.BlockMetadataBase.Init(capacity)
	m.sumFreeSize = capacity
	m.nextFitCursor = 0
	m.regions = []Region{{Offset: 0, Size: capacity}}
}

// Paged always returns false
func (m *ContiguousBlockMetadata) Paged() bool { return false }

// SumFreeSize returns the amount of free space in the layout
func (m *ContiguousBlockMetadata) SumFreeSize() int { return m.sumFreeSize }

// NextFitCursor returns the offset the next FitNext scan will begin from
func (m *ContiguousBlockMetadata) NextFitCursor() int { return m.nextFitCursor }

// Validate checks the partition and coalescing invariants along with the free size and
// allocation count bookkeeping
func (m *ContiguousBlockMetadata) Validate() error {
	if len(m.regions) == 0 {
		return errors.New("the layout has no regions")
	}

	var offset, freeSize, allocCount int
	owners := make(map[string]struct{}, len(m.regions))

	for index, region := range m.regions {
		if region.Offset != offset {
			return errors.Errorf("region at index %d has offset %d, but the previous region ended at offset %d", index, region.Offset, offset)
		}

		if region.Size <= 0 {
			return errors.Errorf("region at index %d has non-positive size %d", index, region.Size)
		}

		if region.IsFree() {
			freeSize += region.Size

			if index > 0 && m.regions[index-1].IsFree() {
				return errors.Errorf("regions at index %d and %d are both free but were not merged", index-1, index)
			}
		} else {
			allocCount++

			_, duplicate := owners[region.Owner]
			if duplicate {
				return errors.Errorf("owner %q holds more than one region", region.Owner)
			}
			owners[region.Owner] = struct{}{}
		}

		offset = region.End()
	}

	if offset != m.Capacity() {
		return errors.Errorf("the capacity of the layout is %d, but the regions only added up to %d", m.Capacity(), offset)
	}

	if freeSize != m.sumFreeSize {
		return errors.Errorf("the free size of the layout is %d, but the free regions added up to %d", m.sumFreeSize, freeSize)
	}

	if allocCount != m.allocCount {
		return errors.Errorf("the allocation count of the layout is %d, but there were %d occupied regions", m.allocCount, allocCount)
	}

	return nil
}

// FreeRegionsCount returns the number of free regions in the layout
func (m *ContiguousBlockMetadata) FreeRegionsCount() int {
	var count int
	for _, region := range m.regions {
		if region.IsFree() {
			count++
		}
	}

	return count
}

// LargestFreeRegion returns the size of the largest free region, or 0 if memory is full
func (m *ContiguousBlockMetadata) LargestFreeRegion() int {
	var largest int
	for _, region := range m.regions {
		if region.IsFree() && region.Size > largest {
			largest = region.Size
		}
	}

	return largest
}

// Fits returns true if some free region is at least size large
func (m *ContiguousBlockMetadata) Fits(size int) bool {
	return size > 0 && m.LargestFreeRegion() >= size
}

// Owns returns true if owner holds a region
func (m *ContiguousBlockMetadata) Owns(owner string) bool {
	return m.findOwner(owner) >= 0
}

// OwnerRegion returns the region held by owner
func (m *ContiguousBlockMetadata) OwnerRegion(owner string) (Region, bool) {
	index := m.findOwner(owner)
	if index < 0 {
		return Region{}, false
	}

	region := m.regions[index]
	region.Index = index
	return region, true
}

// Place puts owner into the layout with TryPlace and discards the offset
func (m *ContiguousBlockMetadata) Place(owner string, size int, strategy FitStrategy) bool {
	_, ok := m.TryPlace(owner, size, strategy)
	return ok
}

// TryPlace searches the free regions with the provided strategy and, on a hit, carves a new
// region of exactly size from the start of the chosen free region. Whatever is left of the
// free region stays free after the new one; a zero-size leftover is dropped. The offset of
// the new region is returned.
//
// TryPlace returns false without changing the layout if no free region is large enough, if size
// is not positive, or if owner already holds a region.
func (m *ContiguousBlockMetadata) TryPlace(owner string, size int, strategy FitStrategy) (int, bool) {
	if size < 1 || owner == "" || m.Owns(owner) {
		return 0, false
	}

	memutils.DebugValidate(m)

	index := m.findFreeRegion(size, strategy)
	if index < 0 {
		return 0, false
	}

	offset := m.split(index, owner, size)
	if strategy == FitNext {
		m.nextFitCursor = offset + size
	}

	return offset, true
}

func (m *ContiguousBlockMetadata) findFreeRegion(size int, strategy FitStrategy) int {
	switch strategy {
	case FitFirst:
		for index, region := range m.regions {
			if region.IsFree() && region.Size >= size {
				return index
			}
		}
		return -1
	case FitBest:
		best := -1
		for index, region := range m.regions {
			if region.IsFree() && region.Size >= size && (best < 0 || region.Size < m.regions[best].Size) {
				best = index
			}
		}
		return best
	case FitWorst:
		worst := -1
		for index, region := range m.regions {
			if region.IsFree() && region.Size >= size && (worst < 0 || region.Size > m.regions[worst].Size) {
				worst = index
			}
		}
		return worst
	case FitNext:
		regionCount := len(m.regions)
		start := 0
		// The cursor may sit inside a free region that coalesced after the last placement
		for index, region := range m.regions {
			if region.End() > m.nextFitCursor {
				start = index
				break
			}
		}

		for i := 0; i < regionCount; i++ {
			index := (start + i) % regionCount
			region := m.regions[index]
			if region.IsFree() && region.Size >= size {
				return index
			}
		}
		return -1
	default:
		panic(fmt.Sprintf("attempted to place with unknown fit strategy: %d", strategy))
	}
}

func (m *ContiguousBlockMetadata) split(index int, owner string, size int) int {
	free := m.regions[index]
	if !free.IsFree() || free.Size < size {
		panic(fmt.Sprintf("region at offset %d cannot hold %d", free.Offset, size))
	}

	occupied := Region{Offset: free.Offset, Size: size, Owner: owner}
	if free.Size == size {
		m.regions[index] = occupied
	} else {
		m.regions[index].Offset += size
		m.regions[index].Size -= size
		m.regions = slices.Insert(m.regions, index, occupied)
	}

	m.sumFreeSize -= size
	m.allocCount++

	return occupied.Offset
}

// Free marks the region held by owner as free and merges it with its free neighbours, so that
// freeing a region between two free regions leaves a single free region behind.
func (m *ContiguousBlockMetadata) Free(owner string) bool {
	index := m.findOwner(owner)
	if index < 0 {
		return false
	}

	m.regions[index].Owner = ""
	m.sumFreeSize += m.regions[index].Size
	m.allocCount--

	// Merge the next region into this one
	if index+1 < len(m.regions) && m.regions[index+1].IsFree() {
		m.regions[index].Size += m.regions[index+1].Size
		m.regions = slices.Delete(m.regions, index+1, index+2)
	}

	// Merge this region into the previous one
	if index > 0 && m.regions[index-1].IsFree() {
		m.regions[index-1].Size += m.regions[index].Size
		m.regions = slices.Delete(m.regions, index, index+1)
	}

	memutils.DebugValidate(m)

	return true
}

// SlideDown moves the region held by owner to the start of the free region immediately before
// it. The vacated space is merged into the free region after it, if there is one. The old and
// new offsets are returned. SlideDown returns false if owner is not resident or the region
// before it is not free.
func (m *ContiguousBlockMetadata) SlideDown(owner string) (int, int, bool) {
	index := m.findOwner(owner)
	if index <= 0 || !m.regions[index-1].IsFree() {
		return 0, 0, false
	}

	free := m.regions[index-1]
	occupied := m.regions[index]
	from := occupied.Offset

	occupied.Offset = free.Offset
	free.Offset = occupied.End()
	m.regions[index-1] = occupied
	m.regions[index] = free

	if index+1 < len(m.regions) && m.regions[index+1].IsFree() {
		m.regions[index].Size += m.regions[index+1].Size
		m.regions = slices.Delete(m.regions, index+1, index+2)
	}

	memutils.DebugValidate(m)

	return from, occupied.Offset, true
}

// Relocate moves the region held by owner into the first free region before it that is large
// enough to hold it, and frees the space it vacated. The old and new offsets are returned.
// Relocate returns false, changing nothing, if owner is not resident or no earlier free
// region is large enough.
func (m *ContiguousBlockMetadata) Relocate(owner string) (int, int, bool) {
	index := m.findOwner(owner)
	if index < 0 {
		return 0, 0, false
	}

	size := m.regions[index].Size
	from := m.regions[index].Offset

	target := -1
	for i := 0; i < index; i++ {
		if m.regions[i].IsFree() && m.regions[i].Size >= size {
			target = i
			break
		}
	}

	if target < 0 {
		return from, from, false
	}

	// Free only merges regions at or after target, so target's index stays valid
	m.Free(owner)
	to := m.split(target, owner, size)

	return from, to, true
}

func (m *ContiguousBlockMetadata) findOwner(owner string) int {
	if owner == "" {
		return -1
	}

	for index, region := range m.regions {
		if region.Owner == owner {
			return index
		}
	}

	return -1
}

// UnitCount returns the number of regions, free or occupied
func (m *ContiguousBlockMetadata) UnitCount() int { return len(m.regions) }

// UnitOwner returns the owner of the region at index
func (m *ContiguousBlockMetadata) UnitOwner(index int) string { return m.regions[index].Owner }

// VisitAllRegions calls handleRegion once for each region in offset order
func (m *ContiguousBlockMetadata) VisitAllRegions(handleRegion func(region Region) error) error {
	for index, region := range m.regions {
		region.Index = index
		err := handleRegion(region)
		if err != nil {
			return err
		}
	}

	return nil
}

// AddDetailedStatistics sums this layout's statistics into the provided
// memutils.DetailedStatistics object.
func (m *ContiguousBlockMetadata) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	stats.UnitCount += len(m.regions)
	stats.CapacitySize += m.Capacity()

	for _, region := range m.regions {
		if region.IsFree() {
			stats.AddFreeRange(region.Size)
		} else {
			stats.AddAllocation(region.Size)
		}
	}
}

// AddStatistics sums this layout's statistics into the provided memutils.Statistics object.
func (m *ContiguousBlockMetadata) AddStatistics(stats *memutils.Statistics) {
	stats.UnitCount += len(m.regions)
	stats.AllocationCount += m.allocCount
	stats.CapacitySize += m.Capacity()
	stats.AllocationSize += m.Capacity() - m.sumFreeSize
}

// Clear frees every region and resets the FitNext cursor
func (m *ContiguousBlockMetadata) Clear() {
	m.Init(m.Capacity())
}

// BlockJsonData populates a json object with information about this layout
func (m *ContiguousBlockMetadata) BlockJsonData(json *jwriter.ObjectState) {
	m.WriteBlockJson(json, m.sumFreeSize, m.allocCount, m.FreeRegionsCount())
	json.Name("LargestFreeRegion").Int(m.LargestFreeRegion())
	json.Name("NextFitCursor").Int(m.nextFitCursor)
}

// Clone returns an independent copy of the layout, including the FitNext cursor
func (m *ContiguousBlockMetadata) Clone() BlockMetadata {
	clone := *m
	clone.regions = slices.Clone(m.regions)
	return &clone
}
