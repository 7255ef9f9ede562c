package metadata

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/memsim/memutils"
	"golang.org/x/exp/slog"
)

// BlockMetadata represents the physical memory of a simulation run. It tracks which processes
// occupy which parts of memory, allowing processes to be placed and freed, as well as
// enumerated and queried. Owners are identified by process name: the metadata never holds
// the same owner twice.
type BlockMetadata interface {
	// Init must be called before the BlockMetadata is used. It discards any prior state and
	// sizes the layout to capacity, which is expressed in the simulator's size unit (KB).
	Init(capacity int)
	// Capacity retrieves the size the layout was initialized with
	Capacity() int
	// Paged returns true if the layout is made of fixed-size frames
	Paged() bool

	// Validate performs internal consistency checks on the metadata. When the implementation
	// is functioning correctly, it should not be possible for this method to return an error.
	Validate() error
	// AllocationCount returns the number of owners currently resident in the layout
	AllocationCount() int
	// FreeRegionsCount returns the number of distinct free ranges in the layout. Adjacent free
	// units are counted as a single range.
	FreeRegionsCount() int
	// SumFreeSize returns the amount of free space in the layout
	SumFreeSize() int
	// IsEmpty will return true if no owner is resident
	IsEmpty() bool

	// Fits returns true if a request of the provided size could be placed right now. For
	// contiguous layouts this is true for every fit strategy or none of them.
	Fits(size int) bool
	// Place puts owner into the layout with the provided size. Contiguous layouts use
	// strategy to choose the region, paged layouts ignore it. Place returns false without
	// changing the layout if the request cannot be satisfied, if size is not positive, or if
	// owner is already resident.
	Place(owner string, size int, strategy FitStrategy) bool
	// Free releases everything held by owner. It returns false, and changes nothing, if owner
	// is not resident.
	Free(owner string) bool
	// Owns returns true if owner is resident
	Owns(owner string) bool

	// UnitCount returns the number of units (regions or frames) in the layout
	UnitCount() int
	// UnitOwner returns the owner of the unit at the provided index, or "" if it is free
	UnitOwner(index int) string
	// VisitAllRegions will call the provided callback once for each unit in the layout, in
	// ascending offset order. Iteration stops at the first error, which is returned.
	VisitAllRegions(handleRegion func(region Region) error) error

	// AddDetailedStatistics sums this layout's statistics into the provided
	// memutils.DetailedStatistics object.
	AddDetailedStatistics(stats *memutils.DetailedStatistics)
	// AddStatistics sums this layout's statistics into the provided memutils.Statistics object.
	AddStatistics(stats *memutils.Statistics)

	// Clear instantly frees all owners
	Clear()
	// BlockJsonData populates a json object with information about this layout
	BlockJsonData(json *jwriter.ObjectState)
	// Clone returns an independent copy of the layout. Changes to the copy never affect the
	// original.
	Clone() BlockMetadata
}

// BlockMetadataBase is a simple struct that provides a few shared utilities for BlockMetadata
// implementations
type BlockMetadataBase struct {
	capacity   int
	allocCount int
}

// Init sizes the layout
func (m *BlockMetadataBase) Init(capacity int) {
	m.capacity = capacity
	m.allocCount = 0
}

// Capacity returns the size of the layout
func (m *BlockMetadataBase) Capacity() int { return m.capacity }

// AllocationCount returns the number of resident owners
func (m *BlockMetadataBase) AllocationCount() int { return m.allocCount }

// IsEmpty will return true if no owner is resident
func (m *BlockMetadataBase) IsEmpty() bool { return m.allocCount == 0 }

// WriteBlockJson populates a json object with the figures every layout shares
func (m *BlockMetadataBase) WriteBlockJson(json *jwriter.ObjectState, freeSize, allocationCount, freeRangeCount int) {
	json.Name("TotalSize").Int(m.Capacity())
	json.Name("FreeSize").Int(freeSize)
	json.Name("Allocations").Int(allocationCount)
	json.Name("FreeRanges").Int(freeRangeCount)
}

// DebugLogAllRegions writes one debug record per unit of md to logger
func DebugLogAllRegions(logger *slog.Logger, md BlockMetadata) {
	_ = md.VisitAllRegions(func(region Region) error {
		if region.IsFree() {
			logger.Debug("    free region",
				slog.Int("Index", region.Index),
				slog.Int("Offset", region.Offset),
				slog.Int("Size", region.Size))
		} else {
			logger.Debug("    occupied region",
				slog.Int("Index", region.Index),
				slog.Int("Offset", region.Offset),
				slog.Int("Size", region.Size),
				slog.String("Owner", region.Owner),
				slog.Int("Page", region.Page))
		}

		return nil
	})
}
