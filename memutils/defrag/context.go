package defrag

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/vkngwrapper/memsim/memutils/metadata"
)

// MetadataDefragContext is the core of the compaction logic for contiguous memory. One of these
// must be created and initialized for each defragmentation run, which will then consist of one
// or more passes
type MetadataDefragContext struct {
	// Algorithm is the defragmentation algorithm that should be used
	Algorithm Algorithm
	// Metadata is the memory layout this context exists to compact
	Metadata *metadata.ContiguousBlockMetadata

	moves []Move
}

// Init sets up this MetadataDefragContext to be used in a fresh defragmentation run.
// MetadataDefragContext can be reused for multiple runs, as long as this method is called prior
// to beginning each run, including the first
func (c *MetadataDefragContext) Init() error {
	if c.Metadata == nil {
		panic("attempted to init defragmentation context without a memory layout")
	}

	if c.Algorithm == 0 {
		c.Algorithm = AlgorithmFull
	}

	_, known := algorithmMapping[c.Algorithm]
	if !known {
		return errors.Errorf("unknown defragmentation algorithm %d", c.Algorithm)
	}

	c.moves = c.moves[:0]
	return nil
}

// CollectMoves performs a single pass's worth of relocations against the layout, within the
// pass's budget. The relocations can be retrieved from MetadataDefragContext.Moves afterwards.
// CollectMoves returns true once the algorithm has nothing left to move.
func (c *MetadataDefragContext) CollectMoves(pass *PassContext) bool {
	c.moves = c.moves[:0]
	freeRanges := c.Metadata.FreeRegionsCount()

	switch c.Algorithm {
	case AlgorithmFast:
		c.walkRegions(pass, true, c.Metadata.Relocate)
	case AlgorithmFull:
		c.walkRegions(pass, false, c.Metadata.SlideDown)
	default:
		panic(fmt.Sprintf("attempted to defragment with unknown algorithm: %s", c.Algorithm.String()))
	}

	pass.Stats.FreeRangesMerged += freeRanges - c.Metadata.FreeRegionsCount()
	pass.Stats.PassCount++

	return !c.hasWork()
}

// Moves returns the list of relocations performed by the most recent CollectMoves
func (c *MetadataDefragContext) Moves() []Move {
	return c.moves
}

func (c *MetadataDefragContext) walkRegions(pass *PassContext, lastFirst bool, move func(owner string) (int, int, bool)) {
	var occupied []metadata.Region
	_ = c.Metadata.VisitAllRegions(func(region metadata.Region) error {
		if !region.IsFree() {
			occupied = append(occupied, region)
		}
		return nil
	})

	for i := range occupied {
		region := occupied[i]
		if lastFirst {
			region = occupied[len(occupied)-1-i]
		}

		switch pass.checkCounters(region.Size) {
		case defragCounterIgnore:
			continue
		case defragCounterEnd:
			return
		}

		src, dst, moved := move(region.Owner)
		if !moved {
			continue
		}

		c.moves = append(c.moves, Move{
			Owner:     region.Owner,
			Size:      region.Size,
			SrcOffset: src,
			DstOffset: dst,
		})

		if pass.incrementCounters(region.Size) {
			return
		}
	}
}

// hasWork returns true if the algorithm could still move some process
func (c *MetadataDefragContext) hasWork() bool {
	var work, previousFree bool
	largestEarlierFree := 0

	_ = c.Metadata.VisitAllRegions(func(region metadata.Region) error {
		if region.IsFree() {
			previousFree = true
			if region.Size > largestEarlierFree {
				largestEarlierFree = region.Size
			}
			return nil
		}

		switch c.Algorithm {
		case AlgorithmFast:
			work = work || largestEarlierFree >= region.Size
		default:
			work = work || previousFree
		}
		previousFree = false

		return nil
	})

	return work
}
