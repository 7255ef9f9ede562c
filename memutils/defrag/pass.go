package defrag

import "fmt"

type defragCounterStatus uint32

const (
	defragCounterPass defragCounterStatus = iota
	defragCounterIgnore
	defragCounterEnd
)

var defragCounterStatusMapping = map[defragCounterStatus]string{
	defragCounterPass:   "defragCounterPass",
	defragCounterIgnore: "defragCounterIgnore",
	defragCounterEnd:    "defragCounterEnd",
}

func (s defragCounterStatus) String() string {
	return defragCounterStatusMapping[s]
}

// PassContext is an object used to track data for the current defragmentation
// pass across multiple relocations
type PassContext struct {
	// MaxPassBytes is the maximum number of KB to relocate in this pass. 0 means no limit.
	MaxPassBytes int
	// MaxPassAllocations is the maximum number of relocations to perform in this pass. 0 means
	// no limit.
	MaxPassAllocations int
	// Stats contains statistics for the current pass, such as KB moved and
	// relocations performed
	Stats         DefragmentationStats
	ignoredAllocs int
}

const defragMaxAllocsToIgnore = 16

func (p *PassContext) checkCounters(bytes int) defragCounterStatus {
	// Ignore allocation if it will exceed max size for copy
	if p.MaxPassBytes > 0 && p.Stats.BytesMoved+bytes > p.MaxPassBytes {
		p.ignoredAllocs++
		if p.ignoredAllocs < defragMaxAllocsToIgnore {
			return defragCounterIgnore
		}

		return defragCounterEnd
	}

	p.ignoredAllocs = 0
	return defragCounterPass
}

func (p *PassContext) incrementCounters(bytes int) bool {
	p.Stats.BytesMoved += bytes
	p.Stats.AllocationsMoved++

	bytesFull := p.MaxPassBytes > 0 && p.Stats.BytesMoved >= p.MaxPassBytes
	allocsFull := p.MaxPassAllocations > 0 && p.Stats.AllocationsMoved >= p.MaxPassAllocations

	// Early return when max found
	if bytesFull || allocsFull {
		if p.MaxPassBytes > 0 && p.Stats.BytesMoved > p.MaxPassBytes {
			panic(fmt.Sprintf("somehow passed maximum pass thresholds: bytes %d, allocs %d", p.Stats.BytesMoved, p.Stats.AllocationsMoved))
		}

		return true
	}

	return false
}
