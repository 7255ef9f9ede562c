package sim

import (
	"github.com/vkngwrapper/memsim/memutils/metadata"
	"github.com/vkngwrapper/memsim/memutils/replacement"
)

// unitView presents the regions or frames of a memory layout to a replacement.Selector,
// filling in each unit's timestamps and reference bit from the process that owns it. All
// units of one process share that process's reference bit.
type unitView struct {
	metadata metadata.BlockMetadata
	registry *processRegistry
}

var _ replacement.UnitSet = &unitView{}

func (v *unitView) UnitCount() int {
	return v.metadata.UnitCount()
}

func (v *unitView) Unit(index int) replacement.Unit {
	owner := v.metadata.UnitOwner(index)
	if owner == "" {
		return replacement.Unit{}
	}

	process, ok := v.registry.Lookup(owner)
	if !ok {
		return replacement.Unit{Owner: owner, Occupied: true}
	}

	return replacement.Unit{
		Owner:        owner,
		Occupied:     true,
		LastAccessed: process.LastAccessed,
		LoadTime:     process.LoadTime,
		Referenced:   process.Referenced,
	}
}

func (v *unitView) ClearReference(index int) {
	process, ok := v.registry.Lookup(v.metadata.UnitOwner(index))
	if ok {
		process.Referenced = false
	}
}
