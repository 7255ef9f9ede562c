package metadata

// Region describes one unit of a memory layout: a variable-size region of a contiguous layout
// or a single frame of a paged layout.
type Region struct {
	// Index is the unit's position in the layout's unit sequence
	Index int
	// Offset is the start of the unit in the address space
	Offset int
	Size   int
	// Owner is the name of the process holding the unit, or "" if the unit is free
	Owner string
	// Page is the owner's page number held in this frame. Always 0 for contiguous layouts.
	Page int
}

// IsFree returns true if no process holds the region
func (r Region) IsFree() bool {
	return r.Owner == ""
}

// End returns the first offset after the region
func (r Region) End() int {
	return r.Offset + r.Size
}
