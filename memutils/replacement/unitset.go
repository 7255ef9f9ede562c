package replacement

//go:generate mockgen -source unitset.go -destination mocks/unitset.go -package mocks

// Unit is a read-only view of a single region or frame, as seen by a Selector
type Unit struct {
	// Owner is the name of the process holding the unit, or "" when the unit is free
	Owner string
	// Occupied is false for free units, which are never chosen as victims
	Occupied bool
	// LastAccessed is the owner's logical timestamp of its most recent placement or reference
	LastAccessed uint64
	// LoadTime is the owner's logical timestamp of its first placement
	LoadTime uint64
	// Referenced is the owner's reference bit
	Referenced bool
}

// UnitSet is an indexable sequence of units that a Selector can sweep. Indices are stable for
// the duration of a single SelectVictims call.
type UnitSet interface {
	UnitCount() int
	Unit(index int) Unit
	// ClearReference clears the reference bit of the unit's owner
	ClearReference(index int)
}
