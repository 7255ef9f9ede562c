package replacement

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Selector chooses victims from a UnitSet according to its Policy. The Clock policy keeps a
// sweep hand that persists between calls, so a Selector should live as long as the memory
// layout it selects from.
type Selector struct {
	// Policy is the victim ordering to apply
	Policy Policy

	hand int
}

// NewSelector creates a Selector for the provided policy with its hand at unit 0
func NewSelector(policy Policy) *Selector {
	return &Selector{Policy: policy}
}

// Hand returns the index the next Clock sweep will start from
func (s *Selector) Hand() int {
	return s.hand
}

// Reset returns the Clock hand to the first unit
func (s *Selector) Reset() {
	s.hand = 0
}

// SelectVictims returns the indices of up to count occupied units that should be reclaimed, in
// the order they were chosen. Fewer than count indices are returned only when the units are
// exhausted or, for PolicyClock, when the sweep bound of twice the unit count is reached. Callers
// must treat a short result as a failure to make room.
func (s *Selector) SelectVictims(units UnitSet, count int) []int {
	if count <= 0 || units.UnitCount() == 0 {
		return nil
	}

	switch s.Policy {
	case PolicyLRU:
		return s.selectOrdered(units, count, func(unit Unit) uint64 { return unit.LastAccessed })
	case PolicyFIFO:
		return s.selectOrdered(units, count, func(unit Unit) uint64 { return unit.LoadTime })
	case PolicyClock:
		return s.selectClock(units, count)
	default:
		panic(fmt.Sprintf("attempted to select victims with unknown policy: %d", s.Policy))
	}
}

func (s *Selector) selectOrdered(units UnitSet, count int, key func(unit Unit) uint64) []int {
	type candidate struct {
		index int
		key   uint64
	}

	unitCount := units.UnitCount()
	candidates := make([]candidate, 0, unitCount)
	for i := 0; i < unitCount; i++ {
		unit := units.Unit(i)
		if unit.Occupied {
			candidates = append(candidates, candidate{index: i, key: key(unit)})
		}
	}

	// Stable so that equal timestamps (frames of the same process) keep scan order
	slices.SortStableFunc(candidates, func(left, right candidate) bool {
		return left.key < right.key
	})

	if len(candidates) > count {
		candidates = candidates[:count]
	}

	victims := make([]int, 0, len(candidates))
	for _, c := range candidates {
		victims = append(victims, c.index)
	}

	return victims
}

func (s *Selector) selectClock(units UnitSet, count int) []int {
	unitCount := units.UnitCount()
	if s.hand >= unitCount {
		s.hand %= unitCount
	}

	victims := make([]int, 0, count)
	maxInspections := 2 * unitCount

	for inspected := 0; inspected < maxInspections && len(victims) < count; inspected++ {
		index := s.hand
		s.hand = (s.hand + 1) % unitCount

		if slices.Contains(victims, index) {
			continue
		}

		unit := units.Unit(index)
		if !unit.Occupied {
			continue
		}

		if !unit.Referenced {
			victims = append(victims, index)
			continue
		}

		// Second chance
		units.ClearReference(index)
	}

	return victims
}
