package replacement_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/memsim/memutils/replacement"
	"github.com/vkngwrapper/memsim/memutils/replacement/mocks"
	"go.uber.org/mock/gomock"
)

// unitSlice shares one reference bit between all units with the same owner, the same way
// the simulator's processes do
type unitSlice []replacement.Unit

func (u unitSlice) UnitCount() int                  { return len(u) }
func (u unitSlice) Unit(index int) replacement.Unit { return u[index] }
func (u unitSlice) ClearReference(index int) {
	owner := u[index].Owner
	for i := range u {
		if u[i].Owner == owner {
			u[i].Referenced = false
		}
	}
}

func occupied(owner string, lastAccessed, loadTime uint64, referenced bool) replacement.Unit {
	return replacement.Unit{
		Owner:        owner,
		Occupied:     true,
		LastAccessed: lastAccessed,
		LoadTime:     loadTime,
		Referenced:   referenced,
	}
}

func TestParsePolicy(t *testing.T) {
	policy, err := replacement.ParsePolicy("lru")
	require.NoError(t, err)
	require.Equal(t, replacement.PolicyLRU, policy)

	policy, err = replacement.ParsePolicy(" Clock ")
	require.NoError(t, err)
	require.Equal(t, replacement.PolicyClock, policy)
	require.Equal(t, "Clock", policy.String())

	_, err = replacement.ParsePolicy("random")
	require.Error(t, err)
	require.False(t, replacement.Policy(0).Valid())
}

func TestSelectLRU(t *testing.T) {
	units := unitSlice{
		occupied("P1", 5, 1, true),
		{},
		occupied("P2", 2, 2, true),
		occupied("P3", 9, 3, true),
	}

	selector := replacement.NewSelector(replacement.PolicyLRU)
	require.Equal(t, []int{2}, selector.SelectVictims(units, 1))
	require.Equal(t, []int{2, 0}, selector.SelectVictims(units, 2))
	require.Equal(t, []int{2, 0, 3}, selector.SelectVictims(units, 10))
}

func TestSelectFIFO(t *testing.T) {
	units := unitSlice{
		occupied("P1", 1, 7, true),
		occupied("P2", 2, 3, true),
		occupied("P3", 3, 5, true),
	}

	selector := replacement.NewSelector(replacement.PolicyFIFO)
	require.Equal(t, []int{1, 2}, selector.SelectVictims(units, 2))
}

func TestSelectOrderedKeepsScanOrderForTies(t *testing.T) {
	units := unitSlice{
		occupied("P2", 4, 4, true),
		occupied("P1", 1, 1, true),
		occupied("P1", 1, 1, true),
		occupied("P2", 4, 4, true),
	}

	selector := replacement.NewSelector(replacement.PolicyLRU)
	require.Equal(t, []int{1, 2, 0}, selector.SelectVictims(units, 3))
}

func TestSelectNothing(t *testing.T) {
	selector := replacement.NewSelector(replacement.PolicyClock)
	require.Empty(t, selector.SelectVictims(unitSlice{}, 1))
	require.Empty(t, selector.SelectVictims(unitSlice{{}, {}}, 1))
	require.Empty(t, selector.SelectVictims(unitSlice{occupied("P1", 1, 1, false)}, 0))
}

func TestClockSecondChance(t *testing.T) {
	units := make(unitSlice, 10)
	for i := range units {
		units[i] = occupied(string(rune('A'+i)), uint64(i+1), uint64(i+1), true)
	}

	selector := replacement.NewSelector(replacement.PolicyClock)
	victims := selector.SelectVictims(units, 2)

	// The first lap clears every bit, the second lap takes the first two units
	require.Equal(t, []int{0, 1}, victims)
	require.Equal(t, 2, selector.Hand())
	for _, unit := range units {
		require.False(t, unit.Referenced)
	}
}

func TestClockHandPersists(t *testing.T) {
	units := unitSlice{
		occupied("P1", 1, 1, false),
		occupied("P2", 2, 2, true),
		occupied("P3", 3, 3, false),
	}

	selector := replacement.NewSelector(replacement.PolicyClock)
	require.Equal(t, []int{0}, selector.SelectVictims(units, 1))
	require.Equal(t, 1, selector.Hand())

	// P2 gets its second chance, P3 is taken
	require.Equal(t, []int{2}, selector.SelectVictims(units, 1))
	require.Equal(t, 0, selector.Hand())
	require.False(t, units[1].Referenced)

	selector.Reset()
	require.Equal(t, 0, selector.Hand())
}

func TestClockSkipsFreeUnits(t *testing.T) {
	units := unitSlice{
		{},
		occupied("P1", 1, 1, true),
		{},
		occupied("P2", 2, 2, false),
	}

	selector := replacement.NewSelector(replacement.PolicyClock)
	require.Equal(t, []int{3, 1}, selector.SelectVictims(units, 2))
}

func TestClockHandWrapsWhenUnitsShrink(t *testing.T) {
	selector := replacement.NewSelector(replacement.PolicyClock)
	large := make(unitSlice, 6)
	for i := range large {
		large[i] = occupied("P", 1, 1, false)
	}
	require.Equal(t, []int{0, 1, 2, 3, 4}, selector.SelectVictims(large, 5))
	require.Equal(t, 5, selector.Hand())

	small := unitSlice{occupied("Q", 1, 1, false), occupied("R", 1, 1, false)}
	require.Equal(t, []int{1}, selector.SelectVictims(small, 1))
}

func TestClockSweepBound(t *testing.T) {
	ctrl := gomock.NewController(t)

	const capacity = 8

	// Reference bits that can never be cleared force the sweep to hit its bound
	units := mocks.NewMockUnitSet(ctrl)
	units.EXPECT().UnitCount().Return(capacity).AnyTimes()
	units.EXPECT().Unit(gomock.Any()).Return(occupied("P", 1, 1, true)).Times(2 * capacity)
	units.EXPECT().ClearReference(gomock.Any()).Times(2 * capacity)

	selector := replacement.NewSelector(replacement.PolicyClock)
	victims := selector.SelectVictims(units, 1)
	require.Empty(t, victims)
	require.Equal(t, 0, selector.Hand())
}

func TestClockPartialResult(t *testing.T) {
	ctrl := gomock.NewController(t)

	units := mocks.NewMockUnitSet(ctrl)
	units.EXPECT().UnitCount().Return(3).AnyTimes()
	units.EXPECT().Unit(0).Return(occupied("P1", 1, 1, false)).Times(1)
	units.EXPECT().Unit(1).Return(replacement.Unit{}).Times(2)
	units.EXPECT().Unit(2).Return(replacement.Unit{}).Times(2)

	selector := replacement.NewSelector(replacement.PolicyClock)
	require.Equal(t, []int{0}, selector.SelectVictims(units, 2))
}
