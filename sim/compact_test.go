package sim_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/memsim/memutils/defrag"
	"github.com/vkngwrapper/memsim/sim"
)

// holeyEngine leaves D at [0,30), C at [50,80), two 20 KB holes, and A (40 KB) in swap
func holeyEngine(t *testing.T) *sim.Engine {
	engine := newEngine(t, sim.CreateOptions{TotalMemory: 100})

	admitResident(t, engine, "A", 40)
	admitResident(t, engine, "B", 10)
	admitResident(t, engine, "C", 30)
	admitResident(t, engine, "X", 10)
	require.True(t, engine.Release("B"))

	result := admitResident(t, engine, "D", 30)
	require.Equal(t, []string{"A"}, result.Evicted)
	require.True(t, engine.Release("X"))

	require.Equal(t, []string{"A"}, swapNames(engine))
	require.Equal(t, 2, engine.Statistics().FreeRangeCount)
	return engine
}

func TestCompactFullPromotesIntoMergedSpace(t *testing.T) {
	engine := holeyEngine(t)
	before, _ := engine.Process("C")

	result, err := engine.Compact(defrag.DefragmentationInfo{})
	require.NoError(t, err)
	require.Equal(t, []defrag.Move{{Owner: "C", Size: 30, SrcOffset: 50, DstOffset: 30}}, result.Moves)
	require.Equal(t, defrag.DefragmentationStats{
		BytesMoved:       30,
		AllocationsMoved: 1,
		FreeRangesMerged: 1,
		PassCount:        1,
	}, result.Stats)
	require.Equal(t, []string{"A"}, result.Promoted)

	require.Equal(t, 60, ownerRegion(t, engine, "A").Offset)
	require.Empty(t, swapNames(engine))
	require.NoError(t, engine.Validate())

	after, _ := engine.Process("C")
	require.Equal(t, before.LastAccessed, after.LastAccessed)
	require.Equal(t, before.Referenced, after.Referenced)
}

func TestCompactFastLeavesUnusableHoles(t *testing.T) {
	engine := holeyEngine(t)

	result, err := engine.Compact(defrag.DefragmentationInfo{Algorithm: defrag.AlgorithmFast})
	require.NoError(t, err)
	require.Empty(t, result.Moves)
	require.Empty(t, result.Promoted)
	require.Equal(t, 1, result.Stats.PassCount)

	require.Equal(t, []string{"A"}, swapNames(engine))
	require.Equal(t, 50, ownerRegion(t, engine, "C").Offset)
}

func TestCompactPagedIsNoop(t *testing.T) {
	engine := newEngine(t, sim.CreateOptions{TotalMemory: 100, PageSize: 10})
	admitResident(t, engine, "A", 25)

	result, err := engine.Compact(defrag.DefragmentationInfo{})
	require.NoError(t, err)
	require.Equal(t, sim.CompactionResult{}, result)
}

func TestCompactRejectsUnknownAlgorithm(t *testing.T) {
	engine := holeyEngine(t)

	_, err := engine.Compact(defrag.DefragmentationInfo{Algorithm: 9})
	require.True(t, errors.Is(err, sim.ErrInvalidInput))
	require.Equal(t, []string{"A"}, swapNames(engine))
}
