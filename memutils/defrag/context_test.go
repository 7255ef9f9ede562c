package defrag_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/memsim/memutils/defrag"
	"github.com/vkngwrapper/memsim/memutils/metadata"
)

// fragmentedLayout leaves B at [10,30) and D at [60,70) with free space around both
func fragmentedLayout(t *testing.T) *metadata.ContiguousBlockMetadata {
	md := metadata.NewContiguousBlockMetadata()
	md.Init(100)

	for _, placement := range []struct {
		owner string
		size  int
	}{{"A", 10}, {"B", 20}, {"C", 30}, {"D", 10}} {
		require.True(t, md.Place(placement.owner, placement.size, metadata.FitFirst))
	}

	require.True(t, md.Free("A"))
	require.True(t, md.Free("C"))
	require.Equal(t, 3, md.FreeRegionsCount())
	return md
}

func TestFullCompactionSingleRun(t *testing.T) {
	md := fragmentedLayout(t)
	ctx := defrag.MetadataDefragContext{Metadata: md}
	require.NoError(t, ctx.Init())
	require.Equal(t, defrag.AlgorithmFull, ctx.Algorithm)

	var pass defrag.PassContext
	require.True(t, ctx.CollectMoves(&pass))
	require.Equal(t, []defrag.Move{
		{Owner: "B", Size: 20, SrcOffset: 10, DstOffset: 0},
		{Owner: "D", Size: 10, SrcOffset: 60, DstOffset: 20},
	}, ctx.Moves())
	require.Equal(t, defrag.DefragmentationStats{
		BytesMoved:       30,
		AllocationsMoved: 2,
		FreeRangesMerged: 2,
		PassCount:        1,
	}, pass.Stats)

	require.NoError(t, md.Validate())
	require.Equal(t, 1, md.FreeRegionsCount())
	require.Equal(t, 70, md.LargestFreeRegion())
}

func TestFullCompactionAllocationBudget(t *testing.T) {
	md := fragmentedLayout(t)
	ctx := defrag.MetadataDefragContext{Metadata: md, Algorithm: defrag.AlgorithmFull}
	require.NoError(t, ctx.Init())

	pass := defrag.PassContext{MaxPassAllocations: 1}
	require.False(t, ctx.CollectMoves(&pass))
	require.Len(t, ctx.Moves(), 1)
	require.Equal(t, "B", ctx.Moves()[0].Owner)

	pass = defrag.PassContext{MaxPassAllocations: 1}
	require.True(t, ctx.CollectMoves(&pass))
	require.Equal(t, []defrag.Move{{Owner: "D", Size: 10, SrcOffset: 60, DstOffset: 20}}, ctx.Moves())
	require.NoError(t, md.Validate())
}

func TestFullCompactionByteBudgetSkipsLargeProcesses(t *testing.T) {
	md := fragmentedLayout(t)
	ctx := defrag.MetadataDefragContext{Metadata: md}
	require.NoError(t, ctx.Init())

	pass := defrag.PassContext{MaxPassBytes: 15}
	require.False(t, ctx.CollectMoves(&pass))
	require.Equal(t, []defrag.Move{{Owner: "D", Size: 10, SrcOffset: 60, DstOffset: 30}}, ctx.Moves())

	// B can never fit the budget, so later passes find nothing to do
	pass = defrag.PassContext{MaxPassBytes: 15}
	require.False(t, ctx.CollectMoves(&pass))
	require.Empty(t, ctx.Moves())
	require.Equal(t, 0, pass.Stats.AllocationsMoved)
	require.NoError(t, md.Validate())
}

func TestFastCompactionFillsEarlierHoles(t *testing.T) {
	md := fragmentedLayout(t)
	ctx := defrag.MetadataDefragContext{Metadata: md, Algorithm: defrag.AlgorithmFast}
	require.NoError(t, ctx.Init())

	var pass defrag.PassContext
	require.True(t, ctx.CollectMoves(&pass))
	require.Equal(t, []defrag.Move{{Owner: "D", Size: 10, SrcOffset: 60, DstOffset: 0}}, ctx.Moves())
	require.Equal(t, 2, pass.Stats.FreeRangesMerged)

	require.NoError(t, md.Validate())
	region, ok := md.OwnerRegion("B")
	require.True(t, ok)
	require.Equal(t, 10, region.Offset)
}

func TestInitRejectsUnknownAlgorithm(t *testing.T) {
	ctx := defrag.MetadataDefragContext{Metadata: metadata.NewContiguousBlockMetadata(), Algorithm: 7}
	require.Error(t, ctx.Init())

	require.Panics(t, func() {
		empty := defrag.MetadataDefragContext{}
		_ = empty.Init()
	})
}

func TestStatsAdd(t *testing.T) {
	stats := defrag.DefragmentationStats{BytesMoved: 5, AllocationsMoved: 1, PassCount: 1}
	stats.Add(defrag.DefragmentationStats{BytesMoved: 10, AllocationsMoved: 2, FreeRangesMerged: 1, PassCount: 1})
	require.Equal(t, defrag.DefragmentationStats{BytesMoved: 15, AllocationsMoved: 3, FreeRangesMerged: 1, PassCount: 2}, stats)
	require.Equal(t, "AlgorithmFast", defrag.AlgorithmFast.String())
}

func TestParseAlgorithm(t *testing.T) {
	for name, expected := range map[string]defrag.Algorithm{
		"fast":          defrag.AlgorithmFast,
		"Full":          defrag.AlgorithmFull,
		"AlgorithmFast": defrag.AlgorithmFast,
	} {
		algorithm, err := defrag.ParseAlgorithm(name)
		require.NoError(t, err, name)
		require.Equal(t, expected, algorithm, name)
	}

	_, err := defrag.ParseAlgorithm("quick")
	require.Error(t, err)
}
