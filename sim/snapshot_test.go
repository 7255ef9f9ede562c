package sim_test

import (
	"testing"

	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/memsim/sim"
)

// readLayout parses a whole snapshot document and returns the fields of its Layout object
func readLayout(t *testing.T, data []byte) map[string]int {
	layout := map[string]int{}

	reader := jreader.NewReader(data)
	for obj := reader.Object(); obj.Next(); {
		if string(obj.Name()) != "Layout" {
			require.NoError(t, reader.SkipValue())
			continue
		}

		for fields := reader.Object(); fields.Next(); {
			layout[string(fields.Name())] = reader.Int()
		}
	}

	require.NoError(t, reader.Error())
	return layout
}

func TestSnapshotJSONContiguous(t *testing.T) {
	engine := newEngine(t, sim.CreateOptions{TotalMemory: 100})
	admitResident(t, engine, "P1", 30)

	data, err := engine.Snapshot().JSON()
	require.NoError(t, err)
	require.Equal(t, map[string]int{
		"TotalSize":         100,
		"FreeSize":          70,
		"Allocations":       1,
		"FreeRanges":        1,
		"LargestFreeRegion": 70,
		"NextFitCursor":     0,
	}, readLayout(t, data))
}

func TestSnapshotJSONPaged(t *testing.T) {
	engine := newEngine(t, sim.CreateOptions{TotalMemory: 40, PageSize: 10})
	admitResident(t, engine, "P1", 15)

	data, err := engine.Snapshot().JSON()
	require.NoError(t, err)
	require.Equal(t, map[string]int{
		"TotalSize":   40,
		"FreeSize":    20,
		"Allocations": 1,
		"FreeRanges":  1,
		"PageSize":    10,
		"Frames":      4,
		"FreeFrames":  2,
	}, readLayout(t, data))
}

func TestSnapshotJSONEmptyEngine(t *testing.T) {
	engine := newEngine(t, sim.CreateOptions{TotalMemory: 100})

	data, err := engine.Snapshot().JSON()
	require.NoError(t, err)
	require.Equal(t, 0, readLayout(t, data)["Allocations"])
}
