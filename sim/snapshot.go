package sim

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/memsim/memutils"
	"github.com/vkngwrapper/memsim/memutils/metadata"
	"github.com/vkngwrapper/memsim/memutils/replacement"
)

// Snapshot is a read-only copy of an engine's observable state. Later operations on the engine
// never change a Snapshot that was already taken.
type Snapshot struct {
	TotalMemory int
	// PageSize is 0 for contiguous memory
	PageSize int
	Strategy metadata.FitStrategy
	Policy   replacement.Policy
	// Clock is the logical time of the most recent placement or reference
	Clock uint64
	// ClockHand is the unit the next Clock sweep starts from
	ClockHand int

	// Regions holds every region (contiguous) or frame (paged) of memory in offset order
	Regions []metadata.Region
	// Resident holds the resident processes ordered by name
	Resident []Process
	// Swap holds the swapped processes in the order they will be considered for promotion
	Swap []Process

	Statistics memutils.DetailedStatistics

	layout metadata.BlockMetadata
}

// Paged returns true if memory is made of frames
func (s Snapshot) Paged() bool {
	return s.PageSize > 0
}

// Snapshot captures the engine's current memory layout, swap area, and statistics
func (e *Engine) Snapshot() Snapshot {
	e.mutex.RLock()
	defer e.mutex.RUnlock()

	snapshot := Snapshot{
		TotalMemory: e.totalMemory,
		PageSize:    e.pageSize,
		Strategy:    e.strategy,
		Policy:      e.selector.Policy,
		Clock:       e.clock,
		ClockHand:   e.selector.Hand(),
		Regions:     make([]metadata.Region, 0, e.metadata.UnitCount()),
		Swap:        copyProcesses(e.swap.list()),
		layout:      e.metadata.Clone(),
	}

	_ = e.metadata.VisitAllRegions(func(region metadata.Region) error {
		snapshot.Regions = append(snapshot.Regions, region)
		return nil
	})

	for _, process := range e.registry.Sorted() {
		if process.State == ProcessResident {
			snapshot.Resident = append(snapshot.Resident, *process)
		}
	}

	snapshot.Statistics.Clear()
	e.metadata.AddDetailedStatistics(&snapshot.Statistics)

	return snapshot
}

// WriteJSON writes the snapshot to writer as a single json object
func (s Snapshot) WriteJSON(writer *jwriter.Writer) {
	obj := writer.Object()
	defer obj.End()

	obj.Name("TotalMemory").Int(s.TotalMemory)
	obj.Name("PageSize").Int(s.PageSize)
	obj.Name("Strategy").String(s.Strategy.String())
	obj.Name("Policy").String(s.Policy.String())
	obj.Name("Clock").Int(int(s.Clock))
	obj.Name("ClockHand").Int(s.ClockHand)

	if s.layout != nil {
		layoutObj := obj.Name("Layout").Object()
		s.layout.BlockJsonData(&layoutObj)
		layoutObj.End()
	}

	regions := obj.Name("Regions").Array()
	for _, region := range s.Regions {
		regionObj := regions.Object()
		regionObj.Name("Index").Int(region.Index)
		regionObj.Name("Offset").Int(region.Offset)
		regionObj.Name("Size").Int(region.Size)
		regionObj.Name("Free").Bool(region.IsFree())
		if !region.IsFree() {
			regionObj.Name("Owner").String(region.Owner)
			if s.Paged() {
				regionObj.Name("Page").Int(region.Page)
			}
		}
		regionObj.End()
	}
	regions.End()

	writeProcessesJson(obj.Name("Resident"), s.Resident)
	writeProcessesJson(obj.Name("Swap"), s.Swap)

	stats := obj.Name("Statistics").Object()
	stats.Name("UsedSize").Int(s.Statistics.AllocationSize)
	stats.Name("FreeSize").Int(s.Statistics.FreeSize())
	stats.Name("FreeRanges").Int(s.Statistics.FreeRangeCount)
	stats.Name("LargestFreeRange").Int(s.Statistics.FreeRangeSizeMax)
	stats.Name("InternalFragmentation").Int(s.Statistics.InternalFragmentation)
	stats.Name("ExternalFragmentation").Float64(s.Statistics.ExternalFragmentation())
	stats.End()
}

func writeProcessesJson(writer *jwriter.Writer, processes []Process) {
	arr := writer.Array()
	defer arr.End()

	for _, process := range processes {
		obj := arr.Object()
		obj.Name("Name").String(process.Name)
		obj.Name("Size").Int(process.Size)
		if process.Pages > 0 {
			obj.Name("Pages").Int(process.Pages)
		}
		obj.Name("LastAccessed").Int(int(process.LastAccessed))
		obj.Name("LoadTime").Int(int(process.LoadTime))
		obj.Name("Referenced").Bool(process.Referenced)
		obj.Name("Modified").Bool(process.Modified)
		obj.End()
	}
}

// JSON returns the snapshot as a json document
func (s Snapshot) JSON() ([]byte, error) {
	writer := jwriter.NewWriter()
	s.WriteJSON(&writer)
	return writer.Bytes(), writer.Error()
}
