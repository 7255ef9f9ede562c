package metadata

import (
	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/pkg/errors"
	"github.com/vkngwrapper/memsim/memutils"
	"golang.org/x/exp/slices"
)

type pagedFrame struct {
	owner string
	page  int
}

type pagedOwner struct {
	frames []int
	size   int
}

// PagedBlockMetadata is a BlockMetadata implementation that models physical memory as a fixed
// number of equal-size frames. A process of size S holds exactly ceil(S / PageSize()) frames,
// which need not be adjacent. Placement is all-or-nothing: a process is never partially
// resident.
type PagedBlockMetadata struct {
	BlockMetadataBase

	pageSize   int
	freeFrames int
	frames     []pagedFrame
	owners     *swiss.Map[string, pagedOwner]
}

var _ BlockMetadata = &PagedBlockMetadata{}

// NewPagedBlockMetadata creates a new, uninitialized PagedBlockMetadata with the provided page
// size. Init must be called with a capacity that pageSize evenly divides.
func NewPagedBlockMetadata(pageSize int) *PagedBlockMetadata {
	return &PagedBlockMetadata{
		pageSize: pageSize,
	}
}

// Init prepares capacity / PageSize() free frames. Init panics if the page size does not
// evenly divide capacity; callers should check with memutils.CheckPageSize first.
func (m *PagedBlockMetadata) Init(capacity int) {
	err := memutils.CheckPageSize(capacity, m.pageSize)
	if err != nil {
		panic(err)
	}

	m.BlockMetadataBase.Init(capacity)
	frameCount := capacity / m.pageSize
	m.frames = make([]pagedFrame, frameCount)
	m.freeFrames = frameCount
	m.owners = swiss.NewMap[string, pagedOwner](uint32(frameCount))
}

// Paged always returns true
func (m *PagedBlockMetadata) Paged() bool { return true }

// PageSize returns the size of each frame
func (m *PagedBlockMetadata) PageSize() int { return m.pageSize }

// FrameCount returns the number of frames, which never changes after Init
func (m *PagedBlockMetadata) FrameCount() int { return len(m.frames) }

// FreeFrameCount returns the number of frames not held by any owner
func (m *PagedBlockMetadata) FreeFrameCount() int { return m.freeFrames }

// SumFreeSize returns the total size of the free frames
func (m *PagedBlockMetadata) SumFreeSize() int { return m.freeFrames * m.pageSize }

// PagesFor returns the number of frames a request of size needs
func (m *PagedBlockMetadata) PagesFor(size int) int {
	return memutils.PageCount(size, m.pageSize)
}

// Validate checks that the frame table and the owner index agree with each other and with
// the free frame count
func (m *PagedBlockMetadata) Validate() error {
	if len(m.frames)*m.pageSize != m.Capacity() {
		return errors.Errorf("the layout has %d frames of size %d, but a capacity of %d", len(m.frames), m.pageSize, m.Capacity())
	}

	var freeFrames int
	for index, frame := range m.frames {
		if frame.owner == "" {
			freeFrames++
			continue
		}

		owner, ok := m.owners.Get(frame.owner)
		if !ok {
			return errors.Errorf("frame %d is held by %q, which is missing from the owner index", index, frame.owner)
		}

		if frame.page < 0 || frame.page >= len(owner.frames) || owner.frames[frame.page] != index {
			return errors.Errorf("frame %d claims page %d of %q, but the owner index disagrees", index, frame.page, frame.owner)
		}
	}

	if freeFrames != m.freeFrames {
		return errors.Errorf("the free frame count of the layout is %d, but %d frames were free", m.freeFrames, freeFrames)
	}

	if m.owners.Count() != m.allocCount {
		return errors.Errorf("the allocation count of the layout is %d, but the owner index holds %d owners", m.allocCount, m.owners.Count())
	}

	var err error
	m.owners.Iter(func(name string, owner pagedOwner) bool {
		if len(owner.frames) != m.PagesFor(owner.size) {
			err = errors.Errorf("owner %q of size %d holds %d frames, but needs %d", name, owner.size, len(owner.frames), m.PagesFor(owner.size))
			return true
		}

		return false
	})

	return err
}

// FreeRegionsCount returns the number of runs of adjacent free frames
func (m *PagedBlockMetadata) FreeRegionsCount() int {
	var count int
	for index, frame := range m.frames {
		if frame.owner == "" && (index == 0 || m.frames[index-1].owner != "") {
			count++
		}
	}

	return count
}

// Fits returns true if enough frames are free to hold size
func (m *PagedBlockMetadata) Fits(size int) bool {
	return size > 0 && m.PagesFor(size) <= m.freeFrames
}

// Owns returns true if owner holds frames
func (m *PagedBlockMetadata) Owns(owner string) bool {
	return m.owners.Has(owner)
}

// OwnerFrames returns the frame indices held by owner, ordered by page number
func (m *PagedBlockMetadata) OwnerFrames(owner string) ([]int, bool) {
	entry, ok := m.owners.Get(owner)
	if !ok {
		return nil, false
	}

	return slices.Clone(entry.frames), true
}

// Place puts owner into the layout with TryPlace and discards the frame list
func (m *PagedBlockMetadata) Place(owner string, size int, strategy FitStrategy) bool {
	_, ok := m.TryPlace(owner, size)
	return ok
}

// TryPlace assigns each page of a request of size to a free frame, scanning frames in ascending
// index order. The frame indices are returned ordered by page number. If fewer frames are free
// than the request has pages, TryPlace returns false without assigning any of them.
func (m *PagedBlockMetadata) TryPlace(owner string, size int) ([]int, bool) {
	if size < 1 || owner == "" || m.Owns(owner) {
		return nil, false
	}

	pages := m.PagesFor(size)
	if pages > m.freeFrames {
		return nil, false
	}

	memutils.DebugValidate(m)

	frames := make([]int, 0, pages)
	for index := 0; index < len(m.frames) && len(frames) < pages; index++ {
		if m.frames[index].owner != "" {
			continue
		}

		m.frames[index] = pagedFrame{owner: owner, page: len(frames)}
		frames = append(frames, index)
	}

	m.freeFrames -= pages
	m.allocCount++
	m.owners.Put(owner, pagedOwner{frames: frames, size: size})

	return slices.Clone(frames), true
}

// Free releases every frame held by owner back to the free pool
func (m *PagedBlockMetadata) Free(owner string) bool {
	entry, ok := m.owners.Get(owner)
	if !ok {
		return false
	}

	for _, index := range entry.frames {
		m.frames[index] = pagedFrame{}
	}

	m.freeFrames += len(entry.frames)
	m.allocCount--
	m.owners.Delete(owner)

	memutils.DebugValidate(m)

	return true
}

// UnitCount returns the number of frames
func (m *PagedBlockMetadata) UnitCount() int { return len(m.frames) }

// UnitOwner returns the owner of the frame at index
func (m *PagedBlockMetadata) UnitOwner(index int) string { return m.frames[index].owner }

// VisitAllRegions calls handleRegion once for each frame in index order
func (m *PagedBlockMetadata) VisitAllRegions(handleRegion func(region Region) error) error {
	for index, frame := range m.frames {
		err := handleRegion(Region{
			Index:  index,
			Offset: index * m.pageSize,
			Size:   m.pageSize,
			Owner:  frame.owner,
			Page:   frame.page,
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// AddDetailedStatistics sums this layout's statistics into the provided
// memutils.DetailedStatistics object. Each run of adjacent free frames counts as one free
// range, and each owner counts as one allocation of the frames it holds.
func (m *PagedBlockMetadata) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	stats.UnitCount += len(m.frames)
	stats.CapacitySize += m.Capacity()

	run := 0
	for _, frame := range m.frames {
		if frame.owner == "" {
			run++
			continue
		}

		if run > 0 {
			stats.AddFreeRange(run * m.pageSize)
			run = 0
		}
	}
	if run > 0 {
		stats.AddFreeRange(run * m.pageSize)
	}

	m.owners.Iter(func(name string, owner pagedOwner) bool {
		held := memutils.AlignUp(owner.size, m.pageSize)
		stats.AddAllocation(held)
		stats.InternalFragmentation += held - owner.size
		return false
	})
}

// AddStatistics sums this layout's statistics into the provided memutils.Statistics object.
func (m *PagedBlockMetadata) AddStatistics(stats *memutils.Statistics) {
	stats.UnitCount += len(m.frames)
	stats.AllocationCount += m.allocCount
	stats.CapacitySize += m.Capacity()
	stats.AllocationSize += m.Capacity() - m.SumFreeSize()
}

// Clear frees every frame
func (m *PagedBlockMetadata) Clear() {
	m.Init(m.Capacity())
}

// BlockJsonData populates a json object with information about this layout
func (m *PagedBlockMetadata) BlockJsonData(json *jwriter.ObjectState) {
	m.WriteBlockJson(json, m.SumFreeSize(), m.allocCount, m.FreeRegionsCount())
	json.Name("PageSize").Int(m.pageSize)
	json.Name("Frames").Int(len(m.frames))
	json.Name("FreeFrames").Int(m.freeFrames)
}

// Clone returns an independent copy of the layout
func (m *PagedBlockMetadata) Clone() BlockMetadata {
	clone := *m
	clone.frames = slices.Clone(m.frames)
	clone.owners = swiss.NewMap[string, pagedOwner](uint32(len(m.frames)))
	m.owners.Iter(func(name string, owner pagedOwner) bool {
		clone.owners.Put(name, pagedOwner{frames: slices.Clone(owner.frames), size: owner.size})
		return false
	})

	return &clone
}
