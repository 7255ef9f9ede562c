package defrag

import (
	"strings"

	"github.com/pkg/errors"
)

// Algorithm identifies which compaction algorithm will be used for defragmentation passes
type Algorithm uint32

const (
	// AlgorithmFast moves processes, last first, into the earliest hole that can hold them. It
	// moves fewer processes than AlgorithmFull but may leave holes behind that no process fits.
	AlgorithmFast Algorithm = iota + 1
	// AlgorithmFull slides every process down against its predecessor until all free space is
	// a single region at the end of memory.
	//
	// This is the default algorithm if none is specified.
	AlgorithmFull
)

var algorithmMapping = map[Algorithm]string{
	AlgorithmFast: "AlgorithmFast",
	AlgorithmFull: "AlgorithmFull",
}

func (a Algorithm) String() string {
	return algorithmMapping[a]
}

// ParseAlgorithm accepts "fast" or "full", with or without the Algorithm prefix
func ParseAlgorithm(name string) (Algorithm, error) {
	normalized := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), "algorithm")

	for algorithm, algorithmName := range algorithmMapping {
		if strings.EqualFold(strings.TrimPrefix(algorithmName, "Algorithm"), normalized) {
			return algorithm, nil
		}
	}

	return 0, errors.Errorf("unknown compaction algorithm %q", name)
}

// DefragmentationInfo contains optional limits for a defragmentation run. It is valid to leave
// all the fields blank.
type DefragmentationInfo struct {
	Algorithm Algorithm

	// MaxBytesPerPass is the most KB one pass may move. 0 means no limit.
	MaxBytesPerPass int
	// MaxAllocationsPerPass is the most processes one pass may move. 0 means no limit.
	MaxAllocationsPerPass int
}

// DefragmentationStats contains basic metrics for defragmentation over time
type DefragmentationStats struct {
	// BytesMoved is the number of KB that have been relocated
	BytesMoved int
	// AllocationsMoved is the number of relocations
	AllocationsMoved int
	// FreeRangesMerged is how many fewer free ranges memory has than before the run
	FreeRangesMerged int
	// PassCount is the number of passes the run took
	PassCount int
}

func (s *DefragmentationStats) Add(stats DefragmentationStats) {
	s.BytesMoved += stats.BytesMoved
	s.AllocationsMoved += stats.AllocationsMoved
	s.FreeRangesMerged += stats.FreeRangesMerged
	s.PassCount += stats.PassCount
}

// Move records one process relocation
type Move struct {
	Owner     string
	Size      int
	SrcOffset int
	DstOffset int
}
