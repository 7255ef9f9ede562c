package sim

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/memsim/memutils/defrag"
	"github.com/vkngwrapper/memsim/memutils/metadata"
	"golang.org/x/exp/slog"
)

// Compact relocates resident processes in contiguous memory to merge free regions, then
// promotes whatever swapped processes fit in the space that opened up. Passes run until the
// algorithm has nothing left to move or a pass moves nothing within the limits in info.
//
// Paged memory has no external fragmentation to remove, so Compact returns an empty result.
// Compaction is not an access: the clock, reference bits, and LRU order are not changed.
func (e *Engine) Compact(info defrag.DefragmentationInfo) (CompactionResult, error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	var result CompactionResult

	layout, isContiguous := e.metadata.(*metadata.ContiguousBlockMetadata)
	if !isContiguous {
		return result, nil
	}

	context := defrag.MetadataDefragContext{
		Algorithm: info.Algorithm,
		Metadata:  layout,
	}
	err := context.Init()
	if err != nil {
		return result, errors.Mark(err, ErrInvalidInput)
	}

	e.logger.Debug("Engine::Compact", slog.String("Algorithm", context.Algorithm.String()))

	for {
		pass := defrag.PassContext{
			MaxPassBytes:       info.MaxBytesPerPass,
			MaxPassAllocations: info.MaxAllocationsPerPass,
		}

		done := context.CollectMoves(&pass)
		result.Stats.Add(pass.Stats)
		result.Moves = append(result.Moves, context.Moves()...)

		for _, move := range context.Moves() {
			e.logger.Debug("Engine::Compact moved process",
				slog.String("Name", move.Owner),
				slog.Int("From", move.SrcOffset),
				slog.Int("To", move.DstOffset),
			)
		}

		if done || len(context.Moves()) == 0 {
			break
		}
	}

	result.Promoted = e.promoteAll()
	return result, nil
}
