package metadata

import (
	"strings"

	"github.com/pkg/errors"
)

// FitStrategy selects which free region satisfies a contiguous placement request. Paged
// layouts accept any free frame and ignore it.
type FitStrategy uint32

const (
	// FitFirst selects the free region with the lowest offset that is large enough
	FitFirst FitStrategy = iota + 1
	// FitBest selects the smallest free region that is large enough, minimizing the leftover
	// fragment. Ties go to the region with the lowest offset.
	FitBest
	// FitWorst selects the largest free region, leaving the largest possible leftover fragment.
	// Ties go to the region with the lowest offset.
	FitWorst
	// FitNext behaves like FitFirst, but the scan begins where the previous FitNext placement
	// ended and wraps around to the start of memory.
	FitNext
)

var fitStrategyMapping = map[FitStrategy]string{
	FitFirst: "FirstFit",
	FitBest:  "BestFit",
	FitWorst: "WorstFit",
	FitNext:  "NextFit",
}

func (s FitStrategy) String() string {
	return fitStrategyMapping[s]
}

// Valid returns true if s is one of the declared strategies
func (s FitStrategy) Valid() bool {
	_, ok := fitStrategyMapping[s]
	return ok
}

// ParseFitStrategy accepts a strategy name such as "BestFit", "best-fit" or "best fit" and
// returns the matching FitStrategy
func ParseFitStrategy(name string) (FitStrategy, error) {
	normalized := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.TrimSpace(name))

	for strategy, strategyName := range fitStrategyMapping {
		if strings.EqualFold(strategyName, normalized) {
			return strategy, nil
		}
	}

	return 0, errors.Errorf("unknown fit strategy %q", name)
}
