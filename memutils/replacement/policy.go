package replacement

import (
	"strings"

	"github.com/pkg/errors"
)

// Policy identifies which victim ordering a Selector applies when space must be reclaimed
type Policy uint32

const (
	// PolicyLRU evicts the units whose owners were accessed least recently
	PolicyLRU Policy = iota + 1
	// PolicyFIFO evicts the units whose owners were first loaded earliest
	PolicyFIFO
	// PolicyClock sweeps the units circularly, giving each referenced unit a second chance
	// before it can be chosen
	PolicyClock
)

var policyMapping = map[Policy]string{
	PolicyLRU:   "LRU",
	PolicyFIFO:  "FIFO",
	PolicyClock: "Clock",
}

func (p Policy) String() string {
	return policyMapping[p]
}

// Valid returns true if p is one of the declared policies
func (p Policy) Valid() bool {
	_, ok := policyMapping[p]
	return ok
}

// ParsePolicy accepts a policy name, case-insensitively, and returns the matching Policy
func ParsePolicy(name string) (Policy, error) {
	for policy, policyName := range policyMapping {
		if strings.EqualFold(policyName, strings.TrimSpace(name)) {
			return policy, nil
		}
	}

	return 0, errors.Errorf("unknown replacement policy %q", name)
}
