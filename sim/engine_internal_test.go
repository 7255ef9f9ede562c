package sim

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/memsim/memutils/replacement"
)

func TestEvictForAbandonsInsufficientPlan(t *testing.T) {
	engine, err := New(nil, CreateOptions{TotalMemory: 100, Policy: replacement.PolicyLRU})
	require.NoError(t, err)

	_, err = engine.Admit("A", 30)
	require.NoError(t, err)
	_, err = engine.Admit("B", 50)
	require.NoError(t, err)

	before := engine.Snapshot()

	// Nothing the policy can evict makes room for more than the whole of memory
	evicted, ok := engine.evictFor(&Process{Name: "Huge", Size: 150})
	require.False(t, ok)
	require.Empty(t, evicted)

	require.Equal(t, before, engine.Snapshot())
	require.NoError(t, engine.Validate())
}

func TestEvictForAbandonedClockPlanKeepsSweepState(t *testing.T) {
	engine, err := New(nil, CreateOptions{TotalMemory: 40, PageSize: 10, Policy: replacement.PolicyClock})
	require.NoError(t, err)

	_, err = engine.Admit("A", 20)
	require.NoError(t, err)
	_, err = engine.Admit("B", 20)
	require.NoError(t, err)

	// Six pages can never fit in four frames
	_, ok := engine.evictFor(&Process{Name: "Huge", Size: 60})
	require.False(t, ok)

	state, _ := engine.Lookup("A")
	require.Equal(t, ProcessResident, state)
	require.Equal(t, 0, engine.swap.size())

	// The sweep's second chances stand even though nothing was evicted
	a, _ := engine.Process("A")
	b, _ := engine.Process("B")
	require.False(t, a.Referenced)
	require.False(t, b.Referenced)
}

func TestAdmitParksWhenEvictionCannotHelp(t *testing.T) {
	engine, err := New(nil, CreateOptions{TotalMemory: 100})
	require.NoError(t, err)

	// Bypasses the capacity check to drive the swap path of the admission state machine
	engine.totalMemory = 200
	result, err := engine.Admit("Huge", 150)
	require.NoError(t, err)
	require.Equal(t, ResidencySwapped, result.Residency)
	require.ErrorIs(t, result.Reason, ErrInsufficientSpace)

	state, ok := engine.Lookup("Huge")
	require.True(t, ok)
	require.Equal(t, ProcessSwapped, state)
	require.NoError(t, engine.Validate())
}
