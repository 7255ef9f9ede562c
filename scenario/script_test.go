package scenario_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/memsim/memutils/defrag"
	"github.com/vkngwrapper/memsim/memutils/metadata"
	"github.com/vkngwrapper/memsim/memutils/replacement"
	"github.com/vkngwrapper/memsim/scenario"
)

func TestParseScript(t *testing.T) {
	script, err := scenario.Parse(strings.NewReader(`
# Scenario C
version 1.2.0
reset 100
configure best-fit clock   # trailing comment

admit P1 50
ADMIT P2 50
reference P1
modify P2
release P1
snapshot
reset 100 10
compact
compact fast
`))
	require.NoError(t, err)
	require.Equal(t, "1.2.0", script.Version.String())

	require.Equal(t, []scenario.Command{
		{Line: 4, Op: scenario.OpReset, TotalMemory: 100},
		{Line: 5, Op: scenario.OpConfigure, Strategy: metadata.FitBest, Policy: replacement.PolicyClock},
		{Line: 7, Op: scenario.OpAdmit, Name: "P1", Size: "50"},
		{Line: 8, Op: scenario.OpAdmit, Name: "P2", Size: "50"},
		{Line: 9, Op: scenario.OpReference, Name: "P1"},
		{Line: 10, Op: scenario.OpModify, Name: "P2"},
		{Line: 11, Op: scenario.OpRelease, Name: "P1"},
		{Line: 12, Op: scenario.OpSnapshot},
		{Line: 13, Op: scenario.OpReset, TotalMemory: 100, PageSize: 10},
		{Line: 14, Op: scenario.OpCompact},
		{Line: 15, Op: scenario.OpCompact, Algorithm: defrag.AlgorithmFast},
	}, script.Commands)
}

func TestParseWithoutVersion(t *testing.T) {
	script, err := scenario.Parse(strings.NewReader("admit A x\n"))
	require.NoError(t, err)
	require.Nil(t, script.Version)
	require.Equal(t, "x", script.Commands[0].Size)
}

func TestParseVersionGate(t *testing.T) {
	_, err := scenario.Parse(strings.NewReader("version 2.0.0\n"))
	require.ErrorContains(t, err, "not in the supported range")

	_, err = scenario.Parse(strings.NewReader("version one\n"))
	require.ErrorContains(t, err, "invalid version")

	_, err = scenario.Parse(strings.NewReader("snapshot\nversion 1.0.0\n"))
	require.ErrorContains(t, err, "line 2: version must be the first command")

	_, err = scenario.Parse(strings.NewReader("version 1.0.0\nversion 1.0.0\n"))
	require.Error(t, err)
}

func TestParseErrors(t *testing.T) {
	for text, message := range map[string]string{
		"format disk\n":             `line 1: unknown command "format"`,
		"\nadmit A\n":               "line 2: admit takes 2 arguments, got 1",
		"reset\n":                   "line 1: reset takes 1 to 2 arguments, got 0",
		"reset ten\n":               `line 1: memory size "ten" is not a whole number of KB`,
		"reset 100 -4\n":            `line 1: page size "-4" is not a whole number of KB`,
		"configure buddy lru\n":     `line 1: unknown fit strategy "buddy"`,
		"configure first-fit mru\n": `line 1: unknown replacement policy "mru"`,
		"release\n":                 "line 1: release takes 1 arguments, got 0",
		"snapshot now\n":            "line 1: snapshot takes 0 arguments, got 1",
		"compact quick\n":           `line 1: unknown compaction algorithm "quick"`,
		"compact full now\n":        "line 1: compact takes 0 to 1 arguments, got 2",
	} {
		_, err := scenario.Parse(strings.NewReader(text))
		require.ErrorContains(t, err, message, text)
	}
}
