package scenario

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/vkngwrapper/memsim/memutils/metadata"
	"github.com/vkngwrapper/memsim/sim"
)

const (
	freeSymbol     = '.'
	overflowSymbol = '*'
	ownerSymbols   = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// RenderMap draws snapshot as a text memory map: a bar of width columns in which each resident
// process has its own symbol, a legend, the swap area, and the free space figures
func RenderMap(snapshot sim.Snapshot, width int) string {
	var builder strings.Builder

	layout := "contiguous"
	if snapshot.Paged() {
		layout = fmt.Sprintf("%d KB pages", snapshot.PageSize)
	}
	fmt.Fprintf(&builder, "memory: %d KB %s, %s, %s, clock %d, hand %d\n",
		snapshot.TotalMemory, layout, snapshot.Strategy, snapshot.Policy, snapshot.Clock, snapshot.ClockHand)

	symbols := assignSymbols(snapshot.Regions)
	builder.WriteString(renderBar(snapshot, symbols, width))

	legend := tabwriter.NewWriter(&builder, 0, 4, 2, ' ', 0)
	if snapshot.Paged() {
		writePagedLegend(legend, snapshot, symbols)
	} else {
		writeContiguousLegend(legend, snapshot, symbols)
	}
	_ = legend.Flush()

	swapped := make([]string, 0, len(snapshot.Swap))
	for _, process := range snapshot.Swap {
		swapped = append(swapped, fmt.Sprintf("%s (%d KB)", process.Name, process.Size))
	}
	if len(swapped) == 0 {
		swapped = append(swapped, "empty")
	}
	fmt.Fprintf(&builder, "swap: %s\n", strings.Join(swapped, ", "))

	stats := snapshot.Statistics
	fmt.Fprintf(&builder, "free: %d KB in %d ranges, largest %d KB, external fragmentation %.2f",
		stats.FreeSize(), stats.FreeRangeCount, stats.FreeRangeSizeMax, stats.ExternalFragmentation())
	if snapshot.Paged() {
		fmt.Fprintf(&builder, ", internal fragmentation %d KB", stats.InternalFragmentation)
	}
	builder.WriteString("\n")

	return builder.String()
}

func assignSymbols(regions []metadata.Region) map[string]rune {
	symbols := make(map[string]rune)
	for _, region := range regions {
		if region.IsFree() {
			continue
		}

		_, assigned := symbols[region.Owner]
		if assigned {
			continue
		}

		if len(symbols) < len(ownerSymbols) {
			symbols[region.Owner] = rune(ownerSymbols[len(symbols)])
		} else {
			symbols[region.Owner] = overflowSymbol
		}
	}

	return symbols
}

func renderBar(snapshot sim.Snapshot, symbols map[string]rune, width int) string {
	if width <= 0 || snapshot.TotalMemory <= 0 {
		return ""
	}

	var bar strings.Builder
	bar.WriteRune('|')

	regionIndex := 0
	for column := 0; column < width; column++ {
		offset := column * snapshot.TotalMemory / width
		for regionIndex < len(snapshot.Regions)-1 && snapshot.Regions[regionIndex].End() <= offset {
			regionIndex++
		}

		region := snapshot.Regions[regionIndex]
		if region.IsFree() {
			bar.WriteRune(freeSymbol)
		} else {
			bar.WriteRune(symbols[region.Owner])
		}
	}

	bar.WriteString("|\n")
	return bar.String()
}

func writeContiguousLegend(legend *tabwriter.Writer, snapshot sim.Snapshot, symbols map[string]rune) {
	for _, region := range snapshot.Regions {
		symbol, owner := freeSymbol, "free"
		if !region.IsFree() {
			symbol, owner = symbols[region.Owner], region.Owner
		}

		fmt.Fprintf(legend, "  %c\t%s\t%d..%d\t%d KB\n", symbol, owner, region.Offset, region.End(), region.Size)
	}
}

func writePagedLegend(legend *tabwriter.Writer, snapshot sim.Snapshot, symbols map[string]rune) {
	frames := make(map[string][]string)
	freeFrames := 0
	for _, region := range snapshot.Regions {
		if region.IsFree() {
			freeFrames++
			continue
		}

		frames[region.Owner] = append(frames[region.Owner], fmt.Sprint(region.Index))
	}

	for _, process := range snapshot.Resident {
		fmt.Fprintf(legend, "  %c\t%s\t%d KB\t%d pages\tframes %s\n",
			symbols[process.Name], process.Name, process.Size, process.Pages, strings.Join(frames[process.Name], " "))
	}

	fmt.Fprintf(legend, "  %c\tfree\t%d KB\t%d frames\t\n", freeSymbol, freeFrames*snapshot.PageSize, freeFrames)
}
