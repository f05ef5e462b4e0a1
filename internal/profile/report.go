package profile

import (
	"fmt"
	"strings"
	"time"

	"cohort/internal/types"
)

// RenderReport produces the human-readable analysis report. The rendering
// is a reference behavior: groups ascend by label, features keep column
// declaration order, and all values print with two decimals, so identical
// inputs yield byte-identical output.
func RenderReport(result *types.RunResult) string {
	var b strings.Builder
	b.WriteString("=== Employee Grouping Analysis Report ===\n")
	fmt.Fprintf(&b, "Timestamp: %s\n", result.Timestamp.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Method: %s\n", result.Method)
	b.WriteString("\nGroup Profiles:\n")

	labels := make([]int, 0, len(result.Profiles))
	for label := range result.Profiles {
		labels = append(labels, label)
	}
	for i := 1; i < len(labels); i++ {
		for j := i; j > 0 && labels[j] < labels[j-1]; j-- {
			labels[j], labels[j-1] = labels[j-1], labels[j]
		}
	}

	for _, label := range labels {
		p := result.Profiles[label]
		fmt.Fprintf(&b, "\nGROUP %d:\n", label)
		fmt.Fprintf(&b, "Size: %d employees (%.2f%%)\n", p.Size, p.Percent)
		b.WriteString("Dominant Features:\n")
		for _, d := range p.Dominant {
			fmt.Fprintf(&b, "  - %s: %.2f\n", d.Name, d.Score)
		}
		b.WriteString("Average Values:\n")
		for _, f := range p.Features {
			fmt.Fprintf(&b, "  - %s: %.2f\n", f.Name, f.Mean)
		}
	}

	if noise := result.Assignment.NoiseCount(); noise > 0 {
		fmt.Fprintf(&b, "\nUnassigned (noise): %d employees\n", noise)
	}

	return b.String()
}
