package registry

import (
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// String returns a one-line summary such as
// "Resources[3 live, 1.5 KiB, peak 4/2.0 KiB]".
func (d Diagnostics) String() string {
	return printer.Sprintf("Resources[%d live, %s, peak %d/%s]",
		d.TotalResources, formatBytes(d.TotalBytes),
		d.Peak.Resources, formatBytes(d.Peak.Bytes))
}

// SummaryString returns a multi-line, human-readable report of the
// registry: totals, peaks, lifetime counters and a per-type breakdown.
func (r *Registry) SummaryString() string {
	d := r.Diagnostics()

	var sb strings.Builder
	sb.WriteString("Resource Registry Summary\n")
	sb.WriteString(printer.Sprintf("  Live:     %d resources, %s\n", d.TotalResources, formatBytes(d.TotalBytes)))
	sb.WriteString(printer.Sprintf("  Peak:     %d resources, %s\n", d.Peak.Resources, formatBytes(d.Peak.Bytes)))
	sb.WriteString(printer.Sprintf("  Lifetime: %d allocations, %d deallocations, %d net\n",
		d.TotalAllocations, d.TotalDeallocations, d.NetAllocations))

	types := make([]string, 0, len(d.ByType))
	for t := range d.ByType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		ts := d.ByType[t]
		sb.WriteString(printer.Sprintf("  %-10s %6d  %s\n", t, ts.Count, formatBytes(ts.Bytes)))
	}
	return sb.String()
}

func formatBytes(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}
