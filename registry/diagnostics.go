package registry

import (
	"encoding/json"
	"sort"
	"time"
)

// TypeStats is the live count and size of one resource type.
type TypeStats struct {
	Count int   `json:"count"`
	Bytes int64 `json:"bytes"`
}

// Stats is a snapshot of live resources.
type Stats struct {
	TotalResources int                  `json:"totalResources"`
	TotalBytes     int64                `json:"totalBytes"`
	ByType         map[string]TypeStats `json:"byType"`
}

// Peak is the high-water mark since the registry was created. It never
// decreases.
type Peak struct {
	Resources int   `json:"resources"`
	Bytes     int64 `json:"bytes"`
}

// Diagnostics extends Stats with peaks and lifetime counters.
type Diagnostics struct {
	Stats
	Peak               Peak   `json:"peak"`
	TotalAllocations   uint64 `json:"totalAllocations"`
	TotalDeallocations uint64 `json:"totalDeallocations"`
	NetAllocations     int64  `json:"netAllocations"`
}

// ResourceInfo describes one live entry.
type ResourceInfo struct {
	Handle    any           `json:"-"`
	Bytes     int64         `json:"bytes"`
	Label     string        `json:"label,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	Age       time.Duration `json:"age"`
}

// Stats returns live totals.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statsLocked()
}

func (r *Registry) statsLocked() Stats {
	s := Stats{
		TotalResources: r.totalResources,
		TotalBytes:     r.totalBytes,
		ByType:         make(map[string]TypeStats, len(r.byType)),
	}
	for t, tc := range r.byType {
		s.ByType[t] = TypeStats{Count: tc.count, Bytes: tc.bytes}
	}
	return s
}

// Diagnostics returns totals, peaks and lifetime counters.
func (r *Registry) Diagnostics() Diagnostics {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.diagnosticsLocked()
}

func (r *Registry) diagnosticsLocked() Diagnostics {
	return Diagnostics{
		Stats:              r.statsLocked(),
		Peak:               Peak{Resources: r.peakResources, Bytes: r.peakBytes},
		TotalAllocations:   r.allocations,
		TotalDeallocations: r.deallocations,
		NetAllocations:     int64(r.allocations) - int64(r.deallocations),
	}
}

// ResourcesByType lists the live entries of resourceType, oldest first.
func (r *Registry) ResourcesByType(resourceType string) []ResourceInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	var out []ResourceInfo
	for k, es := range r.entries {
		if k.typ != resourceType {
			continue
		}
		for _, e := range es {
			out = append(out, ResourceInfo{
				Handle:    e.handle,
				Bytes:     e.bytes,
				Label:     e.label,
				CreatedAt: e.createdAt,
				Age:       now.Sub(e.createdAt),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Label < out[j].Label
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

type frameMark struct {
	allocations   uint64
	deallocations uint64
	resources     int
	bytes         int64
}

// FrameDelta is the change in counters between BeginFrame and EndFrame.
// A steadily positive NetResources across frames indicates a leak.
type FrameDelta struct {
	Allocations   uint64 `json:"allocations"`
	Deallocations uint64 `json:"deallocations"`
	NetResources  int    `json:"netResources"`
	NetBytes      int64  `json:"netBytes"`
}

// BeginFrame snapshots the counters.
func (r *Registry) BeginFrame() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frame = &frameMark{
		allocations:   r.allocations,
		deallocations: r.deallocations,
		resources:     r.totalResources,
		bytes:         r.totalBytes,
	}
}

// EndFrame returns the delta since BeginFrame. It reports false when no
// frame was started.
func (r *Registry) EndFrame() (FrameDelta, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frame == nil {
		return FrameDelta{}, false
	}
	f := r.frame
	r.frame = nil
	return FrameDelta{
		Allocations:   r.allocations - f.allocations,
		Deallocations: r.deallocations - f.deallocations,
		NetResources:  r.totalResources - f.resources,
		NetBytes:      r.totalBytes - f.bytes,
	}, true
}

// export is the document written by ExportDiagnosticsJSON.
type export struct {
	Timestamp   time.Time   `json:"timestamp"`
	Diagnostics Diagnostics `json:"diagnostics"`
	History     []Event     `json:"history"`
}

// ExportDiagnosticsJSON returns diagnostics and history as indented JSON.
func (r *Registry) ExportDiagnosticsJSON() ([]byte, error) {
	r.mu.Lock()
	doc := export{
		Timestamp:   r.clock.Now(),
		Diagnostics: r.diagnosticsLocked(),
		History:     r.historyLocked(""),
	}
	r.mu.Unlock()
	if doc.History == nil {
		doc.History = []Event{}
	}
	return json.MarshalIndent(doc, "", "  ")
}
