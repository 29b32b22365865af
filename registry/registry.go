// Package registry tracks the lifetime of opaque backend resources
// (buffers, textures, pipelines, shaders) for diagnostics and leak detection.
//
// The registry holds bookkeeping only. It never owns the native object
// behind a handle; an optional Disposer is called on Dispose so the owner
// can free it.
package registry

import (
	"container/list"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/vib3/vcb"
	"github.com/vib3/vcb/clock"
)

// Common resource type tags. Any string may be used.
const (
	TypeBuffer   = "buffer"
	TypeTexture  = "texture"
	TypePipeline = "pipeline"
	TypeShader   = "shader"
	TypeSampler  = "sampler"
)

// DefaultHistoryLimit is the history size used by WithHistory(0).
const DefaultHistoryLimit = 256

// Disposer frees the native object behind a handle. Errors and panics are
// logged and never escape Dispose.
type Disposer func(handle any) error

type key struct {
	typ    string
	handle any
}

type entry struct {
	typ       string
	handle    any
	disposer  Disposer
	bytes     int64
	label     string
	createdAt time.Time
}

// EntryOption sets optional metadata on Register.
type EntryOption func(*entry)

// WithBytes records the size of the resource in bytes.
func WithBytes(n int64) EntryOption {
	return func(e *entry) { e.bytes = n }
}

// WithLabel attaches a human-readable label.
func WithLabel(label string) EntryOption {
	return func(e *entry) { e.label = label }
}

// Option configures a Registry.
type Option func(*Registry)

// WithHistory enables the alloc/free event log, keeping at most limit
// events. A limit <= 0 selects DefaultHistoryLimit.
func WithHistory(limit int) Option {
	return func(r *Registry) {
		if limit <= 0 {
			limit = DefaultHistoryLimit
		}
		r.historyLimit = limit
		r.history = list.New()
	}
}

// WithClock sets the time source for creation times and ages.
func WithClock(c clock.Clock) Option {
	return func(r *Registry) {
		if c != nil {
			r.clock = c
		}
	}
}

type typeCounter struct {
	count int
	bytes int64
}

// Registry tracks resource entries keyed by (type, handle).
//
// The registry is meant to be owned by one goroutine. Reads used by
// metrics collection are synchronized, so a Collector may scrape it from
// another goroutine.
type Registry struct {
	mu    sync.Mutex
	clock clock.Clock

	// entries holds one entry per pointer-like handle and a stack of
	// entries per value-typed handle.
	entries map[key][]*entry
	byType  map[string]*typeCounter

	// Totals
	totalResources int
	totalBytes     int64

	// High-water marks since construction
	peakResources int
	peakBytes     int64

	// Lifetime counters
	allocations   uint64
	deallocations uint64

	// Frame tracking
	frame *frameMark

	// History (nil when disabled)
	history      *list.List
	historyLimit int
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		clock:   clock.System{},
		entries: make(map[key][]*entry),
		byType:  make(map[string]*typeCounter),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register tracks handle under resourceType. A nil handle is ignored, so
// callers can register the result of a failed allocation without checking.
// Handles must be comparable; others are logged and ignored.
//
// Pointers, channels and unsafe pointers are identities: registering one
// that is already tracked replaces its entry, updating bytes and label but
// not the resource or allocation counts. Value-typed handles (IDs, structs)
// have no identity, so every registration is a separate entry with its own
// disposer; Release and Dispose remove the most recent one.
func (r *Registry) Register(resourceType string, handle any, disposer Disposer, opts ...EntryOption) {
	if isNil(handle) {
		return
	}
	if !reflect.ValueOf(handle).Comparable() {
		vcb.Logger().Warn("registry: ignoring non-comparable handle",
			"type", resourceType, "handle_type", fmt.Sprintf("%T", handle))
		return
	}

	e := &entry{
		typ:       resourceType,
		handle:    handle,
		disposer:  disposer,
		createdAt: r.clock.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{typ: resourceType, handle: handle}
	tc := r.counterLocked(resourceType)
	if olds := r.entries[k]; len(olds) > 0 && hasIdentity(handle) {
		old := olds[0]
		if old.disposer != nil && disposer == nil {
			vcb.Logger().Warn("registry: re-register drops disposer",
				"type", resourceType, "label", old.label)
		}
		e.createdAt = old.createdAt
		r.entries[k] = []*entry{e}
		tc.bytes += e.bytes - old.bytes
		r.totalBytes += e.bytes - old.bytes
		r.updatePeakLocked()
		r.recordLocked(ActionUpdate, e)
		return
	}

	r.entries[k] = append(r.entries[k], e)
	tc.count++
	tc.bytes += e.bytes
	r.totalResources++
	r.totalBytes += e.bytes
	r.allocations++
	r.updatePeakLocked()
	r.recordLocked(ActionAlloc, e)
}

// Release stops tracking the entry without calling its disposer.
// It reports false if the entry is not tracked.
func (r *Registry) Release(resourceType string, handle any) bool {
	_, ok := r.remove(resourceType, handle)
	return ok
}

// Dispose stops tracking the entry and calls its disposer. Disposer
// failures are logged and swallowed. It reports false if the entry is not
// tracked.
func (r *Registry) Dispose(resourceType string, handle any) bool {
	e, ok := r.remove(resourceType, handle)
	if !ok {
		return false
	}
	runDisposer(e)
	return true
}

// DisposeType disposes every entry of resourceType and returns how many
// were disposed.
func (r *Registry) DisposeType(resourceType string) int {
	r.mu.Lock()
	var victims []*entry
	for k, es := range r.entries {
		if k.typ != resourceType {
			continue
		}
		for len(es) > 0 {
			victims = append(victims, es[len(es)-1])
			es = r.removeLocked(k)
		}
	}
	r.mu.Unlock()

	for _, e := range victims {
		runDisposer(e)
	}
	return len(victims)
}

// DisposeAll disposes every entry and returns how many were disposed.
func (r *Registry) DisposeAll() int {
	r.mu.Lock()
	victims := make([]*entry, 0, r.totalResources)
	for k, es := range r.entries {
		for len(es) > 0 {
			victims = append(victims, es[len(es)-1])
			es = r.removeLocked(k)
		}
	}
	r.mu.Unlock()

	for _, e := range victims {
		runDisposer(e)
	}
	return len(victims)
}

// Has reports whether the entry is tracked.
func (r *Registry) Has(resourceType string, handle any) bool {
	if isNil(handle) || !reflect.ValueOf(handle).Comparable() {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries[key{typ: resourceType, handle: handle}]) > 0
}

// Count returns the number of tracked entries of resourceType.
func (r *Registry) Count(resourceType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tc, ok := r.byType[resourceType]; ok {
		return tc.count
	}
	return 0
}

// Types returns the resource types with at least one live entry, sorted.
func (r *Registry) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, 0, len(r.byType))
	for t, tc := range r.byType {
		if tc.count > 0 {
			types = append(types, t)
		}
	}
	sort.Strings(types)
	return types
}

func (r *Registry) remove(resourceType string, handle any) (*entry, bool) {
	if isNil(handle) || !reflect.ValueOf(handle).Comparable() {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{typ: resourceType, handle: handle}
	es := r.entries[k]
	if len(es) == 0 {
		return nil, false
	}
	e := es[len(es)-1]
	r.removeLocked(k)
	return e, true
}

// removeLocked drops the most recent entry for k, updates counters and
// returns the entries left. Caller must hold mu.
func (r *Registry) removeLocked(k key) []*entry {
	es := r.entries[k]
	e := es[len(es)-1]
	es = es[:len(es)-1]
	if len(es) == 0 {
		delete(r.entries, k)
	} else {
		r.entries[k] = es
	}
	if tc, ok := r.byType[k.typ]; ok {
		tc.count--
		tc.bytes -= e.bytes
		if tc.count == 0 {
			delete(r.byType, k.typ)
		}
	}
	r.totalResources--
	r.totalBytes -= e.bytes
	r.deallocations++
	r.recordLocked(ActionFree, e)
	return es
}

func (r *Registry) counterLocked(resourceType string) *typeCounter {
	tc, ok := r.byType[resourceType]
	if !ok {
		tc = &typeCounter{}
		r.byType[resourceType] = tc
	}
	return tc
}

func (r *Registry) updatePeakLocked() {
	r.peakResources = max(r.peakResources, r.totalResources)
	r.peakBytes = max(r.peakBytes, r.totalBytes)
}

// runDisposer calls the entry's disposer inside a recover boundary.
func runDisposer(e *entry) {
	if e.disposer == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			vcb.Logger().Warn("registry: disposer panicked",
				"type", e.typ, "label", e.label, "panic", p)
		}
	}()
	if err := e.disposer(e.handle); err != nil {
		vcb.Logger().Warn("registry: disposer failed",
			"type", e.typ, "label", e.label, "err", err)
	}
}

// hasIdentity reports whether equal handles always denote the same object.
func hasIdentity(handle any) bool {
	switch reflect.TypeOf(handle).Kind() {
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return true
	}
	return false
}

func isNil(handle any) bool {
	if handle == nil {
		return true
	}
	v := reflect.ValueOf(handle)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return v.IsNil()
	}
	return false
}
