package executor

// resources maps symbolic IDs to native handles, one table per kind.
type resources struct {
	buffers   map[string]any
	textures  map[string]any
	pipelines map[string]any
}

func newResources() resources {
	return resources{
		buffers:   make(map[string]any),
		textures:  make(map[string]any),
		pipelines: make(map[string]any),
	}
}

// RegisterBuffer maps id to a native buffer handle, replacing any previous one.
func (r *resources) RegisterBuffer(id string, handle any) { r.buffers[id] = handle }

// RegisterTexture maps id to a native texture handle.
func (r *resources) RegisterTexture(id string, handle any) { r.textures[id] = handle }

// RegisterPipeline maps id to a native pipeline handle.
func (r *resources) RegisterPipeline(id string, handle any) { r.pipelines[id] = handle }

// GetBuffer returns the handle registered for id.
func (r *resources) GetBuffer(id string) (any, bool) {
	h, ok := r.buffers[id]
	return h, ok
}

// GetTexture returns the handle registered for id.
func (r *resources) GetTexture(id string) (any, bool) {
	h, ok := r.textures[id]
	return h, ok
}

// GetPipeline returns the handle registered for id.
func (r *resources) GetPipeline(id string) (any, bool) {
	h, ok := r.pipelines[id]
	return h, ok
}

// UnregisterBuffer removes id from the buffer table.
func (r *resources) UnregisterBuffer(id string) { delete(r.buffers, id) }

// UnregisterTexture removes id from the texture table.
func (r *resources) UnregisterTexture(id string) { delete(r.textures, id) }

// UnregisterPipeline removes id from the pipeline table.
func (r *resources) UnregisterPipeline(id string) { delete(r.pipelines, id) }

// ClearRegistries empties every table.
func (r *resources) ClearRegistries() {
	clear(r.buffers)
	clear(r.textures)
	clear(r.pipelines)
}

// ResourceCounts returns the number of buffers, textures and pipelines
// currently mapped.
func (r *resources) ResourceCounts() (buffers, textures, pipelines int) {
	return len(r.buffers), len(r.textures), len(r.pipelines)
}
