package cmdbuf

// Stats summarizes the cost of a buffer.
type Stats struct {
	DrawCalls      int    `json:"drawCalls"`
	Triangles      uint64 `json:"triangles"`
	StateChanges   int    `json:"stateChanges"`
	UniformUpdates int    `json:"uniformUpdates"`
}

// Stats derives draw, triangle, state and uniform counts from the log.
// It does not modify the buffer.
func (b *Buffer) Stats() Stats {
	var s Stats
	for _, cmd := range b.commands {
		switch p := cmd.Data.(type) {
		case DrawCommand:
			s.DrawCalls++
			s.Triangles += p.Topology.Triangles(p.VertexCount)
		case DrawIndexedCommand:
			s.DrawCalls++
			s.Triangles += p.Topology.Triangles(p.IndexCount)
		case DrawInstancedCommand:
			s.DrawCalls++
			s.Triangles += p.Topology.Triangles(p.VertexCount) * uint64(p.InstanceCount)
		case ViewportCommand, PipelineCommand, BlendModeCommand,
			DepthStateCommand, ScissorCommand, StencilCommand:
			s.StateChanges++
		case UniformsCommand, RotorCommand, ProjectionCommand:
			s.UniformUpdates++
		}
	}
	return s
}
