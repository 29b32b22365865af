// Package cmdbuf implements the VCB command buffer: an ordered, append-only
// log of typed rendering commands.
//
// # Recording
//
// Commands are appended with typed methods, each of which records exactly
// one command and advances the buffer version:
//
//	buf := cmdbuf.New()
//	buf.ClearColor(0, 0, 0, 1)
//	buf.SetViewport(0, 0, 800, 600)
//	buf.SetPipeline("hypercube")
//	buf.SetRotor([]float64{1, 0, 0, 0, 0, 0, 0, 0})
//	buf.Draw(36, 0, cmdbuf.TopologyTriangleList)
//	buf.Seal()
//
// The fluent [Builder] exposes the same operations as a chain.
//
// # Payloads
//
// Every command carries a [Payload], a closed sum type with one struct per
// [CommandType]. Consumers switch on the concrete type:
//
//	for _, cmd := range buf.All() {
//		switch p := cmd.Data.(type) {
//		case cmdbuf.DrawCommand:
//			...
//		}
//	}
//
// # Serialization
//
// Buffers encode to a JSON document {version, sealed, commands} and to the
// VCB1 binary frame: a 12-byte big-endian header (magic 0x56434231, version,
// payload length) followed by the JSON document. Both forms are shared with
// clients on other platforms, so the numeric command codes and enum values
// never change.
//
// Decoding is all-or-nothing: a malformed frame fails with [ErrFormat] and no
// partially built buffer is returned.
//
// # Versions
//
// Versions come from a process-wide counter, so two buffers never share a
// version and caches keyed on (buffer, version) detect any mutation.
package cmdbuf
