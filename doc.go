// Package vcb is the render-command protocol of the vib3 visualization engine.
//
// The protocol has three parts, each in its own package:
//
//   - [github.com/vib3/vcb/cmdbuf]: an ordered, append-only command log with
//     sealing, versioning, and JSON / VCB1 binary serialization.
//   - [github.com/vib3/vcb/registry]: a lifecycle tracker for opaque backend
//     resources (buffers, textures, pipelines, shaders) with leak diagnostics.
//   - [github.com/vib3/vcb/executor]: replays a command buffer against a
//     backend, resolving symbolic resource IDs to native handles.
//
// Producers record into a buffer; the buffer is either serialized for
// transport to another client or handed directly to an executor.
//
// # Wire compatibility
//
// The command-type vocabulary, the enum values, and the VCB1 binary layout are
// shared with independently built clients on other platforms. They are fixed
// and versioned; see [Magic] and the cmdbuf package documentation.
//
// # Logging
//
// vcb produces no log output by default. Call [SetLogger] to enable it:
//
//	vcb.SetLogger(slog.Default())
//
// # Thread Safety
//
// Buffers and registries assume a single writer. A sealed buffer cannot be
// mutated and may be read from several goroutines at once (for example,
// serialized and executed concurrently).
package vcb

import "github.com/vib3/vcb/cmdbuf"

// Magic is the 4-byte VCB1 header value ("VCB1" in big-endian byte order).
const Magic = cmdbuf.Magic

// HeaderSize is the size of the VCB1 binary header in bytes:
// magic, version, and payload length, each a big-endian uint32.
const HeaderSize = cmdbuf.HeaderSize
