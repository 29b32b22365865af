// Package executor replays command buffers against a rendering backend.
//
// An Executor walks a buffer strictly in recorded order. Every command is
// validated (enum ranges, non-empty resource IDs, finite numbers, balanced
// state stack). In dispatch mode valid commands are then translated into
// Backend calls, with symbolic resource IDs resolved against the
// executor's buffer, texture and pipeline tables. In validate-only mode no
// backend is touched.
//
// Per-command failures never stop the run under the default policy: they
// are counted and reported in the Result. AbortOnError and WithMaxErrors
// select a stricter policy.
//
//	exec := executor.New(backend)
//	exec.RegisterPipeline("hypercube", pipeline)
//	res, err := exec.Execute(ctx, buf)
//	if err != nil {
//		return err // backend could not start
//	}
//	if res.Errors > 0 {
//		log.Printf("frame had %d bad commands: %v", res.Errors, res.Err())
//	}
//
// Backends are registered by name, following the database/sql driver
// pattern, and selected with NewBackend or BestBackend.
package executor
