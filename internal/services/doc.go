// Package services defines shared utilities consumed by the conversion
// pipeline and its supporting packages.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, file paths, and phase names for
//     logging and correlation.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification uniform (fatal precondition vs per-file encode error).
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability) stays uniform across the tool.
package services
