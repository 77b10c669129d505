// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// The wire structs keep ffprobe's string-typed numerics as strings; helper
// methods on Result do the parsing and treat malformed values as absent.
// VideoHeight drives the downscale decision and therefore excludes attached
// pictures (embedded cover art), which carry their own dimensions.
package ffprobe
