// Package ffmpegcmd builds and executes ffmpeg commands for video
// conversion.
//
// BuildVideoArgs produces the argument slice from a VideoSpec; the section
// order is fixed so the command is deterministic for a given input. Run
// wraps exec.CommandContext with bounded stderr capture and folds that
// output into the returned error, which is usually the only evidence a
// failed encode leaves behind.
package ffmpegcmd
