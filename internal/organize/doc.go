// Package organize post-processes the converted tree. Videos move into V
// folders and pictures into P folders level by level, files are renumbered
// into zero-padded sequences, and directories left empty are cleared.
package organize
