// Package main hosts the webmill CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into conversion
// runs, output-tree housekeeping (organize, rename, convert-names, tidy),
// run-history queries, and environment diagnostics. Invoking webmill with no
// arguments converts the whole source tree; everything else is a subcommand.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
