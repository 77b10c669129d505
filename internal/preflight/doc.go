// Package preflight provides readiness checks for the paths and binaries
// a conversion run depends on.
//
// The checks run in two contexts:
//   - The run command executes RunAll before converting and logs any
//     failures as warnings; only a missing source tree stops a run, and
//     the pipeline enforces that itself during discovery.
//   - The doctor command renders the same results as a table.
package preflight
