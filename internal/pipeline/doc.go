// Package pipeline drives a conversion batch: it discovers files under
// the source directory, mirrors their paths into the output tree, hands
// each one to the matching transcoder, and folds the outcomes into a
// run report. Failures stay scoped to the file that caused them.
package pipeline
