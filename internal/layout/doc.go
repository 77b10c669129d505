// Package layout computes where converted files land in the output tree.
//
// The output tree is a structural mirror of the source tree: every converted
// file keeps its relative path and swaps only its extension. Mirror is the
// single place that mapping is computed, which keeps the "never write outside
// the output root" guarantee in one testable function.
package layout
