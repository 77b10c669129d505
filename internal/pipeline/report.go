package pipeline

import (
	"time"

	"webmill/internal/encoderpick"
	"webmill/internal/media"
)

// Outcome classifies what happened to one discovered file.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// ParseOutcome maps stored outcome labels back to an Outcome.
func ParseOutcome(value string) Outcome {
	switch Outcome(value) {
	case OutcomeSuccess:
		return OutcomeSuccess
	case OutcomeSkipped:
		return OutcomeSkipped
	default:
		return OutcomeFailed
	}
}

// FileResult records the fate of a single discovered file.
type FileResult struct {
	RelPath string
	Kind    media.Kind
	Outcome Outcome
	// Detail carries the skip reason or failure message.
	Detail string
	// OutputPath is set for successful conversions and dry-run plans.
	OutputPath  string
	SourceBytes int64
	OutputBytes int64
	Duration    time.Duration
}

// Report summarizes one conversion run.
type Report struct {
	RunID      string
	Started    time.Time
	Finished   time.Time
	SourceRoot string
	OutputRoot string
	Encoder    encoderpick.Selection
	DryRun     bool
	Results    []FileResult
}

// Total returns the number of discovered files.
func (r *Report) Total() int {
	return len(r.Results)
}

// Succeeded counts converted files.
func (r *Report) Succeeded() int {
	return r.countOutcome(OutcomeSuccess)
}

// Skipped counts files passed over (unsupported kinds, dry runs).
func (r *Report) Skipped() int {
	return r.countOutcome(OutcomeSkipped)
}

// Failed counts files whose conversion errored.
func (r *Report) Failed() int {
	return r.countOutcome(OutcomeFailed)
}

// Failures returns the failed results in report order.
func (r *Report) Failures() []FileResult {
	var failures []FileResult
	for _, result := range r.Results {
		if result.Outcome == OutcomeFailed {
			failures = append(failures, result)
		}
	}
	return failures
}

// SourceBytesTotal sums the source sizes of successful conversions.
func (r *Report) SourceBytesTotal() int64 {
	var total int64
	for _, result := range r.Results {
		if result.Outcome == OutcomeSuccess {
			total += result.SourceBytes
		}
	}
	return total
}

// OutputBytesTotal sums the output sizes of successful conversions.
func (r *Report) OutputBytesTotal() int64 {
	var total int64
	for _, result := range r.Results {
		if result.Outcome == OutcomeSuccess {
			total += result.OutputBytes
		}
	}
	return total
}

// SpaceSaved returns the byte difference between sources and outputs.
// Positive means the converted tree is smaller.
func (r *Report) SpaceSaved() int64 {
	return r.SourceBytesTotal() - r.OutputBytesTotal()
}

// Duration returns the wall-clock time of the run.
func (r *Report) Duration() time.Duration {
	if r.Finished.IsZero() || r.Started.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}

func (r *Report) countOutcome(outcome Outcome) int {
	count := 0
	for _, result := range r.Results {
		if result.Outcome == outcome {
			count++
		}
	}
	return count
}
