package history

import "time"

// Run is the stored summary of one conversion run.
type Run struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time
	SourceRoot    string
	OutputRoot    string
	Encoder       string
	EncoderSource string
	DryRun        bool
	Total         int
	Succeeded     int
	Skipped       int
	Failed        int
}

// RunFile is the stored outcome of one file within a run.
type RunFile struct {
	ID          int64
	RunID       string
	RelPath     string
	Kind        string
	Outcome     string
	Detail      string
	OutputPath  string
	SourceBytes int64
	OutputBytes int64
	Duration    time.Duration
	CreatedAt   time.Time
}
