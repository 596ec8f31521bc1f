package types

// Record is one validated game event extracted from a single log line.
// Raw holds the original JSON text byte-for-byte so rendering can
// round-trip the data without reserializing it.
type Record struct {
	Line int    `json:"line"`
	Raw  string `json:"raw"`
}

// Outcome is the result of processing one input file. Err == nil means
// the file was rendered and written to Output; otherwise Err carries the
// reason the file was skipped.
type Outcome struct {
	Input  string `json:"input"`
	Output string `json:"output,omitempty"`
	Err    error  `json:"-"`
}

// Failed reports whether this outcome is a failure.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// BatchResult aggregates per-file outcomes for one batch run, in the
// order the resolver produced the inputs.
type BatchResult struct {
	Outcomes []Outcome
}

// Succeeded returns the number of successfully written viewers.
func (r *BatchResult) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.Failed() {
			n++
		}
	}
	return n
}

// Failed returns the number of inputs that could not be processed.
func (r *BatchResult) Failed() int {
	return len(r.Outcomes) - r.Succeeded()
}

// Failures returns the failed outcomes, preserving input order.
func (r *BatchResult) Failures() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Failed() {
			failed = append(failed, o)
		}
	}
	return failed
}
