package eval

import "time"

// Outcome labels passed to a Recorder.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder receives evaluation measurements. The telemetry metrics package
// provides a Prometheus implementation.
type Recorder interface {
	// RecordEvaluation is called once per Evaluate call with the root tag.
	RecordEvaluation(rootTag, outcome string, duration time.Duration)

	// RecordNode is called once per evaluated node.
	RecordNode(tag, outcome string)

	// RecordFetch is called once per remote fetch, local overrides excluded.
	RecordFetch(method, outcome string, duration time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) RecordEvaluation(string, string, time.Duration) {}
func (noopRecorder) RecordNode(string, string)                      {}
func (noopRecorder) RecordFetch(string, string, time.Duration)      {}

func outcomeLabel(ok bool) string {
	if ok {
		return OutcomeSuccess
	}
	return OutcomeFailure
}
