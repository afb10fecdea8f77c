package constants

// OutcomeStatus is the status of a single extractor or field layer run.
type OutcomeStatus string

// Stable values (clients match on these exact strings).
const (
	StatusOK          OutcomeStatus = "ok"          // primary path succeeded
	StatusDegraded    OutcomeStatus = "degraded"    // fallback path used, or empty OCR
	StatusUnavailable OutcomeStatus = "unavailable" // required capability missing
	StatusFailed      OutcomeStatus = "failed"      // capability present, processing erred
)

// Usable reports whether the stage ran to completion (ok or degraded).
func (s OutcomeStatus) Usable() bool {
	return s == StatusOK || s == StatusDegraded
}

// ResultStatus is the overall status of a structured result.
type ResultStatus string

const (
	ResultComplete ResultStatus = "complete"
	ResultPartial  ResultStatus = "partial"
	ResultEmpty    ResultStatus = "empty"
)
