package failure

type Severity int

// scheduler control flow
const (
	SeverityFatal Severity = iota
	SeverityRecoverable
)

// ClassifiedError is the error contract shared by every pipeline stage.
// Severity decides whether the scheduler aborts the whole batch (fatal)
// or records a per-key failure outcome and continues (recoverable).
type ClassifiedError interface {
	error
	Severity() Severity
}
