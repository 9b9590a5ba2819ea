package domain

// ProgressFunc reports upload progress as an integer percent (0-100).
// Called zero or more times, strictly before the request returns.
type ProgressFunc func(percent int)

// SubmissionKind distinguishes the single and batch removal paths
type SubmissionKind int

const (
	SubmissionSingle SubmissionKind = iota
	SubmissionBatch
)

// String returns the kind name used in logs
func (k SubmissionKind) String() string {
	if k == SubmissionBatch {
		return "batch"
	}
	return "single"
}

// KindFor picks the removal path for a selection of n files
func KindFor(n int) SubmissionKind {
	if n > 1 {
		return SubmissionBatch
	}
	return SubmissionSingle
}

// SubmissionResult summarizes a successful submission
type SubmissionResult struct {
	Kind      SubmissionKind
	FileCount int    // Number of files uploaded
	SavedPath string // Where the downloaded bytes were written
	Bytes     int    // Size of the downloaded body
}
