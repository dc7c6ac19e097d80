package domain

// SubjectType distinguishes authenticated principals.
type SubjectType string

const (
	SubjectTypeAgent      SubjectType = "AGENT"
	SubjectTypeSupervisor SubjectType = "SUPERVISOR"
)
