package model

type Status string

const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusWarning Status = "warning"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPass, StatusFail, StatusWarning:
		return true
	}
	return false
}

type OverallStatus string

const (
	OverallApproved OverallStatus = "approved"
	OverallRejected OverallStatus = "rejected"
	OverallReview   OverallStatus = "review"
)

type FieldResult struct {
	Field      string `json:"field"`
	Name       string `json:"name"`
	Extracted  string `json:"extracted"`
	Expected   string `json:"expected"`
	Status     Status `json:"status"`
	Note       string `json:"note,omitempty"`
	Overridden bool   `json:"overridden,omitempty"`
}

type VerificationResult struct {
	OverallStatus OverallStatus `json:"overallStatus"`
	Fields        []FieldResult `json:"fields"`
	Summary       string        `json:"summary"`
}

// FieldIndex returns the position of field id in r.Fields, or -1.
func (r *VerificationResult) FieldIndex(id string) int {
	for i, f := range r.Fields {
		if f.Field == id {
			return i
		}
	}
	return -1
}
