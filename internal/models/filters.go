package models

// ExportFilters selects the cohort for an export. Term and class are
// required before anything is fetched.
type ExportFilters struct {
	TermID    string `json:"termId" form:"termId" validate:"required"`
	ClassID   string `json:"classId" form:"classId" validate:"required"`
	StreamID  string `json:"streamId,omitempty" form:"streamId"`
	SubjectID string `json:"subjectId,omitempty" form:"subjectId"`
}

