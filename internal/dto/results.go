package dto

import "github.com/leratech/maweni-results/internal/ranking"

// SubjectCell is one subject of an analysis row. Score is nil when the
// student has no recorded score.
type SubjectCell struct {
	Subject      string   `json:"subject"`
	Abbreviation string   `json:"abbreviation"`
	Score        *float64 `json:"score"`
	Grade        string   `json:"grade"`
	Remarks      string   `json:"remarks"`
	Severity     string   `json:"severity"`
	Teacher      string   `json:"teacher"`
}

// AnalysisRow is one student of the results analysis table.
type AnalysisRow struct {
	AdmissionNumber string        `json:"admissionNumber"`
	FullName        string        `json:"fullName"`
	StreamName      string        `json:"streamName,omitempty"`
	Subjects        []SubjectCell `json:"subjects"`
	Total           float64       `json:"total"`
	Percentage      float64       `json:"percentage"`
	TotalGrade      string        `json:"totalGrade"`
	ClassRank       *int          `json:"classRank"`
	StreamRank      *int          `json:"streamRank"`
}

// SubjectMean is a subject's mean over the whole cohort.
type SubjectMean struct {
	Subject      string  `json:"subject"`
	Abbreviation string  `json:"abbreviation"`
	Mean         float64 `json:"mean"`
	Grade        string  `json:"grade"`
}

// AnalysisResponse backs GET /results/analysis.
type AnalysisResponse struct {
	TermName       string                   `json:"termName"`
	AcademicYear   string                   `json:"academicYear"`
	ClassName      string                   `json:"className"`
	StreamName     string                   `json:"streamName,omitempty"`
	StudentCount   int                      `json:"studentCount"`
	MaxTotal       float64                  `json:"maxTotal"`
	Subjects       []string                 `json:"subjects"`
	Rows           []AnalysisRow            `json:"rows"`
	SubjectMeans   []SubjectMean            `json:"subjectMeans"`
	Rankings       []ranking.SubjectRanking `json:"rankings"`
	ClassMean      float64                  `json:"classMean"`
	ClassMeanGrade string                   `json:"classMeanGrade"`
	ClassAverage   float64                  `json:"classAverage"`
}
