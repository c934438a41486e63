package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SubjectScore is one subject line of a student's results. Grade, Remarks
// and Teacher are filled in by the grading package when the backend leaves
// them empty.
type SubjectScore struct {
	SubjectID   string `json:"subject_id,omitempty"`
	SubjectName string `json:"subject_name"`
	Score       Number `json:"score"`
	Grade       string `json:"grade,omitempty"`
	Remarks     string `json:"remarks,omitempty"`
	Teacher     string `json:"teacher,omitempty"`
}

// StudentResult is a student's submitted results for one term as returned
// by GET /results/submitted. It is read-only for the duration of an export.
type StudentResult struct {
	StudentID           string         `json:"student_id,omitempty"`
	AdmissionNumber     string         `json:"admission_number"`
	FullName            string         `json:"fullname"`
	ClassID             string         `json:"class_id,omitempty"`
	ClassName           string         `json:"class_name,omitempty"`
	StreamID            string         `json:"stream_id,omitempty"`
	StreamName          string         `json:"stream_name,omitempty"`
	TotalScore          Number         `json:"total_score"`
	AverageScore        Number         `json:"average_score"`
	ClassRank           Number         `json:"class_rank"`
	StreamRank          Number         `json:"stream_rank"`
	FeeBalance          Number         `json:"fee_balance"`
	OverallGrade        string         `json:"overall_grade,omitempty"`
	PrincipalComment    string         `json:"principal_comment,omitempty"`
	ClassTeacherComment string         `json:"class_teacher_comment,omitempty"`
	SubjectScores       []SubjectScore `json:"subject_scores"`

	// ScoresErr is set when subject_scores could not be decoded. The record
	// is kept so a batch can count it as a failure instead of dropping it.
	ScoresErr error `json:"-"`
}

type studentResultWire struct {
	StudentID           ID              `json:"student_id"`
	AdmissionNumber     string          `json:"admission_number"`
	AdmissionNo         string          `json:"admission_no"`
	FullName            string          `json:"fullname"`
	FullNameAlt         string          `json:"full_name"`
	Name                string          `json:"name"`
	ClassID             ID              `json:"class_id"`
	ClassName           string          `json:"class_name"`
	StreamID            ID              `json:"stream_id"`
	StreamName          string          `json:"stream_name"`
	TotalScore          Number          `json:"total_score"`
	AverageScore        Number          `json:"average_score"`
	ClassRank           Number          `json:"class_rank"`
	StreamRank          Number          `json:"stream_rank"`
	FeeBalance          Number          `json:"fee_balance"`
	OverallGrade        string          `json:"overall_grade"`
	PrincipalComment    string          `json:"principal_comment"`
	ClassTeacherComment string          `json:"class_teacher_comment"`
	SubjectScores       json.RawMessage `json:"subject_scores"`
}

type subjectScoreWire struct {
	SubjectID   ID     `json:"subject_id"`
	SubjectName string `json:"subject_name"`
	Subject     string `json:"subject"`
	Score       Number `json:"score"`
	Grade       string `json:"grade"`
	Remarks     string `json:"remarks"`
	Teacher     string `json:"teacher"`
	TeacherName string `json:"teacher_name"`
}

// UnmarshalJSON accepts the field aliases the backend has used over time.
func (r *StudentResult) UnmarshalJSON(data []byte) error {
	var w studentResultWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = StudentResult{
		StudentID:           string(w.StudentID),
		AdmissionNumber:     firstNonEmpty(w.AdmissionNumber, w.AdmissionNo),
		FullName:            firstNonEmpty(w.FullName, w.FullNameAlt, w.Name),
		ClassID:             string(w.ClassID),
		ClassName:           w.ClassName,
		StreamID:            string(w.StreamID),
		StreamName:          w.StreamName,
		TotalScore:          w.TotalScore,
		AverageScore:        w.AverageScore,
		ClassRank:           w.ClassRank,
		StreamRank:          w.StreamRank,
		FeeBalance:          w.FeeBalance,
		OverallGrade:        w.OverallGrade,
		PrincipalComment:    w.PrincipalComment,
		ClassTeacherComment: w.ClassTeacherComment,
	}
	r.SubjectScores, r.ScoresErr = decodeSubjectScores(w.SubjectScores)
	return nil
}

func decodeSubjectScores(raw json.RawMessage) ([]SubjectScore, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] != '[' {
		return nil, fmt.Errorf("subject_scores is not a list")
	}
	var wires []subjectScoreWire
	if err := json.Unmarshal(raw, &wires); err != nil {
		return nil, fmt.Errorf("decode subject_scores: %w", err)
	}
	scores := make([]SubjectScore, 0, len(wires))
	for _, w := range wires {
		scores = append(scores, SubjectScore{
			SubjectID:   string(w.SubjectID),
			SubjectName: firstNonEmpty(w.SubjectName, w.Subject),
			Score:       w.Score,
			Grade:       w.Grade,
			Remarks:     w.Remarks,
			Teacher:     firstNonEmpty(w.Teacher, w.TeacherName),
		})
	}
	return scores, nil
}

// Total is the backend total when present and non-zero, otherwise the sum
// of recorded subject scores.
func (r StudentResult) Total() float64 {
	if r.TotalScore.Valid && r.TotalScore.Value != 0 {
		return r.TotalScore.Value
	}
	var sum float64
	for _, s := range r.SubjectScores {
		sum += s.Score.Float()
	}
	return sum
}

// Score returns the student's score for the named subject. Names match
// exactly as stored.
func (r StudentResult) Score(subject string) (Number, bool) {
	for _, s := range r.SubjectScores {
		if s.SubjectName == subject {
			return s.Score, true
		}
	}
	return Number{}, false
}

// NonNumeric lists the fields that carried non-numeric text in place of a
// number, as field=value pairs. Those fields read as absent.
func (r StudentResult) NonNumeric() []string {
	var out []string
	add := func(field string, n Number) {
		if raw, ok := n.Unparsed(); ok {
			out = append(out, field+"="+raw)
		}
	}
	add("total_score", r.TotalScore)
	add("average_score", r.AverageScore)
	add("class_rank", r.ClassRank)
	add("stream_rank", r.StreamRank)
	add("fee_balance", r.FeeBalance)
	for _, s := range r.SubjectScores {
		add("score["+s.SubjectName+"]", s.Score)
	}
	return out
}

// Validate reports records that cannot produce a document.
func (r StudentResult) Validate() error {
	if r.ScoresErr != nil {
		return fmt.Errorf("student %s: %w", r.AdmissionNumber, r.ScoresErr)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
