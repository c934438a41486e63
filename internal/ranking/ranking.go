// Package ranking computes cohort statistics shown on broadsheets: subject
// means and positions, the class mean and rank ordering.
package ranking

import (
	"math"
	"sort"

	"github.com/leratech/maweni-results/internal/grading"
	"github.com/leratech/maweni-results/internal/models"
)

// SubjectRanking is one line of the SUBJECT RANKS table.
type SubjectRanking struct {
	Subject  string  `json:"subject"`
	Mean     float64 `json:"mean"`
	Grade    string  `json:"grade"`
	Teacher  string  `json:"teacher"`
	Position int     `json:"position"`
}

// SubjectRankings ranks subjects by mean score, best first. A subject's mean
// only counts students with a non-zero score for it, so absent and zero
// scores are both left out of the denominator.
func SubjectRankings(cohort []models.StudentResult, subjects []string) []SubjectRanking {
	rankings := make([]SubjectRanking, 0, len(subjects))
	for _, subject := range subjects {
		var sum float64
		var n int
		for _, student := range cohort {
			score, ok := student.Score(subject)
			if !ok || score.Float() <= 0 {
				continue
			}
			sum += score.Value
			n++
		}
		var mean float64
		if n > 0 {
			mean = sum / float64(n)
		}
		rankings = append(rankings, SubjectRanking{
			Subject: subject,
			Mean:    mean,
			Grade:   grading.GradeForValue(mean, subject),
			Teacher: grading.TeacherFor(subject),
		})
	}
	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].Mean > rankings[j].Mean
	})
	for i := range rankings {
		rankings[i].Position = i + 1
	}
	return rankings
}

// SubjectMean averages one subject over the whole cohort. Students without
// the subject count as zero.
func SubjectMean(cohort []models.StudentResult, subject string) float64 {
	if len(cohort) == 0 {
		return 0
	}
	var sum float64
	for _, student := range cohort {
		score, _ := student.Score(subject)
		sum += score.Float()
	}
	return sum / float64(len(cohort))
}

// ClassMean averages student totals.
func ClassMean(cohort []models.StudentResult) float64 {
	if len(cohort) == 0 {
		return 0
	}
	var sum float64
	for _, student := range cohort {
		sum += student.Total()
	}
	return sum / float64(len(cohort))
}

// ClassAverage averages the backend's per-student average score, skipping
// students without one.
func ClassAverage(cohort []models.StudentResult) float64 {
	var sum float64
	var n int
	for _, student := range cohort {
		if !student.AverageScore.Valid {
			continue
		}
		sum += student.AverageScore.Value
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// SortByClassRank returns a copy of the cohort ordered by class rank.
// Students without a rank, or with rank 0, go last in their original order.
func SortByClassRank(cohort []models.StudentResult) []models.StudentResult {
	out := make([]models.StudentResult, len(cohort))
	copy(out, cohort)
	sort.SliceStable(out, func(i, j int) bool {
		return rankKey(out[i]) < rankKey(out[j])
	})
	return out
}

func rankKey(s models.StudentResult) float64 {
	if _, ok := s.ClassRank.Rank(); !ok {
		return math.Inf(1)
	}
	return s.ClassRank.Value
}

// Round2 rounds to two decimal places for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
