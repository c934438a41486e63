package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leratech/maweni-results/internal/models"
)

func student(adm string, rank models.Number, scores map[string]models.Number) models.StudentResult {
	s := models.StudentResult{AdmissionNumber: adm, ClassRank: rank}
	for _, name := range []string{"MATHEMATICS", "ENGLISH", "CRE"} {
		if v, ok := scores[name]; ok {
			s.SubjectScores = append(s.SubjectScores, models.SubjectScore{SubjectName: name, Score: v})
		}
	}
	return s
}

func sampleCohort() []models.StudentResult {
	return []models.StudentResult{
		student("001", models.Num(2), map[string]models.Number{"MATHEMATICS": models.Num(80), "ENGLISH": models.Num(60), "CRE": models.Num(0)}),
		student("002", models.Number{}, map[string]models.Number{"MATHEMATICS": models.Num(40), "ENGLISH": models.Num(70)}),
		student("003", models.Num(1), map[string]models.Number{"MATHEMATICS": models.Num(60), "CRE": models.Num(90)}),
	}
}

func TestSubjectRankingsPositions(t *testing.T) {
	subjects := []string{"MATHEMATICS", "ENGLISH", "CRE", "PHYSICS"}
	rankings := SubjectRankings(sampleCohort(), subjects)
	require.Len(t, rankings, len(subjects))

	seen := map[int]bool{}
	for _, r := range rankings {
		seen[r.Position] = true
	}
	for p := 1; p <= len(subjects); p++ {
		assert.True(t, seen[p], "position %d missing", p)
	}

	// CRE counts only the non-zero 90; ENGLISH (60+70)/2; MATHEMATICS (80+40+60)/3.
	assert.Equal(t, "CRE", rankings[0].Subject)
	assert.Equal(t, 1, rankings[0].Position)
	assert.InDelta(t, 90, rankings[0].Mean, 1e-9)
	assert.Equal(t, "A", rankings[0].Grade)
	assert.Equal(t, "MILKA O.", rankings[0].Teacher)
	assert.Equal(t, "ENGLISH", rankings[1].Subject)
	assert.InDelta(t, 65, rankings[1].Mean, 1e-9)
	assert.Equal(t, "MATHEMATICS", rankings[2].Subject)
	assert.InDelta(t, 60, rankings[2].Mean, 1e-9)
	assert.Equal(t, "PHYSICS", rankings[3].Subject)
	assert.Equal(t, 0.0, rankings[3].Mean)
	assert.Equal(t, "E", rankings[3].Grade)
}

func TestSubjectMeanUsesWholeCohort(t *testing.T) {
	cohort := sampleCohort()
	assert.InDelta(t, 30, SubjectMean(cohort, "CRE"), 1e-9)
	assert.InDelta(t, 130.0/3, SubjectMean(cohort, "ENGLISH"), 1e-9)
	assert.Equal(t, 0.0, SubjectMean(nil, "CRE"))
}

func TestClassMeanAndAverage(t *testing.T) {
	cohort := sampleCohort()
	cohort[0].TotalScore = models.Num(300)
	// 300, 40+70, 60+90
	assert.InDelta(t, (300.0+110+150)/3, ClassMean(cohort), 1e-9)
	assert.Equal(t, 0.0, ClassMean(nil))

	cohort[0].AverageScore = models.Num(70)
	cohort[2].AverageScore = models.Num(60)
	assert.InDelta(t, 65, ClassAverage(cohort), 1e-9)
	assert.Equal(t, 0.0, ClassAverage(nil))
}

func TestSortByClassRankPutsUnrankedLast(t *testing.T) {
	cohort := sampleCohort()
	sorted := SortByClassRank(cohort)
	got := []string{sorted[0].AdmissionNumber, sorted[1].AdmissionNumber, sorted[2].AdmissionNumber}
	assert.Equal(t, []string{"003", "001", "002"}, got)
	assert.Equal(t, "001", cohort[0].AdmissionNumber, "input order is untouched")
}

func TestSortByClassRankTreatsZeroAsUnranked(t *testing.T) {
	cohort := []models.StudentResult{
		student("A", models.Num(0), nil),
		student("B", models.Num(1), nil),
		student("C", models.Number{}, nil),
	}
	sorted := SortByClassRank(cohort)
	got := []string{sorted[0].AdmissionNumber, sorted[1].AdmissionNumber, sorted[2].AdmissionNumber}
	assert.Equal(t, []string{"B", "A", "C"}, got)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 43.33, Round2(130.0/3))
	assert.Equal(t, 66.67, Round2(200.0/3))
}
