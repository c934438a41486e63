package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leratech/maweni-results/internal/models"
)

func cohortOf(names ...[]string) []models.StudentResult {
	cohort := make([]models.StudentResult, 0, len(names))
	for _, subjects := range names {
		student := models.StudentResult{}
		for _, n := range subjects {
			student.SubjectScores = append(student.SubjectScores, models.SubjectScore{SubjectName: n, Score: models.Num(50)})
		}
		cohort = append(cohort, student)
	}
	return cohort
}

func TestSubjectPriority(t *testing.T) {
	assert.Equal(t, 0, SubjectPriority("Mathematics"))
	assert.Equal(t, 0, SubjectPriority("maths"))
	assert.Equal(t, 1, SubjectPriority("English Language"))
	assert.Equal(t, 5, SubjectPriority("PHYSICS"))
	assert.Equal(t, 6, SubjectPriority("GEOGRAPHY"))
	assert.Equal(t, 7, SubjectPriority("CRE"))
	assert.Equal(t, 10, SubjectPriority("agriculture"))
	assert.Equal(t, UnknownPriority, SubjectPriority("French"))
}

func TestUniqueSubjectsOrdersByCurriculum(t *testing.T) {
	cohort := cohortOf(
		[]string{"AGRICULTURE", "French", "ENGLISH", "MATHEMATICS"},
		[]string{"GEOGRAPHY", "PHYSICS", "Computer", "KISWAHILI"},
	)
	assert.Equal(t, []string{"MATHEMATICS", "ENGLISH", "KISWAHILI", "PHYSICS", "GEOGRAPHY", "AGRICULTURE", "French", "Computer"}, UniqueSubjects(cohort))
}

func TestUniqueSubjectsCaseSensitiveDedup(t *testing.T) {
	cohort := cohortOf(
		[]string{"Physics", "MATHS"},
		[]string{"mathematics", "MATHS"},
	)
	first := UniqueSubjects(cohort)
	assert.Equal(t, []string{"MATHS", "mathematics", "Physics"}, first)
	assert.Equal(t, first, UniqueSubjects(cohort))
}

func TestUniqueSubjectsSkipsBlankNames(t *testing.T) {
	cohort := cohortOf([]string{"", "CRE"})
	assert.Equal(t, []string{"CRE"}, UniqueSubjects(cohort))
	assert.Empty(t, UniqueSubjects(nil))
}

func TestTeacherAndAbbreviation(t *testing.T) {
	assert.Equal(t, "ODWAR J.", TeacherFor("mathematics "))
	assert.Equal(t, "ODWAR J.", TeacherFor("MATHS"))
	assert.Equal(t, "ODHIAMBO C.", TeacherFor("GEO"))
	assert.Equal(t, UnassignedTeacher, TeacherFor("French"))
	assert.Equal(t, UnassignedTeacher, TeacherFor(""))

	assert.Equal(t, "MAT", Abbreviation("Mathematics"))
	assert.Equal(t, "BST", Abbreviation("BUSINESS"))
	assert.Equal(t, "COMP", Abbreviation("Computer Studies"))
	assert.Equal(t, "FR", Abbreviation("fr"))
}

func TestEnrichSubjects(t *testing.T) {
	scores := []models.SubjectScore{
		{SubjectName: "ENGLISH", Score: models.Num(70)},
		{SubjectName: "MATHEMATICS", Score: models.Num(80)},
		{SubjectName: "CRE", Score: models.Num(55), Grade: "B", Teacher: "GUEST T."},
		{SubjectName: "HISTORY"},
	}
	out := EnrichSubjects(scores)
	require.Len(t, out, 4)

	assert.Equal(t, "MATHEMATICS", out[0].SubjectName)
	assert.Equal(t, "A", out[0].Grade)
	assert.Equal(t, "Excellent", out[0].Remarks)
	assert.Equal(t, "ODWAR J.", out[0].Teacher)

	assert.Equal(t, "ENGLISH", out[1].SubjectName)
	assert.Equal(t, "A-", out[1].Grade)

	assert.Equal(t, "CRE", out[2].SubjectName)
	assert.Equal(t, "B", out[2].Grade, "backend grade is kept")
	assert.Equal(t, "GUEST T.", out[2].Teacher)

	assert.Equal(t, NoGrade, out[3].Grade)
	assert.Equal(t, "ENGLISH", scores[0].SubjectName, "input is not reordered")
}
