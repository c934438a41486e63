package export

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leratech/maweni-results/internal/models"
)

var generatedAt = time.Date(2024, 11, 5, 9, 0, 0, 0, time.UTC)

func janeDoe() models.StudentResult {
	return models.StudentResult{
		AdmissionNumber: "001",
		FullName:        "Jane Doe",
		ClassName:       "Form 3",
		StreamName:      "East",
		TotalScore:      models.Num(620),
		ClassRank:       models.Num(2),
		FeeBalance:      models.Num(1500),
		SubjectScores: []models.SubjectScore{
			scored("ENGLISH", 70),
			scored("MATHEMATICS", 80),
			{SubjectName: "CRE"},
		},
	}
}

func manySubjects(n int) []models.SubjectScore {
	out := make([]models.SubjectScore, n)
	for i := range out {
		out[i] = scored(fmt.Sprintf("ELECTIVE %02d", i+1), 50)
	}
	return out
}

func plainPDF(continuation bool) *ReportCardPDF {
	return &ReportCardPDF{Continuation: continuation}
}

func TestReportCardPDF(t *testing.T) {
	data, err := plainPDF(false).Build(ReportCard{
		Student:     janeDoe(),
		CohortSize:  30,
		MaxTotal:    1100,
		GeneratedAt: generatedAt,
	})
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	body := string(data)
	assert.Contains(t, body, "(Name: Jane Doe)")
	assert.Contains(t, body, "(Percent: 56.4%)")
	assert.Contains(t, body, "(Grade: B-)")
	assert.Contains(t, body, "(Class Rank: #2/30)")
	assert.Contains(t, body, "(Fee Balance: KSh 1500)")
	assert.Contains(t, body, "(Report generated on: 05/11/2024)")
	assert.Contains(t, body, "/Count 1")
	assert.NotContains(t, body, "more subjects")
}

func TestReportCardPDFTruncatesToOnePage(t *testing.T) {
	student := janeDoe()
	student.SubjectScores = manySubjects(16)

	data, err := plainPDF(false).Build(ReportCard{Student: student, CohortSize: 1, GeneratedAt: generatedAt})
	require.NoError(t, err)

	body := string(data)
	assert.Contains(t, body, "(+ 2 more subjects...)")
	assert.Contains(t, body, "/Count 1")
	assert.Contains(t, body, "(ELECTIVE 14)")
	assert.NotContains(t, body, "(ELECTIVE 15)")
}

func TestReportCardPDFContinuation(t *testing.T) {
	student := janeDoe()
	student.SubjectScores = manySubjects(16)

	data, err := plainPDF(true).Build(ReportCard{Student: student, CohortSize: 1, GeneratedAt: generatedAt})
	require.NoError(t, err)

	body := string(data)
	assert.NotContains(t, body, "more subjects")
	assert.Contains(t, body, "/Count 2")
	assert.Contains(t, body, "(ELECTIVE 16)")
}

func TestReportCardRejectsMalformedScores(t *testing.T) {
	student := janeDoe()
	student.ScoresErr = errors.New("subject_scores is not a list")

	_, err := NewReportCardPDF(false).Build(ReportCard{Student: student})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "001")

	_, err = NewReportCardHTML().Build(ReportCard{Student: student}, "")
	require.Error(t, err)
}

func TestReportCardHTML(t *testing.T) {
	student := janeDoe()
	student.FullName = "Jane <b>Doe</b>"
	student.StreamRank = models.Num(1)
	student.FeeBalance = models.Number{}

	data, err := NewReportCardHTML().Build(ReportCard{
		Student:     student,
		CohortSize:  30,
		GeneratedAt: generatedAt,
		Comments:    Comments{Principal: "Keep going"},
	}, DataURI([]byte{0xff, 0xd8}))
	require.NoError(t, err)

	html := string(data)
	assert.Contains(t, html, "<title>Individual Academic Report - Jane &lt;b&gt;Doe&lt;/b&gt;</title>")
	assert.Contains(t, html, `src="data:image/jpeg;base64,`)
	assert.Contains(t, html, "#2 out of 30")
	assert.Contains(t, html, "#1 out of 30")
	assert.Contains(t, html, "56.4%")
	assert.Contains(t, html, `<span class="grade-B">B-</span>`)
	assert.Contains(t, html, "KSh 0.00")
	assert.Contains(t, html, "Keep going")
	assert.Contains(t, html, defaultClassTeacherComment)
	assert.Contains(t, html, "Report generated on: 05/11/2024")

	// subjects in curriculum order, absent score shown as a dash
	maths := strings.Index(html, "MATHEMATICS")
	english := strings.Index(html, "ENGLISH")
	cre := strings.Index(html, "<strong>CRE</strong>")
	require.True(t, maths > 0 && english > 0 && cre > 0)
	assert.Less(t, maths, english)
	assert.Less(t, english, cre)
	assert.Contains(t, html, "<td><strong>-</strong></td>")
}

func TestReportCardOverallGradeOverride(t *testing.T) {
	student := janeDoe()
	student.OverallGrade = "A"

	data, err := NewReportCardHTML().Build(ReportCard{Student: student, CohortSize: 30}, "")
	require.NoError(t, err)
	assert.Contains(t, string(data), `<span class="grade-A">A</span>`)
	assert.NotContains(t, string(data), "<img")
}

func TestRankLabelAndTruncate(t *testing.T) {
	assert.Equal(t, "N/A", rankLabel(models.Number{}))
	assert.Equal(t, "#4", rankLabel(models.Num(4)))
	assert.Equal(t, "Short", truncate("Short", 25))
	assert.Equal(t, "Let's discuss your progre...", truncate("Let's discuss your progress together.", 25))
}
