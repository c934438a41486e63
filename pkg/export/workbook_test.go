package export

import (
	"bytes"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/leratech/maweni-results/internal/models"
)

func scored(name string, score float64) models.SubjectScore {
	return models.SubjectScore{SubjectName: name, Score: models.Num(score)}
}

func workbookCohort() []models.StudentResult {
	return []models.StudentResult{
		{AdmissionNumber: "001", FullName: "Jane Doe", ClassRank: models.Num(2),
			SubjectScores: []models.SubjectScore{scored("CRE", 60), scored("MATHEMATICS", 80)}},
		{AdmissionNumber: "002", FullName: "John Otieno", ClassRank: models.Num(1),
			SubjectScores: []models.SubjectScore{scored("MATHEMATICS", 70), scored("CRE", 90)}},
		{AdmissionNumber: "003", FullName: "Amy Atieno",
			SubjectScores: []models.SubjectScore{scored("MATHEMATICS", 50)}},
	}
}

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func cellValue(t *testing.T, f *excelize.File, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(ResultsSheet, cell)
	require.NoError(t, err)
	return v
}

func cellFloat(t *testing.T, f *excelize.File, cell string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(cellValue(t, f, cell), 64)
	require.NoError(t, err, "cell %s", cell)
	return v
}

func TestWorkbookLayout(t *testing.T) {
	data, err := NewWorkbookBuilder().Build(workbookCohort(), WorkbookOptions{MaxTotal: 1100})
	require.NoError(t, err)

	f := openWorkbook(t, data)
	assert.Equal(t, []string{ResultsSheet}, f.GetSheetList())

	assert.Empty(t, cellValue(t, f, "A1"))
	assert.Equal(t, "ADM.NO", cellValue(t, f, "A5"))
	assert.Equal(t, "NAME", cellValue(t, f, "B5"))
	assert.Equal(t, "MAT", cellValue(t, f, "C5"))
	assert.Equal(t, "CRE", cellValue(t, f, "D5"))
	assert.Equal(t, "TT MARKS", cellValue(t, f, "E5"))
	assert.Equal(t, "GRADE", cellValue(t, f, "F5"))
	assert.Equal(t, "C RANK", cellValue(t, f, "G5"))

	// sorted by class rank, unranked last
	assert.Equal(t, "002", cellValue(t, f, "A6"))
	assert.Equal(t, "70A-", cellValue(t, f, "C6"))
	assert.Equal(t, "90A", cellValue(t, f, "D6"))
	assert.Equal(t, "160", cellValue(t, f, "E6"))
	assert.Equal(t, "E", cellValue(t, f, "F6"))
	assert.Equal(t, "1", cellValue(t, f, "G6"))
	assert.Equal(t, "001", cellValue(t, f, "A7"))
	assert.Equal(t, "Jane Doe", cellValue(t, f, "B7"))
	assert.Equal(t, "003", cellValue(t, f, "A8"))
	assert.Equal(t, "-", cellValue(t, f, "D8"))
	assert.Empty(t, cellValue(t, f, "G8"))

	// MEAN sits one blank row after the last student
	assert.Empty(t, cellValue(t, f, "A9"))
	assert.Equal(t, "MEAN", cellValue(t, f, "A10"))
	assert.InDelta(t, 66.67, cellFloat(t, f, "C10"), 0.001)
	assert.InDelta(t, 50.00, cellFloat(t, f, "D10"), 0.001)

	assert.Equal(t, "SUBJECT RANKS", cellValue(t, f, "A13"))
	assert.Equal(t, "SUBJECT", cellValue(t, f, "A14"))
	assert.Equal(t, "POSITION", cellValue(t, f, "E14"))
	assert.Equal(t, "CRE", cellValue(t, f, "A15"))
	assert.InDelta(t, 75, cellFloat(t, f, "B15"), 0.001)
	assert.Equal(t, "A-", cellValue(t, f, "C15"))
	assert.Equal(t, "MILKA O.", cellValue(t, f, "D15"))
	assert.Equal(t, "1", cellValue(t, f, "E15"))
	assert.Equal(t, "MAT", cellValue(t, f, "A16"))
	assert.Equal(t, "2", cellValue(t, f, "E16"))

	assert.Equal(t, "CLASS MEAN", cellValue(t, f, "A17"))
	assert.InDelta(t, 116.67, cellFloat(t, f, "E17"), 0.001)
	assert.Equal(t, "E", cellValue(t, f, "F17"))
}

func TestWorkbookEmptyCohort(t *testing.T) {
	data, err := NewWorkbookBuilder().Build(nil, WorkbookOptions{})
	require.NoError(t, err)

	f := openWorkbook(t, data)
	assert.Equal(t, "TT MARKS", cellValue(t, f, "C5"))
	assert.Equal(t, "MEAN", cellValue(t, f, "A7"))
	assert.Equal(t, "CLASS MEAN", cellValue(t, f, "A12"))
}

func TestWorkbookZeroRankIsBlank(t *testing.T) {
	cohort := []models.StudentResult{
		{AdmissionNumber: "A", FullName: "Zero Rank", ClassRank: models.Num(0),
			SubjectScores: []models.SubjectScore{scored("MATHEMATICS", 50)}},
		{AdmissionNumber: "B", FullName: "Top", ClassRank: models.Num(1),
			SubjectScores: []models.SubjectScore{scored("MATHEMATICS", 80)}},
	}
	data, err := NewWorkbookBuilder().Build(cohort, WorkbookOptions{MaxTotal: 100})
	require.NoError(t, err)

	f := openWorkbook(t, data)
	assert.Equal(t, "C RANK", cellValue(t, f, "F5"))
	assert.Equal(t, "B", cellValue(t, f, "A6"))
	assert.Equal(t, "1", cellValue(t, f, "F6"))
	assert.Equal(t, "A", cellValue(t, f, "A7"))
	assert.Empty(t, cellValue(t, f, "F7"))
}
