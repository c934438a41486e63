package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/leratech/maweni-results/internal/grading"
	"github.com/leratech/maweni-results/internal/models"
	"github.com/leratech/maweni-results/internal/ranking"
)

// ContentTypeCSV is served with broadsheet downloads.
const ContentTypeCSV = "text/csv; charset=utf-8"

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    [][]string
}

// CSVExporter renders Dataset records into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for i, row := range data.Rows {
		if len(row) != len(data.Headers) {
			return nil, fmt.Errorf("csv row %d has %d fields, want %d", i+1, len(row), len(data.Headers))
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// BroadsheetDataset flattens a cohort into the same columns as the Excel
// broadsheet. Subject columns use the full stored subject name so two names
// sharing an abbreviation stay distinguishable.
func BroadsheetDataset(cohort []models.StudentResult, maxTotal float64) Dataset {
	if maxTotal <= 0 {
		maxTotal = grading.DefaultMaxTotal
	}
	subjects := grading.UniqueSubjects(cohort)
	headers := append([]string{"ADM.NO", "NAME"}, subjects...)
	headers = append(headers, "TT MARKS", "GRADE", "C RANK")

	data := Dataset{Headers: headers}
	for _, student := range ranking.SortByClassRank(cohort) {
		row := []string{student.AdmissionNumber, student.FullName}
		for _, subject := range subjects {
			row = append(row, scoreWithGrade(student, subject))
		}
		total := student.Total()
		rank := ""
		if r, ok := student.ClassRank.Rank(); ok {
			rank = strconv.Itoa(r)
		}
		row = append(row, strconv.Itoa(models.Num(total).Int()), grading.TotalGradeFor(total, maxTotal), rank)
		data.Rows = append(data.Rows, row)
	}
	return data
}
