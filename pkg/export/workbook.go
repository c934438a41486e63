package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/leratech/maweni-results/internal/grading"
	"github.com/leratech/maweni-results/internal/models"
	"github.com/leratech/maweni-results/internal/ranking"
)

const (
	// ResultsSheet is the worksheet holding the class broadsheet.
	ResultsSheet = "Results"
	// HeaderRow is the broadsheet header; student rows start below it.
	HeaderRow = 5

	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// WorkbookOptions tune the broadsheet.
type WorkbookOptions struct {
	// MaxTotal is the mark ceiling used for total grades. Zero means the
	// default eleven-subject ceiling.
	MaxTotal float64
}

// WorkbookBuilder renders a class cohort as an Excel broadsheet.
type WorkbookBuilder struct{}

// NewWorkbookBuilder builds an Excel renderer.
func NewWorkbookBuilder() *WorkbookBuilder {
	return &WorkbookBuilder{}
}

type workbookStyles struct {
	header, cell, name, bold, title, centred, mean int
}

// Build lays out the broadsheet: one row per student sorted by class rank,
// a MEAN row, a SUBJECT RANKS table and the CLASS MEAN line.
func (b *WorkbookBuilder) Build(cohort []models.StudentResult, opts WorkbookOptions) ([]byte, error) {
	maxTotal := opts.MaxTotal
	if maxTotal <= 0 {
		maxTotal = grading.DefaultMaxTotal
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", ResultsSheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	styles, err := newWorkbookStyles(f)
	if err != nil {
		return nil, err
	}

	subjects := grading.UniqueSubjects(cohort)
	students := ranking.SortByClassRank(cohort)
	w := &sheetWriter{f: f}

	// columns: ADM.NO, NAME, subjects..., TT MARKS, GRADE, C RANK
	header := []interface{}{"ADM.NO", "NAME"}
	w.width(1, 8)
	w.width(2, 30)
	for i, subject := range subjects {
		header = append(header, grading.Abbreviation(subject))
		w.width(3+i, 8)
	}
	header = append(header, "TT MARKS", "GRADE", "C RANK")
	lastCol := len(header)
	w.width(lastCol-2, 10)
	w.width(lastCol-1, 8)
	w.width(lastCol, 8)

	w.row(HeaderRow, header)
	w.style(1, HeaderRow, lastCol, HeaderRow, styles.header)
	if err := f.SetRowHeight(ResultsSheet, HeaderRow, 25); err != nil {
		return nil, fmt.Errorf("size header row: %w", err)
	}

	row := HeaderRow + 1
	for _, student := range students {
		values := []interface{}{student.AdmissionNumber, student.FullName}
		for _, subject := range subjects {
			values = append(values, scoreWithGrade(student, subject))
		}
		total := student.Total()
		var rank interface{} = ""
		if r, ok := student.ClassRank.Rank(); ok {
			rank = r
		}
		values = append(values, models.Num(total).Int(), grading.TotalGradeFor(total, maxTotal), rank)
		w.row(row, values)
		w.style(1, row, lastCol, row, styles.cell)
		w.style(2, row, 2, row, styles.name)
		row++
	}

	meanRow := HeaderRow + 1 + len(students) + 1
	w.set(1, meanRow, "MEAN")
	w.merge(1, meanRow, 2, meanRow)
	w.style(1, meanRow, 2, meanRow, styles.bold)
	for i, subject := range subjects {
		w.set(3+i, meanRow, ranking.Round2(ranking.SubjectMean(students, subject)))
		w.style(3+i, meanRow, 3+i, meanRow, styles.mean)
	}

	titleRow := meanRow + 3
	w.set(1, titleRow, "SUBJECT RANKS")
	w.merge(1, titleRow, 5, titleRow)
	w.style(1, titleRow, 5, titleRow, styles.title)

	w.row(titleRow+1, []interface{}{"SUBJECT", "MEAN", "GRADE", "TEACHER", "POSITION"})
	w.style(1, titleRow+1, 5, titleRow+1, styles.header)

	rankRow := titleRow + 2
	for _, r := range ranking.SubjectRankings(students, subjects) {
		w.row(rankRow, []interface{}{grading.Abbreviation(r.Subject), ranking.Round2(r.Mean), r.Grade, r.Teacher, r.Position})
		w.style(1, rankRow, 5, rankRow, styles.centred)
		w.style(2, rankRow, 2, rankRow, styles.mean)
		rankRow++
	}

	classMean := ranking.ClassMean(students)
	w.set(1, rankRow, "CLASS MEAN")
	w.merge(1, rankRow, 4, rankRow)
	w.style(1, rankRow, 4, rankRow, styles.bold)
	w.set(5, rankRow, ranking.Round2(classMean))
	w.style(5, rankRow, 5, rankRow, styles.mean)
	w.set(6, rankRow, grading.TotalGradeFor(classMean, maxTotal))
	w.style(6, rankRow, 6, rankRow, styles.centred)

	if w.err != nil {
		return nil, fmt.Errorf("write broadsheet: %w", w.err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// scoreWithGrade renders a subject cell as rounded score followed by grade,
// e.g. "80A", or "-" when the student has no score for the subject.
func scoreWithGrade(student models.StudentResult, subject string) string {
	score, ok := student.Score(subject)
	if !ok || !score.Valid {
		return grading.NoGrade
	}
	return fmt.Sprintf("%d%s", score.Int(), grading.GradeFor(score, subject))
}

func newWorkbookStyles(f *excelize.File) (workbookStyles, error) {
	thin := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	centre := &excelize.Alignment{Horizontal: "center", Vertical: "center"}
	twoDP := 2

	var s workbookStyles
	defs := []struct {
		dst   *int
		style *excelize.Style
	}{
		{&s.header, &excelize.Style{Font: &excelize.Font{Bold: true}, Alignment: centre}},
		{&s.cell, &excelize.Style{Border: thin, Alignment: centre}},
		{&s.name, &excelize.Style{Border: thin}},
		{&s.bold, &excelize.Style{Font: &excelize.Font{Bold: true}}},
		{&s.title, &excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}}},
		{&s.centred, &excelize.Style{Alignment: centre}},
		{&s.mean, &excelize.Style{Alignment: centre, NumFmt: twoDP}},
	}
	for _, def := range defs {
		id, err := f.NewStyle(def.style)
		if err != nil {
			return s, fmt.Errorf("create workbook style: %w", err)
		}
		*def.dst = id
	}
	return s, nil
}

// sheetWriter keeps the first error so the layout code reads top to bottom.
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (w *sheetWriter) cell(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil && w.err == nil {
		w.err = err
	}
	return name
}

func (w *sheetWriter) set(col, row int, value interface{}) {
	if w.err != nil {
		return
	}
	if err := w.f.SetCellValue(ResultsSheet, w.cell(col, row), value); err != nil {
		w.err = err
	}
}

func (w *sheetWriter) row(row int, values []interface{}) {
	if w.err != nil {
		return
	}
	if err := w.f.SetSheetRow(ResultsSheet, w.cell(1, row), &values); err != nil {
		w.err = err
	}
}

func (w *sheetWriter) merge(fromCol, fromRow, toCol, toRow int) {
	if w.err != nil {
		return
	}
	if err := w.f.MergeCell(ResultsSheet, w.cell(fromCol, fromRow), w.cell(toCol, toRow)); err != nil {
		w.err = err
	}
}

func (w *sheetWriter) style(fromCol, fromRow, toCol, toRow, style int) {
	if w.err != nil {
		return
	}
	if err := w.f.SetCellStyle(ResultsSheet, w.cell(fromCol, fromRow), w.cell(toCol, toRow), style); err != nil {
		w.err = err
	}
}

func (w *sheetWriter) width(col int, width float64) {
	if w.err != nil {
		return
	}
	name, err := excelize.ColumnNumberToName(col)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetColWidth(ResultsSheet, name, name, width); err != nil {
		w.err = err
	}
}
