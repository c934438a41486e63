package export

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"math"

	"github.com/jung-kurt/gofpdf"

	"github.com/leratech/maweni-results/internal/grading"
	"github.com/leratech/maweni-results/internal/models"
)

const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	pageMargin   = 8.0
	contentWidth = pageWidth - 2*pageMargin
	rowHeight    = 8.0
	headerHeight = 9.0
	// space kept free below the subject table for comments and signatures
	tableReserve = 80.0
)

var (
	navy      = [3]int{10, 46, 92}
	rowTint   = [3]int{248, 249, 250}
	mutedGrey = [3]int{102, 102, 102}
	feeRed    = [3]int{239, 83, 80}
	feeGreen  = [3]int{46, 139, 87}
)

type pdfColumn struct {
	title string
	width float64
}

var pdfColumns = []pdfColumn{
	{"SUBJECT", 50}, {"SCORE", 15}, {"GRADE", 15}, {"TEACHER", 35}, {"REMARKS", 65},
}

// ReportCardPDF renders single-student report cards as A4 PDFs.
type ReportCardPDF struct {
	// Continuation moves subjects that do not fit on the first page onto
	// further pages instead of summarising them in one line.
	Continuation bool
	compress     bool
}

// NewReportCardPDF builds a PDF report renderer.
func NewReportCardPDF(continuation bool) *ReportCardPDF {
	return &ReportCardPDF{Continuation: continuation, compress: true}
}

// Build renders the card and returns the PDF bytes.
func (r *ReportCardPDF) Build(card ReportCard) ([]byte, error) {
	view, err := card.view()
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, 0)
	if !card.GeneratedAt.IsZero() {
		pdf.SetCreationDate(card.GeneratedAt)
	}
	pdf.SetTitle("Academic Report - "+view.Name, true)
	pdf.SetCreator(view.School.SystemName, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	r.header(pdf, tr, view, card.Logo)
	r.summary(pdf, tr, view, card.CohortSize)

	y := 87.0
	setText(pdf, navy)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Text(pageMargin, y, "SUBJECT PERFORMANCE ANALYSIS")
	y += 8

	y = r.tableHeader(pdf, y)
	rows := view.Subjects
	capacity := rowCapacity(y)
	shown := rows
	if len(rows) > capacity {
		shown = rows[:capacity]
	}
	y = r.tableRows(pdf, tr, shown, y)

	remaining := rows[len(shown):]
	if len(remaining) > 0 && !r.Continuation {
		y += 4
		setText(pdf, mutedGrey)
		pdf.SetFont("Helvetica", "", 7)
		pdf.Text(columnX(0), y, fmt.Sprintf("+ %d more subjects...", len(remaining)))
		y += 5
	}
	for len(remaining) > 0 && r.Continuation {
		pdf.AddPage()
		y = r.tableHeader(pdf, 15)
		capacity = rowCapacity(y)
		page := remaining
		if len(page) > capacity {
			page = page[:capacity]
		}
		y = r.tableRows(pdf, tr, page, y)
		remaining = remaining[len(page):]
	}
	y += 8

	r.footer(pdf, tr, view, y)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render report pdf: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render report pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *ReportCardPDF) header(pdf *gofpdf.Fpdf, tr func(string) string, view cardView, logo []byte) {
	pdf.SetFillColor(navy[0], navy[1], navy[2])
	pdf.Rect(0, 0, pageWidth, 32, "F")

	if len(logo) > 0 {
		if _, err := jpeg.DecodeConfig(bytes.NewReader(logo)); err == nil {
			opts := gofpdf.ImageOptions{ImageType: "JPG"}
			pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(logo))
			pdf.ImageOptions("logo", pageMargin, 10, 25, 25, false, opts, 0, "")
		}
	}

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 16)
	centerText(pdf, 14, tr(view.School.Name))
	pdf.SetFont("Helvetica", "", 11)
	centerText(pdf, 21, tr(view.School.Address))
	centerText(pdf, 26, tr("Email: "+view.School.Email))

	setText(pdf, navy)
	pdf.SetFont("Helvetica", "B", 18)
	centerText(pdf, 38, "ACADEMIC PERFORMANCE REPORT")
}

func (r *ReportCardPDF) summary(pdf *gofpdf.Fpdf, tr func(string) string, view cardView, cohortSize int) {
	const top = 45.0
	left := pageMargin + 8
	right := pageMargin + contentWidth/2 + 8

	setText(pdf, navy)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(left, top+9, "STUDENT INFORMATION")
	pdf.Text(right, top+9, "ACADEMIC SUMMARY")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Text(left, top+15, tr("Name: "+view.Name))
	pdf.Text(left, top+21, tr("Adm No: "+view.Admission))
	pdf.Text(left, top+27, tr("Class: "+view.ClassName))

	pdf.Text(right, top+15, fmt.Sprintf("Marks: %d", view.Marks))
	pdf.Text(right, top+21, fmt.Sprintf("Percent: %s%%", view.Percentage))
	pdf.Text(right, top+27, tr("Grade: "+view.OverallGrade))
	pdf.Text(right, top+33, fmt.Sprintf("Class Rank: %s/%d", view.ClassRank, cohortSize))
}

func (r *ReportCardPDF) tableHeader(pdf *gofpdf.Fpdf, y float64) float64 {
	pdf.SetFillColor(navy[0], navy[1], navy[2])
	pdf.Rect(pageMargin, y, contentWidth, headerHeight, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 10)
	for i, col := range pdfColumns {
		pdf.Text(columnX(i), y+6, col.title)
	}
	return y + headerHeight
}

func (r *ReportCardPDF) tableRows(pdf *gofpdf.Fpdf, tr func(string) string, rows []models.SubjectScore, y float64) float64 {
	for i, s := range rows {
		if i%2 == 0 {
			pdf.SetFillColor(rowTint[0], rowTint[1], rowTint[2])
			pdf.Rect(pageMargin, y, contentWidth, rowHeight, "F")
		}
		baseline := y + 5.5

		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.Text(columnX(0), baseline, tr(truncate(s.SubjectName, 25)))
		pdf.Text(columnX(1), baseline, scoreLabel(s.Score))

		c := grading.Color(s.Grade)
		pdf.SetTextColor(c.R, c.G, c.B)
		pdf.Text(columnX(2), baseline, s.Grade)

		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "", 9)
		pdf.Text(columnX(3), baseline, tr(truncate(s.Teacher, 18)))
		pdf.Text(columnX(4), baseline, tr(truncate(s.Remarks, 35)))
		y += rowHeight
	}
	return y
}

func (r *ReportCardPDF) footer(pdf *gofpdf.Fpdf, tr func(string) string, view cardView, y float64) {
	commentsHeight := math.Min(45, pageHeight-y-30)
	pdf.SetFillColor(rowTint[0], rowTint[1], rowTint[2])
	pdf.Rect(pageMargin, y, contentWidth, commentsHeight, "F")

	left := pageMargin + 8
	setText(pdf, navy)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(left, y+10, "OFFICIAL COMMENTS")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(left, y+16, "Principal's Comment:")
	pdf.SetXY(left, y+18)
	pdf.MultiCell(contentWidth-16, 4.5, tr(view.Principal), "", "L", false)
	pdf.Text(left, y+30, "Class Teacher's Comment:")
	pdf.SetXY(left, y+32)
	pdf.MultiCell(contentWidth-16, 4.5, tr(view.ClassTeacher), "", "L", false)
	y += commentsHeight + 8

	fee := "_________________"
	colour := feeGreen
	if view.FeeBalance.Valid && view.FeeBalance.Value != 0 {
		fee = feeLabel(view.FeeBalance)
		if view.FeeBalance.Value > 0 {
			colour = feeRed
		}
	}
	setText(pdf, colour)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(left, y, "Fee Balance: KSh "+fee)
	y += 10

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(pageMargin+30, y, "_________________________")
	pdf.Text(pageMargin+45, y+6, "Principal's Signature")
	pdf.Text(pageMargin+contentWidth-90, y, "_________________________")
	pdf.Text(pageMargin+contentWidth-82, y+6, "Class Teacher's Signature")

	setText(pdf, mutedGrey)
	pdf.SetFont("Helvetica", "", 8)
	rightText(pdf, pageHeight-12, tr("Generated by "+view.School.SystemName))
	rightText(pdf, pageHeight-7, "Report generated on: "+view.GeneratedOn)
}

// rowCapacity is how many subject rows fit between y and the reserved
// comments area.
func rowCapacity(y float64) int {
	n := int(math.Floor((pageHeight - y - tableReserve) / rowHeight))
	if n < 0 {
		return 0
	}
	return n
}

func columnX(index int) float64 {
	x := pageMargin + 5
	for i := 0; i < index; i++ {
		x += pdfColumns[i].width
	}
	return x
}

func setText(pdf *gofpdf.Fpdf, rgb [3]int) {
	pdf.SetTextColor(rgb[0], rgb[1], rgb[2])
}

func centerText(pdf *gofpdf.Fpdf, y float64, text string) {
	pdf.Text((pageWidth-pdf.GetStringWidth(text))/2, y, text)
}

func rightText(pdf *gofpdf.Fpdf, y float64, text string) {
	pdf.Text(pageWidth-pageMargin-pdf.GetStringWidth(text), y, text)
}
