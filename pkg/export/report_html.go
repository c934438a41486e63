package export

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"

	"github.com/leratech/maweni-results/internal/grading"
)

// ReportCardHTML renders single-student report cards as standalone HTML
// pages with inline styles.
type ReportCardHTML struct {
	tmpl *template.Template
}

// NewReportCardHTML parses the report template.
func NewReportCardHTML() *ReportCardHTML {
	return &ReportCardHTML{tmpl: reportTemplate}
}

type htmlSubject struct {
	Name       string
	Score      string
	Grade      string
	GradeClass string
	Teacher    string
	Remarks    string
}

type htmlReport struct {
	cardView
	LogoURL    template.URL
	GradeClass string
	ClassRank  string
	StreamRank string
	Fee        string
	FeeColor   string
	Rows       []htmlSubject
}

// Build renders the card. logoURL is placed in an <img> header when set and
// may be a data URI.
func (r *ReportCardHTML) Build(card ReportCard, logoURL string) ([]byte, error) {
	view, err := card.view()
	if err != nil {
		return nil, err
	}

	data := htmlReport{
		cardView:   view,
		LogoURL:    template.URL(logoURL),
		GradeClass: grading.CSSClass(view.OverallGrade),
		ClassRank:  view.ClassRank + " out of " + strconv.Itoa(card.CohortSize),
		StreamRank: view.StreamRank + " out of " + strconv.Itoa(card.CohortSize),
		Fee:        "0.00",
		FeeColor:   "#2E8B57",
	}
	if view.FeeBalance.Valid && view.FeeBalance.Value != 0 {
		data.Fee = feeLabel(view.FeeBalance)
		if view.FeeBalance.Value > 0 {
			data.FeeColor = "#EF5350"
		}
	}
	for _, s := range view.Subjects {
		data.Rows = append(data.Rows, htmlSubject{
			Name:       s.SubjectName,
			Score:      scoreLabel(s.Score),
			Grade:      s.Grade,
			GradeClass: grading.CSSClass(s.Grade),
			Teacher:    s.Teacher,
			Remarks:    s.Remarks,
		})
	}

	buf := &bytes.Buffer{}
	if err := r.tmpl.Execute(buf, data); err != nil {
		return nil, fmt.Errorf("render report html: %w", err)
	}
	return buf.Bytes(), nil
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Individual Academic Report - {{.Name}}</title>
<style>
@import url('https://fonts.googleapis.com/css2?family=Inter:wght@300;400;500;600;700&display=swap');
body { font-family: 'Inter', 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 40px; line-height: 1.6; color: #333; background: #F8F9FA; }
.report-container { max-width: 1000px; margin: 0 auto; background: white; border-radius: 12px; box-shadow: 0 6px 20px rgba(10, 46, 92, 0.12); overflow: hidden; }
.header { background: linear-gradient(135deg, #0A2E5C 0%, #1A3F6D 100%); color: white; padding: 30px; text-align: center; }
.header img { width: 80px; height: 80px; object-fit: contain; margin-bottom: 10px; }
.school-name { font-size: 24px; font-weight: 700; margin-bottom: 8px; text-transform: uppercase; letter-spacing: 0.5px; }
.report-title { font-size: 28px; font-weight: 700; text-transform: uppercase; letter-spacing: 1.5px; margin: 15px 0; color: #28A79A; }
.content { padding: 40px; }
.info-grid { display: grid; grid-template-columns: 1fr 1fr; gap: 30px; margin-bottom: 30px; }
.section-title { font-size: 20px; font-weight: 700; color: #0A2E5C; margin-bottom: 20px; padding-bottom: 10px; border-bottom: 2px solid #E9ECEF; }
.info-card { background: #F8F9FA; padding: 25px; border-radius: 10px; border-left: 4px solid #0A2E5C; }
.info-card h3 { margin: 0 0 15px 0; color: #0A2E5C; font-size: 16px; font-weight: 700; }
.grade-A { color: #2E8B57; font-weight: 700; }
.grade-B { color: #28A79A; font-weight: 700; }
.grade-C { color: #FFA726; font-weight: 700; }
.grade-D { color: #EF5350; font-weight: 700; }
.subject-table { width: 100%; border-collapse: collapse; margin: 20px 0; border-radius: 10px; overflow: hidden; box-shadow: 0 2px 8px rgba(10, 46, 92, 0.08); }
.subject-table th { background: #0A2E5C; color: white; padding: 14px 16px; text-align: center; font-weight: 600; font-size: 14px; }
.subject-table td { padding: 12px 16px; border-bottom: 1px solid #E9ECEF; text-align: center; }
.subject-table tr:nth-child(even) { background: #FBFCFD; }
.comments-section { background: #F8F9FA; padding: 25px; border-radius: 10px; margin: 30px 0; }
.comment-label { font-weight: 700; color: #0A2E5C; margin-bottom: 8px; display: block; }
.signatures { display: flex; justify-content: space-between; gap: 40px; margin-top: 50px; padding-top: 30px; border-top: 2px solid #E9ECEF; }
.signature { text-align: center; flex: 1; }
.signature-line { border-bottom: 1px solid #333; padding-bottom: 5px; margin-bottom: 8px; }
.footer { margin-top: 40px; padding-top: 20px; border-top: 1px solid #E9ECEF; color: #6C757D; font-size: 12px; text-align: center; }
@media (max-width: 768px) { body { padding: 20px; } .info-grid { grid-template-columns: 1fr; } }
</style>
</head>
<body>
<div class="report-container">
  <div class="header">
    {{if .LogoURL}}<img src="{{.LogoURL}}" alt="School logo">{{end}}
    <div class="school-name">{{.School.Name}}</div>
    <div class="report-title">Individual Academic Performance Report</div>
  </div>
  <div class="content">
    <div class="info-grid">
      <div class="info-card">
        <h3>STUDENT INFORMATION</h3>
        <div><strong>Full Name:</strong> {{.Name}}</div>
        <div><strong>Admission No:</strong> {{.Admission}}</div>
        <div><strong>Class:</strong> {{.ClassName}} {{.StreamName}}</div>
      </div>
      <div class="info-card">
        <h3>ACADEMIC SUMMARY</h3>
        <div><strong>Total Marks:</strong> {{.Marks}}</div>
        <div><strong>Percentage:</strong> {{.Percentage}}%</div>
        <div><strong>Overall Grade:</strong> <span class="{{.GradeClass}}">{{.OverallGrade}}</span></div>
        <div><strong>Class Rank:</strong> {{.ClassRank}}</div>
        <div><strong>Stream Rank:</strong> {{.StreamRank}}</div>
      </div>
    </div>
    <div class="section">
      <div class="section-title">Subject Performance Analysis</div>
      {{if .Rows}}
      <table class="subject-table">
        <thead><tr><th>Subject</th><th>Score</th><th>Grade</th><th>Teacher</th><th>Remarks</th></tr></thead>
        <tbody>
        {{range .Rows}}<tr>
          <td><strong>{{.Name}}</strong></td>
          <td><strong>{{.Score}}</strong></td>
          <td class="{{.GradeClass}}">{{.Grade}}</td>
          <td>{{.Teacher}}</td>
          <td>{{.Remarks}}</td>
        </tr>
        {{end}}</tbody>
      </table>
      {{else}}
      <p style="text-align: center; color: #666;">No subject data available</p>
      {{end}}
    </div>
    <div class="comments-section">
      <div class="section-title">Official Comments</div>
      <div><span class="comment-label">Principal's Comment:</span><div>{{.Principal}}</div></div>
      <div style="margin-top: 15px;"><span class="comment-label">Class Teacher's Comment:</span><div>{{.ClassTeacher}}</div></div>
      <div style="margin-top: 15px;"><span class="comment-label">Fee Balance:</span><div style="color: {{.FeeColor}};">KSh {{.Fee}}</div></div>
    </div>
    <div class="signatures">
      <div class="signature"><div class="signature-line">&nbsp;</div><div>Principal's Signature</div></div>
      <div class="signature"><div class="signature-line">&nbsp;</div><div>Class Teacher's Signature</div></div>
    </div>
    <div class="footer">
      <div>Generated by {{.School.SystemName}}</div>
      <div>Report generated on: {{.GeneratedOn}}</div>
    </div>
  </div>
</div>
</body>
</html>
`))
