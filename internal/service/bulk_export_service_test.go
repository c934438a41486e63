package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leratech/maweni-results/internal/models"
	"github.com/leratech/maweni-results/pkg/export"
)

func bulkStudent(adm, name string, scores ...float64) models.StudentResult {
	subjects := []string{"MATHEMATICS", "ENGLISH", "CRE"}
	student := models.StudentResult{AdmissionNumber: adm, FullName: name, ClassName: "Form 3"}
	for i, score := range scores {
		student.SubjectScores = append(student.SubjectScores, models.SubjectScore{
			SubjectName: subjects[i%len(subjects)],
			Score:       models.Num(score),
		})
	}
	return student
}

func bulkCohort() []models.StudentResult {
	malformed := bulkStudent("003", "Bad Record")
	malformed.ScoresErr = errors.New("subject_scores is not a list")
	return []models.StudentResult{
		bulkStudent("001", "Jane Doe", 80, 70, 60),
		bulkStudent("002", "John Otieno", 50, 55),
		malformed,
		bulkStudent("004", "Amy Atieno", 90),
		bulkStudent("005", "Mary Achieng", 40, 45, 50),
	}
}

func newTestBulkExporter() *BulkExporter {
	return NewBulkExporter(BulkExporterConfig{
		Now: func() time.Time { return time.Date(2024, 11, 5, 9, 0, 0, 0, time.UTC) },
	}, nil, nil, nil)
}

type panickingPDF struct{ victim string }

func (p panickingPDF) Build(card export.ReportCard) ([]byte, error) {
	if card.Student.AdmissionNumber == p.victim {
		panic("boom")
	}
	return []byte("%PDF-stub"), nil
}

type cancellingSink struct {
	export.MemorySink
	after  int
	cancel context.CancelFunc
}

func (s *cancellingSink) Download(ctx context.Context, filename, contentType string, data []byte) error {
	if err := s.MemorySink.Download(ctx, filename, contentType, data); err != nil {
		return err
	}
	if len(s.Documents()) == s.after {
		s.cancel()
	}
	return nil
}

func TestExportAllIndividualCountsMalformedRecord(t *testing.T) {
	sink := &export.MemorySink{}
	var progress []int

	result, err := newTestBulkExporter().ExportAllIndividual(context.Background(), bulkCohort(), BulkOptions{Format: models.FormatPDF}, sink, func(current, total int) {
		assert.Equal(t, 5, total)
		progress = append(progress, current)
	})
	require.NoError(t, err)
	assert.Equal(t, 5, result.Total)
	assert.Equal(t, 4, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "003", result.Failures[0].AdmissionNumber)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, progress)

	docs := sink.Documents()
	require.Len(t, docs, 4)
	assert.Equal(t, "Academic_Report_001_Jane_Doe.pdf", docs[0].Filename)
	assert.Equal(t, export.ContentTypePDF, docs[0].ContentType)
	assert.True(t, strings.HasPrefix(string(docs[0].Data), "%PDF-"))
	assert.Equal(t, "Academic_Report_005_Mary_Achieng.pdf", docs[3].Filename)
}

func TestExportAllIndividualHTML(t *testing.T) {
	sink := &export.MemorySink{}
	result, err := newTestBulkExporter().ExportAllIndividual(context.Background(), bulkCohort()[:2], BulkOptions{Format: models.FormatHTML}, sink, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)

	docs := sink.Documents()
	require.Len(t, docs, 2)
	assert.Equal(t, "Academic_Report_002_John_Otieno.html", docs[1].Filename)
	assert.Equal(t, export.ContentTypeHTML, docs[0].ContentType)
	assert.Contains(t, string(docs[0].Data), "Jane Doe")
}

func TestExportAllIndividualRecoversPanics(t *testing.T) {
	exporter := newTestBulkExporter()
	exporter.pdf = panickingPDF{victim: "002"}

	sink := &export.MemorySink{}
	result, err := exporter.ExportAllIndividual(context.Background(), bulkCohort()[:2], BulkOptions{}, sink, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)
	assert.Contains(t, result.Failures[0].Reason, "panicked")
}

func TestExportAllIndividualStopsOnCancel(t *testing.T) {
	exporter := newTestBulkExporter()
	exporter.cfg.PacingDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink := &cancellingSink{after: 1, cancel: cancel}

	done := make(chan struct{})
	var (
		result BulkResult
		err    error
	)
	go func() {
		defer close(done)
		result, err = exporter.ExportAllIndividual(ctx, bulkCohort(), BulkOptions{}, sink, nil)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("export did not stop during the pacing wait")
	}
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, result.SuccessCount)
	assert.Zero(t, result.ErrorCount)
	assert.Len(t, sink.Documents(), 1)
}

type timedSink struct {
	export.MemorySink
	at map[string]time.Time
}

func (s *timedSink) Download(ctx context.Context, filename, contentType string, data []byte) error {
	s.at[filename[:len("Academic_Report_000")]] = time.Now()
	return s.MemorySink.Download(ctx, filename, contentType, data)
}

func TestExportAllIndividualPacesSuccessfulDownloads(t *testing.T) {
	const delay = 50 * time.Millisecond
	exporter := newTestBulkExporter()
	exporter.pdf = panickingPDF{}
	exporter.cfg.PacingDelay = delay
	sink := &timedSink{at: map[string]time.Time{}}

	start := time.Now()
	result, err := exporter.ExportAllIndividual(context.Background(), bulkCohort(), BulkOptions{}, sink, nil)
	end := time.Now()
	require.NoError(t, err)
	assert.Equal(t, 4, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)

	// four successes, the last one not followed by a wait
	assert.GreaterOrEqual(t, end.Sub(start), 3*delay)
	assert.GreaterOrEqual(t, sink.at["Academic_Report_002"].Sub(sink.at["Academic_Report_001"]), delay)
	// the failed 003 adds no wait of its own
	assert.Less(t, sink.at["Academic_Report_004"].Sub(sink.at["Academic_Report_002"]), 2*delay)
	assert.Less(t, end.Sub(sink.at["Academic_Report_005"]), delay)
}

func TestExportAllIndividualEmptyCohort(t *testing.T) {
	result, err := newTestBulkExporter().ExportAllIndividual(context.Background(), nil, BulkOptions{}, &export.MemorySink{}, nil)
	require.NoError(t, err)
	assert.Equal(t, BulkResult{}, result)
}

func TestReportCardDefaultsComments(t *testing.T) {
	exporter := newTestBulkExporter()

	student := bulkStudent("001", "Jane Doe", 80, 70, 60)
	student.TotalScore = models.Num(620)
	card := exporter.ReportCard(student, 30, 1100, nil)
	assert.Equal(t, "Adequate understanding. Additional practice would be beneficial.", card.Comments.Principal)
	assert.Equal(t, "Good effort shown. Focus on consistency across all subjects.", card.Comments.ClassTeacher)
	assert.Equal(t, export.DefaultSchool, card.School)
	require.Len(t, card.Subjects, 3)
	assert.Equal(t, "A", card.Subjects[0].Grade)

	student.PrincipalComment = "Keep it up"
	card = exporter.ReportCard(student, 30, 1100, nil)
	assert.Equal(t, "Keep it up", card.Comments.Principal)
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	exporter := newTestBulkExporter()
	_, err := exporter.Render(exporter.ReportCard(bulkStudent("001", "Jane Doe", 80), 1, 0, nil), models.DocumentFormat("docx"))
	assert.Error(t, err)
}
