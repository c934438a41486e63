package export

import (
	"fmt"
	"strconv"
	"time"

	"github.com/leratech/maweni-results/internal/grading"
	"github.com/leratech/maweni-results/internal/models"
)

const (
	defaultPrincipalComment    = "Good performance. Maintain consistency and focus on continuous improvement."
	defaultClassTeacherComment = "Shows great dedication and consistent improvement in academic performance."
)

// SchoolInfo is the letterhead printed on report cards.
type SchoolInfo struct {
	Name       string
	Address    string
	Email      string
	SystemName string
}

// DefaultSchool is used when no letterhead is configured.
var DefaultSchool = SchoolInfo{
	Name:       "ST PETERS MAWENI GIRLS SECONDARY SCHOOL",
	Address:    "P.O. BOX 941-40400 SUNA MIGORI",
	Email:      "stpetersmaweni@gmail.com",
	SystemName: "LeraTech Academic System",
}

// Comments are the two signed comments on a report card.
type Comments struct {
	Principal    string `json:"principal,omitempty"`
	ClassTeacher string `json:"class_teacher,omitempty"`
}

// ReportCard is everything needed to render one student's report.
type ReportCard struct {
	Student models.StudentResult
	// Subjects overrides Student.SubjectScores when set.
	Subjects    []models.SubjectScore
	Comments    Comments
	Logo        []byte
	CohortSize  int
	MaxTotal    float64
	School      SchoolInfo
	GeneratedAt time.Time
}

// cardView holds the derived values shared by every report renderer.
type cardView struct {
	Name         string
	Admission    string
	ClassName    string
	StreamName   string
	Subjects     []models.SubjectScore
	Total        float64
	Marks        int
	Percentage   string
	OverallGrade string
	ClassRank    string
	StreamRank   string
	Principal    string
	ClassTeacher string
	FeeBalance   models.Number
	School       SchoolInfo
	GeneratedOn  string
}

func (c ReportCard) view() (cardView, error) {
	if c.Student.ScoresErr != nil {
		return cardView{}, fmt.Errorf("student %s: %w", c.Student.AdmissionNumber, c.Student.ScoresErr)
	}
	subjects := c.Subjects
	if subjects == nil {
		subjects = c.Student.SubjectScores
	}
	enriched := grading.EnrichSubjects(subjects)

	total := c.Student.TotalScore.Float()
	if total == 0 {
		for _, s := range enriched {
			total += s.Score.Float()
		}
	}
	maxTotal := c.MaxTotal
	if maxTotal <= 0 {
		maxTotal = grading.DefaultMaxTotal
	}
	overall := c.Student.OverallGrade
	if overall == "" {
		overall = grading.TotalGradeFor(total, maxTotal)
	}

	school := c.School
	if school.Name == "" {
		school = DefaultSchool
	}
	generated := c.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	return cardView{
		Name:         c.Student.FullName,
		Admission:    c.Student.AdmissionNumber,
		ClassName:    c.Student.ClassName,
		StreamName:   c.Student.StreamName,
		Subjects:     enriched,
		Total:        total,
		Marks:        models.Num(total).Int(),
		Percentage:   strconv.FormatFloat(grading.Percentage(total, maxTotal), 'f', 1, 64),
		OverallGrade: overall,
		ClassRank:    rankLabel(c.Student.ClassRank),
		StreamRank:   rankLabel(c.Student.StreamRank),
		Principal:    orDefault(c.Comments.Principal, defaultPrincipalComment),
		ClassTeacher: orDefault(c.Comments.ClassTeacher, defaultClassTeacherComment),
		FeeBalance:   c.Student.FeeBalance,
		School:       school,
		GeneratedOn:  generated.Format("02/01/2006"),
	}, nil
}

func rankLabel(rank models.Number) string {
	r, ok := rank.Rank()
	if !ok {
		return "N/A"
	}
	return "#" + strconv.Itoa(r)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// scoreLabel renders a subject score for a table cell; missing scores show
// as a dash rather than zero.
func scoreLabel(score models.Number) string {
	if !score.Valid {
		return grading.NoGrade
	}
	return strconv.Itoa(score.Int())
}

func feeLabel(fee models.Number) string {
	return strconv.FormatFloat(fee.Value, 'f', -1, 64)
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit]) + "..."
}
