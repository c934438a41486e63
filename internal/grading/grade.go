// Package grading maps raw scores to letter grades and carries the static
// reference tables used on every report: grading curves, remarks, display
// colours, subject teachers, abbreviations and display order.
package grading

import (
	"strings"

	"github.com/leratech/maweni-results/internal/models"
)

// NoGrade is shown in place of a letter when there is no score.
const NoGrade = "-"

// DefaultMaxTotal is eleven subjects marked out of 100.
const DefaultMaxTotal = 1100

// Letters lists every grade from best to worst.
var Letters = []string{"A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D+", "D", "D-", "E"}

type band struct {
	min    float64
	letter string
}

// Curve is an ordered threshold table, highest threshold first.
type Curve []band

var (
	scienceCurve = Curve{
		{75, "A"}, {70, "A-"}, {65, "B+"}, {60, "B"}, {55, "B-"}, {50, "C+"},
		{45, "C"}, {40, "C-"}, {35, "D+"}, {30, "D"}, {25, "D-"},
	}
	humanitiesCurve = Curve{
		{80, "A"}, {75, "A-"}, {70, "B+"}, {65, "B"}, {60, "B-"}, {55, "C+"},
		{50, "C"}, {45, "C-"}, {40, "D+"}, {35, "D"}, {30, "D-"},
	}
	totalCurve = Curve{
		{78, "A"}, {75, "A-"}, {70, "B+"}, {65, "B"}, {55, "B-"}, {48, "C+"},
		{40, "C"}, {35, "C-"}, {30, "D+"}, {25, "D"}, {20, "D-"},
	}
)

var scienceSubjects = map[string]struct{}{
	"MATHEMATICS": {}, "MATHS": {}, "MAT": {},
	"KISWAHILI": {}, "KIS": {},
	"ENGLISH": {}, "ENG": {},
	"PHYSICS": {}, "PHY": {},
	"BIOLOGY": {}, "BIO": {},
	"CHEMISTRY": {}, "CHEM": {},
}

var humanitiesSubjects = map[string]struct{}{
	"CRE":     {},
	"HISTORY": {}, "HIST": {},
	"GEOGRAPHY": {}, "GEO": {},
	"AGRICULTURE": {}, "AGR": {},
	"BUSINESS": {}, "BST": {},
}

// Apply returns the letter of the first band the value reaches, or E.
func (c Curve) Apply(v float64) string {
	for _, b := range c {
		if v >= b.min {
			return b.letter
		}
	}
	return "E"
}

// CurveFor selects the curve for a subject. Membership is an exact match on
// the trimmed upper-case name; unknown subjects use the science curve.
func CurveFor(subject string) Curve {
	key := normalize(subject)
	if _, ok := humanitiesSubjects[key]; ok {
		return humanitiesCurve
	}
	return scienceCurve
}

// GradeFor grades a subject score. Absent scores yield NoGrade; zero is a
// real score.
func GradeFor(score models.Number, subject string) string {
	if !score.Valid {
		return NoGrade
	}
	return CurveFor(subject).Apply(score.Value)
}

// GradeForValue grades a present score.
func GradeForValue(score float64, subject string) string {
	return GradeFor(models.Num(score), subject)
}

// Percentage expresses total as a percentage of maxPossible.
func Percentage(total, maxPossible float64) float64 {
	if maxPossible <= 0 {
		return 0
	}
	return total * 100 / maxPossible
}

// TotalGradeFor grades an aggregate total against the percentage curve.
// Multiplying before dividing keeps whole-number boundaries exact, so
// 858 of 1100 is 78% and earns an A.
func TotalGradeFor(total, maxPossible float64) string {
	if maxPossible <= 0 {
		return NoGrade
	}
	return totalCurve.Apply(Percentage(total, maxPossible))
}

// MaxTotalFor derives the aggregate ceiling from a subject count.
func MaxTotalFor(subjectCount int) float64 {
	if subjectCount <= 0 {
		return DefaultMaxTotal
	}
	return float64(subjectCount) * 100
}

// IsGrade reports whether letter is one of the twelve grades.
func IsGrade(letter string) bool {
	for _, l := range Letters {
		if l == letter {
			return true
		}
	}
	return false
}

// IsScience reports exact membership in the science and language set.
func IsScience(subject string) bool {
	_, ok := scienceSubjects[normalize(subject)]
	return ok
}

// IsHumanities reports exact membership in the humanities set.
func IsHumanities(subject string) bool {
	_, ok := humanitiesSubjects[normalize(subject)]
	return ok
}

func normalize(subject string) string {
	return strings.ToUpper(strings.TrimSpace(subject))
}
