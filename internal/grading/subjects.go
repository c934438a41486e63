package grading

import (
	"sort"
	"strings"

	"github.com/leratech/maweni-results/internal/models"
)

// UnassignedTeacher is printed when no teacher is on record for a subject.
const UnassignedTeacher = "N/A"

// subjectGroups is the curriculum display order. Each group lists the full
// subject name followed by its abbreviations.
var subjectGroups = [][]string{
	{"MATHEMATICS", "MATHS", "MAT"},
	{"ENGLISH", "ENG"},
	{"KISWAHILI", "KIS"},
	{"BIOLOGY", "BIO"},
	{"CHEMISTRY", "CHEM"},
	{"PHYSICS", "PHY"},
	{"GEOGRAPHY", "GEO"},
	{"CRE"},
	{"HISTORY", "HIST"},
	{"BUSINESS", "BST"},
	{"AGRICULTURE", "AGR"},
}

// UnknownPriority sorts subjects outside the curriculum list last.
var UnknownPriority = len(subjectGroups)

var teachers = map[string]string{
	"BUSINESS":    "OJWANG W.",
	"CRE":         "MILKA O.",
	"PHYSICS":     "ODWAR J.",
	"MATHEMATICS": "ODWAR J.",
	"CHEMISTRY":   "KENNEDY O.",
	"HISTORY":     "PAUL O.",
	"AGRICULTURE": "BRIAN O.",
	"KISWAHILI":   "OJWANG W.",
	"ENGLISH":     "BRIAN O.",
	"BIOLOGY":     "KENNEDY O.",
	"GEOGRAPHY":   "ODHIAMBO C.",
}

var abbreviations = map[string]string{
	"ENGLISH": "ENG", "ENG": "ENG",
	"KISWAHILI": "KIS", "KIS": "KIS",
	"MATHEMATICS": "MAT", "MATHS": "MAT", "MAT": "MAT",
	"CHEMISTRY": "CHEM", "CHEM": "CHEM",
	"BIOLOGY": "BIO", "BIO": "BIO",
	"PHYSICS": "PHY", "PHY": "PHY",
	"HISTORY": "HIST", "HIST": "HIST",
	"GEOGRAPHY": "GEO", "GEO": "GEO",
	"CRE": "CRE",
	"AGRICULTURE": "AGR", "AGR": "AGR",
	"BUSINESS": "BST", "BST": "BST",
}

// SubjectPriority returns the display slot of a subject. The name matches a
// group when it contains any of the group's anchors, ignoring case. When
// several groups match, the longest anchor wins, so GEOGRAPHY sorts as
// Geography rather than under the PHY abbreviation it happens to contain.
func SubjectPriority(subject string) int {
	name := normalize(subject)
	best, bestLen := UnknownPriority, 0
	for i, group := range subjectGroups {
		for _, anchor := range group {
			if len(anchor) > bestLen && strings.Contains(name, anchor) {
				best, bestLen = i, len(anchor)
			}
		}
	}
	return best
}

// UniqueSubjects lists every distinct subject name in the cohort in display
// order. Names are deduplicated exactly as stored, so "MATHS" and
// "mathematics" stay separate columns even though both sort as Mathematics;
// ties keep first-encounter order.
func UniqueSubjects(cohort []models.StudentResult) []string {
	seen := make(map[string]struct{})
	subjects := make([]string, 0)
	for _, student := range cohort {
		for _, score := range student.SubjectScores {
			if score.SubjectName == "" {
				continue
			}
			if _, ok := seen[score.SubjectName]; ok {
				continue
			}
			seen[score.SubjectName] = struct{}{}
			subjects = append(subjects, score.SubjectName)
		}
	}
	sort.SliceStable(subjects, func(i, j int) bool {
		return SubjectPriority(subjects[i]) < SubjectPriority(subjects[j])
	})
	return subjects
}

// SortSubjectScores returns a copy of scores in display order.
func SortSubjectScores(scores []models.SubjectScore) []models.SubjectScore {
	out := make([]models.SubjectScore, len(scores))
	copy(out, scores)
	sort.SliceStable(out, func(i, j int) bool {
		return SubjectPriority(out[i].SubjectName) < SubjectPriority(out[j].SubjectName)
	})
	return out
}

// TeacherFor returns the teacher of record for a subject. Abbreviated names
// resolve through their full subject name.
func TeacherFor(subject string) string {
	key := normalize(subject)
	if key == "" {
		return UnassignedTeacher
	}
	if t, ok := teachers[key]; ok {
		return t
	}
	if abbr, ok := abbreviations[key]; ok {
		for full, a := range abbreviations {
			if a != abbr {
				continue
			}
			if t, ok := teachers[full]; ok {
				return t
			}
		}
	}
	return UnassignedTeacher
}

// Abbreviation returns the column heading for a subject; unknown subjects
// use their first four letters.
func Abbreviation(subject string) string {
	key := normalize(subject)
	if abbr, ok := abbreviations[key]; ok {
		return abbr
	}
	upper := strings.ToUpper(subject)
	runes := []rune(upper)
	if len(runes) > 4 {
		runes = runes[:4]
	}
	return string(runes)
}

// EnrichSubjects returns the student's subjects in display order with
// grade, remarks and teacher filled in where the backend left them empty.
func EnrichSubjects(scores []models.SubjectScore) []models.SubjectScore {
	out := SortSubjectScores(scores)
	for i := range out {
		s := &out[i]
		if s.Grade == "" {
			s.Grade = GradeFor(s.Score, s.SubjectName)
		}
		if s.Remarks == "" {
			s.Remarks = Remarks(s.Grade)
		}
		if s.Teacher == "" {
			s.Teacher = TeacherFor(s.SubjectName)
		}
	}
	return out
}
