package grading

import (
	"fmt"
	"strings"
)

// RGB is a presentation colour.
type RGB struct {
	R, G, B int
}

// Hex renders the colour as #RRGGBB.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Severity buckets used by clients to style grade badges.
const (
	SeveritySuccess = "success"
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
	SeverityDefault = "default"
)

const fallbackRemark = "Let's discuss your progress together."

var remarks = map[string]string{
	"A":  "Excellent",
	"A-": "Very Good",
	"B+": "Good Attempt!",
	"B":  "Good Attempt!",
	"B-": "Good",
	"C+": "Average",
	"C":  "Average",
	"C-": "Can do better!",
	"D+": "Aim higher",
	"D":  "Weak",
	"D-": "Pull up your socks",
	"E":  "Pull up your socks",
}

var (
	green     = RGB{46, 139, 87}
	teal      = RGB{40, 167, 154}
	amber     = RGB{255, 167, 38}
	red       = RGB{239, 83, 80}
	darkRed   = RGB{153, 0, 0}
	black     = RGB{0, 0, 0}
	gradeTint = map[string]RGB{
		"A": green, "A-": green,
		"B+": teal, "B": teal, "B-": teal,
		"C+": amber, "C": amber, "C-": amber,
		"D+": red, "D": red, "D-": red,
		"E": darkRed,
	}
)

// Remarks returns the short comment printed beside a subject grade.
func Remarks(grade string) string {
	if r, ok := remarks[grade]; ok {
		return r
	}
	return fallbackRemark
}

// Color returns the print colour of a grade, black when unknown.
func Color(grade string) RGB {
	if c, ok := gradeTint[grade]; ok {
		return c
	}
	return black
}

// Severity maps a grade to a presentation bucket by its letter.
func Severity(grade string) string {
	switch {
	case strings.HasPrefix(grade, "A"):
		return SeveritySuccess
	case strings.HasPrefix(grade, "B"):
		return SeverityInfo
	case strings.HasPrefix(grade, "C"):
		return SeverityWarning
	case strings.HasPrefix(grade, "D"), strings.HasPrefix(grade, "E"):
		return SeverityError
	default:
		return SeverityDefault
	}
}

// CSSClass returns the HTML report class for a grade.
func CSSClass(grade string) string {
	switch {
	case strings.HasPrefix(grade, "A"):
		return "grade-A"
	case strings.HasPrefix(grade, "B"):
		return "grade-B"
	case strings.HasPrefix(grade, "C"):
		return "grade-C"
	case strings.HasPrefix(grade, "D"), strings.HasPrefix(grade, "E"):
		return "grade-D"
	default:
		return ""
	}
}

// DefaultPrincipalComment picks a principal's comment from the overall
// percentage.
func DefaultPrincipalComment(percentage float64) string {
	switch {
	case percentage >= 80:
		return "Excellent performance! Keep up the fantastic work."
	case percentage >= 70:
		return "Strong results. Continue applying your effective study habits."
	case percentage >= 60:
		return "Good work. Focusing on specific topics could help you advance further."
	case percentage >= 50:
		return "Adequate understanding. Additional practice would be beneficial."
	case percentage >= 40:
		return "Some concepts need more review. Additional support is recommended."
	default:
		return "Let us discuss strategies and resources to help improve your understanding."
	}
}

// DefaultClassTeacherComment picks a class teacher's comment from the
// overall grade.
func DefaultClassTeacherComment(totalGrade string) string {
	switch totalGrade {
	case "A", "A-":
		return "Outstanding student with excellent academic discipline and consistent performance."
	case "B+", "B":
		return "Hardworking student showing great potential and steady improvement."
	case "B-", "C+":
		return "Good effort shown. Focus on consistency across all subjects."
	case "C", "C-":
		return "Shows potential but needs to improve study habits and subject mastery."
	case "D+", "D":
		return "Requires more dedication and regular study routine to improve performance."
	default:
		return "Needs urgent academic intervention and parental support for improvement."
	}
}
