package export

import (
	"regexp"
	"strings"
)

// Content types for single-student reports.
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeHTML = "text/html; charset=utf-8"
	ContentTypeZIP  = "application/zip"
)

// DefaultFilePrefix starts every broadsheet filename.
const DefaultFilePrefix = "MAWENI"

var whitespace = regexp.MustCompile(`\s+`)

// pathSeparators keeps report names such as 2023/001 flat inside a sink.
var pathSeparators = strings.NewReplacer("/", "-", "\\", "-")

// ReportFilename names a student's report, e.g.
// Academic_Report_001_Jane_Doe.pdf.
func ReportFilename(admissionNumber, fullName, ext string) string {
	name := whitespace.ReplaceAllString(fullName, "_")
	return "Academic_Report_" + pathSeparators.Replace(admissionNumber) + "_" + pathSeparators.Replace(name) + "." + ext
}

// BroadsheetFilename names a class broadsheet, e.g.
// MAWENI_Results_Form 3_East_2024.xlsx. An empty stream covers all streams.
func BroadsheetFilename(prefix, className, streamName, academicYear, ext string) string {
	if prefix == "" {
		prefix = DefaultFilePrefix
	}
	stream := streamName
	if stream == "" {
		stream = "all_streams"
	}
	return prefix + "_Results_" + className + "_" + stream + "_" + academicYear + "." + ext
}

// ArchiveFilename names the zip produced by a bulk export.
func ArchiveFilename(prefix, className, streamName, academicYear string) string {
	name := BroadsheetFilename(prefix, className, streamName, academicYear, "zip")
	return strings.Replace(name, "_Results_", "_Reports_", 1)
}
