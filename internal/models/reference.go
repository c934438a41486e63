package models

// Term is an academic term. Results queries need its academic year.
type Term struct {
	TermID       ID     `json:"term_id"`
	TermName     string `json:"term_name"`
	AcademicYear ID     `json:"academic_year"`
	IsActive     *bool  `json:"is_active,omitempty"`
}

type Class struct {
	ClassID   ID     `json:"class_id"`
	ClassName string `json:"class_name"`
	IsActive  *bool  `json:"is_active,omitempty"`
}

type Stream struct {
	StreamID   ID     `json:"stream_id"`
	StreamName string `json:"stream_name"`
	ClassID    ID     `json:"class_id,omitempty"`
	IsActive   *bool  `json:"is_active,omitempty"`
}

type Subject struct {
	SubjectID   ID     `json:"subject_id"`
	SubjectName string `json:"subject_name"`
	ClassID     ID     `json:"class_id,omitempty"`
	IsActive    *bool  `json:"is_active,omitempty"`
}

// FilterOptions are the reference lists used to label exports.
type FilterOptions struct {
	Terms    []Term    `json:"terms"`
	Classes  []Class   `json:"classes"`
	Streams  []Stream  `json:"streams"`
	Subjects []Subject `json:"subjects"`
}

// Term looks up a term by id.
func (o *FilterOptions) Term(id string) (Term, bool) {
	if o == nil {
		return Term{}, false
	}
	for _, t := range o.Terms {
		if string(t.TermID) == id {
			return t, true
		}
	}
	return Term{}, false
}

// ClassName returns the class label, or "" when unknown.
func (o *FilterOptions) ClassName(id string) string {
	if o == nil {
		return ""
	}
	for _, c := range o.Classes {
		if string(c.ClassID) == id {
			return c.ClassName
		}
	}
	return ""
}

// StreamName returns the stream label, or "" when unknown.
func (o *FilterOptions) StreamName(id string) string {
	if o == nil {
		return ""
	}
	for _, s := range o.Streams {
		if string(s.StreamID) == id {
			return s.StreamName
		}
	}
	return ""
}

// Active drops entries explicitly flagged inactive. Entries without the
// flag are kept.
func (o FilterOptions) Active() FilterOptions {
	out := FilterOptions{
		Terms:    make([]Term, 0, len(o.Terms)),
		Classes:  make([]Class, 0, len(o.Classes)),
		Streams:  make([]Stream, 0, len(o.Streams)),
		Subjects: make([]Subject, 0, len(o.Subjects)),
	}
	for _, t := range o.Terms {
		if active(t.IsActive) {
			out.Terms = append(out.Terms, t)
		}
	}
	for _, c := range o.Classes {
		if active(c.IsActive) {
			out.Classes = append(out.Classes, c)
		}
	}
	for _, s := range o.Streams {
		if active(s.IsActive) {
			out.Streams = append(out.Streams, s)
		}
	}
	for _, s := range o.Subjects {
		if active(s.IsActive) {
			out.Subjects = append(out.Subjects, s)
		}
	}
	return out
}

func active(flag *bool) bool {
	return flag == nil || *flag
}
