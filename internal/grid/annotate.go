package grid

// Severity classifies a cell annotation. Errors block packaging; warnings are
// informational and make the affected row read-only.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// CellRef addresses one cell by record identity and column.
type CellRef struct {
	RecordID int64
	Column   Column
}

// Annotation is the advisory attached to a cell.
type Annotation struct {
	Severity Severity
	Message  string
}

func (s *RecordSet) mark(id int64, col Column, severity Severity, message string) {
	s.annotations[CellRef{RecordID: id, Column: col}] = Annotation{Severity: severity, Message: message}
}

func (s *RecordSet) unmark(id int64, col Column) {
	delete(s.annotations, CellRef{RecordID: id, Column: col})
}

// Annotation returns the annotation for a cell, if any.
func (s *RecordSet) Annotation(id int64, col Column) (Annotation, bool) {
	ann, ok := s.annotations[CellRef{RecordID: id, Column: col}]
	return ann, ok
}

// Annotations returns a copy of the full annotation map.
func (s *RecordSet) Annotations() map[CellRef]Annotation {
	out := make(map[CellRef]Annotation, len(s.annotations))
	for ref, ann := range s.annotations {
		out[ref] = ann
	}
	return out
}

// RowReadOnly reports whether the row carries a warning annotation, which
// locks every cell on it against edits.
func (s *RecordSet) RowReadOnly(id int64) bool {
	for _, col := range AllColumns {
		if ann, ok := s.Annotation(id, col); ok && ann.Severity == SeverityWarning {
			return true
		}
	}
	return false
}

// ErrorRows returns the identities of rows holding at least one error cell.
func (s *RecordSet) ErrorRows() map[int64]struct{} {
	rows := make(map[int64]struct{})
	for ref, ann := range s.annotations {
		if ann.Severity == SeverityError {
			rows[ref.RecordID] = struct{}{}
		}
	}
	return rows
}

// IsValid reports whether the set is submittable: true iff no annotation has
// error severity. Warnings do not count against validity.
func (s *RecordSet) IsValid() bool {
	for _, ann := range s.annotations {
		if ann.Severity == SeverityError {
			return false
		}
	}
	return true
}

// markWarningRow flags every cell of a row with the same warning.
func (s *RecordSet) markWarningRow(id int64, message string) {
	for _, col := range AllColumns {
		s.mark(id, col, SeverityWarning, message)
	}
}
