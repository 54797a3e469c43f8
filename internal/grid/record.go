package grid

import (
	"fmt"
	"strings"
)

// RecordType distinguishes folder-level rows from file-level rows.
type RecordType string

const (
	TypeDossier RecordType = "dossier"
	TypeStuk    RecordType = "stuk"
)

// Column identifies a grid column. Only the validated columns are addressable
// through the validator; the remaining descriptive columns pass through to
// storage untouched.
type Column string

const (
	ColPathInPackage Column = "path_in_package"
	ColType          Column = "type"
	ColDossierRef    Column = "dossier_ref"
	ColName          Column = "name"
	ColOpening       Column = "opening_date"
	ColClosing       Column = "closing_date"
	ColDescription   Column = "description"
	ColComments      Column = "comments"
)

// ValidatedColumns are the columns the validator accepts edits on.
var ValidatedColumns = []Column{ColPathInPackage, ColName, ColOpening, ColClosing}

// AllColumns lists every grid column in display order.
var AllColumns = []Column{
	ColPathInPackage,
	ColType,
	ColDossierRef,
	ColName,
	ColOpening,
	ColClosing,
	ColDescription,
	ColComments,
}

var validatedColumnSet = func() map[Column]struct{} {
	set := make(map[Column]struct{}, len(ValidatedColumns))
	for _, col := range ValidatedColumns {
		set[col] = struct{}{}
	}
	return set
}()

// Record is one grid row: a dossier or one of its constituent files.
type Record struct {
	// ID is the stable row identity assigned by the store.
	ID int64
	// ImportPath is the raw path inside the package as produced by the
	// folder scan or spreadsheet import, forward slashes only. The dossier
	// row carries the bare dossier label.
	ImportPath string
	// SourcePath is the absolute on-disk location backing this row.
	SourcePath string

	PathInPackage string
	Type          RecordType
	DossierRef    string
	Name          string
	Opening       string
	Closing       string
	Description   string
	Comments      string
}

// Value returns the record's current value for a column.
func (r *Record) Value(col Column) string {
	switch col {
	case ColPathInPackage:
		return r.PathInPackage
	case ColType:
		return string(r.Type)
	case ColDossierRef:
		return r.DossierRef
	case ColName:
		return r.Name
	case ColOpening:
		return r.Opening
	case ColClosing:
		return r.Closing
	case ColDescription:
		return r.Description
	case ColComments:
		return r.Comments
	}
	return ""
}

func (r *Record) setValue(col Column, value string) {
	switch col {
	case ColPathInPackage:
		r.PathInPackage = value
	case ColType:
		r.Type = RecordType(value)
	case ColDossierRef:
		r.DossierRef = value
	case ColName:
		r.Name = value
	case ColOpening:
		r.Opening = value
	case ColClosing:
		r.Closing = value
	case ColDescription:
		r.Description = value
	case ColComments:
		r.Comments = value
	}
}

// RecordSet is the in-memory record collection a grid view operates on,
// together with its cell annotations. It is owned by a single view and is
// not safe for concurrent use.
type RecordSet struct {
	records     []*Record
	byID        map[int64]*Record
	annotations map[CellRef]Annotation
	dirty       bool
}

// NewRecordSet builds a record set from rows loaded out of storage or a scan.
func NewRecordSet(records []*Record) (*RecordSet, error) {
	set := &RecordSet{
		records:     records,
		byID:        make(map[int64]*Record, len(records)),
		annotations: make(map[CellRef]Annotation),
	}
	for _, rec := range records {
		if rec == nil {
			return nil, fmt.Errorf("nil record in set")
		}
		if _, ok := set.byID[rec.ID]; ok {
			return nil, fmt.Errorf("duplicate record id %d", rec.ID)
		}
		set.byID[rec.ID] = rec
	}
	return set, nil
}

// Records returns the rows in their stored order.
func (s *RecordSet) Records() []*Record {
	return s.records
}

// Get returns the record with the given identity, or nil.
func (s *RecordSet) Get(id int64) *Record {
	return s.byID[id]
}

// Len reports the number of rows.
func (s *RecordSet) Len() int {
	return len(s.records)
}

// Dirty reports whether the set has unsaved edits.
func (s *RecordSet) Dirty() bool {
	return s.dirty
}

// ClearDirty marks the set as persisted.
func (s *RecordSet) ClearDirty() {
	s.dirty = false
}

// dossierFor returns the dossier record matching the grouping key, or nil.
func (s *RecordSet) dossierFor(ref string) *Record {
	for _, rec := range s.records {
		if rec.Type == TypeDossier && rec.DossierRef == ref {
			return rec
		}
	}
	return nil
}

// stukkenFor returns the stuk records linked to the grouping key.
func (s *RecordSet) stukkenFor(ref string) []*Record {
	var out []*Record
	for _, rec := range s.records {
		if rec.Type == TypeStuk && rec.DossierRef == ref {
			out = append(out, rec)
		}
	}
	return out
}

// SetDescriptive writes one of the pass-through columns. They carry no
// business rules but still respect row read-only state.
func (s *RecordSet) SetDescriptive(id int64, col Column, value string) error {
	rec := s.byID[id]
	if rec == nil {
		return fmt.Errorf("%w: id %d", ErrUnknownRecord, id)
	}
	if col != ColDescription && col != ColComments {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, col)
	}
	if s.RowReadOnly(id) {
		return fmt.Errorf("%w: id %d", ErrRowReadOnly, id)
	}
	if rec.Value(col) != value {
		s.dirty = true
	}
	rec.setValue(col, value)
	return nil
}

// firstSegment returns the leading path segment of an import path.
func firstSegment(importPath string) string {
	if idx := strings.IndexByte(importPath, '/'); idx >= 0 {
		return importPath[:idx]
	}
	return importPath
}
