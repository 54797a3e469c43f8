package grid

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateFormat is the single accepted wire format for all date fields.
const DateFormat = "2006-01-02"

// openEndedYear is the sentinel meaning "no end date"; dates in this year are
// exempt from the future-date check.
const openEndedYear = 9999

// Bounds is the optional inclusive date window of the target archival series.
// Nil endpoints mean unconstrained.
type Bounds struct {
	Start *time.Time
	End   *time.Time
}

// ParseDate parses a value in the grid's wire format.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateFormat, value)
}

// Contract violations. Editing a cell that does not exist is a programming
// error on the caller's side, never a business-data problem.
var (
	ErrUnknownRecord = errors.New("grid: unknown record")
	ErrUnknownColumn = errors.New("grid: column not editable")
	ErrRowReadOnly   = errors.New("grid: row is read-only")
)

// Cell messages. Invalid business data is always expressed through
// annotations so the grid can show every problem at once.
const (
	msgNameRequired = "a dossier must have a name"
	msgPathEmpty    = "path in package must not be empty"
	msgPathSep      = "path in package must not contain a separator"
	msgDateFormat   = "date must use the YYYY-MM-DD format"
	msgDateFuture   = "date may not be in the future"
	msgBeforeSeries = "date may not be before the start date of the series"
	msgAfterSeries  = "date may not be after the end date of the series"
	msgOpenAfter    = "the opening date cannot be after the closing date"
	msgCloseBefore  = "the closing date cannot be before the opening date"
	msgDossierOpen  = "the opening date of the dossier cannot be later than the opening date of a document"
	msgDossierClose = "the closing date of the dossier cannot be earlier than the closing date of a document"
)

// Validator applies per-cell business rules to a record set and maintains its
// annotations. All methods are synchronous and bounded; a single edit triggers
// at most one re-validation pass on dependent cells.
type Validator struct {
	set    *RecordSet
	bounds Bounds
	now    func() time.Time
}

// NewValidator wires a validator to a record set and the series date window.
func NewValidator(set *RecordSet, bounds Bounds) *Validator {
	return &Validator{set: set, bounds: bounds, now: time.Now}
}

// SetCell applies a single cell edit: the value is always written (business
// invalidity never rejects the write), the cell is re-validated, and the
// consequences are propagated to dependent cells one level deep.
//
// Editing a nonexistent record or a non-validated column is a contract
// violation. A row under a warning is read-only and refuses the edit.
func (v *Validator) SetCell(recordID int64, col Column, value string) error {
	rec := v.set.Get(recordID)
	if rec == nil {
		return fmt.Errorf("%w: id %d", ErrUnknownRecord, recordID)
	}
	if _, ok := validatedColumnSet[col]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownColumn, col)
	}
	if v.set.RowReadOnly(recordID) {
		return fmt.Errorf("%w: id %d", ErrRowReadOnly, recordID)
	}

	if rec.Value(col) != value {
		v.set.dirty = true
	}
	rec.setValue(col, value)

	switch col {
	case ColName:
		v.checkName(rec)
	case ColPathInPackage:
		v.checkPath(rec)
	case ColOpening, ColClosing:
		valid := v.checkDate(rec, col, false)
		if rec.Type == TypeStuk && valid {
			// Propagate the edit upward: tighten the parent dossier's
			// window, then give both of its date cells one bounded
			// re-validation pass.
			v.tightenDossierWindow(rec.DossierRef, col)
			if dossier := v.set.dossierFor(rec.DossierRef); dossier != nil {
				v.checkDate(dossier, ColOpening, true)
				v.checkDate(dossier, ColClosing, true)
			}
		}
	}
	return nil
}

// Revalidate replays every validated cell through the rule set, as if the
// current contents had just been entered. Used after a scan, import, or load.
// Read-only rows keep their warning state and are skipped.
func (v *Validator) Revalidate() {
	for _, rec := range v.set.Records() {
		for _, col := range ValidatedColumns {
			err := v.SetCell(rec.ID, col, rec.Value(col))
			if err != nil && !errors.Is(err, ErrRowReadOnly) {
				// Records and columns come from the set itself; any other
				// failure would be a bug in this package.
				panic(err)
			}
		}
	}
}

// IsValid reports whether the record set is submittable.
func (v *Validator) IsValid() bool {
	return v.set.IsValid()
}

func (v *Validator) checkName(rec *Record) {
	if rec.Type == TypeDossier && rec.Name == "" {
		v.set.mark(rec.ID, ColName, SeverityError, msgNameRequired)
		return
	}
	v.set.unmark(rec.ID, ColName)
}

// checkPath validates the leaf segment and, on success, rederives the type
// and grouping-key columns from the raw import path.
func (v *Validator) checkPath(rec *Record) {
	if rec.PathInPackage == "" {
		v.set.mark(rec.ID, ColPathInPackage, SeverityError, msgPathEmpty)
		return
	}
	if strings.ContainsAny(rec.PathInPackage, `/\`) {
		v.set.mark(rec.ID, ColPathInPackage, SeverityError, msgPathSep)
		return
	}
	v.set.unmark(rec.ID, ColPathInPackage)

	if strings.Contains(rec.ImportPath, "/") {
		rec.Type = TypeStuk
	} else {
		rec.Type = TypeDossier
	}
	rec.DossierRef = firstSegment(rec.ImportPath)
}

// checkDate runs the full date rule chain for one cell and returns whether
// the cell ended up clean. The revalidate flag marks a propagated re-check;
// re-checks never cascade further, which bounds an edit to O(1) extra work
// and prevents mutual triggering between a dossier and its stukken.
func (v *Validator) checkDate(rec *Record, col Column, revalidate bool) bool {
	value := rec.Value(col)
	isStuk := rec.Type == TypeStuk

	// A file may have no date.
	if isStuk && value == "" {
		v.set.unmark(rec.ID, col)
		return true
	}

	parsed, err := time.Parse(DateFormat, value)
	if err != nil {
		v.set.mark(rec.ID, col, SeverityError, msgDateFormat)
		return false
	}

	if msg := v.dateWindowViolation(parsed); msg != "" {
		v.set.mark(rec.ID, col, SeverityError, msg)
		return false
	}

	// Within the row the window must be ordered. Both cells carry the
	// error so the grid shows the conflict on either side.
	if rec.Opening != "" && rec.Closing != "" && rec.Opening > rec.Closing {
		v.set.mark(rec.ID, ColOpening, SeverityError, msgOpenAfter)
		v.set.mark(rec.ID, ColClosing, SeverityError, msgCloseBefore)
		return false
	}

	if rec.Type == TypeDossier {
		if !v.checkDossierEnvelope(rec, col) {
			return false
		}
	}

	v.set.unmark(rec.ID, col)

	if !revalidate {
		// The sibling date cell depends on this one; re-surface its
		// errors or clears exactly once.
		sibling := ColClosing
		if col == ColClosing {
			sibling = ColOpening
		}
		v.checkDate(rec, sibling, true)
	}
	return true
}

// checkDossierEnvelope verifies that a dossier's window envelopes the valid
// dates of its stukken.
func (v *Validator) checkDossierEnvelope(rec *Record, col Column) bool {
	switch col {
	case ColOpening:
		openings := v.validStukDates(rec.DossierRef, ColOpening)
		if len(openings) > 0 && rec.Opening > minString(openings) {
			v.set.mark(rec.ID, ColOpening, SeverityError, msgDossierOpen)
			return false
		}
	case ColClosing:
		closings := v.validStukDates(rec.DossierRef, ColClosing)
		if len(closings) > 0 && rec.Closing < maxString(closings) {
			v.set.mark(rec.ID, ColClosing, SeverityError, msgDossierClose)
			return false
		}
	}
	return true
}

// dateWindowViolation checks the future rule and the series bounds. The
// sentinel year 9999 means open-ended and always passes the future check.
func (v *Validator) dateWindowViolation(date time.Time) string {
	if date.After(v.now()) && date.Year() != openEndedYear {
		return msgDateFuture
	}
	if v.bounds.Start != nil && date.Before(*v.bounds.Start) {
		return msgBeforeSeries
	}
	if v.bounds.End != nil && date.After(*v.bounds.End) {
		return msgAfterSeries
	}
	return ""
}

// validStukDates collects the parseable, in-window date values of the
// stukken linked to a dossier. Cross-field problems (window ordering,
// envelope) do not disqualify a value here, matching the envelope rule's
// inputs.
func (v *Validator) validStukDates(ref string, col Column) []string {
	var out []string
	for _, stuk := range v.set.stukkenFor(ref) {
		value := stuk.Value(col)
		parsed, err := time.Parse(DateFormat, value)
		if err != nil {
			continue
		}
		if v.dateWindowViolation(parsed) != "" {
			continue
		}
		out = append(out, value)
	}
	return out
}

// tightenDossierWindow pulls the parent dossier's date toward the new extreme
// among its stukken. The window only ever tightens: an opening date moves
// earlier, a closing date moves later, and a value that already envelopes the
// stukken is left alone.
func (v *Validator) tightenDossierWindow(ref string, col Column) {
	dossier := v.set.dossierFor(ref)
	if dossier == nil {
		return
	}

	switch col {
	case ColOpening:
		openings := v.validStukDates(ref, ColOpening)
		if len(openings) == 0 {
			return
		}
		earliest := minString(openings)
		if dossier.Opening < earliest {
			return
		}
		if dossier.Opening != earliest {
			dossier.Opening = earliest
			v.set.dirty = true
		}
		v.checkDate(dossier, ColOpening, false)
	case ColClosing:
		closings := v.validStukDates(ref, ColClosing)
		if len(closings) == 0 {
			return
		}
		latest := maxString(closings)
		if dossier.Closing > latest {
			return
		}
		if dossier.Closing != latest {
			dossier.Closing = latest
			v.set.dirty = true
		}
		v.checkDate(dossier, ColClosing, false)
	}
}

// Lexicographic comparison is date order for YYYY-MM-DD values; the inputs
// here have already passed the format check.
func minString(values []string) string {
	min := values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

func maxString(values []string) string {
	max := values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}
