package grid

import (
	"errors"
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
}

func date(value string) *time.Time {
	t, err := time.Parse(DateFormat, value)
	if err != nil {
		panic(err)
	}
	return &t
}

func testBounds() Bounds {
	return Bounds{Start: date("2000-01-01"), End: date("2020-12-31")}
}

// newTestValidator builds a set with one dossier (id 1) and two stukken
// (ids 2 and 3) linked to it.
func newTestValidator(t *testing.T, bounds Bounds) (*Validator, *RecordSet) {
	t.Helper()
	records := []*Record{
		{
			ID:            1,
			ImportPath:    "D1",
			PathInPackage: "D1",
			Type:          TypeDossier,
			DossierRef:    "D1",
			Name:          "Dossier one",
			Opening:       "2005-06-01",
			Closing:       "2010-01-01",
		},
		{
			ID:            2,
			ImportPath:    "D1/alpha.txt",
			PathInPackage: "alpha.txt",
			Type:          TypeStuk,
			DossierRef:    "D1",
			Opening:       "2005-06-01",
			Closing:       "2009-01-01",
		},
		{
			ID:            3,
			ImportPath:    "D1/beta.txt",
			PathInPackage: "beta.txt",
			Type:          TypeStuk,
			DossierRef:    "D1",
		},
	}
	set, err := NewRecordSet(records)
	if err != nil {
		t.Fatal(err)
	}
	v := NewValidator(set, bounds)
	v.now = fixedNow
	return v, set
}

func mustSet(t *testing.T, v *Validator, id int64, col Column, value string) {
	t.Helper()
	if err := v.SetCell(id, col, value); err != nil {
		t.Fatalf("SetCell(%d, %s, %q): %v", id, col, value, err)
	}
}

func wantAnnotation(t *testing.T, set *RecordSet, id int64, col Column, severity Severity, message string) {
	t.Helper()
	ann, ok := set.Annotation(id, col)
	if !ok {
		t.Fatalf("expected annotation on (%d, %s)", id, col)
	}
	if ann.Severity != severity || ann.Message != message {
		t.Fatalf("annotation on (%d, %s) = %q/%q, want %q/%q", id, col, ann.Severity, ann.Message, severity, message)
	}
}

func wantClean(t *testing.T, set *RecordSet, id int64, col Column) {
	t.Helper()
	if ann, ok := set.Annotation(id, col); ok {
		t.Fatalf("unexpected annotation on (%d, %s): %q %q", id, col, ann.Severity, ann.Message)
	}
}

func TestSetCellContractViolations(t *testing.T) {
	v, _ := newTestValidator(t, testBounds())

	if err := v.SetCell(99, ColName, "x"); !errors.Is(err, ErrUnknownRecord) {
		t.Fatalf("expected ErrUnknownRecord, got %v", err)
	}
	if err := v.SetCell(1, ColType, "stuk"); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
	if err := v.SetCell(1, Column("bogus"), "x"); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
}

func TestNameRequiredOnDossier(t *testing.T) {
	v, set := newTestValidator(t, testBounds())

	mustSet(t, v, 1, ColName, "")
	wantAnnotation(t, set, 1, ColName, SeverityError, msgNameRequired)
	if set.IsValid() {
		t.Fatal("set should be invalid with a nameless dossier")
	}

	mustSet(t, v, 1, ColName, "Restored")
	wantClean(t, set, 1, ColName)
	if !set.IsValid() {
		t.Fatal("set should be valid again")
	}
}

func TestNameNotRequiredOnStuk(t *testing.T) {
	v, set := newTestValidator(t, testBounds())
	mustSet(t, v, 2, ColName, "")
	wantClean(t, set, 2, ColName)
}

func TestPathEmptyDoesNotRederive(t *testing.T) {
	v, set := newTestValidator(t, testBounds())

	mustSet(t, v, 2, ColPathInPackage, "")
	wantAnnotation(t, set, 2, ColPathInPackage, SeverityError, msgPathEmpty)

	rec := set.Get(2)
	if rec.Type != TypeStuk || rec.DossierRef != "D1" {
		t.Fatalf("type/ref recomputed on invalid path: %s %s", rec.Type, rec.DossierRef)
	}
}

func TestPathSeparatorRejected(t *testing.T) {
	v, set := newTestValidator(t, testBounds())
	mustSet(t, v, 2, ColPathInPackage, "sub/alpha.txt")
	wantAnnotation(t, set, 2, ColPathInPackage, SeverityError, msgPathSep)
}

func TestPathRederivesTypeAndRef(t *testing.T) {
	v, set := newTestValidator(t, testBounds())

	rec := set.Get(2)
	rec.Type = ""
	rec.DossierRef = ""
	mustSet(t, v, 2, ColPathInPackage, "renamed.txt")
	wantClean(t, set, 2, ColPathInPackage)
	if rec.Type != TypeStuk {
		t.Fatalf("type = %q, want stuk", rec.Type)
	}
	if rec.DossierRef != "D1" {
		t.Fatalf("dossier ref = %q, want D1", rec.DossierRef)
	}

	dossier := set.Get(1)
	mustSet(t, v, 1, ColPathInPackage, "D1")
	if dossier.Type != TypeDossier || dossier.DossierRef != "D1" {
		t.Fatalf("dossier rederivation wrong: %s %s", dossier.Type, dossier.DossierRef)
	}
}

func TestDateFormatRejected(t *testing.T) {
	v, set := newTestValidator(t, testBounds())
	for _, bad := range []string{"2004", "01-02-2004", "2004/01/02", "not a date", "2004-13-01"} {
		mustSet(t, v, 2, ColOpening, bad)
		wantAnnotation(t, set, 2, ColOpening, SeverityError, msgDateFormat)
	}
}

func TestEmptyStukDateIsValid(t *testing.T) {
	v, set := newTestValidator(t, testBounds())
	mustSet(t, v, 2, ColOpening, "")
	wantClean(t, set, 2, ColOpening)
	if !set.IsValid() {
		t.Fatal("empty stuk date must not invalidate the set")
	}
}

func TestEmptyDossierDateIsError(t *testing.T) {
	v, set := newTestValidator(t, testBounds())
	mustSet(t, v, 1, ColOpening, "")
	wantAnnotation(t, set, 1, ColOpening, SeverityError, msgDateFormat)
}

func TestFutureDateRejected(t *testing.T) {
	v, set := newTestValidator(t, Bounds{})

	mustSet(t, v, 2, ColOpening, "2024-05-02")
	wantAnnotation(t, set, 2, ColOpening, SeverityError, msgDateFuture)

	mustSet(t, v, 2, ColOpening, "2024-05-01")
	wantClean(t, set, 2, ColOpening)
}

func TestOpenEndedYearBypassesFutureCheck(t *testing.T) {
	v, set := newTestValidator(t, Bounds{})
	mustSet(t, v, 2, ColClosing, "9999-12-31")
	wantClean(t, set, 2, ColClosing)
}

func TestSeriesBoundsInclusive(t *testing.T) {
	v, set := newTestValidator(t, testBounds())

	mustSet(t, v, 2, ColOpening, "2000-01-01")
	wantClean(t, set, 2, ColOpening)

	mustSet(t, v, 2, ColOpening, "1999-12-31")
	wantAnnotation(t, set, 2, ColOpening, SeverityError, msgBeforeSeries)

	mustSet(t, v, 2, ColClosing, "2020-12-31")
	wantClean(t, set, 2, ColClosing)

	mustSet(t, v, 2, ColClosing, "2021-01-01")
	wantAnnotation(t, set, 2, ColClosing, SeverityError, msgAfterSeries)
}

func TestAfterSeriesEndMarksOnlyThatCell(t *testing.T) {
	v, set := newTestValidator(t, testBounds())
	mustSet(t, v, 2, ColOpening, "2021-01-01")
	wantAnnotation(t, set, 2, ColOpening, SeverityError, msgAfterSeries)
	wantClean(t, set, 2, ColClosing)
}

func TestOpeningAfterClosingMarksBothCells(t *testing.T) {
	v, set := newTestValidator(t, testBounds())

	mustSet(t, v, 2, ColOpening, "2010-01-01")
	mustSet(t, v, 2, ColClosing, "2009-01-01")
	wantAnnotation(t, set, 2, ColOpening, SeverityError, msgOpenAfter)
	wantAnnotation(t, set, 2, ColClosing, SeverityError, msgCloseBefore)

	// Fixing one side clears the sibling through the bounded re-check.
	mustSet(t, v, 2, ColClosing, "2011-01-01")
	wantClean(t, set, 2, ColOpening)
	wantClean(t, set, 2, ColClosing)
}

func TestStukEditTightensDossierOpening(t *testing.T) {
	v, set := newTestValidator(t, testBounds())

	mustSet(t, v, 3, ColOpening, "2004-01-01")

	dossier := set.Get(1)
	if dossier.Opening != "2004-01-01" {
		t.Fatalf("dossier opening = %q, want propagated 2004-01-01", dossier.Opening)
	}
	if !set.IsValid() {
		t.Fatalf("expected valid set, annotations: %v", set.Annotations())
	}
}

func TestStukEditTightensDossierClosing(t *testing.T) {
	v, set := newTestValidator(t, testBounds())

	mustSet(t, v, 3, ColClosing, "2015-03-01")

	dossier := set.Get(1)
	if dossier.Closing != "2015-03-01" {
		t.Fatalf("dossier closing = %q, want propagated 2015-03-01", dossier.Closing)
	}
	if !set.IsValid() {
		t.Fatalf("expected valid set, annotations: %v", set.Annotations())
	}
}

func TestPropagationNeverLoosens(t *testing.T) {
	v, set := newTestValidator(t, testBounds())

	// Dossier opens 2005-06-01; a stuk moving later must not push it forward.
	mustSet(t, v, 2, ColOpening, "2006-01-01")
	if got := set.Get(1).Opening; got != "2005-06-01" {
		t.Fatalf("dossier opening = %q, want unchanged 2005-06-01", got)
	}

	// Same on the closing side.
	mustSet(t, v, 2, ColClosing, "2008-01-01")
	if got := set.Get(1).Closing; got != "2010-01-01" {
		t.Fatalf("dossier closing = %q, want unchanged 2010-01-01", got)
	}
}

func TestInvalidStukDateDoesNotPropagate(t *testing.T) {
	v, set := newTestValidator(t, testBounds())

	mustSet(t, v, 3, ColOpening, "1990-01-01") // before series start
	wantAnnotation(t, set, 3, ColOpening, SeverityError, msgBeforeSeries)
	if got := set.Get(1).Opening; got != "2005-06-01" {
		t.Fatalf("dossier opening = %q, out-of-window stuk date must not propagate", got)
	}
}

func TestDossierEnvelopeError(t *testing.T) {
	v, set := newTestValidator(t, testBounds())

	// Stuk opens 2003; pushing the dossier opening past it is an error.
	mustSet(t, v, 2, ColOpening, "2003-01-01")
	mustSet(t, v, 1, ColOpening, "2005-01-01")
	wantAnnotation(t, set, 1, ColOpening, SeverityError, msgDossierOpen)

	mustSet(t, v, 2, ColClosing, "2012-01-01")
	mustSet(t, v, 1, ColClosing, "2011-01-01")
	wantAnnotation(t, set, 1, ColClosing, SeverityError, msgDossierClose)
}

func TestStaleDossierErrorClearsWhenStukMoves(t *testing.T) {
	v, set := newTestValidator(t, testBounds())

	mustSet(t, v, 2, ColOpening, "2003-01-01")
	mustSet(t, v, 1, ColOpening, "2005-01-01")
	wantAnnotation(t, set, 1, ColOpening, SeverityError, msgDossierOpen)

	// The offending stuk moves after the dossier opening; its edit must
	// re-check the dossier cells and clear the stale error.
	mustSet(t, v, 2, ColOpening, "2006-01-01")
	wantClean(t, set, 1, ColOpening)
}

func TestSetCellIdempotent(t *testing.T) {
	v, set := newTestValidator(t, testBounds())

	mustSet(t, v, 2, ColOpening, "2021-06-01")
	first := set.Annotations()

	mustSet(t, v, 2, ColOpening, "2021-06-01")
	second := set.Annotations()

	if len(first) != len(second) {
		t.Fatalf("annotation count changed on repeat edit: %d vs %d", len(first), len(second))
	}
	for ref, ann := range first {
		if second[ref] != ann {
			t.Fatalf("annotation %v changed on repeat edit", ref)
		}
	}
}

func TestDirtyFlag(t *testing.T) {
	v, set := newTestValidator(t, testBounds())
	if set.Dirty() {
		t.Fatal("fresh set must be clean")
	}
	mustSet(t, v, 2, ColOpening, "2006-01-01")
	if !set.Dirty() {
		t.Fatal("edit must mark the set dirty")
	}
	set.ClearDirty()
	if set.Dirty() {
		t.Fatal("ClearDirty must reset the flag")
	}
}

// Revalidate must converge to the same state regardless of row order; this
// covers batch imports where stuk rows may be processed before or after their
// dossier.
func TestRevalidateConvergesInEitherRowOrder(t *testing.T) {
	build := func(t *testing.T, dossierFirst bool) *RecordSet {
		dossier := &Record{
			ID: 1, ImportPath: "D1", PathInPackage: "D1",
			Type: TypeDossier, DossierRef: "D1", Name: "Dossier one",
			Opening: "2005-06-01", Closing: "2010-01-01",
		}
		stuk := &Record{
			ID: 2, ImportPath: "D1/alpha.txt", PathInPackage: "alpha.txt",
			Type: TypeStuk, DossierRef: "D1",
			Opening: "2004-01-01", Closing: "2009-01-01",
		}
		records := []*Record{dossier, stuk}
		if !dossierFirst {
			records = []*Record{stuk, dossier}
		}
		set, err := NewRecordSet(records)
		if err != nil {
			t.Fatal(err)
		}
		v := NewValidator(set, testBounds())
		v.now = fixedNow
		v.Revalidate()
		return set
	}

	for _, dossierFirst := range []bool{true, false} {
		set := build(t, dossierFirst)
		if got := set.Get(1).Opening; got != "2004-01-01" {
			t.Fatalf("dossierFirst=%v: dossier opening = %q, want 2004-01-01", dossierFirst, got)
		}
		if !set.IsValid() {
			t.Fatalf("dossierFirst=%v: expected valid set, annotations: %v", dossierFirst, set.Annotations())
		}
	}
}
