package grid

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestScanEmptyRowsMarksWarnings(t *testing.T) {
	dir := t.TempDir()

	emptyDossier := filepath.Join(dir, "D1")
	if err := os.MkdirAll(emptyDossier, 0o755); err != nil {
		t.Fatal(err)
	}
	fullDossier := filepath.Join(dir, "D2")
	if err := os.MkdirAll(fullDossier, 0o755); err != nil {
		t.Fatal(err)
	}
	emptyFile := filepath.Join(fullDossier, "empty.txt")
	if err := os.WriteFile(emptyFile, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	fullFile := filepath.Join(fullDossier, "full.txt")
	if err := os.WriteFile(fullFile, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	records := []*Record{
		{ID: 1, ImportPath: "D1", PathInPackage: "D1", Type: TypeDossier, DossierRef: "D1", Name: "One", SourcePath: emptyDossier},
		{ID: 2, ImportPath: "D2", PathInPackage: "D2", Type: TypeDossier, DossierRef: "D2", Name: "Two", SourcePath: fullDossier},
		{ID: 3, ImportPath: "D2/empty.txt", PathInPackage: "empty.txt", Type: TypeStuk, DossierRef: "D2", SourcePath: emptyFile},
		{ID: 4, ImportPath: "D2/full.txt", PathInPackage: "full.txt", Type: TypeStuk, DossierRef: "D2", SourcePath: fullFile},
	}
	set, err := NewRecordSet(records)
	if err != nil {
		t.Fatal(err)
	}
	v := NewValidator(set, Bounds{})
	v.now = fixedNow

	if err := v.ScanEmptyRows(OSProbe{}); err != nil {
		t.Fatal(err)
	}

	if !set.RowReadOnly(1) {
		t.Fatal("empty dossier row should be read-only")
	}
	wantAnnotation(t, set, 1, ColName, SeverityWarning, msgEmptyDossier)
	if !set.RowReadOnly(3) {
		t.Fatal("empty file row should be read-only")
	}
	wantAnnotation(t, set, 3, ColOpening, SeverityWarning, msgEmptyFile)
	if set.RowReadOnly(2) || set.RowReadOnly(4) {
		t.Fatal("rows with content must stay editable")
	}

	// Warnings never block submission.
	if !set.IsValid() {
		t.Fatalf("warnings must not invalidate the set: %v", set.Annotations())
	}

	// Warned rows refuse edits.
	err = v.SetCell(1, ColName, "Renamed")
	if !errors.Is(err, ErrRowReadOnly) {
		t.Fatalf("expected ErrRowReadOnly, got %v", err)
	}
	if got := set.Get(1).Name; got != "One" {
		t.Fatalf("read-only row mutated: %q", got)
	}
}

func TestScanEmptyRowsEmptySubfolder(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "D1", "empty-sub")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	records := []*Record{
		{ID: 1, ImportPath: "D1/empty-sub", PathInPackage: "empty-sub", Type: TypeStuk, DossierRef: "D1", SourcePath: sub},
	}
	set, err := NewRecordSet(records)
	if err != nil {
		t.Fatal(err)
	}
	v := NewValidator(set, Bounds{})

	if err := v.ScanEmptyRows(OSProbe{}); err != nil {
		t.Fatal(err)
	}
	wantAnnotation(t, set, 1, ColPathInPackage, SeverityWarning, msgEmptyFolder)
}
