package importer

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"sipforge/internal/grid"
)

func writeTransferList(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if _, err := f.NewSheet(SheetName); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "overdracht.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	return path
}

func TestImportTransferList(t *testing.T) {
	path := writeTransferList(t, [][]any{
		{"Overdrachtslijst gemeentearchief"},
		{""},
		{"Doosnr", "Nr. van het archiefbestanddeel", "Beschrijving", "Begin datum", "Eind-datum"},
		{"D1", "S1", "brief aan aannemer", "2005-06-01", "2009-01-01"},
		{"", "", "", "", ""},
		{"D1", "S2", "plan", "2006-02-03", "2008-11-30"},
	})

	list, err := ImportTransferList(path)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	want := []string{"doosnr", "nr_van_het_archiefbestanddeel", "beschrijving", "begin_datum", "eind_datum"}
	if len(list.Headers) != len(want) {
		t.Fatalf("headers = %v, want %v", list.Headers, want)
	}
	for i, h := range want {
		if list.Headers[i] != h {
			t.Fatalf("header %d = %q, want %q", i, list.Headers[i], h)
		}
	}
	if len(list.Rows) != 2 {
		t.Fatalf("imported %d rows, want 2 (empty row dropped)", len(list.Rows))
	}
	if list.Rows[1][2] != "plan" {
		t.Fatalf("unexpected second row: %v", list.Rows[1])
	}
}

func TestImportRejectsMissingSheet(t *testing.T) {
	f := excelize.NewFile()
	path := filepath.Join(t.TempDir(), "other.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = f.Close()

	if _, err := ImportTransferList(path); err == nil {
		t.Fatal("workbook without the transfer sheet accepted")
	}
}

func TestImportRejectsMissingHeaderRow(t *testing.T) {
	path := writeTransferList(t, [][]any{
		{"just", "some", "text"},
		{"no", "header", "here"},
	})
	_, err := ImportTransferList(path)
	if err == nil {
		t.Fatal("sheet without a doosnr header accepted")
	}
	if !strings.Contains(err.Error(), "doosnr") {
		t.Fatalf("error does not name the header anchor: %v", err)
	}
}

func TestImportRejectsWrongExtension(t *testing.T) {
	if _, err := ImportTransferList("list.csv"); err == nil {
		t.Fatal("csv path accepted")
	}
}

func TestNormalizeHeader(t *testing.T) {
	cases := map[string]string{
		"Doosnr":             "doosnr",
		" Begin datum ":      "begin_datum",
		"Eind-datum":         "eind_datum",
		"Nr. van het\nstuk":  "nr_van_hetstuk",
		"Bewaar termijn":     "bewaar_termijn",
	}
	for in, want := range cases {
		if got := normalizeHeader(in); got != want {
			t.Fatalf("normalizeHeader(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestToRecords(t *testing.T) {
	list := &TransferList{
		Headers: []string{"doosnr", "nr_van_het_archiefbestanddeel", "beschrijving", "begin_datum", "eind_datum"},
		Rows: [][]string{
			{"D1", "S1", "brief aan aannemer", "2005-06-01", "2009-01-01"},
			{"D1", "", "plan", "03-02-2006", "2008-11-30"},
			{"D2", "S3", "vergunning", "", ""},
		},
	}

	records, err := ToRecords(list)
	if err != nil {
		t.Fatalf("to records: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("built %d records, want 5 (2 dossiers + 3 stukken)", len(records))
	}

	if records[0].Type != grid.TypeDossier || records[0].DossierRef != "D1" {
		t.Fatalf("unexpected first record: %+v", records[0])
	}
	s1 := records[1]
	if s1.Type != grid.TypeStuk || s1.Name != "S1" || s1.ImportPath != "D1/S1" {
		t.Fatalf("unexpected stuk: %+v", s1)
	}
	if s1.Description != "brief aan aannemer" {
		t.Fatalf("description lost: %+v", s1)
	}

	s2 := records[2]
	if s2.Name != "plan" {
		t.Fatalf("beschrijving fallback not applied: %+v", s2)
	}
	if s2.Opening != "2006-02-03" {
		t.Fatalf("dd-mm-yyyy date not normalized: %q", s2.Opening)
	}

	if records[3].Type != grid.TypeDossier || records[3].DossierRef != "D2" {
		t.Fatalf("second dossier row misplaced: %+v", records[3])
	}
}

func TestToRecordsRowErrors(t *testing.T) {
	headers := []string{"doosnr", "nr_van_het_archiefbestanddeel", "beschrijving", "begin_datum", "eind_datum"}

	_, err := ToRecords(&TransferList{Headers: headers, Rows: [][]string{
		{"", "S1", "brief", "2005-06-01", "2009-01-01"},
	}})
	if err == nil || !strings.Contains(err.Error(), "row 1") {
		t.Fatalf("missing doosnr should fail with a row number, got %v", err)
	}

	_, err = ToRecords(&TransferList{Headers: headers, Rows: [][]string{
		{"D1", "S1", "brief", "2005-06-01", "2009-01-01"},
		{"D1", "", "", "2005-06-01", "2009-01-01"},
	}})
	if err == nil || !strings.Contains(err.Error(), "row 2") {
		t.Fatalf("nameless stuk should fail with a row number, got %v", err)
	}

	_, err = ToRecords(&TransferList{Headers: []string{"doosnr"}, Rows: nil})
	if err == nil || !strings.Contains(err.Error(), "beschrijving") {
		t.Fatalf("missing required column should be named, got %v", err)
	}
}
