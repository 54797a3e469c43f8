package importer

import (
	"fmt"
	"strings"
	"time"

	"sipforge/internal/grid"
)

// Transfer-list columns the grid mapping relies on.
const (
	colDoosnr       = "doosnr"
	colStuknr       = "nr_van_het_archiefbestanddeel"
	colBeschrijving = "beschrijving"
	colBeginDatum   = "begin_datum"
	colEindDatum    = "eind_datum"
)

// dateLayouts are the spreadsheet date renderings seen in practice. Values
// that match none of them are kept verbatim for the validator to flag.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02-01-2006",
	"02/01/2006",
	"1/2/06 15:04",
}

// ToRecords maps a transfer list onto grid records: one dossier row per
// distinct doosnr in first-seen order, one stuk row per data row grouped
// under it.
func ToRecords(list *TransferList) ([]*grid.Record, error) {
	for _, required := range []string{colDoosnr, colBeschrijving, colBeginDatum, colEindDatum} {
		if list.Column(required) < 0 {
			return nil, fmt.Errorf("transfer list is missing the %s column", required)
		}
	}
	doosnr := list.Column(colDoosnr)
	stuknr := list.Column(colStuknr)
	beschrijving := list.Column(colBeschrijving)
	begin := list.Column(colBeginDatum)
	eind := list.Column(colEindDatum)

	var records []*grid.Record
	seen := make(map[string]bool)
	for i, row := range list.Rows {
		rowNum := i + 1
		doos := row[doosnr]
		if doos == "" {
			return nil, fmt.Errorf("row %d: %s is empty", rowNum, colDoosnr)
		}
		if strings.ContainsAny(doos, "/\\") {
			return nil, fmt.Errorf("row %d: %s %q contains a path separator", rowNum, colDoosnr, doos)
		}

		if !seen[doos] {
			seen[doos] = true
			records = append(records, &grid.Record{
				ImportPath:    doos,
				PathInPackage: doos,
				Type:          grid.TypeDossier,
				DossierRef:    doos,
			})
		}

		name := row[beschrijving]
		if stuknr >= 0 && row[stuknr] != "" {
			name = row[stuknr]
		}
		if name == "" {
			return nil, fmt.Errorf("row %d: neither %s nor %s has a value", rowNum, colStuknr, colBeschrijving)
		}

		records = append(records, &grid.Record{
			ImportPath:    doos + "/" + name,
			PathInPackage: name,
			Type:          grid.TypeStuk,
			DossierRef:    doos,
			Name:          name,
			Opening:       normalizeDate(row[begin]),
			Closing:       normalizeDate(row[eind]),
			Description:   row[beschrijving],
		})
	}
	return records, nil
}

func normalizeDate(value string) string {
	if value == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.Format(grid.DateFormat)
		}
	}
	return value
}
