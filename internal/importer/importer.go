// Package importer reads transfer-list spreadsheets into grid-ready rows.
package importer

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the transfer list.
const SheetName = "Overdrachtslijst"

// headerAnchor marks the header row: the first row whose leading cell
// normalizes to this value.
const headerAnchor = "doosnr"

// TransferList is the tabular content of an imported spreadsheet.
type TransferList struct {
	Source  string
	Headers []string
	Rows    [][]string
}

// Column returns the index of a normalized header, or -1.
func (t *TransferList) Column(header string) int {
	for i, h := range t.Headers {
		if h == header {
			return i
		}
	}
	return -1
}

// ImportTransferList opens an .xlsx transfer list and returns its header and
// data rows. Preamble rows above the header are skipped, headers are
// normalized, rows are truncated to the header width, and rows without any
// value are dropped. Blank cells come back as empty strings.
func ImportTransferList(path string) (*TransferList, error) {
	if !hasSpreadsheetExt(path) {
		return nil, fmt.Errorf("invalid file type: only spreadsheet files (.xlsx, .xlsm, .xltx, .xltm) are allowed")
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open spreadsheet: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("%s sheet missing: %w", SheetName, err)
	}

	headerIdx := -1
	for i, row := range rows {
		if len(row) > 0 && normalizeHeader(row[0]) == headerAnchor {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return nil, fmt.Errorf("no header row found: no cell in column A normalizes to %q", headerAnchor)
	}

	var headers []string
	for _, h := range rows[headerIdx] {
		if strings.TrimSpace(h) == "" {
			continue
		}
		headers = append(headers, normalizeHeader(h))
	}

	list := &TransferList{Source: path, Headers: headers}
	for _, row := range rows[headerIdx+1:] {
		cells := make([]string, len(headers))
		empty := true
		for c := range cells {
			if c < len(row) {
				cells[c] = strings.TrimSpace(row[c])
			}
			if cells[c] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		list.Rows = append(list.Rows, cells)
	}
	return list, nil
}

// normalizeHeader lowercases a header and strips the punctuation variants the
// transfer lists use (spaces and dashes to underscores, dots and newlines
// removed).
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, " ", "_")
	h = strings.ReplaceAll(h, "-", "_")
	h = strings.ReplaceAll(h, "\n", "")
	h = strings.ReplaceAll(h, ".", "")
	return h
}

func hasSpreadsheetExt(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range []string{".xlsx", ".xlsm", ".xltx", ".xltm"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
