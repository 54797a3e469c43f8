package grid

import (
	"fmt"
	"os"
)

// Row warnings for backing locations that hold no data. Warned rows are kept
// in the grid for display but excluded from the package and locked against
// edits.
const (
	msgEmptyDossier = "empty dossiers are not included when the SIP is built"
	msgEmptyFile    = "empty files are not included when the SIP is built"
	msgEmptyFolder  = "empty folders are not included when the SIP is built"
)

// Probe answers existence and emptiness questions about a record's backing
// path. Separated from the validator so the rule set can be exercised without
// a real filesystem.
type Probe interface {
	// IsDir reports whether the path is a directory.
	IsDir(path string) (bool, error)
	// IsEmpty reports whether a directory has no entries, or a file has
	// zero bytes.
	IsEmpty(path string) (bool, error)
}

// OSProbe probes the local filesystem.
type OSProbe struct{}

func (OSProbe) IsDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.IsDir(), nil
}

func (OSProbe) IsEmpty(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return info.Size() == 0, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return false, fmt.Errorf("read dir %s: %w", path, err)
	}
	return len(entries) == 0, nil
}

// ScanEmptyRows marks every record whose backing folder or file is empty with
// a whole-row warning. Warnings never block submission; they flag rows the
// packager will skip.
func (v *Validator) ScanEmptyRows(probe Probe) error {
	for _, rec := range v.set.Records() {
		if rec.SourcePath == "" {
			continue
		}
		isDir, err := probe.IsDir(rec.SourcePath)
		if err != nil {
			return err
		}
		empty, err := probe.IsEmpty(rec.SourcePath)
		if err != nil {
			return err
		}
		if !empty {
			continue
		}
		switch {
		case rec.Type == TypeDossier:
			v.set.markWarningRow(rec.ID, msgEmptyDossier)
		case isDir:
			v.set.markWarningRow(rec.ID, msgEmptyFolder)
		default:
			v.set.markWarningRow(rec.ID, msgEmptyFile)
		}
	}
	return nil
}
