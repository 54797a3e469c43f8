// Package scan builds grid records from dossier folders on disk.
package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"sipforge/internal/grid"
	"sipforge/internal/sipstore"
)

// Build walks each dossier folder and produces the initial grid: one dossier
// row per dossier followed by one stuk row per leaf entry. Files and empty
// folders are leaves; non-empty folders are recursed into. Zero-byte files
// and empty folders are recorded too, so the empty-row scan can flag them
// instead of silently dropping content.
func Build(dossiers []*sipstore.Dossier) ([]*grid.Record, error) {
	if len(dossiers) == 0 {
		return nil, fmt.Errorf("no dossiers selected")
	}
	if dupes := duplicateLabels(dossiers); len(dupes) > 0 {
		return nil, fmt.Errorf("duplicate dossier labels: %s", strings.Join(dupes, ", "))
	}

	var records []*grid.Record
	for _, dossier := range dossiers {
		label := norm.NFC.String(dossier.Label)
		records = append(records, &grid.Record{
			ImportPath:    label,
			SourcePath:    dossier.Path,
			PathInPackage: label,
			Type:          grid.TypeDossier,
			DossierRef:    label,
		})

		leaves, err := collectLeaves(dossier.Path, dossier.Path)
		if err != nil {
			return nil, fmt.Errorf("scan dossier %s: %w", dossier.Label, err)
		}
		sort.Strings(leaves)

		// Packages flatten stukken to their leaf name, so two leaves with
		// the same name in one dossier would collide inside the archive.
		byLeaf := make(map[string]string, len(leaves))
		for _, rel := range leaves {
			leaf := norm.NFC.String(baseName(rel))
			if prev, ok := byLeaf[leaf]; ok {
				return nil, fmt.Errorf("dossier %s: %s and %s would both be packaged as %q; rename one of them",
					dossier.Label, prev, rel, leaf)
			}
			byLeaf[leaf] = rel

			abs := filepath.Join(dossier.Path, filepath.FromSlash(rel))
			rec := &grid.Record{
				ImportPath:    label + "/" + rel,
				SourcePath:    abs,
				PathInPackage: leaf,
				Type:          grid.TypeStuk,
				DossierRef:    label,
				Name:          leaf,
			}
			if info, err := os.Stat(abs); err == nil && !info.IsDir() {
				opening, closing := fileTimes(abs, info)
				rec.Opening = opening.Format(grid.DateFormat)
				rec.Closing = closing.Format(grid.DateFormat)
			}
			records = append(records, rec)
		}
	}
	return records, nil
}

// collectLeaves returns leaf entries under dir as forward-slash paths
// relative to base. A leaf is a file or an empty folder.
func collectLeaves(base, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var leaves []string
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			children, err := os.ReadDir(full)
			if err != nil {
				return nil, err
			}
			if len(children) == 0 {
				rel, err := filepath.Rel(base, full)
				if err != nil {
					return nil, err
				}
				leaves = append(leaves, filepath.ToSlash(rel))
				continue
			}
			nested, err := collectLeaves(base, full)
			if err != nil {
				return nil, err
			}
			leaves = append(leaves, nested...)
			continue
		}
		rel, err := filepath.Rel(base, full)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, filepath.ToSlash(rel))
	}
	return leaves, nil
}

func duplicateLabels(dossiers []*sipstore.Dossier) []string {
	seen := make(map[string]int, len(dossiers))
	for _, d := range dossiers {
		seen[d.Label]++
	}
	var dupes []string
	for label, count := range seen {
		if count > 1 {
			dupes = append(dupes, label)
		}
	}
	sort.Strings(dupes)
	return dupes
}

func baseName(rel string) string {
	if idx := strings.LastIndex(rel, "/"); idx >= 0 {
		return rel[idx+1:]
	}
	return rel
}
