// Package sippkg assembles submission packages: a ZIP of the grid's content
// with an embedded metadata manifest, plus a checksum sidecar written next
// to it.
package sippkg

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"sipforge/internal/fileutil"
	"sipforge/internal/grid"
	"sipforge/internal/services"
	"sipforge/internal/sipstore"
)

// ChecksumAlgorithm names the digest shipped in the sidecar.
const ChecksumAlgorithm = "sha256"

// manifestName is the grid manifest entry inside the package.
const manifestName = "metadata.xml"

// Result describes a built package.
type Result struct {
	PackagePath string
	SidecarPath string
	Checksum    string
	FileCount   int
}

// Manifest is the metadata.xml document packaged with the content.
type Manifest struct {
	XMLName  xml.Name      `xml:"metadata"`
	SIPName  string        `xml:"sip,attr"`
	SeriesID string        `xml:"series,attr"`
	Rows     []ManifestRow `xml:"row"`
}

// ManifestRow mirrors one grid row.
type ManifestRow struct {
	PathInSIP   string `xml:"path_in_sip"`
	Type        string `xml:"type"`
	DossierRef  string `xml:"dossier_ref"`
	Name        string `xml:"name"`
	Opening     string `xml:"opening_date,omitempty"`
	Closing     string `xml:"closing_date,omitempty"`
	Description string `xml:"description,omitempty"`
	Comments    string `xml:"comments,omitempty"`
}

// Sidecar is the checksum document written next to the package.
type Sidecar struct {
	XMLName  xml.Name `xml:"sidecar"`
	Package  string   `xml:"package"`
	Checksum Checksum `xml:"checksum"`
}

// Checksum carries the digest with its algorithm.
type Checksum struct {
	Algorithm string `xml:"algorithm,attr"`
	Value     string `xml:",chardata"`
}

// EntryPath returns where a stuk row's content lives inside the package.
func EntryPath(rec *grid.Record) string {
	return rec.DossierRef + "/" + rec.PathInPackage
}

// Build assembles the package for a SIP from its validated grid and writes
// the checksum sidecar. Rows flagged with warnings (empty folders and
// zero-byte files) are left out of both the archive and the manifest.
func Build(ctx context.Context, sip *sipstore.SIP, set *grid.RecordSet, outputDir string) (*Result, error) {
	if !sip.HasSeries() {
		return nil, services.Wrap(services.ErrValidation, "sippkg", "build", "no series assigned to the SIP", nil)
	}
	if !set.IsValid() {
		return nil, services.Wrap(services.ErrValidation, "sippkg", "build",
			fmt.Sprintf("grid has %d rows with validation errors", len(set.ErrorRows())), nil)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "sippkg", "build", "create output directory", err)
	}

	packagePath := filepath.Join(outputDir, sip.PackageFileName())
	result, err := writePackage(ctx, sip, set, packagePath)
	if err != nil {
		_ = os.Remove(packagePath)
		return nil, err
	}

	checksum, err := fileutil.HashFile(packagePath)
	if err != nil {
		_ = os.Remove(packagePath)
		return nil, services.Wrap(services.ErrTransient, "sippkg", "checksum", "", err)
	}
	result.Checksum = checksum

	sidecarPath := filepath.Join(outputDir, sip.SidecarFileName())
	if err := writeSidecar(sidecarPath, sip.PackageFileName(), checksum); err != nil {
		_ = os.Remove(packagePath)
		return nil, services.Wrap(services.ErrTransient, "sippkg", "sidecar", "", err)
	}
	result.SidecarPath = sidecarPath
	return result, nil
}

func writePackage(ctx context.Context, sip *sipstore.SIP, set *grid.RecordSet, packagePath string) (*Result, error) {
	out, err := os.Create(packagePath)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "sippkg", "create package", "", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	result := &Result{PackagePath: packagePath}
	manifest := Manifest{SIPName: sip.Name, SeriesID: sip.SeriesID}

	// archive/zip writes duplicate entry names without complaint; refuse
	// them here so the package never carries an ambiguous path.
	seen := make(map[string]struct{}, set.Len())

	for _, rec := range set.Records() {
		if err := ctx.Err(); err != nil {
			_ = zw.Close()
			return nil, err
		}
		if set.RowReadOnly(rec.ID) {
			continue
		}

		entry := rec.PathInPackage
		if rec.Type == grid.TypeStuk {
			entry = EntryPath(rec)
		}
		if _, dup := seen[entry]; dup {
			_ = zw.Close()
			return nil, services.Wrap(services.ErrValidation, "sippkg", "build",
				fmt.Sprintf("duplicate package entry %s", entry), nil)
		}
		seen[entry] = struct{}{}

		if rec.Type == grid.TypeStuk {
			if rec.SourcePath != "" {
				if err := addFile(zw, entry, rec.SourcePath); err != nil {
					_ = zw.Close()
					return nil, services.Wrap(services.ErrTransient, "sippkg", "add file", entry, err)
				}
				result.FileCount++
			}
		}

		manifest.Rows = append(manifest.Rows, ManifestRow{
			PathInSIP:   entry,
			Type:        string(rec.Type),
			DossierRef:  rec.DossierRef,
			Name:        rec.Name,
			Opening:     rec.Opening,
			Closing:     rec.Closing,
			Description: rec.Description,
			Comments:    rec.Comments,
		})
	}

	if err := addManifest(zw, manifest); err != nil {
		_ = zw.Close()
		return nil, services.Wrap(services.ErrTransient, "sippkg", "write manifest", "", err)
	}
	if err := zw.Close(); err != nil {
		return nil, services.Wrap(services.ErrTransient, "sippkg", "finalize package", "", err)
	}
	if err := out.Close(); err != nil {
		return nil, services.Wrap(services.ErrTransient, "sippkg", "finalize package", "", err)
	}
	return result, nil
}

func addFile(zw *zip.Writer, entry, sourcePath string) error {
	in, err := os.Open(sourcePath)
	if err != nil {
		return err
	}
	defer in.Close()

	w, err := zw.Create(entry)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}

func addManifest(zw *zip.Writer, manifest Manifest) error {
	w, err := zw.Create(manifestName)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(manifest)
}

func writeSidecar(path, packageName, checksum string) error {
	doc := Sidecar{
		Package:  packageName,
		Checksum: Checksum{Algorithm: ChecksumAlgorithm, Value: checksum},
	}
	data, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append([]byte(xml.Header), append(data, '\n')...), 0o644)
}
