package scan

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sipforge/internal/grid"
	"sipforge/internal/sipstore"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestBuildWalksDossierFolders(t *testing.T) {
	root := t.TempDir()
	dossierDir := filepath.Join(root, "D1")
	writeFile(t, filepath.Join(dossierDir, "alpha.txt"), "a")
	writeFile(t, filepath.Join(dossierDir, "sub", "beta.txt"), "b")
	if err := os.MkdirAll(filepath.Join(dossierDir, "leeg"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	records, err := Build([]*sipstore.Dossier{{Label: "D1", Path: dossierDir}})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("built %d records, want 4", len(records))
	}

	head := records[0]
	if head.Type != grid.TypeDossier || head.ImportPath != "D1" || head.DossierRef != "D1" {
		t.Fatalf("unexpected dossier row: %+v", head)
	}
	if head.Name != "" || head.Opening != "" || head.Closing != "" {
		t.Fatalf("dossier row should start without name or dates: %+v", head)
	}

	byImport := make(map[string]*grid.Record)
	for _, rec := range records[1:] {
		if rec.Type != grid.TypeStuk {
			t.Fatalf("expected stuk row, got %+v", rec)
		}
		byImport[rec.ImportPath] = rec
	}

	alpha := byImport["D1/alpha.txt"]
	if alpha == nil {
		t.Fatalf("alpha.txt missing: %v", byImport)
	}
	if alpha.PathInPackage != "alpha.txt" || alpha.Name != "alpha.txt" {
		t.Fatalf("unexpected alpha row: %+v", alpha)
	}
	if len(alpha.Opening) != len("2006-01-02") || len(alpha.Closing) != len("2006-01-02") {
		t.Fatalf("stuk dates not formatted: %+v", alpha)
	}

	beta := byImport["D1/sub/beta.txt"]
	if beta == nil || beta.PathInPackage != "beta.txt" {
		t.Fatalf("nested file not flattened to leaf: %+v", beta)
	}

	leeg := byImport["D1/leeg"]
	if leeg == nil {
		t.Fatal("empty folder not recorded as leaf")
	}
	if leeg.Opening != "" || leeg.Closing != "" {
		t.Fatalf("empty folder should have no dates: %+v", leeg)
	}
}

func TestBuildRejectsDuplicateLabels(t *testing.T) {
	root := t.TempDir()
	_, err := Build([]*sipstore.Dossier{
		{Label: "D1", Path: root},
		{Label: "D1", Path: root},
	})
	if err == nil {
		t.Fatal("duplicate labels accepted")
	}
	if !strings.Contains(err.Error(), "D1") {
		t.Fatalf("error does not name the offending label: %v", err)
	}
}

func TestBuildRejectsDuplicateLeafNames(t *testing.T) {
	root := t.TempDir()
	dossierDir := filepath.Join(root, "D1")
	writeFile(t, filepath.Join(dossierDir, "map-a", "scan.pdf"), "x")
	writeFile(t, filepath.Join(dossierDir, "map-b", "scan.pdf"), "y")

	_, err := Build([]*sipstore.Dossier{{Label: "D1", Path: dossierDir}})
	if err == nil {
		t.Fatal("colliding leaf names accepted")
	}
	for _, want := range []string{"scan.pdf", "map-a/scan.pdf", "map-b/scan.pdf"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error does not name %q: %v", want, err)
		}
	}
}

func TestBuildRequiresDossiers(t *testing.T) {
	if _, err := Build(nil); err == nil {
		t.Fatal("empty selection accepted")
	}
}

func TestCollectLeavesSkipsNonEmptyFolders(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a", "b", "deep.txt"), "x")

	leaves, err := collectLeaves(root, root)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(leaves) != 1 || leaves[0] != "a/b/deep.txt" {
		t.Fatalf("leaves = %v, want [a/b/deep.txt]", leaves)
	}
}
