package main

import (
	"path/filepath"
	"testing"
)

func TestDossierAddListRemove(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := env.makeDossierDir(t, "dossier-2021-001", "brief.pdf")

	out := mustRunCLI(t, env, "dossier", "add", dir)
	requireContains(t, out, "Registered dossier dossier-2021-001")

	out = mustRunCLI(t, env, "dossier", "list")
	requireContains(t, out, "dossier-2021-001")
	requireContains(t, out, dir)

	// Duplicate labels are rejected.
	if _, _, err := runCLI(t, env, "dossier", "add", dir); err == nil {
		t.Fatal("expected duplicate label to be rejected")
	}

	out = mustRunCLI(t, env, "dossier", "remove", "dossier-2021-001")
	requireContains(t, out, "Removed dossier dossier-2021-001")

	out = mustRunCLI(t, env, "dossier", "list")
	requireContains(t, out, "No dossiers registered")
}

func TestDossierAddCustomLabel(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := env.makeDossierDir(t, "raw-folder", "nota.txt")

	out := mustRunCLI(t, env, "dossier", "add", dir, "--label", "Bouwdossier 14")
	requireContains(t, out, "Registered dossier Bouwdossier 14")
}

func TestDossierAddRejectsFiles(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := env.makeDossierDir(t, "dossier-a", "stuk.txt")

	if _, _, err := runCLI(t, env, "dossier", "add", filepath.Join(dir, "stuk.txt")); err == nil {
		t.Fatal("expected a plain file to be rejected")
	}
}
