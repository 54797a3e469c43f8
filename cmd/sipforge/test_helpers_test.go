package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	outputDir  string
	seriesURL  string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		outputDir:  filepath.Join(base, "sips"),
	}
	env.writeConfig(t)
	return env
}

func (e *cliTestEnv) writeConfig(t *testing.T) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nworkspace_dir = %q\nsip_output_dir = %q\nlog_dir = %q\n\n"+
			"[series]\nbase_url = %q\n\n"+
			"[edepot]\nskip_upload = true\n",
		filepath.Join(e.baseDir, "workspace"),
		e.outputDir,
		filepath.Join(e.baseDir, "logs"),
		e.seriesURL,
	)
	if err := os.WriteFile(e.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// makeDossierDir creates a dossier folder with the given files, each holding
// a little content so the empty-file scan leaves them alone.
func (e *cliTestEnv) makeDossierDir(t *testing.T, name string, files ...string) string {
	t.Helper()
	dir := filepath.Join(e.baseDir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir dossier: %v", err)
	}
	for _, file := range files {
		if err := os.WriteFile(filepath.Join(dir, file), []byte("inhoud"), 0o644); err != nil {
			t.Fatalf("write dossier file: %v", err)
		}
	}
	return dir
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func mustRunCLI(t *testing.T, env *cliTestEnv, args ...string) string {
	t.Helper()
	out, _, err := runCLI(t, env, args...)
	if err != nil {
		t.Fatalf("%s: %v\noutput:\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
