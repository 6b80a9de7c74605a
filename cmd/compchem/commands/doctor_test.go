package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thoreinstein/compchem/internal/errors"
)

func TestDoctor_Healthy(t *testing.T) {
	env := newTestEnv(t, "version: 1\n")
	out, _, err := env.run(t, "doctor", "--all")
	if err != nil {
		t.Fatalf("doctor error = %v\n%s", err, out)
	}
	for _, want := range []string{"[config] config-file: loaded", "[logging] log-directory", "Summary:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\nGot:\n%s", want, out)
		}
	}
}

func TestDoctor_UnusableDirectoryFails(t *testing.T) {
	env := newTestEnv(t, "version: 1\n")
	// A regular file where the directory should be makes MkdirAll fail
	// without a permission error; the configured path is kept but unusable.
	blocked := filepath.Join(filepath.Dir(env.logDir), "blocked")
	if err := os.WriteFile(blocked, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	env.logDir = filepath.Join(blocked, "logs")

	out, _, err := env.run(t, "--file-level", "off", "doctor", "--json")

	var exitErr *errors.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != errors.ExitSystem {
		t.Fatalf("error = %v, want exit code %d", err, errors.ExitSystem)
	}

	var report struct {
		Results []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	found := false
	for _, r := range report.Results {
		if r.Name == "log-directory" {
			found = true
			if r.Status != "error" {
				t.Errorf("log-directory status = %q, want error", r.Status)
			}
		}
	}
	if !found {
		t.Errorf("no log-directory result in %s", out)
	}
}
