package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"golang-withholding-reconciler/internal/classifier"
	"golang-withholding-reconciler/pkg/errors"
)

func TestRootCommandHelp(t *testing.T) {
	stdout, _, err := executeCommand(t, "--help")
	if err != nil {
		t.Fatalf("help failed: %v", err)
	}

	for _, want := range []string{"reconcile", "columns", "regimes", "sample", "version", "--log-level"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in help:\n%s", want, stdout)
		}
	}
}

func TestReconcileCommandHelp(t *testing.T) {
	stdout, _, err := executeCommand(t, "reconcile", "--help")
	if err != nil {
		t.Fatalf("help failed: %v", err)
	}

	for _, flag := range []string{"--invoices", "--withholdings", "--template", "--output", "--mapping", "--set", "--strict", "--report", "--output-format", "--sheet", "--csv-delimiter", "--csv-encoding"} {
		if !strings.Contains(stdout, flag) {
			t.Errorf("expected flag %s in help", flag)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	SetVersionInfo("1.2.3", "abc", "2024-03-01")
	t.Cleanup(func() { SetVersionInfo("dev", "unknown", "unknown") })

	stdout, _, err := executeCommand(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if strings.TrimSpace(stdout) != "reconciler 1.2.3" {
		t.Errorf("unexpected version output %q", stdout)
	}
}

func TestConfigFile(t *testing.T) {
	_, invoices, withholdings, template := setupFiles(t, invoiceHeaders)
	dir := t.TempDir()
	cfg := writeFile(t, dir, "reconciler.yaml",
		"invoices: "+invoices,
		"withholdings: "+withholdings,
		"template: "+template,
		"format: json",
	)

	stdout, _, err := executeCommand(t, "columns", "--config", cfg)
	if err != nil {
		t.Fatalf("columns with config file failed: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(stdout), "{") {
		t.Errorf("expected JSON output from config file setting, got:\n%s", stdout)
	}

	_, _, err = executeCommand(t, "columns", "--config", filepath.Join(dir, "missing.yaml"))
	if rerr, ok := errors.AsReconcilerError(err); !ok || rerr.Category != errors.CategoryConfiguration {
		t.Errorf("expected configuration error for missing config file, got %v", err)
	}
}

func TestLogFlags(t *testing.T) {
	_, invoices, withholdings, template := setupFiles(t, invoiceHeaders)
	logFile := filepath.Join(t.TempDir(), "reconciler.log")

	_, _, err := executeCommand(t, "columns",
		"-i", invoices, "-w", withholdings, "-t", template,
		"--log-level", "info", "--log-format", "json", "--log-file", logFile,
	)
	if err != nil {
		t.Fatalf("columns failed: %v", err)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), `"component"`) {
		t.Errorf("expected JSON log lines, got:\n%s", data)
	}

	_, _, err = executeCommand(t, "regimes", "--log-level", "loud")
	if rerr, ok := errors.AsReconcilerError(err); !ok || rerr.Category != errors.CategoryConfiguration {
		t.Errorf("expected configuration error for bad log level, got %v", err)
	}
}

func TestRegimesCommand(t *testing.T) {
	stdout, _, err := executeCommand(t, "regimes")
	if err != nil {
		t.Fatalf("regimes failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != len(classifier.Rules()) {
		t.Errorf("expected %d rules, got %d lines", len(classifier.Rules()), len(lines))
	}
	if !strings.HasPrefix(lines[0], "RG_140_TARJ") {
		t.Errorf("expected table order to be kept, first line %q", lines[0])
	}

	tests := []struct {
		name     string
		classify string
		contains []string
	}{
		{
			name:     "direct code",
			classify: "140",
			contains: []string{"code:        140", "direct_code", "keywords:    140"},
		},
		{
			name:     "keyword",
			classify: "|IVA SERVICIOS||",
			contains: []string{"keyword"},
		},
		{
			name:     "fallback",
			classify: "|IMPUESTO DESCONOCIDO",
			contains: []string{"code:        " + classifier.UnmappedCode, "fallback"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := executeCommand(t, "regimes", "--classify", tt.classify)
			if err != nil {
				t.Fatalf("regimes --classify failed: %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(stdout, want) {
					t.Errorf("expected %q in output:\n%s", want, stdout)
				}
			}
		})
	}
}

func TestParseRegimeInput(t *testing.T) {
	in := parseRegimeInput(" 493 | PERCEPCION IVA ")
	if in.Regime != "493" || in.RegimeDescription != "PERCEPCION IVA" || in.TaxType != "" || in.TaxDescription != "" {
		t.Errorf("unexpected input %+v", in)
	}

	in = parseRegimeInput("a|b|c|d|e")
	if in.TaxDescription != "d|e" {
		t.Errorf("expected the last part to keep extra separators, got %q", in.TaxDescription)
	}
}

func TestEnvironmentVariables(t *testing.T) {
	_, invoices, withholdings, template := setupFiles(t, invoiceHeaders)
	t.Setenv("RECONCILER_INVOICES", invoices)
	t.Setenv("RECONCILER_WITHHOLDINGS", withholdings)
	t.Setenv("RECONCILER_TEMPLATE", template)

	if _, _, err := executeCommand(t, "columns"); err != nil {
		t.Fatalf("columns from environment failed: %v", err)
	}
	if viper.GetString("invoices") != invoices {
		t.Errorf("expected invoices from environment, got %q", viper.GetString("invoices"))
	}
}
