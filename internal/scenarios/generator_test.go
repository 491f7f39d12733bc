package scenarios

import (
	"context"
	"os"
	"testing"

	"golang-withholding-reconciler/internal/reconciler"
	"golang-withholding-reconciler/internal/reporter"
	"golang-withholding-reconciler/pkg/errors"
)

func runScenario(t *testing.T, scenario *Scenario, format reporter.TemplateFormat) *reconciler.ReconciliationResult {
	t.Helper()

	files, err := scenario.Write(t.TempDir(), format)
	if err != nil {
		t.Fatalf("failed to write scenario: %v", err)
	}

	service, err := reconciler.NewReconciliationService(reconciler.DefaultConfig())
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	orchestrator, err := reconciler.NewReconciliationOrchestrator(service, nil, nil)
	if err != nil {
		t.Fatalf("failed to create orchestrator: %v", err)
	}

	result, resolution, err := orchestrator.Run(context.Background(), files)
	if err != nil {
		t.Fatalf("reconciliation failed: %v", err)
	}

	review := resolution.ReviewColumns()
	if len(review) != 1 || review[0] != ExtraTemplateColumn {
		t.Errorf("expected only %q to need review, got %v", ExtraTemplateColumn, review)
	}
	return result
}

func checkExpectations(t *testing.T, scenario *Scenario, result *reconciler.ReconciliationResult) {
	t.Helper()

	if len(result.Rows) != len(scenario.Expected) {
		t.Fatalf("expected %d rows, got %d", len(scenario.Expected), len(result.Rows))
	}

	for i, want := range scenario.Expected {
		row := result.Rows[i]
		if row.Invoice.DocumentNumber != want.DocumentNumber {
			t.Errorf("row %d: expected invoice %s, got %s", i, want.DocumentNumber, row.Invoice.DocumentNumber)
			continue
		}
		if !row.FinalWithholding.Equal(want.FinalWithholding) {
			t.Errorf("%s: expected final withholding %s, got %s", want.DocumentNumber, want.FinalWithholding.StringFixed(2), row.FinalWithholding.StringFixed(2))
		}
		if row.Inferred != want.Inferred {
			t.Errorf("%s: expected inferred %t, got %t", want.DocumentNumber, want.Inferred, row.Inferred)
		}
		if (row.Alert != "") != want.Alert {
			t.Errorf("%s: expected alert %t, got %q", want.DocumentNumber, want.Alert, row.Alert)
		}

		switch {
		case want.RegimeCode == "" && row.Regime != nil:
			t.Errorf("%s: expected no regime, got %s", want.DocumentNumber, row.Regime.Code)
		case want.RegimeCode != "" && row.Regime == nil:
			t.Errorf("%s: expected regime %s, got none", want.DocumentNumber, want.RegimeCode)
		case want.RegimeCode != "" && row.Regime.Code != want.RegimeCode:
			t.Errorf("%s: expected regime %s, got %s", want.DocumentNumber, want.RegimeCode, row.Regime.Code)
		}
	}

	if result.Summary.OrphanKeys != scenario.OrphanWithholdings {
		t.Errorf("expected %d orphan keys, got %d", scenario.OrphanWithholdings, result.Summary.OrphanKeys)
	}
}

func TestBasicScenario(t *testing.T) {
	for _, format := range []reporter.TemplateFormat{reporter.TemplateCSV, reporter.TemplateXLSX} {
		t.Run(string(format), func(t *testing.T) {
			scenario := NewScenarioGenerator(1).Basic()
			checkExpectations(t, scenario, runScenario(t, scenario, format))
		})
	}
}

func TestRandomScenario(t *testing.T) {
	scenario := NewScenarioGenerator(42).Random(60)
	if len(scenario.Expected) != 60 {
		t.Fatalf("expected 60 invoices, got %d", len(scenario.Expected))
	}
	checkExpectations(t, scenario, runScenario(t, scenario, reporter.TemplateXLSX))
}

func TestRandomScenario_Deterministic(t *testing.T) {
	a := NewScenarioGenerator(7).Random(20)
	b := NewScenarioGenerator(7).Random(20)

	if len(a.Withholdings.Rows) != len(b.Withholdings.Rows) {
		t.Fatalf("same seed produced %d and %d withholding rows", len(a.Withholdings.Rows), len(b.Withholdings.Rows))
	}
	for i := range a.Expected {
		if a.Expected[i].DocumentNumber != b.Expected[i].DocumentNumber ||
			!a.Expected[i].FinalWithholding.Equal(b.Expected[i].FinalWithholding) {
			t.Fatalf("same seed produced different invoice %d: %+v vs %+v", i, a.Expected[i], b.Expected[i])
		}
	}
}

func TestGenerate(t *testing.T) {
	sg := NewScenarioGenerator(1)

	if s, err := sg.Generate(ScenarioBasic, 0); err != nil || s.Name != ScenarioBasic {
		t.Errorf("expected basic scenario, got %v, %v", s, err)
	}
	if s, err := sg.Generate(ScenarioRandom, 5); err != nil || len(s.Expected) != 5 {
		t.Errorf("expected 5 random invoices, got %v, %v", s, err)
	}

	for _, tt := range []struct {
		name  string
		count int
	}{
		{"random", 0},
		{"huge", 10},
	} {
		_, err := sg.Generate(tt.name, tt.count)
		if rerr, ok := errors.AsReconcilerError(err); !ok || rerr.Category != errors.CategoryConfiguration {
			t.Errorf("%s/%d: expected configuration error, got %v", tt.name, tt.count, err)
		}
	}
}

func TestScenarioWrite_Files(t *testing.T) {
	dir := t.TempDir()
	files, err := NewScenarioGenerator(1).Basic().Write(dir, reporter.TemplateCSV)
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}

	for _, path := range []string{files.Invoices, files.Withholdings, files.Template} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected %s to exist: %v", path, err)
		}
	}
}
