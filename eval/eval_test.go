package eval

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	degkit "github.com/degkit/degkit"
	"github.com/degkit/degkit/chem"
)

func newTestEngine(t *testing.T) degkit.Engine {
	t.Helper()
	engine, err := degkit.New(degkit.Config{DisableStore: true})
	if err != nil {
		t.Fatalf("degkit.New: %v", err)
	}
	t.Cleanup(func() { engine.Close() })
	return engine
}

func TestDatasetsWellFormed(t *testing.T) {
	datasets := AllDatasets()
	if len(datasets) == 0 {
		t.Fatal("no datasets")
	}
	for _, ds := range datasets {
		if ds.Name == "" || len(ds.Tests) == 0 {
			t.Errorf("dataset %+v missing name or cases", ds)
		}
		for _, tc := range ds.Tests {
			if tc.Name == "" || tc.Explanation == "" {
				t.Errorf("dataset %s: case %+v missing name or explanation", ds.Name, tc)
			}
			if _, err := chem.ParseSMILES(tc.SMILES); err != nil {
				t.Errorf("dataset %s, case %s: bad SMILES: %v", ds.Name, tc.Name, err)
			}
			if tc.ExpectedProduct != "" {
				if _, err := chem.ParseSMILES(tc.ExpectedProduct); err != nil {
					t.Errorf("dataset %s, case %s: bad expected product: %v", ds.Name, tc.Name, err)
				}
			}
		}
	}
}

func TestEvaluatorAllDatasetsPass(t *testing.T) {
	ev := New(newTestEngine(t))
	for _, ds := range AllDatasets() {
		report, err := ev.Run(context.Background(), ds)
		if err != nil {
			t.Fatalf("dataset %s: %v", ds.Name, err)
		}
		if report.Total != len(ds.Tests) {
			t.Errorf("dataset %s: Total = %d, want %d", ds.Name, report.Total, len(ds.Tests))
		}
		for _, c := range report.Cases {
			if !c.Passed {
				t.Errorf("dataset %s, case %s failed: %v", ds.Name, c.Name, c.Issues)
			}
		}
	}
}

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "observations.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func TestLoadObservationsXLSX(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"SMILES", "Stress", "Metric", "Mean", "Std", "N", "Source"},
		{"CC(=O)Oc1ccccc1C(=O)O", "Base", "degradation_percent", 12.5, 1.2, 3, "study-7"},
		{"", "", "", "", "", "", ""},
		{"CCO", "oxidative", "assay", 98.4, 0.4, "", ""},
	})

	obs, err := LoadObservationsXLSX(path)
	if err != nil {
		t.Fatalf("LoadObservationsXLSX: %v", err)
	}
	if len(obs) != 2 {
		t.Fatalf("len(obs) = %d, want 2 (blank row skipped)", len(obs))
	}

	first := obs[0]
	if first.SMILES != "CC(=O)Oc1ccccc1C(=O)O" {
		t.Errorf("SMILES = %q", first.SMILES)
	}
	if first.Stress != "base" || first.Metric != "degradation_percent" {
		t.Errorf("stress/metric = %q/%q, want lowercased base/degradation_percent", first.Stress, first.Metric)
	}
	if first.Mean != 12.5 || first.Std != 1.2 || first.N != 3 || first.Source != "study-7" {
		t.Errorf("row values = %+v", first)
	}

	second := obs[1]
	if second.Mean != 98.4 || second.N != 0 || second.Source != "" {
		t.Errorf("optional fields = %+v, want zero values when blank", second)
	}
}

func TestLoadObservationsXLSXErrors(t *testing.T) {
	t.Run("missing required column", func(t *testing.T) {
		path := writeWorkbook(t, [][]interface{}{
			{"smiles", "stress", "mean"},
			{"CCO", "acid", 1.0},
		})
		if _, err := LoadObservationsXLSX(path); err == nil {
			t.Error("missing metric column accepted")
		}
	})

	t.Run("no data rows", func(t *testing.T) {
		path := writeWorkbook(t, [][]interface{}{
			{"smiles", "stress", "metric", "mean"},
		})
		if _, err := LoadObservationsXLSX(path); err == nil {
			t.Error("header-only workbook accepted")
		}
	})

	t.Run("bad mean", func(t *testing.T) {
		path := writeWorkbook(t, [][]interface{}{
			{"smiles", "stress", "metric", "mean"},
			{"CCO", "acid", "assay", "not-a-number"},
		})
		if _, err := LoadObservationsXLSX(path); err == nil {
			t.Error("unparseable mean accepted")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadObservationsXLSX(filepath.Join(t.TempDir(), "nope.xlsx")); err == nil {
			t.Error("missing file accepted")
		}
	})
}
