package store

import (
	"errors"
	"testing"
	"time"
)

func testRecord(id string) *RunRecord {
	return &RunRecord{
		ID: id,
		Settings: RunSettings{
			Objective:     "sphere",
			Dim:           2,
			Strategy:      "best1bin",
			Init:          "latinhypercube",
			Dither:        []float64{0.5, 1},
			Recombination: 0.7,
			Tol:           0.01,
			MaxIter:       1000,
			PopSize:       30,
			Seed:          42,
			Lower:         []float64{-5, -5},
			Upper:         []float64{5, 5},
		},
		BestParams:  []float64{0.001, -0.002},
		BestCost:    5e-6,
		NumEvals:    4530,
		Generations: 150,
		Message:     "convergence tolerance reached",
		Success:     true,
		StartedAt:   time.Now().Add(-time.Second),
		FinishedAt:  time.Now(),
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fs, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	record := testRecord(NewRunID())
	if err := fs.SaveRun(record); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	loaded, err := fs.LoadRun(record.ID)
	if err != nil {
		t.Fatalf("LoadRun failed: %v", err)
	}
	if loaded.ID != record.ID ||
		loaded.BestCost != record.BestCost ||
		loaded.Generations != record.Generations ||
		loaded.Success != record.Success {
		t.Errorf("loaded record differs: %+v vs %+v", loaded, record)
	}
	if len(loaded.BestParams) != len(record.BestParams) {
		t.Errorf("best params length %d, want %d", len(loaded.BestParams), len(record.BestParams))
	}
}

func TestSaveRunValidation(t *testing.T) {
	fs, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	if err := fs.SaveRun(nil); err == nil {
		t.Error("expected error for nil record")
	}
	if err := fs.SaveRun(&RunRecord{}); err == nil {
		t.Error("expected error for empty ID")
	}
}

func TestLoadMissingRun(t *testing.T) {
	fs, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	_, err = fs.LoadRun("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestListRuns(t *testing.T) {
	fs, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	infos, err := fs.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns on empty store failed: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("empty store listed %d runs", len(infos))
	}

	ids := []string{NewRunID(), NewRunID(), NewRunID()}
	for _, id := range ids {
		if err := fs.SaveRun(testRecord(id)); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
	}

	infos, err = fs.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != len(ids) {
		t.Fatalf("listed %d runs, want %d", len(infos), len(ids))
	}
	for _, info := range infos {
		if info.Objective != "sphere" || info.Strategy != "best1bin" {
			t.Errorf("unexpected info: %+v", info)
		}
	}
}

func TestDeleteRun(t *testing.T) {
	fs, err := NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}

	record := testRecord(NewRunID())
	if err := fs.SaveRun(record); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	if err := fs.DeleteRun(record.ID); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}
	if _, err := fs.LoadRun(record.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("run still loadable after delete: %v", err)
	}
	if err := fs.DeleteRun(record.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestRunRecordToInfo(t *testing.T) {
	record := testRecord("abc")
	info := record.ToInfo()
	if info.ID != "abc" || info.Objective != "sphere" || !info.Success {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.BestCost != record.BestCost {
		t.Errorf("best cost %v, want %v", info.BestCost, record.BestCost)
	}
}

func TestNewRunIDUnique(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	if a == b || a == "" {
		t.Errorf("IDs not unique: %q, %q", a, b)
	}
}
