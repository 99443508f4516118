//go:build cgo

package store

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := New(dbPath, 4) // dim=4 for test vectors
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ---------------------------------------------------------------------------
// Schema / construction
// ---------------------------------------------------------------------------

func TestNew(t *testing.T) {
	s := newTestStore(t)
	if s.FingerprintDim() != 4 {
		t.Fatalf("expected fingerprint dim 4, got %d", s.FingerprintDim())
	}
	if s.DB() == nil {
		t.Fatal("expected non-nil *sql.DB")
	}
}

func TestNewCreatesParentDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sub", "dir")
	dbPath := filepath.Join(dir, "test.db")
	s, err := New(dbPath, 4)
	if err != nil {
		t.Fatalf("creating store in nested dir: %v", err)
	}
	s.Close()
}

// ---------------------------------------------------------------------------
// Compound CRUD
// ---------------------------------------------------------------------------

func sampleCompound(smiles string) Compound {
	return Compound{
		SMILES:          smiles,
		MolecularWeight: 180.159,
		Descriptors:     `{"num_rings":1}`,
	}
}

func TestUpsertAndGetCompound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := sampleCompound("CC(=O)Oc1ccccc1C(=O)O")
	id, err := s.UpsertCompound(ctx, c, []float32{1, 0, 0, 0})
	if err != nil {
		t.Fatalf("upserting compound: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero compound id")
	}

	got, err := s.GetCompound(ctx, c.SMILES)
	if err != nil {
		t.Fatalf("getting compound: %v", err)
	}
	if got.ID != id {
		t.Errorf("expected id %d, got %d", id, got.ID)
	}
	if got.MolecularWeight != c.MolecularWeight {
		t.Errorf("expected weight %v, got %v", c.MolecularWeight, got.MolecularWeight)
	}
	if got.Descriptors != c.Descriptors {
		t.Errorf("expected descriptors %q, got %q", c.Descriptors, got.Descriptors)
	}

	byID, err := s.GetCompoundByID(ctx, id)
	if err != nil {
		t.Fatalf("getting compound by id: %v", err)
	}
	if byID.SMILES != c.SMILES {
		t.Errorf("expected smiles %q, got %q", c.SMILES, byID.SMILES)
	}
}

func TestUpsertCompoundIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := sampleCompound("c1ccccc1")
	id1, err := s.UpsertCompound(ctx, c, []float32{0, 1, 0, 0})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	c.MolecularWeight = 78.114
	id2, err := s.UpsertCompound(ctx, c, []float32{0, 1, 0, 0})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected same id on re-upsert, got %d and %d", id1, id2)
	}

	got, err := s.GetCompound(ctx, c.SMILES)
	if err != nil {
		t.Fatalf("getting compound: %v", err)
	}
	if got.MolecularWeight != 78.114 {
		t.Errorf("expected updated weight, got %v", got.MolecularWeight)
	}
}

func TestUpsertCompoundAfterOtherInsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Re-upserting a compound after inserting another must still return the
	// original row's ID, not the connection's last inserted rowid.
	idA, err := s.UpsertCompound(ctx, sampleCompound("CCO"), nil)
	if err != nil {
		t.Fatalf("upserting A: %v", err)
	}
	idB, err := s.UpsertCompound(ctx, sampleCompound("CSC"), nil)
	if err != nil {
		t.Fatalf("upserting B: %v", err)
	}
	if idA == idB {
		t.Fatalf("distinct compounds share id %d", idA)
	}

	again, err := s.UpsertCompound(ctx, sampleCompound("CCO"), nil)
	if err != nil {
		t.Fatalf("re-upserting A: %v", err)
	}
	if again != idA {
		t.Fatalf("re-upsert of A returned %d, want original id %d", again, idA)
	}
}

func TestGetCompoundMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetCompound(context.Background(), "CCO")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Fingerprint KNN
// ---------------------------------------------------------------------------

func TestSimilarCompounds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seeds := []struct {
		smiles string
		vec    []float32
	}{
		{"c1ccccc1", []float32{1, 0, 0, 0}},
		{"CCO", []float32{0, 1, 0, 0}},
		{"CC(=O)O", []float32{0.9, 0.1, 0, 0}},
	}
	for _, seed := range seeds {
		if _, err := s.UpsertCompound(ctx, sampleCompound(seed.smiles), seed.vec); err != nil {
			t.Fatalf("seeding %s: %v", seed.smiles, err)
		}
	}

	results, err := s.SimilarCompounds(ctx, []float32{1, 0, 0, 0}, 2)
	if err != nil {
		t.Fatalf("similarity search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].SMILES != "c1ccccc1" {
		t.Errorf("expected exact match first, got %q", results[0].SMILES)
	}
	if results[0].Score < results[1].Score {
		t.Errorf("expected descending scores, got %v then %v", results[0].Score, results[1].Score)
	}
}

// ---------------------------------------------------------------------------
// Predictions
// ---------------------------------------------------------------------------

func TestLogAndListPredictions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.UpsertCompound(ctx, sampleCompound("CCO"), nil)
	if err != nil {
		t.Fatalf("seeding compound: %v", err)
	}

	for _, op := range []string{"predict_products", "predict_mb"} {
		if _, err := s.LogPrediction(ctx, Prediction{
			CompoundID: id,
			Stress:     "base",
			Operation:  op,
			Payload:    `{"ok":true}`,
		}); err != nil {
			t.Fatalf("logging %s: %v", op, err)
		}
	}

	preds, err := s.ListPredictions(ctx, id, 10)
	if err != nil {
		t.Fatalf("listing predictions: %v", err)
	}
	if len(preds) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(preds))
	}
	if preds[0].Operation != "predict_mb" {
		t.Errorf("expected newest first, got %q", preds[0].Operation)
	}
}

// ---------------------------------------------------------------------------
// Observations and pooling
// ---------------------------------------------------------------------------

func TestObservationPrior(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.UpsertCompound(ctx, sampleCompound("CCO"), nil)
	if err != nil {
		t.Fatalf("seeding compound: %v", err)
	}

	obs := []Observation{
		{CompoundID: id, Stress: "acid", Metric: "assay", Mean: 95, Std: 1, N: 3},
		{CompoundID: id, Stress: "acid", Metric: "assay", Mean: 93, Std: 2, N: 3},
		{CompoundID: id, Stress: "base", Metric: "assay", Mean: 80, Std: 1, N: 3},
	}
	inserted, err := s.InsertObservations(ctx, obs)
	if err != nil {
		t.Fatalf("inserting observations: %v", err)
	}
	if inserted != 3 {
		t.Fatalf("expected 3 inserted, got %d", inserted)
	}

	pooled, err := s.ObservationPrior(ctx, id, "acid", "assay")
	if err != nil {
		t.Fatalf("pooling observations: %v", err)
	}
	if pooled.Records != 2 {
		t.Errorf("expected 2 records pooled, got %d", pooled.Records)
	}
	if pooled.N != 6 {
		t.Errorf("expected total n 6, got %d", pooled.N)
	}
	if pooled.Mean != 94 {
		t.Errorf("expected pooled mean 94, got %v", pooled.Mean)
	}
	// Pooled variance = E[std^2 + mean^2] - mean^2 = (1+9025+4+8649)/2 - 8836 = 3.5
	want := math.Sqrt(3.5)
	if math.Abs(pooled.Std-want) > 1e-9 {
		t.Errorf("expected pooled std %v, got %v", want, pooled.Std)
	}
}

func TestObservationPriorMissing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.UpsertCompound(ctx, sampleCompound("CCO"), nil)
	if err != nil {
		t.Fatalf("seeding compound: %v", err)
	}

	_, err = s.ObservationPrior(ctx, id, "thermal", "assay")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestInsertObservationsDefaultsReplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.UpsertCompound(ctx, sampleCompound("CCO"), nil)
	if err != nil {
		t.Fatalf("seeding compound: %v", err)
	}
	if _, err := s.InsertObservations(ctx, []Observation{
		{CompoundID: id, Stress: "acid", Metric: "assay", Mean: 90, Std: 1},
	}); err != nil {
		t.Fatalf("inserting observation: %v", err)
	}

	obs, err := s.ListObservations(ctx, id)
	if err != nil {
		t.Fatalf("listing observations: %v", err)
	}
	if len(obs) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(obs))
	}
	if obs[0].N != 3 {
		t.Errorf("expected default n=3, got %d", obs[0].N)
	}
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

func TestDBStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.UpsertCompound(ctx, sampleCompound("CCO"), []float32{0, 0, 1, 0})
	if err != nil {
		t.Fatalf("seeding compound: %v", err)
	}
	if _, err := s.LogPrediction(ctx, Prediction{CompoundID: id, Stress: "acid", Operation: "predict_products", Payload: "{}"}); err != nil {
		t.Fatalf("logging prediction: %v", err)
	}
	if _, err := s.InsertObservations(ctx, []Observation{
		{CompoundID: id, Stress: "acid", Metric: "assay", Mean: 90, Std: 1, N: 3},
	}); err != nil {
		t.Fatalf("inserting observation: %v", err)
	}

	stats, err := s.DBStats(ctx)
	if err != nil {
		t.Fatalf("reading stats: %v", err)
	}
	if stats.Compounds != 1 || stats.Fingerprints != 1 || stats.Predictions != 1 || stats.Observations != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
