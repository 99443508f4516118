// Package store persists compounds, fingerprints, predictions, and measured
// stress-study observations in SQLite, with sqlite-vec for nearest-neighbor
// search over structural fingerprints.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// Compound represents a row in the compounds table. SMILES is the canonical
// form; the caller canonicalizes before writing.
type Compound struct {
	ID              int64   `json:"id"`
	SMILES          string  `json:"smiles"`
	MolecularWeight float64 `json:"molecular_weight"`
	Descriptors     string  `json:"descriptors,omitempty"` // JSON
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

// Prediction represents a row in the predictions audit log.
type Prediction struct {
	ID         int64  `json:"id"`
	CompoundID int64  `json:"compound_id"`
	Stress     string `json:"stress"`
	Operation  string `json:"operation"`
	Payload    string `json:"payload"` // JSON
	CreatedAt  string `json:"created_at"`
}

// Observation represents one measured stress-study result: the mean and
// standard deviation of a metric over n replicates.
type Observation struct {
	ID         int64   `json:"id"`
	CompoundID int64   `json:"compound_id"`
	Stress     string  `json:"stress"`
	Metric     string  `json:"metric"`
	Mean       float64 `json:"mean"`
	Std        float64 `json:"std"`
	N          int     `json:"n"`
	Source     string  `json:"source,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

// PooledObservation aggregates every observation of one (compound, stress,
// metric) triple into a single Gaussian summary usable as a prior.
type PooledObservation struct {
	Mean    float64 `json:"mean"`
	Std     float64 `json:"std"`
	N       int     `json:"n"`
	Records int     `json:"records"`
}

// SimilarCompound is one nearest-neighbor hit from fingerprint search.
type SimilarCompound struct {
	ID              int64   `json:"id"`
	SMILES          string  `json:"smiles"`
	MolecularWeight float64 `json:"molecular_weight"`
	Score           float64 `json:"score"`
}

// Store wraps the SQLite database for all degkit persistence.
type Store struct {
	db             *sql.DB
	fingerprintDim int
}

// New opens (or creates) a SQLite database at the given path and initialises
// the schema including the sqlite-vec virtual table.
func New(dbPath string, fingerprintDim int) (*Store, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Create schema
	if _, err := db.Exec(schemaSQL(fingerprintDim)); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	// Connection pool settings for SQLite.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db, fingerprintDim: fingerprintDim}

	// Run pending migrations.
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// FingerprintDim returns the configured fingerprint vector dimension.
func (s *Store) FingerprintDim() int {
	return s.fingerprintDim
}

// --- Compound operations ---

// UpsertCompound inserts or updates a compound record and its fingerprint
// vector. Returns the compound ID.
func (s *Store) UpsertCompound(ctx context.Context, c Compound, fingerprint []float32) (int64, error) {
	// LastInsertId is stale when the conflict branch runs an UPDATE, so the
	// row ID is resolved by RETURNING on both branches.
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO compounds (smiles, molecular_weight, descriptors)
		VALUES (?, ?, ?)
		ON CONFLICT(smiles) DO UPDATE SET
			molecular_weight = excluded.molecular_weight,
			descriptors = excluded.descriptors,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`, c.SMILES, c.MolecularWeight, nullable(c.Descriptors)).Scan(&id)
	if err != nil {
		return 0, err
	}

	if len(fingerprint) > 0 {
		if _, err := s.db.ExecContext(ctx,
			"INSERT OR REPLACE INTO vec_compounds (compound_id, fingerprint) VALUES (?, ?)",
			id, serializeFloat32(fingerprint)); err != nil {
			return 0, fmt.Errorf("storing fingerprint: %w", err)
		}
	}
	return id, nil
}

// GetCompound retrieves a compound by canonical SMILES. Returns sql.ErrNoRows
// when absent.
func (s *Store) GetCompound(ctx context.Context, smiles string) (*Compound, error) {
	c := &Compound{}
	var descriptors sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, smiles, molecular_weight, descriptors, created_at, updated_at
		FROM compounds WHERE smiles = ?
	`, smiles).Scan(&c.ID, &c.SMILES, &c.MolecularWeight, &descriptors, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Descriptors = descriptors.String
	return c, nil
}

// GetCompoundByID retrieves a compound by ID.
func (s *Store) GetCompoundByID(ctx context.Context, id int64) (*Compound, error) {
	c := &Compound{}
	var descriptors sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, smiles, molecular_weight, descriptors, created_at, updated_at
		FROM compounds WHERE id = ?
	`, id).Scan(&c.ID, &c.SMILES, &c.MolecularWeight, &descriptors, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Descriptors = descriptors.String
	return c, nil
}

// SimilarCompounds performs a KNN search over stored fingerprints, returning
// the top-k nearest compounds with a similarity score (1 - distance).
func (s *Store) SimilarCompounds(ctx context.Context, fingerprint []float32, k int) ([]SimilarCompound, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.compound_id, v.distance, c.smiles, c.molecular_weight
		FROM vec_compounds v
		JOIN compounds c ON c.id = v.compound_id
		WHERE v.fingerprint MATCH ? AND k = ?
		ORDER BY v.distance
	`, serializeFloat32(fingerprint), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SimilarCompound
	for rows.Next() {
		var r SimilarCompound
		var distance float64
		if err := rows.Scan(&r.ID, &distance, &r.SMILES, &r.MolecularWeight); err != nil {
			return nil, err
		}
		r.Score = 1.0 - distance
		results = append(results, r)
	}
	return results, rows.Err()
}

// --- Prediction operations ---

// LogPrediction appends one entry to the prediction audit log.
func (s *Store) LogPrediction(ctx context.Context, p Prediction) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO predictions (compound_id, stress, operation, payload)
		VALUES (?, ?, ?, ?)
	`, p.CompoundID, p.Stress, p.Operation, p.Payload)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListPredictions returns the most recent predictions for a compound.
func (s *Store) ListPredictions(ctx context.Context, compoundID int64, limit int) ([]Prediction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, compound_id, stress, operation, payload, created_at
		FROM predictions WHERE compound_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ?
	`, compoundID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var preds []Prediction
	for rows.Next() {
		var p Prediction
		if err := rows.Scan(&p.ID, &p.CompoundID, &p.Stress, &p.Operation, &p.Payload, &p.CreatedAt); err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, rows.Err()
}

// --- Observation operations ---

// InsertObservations stores a batch of measured results in one transaction.
func (s *Store) InsertObservations(ctx context.Context, obs []Observation) (int, error) {
	if len(obs) == 0 {
		return 0, nil
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO observations (compound_id, stress, metric, mean, std, n, source)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, o := range obs {
			n := o.N
			if n < 1 {
				n = 3
			}
			if _, err := stmt.ExecContext(ctx, o.CompoundID, o.Stress, o.Metric,
				o.Mean, o.Std, n, nullable(o.Source)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(obs), nil
}

// ListObservations returns every observation for a compound, newest first.
func (s *Store) ListObservations(ctx context.Context, compoundID int64) ([]Observation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, compound_id, stress, metric, mean, std, n, source, created_at
		FROM observations WHERE compound_id = ?
		ORDER BY created_at DESC, id DESC
	`, compoundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var obs []Observation
	for rows.Next() {
		var o Observation
		var source sql.NullString
		if err := rows.Scan(&o.ID, &o.CompoundID, &o.Stress, &o.Metric,
			&o.Mean, &o.Std, &o.N, &source, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Source = source.String
		obs = append(obs, o)
	}
	return obs, rows.Err()
}

// ObservationPrior pools every observation of one (compound, stress, metric)
// triple into a single Gaussian summary: replicate-weighted mean, with the
// pooled variance from the law of total variance. Returns sql.ErrNoRows when
// no observations exist.
func (s *Store) ObservationPrior(ctx context.Context, compoundID int64, stress, metric string) (*PooledObservation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT mean, std, n FROM observations
		WHERE compound_id = ? AND stress = ? AND metric = ?
	`, compoundID, stress, metric)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		totalN  int
		sumMean float64
		sumSq   float64
		records int
	)
	for rows.Next() {
		var mean, std float64
		var n int
		if err := rows.Scan(&mean, &std, &n); err != nil {
			return nil, err
		}
		if n < 1 {
			n = 1
		}
		totalN += n
		sumMean += float64(n) * mean
		sumSq += float64(n) * (std*std + mean*mean)
		records++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if records == 0 {
		return nil, sql.ErrNoRows
	}

	pooledMean := sumMean / float64(totalN)
	variance := sumSq/float64(totalN) - pooledMean*pooledMean
	if variance < 0 {
		variance = 0
	}
	return &PooledObservation{
		Mean:    pooledMean,
		Std:     math.Sqrt(variance),
		N:       totalN,
		Records: records,
	}, nil
}

// DBStats holds counts of key database objects.
type DBStats struct {
	Compounds    int `json:"compounds"`
	Fingerprints int `json:"fingerprints"`
	Predictions  int `json:"predictions"`
	Observations int `json:"observations"`
}

// DBStats returns counts of compounds, fingerprints, predictions, and
// observations.
func (s *Store) DBStats(ctx context.Context) (*DBStats, error) {
	stats := &DBStats{}
	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM compounds", &stats.Compounds},
		{"SELECT COUNT(*) FROM vec_compounds", &stats.Fingerprints},
		{"SELECT COUNT(*) FROM predictions", &stats.Predictions},
		{"SELECT COUNT(*) FROM observations", &stats.Observations},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("counting %s: %w", q.query, err)
		}
	}
	return stats, nil
}

// --- helpers ---

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// serializeFloat32 converts a float32 slice to little-endian bytes for sqlite-vec.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
