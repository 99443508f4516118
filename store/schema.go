package store

import "fmt"

// schemaSQL returns the DDL for all tables. fingerprintDim controls the
// vec0 virtual table dimension.
func schemaSQL(fingerprintDim int) string {
	return fmt.Sprintf(`
-- Compound registry keyed by canonical SMILES
CREATE TABLE IF NOT EXISTS compounds (
    id INTEGER PRIMARY KEY,
    smiles TEXT NOT NULL UNIQUE,
    molecular_weight REAL NOT NULL,
    descriptors JSON,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Folded structural fingerprints via sqlite-vec
CREATE VIRTUAL TABLE IF NOT EXISTS vec_compounds USING vec0(
    compound_id INTEGER PRIMARY KEY,
    fingerprint float[%d]
);

-- Prediction audit log: one row per engine call
CREATE TABLE IF NOT EXISTS predictions (
    id INTEGER PRIMARY KEY,
    compound_id INTEGER NOT NULL REFERENCES compounds(id) ON DELETE CASCADE,
    stress TEXT NOT NULL,
    operation TEXT NOT NULL,
    payload JSON NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Measured stress-study results, the evidence base for historical priors
CREATE TABLE IF NOT EXISTS observations (
    id INTEGER PRIMARY KEY,
    compound_id INTEGER NOT NULL REFERENCES compounds(id) ON DELETE CASCADE,
    stress TEXT NOT NULL,
    metric TEXT NOT NULL,
    mean REAL NOT NULL,
    std REAL NOT NULL,
    n INTEGER NOT NULL DEFAULT 3,
    source TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Indexes
CREATE INDEX IF NOT EXISTS idx_predictions_compound ON predictions(compound_id);
CREATE INDEX IF NOT EXISTS idx_predictions_stress ON predictions(stress);
CREATE INDEX IF NOT EXISTS idx_observations_compound ON observations(compound_id);
CREATE INDEX IF NOT EXISTS idx_observations_lookup ON observations(compound_id, stress, metric);
`, fingerprintDim)
}
