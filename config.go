package degkit

import (
	"os"
	"path/filepath"

	"github.com/degkit/degkit/gnn"
)

// Config holds all configuration for the degkit engine.
type Config struct {
	// DBPath is the full path to the SQLite database file.
	// If empty, defaults to ~/.degkit/<DBName>.db
	DBPath string `json:"db_path" yaml:"db_path"`

	// DBName is the name for the database (used when DBPath is empty).
	// Defaults to "degkit". The file will be <DBName>.db inside the
	// storage directory (~/.degkit/ or working dir).
	DBName string `json:"db_name" yaml:"db_name"`

	// StorageDir controls where the database is created when DBPath
	// is not explicitly set. Options: "home" (default) uses ~/.degkit/,
	// "local" uses the current working directory.
	StorageDir string `json:"storage_dir" yaml:"storage_dir"`

	// DisableStore runs the engine purely in memory: no compound registry,
	// no prediction log, and persistence-backed operations return
	// ErrStoreDisabled.
	DisableStore bool `json:"disable_store" yaml:"disable_store"`

	// FingerprintDim is the folded fingerprint vector dimension used for
	// nearest-neighbor search. Must stay constant for the life of a database.
	FingerprintDim int `json:"fingerprint_dim" yaml:"fingerprint_dim"`

	// MaxEmbeddings caps pattern embeddings enumerated per rule application.
	MaxEmbeddings int `json:"max_embeddings" yaml:"max_embeddings"`

	// MaxProducts is the default candidate-list cap for product prediction.
	MaxProducts int `json:"max_products" yaml:"max_products"`

	// GNN configures the optional external scoring service. Leave BaseURL
	// empty to run on rule-based confidence alone.
	GNN gnn.Config `json:"gnn" yaml:"gnn"`
}

// DefaultConfig returns a Config with sensible defaults.
// Database is stored in ~/.degkit/degkit.db by default.
func DefaultConfig() Config {
	return Config{
		DBName:         "degkit",
		StorageDir:     "home",
		FingerprintDim: 256,
		MaxEmbeddings:  128,
		MaxProducts:    5,
	}
}

// resolveDBPath computes the final database path from config fields.
func (c *Config) resolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}

	name := c.DBName
	if name == "" {
		name = "degkit"
	}

	switch c.StorageDir {
	case "local", "cwd":
		return name + ".db"
	default: // "home" or empty
		home, err := os.UserHomeDir()
		if err != nil {
			return name + ".db" // fallback to cwd
		}
		dir := filepath.Join(home, ".degkit")
		return filepath.Join(dir, name+".db")
	}
}
