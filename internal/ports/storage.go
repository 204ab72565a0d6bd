// Package ports defines the interfaces (contracts) that adapters must implement.
// These are the boundaries of the hexagonal architecture. Domain logic depends
// only on these interfaces, never on concrete implementations.
package ports

import "github.com/corey/hscd/internal/domain/search"

// Storage persists datasets and presets to durable storage.
// The backing store (bbolt) is dataset-scoped: each datasetID gets its own
// namespace. Concurrent reads are safe; writes are serialized by the adapter.
//
// Crash safety: SaveDataset must be transactional. A crash mid-write must not
// corrupt the previously committed dataset.
type Storage interface {
	// SaveDataset replaces the full record set for a dataset.
	SaveDataset(datasetID string, ds *Dataset) error

	// LoadDataset retrieves a dataset.
	// Returns nil, nil if nothing has been imported yet.
	LoadDataset(datasetID string) (*Dataset, error)

	// SavePreset stores a named query vector, replacing one with the same name.
	SavePreset(datasetID string, p Preset) error

	// ListPresets returns presets sorted by name.
	ListPresets(datasetID string) ([]Preset, error)

	// DeletePreset removes a preset. Idempotent.
	DeletePreset(datasetID, name string) error

	// DeleteDataset removes records and presets for a dataset.
	// Idempotent: deleting a nonexistent dataset is not an error.
	DeleteDataset(datasetID string) error
}

// RecordStore is the read side the query executor works against.
type RecordStore interface {
	// ListFeatures returns the feature names every record may be rated on,
	// sorted.
	ListFeatures() ([]string, error)

	// Records returns an immutable snapshot of every record.
	Records() ([]search.Record, error)
}

// Dataset is one imported record set.
type Dataset struct {
	Features   []string        `json:"features"`
	Records    []search.Record `json:"records"`
	Source     string          `json:"source"`
	ImportedAt int64           `json:"imported_at"`
}

// Preset is a saved query vector.
type Preset struct {
	Name      string             `json:"name"`
	Features  search.QueryVector `json:"features"`
	CreatedAt int64              `json:"created_at"`
}
