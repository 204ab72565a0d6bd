// Package bbolt implements the ports.Storage interface using bbolt (embedded B+ tree).
// Each dataset gets its own top-level bucket. Within that bucket, a "records"
// sub-bucket holds the binary record matrix plus gob metadata, and a "presets"
// sub-bucket holds one JSON value per preset name. Writes are transactional,
// so a crash mid-write cannot corrupt previously committed data.
package bbolt

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/corey/hscd/internal/ports"
	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"
)

// Bucket keys
var (
	bucketRecords = []byte("records")
	bucketPresets = []byte("presets")
	keyMatrix     = []byte("matrix")
	keyMeta       = []byte("meta")
)

// datasetMeta is everything in ports.Dataset except the records.
type datasetMeta struct {
	Features   []string
	Source     string
	ImportedAt int64
}

// ErrLocked is returned by NewStore when another process holds the
// database file lock past the open timeout.
var ErrLocked = errors.New("database locked")

// Store implements ports.Storage backed by bbolt.
type Store struct {
	db *bolt.DB
}

var _ ports.Storage = (*Store)(nil)

// NewStore opens (or creates) a bbolt database at the given path.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if errors.Is(err, berrors.ErrTimeout) {
		return nil, fmt.Errorf("bbolt open %s: %w (%v)", path, ErrLocked, err)
	}
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveDataset replaces the record set for a dataset. Presets are kept.
func (s *Store) SaveDataset(datasetID string, ds *ports.Dataset) error {
	if ds == nil {
		return fmt.Errorf("nil dataset")
	}

	matrix, err := encodeRecords(ds.Records)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	meta, err := encodeGob(datasetMeta{Features: ds.Features, Source: ds.Source, ImportedAt: ds.ImportedAt})
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists([]byte(datasetID))
		if err != nil {
			return err
		}
		rb, err := root.CreateBucketIfNotExists(bucketRecords)
		if err != nil {
			return err
		}
		if err := rb.Put(keyMatrix, matrix); err != nil {
			return err
		}
		return rb.Put(keyMeta, meta)
	})
}

// LoadDataset retrieves a dataset.
// Returns nil, nil if nothing has been imported yet.
func (s *Store) LoadDataset(datasetID string) (*ports.Dataset, error) {
	var matrix, meta []byte

	err := s.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(datasetID))
		if root == nil {
			return nil
		}
		rb := root.Bucket(bucketRecords)
		if rb == nil {
			return nil
		}
		// Copy bytes out of the transaction (bbolt slices are only valid within tx)
		if v := rb.Get(keyMatrix); v != nil {
			matrix = append([]byte(nil), v...)
		}
		if v := rb.Get(keyMeta); v != nil {
			meta = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if matrix == nil {
		return nil, nil
	}

	records, err := decodeRecords(matrix)
	if err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}

	ds := &ports.Dataset{Records: records}
	if meta != nil {
		var m datasetMeta
		if err := decodeGob(meta, &m); err != nil {
			return nil, fmt.Errorf("decode meta: %w", err)
		}
		ds.Features, ds.Source, ds.ImportedAt = m.Features, m.Source, m.ImportedAt
	}
	return ds, nil
}

// SavePreset stores a named query vector.
func (s *Store) SavePreset(datasetID string, p ports.Preset) error {
	if p.Name == "" {
		return fmt.Errorf("preset name is empty")
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal preset: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists([]byte(datasetID))
		if err != nil {
			return err
		}
		pb, err := root.CreateBucketIfNotExists(bucketPresets)
		if err != nil {
			return err
		}
		return pb.Put([]byte(p.Name), data)
	})
}

// ListPresets returns every preset sorted by name.
func (s *Store) ListPresets(datasetID string) ([]ports.Preset, error) {
	var raw [][]byte

	err := s.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(datasetID))
		if root == nil {
			return nil
		}
		pb := root.Bucket(bucketPresets)
		if pb == nil {
			return nil
		}
		return pb.ForEach(func(_, v []byte) error {
			raw = append(raw, append([]byte(nil), v...))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	presets := make([]ports.Preset, 0, len(raw))
	for _, v := range raw {
		var p ports.Preset
		if err := json.Unmarshal(v, &p); err != nil {
			return nil, fmt.Errorf("unmarshal preset: %w", err)
		}
		presets = append(presets, p)
	}
	sort.Slice(presets, func(i, j int) bool { return presets[i].Name < presets[j].Name })
	return presets, nil
}

// DeletePreset removes a preset. Idempotent.
func (s *Store) DeletePreset(datasetID, name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket([]byte(datasetID))
		if root == nil {
			return nil
		}
		pb := root.Bucket(bucketPresets)
		if pb == nil {
			return nil
		}
		return pb.Delete([]byte(name))
	})
}

// DeleteDataset removes all data (records + presets) for a dataset.
// Idempotent: deleting a nonexistent dataset is not an error.
func (s *Store) DeleteDataset(datasetID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(datasetID)); errors.Is(err, bolt.ErrBucketNotFound) {
			return nil // idempotent
		} else {
			return err
		}
	})
}
