package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/corey/hscd/internal/adapters/sqlite"
	"github.com/corey/hscd/internal/domain/search"
	"github.com/corey/hscd/internal/ports"
	"gopkg.in/yaml.v3"
)

// LoadDatasetFile imports a dataset from path. The format follows the
// extension: .json and .yaml/.yml hold either a bare list of records or an
// object with "features" and "records"; .sqlite/.db is a review database.
func LoadDatasetFile(ctx context.Context, path string, logger *slog.Logger) (*ports.Dataset, error) {
	var (
		ds  *ports.Dataset
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		ds, err = decodeDatasetFile(path, decodeJSON)
	case ".yaml", ".yml":
		ds, err = decodeDatasetFile(path, yaml.Unmarshal)
	case ".sqlite", ".db":
		ds, err = sqlite.NewImporter(logger).Import(ctx, path)
	default:
		return nil, fmt.Errorf("dataset %s: unsupported format: %w", path, search.ErrInvalidArgument)
	}
	if err != nil {
		return nil, err
	}
	if err := finishDataset(ds, path); err != nil {
		return nil, err
	}
	return ds, nil
}

func decodeJSON(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// decodeDatasetFile reads path and accepts either document shape.
func decodeDatasetFile(path string, unmarshal func([]byte, any) error) (*ports.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	var records []search.Record
	if err := unmarshal(data, &records); err == nil {
		return &ports.Dataset{Records: records}, nil
	}

	var ds ports.Dataset
	if err := unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("decode dataset %s: %v: %w", path, err, search.ErrInvalidArgument)
	}
	return &ds, nil
}

// finishDataset derives missing features and ids and stamps the source.
func finishDataset(ds *ports.Dataset, path string) error {
	if len(ds.Records) == 0 {
		return fmt.Errorf("dataset %s: no records: %w", path, search.ErrEmptyInput)
	}

	if len(ds.Features) == 0 {
		seen := make(map[string]bool)
		for _, r := range ds.Records {
			for f := range r.Rating {
				if !seen[f] {
					seen[f] = true
					ds.Features = append(ds.Features, f)
				}
			}
		}
	}
	if len(ds.Features) == 0 {
		return fmt.Errorf("dataset %s: no rated features: %w", path, search.ErrInvalidArgument)
	}
	sort.Strings(ds.Features)

	for i := range ds.Records {
		if ds.Records[i].ID == 0 {
			ds.Records[i].ID = i + 1
		}
		if ds.Records[i].Rating == nil {
			ds.Records[i].Rating = map[string]float64{}
		}
	}

	if ds.Source == "" {
		ds.Source = path
	}
	if ds.ImportedAt == 0 {
		ds.ImportedAt = time.Now().Unix()
	}
	return nil
}
