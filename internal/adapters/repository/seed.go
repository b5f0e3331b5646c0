package repository

import (
	"context"
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/wayfarer/internal/domain/place"
)

// seedFile is the layout of a catalog seed file:
//
//	places:
//	  - place_id: tehran-milad
//	    travel_style: FAMILY
//	    budget_level: MODERATE
//	    season: SPRING
//	    duration: 1
type seedFile struct {
	Places []place.Record `json:"places"`
}

// LoadSeed reads place records from a YAML seed file.
func LoadSeed(_ context.Context, path string) ([]place.Record, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSeed, path, err)
	}
	var sf seedFile
	if err := k.UnmarshalWithConf("", &sf, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrSeed, path, err)
	}
	return sf.Places, nil
}

// Seed stores every record in c and returns how many were written. It stops
// at the first invalid record.
func Seed(ctx context.Context, c Catalog, records []place.Record) (int, error) {
	for i, rec := range records {
		if err := c.Put(ctx, rec); err != nil {
			return i, fmt.Errorf("%w: record %d: %w", ErrSeed, i, err)
		}
	}
	return len(records), nil
}
