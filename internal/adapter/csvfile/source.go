// Package csvfile reads boarding rows from a local CSV export.
package csvfile

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/couchcryptid/transit-ranking-etl/internal/adapter/tabular"
	"github.com/couchcryptid/transit-ranking-etl/internal/domain"
)

// Source implements pipeline.Source for CSV files. The sheet part of a range
// is ignored; credentials are not used.
type Source struct {
	Path      string
	Delimiter rune
}

// Fetch loads the file as untyped strings and returns the rows of rangeID.
// Records may have differing field counts; short rows are padded and left for
// the normalizer to reject.
func (s Source) Fetch(ctx context.Context, _ domain.Credentials, rangeID string) ([]domain.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rng, err := tabular.ParseRange(rangeID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", s.Path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	grid, err := s.load(data)
	if err != nil {
		return nil, err
	}
	return tabular.Slice(grid, rng), nil
}

func (s Source) load(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = s.Delimiter
	if r.Comma == 0 {
		r.Comma = ','
	}
	r.FieldsPerRecord = -1

	raw, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv %s: %w", s.Path, err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	width := 0
	for _, rec := range raw {
		width = max(width, len(rec))
	}
	for i, rec := range raw {
		if len(rec) < width {
			raw[i] = append(rec, make([]string, width-len(rec))...)
		}
	}

	df := dataframe.LoadRecords(raw,
		dataframe.HasHeader(false),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("load csv %s: %w", s.Path, df.Err)
	}

	// Records starts with the generated column names.
	records := df.Records()
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil
}
