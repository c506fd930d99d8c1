// Package xlsx reads boarding rows from a local Excel workbook.
package xlsx

import (
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/transit-ranking-etl/internal/adapter/tabular"
	"github.com/couchcryptid/transit-ranking-etl/internal/domain"
)

// Source implements pipeline.Source for .xlsx files. Credentials, when
// present, are used as the workbook password; a wrong password is an
// authentication failure.
type Source struct {
	Path string
}

// Fetch opens the workbook and returns the rows of rangeID. A range without a
// sheet name reads the first sheet.
func (s Source) Fetch(ctx context.Context, creds domain.Credentials, rangeID string) ([]domain.RawRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rng, err := tabular.ParseRange(rangeID)
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(s.Path, excelize.Options{Password: string(creds)})
	if errors.Is(err, excelize.ErrWorkbookPassword) {
		return nil, &domain.AuthenticationError{Err: fmt.Errorf("open workbook %s: %w", s.Path, err)}
	}
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", s.Path, err)
	}
	defer f.Close()

	sheet := rng.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	grid, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return tabular.Slice(grid, rng), nil
}
