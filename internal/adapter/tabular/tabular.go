// Package tabular resolves A1-notation ranges against in-memory grids so the
// file sources return the same rows the Sheets API would.
package tabular

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/transit-ranking-etl/internal/domain"
)

// Range is a parsed A1 range. Coordinates are 1-based and inclusive; a zero
// To bound means unbounded.
type Range struct {
	Sheet   string
	FromCol int
	FromRow int
	ToCol   int
	ToRow   int
}

// ParseRange accepts "Sheet!A1:B1000", "'My Sheet'!A1:B1000", "A1:B1000", or a
// bare sheet name, which selects the whole sheet.
func ParseRange(rangeID string) (Range, error) {
	rangeID = strings.TrimSpace(rangeID)
	if rangeID == "" {
		return Range{}, fmt.Errorf("empty range")
	}

	sheet, cells, hasSheet := strings.Cut(rangeID, "!")
	if !hasSheet {
		if r, err := parseCells(rangeID); err == nil {
			return r, nil
		}
		return Range{Sheet: unquote(rangeID), FromCol: 1, FromRow: 1}, nil
	}

	r, err := parseCells(cells)
	if err != nil {
		return Range{}, fmt.Errorf("parse range %q: %w", rangeID, err)
	}
	r.Sheet = unquote(sheet)
	return r, nil
}

func parseCells(cells string) (Range, error) {
	from, to, ok := strings.Cut(cells, ":")
	if !ok {
		to = from
	}
	fromCol, fromRow, err := excelize.CellNameToCoordinates(strings.TrimSpace(from))
	if err != nil {
		return Range{}, err
	}
	toCol, toRow, err := excelize.CellNameToCoordinates(strings.TrimSpace(to))
	if err != nil {
		return Range{}, err
	}
	if toCol < fromCol || toRow < fromRow {
		return Range{}, fmt.Errorf("range %s ends before it starts", cells)
	}
	return Range{FromCol: fromCol, FromRow: fromRow, ToCol: toCol, ToRow: toRow}, nil
}

func unquote(sheet string) string {
	sheet = strings.TrimSpace(sheet)
	if len(sheet) >= 2 && sheet[0] == '\'' && sheet[len(sheet)-1] == '\'' {
		return strings.ReplaceAll(sheet[1:len(sheet)-1], "''", "'")
	}
	return sheet
}

// Slice cuts the range out of grid, numbering rows from 1 at the top of the
// range. Like the Sheets API it drops trailing empty cells and trailing empty
// rows; empty rows in the middle are kept.
func Slice(grid [][]string, r Range) []domain.RawRow {
	fromRow := max(r.FromRow, 1) - 1
	fromCol := max(r.FromCol, 1) - 1

	toRow := len(grid)
	if r.ToRow > 0 && r.ToRow < toRow {
		toRow = r.ToRow
	}

	var out []domain.RawRow
	for i := fromRow; i < toRow; i++ {
		row := grid[i]
		toCol := len(row)
		if r.ToCol > 0 && r.ToCol < toCol {
			toCol = r.ToCol
		}

		var fields []string
		if fromCol < toCol {
			fields = trimTrailingEmpty(row[fromCol:toCol])
		}
		out = append(out, domain.RawRow{Line: i - fromRow + 1, Fields: fields})
	}

	for len(out) > 0 && len(out[len(out)-1].Fields) == 0 {
		out = out[:len(out)-1]
	}
	return out
}

func trimTrailingEmpty(cells []string) []string {
	n := len(cells)
	for n > 0 && strings.TrimSpace(cells[n-1]) == "" {
		n--
	}
	if n == 0 {
		return nil
	}
	out := make([]string, n)
	copy(out, cells[:n])
	return out
}
