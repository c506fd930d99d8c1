package xlsx

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/transit-ranking-etl/internal/domain"
)

func writeWorkbook(t *testing.T, sheet string, rows [][]any, opts ...excelize.Options) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", sheet))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "trips.xlsx")
	require.NoError(t, f.SaveAs(path, opts...))
	return path
}

var boardingRows = [][]any{
	{"Timestamp", "Destination"},
	{"11/1/2024 23:10:00", "Ruiru (100KSH)"},
	{"11/1/2024 23:40:00", "Thika (250KSH)"},
	{"11/1/2024 0:05:00"},
}

func TestSource_Fetch(t *testing.T) {
	path := writeWorkbook(t, "PRIORITY", boardingRows)

	rows, err := Source{Path: path}.Fetch(context.Background(), nil, "PRIORITY!A1:B1000")
	require.NoError(t, err)

	require.Len(t, rows, 4)
	assert.Equal(t, domain.RawRow{Line: 1, Fields: []string{"Timestamp", "Destination"}}, rows[0])
	assert.Equal(t, domain.RawRow{Line: 2, Fields: []string{"11/1/2024 23:10:00", "Ruiru (100KSH)"}}, rows[1])
	assert.Equal(t, domain.RawRow{Line: 4, Fields: []string{"11/1/2024 0:05:00"}}, rows[3])
}

func TestSource_Fetch_Password(t *testing.T) {
	path := writeWorkbook(t, "PRIORITY", boardingRows[:2], excelize.Options{Password: "secret"})

	rows, err := Source{Path: path}.Fetch(context.Background(), domain.Credentials("secret"), "PRIORITY!A1:B10")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ruiru (100KSH)", rows[1].Destination())

	_, err = Source{Path: path}.Fetch(context.Background(), domain.Credentials("wrong"), "PRIORITY!A1:B10")
	var authErr *domain.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.ErrorIs(t, err, excelize.ErrWorkbookPassword)
}

func TestSource_Fetch_FirstSheetWhenUnnamed(t *testing.T) {
	path := writeWorkbook(t, "PRIORITY", boardingRows)

	rows, err := Source{Path: path}.Fetch(context.Background(), nil, "A2:B3")
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "Ruiru (100KSH)", rows[0].Destination())
	assert.Equal(t, 1, rows[0].Line)
}

func TestSource_Fetch_MissingSheet(t *testing.T) {
	path := writeWorkbook(t, "PRIORITY", boardingRows)

	_, err := Source{Path: path}.Fetch(context.Background(), nil, "BOARDING!A1:B10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BOARDING")
}

func TestSource_Fetch_MissingFile(t *testing.T) {
	_, err := Source{Path: filepath.Join(t.TempDir(), "missing.xlsx")}.Fetch(context.Background(), nil, "PRIORITY")
	require.Error(t, err)
}

func TestSource_Fetch_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Source{Path: "unused.xlsx"}.Fetch(ctx, nil, "PRIORITY")
	require.ErrorIs(t, err, context.Canceled)
}
