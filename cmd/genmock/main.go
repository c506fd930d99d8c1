// Command genmock writes a deterministic sample of boarding rows for local
// runs and tests: a PRIORITY sheet in an .xlsx workbook, or a CSV export of
// the same rows.
//
// Usage:
//
//	go run ./cmd/genmock -out data/trips.xlsx
//	go run ./cmd/genmock -out data/trips.csv -rows 500 -bad 10 -seed 7
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/xuri/excelize/v2"
)

const sheetName = "PRIORITY"

// destinations mixes both annotation spellings and an unpriced stop.
var destinations = []string{
	"Ruiru (100KSH)",
	"Thika (250KSH)",
	"Kiambu (80KSH)",
	"Juja (150KSH)",
	"Githurai (70KSH)",
	"Westlands (120 KSH)",
	"Kasarani",
}

// weights skew demand so rankings are not flat.
var weights = []int{30, 22, 16, 12, 9, 7, 4}

var badRows = [][]string{
	{"yesterday night", "Ruiru (100KSH)"},
	{"11/31/2024 25:10:00", "Thika (250KSH)"},
	{"11/1/2024 23:59:00"},
}

type options struct {
	rows int
	bad  int
	seed uint64
	date time.Time
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/trips.xlsx", "output path; .csv writes CSV, anything else xlsx")
	rows := flag.Int("rows", 200, "number of valid boarding rows")
	bad := flag.Int("bad", 0, "number of malformed rows to mix in")
	seed := flag.Uint64("seed", 1, "random seed")
	date := flag.String("date", "2024-11-01", "service date; the shift runs 23:00 to 07:00")
	flag.Parse()

	day, err := time.Parse(time.DateOnly, *date)
	if err != nil {
		return fmt.Errorf("parse -date: %w", err)
	}
	if *rows < 0 || *bad < 0 {
		return fmt.Errorf("-rows and -bad must not be negative")
	}

	records := generate(options{rows: *rows, bad: *bad, seed: *seed, date: day})

	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		return err
	}
	if strings.EqualFold(filepath.Ext(*out), ".csv") {
		err = writeCSV(*out, records)
	} else {
		err = writeWorkbook(*out, records)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}

	log.Printf("wrote %d rows (%d malformed) to %s", len(records)-1, *bad, *out)
	return nil
}

// generate returns a header row followed by opts.rows boarding rows spread
// over the overnight shift, with opts.bad malformed rows at fixed intervals.
func generate(opts options) [][]string {
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	shiftStart := time.Date(opts.date.Year(), opts.date.Month(), opts.date.Day(), 23, 0, 0, 0, time.UTC)
	const shift = 8 * time.Hour

	records := make([][]string, 0, opts.rows+opts.bad+1)
	records = append(records, []string{"Timestamp", "Destination"})

	total := 0
	for _, w := range weights {
		total += w
	}

	bad := 0
	for i := 0; i < opts.rows; i++ {
		if bad < opts.bad && opts.rows > 0 && i%max(opts.rows/opts.bad, 1) == 0 {
			records = append(records, badRows[bad%len(badRows)])
			bad++
		}
		offset := time.Duration(int64(shift) * int64(i) / int64(opts.rows))
		offset += time.Duration(rng.Int64N(int64(time.Minute)))
		ts := shiftStart.Add(offset).Truncate(time.Second)
		records = append(records, []string{ts.Format("1/2/2006 15:04:05"), pick(rng, total)})
	}
	for ; bad < opts.bad; bad++ {
		records = append(records, badRows[bad%len(badRows)])
	}
	return records
}

func pick(rng *rand.Rand, total int) string {
	n := rng.IntN(total)
	for i, w := range weights {
		if n < w {
			return destinations[i]
		}
		n -= w
	}
	return destinations[len(destinations)-1]
}

func writeWorkbook(path string, records [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := make([]any, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return err
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", "B1", bold); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "A", "B", 24); err != nil {
		return err
	}
	return f.SaveAs(path)
}

func writeCSV(path string, records [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	// Pad malformed short rows; CSV records must share one width.
	padded := make([][]string, len(records))
	for i, rec := range records {
		padded[i] = append(append([]string{}, rec...), make([]string, max(2-len(rec), 0))...)
	}

	df := dataframe.LoadRecords(padded, dataframe.DetectTypes(false), dataframe.NaNValues(nil))
	if df.Err != nil {
		return df.Err
	}
	return df.WriteCSV(file)
}
