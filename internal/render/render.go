// Package render formats refresh runs for people and for machines.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/couchcryptid/transit-ranking-etl/internal/domain"
	"github.com/couchcryptid/transit-ranking-etl/internal/pipeline"
)

// NoDataMessage is printed in place of a report when the source had no data rows.
const NoDataMessage = "No data found or not enough data."

// Text writes the ranking of every window followed by the day's total.
func Text(w io.Writer, run pipeline.Run) error {
	if run.Report == nil {
		_, err := fmt.Fprintln(w, NoDataMessage)
		return err
	}

	p := message.NewPrinter(language.English)
	for i, wr := range run.Report.Windows {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := writeWindow(w, p, wr); err != nil {
			return fmt.Errorf("render window %s: %w", wr.Window, err)
		}
	}

	_, err := p.Fprintf(w, "\nPotential Total Revenue for the Day: %d KSH\n", run.Report.TotalRevenue)
	return err
}

func writeWindow(w io.Writer, p *message.Printer, wr domain.WindowReport) error {
	if _, err := fmt.Fprintln(w, wr.Window.Title()); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "Rank\tDestination\tPassengers\tRevenue (KSH)"); err != nil {
		return err
	}
	for _, t := range wr.Tallies {
		if _, err := p.Fprintf(tw, "%d\t%s\t%d\t%d\n", t.Rank, t.Destination, t.Passengers, t.Revenue); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := p.Fprintf(w, "Hourly Potential Revenue: %d KSH\n", wr.Revenue)
	return err
}

// JSON writes the run as indented JSON.
func JSON(w io.Writer, run pipeline.Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(run); err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	return nil
}
