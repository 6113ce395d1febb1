package mtdesign

import (
	"encoding/csv"
	"fmt"
	"io"
)

var csvHeader = []string{"coast_days", "engine_count", "miss_distance_du", "fuel_used_kg", "rendezvous", "elapsed_days", "coast_miss_du", "converged", "error"}

func csvRecord(pt SolutionPoint) []string {
	record := []string{
		fmt.Sprintf("%.1f", pt.CoastDays),
		fmt.Sprintf("%d", pt.Engines),
	}
	if pt.Err != nil {
		// Aborted cell: diagnostic instead of a fabricated distance.
		return append(record, "", "", "", "", "", "", pt.Err.Error())
	}
	return append(record,
		fmt.Sprintf("%.8f", pt.MissDistance),
		fmt.Sprintf("%.4f", pt.FuelUsed),
		fmt.Sprintf("%v", pt.Rendezvous),
		fmt.Sprintf("%.1f", pt.ElapsedDays),
		fmt.Sprintf("%.8f", pt.CoastMiss),
		fmt.Sprintf("%v", pt.Converged),
		"",
	)
}

// WriteCSV writes the solution points as CSV for the downstream
// visualization stage.
func WriteCSV(w io.Writer, points []SolutionPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, pt := range points {
		if err := cw.Write(csvRecord(pt)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// StreamCSV writes points as they arrive on the channel, returning when the
// channel closes. Meant to run in its own goroutine next to a sweep.
func StreamCSV(w io.Writer, points <-chan SolutionPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for pt := range points {
		if err := cw.Write(csvRecord(pt)); err != nil {
			return err
		}
		cw.Flush()
	}
	return cw.Error()
}
