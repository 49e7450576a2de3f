// Package export writes generated tickets as CSV.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"loto-optimizer/internal/combo"
)

// ErrTicketWidth reports a ticket whose length differs from the column count.
var ErrTicketWidth = errors.New("ticket width mismatch")

// WriteCSV writes a header n1..nk followed by one row per ticket.
func WriteCSV(w io.Writer, tickets []combo.Ticket, k int) error {
	cw := csv.NewWriter(w)
	header := make([]string, k)
	for i := range header {
		header[i] = "n" + strconv.Itoa(i+1)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, k)
	for i, t := range tickets {
		if len(t) != k {
			return fmt.Errorf("%w: ticket %d has %d numbers, want %d: %v", ErrTicketWidth, i+1, len(t), k, t)
		}
		for j, n := range t {
			row[j] = strconv.Itoa(n)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the CSV to path, replacing any existing file.
func WriteFile(path string, tickets []combo.Ticket, k int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(f, tickets, k); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
