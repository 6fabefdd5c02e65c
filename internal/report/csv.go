package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Money formats an amount with a currency symbol and two decimals
func Money(symbol string, v float64) string {
	return fmt.Sprintf("%s%.2f", symbol, v)
}

// YesNo renders an attendance flag
func YesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// Filename is the download name of an exported report
func Filename(kind Kind, start, end string) string {
	return fmt.Sprintf("%s_report_%s_to_%s.csv", kind, start, end)
}

// Header returns the column titles of the report
func (r *Report) Header() []string {
	switch r.Kind {
	case Attendance:
		return []string{"Date", "Student Name", "Roll No", "Breakfast", "Lunch", "Dinner", "Total"}
	case Defaulters:
		return []string{"Student Name", "Roll No", "Total Paid", "Total Dues", "Balance"}
	case Collections:
		return []string{"Month", "Total Collection"}
	case Payments:
		return []string{"Date", "Student Name", "Roll No", "Amount", "Status"}
	}
	return nil
}

// Records returns the report rows as CSV cells
func (r *Report) Records(symbol string) [][]string {
	out := make([][]string, 0, r.Len())
	switch r.Kind {
	case Attendance:
		for _, row := range r.Attendance {
			out = append(out, []string{
				row.Date, row.StudentName, row.RollNo,
				YesNo(row.Breakfast), YesNo(row.Lunch), YesNo(row.Dinner),
				strconv.Itoa(row.Total),
			})
		}
	case Defaulters:
		for _, row := range r.Defaulters {
			out = append(out, []string{
				row.StudentName, row.RollNo,
				Money(symbol, row.TotalPaid), Money(symbol, row.TotalDue), Money(symbol, row.Balance),
			})
		}
	case Collections:
		for _, row := range r.Collections {
			out = append(out, []string{row.Label, Money(symbol, row.Total)})
		}
	case Payments:
		for _, row := range r.Payments {
			out = append(out, []string{row.Date, row.StudentName, row.RollNo, Money(symbol, row.Amount), row.Status})
		}
	}
	return out
}

// WriteCSV writes the header and every row of r to w
func WriteCSV(w io.Writer, r *Report, symbol string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(r.Header()); err != nil {
		return err
	}
	if err := cw.WriteAll(r.Records(symbol)); err != nil {
		return err
	}
	return cw.Error()
}
