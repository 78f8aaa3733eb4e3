package main

import (
	"fmt"
	"io"
	"math"

	"github.com/jedib0t/go-pretty/v6/table"

	"quantify/internal/indicator"
	"quantify/internal/model"
)

// writeSummary prints the last close and the last value of every computed
// indicator.
func writeSummary(w io.Writer, s *model.PriceSeries, results []indicator.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("%s (%d bars)", s.Symbol, s.Len()))
	t.AppendHeader(table.Row{"INDICATOR", "WINDOW", "DEFINED", "LAST"})

	if n := s.Len(); n > 0 {
		asOf := "-"
		if s.HasDates() {
			asOf = s.Date[n-1].Format("2006-01-02 15:04")
		}
		t.AppendRow(table.Row{"Close", "", asOf, formatValue(s.Close[n-1])})
	}
	for _, r := range results {
		t.AppendRow(table.Row{r.Name, r.Spec.Window, fmt.Sprintf("%d/%d", defined(r.Data), len(r.Data)), formatValue(r.Last())})
	}
	t.Render()
}

func defined(data []float64) int {
	n := 0
	for _, v := range data {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.4f", v)
}
