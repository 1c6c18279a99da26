package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/SimonSchneider/pefisim/internal/ui"
)

// WriteSummary prints an aligned table of the summaries.
func WriteSummary(w io.Writer, summaries []Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "scenario\ttrials\tfailed\tmean\tmode\tp5\tp95\t")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\t%s\t\n",
			s.Scenario, s.Trials, s.Failures, ui.FormatMoney(s.Mean), ui.FormatMoney(s.Mode), ui.FormatMoney(s.P5), ui.FormatMoney(s.P95))
	}
	return tw.Flush()
}
