package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/cogcat/internal/assessment"
	"github.com/abhisek/cogcat/internal/itembank"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show testing statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		counts, err := e.store.Sessions().StatusCounts(ctx)
		if err != nil {
			return err
		}
		st, err := e.store.Events().Stats(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DOMAIN\tSTARTED\tIN PROGRESS\tCOMPLETED")
		for _, d := range itembank.AllDomains() {
			byStatus := counts[d.ID]
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", d.Name, st.Started[d.ID],
				byStatus[assessment.StatusInProgress], byStatus[assessment.StatusCompleted])
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Fprintln(out)
		fmt.Fprintf(out, "Stopped at the item cap:     %d\n", st.Completed[assessment.StopMaxItems])
		fmt.Fprintf(out, "Stopped on precision:        %d\n", st.Completed[assessment.StopMinSE])
		fmt.Fprintf(out, "Stopped with no items left:  %d\n", st.Completed[assessment.StopNoItems])

		accuracy := 0.0
		if st.Responses > 0 {
			accuracy = float64(st.Correct) / float64(st.Responses) * 100
		}
		fmt.Fprintf(out, "Responses: %d (%.0f%% correct)\n", st.Responses, accuracy)
		if !st.LastEventAt.IsZero() {
			fmt.Fprintf(out, "Last activity: %s\n", st.LastEventAt.Local().Format(time.DateTime))
		}
		return nil
	},
}
