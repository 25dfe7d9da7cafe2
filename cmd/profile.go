package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/cogcat/internal/itembank"
	"github.com/abhisek/cogcat/internal/ui/components"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show cognitive profiles",
}

var profileShowCmd = &cobra.Command{
	Use:   "show <child>",
	Short: "Show a child's cognitive profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		child, err := e.store.Children().Lookup(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		p, err := e.profiles.Get(cmd.Context(), child.ID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSONProfile {
			return writeJSON(out, p)
		}
		fmt.Fprintln(out, components.ProfileCard(child.Name, p, 60))
		return nil
	},
}

var profileHistoryCmd = &cobra.Command{
	Use:   "history <child>",
	Short: "Show how a child's profile changed over time",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		child, err := e.store.Children().Lookup(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		history, err := e.profiles.History(cmd.Context(), child.ID, limit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSONProfile {
			return writeJSON(out, history)
		}
		if len(history) == 0 {
			fmt.Fprintf(out, "No profile history for %s yet.\n", child.Name)
			return nil
		}

		header := []string{"SEQ", "WHEN", "COMPOSITE"}
		for _, d := range itembank.AllDomains() {
			header = append(header, strings.ToUpper(string(d.ID)))
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, strings.Join(header, "\t"))
		for _, snap := range history {
			row := []string{fmt.Sprint(snap.Sequence), snap.Timestamp.Local().Format(time.DateTime), "-"}
			if c := snap.Profile.CompositeScore; c != nil {
				row[2] = fmt.Sprintf("%.2f", *c)
			}
			for _, d := range itembank.AllDomains() {
				cell := "-"
				if ds, ok := snap.Profile.Domains[d.ID]; ok {
					cell = fmt.Sprintf("%.2f (%d)", ds.Score, ds.Percentile)
				}
				row = append(row, cell)
			}
			fmt.Fprintln(w, strings.Join(row, "\t"))
		}
		return w.Flush()
	},
}

var asJSONProfile bool

func init() {
	profileCmd.PersistentFlags().BoolVar(&asJSONProfile, "json", false, "print JSON instead of text")
	profileHistoryCmd.Flags().Int("limit", 10, "number of snapshots to show (0 for all)")
	profileCmd.AddCommand(profileShowCmd, profileHistoryCmd)
}
