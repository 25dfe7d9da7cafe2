package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/cogcat/internal/assessment"
	"github.com/abhisek/cogcat/internal/itembank"
	"github.com/abhisek/cogcat/internal/screens/result"
)

var asJSON bool

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Run an assessment one response at a time",
}

var assessStartCmd = &cobra.Command{
	Use:   "start <child> <domain>",
	Short: "Start an assessment and print its first item",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		domain, err := itembank.ParseDomain(args[1])
		if err != nil {
			return err
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		child, err := e.store.Children().Lookup(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		res, err := e.engine.Start(cmd.Context(), child.ID, domain)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			return writeJSON(out, res)
		}
		fmt.Fprintf(out, "Started %s assessment %s for %s\n\n", domain.DisplayName(), res.Session.ID, child.Name)
		printItem(out, res.FirstItem)
		return nil
	},
}

var assessRespondCmd = &cobra.Command{
	Use:   "respond <assessment> <item> <answer...>",
	Short: "Submit a response and print the next item",
	Long: `Submit the child's response to an item. Pass one answer value, or
several with --list for sequence, matching, and drag-and-drop items.`,
	Args: cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, _ := cmd.Flags().GetInt("rt")
		list, _ := cmd.Flags().GetBool("list")

		answer := itembank.ScalarAnswer(strings.Join(args[2:], " "))
		if list {
			answer = itembank.ListAnswer(args[2:]...)
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		res, err := e.engine.Respond(cmd.Context(), args[0], args[1], answer, rt)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			return writeJSON(out, res)
		}
		fmt.Fprintf(out, "%s %s\n", res.Feedback.Headline, res.Feedback.Encouragement)
		fmt.Fprintf(out, "correct=%t theta=%.3f se=%.3f\n\n", res.IsCorrect, res.NewTheta, res.NewSE)
		if res.IsComplete {
			s := res.Session
			fmt.Fprintf(out, "Assessment complete: %s.\n", result.StoppingText(res.StoppingReason))
			if s != nil && s.Percentile != nil && s.RawScore != nil {
				fmt.Fprintf(out, "Percentile %d, raw score %.1f after %d items\n", *s.Percentile, *s.RawScore, s.ItemsAdministered)
			}
			return nil
		}
		printItem(out, res.NextItem)
		return nil
	},
}

var assessShowCmd = &cobra.Command{
	Use:   "show <assessment>",
	Short: "Show an assessment and its transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		s, err := e.engine.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		records, err := e.engine.Transcript(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			return writeJSON(out, struct {
				Assessment *assessment.Session        `json:"assessment"`
				Responses  []assessment.ResponseRecord `json:"responses"`
			}{s, records})
		}

		fmt.Fprintf(out, "Assessment %s\n", s.ID)
		fmt.Fprintf(out, "  child:   %s\n", s.ChildID)
		fmt.Fprintf(out, "  domain:  %s\n", s.Domain)
		fmt.Fprintf(out, "  status:  %s\n", s.Status)
		fmt.Fprintf(out, "  theta:   %.3f (se %.3f)\n", s.Theta, s.SE)
		if s.Percentile != nil {
			fmt.Fprintf(out, "  result:  percentile %d, stopped because %s\n", *s.Percentile, result.StoppingText(s.StoppingReason))
		}
		fmt.Fprintln(out)

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tITEM\tRESPONSE\tCORRECT\tRT (MS)\tTHETA\tSE")
		for _, r := range records {
			fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%d\t%.3f -> %.3f\t%.3f\n",
				r.ItemSequence, r.ItemID, r.Response, r.IsCorrect, r.ReactionTimeMs, r.ThetaBefore, r.ThetaAfter, r.SEAfter)
		}
		return w.Flush()
	},
}

var assessListCmd = &cobra.Command{
	Use:   "list <child>",
	Short: "List a child's assessments, newest first",
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
		sessions, err := e.engine.History(cmd.Context(), child.ID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			return writeJSON(out, sessions)
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDOMAIN\tSTATUS\tITEMS\tTHETA\tPERCENTILE\tSTARTED")
		for _, s := range sessions {
			pct := "-"
			if s.Percentile != nil {
				pct = strconv.Itoa(*s.Percentile)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.3f\t%s\t%s\n",
				s.ID, s.Domain, s.Status, s.ItemsAdministered, s.Theta, pct, s.StartedAt.Local().Format(time.DateTime))
		}
		return w.Flush()
	},
}

// printItem writes an item the way an administrator reads it aloud.
func printItem(w io.Writer, it *itembank.TestItem) {
	if it == nil {
		return
	}
	fmt.Fprintf(w, "Item %s (%s)\n", it.ID, it.Content.Type)
	fmt.Fprintf(w, "  %s\n", it.Content.Prompt)
	if it.Content.Instructions != "" {
		fmt.Fprintf(w, "  (%s)\n", it.Content.Instructions)
	}
	for _, o := range it.Content.Options {
		fmt.Fprintf(w, "    [%s] %s\n", o.ID, o.Label)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	assessCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print JSON instead of text")
	assessRespondCmd.Flags().Int("rt", 0, "reaction time in milliseconds")
	assessRespondCmd.Flags().Bool("list", false, "treat the answer values as one list answer")

	assessCmd.AddCommand(assessStartCmd, assessRespondCmd, assessShowCmd, assessListCmd)
}
