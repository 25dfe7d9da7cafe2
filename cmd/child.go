package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/cogcat/internal/apperr"
	"github.com/abhisek/cogcat/internal/store"
)

var childCmd = &cobra.Command{
	Use:   "child",
	Short: "Register and list children",
}

var childAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a child",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		dobStr, _ := cmd.Flags().GetString("dob")
		dob, err := parseDOB(dobStr)
		if err != nil {
			return err
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		c := &store.Child{Name: name, DateOfBirth: dob}
		if err := e.store.Children().Create(cmd.Context(), c); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s)\n", c.Name, c.ID)
		return nil
	},
}

var childListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered children",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		children, err := e.store.Children().List(cmd.Context())
		if err != nil {
			return err
		}
		if len(children) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No children registered yet.")
			return nil
		}

		now := time.Now()
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tBORN\tAGE (MONTHS)")
		for _, c := range children {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", c.ID, c.Name, c.DateOfBirth.Format(time.DateOnly), store.AgeInMonths(c.DateOfBirth, now))
		}
		return w.Flush()
	},
}

// rosterEntry is one child in a YAML roster file.
type rosterEntry struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	DOB  string `yaml:"dob"`
}

var childImportCmd = &cobra.Command{
	Use:   "import <roster.yaml>",
	Short: "Register every child in a YAML roster",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read roster: %w", err)
		}
		var roster struct {
			Children []rosterEntry `yaml:"children"`
		}
		if err := yaml.Unmarshal(raw, &roster); err != nil {
			return apperr.Validation("import roster", "parse %s: %v", args[0], err)
		}
		if len(roster.Children) == 0 {
			return apperr.Validation("import roster", "%s lists no children", args[0])
		}

		// Validate everything before writing anything.
		children := make([]*store.Child, 0, len(roster.Children))
		for i, r := range roster.Children {
			dob, err := parseDOB(r.DOB)
			if err != nil {
				return fmt.Errorf("child %d (%s): %w", i+1, r.Name, err)
			}
			children = append(children, &store.Child{ID: r.ID, Name: r.Name, DateOfBirth: dob})
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		for _, c := range children {
			if err := e.store.Children().Create(cmd.Context(), c); err != nil {
				return fmt.Errorf("register %s: %w", c.Name, err)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered %d children\n", len(children))
		return nil
	},
}

func parseDOB(s string) (time.Time, error) {
	dob, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, apperr.Validation("parse date of birth", "want YYYY-MM-DD, got %q", s)
	}
	return dob, nil
}

func init() {
	childAddCmd.Flags().String("name", "", "child's name")
	childAddCmd.Flags().String("dob", "", "date of birth (YYYY-MM-DD)")
	_ = childAddCmd.MarkFlagRequired("name")
	_ = childAddCmd.MarkFlagRequired("dob")

	childCmd.AddCommand(childAddCmd, childListCmd, childImportCmd)
}
