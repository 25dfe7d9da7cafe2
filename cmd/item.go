package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/abhisek/cogcat/internal/itembank"
)

var itemCmd = &cobra.Command{
	Use:   "item",
	Short: "Manage the item bank",
}

var itemImportCmd = &cobra.Command{
	Use:   "import <file.json|file.yaml>",
	Short: "Validate and import calibrated items",
	Long: `Import items from a JSON or YAML file with a top-level "items" list.
The whole file is validated first; nothing is written if any item is invalid.
Items with an existing id are replaced.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := itembank.LoadFile(args[0])
		if err != nil {
			return err
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		n, err := e.store.Items().Upsert(cmd.Context(), items)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d items from %s\n", n, args[0])
		return nil
	},
}

var itemListCmd = &cobra.Command{
	Use:   "list",
	Short: "List items",
	RunE: func(cmd *cobra.Command, args []string) error {
		var domain itembank.Domain
		if s, _ := cmd.Flags().GetString("domain"); s != "" {
			d, err := itembank.ParseDomain(s)
			if err != nil {
				return err
			}
			domain = d
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		items, err := e.store.Items().List(cmd.Context(), domain)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDOMAIN\tA\tB\tC\tAGES\tTYPE\tACTIVE")
		for _, it := range items {
			fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\t%.2f\t%d-%d\t%s\t%t\n",
				it.ID, it.Domain, it.Params.A, it.Params.B, it.Params.C,
				it.MinAgeMonths, it.MaxAgeMonths, it.Content.Type, it.Active)
		}
		return w.Flush()
	},
}

var domainCmd = &cobra.Command{
	Use:   "domain",
	Short: "Cognitive domains",
}

var domainListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the domains and how many items each has",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		counts, err := e.store.Items().CountByDomain(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DOMAIN\tNAME\tITEMS\tDESCRIPTION")
		for _, d := range itembank.AllDomains() {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", d.ID, d.Name, counts[d.ID], d.Description)
		}
		return w.Flush()
	},
}

func init() {
	itemListCmd.Flags().String("domain", "", "only list items of this domain")
	itemCmd.AddCommand(itemImportCmd, itemListCmd)
	domainCmd.AddCommand(domainListCmd)
}
