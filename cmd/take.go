package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/cogcat/internal/app"
	"github.com/abhisek/cogcat/internal/itembank"
	"github.com/abhisek/cogcat/internal/screen"
	"github.com/abhisek/cogcat/internal/screens/domainpick"
	"github.com/abhisek/cogcat/internal/screens/take"
)

var takeCmd = &cobra.Command{
	Use:   "take <child> [domain]",
	Short: "Take an interactive test",
	Long: `Take an adaptive test in the terminal. Without a domain, the child
picks one from a menu.`,
	Args: cobra.RangeArgs(1, 2),
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

		maxItems := e.engine.Config().MaxItems
		start := func(d itembank.Domain) screen.Screen {
			return take.New(e.engine, e.profiles, child.ID, child.Name, d, maxItems)
		}

		var initial screen.Screen
		if len(args) == 2 {
			domain, err := itembank.ParseDomain(args[1])
			if err != nil {
				return err
			}
			initial = start(domain)
		} else {
			counts, err := e.store.Items().CountByDomain(cmd.Context())
			if err != nil {
				return err
			}
			initial = domainpick.New(child.Name, counts, start)
		}

		return app.Run(app.Options{Initial: initial, Status: child.Name})
	},
}
