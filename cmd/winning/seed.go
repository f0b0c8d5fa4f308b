package main

import (
	"fmt"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/winning-app/winning/api"
)

func newSeedCmd(load func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <scenario>",
		Short: "Reset the database and load a demo scenario",
		Long: `Seed wipes every table and replays a demo scenario, then prints a
session token per user. Pass a token as "Authorization: Bearer <token>".
Run without arguments to list scenarios.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				list, err := api.Scenarios()
				if err != nil {
					return err
				}
				table := tablewriter.NewWriter(out)
				table.SetHeader([]string{"ID", "NAME", "DESCRIPTION"})
				for _, sc := range list {
					table.Append([]string{sc.ID, sc.Name, sc.Description})
				}
				table.Render()
				return nil
			}

			a, err := load()
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.handler.Seed(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			users := make([]string, 0, len(resp.Sessions))
			for u := range resp.Sessions {
				users = append(users, u)
			}
			sort.Strings(users)

			fmt.Fprintf(out, "loaded %s into %s\n", resp.Scenario.ID, a.cfg.DBPath)
			table := tablewriter.NewWriter(out)
			table.SetHeader([]string{"USER", "SESSION TOKEN"})
			for _, u := range users {
				table.Append([]string{u, resp.Sessions[u]})
			}
			table.Render()
			return nil
		},
	}
}
