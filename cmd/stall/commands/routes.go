package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stallkit/stall/app"
	"github.com/stallkit/stall/config"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the registered route table in dispatch order",
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := config.NewLoader()
		if configPath != "" {
			loader = loader.WithYAMLFile(configPath)
		}
		cfg := &config.Config{}
		if err := loader.Load(cfg); err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}

		a, err := app.New(app.WithConfig(cfg))
		if err != nil {
			return fmt.Errorf("assemble application: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATTERN")
		for _, route := range a.Router().Routes() {
			fmt.Fprintf(w, "%s\t%s\n", route.Method, route.Pattern)
		}
		return w.Flush()
	},
}
