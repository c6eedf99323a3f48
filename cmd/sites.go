package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inmodata/inmoharvest/internal/site"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List registered site adapters",
	RunE: func(cmd *cobra.Command, _ []string) error {
		registry := site.DefaultRegistry()
		for _, s := range registry.All() {
			tier := "plain"
			opts := s.FetchOptions()
			switch {
			case opts.ForceBrowser:
				tier = "browser (forced)"
			case opts.AllowStealth && opts.AllowBrowser:
				tier = "plain > stealth > browser"
			case opts.AllowStealth:
				tier = "plain > stealth"
			case opts.AllowBrowser:
				tier = "plain > browser"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-14s %-28s %s\n", s.Name(), tier, s.DefaultStartURL())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sitesCmd)
}
