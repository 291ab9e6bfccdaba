package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kingrea/sigilforge/internal/config"
	"github.com/kingrea/sigilforge/internal/search"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the sigil catalog by name or trait",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveProjectDir()
		if err != nil {
			return err
		}
		cfg, err := config.NewConfig(dir)
		if err != nil {
			return err
		}
		cat, _, err := loadCatalog(cfg)
		if err != nil {
			return err
		}
		limit := cfg.SearchLimit()
		if cmd.Flags().Changed("limit") {
			limit = searchLimit
		}
		results := search.New(cat).Query(strings.Join(args, " "), limit)
		if len(results) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No sigils match.")
			return nil
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SIGIL\tTRAIT\tLEVELS\tEFFECT")
		for _, r := range results {
			s := r.Sigil
			fmt.Fprintf(tw, "%s\t%s\t%d-%d\t%s\n", s.Name, s.Trait, s.BaseLevel, s.MaxLevel, s.Effect)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "Maximum number of results (0 for all)")
}
