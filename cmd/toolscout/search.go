package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/toolscout/internal/config"
	"github.com/pdiddy/toolscout/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Run a single web search",
	Long: `Search sends one query to the search service and lists the documents
it returns, de-duplicated by URL. It needs only the search credential and is
useful for checking what the research stages will see.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Read(viper.GetViper(), loadedSecrets)
		if err != nil {
			return err
		}
		if cfg.Firecrawl.APIKey == "" {
			return eris.Wrapf(config.ErrMissingCredential, "set %s", config.EnvFirecrawlKey)
		}

		s, _, err := newSearcher(cfg, logger)
		if err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		docs, err := s.Search(cmd.Context(), strings.Join(args, " "), limit)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return search.FormatJSON(docs, cmd.OutOrStdout())
		}
		search.FormatTable(docs, cmd.OutOrStdout())
		return nil
	},
}

func init() {
	searchCmd.Flags().Int("limit", 5, "maximum number of results to return")
	searchCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(searchCmd)
}
