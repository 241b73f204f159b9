package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	rankinguc "github.com/kailas-cloud/travelscout/internal/usecase/ranking"
)

// NewSearchCmd runs one query through the ranking pipeline and prints the JSON result.
func NewSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "search <query>",
		Short:   "Rank catalog items for a single query",
		Example: `  travelscout search "a chilled beach weekend with surfing vibes under $100"`,
		Args:    cobra.MinimumNArgs(1),
		RunE:    runSearch,
	}
}

func runSearch(cmd *cobra.Command, args []string) error {
	_, cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.ranking.Search(cmd.Context(), rankinguc.Request{Query: strings.Join(args, " ")})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
