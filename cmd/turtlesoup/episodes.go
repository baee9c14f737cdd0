package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/turtlesoup/internal/catalog"
	"github.com/hyperengineering/turtlesoup/internal/config"
)

var (
	episodesCatalogPath string
	episodesJSONOutput  bool
)

var episodesCmd = &cobra.Command{
	Use:   "episodes",
	Short: "Browse the episode catalog",
}

var episodesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all episodes",
	Args:  cobra.NoArgs,
	RunE:  runEpisodesList,
}

var episodesShowCmd = &cobra.Command{
	Use:   "show <title>",
	Short: "Show one episode's question",
	Args:  cobra.ExactArgs(1),
	RunE:  runEpisodesShow,
}

func init() {
	episodesCmd.PersistentFlags().StringVar(&episodesCatalogPath, "catalog", "", "Override catalog file path")
	episodesCmd.PersistentFlags().BoolVar(&episodesJSONOutput, "json", false, "Output as JSON")
	episodesCmd.AddCommand(episodesListCmd)
	episodesCmd.AddCommand(episodesShowCmd)
}

// resolveCatalog loads the catalog from --catalog or the configured path.
func resolveCatalog() (*catalog.Catalog, error) {
	path := episodesCatalogPath
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		path = cfg.Catalog.Path
	}
	return catalog.Load(path)
}

// printJSON writes v as indented JSON to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newTabWriter returns a configured tabwriter for aligned columns.
func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func runEpisodesList(cmd *cobra.Command, args []string) error {
	cat, err := resolveCatalog()
	if err != nil {
		return err
	}
	previews := cat.Preview()

	if episodesJSONOutput {
		return printJSON(cmd.OutOrStdout(), previews)
	}

	if len(previews) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No episodes found.")
		return nil
	}

	tw := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(tw, "#\tTITLE\tCLUES")
	for i, p := range previews {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", i+1, p.Title, p.ClueCount)
	}
	return tw.Flush()
}

func runEpisodesShow(cmd *cobra.Command, args []string) error {
	cat, err := resolveCatalog()
	if err != nil {
		return err
	}
	ep, err := cat.Find(args[0])
	if err != nil {
		return err
	}
	preview := catalog.Preview{
		Title:     ep.Title,
		Question:  ep.Question,
		ClueCount: len(ep.Clues),
	}

	if episodesJSONOutput {
		return printJSON(cmd.OutOrStdout(), preview)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Title:      %s\n", preview.Title)
	fmt.Fprintf(w, "Clues:      %d\n", preview.ClueCount)
	fmt.Fprintf(w, "Free hints: %d\n", len(ep.HintFree))
	fmt.Fprintf(w, "Paid hints: %d\n", len(ep.HintPaid))
	fmt.Fprintf(w, "\n%s\n", preview.Question)
	return nil
}
