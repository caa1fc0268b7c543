package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/binge/internal/awards"
	"github.com/existflow/binge/internal/model"
)

var homeCmd = &cobra.Command{
	Use:   "home",
	Short: "Show open projects and what to do next",
	RunE:  runHome,
}

var awardsCmd = &cobra.Command{
	Use:   "awards",
	Short: "Show earned and locked awards",
	RunE:  runAwards,
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search items by title and description",
	Args:  cobra.ArbitraryArgs,
	RunE:  runSearch,
}

var widgetCmd = &cobra.Command{
	Use:   "widget",
	Short: "Print the most important items, one per line",
	Long: `Print the most important unfinished items of open projects in a compact
form suitable for status bars and shell prompts.`,
	RunE: runWidget,
}

var (
	searchReindex bool
	searchLimit   int
	widgetCount   int
)

func init() {
	searchCmd.Flags().BoolVar(&searchReindex, "reindex", false, "Rebuild the search index first")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "Maximum number of results")
	widgetCmd.Flags().IntVarP(&widgetCount, "count", "n", 1, "Number of items")
}

func runHome(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := context.Background()

	MaybeSyncCLI(ctx, a.store, false)

	home, err := a.ctrl.HomeFeed(ctx)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Projects")
	fmt.Println(strings.Repeat("─", 64))
	if len(home.Projects) == 0 {
		fmt.Println("  No open projects")
	}
	for _, s := range home.Projects {
		fmt.Printf("  %-24s  %s  %s\n", truncate(model.ProjectTitle(s.Project), 24), progressBar(s.Completion, 20), s.Label)
	}

	printFeed("Up next", home.UpNext)
	printFeed("More to explore", home.MoreToExplore)
	fmt.Println()
	return nil
}

func printFeed(title string, items []model.Item) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("\n%s\n", title)
	fmt.Println(strings.Repeat("─", 64))
	for i, it := range items {
		printItem(i+1, it)
	}
}

func progressBar(fraction float64, width int) string {
	filled := int(fraction*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("·", width-filled) + "]"
}

func runAwards(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := context.Background()

	all := awards.All()
	earned := 0
	fmt.Println()
	for _, award := range all {
		mark := "🔒"
		if a.ctrl.HasEarned(ctx, award) {
			mark = "🏆"
			earned++
		}
		fmt.Printf("  %s  %-16s  %s\n", mark, award.Name, award.Description)
	}
	fmt.Printf("\n  %d of %d awards earned\n\n", earned, len(all))
	return nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := context.Background()

	if searchReindex {
		n, err := a.ctrl.Reindex(ctx)
		if err != nil {
			return fmt.Errorf("failed to rebuild index: %w", err)
		}
		fmt.Printf("Indexed %d items\n", n)
	}

	query := strings.Join(args, " ")
	if query == "" {
		return nil
	}

	items, err := a.ctrl.Search(ctx, query, searchLimit)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Printf("No items match %q\n", query)
		return nil
	}

	for i, it := range items {
		printItem(i+1, it)
	}
	return nil
}

func runWidget(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.ctrl.Widget(context.Background(), widgetCount)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("Nothing to do")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s · %s\n", model.ItemTitle(e.Item), e.ProjectTitle)
	}
	return nil
}
