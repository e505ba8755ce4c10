package main

import (
	"fmt"

	"lyricmirror/internal/lyrics"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check that a lyric catalog file loads",
	Long: `Parses a YAML lyric catalog the way the kiosk does and reports how many
entries it holds, how many lack song info, and any duplicate lines.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

var listCmd = &cobra.Command{
	Use:   "list [file]",
	Short: "Print the entries of a lyric catalog",
	Long:  `Prints every entry split into lyric and song info. Without a file the built-in catalog is listed.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(listCmd)
}

// catalogReport summarizes a loaded catalog.
type catalogReport struct {
	Entries    int
	NoSongInfo int
	Duplicates []string
}

func inspect(catalog *lyrics.Catalog) catalogReport {
	report := catalogReport{Entries: catalog.Len()}
	seen := make(map[string]bool, catalog.Len())

	for i, line := range catalog.Lyrics {
		if catalog.Entry(i).SongInfo == nil {
			report.NoSongInfo++
		}
		if seen[line] {
			report.Duplicates = append(report.Duplicates, line)
		}
		seen[line] = true
	}
	return report
}

func runValidate(cmd *cobra.Command, args []string) error {
	catalog, err := lyrics.Load(args[0])
	if err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}

	report := inspect(catalog)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Entries: %d\n", report.Entries)
	fmt.Fprintf(out, "Without song info: %d\n", report.NoSongInfo)
	for _, d := range report.Duplicates {
		fmt.Fprintf(out, "Duplicate: %s\n", d)
	}
	fmt.Fprintln(out, "OK")
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}

	catalog, err := lyrics.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	out := cmd.OutOrStdout()
	for i := 0; i < catalog.Len(); i++ {
		entry := catalog.Entry(i)
		if entry.SongInfo != nil {
			fmt.Fprintf(out, "%3d. %s (%s)\n", i+1, entry.Lyric, *entry.SongInfo)
		} else {
			fmt.Fprintf(out, "%3d. %s\n", i+1, entry.Lyric)
		}
	}
	return nil
}
