package main

import (
	"fmt"
	"os"

	"lyricmirror/internal/config"
	"lyricmirror/internal/repository/sqlite"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show which lyrics the kiosk has shown",
	Long:  `Reads the play history database and prints totals and the most shown lyrics.`,
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().String("db", "", "Play history database (default: DB_PATH or ./data/history.db)")
	statsCmd.Flags().Int("top", 10, "Number of lyrics to list")
	statsCmd.Flags().Bool("clear", false, "Delete the play history after printing it")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	dbPath := mustGetString(cmd, "db")
	if dbPath == "" {
		dbPath = config.Load().DatabasePath
	}

	// opening would create an empty database
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("no play history at %s: %w", dbPath, err)
	}

	db, err := sqlite.New(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := sqlite.NewAssignmentRepository(db)
	stats, err := repo.GetStats(mustGetInt(cmd, "top"))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Assignments: %d\n", stats.TotalAssignments)
	fmt.Fprintf(out, "Faces: %d\n", stats.DistinctFaces)
	for i, l := range stats.TopLyrics {
		if l.SongInfo != "" {
			fmt.Fprintf(out, "%3d. %s | %s  x%d\n", i+1, l.LyricText, l.SongInfo, l.Count)
		} else {
			fmt.Fprintf(out, "%3d. %s  x%d\n", i+1, l.LyricText, l.Count)
		}
	}

	if mustGetBool(cmd, "clear") {
		if err := repo.DeleteAll(); err != nil {
			return err
		}
		fmt.Fprintln(out, "History cleared")
	}
	return nil
}
