package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/medsim/medsim/internal"
	"github.com/spf13/cobra"
)

var (
	listOffline    bool
	listClearCache bool
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	diagnosisStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Italic(true)
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List past games",
	Long: `List your past games, newest first as the server orders them.

With --offline the list comes from the local cache written by earlier runs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if listClearCache {
			if err := a.cache.ClearCache(); err != nil {
				internal.LogWarn("Failed to clear cache: %v", err)
			} else {
				internal.LogInfo("Cache cleared")
			}
		}

		out := cmd.OutOrStdout()
		if listOffline {
			index, err := a.cache.LoadIndex()
			if err != nil {
				return fmt.Errorf("no cached games, run 'medsim list' while online first: %w", err)
			}
			internal.LogInfo("Loaded %d game(s) from cache", len(index.Games))
			displayIndex(out, index.Games)
			return nil
		}

		if err := a.store.LoadPastGames(cmd.Context()); err != nil {
			return a.explain(err)
		}
		past := a.store.Snapshot().Past
		entries := make([]internal.GameIndexEntry, 0, len(past))
		for _, g := range past {
			entries = append(entries, internal.GameIndexEntry{
				ID:           g.ID,
				StartTime:    g.StartTime,
				Finished:     g.IsFinished,
				Diagnosis:    g.DiagnosisText(),
				Score:        g.Score,
				MessageCount: len(g.Messages),
			})
		}
		displayIndex(out, entries)
		return nil
	},
}

func displayIndex(out io.Writer, games []internal.GameIndexEntry) {
	if len(games) == 0 {
		_, _ = fmt.Fprintln(out, headerStyle.Render("📋 No games yet"))
		_, _ = fmt.Fprintln(out, idStyle.Render("💡 Tip: start one with `medsim new`"))
		return
	}

	_, _ = fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("📋 Found %d game(s)", len(games))))
	_, _ = fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Started")+"\t"+titleStyle.Render("Messages")+"\t"+titleStyle.Render("Diagnosis")+"\t"+titleStyle.Render("Score")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 80))

	for _, g := range games {
		diagnosis := "in progress"
		if g.Finished {
			diagnosis = g.Diagnosis
			if len(diagnosis) > 40 {
				diagnosis = diagnosis[:37] + "..."
			}
		}
		score := "—"
		if g.Score != nil {
			score = strconv.Itoa(*g.Score)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
			idStyle.Render(strconv.FormatInt(g.ID, 10)),
			dateStyle.Render(formatStarted(g.StartTime, time.Now())),
			countStyle.Render(strconv.Itoa(g.MessageCount)),
			diagnosisStyle.Render(diagnosis),
			score,
		)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, idStyle.Render(fmt.Sprintf("💡 Tip: read a transcript with `medsim show %d`", games[0].ID)))
}

// formatStarted renders t relative to now the way a game list reads best
func formatStarted(t, now time.Time) string {
	if t.IsZero() {
		return "—"
	}
	t = t.Local()
	diff := now.Sub(t)
	switch {
	case diff < 24*time.Hour:
		return t.Format("Today 15:04")
	case diff < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	case diff < 365*24*time.Hour:
		return t.Format("Jan 02 15:04")
	default:
		return t.Format("2006-01-02")
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listOffline, "offline", false, "Read from the local cache instead of the server")
	listCmd.Flags().BoolVar(&listClearCache, "clear-cache", false, "Clear the cache before running")
}
