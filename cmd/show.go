package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/medsim/medsim/internal"
	"github.com/spf13/cobra"
)

var (
	limit       int
	since       string
	showOffline bool
)

var (
	// Styles for show command
	gameHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Padding(0, 1).
			MarginBottom(1)

	gameMetaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			MarginBottom(1)

	doctorMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 1)

	patientMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true).
				Padding(0, 1)

	systemMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214")).
				Bold(true).
				Padding(0, 1)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2).
				MarginBottom(1)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <game-id>",
	Short: "Show the transcript of a game",
	Long: `Display the messages of one game, with its diagnosis and score if finished.

The game is fetched from the server and cached; --offline reads the cache only.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseGameID(args[0])
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		game, err := a.loadGame(cmd, id, showOffline)
		if err != nil {
			return err
		}

		messages := game.Messages
		if since != "" {
			sinceTime, err := time.Parse(time.RFC3339, since)
			if err != nil {
				return fmt.Errorf("invalid --since timestamp format (expected RFC3339): %w", err)
			}
			filtered := make([]internal.Message, 0, len(messages))
			for _, msg := range messages {
				if !msg.Timestamp.Before(sinceTime) {
					filtered = append(filtered, msg)
				}
			}
			messages = filtered
		}

		out := cmd.OutOrStdout()
		displayGameHeader(out, game)

		total := len(messages)
		if limit > 0 && limit < total {
			messages = messages[:limit]
		}
		for i, msg := range messages {
			displayMessage(out, i+1, msg, total)
		}
		if limit > 0 && limit < total {
			_, _ = fmt.Fprintln(out, lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				Italic(true).
				Render(fmt.Sprintf("... (%d more message(s))", total-limit)))
		}
		return nil
	},
}

func parseGameID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid game id %q", s)
	}
	return id, nil
}

// loadGame fetches game id through the store, or from the cache when offline
func (a *app) loadGame(cmd *cobra.Command, id int64, offline bool) (*internal.Session, error) {
	if offline {
		game, err := a.cache.LoadGame(id)
		if err != nil {
			return nil, fmt.Errorf("game %d is not cached: %w", id, err)
		}
		return game, nil
	}
	if err := a.store.Select(cmd.Context(), id); err != nil {
		return nil, a.explain(err)
	}
	return a.store.Snapshot().Current, nil
}

func displayGameHeader(out io.Writer, game *internal.Session) {
	_, _ = fmt.Fprintln(out, gameHeaderStyle.Render(fmt.Sprintf("🩺 Game %d", game.ID)))

	var metaParts []string
	if !game.StartTime.IsZero() {
		metaParts = append(metaParts, fmt.Sprintf("Started: %s", game.StartTime.Local().Format("2006-01-02 15:04")))
	}
	metaParts = append(metaParts, fmt.Sprintf("Messages: %d", len(game.Messages)))
	if game.IsFinished {
		metaParts = append(metaParts, fmt.Sprintf("Diagnosis: %s", game.DiagnosisText()))
		if game.Score != nil {
			metaParts = append(metaParts, fmt.Sprintf("Score: %d", *game.Score))
		}
	} else {
		metaParts = append(metaParts, "In progress")
	}
	_, _ = fmt.Fprintln(out, gameMetaStyle.Render(strings.Join(metaParts, " • ")))
	_, _ = fmt.Fprintln(out)
}

func displayMessage(out io.Writer, index int, msg internal.Message, total int) {
	var senderStyle lipgloss.Style
	var senderLabel string

	switch msg.Sender {
	case internal.SenderDoctor:
		senderStyle = doctorMessageStyle
		senderLabel = "🧑‍⚕️ Doctor"
	case internal.SenderPatient:
		senderStyle = patientMessageStyle
		senderLabel = "🤒 Patient"
	default:
		senderStyle = systemMessageStyle
		senderLabel = fmt.Sprintf("📋 %s", msg.Sender)
	}

	header := senderStyle.Render(senderLabel) + " " + timestampStyle.Render(fmt.Sprintf("[%d/%d]", index, total))
	if !msg.Timestamp.IsZero() {
		header += " " + timestampStyle.Render(msg.Timestamp.Local().Format("15:04:05"))
	}
	_, _ = fmt.Fprintln(out, header)

	content := strings.TrimSpace(msg.Content)
	if content != "" {
		_, _ = fmt.Fprintln(out, messageContentStyle.Render(wrapText(content, 80)))
	} else {
		_, _ = fmt.Fprintln(out, messageContentStyle.Foreground(lipgloss.Color("240")).Render("(empty message)"))
	}
	_, _ = fmt.Fprintln(out)
}

func wrapText(text string, width int) string {
	var wrapped []string
	for _, line := range strings.Split(text, "\n") {
		if len(line) <= width {
			wrapped = append(wrapped, line)
			continue
		}

		current := ""
		for _, word := range strings.Fields(line) {
			switch {
			case current == "":
				current = word
			case len(current)+len(word)+1 > width:
				wrapped = append(wrapped, current)
				current = word
			default:
				current += " " + word
			}
		}
		if current != "" {
			wrapped = append(wrapped, current)
		}
	}
	return strings.Join(wrapped, "\n")
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Limit number of messages to show")
	showCmd.Flags().StringVar(&since, "since", "", "Show messages since timestamp (RFC3339)")
	showCmd.Flags().BoolVar(&showOffline, "offline", false, "Read from the local cache instead of the server")
}
