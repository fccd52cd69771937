package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/medsim/medsim/internal"
	"github.com/medsim/medsim/internal/api"
	"github.com/medsim/medsim/internal/tui"
	"github.com/spf13/cobra"
)

var (
	difficulty string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Open the interactive game screen",
	Long: `Open the interactive screen: past games on the left, the transcript and
the message and diagnosis inputs on the right.

Keys: tab moves focus, enter submits or opens the selected game, ctrl+n
starts a new game, esc quits. Logs go to medsim.log in the data directory
while the screen is open.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := resolveDifficulty(a.cfg)
		if err != nil {
			return err
		}

		if err := internal.SetLogFile(a.cfg.LogPath()); err != nil {
			internal.LogWarn("Failed to open log file: %v", err)
		}
		err = tui.Run(a.store, a.catalog, d)
		internal.ResetLogOutput()
		if errors.Is(err, api.ErrLoginRequired) {
			return a.explain(err)
		}
		return err
	},
}

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new game",
	Long:  `Ask the server for a new patient and print their opening message.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		d, err := resolveDifficulty(a.cfg)
		if err != nil {
			return err
		}
		if err := a.store.NewGame(cmd.Context(), d); err != nil {
			return a.explain(err)
		}

		out := cmd.OutOrStdout()
		game := a.store.Snapshot().Current
		internal.PrintSuccess(out, fmt.Sprintf("Started game %d (%s)", game.ID, d))
		_, _ = fmt.Fprintln(out)
		for i, msg := range game.Messages {
			displayMessage(out, i+1, msg, len(game.Messages))
		}
		_, _ = fmt.Fprintln(out, idStyle.Render(fmt.Sprintf("💡 Tip: reply with `medsim send %d <message>`", game.ID)))
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <game-id> <message...>",
	Short: "Send a message to the patient",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseGameID(args[0])
		if err != nil {
			return err
		}
		text := strings.Join(args[1:], " ")
		if strings.TrimSpace(text) == "" {
			return errors.New("message must not be empty")
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		game, err := a.openForInput(cmd, id)
		if err != nil {
			return err
		}
		before := len(game.Messages)

		a.store.SetDraft(text)
		if err := a.store.Send(cmd.Context()); err != nil {
			return a.explain(err)
		}

		out := cmd.OutOrStdout()
		game = a.store.Snapshot().Current
		for i := before; i < len(game.Messages); i++ {
			if game.Messages[i].Sender == internal.SenderDoctor {
				continue
			}
			displayMessage(out, i+1, game.Messages[i], len(game.Messages))
		}
		return nil
	},
}

var endCmd = &cobra.Command{
	Use:   "end <game-id> <diagnosis...>",
	Short: "Submit a diagnosis and finish the game",
	Long: `Submit your diagnosis. The server scores it and the game is closed.

If the finished game cannot be saved back to the server, the result is kept
locally and queued; run 'medsim sync' to retry.`,
	Args: cobra.MinimumNArgs(2),
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

		if _, err := a.openForInput(cmd, id); err != nil {
			return err
		}

		a.store.SetDiagnosis(strings.Join(args[1:], " "))
		endErr := a.store.EndGame(cmd.Context())

		out := cmd.OutOrStdout()
		view := a.store.Snapshot()
		if view.LoggedOut {
			// the store dropped the session; a finished result survives only in the outbox
			if queued := a.queuedGame(id); queued != nil {
				printSummary(out, queued)
				internal.PrintWarning(out, "The result was queued but your login expired. Run 'medsim login' and then 'medsim sync'.")
			}
			return a.explain(endErr)
		}

		game := view.Current
		if game == nil || (endErr != nil && !game.IsFinished) {
			return a.explain(endErr)
		}
		printSummary(out, game)

		if endErr != nil {
			internal.PrintWarning(out, "The result could not be saved and was queued. Run 'medsim sync' to retry.")
			internal.LogDebug("Saving game %d failed: %v", id, endErr)
		}
		return nil
	},
}

func printSummary(out io.Writer, game *internal.Session) {
	if len(game.Messages) == 0 {
		return
	}
	last := game.Messages[len(game.Messages)-1]
	_, _ = fmt.Fprintln(out, messageContentStyle.Render(wrapText(last.Content, 80)))
}

// queuedGame returns the outbox copy of game id, or nil
func (a *app) queuedGame(id int64) *internal.Session {
	pending, err := a.db.Outbox().Pending()
	if err != nil {
		internal.LogWarn("Failed to read queued results: %v", err)
		return nil
	}
	for _, p := range pending {
		if p.Session.ID == id {
			return p.Session
		}
	}
	return nil
}

// openForInput makes game id current and checks it still takes input
func (a *app) openForInput(cmd *cobra.Command, id int64) (*internal.Session, error) {
	game, err := a.loadGame(cmd, id, false)
	if err != nil {
		return nil, err
	}
	if !game.AcceptsInput() {
		return nil, fmt.Errorf("game %d is already finished", id)
	}
	return game, nil
}

func resolveDifficulty(cfg *internal.Config) (internal.Difficulty, error) {
	if difficulty == "" {
		return cfg.DefaultDifficulty, nil
	}
	return internal.ParseDifficulty(difficulty)
}

func init() {
	rootCmd.AddCommand(playCmd, newCmd, sendCmd, endCmd)
	playCmd.Flags().StringVarP(&difficulty, "difficulty", "d", "", "Difficulty for games started with ctrl+n (easy, medium, hard)")
	newCmd.Flags().StringVarP(&difficulty, "difficulty", "d", "", "Case difficulty (easy, medium, hard)")
}
