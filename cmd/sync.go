package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/medsim/medsim/internal"
	"github.com/spf13/cobra"
)

var syncDryRun bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Retry saving finished games that failed to save",
	Long: `Finished games whose result could not be saved to the server are kept in
a local queue. sync retries each of them and removes the ones that succeed.

Use --dry-run to only list the queue.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		pending, err := a.db.Outbox().Pending()
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			internal.PrintSuccess(out, "Nothing to sync")
			return nil
		}

		if syncDryRun {
			w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
			_, _ = fmt.Fprintln(w, titleStyle.Render("Game")+"\t"+titleStyle.Render("Queued")+"\t"+titleStyle.Render("Attempts")+"\t"+titleStyle.Render("Last error")+"\t")
			for _, p := range pending {
				_, _ = fmt.Fprintf(w, "%d\t%s\t%d\t%s\t\n", p.Session.ID, p.QueuedAt.Local().Format("2006-01-02 15:04"), p.Attempts, p.LastError)
			}
			return w.Flush()
		}

		saved, err := a.store.Resync(cmd.Context())
		if saved > 0 {
			internal.PrintSuccess(out, fmt.Sprintf("Saved %d of %d game(s)", saved, len(pending)))
		}
		if err != nil {
			return fmt.Errorf("%d game(s) still queued: %w", len(pending)-saved, a.explain(err))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "List the queue without sending anything")
}
