package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/medsim/medsim/internal/api"
	"github.com/spf13/cobra"
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that medsim can reach the server and read its local state",
	Long: `Check the health of medsim by verifying:
  • The configuration loads and validates
  • The state database in the data directory opens
  • The server answers
  • A login is stored and its access token is current
  • Whether finished games are waiting for 'medsim sync'

Use --verbose for paths and details.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, sectionStyle.Render("🔍 medsim Health Check"))
		_, _ = fmt.Fprintln(out)

		// Step 1: Configuration
		_, _ = fmt.Fprintln(out, infoStyle.Render("Step 1: Loading configuration..."))
		a, err := openApp()
		if err != nil {
			_, _ = fmt.Fprintln(out, errorStyle.Render("❌ Setup failed:"), err)
			return fmt.Errorf("health check failed: %w", err)
		}
		defer a.Close()
		_, _ = fmt.Fprintln(out, successStyle.Render("✅ Configuration loaded"))
		if verbose {
			_, _ = fmt.Fprintf(out, "   Server: %s\n", a.client.BaseURL())
			_, _ = fmt.Fprintf(out, "   Game prefix: %s\n", a.cfg.GamePrefix)
			_, _ = fmt.Fprintf(out, "   Data dir: %s\n", a.cfg.DataDir)
			_, _ = fmt.Fprintf(out, "   Locale: %s\n", a.catalog.Tag())
		}
		_, _ = fmt.Fprintln(out)

		// Step 2: State database
		_, _ = fmt.Fprintln(out, infoStyle.Render("Step 2: Checking state database..."))
		_, _ = fmt.Fprintln(out, successStyle.Render("✅ State database opened"))
		if verbose {
			_, _ = fmt.Fprintf(out, "   Database: %s\n", a.db.Path())
		}
		_, _ = fmt.Fprintln(out)

		// Step 3: Server
		_, _ = fmt.Fprintln(out, infoStyle.Render("Step 3: Contacting server..."))
		reachable := true
		start := time.Now()
		if users, err := a.client.TopUsers(cmd.Context()); err != nil {
			reachable = false
			_, _ = fmt.Fprintln(out, errorStyle.Render("❌ Server did not answer:"), err)
		} else {
			_, _ = fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Server answered in %s", time.Since(start).Round(time.Millisecond))))
			if verbose {
				_, _ = fmt.Fprintf(out, "   Leaderboard entries: %d\n", len(users))
			}
		}
		_, _ = fmt.Fprintln(out)

		// Step 4: Login
		_, _ = fmt.Fprintln(out, infoStyle.Render("Step 4: Checking login..."))
		loggedIn := checkLogin(out, a.client, time.Now())
		_, _ = fmt.Fprintln(out)

		// Step 5: Queued results
		_, _ = fmt.Fprintln(out, infoStyle.Render("Step 5: Checking queued results..."))
		pending, err := a.db.Outbox().Pending()
		switch {
		case err != nil:
			_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  Failed to read queue:"), err)
		case len(pending) > 0:
			_, _ = fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("⚠️  %d finished game(s) not saved yet; run 'medsim sync'", len(pending))))
			if verbose {
				for _, p := range pending {
					_, _ = fmt.Fprintf(out, "   Game %d: %d attempt(s)\n", p.Session.ID, p.Attempts)
				}
			}
		default:
			_, _ = fmt.Fprintln(out, successStyle.Render("✅ Nothing queued"))
		}
		_, _ = fmt.Fprintln(out)

		// Summary
		_, _ = fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		_, _ = fmt.Fprintln(out)
		switch {
		case reachable && loggedIn:
			_, _ = fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
			return nil
		case reachable:
			_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  Server reachable but not logged in"))
			_, _ = fmt.Fprintln(out, "   • Run 'medsim login'")
			return nil
		default:
			_, _ = fmt.Fprintln(out, errorStyle.Render("❌ Health check failed"))
			_, _ = fmt.Fprintf(out, "   • Cannot reach %s\n", a.client.BaseURL())
			return errors.New("health check failed: server unreachable")
		}
	},
}

// checkLogin reports the stored login. An expired access token still counts
// as logged in since the next request refreshes it.
func checkLogin(out io.Writer, client *api.Client, now time.Time) bool {
	info, err := client.CurrentTokenInfo()
	switch {
	case errors.Is(err, api.ErrLoginRequired):
		_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  Not logged in"))
		return false
	case err != nil:
		_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  Stored login is unreadable:"), err)
		return false
	case info.Expired(now):
		_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  Access token expired; it is refreshed on the next request"))
	default:
		_, _ = fmt.Fprintln(out, successStyle.Render("✅ Logged in"))
	}
	if verbose && !info.ExpiresAt.IsZero() {
		_, _ = fmt.Fprintf(out, "   Access token expires: %s\n", info.ExpiresAt.Local().Format(time.RFC3339))
	}
	return true
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
}
