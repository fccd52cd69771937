package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/medsim/medsim/internal"
	"github.com/medsim/medsim/internal/api"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	loginUsername string
	loginPassword string
	registerEmail string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	Long: `Sign in with your username and password. The tokens are kept in the
state database in the data directory; the password is not stored.

Without --username/--password you are prompted. The password is not echoed
when reading from a terminal.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		username, password, err := promptCredentials(cmd, loginUsername, loginPassword)
		if err != nil {
			return err
		}
		if err := a.client.Login(cmd.Context(), username, password); err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Logged in as %s", username))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.client.Logout(); err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Long:  `Create an account on the server. Run 'medsim login' afterwards.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		username, password, err := promptCredentials(cmd, loginUsername, loginPassword)
		if err != nil {
			return err
		}
		email := registerEmail
		if email == "" {
			if email, err = promptLine(cmd, "Email: "); err != nil {
				return err
			}
		}

		req := api.RegisterRequest{Username: username, Email: email, Password: password}
		if err := a.client.Register(cmd.Context(), req); err != nil {
			return err
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Registered %s. Run 'medsim login' to sign in.", username))
		return nil
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show your points and rank",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		profile, err := a.client.Profile(cmd.Context())
		if err != nil {
			return a.explain(err)
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintln(out, headerStyle.Render("👤 "+profile.User.Username))
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintf(w, "Email:\t%s\n", profile.User.Email)
		_, _ = fmt.Fprintf(w, "Points:\t%d\n", profile.Points)
		_, _ = fmt.Fprintf(w, "Rank:\t%s\n", formatRank(profile.Rank))
		if info, err := a.client.CurrentTokenInfo(); err == nil && !info.ExpiresAt.IsZero() {
			_, _ = fmt.Fprintf(w, "Session expires:\t%s\n", info.ExpiresAt.Local().Format(time.RFC3339))
		}
		return w.Flush()
	},
}

var leaderboardCmd = &cobra.Command{
	Use:     "leaderboard",
	Aliases: []string{"top"},
	Short:   "Show the top players",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		users, err := a.client.TopUsers(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(users) == 0 {
			_, _ = fmt.Fprintln(out, headerStyle.Render("🏆 No players yet"))
			return nil
		}
		_, _ = fmt.Fprintln(out, headerStyle.Render("🏆 Leaderboard"))
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, titleStyle.Render("#")+"\t"+titleStyle.Render("Player")+"\t"+titleStyle.Render("Points")+"\t")
		for i, u := range users {
			rank := strconv.Itoa(i + 1)
			if u.Rank != nil {
				rank = strconv.Itoa(*u.Rank)
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t\n", rank, u.User.Username, countStyle.Render(strconv.Itoa(u.Points)))
		}
		return w.Flush()
	},
}

func formatRank(rank *int) string {
	if rank == nil {
		return "—"
	}
	return strconv.Itoa(*rank)
}

// promptCredentials fills in whatever was not given as a flag
func promptCredentials(cmd *cobra.Command, username, password string) (string, string, error) {
	var err error
	if username == "" {
		if username, err = promptLine(cmd, "Username: "); err != nil {
			return "", "", err
		}
	}
	if password == "" {
		if password, err = promptPassword(cmd, "Password: "); err != nil {
			return "", "", err
		}
	}
	if username == "" || password == "" {
		return "", "", errors.New("username and password are required")
	}
	return username, password, nil
}

// consecutive prompts share one reader so buffered input is not lost
var (
	promptSource io.Reader
	promptReader *bufio.Reader
)

func inputReader(cmd *cobra.Command) *bufio.Reader {
	in := cmd.InOrStdin()
	if promptReader == nil || promptSource != in {
		promptSource = in
		promptReader = bufio.NewReader(in)
	}
	return promptReader
}

func promptLine(cmd *cobra.Command, label string) (string, error) {
	_, _ = fmt.Fprint(cmd.ErrOrStderr(), label)
	line, err := inputReader(cmd).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func promptPassword(cmd *cobra.Command, label string) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), label)
		secret, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(secret), nil
	}
	return promptLine(cmd, label)
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, registerCmd, profileCmd, leaderboardCmd)
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVarP(&loginUsername, "username", "u", "", "Username")
		c.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (prompted if omitted)")
	}
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Email address")
}
