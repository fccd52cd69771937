package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/medsim/medsim/internal"
	"github.com/medsim/medsim/internal/api"
	"github.com/spf13/cobra"
)

var (
	inspectFormat string
)

// inspectReport is what inspect prints. Token values are never included.
type inspectReport struct {
	Database   string               `json:"database"`
	Tables     []internal.TableInfo `json:"tables"`
	Credential credentialStatus     `json:"credential"`
	Pending    []pendingStatus      `json:"pending"`
}

type credentialStatus struct {
	Stored    bool       `json:"stored"`
	UserID    string     `json:"user_id,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Expired   bool       `json:"expired"`
	Error     string     `json:"error,omitempty"`
}

type pendingStatus struct {
	GameID    int64     `json:"game_id"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error,omitempty"`
	QueuedAt  time.Time `json:"queued_at"`
}

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect the local state database",
	Long: `Inspect the sqlite database in the data directory that holds the login
and the queue of unsaved game results.

This command shows:
  • Tables, columns and row counts
  • Whether a login is stored and when its access token expires
  • Queued results waiting for 'medsim sync'

Token values are never printed.

Examples:
  medsim inspect                 # Text report
  medsim inspect --format json   # JSON report`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inspectFormat != "text" && inspectFormat != "json" {
			return fmt.Errorf("unsupported format: %s (supported: text, json)", inspectFormat)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := internal.OpenStateDB(cfg.StateDBPath())
		if err != nil {
			return fmt.Errorf("failed to open state database: %w", err)
		}
		defer func() { _ = db.Close() }()

		report, err := buildInspectReport(db, time.Now())
		if err != nil {
			return err
		}

		if inspectFormat == "json" {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		printInspectReport(cmd.OutOrStdout(), report)
		return nil
	},
}

func buildInspectReport(db *internal.StateDB, now time.Time) (*inspectReport, error) {
	tables, err := db.Describe()
	if err != nil {
		return nil, fmt.Errorf("failed to describe database: %w", err)
	}
	report := &inspectReport{Database: db.Path(), Tables: tables, Pending: []pendingStatus{}}

	pair, err := db.Credentials().Load()
	switch {
	case errors.Is(err, internal.ErrNoCredentials):
	case err != nil:
		report.Credential.Error = err.Error()
	default:
		report.Credential.Stored = true
		if info, err := api.ParseTokenInfo(pair.Access); err != nil {
			report.Credential.Error = err.Error()
		} else {
			report.Credential.UserID = info.UserID
			if !info.ExpiresAt.IsZero() {
				exp := info.ExpiresAt
				report.Credential.ExpiresAt = &exp
			}
			report.Credential.Expired = info.Expired(now)
		}
	}

	pending, err := db.Outbox().Pending()
	if err != nil {
		return nil, fmt.Errorf("failed to read queued results: %w", err)
	}
	for _, p := range pending {
		report.Pending = append(report.Pending, pendingStatus{
			GameID:    p.Session.ID,
			Attempts:  p.Attempts,
			LastError: p.LastError,
			QueuedAt:  p.QueuedAt,
		})
	}
	return report, nil
}

func printInspectReport(out io.Writer, r *inspectReport) {
	_, _ = fmt.Fprintf(out, "📋 Database: %s\n", r.Database)
	_, _ = fmt.Fprintf(out, "📊 Found %d table(s)\n\n", len(r.Tables))

	for _, t := range r.Tables {
		_, _ = fmt.Fprintf(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
		_, _ = fmt.Fprintf(out, "📦 Table: %s\n", t.Name)
		_, _ = fmt.Fprintf(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
		_, _ = fmt.Fprintf(out, "📊 Rows: %d\n\n", t.Rows)
		_, _ = fmt.Fprintf(out, "📐 Schema:\n")
		for _, col := range t.Columns {
			pk := ""
			if col.PrimaryKey {
				pk = " [PRIMARY KEY]"
			}
			notNull := ""
			if col.NotNull {
				notNull = " NOT NULL"
			}
			_, _ = fmt.Fprintf(out, "  • %s: %s%s%s\n", col.Name, col.Type, notNull, pk)
		}
		_, _ = fmt.Fprintln(out)
	}

	_, _ = fmt.Fprintf(out, "🔑 Login: ")
	c := r.Credential
	switch {
	case c.Error != "":
		_, _ = fmt.Fprintf(out, "unreadable (%s)\n", c.Error)
	case !c.Stored:
		_, _ = fmt.Fprintln(out, "none")
	default:
		line := "stored"
		if c.UserID != "" {
			line += fmt.Sprintf(" for user %s", c.UserID)
		}
		if c.ExpiresAt != nil {
			state := "expires"
			if c.Expired {
				state = "expired"
			}
			line += fmt.Sprintf(", access token %s %s", state, c.ExpiresAt.Local().Format(time.RFC3339))
		}
		_, _ = fmt.Fprintln(out, line)
	}

	_, _ = fmt.Fprintf(out, "📤 Queued results: %d\n", len(r.Pending))
	for _, p := range r.Pending {
		_, _ = fmt.Fprintf(out, "  • game %d, %d attempt(s), queued %s", p.GameID, p.Attempts, p.QueuedAt.Local().Format("2006-01-02 15:04"))
		if p.LastError != "" {
			_, _ = fmt.Fprintf(out, ": %s", p.LastError)
		}
		_, _ = fmt.Fprintln(out)
	}
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "text", "Output format (text, json)")
}
