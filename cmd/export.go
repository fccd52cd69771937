package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/medsim/medsim/internal"
	"github.com/medsim/medsim/internal/export"
	"github.com/spf13/cobra"
)

var (
	format        string
	outputDir     string
	exportOffline bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [game-id]",
	Short: "Export game transcripts to files",
	Long: `Export game transcripts to jsonl, md, yaml or json.

Without an id every past game is exported. Files are named game_<id>.<ext>.
With --offline the games come from the local cache.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var games []*internal.Session
		if len(args) == 1 {
			id, err := parseGameID(args[0])
			if err != nil {
				return err
			}
			game, err := a.loadGame(cmd, id, exportOffline)
			if err != nil {
				return err
			}
			games = append(games, game)
		} else if exportOffline {
			games, err = a.cache.LoadAllGames()
			if err != nil {
				return fmt.Errorf("failed to read cached games: %w", err)
			}
		} else {
			if err := a.store.LoadPastGames(cmd.Context()); err != nil {
				return a.explain(err)
			}
			games = a.store.Snapshot().Past
		}

		if len(games) == 0 {
			internal.PrintInfo(cmd.OutOrStdout(), "No games to export")
			return nil
		}

		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return &internal.ExportError{Format: format, Path: outputDir, Err: err}
		}

		exported := 0
		err = internal.ShowProgress(cmd.Context(), fmt.Sprintf("Exporting %d game(s) to %s", len(games), outputDir), func() error {
			for _, game := range games {
				path := filepath.Join(outputDir, export.FileName(game, exporter))
				if err := writeExport(exporter, game, path); err != nil {
					internal.LogError("%v", err)
					continue
				}
				exported++
			}
			return nil
		})
		if err != nil {
			return err
		}
		if exported < len(games) {
			return fmt.Errorf("exported %d of %d game(s); see the log for the failures", exported, len(games))
		}

		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Export complete: %d game(s) exported to %s", exported, outputDir))
		return nil
	},
}

func writeExport(exporter export.Exporter, game *internal.Session, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	if err := exporter.Export(game, file); err != nil {
		_ = file.Close()
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	if err := file.Close(); err != nil {
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "md", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory")
	exportCmd.Flags().BoolVar(&exportOffline, "offline", false, "Read from the local cache instead of the server")
}
