package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/medsim/medsim/internal"
)

// Exporter writes one game transcript in a file format
type Exporter interface {
	Export(game *internal.Session, w io.Writer) error
	Extension() string
}

// Formats lists the accepted format names
var Formats = []string{"md", "json", "jsonl", "yaml"}

// NewExporter creates an exporter for format
func NewExporter(format string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(Formats, ", "))
	}
}

// FileName is the file a game is exported to
func FileName(game *internal.Session, e Exporter) string {
	return fmt.Sprintf("game_%d.%s", game.ID, e.Extension())
}
