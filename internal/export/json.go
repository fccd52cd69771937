package export

import (
	"encoding/json"
	"io"

	"github.com/medsim/medsim/internal"
)

// JSONExporter writes the game record as pretty-printed JSON, in the same
// shape the backend uses
type JSONExporter struct{}

func (e *JSONExporter) Export(game *internal.Session, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(game)
}

func (e *JSONExporter) Extension() string {
	return "json"
}
