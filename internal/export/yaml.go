package export

import (
	"io"

	"github.com/medsim/medsim/internal"
	"gopkg.in/yaml.v3"
)

// YAMLExporter writes the game record as YAML
type YAMLExporter struct{}

func (e *YAMLExporter) Export(game *internal.Session, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()

	return enc.Encode(game)
}

func (e *YAMLExporter) Extension() string {
	return "yaml"
}
