package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/medsim/medsim/internal"
	"gopkg.in/yaml.v3"
)

func TestYAMLExporter_Export(t *testing.T) {
	tests := []struct {
		name string
		game *internal.Session
		want []string
	}{
		{
			name: "in progress",
			game: internal.CreateTestGame(1),
			want: []string{"id: 1", "is_finished: false", "sender: patient"},
		},
		{
			name: "finished",
			game: internal.CreateFinishedTestGame(2, "flu", 80, "good"),
			want: []string{"is_finished: true", "diagnosis: flu", "score: 80", "is_result: true"},
		},
		{
			name: "no messages",
			game: &internal.Session{ID: 3},
			want: []string{"id: 3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := (&YAMLExporter{}).Export(tt.game, &buf); err != nil {
				t.Fatalf("YAMLExporter.Export() error = %v", err)
			}

			output := buf.String()
			var decoded map[string]interface{}
			if err := yaml.Unmarshal([]byte(output), &decoded); err != nil {
				t.Fatalf("Output is not valid YAML: %v\nOutput: %s", err, output)
			}
			for _, wantStr := range tt.want {
				if !strings.Contains(output, wantStr) {
					t.Errorf("Output should contain %q, got:\n%s", wantStr, output)
				}
			}
		})
	}
}

func TestYAMLExporter_Extension(t *testing.T) {
	if got := (&YAMLExporter{}).Extension(); got != "yaml" {
		t.Errorf("YAMLExporter.Extension() = %v, want yaml", got)
	}
}
