package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/medsim/medsim/internal"
)

func TestJSONExporter_Export(t *testing.T) {
	tests := []struct {
		name string
		game *internal.Session
	}{
		{name: "in progress", game: internal.CreateTestGame(1)},
		{name: "finished", game: internal.CreateFinishedTestGame(2, "flu", 80, "good")},
		{name: "no messages", game: &internal.Session{ID: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := (&JSONExporter{}).Export(tt.game, &buf); err != nil {
				t.Fatalf("JSONExporter.Export() error = %v", err)
			}

			output := buf.String()
			var got internal.Session
			if err := json.Unmarshal([]byte(output), &got); err != nil {
				t.Fatalf("Output is not valid JSON: %v\nOutput: %s", err, output)
			}
			if got.ID != tt.game.ID {
				t.Errorf("ID = %d, want %d", got.ID, tt.game.ID)
			}
			if got.IsFinished != tt.game.IsFinished {
				t.Errorf("IsFinished = %v, want %v", got.IsFinished, tt.game.IsFinished)
			}
			if len(got.Messages) != len(tt.game.Messages) {
				t.Errorf("got %d messages, want %d", len(got.Messages), len(tt.game.Messages))
			}
			if !strings.Contains(output, "  ") {
				t.Errorf("Output should be pretty-printed with indentation")
			}
		})
	}
}

func TestJSONExporter_ProvisionalID(t *testing.T) {
	game := internal.CreateFinishedTestGame(4, "flu", 80, "good")
	game.Messages[len(game.Messages)-1].Provisional = internal.NewProvisionalID()

	var buf bytes.Buffer
	if err := (&JSONExporter{}).Export(game, &buf); err != nil {
		t.Fatalf("JSONExporter.Export() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"id": null`) {
		t.Errorf("provisional message should be written with a null id:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "tmp-") {
		t.Errorf("provisional id leaked into the export:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), `"isResultMessage": true`) {
		t.Errorf("result marker missing:\n%s", buf.String())
	}
}

func TestJSONExporter_Extension(t *testing.T) {
	if got := (&JSONExporter{}).Extension(); got != "json" {
		t.Errorf("JSONExporter.Extension() = %v, want json", got)
	}
}
