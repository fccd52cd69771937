package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/medsim/medsim/internal"
)

// JSONLExporter writes one message per line
type JSONLExporter struct{}

type jsonlLine struct {
	GameID    int64           `json:"game_id"`
	ID        *int64          `json:"id"`
	Sender    internal.Sender `json:"sender"`
	Content   string          `json:"content"`
	Timestamp string          `json:"timestamp,omitempty"`
	IsResult  bool            `json:"is_result,omitempty"`
}

func (e *JSONLExporter) Export(game *internal.Session, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for _, msg := range game.Messages {
		line := jsonlLine{
			GameID:   game.ID,
			Sender:   msg.Sender,
			Content:  msg.Content,
			IsResult: msg.IsResult,
		}
		if !msg.IsProvisional() {
			id := msg.ID
			line.ID = &id
		}
		if !msg.Timestamp.IsZero() {
			line.Timestamp = msg.Timestamp.UTC().Format(time.RFC3339)
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}
	return nil
}

func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
