package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/medsim/medsim/internal"
)

const timeLayout = "2006-01-02 15:04"

// MarkdownExporter writes a readable transcript
type MarkdownExporter struct{}

func (e *MarkdownExporter) Export(game *internal.Session, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# Game %d\n\n", game.ID)

	if !game.StartTime.IsZero() {
		_, _ = fmt.Fprintf(w, "**Started:** %s  \n", game.StartTime.Format(timeLayout))
	}
	if game.IsFinished {
		_, _ = fmt.Fprintf(w, "**Status:** finished  \n")
		_, _ = fmt.Fprintf(w, "**Diagnosis:** %s  \n", escapeMarkdown(game.DiagnosisText()))
		if game.Score != nil {
			_, _ = fmt.Fprintf(w, "**Score:** %d  \n", *game.Score)
		}
		if fb := game.FeedbackText(); fb != "" {
			_, _ = fmt.Fprintf(w, "**Feedback:** %s  \n", escapeMarkdown(fb))
		}
	} else {
		_, _ = fmt.Fprintf(w, "**Status:** in progress  \n")
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(game.Messages))

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Transcript\n\n")

	for i, msg := range game.Messages {
		timestamp := ""
		if !msg.Timestamp.IsZero() {
			timestamp = fmt.Sprintf(" (%s)", msg.Timestamp.Format(timeLayout))
		}
		content := escapeMarkdown(msg.Content)

		if msg.IsResult {
			// result summaries render as a quote
			content = "> " + strings.ReplaceAll(content, "\n", "\n> ")
		}
		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", msg.Sender, timestamp, content)

		if i < len(game.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}
	return nil
}

// escapeMarkdown escapes emphasis markers outside code blocks
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	result := make([]string, 0, len(lines))
	inCodeBlock := false

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "```"):
			inCodeBlock = !inCodeBlock
		case !inCodeBlock:
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
		}
		result = append(result, line)
	}
	return strings.Join(result, "\n")
}

func (e *MarkdownExporter) Extension() string {
	return "md"
}
