package internal

import (
	"time"
)

// CreateTestGame creates an unfinished game with a short exchange
func CreateTestGame(id int64) *Session {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return &Session{
		ID:        id,
		StartTime: start,
		Messages: []Message{
			{
				ID:        id*100 + 1,
				Sender:    SenderPatient,
				Content:   "Doctor, I have had a fever for three days.",
				Timestamp: start,
			},
			{
				ID:        id*100 + 2,
				Sender:    SenderDoctor,
				Content:   "Do you have a cough?",
				Timestamp: start.Add(time.Minute),
			},
			{
				ID:        id*100 + 3,
				Sender:    SenderPatient,
				Content:   "Yes, a dry one.",
				Timestamp: start.Add(2 * time.Minute),
			},
		},
	}
}

// CreateFinishedTestGame creates a scored game ending with a result message
func CreateFinishedTestGame(id int64, diagnosis string, score int, feedback string) *Session {
	game := CreateTestGame(id)
	game.IsFinished = true
	game.Diagnosis = &diagnosis
	game.Score = &score
	game.Feedback = &feedback
	game.Messages = append(game.Messages, Message{
		Sender:    SenderSystem,
		Content:   NewCatalog("en").Format(TextGameSummary, diagnosis, score, feedback),
		Timestamp: game.StartTime.Add(5 * time.Minute),
		IsResult:  true,
	})
	return game
}
