package internal

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sender identifies who wrote a message
type Sender string

const (
	SenderDoctor  Sender = "doctor"
	SenderPatient Sender = "patient"
	SenderSystem  Sender = "system"
)

// ProvisionalID tags a message that exists only locally until the server
// confirms it. It lives in its own namespace and never equals a server id.
type ProvisionalID string

const provisionalPrefix = "tmp-"

// NewProvisionalID returns a fresh client-side message id
func NewProvisionalID() ProvisionalID {
	return ProvisionalID(provisionalPrefix + uuid.NewString())
}

// Valid reports whether the id carries the provisional namespace
func (p ProvisionalID) Valid() bool {
	return strings.HasPrefix(string(p), provisionalPrefix) && len(p) > len(provisionalPrefix)
}

// Message is a single transcript entry
type Message struct {
	ID          int64         `json:"id" yaml:"id,omitempty"`
	Provisional ProvisionalID `json:"-" yaml:"provisional,omitempty"`
	Sender      Sender        `json:"sender" yaml:"sender"`
	Content     string        `json:"content" yaml:"content"`
	Timestamp   time.Time     `json:"timestamp" yaml:"timestamp"`
	IsResult    bool          `json:"isResultMessage,omitempty" yaml:"is_result,omitempty"`
}

// IsProvisional reports whether the message still awaits server confirmation
func (m Message) IsProvisional() bool {
	return m.Provisional != ""
}

type wireMessage struct {
	ID        *int64    `json:"id"`
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	IsResult  bool      `json:"isResultMessage,omitempty"`
}

// MarshalJSON writes provisional messages with a null id so the backend
// never sees a client-made id
func (m Message) MarshalJSON() ([]byte, error) {
	w := wireMessage{
		Sender:    m.Sender,
		Content:   m.Content,
		Timestamp: m.Timestamp,
		IsResult:  m.IsResult,
	}
	if !m.IsProvisional() {
		id := m.ID
		w.ID = &id
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads a server message
func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*m = Message{
		Sender:    w.Sender,
		Content:   w.Content,
		Timestamp: w.Timestamp,
		IsResult:  w.IsResult,
	}
	if w.ID != nil {
		m.ID = *w.ID
	}
	return nil
}

// Session is one game: a chat with a simulated patient
type Session struct {
	ID         int64     `json:"id" yaml:"id"`
	Messages   []Message `json:"messages" yaml:"messages"`
	IsFinished bool      `json:"is_finished" yaml:"is_finished"`
	Diagnosis  *string   `json:"diagnosis" yaml:"diagnosis"`
	Score      *int      `json:"score" yaml:"score"`
	Feedback   *string   `json:"feedback" yaml:"feedback"`
	StartTime  time.Time `json:"start_time" yaml:"start_time"`
}

// IsPlaceholder reports whether the session is the local "no games yet" stand-in
func (s *Session) IsPlaceholder() bool {
	return s != nil && s.ID == 0
}

// AcceptsInput reports whether messages or a diagnosis may still be submitted
func (s *Session) AcceptsInput() bool {
	return s != nil && !s.IsPlaceholder() && !s.IsFinished
}

// Clone returns a deep copy
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Messages = append([]Message(nil), s.Messages...)
	if s.Diagnosis != nil {
		d := *s.Diagnosis
		c.Diagnosis = &d
	}
	if s.Score != nil {
		sc := *s.Score
		c.Score = &sc
	}
	if s.Feedback != nil {
		f := *s.Feedback
		c.Feedback = &f
	}
	return &c
}

// IndexOfProvisional returns the position of the message tagged with id, or -1
func (s *Session) IndexOfProvisional(id ProvisionalID) int {
	for i, msg := range s.Messages {
		if msg.Provisional == id {
			return i
		}
	}
	return -1
}

// DiagnosisText returns the diagnosis or an empty string
func (s *Session) DiagnosisText() string {
	if s.Diagnosis == nil {
		return ""
	}
	return *s.Diagnosis
}

// FeedbackText returns the feedback or an empty string
func (s *Session) FeedbackText() string {
	if s.Feedback == nil {
		return ""
	}
	return *s.Feedback
}

// User is the account part of a profile
type User struct {
	Username string `json:"username" yaml:"username"`
	Email    string `json:"email" yaml:"email"`
}

// Profile is the signed-in player's standing
type Profile struct {
	User   User `json:"user"`
	Points int  `json:"points"`
	Rank   *int `json:"rank"`
}

// TopUser is a leaderboard row
type TopUser = Profile

// Evaluation is the server's verdict on a diagnosis
type Evaluation struct {
	Score            int    `json:"score"`
	Feedback         string `json:"feedback"`
	CorrectDiagnosis string `json:"correct_diagnosis,omitempty"`
}

// TokenPair is the credential issued at login
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Difficulty selects how hard the generated case is
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty validates a difficulty name
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	default:
		return "", fmt.Errorf("unknown difficulty %q (supported: easy, medium, hard)", s)
	}
}
