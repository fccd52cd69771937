// Package game holds the client-side state of a play session: the current
// game, the past-games list, the two input drafts and the last error.
//
// The store never holds its lock across a network call. A busy flag keeps at
// most one request in flight; operations started while busy are no-ops.
package game

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/medsim/medsim/internal"
	"github.com/medsim/medsim/internal/api"
)

// API is the part of the backend client the store needs
type API interface {
	Profile(ctx context.Context) (*internal.Profile, error)
	PastGames(ctx context.Context) ([]*internal.Session, error)
	Game(ctx context.Context, id int64) (*internal.Session, error)
	NewGame(ctx context.Context, difficulty internal.Difficulty) (*internal.Session, error)
	SendMessage(ctx context.Context, id int64, content string) (*internal.Message, error)
	EndGame(ctx context.Context, id int64, answer string) (*internal.Evaluation, error)
	UpdateGame(ctx context.Context, game *internal.Session) (*internal.Session, error)
}

// View is a copy of the store state, safe to read without locking
type View struct {
	Profile   *internal.Profile
	Current   *internal.Session
	Past      []*internal.Session
	Draft     string
	Diagnosis string
	Busy      bool
	Error     string
	LoggedOut bool
}

// Option configures a Store
type Option func(*Store)

// WithCatalog sets the locale used for error and summary texts
func WithCatalog(c *internal.Catalog) Option {
	return func(s *Store) { s.catalog = c }
}

// WithCache writes every loaded game to the offline cache
func WithCache(cm *internal.CacheManager) Option {
	return func(s *Store) { s.cache = cm }
}

// WithOutbox queues finished games whose result could not be saved
func WithOutbox(o *internal.Outbox) Option {
	return func(s *Store) { s.outbox = o }
}

// WithClock overrides time.Now for message timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store is the game session state machine
type Store struct {
	api     API
	catalog *internal.Catalog
	cache   *internal.CacheManager
	outbox  *internal.Outbox
	now     func() time.Time

	mu        sync.Mutex
	profile   *internal.Profile
	current   *internal.Session
	past      []*internal.Session
	draft     string
	diagnosis string
	busy      bool
	errText   string
	loggedOut bool

	lmu       sync.Mutex
	listeners []func()
}

// NewStore creates an empty store
func NewStore(client API, opts ...Option) *Store {
	s := &Store{
		api:     client,
		catalog: internal.NewCatalog(""),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers fn to run after every state change. fn runs without
// the store lock held and may call Snapshot.
func (s *Store) OnChange(fn func()) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify() {
	s.lmu.Lock()
	listeners := append([]func(){}, s.listeners...)
	s.lmu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// Snapshot returns a deep copy of the current state
func (s *Store) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		Current:   s.current.Clone(),
		Past:      make([]*internal.Session, len(s.past)),
		Draft:     s.draft,
		Diagnosis: s.diagnosis,
		Busy:      s.busy,
		Error:     s.errText,
		LoggedOut: s.loggedOut,
	}
	if s.profile != nil {
		p := *s.profile
		v.Profile = &p
	}
	for i, g := range s.past {
		v.Past[i] = g.Clone()
	}
	return v
}

// SetDraft replaces the message input
func (s *Store) SetDraft(text string) {
	s.mu.Lock()
	s.draft = text
	s.mu.Unlock()
	s.notify()
}

// SetDiagnosis replaces the diagnosis input
func (s *Store) SetDiagnosis(text string) {
	s.mu.Lock()
	s.diagnosis = text
	s.mu.Unlock()
	s.notify()
}

// ClearError dismisses the last error text
func (s *Store) ClearError() {
	s.mu.Lock()
	s.errText = ""
	s.mu.Unlock()
	s.notify()
}

// begin marks the store busy. It returns false if a request is already in
// flight.
func (s *Store) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	s.errText = ""
	return true
}

func (s *Store) end() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
	s.notify()
}

// failLocked records err. An auth failure wipes the session state and marks
// the store logged out; anything else sets the text for key.
func (s *Store) failLocked(err error, key internal.TextKey) {
	if api.IsAuthFailure(err) {
		internal.LogWarn("Session ended: %v", err)
		s.profile = nil
		s.current = nil
		s.past = nil
		s.draft = ""
		s.diagnosis = ""
		s.errText = s.catalog.Text(internal.TextAuthFailed)
		s.loggedOut = true
		return
	}
	internal.LogError("%s: %v", s.catalog.Text(key), err)
	s.errText = s.catalog.Text(key)
}

// Open checks the stored login and loads the past games. ErrLoginRequired
// and ErrSessionExpired mean the user has to log in again.
func (s *Store) Open(ctx context.Context) error {
	if !s.begin() {
		return nil
	}
	defer s.end()

	profile, err := s.api.Profile(ctx)
	if err != nil {
		s.mu.Lock()
		if errors.Is(err, api.ErrLoginRequired) {
			s.loggedOut = true
			s.errText = s.catalog.Text(internal.TextLoginRequired)
		} else {
			s.failLocked(err, internal.TextLoadGamesFailed)
		}
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.profile = profile
	s.loggedOut = false
	s.mu.Unlock()

	return s.loadPastGames(ctx)
}

// LoadPastGames replaces the past-games list with the server's, in server
// order, and makes the first one current
func (s *Store) LoadPastGames(ctx context.Context) error {
	if !s.begin() {
		return nil
	}
	defer s.end()
	return s.loadPastGames(ctx)
}

func (s *Store) loadPastGames(ctx context.Context) error {
	games, err := s.api.PastGames(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.failLocked(err, internal.TextLoadGamesFailed)
		return err
	}

	s.past = games
	if len(games) > 0 {
		s.current = games[0].Clone()
	} else {
		s.current = s.placeholder()
	}
	internal.LogDebug("Loaded %d past games", len(games))

	if s.cache != nil {
		if err := s.cache.SaveGames(games); err != nil {
			internal.LogWarn("Failed to update game cache: %v", err)
		}
	}
	return nil
}

// placeholder is the local stand-in shown when the player has no games
func (s *Store) placeholder() *internal.Session {
	now := s.now()
	return &internal.Session{
		StartTime: now,
		Messages: []internal.Message{{
			Provisional: internal.NewProvisionalID(),
			Sender:      internal.SenderPatient,
			Content:     s.catalog.Text(internal.TextNoGamesYet),
			Timestamp:   now,
		}},
	}
}

// Select loads game id from the server and makes it current
func (s *Store) Select(ctx context.Context, id int64) error {
	if !s.begin() {
		return nil
	}
	defer s.end()

	game, err := s.api.Game(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.failLocked(err, internal.TextLoadGameFailed)
		return err
	}
	s.current = game
	s.cacheLocked(game)
	return nil
}

// NewGame creates a game, puts it at the top of the past games and makes
// it current
func (s *Store) NewGame(ctx context.Context, difficulty internal.Difficulty) error {
	if !s.begin() {
		return nil
	}
	defer s.end()

	game, err := s.api.NewGame(ctx, difficulty)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.failLocked(err, internal.TextCreateGameFailed)
		return err
	}
	s.past = append([]*internal.Session{game.Clone()}, s.past...)
	s.current = game
	s.draft = ""
	s.diagnosis = ""
	s.cacheLocked(game)
	return nil
}

// Send posts the message draft to the current game. The doctor's line shows
// up immediately under a provisional id; it is removed again if the server
// rejects it, and the draft is kept for another try.
func (s *Store) Send(ctx context.Context) error {
	s.mu.Lock()
	content := s.draft
	if strings.TrimSpace(content) == "" || !s.current.AcceptsInput() || s.busy {
		s.mu.Unlock()
		return nil
	}
	gameID := s.current.ID
	pid := internal.NewProvisionalID()
	s.current.Messages = append(s.current.Messages, internal.Message{
		Provisional: pid,
		Sender:      internal.SenderDoctor,
		Content:     content,
		Timestamp:   s.now(),
	})
	s.busy = true
	s.errText = ""
	s.mu.Unlock()
	s.notify()
	defer s.end()

	reply, err := s.api.SendMessage(ctx, gameID, content)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		if !api.IsAuthFailure(err) && s.current != nil && s.current.ID == gameID {
			if i := s.current.IndexOfProvisional(pid); i >= 0 {
				s.current.Messages = append(s.current.Messages[:i], s.current.Messages[i+1:]...)
			}
		}
		s.failLocked(err, internal.TextSendFailed)
		return err
	}

	if s.current != nil && s.current.ID == gameID {
		s.current.Messages = append(s.current.Messages, *reply)
		s.replacePastLocked(s.current)
		s.cacheLocked(s.current)
	}
	s.draft = ""
	return nil
}

// EndGame submits the diagnosis draft for the current game. On success the
// game is marked finished in both the current view and the past games, a
// summary message is appended, and the full record is saved back to the
// server. A failed save keeps the finished state and queues the record in
// the outbox.
func (s *Store) EndGame(ctx context.Context) error {
	s.mu.Lock()
	if !s.current.AcceptsInput() || s.busy {
		s.mu.Unlock()
		return nil
	}
	gameID := s.current.ID
	answer := s.diagnosis
	s.busy = true
	s.errText = ""
	s.mu.Unlock()
	s.notify()
	defer s.end()

	eval, err := s.api.EndGame(ctx, gameID, answer)
	if err != nil {
		s.mu.Lock()
		s.failLocked(err, internal.TextEndGameFailed)
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	if s.current == nil || s.current.ID != gameID {
		s.mu.Unlock()
		return nil
	}
	finished := s.current.Clone()
	finished.IsFinished = true
	finished.Diagnosis = &answer
	score := eval.Score
	feedback := eval.Feedback
	finished.Score = &score
	finished.Feedback = &feedback
	finished.Messages = append(finished.Messages, internal.Message{
		Provisional: internal.NewProvisionalID(),
		Sender:      internal.SenderSystem,
		Content:     s.catalog.Format(internal.TextGameSummary, answer, eval.Score, eval.Feedback),
		Timestamp:   s.now(),
		IsResult:    true,
	})
	s.current = finished
	s.replacePastLocked(finished)
	s.diagnosis = ""
	s.cacheLocked(finished)
	record := finished.Clone()
	s.mu.Unlock()
	s.notify()

	internal.LogInfo("Game %d finished with score %d", gameID, eval.Score)
	return s.persist(ctx, record)
}

// persist saves a finished game record. Failure is reported but never
// reverts the finished state.
func (s *Store) persist(ctx context.Context, record *internal.Session) error {
	_, err := s.api.UpdateGame(ctx, record)
	if err == nil {
		return nil
	}

	if s.outbox != nil {
		if qerr := s.outbox.Enqueue(record, err); qerr != nil {
			internal.LogError("Failed to queue game %d for sync: %v", record.ID, qerr)
		} else {
			internal.LogInfo("Queued game %d for sync", record.ID)
		}
	}

	s.mu.Lock()
	s.failLocked(err, internal.TextSaveResultFailed)
	s.mu.Unlock()
	return err
}

// Resync retries every queued game record. It returns how many were saved.
// It stops at the first auth failure and does nothing while busy.
func (s *Store) Resync(ctx context.Context) (int, error) {
	if s.outbox == nil {
		return 0, nil
	}
	if !s.begin() {
		return 0, nil
	}
	defer s.end()

	pending, err := s.outbox.Pending()
	if err != nil {
		return 0, err
	}

	saved := 0
	var errs []error
	for _, p := range pending {
		if _, err := s.api.UpdateGame(ctx, p.Session); err != nil {
			if api.IsAuthFailure(err) {
				s.mu.Lock()
				s.failLocked(err, internal.TextSaveResultFailed)
				s.mu.Unlock()
				return saved, err
			}
			if merr := s.outbox.MarkAttempt(p.Session.ID, err); merr != nil {
				internal.LogWarn("Failed to record sync attempt for game %d: %v", p.Session.ID, merr)
			}
			errs = append(errs, err)
			continue
		}
		if err := s.outbox.Remove(p.Session.ID); err != nil {
			errs = append(errs, err)
			continue
		}
		saved++
	}
	if saved > 0 {
		internal.LogInfo("Synced %d queued games", saved)
	}
	return saved, errors.Join(errs...)
}

// replacePastLocked swaps the past-games entry with game's id
func (s *Store) replacePastLocked(game *internal.Session) {
	for i, g := range s.past {
		if g.ID == game.ID {
			s.past[i] = game.Clone()
			return
		}
	}
}

func (s *Store) cacheLocked(game *internal.Session) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SaveGameAndUpdateIndex(game); err != nil {
		internal.LogWarn("Failed to cache game %d: %v", game.ID, err)
	}
}
