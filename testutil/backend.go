package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/medsim/medsim/internal"
)

// Route names accepted by FakeBackend.SetStatus and FakeBackend.Count
const (
	RouteLogin       = "login"
	RouteRefresh     = "refresh"
	RouteRegister    = "register"
	RouteProfile     = "profile"
	RouteTopUsers    = "top-users"
	RoutePastGames   = "past-games"
	RouteGame        = "game"
	RouteNewChat     = "new-chat"
	RouteSendMessage = "send-message"
	RouteEndGame     = "end-game"
	RouteUpdateGame  = "update-game"
)

// FakeBackend is an in-memory stand-in for the simulator REST API
type FakeBackend struct {
	Server *httptest.Server

	// Evaluation is returned by end-game
	Evaluation internal.Evaluation
	// PatientReply is the content of every patient answer
	PatientReply string
	// Profile is returned by the profile endpoint
	Profile internal.Profile
	// TopUsers is returned by the leaderboard endpoint
	TopUsers []internal.TopUser

	mu        sync.Mutex
	prefix    string
	users     map[string]string
	access    map[string]bool
	refresh   map[string]bool
	games     map[int64]*internal.Session
	order     []int64
	nextGame  int64
	nextMsg   int64
	nextToken int
	statuses  map[string]int
	counts    map[string]int
}

// NewFakeBackend starts a fake backend serving games under prefix
func NewFakeBackend(t *testing.T, prefix string) *FakeBackend {
	t.Helper()
	rank := 3
	f := &FakeBackend{
		Evaluation:   internal.Evaluation{Score: 80, Feedback: "good", CorrectDiagnosis: "influenza"},
		PatientReply: "It started three days ago.",
		Profile: internal.Profile{
			User:   internal.User{Username: "house", Email: "house@example.com"},
			Points: 1200,
			Rank:   &rank,
		},
		prefix:   "/" + strings.Trim(prefix, "/"),
		users:    map[string]string{"house": "vicodin"},
		access:   map[string]bool{},
		refresh:  map[string]bool{},
		games:    map[int64]*internal.Session{},
		nextGame: 1,
		nextMsg:  1,
		statuses: map[string]int{},
		counts:   map[string]int{},
	}
	f.Server = httptest.NewServer(f.routes())
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the server root
func (f *FakeBackend) URL() string {
	return f.Server.URL
}

func (f *FakeBackend) routes() http.Handler {
	r := chi.NewRouter()

	r.Post("/api/token/", f.track(RouteLogin, f.handleLogin))
	r.Post("/api/token/update/", f.track(RouteRefresh, f.handleRefresh))
	r.Post("/api/users/users/register/", f.track(RouteRegister, f.handleRegister))
	r.Get("/api/users/profile/", f.track(RouteProfile, f.authed(f.handleProfile)))
	r.Get("/api/users/top-users/", f.track(RouteTopUsers, f.handleTopUsers))

	r.Route(f.prefix, func(g chi.Router) {
		g.Get("/past-games", f.track(RoutePastGames, f.authed(f.handlePastGames)))
		g.Post("/new-chat", f.track(RouteNewChat, f.authed(f.handleNewChat)))
		g.Get("/chats/{id}/", f.track(RouteGame, f.authed(f.handleGame)))
		g.Put("/chats/{id}/", f.track(RouteUpdateGame, f.authed(f.handleUpdate)))
		g.Post("/chats/{id}/send-message", f.track(RouteSendMessage, f.authed(f.handleSend)))
		g.Post("/chats/{id}/end-game", f.track(RouteEndGame, f.authed(f.handleEnd)))
	})
	return r
}

// SetStatus forces route to answer with code. Zero restores normal behavior.
func (f *FakeBackend) SetStatus(route string, code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if code == 0 {
		delete(f.statuses, route)
		return
	}
	f.statuses[route] = code
}

// Count returns how many requests route has received
func (f *FakeBackend) Count(route string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[route]
}

// ResetCounts zeroes every request counter
func (f *FakeBackend) ResetCounts() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts = map[string]int{}
}

// IssueTokens mints a valid credential pair
func (f *FakeBackend) IssueTokens() internal.TokenPair {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issueLocked()
}

func (f *FakeBackend) issueLocked() internal.TokenPair {
	f.nextToken++
	pair := internal.TokenPair{
		Access:  signToken(f.nextToken, "access", 5*time.Minute),
		Refresh: signToken(f.nextToken, "refresh", 24*time.Hour),
	}
	f.access[pair.Access] = true
	f.refresh[pair.Refresh] = true
	return pair
}

func signToken(n int, kind string, ttl time.Duration) string {
	claims := jwt.MapClaims{
		"user_id":    1,
		"token_type": kind,
		"jti":        strconv.Itoa(n),
		"exp":        time.Now().Add(ttl).Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("fake-backend-secret"))
	if err != nil {
		panic(err)
	}
	return s
}

// ExpireAccessTokens invalidates every access token issued so far
func (f *FakeBackend) ExpireAccessTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.access = map[string]bool{}
}

// RevokeRefreshTokens invalidates every refresh token issued so far
func (f *FakeBackend) RevokeRefreshTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refresh = map[string]bool{}
}

// AddGame stores game as the most recent one
func (f *FakeBackend) AddGame(game *internal.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := game.Clone()
	f.games[g.ID] = g
	f.order = append([]int64{g.ID}, f.order...)
	if g.ID >= f.nextGame {
		f.nextGame = g.ID + 1
	}
	for _, m := range g.Messages {
		if m.ID >= f.nextMsg {
			f.nextMsg = m.ID + 1
		}
	}
}

// Game returns the server-side copy of a game
func (f *FakeBackend) Game(id int64) *internal.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.games[id].Clone()
}

func (f *FakeBackend) track(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.counts[route]++
		code := f.statuses[route]
		f.mu.Unlock()

		if code != 0 {
			writeJSON(w, code, map[string]string{"detail": fmt.Sprintf("forced status %d", code)})
			return
		}
		h(w, r)
	}
}

func (f *FakeBackend) authed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		f.mu.Lock()
		ok := token != "" && f.access[token]
		f.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Given token not valid for any token type"})
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func (f *FakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if pw, ok := f.users[req.Username]; !ok || pw != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
		return
	}
	writeJSON(w, http.StatusOK, f.issueLocked())
}

func (f *FakeBackend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.refresh[req.Refresh] {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired"})
		return
	}
	f.nextToken++
	access := signToken(f.nextToken, "access", 5*time.Minute)
	f.access[access] = true
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

func (f *FakeBackend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil || req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "username and password are required"})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.users[req.Username]; exists {
		writeJSON(w, http.StatusBadRequest, map[string]string{"username": "A user with that username already exists."})
		return
	}
	f.users[req.Username] = req.Password
	writeJSON(w, http.StatusCreated, map[string]string{"username": req.Username, "email": req.Email})
}

func (f *FakeBackend) handleProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, f.Profile)
}

func (f *FakeBackend) handleTopUsers(w http.ResponseWriter, r *http.Request) {
	users := f.TopUsers
	if users == nil {
		users = []internal.TopUser{f.Profile}
	}
	writeJSON(w, http.StatusOK, users)
}

func (f *FakeBackend) handlePastGames(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	games := make([]*internal.Session, 0, len(f.order))
	for _, id := range f.order {
		games = append(games, f.games[id])
	}
	writeJSON(w, http.StatusOK, games)
}

func (f *FakeBackend) lookup(w http.ResponseWriter, r *http.Request) (*internal.Session, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "bad id"})
		return nil, false
	}
	game, ok := f.games[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return nil, false
	}
	return game, true
}

func (f *FakeBackend) handleGame(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if game, ok := f.lookup(w, r); ok {
		writeJSON(w, http.StatusOK, game)
	}
}

func (f *FakeBackend) handleNewChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Difficulty string `json:"difficulty"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	game := &internal.Session{
		ID:        f.nextGame,
		StartTime: now,
		Messages: []internal.Message{{
			ID:        f.nextMsg,
			Sender:    internal.SenderPatient,
			Content:   fmt.Sprintf("Hello doctor, I don't feel well. (%s case)", req.Difficulty),
			Timestamp: now,
		}},
	}
	f.nextGame++
	f.nextMsg++
	f.games[game.ID] = game
	f.order = append([]int64{game.ID}, f.order...)
	writeJSON(w, http.StatusCreated, game)
}

func (f *FakeBackend) handleSend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	game, ok := f.lookup(w, r)
	if !ok {
		return
	}
	now := time.Now().UTC()
	doctor := internal.Message{ID: f.nextMsg, Sender: internal.SenderDoctor, Content: req.Content, Timestamp: now}
	patient := internal.Message{ID: f.nextMsg + 1, Sender: internal.SenderPatient, Content: f.PatientReply, Timestamp: now}
	f.nextMsg += 2
	game.Messages = append(game.Messages, doctor, patient)
	writeJSON(w, http.StatusOK, patient)
}

func (f *FakeBackend) handleEnd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answer string `json:"answer"`
	}
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	game, ok := f.lookup(w, r)
	if !ok {
		return
	}
	if game.IsFinished {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "This game has already ended"})
		return
	}
	score := f.Evaluation.Score
	feedback := f.Evaluation.Feedback
	answer := req.Answer
	game.IsFinished = true
	game.Diagnosis = &answer
	game.Score = &score
	game.Feedback = &feedback
	writeJSON(w, http.StatusOK, f.Evaluation)
}

func (f *FakeBackend) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var incoming internal.Session
	if err := decode(r, &incoming); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	game, ok := f.lookup(w, r)
	if !ok {
		return
	}
	incoming.ID = game.ID
	for i := range incoming.Messages {
		if incoming.Messages[i].ID == 0 {
			incoming.Messages[i].ID = f.nextMsg
			f.nextMsg++
		}
	}
	f.games[game.ID] = &incoming
	writeJSON(w, http.StatusOK, &incoming)
}
