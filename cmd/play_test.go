package cmd

import (
	"strings"
	"testing"

	"github.com/medsim/medsim/internal"
	"github.com/medsim/medsim/testutil"
)

func TestShowCommand(t *testing.T) {
	c := newCLI(t)
	c.backend.AddGame(internal.CreateFinishedTestGame(1, "flu", 80, "good"))
	c.login()

	out := c.mustRun("show", "1")
	for _, want := range []string{"Game 1", "Diagnosis: flu", "Score: 80", "Doctor", "Patient", "Do you have a cough?", "[4/4]"} {
		if !strings.Contains(out, want) {
			t.Errorf("show output missing %q:\n%s", want, out)
		}
	}

	out = c.mustRun("show", "1", "--limit", "1")
	if !strings.Contains(out, "... (3 more message(s))") {
		t.Errorf("limit not applied:\n%s", out)
	}

	out = c.mustRun("show", "1", "--since", "2024-05-01T10:02:00Z")
	if strings.Contains(out, "Do you have a cough?") || !strings.Contains(out, "Yes, a dry one.") {
		t.Errorf("since filter not applied:\n%s", out)
	}
}

func TestShowCommand_Errors(t *testing.T) {
	c := newCLI(t)
	c.login()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad id", []string{"show", "abc"}, "invalid game id"},
		{"zero id", []string{"show", "0"}, "invalid game id"},
		{"missing game", []string{"show", "42"}, "Could not load the game"},
		{"bad since", []string{"show", "1", "--since", "yesterday"}, "--since"},
		{"not cached", []string{"show", "42", "--offline"}, "not cached"},
	}
	c.backend.AddGame(internal.CreateTestGame(1))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.run("", tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestShowCommand_OfflineAfterFetch(t *testing.T) {
	c := newCLI(t)
	c.backend.AddGame(internal.CreateTestGame(3))
	c.login()

	c.mustRun("show", "3")
	c.backend.SetStatus(testutil.RouteGame, 500)

	out := c.mustRun("show", "3", "--offline")
	if !strings.Contains(out, "Yes, a dry one.") {
		t.Errorf("cached transcript missing:\n%s", out)
	}
}

func TestNewCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"default difficulty", []string{"new"}, "(easy case)"},
		{"explicit difficulty", []string{"new", "--difficulty", "hard"}, "(hard case)"},
		{"short flag", []string{"new", "-d", "Medium"}, "(medium case)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCLI(t)
			c.login()
			out := c.mustRun(tt.args...)
			if !strings.Contains(out, "Started game 1") || !strings.Contains(out, tt.want) {
				t.Errorf("output:\n%s", out)
			}
			if !strings.Contains(out, "medsim send 1") {
				t.Errorf("missing tip:\n%s", out)
			}
		})
	}
}

func TestNewCommand_Errors(t *testing.T) {
	c := newCLI(t)
	c.login()

	if _, err := c.run("", "new", "--difficulty", "impossible"); err == nil {
		t.Error("unknown difficulty should fail")
	}
	if n := c.backend.Count(testutil.RouteNewChat); n != 0 {
		t.Errorf("new-chat requests = %d, want 0", n)
	}

	c.backend.SetStatus(testutil.RouteNewChat, 500)
	_, err := c.run("", "new")
	if err == nil || !strings.Contains(err.Error(), "Could not create a new game") {
		t.Errorf("error = %v", err)
	}
}

func TestSendCommand(t *testing.T) {
	c := newCLI(t)
	c.backend.AddGame(internal.CreateTestGame(1))
	c.login()

	out := c.mustRun("send", "1", "Any", "fever?")
	if !strings.Contains(out, c.backend.PatientReply) {
		t.Errorf("reply missing:\n%s", out)
	}
	if strings.Contains(out, "Any fever?") {
		t.Errorf("own message should not be echoed:\n%s", out)
	}

	game := c.backend.Game(1)
	if got := game.Messages[3].Content; got != "Any fever?" {
		t.Errorf("server got %q, want the joined words", got)
	}
}

func TestSendCommand_Errors(t *testing.T) {
	c := newCLI(t)
	c.backend.AddGame(internal.CreateFinishedTestGame(1, "flu", 80, "good"))
	c.backend.AddGame(internal.CreateTestGame(2))
	c.login()

	_, err := c.run("", "send", "1", "hello")
	if err == nil || !strings.Contains(err.Error(), "already finished") {
		t.Errorf("send to finished game error = %v", err)
	}

	if _, err := c.run("", "send", "2", "  "); err == nil {
		t.Error("blank message should fail")
	}

	c.backend.SetStatus(testutil.RouteSendMessage, 500)
	_, err = c.run("", "send", "2", "hello")
	if err == nil || !strings.Contains(err.Error(), "Could not send the message") {
		t.Errorf("error = %v", err)
	}
	if n := c.backend.Count(testutil.RouteSendMessage); n != 1 {
		t.Errorf("send-message requests = %d, want 1", n)
	}
}

func TestEndCommand(t *testing.T) {
	c := newCLI(t)
	c.backend.AddGame(internal.CreateTestGame(1))
	c.login()

	out := c.mustRun("end", "1", "viral", "flu")
	if !strings.Contains(out, "Game over. Diagnosis: viral flu. Score: 80. Feedback: good") {
		t.Errorf("summary missing:\n%s", out)
	}

	saved := c.backend.Game(1)
	if !saved.IsFinished || saved.DiagnosisText() != "viral flu" {
		t.Errorf("server record = %+v", saved)
	}
	last := saved.Messages[len(saved.Messages)-1]
	if !last.IsResult || last.ID == 0 {
		t.Errorf("saved summary = %+v, want a result message with a server id", last)
	}

	_, err := c.run("", "end", "1", "again")
	if err == nil || !strings.Contains(err.Error(), "already finished") {
		t.Errorf("second end error = %v", err)
	}
}

func TestEndCommand_SaveFailureQueuesResult(t *testing.T) {
	c := newCLI(t)
	c.backend.AddGame(internal.CreateTestGame(1))
	c.login()
	c.backend.SetStatus(testutil.RouteUpdateGame, 500)

	out := c.mustRun("end", "1", "flu")
	if !strings.Contains(out, "Score: 80") {
		t.Errorf("summary missing:\n%s", out)
	}
	if !strings.Contains(out, "queued") || !strings.Contains(out, "medsim sync") {
		t.Errorf("queue warning missing:\n%s", out)
	}

	out = c.mustRun("sync", "--dry-run")
	if !strings.Contains(out, "500") {
		t.Errorf("dry run should list the queued game with its error:\n%s", out)
	}
	if n := c.backend.Count(testutil.RouteUpdateGame); n != 1 {
		t.Errorf("update requests = %d, want 1 (dry run sends nothing)", n)
	}

	_, err := c.run("", "sync")
	if err == nil || !strings.Contains(err.Error(), "1 game(s) still queued") {
		t.Errorf("sync error = %v", err)
	}

	c.backend.SetStatus(testutil.RouteUpdateGame, 0)
	out = c.mustRun("sync")
	if !strings.Contains(out, "Saved 1 of 1") {
		t.Errorf("sync output:\n%s", out)
	}
	if !c.backend.Game(1).IsFinished {
		t.Error("server record should be finished after sync")
	}

	out = c.mustRun("sync")
	if !strings.Contains(out, "Nothing to sync") {
		t.Errorf("second sync output:\n%s", out)
	}
}

func TestEndCommand_SaveUnauthorizedQueuesResult(t *testing.T) {
	c := newCLI(t)
	c.backend.AddGame(internal.CreateTestGame(1))
	c.login()
	c.backend.SetStatus(testutil.RouteUpdateGame, 401)
	c.backend.RevokeRefreshTokens()

	out, err := c.run("", "end", "1", "flu")
	if err == nil || !strings.Contains(err.Error(), "log in again") {
		t.Errorf("error = %v, want the re-login hint", err)
	}
	if !strings.Contains(out, "Score: 80") {
		t.Errorf("summary missing:\n%s", out)
	}
	if !strings.Contains(out, "medsim login") || !strings.Contains(out, "medsim sync") {
		t.Errorf("login and sync hint missing:\n%s", out)
	}
	if n := c.backend.Count(testutil.RouteRefresh); n != 1 {
		t.Errorf("refresh requests = %d, want 1", n)
	}

	c.backend.SetStatus(testutil.RouteUpdateGame, 0)
	c.login()
	out = c.mustRun("sync")
	if !strings.Contains(out, "Saved 1 of 1") {
		t.Errorf("sync output:\n%s", out)
	}
	if !c.backend.Game(1).IsFinished {
		t.Error("queued result should reach the server after login")
	}
}

func TestEndCommand_ServerRejects(t *testing.T) {
	c := newCLI(t)
	c.backend.AddGame(internal.CreateTestGame(1))
	c.login()
	c.backend.SetStatus(testutil.RouteEndGame, 500)

	_, err := c.run("", "end", "1", "flu")
	if err == nil || !strings.Contains(err.Error(), "Could not finish the game") {
		t.Errorf("error = %v", err)
	}
	if c.backend.Game(1).IsFinished {
		t.Error("game should still be open")
	}
}

func TestPlayCommand_RequiresValidDifficulty(t *testing.T) {
	c := newCLI(t)
	if _, err := c.run("", "play", "--difficulty", "nightmare"); err == nil {
		t.Error("play should reject an unknown difficulty before opening the screen")
	}
}
