package api

import (
	"fmt"
	"strings"
)

const (
	pathLogin    = "/api/token/"
	pathRefresh  = "/api/token/update/"
	pathRegister = "/api/users/users/register/"
	pathProfile  = "/api/users/profile/"
	pathTopUsers = "/api/users/top-users/"
)

// Endpoints builds the game routes under a configurable prefix
type Endpoints struct {
	prefix string
}

// NewEndpoints returns routes under prefix, e.g. "/api/core"
func NewEndpoints(prefix string) Endpoints {
	return Endpoints{prefix: "/" + strings.Trim(prefix, "/")}
}

func (e Endpoints) PastGames() string { return e.prefix + "/past-games" }
func (e Endpoints) NewChat() string   { return e.prefix + "/new-chat" }

func (e Endpoints) Chat(id int64) string {
	return fmt.Sprintf("%s/chats/%d/", e.prefix, id)
}

func (e Endpoints) SendMessage(id int64) string {
	return fmt.Sprintf("%s/chats/%d/send-message", e.prefix, id)
}

func (e Endpoints) EndGame(id int64) string {
	return fmt.Sprintf("%s/chats/%d/end-game", e.prefix, id)
}
