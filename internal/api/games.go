package api

import (
	"context"
	"net/http"

	"github.com/medsim/medsim/internal"
)

// PastGames lists the player's games in server order, most recent first
func (c *Client) PastGames(ctx context.Context) ([]*internal.Session, error) {
	var games []*internal.Session
	err := c.authorized(ctx, func(token string) error {
		games = nil
		return c.do(ctx, http.MethodGet, c.endpoints.PastGames(), token, nil, &games)
	})
	if err != nil {
		return nil, err
	}
	return games, nil
}

// Game loads one game with its full transcript
func (c *Client) Game(ctx context.Context, id int64) (*internal.Session, error) {
	var game internal.Session
	err := c.authorized(ctx, func(token string) error {
		return c.do(ctx, http.MethodGet, c.endpoints.Chat(id), token, nil, &game)
	})
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// NewGame asks the server to generate a patient
func (c *Client) NewGame(ctx context.Context, difficulty internal.Difficulty) (*internal.Session, error) {
	var game internal.Session
	body := map[string]string{"difficulty": string(difficulty)}
	err := c.authorized(ctx, func(token string) error {
		return c.do(ctx, http.MethodPost, c.endpoints.NewChat(), token, body, &game)
	})
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// SendMessage posts the doctor's line and returns the patient's reply
func (c *Client) SendMessage(ctx context.Context, id int64, content string) (*internal.Message, error) {
	var reply internal.Message
	body := map[string]string{"content": content}
	err := c.authorized(ctx, func(token string) error {
		return c.do(ctx, http.MethodPost, c.endpoints.SendMessage(id), token, body, &reply)
	})
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// EndGame submits the final diagnosis and returns the score
func (c *Client) EndGame(ctx context.Context, id int64, answer string) (*internal.Evaluation, error) {
	var eval internal.Evaluation
	body := map[string]string{"answer": answer}
	err := c.authorized(ctx, func(token string) error {
		return c.do(ctx, http.MethodPost, c.endpoints.EndGame(id), token, body, &eval)
	})
	if err != nil {
		return nil, err
	}
	return &eval, nil
}

// UpdateGame replaces the stored game record
func (c *Client) UpdateGame(ctx context.Context, game *internal.Session) (*internal.Session, error) {
	var saved internal.Session
	err := c.authorized(ctx, func(token string) error {
		return c.do(ctx, http.MethodPut, c.endpoints.Chat(game.ID), token, game, &saved)
	})
	if err != nil {
		return nil, err
	}
	return &saved, nil
}
